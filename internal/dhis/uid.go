package dhis

import "crypto/sha256"

const (
	uidLetters  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	uidAlphabet = uidLetters + "0123456789"
	uidLength   = 11
)

// EventUID derives a DHIS2 event UID from a submission id. The mapping is
// deterministic, so re-uploading the same record after a partial failure
// overwrites its event instead of duplicating it. DHIS2 UIDs are eleven
// characters and must start with a letter.
func EventUID(submissionID string) string {
	sum := sha256.Sum256([]byte(submissionID))
	uid := make([]byte, uidLength)
	uid[0] = uidLetters[int(sum[0])%len(uidLetters)]
	for i := 1; i < uidLength; i++ {
		uid[i] = uidAlphabet[int(sum[i])%len(uidAlphabet)]
	}
	return string(uid)
}
