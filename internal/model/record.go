package model

import "time"

// VARecord is one coded verbal-autopsy result. Records are immutable once
// written; the submission id doubles as the duplicate-detection key on
// resume and as the idempotency key for health-system delivery.
type VARecord struct {
	ID          string
	Cause       string
	Record      []byte
	DateEntered time.Time
	Uploaded    bool
	UploadedAt  *time.Time
}

// Submission is one raw export from the collection server, before coding.
type Submission struct {
	ID      string
	Payload []byte
}

// CodedRecord pairs a submission with its assigned cause of death.
type CodedRecord struct {
	ID      string
	Cause   string
	Payload []byte
}
