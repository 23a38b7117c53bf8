package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/rotisserie/eris"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 16
	keySize  = 32
	scryptN  = 1 << 15
	scryptR  = 8
	scryptP  = 1
)

// probeCanary is sealed into Cipher_Meta when a store is created. Failing
// to open it on a later connect distinguishes a wrong key from a missing
// store file.
var probeCanary = []byte("openva transfer db v1")

func fillRandom(b []byte) error {
	if _, err := rand.Read(b); err != nil {
		return eris.Wrap(err, "store: random salt")
	}
	return nil
}

func deriveAEAD(key string, salt []byte) (cipher.AEAD, error) {
	dk, err := scrypt.Key([]byte(key), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, eris.Wrap(err, "store: derive key")
	}
	block, err := aes.NewCipher(dk)
	if err != nil {
		return nil, eris.Wrap(err, "store: init cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, eris.Wrap(err, "store: init gcm")
	}
	return aead, nil
}

// seal encrypts plain and prepends the nonce, so the result is
// self-contained for open.
func (d *DB) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, d.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, eris.Wrap(err, "store: nonce")
	}
	return d.aead.Seal(nonce, nonce, plain, nil), nil
}

func (d *DB) open(sealed []byte) ([]byte, error) {
	ns := d.aead.NonceSize()
	if len(sealed) < ns {
		return nil, eris.New("store: sealed value too short")
	}
	plain, err := d.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sealed value")
	}
	return plain, nil
}
