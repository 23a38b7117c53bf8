// Package store implements the encrypted transfer database: the adapter
// that opens it, the configuration loaders with their validation grammar,
// the run-state tracker, and the VA record/blob recorder.
//
// One *DB is opened per pipeline run and released on every exit path.
// The store performs no run-level locking; callers serialize runs.
package store

import (
	"context"
	"crypto/cipher"
	"database/sql"
	"os"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/openva-pipeline/vapipe/internal/fault"
)

// DB is an open, key-verified connection to the transfer database.
type DB struct {
	db   *sql.DB
	aead cipher.AEAD
}

// Open connects to an existing transfer database. It fails with a
// connection fault whose rule is fault.RuleMissingFile when the file does
// not exist, and fault.RuleBadKey when the file exists but the decryption
// probe fails (wrong passphrase, or not a transfer database at all).
func Open(path, key string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Connection(fault.RuleMissingFile, err)
		}
		return nil, eris.Wrapf(err, "store: stat %s", path)
	}

	db, err := openSQLite(path)
	if err != nil {
		// The file exists but cannot be read as a database; for the
		// operator this is the same class of failure as a wrong key.
		return nil, fault.Connection(fault.RuleBadKey, err)
	}

	var salt, probe []byte
	row := db.QueryRow(`SELECT salt, probe FROM Cipher_Meta WHERE id = 1`)
	if err := row.Scan(&salt, &probe); err != nil {
		db.Close()
		return nil, fault.Connection(fault.RuleBadKey, err)
	}

	aead, err := deriveAEAD(key, salt)
	if err != nil {
		db.Close()
		return nil, err
	}

	d := &DB{db: db, aead: aead}
	if _, err := d.open(probe); err != nil {
		db.Close()
		return nil, fault.Connection(fault.RuleBadKey, err)
	}
	return d, nil
}

// Create initializes a new transfer database at path, keyed with the given
// passphrase, and seeds the reference tables and default configuration
// rows. It refuses to overwrite an existing file.
func Create(path, key string) (*DB, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, eris.Errorf("store: %s already exists", path)
	}

	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if err := fillRandom(salt); err != nil {
		db.Close()
		return nil, err
	}
	aead, err := deriveAEAD(key, salt)
	if err != nil {
		db.Close()
		return nil, err
	}
	d := &DB{db: db, aead: aead}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	probe, err := d.seal(probeCanary)
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`INSERT INTO Cipher_Meta (id, salt, probe) VALUES (1, ?, ?)`, salt, probe); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "store: write cipher meta")
	}
	if err := d.seed(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return db, nil
}
