package store

import (
	"context"
	"time"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

// IsNew reports whether no record with this submission id has been stored.
// The resume window deliberately overlaps the previous run by a day; this
// gate keeps the overlap from double-processing submissions.
func (d *DB) IsNew(ctx context.Context, id string) (bool, error) {
	var n int
	row := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM VA_Storage WHERE id = ?`, id)
	if err := row.Scan(&n); err != nil {
		return false, fault.Table("VA_Storage", err)
	}
	return n == 0, nil
}

// StoreRecord writes one coded record. The payload is sealed before it
// touches disk. A duplicate submission id fails; callers gate with IsNew.
func (d *DB) StoreRecord(ctx context.Context, rec model.CodedRecord, enteredAt time.Time) error {
	sealed, err := d.seal(rec.Payload)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO VA_Storage (id, outcome, record, dateEntered) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Cause, sealed, enteredAt.Format(model.TimestampLayout))
	if err != nil {
		return fault.Table("VA_Storage", err)
	}
	return nil
}

// StoreBlob writes one raw submission export, sealed, keyed by submission id.
func (d *DB) StoreBlob(ctx context.Context, id string, blob []byte, enteredAt time.Time) error {
	sealed, err := d.seal(blob)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO VA_Blobs (id, blob, dateEntered) VALUES (?, ?, ?)`,
		id, sealed, enteredAt.Format(model.TimestampLayout))
	if err != nil {
		return fault.Table("VA_Blobs", err)
	}
	return nil
}

// Blob reads back and unseals one raw submission export.
func (d *DB) Blob(ctx context.Context, id string) ([]byte, error) {
	var sealed []byte
	row := d.db.QueryRowContext(ctx, `SELECT blob FROM VA_Blobs WHERE id = ?`, id)
	if err := row.Scan(&sealed); err != nil {
		return nil, fault.Table("VA_Blobs", err)
	}
	return d.open(sealed)
}

// Record reads back one coded record, unsealing its payload.
func (d *DB) Record(ctx context.Context, id string) (model.VARecord, error) {
	var rec model.VARecord
	var sealed []byte
	var entered string
	var uploaded int
	var uploadedAt *string

	row := d.db.QueryRowContext(ctx,
		`SELECT id, outcome, record, dateEntered, uploaded, uploadedAt FROM VA_Storage WHERE id = ?`, id)
	if err := row.Scan(&rec.ID, &rec.Cause, &sealed, &entered, &uploaded, &uploadedAt); err != nil {
		return rec, fault.Table("VA_Storage", err)
	}
	return d.assembleRecord(rec, sealed, entered, uploaded, uploadedAt)
}

// MarkUploaded flips the delivery flag for one record. Used after a
// successful health-system post so a later run will not resend it.
func (d *DB) MarkUploaded(ctx context.Context, id string, at time.Time) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE VA_Storage SET uploaded = 1, uploadedAt = ? WHERE id = ?`,
		at.Format(model.TimestampLayout), id)
	if err != nil {
		return fault.Table("VA_Storage", err)
	}
	return nil
}

// ListUnuploaded returns every coded record not yet delivered, oldest
// first. A run drains this list before extracting new submissions, so an
// upload failure in one run is retried in the next.
func (d *DB) ListUnuploaded(ctx context.Context) ([]model.VARecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, outcome, record, dateEntered, uploaded, uploadedAt
		 FROM VA_Storage WHERE uploaded = 0 ORDER BY dateEntered, id`)
	if err != nil {
		return nil, fault.Table("VA_Storage", err)
	}
	defer rows.Close()

	var out []model.VARecord
	for rows.Next() {
		var rec model.VARecord
		var sealed []byte
		var entered string
		var uploaded int
		var uploadedAt *string
		if err := rows.Scan(&rec.ID, &rec.Cause, &sealed, &entered, &uploaded, &uploadedAt); err != nil {
			return nil, fault.Table("VA_Storage", err)
		}
		rec, err := d.assembleRecord(rec, sealed, entered, uploaded, uploadedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Table("VA_Storage", err)
	}
	return out, nil
}

func (d *DB) assembleRecord(rec model.VARecord, sealed []byte, entered string, uploaded int, uploadedAt *string) (model.VARecord, error) {
	plain, err := d.open(sealed)
	if err != nil {
		return rec, err
	}
	enteredAt, err := time.Parse(model.TimestampLayout, entered)
	if err != nil {
		return rec, fault.Table("VA_Storage", err)
	}
	rec.Record = plain
	rec.DateEntered = enteredAt
	rec.Uploaded = uploaded != 0
	if uploadedAt != nil {
		at, err := time.Parse(model.TimestampLayout, *uploadedAt)
		if err != nil {
			return rec, fault.Table("VA_Storage", err)
		}
		rec.UploadedAt = &at
	}
	return rec, nil
}

// LogEvent appends one audit line to EventLog. Logging never blocks a run:
// the caller decides whether a write failure matters.
func (d *DB) LogEvent(ctx context.Context, desc, eventType string, at time.Time) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO EventLog (eventDesc, eventType, eventTime) VALUES (?, ?, ?)`,
		desc, eventType, at.Format(model.TimestampLayout))
	if err != nil {
		return fault.Table("EventLog", err)
	}
	return nil
}
