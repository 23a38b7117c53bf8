package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

// CommitRun persists the outcome of one successful run in a single
// transaction: every coded record, its raw export blob, and the advanced
// run marker. Either everything lands or nothing does, so a crash mid-run
// leaves odkLastRun untouched and the next run re-extracts the same window.
//
// Duplicate ids inside the batch are conflicts: callers gate with IsNew
// before coding. Re-running after a crash re-presents already-stored ids,
// which the conflict clause skips rather than fails.
func (d *DB) CommitRun(ctx context.Context, coded []model.CodedRecord, raw []model.Submission, ranAt time.Time) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: commit run begin")
	}
	defer tx.Rollback()

	entered := ranAt.Format(model.TimestampLayout)
	for _, rec := range coded {
		sealed, err := d.seal(rec.Payload)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO VA_Storage (id, outcome, record, dateEntered) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			rec.ID, rec.Cause, sealed, entered); err != nil {
			return fault.Table("VA_Storage", err)
		}
	}
	for _, sub := range raw {
		sealed, err := d.seal(sub.Payload)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO VA_Blobs (id, blob, dateEntered) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			sub.ID, sealed, entered); err != nil {
			return fault.Table("VA_Blobs", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE ODK_Conf SET odkLastRun = ?, odkLastRunResult = ?`,
		entered, string(model.RunSuccess)); err != nil {
		return fault.Table("ODK_Conf", err)
	}

	return eris.Wrap(tx.Commit(), "store: commit run")
}

// RecordOutcome stores a run outcome without touching odkLastRun. A failed
// run must never advance the resume window, or the submissions it missed
// would be skipped forever.
func (d *DB) RecordOutcome(ctx context.Context, result model.RunResult) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE ODK_Conf SET odkLastRunResult = ?`, string(result))
	if err != nil {
		return fault.Table("ODK_Conf", err)
	}
	return nil
}
