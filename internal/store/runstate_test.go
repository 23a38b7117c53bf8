package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openva-pipeline/vapipe/internal/model"
)

func TestCommitRun_AdvancesMarker(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()
	ranAt := time.Date(2023, 5, 11, 9, 30, 0, 0, time.UTC)

	coded := []model.CodedRecord{
		{ID: "uuid-1", Cause: "Malaria", Payload: []byte("r1")},
		{ID: "uuid-2", Cause: "Pneumonia", Payload: []byte("r2")},
	}
	raw := []model.Submission{
		{ID: "uuid-1", Payload: []byte("b1")},
		{ID: "uuid-2", Payload: []byte("b2")},
	}
	require.NoError(t, d.CommitRun(ctx, coded, raw, ranAt))

	cfg, err := d.ODKConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, ranAt, cfg.LastRun)
	assert.Equal(t, model.RunSuccess, cfg.LastRunResult)

	rec, err := d.Record(ctx, "uuid-2")
	require.NoError(t, err)
	assert.Equal(t, "Pneumonia", rec.Cause)

	blob, err := d.Blob(ctx, "uuid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("b1"), blob)
}

// Re-presenting already-stored ids after a crash-and-retry must not fail
// the commit or clobber the stored records.
func TestCommitRun_RetryAfterCrash(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	coded := []model.CodedRecord{{ID: "uuid-1", Cause: "Malaria", Payload: []byte("r1")}}
	raw := []model.Submission{{ID: "uuid-1", Payload: []byte("b1")}}

	first := time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC)
	require.NoError(t, d.CommitRun(ctx, coded, raw, first))

	retry := first.Add(time.Hour)
	require.NoError(t, d.CommitRun(ctx, coded, raw, retry))

	cfg, err := d.ODKConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, retry, cfg.LastRun)

	rec, err := d.Record(ctx, "uuid-1")
	require.NoError(t, err)
	assert.Equal(t, first, rec.DateEntered, "original record wins over the replay")
}

func TestRecordOutcome_FailDoesNotAdvanceMarker(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	before, err := d.ODKConfig(ctx)
	require.NoError(t, err)

	require.NoError(t, d.RecordOutcome(ctx, model.RunFail))

	after, err := d.ODKConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.LastRun, after.LastRun, "a failed run never moves the resume window")
	assert.Equal(t, model.RunFail, after.LastRunResult)
}

func TestSetConfigValue(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, d.SetConfigValue(ctx, "ODK_Conf", "odkUser", "field-team"))

	cfg, err := d.ODKConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "field-team", cfg.User)
}

func TestSetConfigValue_SealsPasswords(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, d.SetConfigValue(ctx, "ODK_Conf", "odkPassword", "s3cret"))

	var stored []byte
	row := d.db.QueryRow(`SELECT odkPassword FROM ODK_Conf`)
	require.NoError(t, row.Scan(&stored))
	assert.NotEqual(t, []byte("s3cret"), stored)

	cfg, err := d.ODKConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Password)
}

func TestSetConfigValue_RejectsUnknownColumn(t *testing.T) {
	d := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, d.SetConfigValue(ctx, "ODK_Conf", "odkLastRun", "2024-01-01_00:00:00"),
		"the run marker is owned by the run-state tracker, not config set")
	assert.Error(t, d.SetConfigValue(ctx, "VA_Storage", "outcome", "x"))
}
