package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openva-pipeline/vapipe/internal/model"
)

// fakeStore is an in-memory Store with per-method failure injection.
type fakeStore struct {
	pipeCfg  model.PipelineConfig
	odkCfg   model.ODKConfig
	settings model.AlgorithmSettings
	dhisCfg  model.DHISConfig
	codes    map[string]string

	stored    map[string]model.CodedRecord
	blobs     map[string][]byte
	uploaded  map[string]bool
	pending   []model.VARecord
	events    []string
	lastRun   time.Time
	outcome   model.RunResult
	committed bool

	odkErr    error
	commitErr error
}

func newFakeStore() *fakeStore {
	lastRun, _ := time.Parse(model.TimestampLayout, "2023-05-10_23:59:00")
	return &fakeStore{
		pipeCfg:  model.PipelineConfig{Algorithm: model.AlgorithmInterVA5, WorkingDirectory: "/tmp"},
		odkCfg:   model.ODKConfig{LastRun: lastRun, LastRunResult: model.RunSuccess, UseCentral: true},
		settings: model.InterVASettings{Version: "5"},
		dhisCfg:  model.DHISConfig{URL: "https://dhis.example.org"},
		codes:    map[string]string{"Malaria": "aaVZzdmJ09P"},
		stored:   map[string]model.CodedRecord{},
		blobs:    map[string][]byte{},
		uploaded: map[string]bool{},
		lastRun:  lastRun,
		outcome:  model.RunSuccess,
	}
}

func (f *fakeStore) PipelineConfig(context.Context) (model.PipelineConfig, error) {
	return f.pipeCfg, nil
}

func (f *fakeStore) ODKConfig(context.Context) (model.ODKConfig, error) {
	if f.odkErr != nil {
		return model.ODKConfig{}, f.odkErr
	}
	return f.odkCfg, nil
}

func (f *fakeStore) AlgorithmConfig(context.Context, model.Algorithm, string) (model.AlgorithmSettings, error) {
	return f.settings, nil
}

func (f *fakeStore) DHISConfig(context.Context, model.Algorithm) (model.DHISConfig, map[string]string, error) {
	return f.dhisCfg, f.codes, nil
}

func (f *fakeStore) IsNew(_ context.Context, id string) (bool, error) {
	_, seen := f.stored[id]
	return !seen, nil
}

func (f *fakeStore) LogEvent(_ context.Context, desc, _ string, _ time.Time) error {
	f.events = append(f.events, desc)
	return nil
}

func (f *fakeStore) CommitRun(_ context.Context, coded []model.CodedRecord, raw []model.Submission, ranAt time.Time) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	for _, rec := range coded {
		f.stored[rec.ID] = rec
	}
	for _, sub := range raw {
		f.blobs[sub.ID] = sub.Payload
	}
	f.lastRun = ranAt
	f.outcome = model.RunSuccess
	f.committed = true
	return nil
}

func (f *fakeStore) RecordOutcome(_ context.Context, result model.RunResult) error {
	f.outcome = result
	return nil
}

func (f *fakeStore) ListUnuploaded(context.Context) ([]model.VARecord, error) {
	return f.pending, nil
}

func (f *fakeStore) MarkUploaded(_ context.Context, id string, _ time.Time) error {
	f.uploaded[id] = true
	return nil
}

type fakeExtractor struct {
	subs []model.Submission
	err  error
}

func (f *fakeExtractor) Export(context.Context, model.ResumeWindow) ([]model.Submission, error) {
	return f.subs, f.err
}

type fakeCoder struct {
	err error
}

func (f *fakeCoder) Code(_ context.Context, _ model.AlgorithmSettings, subs []model.Submission, _ string) ([]model.CodedRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	coded := make([]model.CodedRecord, len(subs))
	for i, sub := range subs {
		coded[i] = model.CodedRecord{ID: sub.ID, Cause: "Malaria", Payload: sub.Payload}
	}
	return coded, nil
}

type fakeUploader struct {
	err  error
	sent []string
}

func (f *fakeUploader) Upload(_ context.Context, records []model.VARecord) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
		f.sent = append(f.sent, rec.ID)
	}
	return ids, nil
}

func newTestPipeline(st *fakeStore, ex *fakeExtractor, up *fakeUploader, coder Coder) *Pipeline {
	p := New(st,
		func(model.ODKConfig) (Extractor, error) { return ex, nil },
		coder,
		func(model.DHISConfig, map[string]string) Uploader { return up },
	)
	p.now = func() time.Time { return time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC) }
	return p
}

func TestRun_FullCycle(t *testing.T) {
	st := newFakeStore()
	ex := &fakeExtractor{subs: []model.Submission{
		{ID: "uuid-1", Payload: []byte("p1")},
		{ID: "uuid-2", Payload: []byte("p2")},
	}}
	up := &fakeUploader{}
	p := newTestPipeline(st, ex, up, &fakeCoder{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Extracted: 2, Duplicates: 0, Coded: 2, Uploaded: 2}, sum)
	assert.True(t, st.committed)
	assert.Equal(t, model.RunSuccess, st.outcome)
	assert.True(t, st.uploaded["uuid-1"])
	assert.Contains(t, st.blobs, "uuid-2")
}

func TestRun_SkipsDuplicates(t *testing.T) {
	st := newFakeStore()
	st.stored["uuid-1"] = model.CodedRecord{ID: "uuid-1"}
	ex := &fakeExtractor{subs: []model.Submission{
		{ID: "uuid-1", Payload: []byte("p1")},
		{ID: "uuid-2", Payload: []byte("p2")},
	}}
	p := newTestPipeline(st, ex, &fakeUploader{}, &fakeCoder{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, 1, sum.Coded)
	require.Len(t, st.events, 1)
	assert.Contains(t, st.events[0], "uuid-1")
}

func TestRun_ExtractFailureRecordsFail(t *testing.T) {
	st := newFakeStore()
	ex := &fakeExtractor{err: eris.New("server unreachable")}
	p := newTestPipeline(st, ex, &fakeUploader{}, &fakeCoder{})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.RunFail, st.outcome)
	assert.False(t, st.committed, "a failed run must not advance the resume window")
}

func TestRun_CoderFailureRecordsFail(t *testing.T) {
	st := newFakeStore()
	ex := &fakeExtractor{subs: []model.Submission{{ID: "uuid-1", Payload: []byte("p1")}}}
	p := newTestPipeline(st, ex, &fakeUploader{}, &fakeCoder{err: eris.New("Rscript exploded")})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.RunFail, st.outcome)
	assert.False(t, st.committed)
}

func TestRun_UploadFailureIsNotFatal(t *testing.T) {
	st := newFakeStore()
	ex := &fakeExtractor{subs: []model.Submission{{ID: "uuid-1", Payload: []byte("p1")}}}
	up := &fakeUploader{err: eris.New("dhis down")}
	p := newTestPipeline(st, ex, up, &fakeCoder{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err, "the run is committed; delivery retries next cycle")
	assert.Equal(t, 1, sum.Coded)
	assert.Equal(t, 0, sum.Uploaded)
	assert.True(t, st.committed)
	assert.Equal(t, model.RunSuccess, st.outcome)
	assert.False(t, st.uploaded["uuid-1"])
}

func TestRun_DrainsBacklogFirst(t *testing.T) {
	st := newFakeStore()
	st.pending = []model.VARecord{{ID: "uuid-old", Cause: "Malaria", Record: []byte("r")}}
	ex := &fakeExtractor{}
	up := &fakeUploader{}
	p := newTestPipeline(st, ex, up, &fakeCoder{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Uploaded)
	assert.True(t, st.uploaded["uuid-old"])
	assert.Equal(t, []string{"uuid-old"}, up.sent)
}

func TestRun_ConfigFaultRecordsFail(t *testing.T) {
	st := newFakeStore()
	st.odkErr = eris.New("odk_config: ODK_Conf.odkURL")
	p := newTestPipeline(st, &fakeExtractor{}, &fakeUploader{}, &fakeCoder{})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.RunFail, st.outcome)
}
