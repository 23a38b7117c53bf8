// Package pipeline orchestrates one verbal-autopsy run: drain pending
// uploads, extract new submissions, dedupe, code causes of death, commit
// the run, and deliver the results.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openva-pipeline/vapipe/internal/model"
)

// Store is the slice of the transfer database the orchestrator needs.
type Store interface {
	PipelineConfig(ctx context.Context) (model.PipelineConfig, error)
	ODKConfig(ctx context.Context) (model.ODKConfig, error)
	AlgorithmConfig(ctx context.Context, algorithm model.Algorithm, workingDir string) (model.AlgorithmSettings, error)
	DHISConfig(ctx context.Context, algorithm model.Algorithm) (model.DHISConfig, map[string]string, error)
	IsNew(ctx context.Context, id string) (bool, error)
	LogEvent(ctx context.Context, desc, eventType string, at time.Time) error
	CommitRun(ctx context.Context, coded []model.CodedRecord, raw []model.Submission, ranAt time.Time) error
	RecordOutcome(ctx context.Context, result model.RunResult) error
	ListUnuploaded(ctx context.Context) ([]model.VARecord, error)
	MarkUploaded(ctx context.Context, id string, at time.Time) error
}

// Extractor pulls submissions from the collection server.
type Extractor interface {
	Export(ctx context.Context, window model.ResumeWindow) ([]model.Submission, error)
}

// Coder assigns causes of death to a batch of submissions.
type Coder interface {
	Code(ctx context.Context, settings model.AlgorithmSettings, subs []model.Submission, workingDir string) ([]model.CodedRecord, error)
}

// Uploader delivers coded records to the health system and returns the
// ids that landed.
type Uploader interface {
	Upload(ctx context.Context, records []model.VARecord) ([]string, error)
}

// Summary reports what one run did.
type Summary struct {
	Extracted  int
	Duplicates int
	Coded      int
	Uploaded   int
}

// Pipeline runs the full extract-code-store-upload cycle.
type Pipeline struct {
	store        Store
	newExtractor func(model.ODKConfig) (Extractor, error)
	coder        Coder
	newUploader  func(model.DHISConfig, map[string]string) Uploader
	now          func() time.Time
}

// New wires a Pipeline from its collaborators. The extractor and uploader
// are built per run because their credentials live inside the store.
func New(
	st Store,
	newExtractor func(model.ODKConfig) (Extractor, error),
	coder Coder,
	newUploader func(model.DHISConfig, map[string]string) Uploader,
) *Pipeline {
	return &Pipeline{
		store:        st,
		newExtractor: newExtractor,
		coder:        coder,
		newUploader:  newUploader,
		now:          time.Now,
	}
}

// Run executes one pipeline cycle. Configuration is loaded and validated
// up front so nothing external starts against bad settings. A failure
// records a failed outcome without advancing the resume window; a
// delivery failure after the run is committed is logged and retried on
// the next cycle instead of failing the run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	log := zap.L().With(zap.String("run_id", uuid.NewString()))
	log.Info("pipeline: run starting")

	pipeCfg, err := p.store.PipelineConfig(ctx)
	if err != nil {
		return sum, p.fail(ctx, err)
	}
	odkCfg, err := p.store.ODKConfig(ctx)
	if err != nil {
		return sum, p.fail(ctx, err)
	}
	settings, err := p.store.AlgorithmConfig(ctx, pipeCfg.Algorithm, pipeCfg.WorkingDirectory)
	if err != nil {
		return sum, p.fail(ctx, err)
	}
	dhisCfg, codes, err := p.store.DHISConfig(ctx, pipeCfg.Algorithm)
	if err != nil {
		return sum, p.fail(ctx, err)
	}

	uploader := p.newUploader(dhisCfg, codes)

	// Records a previous run coded but never delivered go out first.
	pending, err := p.store.ListUnuploaded(ctx)
	if err != nil {
		return sum, p.fail(ctx, err)
	}
	if len(pending) > 0 {
		n, err := p.deliver(ctx, uploader, pending)
		sum.Uploaded += n
		if err != nil {
			log.Warn("pipeline: backlog delivery incomplete", zap.Error(err))
		}
	}

	extractor, err := p.newExtractor(odkCfg)
	if err != nil {
		return sum, p.fail(ctx, err)
	}

	window := model.Window(odkCfg)
	subs, err := extractor.Export(ctx, window)
	if err != nil {
		return sum, p.fail(ctx, err)
	}
	sum.Extracted = len(subs)

	fresh, dups, err := p.dedupe(ctx, subs)
	if err != nil {
		return sum, p.fail(ctx, err)
	}
	sum.Duplicates = dups

	ranAt := p.now()
	var coded []model.CodedRecord
	if len(fresh) > 0 {
		coded, err = p.coder.Code(ctx, settings, fresh, pipeCfg.WorkingDirectory)
		if err != nil {
			return sum, p.fail(ctx, err)
		}
	}
	sum.Coded = len(coded)

	if err := p.store.CommitRun(ctx, coded, fresh, ranAt); err != nil {
		return sum, p.fail(ctx, err)
	}

	if len(coded) > 0 {
		records := make([]model.VARecord, len(coded))
		for i, rec := range coded {
			records[i] = model.VARecord{ID: rec.ID, Cause: rec.Cause, Record: rec.Payload, DateEntered: ranAt}
		}
		n, err := p.deliver(ctx, uploader, records)
		sum.Uploaded += n
		if err != nil {
			// The run is already committed; the backlog drain retries.
			log.Warn("pipeline: delivery incomplete, will retry next run", zap.Error(err))
		}
	}

	log.Info("pipeline: run complete",
		zap.Int("extracted", sum.Extracted),
		zap.Int("duplicates", sum.Duplicates),
		zap.Int("coded", sum.Coded),
		zap.Int("uploaded", sum.Uploaded),
	)
	return sum, nil
}

func (p *Pipeline) dedupe(ctx context.Context, subs []model.Submission) ([]model.Submission, int, error) {
	var fresh []model.Submission
	dups := 0
	for _, sub := range subs {
		ok, err := p.store.IsNew(ctx, sub.ID)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			dups++
			desc := fmt.Sprintf("duplicate submission %s skipped", sub.ID)
			if err := p.store.LogEvent(ctx, desc, "duplicate", p.now()); err != nil {
				zap.L().Warn("pipeline: event log write failed", zap.Error(err))
			}
			continue
		}
		fresh = append(fresh, sub)
	}
	return fresh, dups, nil
}

func (p *Pipeline) deliver(ctx context.Context, uploader Uploader, records []model.VARecord) (int, error) {
	uploaded, err := uploader.Upload(ctx, records)
	at := p.now()
	for _, id := range uploaded {
		if markErr := p.store.MarkUploaded(ctx, id, at); markErr != nil {
			zap.L().Warn("pipeline: mark uploaded failed", zap.String("id", id), zap.Error(markErr))
		}
	}
	return len(uploaded), err
}

// fail records the failed outcome and returns the original error. The
// resume window stays put so the next run re-extracts the same span.
func (p *Pipeline) fail(ctx context.Context, err error) error {
	if recErr := p.store.RecordOutcome(ctx, model.RunFail); recErr != nil {
		zap.L().Error("pipeline: could not record failed outcome", zap.Error(recErr))
	}
	return eris.Wrap(err, "pipeline: run failed")
}
