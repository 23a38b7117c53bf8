package openva

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openva-pipeline/vapipe/internal/model"
)

// Runner executes a coding algorithm as an external process.
type Runner struct {
	rscriptPath string
	smartvaPath string
	timeout     time.Duration
}

// NewRunner creates a Runner. Empty paths fall back to the binaries on PATH.
func NewRunner(rscriptPath, smartvaPath string, timeout time.Duration) *Runner {
	if rscriptPath == "" {
		rscriptPath = "Rscript"
	}
	if smartvaPath == "" {
		smartvaPath = "smartva"
	}
	if timeout == 0 {
		timeout = time.Hour
	}
	return &Runner{rscriptPath: rscriptPath, smartvaPath: smartvaPath, timeout: timeout}
}

// Code runs the configured algorithm over a batch of submissions and
// pairs each with its assigned cause. Work files live under the pipeline
// working directory and are removed when the batch finishes.
func (r *Runner) Code(ctx context.Context, settings model.AlgorithmSettings, subs []model.Submission, workingDir string) ([]model.CodedRecord, error) {
	if len(subs) == 0 {
		return nil, nil
	}

	batchDir, err := os.MkdirTemp(workingDir, "batch-")
	if err != nil {
		return nil, eris.Wrap(err, "openva: create batch dir")
	}
	defer os.RemoveAll(batchDir) //nolint:errcheck

	inputPath := filepath.Join(batchDir, "records.csv")
	outputPath := filepath.Join(batchDir, "causes.csv")
	if err := writeBatch(inputPath, subs); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	switch s := settings.(type) {
	case model.InterVASettings:
		err = r.runRScript(ctx, batchDir, interVAScript(s, inputPath, outputPath))
	case model.InSilicoVASettings:
		err = r.runRScript(ctx, batchDir, inSilicoVAScript(s, inputPath, outputPath))
	case model.SmartVASettings:
		err = r.runSmartVA(ctx, s, inputPath, batchDir, outputPath)
	default:
		return nil, eris.Errorf("openva: unsupported settings type %T", settings)
	}
	if err != nil {
		return nil, err
	}
	zap.L().Info("openva: batch coded",
		zap.String("algorithm", string(settings.Family())),
		zap.Int("records", len(subs)),
		zap.Duration("elapsed", time.Since(start)),
	)

	out, err := os.Open(outputPath)
	if err != nil {
		return nil, eris.Wrap(err, "openva: open results")
	}
	defer out.Close() //nolint:errcheck

	return parseResults(out, subs)
}

func (r *Runner) runRScript(ctx context.Context, batchDir, script string) error {
	scriptPath := filepath.Join(batchDir, "code.R")
	if err := os.WriteFile(scriptPath, []byte(script), 0o600); err != nil {
		return eris.Wrap(err, "openva: write script")
	}

	cmd := exec.CommandContext(ctx, r.rscriptPath, "--vanilla", scriptPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "openva: Rscript failed: %s", stderr.String())
	}
	return nil
}

func (r *Runner) runSmartVA(ctx context.Context, s model.SmartVASettings, inputPath, batchDir, outputPath string) error {
	cmd := exec.CommandContext(ctx, r.smartvaPath, smartVAArgs(s, inputPath, batchDir)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "openva: smartva failed: %s", stderr.String())
	}

	// SmartVA writes its individual cause assignments to a fixed filename
	// inside the output directory; normalize to the shared results path.
	produced := filepath.Join(batchDir, "causes_of_death.csv")
	if err := os.Rename(produced, outputPath); err != nil {
		return eris.Wrap(err, "openva: collect smartva results")
	}
	return nil
}

// writeBatch merges self-contained submission payloads back into one CSV:
// the header from the first payload, one data row from each.
func writeBatch(path string, subs []model.Submission) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "openva: create batch input")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	for i, sub := range subs {
		cr := csv.NewReader(bytes.NewReader(sub.Payload))
		cr.FieldsPerRecord = -1
		header, err := cr.Read()
		if err != nil {
			return eris.Wrapf(err, "openva: submission %s has no header", sub.ID)
		}
		if i == 0 {
			if err := w.Write(header); err != nil {
				return eris.Wrap(err, "openva: write batch header")
			}
		}
		row, err := cr.Read()
		if err != nil {
			return eris.Wrapf(err, "openva: submission %s has no data row", sub.ID)
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "openva: write batch row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "openva: flush batch input")
}

// parseResults reads the id,cause output and joins it back to the
// submissions so each coded record keeps its raw payload.
func parseResults(r io.Reader, subs []model.Submission) ([]model.CodedRecord, error) {
	byID := make(map[string]model.Submission, len(subs))
	for _, sub := range subs {
		byID[sub.ID] = sub
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "openva: read results header")
	}
	idCol, causeCol := -1, -1
	for i, name := range header {
		switch name {
		case "id", "ID", "sid":
			if idCol < 0 {
				idCol = i
			}
		case "cause", "cause34":
			if causeCol < 0 {
				causeCol = i
			}
		}
	}
	if idCol < 0 || causeCol < 0 {
		return nil, eris.New("openva: results missing id or cause column")
	}

	var coded []model.CodedRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "openva: read results row")
		}
		if idCol >= len(row) || causeCol >= len(row) {
			continue
		}
		sub, ok := byID[row[idCol]]
		if !ok {
			zap.L().Warn("openva: result for unknown submission", zap.String("id", row[idCol]))
			continue
		}
		coded = append(coded, model.CodedRecord{ID: sub.ID, Cause: row[causeCol], Payload: sub.Payload})
	}
	return coded, nil
}
