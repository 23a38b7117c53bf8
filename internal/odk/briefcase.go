package odk

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openva-pipeline/vapipe/internal/model"
)

// FileExtractor reads submissions from a CSV export on disk, for
// deployments that pull from an Aggregate server with ODK Briefcase
// instead of talking to Central directly.
type FileExtractor struct {
	path string
}

// NewFileExtractor builds an extractor over a Briefcase export file.
func NewFileExtractor(path string) *FileExtractor {
	return &FileExtractor{path: path}
}

// Export reads the file and returns the submissions inside the window.
func (f *FileExtractor) Export(ctx context.Context, window model.ResumeWindow) ([]model.Submission, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, eris.Wrapf(err, "odk: open briefcase export %s", f.path)
	}
	defer file.Close() //nolint:errcheck

	subs, err := parseExport(file, window)
	if err != nil {
		return nil, err
	}
	zap.L().Info("odk: briefcase export read",
		zap.String("path", f.path),
		zap.Int("submissions", len(subs)),
	)
	return subs, nil
}
