package odk

import (
	"bytes"
	"encoding/csv"
	"io"
	"time"

	"github.com/rotisserie/eris"

	"github.com/openva-pipeline/vapipe/internal/model"
)

// Column names in a Central submissions export.
const (
	colSubmissionDate = "SubmissionDate"
	colInstanceID     = "meta-instanceID"
	colKey            = "KEY"
)

// parseExport reads a Central CSV export and keeps rows submitted on or
// after the window's margin date. Each kept submission is rendered as a
// self-contained two-line CSV (header plus row) so the coder can process
// records independently.
func parseExport(r io.Reader, window model.ResumeWindow) ([]model.Submission, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "odk: read export header")
	}

	idCol, dateCol := -1, -1
	for i, name := range header {
		switch name {
		case colInstanceID:
			idCol = i
		case colKey:
			if idCol < 0 {
				idCol = i
			}
		case colSubmissionDate:
			dateCol = i
		}
	}
	if idCol < 0 {
		return nil, eris.Errorf("odk: export has no %s or %s column", colInstanceID, colKey)
	}
	if dateCol < 0 {
		return nil, eris.Errorf("odk: export has no %s column", colSubmissionDate)
	}

	var subs []model.Submission
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "odk: read export row")
		}
		if idCol >= len(row) || dateCol >= len(row) {
			continue
		}

		submitted, err := parseSubmissionDate(row[dateCol])
		if err != nil {
			return nil, eris.Wrapf(err, "odk: submission %s has unparseable date", row[idCol])
		}
		if submitted.Before(window.SinceWithMargin) {
			continue
		}

		payload, err := renderRow(header, row)
		if err != nil {
			return nil, err
		}
		subs = append(subs, model.Submission{ID: row[idCol], Payload: payload})
	}
	return subs, nil
}

func parseSubmissionDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("odk: unrecognized date %q", value)
}

func renderRow(header, row []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, eris.Wrap(err, "odk: render header")
	}
	if err := w.Write(row); err != nil {
		return nil, eris.Wrap(err, "odk: render row")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "odk: render row")
	}
	return buf.Bytes(), nil
}
