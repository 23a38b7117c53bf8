package model

import "time"

// Timestamp layouts used by the transfer store. LastRun is persisted with
// TimestampLayout; derived window dates are rendered with DateLayout.
const (
	TimestampLayout = "2006-01-02_15:04:05"
	DateLayout      = "2006/01/02"
)

// Algorithm is a cause-of-death coding algorithm family.
type Algorithm string

const (
	AlgorithmInterVA    Algorithm = "InterVA"
	AlgorithmInterVA5   Algorithm = "InterVA5"
	AlgorithmInSilicoVA Algorithm = "InSilicoVA"
	AlgorithmSmartVA    Algorithm = "SmartVA"
)

// CODSource identifies the cause-of-death list a run codes against.
type CODSource string

const (
	CODSourceICD10  CODSource = "ICD10"
	CODSourceWHO    CODSource = "WHO"
	CODSourceTariff CODSource = "Tariff"
)

// RunResult is the persisted outcome of a pipeline run.
type RunResult string

const (
	RunSuccess RunResult = "success"
	RunFail    RunResult = "fail"
)

// PipelineConfig is the validated Pipeline_Conf row.
type PipelineConfig struct {
	AlgorithmMetadataCode string
	CODSource             CODSource
	Algorithm             Algorithm
	WorkingDirectory      string
}

// ODKConfig is the validated ODK_Conf row. LastRun has already been parsed
// from its stored timestamp string; the resume window is always derived,
// never stored.
type ODKConfig struct {
	ID            string
	URL           string
	User          string
	Password      string
	FormID        string
	LastRun       time.Time
	LastRunResult RunResult
	UseCentral    bool
	ProjectNumber string
}

// ResumeWindow is the date range a run re-scans for new submissions.
// SinceWithMargin trails Since by one calendar day so that submissions
// landing exactly on a day boundary are not skipped; the recorder's
// duplicate gate keeps the overlap from double-processing.
type ResumeWindow struct {
	Since           time.Time
	SinceWithMargin time.Time
}

// SinceDate renders Since in the store's date layout.
func (w ResumeWindow) SinceDate() string { return w.Since.Format(DateLayout) }

// MarginDate renders SinceWithMargin in the store's date layout.
func (w ResumeWindow) MarginDate() string { return w.SinceWithMargin.Format(DateLayout) }

// Window derives the resume window from a loaded ODK configuration.
// It is pure: calling it twice with the same config yields the same window.
func Window(cfg ODKConfig) ResumeWindow {
	day := time.Date(cfg.LastRun.Year(), cfg.LastRun.Month(), cfg.LastRun.Day(), 0, 0, 0, 0, cfg.LastRun.Location())
	return ResumeWindow{
		Since:           day,
		SinceWithMargin: day.AddDate(0, 0, -1),
	}
}

// DHISConfig is the validated DHIS_Conf row.
type DHISConfig struct {
	URL      string
	User     string
	Password string
	OrgUnit  string
}
