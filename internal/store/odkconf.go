package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

// ODKConfig loads and validates the singleton ODK_Conf row. The stored
// odkLastRun timestamp must parse; a malformed timestamp is a hard
// failure rather than a silent default, since the resume window is
// derived from it.
func (d *DB) ODKConfig(ctx context.Context) (model.ODKConfig, error) {
	var cfg model.ODKConfig
	var id, projectNumber sql.NullString
	var url, user, formID, lastRun, result, central string
	var password []byte

	err := d.singleRow(ctx, "ODK_Conf",
		`SELECT odkID, odkURL, odkUser, odkPassword, odkFormID, odkLastRun,
		        odkLastRunResult, odkUseCentral, odkProjectNumber FROM ODK_Conf`,
		&id, &url, &user, &password, &formID, &lastRun, &result, &central, &projectNumber)
	if err != nil {
		return cfg, err
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return cfg, fault.Field(fault.KindODKConfig, "ODK_Conf", "odkURL",
			"must start with 'http://' or 'https://'")
	}

	switch model.RunResult(result) {
	case model.RunSuccess, model.RunFail:
	default:
		return cfg, fault.Field(fault.KindODKConfig, "ODK_Conf", "odkLastRunResult",
			"valid options: 'success' or 'fail'")
	}

	ranAt, err := time.Parse(model.TimestampLayout, lastRun)
	if err != nil {
		return cfg, fault.Field(fault.KindODKConfig, "ODK_Conf", "odkLastRun",
			"must match YYYY-MM-DD_HH:MM:SS")
	}

	useCentral, err := pyBoolField("ODK_Conf", "odkUseCentral", central)
	if err != nil {
		return cfg, fault.Field(fault.KindODKConfig, "ODK_Conf", "odkUseCentral",
			"valid options: 'True' or 'False'")
	}

	plainPassword, err := d.open(password)
	if err != nil {
		return cfg, fault.Field(fault.KindODKConfig, "ODK_Conf", "odkPassword",
			"cannot be decrypted with the store key")
	}

	cfg.ID = id.String
	cfg.URL = url
	cfg.User = user
	cfg.Password = string(plainPassword)
	cfg.FormID = formID
	cfg.LastRun = ranAt
	cfg.LastRunResult = model.RunResult(result)
	cfg.UseCentral = useCentral
	cfg.ProjectNumber = projectNumber.String
	return cfg, nil
}
