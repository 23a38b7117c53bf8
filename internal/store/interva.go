package store

import (
	"context"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

func (d *DB) interVAConfig(ctx context.Context, workingDir string) (model.InterVASettings, error) {
	var s model.InterVASettings
	var version, hiv, malaria string

	err := d.singleRow(ctx, "InterVA_Conf",
		`SELECT version, HIV, Malaria FROM InterVA_Conf`,
		&version, &hiv, &malaria)
	if err != nil {
		return s, err
	}

	if _, err := enumField("InterVA_Conf", "version", version, "4", "5"); err != nil {
		return s, err
	}
	if _, err := enumField("InterVA_Conf", "HIV", hiv, "v", "l", "h"); err != nil {
		return s, err
	}
	if _, err := enumField("InterVA_Conf", "Malaria", malaria, "v", "l", "h"); err != nil {
		return s, err
	}

	var directory, filename, output string
	var appendRaw, groupCode, replicate, bug1, bug2, write string
	err = d.singleRow(ctx, "Advanced_InterVA_Conf",
		`SELECT directory, filename, output, append, groupcode, replicate,
		        replicate_bug1, replicate_bug2, write FROM Advanced_InterVA_Conf`,
		&directory, &filename, &output, &appendRaw, &groupCode, &replicate, &bug1, &bug2, &write)
	if err != nil {
		return s, err
	}

	if s.Directory, err = directoryField("Advanced_InterVA_Conf", "directory", directory, workingDir); err != nil {
		return s, err
	}
	if filename == "" {
		return s, fault.Field(fault.KindOpenVAConfig, "Advanced_InterVA_Conf", "filename",
			"valid options: name of file")
	}
	if _, err = enumField("Advanced_InterVA_Conf", "output", output, "classic", "extended"); err != nil {
		return s, err
	}
	if s.Append, err = boolField("Advanced_InterVA_Conf", "append", appendRaw); err != nil {
		return s, err
	}
	if s.GroupCode, err = boolField("Advanced_InterVA_Conf", "groupcode", groupCode); err != nil {
		return s, err
	}
	if s.Replicate, err = boolField("Advanced_InterVA_Conf", "replicate", replicate); err != nil {
		return s, err
	}
	if s.ReplicateBug1, err = boolField("Advanced_InterVA_Conf", "replicate_bug1", bug1); err != nil {
		return s, err
	}
	if s.ReplicateBug2, err = boolField("Advanced_InterVA_Conf", "replicate_bug2", bug2); err != nil {
		return s, err
	}
	if s.Write, err = boolField("Advanced_InterVA_Conf", "write", write); err != nil {
		return s, err
	}

	s.Version = version
	s.HIV = model.PrevalenceLevel(hiv)
	s.Malaria = model.PrevalenceLevel(malaria)
	s.Filename = filename
	s.Output = output
	return s, nil
}
