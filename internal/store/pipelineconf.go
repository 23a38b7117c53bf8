package store

import (
	"context"
	"os"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

// PipelineConfig loads and validates the singleton Pipeline_Conf row.
// Checks run in order; the first violated constraint fails the load with
// the offending field named, before any external process is started.
func (d *DB) PipelineConfig(ctx context.Context) (model.PipelineConfig, error) {
	var cfg model.PipelineConfig
	var metadataCode, codSource, algorithm, workingDir string

	err := d.singleRow(ctx, "Pipeline_Conf",
		`SELECT algorithmMetadataCode, codSource, algorithm, workingDirectory FROM Pipeline_Conf`,
		&metadataCode, &codSource, &algorithm, &workingDir)
	if err != nil {
		return cfg, err
	}

	known, err := d.metadataCodeKnown(ctx, metadataCode)
	if err != nil {
		return cfg, err
	}
	if !known {
		return cfg, fault.Field(fault.KindPipelineConfig, "Pipeline_Conf", "algorithmMetadataCode",
			"must be listed in Algorithm_Metadata_Options")
	}

	switch model.CODSource(codSource) {
	case model.CODSourceICD10, model.CODSourceWHO, model.CODSourceTariff:
	default:
		return cfg, fault.Field(fault.KindPipelineConfig, "Pipeline_Conf", "codSource",
			"valid options: 'ICD10', 'WHO', or 'Tariff'")
	}

	switch model.Algorithm(algorithm) {
	case model.AlgorithmInterVA, model.AlgorithmInterVA5, model.AlgorithmInSilicoVA, model.AlgorithmSmartVA:
	default:
		return cfg, fault.Field(fault.KindPipelineConfig, "Pipeline_Conf", "algorithm",
			"valid options: 'InterVA', 'InterVA5', 'InSilicoVA', or 'SmartVA'")
	}

	if info, err := os.Stat(workingDir); err != nil || !info.IsDir() {
		return cfg, fault.Field(fault.KindPipelineConfig, "Pipeline_Conf", "workingDirectory",
			"must be an existing directory")
	}

	cfg.AlgorithmMetadataCode = metadataCode
	cfg.CODSource = model.CODSource(codSource)
	cfg.Algorithm = model.Algorithm(algorithm)
	cfg.WorkingDirectory = workingDir
	return cfg, nil
}

func (d *DB) metadataCodeKnown(ctx context.Context, code string) (bool, error) {
	var n int
	row := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM Algorithm_Metadata_Options WHERE code = ?`, code)
	if err := row.Scan(&n); err != nil {
		return false, fault.Table("Algorithm_Metadata_Options", err)
	}
	return n > 0, nil
}
