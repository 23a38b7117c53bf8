package store

import (
	"context"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

// AlgorithmConfig loads and validates the settings tables for the given
// algorithm family. InterVA5 shares the InterVA tables; only the three
// families have settings of their own.
func (d *DB) AlgorithmConfig(ctx context.Context, algorithm model.Algorithm, workingDir string) (model.AlgorithmSettings, error) {
	switch algorithm {
	case model.AlgorithmInterVA, model.AlgorithmInterVA5:
		return d.interVAConfig(ctx, workingDir)
	case model.AlgorithmInSilicoVA:
		return d.inSilicoVAConfig(ctx, workingDir)
	case model.AlgorithmSmartVA:
		return d.smartVAConfig(ctx)
	default:
		return nil, fault.Field(fault.KindPipelineConfig, "Pipeline_Conf", "algorithm",
			"valid options: 'InterVA', 'InterVA5', 'InSilicoVA', or 'SmartVA'")
	}
}
