package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

func TestPipelineConfig_Defaults(t *testing.T) {
	d := newTestStore(t)

	cfg, err := d.PipelineConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.AlgorithmInterVA5, cfg.Algorithm)
	assert.Equal(t, model.CODSourceWHO, cfg.CODSource)
	assert.NotEmpty(t, cfg.AlgorithmMetadataCode)
}

func TestPipelineConfig_UnknownMetadataCode(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE Pipeline_Conf SET algorithmMetadataCode = 'made-up-code'`)
	require.NoError(t, err)

	_, err = d.PipelineConfig(context.Background())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindPipelineConfig, fe.Kind)
	assert.Equal(t, "algorithmMetadataCode", fe.Field)
}

func TestPipelineConfig_BadAlgorithm(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE Pipeline_Conf SET algorithm = 'Tariff2'`)
	require.NoError(t, err)

	_, err = d.PipelineConfig(context.Background())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, "algorithm", fe.Field)
}

func TestPipelineConfig_MissingWorkingDirectory(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE Pipeline_Conf SET workingDirectory = '/no/such/dir'`)
	require.NoError(t, err)

	_, err = d.PipelineConfig(context.Background())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, "workingDirectory", fe.Field)
}

// A store without its configuration row fails loudly; it never falls back
// to defaults.
func TestPipelineConfig_NoRow(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`DELETE FROM Pipeline_Conf`)
	require.NoError(t, err)

	_, err = d.PipelineConfig(context.Background())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindPipelineConfig, fe.Kind)
	assert.Equal(t, "Pipeline_Conf", fe.Table)
	assert.Equal(t, "no configuration row", fe.Rule)
}
