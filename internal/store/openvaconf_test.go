package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

func TestAlgorithmConfig_InterVA5SharesInterVATables(t *testing.T) {
	d := newTestStore(t)
	workingDir := t.TempDir()

	settings, err := d.AlgorithmConfig(context.Background(), model.AlgorithmInterVA5, workingDir)
	require.NoError(t, err)

	iv, ok := settings.(model.InterVASettings)
	require.True(t, ok)
	assert.Equal(t, "5", iv.Version)
	assert.Equal(t, model.PrevalenceVeryLow, iv.HIV)
	assert.Equal(t, workingDir, iv.Directory, "the directory sentinel resolves to the working directory")
	assert.True(t, iv.Write)
}

func TestAlgorithmConfig_InterVA_BadHIV(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE InterVA_Conf SET HIV = 'x'`)
	require.NoError(t, err)

	_, err = d.AlgorithmConfig(context.Background(), model.AlgorithmInterVA, t.TempDir())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindOpenVAConfig, fe.Kind)
	assert.Equal(t, "InterVA_Conf", fe.Table)
	assert.Equal(t, "HIV", fe.Field)
}

func TestAlgorithmConfig_InterVA_BadDirectory(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE Advanced_InterVA_Conf SET directory = 'no-such-subdir'`)
	require.NoError(t, err)

	_, err = d.AlgorithmConfig(context.Background(), model.AlgorithmInterVA5, t.TempDir())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, "directory", fe.Field)
	assert.Equal(t, "must be valid directory", fe.Rule)
}

func TestAlgorithmConfig_InSilicoVA_Defaults(t *testing.T) {
	d := newTestStore(t)
	workingDir := t.TempDir()

	settings, err := d.AlgorithmConfig(context.Background(), model.AlgorithmInSilicoVA, workingDir)
	require.NoError(t, err)

	isv, ok := settings.(model.InSilicoVASettings)
	require.True(t, ok)
	assert.Equal(t, "WHO2016", isv.DataType)
	assert.Equal(t, 4000, isv.NSim)
	assert.Nil(t, isv.CondProbNum)
	assert.Nil(t, isv.IndivCI)
	assert.Equal(t, "-Xmx1g", isv.JavaOption)
	assert.Equal(t, workingDir, isv.Directory)
}

func TestAlgorithmConfig_InSilicoVA_BadNsim(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE InSilicoVA_Conf SET Nsim = '4000.5'`)
	require.NoError(t, err)

	_, err = d.AlgorithmConfig(context.Background(), model.AlgorithmInSilicoVA, t.TempDir())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, "Nsim", fe.Field)
}

func TestAlgorithmConfig_InSilicoVA_BadCondProbNum(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE Advanced_InSilicoVA_Conf SET CondProbNum = '1.5'`)
	require.NoError(t, err)

	_, err = d.AlgorithmConfig(context.Background(), model.AlgorithmInSilicoVA, t.TempDir())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, "CondProbNum", fe.Field)
	assert.Equal(t, "must be between '0' and '1'", fe.Rule)
}

func TestAlgorithmConfig_InSilicoVA_BadJavaOption(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE Advanced_InSilicoVA_Conf SET java_option = '-Xmx1k'`)
	require.NoError(t, err)

	_, err = d.AlgorithmConfig(context.Background(), model.AlgorithmInSilicoVA, t.TempDir())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, "java_option", fe.Field)
}

func TestAlgorithmConfig_SmartVA_Defaults(t *testing.T) {
	d := newTestStore(t)

	settings, err := d.AlgorithmConfig(context.Background(), model.AlgorithmSmartVA, t.TempDir())
	require.NoError(t, err)

	sv, ok := settings.(model.SmartVASettings)
	require.True(t, ok)
	assert.Equal(t, "Unknown", sv.Country)
	assert.False(t, sv.HIV)
	assert.Equal(t, "english", sv.Language)
}

func TestAlgorithmConfig_SmartVA_CountryResolvesToAbbrev(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE SmartVA_Conf SET country = 'Tanzania'`)
	require.NoError(t, err)

	settings, err := d.AlgorithmConfig(context.Background(), model.AlgorithmSmartVA, t.TempDir())
	require.NoError(t, err)
	sv := settings.(model.SmartVASettings)
	assert.Equal(t, "TZA", sv.Country)
}

func TestAlgorithmConfig_SmartVA_UnknownCountry(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE SmartVA_Conf SET country = 'Atlantis'`)
	require.NoError(t, err)

	_, err = d.AlgorithmConfig(context.Background(), model.AlgorithmSmartVA, t.TempDir())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, "country", fe.Field)
}

func TestAlgorithmConfig_SmartVA_BadBool(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE SmartVA_Conf SET hiv = 'TRUE'`)
	require.NoError(t, err)

	_, err = d.AlgorithmConfig(context.Background(), model.AlgorithmSmartVA, t.TempDir())
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, "hiv", fe.Field)
	assert.Equal(t, "valid options: 'True' or 'False'", fe.Rule)
}
