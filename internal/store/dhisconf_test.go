package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

func TestDHISConfig_Defaults(t *testing.T) {
	d := newTestStore(t)

	cfg, codes, err := d.DHISConfig(context.Background(), model.AlgorithmInterVA5)
	require.NoError(t, err)
	assert.Equal(t, "https://dhis.example.org", cfg.URL)
	assert.Equal(t, "dhis-password", cfg.Password)
	require.NotEmpty(t, codes)
	assert.Equal(t, "aaVZzdmJ09P", codes["Malaria"], "non-SmartVA runs map against the WHO code list")
}

func TestDHISConfig_SmartVAUsesTariffCodes(t *testing.T) {
	d := newTestStore(t)

	_, codes, err := d.DHISConfig(context.Background(), model.AlgorithmSmartVA)
	require.NoError(t, err)
	require.NotEmpty(t, codes)
	assert.Equal(t, "cy6Ng9sEU1T", codes["Malaria"])
	assert.NotContains(t, codes, "HIV/AIDS related death")
}

func TestDHISConfig_BadURL(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE DHIS_Conf SET dhisURL = 'dhis.example.org'`)
	require.NoError(t, err)

	_, _, err = d.DHISConfig(context.Background(), model.AlgorithmInterVA5)
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindDHISConfig, fe.Kind)
	assert.Equal(t, "dhisURL", fe.Field)
}

func TestDHISConfig_EmptyOrgUnit(t *testing.T) {
	d := newTestStore(t)
	_, err := d.db.Exec(`UPDATE DHIS_Conf SET dhisOrgUnit = ''`)
	require.NoError(t, err)

	_, _, err = d.DHISConfig(context.Background(), model.AlgorithmInterVA5)
	require.Error(t, err)
	fe, ok := fault.As(err)
	require.True(t, ok)
	assert.Equal(t, "dhisOrgUnit", fe.Field)
	assert.Equal(t, "is empty", fe.Rule)
}
