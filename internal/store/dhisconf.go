package store

import (
	"context"
	"strings"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

// DHISConfig loads and validates the singleton DHIS_Conf row together
// with the cause-of-death code mapping the upload collaborator needs.
// SmartVA runs map against the Tariff code list, everything else WHO.
func (d *DB) DHISConfig(ctx context.Context, algorithm model.Algorithm) (model.DHISConfig, map[string]string, error) {
	var cfg model.DHISConfig
	var url, user, orgUnit string
	var password []byte

	err := d.singleRow(ctx, "DHIS_Conf",
		`SELECT dhisURL, dhisUser, dhisPassword, dhisOrgUnit FROM DHIS_Conf`,
		&url, &user, &password, &orgUnit)
	if err != nil {
		return cfg, nil, err
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return cfg, nil, fault.Field(fault.KindDHISConfig, "DHIS_Conf", "dhisURL",
			"must start with 'http://' or 'https://'")
	}
	if user == "" {
		return cfg, nil, fault.Field(fault.KindDHISConfig, "DHIS_Conf", "dhisUser", "is empty")
	}
	plainPassword, err := d.open(password)
	if err != nil || len(plainPassword) == 0 {
		return cfg, nil, fault.Field(fault.KindDHISConfig, "DHIS_Conf", "dhisPassword", "is empty")
	}
	if orgUnit == "" {
		return cfg, nil, fault.Field(fault.KindDHISConfig, "DHIS_Conf", "dhisOrgUnit", "is empty")
	}

	source := model.CODSourceWHO
	if algorithm == model.AlgorithmSmartVA {
		source = model.CODSourceTariff
	}
	codes, err := d.codCodes(ctx, source)
	if err != nil {
		return cfg, nil, err
	}

	cfg.URL = url
	cfg.User = user
	cfg.Password = string(plainPassword)
	cfg.OrgUnit = orgUnit
	return cfg, codes, nil
}

func (d *DB) codCodes(ctx context.Context, source model.CODSource) (map[string]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT codName, codCode FROM COD_Codes_DHIS WHERE codSource = ?`, string(source))
	if err != nil {
		return nil, &fault.Error{Kind: fault.KindDHISConfig, Table: "COD_Codes_DHIS", Err: err}
	}
	defer rows.Close()

	codes := make(map[string]string)
	for rows.Next() {
		var name, code string
		if err := rows.Scan(&name, &code); err != nil {
			return nil, &fault.Error{Kind: fault.KindDHISConfig, Table: "COD_Codes_DHIS", Err: err}
		}
		codes[name] = code
	}
	if err := rows.Err(); err != nil {
		return nil, &fault.Error{Kind: fault.KindDHISConfig, Table: "COD_Codes_DHIS", Err: err}
	}
	return codes, nil
}
