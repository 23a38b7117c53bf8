package store

import (
	"context"
	"database/sql"

	"github.com/openva-pipeline/vapipe/internal/fault"
	"github.com/openva-pipeline/vapipe/internal/model"
)

func (d *DB) smartVAConfig(ctx context.Context) (model.SmartVASettings, error) {
	var s model.SmartVASettings
	var country, hiv, malaria, hce, freeText, figures, language string

	err := d.singleRow(ctx, "SmartVA_Conf",
		`SELECT country, hiv, malaria, hce, freetext, figures, language FROM SmartVA_Conf`,
		&country, &hiv, &malaria, &hce, &freeText, &figures, &language)
	if err != nil {
		return s, err
	}

	abbrev, err := d.countryAbbrev(ctx, country)
	if err != nil {
		return s, err
	}

	if s.HIV, err = pyBoolField("SmartVA_Conf", "hiv", hiv); err != nil {
		return s, err
	}
	if s.Malaria, err = pyBoolField("SmartVA_Conf", "malaria", malaria); err != nil {
		return s, err
	}
	if s.HCE, err = pyBoolField("SmartVA_Conf", "hce", hce); err != nil {
		return s, err
	}
	if s.FreeText, err = pyBoolField("SmartVA_Conf", "freetext", freeText); err != nil {
		return s, err
	}
	if s.Figures, err = pyBoolField("SmartVA_Conf", "figures", figures); err != nil {
		return s, err
	}
	if _, err = enumField("SmartVA_Conf", "language", language, "english", "chinese", "spanish"); err != nil {
		return s, err
	}

	s.Country = abbrev
	s.Language = language
	return s, nil
}

// countryAbbrev resolves a country name against the SmartVA_Country
// reference table; settings carry the abbreviation the algorithm expects.
func (d *DB) countryAbbrev(ctx context.Context, name string) (string, error) {
	var abbrev string
	row := d.db.QueryRowContext(ctx, `SELECT abbrev FROM SmartVA_Country WHERE name = ?`, name)
	if err := row.Scan(&abbrev); err != nil {
		if err == sql.ErrNoRows {
			return "", fault.Field(fault.KindOpenVAConfig, "SmartVA_Conf", "country",
				"must be listed in SmartVA_Country")
		}
		return "", fault.Table("SmartVA_Country", err)
	}
	return abbrev, nil
}
