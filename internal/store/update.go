package store

import (
	"context"

	"github.com/openva-pipeline/vapipe/internal/fault"
)

// Column whitelists for `config set`. Settings are stored as text and
// validated on load, not on write, so an operator can stage several
// changes and see the first violated rule on the next run. Passwords are
// the exception: they are sealed here, on the way in.
var updatableColumns = map[string]map[string]bool{
	"Pipeline_Conf": {
		"algorithmMetadataCode": true, "codSource": true,
		"algorithm": true, "workingDirectory": true,
	},
	"ODK_Conf": {
		"odkID": true, "odkURL": true, "odkUser": true, "odkPassword": true,
		"odkFormID": true, "odkUseCentral": true, "odkProjectNumber": true,
	},
	"InterVA_Conf": {"version": true, "HIV": true, "Malaria": true},
	"Advanced_InterVA_Conf": {
		"directory": true, "filename": true, "output": true, "append": true,
		"groupcode": true, "replicate": true, "replicate_bug1": true,
		"replicate_bug2": true, "write": true,
	},
	"InSilicoVA_Conf": {"data_type": true, "Nsim": true},
	"Advanced_InSilicoVA_Conf": {
		"isNumeric": true, "updateCondProb": true, "keepProbbase_level": true,
		"CondProb": true, "CondProbNum": true, "datacheck": true,
		"datacheck_missing": true, "warning_write": true, "directory": true,
		"external_sep": true, "thin": true, "burnin": true, "auto_length": true,
		"conv_csmf": true, "jump_scale": true, "levels_prior": true,
		"levels_strength": true, "trunc_min": true, "trunc_max": true,
		"subpop": true, "java_option": true, "seed": true, "phy_code": true,
		"phy_cat": true, "phy_unknown": true, "phy_external": true,
		"phy_debias": true, "exclude_impossible_cause": true,
		"no_is_missing": true, "indiv_CI": true, "groupcode": true,
	},
	"SmartVA_Conf": {
		"country": true, "hiv": true, "malaria": true, "hce": true,
		"freetext": true, "figures": true, "language": true,
	},
	"DHIS_Conf": {
		"dhisURL": true, "dhisUser": true, "dhisPassword": true, "dhisOrgUnit": true,
	},
}

var sealedColumns = map[string]bool{
	"odkPassword":  true,
	"dhisPassword": true,
}

// SetConfigValue updates one whitelisted configuration column on its
// singleton row. Table and column names are checked against the whitelist
// before they are spliced into SQL.
func (d *DB) SetConfigValue(ctx context.Context, table, column, value string) error {
	cols, ok := updatableColumns[table]
	if !ok {
		return &fault.Error{Kind: fault.KindPipelineConfig, Table: table, Rule: "not a configuration table"}
	}
	if !cols[column] {
		return fault.Field(fault.KindPipelineConfig, table, column, "not a settable column")
	}

	var arg any = value
	if sealedColumns[column] {
		sealed, err := d.seal([]byte(value))
		if err != nil {
			return err
		}
		arg = sealed
	}

	if _, err := d.db.ExecContext(ctx, `UPDATE `+table+` SET `+column+` = ?`, arg); err != nil {
		return fault.Table(table, err)
	}
	return nil
}
