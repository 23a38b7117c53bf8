package store

import (
	"context"

	"github.com/openva-pipeline/vapipe/internal/model"
)

func (d *DB) inSilicoVAConfig(ctx context.Context, workingDir string) (model.InSilicoVASettings, error) {
	var s model.InSilicoVASettings
	var dataType, nSim string

	err := d.singleRow(ctx, "InSilicoVA_Conf",
		`SELECT data_type, Nsim FROM InSilicoVA_Conf`, &dataType, &nSim)
	if err != nil {
		return s, err
	}

	if _, err := enumField("InSilicoVA_Conf", "data_type", dataType, "WHO2012", "WHO2016"); err != nil {
		return s, err
	}
	if s.NSim, err = positiveIntField("InSilicoVA_Conf", "Nsim", nSim); err != nil {
		return s, err
	}

	var raw struct {
		isNumeric, updateCondProb, keepProbbaseLevel        string
		condProb, condProbNum                               string
		dataCheck, dataCheckMissing, warningWrite           string
		directory, externalSep                              string
		thin, burnIn, autoLength, convCSMF, jumpScale       string
		levelsPrior, levelsStrength, truncMin, truncMax     string
		subPop, javaOption, seed                            string
		phyCode, phyCat, phyUnknown, phyExternal, phyDebias string
		excludeImpossible, noIsMissing, indivCI, groupCode  string
	}
	err = d.singleRow(ctx, "Advanced_InSilicoVA_Conf",
		`SELECT isNumeric, updateCondProb, keepProbbase_level, CondProb, CondProbNum,
		        datacheck, datacheck_missing, warning_write, directory, external_sep,
		        thin, burnin, auto_length, conv_csmf, jump_scale, levels_prior,
		        levels_strength, trunc_min, trunc_max, subpop, java_option, seed,
		        phy_code, phy_cat, phy_unknown, phy_external, phy_debias,
		        exclude_impossible_cause, no_is_missing, indiv_CI, groupcode
		 FROM Advanced_InSilicoVA_Conf`,
		&raw.isNumeric, &raw.updateCondProb, &raw.keepProbbaseLevel, &raw.condProb, &raw.condProbNum,
		&raw.dataCheck, &raw.dataCheckMissing, &raw.warningWrite, &raw.directory, &raw.externalSep,
		&raw.thin, &raw.burnIn, &raw.autoLength, &raw.convCSMF, &raw.jumpScale, &raw.levelsPrior,
		&raw.levelsStrength, &raw.truncMin, &raw.truncMax, &raw.subPop, &raw.javaOption, &raw.seed,
		&raw.phyCode, &raw.phyCat, &raw.phyUnknown, &raw.phyExternal, &raw.phyDebias,
		&raw.excludeImpossible, &raw.noIsMissing, &raw.indivCI, &raw.groupCode)
	if err != nil {
		return s, err
	}

	const table = "Advanced_InSilicoVA_Conf"
	if s.IsNumeric, err = boolField(table, "isNumeric", raw.isNumeric); err != nil {
		return s, err
	}
	if s.UpdateCondProb, err = boolField(table, "updateCondProb", raw.updateCondProb); err != nil {
		return s, err
	}
	if s.KeepProbbaseLevel, err = boolField(table, "keepProbbase_level", raw.keepProbbaseLevel); err != nil {
		return s, err
	}
	if s.CondProb, err = nullableObjectName(table, "CondProb", raw.condProb); err != nil {
		return s, err
	}
	if s.CondProbNum, err = nullableUnitInterval(table, "CondProbNum", raw.condProbNum); err != nil {
		return s, err
	}
	if s.DataCheck, err = boolField(table, "datacheck", raw.dataCheck); err != nil {
		return s, err
	}
	if s.DataCheckMissing, err = boolField(table, "datacheck_missing", raw.dataCheckMissing); err != nil {
		return s, err
	}
	if s.WarningWrite, err = boolField(table, "warning_write", raw.warningWrite); err != nil {
		return s, err
	}
	if s.Directory, err = directoryField(table, "directory", raw.directory, workingDir); err != nil {
		return s, err
	}
	if s.ExternalSep, err = boolField(table, "external_sep", raw.externalSep); err != nil {
		return s, err
	}
	if s.Thin, err = positiveField(table, "thin", raw.thin); err != nil {
		return s, err
	}
	if s.BurnIn, err = positiveField(table, "burnin", raw.burnIn); err != nil {
		return s, err
	}
	if s.AutoLength, err = boolField(table, "auto_length", raw.autoLength); err != nil {
		return s, err
	}
	if s.ConvCSMF, err = unitIntervalField(table, "conv_csmf", raw.convCSMF); err != nil {
		return s, err
	}
	if s.JumpScale, err = positiveField(table, "jump_scale", raw.jumpScale); err != nil {
		return s, err
	}
	if s.LevelsPrior, err = nullableObjectName(table, "levels_prior", raw.levelsPrior); err != nil {
		return s, err
	}
	if s.LevelsStrength, err = positiveField(table, "levels_strength", raw.levelsStrength); err != nil {
		return s, err
	}
	if s.TruncMin, err = unitIntervalField(table, "trunc_min", raw.truncMin); err != nil {
		return s, err
	}
	if s.TruncMax, err = unitIntervalField(table, "trunc_max", raw.truncMax); err != nil {
		return s, err
	}
	if s.SubPop, err = nullableObjectName(table, "subpop", raw.subPop); err != nil {
		return s, err
	}
	if s.JavaOption, err = javaOptionField(table, "java_option", raw.javaOption); err != nil {
		return s, err
	}
	if s.Seed, err = numberField(table, "seed", raw.seed); err != nil {
		return s, err
	}
	if s.PhyCode, err = nullableObjectName(table, "phy_code", raw.phyCode); err != nil {
		return s, err
	}
	if s.PhyCat, err = nullableObjectName(table, "phy_cat", raw.phyCat); err != nil {
		return s, err
	}
	if s.PhyUnknown, err = nullableObjectName(table, "phy_unknown", raw.phyUnknown); err != nil {
		return s, err
	}
	if s.PhyExternal, err = nullableObjectName(table, "phy_external", raw.phyExternal); err != nil {
		return s, err
	}
	if s.PhyDebias, err = nullableObjectName(table, "phy_debias", raw.phyDebias); err != nil {
		return s, err
	}
	if s.ExcludeImpossible, err = enumField(table, "exclude_impossible_cause", raw.excludeImpossible,
		"subset", "all", "InterVA", "none"); err != nil {
		return s, err
	}
	if s.NoIsMissing, err = boolField(table, "no_is_missing", raw.noIsMissing); err != nil {
		return s, err
	}
	if s.IndivCI, err = nullableOpenUnitInterval(table, "indiv_CI", raw.indivCI); err != nil {
		return s, err
	}
	if s.GroupCode, err = boolField(table, "groupcode", raw.groupCode); err != nil {
		return s, err
	}

	s.DataType = dataType
	return s, nil
}
