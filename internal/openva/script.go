// Package openva executes the cause-of-death coding algorithms against a
// batch of submissions and collects the assigned causes.
package openva

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openva-pipeline/vapipe/internal/model"
)

// rBool renders a Go bool as an R literal.
func rBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// rString renders a Go string as a quoted R literal, or NULL when empty.
func rString(v string) string {
	if v == "" {
		return "NULL"
	}
	return strconv.Quote(v)
}

// rFloatPtr renders an optional number as an R literal, NULL when unset.
func rFloatPtr(v *float64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// interVAScript generates the R script that codes one batch with
// InterVA. The script reads the batch CSV and writes an id,cause CSV.
func interVAScript(s model.InterVASettings, inputPath, outputPath string) string {
	var b strings.Builder
	b.WriteString("library(openVA)\n")
	fmt.Fprintf(&b, "records <- read.csv(%q, stringsAsFactors = FALSE)\n", inputPath)
	fmt.Fprintf(&b, "fit <- codeVA(data = records, data.type = \"WHO2016\", model = \"InterVA\",\n")
	fmt.Fprintf(&b, "  version = %q, HIV = %q, Malaria = %q,\n", s.Version, string(s.HIV), string(s.Malaria))
	fmt.Fprintf(&b, "  directory = %q, filename = %q, output = %q,\n", s.Directory, s.Filename, s.Output)
	fmt.Fprintf(&b, "  append = %s, groupcode = %s, replicate = %s,\n", rBool(s.Append), rBool(s.GroupCode), rBool(s.Replicate))
	fmt.Fprintf(&b, "  replicate.bug1 = %s, replicate.bug2 = %s, write = %s)\n",
		rBool(s.ReplicateBug1), rBool(s.ReplicateBug2), rBool(s.Write))
	b.WriteString("cod <- getTopCOD(fit)\n")
	fmt.Fprintf(&b, "write.csv(data.frame(id = cod[, 1], cause = cod[, 2]), %q, row.names = FALSE)\n", outputPath)
	return b.String()
}

// inSilicoVAScript generates the R script that codes one batch with
// InSilicoVA.
func inSilicoVAScript(s model.InSilicoVASettings, inputPath, outputPath string) string {
	var b strings.Builder
	b.WriteString("library(openVA)\n")
	fmt.Fprintf(&b, "options(java.parameters = %q)\n", s.JavaOption)
	fmt.Fprintf(&b, "records <- read.csv(%q, stringsAsFactors = FALSE)\n", inputPath)
	fmt.Fprintf(&b, "fit <- codeVA(data = records, data.type = %q, model = \"InSilicoVA\",\n", s.DataType)
	fmt.Fprintf(&b, "  Nsim = %d, isNumeric = %s, updateCondProb = %s, keepProbbase.level = %s,\n",
		s.NSim, rBool(s.IsNumeric), rBool(s.UpdateCondProb), rBool(s.KeepProbbaseLevel))
	fmt.Fprintf(&b, "  CondProb = %s, CondProbNum = %s, datacheck = %s, datacheck.missing = %s,\n",
		rString(s.CondProb), rFloatPtr(s.CondProbNum), rBool(s.DataCheck), rBool(s.DataCheckMissing))
	fmt.Fprintf(&b, "  warning.write = %s, directory = %q, external.sep = %s,\n",
		rBool(s.WarningWrite), s.Directory, rBool(s.ExternalSep))
	fmt.Fprintf(&b, "  thin = %g, burnin = %g, auto.length = %s, conv.csmf = %g, jump.scale = %g,\n",
		s.Thin, s.BurnIn, rBool(s.AutoLength), s.ConvCSMF, s.JumpScale)
	fmt.Fprintf(&b, "  levels.prior = %s, levels.strength = %g, trunc.min = %g, trunc.max = %g,\n",
		rString(s.LevelsPrior), s.LevelsStrength, s.TruncMin, s.TruncMax)
	fmt.Fprintf(&b, "  subpop = %s, java.option = %q, seed = %g,\n", rString(s.SubPop), s.JavaOption, s.Seed)
	fmt.Fprintf(&b, "  phy.code = %s, phy.cat = %s, phy.unknown = %s, phy.external = %s, phy.debias = %s,\n",
		rString(s.PhyCode), rString(s.PhyCat), rString(s.PhyUnknown), rString(s.PhyExternal), rString(s.PhyDebias))
	fmt.Fprintf(&b, "  exclude.impossible.cause = %q, no.is.missing = %s, indiv.CI = %s, groupcode = %s)\n",
		s.ExcludeImpossible, rBool(s.NoIsMissing), rFloatPtr(s.IndivCI), rBool(s.GroupCode))
	b.WriteString("cod <- getTopCOD(fit)\n")
	fmt.Fprintf(&b, "write.csv(data.frame(id = cod[, 1], cause = cod[, 2]), %q, row.names = FALSE)\n", outputPath)
	return b.String()
}

// smartVAArgs builds the command line for the SmartVA binary.
func smartVAArgs(s model.SmartVASettings, inputPath, outputDir string) []string {
	args := []string{
		"--country", s.Country,
		"--language", s.Language,
	}
	if s.HIV {
		args = append(args, "--hiv")
	}
	if s.Malaria {
		args = append(args, "--malaria")
	}
	if s.HCE {
		args = append(args, "--hce")
	}
	if s.FreeText {
		args = append(args, "--freetext")
	}
	if s.Figures {
		args = append(args, "--figures")
	}
	return append(args, inputPath, outputDir)
}
