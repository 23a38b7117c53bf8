package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/openva-pipeline/vapipe/internal/fault"
)

// usePipelineDir is the sentinel for directory-valued algorithm fields
// meaning "reuse the pipeline's own working directory".
const usePipelineDir = "usePipelineVar"

// The validation grammar below is shared by the algorithm-family loaders.
// Every helper fails with an openVA configuration fault naming the table,
// field, and violated rule; decoding happens here so raw stored strings
// never escape the loader.

func boolField(table, field, value string) (bool, error) {
	switch value {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	default:
		return false, fault.Field(fault.KindOpenVAConfig, table, field, "valid options: 'TRUE' or 'FALSE'")
	}
}

// pyBoolField decodes the SmartVA variant of stored booleans.
func pyBoolField(table, field, value string) (bool, error) {
	switch value {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, fault.Field(fault.KindOpenVAConfig, table, field, "valid options: 'True' or 'False'")
	}
}

func enumField(table, field, value string, allowed ...string) (string, error) {
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	rule := "valid options: '" + strings.Join(allowed, "', '") + "'"
	return "", fault.Field(fault.KindOpenVAConfig, table, field, rule)
}

// unitIntervalField accepts a number in [0, 1] inclusive.
func unitIntervalField(table, field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 || f > 1 {
		return 0, fault.Field(fault.KindOpenVAConfig, table, field, "must be between '0' and '1'")
	}
	return f, nil
}

// nullableUnitInterval accepts the "NULL" sentinel or a number in [0, 1].
func nullableUnitInterval(table, field, value string) (*float64, error) {
	if value == "NULL" {
		return nil, nil
	}
	f, err := unitIntervalField(table, field, value)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// nullableOpenUnitInterval accepts "NULL" or a number strictly inside (0, 1).
func nullableOpenUnitInterval(table, field, value string) (*float64, error) {
	if value == "NULL" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 || f >= 1 {
		return nil, fault.Field(fault.KindOpenVAConfig, table, field, "must be between '0' and '1'")
	}
	return &f, nil
}

func positiveField(table, field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return 0, fault.Field(fault.KindOpenVAConfig, table, field, "must be greater than '0'")
	}
	return f, nil
}

func numberField(table, field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fault.Field(fault.KindOpenVAConfig, table, field, "must be a number")
	}
	return f, nil
}

func positiveIntField(table, field, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fault.Field(fault.KindOpenVAConfig, table, field, "must be a positive integer")
	}
	return n, nil
}

// nullableObjectName accepts the "NULL" sentinel (decoded to the empty
// string) or a non-empty reference name.
func nullableObjectName(table, field, value string) (string, error) {
	if value == "NULL" {
		return "", nil
	}
	if value == "" {
		return "", fault.Field(fault.KindOpenVAConfig, table, field, "valid options: name of R object or 'NULL'")
	}
	return value, nil
}

// objectNameField requires a non-empty reference name.
func objectNameField(table, field, value string) (string, error) {
	if value == "" {
		return "", fault.Field(fault.KindOpenVAConfig, table, field, "valid options: name of R object")
	}
	return value, nil
}

// javaOptionField enforces the -Xmx<number><m|g> memory-size pattern.
func javaOptionField(table, field, value string) (string, error) {
	bad := fault.Field(fault.KindOpenVAConfig, table, field, "should look like '-Xmx1g'")
	if len(value) < 6 {
		return "", bad
	}
	if !strings.HasPrefix(value, "-Xmx") {
		return "", fault.Field(fault.KindOpenVAConfig, table, field, "should start with '-Xmx'")
	}
	unit := value[len(value)-1]
	if unit != 'm' && unit != 'g' {
		return "", fault.Field(fault.KindOpenVAConfig, table, field,
			"should end with 'g' for gigabytes or 'm' for megabytes")
	}
	size, err := strconv.ParseFloat(value[4:len(value)-1], 64)
	if err != nil || size <= 0 {
		return "", bad
	}
	return value, nil
}

// directoryField resolves a directory-valued field against the working
// directory and requires it to exist, except for the usePipelineVar
// sentinel which stands for the working directory itself.
func directoryField(table, field, value, workingDir string) (string, error) {
	if value == usePipelineDir {
		return workingDir, nil
	}
	resolved := filepath.Join(workingDir, value)
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", fault.Field(fault.KindOpenVAConfig, table, field, "must be valid directory")
	}
	return resolved, nil
}

// singleRow runs a one-row query and scans it into dest. An empty result
// set or a structural query failure is a pipeline-configuration fault on
// the named table: missing configuration never degrades to defaults.
func (d *DB) singleRow(ctx context.Context, table, query string, dest ...any) error {
	row := d.db.QueryRowContext(ctx, query)
	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return &fault.Error{Kind: fault.KindPipelineConfig, Table: table, Rule: "no configuration row"}
		}
		return fault.Table(table, err)
	}
	return nil
}
