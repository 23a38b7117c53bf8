// Package fault defines the error taxonomy shared by every pipeline stage.
//
// All faults are values of a single *Error type tagged with a Kind, so
// callers can catch broadly (errors.As into *Error) or narrowly (IsKind).
// Validation faults carry the offending table/field and the violated rule
// as structured metadata rather than free text.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline fault.
type Kind string

const (
	// KindConnection covers a missing store file or a failed decryption probe.
	KindConnection Kind = "database_connection"
	// KindPipelineConfig covers structural query failures and invalid
	// core pipeline fields.
	KindPipelineConfig Kind = "pipeline_config"
	// KindODKConfig covers invalid collection-server fields.
	KindODKConfig Kind = "odk_config"
	// KindOpenVAConfig covers invalid algorithm fields.
	KindOpenVAConfig Kind = "openva_config"
	// KindDHISConfig covers invalid health-system fields.
	KindDHISConfig Kind = "dhis_config"
)

// Rules reported by the store adapter.
const (
	RuleMissingFile = "store file does not exist"
	RuleBadKey      = "bad decryption key"
)

// Error is the root pipeline fault. Field and Rule are empty for
// structural (query-level) faults.
type Error struct {
	Kind  Kind
	Table string
	Field string
	Rule  string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Rule != "":
		return fmt.Sprintf("%s: %s.%s (%s)", e.Kind, e.Table, e.Field, e.Rule)
	case e.Field != "":
		return fmt.Sprintf("%s: %s.%s", e.Kind, e.Table, e.Field)
	case e.Table != "" && e.Err != nil:
		return fmt.Sprintf("%s: table %s: %v", e.Kind, e.Table, e.Err)
	case e.Table != "":
		return fmt.Sprintf("%s: table %s: %s", e.Kind, e.Table, e.Rule)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Rule, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Rule)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Field reports a single field violating its validation rule.
func Field(kind Kind, table, field, rule string) *Error {
	return &Error{Kind: kind, Table: table, Field: field, Rule: rule}
}

// Table reports a structural failure querying a table (missing, garbled).
// Structural failures are always pipeline-configuration faults per the
// load contract, regardless of which domain loader hit them.
func Table(table string, err error) *Error {
	return &Error{Kind: KindPipelineConfig, Table: table, Err: err}
}

// Connection reports a store-open failure.
func Connection(rule string, err error) *Error {
	return &Error{Kind: KindConnection, Rule: rule, Err: err}
}

// As extracts the *Error from err's chain, if any.
func As(err error) (*Error, bool) {
	var fe *Error
	ok := errors.As(err, &fe)
	return fe, ok
}

// IsKind reports whether err carries a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	fe, ok := As(err)
	return ok && fe.Kind == kind
}

// IsMissingStore reports whether err means the store file was absent.
func IsMissingStore(err error) bool {
	fe, ok := As(err)
	return ok && fe.Kind == KindConnection && fe.Rule == RuleMissingFile
}

// IsBadKey reports whether err means the store existed but the
// decryption probe failed.
func IsBadKey(err error) bool {
	fe, ok := As(err)
	return ok && fe.Kind == KindConnection && fe.Rule == RuleBadKey
}
