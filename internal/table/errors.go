package table

import "fmt"

type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY_KEY"
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintNotNull    ConstraintKind = "NOT_NULL"
)

// ConstraintError reports a statement rejected by a column constraint. It is
// raised during validation, before any row or index mutation.
type ConstraintError struct {
	Kind   ConstraintKind
	Column string
	Value  any
}

func (e *ConstraintError) Error() string {
	switch {
	case e.Kind == ConstraintNotNull, e.Value == nil:
		return fmt.Sprintf("table: column %q cannot be NULL", e.Column)
	default:
		return fmt.Sprintf("table: duplicate value %v for %s column %q",
			e.Value, e.Kind, e.Column)
	}
}

// ReferenceError reports an unknown table, column or index name.
type ReferenceError struct {
	Kind string // "table", "column", "index"
	Name string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("table: unknown %s %q", e.Kind, e.Name)
}
