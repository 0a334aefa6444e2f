package record

import (
	"fmt"
	"strings"
)

type DataType uint8

const (
	TypeInt DataType = iota
	TypeVarchar
	TypeFloat
	TypeBoolean
	TypeDatetime
)

func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeVarchar:
		return "VARCHAR"
	case TypeFloat:
		return "FLOAT"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDatetime:
		return "DATETIME"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// MarshalJSON writes the type keyword so the snapshot file stays readable.
func (t DataType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *DataType) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	dt, ok := ParseDataType(s)
	if !ok {
		return fmt.Errorf("record: unknown data type %q", s)
	}
	*t = dt
	return nil
}

// ParseDataType maps a type keyword (case-insensitive) to its DataType.
func ParseDataType(s string) (DataType, bool) {
	switch strings.ToUpper(s) {
	case "INT":
		return TypeInt, true
	case "VARCHAR":
		return TypeVarchar, true
	case "FLOAT":
		return TypeFloat, true
	case "BOOLEAN":
		return TypeBoolean, true
	case "DATETIME":
		return TypeDatetime, true
	default:
		return 0, false
	}
}

type Column struct {
	Name       string   `json:"name"`
	Type       DataType `json:"type"`
	Length     int      `json:"length,omitempty"` // VARCHAR(n) bound, 0 = unbounded
	NotNull    bool     `json:"not_null,omitempty"`
	PrimaryKey bool     `json:"primary_key,omitempty"`
	Unique     bool     `json:"unique,omitempty"`
	Default    any      `json:"default,omitempty"`
}

// TypeString renders the column type the way it appears in DDL, e.g. VARCHAR(32).
func (c Column) TypeString() string {
	if c.Type == TypeVarchar && c.Length > 0 {
		return fmt.Sprintf("VARCHAR(%d)", c.Length)
	}
	return c.Type.String()
}

func (c Column) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(' ')
	b.WriteString(c.TypeString())
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

type Schema struct {
	Cols []Column `json:"cols"`
}

func (s Schema) NumCols() int { return len(s.Cols) }

func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		names[i] = c.Name
	}
	return names
}

// Find returns the column with the given name, or nil.
func (s Schema) Find(name string) *Column {
	for i := range s.Cols {
		if s.Cols[i].Name == name {
			return &s.Cols[i]
		}
	}
	return nil
}

// PrimaryKey returns the primary key column, or nil if the schema has none.
func (s Schema) PrimaryKey() *Column {
	for i := range s.Cols {
		if s.Cols[i].PrimaryKey {
			return &s.Cols[i]
		}
	}
	return nil
}
