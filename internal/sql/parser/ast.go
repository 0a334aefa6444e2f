package parser

// Statement is the root interface for all SQL statements.
type Statement interface {
	stmtNode()
}

// ----- CREATE TABLE -----

type ColumnDef struct {
	Name       string
	Type       string // "INT", "VARCHAR", "FLOAT", "BOOLEAN", "DATETIME"
	Length     int    // VARCHAR(n) bound, 0 = none
	PrimaryKey bool
	Unique     bool
	NotNull    bool
	Default    any
}

type CreateTableStmt struct {
	TableName string
	Columns   []ColumnDef
}

func (*CreateTableStmt) stmtNode() {}

// ----- DROP TABLE -----

type DropTableStmt struct {
	TableName string
}

func (*DropTableStmt) stmtNode() {}

// ----- CREATE INDEX -----

type CreateIndexStmt struct {
	IndexName string
	TableName string
	Columns   []string
}

func (*CreateIndexStmt) stmtNode() {}

// ----- INSERT -----

type InsertStmt struct {
	TableName string
	Columns   []string // nil = positional against the schema
	Values    []any    // literal values
}

func (*InsertStmt) stmtNode() {}

// ----- SELECT -----

// ColumnRef names a column, optionally qualified as table.column.
type ColumnRef struct {
	Table  string // "" when unqualified
	Column string
}

func (c ColumnRef) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// SelectItem is one projection entry: `*` or a (possibly qualified) column.
type SelectItem struct {
	Star bool
	Ref  ColumnRef
}

type JoinType uint8

const (
	JoinInner JoinType = iota
	JoinLeft
)

func (jt JoinType) String() string {
	if jt == JoinLeft {
		return "LEFT"
	}
	return "INNER"
}

type JoinClause struct {
	Type      JoinType
	TableName string
	On        Expr
}

type OrderBy struct {
	Ref  ColumnRef
	Desc bool
}

type SelectStmt struct {
	Projection []SelectItem
	TableName  string
	Joins      []JoinClause
	Where      Expr     // nil = no WHERE
	Order      *OrderBy // nil = no ORDER BY
	Limit      int      // -1 = no LIMIT
}

func (*SelectStmt) stmtNode() {}

// ----- UPDATE -----

type Assignment struct {
	Column string
	Value  any
}

type UpdateStmt struct {
	TableName   string
	Assignments []Assignment
	Where       Expr
}

func (*UpdateStmt) stmtNode() {}

// ----- DELETE -----

type DeleteStmt struct {
	TableName string
	Where     Expr
}

func (*DeleteStmt) stmtNode() {}

// ----- Predicates -----

// Expr is a boolean predicate tree used by WHERE and ON clauses.
type Expr interface {
	exprNode()
}

type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpGt CompareOp = ">"
	OpLe CompareOp = "<="
	OpGe CompareOp = ">="
)

// Comparison is `column op value`; Value is a literal, or a ColumnRef for
// the column-to-column equalities of ON clauses.
type Comparison struct {
	Column ColumnRef
	Op     CompareOp
	Value  any
}

func (*Comparison) exprNode() {}

// Like is `column LIKE pattern`; `%` matches any run of characters, every
// other pattern character is literal.
type Like struct {
	Column  ColumnRef
	Pattern string
}

func (*Like) exprNode() {}

type And struct {
	Left, Right Expr
}

func (*And) exprNode() {}

type Or struct {
	Left, Right Expr
}

func (*Or) exprNode() {}
