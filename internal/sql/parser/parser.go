package parser

import (
	"fmt"
	"strconv"
)

// ParseError reports the first unexpected token. There is no recovery: the
// statement is rejected whole and no partial AST reaches the executor.
type ParseError struct {
	Expected string
	Found    string
	Pos      int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: expected %s, found %s",
		e.Pos, e.Expected, e.Found)
}

// Parser is a recursive-descent parser with one token of lookahead.
type Parser struct {
	tz  *Tokenizer
	cur Token
}

// Parse consumes exactly one statement from sql. A trailing ';' is allowed;
// anything else after the statement is an error.
func Parse(sql string) (Statement, error) {
	p := &Parser{tz: NewTokenizer(sql)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind == TokPunct && p.cur.Text == ";" {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.Kind != TokEOF {
		return nil, p.errExpected("end of statement")
	}
	return stmt, nil
}

func (p *Parser) advance() error {
	tok, err := p.tz.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) errExpected(what string) error {
	found := p.cur.Text
	if p.cur.Kind == TokEOF {
		found = "end of input"
	} else if p.cur.Kind == TokString {
		found = strconv.Quote(p.cur.Text)
	}
	return &ParseError{Expected: what, Found: found, Pos: p.cur.Pos}
}

func (p *Parser) atKeyword(kw string) bool {
	return p.cur.Kind == TokKeyword && p.cur.Text == kw
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.atKeyword(kw) {
		return p.errExpected(kw)
	}
	return p.advance()
}

func (p *Parser) atPunct(s string) bool {
	return p.cur.Kind == TokPunct && p.cur.Text == s
}

func (p *Parser) expectPunct(s string) error {
	if !p.atPunct(s) {
		return p.errExpected("'" + s + "'")
	}
	return p.advance()
}

func (p *Parser) expectIdent(what string) (string, error) {
	if p.cur.Kind != TokIdent {
		return "", p.errExpected(what)
	}
	name := p.cur.Text
	return name, p.advance()
}

func (p *Parser) parseStatement() (Statement, error) {
	if p.cur.Kind != TokKeyword {
		return nil, p.errExpected("a statement keyword")
	}
	switch p.cur.Text {
	case "SELECT":
		return p.parseSelect()
	case "INSERT":
		return p.parseInsert()
	case "UPDATE":
		return p.parseUpdate()
	case "DELETE":
		return p.parseDelete()
	case "CREATE":
		return p.parseCreate()
	case "DROP":
		return p.parseDrop()
	default:
		return nil, p.errExpected("a statement keyword")
	}
}

// ----- literals -----

func (p *Parser) parseLiteral() (any, error) {
	switch p.cur.Kind {
	case TokString:
		v := p.cur.Text
		return v, p.advance()
	case TokInt:
		n, err := strconv.ParseInt(p.cur.Text, 10, 64)
		if err != nil {
			return nil, p.errExpected("an integer literal")
		}
		return n, p.advance()
	case TokFloat:
		f, err := strconv.ParseFloat(p.cur.Text, 64)
		if err != nil {
			return nil, p.errExpected("a float literal")
		}
		return f, p.advance()
	case TokKeyword:
		switch p.cur.Text {
		case "NULL":
			return nil, p.advance()
		case "TRUE":
			return true, p.advance()
		case "FALSE":
			return false, p.advance()
		}
	}
	return nil, p.errExpected("a literal value")
}

// parseColumnRef reads ident or ident.ident.
func (p *Parser) parseColumnRef() (ColumnRef, error) {
	name, err := p.expectIdent("a column name")
	if err != nil {
		return ColumnRef{}, err
	}
	if !p.atPunct(".") {
		return ColumnRef{Column: name}, nil
	}
	if err := p.advance(); err != nil {
		return ColumnRef{}, err
	}
	col, err := p.expectIdent("a column name")
	if err != nil {
		return ColumnRef{}, err
	}
	return ColumnRef{Table: name, Column: col}, nil
}

// ----- predicates -----

// parseExpr parses the OR level; AND binds tighter, parentheses override.
func (p *Parser) parseExpr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("OR") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("AND") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePrimaryExpr()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePrimaryExpr() (Expr, error) {
	if p.atPunct("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	ref, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}

	if p.atKeyword("LIKE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind != TokString {
			return nil, p.errExpected("a string pattern")
		}
		pattern := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Like{Column: ref, Pattern: pattern}, nil
	}

	if p.cur.Kind != TokOperator {
		return nil, p.errExpected("a comparison operator")
	}
	op, ok := compareOp(p.cur.Text)
	if !ok {
		return nil, p.errExpected("a comparison operator")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	// Right side: another column (ON clauses) or a literal.
	if p.cur.Kind == TokIdent {
		rhs, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		return &Comparison{Column: ref, Op: op, Value: rhs}, nil
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &Comparison{Column: ref, Op: op, Value: lit}, nil
}

func compareOp(s string) (CompareOp, bool) {
	switch s {
	case "=":
		return OpEq, true
	case "!=", "<>":
		return OpNe, true
	case "<":
		return OpLt, true
	case ">":
		return OpGt, true
	case "<=":
		return OpLe, true
	case ">=":
		return OpGe, true
	default:
		return "", false
	}
}

// ----- SELECT -----

func (p *Parser) parseSelect() (Statement, error) {
	if err := p.advance(); err != nil { // SELECT
		return nil, err
	}

	stmt := &SelectStmt{Limit: -1}

	for {
		if p.atPunct("*") {
			stmt.Projection = append(stmt.Projection, SelectItem{Star: true})
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			ref, err := p.parseColumnRef()
			if err != nil {
				return nil, err
			}
			stmt.Projection = append(stmt.Projection, SelectItem{Ref: ref})
		}
		if !p.atPunct(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("a table name")
	if err != nil {
		return nil, err
	}
	stmt.TableName = name

	for {
		switch {
		case p.atKeyword("INNER"), p.atKeyword("LEFT"), p.atKeyword("JOIN"):
			join, err := p.parseJoin()
			if err != nil {
				return nil, err
			}
			stmt.Joins = append(stmt.Joins, join)

		case p.atKeyword("WHERE"):
			if stmt.Where != nil {
				return nil, p.errExpected("a single WHERE clause")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			where, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			stmt.Where = where

		case p.atKeyword("ORDER"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectKeyword("BY"); err != nil {
				return nil, err
			}
			ref, err := p.parseColumnRef()
			if err != nil {
				return nil, err
			}
			ob := &OrderBy{Ref: ref}
			if p.atKeyword("ASC") || p.atKeyword("DESC") {
				ob.Desc = p.atKeyword("DESC")
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			stmt.Order = ob

		case p.atKeyword("LIMIT"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.Kind != TokInt {
				return nil, p.errExpected("a row count")
			}
			n, err := strconv.Atoi(p.cur.Text)
			if err != nil || n < 0 {
				return nil, p.errExpected("a non-negative row count")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			stmt.Limit = n

		default:
			return stmt, nil
		}
	}
}

func (p *Parser) parseJoin() (JoinClause, error) {
	join := JoinClause{Type: JoinInner}
	switch {
	case p.atKeyword("INNER"):
		if err := p.advance(); err != nil {
			return join, err
		}
	case p.atKeyword("LEFT"):
		join.Type = JoinLeft
		if err := p.advance(); err != nil {
			return join, err
		}
	}
	if err := p.expectKeyword("JOIN"); err != nil {
		return join, err
	}

	name, err := p.expectIdent("a table name")
	if err != nil {
		return join, err
	}
	join.TableName = name

	if err := p.expectKeyword("ON"); err != nil {
		return join, err
	}
	on, err := p.parseExpr()
	if err != nil {
		return join, err
	}
	join.On = on
	return join, nil
}

// ----- INSERT -----

func (p *Parser) parseInsert() (Statement, error) {
	if err := p.advance(); err != nil { // INSERT
		return nil, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}

	name, err := p.expectIdent("a table name")
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{TableName: name}

	if p.atPunct("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for {
			col, err := p.expectIdent("a column name")
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if p.atPunct(")") {
				break
			}
			if err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		if err := p.advance(); err != nil { // ')'
			return nil, err
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, v)
		if p.atPunct(")") {
			break
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
	}
	if err := p.advance(); err != nil { // ')'
		return nil, err
	}
	return stmt, nil
}

// ----- UPDATE -----

func (p *Parser) parseUpdate() (Statement, error) {
	if err := p.advance(); err != nil { // UPDATE
		return nil, err
	}

	name, err := p.expectIdent("a table name")
	if err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{TableName: name}

	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		col, err := p.expectIdent("a column name")
		if err != nil {
			return nil, err
		}
		if p.cur.Kind != TokOperator || p.cur.Text != "=" {
			return nil, p.errExpected("'='")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col, Value: v})
		if !p.atPunct(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.atKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

// ----- DELETE -----

func (p *Parser) parseDelete() (Statement, error) {
	if err := p.advance(); err != nil { // DELETE
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}

	name, err := p.expectIdent("a table name")
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{TableName: name}

	if p.atKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

// ----- CREATE / DROP -----

func (p *Parser) parseCreate() (Statement, error) {
	if err := p.advance(); err != nil { // CREATE
		return nil, err
	}
	switch {
	case p.atKeyword("TABLE"):
		return p.parseCreateTable()
	case p.atKeyword("INDEX"):
		return p.parseCreateIndex()
	default:
		return nil, p.errExpected("TABLE or INDEX")
	}
}

func (p *Parser) parseCreateTable() (Statement, error) {
	if err := p.advance(); err != nil { // TABLE
		return nil, err
	}

	name, err := p.expectIdent("a table name")
	if err != nil {
		return nil, err
	}
	stmt := &CreateTableStmt{TableName: name}

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.atPunct(")") {
			break
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
	}
	if err := p.advance(); err != nil { // ')'
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	var def ColumnDef

	name, err := p.expectIdent("a column name")
	if err != nil {
		return def, err
	}
	def.Name = name

	if p.cur.Kind != TokKeyword {
		return def, p.errExpected("a column type")
	}
	switch p.cur.Text {
	case "INT", "VARCHAR", "FLOAT", "BOOLEAN", "DATETIME":
		def.Type = p.cur.Text
	default:
		return def, p.errExpected("a column type")
	}
	if err := p.advance(); err != nil {
		return def, err
	}

	if def.Type == "VARCHAR" && p.atPunct("(") {
		if err := p.advance(); err != nil {
			return def, err
		}
		if p.cur.Kind != TokInt {
			return def, p.errExpected("a length")
		}
		n, err := strconv.Atoi(p.cur.Text)
		if err != nil || n <= 0 {
			return def, p.errExpected("a positive length")
		}
		def.Length = n
		if err := p.advance(); err != nil {
			return def, err
		}
		if err := p.expectPunct(")"); err != nil {
			return def, err
		}
	}

	for p.cur.Kind == TokKeyword {
		switch p.cur.Text {
		case "PRIMARY":
			if err := p.advance(); err != nil {
				return def, err
			}
			if err := p.expectKeyword("KEY"); err != nil {
				return def, err
			}
			def.PrimaryKey = true
		case "UNIQUE":
			if err := p.advance(); err != nil {
				return def, err
			}
			def.Unique = true
		case "NOT":
			if err := p.advance(); err != nil {
				return def, err
			}
			if err := p.expectKeyword("NULL"); err != nil {
				return def, err
			}
			def.NotNull = true
		case "DEFAULT":
			if err := p.advance(); err != nil {
				return def, err
			}
			v, err := p.parseLiteral()
			if err != nil {
				return def, err
			}
			def.Default = v
		default:
			return def, p.errExpected("a column constraint")
		}
	}
	return def, nil
}

func (p *Parser) parseCreateIndex() (Statement, error) {
	if err := p.advance(); err != nil { // INDEX
		return nil, err
	}

	idxName, err := p.expectIdent("an index name")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	tblName, err := p.expectIdent("a table name")
	if err != nil {
		return nil, err
	}
	stmt := &CreateIndexStmt{IndexName: idxName, TableName: tblName}

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for {
		col, err := p.expectIdent("a column name")
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.atPunct(")") {
			break
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
	}
	if err := p.advance(); err != nil { // ')'
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseDrop() (Statement, error) {
	if err := p.advance(); err != nil { // DROP
		return nil, err
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("a table name")
	if err != nil {
		return nil, err
	}
	return &DropTableStmt{TableName: name}, nil
}
