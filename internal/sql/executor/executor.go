package executor

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/engine"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/record"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/sql/parser"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/table"
)

// Executor runs statements against a Database. Execute holds the database
// lock for the whole statement, including the auto-save, so concurrent
// callers never observe a table or index mid-mutation.
type Executor struct {
	DB *engine.Database
}

func New(db *engine.Database) *Executor {
	return &Executor{DB: db}
}

// Execute is the top-level entry: statement text in, Result or error out.
// Mutating statements persist before they are considered committed;
// read-only statements never trigger a save.
func (e *Executor) Execute(sql string) (*Result, error) {
	e.DB.Lock()
	defer e.DB.Unlock()

	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}

	switch s := stmt.(type) {
	case *parser.SelectStmt:
		return e.execSelect(s)
	case *parser.InsertStmt:
		return e.committed(e.execInsert(s))
	case *parser.UpdateStmt:
		return e.committed(e.execUpdate(s))
	case *parser.DeleteStmt:
		return e.committed(e.execDelete(s))
	case *parser.CreateTableStmt:
		return e.committed(e.execCreateTable(s))
	case *parser.DropTableStmt:
		return e.committed(e.execDropTable(s))
	case *parser.CreateIndexStmt:
		return e.committed(e.execCreateIndex(s))
	default:
		return nil, fmt.Errorf("executor: unsupported statement type %T", stmt)
	}
}

// committed finishes a mutating statement: on success the new state is
// saved, and the statement only succeeds once the save does.
func (e *Executor) committed(res *Result, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	if err := e.DB.Save(); err != nil {
		slog.Error("executor: auto-save failed", "db", e.DB.Name, "err", err)
		return nil, err
	}
	return res, nil
}

// ----- scopes and predicate evaluation -----

// scope is the set of tables visible to a statement's predicates, in
// FROM+JOIN order. Candidate rows are maps keyed by both the bare column
// name (first table wins) and the qualified "table.column" form.
type scope struct {
	tables []*table.Table
}

// resolve finds the column definition and the candidate-row key for a ref.
// Unqualified names resolve against the tables in order.
func (sc scope) resolve(ref parser.ColumnRef) (*record.Column, string, error) {
	if ref.Table != "" {
		for _, t := range sc.tables {
			if t.Name == ref.Table {
				if c := t.Schema.Find(ref.Column); c != nil {
					return c, ref.Table + "." + ref.Column, nil
				}
			}
		}
		return nil, "", &table.ReferenceError{Kind: "column", Name: ref.String()}
	}
	for _, t := range sc.tables {
		if c := t.Schema.Find(ref.Column); c != nil {
			return c, ref.Column, nil
		}
	}
	return nil, "", &table.ReferenceError{Kind: "column", Name: ref.Column}
}

// envFor builds a candidate row for a single table's row.
func envFor(t *table.Table, row *table.Row) map[string]any {
	env := make(map[string]any, 2*len(row.Data))
	for col, v := range row.Data {
		env[col] = v
		env[t.Name+"."+col] = v
	}
	return env
}

// mergeRight folds a join table's values (or NULLs) into a copy of env.
func mergeRight(env map[string]any, t *table.Table, row *table.Row) map[string]any {
	out := make(map[string]any, len(env)+2*t.Schema.NumCols())
	for k, v := range env {
		out[k] = v
	}
	for _, col := range t.Schema.Cols {
		var v any
		if row != nil {
			v = row.Data[col.Name]
		}
		out[t.Name+"."+col.Name] = v
		if _, taken := out[col.Name]; !taken {
			out[col.Name] = v
		}
	}
	return out
}

// eval walks the predicate tree with short-circuit AND/OR. Comparisons are
// type-checked against the column's declared type before comparing.
func (sc scope) eval(env map[string]any, expr parser.Expr) (bool, error) {
	switch p := expr.(type) {
	case *parser.And:
		ok, err := sc.eval(env, p.Left)
		if err != nil || !ok {
			return false, err
		}
		return sc.eval(env, p.Right)

	case *parser.Or:
		ok, err := sc.eval(env, p.Left)
		if err != nil || ok {
			return ok, err
		}
		return sc.eval(env, p.Right)

	case *parser.Comparison:
		col, key, err := sc.resolve(p.Column)
		if err != nil {
			return false, err
		}
		lhs := env[key]

		var rhs any
		if ref, isRef := p.Value.(parser.ColumnRef); isRef {
			_, rkey, err := sc.resolve(ref)
			if err != nil {
				return false, err
			}
			rhs = env[rkey]
		} else {
			rhs, err = col.Convert(p.Value)
			if err != nil {
				return false, err
			}
		}
		return compare(lhs, rhs, p.Op), nil

	case *parser.Like:
		col, key, err := sc.resolve(p.Column)
		if err != nil {
			return false, err
		}
		if col.Type != record.TypeVarchar {
			return false, &record.TypeMismatchError{
				Column: col.Name, Expected: "VARCHAR", Value: "LIKE pattern",
			}
		}
		s, ok := env[key].(string)
		if !ok {
			return false, nil // NULL never matches
		}
		return likeMatch(s, p.Pattern), nil

	default:
		return false, fmt.Errorf("executor: unsupported predicate type %T", expr)
	}
}

func compare(lhs, rhs any, op parser.CompareOp) bool {
	if lhs == nil || rhs == nil {
		eq := lhs == nil && rhs == nil
		switch op {
		case parser.OpEq:
			return eq
		case parser.OpNe:
			return !eq
		default:
			return false
		}
	}
	c := record.Compare(lhs, rhs)
	switch op {
	case parser.OpEq:
		return c == 0
	case parser.OpNe:
		return c != 0
	case parser.OpLt:
		return c < 0
	case parser.OpGt:
		return c > 0
	case parser.OpLe:
		return c <= 0
	case parser.OpGe:
		return c >= 0
	default:
		return false
	}
}

// likeMatch implements LIKE with `%` as the only wildcard; every other
// pattern character is literal.
func likeMatch(s, pattern string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return s == pattern
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	for _, mid := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, mid)
		if idx < 0 {
			return false
		}
		s = s[idx+len(mid):]
	}
	return strings.HasSuffix(s, parts[len(parts)-1])
}

// ----- SELECT -----

func (e *Executor) execSelect(s *parser.SelectStmt) (*Result, error) {
	base, err := e.DB.GetTable(s.TableName)
	if err != nil {
		return nil, err
	}

	sc := scope{tables: []*table.Table{base}}
	joined := make([]*table.Table, 0, len(s.Joins))
	for _, j := range s.Joins {
		jt, err := e.DB.GetTable(j.TableName)
		if err != nil {
			return nil, err
		}
		sc.tables = append(sc.tables, jt)
		joined = append(joined, jt)
	}

	// Candidate rows from the FROM table. When there are no joins and WHERE
	// is a single equality on an indexed column, use the index instead of a
	// full scan.
	var envs []map[string]any
	whereDone := false
	if len(s.Joins) == 0 {
		if rows, ok, err := e.indexedWhere(base, s.Where); err != nil {
			return nil, err
		} else if ok {
			for _, row := range rows {
				envs = append(envs, envFor(base, row))
			}
			whereDone = true
		}
	}
	if !whereDone && envs == nil {
		for _, row := range base.Scan() {
			envs = append(envs, envFor(base, row))
		}
	}

	for i, j := range s.Joins {
		envs, err = e.joinStep(sc, envs, j, joined[i])
		if err != nil {
			return nil, err
		}
	}

	if s.Where != nil && !whereDone {
		kept := envs[:0]
		for _, env := range envs {
			ok, err := sc.eval(env, s.Where)
			if err != nil {
				return nil, err
			}
			if ok {
				kept = append(kept, env)
			}
		}
		envs = kept
	}

	if s.Order != nil {
		_, key, err := sc.resolve(s.Order.Ref)
		if err != nil {
			return nil, err
		}
		desc := s.Order.Desc
		sort.SliceStable(envs, func(i, j int) bool {
			c := record.Compare(envs[i][key], envs[j][key])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if s.Limit >= 0 && len(envs) > s.Limit {
		envs = envs[:s.Limit]
	}

	columns, keys, err := e.projection(s, sc, base, joined)
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: columns, Rows: []map[string]any{}}
	for _, env := range envs {
		out := make(map[string]any, len(columns))
		for i, key := range keys {
			out[columns[i]] = record.FormatValue(env[key])
		}
		res.Rows = append(res.Rows, out)
	}
	res.RowCount = len(res.Rows)
	return res, nil
}

// projection resolves the SELECT list into result column names and the
// candidate-row keys they read from. `*` expands to the FROM table's
// columns (bare) followed by each join table's columns qualified.
func (e *Executor) projection(s *parser.SelectStmt, sc scope, base *table.Table, joined []*table.Table) (columns, keys []string, err error) {
	for _, item := range s.Projection {
		if item.Star {
			for _, c := range base.Schema.Cols {
				columns = append(columns, c.Name)
				keys = append(keys, c.Name)
			}
			for _, jt := range joined {
				for _, c := range jt.Schema.Cols {
					columns = append(columns, jt.Name+"."+c.Name)
					keys = append(keys, jt.Name+"."+c.Name)
				}
			}
			continue
		}
		_, key, err := sc.resolve(item.Ref)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, item.Ref.Column)
		keys = append(keys, key)
	}
	return columns, keys, nil
}

// indexedWhere answers a WHERE that is a single `col = literal` against an
// indexed column with an index point lookup. ok is false when the predicate
// has any other shape.
func (e *Executor) indexedWhere(t *table.Table, where parser.Expr) ([]*table.Row, bool, error) {
	cmp, isCmp := where.(*parser.Comparison)
	if !isCmp || cmp.Op != parser.OpEq {
		return nil, false, nil
	}
	if _, isRef := cmp.Value.(parser.ColumnRef); isRef {
		return nil, false, nil
	}
	if cmp.Column.Table != "" && cmp.Column.Table != t.Name {
		return nil, false, nil
	}
	col := t.Schema.Find(cmp.Column.Column)
	if col == nil {
		return nil, false, &table.ReferenceError{Kind: "column", Name: cmp.Column.String()}
	}
	if t.IndexOn(col.Name) == nil {
		return nil, false, nil
	}
	v, err := col.Convert(cmp.Value)
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		// NULL equality needs the scan path's nil semantics.
		return nil, false, nil
	}
	return t.FindByColumn(col.Name, v), true, nil
}

// joinStep nests one join clause over the current candidate rows. When the
// ON predicate is a single equality whose join-table side is indexed, the
// inner scan is replaced with an index point lookup.
func (e *Executor) joinStep(sc scope, envs []map[string]any, j parser.JoinClause, jt *table.Table) ([]map[string]any, error) {
	var out []map[string]any

	if leftKey, rightCol, ok := e.indexableOn(j, jt); ok {
		ix := jt.IndexOn(rightCol)
		for _, env := range envs {
			matched := false
			if v := env[leftKey]; v != nil {
				for _, id := range ix.Lookup([]any{v}) {
					if row := jt.RowByID(id); row != nil {
						out = append(out, mergeRight(env, jt, row))
						matched = true
					}
				}
			}
			if !matched && j.Type == parser.JoinLeft {
				out = append(out, mergeRight(env, jt, nil))
			}
		}
		return out, nil
	}

	rows := jt.Scan()
	for _, env := range envs {
		matched := false
		for _, row := range rows {
			cand := mergeRight(env, jt, row)
			ok, err := sc.eval(cand, j.On)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, cand)
				matched = true
			}
		}
		if !matched && j.Type == parser.JoinLeft {
			out = append(out, mergeRight(env, jt, nil))
		}
	}
	return out, nil
}

// indexableOn detects `left.col = join.col` ON clauses where the join-table
// side has a single-column index. Both sides must be table-qualified.
func (e *Executor) indexableOn(j parser.JoinClause, jt *table.Table) (leftKey, rightCol string, ok bool) {
	cmp, isCmp := j.On.(*parser.Comparison)
	if !isCmp || cmp.Op != parser.OpEq {
		return "", "", false
	}
	rhs, isRef := cmp.Value.(parser.ColumnRef)
	if !isRef {
		return "", "", false
	}
	lhs := cmp.Column
	if lhs.Table == "" || rhs.Table == "" {
		return "", "", false
	}

	var joinSide, otherSide parser.ColumnRef
	switch jt.Name {
	case rhs.Table:
		joinSide, otherSide = rhs, lhs
	case lhs.Table:
		joinSide, otherSide = lhs, rhs
	default:
		return "", "", false
	}
	if jt.IndexOn(joinSide.Column) == nil {
		return "", "", false
	}
	return otherSide.String(), joinSide.Column, true
}

// ----- INSERT -----

func (e *Executor) execInsert(s *parser.InsertStmt) (*Result, error) {
	t, err := e.DB.GetTable(s.TableName)
	if err != nil {
		return nil, err
	}

	cols := s.Columns
	if cols == nil {
		if len(s.Values) != t.Schema.NumCols() {
			return nil, fmt.Errorf("executor: %d values for %d columns in %q",
				len(s.Values), t.Schema.NumCols(), t.Name)
		}
		cols = t.Schema.ColumnNames()
	} else if len(cols) != len(s.Values) {
		return nil, fmt.Errorf("executor: %d values for %d named columns in %q",
			len(s.Values), len(cols), t.Name)
	}

	data := make(map[string]any, len(cols))
	for i, col := range cols {
		data[col] = s.Values[i]
	}

	if _, err := t.Insert(data); err != nil {
		return nil, err
	}
	return &Result{RowCount: 1, Message: "Inserted 1 row"}, nil
}

// ----- UPDATE / DELETE -----

// matchingRows selects a single table's rows for UPDATE/DELETE with the
// same evaluator (and equality fast path) SELECT uses.
func (e *Executor) matchingRows(t *table.Table, where parser.Expr) ([]*table.Row, error) {
	if where == nil {
		return t.Scan(), nil
	}
	if rows, ok, err := e.indexedWhere(t, where); err != nil {
		return nil, err
	} else if ok {
		return rows, nil
	}

	sc := scope{tables: []*table.Table{t}}
	var out []*table.Row
	for _, row := range t.Scan() {
		ok, err := sc.eval(envFor(t, row), where)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (e *Executor) execUpdate(s *parser.UpdateStmt) (*Result, error) {
	t, err := e.DB.GetTable(s.TableName)
	if err != nil {
		return nil, err
	}
	targets, err := e.matchingRows(t, s.Where)
	if err != nil {
		return nil, err
	}

	assigns := make(map[string]any, len(s.Assignments))
	for _, a := range s.Assignments {
		assigns[a.Column] = a.Value
	}

	n, err := t.UpdateRows(targets, assigns)
	if err != nil {
		return nil, err
	}
	return &Result{RowCount: n, Message: fmt.Sprintf("Updated %d row(s)", n)}, nil
}

func (e *Executor) execDelete(s *parser.DeleteStmt) (*Result, error) {
	t, err := e.DB.GetTable(s.TableName)
	if err != nil {
		return nil, err
	}
	targets, err := e.matchingRows(t, s.Where)
	if err != nil {
		return nil, err
	}
	n := t.DeleteRows(targets)
	return &Result{RowCount: n, Message: fmt.Sprintf("Deleted %d row(s)", n)}, nil
}

// ----- DDL -----

func (e *Executor) execCreateTable(s *parser.CreateTableStmt) (*Result, error) {
	schema := record.Schema{Cols: make([]record.Column, 0, len(s.Columns))}
	for _, def := range s.Columns {
		dt, ok := record.ParseDataType(def.Type)
		if !ok {
			return nil, fmt.Errorf("executor: unknown column type %q", def.Type)
		}
		col := record.Column{
			Name:       def.Name,
			Type:       dt,
			Length:     def.Length,
			NotNull:    def.NotNull,
			PrimaryKey: def.PrimaryKey,
			Unique:     def.Unique,
		}
		if def.Default != nil {
			converted, err := col.Convert(def.Default)
			if err != nil {
				return nil, err
			}
			col.Default = converted
		}
		schema.Cols = append(schema.Cols, col)
	}

	t, err := e.DB.CreateTable(s.TableName, schema)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Created table '%s'", t.Name)}, nil
}

func (e *Executor) execDropTable(s *parser.DropTableStmt) (*Result, error) {
	if err := e.DB.DropTable(s.TableName); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Dropped table '%s'", s.TableName)}, nil
}

func (e *Executor) execCreateIndex(s *parser.CreateIndexStmt) (*Result, error) {
	t, err := e.DB.GetTable(s.TableName)
	if err != nil {
		return nil, err
	}
	if _, err := t.CreateIndex(s.IndexName, s.Columns); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Created index '%s' on '%s'", s.IndexName, s.TableName)}, nil
}
