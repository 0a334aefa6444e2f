package table

import (
	"fmt"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/btree"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/record"
)

// Row is one table row. ID is a table-scoped identifier used as the row
// reference stored in indexes; Data maps column name to the stored value.
type Row struct {
	ID   int64
	Data map[string]any
}

// Table holds an ordered schema, insertion-ordered rows and the B-tree
// indexes over them. A Table is owned by exactly one engine.Database; all
// mutation goes through the validate-before-mutate paths below so that a
// rejected statement leaves rows and indexes untouched.
type Table struct {
	Name   string
	Schema record.Schema

	degree    int
	rows      []*Row
	byID      map[int64]*Row
	indexes   map[string]*Index
	indexOrd  []string
	nextRowID int64
}

func NewTable(name string, schema record.Schema, degree int) (*Table, error) {
	if schema.NumCols() == 0 {
		return nil, fmt.Errorf("table: %q must have at least one column", name)
	}
	seen := map[string]bool{}
	pkCount := 0
	for _, c := range schema.Cols {
		if seen[c.Name] {
			return nil, fmt.Errorf("table: duplicate column %q in %q", c.Name, name)
		}
		seen[c.Name] = true
		if c.PrimaryKey {
			pkCount++
		}
	}
	if pkCount > 1 {
		return nil, fmt.Errorf("table: %q has more than one PRIMARY KEY column", name)
	}

	t := &Table{
		Name:    name,
		Schema:  schema,
		degree:  degree,
		byID:    map[int64]*Row{},
		indexes: map[string]*Index{},
	}

	// Constraint indexes exist from the start.
	for _, c := range schema.Cols {
		if c.PrimaryKey || c.Unique {
			name := "pk_" + c.Name
			if !c.PrimaryKey {
				name = "uq_" + c.Name
			}
			t.addIndex(NewIndex(name, []string{c.Name}, true, degree))
		}
	}
	return t, nil
}

func (t *Table) addIndex(ix *Index) {
	t.indexes[ix.Name] = ix
	t.indexOrd = append(t.indexOrd, ix.Name)
}

// CreateIndex adds a secondary (non-unique) index and backfills it from the
// current rows.
func (t *Table) CreateIndex(name string, columns []string) (*Index, error) {
	if _, ok := t.indexes[name]; ok {
		return nil, fmt.Errorf("table: index %q already exists on %q", name, t.Name)
	}
	for _, col := range columns {
		if t.Schema.Find(col) == nil {
			return nil, &ReferenceError{Kind: "column", Name: col}
		}
	}

	ix := NewIndex(name, columns, false, t.degree)
	for _, row := range t.rows {
		if err := ix.insertRow(row); err != nil {
			return nil, err
		}
	}
	t.addIndex(ix)
	return ix, nil
}

// Indexes returns the table's indexes in creation order.
func (t *Table) Indexes() []*Index {
	out := make([]*Index, 0, len(t.indexOrd))
	for _, name := range t.indexOrd {
		out = append(out, t.indexes[name])
	}
	return out
}

// IndexOn returns a single-column index on col, preferring unique ones, or
// nil. This is the shape the executor's equality fast path needs.
func (t *Table) IndexOn(col string) *Index {
	var fallback *Index
	for _, name := range t.indexOrd {
		ix := t.indexes[name]
		if !ix.covers(col) {
			continue
		}
		if ix.Unique {
			return ix
		}
		if fallback == nil {
			fallback = ix
		}
	}
	return fallback
}

// Scan returns all rows in insertion order. The slice is fresh; the rows are
// shared.
func (t *Table) Scan() []*Row {
	out := make([]*Row, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *Table) RowCount() int { return len(t.rows) }

// RowByID resolves an index reference back to its row.
func (t *Table) RowByID(id int64) *Row { return t.byID[id] }

// buildRow converts the supplied values, applies defaults for omitted
// columns and rejects unknown column names.
func (t *Table) buildRow(data map[string]any) (map[string]any, error) {
	for name := range data {
		if t.Schema.Find(name) == nil {
			return nil, &ReferenceError{Kind: "column", Name: name}
		}
	}

	full := make(map[string]any, t.Schema.NumCols())
	for _, col := range t.Schema.Cols {
		v, supplied := data[col.Name]
		if !supplied {
			v = col.Default
		}
		converted, err := col.Convert(v)
		if err != nil {
			return nil, err
		}
		full[col.Name] = converted
	}
	return full, nil
}

// checkConstraints validates NOT NULL and uniqueness for a full row image.
// exclude lists row ids whose current values do not count against
// uniqueness (the rows being replaced by the same statement); extra holds
// values already claimed by earlier rows of the same statement.
func (t *Table) checkConstraints(full map[string]any, exclude map[int64]bool, extra map[string][]any) error {
	for _, col := range t.Schema.Cols {
		v := full[col.Name]

		if v == nil {
			if col.NotNull {
				return &ConstraintError{Kind: ConstraintNotNull, Column: col.Name}
			}
			if col.PrimaryKey {
				return &ConstraintError{Kind: ConstraintPrimaryKey, Column: col.Name}
			}
			continue
		}

		if !col.PrimaryKey && !col.Unique {
			continue
		}
		kind := ConstraintUnique
		if col.PrimaryKey {
			kind = ConstraintPrimaryKey
		}

		for _, claimed := range extra[col.Name] {
			if record.Compare(claimed, v) == 0 {
				return &ConstraintError{Kind: kind, Column: col.Name, Value: v}
			}
		}

		for _, other := range t.FindByColumn(col.Name, v) {
			if !exclude[other.ID] {
				return &ConstraintError{Kind: kind, Column: col.Name, Value: v}
			}
		}
	}
	return nil
}

// Insert validates data against the schema and constraints, then appends the
// row and updates every index. Validation failures mutate nothing.
func (t *Table) Insert(data map[string]any) (*Row, error) {
	full, err := t.buildRow(data)
	if err != nil {
		return nil, err
	}
	if err := t.checkConstraints(full, nil, nil); err != nil {
		return nil, err
	}

	row := &Row{ID: t.nextRowID, Data: full}
	t.nextRowID++
	t.rows = append(t.rows, row)
	t.byID[row.ID] = row

	for _, name := range t.indexOrd {
		if err := t.indexes[name].insertRow(row); err != nil {
			// Unreachable after checkConstraints; keep the invariant loud.
			return nil, fmt.Errorf("table: index %q out of sync on insert: %w", name, err)
		}
	}
	return row, nil
}

// AppendLoaded re-inserts a row from a snapshot, converting values and
// rebuilding index entries without re-running constraint checks.
func (t *Table) AppendLoaded(data map[string]any) error {
	full, err := t.buildRow(data)
	if err != nil {
		return err
	}
	row := &Row{ID: t.nextRowID, Data: full}
	t.nextRowID++
	t.rows = append(t.rows, row)
	t.byID[row.ID] = row

	for _, name := range t.indexOrd {
		if err := t.indexes[name].insertRow(row); err != nil {
			if err == btree.ErrDuplicateKey {
				return &ConstraintError{Kind: ConstraintUnique, Column: t.indexes[name].Columns[0], Value: data}
			}
			return err
		}
	}
	return nil
}

// FindByColumn returns rows whose col equals value, via an index when one
// covers the column, else a scan. Follows insertion order on the scan path
// and key order on the index path; equality lookups return a single key's
// rows either way.
func (t *Table) FindByColumn(col string, value any) []*Row {
	if value == nil {
		return nil
	}
	if ix := t.IndexOn(col); ix != nil {
		ids := ix.Lookup([]any{value})
		out := make([]*Row, 0, len(ids))
		for _, id := range ids {
			if r := t.byID[id]; r != nil {
				out = append(out, r)
			}
		}
		return out
	}

	var out []*Row
	for _, row := range t.rows {
		if record.Compare(row.Data[col], value) == 0 && row.Data[col] != nil {
			out = append(out, row)
		}
	}
	return out
}

// UpdateRows applies assigns to every row in targets. All new row images are
// validated before any row is touched: if one fails, no row changes.
// Uniqueness checks exclude the targets' own prior values and reject
// collisions between new values within the same statement.
func (t *Table) UpdateRows(targets []*Row, assigns map[string]any) (int, error) {
	for name := range assigns {
		if t.Schema.Find(name) == nil {
			return 0, &ReferenceError{Kind: "column", Name: name}
		}
	}

	exclude := make(map[int64]bool, len(targets))
	for _, row := range targets {
		exclude[row.ID] = true
	}

	newImages := make([]map[string]any, len(targets))
	claimed := map[string][]any{}
	for i, row := range targets {
		img := make(map[string]any, len(row.Data))
		for k, v := range row.Data {
			img[k] = v
		}
		for name, v := range assigns {
			col := t.Schema.Find(name)
			converted, err := col.Convert(v)
			if err != nil {
				return 0, err
			}
			img[name] = converted
		}
		if err := t.checkConstraints(img, exclude, claimed); err != nil {
			return 0, err
		}
		for _, col := range t.Schema.Cols {
			if (col.PrimaryKey || col.Unique) && img[col.Name] != nil {
				claimed[col.Name] = append(claimed[col.Name], img[col.Name])
			}
		}
		newImages[i] = img
	}

	touched := t.indexesTouching(assigns)
	for i, row := range targets {
		for _, ix := range touched {
			ix.deleteRow(row)
		}
		row.Data = newImages[i]
		for _, ix := range touched {
			if err := ix.insertRow(row); err != nil {
				return i, fmt.Errorf("table: index %q out of sync on update: %w", ix.Name, err)
			}
		}
	}
	return len(targets), nil
}

// DeleteRows removes the given rows from the table and every index.
func (t *Table) DeleteRows(targets []*Row) int {
	drop := make(map[int64]bool, len(targets))
	for _, row := range targets {
		if _, ok := t.byID[row.ID]; !ok {
			continue
		}
		drop[row.ID] = true
		for _, name := range t.indexOrd {
			t.indexes[name].deleteRow(row)
		}
		delete(t.byID, row.ID)
	}
	if len(drop) == 0 {
		return 0
	}

	kept := t.rows[:0]
	for _, row := range t.rows {
		if !drop[row.ID] {
			kept = append(kept, row)
		}
	}
	t.rows = kept
	return len(drop)
}

// indexesTouching returns indexes with at least one assigned column.
func (t *Table) indexesTouching(assigns map[string]any) []*Index {
	var out []*Index
	for _, name := range t.indexOrd {
		ix := t.indexes[name]
		for _, col := range ix.Columns {
			if _, ok := assigns[col]; ok {
				out = append(out, ix)
				break
			}
		}
	}
	return out
}
