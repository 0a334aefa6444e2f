package table

import (
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/btree"
)

// Index is a B-tree over one or more columns of a table. Unique indexes
// (primary key, UNIQUE) map each key to exactly one row id; secondary
// indexes created via CREATE INDEX map a key to a set of row ids.
//
// Rows with a NULL in any indexed column are not entered into the index;
// uniqueness only applies among non-null values.
type Index struct {
	Name    string
	Columns []string
	Unique  bool

	tree *btree.Tree
}

func NewIndex(name string, columns []string, unique bool, degree int) *Index {
	return &Index{
		Name:    name,
		Columns: columns,
		Unique:  unique,
		tree:    btree.NewTree(degree, unique),
	}
}

// keyFor extracts the index key from row data. ok is false when any indexed
// column is NULL.
func (ix *Index) keyFor(data map[string]any) (key []any, ok bool) {
	key = make([]any, len(ix.Columns))
	for i, col := range ix.Columns {
		v := data[col]
		if v == nil {
			return nil, false
		}
		key[i] = v
	}
	return key, true
}

func (ix *Index) insertRow(row *Row) error {
	key, ok := ix.keyFor(row.Data)
	if !ok {
		return nil
	}
	return ix.tree.Insert(key, row.ID)
}

func (ix *Index) deleteRow(row *Row) {
	key, ok := ix.keyFor(row.Data)
	if !ok {
		return
	}
	// ErrKeyNotFound here would mean the index diverged from the row set.
	_ = ix.tree.Delete(key, row.ID)
}

// Lookup returns the row ids for an exact key.
func (ix *Index) Lookup(key []any) []int64 {
	return ix.tree.Search(key)
}

// RangeLookup returns row ids for keys in [lo, hi], ascending.
func (ix *Index) RangeLookup(lo, hi []any) []int64 {
	return ix.tree.RangeSearch(lo, hi)
}

// Tree exposes the underlying B-tree for stats and invariant checks.
func (ix *Index) Tree() *btree.Tree { return ix.tree }

// covers reports whether the index is a single-column index on col, which is
// the only shape the executor uses for equality fast paths.
func (ix *Index) covers(col string) bool {
	return len(ix.Columns) == 1 && ix.Columns[0] == col
}
