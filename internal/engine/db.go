package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/btree"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/record"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/storage"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/table"
)

// Database owns the table catalog and the snapshot file. One statement runs
// to full completion (parse, validate, mutate, persist) before the next is
// admitted: callers serialize through Lock/Unlock around each statement.
type Database struct {
	Name string

	mu     sync.Mutex
	path   string
	degree int
	tables map[string]*table.Table
	order  []string
}

// Open loads the database at path, or starts empty when no snapshot exists
// yet. degree is the minimum degree for every B-tree index.
func Open(path, name string, degree int) (*Database, error) {
	if degree < 2 {
		degree = btree.DefaultDegree
	}
	db := &Database{
		Name:   name,
		path:   path,
		degree: degree,
		tables: map[string]*table.Table{},
	}

	savedName, tables, err := storage.Load(path, degree)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("engine: no snapshot, starting empty", "path", path, "db", name)
			return db, nil
		}
		return nil, err
	}
	if savedName != "" {
		db.Name = savedName
	}
	for _, t := range tables {
		db.tables[t.Name] = t
		db.order = append(db.order, t.Name)
	}
	slog.Info("engine: snapshot loaded", "path", path, "tables", len(tables))
	return db, nil
}

// Lock serializes statement execution; the executor holds it across the
// whole parse-validate-mutate-persist span.
func (db *Database) Lock()   { db.mu.Lock() }
func (db *Database) Unlock() { db.mu.Unlock() }

func (db *Database) Path() string { return db.path }

// Degree returns the configured B-tree minimum degree.
func (db *Database) Degree() int { return db.degree }

func (db *Database) CreateTable(name string, schema record.Schema) (*table.Table, error) {
	if _, ok := db.tables[name]; ok {
		return nil, fmt.Errorf("engine: table %q already exists", name)
	}
	t, err := table.NewTable(name, schema, db.degree)
	if err != nil {
		return nil, err
	}
	db.tables[name] = t
	db.order = append(db.order, name)
	return t, nil
}

// DropTable destroys the table and every index on it.
func (db *Database) DropTable(name string) error {
	if _, ok := db.tables[name]; !ok {
		return &table.ReferenceError{Kind: "table", Name: name}
	}
	delete(db.tables, name)
	for i, n := range db.order {
		if n == name {
			db.order = append(db.order[:i], db.order[i+1:]...)
			break
		}
	}
	return nil
}

func (db *Database) GetTable(name string) (*table.Table, error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, &table.ReferenceError{Kind: "table", Name: name}
	}
	return t, nil
}

// ListTables returns table names in creation order.
func (db *Database) ListTables() []string {
	out := make([]string, len(db.order))
	copy(out, db.order)
	return out
}

// Describe returns a table's schema for catalog introspection.
func (db *Database) Describe(name string) (record.Schema, error) {
	t, err := db.GetTable(name)
	if err != nil {
		return record.Schema{}, err
	}
	return t.Schema, nil
}

type TableStats struct {
	Name    string `json:"name"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
	Indexes int    `json:"indexes"`
}

type Stats struct {
	Name   string       `json:"name"`
	Tables []TableStats `json:"tables"`
}

// Stats summarizes the catalog for the shell's introspection commands.
func (db *Database) Stats() Stats {
	s := Stats{Name: db.Name, Tables: []TableStats{}}
	for _, name := range db.order {
		t := db.tables[name]
		s.Tables = append(s.Tables, TableStats{
			Name:    name,
			Columns: t.Schema.NumCols(),
			Rows:    t.RowCount(),
			Indexes: len(t.Indexes()),
		})
	}
	return s
}

// Save persists the current state atomically. Called by the executor after
// every successfully committed mutating statement; a save failure fails the
// statement, leaving the previous snapshot on disk.
func (db *Database) Save() error {
	tables := make([]*table.Table, 0, len(db.order))
	for _, name := range db.order {
		tables = append(tables, db.tables[name])
	}
	return storage.Save(db.path, db.Name, tables)
}
