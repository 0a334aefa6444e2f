package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/record"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/table"
)

// StorageError wraps an I/O failure during save or load. A failed save
// leaves the previous snapshot file intact.
type StorageError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// The snapshot is human-readable JSON: per table the ordered column
// definitions, the definitions of secondary indexes (content is rebuilt
// from rows on load), and the ordered row data. Unique indexes are implied
// by the schema and not written at all.
type snapshotDB struct {
	Name    string          `json:"name"`
	SavedAt time.Time       `json:"saved_at"`
	Tables  []snapshotTable `json:"tables"`
}

type snapshotTable struct {
	Name    string           `json:"name"`
	Columns []record.Column  `json:"columns"`
	Indexes []snapshotIndex  `json:"indexes,omitempty"`
	Rows    []map[string]any `json:"rows"`
}

type snapshotIndex struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Save writes the whole database atomically: temp file in the target
// directory, fsync, then rename over path.
func Save(path, name string, tables []*table.Table) error {
	snap := snapshotDB{Name: name, SavedAt: time.Now().UTC()}
	for _, t := range tables {
		st := snapshotTable{
			Name:    t.Name,
			Columns: t.Schema.Cols,
			Rows:    []map[string]any{},
		}
		for _, ix := range t.Indexes() {
			if ix.Unique {
				continue
			}
			st.Indexes = append(st.Indexes, snapshotIndex{Name: ix.Name, Columns: ix.Columns})
		}
		for _, row := range t.Scan() {
			out := make(map[string]any, len(row.Data))
			for col, v := range row.Data {
				out[col] = record.FormatValue(v)
			}
			st.Rows = append(st.Rows, out)
		}
		snap.Tables = append(snap.Tables, st)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Load reads a snapshot and rebuilds every table, including its indexes,
// from the row data. Callers should treat fs.ErrNotExist (via errors.Is) as
// an empty database.
func Load(path string, degree int) (string, []*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, &StorageError{Op: "load", Path: path, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var snap snapshotDB
	if err := dec.Decode(&snap); err != nil {
		return "", nil, &StorageError{Op: "load", Path: path, Err: err}
	}

	var tables []*table.Table
	for _, st := range snap.Tables {
		schema := record.Schema{Cols: st.Columns}
		for i := range schema.Cols {
			schema.Cols[i].Default = decodeNumber(schema.Cols[i].Default, schema.Cols[i].Type)
		}

		t, err := table.NewTable(st.Name, schema, degree)
		if err != nil {
			return "", nil, &StorageError{Op: "load", Path: path, Err: err}
		}
		for _, ix := range st.Indexes {
			if _, err := t.CreateIndex(ix.Name, ix.Columns); err != nil {
				return "", nil, &StorageError{Op: "load", Path: path, Err: err}
			}
		}
		for _, raw := range st.Rows {
			rowData := make(map[string]any, len(raw))
			for col, v := range raw {
				c := schema.Find(col)
				if c == nil {
					return "", nil, &StorageError{
						Op:   "load",
						Path: path,
						Err:  fmt.Errorf("row references unknown column %q in table %q", col, st.Name),
					}
				}
				rowData[col] = decodeNumber(v, c.Type)
			}
			if err := t.AppendLoaded(rowData); err != nil {
				return "", nil, &StorageError{Op: "load", Path: path, Err: err}
			}
		}
		tables = append(tables, t)
	}
	return snap.Name, tables, nil
}

// decodeNumber resolves json.Number against the column type so INT values
// come back as int64 rather than float64.
func decodeNumber(v any, t record.DataType) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if t == record.TypeFloat {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
