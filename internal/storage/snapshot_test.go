package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/record"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.NewTable("users", record.Schema{Cols: []record.Column{
		{Name: "id", Type: record.TypeInt, PrimaryKey: true},
		{Name: "name", Type: record.TypeVarchar, Length: 50, NotNull: true},
		{Name: "score", Type: record.TypeFloat},
		{Name: "active", Type: record.TypeBoolean, Default: true},
		{Name: "joined", Type: record.TypeDatetime},
	}}, 3)
	require.NoError(t, err)

	_, err = tbl.Insert(map[string]any{
		"id": 1, "name": "Alice", "score": 9.5, "joined": "2026-08-30 12:00:00",
	})
	require.NoError(t, err)
	_, err = tbl.Insert(map[string]any{"id": 2, "name": "Bob", "active": false})
	require.NoError(t, err)

	_, err = tbl.CreateIndex("idx_name", []string{"name"})
	require.NoError(t, err)
	return tbl
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	tbl := sampleTable(t)

	require.NoError(t, Save(path, "testdb", []*table.Table{tbl}))

	name, tables, err := Load(path, 3)
	require.NoError(t, err)
	require.Equal(t, "testdb", name)
	require.Len(t, tables, 1)

	got := tables[0]
	require.Equal(t, "users", got.Name)
	require.Equal(t, tbl.Schema.ColumnNames(), got.Schema.ColumnNames())
	require.Equal(t, 2, got.RowCount())

	// values come back with their storage types
	rows := got.Scan()
	require.Equal(t, int64(1), rows[0].Data["id"])
	require.Equal(t, "Alice", rows[0].Data["name"])
	require.Equal(t, 9.5, rows[0].Data["score"])
	require.Equal(t, true, rows[0].Data["active"])
	require.Equal(t, "2026-08-30 12:00:00", record.FormatValue(rows[0].Data["joined"]))
	require.Equal(t, false, rows[1].Data["active"])
	require.Nil(t, rows[1].Data["joined"])

	// secondary index definition survives and is rebuilt
	require.Len(t, got.FindByColumn("name", "Bob"), 1)
	names := []string{}
	for _, ix := range got.Indexes() {
		names = append(names, ix.Name)
	}
	require.Contains(t, names, "idx_name")
}

func TestSave_AtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	tbl := sampleTable(t)

	require.NoError(t, Save(path, "testdb", []*table.Table{tbl}))
	require.NoError(t, Save(path, "testdb", []*table.Table{tbl})) // overwrite

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "db.json", entries[0].Name())
}

func TestSave_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "db.json")
	require.NoError(t, Save(path, "testdb", nil))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.json"), 3)

	var sErr *StorageError
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, "load", sErr.Op)
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_CorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := Load(path, 3)
	var sErr *StorageError
	require.ErrorAs(t, err, &sErr)
	require.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_EmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, Save(path, "empty", nil))

	name, tables, err := Load(path, 3)
	require.NoError(t, err)
	require.Equal(t, "empty", name)
	require.Empty(t, tables)
}
