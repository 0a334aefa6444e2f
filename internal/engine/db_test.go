package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/record"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/table"
)

func intPK() record.Schema {
	return record.Schema{Cols: []record.Column{
		{Name: "id", Type: record.TypeInt, PrimaryKey: true},
	}}
}

func TestOpen_MissingSnapshotStartsEmpty(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "absent.json"), "fresh", 3)
	require.NoError(t, err)
	require.Equal(t, "fresh", db.Name)
	require.Empty(t, db.ListTables())
}

func TestDatabase_Catalog(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "db.json"), "test", 3)
	require.NoError(t, err)

	_, err = db.CreateTable("users", intPK())
	require.NoError(t, err)
	_, err = db.CreateTable("orders", intPK())
	require.NoError(t, err)

	// duplicate name
	_, err = db.CreateTable("users", intPK())
	require.ErrorContains(t, err, "already exists")

	require.Equal(t, []string{"users", "orders"}, db.ListTables())

	schema, err := db.Describe("users")
	require.NoError(t, err)
	require.Equal(t, []string{"id"}, schema.ColumnNames())

	require.NoError(t, db.DropTable("users"))
	require.Equal(t, []string{"orders"}, db.ListTables())

	var refErr *table.ReferenceError
	require.ErrorAs(t, db.DropTable("users"), &refErr)
	_, err = db.GetTable("users")
	require.ErrorAs(t, err, &refErr)
}

func TestDatabase_SaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	db, err := Open(path, "test", 3)
	require.NoError(t, err)
	tbl, err := db.CreateTable("users", intPK())
	require.NoError(t, err)
	_, err = tbl.Insert(map[string]any{"id": 1})
	require.NoError(t, err)
	require.NoError(t, db.Save())

	db2, err := Open(path, "other", 3)
	require.NoError(t, err)
	// the snapshot's recorded name wins over the requested one
	require.Equal(t, "test", db2.Name)

	got, err := db2.GetTable("users")
	require.NoError(t, err)
	require.Equal(t, 1, got.RowCount())
}

func TestDatabase_Stats(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "db.json"), "test", 3)
	require.NoError(t, err)
	tbl, err := db.CreateTable("users", intPK())
	require.NoError(t, err)
	_, err = tbl.Insert(map[string]any{"id": 1})
	require.NoError(t, err)

	s := db.Stats()
	require.Equal(t, "test", s.Name)
	require.Len(t, s.Tables, 1)
	require.Equal(t, TableStats{Name: "users", Columns: 1, Rows: 1, Indexes: 1}, s.Tables[0])
}
