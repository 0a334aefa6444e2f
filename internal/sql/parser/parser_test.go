package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_CreateTable(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE users (
		id INT PRIMARY KEY,
		email VARCHAR(120) UNIQUE NOT NULL,
		active BOOLEAN DEFAULT TRUE,
		joined DATETIME
	);`)
	require.NoError(t, err)

	ct, ok := stmt.(*CreateTableStmt)
	require.True(t, ok)
	require.Equal(t, "users", ct.TableName)
	require.Len(t, ct.Columns, 4)

	require.Equal(t, ColumnDef{Name: "id", Type: "INT", PrimaryKey: true}, ct.Columns[0])
	require.Equal(t, ColumnDef{Name: "email", Type: "VARCHAR", Length: 120, Unique: true, NotNull: true}, ct.Columns[1])
	require.Equal(t, ColumnDef{Name: "active", Type: "BOOLEAN", Default: true}, ct.Columns[2])
	require.Equal(t, ColumnDef{Name: "joined", Type: "DATETIME"}, ct.Columns[3])
}

func TestParse_Insert(t *testing.T) {
	stmt, err := Parse(`INSERT INTO users (id, email) VALUES (1, 'a@b.c')`)
	require.NoError(t, err)

	ins, ok := stmt.(*InsertStmt)
	require.True(t, ok)
	require.Equal(t, "users", ins.TableName)
	require.Equal(t, []string{"id", "email"}, ins.Columns)
	require.Equal(t, []any{int64(1), "a@b.c"}, ins.Values)
}

func TestParse_InsertPositional(t *testing.T) {
	stmt, err := Parse(`INSERT INTO t VALUES (1, 2.5, NULL, FALSE)`)
	require.NoError(t, err)

	ins := stmt.(*InsertStmt)
	require.Nil(t, ins.Columns)
	require.Equal(t, []any{int64(1), 2.5, nil, false}, ins.Values)
}

func TestParse_SelectFull(t *testing.T) {
	stmt, err := Parse(`SELECT u.name, total FROM users
		WHERE age >= 21 AND name LIKE 'A%' OR vip = TRUE
		ORDER BY name DESC LIMIT 10`)
	require.NoError(t, err)

	sel := stmt.(*SelectStmt)
	require.Equal(t, "users", sel.TableName)
	require.Len(t, sel.Projection, 2)
	require.Equal(t, ColumnRef{Table: "u", Column: "name"}, sel.Projection[0].Ref)
	require.Equal(t, ColumnRef{Column: "total"}, sel.Projection[1].Ref)

	// AND binds tighter than OR: (age>=21 AND name LIKE 'A%') OR vip=TRUE
	or, ok := sel.Where.(*Or)
	require.True(t, ok)
	and, ok := or.Left.(*And)
	require.True(t, ok)
	cmp := and.Left.(*Comparison)
	require.Equal(t, OpGe, cmp.Op)
	require.Equal(t, int64(21), cmp.Value)
	like := and.Right.(*Like)
	require.Equal(t, "A%", like.Pattern)
	vip := or.Right.(*Comparison)
	require.Equal(t, true, vip.Value)

	require.NotNil(t, sel.Order)
	require.True(t, sel.Order.Desc)
	require.Equal(t, 10, sel.Limit)
}

func TestParse_ParensOverridePrecedence(t *testing.T) {
	stmt, err := Parse(`SELECT * FROM t WHERE a = 1 AND (b = 2 OR c = 3)`)
	require.NoError(t, err)

	and, ok := stmt.(*SelectStmt).Where.(*And)
	require.True(t, ok)
	_, ok = and.Right.(*Or)
	require.True(t, ok)
}

func TestParse_Joins(t *testing.T) {
	stmt, err := Parse(`SELECT * FROM orders
		JOIN users ON orders.user_id = users.id
		LEFT JOIN items ON items.order_id = orders.id`)
	require.NoError(t, err)

	sel := stmt.(*SelectStmt)
	require.Len(t, sel.Joins, 2)
	require.Equal(t, JoinInner, sel.Joins[0].Type)
	require.Equal(t, "users", sel.Joins[0].TableName)
	require.Equal(t, JoinLeft, sel.Joins[1].Type)

	on := sel.Joins[0].On.(*Comparison)
	require.Equal(t, ColumnRef{Table: "orders", Column: "user_id"}, on.Column)
	require.Equal(t, ColumnRef{Table: "users", Column: "id"}, on.Value)
}

func TestParse_Update(t *testing.T) {
	stmt, err := Parse(`UPDATE users SET name = 'Bob', age = 30 WHERE id = 7`)
	require.NoError(t, err)

	up := stmt.(*UpdateStmt)
	require.Equal(t, "users", up.TableName)
	require.Equal(t, []Assignment{
		{Column: "name", Value: "Bob"},
		{Column: "age", Value: int64(30)},
	}, up.Assignments)
	require.NotNil(t, up.Where)
}

func TestParse_DeleteWithoutWhere(t *testing.T) {
	stmt, err := Parse(`DELETE FROM users`)
	require.NoError(t, err)

	del := stmt.(*DeleteStmt)
	require.Equal(t, "users", del.TableName)
	require.Nil(t, del.Where)
}

func TestParse_CreateIndex(t *testing.T) {
	stmt, err := Parse(`CREATE INDEX idx_city ON users (city, country)`)
	require.NoError(t, err)

	ci := stmt.(*CreateIndexStmt)
	require.Equal(t, "idx_city", ci.IndexName)
	require.Equal(t, "users", ci.TableName)
	require.Equal(t, []string{"city", "country"}, ci.Columns)
}

func TestParse_DropTable(t *testing.T) {
	stmt, err := Parse(`DROP TABLE users;`)
	require.NoError(t, err)
	require.Equal(t, &DropTableStmt{TableName: "users"}, stmt)
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse(`SELECT FROM users`)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "a column name", perr.Expected)
	require.Equal(t, "FROM", perr.Found)
	require.Equal(t, 7, perr.Pos)
}

func TestParse_TrailingGarbage(t *testing.T) {
	_, err := Parse(`DROP TABLE users extra`)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "end of statement", perr.Expected)
}

func TestParse_LexErrorSurfaces(t *testing.T) {
	_, err := Parse(`SELECT * FROM t WHERE name = 'open`)

	var lerr *LexError
	require.ErrorAs(t, err, &lerr)
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse("   ")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "end of input", perr.Found)
}
