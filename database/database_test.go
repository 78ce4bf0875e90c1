package database_test

import (
	"strings"
	"testing"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	_ "github.com/dbroute/dbroute/database/mysql"
	_ "github.com/dbroute/dbroute/database/oracle"
	_ "github.com/dbroute/dbroute/database/postgres"
	_ "github.com/dbroute/dbroute/database/sqlserver"
	"github.com/dbroute/dbroute/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(t *testing.T, kind string) database.Dialect {
	d, err := database.Lookup(kind)
	require.NoError(t, err)
	return d
}

func TestLookup(t *testing.T) {
	for _, kind := range []string{"mysql", "ORACLE", "postgres", "sqlserver"} {
		_, err := database.Lookup(kind)
		assert.NoError(t, err, kind)
	}
	_, err := database.Lookup("db2")
	assert.True(t, common.IsKind(err, common.KindUnsupported))

	target, err := database.Resolve(&model.Connection{Slug: "legacy", Kind: "informix"})
	assert.True(t, common.IsKind(err, common.KindUnsupported))
	assert.Nil(t, target.Dialect)
}

func TestPaginateOracle(t *testing.T) {
	q, err := database.Paginate("SELECT * FROM orders", lookup(t, model.KindOracle), 10, 20)
	require.NoError(t, err)
	assert.Contains(t, q, "rnum > 20")
	assert.Contains(t, q, "ROWNUM <= 30")
	assert.Equal(t, "SELECT * FROM (SELECT a.*, ROWNUM rnum FROM (SELECT * FROM orders) a WHERE ROWNUM <= 30) WHERE rnum > 20", q)
}

func TestPaginateOffsetDialects(t *testing.T) {
	for _, kind := range []string{model.KindMySQL, model.KindPostgres} {
		q, err := database.Paginate("SELECT * FROM orders;", lookup(t, kind), 10, 20)
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM orders LIMIT 10 OFFSET 20", q, kind)
	}
}

func TestPaginateSQLServer(t *testing.T) {
	d := lookup(t, model.KindSQLServer)
	q, err := database.Paginate("SELECT * FROM orders", d, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders ORDER BY (SELECT NULL) OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY", q)

	q, err = database.Paginate("SELECT * FROM orders order by id", d, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders order by id OFFSET 0 ROWS FETCH NEXT 5 ROWS ONLY", q)
}

func TestPaginateRejectsBadWindow(t *testing.T) {
	d := lookup(t, model.KindOracle)
	_, err := database.Paginate("SELECT 1 FROM DUAL", d, 0, 0)
	assert.True(t, common.IsKind(err, common.KindValidation))
	_, err = database.Paginate("SELECT 1 FROM DUAL", d, 10, -1)
	assert.True(t, common.IsKind(err, common.KindValidation))
}

func TestParsePage(t *testing.T) {
	l, o, err := database.ParsePage("", "")
	require.NoError(t, err)
	assert.Equal(t, database.DefaultPageLimit, l)
	assert.Equal(t, 0, o)

	l, o, err = database.ParsePage(" 25 ", "50")
	require.NoError(t, err)
	assert.Equal(t, 25, l)
	assert.Equal(t, 50, o)

	for _, bad := range [][2]string{{"10 OR 1=1", "0"}, {"10", "1;DROP"}, {"-1", "0"}, {"0", "0"}, {"5", "-3"}} {
		_, _, err = database.ParsePage(bad[0], bad[1])
		assert.True(t, common.IsKind(err, common.KindValidation), bad)
	}
}

func TestOracleDSN(t *testing.T) {
	d := lookup(t, model.KindOracle)
	conn := &model.Connection{Slug: "ora", Host: "10.0.0.5", Port: 1521, Username: "app"}

	_, err := d.DSN(conn, "secret")
	assert.True(t, common.IsKind(err, common.KindConfig), "neither service nor sid")

	conn.ServiceName, conn.Sid = "ORCLPDB1", "ORCL"
	_, err = d.DSN(conn, "secret")
	assert.True(t, common.IsKind(err, common.KindConfig), "both service and sid")

	conn.Sid = ""
	dsn, err := d.DSN(conn, "secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "oracle://"))
	assert.Contains(t, dsn, "ORCLPDB1")

	conn.ServiceName, conn.Sid = "", "ORCL"
	dsn, err = d.DSN(conn, "secret")
	require.NoError(t, err)
	assert.Contains(t, dsn, "ORCL")
	assert.NotContains(t, d.MaskedDSN(conn), "secret")
}

func TestDatabaseRequired(t *testing.T) {
	for _, kind := range []string{model.KindMySQL, model.KindPostgres} {
		d := lookup(t, kind)
		conn := &model.Connection{Slug: "x", Host: "db", Port: 1, Username: "u"}
		_, err := d.DSN(conn, "p")
		assert.True(t, common.IsKind(err, common.KindConfig), kind)

		conn.Database = "sales"
		dsn, err := d.DSN(conn, "p@ss")
		require.NoError(t, err, kind)
		assert.Contains(t, dsn, "sales")
		assert.NotContains(t, d.MaskedDSN(conn), "p@ss")
	}

	dsn, err := lookup(t, model.KindSQLServer).DSN(&model.Connection{Host: "mssql", Username: "sa"}, "pw")
	require.NoError(t, err)
	assert.Contains(t, dsn, "mssql:1433")
}

func TestSequenceNext(t *testing.T) {
	q, err := lookup(t, model.KindOracle).SequenceNext("HR.SEQ_ORDERS")
	require.NoError(t, err)
	assert.Equal(t, "SELECT HR.SEQ_ORDERS.NEXTVAL FROM DUAL", q)

	_, err = lookup(t, model.KindOracle).SequenceNext("seq; DROP TABLE x")
	assert.True(t, common.IsKind(err, common.KindValidation))

	_, err = lookup(t, model.KindMySQL).SequenceNext("seq")
	assert.True(t, common.IsKind(err, common.KindUnsupported))
}

func TestResultSetFirst(t *testing.T) {
	var rs *database.ResultSet
	_, ok := rs.First()
	assert.False(t, ok)

	rs = &database.ResultSet{Columns: []string{"CNT"}, Rows: [][]interface{}{{int64(3)}}}
	v, ok := rs.First()
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)
}
