package route

import (
	"context"
	"testing"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/database/oracle"
	"github.com/dbroute/dbroute/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guardedRoute(pre bool) *model.Route {
	return &model.Route{
		Name:           "Guarded",
		Slug:           "guarded",
		IsPreProcessed: pre,
		PreQuery:       "SELECT COUNT(*) FROM orders WHERE id = @id",
		QueryTrue:      "UPDATE orders SET seen = 1 WHERE id = @id",
		QueryFalse:     "INSERT INTO orders (id) VALUES (@id)",
	}
}

func TestResolvePreQueryBranches(t *testing.T) {
	cases := []struct {
		rs     *database.ResultSet
		branch string
		query  string
	}{
		{count(0), BranchFalse, "INSERT INTO orders (id) VALUES (@id)"},
		{count(3), BranchTrue, "UPDATE orders SET seen = 1 WHERE id = @id"},
		{&database.ResultSet{}, BranchFalse, "INSERT INTO orders (id) VALUES (@id)"},
		{&database.ResultSet{Rows: [][]interface{}{{"2"}}}, BranchTrue, "UPDATE orders SET seen = 1 WHERE id = @id"},
		{&database.ResultSet{Rows: [][]interface{}{{[]byte("0")}}}, BranchFalse, "INSERT INTO orders (id) VALUES (@id)"},
		{&database.ResultSet{Rows: [][]interface{}{{nil}}}, BranchFalse, "INSERT INTO orders (id) VALUES (@id)"},
	}
	for _, c := range cases {
		conn := &fakeConn{results: map[string]*database.ResultSet{"COUNT(*)": c.rs}}
		res, err := Resolve(context.Background(), guardedRoute(true), conn, oracle.Dialect{}, map[string]interface{}{"id": 1})
		require.NoError(t, err)
		assert.Equal(t, c.branch, res.Branch)
		assert.Equal(t, c.query, res.Query)
		assert.Equal(t, []string{"SELECT COUNT(*) FROM orders WHERE id = :id"}, conn.queries)
	}
}

func TestResolveWithoutPreProcessingNeverRunsPreQuery(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.ResultSet{"COUNT(*)": count(0)}}
	res, err := Resolve(context.Background(), guardedRoute(false), conn, oracle.Dialect{}, nil)
	require.NoError(t, err)
	assert.Equal(t, BranchDefault, res.Branch)
	assert.Equal(t, "UPDATE orders SET seen = 1 WHERE id = @id", res.Query)
	assert.Empty(t, conn.queries)

	rt := guardedRoute(false)
	rt.QueryTrue = ""
	rt.Query = "DELETE FROM orders WHERE id = @id"
	res, err = Resolve(context.Background(), rt, conn, oracle.Dialect{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM orders WHERE id = @id", res.Query)
	assert.Empty(t, conn.queries)
}

func TestResolveLegacy(t *testing.T) {
	conn := &fakeConn{}
	rt := &model.Route{Name: "Legacy", Query: "UPDATE t SET a = @a", IsPreProcessed: true}
	res, err := Resolve(context.Background(), rt, conn, oracle.Dialect{}, nil)
	require.NoError(t, err)
	assert.True(t, res.Legacy())
	assert.Equal(t, rt.Query, res.Query)
	assert.Empty(t, conn.queries)
}

func TestResolveNonNumericCount(t *testing.T) {
	conn := &fakeConn{results: map[string]*database.ResultSet{"COUNT(*)": {Rows: [][]interface{}{{"many"}}}}}
	_, err := Resolve(context.Background(), guardedRoute(true), conn, oracle.Dialect{}, nil)
	assert.True(t, common.IsKind(err, common.KindQuery))
}
