package route

import (
	"context"
	"strings"

	"github.com/dbroute/dbroute/binder"
	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/model"
	"github.com/spf13/cast"
)

const (
	BranchLegacy  string = "legacy"
	BranchDefault string = "default"
	BranchTrue    string = "true"
	BranchFalse   string = "false"
)

// Resolution is the query picked for one connection. An empty Query means
// there is nothing to execute.
type Resolution struct {
	Query  string
	Branch string
}

func (r Resolution) Empty() bool {
	return strings.TrimSpace(r.Query) == ""
}

func (r Resolution) Legacy() bool {
	return r.Branch == BranchLegacy
}

// Resolve walks the branch selection of a route. The pre query only runs for
// pre processed routes, on conn and inside its transaction.
func Resolve(ctx context.Context, rt *model.Route, conn database.Conn, d database.Dialect, values map[string]interface{}) (Resolution, error) {
	if rt.IsLegacy() {
		return Resolution{Query: rt.Query, Branch: BranchLegacy}, nil
	}
	if !rt.IsPreProcessed || !rt.HasPreQuery() {
		if strings.TrimSpace(rt.QueryTrue) != "" {
			return Resolution{Query: rt.QueryTrue, Branch: BranchDefault}, nil
		}
		return Resolution{Query: rt.Query, Branch: BranchDefault}, nil
	}

	stmt, args, _ := binder.Prepare(rt.PreQuery, values, d)
	rs, err := conn.Query(ctx, stmt.SQL, args...)
	if err != nil {
		return Resolution{}, err
	}
	truthy, err := isTruthy(rs)
	if err != nil {
		return Resolution{}, err
	}
	if truthy {
		return Resolution{Query: rt.QueryTrue, Branch: BranchTrue}, nil
	}
	return Resolution{Query: rt.QueryFalse, Branch: BranchFalse}, nil
}

// isTruthy reads the first column of the first row as a count. No row is
// false.
func isTruthy(rs *database.ResultSet) (bool, error) {
	v, ok := rs.First()
	if !ok || v == nil {
		return false, nil
	}
	if b, isBytes := v.([]byte); isBytes {
		v = string(b)
	}
	if s, isString := v.(string); isString {
		v = strings.TrimSpace(s)
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return false, common.NewQueryError(err, "pre query must return a count")
	}
	return n > 0, nil
}
