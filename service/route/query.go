package route

import (
	"context"

	"github.com/dbroute/dbroute/binder"
	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/service/metrics"
)

// QueryPage runs the resolved query of rt as a read on one connection and
// returns a single page of rows. Nothing is committed.
func (e *Executor) QueryPage(ctx context.Context, rt *model.Route, desc *model.Connection, values map[string]interface{}, limit, offset int) (*model.PagedRows, error) {
	if !common.ArraySearchFold(desc.Slug, rt.Connections) {
		return nil, common.NewNotFoundError("connection %s is not attached to route %s", desc.Slug, rt.Slug)
	}
	if values == nil {
		values = map[string]interface{}{}
	}

	target, conn, err := e.open(ctx, desc)
	if err != nil {
		return nil, err
	}
	defer closeConn(desc.Slug, conn)

	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}

	res, err := Resolve(ctx, rt, conn, target.Dialect, values)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, common.NewValidationError("route %s has no query to run on %s", rt.Slug, desc.Slug)
	}
	query := res.Query
	if res.Legacy() {
		if query, err = binder.ApplyFragments(query, rt.Parameters, values); err != nil {
			return nil, err
		}
	}

	stmt, args, _ := binder.Prepare(database.TrimStatement(query), values, target.Dialect)
	paged, err := database.Paginate(stmt.SQL, target.Dialect, limit, offset)
	if err != nil {
		return nil, err
	}
	rs, err := conn.Query(ctx, paged, args...)
	status := model.OutcomeSuccess
	if err != nil {
		status = model.OutcomeError
	}
	metrics.Executions.WithLabelValues(rt.Slug, desc.Slug, status).Inc()
	if err != nil {
		return nil, err
	}
	return &model.PagedRows{
		Connection: desc.Slug,
		Limit:      limit,
		Offset:     offset,
		Columns:    rs.Columns,
		Rows:       rs.Rows,
	}, nil
}
