package local

import (
	"sort"
	"strings"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/repository"
)

// localTx works on the data of lp without locking, the caller holds the lock.
type localTx struct {
	lp *LocalPersistent
}

func (t *localTx) data() *PersistentData {
	return &t.lp.Data
}

func (t *localTx) GetAllConnections() ([]model.Connection, error) {
	conns := make([]model.Connection, 0, len(t.data().Connections))
	for _, conn := range t.data().Connections {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	return conns, nil
}

func (t *localTx) GetConnectionBySlug(slug string) (model.Connection, error) {
	conn, ok := t.data().Connections[strings.ToLower(slug)]
	if !ok {
		return model.Connection{}, repository.ErrRecordNotFound
	}
	return conn, nil
}

func (t *localTx) CreateConnection(conn *model.Connection) error {
	conn.Slug = strings.ToLower(conn.Slug)
	if _, ok := t.data().Connections[conn.Slug]; ok {
		return repository.ErrRecordExists
	}
	conn.ID = t.data().nextID()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now()
	}
	t.data().Connections[conn.Slug] = *conn
	return t.lp.save()
}

func (t *localTx) UpdateConnection(conn model.Connection) error {
	conn.Slug = strings.ToLower(conn.Slug)
	old, ok := t.data().Connections[conn.Slug]
	if !ok {
		return repository.ErrRecordNotFound
	}
	conn.ID, conn.CreatedAt = old.ID, old.CreatedAt
	t.data().Connections[conn.Slug] = conn
	return t.lp.save()
}

func (t *localTx) GetAllRoutes() ([]model.Route, error) {
	routes := make([]model.Route, 0, len(t.data().Routes))
	for _, route := range t.data().Routes {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes, nil
}

func (t *localTx) GetRouteBySlug(slug string) (model.Route, error) {
	route, ok := t.data().Routes[strings.ToLower(slug)]
	if !ok {
		return model.Route{}, repository.ErrRecordNotFound
	}
	return route, nil
}

func (t *localTx) CreateRoute(route *model.Route) error {
	route.Slug = strings.ToLower(route.Slug)
	if _, ok := t.data().Routes[route.Slug]; ok {
		return repository.ErrRecordExists
	}
	connections, params := route.Connections, route.Parameters
	route.ID = t.data().nextID()
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now()
	}
	stored := *route
	stored.Connections, stored.Parameters = nil, nil
	t.data().Routes[route.Slug] = stored
	if len(connections) > 0 {
		if err := t.SetRouteConnections(route.Slug, connections); err != nil {
			return err
		}
	}
	if len(params) > 0 {
		if err := t.SetRouteParameters(route.Slug, params); err != nil {
			return err
		}
	}
	*route = t.data().Routes[route.Slug]
	return t.lp.save()
}

// UpdateRoute rewrites the queries and flags of a route, its attached
// connections and parameters are kept.
func (t *localTx) UpdateRoute(route model.Route) error {
	route.Slug = strings.ToLower(route.Slug)
	old, ok := t.data().Routes[route.Slug]
	if !ok {
		return repository.ErrRecordNotFound
	}
	route.ID, route.CreatedAt = old.ID, old.CreatedAt
	route.Connections, route.Parameters = old.Connections, old.Parameters
	t.data().Routes[route.Slug] = route
	return t.lp.save()
}

func (t *localTx) SetRouteConnections(slug string, connections []string) error {
	route, ok := t.data().Routes[strings.ToLower(slug)]
	if !ok {
		return repository.ErrRecordNotFound
	}
	attached := repository.DistinctSlugs(connections)
	for _, c := range attached {
		if _, ok := t.data().Connections[c]; !ok {
			return common.NewNotFoundError("connection %s not found", c)
		}
	}
	route.Connections = attached
	t.data().Routes[route.Slug] = route
	return t.lp.save()
}

func (t *localTx) SetRouteParameters(slug string, params []model.RouteParameter) error {
	route, ok := t.data().Routes[strings.ToLower(slug)]
	if !ok {
		return repository.ErrRecordNotFound
	}
	route.Parameters = make([]model.RouteParameter, len(params))
	for i, p := range params {
		p.RouteID = route.ID
		route.Parameters[i] = p
	}
	t.data().Routes[route.Slug] = route
	return t.lp.save()
}

func (t *localTx) GetAllJobs() ([]model.IntegrationJob, error) {
	jobs := make([]model.IntegrationJob, 0, len(t.data().Jobs))
	for _, job := range t.data().Jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs, nil
}

func (t *localTx) GetJobByID(id int64) (model.IntegrationJob, error) {
	job, ok := t.data().Jobs[id]
	if !ok {
		return model.IntegrationJob{}, repository.ErrRecordNotFound
	}
	return job, nil
}

func (t *localTx) CreateJob(job *model.IntegrationJob) error {
	job.ID = t.data().nextID()
	t.data().Jobs[job.ID] = *job
	return t.lp.save()
}

func (t *localTx) UpdateJob(job model.IntegrationJob) error {
	if _, ok := t.data().Jobs[job.ID]; !ok {
		return repository.ErrRecordNotFound
	}
	t.data().Jobs[job.ID] = job
	return t.lp.save()
}

func (t *localTx) CreateExecutionLog(entry model.ExecutionLog) error {
	d := t.data()
	d.Logs = append(d.Logs, entry)
	if over := len(d.Logs) - t.lp.Config.HistoryCapacity; over > 0 {
		d.Logs = append([]model.ExecutionLog(nil), d.Logs[over:]...)
	}
	return t.lp.save()
}

func (t *localTx) GetExecutionLogs(route string, limit int) ([]model.ExecutionLog, error) {
	limit = repository.HistoryLimit(limit)
	var logs []model.ExecutionLog
	d := t.data()
	for i := len(d.Logs) - 1; i >= 0 && len(logs) < limit; i-- {
		if d.Logs[i].Route == route {
			logs = append(logs, d.Logs[i])
		}
	}
	return logs, nil
}

func (t *localTx) PurgeExecutionLogs(before time.Time) (int64, error) {
	d := t.data()
	kept := d.Logs[:0]
	for _, entry := range d.Logs {
		if !entry.CreatedAt.Before(before) {
			kept = append(kept, entry)
		}
	}
	purged := int64(len(d.Logs) - len(kept))
	d.Logs = kept
	if purged == 0 {
		return 0, nil
	}
	return purged, t.lp.save()
}
