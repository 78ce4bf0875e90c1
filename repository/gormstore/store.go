package gormstore

import (
	"strings"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/repository"
	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"moul.io/zapgorm2"
)

type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// DefaultPool fills the zero fields of a pool passed to Open.
var DefaultPool = PoolConfig{
	MaxIdleConns:    10,
	MaxOpenConns:    100,
	ConnMaxLifetime: 3600,
	ConnMaxIdleTime: 10,
}

// Store implements the control plane on top of gorm. The mysql, postgres
// and dm8 policies only differ in how they open the database.
type Store struct {
	Client *gorm.DB
	inTx   bool
}

// Open connects through dialector with zap logging and the given pool.
func Open(dialector gorm.Dialector, pool PoolConfig, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{}
	}
	if err := mergo.Merge(&pool, DefaultPool); err != nil {
		return nil, errors.Wrap(err, "")
	}
	logger := zapgorm2.New(log.ZapLog)
	logger.SetAsDefault()
	gcfg.Logger = logger
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	// set connection pool
	if sqlDB != nil {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
		sqlDB.SetConnMaxIdleTime(time.Second * time.Duration(pool.ConnMaxIdleTime))
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Second * time.Duration(pool.ConnMaxLifetime))
	}
	return db, nil
}

func (s *Store) Attach(db *gorm.DB) {
	s.Client = db
}

func (s *Store) Migrate(db *gorm.DB) error {
	return errors.Wrap(db.AutoMigrate(Tables()...), "")
}

// Transaction hands fn a store bound to a fresh database transaction, the
// shared Client is never swapped.
func (s *Store) Transaction(fn func(tx repository.Repository) error) error {
	return s.atomic(func(tx *Store) error {
		return fn(tx)
	})
}

// atomic runs fn inside the current transaction, or a new one.
func (s *Store) atomic(fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return wrapError(s.Client.Transaction(func(db *gorm.DB) error {
		return fn(&Store{Client: db, inTx: true})
	}))
}

func (s *Store) GetAllConnections() ([]model.Connection, error) {
	var tables []TblConnection
	tx := s.Client.Order("id").Find(&tables)
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(tx.Error, "")
	}
	conns := make([]model.Connection, 0, len(tables))
	for _, table := range tables {
		conns = append(conns, table.toModel())
	}
	return conns, nil
}

func (s *Store) GetConnectionBySlug(slug string) (model.Connection, error) {
	var table TblConnection
	tx := s.Client.Where("slug = ?", strings.ToLower(slug)).First(&table)
	if tx.Error != nil {
		return model.Connection{}, wrapError(tx.Error)
	}
	return table.toModel(), nil
}

func (s *Store) CreateConnection(conn *model.Connection) error {
	if _, err := s.GetConnectionBySlug(conn.Slug); err == nil {
		//means already exists
		return repository.ErrRecordExists
	}
	table := fromConnection(*conn)
	table.ID = 0
	if tx := s.Client.Create(&table); tx.Error != nil {
		return wrapError(tx.Error)
	}
	*conn = table.toModel()
	return nil
}

func (s *Store) UpdateConnection(conn model.Connection) error {
	old, err := s.GetConnectionBySlug(conn.Slug)
	if err != nil {
		return err
	}
	table := fromConnection(conn)
	tx := s.Client.Model(&TblConnection{ID: old.ID}).
		Select("name", "kind", "host", "port", "username", "password", "database_name", "service_name", "sid").
		Updates(&table)
	return wrapError(tx.Error)
}

func (s *Store) GetAllRoutes() ([]model.Route, error) {
	var tables []TblRoute
	tx := s.Client.Order("id").Find(&tables)
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(tx.Error, "")
	}
	routes := make([]model.Route, 0, len(tables))
	for _, table := range tables {
		route := table.toModel()
		if err := s.loadRelations(&route); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func (s *Store) GetRouteBySlug(slug string) (model.Route, error) {
	var table TblRoute
	tx := s.Client.Where("slug = ?", strings.ToLower(slug)).First(&table)
	if tx.Error != nil {
		return model.Route{}, wrapError(tx.Error)
	}
	route := table.toModel()
	if err := s.loadRelations(&route); err != nil {
		return model.Route{}, err
	}
	return route, nil
}

func (s *Store) loadRelations(route *model.Route) error {
	var links []TblRouteConnection
	tx := s.Client.Where("route_id = ?", route.ID).Order("position").Find(&links)
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		return errors.Wrap(tx.Error, "")
	}
	route.Connections = nil
	for _, link := range links {
		route.Connections = append(route.Connections, link.Slug)
	}

	var params []TblRouteParameter
	tx = s.Client.Where("route_id = ?", route.ID).Order("position").Find(&params)
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		return errors.Wrap(tx.Error, "")
	}
	route.Parameters = nil
	for _, p := range params {
		route.Parameters = append(route.Parameters, model.RouteParameter{
			RouteID: p.RouteID,
			Name:    p.Name,
			Type:    p.Type,
			Value:   p.Value,
		})
	}
	return nil
}

func (s *Store) CreateRoute(route *model.Route) error {
	if _, err := s.GetRouteBySlug(route.Slug); err == nil {
		//means already exists
		return repository.ErrRecordExists
	}
	return s.atomic(func(tx *Store) error {
		table := fromRoute(*route)
		table.ID = 0
		if res := tx.Client.Create(&table); res.Error != nil {
			return res.Error
		}
		route.ID, route.Slug, route.CreatedAt = table.ID, table.Slug, table.CreatedAt
		if len(route.Connections) > 0 {
			if err := tx.replaceConnections(table, route.Connections); err != nil {
				return err
			}
			route.Connections = repository.DistinctSlugs(route.Connections)
		}
		if len(route.Parameters) > 0 {
			if err := tx.replaceParameters(table, route.Parameters); err != nil {
				return err
			}
			for i := range route.Parameters {
				route.Parameters[i].RouteID = table.ID
			}
		}
		return nil
	})
}

func (s *Store) UpdateRoute(route model.Route) error {
	var old TblRoute
	if tx := s.Client.Where("slug = ?", strings.ToLower(route.Slug)).First(&old); tx.Error != nil {
		return wrapError(tx.Error)
	}
	table := fromRoute(route)
	table.UpdatedAt = time.Now()
	tx := s.Client.Model(&TblRoute{ID: old.ID}).
		Select("name", "system_name", "query", "pre_query", "query_true", "query_false", "post_query",
			"is_pre_processed", "is_post_processed", "updated_at").
		Updates(&table)
	return wrapError(tx.Error)
}

func (s *Store) SetRouteConnections(slug string, connections []string) error {
	var route TblRoute
	if tx := s.Client.Where("slug = ?", strings.ToLower(slug)).First(&route); tx.Error != nil {
		return wrapError(tx.Error)
	}
	return s.atomic(func(tx *Store) error {
		return tx.replaceConnections(route, connections)
	})
}

func (s *Store) replaceConnections(route TblRoute, connections []string) error {
	var links []TblRouteConnection
	for i, c := range repository.DistinctSlugs(connections) {
		conn, err := s.GetConnectionBySlug(c)
		if err != nil {
			return common.NewNotFoundError("connection %s not found", c)
		}
		links = append(links, TblRouteConnection{RouteID: route.ID, ConnectionID: conn.ID, Slug: conn.Slug, Position: i})
	}
	if tx := s.Client.Where("route_id = ?", route.ID).Delete(&TblRouteConnection{}); tx.Error != nil {
		return tx.Error
	}
	if len(links) == 0 {
		return nil
	}
	return s.Client.Create(&links).Error
}

func (s *Store) SetRouteParameters(slug string, params []model.RouteParameter) error {
	var route TblRoute
	if tx := s.Client.Where("slug = ?", strings.ToLower(slug)).First(&route); tx.Error != nil {
		return wrapError(tx.Error)
	}
	return s.atomic(func(tx *Store) error {
		return tx.replaceParameters(route, params)
	})
}

func (s *Store) replaceParameters(route TblRoute, params []model.RouteParameter) error {
	if tx := s.Client.Where("route_id = ?", route.ID).Delete(&TblRouteParameter{}); tx.Error != nil {
		return tx.Error
	}
	if len(params) == 0 {
		return nil
	}
	tables := make([]TblRouteParameter, 0, len(params))
	for i, p := range params {
		tables = append(tables, TblRouteParameter{RouteID: route.ID, Name: p.Name, Type: p.Type, Value: p.Value, Position: i})
	}
	return s.Client.Create(&tables).Error
}

func (s *Store) GetAllJobs() ([]model.IntegrationJob, error) {
	var tables []TblJob
	tx := s.Client.Order("id").Find(&tables)
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(tx.Error, "")
	}
	jobs := make([]model.IntegrationJob, 0, len(tables))
	for _, table := range tables {
		jobs = append(jobs, table.toModel())
	}
	return jobs, nil
}

func (s *Store) GetJobByID(id int64) (model.IntegrationJob, error) {
	var table TblJob
	tx := s.Client.Where("id = ?", id).First(&table)
	if tx.Error != nil {
		return model.IntegrationJob{}, wrapError(tx.Error)
	}
	return table.toModel(), nil
}

func (s *Store) CreateJob(job *model.IntegrationJob) error {
	table := fromJob(*job)
	table.ID = 0
	if tx := s.Client.Create(&table); tx.Error != nil {
		return wrapError(tx.Error)
	}
	job.ID = table.ID
	return nil
}

func (s *Store) UpdateJob(job model.IntegrationJob) error {
	if _, err := s.GetJobByID(job.ID); err != nil {
		return err
	}
	table := fromJob(job)
	tx := s.Client.Model(&TblJob{ID: job.ID}).
		Select("name", "source", "source_query", "destination", "destination_table", "columns",
			"interval_seconds", "batch_size", "enabled", "last_run", "last_error").
		Updates(&table)
	return wrapError(tx.Error)
}

func (s *Store) CreateExecutionLog(entry model.ExecutionLog) error {
	table := TblExecutionLog{
		ID:         entry.ID,
		Route:      entry.Route,
		Connection: entry.Connection,
		Status:     entry.Status,
		Message:    entry.Message,
		DurationMs: entry.DurationMs,
		CreatedAt:  entry.CreatedAt,
	}
	return wrapError(s.Client.Create(&table).Error)
}

func (s *Store) GetExecutionLogs(route string, limit int) ([]model.ExecutionLog, error) {
	var tables []TblExecutionLog
	tx := s.Client.Where("route = ?", route).Order("created_at DESC").Limit(repository.HistoryLimit(limit)).Find(&tables)
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(tx.Error, "")
	}
	logs := make([]model.ExecutionLog, 0, len(tables))
	for _, table := range tables {
		logs = append(logs, table.toModel())
	}
	return logs, nil
}

func (s *Store) PurgeExecutionLogs(before time.Time) (int64, error) {
	tx := s.Client.Where("created_at < ?", before).Delete(&TblExecutionLog{})
	return tx.RowsAffected, wrapError(tx.Error)
}

func wrapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = repository.ErrRecordNotFound
	}
	return err
}
