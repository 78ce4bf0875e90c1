package gormstore

import (
	"strings"
	"time"

	"github.com/dbroute/dbroute/model"
)

type TblConnection struct {
	ID          int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Slug        string `gorm:"size:128;uniqueIndex:idx_connection_slug;column:slug"`
	Name        string `gorm:"size:255;column:name"`
	Kind        string `gorm:"size:32;column:kind"`
	Host        string `gorm:"size:255;column:host"`
	Port        int    `gorm:"column:port"`
	Username    string `gorm:"size:128;column:username"`
	Password    string `gorm:"size:1024;column:password"`
	Database    string `gorm:"size:128;column:database_name"`
	ServiceName string `gorm:"size:128;column:service_name"`
	Sid         string `gorm:"size:64;column:sid"`
	CreatedAt   time.Time
}

func (v TblConnection) TableName() string {
	return TBL_CONNECTION
}

func (v TblConnection) toModel() model.Connection {
	return model.Connection{
		ID:          v.ID,
		Name:        v.Name,
		Slug:        v.Slug,
		Kind:        v.Kind,
		Host:        v.Host,
		Port:        v.Port,
		Username:    v.Username,
		Password:    v.Password,
		Database:    v.Database,
		ServiceName: v.ServiceName,
		Sid:         v.Sid,
		CreatedAt:   v.CreatedAt,
	}
}

func fromConnection(c model.Connection) TblConnection {
	return TblConnection{
		ID:          c.ID,
		Slug:        strings.ToLower(c.Slug),
		Name:        c.Name,
		Kind:        c.Kind,
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.Username,
		Password:    c.Password,
		Database:    c.Database,
		ServiceName: c.ServiceName,
		Sid:         c.Sid,
		CreatedAt:   c.CreatedAt,
	}
}

type TblRoute struct {
	ID              int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Slug            string `gorm:"size:255;uniqueIndex:idx_route_slug;column:slug"`
	Name            string `gorm:"size:255;column:name"`
	System          string `gorm:"size:128;column:system_name"`
	Query           string `gorm:"type:text;column:query"`
	PreQuery        string `gorm:"type:text;column:pre_query"`
	QueryTrue       string `gorm:"type:text;column:query_true"`
	QueryFalse      string `gorm:"type:text;column:query_false"`
	PostQuery       string `gorm:"type:text;column:post_query"`
	IsPreProcessed  bool   `gorm:"column:is_pre_processed"`
	IsPostProcessed bool   `gorm:"column:is_post_processed"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (v TblRoute) TableName() string {
	return TBL_ROUTE
}

func (v TblRoute) toModel() model.Route {
	return model.Route{
		ID:              v.ID,
		Name:            v.Name,
		Slug:            v.Slug,
		System:          v.System,
		Query:           v.Query,
		PreQuery:        v.PreQuery,
		QueryTrue:       v.QueryTrue,
		QueryFalse:      v.QueryFalse,
		PostQuery:       v.PostQuery,
		IsPreProcessed:  v.IsPreProcessed,
		IsPostProcessed: v.IsPostProcessed,
		CreatedAt:       v.CreatedAt,
	}
}

func fromRoute(r model.Route) TblRoute {
	return TblRoute{
		ID:              r.ID,
		Slug:            strings.ToLower(r.Slug),
		Name:            r.Name,
		System:          r.System,
		Query:           r.Query,
		PreQuery:        r.PreQuery,
		QueryTrue:       r.QueryTrue,
		QueryFalse:      r.QueryFalse,
		PostQuery:       r.PostQuery,
		IsPreProcessed:  r.IsPreProcessed,
		IsPostProcessed: r.IsPostProcessed,
		CreatedAt:       r.CreatedAt,
	}
}

// TblRouteConnection keeps the connection slug next to its id, slugs never
// change once a connection exists.
type TblRouteConnection struct {
	RouteID      int64  `gorm:"primaryKey;autoIncrement:false;column:route_id"`
	ConnectionID int64  `gorm:"primaryKey;autoIncrement:false;column:connection_id"`
	Slug         string `gorm:"size:128;column:slug"`
	Position     int    `gorm:"column:position"`
}

func (v TblRouteConnection) TableName() string {
	return TBL_ROUTE_CONNECTION
}

type TblRouteParameter struct {
	ID       int64  `gorm:"primaryKey;autoIncrement;column:id"`
	RouteID  int64  `gorm:"index:idx_parameter_route;column:route_id"`
	Name     string `gorm:"size:128;column:name"`
	Type     string `gorm:"size:32;column:type"`
	Value    string `gorm:"size:1024;column:value"`
	Position int    `gorm:"column:position"`
}

func (v TblRouteParameter) TableName() string {
	return TBL_ROUTE_PARAMETER
}

type TblJob struct {
	ID               int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Name             string `gorm:"size:255;column:name"`
	Source           string `gorm:"size:128;column:source"`
	SourceQuery      string `gorm:"type:text;column:source_query"`
	Destination      string `gorm:"size:128;column:destination"`
	DestinationTable string `gorm:"size:255;column:destination_table"`
	Columns          string `gorm:"size:4096;column:columns"`
	IntervalSeconds  int    `gorm:"column:interval_seconds"`
	BatchSize        int    `gorm:"column:batch_size"`
	Enabled          bool   `gorm:"column:enabled"`
	LastRun          time.Time
	LastError        string `gorm:"type:text;column:last_error"`
}

func (v TblJob) TableName() string {
	return TBL_JOB
}

func (v TblJob) toModel() model.IntegrationJob {
	var columns []string
	if v.Columns != "" {
		columns = strings.Split(v.Columns, ",")
	}
	return model.IntegrationJob{
		ID:               v.ID,
		Name:             v.Name,
		Source:           v.Source,
		SourceQuery:      v.SourceQuery,
		Destination:      v.Destination,
		DestinationTable: v.DestinationTable,
		Columns:          columns,
		IntervalSeconds:  v.IntervalSeconds,
		BatchSize:        v.BatchSize,
		Enabled:          v.Enabled,
		LastRun:          v.LastRun,
		LastError:        v.LastError,
	}
}

func fromJob(j model.IntegrationJob) TblJob {
	return TblJob{
		ID:               j.ID,
		Name:             j.Name,
		Source:           strings.ToLower(j.Source),
		SourceQuery:      j.SourceQuery,
		Destination:      strings.ToLower(j.Destination),
		DestinationTable: j.DestinationTable,
		Columns:          strings.Join(j.Columns, ","),
		IntervalSeconds:  j.IntervalSeconds,
		BatchSize:        j.BatchSize,
		Enabled:          j.Enabled,
		LastRun:          j.LastRun,
		LastError:        j.LastError,
	}
}

type TblExecutionLog struct {
	ID         string    `gorm:"primaryKey;size:36;column:id"`
	Route      string    `gorm:"size:255;index:idx_log_route;column:route"`
	Connection string    `gorm:"size:128;column:connection"`
	Status     string    `gorm:"size:16;column:status"`
	Message    string    `gorm:"type:text;column:message"`
	DurationMs int64     `gorm:"column:duration_ms"`
	CreatedAt  time.Time `gorm:"index:idx_log_created;column:created_at"`
}

func (v TblExecutionLog) TableName() string {
	return TBL_EXECUTION_LOG
}

func (v TblExecutionLog) toModel() model.ExecutionLog {
	return model.ExecutionLog{
		ID:         v.ID,
		Route:      v.Route,
		Connection: v.Connection,
		Status:     v.Status,
		Message:    v.Message,
		DurationMs: v.DurationMs,
		CreatedAt:  v.CreatedAt,
	}
}

// Tables lists every table AutoMigrate creates.
func Tables() []interface{} {
	return []interface{}{
		&TblConnection{},
		&TblRoute{},
		&TblRouteConnection{},
		&TblRouteParameter{},
		&TblJob{},
		&TblExecutionLog{},
	}
}
