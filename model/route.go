package model

import (
	"strings"
	"time"
)

const (
	ParamInteger  string = "integer"
	ParamString   string = "string"
	ParamDate     string = "date"
	ParamDatetime string = "datetime"
)

type Route struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name" validate:"required"`
	Slug            string           `json:"slug"`
	System          string           `json:"system"`
	Query           string           `json:"query"`
	PreQuery        string           `json:"pre_query"`
	QueryTrue       string           `json:"query_true"`
	QueryFalse      string           `json:"query_false"`
	PostQuery       string           `json:"post_query"`
	IsPreProcessed  bool             `json:"is_pre_processed"`
	IsPostProcessed bool             `json:"is_post_processed"`
	Connections     []string         `json:"connections"`
	Parameters      []RouteParameter `json:"parameters"`
	CreatedAt       time.Time        `json:"created_at"`
}

type RouteConnection struct {
	RouteID      int64  `json:"route_id"`
	ConnectionID int64  `json:"connection_id"`
	Slug         string `json:"slug"`
}

type RouteParameter struct {
	RouteID int64  `json:"route_id"`
	Name    string `json:"name" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=integer string date datetime"`
	Value   string `json:"value"`
}

func nonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

func (r *Route) HasAnyQuery() bool {
	return nonEmpty(r.Query) || nonEmpty(r.PreQuery) || nonEmpty(r.QueryTrue) ||
		nonEmpty(r.QueryFalse) || nonEmpty(r.PostQuery)
}

// IsLegacy reports a route that only declares the single legacy query.
func (r *Route) IsLegacy() bool {
	return !nonEmpty(r.PreQuery) && !nonEmpty(r.QueryTrue) && !nonEmpty(r.QueryFalse)
}

func (r *Route) HasPreQuery() bool {
	return nonEmpty(r.PreQuery)
}

func (r *Route) HasPostQuery() bool {
	return nonEmpty(r.PostQuery)
}

// Check enforces the creation invariants of a route.
func (r *Route) Check() string {
	if !r.HasAnyQuery() {
		return "at least one of query, pre_query, query_true, query_false, post_query is required"
	}
	if r.IsPreProcessed && !nonEmpty(r.PreQuery) && !nonEmpty(r.QueryTrue) && !nonEmpty(r.QueryFalse) {
		return "a pre-processed route needs pre_query, query_true or query_false"
	}
	return ""
}

// RouteUpdateReq is a partial update, nil fields keep the stored value.
type RouteUpdateReq struct {
	Name            *string `json:"name"`
	System          *string `json:"system"`
	Query           *string `json:"query"`
	PreQuery        *string `json:"pre_query"`
	QueryTrue       *string `json:"query_true"`
	QueryFalse      *string `json:"query_false"`
	PostQuery       *string `json:"post_query"`
	IsPreProcessed  *bool   `json:"is_pre_processed"`
	IsPostProcessed *bool   `json:"is_post_processed"`
}

// Apply copies every non nil field of req onto r.
func (r *Route) Apply(req RouteUpdateReq) {
	if req.Name != nil {
		r.Name = *req.Name
	}
	if req.System != nil {
		r.System = *req.System
	}
	if req.Query != nil {
		r.Query = *req.Query
	}
	if req.PreQuery != nil {
		r.PreQuery = *req.PreQuery
	}
	if req.QueryTrue != nil {
		r.QueryTrue = *req.QueryTrue
	}
	if req.QueryFalse != nil {
		r.QueryFalse = *req.QueryFalse
	}
	if req.PostQuery != nil {
		r.PostQuery = *req.PostQuery
	}
	if req.IsPreProcessed != nil {
		r.IsPreProcessed = *req.IsPreProcessed
	}
	if req.IsPostProcessed != nil {
		r.IsPostProcessed = *req.IsPostProcessed
	}
}
