package repository

import (
	"fmt"
	"strings"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/model"
)

var (
	ErrRecordNotFound = common.NewNotFoundError("record not found")
	ErrRecordExists   = fmt.Errorf("record is exists already")
)

const DefaultHistoryLimit = 100

func HistoryLimit(limit int) int {
	if limit <= 0 || limit > DefaultHistoryLimit*10 {
		return DefaultHistoryLimit
	}
	return limit
}

// ResolveConnections maps the attached slugs of a route to their stored
// descriptors, in route order. A dangling slug is a NotFoundError.
func ResolveConnections(ps Repository, route model.Route) ([]*model.Connection, error) {
	conns := make([]*model.Connection, 0, len(route.Connections))
	for _, slug := range route.Connections {
		conn, err := ps.GetConnectionBySlug(slug)
		if err != nil {
			return nil, common.NewNotFoundError("connection %s of route %s: %v", slug, route.Slug, err)
		}
		conns = append(conns, &conn)
	}
	return conns, nil
}

// DistinctSlugs lower cases slugs and drops repeats, keeping the first
// position of each.
func DistinctSlugs(slugs []string) []string {
	lowered := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(slug)))
	}
	return common.ArrayDistinct(lowered)
}
