package postgres

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/model"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const DefaultPort = 5432

type Dialect struct{}

func init() {
	database.Register(Dialect{})
}

func (Dialect) Kind() string { return model.KindPostgres }
func (Dialect) DriverName() string { return "pgx" }

func (Dialect) DSN(conn *model.Connection, password string) (string, error) {
	if strings.TrimSpace(conn.Database) == "" {
		return "", common.NewConfigError("connection %s: database is required for postgres", conn.Slug)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(conn.Username, password),
		Host:   address(conn),
		Path:   "/" + conn.Database,
	}
	return u.String(), nil
}

func (Dialect) MaskedDSN(conn *model.Connection) string {
	return fmt.Sprintf("postgres://%s:******@%s/%s", conn.Username, address(conn), conn.Database)
}

func address(conn *model.Connection) string {
	port := conn.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(conn.Host, strconv.Itoa(port))
}

func (Dialect) BindStyle() database.BindStyle { return database.BindOrdinal }

func (Dialect) Placeholder(name string, ordinal int) string {
	return "$" + strconv.Itoa(ordinal)
}

func (Dialect) MarkerPattern() *regexp.Regexp { return nil }

func (Dialect) OutParam(kind database.OutKind) (interface{}, func() interface{}, bool) {
	return nil, nil, false
}

func (Dialect) Paginate(base string, limit, offset int) string {
	return database.LimitOffset(base, limit, offset)
}

func (Dialect) SequenceNext(sequence string) (string, error) {
	return "", common.NewUnsupportedKindError("sequences are not supported on %s", model.KindPostgres)
}
