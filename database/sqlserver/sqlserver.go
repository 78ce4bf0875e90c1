package sqlserver

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/model"
	_ "github.com/microsoft/go-mssqldb"
)

const DefaultPort = 1433

var markerPattern = regexp.MustCompile(`(?:^|[^@\w])@([A-Za-z_]\w*)`)

type Dialect struct{}

func init() {
	database.Register(Dialect{})
}

func (Dialect) Kind() string { return model.KindSQLServer }
func (Dialect) DriverName() string { return "sqlserver" }

func (Dialect) DSN(conn *model.Connection, password string) (string, error) {
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(conn.Username, password),
		Host:   address(conn),
	}
	if conn.Database != "" {
		u.RawQuery = url.Values{"database": {conn.Database}}.Encode()
	}
	return u.String(), nil
}

func (Dialect) MaskedDSN(conn *model.Connection) string {
	return fmt.Sprintf("sqlserver://%s:******@%s?database=%s", conn.Username, address(conn), conn.Database)
}

func address(conn *model.Connection) string {
	port := conn.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(conn.Host, strconv.Itoa(port))
}

func (Dialect) BindStyle() database.BindStyle { return database.BindNamed }

func (Dialect) Placeholder(name string, ordinal int) string {
	return "@" + name
}

func (Dialect) MarkerPattern() *regexp.Regexp { return markerPattern }

func (Dialect) OutParam(kind database.OutKind) (interface{}, func() interface{}, bool) {
	if kind == database.OutNumber {
		var n int64
		return sql.Out{Dest: &n}, func() interface{} { return n }, true
	}
	var s string
	return sql.Out{Dest: &s}, func() interface{} { return s }, true
}

func (Dialect) Paginate(base string, limit, offset int) string {
	return database.OffsetFetch(base, limit, offset)
}

func (Dialect) SequenceNext(sequence string) (string, error) {
	return "", common.NewUnsupportedKindError("sequences are not supported on %s", model.KindSQLServer)
}
