package mysql

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/model"
	driver "github.com/go-sql-driver/mysql"
)

const DefaultPort = 3306

type Dialect struct{}

func init() {
	database.Register(Dialect{})
}

func (Dialect) Kind() string { return model.KindMySQL }
func (Dialect) DriverName() string { return "mysql" }

func (Dialect) DSN(conn *model.Connection, password string) (string, error) {
	if strings.TrimSpace(conn.Database) == "" {
		return "", common.NewConfigError("connection %s: database is required for mysql", conn.Slug)
	}
	cfg := driver.NewConfig()
	cfg.User = conn.Username
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = address(conn)
	cfg.DBName = conn.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	return cfg.FormatDSN(), nil
}

func (Dialect) MaskedDSN(conn *model.Connection) string {
	return fmt.Sprintf("%s:******@tcp(%s)/%s", conn.Username, address(conn), conn.Database)
}

func address(conn *model.Connection) string {
	port := conn.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(conn.Host, strconv.Itoa(port))
}

func (Dialect) BindStyle() database.BindStyle { return database.BindPositional }
func (Dialect) Placeholder(name string, ordinal int) string { return "?" }
func (Dialect) MarkerPattern() *regexp.Regexp { return nil }

func (Dialect) OutParam(kind database.OutKind) (interface{}, func() interface{}, bool) {
	return nil, nil, false
}

func (Dialect) Paginate(base string, limit, offset int) string {
	return database.LimitOffset(base, limit, offset)
}

func (Dialect) SequenceNext(sequence string) (string, error) {
	return "", common.NewUnsupportedKindError("sequences are not supported on %s", model.KindMySQL)
}
