package oracle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/model"
	go_ora "github.com/sijms/go-ora/v2"
)

const (
	DefaultPort = 1521
	// largest VARCHAR2 a PL/SQL output bind can carry
	MaxOutText = 32767
)

var markerPattern = regexp.MustCompile(`(?:^|[^:\w]):([A-Za-z_]\w*)`)

type Dialect struct{}

func init() {
	database.Register(Dialect{})
}

func (Dialect) Kind() string { return model.KindOracle }
func (Dialect) DriverName() string { return "oracle" }

// DSN locates the database by service name, or by SID when no service name
// is given. Exactly one of them must be set.
func (Dialect) DSN(conn *model.Connection, password string) (string, error) {
	service := strings.TrimSpace(conn.ServiceName)
	sid := strings.TrimSpace(conn.Sid)
	if (service == "") == (sid == "") {
		return "", common.NewConfigError("connection %s: exactly one of service_name and sid is required for oracle", conn.Slug)
	}
	options := map[string]string{}
	if sid != "" {
		options["SID"] = sid
	}
	return go_ora.BuildUrl(conn.Host, port(conn), service, conn.Username, password, options), nil
}

func (Dialect) MaskedDSN(conn *model.Connection) string {
	if conn.ServiceName != "" {
		return fmt.Sprintf("oracle://%s:******@%s:%d/%s", conn.Username, conn.Host, port(conn), conn.ServiceName)
	}
	return fmt.Sprintf("oracle://%s:******@%s:%d?SID=%s", conn.Username, conn.Host, port(conn), conn.Sid)
}

func port(conn *model.Connection) int {
	if conn.Port == 0 {
		return DefaultPort
	}
	return conn.Port
}

func (Dialect) BindStyle() database.BindStyle { return database.BindNamed }

func (Dialect) Placeholder(name string, ordinal int) string {
	return ":" + name
}

func (Dialect) MarkerPattern() *regexp.Regexp { return markerPattern }

func (Dialect) OutParam(kind database.OutKind) (interface{}, func() interface{}, bool) {
	if kind == database.OutNumber {
		var n int64
		return go_ora.Out{Dest: &n}, func() interface{} { return n }, true
	}
	var s string
	return go_ora.Out{Dest: &s, Size: MaxOutText}, func() interface{} { return s }, true
}

func (Dialect) Paginate(base string, limit, offset int) string {
	return database.RowNumWindow(base, limit, offset)
}

func (Dialect) SequenceNext(sequence string) (string, error) {
	if !common.ValidIdentifier(sequence) {
		return "", common.NewValidationError("invalid sequence name %q", sequence)
	}
	return fmt.Sprintf("SELECT %s.NEXTVAL FROM DUAL", sequence), nil
}
