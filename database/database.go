package database

import (
	"regexp"
	"strings"
	"sync"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/model"
)

type BindStyle int

const (
	// BindNamed markers carry the variable name, e.g. :name or @name.
	BindNamed BindStyle = iota
	// BindOrdinal markers are numbered per distinct variable, e.g. $1.
	BindOrdinal
	// BindPositional markers are anonymous and bound per occurrence, e.g. ?.
	BindPositional
)

type OutKind int

const (
	OutNumber OutKind = iota
	OutText
)

// Dialect is everything that differs between target database kinds. One
// implementation per kind registers itself from its package init.
type Dialect interface {
	Kind() string
	DriverName() string
	// DSN validates the descriptor and builds the driver data source name.
	DSN(conn *model.Connection, password string) (string, error)
	// MaskedDSN is DSN with the credential hidden, for logging.
	MaskedDSN(conn *model.Connection) string

	BindStyle() BindStyle
	// Placeholder renders the bind marker of a variable, ordinal is 1 based.
	Placeholder(name string, ordinal int) string
	// MarkerPattern matches the bind markers of named dialects, group 1 is
	// the variable name. Nil for the other styles.
	MarkerPattern() *regexp.Regexp
	// OutParam allocates an output bind slot. ok is false when the dialect
	// has no output binds.
	OutParam(kind OutKind) (arg interface{}, read func() interface{}, ok bool)

	Paginate(base string, limit, offset int) string
	SequenceNext(sequence string) (string, error)
}

var (
	dialectsLock sync.RWMutex
	dialects     = make(map[string]Dialect)
)

func Register(d Dialect) {
	if d == nil {
		return
	}
	kind := strings.ToLower(d.Kind())
	if kind == "" {
		panic("Empty kind when register database dialect")
	}
	dialectsLock.Lock()
	defer dialectsLock.Unlock()
	dialects[kind] = d
}

func Lookup(kind string) (Dialect, error) {
	dialectsLock.RLock()
	defer dialectsLock.RUnlock()
	if d, ok := dialects[strings.ToLower(strings.TrimSpace(kind))]; ok {
		return d, nil
	}
	return nil, common.NewUnsupportedKindError("database kind %q is not supported", kind)
}

func Kinds() []string {
	dialectsLock.RLock()
	defer dialectsLock.RUnlock()
	kinds := make([]string, 0, len(dialects))
	for k := range dialects {
		kinds = append(kinds, k)
	}
	return kinds
}

// Target binds a connection descriptor to its dialect. The dialect is looked
// up once here and not re-dispatched afterwards.
type Target struct {
	Conn    *model.Connection
	Dialect Dialect
}

func (t Target) Slug() string {
	return t.Conn.Slug
}

func Resolve(conn *model.Connection) (Target, error) {
	d, err := Lookup(conn.Kind)
	if err != nil {
		return Target{Conn: conn}, err
	}
	return Target{Conn: conn, Dialect: d}, nil
}
