package route

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	go_ora "github.com/sijms/go-ora/v2"
)

type fakeConn struct {
	sync.Mutex
	slug      string
	results   map[string]*database.ResultSet
	execErr   error
	execPanic bool
	outID     int64

	queries   []string
	execs     []string
	committed bool
	closed    bool
}

func (c *fakeConn) Query(ctx context.Context, query string, args ...interface{}) (*database.ResultSet, error) {
	c.Lock()
	defer c.Unlock()
	c.queries = append(c.queries, query)
	for fragment, rs := range c.results {
		if strings.Contains(query, fragment) {
			return rs, nil
		}
	}
	return &database.ResultSet{}, nil
}

func (c *fakeConn) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	c.Lock()
	defer c.Unlock()
	if c.execPanic {
		panic("driver exploded")
	}
	c.execs = append(c.execs, query)
	if c.execErr != nil {
		return 0, common.NewQueryError(c.execErr, "")
	}
	for _, arg := range args {
		named, ok := arg.(sql.NamedArg)
		if !ok {
			continue
		}
		if out, ok := named.Value.(go_ora.Out); ok {
			if n, ok := out.Dest.(*int64); ok {
				*n = c.outID
			}
		}
	}
	return 1, nil
}

func (c *fakeConn) Commit() error {
	c.Lock()
	defer c.Unlock()
	c.committed = true
	return nil
}

func (c *fakeConn) Rollback() error {
	return nil
}

func (c *fakeConn) Close() error {
	c.Lock()
	defer c.Unlock()
	c.closed = true
	return nil
}

type fakeOpener struct {
	sync.Mutex
	conns     map[string]*fakeConn
	failures  map[string]error
	opened    []string
	passwords map[string]string
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		conns:     make(map[string]*fakeConn),
		failures:  make(map[string]error),
		passwords: make(map[string]string),
	}
}

func (o *fakeOpener) conn(slug string) *fakeConn {
	o.Lock()
	defer o.Unlock()
	c, ok := o.conns[slug]
	if !ok {
		c = &fakeConn{slug: slug, results: map[string]*database.ResultSet{}}
		o.conns[slug] = c
	}
	return c
}

func (o *fakeOpener) Open(ctx context.Context, target database.Target, password string) (database.Conn, error) {
	slug := target.Slug()
	c := o.conn(slug)
	o.Lock()
	defer o.Unlock()
	o.opened = append(o.opened, slug)
	o.passwords[slug] = password
	if err, ok := o.failures[slug]; ok {
		return nil, err
	}
	return c, nil
}

func (o *fakeOpener) wasOpened(slug string) bool {
	o.Lock()
	defer o.Unlock()
	return common.ArraySearchFold(slug, o.opened)
}

func count(n int64) *database.ResultSet {
	return &database.ResultSet{Columns: []string{"CNT"}, Rows: [][]interface{}{{n}}}
}
