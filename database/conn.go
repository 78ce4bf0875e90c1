package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
)

type ResultSet struct {
	Columns []string
	Rows    [][]interface{}
}

// First returns the first column of the first row.
func (rs *ResultSet) First() (interface{}, bool) {
	if rs == nil || len(rs.Rows) == 0 || len(rs.Rows[0]) == 0 {
		return nil, false
	}
	return rs.Rows[0][0], true
}

// Conn is one live session on a target with an open transaction. It is
// owned by a single execution and must be closed on every path.
type Conn interface {
	Query(ctx context.Context, query string, args ...interface{}) (*ResultSet, error)
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)
	Commit() error
	Rollback() error
	// Close rolls back a transaction that was not committed.
	Close() error
}

type Opener interface {
	Open(ctx context.Context, target Target, password string) (Conn, error)
}

// Connect decrypts the credential of desc and opens a session on it. The
// plain credential does not outlive this call.
func Connect(ctx context.Context, opener Opener, vault *common.Vault, desc *model.Connection) (Target, Conn, error) {
	password, err := vault.Decrypt(desc.Password)
	if err != nil {
		return Target{Conn: desc}, nil, err
	}
	target, err := Resolve(desc)
	if err != nil {
		return target, nil, err
	}
	conn, err := opener.Open(ctx, target, password)
	if err != nil {
		return target, nil, err
	}
	return target, conn, nil
}

// SQLOpener opens fresh database/sql handles, nothing is pooled across calls.
type SQLOpener struct {
	ConnectTimeout time.Duration
}

func NewSQLOpener(connectTimeout time.Duration) *SQLOpener {
	return &SQLOpener{ConnectTimeout: connectTimeout}
}

func (o *SQLOpener) Open(ctx context.Context, target Target, password string) (Conn, error) {
	if target.Dialect == nil {
		return nil, common.NewUnsupportedKindError("database kind %q is not supported", target.Conn.Kind)
	}
	dsn, err := target.Dialect.DSN(target.Conn, password)
	if err != nil {
		return nil, err
	}
	log.Logger.Debugf("open %s connection %s: %s", target.Dialect.Kind(), target.Conn.Slug, target.Dialect.MaskedDSN(target.Conn))

	db, err := sql.Open(target.Dialect.DriverName(), dsn)
	if err != nil {
		return nil, common.NewConnectivityError(err, "open %s", target.Conn.Slug)
	}
	db.SetMaxOpenConns(1)

	pingCtx := ctx
	if o.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, o.ConnectTimeout)
		defer cancel()
	}
	if err = db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, common.NewConnectivityError(err, "connect %s", target.Conn.Slug)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		_ = db.Close()
		return nil, common.NewConnectivityError(err, "begin transaction on %s", target.Conn.Slug)
	}
	return &sqlConn{db: db, tx: tx}, nil
}

type sqlConn struct {
	db   *sql.DB
	tx   *sql.Tx
	done bool
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...interface{}) (*ResultSet, error) {
	rows, err := c.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.NewQueryError(err, "")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, common.NewQueryError(err, "")
	}
	rs := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, common.NewQueryError(err, "")
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err = rows.Err(); err != nil {
		return nil, common.NewQueryError(err, "")
	}
	return rs, nil
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := c.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, common.NewQueryError(err, "")
	}
	// some drivers cannot report affected rows for PL/SQL blocks
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

func (c *sqlConn) Commit() error {
	if c.done {
		return nil
	}
	c.done = true
	if err := c.tx.Commit(); err != nil {
		return common.NewQueryError(err, "commit")
	}
	return nil
}

func (c *sqlConn) Rollback() error {
	if c.done {
		return nil
	}
	c.done = true
	return c.tx.Rollback()
}

func (c *sqlConn) Close() error {
	if !c.done {
		_ = c.Rollback()
	}
	return c.db.Close()
}
