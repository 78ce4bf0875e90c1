package gormstore

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	driver "gorm.io/driver/mysql"
)

var connectionColumns = []string{"id", "slug", "name", "kind", "host", "port", "username", "password",
	"database_name", "service_name", "sid", "created_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := Open(driver.New(driver.Config{Conn: db, SkipInitializeWithVersion: true}), PoolConfig{MaxIdleConns: 1, MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	s := &Store{}
	s.Attach(gdb)
	return s, mock
}

func TestGetConnectionBySlug(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT \\* FROM `tbl_connection` WHERE slug = \\?").
		WillReturnRows(sqlmock.NewRows(connectionColumns).
			AddRow(7, "vendas", "Vendas", "oracle", "db", 1521, "app", "token", "", "ORCL", "", created))
	mock.ExpectQuery("SELECT \\* FROM `tbl_connection` WHERE slug = \\?").
		WillReturnRows(sqlmock.NewRows(connectionColumns))

	conn, err := s.GetConnectionBySlug("VENDAS")
	require.NoError(t, err)
	assert.Equal(t, int64(7), conn.ID)
	assert.Equal(t, "ORCL", conn.ServiceName)
	assert.Equal(t, "token", conn.Password)

	_, err = s.GetConnectionBySlug("missing")
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
	assert.True(t, common.IsKind(err, common.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeExecutionLogs(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `tbl_execution_log` WHERE created_at < \\?").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := s.PurgeExecutionLogs(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `tbl_execution_log` WHERE created_at < \\?").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := s.Transaction(func(tx repository.Repository) error {
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")

	var purged int64
	require.NoError(t, s.Transaction(func(tx repository.Repository) error {
		var err error
		purged, err = tx.PurgeExecutionLogs(time.Now())
		return err
	}))
	assert.Equal(t, int64(2), purged)
	assert.False(t, s.inTx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRouteConnections(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `tbl_route` WHERE slug = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow(3, "daily"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `tbl_connection` WHERE slug = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow(7, "vendas"))
	mock.ExpectExec("DELETE FROM `tbl_route_connection` WHERE route_id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `tbl_route_connection`").
		WithArgs(int64(3), int64(7), "vendas", int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SetRouteConnections("DAILY", []string{"Vendas", "vendas"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRouteConnectionsMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `tbl_route` WHERE slug = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow(3, "daily"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `tbl_connection` WHERE slug = \\?").
		WillReturnRows(sqlmock.NewRows(connectionColumns))
	mock.ExpectRollback()

	err := s.SetRouteConnections("daily", []string{"missing"})
	assert.True(t, common.IsKind(err, common.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobColumns(t *testing.T) {
	job := fromJob(TblJob{Columns: "id,name", Source: "SRC"}.toModel())
	assert.Equal(t, "id,name", job.Columns)
	assert.Equal(t, "src", job.Source)
	assert.Nil(t, TblJob{}.toModel().Columns)
}
