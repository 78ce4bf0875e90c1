package scheduler

import (
	"container/heap"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	_ "github.com/dbroute/dbroute/database/mysql"
	_ "github.com/dbroute/dbroute/database/oracle"
	"github.com/dbroute/dbroute/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVaultKey = "dGVzdC1rZXktZm9yLXVuaXQtdGVzdHMtMzItYnl0ZXM="

type fakeConn struct {
	sync.Mutex
	pages     map[string]*database.ResultSet
	queries   []string
	execs     []string
	args      [][]interface{}
	committed bool
	closed    bool
}

func (c *fakeConn) Query(ctx context.Context, query string, args ...interface{}) (*database.ResultSet, error) {
	c.Lock()
	defer c.Unlock()
	c.queries = append(c.queries, query)
	for fragment, rs := range c.pages {
		if strings.Contains(query, fragment) {
			return rs, nil
		}
	}
	return &database.ResultSet{Columns: []string{"ID", "NAME"}}, nil
}

func (c *fakeConn) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	c.Lock()
	defer c.Unlock()
	c.execs = append(c.execs, query)
	c.args = append(c.args, args)
	return 1, nil
}

func (c *fakeConn) Commit() error   { c.committed = true; return nil }
func (c *fakeConn) Rollback() error { return nil }
func (c *fakeConn) Close() error    { c.closed = true; return nil }

type fakeOpener struct {
	conns map[string]*fakeConn
}

func (o *fakeOpener) Open(ctx context.Context, target database.Target, password string) (database.Conn, error) {
	if c, ok := o.conns[target.Slug()]; ok {
		return c, nil
	}
	return nil, common.NewConnectivityError(errors.New("no route to host"), "connect %s", target.Slug())
}

// gatedOpener holds every Open until release is closed.
type gatedOpener struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (o *gatedOpener) Open(ctx context.Context, target database.Target, password string) (database.Conn, error) {
	o.once.Do(func() { close(o.entered) })
	<-o.release
	return nil, common.NewConnectivityError(errors.New("connection reset"), "connect %s", target.Slug())
}

type memStore struct {
	sync.Mutex
	jobs    map[int64]model.IntegrationJob
	conns   map[string]model.Connection
	updates []model.IntegrationJob
}

func (m *memStore) GetAllJobs() ([]model.IntegrationJob, error) {
	m.Lock()
	defer m.Unlock()
	var jobs []model.IntegrationJob
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (m *memStore) GetConnectionBySlug(slug string) (model.Connection, error) {
	c, ok := m.conns[slug]
	if !ok {
		return c, errors.Errorf("connection %s not found", slug)
	}
	return c, nil
}

func (m *memStore) GetJobByID(id int64) (model.IntegrationJob, error) {
	m.Lock()
	defer m.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return job, common.NewNotFoundError("job %d not found", id)
	}
	return job, nil
}

func (m *memStore) UpdateJob(job model.IntegrationJob) error {
	m.Lock()
	defer m.Unlock()
	m.jobs[job.ID] = job
	m.updates = append(m.updates, job)
	return nil
}

func newStore(t *testing.T) (*memStore, *common.Vault) {
	vault, err := common.NewVault(testVaultKey)
	require.NoError(t, err)
	token, err := vault.Encrypt("pw")
	require.NoError(t, err)
	store := &memStore{
		jobs: map[int64]model.IntegrationJob{},
		conns: map[string]model.Connection{
			"ora_src": {Slug: "ora_src", Kind: model.KindOracle, Host: "ora", ServiceName: "ORCL", Password: token},
			"my_dst":  {Slug: "my_dst", Kind: model.KindMySQL, Host: "my", Database: "dw", Password: token},
		},
	}
	return store, vault
}

func copyJob() model.IntegrationJob {
	return model.IntegrationJob{
		ID: 1, Name: "orders", Source: "ora_src", SourceQuery: "SELECT id, name FROM orders;",
		Destination: "my_dst", DestinationTable: "dw.orders", Columns: []string{"id", "name"},
		IntervalSeconds: 60, BatchSize: 2, Enabled: true,
	}
}

func TestInsertTemplate(t *testing.T) {
	q, err := InsertTemplate("dw.orders", []string{"id", "name"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO dw.orders (id, name) VALUES (@p1, @p2)", q)

	_, err = InsertTemplate("orders; DROP TABLE x", []string{"id"})
	assert.True(t, common.IsKind(err, common.KindValidation))
	_, err = InsertTemplate("orders", []string{"id", "name) VALUES (1); --"})
	assert.True(t, common.IsKind(err, common.KindValidation))
	_, err = InsertTemplate("orders", nil)
	assert.True(t, common.IsKind(err, common.KindConfig))
}

func TestCopyPages(t *testing.T) {
	store, vault := newStore(t)
	src := &fakeConn{pages: map[string]*database.ResultSet{
		"rnum > 0": {Columns: []string{"ID", "NAME"}, Rows: [][]interface{}{{int64(1), "a"}, {int64(2), "b"}}},
		"rnum > 2": {Columns: []string{"ID", "NAME"}, Rows: [][]interface{}{{int64(3), "c"}}},
	}}
	dst := &fakeConn{}
	copier := NewCopier(vault, &fakeOpener{conns: map[string]*fakeConn{"ora_src": src, "my_dst": dst}}, store)

	n, err := copier.Copy(context.Background(), copyJob())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Len(t, src.queries, 2)
	assert.Contains(t, src.queries[0], "FROM (SELECT id, name FROM orders) a WHERE ROWNUM <= 2")
	assert.Len(t, dst.execs, 3)
	assert.Equal(t, "INSERT INTO dw.orders (id, name) VALUES (?, ?)", dst.execs[0])
	assert.Equal(t, []interface{}{int64(3), "c"}, dst.args[2])
	assert.True(t, dst.committed)
	assert.True(t, dst.closed)
	assert.True(t, src.closed)
}

func TestRunDeactivatesOnCriticalError(t *testing.T) {
	store, vault := newStore(t)
	src := store.conns["ora_src"]
	src.Password = "tampered"
	store.conns["ora_src"] = src
	job := copyJob()
	store.jobs[job.ID] = job

	s := NewScheduler(store, vault, &fakeOpener{}, time.Minute, 1, 0)
	require.NoError(t, s.Reload())
	assert.Equal(t, 1, s.Len())

	s.run(job)
	require.Len(t, store.updates, 1)
	saved := store.updates[0]
	assert.False(t, saved.Enabled)
	assert.Contains(t, saved.LastError, "CryptoError")
	assert.Equal(t, 0, s.Len())
}

func TestRunKeepsJobOnTransientError(t *testing.T) {
	store, vault := newStore(t)
	job := copyJob()
	store.jobs[job.ID] = job

	s := NewScheduler(store, vault, &fakeOpener{}, time.Minute, 1, 0)
	require.NoError(t, s.Reload())
	s.run(job)

	saved := store.updates[0]
	assert.True(t, saved.Enabled)
	assert.Contains(t, saved.LastError, "ConnectivityError")
	assert.Equal(t, 1, s.Len())
}

func TestRunKeepsDisableMadeWhileRunning(t *testing.T) {
	store, vault := newStore(t)
	job := copyJob()
	store.jobs[job.ID] = job
	opener := &gatedOpener{entered: make(chan struct{}), release: make(chan struct{})}

	s := NewScheduler(store, vault, opener, time.Minute, 1, 0)
	require.NoError(t, s.Reload())
	done := make(chan struct{})
	go func() {
		s.run(job)
		close(done)
	}()
	<-opener.entered

	disabled := job
	disabled.Enabled = false
	require.NoError(t, store.UpdateJob(disabled))
	s.Upsert(disabled)
	close(opener.release)
	<-done

	store.Lock()
	saved := store.jobs[job.ID]
	store.Unlock()
	assert.False(t, saved.Enabled)
	assert.Contains(t, saved.LastError, "ConnectivityError")
	assert.False(t, saved.LastRun.IsZero())
	require.NoError(t, s.Reload())
	assert.Equal(t, 0, s.Len())
}

func TestDispatchOrder(t *testing.T) {
	store, vault := newStore(t)
	s := NewScheduler(store, vault, &fakeOpener{}, time.Minute, 1, 0)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	for i, interval := range []int{30, 10, 20} {
		j := copyJob()
		j.ID = int64(i + 1)
		j.IntervalSeconds = interval
		s.Upsert(j)
	}
	// all fire immediately, then follow their intervals
	for _, e := range s.entries {
		e.next = base.Add(e.job.Interval())
	}
	heap.Init(&s.queue)
	assert.Equal(t, int64(2), s.queue.peek().job.ID)
	assert.Equal(t, 10*time.Second, s.nextWait())

	disabled := copyJob()
	disabled.ID = 2
	disabled.Enabled = false
	s.Upsert(disabled)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, int64(3), s.queue.peek().job.ID)
}

func TestIsCritical(t *testing.T) {
	assert.True(t, IsCritical(common.NewCryptoError(nil, "x")))
	assert.True(t, IsCritical(common.NewConfigError("x")))
	assert.True(t, IsCritical(common.NewUnsupportedKindError("x")))
	assert.False(t, IsCritical(common.NewConnectivityError(nil, "x")))
	assert.False(t, IsCritical(common.NewQueryError(nil, "x")))
}
