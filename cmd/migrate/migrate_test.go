package migrate

import (
	"os"
	"path"
	"testing"
	"time"

	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/repository/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T, format string) *local.LocalPersistent {
	lp := local.NewLocalPersistent()
	require.NoError(t, lp.Init(local.LocalConfig{Format: format, ConfigDir: t.TempDir()}))
	return lp
}

func TestMigrate(t *testing.T) {
	src := newLocal(t, local.FORMAT_JSON)
	require.NoError(t, src.CreateConnection(&model.Connection{Name: "Vendas", Slug: "vendas", Kind: model.KindMySQL, Host: "db", Database: "sales"}))
	require.NoError(t, src.CreateRoute(&model.Route{Name: "Daily", Slug: "daily", Query: "DELETE FROM t WHERE d < @d"}))
	require.NoError(t, src.SetRouteConnections("daily", []string{"vendas"}))
	require.NoError(t, src.SetRouteParameters("daily", []model.RouteParameter{{Name: "d", Type: model.ParamDate}}))
	require.NoError(t, src.CreateJob(&model.IntegrationJob{Name: "copy", Source: "vendas", Destination: "vendas", IntervalSeconds: 60}))
	require.NoError(t, src.CreateExecutionLog(model.ExecutionLog{ID: "l1", Route: "daily", Connection: "vendas", Status: model.OutcomeSuccess, CreatedAt: time.Now()}))

	dst := newLocal(t, local.FORMAT_YAML)
	summary, err := Migrate(src, dst)
	require.NoError(t, err)
	assert.Equal(t, Summary{Connections: 1, Routes: 1, Jobs: 1, Logs: 1}, summary)

	route, err := dst.GetRouteBySlug("daily")
	require.NoError(t, err)
	assert.Equal(t, []string{"vendas"}, route.Connections)
	require.Len(t, route.Parameters, 1)
	assert.Equal(t, "d", route.Parameters[0].Name)
	logs, err := dst.GetExecutionLogs("daily", 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	// a second run collides on the slugs and leaves the target untouched
	_, err = Migrate(src, dst)
	assert.Error(t, err)
	jobs, err := dst.GetAllJobs()
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestParseConfig(t *testing.T) {
	file := path.Join(t.TempDir(), "migrate.hjson")
	require.NoError(t, os.WriteFile(file, []byte(`{
  source: old
  target: new
  persistent_config: {
    old: { "policy": "local", "config": { "format": "json" } }
    new: { "policy": "mysql", "config": { "host": "127.0.0.1", "password": "ENC(abc)" } }
  }
}`), 0600))

	conf, err := ParseConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "old", conf.Source)
	assert.Equal(t, "new", conf.Target)
	assert.Equal(t, "mysql", conf.PsConf["new"].Policy)
	assert.Equal(t, "ENC(abc)", conf.PsConf["new"].Config["password"])

	_, err = PersistentCheck(conf, "missing", nil)
	assert.Error(t, err)
}
