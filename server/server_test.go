package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"testing"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/config"
	"github.com/dbroute/dbroute/database"
	_ "github.com/dbroute/dbroute/database/oracle"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/repository"
	"github.com/dbroute/dbroute/repository/local"
	"github.com/dbroute/dbroute/router"
	"github.com/dbroute/dbroute/service/route"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVaultKey = "dGVzdC1rZXktZm9yLXVuaXQtdGVzdHMtMzItYnl0ZXM="

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	RetCode string              `json:"retCode"`
	RetMsg  string              `json:"retMsg"`
	Entity  jsoniter.RawMessage `json:"entity"`
}

type testServer struct {
	handler http.Handler
	vault   *common.Vault
}

func newTestServer(t *testing.T, mutate func(*config.DBRouteConfig)) *testServer {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(path.Join(dir, "users"), 0755))
	for file, pwd := range map[string]string{
		"password":           "Admin123!",
		"users/ops.operator": "Operator1!",
		"users/viewer.guest": "Viewer12!",
	} {
		hash, err := common.HashPassword(pwd)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path.Join(dir, file), []byte(hash), 0600))
	}
	common.LoadUsers(dir)

	lp := local.NewLocalPersistent()
	require.NoError(t, lp.Init(local.LocalConfig{Format: local.FORMAT_JSON, ConfigDir: dir}))
	repository.Ps = lp
	t.Cleanup(func() { repository.Ps = nil })

	vault, err := common.NewVault(testVaultKey)
	require.NoError(t, err)

	cfg := config.DBRouteConfig{}
	cfg.Server.SessionTimeout = 3600
	cfg.Server.SigningKey = "test"
	cfg.Server.ExposeErrors = true
	cfg.Executor.ConnectTimeout = 1
	if mutate != nil {
		mutate(&cfg)
	}
	config.GlobalConfig = cfg

	opener := database.NewSQLOpener(time.Second)
	svc := &router.Services{
		Vault:    vault,
		Opener:   opener,
		Executor: route.NewExecutor(vault, opener),
	}
	return &testServer{handler: NewApiServer(&config.GlobalConfig, svc).Handler(), vault: vault}
}

func (s *testServer) do(t *testing.T, method, url, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf.Write(data)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("token", token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, user, pwd string) string {
	w := s.do(t, http.MethodPost, "/api/login", "", model.LoginReq{Username: user, Password: pwd})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rsp model.LoginRsp
	decode(t, w, &rsp)
	require.NotEmpty(t, rsp.Token)
	return rsp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, entity interface{}) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if entity != nil {
		require.NoError(t, json.Unmarshal(env.Entity, entity))
	}
	return env
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/login", "", model.LoginReq{Username: common.DefaultAdminName, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, model.E_PASSWORD_VERIFY_FAIL, decode(t, w, nil).RetCode)

	w = s.do(t, http.MethodPost, "/api/login", "", model.LoginReq{Username: "ghost", Password: "x"})
	assert.Equal(t, model.E_USER_VERIFY_FAIL, decode(t, w, nil).RetCode)

	token := s.login(t, "ops", "Operator1!")
	w = s.do(t, http.MethodGet, "/api/v1/user", token, nil)
	var user model.UserRsp
	decode(t, w, &user)
	assert.Equal(t, model.UserRsp{Name: "ops", Role: common.OPERATOR}, user)

	w = s.do(t, http.MethodPut, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/user", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, model.E_JWT_TOKEN_EXPIRED, decode(t, w, nil).RetCode)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/routes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, model.E_JWT_TOKEN_NONE, decode(t, w, nil).RetCode)

	w = s.do(t, http.MethodGet, "/api/v1/routes", "garbage", nil)
	assert.Equal(t, model.E_JWT_TOKEN_INVALID, decode(t, w, nil).RetCode)

	guest := s.login(t, "viewer", "Viewer12!")
	w = s.do(t, http.MethodGet, "/api/v1/routes", guest, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/routes", guest, model.Route{Name: "x", Query: "SELECT 1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, model.E_PERMISSION_DENIED, decode(t, w, nil).RetCode)
}

func TestConnectionLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, common.DefaultAdminName, "Admin123!")

	conn := model.Connection{Name: "Vendas Sul", Kind: model.KindOracle, Host: "db", Port: 1521, Username: "app", Password: "s3cret", ServiceName: "ORCL"}
	w := s.do(t, http.MethodPost, "/api/v1/connections", token, conn)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	stored, err := repository.Ps.GetConnectionBySlug("vendas_sul")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.Password)
	plain, err := s.vault.Decrypt(stored.Password)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)

	w = s.do(t, http.MethodPost, "/api/v1/connections", token, conn)
	assert.Equal(t, http.StatusConflict, w.Code)

	conn.Kind = "db2"
	conn.Name = "Other"
	w = s.do(t, http.MethodPost, "/api/v1/connections", token, conn)
	assert.Equal(t, model.E_UNSUPPORTED_KIND, decode(t, w, nil).RetCode)

	w = s.do(t, http.MethodGet, "/api/v1/connections", token, nil)
	var views []model.ConnectionView
	decode(t, w, &views)
	require.Len(t, views, 1)
	assert.Equal(t, "vendas_sul", views[0].Slug)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodGet, "/api/v1/connections/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouteLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, common.DefaultAdminName, "Admin123!")

	conn := model.Connection{Name: "Vendas", Kind: model.KindOracle, Host: "db", Username: "app", Password: "x", ServiceName: "ORCL"}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/connections", token, conn).Code)

	w := s.do(t, http.MethodPost, "/api/v1/routes", token, model.Route{Name: "Empty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/routes", token, model.Route{Name: "Missing Conn", Query: "SELECT 1 FROM dual", Connections: []string{"nope"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	_, err := repository.Ps.GetRouteBySlug("missing_conn")
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)

	rt := model.Route{
		Name:        "Atualiza Preço",
		Query:       "UPDATE t SET v = @v",
		Connections: []string{"vendas"},
		Parameters:  []model.RouteParameter{{Name: "v", Type: model.ParamInteger}},
	}
	w = s.do(t, http.MethodPost, "/api/v1/routes", token, rt)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created model.Route
	decode(t, w, &created)
	assert.Equal(t, "atualiza_preco", created.Slug)
	assert.Equal(t, []string{"vendas"}, created.Connections)
	require.Len(t, created.Parameters, 1)

	w = s.do(t, http.MethodPut, "/api/v1/routes/atualiza_preco", token, map[string]interface{}{"post_query": "COMMENT"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got, err := repository.Ps.GetRouteBySlug("atualiza_preco")
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET v = @v", got.Query)
	assert.Equal(t, "COMMENT", got.PostQuery)
	assert.Equal(t, []string{"vendas"}, got.Connections)

	w = s.do(t, http.MethodPut, "/api/v1/routes/atualiza_preco", token, map[string]interface{}{"query": "", "post_query": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// nothing requested for the attached connection, so every outcome is skipped
	w = s.do(t, http.MethodPost, "/api/v1/routes/execute/atualiza_preco", token, model.ExecuteReq{Connections: []string{"elsewhere"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var result model.ExecutionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, model.StatusError, result.Status)
	require.Contains(t, result.Data, "vendas")
	assert.Equal(t, model.OutcomeSkipped, result.Data["vendas"].Status)
	assert.Equal(t, model.ReasonNotRequested, result.Data["vendas"].Message)

	w = s.do(t, http.MethodPost, "/api/v1/routes/execute/atualiza_preco", token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.E_INVALID_PARAMS, decode(t, w, nil).RetCode)

	w = s.do(t, http.MethodPost, "/api/v1/routes/execute/unknown", token, model.ExecuteReq{Connections: []string{"vendas"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/routes/query/atualiza_preco/vendas?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSequenceRejectsBadName(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "ops", "Operator1!")

	req := model.SequenceReq{
		Connections: []string{"vendas"},
		Parameters:  []map[string]map[string]string{{"vendas": {"sequence": "seq; DROP TABLE x"}}},
	}
	w := s.do(t, http.MethodPost, "/api/v1/routes/bluemind/sequence/", token, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.E_INVALID_PARAMS, decode(t, w, nil).RetCode)
}

func TestHiddenErrors(t *testing.T) {
	s := newTestServer(t, func(cfg *config.DBRouteConfig) {
		cfg.Server.ExposeErrors = false
	})
	token := s.login(t, common.DefaultAdminName, "Admin123!")

	w := s.do(t, http.MethodGet, "/api/v1/routes/secret_route", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, model.GetMsg(model.E_DATA_NOT_EXIST), env.RetMsg)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *config.DBRouteConfig) {
		cfg.Server.RateLimit = 1
		cfg.Server.RateBurst = 2
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, s.do(t, http.MethodGet, "/api/v1/routes", "", nil).Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
