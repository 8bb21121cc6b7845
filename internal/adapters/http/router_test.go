package http_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreregistry "github.com/sylvester-francis/sensu-api/core/registry"
	internalhttp "github.com/sylvester-francis/sensu-api/internal/adapters/http"
	registryadapter "github.com/sylvester-francis/sensu-api/internal/adapters/registry"
	"github.com/sylvester-francis/sensu-api/internal/config"
	"github.com/sylvester-francis/sensu-api/internal/defaults"
	"github.com/sylvester-francis/sensu-api/internal/testutil/mocks"
)

type testServer struct {
	echo      *echo.Echo
	transport *mocks.MockTransport
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	store := registryadapter.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })

	transport := &mocks.MockTransport{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	modules := coreregistry.New(logger)
	defaults.RegisterAll(modules, defaults.Deps{KV: store, Transport: transport, Logger: logger})

	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.Checks == nil {
		cfg.Checks = map[string]map[string]any{}
	}

	e := echo.New()
	e.HideBanner = true

	router, err := internalhttp.NewRouter(e, internalhttp.Dependencies{
		KV:        modules.KVStore(),
		Transport: modules.Transport(),
		Modules:   modules,
		Config:    cfg,
		Logger:    logger,
	})
	require.NoError(t, err)
	router.RegisterRoutes()

	return &testServer{echo: e, transport: transport}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestOptions_ReturnsCORSHeadersOnAnyPath(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/clients", "/stash/deep/path", "/no/such/route"} {
		rec := s.do(httptest.NewRequest(http.MethodOptions, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "Origin, X-Requested-With, Content-Type, Accept, Authorization",
			rec.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestCORSOverrides(t *testing.T) {
	cfg := &config.Config{CORS: map[string]string{"Origin": "https://ops.example.com"}}
	s := newTestServer(t, cfg)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/clients", nil))
	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestUnknownRoute_EmptyNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())

	// Wrong method on a known path also reads as an unknown route.
	rec = s.do(httptest.NewRequest(http.MethodPut, "/clients", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestBackendGate(t *testing.T) {
	s := newTestServer(t, nil)
	s.transport.ConnectedFn = func() bool { return false }

	rec := s.do(httptest.NewRequest(http.MethodGet, "/clients", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"not connected to transport"}`, rec.Body.String())

	// Introspection endpoints stay reachable.
	rec = s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/info", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthentication(t *testing.T) {
	cfg := &config.Config{API: config.APIConfig{User: "admin", Password: "secret"}}
	s := newTestServer(t, cfg)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/clients", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="Restricted Area"`, rec.Header().Get(echo.HeaderWWWAuthenticate))

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.SetBasicAuth("admin", "secret")
	rec = s.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Preflights carry no credentials and must not be challenged.
	rec = s.do(httptest.NewRequest(http.MethodOptions, "/clients", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientRegistrationFlow(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{"name":"web-01"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := s.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"name":"web-01"}`, rec.Body.String())

	rec = s.do(httptest.NewRequest(http.MethodGet, "/clients/web-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"web-01"`)
	assert.Contains(t, rec.Body.String(), `"keepalives":false`)
	assert.Contains(t, rec.Body.String(), `"version":"`+config.Version+`"`)
}

func TestStashRoutesDoNotShadowStashes(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/stashes",
		strings.NewReader(`{"path":"silence/web","content":{"reason":"maint"}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := s.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/stashes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"silence/web"`)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/stash/silence/web", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reason":"maint"}`, rec.Body.String())
}
