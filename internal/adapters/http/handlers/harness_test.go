package handlers_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	coreregistry "github.com/sylvester-francis/sensu-api/core/registry"
	registryadapter "github.com/sylvester-francis/sensu-api/internal/adapters/registry"
	"github.com/sylvester-francis/sensu-api/internal/defaults"
	"github.com/sylvester-francis/sensu-api/internal/testutil/mocks"
)

// testEnv wires the handlers' collaborators around an in-process Redis
// and a recording transport.
type testEnv struct {
	kv        *registryadapter.RedisStore
	client    *redis.Client
	transport *mocks.MockTransport
	modules   *coreregistry.Registry
	echo      *echo.Echo
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := registryadapter.NewRedisStoreFromClient(client)
	t.Cleanup(func() { _ = store.Close() })

	transport := &mocks.MockTransport{}
	modules := coreregistry.New(slog.Default())
	defaults.RegisterAll(modules, defaults.Deps{
		KV:        store,
		Transport: transport,
		Logger:    slog.Default(),
	})

	return &testEnv{
		kv:        store,
		client:    client,
		transport: transport,
		modules:   modules,
		echo:      echo.New(),
	}
}

// request builds an echo context for a handler-method call.
func (env *testEnv) request(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return env.echo.NewContext(req, rec), rec
}

// seed writes a plain key.
func (env *testEnv) seed(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, env.client.Set(context.Background(), key, value, 0).Err())
}

// seedSet adds members to a set key.
func (env *testEnv) seedSet(t *testing.T, key string, members ...string) {
	t.Helper()
	for _, m := range members {
		require.NoError(t, env.client.SAdd(context.Background(), key, m).Err())
	}
}

// seedHash sets a hash field.
func (env *testEnv) seedHash(t *testing.T, key, field, value string) {
	t.Helper()
	require.NoError(t, env.client.HSet(context.Background(), key, field, value).Err())
}

// seedList right-pushes values onto a list key.
func (env *testEnv) seedList(t *testing.T, key string, values ...string) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, env.client.RPush(context.Background(), key, v).Err())
	}
}

// exists reports whether a key is present.
func (env *testEnv) exists(t *testing.T, key string) bool {
	t.Helper()
	n, err := env.client.Exists(context.Background(), key).Result()
	require.NoError(t, err)
	return n > 0
}
