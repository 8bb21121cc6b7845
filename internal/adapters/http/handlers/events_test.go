package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/sensu-api/core/domain"
	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/internal/adapters/http/handlers"
	"github.com/sylvester-francis/sensu-api/internal/core/services"
)

func newEventsHandler(env *testEnv) *handlers.EventsHandler {
	return handlers.NewEventsHandler(env.kv, services.NewPublisher(env.transport, nil))
}

func seedEvent(t *testing.T, env *testEnv, client, check string, status int) {
	t.Helper()
	event := map[string]any{
		"client": map[string]any{"name": client},
		"check":  map[string]any{"name": check, "status": status, "output": "boom"},
	}
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	env.seedHash(t, domain.EventsKey(client), check, string(raw))
}

func TestEventsList_UnionAcrossClients(t *testing.T) {
	env := newEnv(t)
	h := newEventsHandler(env)

	env.seedSet(t, domain.ClientsSet, "web-01", "db-7", "idle")
	seedEvent(t, env, "web-01", "cpu", 1)
	seedEvent(t, env, "web-01", "disk", 2)
	seedEvent(t, env, "db-7", "disk", 2)

	c, rec := env.request(http.MethodGet, "/events", "")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var events []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 3)
}

func TestEventsListClient(t *testing.T) {
	env := newEnv(t)
	h := newEventsHandler(env)

	seedEvent(t, env, "web-01", "cpu", 1)

	c, rec := env.request(http.MethodGet, "/events/web-01", "")
	c.SetParamNames("client")
	c.SetParamValues("web-01")
	require.NoError(t, h.ListClient(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var events []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)

	// A client with no events is an empty list, not an error.
	c, rec = env.request(http.MethodGet, "/events/idle", "")
	c.SetParamNames("client")
	c.SetParamValues("idle")
	require.NoError(t, h.ListClient(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestEventsGet(t *testing.T) {
	env := newEnv(t)
	h := newEventsHandler(env)

	seedEvent(t, env, "web-01", "cpu", 1)

	c, rec := env.request(http.MethodGet, "/events/web-01/cpu", "")
	c.SetParamNames("client", "check")
	c.SetParamValues("web-01", "cpu")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var event map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, "cpu", event["check"].(map[string]any)["name"])

	c, rec = env.request(http.MethodGet, "/events/web-01/nope", "")
	c.SetParamNames("client", "check")
	c.SetParamValues("web-01", "nope")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsDelete_PublishesResolution(t *testing.T) {
	env := newEnv(t)
	h := newEventsHandler(env)

	seedEvent(t, env, "web-01", "cpu", 2)

	c, rec := env.request(http.MethodDelete, "/events/web-01/cpu", "")
	c.SetParamNames("client", "check")
	c.SetParamValues("web-01", "cpu")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	published := env.transport.Published()
	require.Len(t, published, 1)
	assert.Equal(t, ports.ExchangeDirect, published[0].Exchange)
	assert.Equal(t, "results", published[0].Pipe)

	var result map[string]any
	require.NoError(t, json.Unmarshal(published[0].Payload, &result))
	assert.Equal(t, "web-01", result["client"])
	check := result["check"].(map[string]any)
	assert.Equal(t, "Resolving on request of the API", check["output"])
	assert.Equal(t, float64(0), check["status"])
	assert.Equal(t, true, check["force_resolve"])
}

func TestEventsDelete_Missing(t *testing.T) {
	env := newEnv(t)
	h := newEventsHandler(env)

	c, rec := env.request(http.MethodDelete, "/events/web-01/cpu", "")
	c.SetParamNames("client", "check")
	c.SetParamValues("web-01", "cpu")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, env.transport.Published())
}

func TestResolve(t *testing.T) {
	env := newEnv(t)
	h := newEventsHandler(env)

	seedEvent(t, env, "web-01", "cpu", 2)

	c, rec := env.request(http.MethodPost, "/resolve", `{"client":"web-01","check":"cpu"}`)
	require.NoError(t, h.Resolve(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, env.transport.Published(), 1)
}

func TestResolve_Validation(t *testing.T) {
	env := newEnv(t)
	h := newEventsHandler(env)

	for _, body := range []string{
		`{"client":"web-01"}`,
		`{"check":"cpu"}`,
		`{"client":"bad name","check":"cpu"}`,
		`{"client":42,"check":"cpu"}`,
		`broken`,
	} {
		c, rec := env.request(http.MethodPost, "/resolve", body)
		require.NoError(t, h.Resolve(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestResolve_UnknownEvent(t *testing.T) {
	env := newEnv(t)
	h := newEventsHandler(env)

	c, rec := env.request(http.MethodPost, "/resolve", `{"client":"web-01","check":"cpu"}`)
	require.NoError(t, h.Resolve(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
