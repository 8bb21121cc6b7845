package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/internal/adapters/http/handlers"
	"github.com/sylvester-francis/sensu-api/internal/core/services"
)

var testChecks = map[string]map[string]any{
	"cpu": {
		"command":     "check-cpu.rb",
		"interval":    60,
		"subscribers": []any{"roles:web"},
	},
	"tls": {
		"command": "check-tls.rb",
	},
}

func newChecksHandler(env *testEnv) *handlers.ChecksHandler {
	return handlers.NewChecksHandler(testChecks, services.NewPublisher(env.transport, nil))
}

func TestChecksList_ReturnsDefinitionsVerbatim(t *testing.T) {
	env := newEnv(t)
	h := newChecksHandler(env)

	c, rec := env.request(http.MethodGet, "/checks", "")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var checks map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checks))
	assert.Len(t, checks, 2)
	assert.Equal(t, "check-cpu.rb", checks["cpu"]["command"])
}

func TestChecksGet_FoldsInName(t *testing.T) {
	env := newEnv(t)
	h := newChecksHandler(env)

	c, rec := env.request(http.MethodGet, "/checks/cpu", "")
	c.SetParamNames("check")
	c.SetParamValues("cpu")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var check map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.Equal(t, "cpu", check["name"])
	assert.Equal(t, "check-cpu.rb", check["command"])
}

func TestChecksGet_Unknown(t *testing.T) {
	env := newEnv(t)
	h := newChecksHandler(env)

	c, rec := env.request(http.MethodGet, "/checks/nope", "")
	c.SetParamNames("check")
	c.SetParamValues("nope")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequest_OverridesSubscribers(t *testing.T) {
	env := newEnv(t)
	h := newChecksHandler(env)

	c, rec := env.request(http.MethodPost, "/request",
		`{"check":"cpu","subscribers":["direct:hostA","roles:web"]}`)
	require.NoError(t, h.Request(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotZero(t, body["issued"])

	published := env.transport.Published()
	require.Len(t, published, 2)
	assert.Equal(t, ports.ExchangeDirect, published[0].Exchange)
	assert.Equal(t, "direct:hostA", published[0].Pipe)
	assert.Equal(t, ports.ExchangeFanout, published[1].Exchange)
	assert.Equal(t, "roles:web", published[1].Pipe)

	var check map[string]any
	require.NoError(t, json.Unmarshal(published[0].Payload, &check))
	assert.Equal(t, "cpu", check["name"])
	assert.Equal(t, "check-cpu.rb", check["command"])
	assert.NotZero(t, check["issued"])
}

func TestRequest_InheritsDefinitionSubscribers(t *testing.T) {
	env := newEnv(t)
	h := newChecksHandler(env)

	c, rec := env.request(http.MethodPost, "/request", `{"check":"cpu"}`)
	require.NoError(t, h.Request(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	published := env.transport.Published()
	require.Len(t, published, 1)
	assert.Equal(t, ports.ExchangeFanout, published[0].Exchange)
	assert.Equal(t, "roles:web", published[0].Pipe)
}

func TestRequest_NoSubscribersAnywhere(t *testing.T) {
	env := newEnv(t)
	h := newChecksHandler(env)

	c, rec := env.request(http.MethodPost, "/request", `{"check":"tls"}`)
	require.NoError(t, h.Request(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, env.transport.Published())
}

func TestRequest_UnknownCheck(t *testing.T) {
	env := newEnv(t)
	h := newChecksHandler(env)

	c, rec := env.request(http.MethodPost, "/request", `{"check":"nope"}`)
	require.NoError(t, h.Request(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequest_MalformedBody(t *testing.T) {
	env := newEnv(t)
	h := newChecksHandler(env)

	for _, body := range []string{
		``,
		`{}`,
		`{"check":42}`,
		`{"check":"cpu","subscribers":"roles:web"}`,
	} {
		c, rec := env.request(http.MethodPost, "/request", body)
		require.NoError(t, h.Request(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}
