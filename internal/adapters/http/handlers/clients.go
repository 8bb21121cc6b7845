package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/sensu-api/core/domain"
	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/core/registry"
	"github.com/sylvester-francis/sensu-api/internal/config"
	"github.com/sylvester-francis/sensu-api/internal/core/services"
)

// ClientsHandler serves the client resource endpoints.
type ClientsHandler struct {
	repairer
	kv        ports.Registry
	publisher *services.Publisher
	reaper    *services.Reaper
	modules   *registry.Registry
}

// NewClientsHandler creates a new ClientsHandler. The validator is
// resolved through the module registry on each registration so overrides
// stay pluggable.
func NewClientsHandler(kv ports.Registry, publisher *services.Publisher, reaper *services.Reaper, modules *registry.Registry, logger *slog.Logger) *ClientsHandler {
	return &ClientsHandler{
		repairer:  newRepairer(kv, logger),
		kv:        kv,
		publisher: publisher,
		reaper:    reaper,
		modules:   modules,
	}
}

// Create registers or replaces a client.
// POST /clients
func (h *ClientsHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	data, err := decodeObject(c)
	if err != nil {
		return badRequest(c)
	}

	if v, ok := data["keepalives"]; !ok || v == nil || v == false {
		data["keepalives"] = false
	}
	data["version"] = config.Version
	data["timestamp"] = time.Now().Unix()

	if !h.modules.ClientValidator().Valid(data) {
		return badRequest(c)
	}

	name, ok := data["name"].(string)
	if !ok || !domain.ValidName(name) {
		return badRequest(c)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("clients.Create: encode %q: %w", name, err)
	}
	if err := h.kv.Set(ctx, domain.ClientKey(name), string(raw)); err != nil {
		return fmt.Errorf("clients.Create: store %q: %w", name, err)
	}
	if err := h.kv.SAdd(ctx, domain.ClientsSet, name); err != nil {
		return fmt.Errorf("clients.Create: index %q: %w", name, err)
	}

	return created(c, map[string]string{"name": name})
}

// List returns the registered clients, paginated by name before fan-out.
// GET /clients
func (h *ClientsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	names, err := h.kv.SMembers(ctx, domain.ClientsSet)
	if err != nil {
		return fmt.Errorf("clients.List: %w", err)
	}
	names = paginate(c, names)

	clients := make([]json.RawMessage, 0, len(names))
	for _, name := range names {
		raw, err := h.kv.Get(ctx, domain.ClientKey(name))
		if errors.Is(err, domain.ErrNotFound) {
			h.repair(domain.ClientsSet, name)
			continue
		}
		if err != nil {
			return fmt.Errorf("clients.List: read %q: %w", name, err)
		}
		clients = append(clients, json.RawMessage(raw))
	}

	return c.JSON(http.StatusOK, clients)
}

// Get returns a single client registration.
// GET /clients/:client
func (h *ClientsHandler) Get(c echo.Context) error {
	name := c.Param("client")
	if !domain.ValidName(name) {
		return notFound(c)
	}

	raw, err := h.kv.Get(c.Request().Context(), domain.ClientKey(name))
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		return fmt.Errorf("clients.Get: %w", err)
	}

	return c.JSONBlob(http.StatusOK, []byte(raw))
}

type historyEntry struct {
	Check         string          `json:"check"`
	History       []int           `json:"history"`
	LastExecution int64           `json:"last_execution"`
	LastStatus    int             `json:"last_status"`
	LastResult    json.RawMessage `json:"last_result"`
}

// History returns the recent status codes and latest result for each of a
// client's checks.
// GET /clients/:client/history
func (h *ClientsHandler) History(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("client")
	if !domain.ValidName(name) {
		return notFound(c)
	}

	checks, err := h.kv.SMembers(ctx, domain.ResultSetKey(name))
	if err != nil {
		return fmt.Errorf("clients.History: %w", err)
	}

	entries := make([]historyEntry, 0, len(checks))
	for _, check := range checks {
		statuses, err := h.kv.LRange(ctx, domain.HistoryKey(name, check), -domain.HistoryWindow, -1)
		if err != nil {
			return fmt.Errorf("clients.History: history %q: %w", check, err)
		}

		history := make([]int, 0, len(statuses))
		for _, s := range statuses {
			if status, err := strconv.Atoi(s); err == nil {
				history = append(history, status)
			}
		}
		if len(history) == 0 {
			continue
		}

		raw, err := h.kv.Get(ctx, domain.ResultKey(name, check))
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("clients.History: result %q: %w", check, err)
		}

		var result map[string]any
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			continue
		}
		executed, _ := intFrom(result["executed"])

		entries = append(entries, historyEntry{
			Check:         check,
			History:       history,
			LastExecution: executed,
			LastStatus:    history[len(history)-1],
			LastResult:    json.RawMessage(raw),
		})
	}

	return c.JSON(http.StatusOK, entries)
}

// Delete resolves the client's current events, acknowledges the request,
// and purges the client's keys in the background.
// DELETE /clients/:client
func (h *ClientsHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("client")
	if !domain.ValidName(name) {
		return notFound(c)
	}

	exists, err := h.kv.Exists(ctx, domain.ClientKey(name))
	if err != nil {
		return fmt.Errorf("clients.Delete: %w", err)
	}
	if !exists {
		return notFound(c)
	}

	events, err := h.kv.HGetAll(ctx, domain.EventsKey(name))
	if err != nil {
		return fmt.Errorf("clients.Delete: events: %w", err)
	}
	for _, event := range events {
		h.publisher.ResolveEvent(ctx, name, event)
	}

	go h.reaper.PurgeClient(name)

	return issued(c)
}
