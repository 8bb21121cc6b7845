package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/sensu-api/core/domain"
	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/internal/core/services"
)

// apiClientName attributes results injected through POST /results.
const apiClientName = "sensu-api"

// ResultsHandler serves the check result endpoints.
type ResultsHandler struct {
	repairer
	kv        ports.Registry
	publisher *services.Publisher
}

// NewResultsHandler creates a new ResultsHandler.
func NewResultsHandler(kv ports.Registry, publisher *services.Publisher, logger *slog.Logger) *ResultsHandler {
	return &ResultsHandler{
		repairer:  newRepairer(kv, logger),
		kv:        kv,
		publisher: publisher,
	}
}

var resultRules = map[string]fieldRule{
	"name":   {Kind: kindString, Regex: nameBody},
	"output": {Kind: kindString},
	"status": {Kind: kindInt, NilOK: true},
	"source": {Kind: kindString, NilOK: true, Regex: nameBody},
}

// Create injects a check result into the pipeline on behalf of the API.
// POST /results
func (h *ResultsHandler) Create(c echo.Context) error {
	data, err := readData(c, resultRules)
	if err != nil {
		return badRequest(c)
	}

	check := map[string]any{
		"name":   data["name"],
		"output": data["output"],
	}
	if data["status"] != nil {
		check["status"] = data["status"]
	}
	if data["source"] != nil {
		check["source"] = data["source"]
	}

	h.publisher.PublishResult(c.Request().Context(), apiClientName, check)

	return issued(c)
}

type resultEntry struct {
	Client string          `json:"client"`
	Check  json.RawMessage `json:"check"`
}

// List enumerates the latest result of every (client, check) pair.
// GET /results
func (h *ResultsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	clients, err := h.kv.SMembers(ctx, domain.ClientsSet)
	if err != nil {
		return fmt.Errorf("results.List: %w", err)
	}

	all := make([]resultEntry, 0)
	for _, client := range clients {
		entries, err := h.clientResults(c, client)
		if err != nil {
			return err
		}
		all = append(all, entries...)
	}

	return c.JSON(http.StatusOK, all)
}

// ListClient enumerates one client's latest results.
// GET /results/:client
func (h *ResultsHandler) ListClient(c echo.Context) error {
	client := c.Param("client")
	if !domain.ValidName(client) {
		return notFound(c)
	}

	checks, err := h.kv.SMembers(c.Request().Context(), domain.ResultSetKey(client))
	if err != nil {
		return fmt.Errorf("results.ListClient: %w", err)
	}
	if len(checks) == 0 {
		return notFound(c)
	}

	entries, err := h.clientResults(c, client)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// Get returns the latest result for a (client, check) pair.
// GET /results/:client/:check
func (h *ResultsHandler) Get(c echo.Context) error {
	client := c.Param("client")
	check := c.Param("check")
	if !domain.ValidName(client) || !domain.ValidName(check) {
		return notFound(c)
	}

	raw, err := h.kv.Get(c.Request().Context(), domain.ResultKey(client, check))
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		return fmt.Errorf("results.Get: %w", err)
	}

	return c.JSONBlob(http.StatusOK, []byte(raw))
}

// Delete drops the stored result for a (client, check) pair.
// DELETE /results/:client/:check
func (h *ResultsHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	client := c.Param("client")
	check := c.Param("check")
	if !domain.ValidName(client) || !domain.ValidName(check) {
		return notFound(c)
	}

	exists, err := h.kv.Exists(ctx, domain.ResultKey(client, check))
	if err != nil {
		return fmt.Errorf("results.Delete: %w", err)
	}
	if !exists {
		return notFound(c)
	}

	if err := h.kv.SRem(ctx, domain.ResultSetKey(client), check); err != nil {
		return fmt.Errorf("results.Delete: unindex: %w", err)
	}
	if err := h.kv.Del(ctx, domain.ResultKey(client, check)); err != nil {
		return fmt.Errorf("results.Delete: %w", err)
	}

	return noContent(c)
}

// clientResults reads every stored result for a client, repairing
// dangling index members as it goes.
func (h *ResultsHandler) clientResults(c echo.Context, client string) ([]resultEntry, error) {
	ctx := c.Request().Context()

	checks, err := h.kv.SMembers(ctx, domain.ResultSetKey(client))
	if err != nil {
		return nil, fmt.Errorf("results: enumerate %q: %w", client, err)
	}

	entries := make([]resultEntry, 0, len(checks))
	for _, check := range checks {
		raw, err := h.kv.Get(ctx, domain.ResultKey(client, check))
		if errors.Is(err, domain.ErrNotFound) {
			h.repair(domain.ResultSetKey(client), check)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("results: read %q %q: %w", client, check, err)
		}
		entries = append(entries, resultEntry{Client: client, Check: json.RawMessage(raw)})
	}
	return entries, nil
}
