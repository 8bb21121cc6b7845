package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/sensu-api/core/domain"
	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/internal/core/services"
)

// EventsHandler serves the event endpoints. Events are created by the
// pipeline; the API reads them and clears them by publishing resolutions.
type EventsHandler struct {
	kv        ports.Registry
	publisher *services.Publisher
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(kv ports.Registry, publisher *services.Publisher) *EventsHandler {
	return &EventsHandler{kv: kv, publisher: publisher}
}

// List returns every current event across the fleet.
// GET /events
func (h *EventsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	clients, err := h.kv.SMembers(ctx, domain.ClientsSet)
	if err != nil {
		return fmt.Errorf("events.List: %w", err)
	}

	all := make([]json.RawMessage, 0)
	for _, client := range clients {
		events, err := h.kv.HGetAll(ctx, domain.EventsKey(client))
		if err != nil {
			return fmt.Errorf("events.List: %q: %w", client, err)
		}
		for _, raw := range events {
			all = append(all, json.RawMessage(raw))
		}
	}

	return c.JSON(http.StatusOK, all)
}

// ListClient returns a single client's current events.
// GET /events/:client
func (h *EventsHandler) ListClient(c echo.Context) error {
	client := c.Param("client")
	if !domain.ValidName(client) {
		return notFound(c)
	}

	events, err := h.kv.HGetAll(c.Request().Context(), domain.EventsKey(client))
	if err != nil {
		return fmt.Errorf("events.ListClient: %w", err)
	}

	list := make([]json.RawMessage, 0, len(events))
	for _, raw := range events {
		list = append(list, json.RawMessage(raw))
	}
	return c.JSON(http.StatusOK, list)
}

// Get returns the event for a (client, check) pair.
// GET /events/:client/:check
func (h *EventsHandler) Get(c echo.Context) error {
	raw, err := h.lookup(c)
	if err != nil {
		return err
	}
	if raw == "" {
		return notFound(c)
	}
	return c.JSONBlob(http.StatusOK, []byte(raw))
}

// Delete resolves the event for a (client, check) pair by publishing a
// forced-OK result.
// DELETE /events/:client/:check
func (h *EventsHandler) Delete(c echo.Context) error {
	raw, err := h.lookup(c)
	if err != nil {
		return err
	}
	if raw == "" {
		return notFound(c)
	}

	h.publisher.ResolveEvent(c.Request().Context(), c.Param("client"), raw)
	return issued(c)
}

var nameBody = regexp.MustCompile(`^[\w.\-]+$`)

var resolveRules = map[string]fieldRule{
	"client": {Kind: kindString, Regex: nameBody},
	"check":  {Kind: kindString, Regex: nameBody},
}

// Resolve is the body-keyed form of event deletion.
// POST /resolve
func (h *EventsHandler) Resolve(c echo.Context) error {
	ctx := c.Request().Context()

	data, err := readData(c, resolveRules)
	if err != nil {
		return badRequest(c)
	}
	client := data["client"].(string)
	check := data["check"].(string)

	events, err := h.kv.HGetAll(ctx, domain.EventsKey(client))
	if err != nil {
		return fmt.Errorf("events.Resolve: %w", err)
	}
	raw, ok := events[check]
	if !ok {
		return notFound(c)
	}

	h.publisher.ResolveEvent(ctx, client, raw)
	return issued(c)
}

// lookup fetches the stored event for the path's (client, check) pair.
// Returns "" when either name is malformed or no event exists.
func (h *EventsHandler) lookup(c echo.Context) (string, error) {
	client := c.Param("client")
	check := c.Param("check")
	if !domain.ValidName(client) || !domain.ValidName(check) {
		return "", nil
	}

	events, err := h.kv.HGetAll(c.Request().Context(), domain.EventsKey(client))
	if err != nil {
		return "", fmt.Errorf("events.lookup: %w", err)
	}
	return events[check], nil
}
