package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/internal/config"
	"github.com/sylvester-francis/sensu-api/internal/core/services"
)

// monitoredQueues are the pipeline queues surfaced by /info and gated by
// /health thresholds.
var monitoredQueues = []string{services.KeepalivesPipe, services.ResultsPipe}

// InfoHandler serves the deployment introspection endpoints.
type InfoHandler struct {
	kv        ports.Registry
	transport ports.Transport
}

// NewInfoHandler creates a new InfoHandler.
func NewInfoHandler(kv ports.Registry, transport ports.Transport) *InfoHandler {
	return &InfoHandler{kv: kv, transport: transport}
}

// Info returns the API version and the state of both backends.
// GET /info
func (h *InfoHandler) Info(c echo.Context) error {
	ctx := c.Request().Context()

	transport := map[string]any{"connected": h.transport.Connected()}
	for _, queue := range monitoredQueues {
		transport[queue] = nil
	}
	if h.transport.Connected() {
		for _, queue := range monitoredQueues {
			if stats, err := h.transport.Stats(ctx, queue); err == nil {
				transport[queue] = stats
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"sensu":     map[string]string{"version": config.Version},
		"transport": transport,
		"redis":     map[string]bool{"connected": h.kv.Connected(ctx)},
	})
}

// Health returns 204 when both backends are connected and the monitored
// queues satisfy the optional consumers/messages thresholds, 412
// otherwise.
// GET /health
func (h *InfoHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	if !h.kv.Connected(ctx) || !h.transport.Connected() {
		return preconditionFailed(c)
	}

	minConsumers, hasMin := intQueryParam(c, "consumers")
	maxMessages, hasMax := intQueryParam(c, "messages")
	if !hasMin && !hasMax {
		return noContent(c)
	}

	for _, queue := range monitoredQueues {
		stats, err := h.transport.Stats(ctx, queue)
		if err != nil {
			return preconditionFailed(c)
		}
		if hasMin && stats.Consumers < minConsumers {
			return preconditionFailed(c)
		}
		if hasMax && stats.Messages > maxMessages {
			return preconditionFailed(c)
		}
	}

	return noContent(c)
}

// intQueryParam parses an integer query param, treating anything
// unparseable as absent.
func intQueryParam(c echo.Context, name string) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
