package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/sensu-api/core/domain"
	"github.com/sylvester-francis/sensu-api/internal/core/services"
)

// ChecksHandler serves the check definition endpoints and on-demand check
// requests.
type ChecksHandler struct {
	checks    map[string]map[string]any
	publisher *services.Publisher
}

// NewChecksHandler creates a new ChecksHandler over the configured check
// definition map.
func NewChecksHandler(checks map[string]map[string]any, publisher *services.Publisher) *ChecksHandler {
	return &ChecksHandler{checks: checks, publisher: publisher}
}

// List returns every configured check definition.
// GET /checks
func (h *ChecksHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.checks)
}

// Get returns a single check definition with its name folded in.
// GET /checks/:check
func (h *ChecksHandler) Get(c echo.Context) error {
	name := c.Param("check")
	if !domain.ValidName(name) {
		return notFound(c)
	}

	def, ok := h.checks[name]
	if !ok {
		return notFound(c)
	}

	check := map[string]any{"name": name}
	for k, v := range def {
		check[k] = v
	}
	return c.JSON(http.StatusOK, check)
}

var requestRules = map[string]fieldRule{
	"check":       {Kind: kindString},
	"subscribers": {Kind: kindArray, NilOK: true},
}

// Request dispatches an on-demand execution of a configured check,
// optionally overriding its subscribers.
// POST /request
func (h *ChecksHandler) Request(c echo.Context) error {
	data, err := readData(c, requestRules)
	if err != nil {
		return badRequest(c)
	}

	name := data["check"].(string)
	def, ok := h.checks[name]
	if !ok {
		return notFound(c)
	}

	check := map[string]any{}
	for k, v := range def {
		check[k] = v
	}
	check["name"] = name

	if subscribers, ok := data["subscribers"].([]any); ok {
		check["subscribers"] = subscribers
	} else if check["subscribers"] == nil {
		check["subscribers"] = []any{}
	}

	h.publisher.PublishRequest(c.Request().Context(), check)

	return issued(c)
}
