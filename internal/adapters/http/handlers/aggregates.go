package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/sensu-api/core/domain"
	"github.com/sylvester-francis/sensu-api/core/ports"
)

// AggregatesHandler serves the aggregate summary endpoints.
type AggregatesHandler struct {
	repairer
	kv ports.Registry
}

// NewAggregatesHandler creates a new AggregatesHandler.
func NewAggregatesHandler(kv ports.Registry, logger *slog.Logger) *AggregatesHandler {
	return &AggregatesHandler{repairer: newRepairer(kv, logger), kv: kv}
}

// List returns the known aggregate names.
// GET /aggregates
func (h *AggregatesHandler) List(c echo.Context) error {
	names, err := h.kv.SMembers(c.Request().Context(), domain.AggregatesSet)
	if err != nil {
		return fmt.Errorf("aggregates.List: %w", err)
	}

	list := make([]map[string]string, 0, len(names))
	for _, name := range names {
		list = append(list, map[string]string{"name": name})
	}
	return c.JSON(http.StatusOK, list)
}

// aggregateResult is one member's parsed result.
type aggregateResult struct {
	client string
	check  string
	status int
	output string
	stale  bool
}

// Get summarizes an aggregate's members by severity.
// GET /aggregates/:name
func (h *AggregatesHandler) Get(c echo.Context) error {
	results, err := h.memberResults(c)
	if err != nil {
		return err
	}
	if results == nil {
		return notFound(c)
	}

	clients := map[string]struct{}{}
	checks := map[string]struct{}{}
	counts := map[string]int{
		domain.SeverityOK:       0,
		domain.SeverityWarning:  0,
		domain.SeverityCritical: 0,
		domain.SeverityUnknown:  0,
		"total":                 0,
		"stale":                 0,
	}

	for _, r := range results {
		clients[r.client] = struct{}{}
		checks[r.check] = struct{}{}
		if r.stale {
			counts["stale"]++
			continue
		}
		counts[domain.Severity(r.status)]++
		counts["total"]++
	}

	return c.JSON(http.StatusOK, map[string]any{
		"clients": len(clients),
		"checks":  len(checks),
		"results": counts,
	})
}

// Delete removes an aggregate and its membership.
// DELETE /aggregates/:name
func (h *AggregatesHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")
	if !domain.ValidName(name) {
		return notFound(c)
	}

	exists, err := h.kv.Exists(ctx, domain.AggregateKey(name))
	if err != nil {
		return fmt.Errorf("aggregates.Delete: %w", err)
	}
	if !exists {
		return notFound(c)
	}

	if err := h.kv.SRem(ctx, domain.AggregatesSet, name); err != nil {
		return fmt.Errorf("aggregates.Delete: unindex: %w", err)
	}
	if err := h.kv.Del(ctx, domain.AggregateKey(name)); err != nil {
		return fmt.Errorf("aggregates.Delete: %w", err)
	}

	return noContent(c)
}

// Clients groups an aggregate's members by client.
// GET /aggregates/:name/clients
func (h *AggregatesHandler) Clients(c echo.Context) error {
	return h.grouped(c, func(client, check string) (string, string) {
		return client, check
	}, "checks")
}

// Checks groups an aggregate's members by check.
// GET /aggregates/:name/checks
func (h *AggregatesHandler) Checks(c echo.Context) error {
	return h.grouped(c, func(client, check string) (string, string) {
		return check, client
	}, "clients")
}

// grouped renders aggregate membership as [{name, <field>: [...]}].
func (h *AggregatesHandler) grouped(c echo.Context, split func(client, check string) (key, value string), field string) error {
	ctx := c.Request().Context()
	name := c.Param("name")
	if !domain.ValidName(name) {
		return notFound(c)
	}

	members, err := h.kv.SMembers(ctx, domain.AggregateKey(name))
	if err != nil {
		return fmt.Errorf("aggregates.grouped: %w", err)
	}
	if len(members) == 0 {
		return notFound(c)
	}

	groups := map[string][]string{}
	for _, member := range members {
		client, check, ok := domain.SplitAggregateMember(member)
		if !ok {
			continue
		}
		key, value := split(client, check)
		groups[key] = append(groups[key], value)
	}

	list := make([]map[string]any, 0, len(groups))
	for key, values := range groups {
		list = append(list, map[string]any{"name": key, field: values})
	}
	return c.JSON(http.StatusOK, list)
}

type severitySummary struct {
	Output  string   `json:"output"`
	Total   int      `json:"total"`
	Clients []string `json:"clients"`
}

type severityEntry struct {
	Check   string            `json:"check"`
	Summary []severitySummary `json:"summary"`
}

// ResultsBySeverity groups an aggregate's matching results by check and
// output.
// GET /aggregates/:name/results/:severity
func (h *AggregatesHandler) ResultsBySeverity(c echo.Context) error {
	severity := c.Param("severity")
	if !domain.ValidSeverity(severity) {
		return badRequest(c)
	}

	results, err := h.memberResults(c)
	if err != nil {
		return err
	}
	if results == nil {
		return notFound(c)
	}

	// check -> output -> clients
	groups := map[string]map[string][]string{}
	for _, r := range results {
		if r.stale || domain.Severity(r.status) != severity {
			continue
		}
		if groups[r.check] == nil {
			groups[r.check] = map[string][]string{}
		}
		groups[r.check][r.output] = append(groups[r.check][r.output], r.client)
	}

	entries := make([]severityEntry, 0, len(groups))
	for check, outputs := range groups {
		summary := make([]severitySummary, 0, len(outputs))
		for output, clients := range outputs {
			summary = append(summary, severitySummary{
				Output:  output,
				Total:   len(clients),
				Clients: clients,
			})
		}
		entries = append(entries, severityEntry{Check: check, Summary: summary})
	}

	return c.JSON(http.StatusOK, entries)
}

// memberResults reads every result referenced by the aggregate in the
// path, applying the optional max_age staleness window and repairing
// dangling members. Returns nil (no error) when the aggregate is empty
// or the name is malformed.
func (h *AggregatesHandler) memberResults(c echo.Context) ([]aggregateResult, error) {
	ctx := c.Request().Context()
	name := c.Param("name")
	if !domain.ValidName(name) {
		return nil, nil
	}

	members, err := h.kv.SMembers(ctx, domain.AggregateKey(name))
	if err != nil {
		return nil, fmt.Errorf("aggregates: enumerate %q: %w", name, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	maxAge, hasMaxAge := intQueryParam(c, "max_age")
	oldest := time.Now().Unix() - int64(maxAge)

	results := make([]aggregateResult, 0, len(members))
	for _, member := range members {
		client, check, ok := domain.SplitAggregateMember(member)
		if !ok {
			h.repair(domain.AggregateKey(name), member)
			continue
		}

		raw, err := h.kv.Get(ctx, domain.ResultKey(client, check))
		if errors.Is(err, domain.ErrNotFound) {
			h.repair(domain.AggregateKey(name), member)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("aggregates: read %q: %w", member, err)
		}

		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			continue
		}
		status, _ := intFrom(parsed["status"])
		executed, _ := intFrom(parsed["executed"])
		output, _ := parsed["output"].(string)

		results = append(results, aggregateResult{
			client: client,
			check:  check,
			status: int(status),
			output: output,
			stale:  hasMaxAge && executed < oldest,
		})
	}
	return results, nil
}
