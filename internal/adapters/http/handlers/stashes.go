package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/sensu-api/core/domain"
	"github.com/sylvester-francis/sensu-api/core/ports"
)

// StashesHandler serves the key/value stash endpoints. Stash paths are
// free-form; everything after /stash/ is the path.
type StashesHandler struct {
	repairer
	kv ports.Registry
}

// NewStashesHandler creates a new StashesHandler.
func NewStashesHandler(kv ports.Registry, logger *slog.Logger) *StashesHandler {
	return &StashesHandler{repairer: newRepairer(kv, logger), kv: kv}
}

// SetPath stores the request body verbatim under the path.
// POST /stash/*
func (h *StashesHandler) SetPath(c echo.Context) error {
	ctx := c.Request().Context()
	path := c.Param("*")
	if path == "" {
		return notFound(c)
	}

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil || !json.Valid(raw) {
		return badRequest(c)
	}

	if err := h.kv.Set(ctx, domain.StashKey(path), string(raw)); err != nil {
		return fmt.Errorf("stashes.SetPath: %w", err)
	}
	if err := h.kv.SAdd(ctx, domain.StashesSet, path); err != nil {
		return fmt.Errorf("stashes.SetPath: index: %w", err)
	}

	return created(c, map[string]string{"path": path})
}

// GetPath returns the stored stash content.
// GET /stash/*
func (h *StashesHandler) GetPath(c echo.Context) error {
	path := c.Param("*")

	raw, err := h.kv.Get(c.Request().Context(), domain.StashKey(path))
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		return fmt.Errorf("stashes.GetPath: %w", err)
	}

	return c.JSONBlob(http.StatusOK, []byte(raw))
}

// DeletePath removes a stash.
// DELETE /stash/*
func (h *StashesHandler) DeletePath(c echo.Context) error {
	ctx := c.Request().Context()
	path := c.Param("*")

	exists, err := h.kv.Exists(ctx, domain.StashKey(path))
	if err != nil {
		return fmt.Errorf("stashes.DeletePath: %w", err)
	}
	if !exists {
		return notFound(c)
	}

	if err := h.kv.SRem(ctx, domain.StashesSet, path); err != nil {
		return fmt.Errorf("stashes.DeletePath: unindex: %w", err)
	}
	if err := h.kv.Del(ctx, domain.StashKey(path)); err != nil {
		return fmt.Errorf("stashes.DeletePath: %w", err)
	}

	return noContent(c)
}

type stashEntry struct {
	Path    string          `json:"path"`
	Content json.RawMessage `json:"content"`
	Expire  int64           `json:"expire"`
}

// List enumerates every stash with its content and remaining TTL,
// paginated after assembly.
// GET /stashes
func (h *StashesHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	paths, err := h.kv.SMembers(ctx, domain.StashesSet)
	if err != nil {
		return fmt.Errorf("stashes.List: %w", err)
	}

	entries := make([]stashEntry, 0, len(paths))
	for _, path := range paths {
		raw, err := h.kv.Get(ctx, domain.StashKey(path))
		if errors.Is(err, domain.ErrNotFound) {
			h.repair(domain.StashesSet, path)
			continue
		}
		if err != nil {
			return fmt.Errorf("stashes.List: read %q: %w", path, err)
		}

		ttl, err := h.kv.TTL(ctx, domain.StashKey(path))
		if err != nil {
			return fmt.Errorf("stashes.List: ttl %q: %w", path, err)
		}

		entries = append(entries, stashEntry{
			Path:    path,
			Content: json.RawMessage(raw),
			Expire:  ttl,
		})
	}

	return c.JSON(http.StatusOK, paginate(c, entries))
}

var stashRules = map[string]fieldRule{
	"path":    {Kind: kindString},
	"content": {Kind: kindObject},
	"expire":  {Kind: kindInt, NilOK: true},
}

// Create stores a stash from a structured body, optionally with a TTL.
// POST /stashes
func (h *StashesHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	data, err := readData(c, stashRules)
	if err != nil {
		return badRequest(c)
	}
	path := data["path"].(string)

	content, err := json.Marshal(data["content"])
	if err != nil {
		return badRequest(c)
	}

	if err := h.kv.Set(ctx, domain.StashKey(path), string(content)); err != nil {
		return fmt.Errorf("stashes.Create: %w", err)
	}
	if err := h.kv.SAdd(ctx, domain.StashesSet, path); err != nil {
		return fmt.Errorf("stashes.Create: index: %w", err)
	}
	if expire, ok := intFrom(data["expire"]); ok {
		if err := h.kv.Expire(ctx, domain.StashKey(path), expire); err != nil {
			return fmt.Errorf("stashes.Create: expire: %w", err)
		}
	}

	return created(c, map[string]string{"path": path})
}
