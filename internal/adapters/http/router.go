package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/core/registry"
	"github.com/sylvester-francis/sensu-api/internal/adapters/http/handlers"
	"github.com/sylvester-francis/sensu-api/internal/adapters/http/middleware"
	"github.com/sylvester-francis/sensu-api/internal/config"
	"github.com/sylvester-francis/sensu-api/internal/core/services"
)

// Dependencies holds everything the router needs to build its handlers.
type Dependencies struct {
	KV        ports.Registry
	Transport ports.Transport
	Modules   *registry.Registry
	Config    *config.Config
	Logger    *slog.Logger
}

// Router wires the request pipeline and resource handlers onto an echo
// instance.
type Router struct {
	echo *echo.Echo
	deps Dependencies

	info       *handlers.InfoHandler
	clients    *handlers.ClientsHandler
	checks     *handlers.ChecksHandler
	events     *handlers.EventsHandler
	results    *handlers.ResultsHandler
	aggregates *handlers.AggregatesHandler
	stashes    *handlers.StashesHandler
}

// NewRouter creates a new Router instance.
func NewRouter(e *echo.Echo, deps Dependencies) (*Router, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	deps.Logger = logger

	publisher := services.NewPublisher(deps.Transport, logger)
	reaper := services.NewReaper(deps.KV, logger)

	return &Router{
		echo:       e,
		deps:       deps,
		info:       handlers.NewInfoHandler(deps.KV, deps.Transport),
		clients:    handlers.NewClientsHandler(deps.KV, publisher, reaper, deps.Modules, logger),
		checks:     handlers.NewChecksHandler(deps.Config.Checks, publisher),
		events:     handlers.NewEventsHandler(deps.KV, publisher),
		results:    handlers.NewResultsHandler(deps.KV, publisher, logger),
		aggregates: handlers.NewAggregatesHandler(deps.KV, logger),
		stashes:    handlers.NewStashesHandler(deps.KV, logger),
	}, nil
}

// RegisterRoutes installs the request pipeline and all routes.
//
// Pipeline order matters: log, stamp headers (answering OPTIONS), gate on
// backend connectivity, then authenticate. Specific routes are registered
// before the free-form stash tail so they cannot be shadowed.
func (r *Router) RegisterRoutes() {
	e := r.echo

	e.HTTPErrorHandler = r.errorHandler

	e.Use(middleware.RequestLogger(r.deps.Logger))
	e.Use(middleware.ResponseHeaders(r.deps.Config.CORSHeaders()))
	e.Use(middleware.RequireBackends(r.deps.KV, r.deps.Transport))
	e.Use(middleware.BasicAuth(r.deps.Config.API.User, r.deps.Config.API.Password))

	e.GET("/info", r.info.Info)
	e.GET("/health", r.info.Health)

	e.POST("/clients", r.clients.Create)
	e.GET("/clients", r.clients.List)
	e.GET("/clients/:client", r.clients.Get)
	e.GET("/clients/:client/history", r.clients.History)
	e.DELETE("/clients/:client", r.clients.Delete)

	e.GET("/checks", r.checks.List)
	e.GET("/checks/:check", r.checks.Get)
	e.POST("/request", r.checks.Request)

	e.GET("/events", r.events.List)
	e.GET("/events/:client", r.events.ListClient)
	e.GET("/events/:client/:check", r.events.Get)
	e.DELETE("/events/:client/:check", r.events.Delete)
	e.POST("/resolve", r.events.Resolve)

	e.POST("/results", r.results.Create)
	e.GET("/results", r.results.List)
	e.GET("/results/:client", r.results.ListClient)
	e.GET("/results/:client/:check", r.results.Get)
	e.DELETE("/results/:client/:check", r.results.Delete)

	e.GET("/aggregates", r.aggregates.List)
	e.GET("/aggregates/:name", r.aggregates.Get)
	e.DELETE("/aggregates/:name", r.aggregates.Delete)
	e.GET("/aggregates/:name/clients", r.aggregates.Clients)
	e.GET("/aggregates/:name/checks", r.aggregates.Checks)
	e.GET("/aggregates/:name/results/:severity", r.aggregates.ResultsBySeverity)

	e.POST("/stashes", r.stashes.Create)
	e.GET("/stashes", r.stashes.List)
	e.POST("/stash/*", r.stashes.SetPath)
	e.GET("/stash/*", r.stashes.GetPath)
	e.DELETE("/stash/*", r.stashes.DeletePath)
}

// errorHandler maps errors to the API's empty-body status contract:
// echo HTTP errors keep their code (method mismatches read as unknown
// routes), anything else is a logged 500.
func (r *Router) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if code == http.StatusMethodNotAllowed {
			code = http.StatusNotFound
		}
	}

	if code >= http.StatusInternalServerError {
		r.deps.Logger.Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.String("error", err.Error()),
		)
	}

	if err := c.NoContent(code); err != nil {
		r.deps.Logger.Error("response write failed", slog.String("error", err.Error()))
	}
}
