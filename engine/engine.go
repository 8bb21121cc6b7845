package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/sylvester-francis/sensu-api/core/registry"
	internalhttp "github.com/sylvester-francis/sensu-api/internal/adapters/http"
	registryadapter "github.com/sylvester-francis/sensu-api/internal/adapters/registry"
	transportadapter "github.com/sylvester-francis/sensu-api/internal/adapters/transport"
	"github.com/sylvester-francis/sensu-api/internal/config"
	"github.com/sylvester-francis/sensu-api/internal/defaults"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Engine wraps all application components and manages the lifecycle.
// Usage: New() -> (optional Registry().Register overrides) -> Init() ->
// Run() or Start()/Stop().
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
	reg    *registry.Registry
	echo   *echo.Echo
	router *internalhttp.Router
}

// New creates a new Engine: loads config, constructs the registry and
// transport backends, and registers the default modules. It does not
// connect or start the listener, so callers can still override modules.
func New(_ context.Context) (*Engine, error) {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	kv, err := registryadapter.NewRedisStore(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	transport := transportadapter.New(cfg.Transport.URL, logger)

	reg := registry.New(logger)
	defaults.RegisterAll(reg, defaults.Deps{
		KV:        kv,
		Transport: transport,
		Logger:    logger,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())

	router, err := internalhttp.NewRouter(e, internalhttp.Dependencies{
		KV:        reg.KVStore(),
		Transport: reg.Transport(),
		Modules:   reg,
		Config:    cfg,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize router: %w", err)
	}

	return &Engine{
		cfg:    cfg,
		logger: logger,
		reg:    reg,
		echo:   e,
		router: router,
	}, nil
}

// Registry returns the module registry for registering overrides.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Echo returns the underlying Echo instance.
func (e *Engine) Echo() *echo.Echo {
	return e.echo
}

// Init initializes all registered modules and registers HTTP routes.
// Call this after registering any module overrides.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.reg.InitAll(ctx); err != nil {
		return fmt.Errorf("initialize modules: %w", err)
	}
	e.router.RegisterRoutes()
	return nil
}

// Start launches the HTTP listener without blocking.
func (e *Engine) Start() {
	addr := e.cfg.API.Address()
	go func() {
		e.logger.Info("starting api", slog.String("address", addr))
		if err := e.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()
}

// Run starts the HTTP listener and blocks until SIGINT/SIGTERM, then
// shuts down gracefully.
func (e *Engine) Run(_ context.Context) error {
	e.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	e.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return e.Stop(ctx)
}

// Stop drains: the listener closes first, then the modules in reverse
// registration order (registry before transport).
func (e *Engine) Stop(ctx context.Context) error {
	if err := e.echo.Shutdown(ctx); err != nil {
		e.logger.Error("listener shutdown error", slog.String("error", err.Error()))
	}
	if err := e.reg.ShutdownAll(ctx); err != nil {
		return fmt.Errorf("module shutdown: %w", err)
	}
	return nil
}
