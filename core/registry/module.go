package registry

import "context"

// Module is a pluggable component with lifecycle management. The kvstore,
// transport, and client validator are modules; registering under an
// existing name replaces that module for lifecycle calls. The HTTP
// handlers look up the client validator on each request, but keep the
// kvstore and transport they were built with in engine.New, so replacing
// those two afterwards does not change what the handlers use.
type Module interface {
	// Name returns a unique identifier for this module.
	Name() string

	// Init is called at startup to initialize the module.
	Init(ctx context.Context) error

	// Health returns nil if the module is healthy.
	Health(ctx context.Context) error

	// Shutdown is called during graceful shutdown.
	Shutdown(ctx context.Context) error
}
