package defaults

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/core/registry"
)

var (
	_ registry.Module = (*kvstoreModule)(nil)
	_ ports.Registry  = (*kvstoreModule)(nil)
)

// kvstoreModule wraps the registry backend with module lifecycle. An
// unreachable store does not fail startup; the request pipeline reports
// it per request instead.
type kvstoreModule struct {
	ports.Registry
	logger *slog.Logger
}

func newKVStoreModule(kv ports.Registry, logger *slog.Logger) *kvstoreModule {
	if logger == nil {
		logger = slog.Default()
	}
	return &kvstoreModule{Registry: kv, logger: logger}
}

func (m *kvstoreModule) Name() string { return registry.ModuleKVStore }

func (m *kvstoreModule) Init(ctx context.Context) error {
	if !m.Connected(ctx) {
		m.logger.Warn("registry unreachable at startup")
		return nil
	}
	m.logger.Info("connected to registry")
	return nil
}

func (m *kvstoreModule) Health(ctx context.Context) error {
	if !m.Connected(ctx) {
		return errors.New("registry not connected")
	}
	return nil
}

func (m *kvstoreModule) Shutdown(_ context.Context) error {
	return m.Close()
}
