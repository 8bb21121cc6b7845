package defaults

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/core/registry"
)

var (
	_ registry.Module = (*transportModule)(nil)
	_ ports.Transport = (*transportModule)(nil)
)

// connector is satisfied by transports that dial lazily.
type connector interface {
	Connect(ctx context.Context) error
}

// transportModule wraps the message bus with module lifecycle. Like the
// kvstore, a dead broker at startup is reported per request, not fatal.
type transportModule struct {
	ports.Transport
	logger *slog.Logger
}

func newTransportModule(transport ports.Transport, logger *slog.Logger) *transportModule {
	if logger == nil {
		logger = slog.Default()
	}
	return &transportModule{Transport: transport, logger: logger}
}

func (m *transportModule) Name() string { return registry.ModuleTransport }

func (m *transportModule) Init(ctx context.Context) error {
	if dialer, ok := m.Transport.(connector); ok {
		if err := dialer.Connect(ctx); err != nil {
			m.logger.Warn("transport unreachable at startup", slog.String("error", err.Error()))
			return nil
		}
	}
	if m.Connected() {
		m.logger.Info("connected to transport")
	}
	return nil
}

func (m *transportModule) Health(_ context.Context) error {
	if !m.Connected() {
		return errors.New("transport not connected")
	}
	return nil
}

func (m *transportModule) Shutdown(_ context.Context) error {
	return m.Close()
}
