package defaults

import (
	"log/slog"

	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/core/registry"
)

// Deps holds the backends needed to construct the default modules.
type Deps struct {
	KV        ports.Registry
	Transport ports.Transport
	Logger    *slog.Logger
}

// RegisterAll registers the default module implementations. Registration
// order drives lifecycle order: shutdown runs in reverse, so the kvstore
// is registered last to close before the transport.
func RegisterAll(reg *registry.Registry, deps Deps) {
	reg.Register(newValidatorModule())
	reg.Register(newTransportModule(deps.Transport, deps.Logger))
	reg.Register(newKVStoreModule(deps.KV, deps.Logger))
}
