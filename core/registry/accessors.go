package registry

import "github.com/sylvester-francis/sensu-api/core/ports"

// Module name constants used by default implementations and typed accessors.
const (
	ModuleKVStore         = "kvstore"
	ModuleTransport       = "transport"
	ModuleClientValidator = "client_validator"
)

// KVStore returns the registered key/value store module.
func (r *Registry) KVStore() ports.Registry {
	return r.MustGet(ModuleKVStore).(ports.Registry)
}

// Transport returns the registered transport module.
func (r *Registry) Transport() ports.Transport {
	return r.MustGet(ModuleTransport).(ports.Transport)
}

// ClientValidator returns the registered client validator module.
func (r *Registry) ClientValidator() ports.ClientValidator {
	return r.MustGet(ModuleClientValidator).(ports.ClientValidator)
}
