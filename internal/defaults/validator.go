package defaults

import (
	"context"

	"github.com/sylvester-francis/sensu-api/core/domain"
	"github.com/sylvester-francis/sensu-api/core/ports"
	"github.com/sylvester-francis/sensu-api/core/registry"
)

var (
	_ registry.Module       = (*validatorModule)(nil)
	_ ports.ClientValidator = (*validatorModule)(nil)
)

// validatorModule is the default client schema check. Deployments with
// stricter registration policies override this module before Init.
type validatorModule struct{}

func newValidatorModule() *validatorModule { return &validatorModule{} }

func (m *validatorModule) Name() string                     { return registry.ModuleClientValidator }
func (m *validatorModule) Init(_ context.Context) error     { return nil }
func (m *validatorModule) Health(_ context.Context) error   { return nil }
func (m *validatorModule) Shutdown(_ context.Context) error { return nil }

// Valid accepts payloads with a well-formed name, an optional string
// address, and optional subscriptions given as an array of strings.
func (m *validatorModule) Valid(client map[string]any) bool {
	name, ok := client["name"].(string)
	if !ok || !domain.ValidName(name) {
		return false
	}

	if address, present := client["address"]; present && address != nil {
		if _, ok := address.(string); !ok {
			return false
		}
	}

	if subscriptions, present := client["subscriptions"]; present && subscriptions != nil {
		subs, ok := subscriptions.([]any)
		if !ok {
			return false
		}
		for _, s := range subs {
			if _, ok := s.(string); !ok {
				return false
			}
		}
	}

	return true
}
