package mocks

import (
	"context"
	"sync"

	"github.com/sylvester-francis/sensu-api/core/ports"
)

// Compile-time interface checks.
var (
	_ ports.Transport       = (*MockTransport)(nil)
	_ ports.Registry        = (*MockRegistry)(nil)
	_ ports.ClientValidator = (*MockValidator)(nil)
)

// Published records one transport publish.
type Published struct {
	Exchange ports.ExchangeType
	Pipe     string
	Payload  []byte
}

// MockTransport is a mock implementation of ports.Transport. Publishes
// are recorded unless PublishFn is set.
type MockTransport struct {
	mu        sync.Mutex
	published []Published

	PublishFn   func(ctx context.Context, exchange ports.ExchangeType, pipe string, payload []byte) error
	StatsFn     func(ctx context.Context, queue string) (ports.QueueStats, error)
	ConnectedFn func() bool
	CloseFn     func() error
}

func (m *MockTransport) Publish(ctx context.Context, exchange ports.ExchangeType, pipe string, payload []byte) error {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, exchange, pipe, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, Published{Exchange: exchange, Pipe: pipe, Payload: payload})
	return nil
}

// Published returns the recorded publishes.
func (m *MockTransport) Published() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.published...)
}

func (m *MockTransport) Stats(ctx context.Context, queue string) (ports.QueueStats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx, queue)
	}
	return ports.QueueStats{}, nil
}

func (m *MockTransport) Connected() bool {
	if m.ConnectedFn != nil {
		return m.ConnectedFn()
	}
	return true
}

func (m *MockTransport) Close() error {
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

// MockRegistry is a mock implementation of ports.Registry for error-path
// tests; handler tests normally run against an in-process Redis instead.
type MockRegistry struct {
	GetFn      func(ctx context.Context, key string) (string, error)
	SetFn      func(ctx context.Context, key, value string) error
	DelFn      func(ctx context.Context, key string) error
	ExistsFn   func(ctx context.Context, key string) (bool, error)
	ExpireFn   func(ctx context.Context, key string, seconds int64) error
	TTLFn      func(ctx context.Context, key string) (int64, error)
	SAddFn     func(ctx context.Context, key, member string) error
	SRemFn     func(ctx context.Context, key, member string) error
	SMembersFn func(ctx context.Context, key string) ([]string, error)
	HGetAllFn  func(ctx context.Context, key string) (map[string]string, error)
	LRangeFn   func(ctx context.Context, key string, start, stop int64) ([]string, error)

	ConnectedFn func(ctx context.Context) bool
	CloseFn     func() error
}

func (m *MockRegistry) Get(ctx context.Context, key string) (string, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return "", nil
}

func (m *MockRegistry) Set(ctx context.Context, key, value string) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value)
	}
	return nil
}

func (m *MockRegistry) Del(ctx context.Context, key string) error {
	if m.DelFn != nil {
		return m.DelFn(ctx, key)
	}
	return nil
}

func (m *MockRegistry) Exists(ctx context.Context, key string) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, key)
	}
	return false, nil
}

func (m *MockRegistry) Expire(ctx context.Context, key string, seconds int64) error {
	if m.ExpireFn != nil {
		return m.ExpireFn(ctx, key, seconds)
	}
	return nil
}

func (m *MockRegistry) TTL(ctx context.Context, key string) (int64, error) {
	if m.TTLFn != nil {
		return m.TTLFn(ctx, key)
	}
	return -1, nil
}

func (m *MockRegistry) SAdd(ctx context.Context, key, member string) error {
	if m.SAddFn != nil {
		return m.SAddFn(ctx, key, member)
	}
	return nil
}

func (m *MockRegistry) SRem(ctx context.Context, key, member string) error {
	if m.SRemFn != nil {
		return m.SRemFn(ctx, key, member)
	}
	return nil
}

func (m *MockRegistry) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.SMembersFn != nil {
		return m.SMembersFn(ctx, key)
	}
	return nil, nil
}

func (m *MockRegistry) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.HGetAllFn != nil {
		return m.HGetAllFn(ctx, key)
	}
	return nil, nil
}

func (m *MockRegistry) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if m.LRangeFn != nil {
		return m.LRangeFn(ctx, key, start, stop)
	}
	return nil, nil
}

func (m *MockRegistry) Connected(ctx context.Context) bool {
	if m.ConnectedFn != nil {
		return m.ConnectedFn(ctx)
	}
	return true
}

func (m *MockRegistry) Close() error {
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

// MockValidator is a mock implementation of ports.ClientValidator.
type MockValidator struct {
	ValidFn func(client map[string]any) bool
}

func (m *MockValidator) Valid(client map[string]any) bool {
	if m.ValidFn != nil {
		return m.ValidFn(client)
	}
	return true
}
