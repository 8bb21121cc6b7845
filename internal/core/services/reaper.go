package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/sylvester-francis/sensu-api/core/domain"
	"github.com/sylvester-francis/sensu-api/core/ports"
)

// maxProbes bounds the event drain loop during a client purge.
const maxProbes = 5

// Reaper removes deleted clients from the registry. A purge waits for the
// pipeline to clear the client's events (resolutions are published before
// the purge starts) and then deletes every key the client owns.
type Reaper struct {
	kv     ports.Registry
	logger *slog.Logger

	// probeInterval separates event probes. Overridden in tests.
	probeInterval time.Duration
}

// NewReaper creates a new Reaper.
func NewReaper(kv ports.Registry, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{kv: kv, logger: logger, probeInterval: time.Second}
}

// PurgeClient drains and deletes a client. It is detached from any
// request lifetime: callers run it in its own goroutine and the HTTP
// response has already been issued when it starts.
func (r *Reaper) PurgeClient(name string) {
	ctx := context.Background()

	for attempt := 0; ; attempt++ {
		events, err := r.kv.HGetAll(ctx, domain.EventsKey(name))
		if err != nil {
			r.logger.Error("client purge event probe failed",
				slog.String("client", name),
				slog.String("error", err.Error()),
			)
			break
		}
		if len(events) == 0 || attempt == maxProbes {
			break
		}
		time.Sleep(r.probeInterval)
	}

	r.purge(ctx, name)
}

// purge deletes every registry key the client owns and removes it from
// the client index.
func (r *Reaper) purge(ctx context.Context, name string) {
	if err := r.kv.SRem(ctx, domain.ClientsSet, name); err != nil {
		r.logger.Error("client purge failed",
			slog.String("client", name),
			slog.String("error", err.Error()),
		)
		return
	}

	del := func(key string) {
		if err := r.kv.Del(ctx, key); err != nil {
			r.logger.Error("client purge key delete failed",
				slog.String("client", name),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	del(domain.ClientKey(name))
	del(domain.ClientSignatureKey(name))
	del(domain.EventsKey(name))

	checks, err := r.kv.SMembers(ctx, domain.ResultSetKey(name))
	if err != nil {
		r.logger.Error("client purge result enumeration failed",
			slog.String("client", name),
			slog.String("error", err.Error()),
		)
	}
	for _, check := range checks {
		del(domain.ResultKey(name, check))
		del(domain.HistoryKey(name, check))
	}
	del(domain.ResultSetKey(name))

	r.logger.Info("client purged", slog.String("client", name))
}
