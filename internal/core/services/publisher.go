package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/sylvester-francis/sensu-api/core/ports"
)

// ResultsPipe is the queue check results are published to.
const ResultsPipe = "results"

// KeepalivesPipe is the queue client keepalives travel on. The API never
// publishes to it but reports its depth.
const KeepalivesPipe = "keepalives"

// resolutionOutput is stamped into the pseudo-result that clears an event.
const resolutionOutput = "Resolving on request of the API"

// Publisher dispatches check requests and check results onto the
// transport. Publish failures are logged and never surfaced to HTTP
// callers; handlers publish before writing their 202 acknowledgment, and
// its status does not depend on the publish outcome.
type Publisher struct {
	transport ports.Transport
	logger    *slog.Logger
}

// NewPublisher creates a new Publisher.
func NewPublisher(transport ports.Transport, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{transport: transport, logger: logger}
}

// PublishRequest stamps the check request with an issued time and
// publishes it once per subscription. Subscriptions of the form
// "direct:<topic>" or "roundrobin:<topic>" go to a direct exchange; all
// others fan out. The full subscription string is the pipe either way.
func (p *Publisher) PublishRequest(ctx context.Context, check map[string]any) {
	check["issued"] = time.Now().Unix()

	payload, err := json.Marshal(check)
	if err != nil {
		p.logger.Error("failed to encode check request",
			slog.Any("check", check["name"]),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, sub := range subscriptions(check) {
		if err := p.transport.Publish(ctx, exchangeFor(sub), sub, payload); err != nil {
			p.logger.Error("failed to publish check request",
				slog.Any("check", check["name"]),
				slog.String("subscription", sub),
				slog.String("error", err.Error()),
			)
		}
	}
}

// PublishResult wraps check as a result for the named client, stamps
// issued/executed, defaults status to 0, and publishes it to the results
// queue.
func (p *Publisher) PublishResult(ctx context.Context, client string, check map[string]any) {
	now := time.Now().Unix()
	check["issued"] = now
	check["executed"] = now
	if check["status"] == nil {
		check["status"] = 0
	}

	payload, err := json.Marshal(map[string]any{
		"client": client,
		"check":  check,
	})
	if err != nil {
		p.logger.Error("failed to encode check result",
			slog.String("client", client),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := p.transport.Publish(ctx, ports.ExchangeDirect, ResultsPipe, payload); err != nil {
		p.logger.Error("failed to publish check result",
			slog.String("client", client),
			slog.String("error", err.Error()),
		)
	}
}

// ResolveEvent publishes the pseudo-result that clears a stored event: the
// event's check merged with a forced OK resolution, attributed to the
// event's client.
func (p *Publisher) ResolveEvent(ctx context.Context, client string, eventJSON string) {
	var event map[string]any
	if err := json.Unmarshal([]byte(eventJSON), &event); err != nil {
		p.logger.Error("failed to decode stored event",
			slog.String("client", client),
			slog.String("error", err.Error()),
		)
		return
	}

	check := map[string]any{}
	if stored, ok := event["check"].(map[string]any); ok {
		for k, v := range stored {
			check[k] = v
		}
	}
	check["output"] = resolutionOutput
	check["status"] = 0
	check["force_resolve"] = true
	delete(check, "history")

	if ec, ok := event["client"].(map[string]any); ok {
		if name, ok := ec["name"].(string); ok && name != "" {
			client = name
		}
	}

	p.PublishResult(ctx, client, check)
}

// subscriptions extracts the subscription strings from a check request,
// skipping anything that is not a string.
func subscriptions(check map[string]any) []string {
	raw, ok := check["subscribers"].([]any)
	if !ok {
		return nil
	}
	subs := make([]string, 0, len(raw))
	for _, s := range raw {
		if sub, ok := s.(string); ok {
			subs = append(subs, sub)
		}
	}
	return subs
}

// exchangeFor selects the exchange type for a subscription string.
func exchangeFor(sub string) ports.ExchangeType {
	kind, _, ok := strings.Cut(sub, ":")
	if ok && (kind == "direct" || kind == "roundrobin") {
		return ports.ExchangeDirect
	}
	return ports.ExchangeFanout
}
