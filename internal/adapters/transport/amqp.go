package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sylvester-francis/sensu-api/core/ports"
)

var _ ports.Transport = (*AMQPTransport)(nil)

// ErrNotConnected is returned by operations attempted while the broker
// connection is down.
var ErrNotConnected = errors.New("transport not connected")

// AMQPTransport implements ports.Transport on top of RabbitMQ. Each pipe
// is an exchange of the requested type; queue statistics come from a
// passive declare.
type AMQPTransport struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// New creates a transport for the given amqp:// URL. No connection is
// attempted until Connect.
func New(url string, logger *slog.Logger) *AMQPTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPTransport{url: url, logger: logger}
}

// Connect dials the broker and opens the publish channel.
func (t *AMQPTransport) Connect(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn, err := amqp.Dial(t.url)
	if err != nil {
		return fmt.Errorf("transport.Connect: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("transport.Connect: open channel: %w", err)
	}

	t.conn = conn
	t.ch = ch
	return nil
}

// channel returns the publish channel, reopening it if a previous
// operation closed it. Caller must hold t.mu.
func (t *AMQPTransport) channel() (*amqp.Channel, error) {
	if t.conn == nil || t.conn.IsClosed() {
		return nil, ErrNotConnected
	}
	if t.ch == nil || t.ch.IsClosed() {
		ch, err := t.conn.Channel()
		if err != nil {
			return nil, fmt.Errorf("open channel: %w", err)
		}
		t.ch = ch
	}
	return t.ch, nil
}

// Publish declares the pipe as an exchange of the requested type and
// publishes payload to it.
func (t *AMQPTransport) Publish(ctx context.Context, exchange ports.ExchangeType, pipe string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, err := t.channel()
	if err != nil {
		return fmt.Errorf("transport.Publish: %w", err)
	}

	if err := ch.ExchangeDeclare(pipe, string(exchange), false, true, false, false, nil); err != nil {
		return fmt.Errorf("transport.Publish: declare %q: %w", pipe, err)
	}

	err = ch.PublishWithContext(ctx, pipe, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("transport.Publish: %w", err)
	}
	return nil
}

// Stats inspects a queue without modifying it. A passive declare on a
// missing queue closes the channel; the next operation reopens it.
func (t *AMQPTransport) Stats(_ context.Context, queue string) (ports.QueueStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, err := t.channel()
	if err != nil {
		return ports.QueueStats{}, fmt.Errorf("transport.Stats: %w", err)
	}

	q, err := ch.QueueDeclarePassive(queue, false, false, false, false, nil)
	if err != nil {
		t.ch = nil
		return ports.QueueStats{}, fmt.Errorf("transport.Stats: inspect %q: %w", queue, err)
	}

	return ports.QueueStats{Messages: q.Messages, Consumers: q.Consumers}, nil
}

// Connected reports whether the broker connection is up.
func (t *AMQPTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil && !t.conn.IsClosed()
}

// Close tears down the channel and connection.
func (t *AMQPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ch != nil && !t.ch.IsClosed() {
		if err := t.ch.Close(); err != nil {
			t.logger.Error("transport channel close failed", slog.String("error", err.Error()))
		}
	}
	t.ch = nil

	if t.conn == nil || t.conn.IsClosed() {
		t.conn = nil
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
