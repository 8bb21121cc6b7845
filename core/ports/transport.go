package ports

import "context"

// ExchangeType selects how the transport routes a published message.
type ExchangeType string

const (
	// ExchangeDirect delivers to the single queue bound to the pipe.
	ExchangeDirect ExchangeType = "direct"

	// ExchangeFanout delivers to every queue bound to the pipe.
	ExchangeFanout ExchangeType = "fanout"
)

// QueueStats describes the depth and consumer count of a transport queue.
type QueueStats struct {
	Messages  int `json:"messages"`
	Consumers int `json:"consumers"`
}

// Transport is the message bus carrying check requests and check results
// to the rest of the monitoring pipeline.
type Transport interface {
	// Publish sends payload on the named pipe using the given exchange
	// type.
	Publish(ctx context.Context, exchange ExchangeType, pipe string, payload []byte) error

	// Stats reports the current depth and consumer count of a queue.
	Stats(ctx context.Context, queue string) (QueueStats, error)

	// Connected reports whether the bus is currently reachable.
	Connected() bool

	Close() error
}
