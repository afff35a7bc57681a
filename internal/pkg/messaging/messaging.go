// Package messaging is a broker-agnostic publish/consume layer. The ledger
// talks to this interface; NATS, NSQ, Kafka and Google Pub/Sub back it.
package messaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/YessineAmor/stampd/internal/pkg/stacktrace"
)

// Messaging can both publish and consume.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher sends a message to a destination. Depending on the broker the
// destination is a topic or a subject.
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer receives messages from a source until the context is canceled.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one received message. With auto-ack enabled, a nil
// return acks the message and an error nacks it.
type Handler func(ctx context.Context, msg Message) error

// Header is one message header entry. Duplicate keys are allowed.
type Header struct {
	Key   string
	Value []byte
}

// OutgoingMessage is a message to publish, using whichever fields the
// selected broker understands.
type OutgoingMessage struct {
	Body        []byte
	Key         []byte            // Kafka partitioning key
	Headers     []Header          // NATS and Kafka headers
	Attributes  map[string]string // Pub/Sub attributes
	OrderingKey string            // Pub/Sub ordering
}

// PublishResult reports what the broker assigned to the published message.
// Fields not supported by the broker stay zero.
type PublishResult struct {
	MessageID string
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// Message is a received message.
type Message interface {
	Body() []byte
	Key() []byte
	Headers() []Header
	Attributes() map[string]string

	ID() string
	Topic() string
	Subject() string
	Timestamp() time.Time

	// Ack marks the message as processed. Acking twice is a no-op.
	Ack(ctx context.Context) error
}

// Nackable is implemented by messages whose broker supports requeueing.
type Nackable interface {
	Nack(ctx context.Context) error
}

type consumeOptions struct {
	concurrency  int
	maxInFlight  int
	autoAck      bool
	group        string // Kafka consumer group
	channel      string // NSQ channel
	queueGroup   string // NATS queue group
	subscription string // Pub/Sub subscription
}

// ConsumeOption tunes Consume behavior.
type ConsumeOption func(*consumeOptions)

func buildConsumeOptions(opts []ConsumeOption) consumeOptions {
	var co consumeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	return co
}

// WithConcurrency sets how many handler goroutines run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithMaxInFlight caps the number of unacknowledged messages.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}

// WithAutoAck makes the wrapper ack or nack based on the handler result.
func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}

// WithGroup sets the Kafka consumer group.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithChannel sets the NSQ channel.
func WithChannel(channel string) ConsumeOption {
	return func(o *consumeOptions) { o.channel = channel }
}

// WithQueueGroup sets the NATS queue group.
func WithQueueGroup(queueGroup string) ConsumeOption {
	return func(o *consumeOptions) { o.queueGroup = queueGroup }
}

// WithSubscription sets the Pub/Sub subscription name.
func WithSubscription(subscription string) ConsumeOption {
	return func(o *consumeOptions) { o.subscription = subscription }
}

func workerCount(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// invokeHandler runs the handler and converts a panic into an error so one
// bad message cannot take the consumer down.
func invokeHandler(ctx context.Context, broker string, handler Handler, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "broker", broker, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "broker", broker, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", broker, rvr)
		}
	}()

	return handler(ctx, msg)
}

// settle acks or nacks msg according to the handler outcome; used by the
// drivers when auto-ack is on.
func settle(ctx context.Context, msg Message, handlerErr error) error {
	if handlerErr == nil {
		return msg.Ack(ctx)
	}
	if n, ok := msg.(Nackable); ok {
		return n.Nack(ctx)
	}
	return nil
}
