package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

var (
	ErrPubSubProjectIDRequired    = errors.New("messaging: pubsub project id is required")
	ErrPubSubTopicRequired        = errors.New("messaging: pubsub topic is required")
	ErrPubSubSubscriptionRequired = errors.New("messaging: pubsub subscription is required")
	ErrPubSubHandlerRequired      = errors.New("messaging: pubsub handler is required")
)

// PubSubConfig configures the Google Pub/Sub backend. A prebuilt Client
// takes priority over ProjectID.
type PubSubConfig struct {
	ProjectID     string
	Client        *pubsub.Client
	ClientOptions []option.ClientOption
}

// PubSub implements Messaging over Google Pub/Sub, with one lazily created
// publisher per topic.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	client := cfg.Client
	if client == nil {
		if cfg.ProjectID == "" {
			return nil, ErrPubSubProjectIDRequired
		}
		var err error
		if client, err = pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...); err != nil {
			return nil, fmt.Errorf("messaging: pubsub client: %w", err)
		}
	}
	return &PubSub{client: client, publishers: map[string]*pubsub.Publisher{}}, nil
}

func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := make([]*pubsub.Publisher, 0, len(p.publishers))
	for _, pub := range p.publishers {
		pubs = append(pubs, pub)
	}
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}

func (p *PubSub) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrPubSubTopicRequired
	}

	pub, err := p.publisher(destination)
	if err != nil {
		return PublishResult{}, err
	}

	attrs := msg.Attributes
	if attrs == nil && len(msg.Headers) > 0 {
		attrs = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			if _, ok := attrs[h.Key]; !ok {
				attrs[h.Key] = string(h.Value)
			}
		}
	}

	id, err := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  attrs,
		OrderingKey: msg.OrderingKey,
	}).Get(ctx)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return PublishResult{MessageID: id, Topic: destination}, nil
}

// Consume receives from a subscription. When WithSubscription is given,
// source names the topic and the option names the subscription; otherwise
// source is the subscription itself.
func (p *PubSub) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrPubSubSubscriptionRequired
	}
	if handler == nil {
		return ErrPubSubHandlerRequired
	}

	co := buildConsumeOptions(opts)

	topic, subscription := "", source
	if co.subscription != "" {
		topic, subscription = source, co.subscription
	}

	sub := p.client.Subscriber(subscription)
	if co.concurrency > 0 {
		sub.ReceiveSettings.NumGoroutines = co.concurrency
	}
	if co.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight
	}

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		wrapped := &pubSubMessage{topic: topic, subscription: subscription, msg: m}
		herr := invokeHandler(ctx, "pubsub", handler, wrapped)
		if co.autoAck && !wrapped.settled.Load() {
			_ = settle(ctx, wrapped, herr)
		}
	})
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, io.ErrClosedPipe
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}

	pub := p.client.Publisher(topic)
	p.publishers[topic] = pub
	return pub, nil
}

type pubSubMessage struct {
	topic        string
	subscription string
	msg          *pubsub.Message
	settled      atomic.Bool
}

func (m *pubSubMessage) Body() []byte                  { return m.msg.Data }
func (m *pubSubMessage) Key() []byte                   { return nil }
func (m *pubSubMessage) Headers() []Header             { return nil }
func (m *pubSubMessage) Attributes() map[string]string { return m.msg.Attributes }
func (m *pubSubMessage) ID() string                    { return m.msg.ID }
func (m *pubSubMessage) Topic() string                 { return m.topic }
func (m *pubSubMessage) Subject() string               { return "" }
func (m *pubSubMessage) Timestamp() time.Time          { return m.msg.PublishTime }

func (m *pubSubMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.settled.Swap(true) {
		m.msg.Ack()
	}
	return nil
}

func (m *pubSubMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.settled.Swap(true) {
		m.msg.Nack()
	}
	return nil
}
