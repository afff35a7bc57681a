package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

var (
	ErrNATSURLRequired     = errors.New("messaging: nats url is required")
	ErrNATSSubjectRequired = errors.New("messaging: nats subject is required")
	ErrNATSHandlerRequired = errors.New("messaging: nats handler is required")
)

// NATSConfig configures the NATS backend.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS implements Messaging over core NATS subjects.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}
	return &NATS{conn: conn}, nil
}

func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	subs := append([]*nats.Subscription(nil), n.subs...)
	n.mu.Unlock()

	var errs error
	for _, sub := range subs {
		errs = errors.Join(errs, sub.Drain())
	}
	errs = errors.Join(errs, n.conn.Drain())
	n.conn.Close()
	return errs
}

func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNATSSubjectRequired
	}

	out := nats.NewMsg(destination)
	out.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key != "" {
			out.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(out); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.Flush(); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats flush: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Consume subscribes to the subject, optionally within a queue group, and
// feeds messages to a fixed pool of handler goroutines until ctx ends.
func (n *NATS) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrNATSSubjectRequired
	}
	if handler == nil {
		return ErrNATSHandlerRequired
	}

	co := buildConsumeOptions(opts)
	workers := workerCount(co.concurrency)

	queue := make(chan *nats.Msg, workers)
	sub, err := n.conn.QueueSubscribe(source, co.queueGroup, func(m *nats.Msg) {
		select {
		case queue <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range queue {
				wrapped := &natsMessage{msg: m, receivedAt: time.Now()}
				herr := invokeHandler(ctx, "nats", handler, wrapped)
				if co.autoAck && !wrapped.settled.Load() {
					_ = settle(ctx, wrapped, herr)
				}
			}
		}()
	}

	stop := func() error {
		derr := sub.Drain()
		close(queue)
		wg.Wait()
		return derr
	}

	if err := n.track(sub); err != nil {
		return errors.Join(err, stop())
	}
	if err := n.conn.Flush(); err != nil {
		return errors.Join(fmt.Errorf("messaging: nats flush: %w", err), stop())
	}

	<-ctx.Done()
	return errors.Join(ctx.Err(), stop())
}

func (n *NATS) track(sub *nats.Subscription) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return io.ErrClosedPipe
	}
	n.subs = append(n.subs, sub)
	return nil
}

type natsMessage struct {
	msg        *nats.Msg
	receivedAt time.Time
	settled    atomic.Bool
}

func (m *natsMessage) Body() []byte { return m.msg.Data }
func (m *natsMessage) Key() []byte  { return nil }

func (m *natsMessage) Headers() []Header {
	var headers []Header
	for k, values := range m.msg.Header {
		for _, v := range values {
			headers = append(headers, Header{Key: k, Value: []byte(v)})
		}
	}
	return headers
}

func (m *natsMessage) Attributes() map[string]string {
	if len(m.msg.Header) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(m.msg.Header))
	for k, values := range m.msg.Header {
		if len(values) > 0 {
			attrs[k] = values[0]
		}
	}
	return attrs
}

func (m *natsMessage) ID() string           { return "" }
func (m *natsMessage) Topic() string        { return "" }
func (m *natsMessage) Subject() string      { return m.msg.Subject }
func (m *natsMessage) Timestamp() time.Time { return m.receivedAt }

func (m *natsMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.settled.Swap(true) {
		return nil
	}
	if err := m.msg.Ack(); err != nil && !natsAckUnsupported(err) {
		return err
	}
	return nil
}

func (m *natsMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.settled.Swap(true) {
		return nil
	}
	if err := m.msg.Nak(); err != nil && !natsAckUnsupported(err) {
		return err
	}
	return nil
}

// core NATS messages have no reply subject to ack on, only JetStream does
func natsAckUnsupported(err error) bool {
	return errors.Is(err, nats.ErrMsgNoReply) || errors.Is(err, nats.ErrMsgNotBound)
}
