package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	ErrNSQTopicRequired         = errors.New("messaging: nsq topic is required")
	ErrNSQChannelRequired       = errors.New("messaging: nsq channel is required")
	ErrNSQHandlerRequired       = errors.New("messaging: nsq handler is required")
	ErrNSQProducerAddrRequired  = errors.New("messaging: nsq producer address is required")
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq consumer addresses are required")
)

// NSQConfig configures the NSQ backend. Consumers prefer lookupd discovery
// and fall back to direct nsqd addresses.
type NSQConfig struct {
	ProducerAddr         string
	ConsumerNSQDAddrs    []string
	ConsumerLookupdAddrs []string
	ProducerConfig       *nsq.Config
	ConsumerConfig       *nsq.Config
}

// NSQ implements Messaging over NSQ topics and channels.
type NSQ struct {
	producer       *nsq.Producer
	nsqdAddrs      []string
	lookupdAddrs   []string
	consumerConfig *nsq.Config

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	var producer *nsq.Producer
	if cfg.ProducerAddr != "" {
		pcfg := cfg.ProducerConfig
		if pcfg == nil {
			pcfg = nsq.NewConfig()
		}
		p, err := nsq.NewProducer(cfg.ProducerAddr, pcfg)
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		producer = p
	}

	ccfg := cfg.ConsumerConfig
	if ccfg == nil {
		ccfg = nsq.NewConfig()
	}

	return &NSQ{
		producer:       producer,
		nsqdAddrs:      append([]string(nil), cfg.ConsumerNSQDAddrs...),
		lookupdAddrs:   append([]string(nil), cfg.ConsumerLookupdAddrs...),
		consumerConfig: ccfg,
	}, nil
}

func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := append([]*nsq.Consumer(nil), n.consumers...)
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNSQTopicRequired
	}
	if n.producer == nil {
		return PublishResult{}, ErrNSQProducerAddrRequired
	}

	if err := n.producer.Publish(destination, msg.Body); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func (n *NSQ) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrNSQTopicRequired
	}
	if handler == nil {
		return ErrNSQHandlerRequired
	}
	if len(n.nsqdAddrs) == 0 && len(n.lookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}

	co := buildConsumeOptions(opts)
	if co.channel == "" {
		return ErrNSQChannelRequired
	}

	workers := workerCount(co.concurrency)

	ccfg := *n.consumerConfig
	switch {
	case co.maxInFlight > 0:
		ccfg.MaxInFlight = co.maxInFlight
	case ccfg.MaxInFlight < workers:
		ccfg.MaxInFlight = workers
	}

	consumer, err := nsq.NewConsumer(source, co.channel, &ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)

	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()

		wrapped := &nsqMessage{topic: source, msg: m}
		herr := invokeHandler(ctx, "nsq", handler, wrapped)
		if co.autoAck && !wrapped.settled.Load() {
			return settle(ctx, wrapped, herr)
		}
		return herr
	}), workers)

	if err := n.track(consumer); err != nil {
		stopNSQ(consumer)
		return err
	}
	if err := n.connect(consumer); err != nil {
		stopNSQ(consumer)
		return err
	}

	select {
	case <-ctx.Done():
		stopNSQ(consumer)
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

func (n *NSQ) connect(consumer *nsq.Consumer) error {
	if len(n.lookupdAddrs) > 0 {
		if err := consumer.ConnectToNSQLookupds(n.lookupdAddrs); err != nil {
			return fmt.Errorf("messaging: nsq connect lookupd: %w", err)
		}
		return nil
	}
	if err := consumer.ConnectToNSQDs(n.nsqdAddrs); err != nil {
		return fmt.Errorf("messaging: nsq connect nsqd: %w", err)
	}
	return nil
}

func (n *NSQ) track(consumer *nsq.Consumer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return io.ErrClosedPipe
	}
	n.consumers = append(n.consumers, consumer)
	return nil
}

func stopNSQ(consumer *nsq.Consumer) {
	consumer.Stop()
	<-consumer.StopChan
}

type nsqMessage struct {
	topic   string
	msg     *nsq.Message
	settled atomic.Bool
}

func (m *nsqMessage) Body() []byte                   { return m.msg.Body }
func (m *nsqMessage) Key() []byte                    { return nil }
func (m *nsqMessage) Headers() []Header              { return nil }
func (m *nsqMessage) Attributes() map[string]string  { return nil }
func (m *nsqMessage) ID() string                     { return fmt.Sprintf("%x", m.msg.ID) }
func (m *nsqMessage) Topic() string                  { return m.topic }
func (m *nsqMessage) Subject() string                { return "" }
func (m *nsqMessage) Timestamp() time.Time           { return time.Unix(0, m.msg.Timestamp) }

func (m *nsqMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.settled.Swap(true) {
		m.msg.Finish()
	}
	return nil
}

func (m *nsqMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.settled.Swap(true) {
		m.msg.Requeue(0)
	}
	return nil
}
