package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
	ErrKafkaTopicRequired   = errors.New("messaging: kafka topic is required")
	ErrKafkaGroupRequired   = errors.New("messaging: kafka consumer group is required")
	ErrKafkaHandlerRequired = errors.New("messaging: kafka handler is required")
)

const kafkaMaxFetchBytes = 10e6

// KafkaConfig configures the Kafka backend.
type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka implements Messaging over kafka-go, with one lazily created writer
// per topic and one reader per Consume call.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}
	return &Kafka{
		brokers: append([]string(nil), cfg.Brokers...),
		dialer:  cfg.Dialer,
		writers: map[string]*kafka.Writer{},
	}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers := make([]*kafka.Writer, 0, len(k.writers))
	for _, w := range k.writers {
		writers = append(writers, w)
	}
	readers := append([]*kafka.Reader(nil), k.readers...)
	k.writers, k.readers = nil, nil
	k.mu.Unlock()

	var errs error
	for _, r := range readers {
		errs = errors.Join(errs, r.Close())
	}
	for _, w := range writers {
		errs = errors.Join(errs, w.Close())
	}
	return errs
}

func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrKafkaTopicRequired
	}

	writer, err := k.writer(destination)
	if err != nil {
		return PublishResult{}, err
	}

	out := kafka.Message{Key: msg.Key, Value: msg.Body, Time: time.Now()}
	for _, h := range msg.Headers {
		if h.Key != "" {
			out.Headers = append(out.Headers, kafka.Header{Key: h.Key, Value: h.Value})
		}
	}

	if err := writer.WriteMessages(ctx, out); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return PublishResult{Topic: destination, Timestamp: out.Time}, nil
}

// Consume reads from the topic within the configured consumer group. Offsets
// are committed on Ack, so auto-ack gives at-least-once delivery.
func (k *Kafka) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrKafkaTopicRequired
	}
	if handler == nil {
		return ErrKafkaHandlerRequired
	}

	co := buildConsumeOptions(opts)
	if co.group == "" {
		return ErrKafkaGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  co.group,
		Topic:    source,
		MaxBytes: kafkaMaxFetchBytes,
		Dialer:   k.dialer,
	})
	if err := k.track(reader); err != nil {
		return errors.Join(err, reader.Close())
	}
	defer func() {
		k.untrack(reader)
		reader.Close()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan kafka.Message)
	failures := make(chan error, 1)

	go func() {
		defer close(queue)
		for {
			m, err := reader.FetchMessage(runCtx)
			if err != nil {
				reportOnce(failures, err)
				return
			}
			select {
			case queue <- m:
			case <-runCtx.Done():
				reportOnce(failures, runCtx.Err())
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range workerCount(co.concurrency) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range queue {
				wrapped := &kafkaMessage{reader: reader, msg: m}
				herr := invokeHandler(runCtx, "kafka", handler, wrapped)
				if !co.autoAck || wrapped.settled.Load() {
					continue
				}
				if err := settle(runCtx, wrapped, herr); err != nil {
					reportOnce(failures, err)
					cancel()
					return
				}
			}
		}()
	}

	select {
	case err := <-failures:
		cancel()
		wg.Wait()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("messaging: kafka consume: %w", err)
	case <-ctx.Done():
		cancel()
		wg.Wait()
		return ctx.Err()
	}
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, io.ErrClosedPipe
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  k.brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Dialer:   k.dialer,
	})
	k.writers[topic] = w
	return w, nil
}

func (k *Kafka) track(reader *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return io.ErrClosedPipe
	}
	k.readers = append(k.readers, reader)
	return nil
}

func (k *Kafka) untrack(reader *kafka.Reader) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i := range k.readers {
		if k.readers[i] == reader {
			k.readers = append(k.readers[:i], k.readers[i+1:]...)
			return
		}
	}
}

func reportOnce(ch chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

type kafkaMessage struct {
	reader  *kafka.Reader
	msg     kafka.Message
	settled atomic.Bool
}

func (m *kafkaMessage) Body() []byte { return m.msg.Value }
func (m *kafkaMessage) Key() []byte  { return m.msg.Key }

func (m *kafkaMessage) Headers() []Header {
	out := make([]Header, 0, len(m.msg.Headers))
	for _, h := range m.msg.Headers {
		out = append(out, Header{Key: h.Key, Value: h.Value})
	}
	return out
}

func (m *kafkaMessage) Attributes() map[string]string {
	if len(m.msg.Headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(m.msg.Headers))
	for _, h := range m.msg.Headers {
		if _, ok := attrs[h.Key]; !ok {
			attrs[h.Key] = string(h.Value)
		}
	}
	return attrs
}

func (m *kafkaMessage) ID() string {
	return fmt.Sprintf("%s/%d/%d", m.msg.Topic, m.msg.Partition, m.msg.Offset)
}

func (m *kafkaMessage) Topic() string        { return m.msg.Topic }
func (m *kafkaMessage) Subject() string      { return "" }
func (m *kafkaMessage) Timestamp() time.Time { return m.msg.Time }

// Ack commits the offset; Nack just leaves it uncommitted so the group
// redelivers after a rebalance.
func (m *kafkaMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.settled.Swap(true) {
		return nil
	}
	return m.reader.CommitMessages(ctx, m.msg)
}

func (m *kafkaMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.settled.Store(true)
	return nil
}
