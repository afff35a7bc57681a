package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/pkg/goerror"
	"github.com/YessineAmor/stampd/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix string = "ledger:stamp:"

type cachedStamp struct {
	Timestamp   uint64 `json:"timestamp"`
	Commitment  []byte `json:"commitment"`
	Attestation []byte `json:"attestation,omitempty"`
}

// Cache is a read-through cache in front of the ledger store. Only existing
// stamps are cached; misses always fall through to storage.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ttl time.Duration, ins instrument.Instrumentation) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Cache{client: client, ttl: ttl, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("ledger.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) GetStamp(ctx context.Context, fileHash string) (_ *entity.TimestampedFile, err error) {
	ctx, span := c.startSpan(ctx, "GetStamp")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.Get(ctx, keyPrefix+fileHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var payload cachedStamp
	if err = json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	return &entity.TimestampedFile{
		Timestamp:   payload.Timestamp,
		Commitment:  payload.Commitment,
		Attestation: payload.Attestation,
	}, nil
}

func (c *Cache) SetStamp(ctx context.Context, fileHash string, data entity.TimestampedFile) (err error) {
	ctx, span := c.startSpan(ctx, "SetStamp")
	defer func() { c.endSpan(span, err) }()

	raw, err := json.Marshal(cachedStamp{
		Timestamp:   data.Timestamp,
		Commitment:  data.Commitment,
		Attestation: data.Attestation,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, keyPrefix+fileHash, raw, c.ttl).Err()
}
