package usecase

import (
	"context"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/pkg/clock"
	"github.com/YessineAmor/stampd/internal/pkg/config"
	"github.com/YessineAmor/stampd/internal/pkg/hash"
	"github.com/YessineAmor/stampd/internal/pkg/idempotency"
	"github.com/YessineAmor/stampd/internal/pkg/instrument"
	"github.com/YessineAmor/stampd/internal/pkg/storage"
	"github.com/YessineAmor/stampd/internal/pkg/tsa"
	"github.com/YessineAmor/stampd/internal/pkg/uid"
	"github.com/YessineAmor/stampd/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	UpsertStamp(ctx context.Context, record entity.StampRecord) error
	GetStamp(ctx context.Context, fileHash string) (*entity.StampRecord, error)
	ListStamps(ctx context.Context, filter entity.StampListFilterData) ([]entity.StampRecord, int64, error)
}

type repoMQ interface {
	PublishFileStamped(ctx context.Context, msg FileStampedEvent) error
}

type repoCache interface {
	GetStamp(ctx context.Context, fileHash string) (*entity.TimestampedFile, error)
	SetStamp(ctx context.Context, fileHash string, data entity.TimestampedFile) error
}

// FileStampedEvent is the audit event emitted after every successful stamp.
// EventID is unique per emission so consumers can deduplicate redeliveries.
type FileStampedEvent struct {
	EventID    int64
	FileHash   string
	Timestamp  uint64
	Commitment []byte
	Audit      string
}

type Usecase struct {
	repoDB    repoDB
	repoMQ    repoMQ
	repoCache repoCache
	cfg       config.Config
	clock     clock.Clocker
	hasher    hash.Hash
	tsa       tsa.Timestamper
	oid       uid.StringID
	eventID   uid.NumberID
	validator validator.Validator
	storage   storage.Storage
	idem      idempotency.Idempotency
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	RepoMQ      repoMQ
	RepoCache   repoCache
	Config      config.Config
	Clock       clock.Clocker
	Hasher      hash.Hash
	TSA         tsa.Timestamper
	OID         uid.StringID
	EventID     uid.NumberID
	Validator   validator.Validator
	Storage     storage.Storage
	Idempotency idempotency.Idempotency
	Instrument  instrument.Instrumentation
}

func NewLedger(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMQ:    dep.RepoMQ,
		repoCache: dep.RepoCache,
		cfg:       dep.Config,
		clock:     dep.Clock,
		hasher:    dep.Hasher,
		tsa:       dep.TSA,
		oid:       dep.OID,
		eventID:   dep.EventID,
		validator: dep.Validator,
		storage:   dep.Storage,
		idem:      dep.Idempotency,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("ledger.usecase").Start(ctx, name)
}
