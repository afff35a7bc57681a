package ledger

import (
	"context"

	"github.com/YessineAmor/stampd/internal/ledger/inbound"
	"github.com/YessineAmor/stampd/internal/ledger/outbound/cache"
	"github.com/YessineAmor/stampd/internal/ledger/outbound/db"
	"github.com/YessineAmor/stampd/internal/ledger/outbound/memdb"
	"github.com/YessineAmor/stampd/internal/ledger/outbound/mq"
	"github.com/YessineAmor/stampd/internal/ledger/usecase"
	"github.com/YessineAmor/stampd/internal/pkg/clock"
	"github.com/YessineAmor/stampd/internal/pkg/config"
	"github.com/YessineAmor/stampd/internal/pkg/goroutine"
	"github.com/YessineAmor/stampd/internal/pkg/hash"
	"github.com/YessineAmor/stampd/internal/pkg/idempotency"
	"github.com/YessineAmor/stampd/internal/pkg/instrument"
	"github.com/YessineAmor/stampd/internal/pkg/messaging"
	"github.com/YessineAmor/stampd/internal/pkg/router"
	"github.com/YessineAmor/stampd/internal/pkg/storage"
	"github.com/YessineAmor/stampd/internal/pkg/tsa"
	"github.com/YessineAmor/stampd/internal/pkg/uid"
	"github.com/YessineAmor/stampd/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool
	RedisClient *redis.Client
	Idempotency idempotency.Idempotency
	Messaging   messaging.Messaging
	Storage     storage.Storage
	Config      config.Config
	Instrument  instrument.Instrumentation
	OID         uid.StringID
	UUID        uid.StringID
	EventID     uid.NumberID
	Clock       clock.Clocker
	Hasher      hash.Hash
	TSA         tsa.Timestamper
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Router      *router.Router
}

func New(dep Dependency) error {
	ucDep := usecase.Dependency{
		Config:     dep.Config,
		Clock:      dep.Clock,
		Hasher:     dep.Hasher,
		TSA:        dep.TSA,
		OID:        dep.OID,
		EventID:    dep.EventID,
		Validator:  dep.Validator,
		Storage:    dep.Storage,
		Instrument: dep.Instrument,
	}

	if dep.Config.GetString("modules.ledger.store_driver") == "postgres" && dep.DBConn != nil {
		ucDep.RepoDB = db.NewDB(dep.DBConn, dep.Instrument)
	} else {
		ucDep.RepoDB = memdb.NewStore(dep.Clock)
	}

	if dep.Messaging != nil {
		ucDep.RepoMQ = mq.NewMessaging(dep.Messaging, dep.Instrument)
	}

	if dep.RedisClient != nil {
		ttl := dep.Config.GetSecond("modules.ledger.cache_ttl_seconds")
		ucDep.RepoCache = cache.NewCache(dep.RedisClient, ttl, dep.Instrument)
	}
	ucDep.Idempotency = dep.Idempotency

	uc := usecase.NewLedger(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil && dep.Messaging != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
