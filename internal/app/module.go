package app

import (
	"log/slog"
	"os"

	"github.com/YessineAmor/stampd/internal/ledger"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.ledger.enabled") {
		if err := ledger.New(ledger.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			RedisClient: a.cacheConn,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Storage:     a.storage,
			Config:      a.config,
			Instrument:  a.ins,
			OID:         a.oid,
			UUID:        a.uuid,
			EventID:     a.uid,
			Clock:       a.clock,
			Hasher:      a.hasher,
			TSA:         a.tsa,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Router:      a.router,
		}); err != nil {
			slog.Error("failed to init module ledger", "error", err)
			os.Exit(1)
		}
	}
}
