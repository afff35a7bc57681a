package app

import (
	"context"
	"net/http"

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

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hasher    hash.Hash
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	tsa       tsa.Timestamper

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	// shutdown hooks, registered in init order
	closers []resourceCloser
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initStorage()
	app.initMessaging()
	app.initTSA()
	app.initHTTPServer()
	app.initModules()

	return app
}
