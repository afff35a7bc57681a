package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

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
)

// resourceCloser pairs a resource name with its shutdown function. Closers
// are registered as resources come up and run in reverse order on Stop.
type resourceCloser struct {
	name string
	fn   func(context.Context) error
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, resourceCloser{name: name, fn: fn})
}

// fatal logs the failure and exits. Startup is all-or-nothing.
func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		fatal("failed to init config", err)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
	a.addCloser("Config", func(context.Context) error { return cfg.Close() })
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          true,
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		fatal("failed to init instrumentation", err)
	}

	a.ins = ins
	a.addCloser("Instrument", ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	hasher, err := hash.NewFromAlgorithm(a.config.GetString("hash.algorithm"))
	if err != nil {
		fatal("failed to init hash", err)
	}
	a.hasher = hasher

	v10, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to init validation v10 validator", err)
	}
	a.validator = v10

	snow, err := uid.NewSnowflake()
	if err != nil {
		fatal("failed to init uid number snowflake", err)
	}
	a.uid = snow

	objID, err := uid.NewObjectIDGenerator()
	if err != nil {
		fatal("failed to init uid string object_id", err)
	}
	a.oid = objID
}

func (a *App) initDatabase() {
	if a.config.GetString("modules.ledger.store_driver") != "postgres" {
		slog.Info("ledger store driver is not postgres, skipping database init")
		return
	}

	poolCfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		fatal("failed to parse DB connection string", err)
	}

	poolCfg.MaxConns = a.config.GetInt32("database.pool.max_conns")
	poolCfg.MinConns = a.config.GetInt32("database.pool.min_conns")
	poolCfg.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	poolCfg.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	poolCfg.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, poolCfg)
	if err != nil {
		fatal("failed to create DB connection pool", err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))
	err = retry.Do(a.ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("DB not ready yet, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		fatal("failed to ping DB", err)
	}

	a.dbConn = pool
	a.addCloser("Database", func(context.Context) error {
		pool.Close()
		return nil
	})
}

func (a *App) initCache() {
	if !a.config.GetBool("redis.enabled") {
		slog.Info("redis is disabled, skipping cache init")
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		fatal("failed to parse redis url", err)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		fatal("failed to init redis", err)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(rdb)
	a.addCloser("Redis", func(context.Context) error { return rdb.Close() })
}

// gcsClientOptions assembles the option set for an explicit GCS client.
// An empty result means the adapter should build its own default client.
func (a *App) gcsClientOptions() []option.ClientOption {
	opts := []option.ClientOption{}

	if a.config.GetBool("storage.gcs.without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}
	if v := strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")); v != "" {
		// #nosec G304 -- path is from trusted config file.
		credsJSON, err := os.ReadFile(v)
		if err != nil {
			fatal("failed to read gcs credentials file", err)
		}
		creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, gcs.ScopeFullControl)
		if err != nil {
			fatal("failed to parse gcs credentials file", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if v := a.config.GetBinary("storage.gcs.credentials_json"); len(v) > 0 {
		creds, err := google.CredentialsFromJSON(a.ctx, v, gcs.ScopeFullControl)
		if err != nil {
			fatal("failed to parse gcs credentials json", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if v := strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}
	if v := strings.TrimSpace(a.config.GetString("storage.gcs.user_agent")); v != "" {
		opts = append(opts, option.WithUserAgent(v))
	}

	return opts
}

func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	if driver == "" {
		slog.Info("storage driver is empty, skipping storage init")
		return
	}

	var gcsClient *gcs.Client
	if driver == storage.DriverGCS {
		if opts := a.gcsClientOptions(); len(opts) > 0 {
			client, err := gcs.NewClient(a.ctx, opts...)
			if err != nil {
				fatal("failed to init gcs client", err)
			}
			gcsClient = client
		}
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			Client:         gcsClient,
			GoogleAccessID: strings.TrimSpace(a.config.GetString("storage.gcs.signer_access_id")),
			PrivateKey:     a.config.GetBinary("storage.gcs.signer_private_key"),
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		fatal("failed to init storage", err)
	}

	a.storage = stg
	a.addCloser("Storage", func(context.Context) error { return stg.Close() })
}

// nsqConsumerConfig builds the consumer-side NSQ config from the keys under
// messaging.nsq.consumer_config.
func (a *App) nsqConsumerConfig() *nsq.Config {
	cfg := nsq.NewConfig()
	cfg.MaxInFlight = a.config.GetInt("messaging.nsq.consumer_config.max_in_flight")
	cfg.MaxAttempts = a.config.GetUint16("messaging.nsq.consumer_config.max_attempts")
	cfg.LookupdPollInterval = a.config.GetSecond("messaging.nsq.consumer_config.lookupd_poll_interval_seconds")
	cfg.DialTimeout = a.config.GetSecond("messaging.nsq.consumer_config.dial_timeout_seconds")
	cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.consumer_config.read_timeout_seconds")
	cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.consumer_config.write_timeout_seconds")
	cfg.DefaultRequeueDelay = a.config.GetSecond("messaging.nsq.consumer_config.default_requeue_delay_seconds")
	cfg.MaxRequeueDelay = a.config.GetSecond("messaging.nsq.consumer_config.max_requeue_delay_seconds")
	return cfg
}

func (a *App) nsqProducerConfig() *nsq.Config {
	cfg := nsq.NewConfig()
	cfg.MaxInFlight = a.config.GetInt("messaging.nsq.producer_config.max_in_flight")
	cfg.DialTimeout = a.config.GetSecond("messaging.nsq.producer_config.dial_timeout_seconds")
	cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.producer_config.read_timeout_seconds")
	cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.producer_config.write_timeout_seconds")
	return cfg
}

func (a *App) natsOptions() []nats.Option {
	return []nats.Option{
		nats.Name(a.config.GetString("messaging.nats.name")),
		nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
		nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
		nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
		nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
		nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
		nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
	}
}

func (a *App) initMessaging() {
	driver := strings.TrimSpace(a.config.GetString("messaging.driver"))
	if driver == "" {
		slog.Info("messaging driver is empty, skipping messaging init")
		return
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			ProducerConfig:       a.nsqProducerConfig(),
			ConsumerConfig:       a.nsqConsumerConfig(),
		},
		NATS: messaging.NATSConfig{
			URL:     a.config.GetString("messaging.nats.url"),
			Options: a.natsOptions(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: a.config.GetString("messaging.pubsub.project_id"),
		},
	})
	if err != nil {
		fatal("failed to init messaging", err)
	}

	a.messaging = client
	a.addCloser("Messaging", func(context.Context) error { return client.Close() })
}

func (a *App) initTSA() {
	if !a.config.GetBool("modules.ledger.tsa_enabled") {
		return
	}

	a.tsa = tsa.NewRFC3161Timestamper(
		a.config.GetString("tsa.url"),
		a.config.GetSecond("tsa.timeout_seconds"),
	)
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}
