package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/otpsession/internal/pkg/clock"
	"github.com/shandysiswandi/otpsession/internal/pkg/config"
	"github.com/shandysiswandi/otpsession/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpsession/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsession/internal/pkg/lock"
	"github.com/shandysiswandi/otpsession/internal/pkg/messaging"
	"github.com/shandysiswandi/otpsession/internal/pkg/migrate"
	"github.com/shandysiswandi/otpsession/internal/pkg/otp"
	"github.com/shandysiswandi/otpsession/internal/pkg/router"
	"github.com/shandysiswandi/otpsession/internal/pkg/uid"
	"github.com/shandysiswandi/otpsession/internal/pkg/validator"
	sessiondb "github.com/shandysiswandi/otpsession/internal/session/outbound/db"
)

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
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(int64(a.config.GetInt("app.node_id")))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.seq = snow

	secret, err := otp.NewRandom(
		a.config.GetInt("modules.session.token_bytes"),
		otp.DefaultCodeDigits,
	)
	if err != nil {
		slog.Error("failed to init otp generator", "error", err)
		os.Exit(1)
	}
	a.secret = secret
}

func (a *App) initDatabase() {
	if strings.TrimSpace(a.config.GetString("database.driver")) == "memory" {
		slog.Warn("database driver is memory, sessions are lost on restart")
		return
	}

	dsn := a.config.GetString("database.url")
	if a.config.GetBool("database.migrate") {
		if err := migrate.Up(sessiondb.Migrations, sessiondb.MigrationsDir, dsn); err != nil {
			slog.Error("failed to migrate DB", "error", err)
			os.Exit(1)
		}
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

// initCache builds the pair lock. Only the redis driver opens a connection.
func (a *App) initCache() {
	driver := strings.TrimSpace(a.config.GetString("lock.driver"))

	if driver == lock.DriverRedis {
		opt, err := redis.ParseURL(a.config.GetString("redis.url"))
		if err != nil {
			slog.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}

		rdb := redis.NewClient(opt)

		pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Error("failed to init redis", "error", err)
			os.Exit(1)
		}

		a.cacheConn = rdb
	}

	locker, err := lock.NewFromDriver(driver, lock.FactoryOptions{
		Redis: lock.RedisOptions{
			Client: a.cacheConn,
			Prefix: a.config.GetString("lock.redis.prefix"),
		},
		Options: lock.Options{
			Wait: a.config.GetMillisecond("lock.wait_milliseconds"),
			Poll: a.config.GetMillisecond("lock.poll_milliseconds"),
		},
	})
	if err != nil {
		slog.Error("failed to init lock", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.locker = locker
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				if v := a.config.GetInt("messaging.nsq.producer_config.max_in_flight"); v > 0 {
					cfg.MaxInFlight = v
				}
				if v := a.config.GetSecond("messaging.nsq.producer_config.dial_timeout_seconds"); v > 0 {
					cfg.DialTimeout = v
				}
				if v := a.config.GetSecond("messaging.nsq.producer_config.read_timeout_seconds"); v > 0 {
					cfg.ReadTimeout = v
				}
				if v := a.config.GetSecond("messaging.nsq.producer_config.write_timeout_seconds"); v > 0 {
					cfg.WriteTimeout = v
				}
				return cfg
			}(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray("messaging.kafka.brokers"),
			BatchTimeout: a.config.GetMillisecond("messaging.kafka.batch_timeout_milliseconds"),
			RequiredAcks: kafka.RequiredAcks(a.config.GetInt("messaging.kafka.required_acks")),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:             a.config.GetString("messaging.google_pubsub.project_id"),
			Endpoint:              a.config.GetString("messaging.google_pubsub.endpoint"),
			WithoutAuthentication: a.config.GetBool("messaging.google_pubsub.without_auth"),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
