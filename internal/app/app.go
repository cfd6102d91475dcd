// Package app wires configuration into stores, services and the HTTP router.
// cmd/server, cmd/seed and the e2e harness share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	credentialhandler "vcdemo/internal/credential/handler"
	credentialservice "vcdemo/internal/credential/service"
	credentialstore "vcdemo/internal/credential/store"
	"vcdemo/internal/events"
	"vcdemo/internal/platform/config"
	"vcdemo/internal/platform/database"
	"vcdemo/internal/platform/health"
	"vcdemo/internal/platform/kafka"
	"vcdemo/internal/platform/kafka/producer"
	"vcdemo/internal/platform/metrics"
	redisclient "vcdemo/internal/platform/redis"
	"vcdemo/internal/platform/tracer"
	"vcdemo/internal/storage/filedb"
	httptransport "vcdemo/internal/transport/http"
	userservice "vcdemo/internal/user/service"
	userstore "vcdemo/internal/user/store"
	"vcdemo/pkg/platform/circuit"
	"vcdemo/pkg/platform/middleware/request"
)

const poolStatsInterval = 15 * time.Second

// App holds the wired dependencies of one process.
type App struct {
	Config      config.Server
	Logger      *slog.Logger
	Registry    *prometheus.Registry
	Credentials *credentialservice.Service
	Users       *userservice.Service
	Health      *health.Handler

	redis   *redisclient.Client
	closers []func() error
}

// Option configures New.
type Option func(*options)

type options struct {
	publisher events.Publisher
	closers   []func() error
}

// WithPublisher replaces the configured lifecycle event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithCloser hands a caller-owned resource to the App. It is released by
// Close after everything New opened, or immediately if New fails.
func WithCloser(fn func() error) Option {
	return func(o *options) {
		o.closers = append(o.closers, fn)
	}
}

// New connects the configured backend and builds the services. On error
// every resource opened so far is closed.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Health:   health.New(cfg.Environment),
		closers:  o.closers,
	}
	if err := a.wire(ctx, o); err != nil {
		if closeErr := a.Close(); closeErr != nil {
			logger.WarnContext(ctx, "release resources after failed startup", "error", closeErr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, o options) error {
	credStore, users, err := a.openStores(ctx, a.Registry)
	if err != nil {
		return err
	}
	a.Health.RegisterCheck("store", credStore.Health)

	publisher := o.publisher
	if publisher == nil {
		publisher, err = a.openPublisher(ctx)
		if err != nil {
			return err
		}
	}

	m := metrics.New(a.Registry)
	a.Credentials = credentialservice.New(credStore,
		credentialservice.WithPublisher(publisher),
		credentialservice.WithMetrics(m),
		credentialservice.WithTracer(tracer.NewOTel()),
		credentialservice.WithLogger(a.Logger),
	)
	a.Users = userservice.New(users,
		userservice.WithMetrics(m),
		userservice.WithLogger(a.Logger),
	)
	return nil
}

func (a *App) openStores(ctx context.Context, reg prometheus.Registerer) (credentialstore.Store, userstore.Store, error) {
	cfg := a.Config
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return credentialstore.NewInMemoryStore(), userstore.NewInMemoryStore(), nil

	case config.BackendFile:
		db := filedb.Open(cfg.DataDir)
		a.Logger.InfoContext(ctx, "using file store", "data_dir", db.Dir())
		return credentialstore.NewFileStore(db), userstore.NewFileStore(db), nil

	case config.BackendPostgres:
		pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := database.Migrate(ctx, pool.DB()); err != nil {
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		a.Health.RegisterCheck("postgres", pool.Health)
		a.Logger.InfoContext(ctx, "using postgres store")
		return credentialstore.NewPostgres(pool.DB()), userstore.NewPostgres(pool.DB()), nil

	case config.BackendRedis:
		client, err := redisclient.New(ctx, cfg.Redis, redisclient.NewPoolMetrics(reg))
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		a.closers = append(a.closers, client.Close)
		a.Health.RegisterCheck("redis", client.Health)
		a.Logger.InfoContext(ctx, "using redis store")
		// Users have no redis representation; they live for the process lifetime.
		return credentialstore.NewRedis(client.Client), userstore.NewInMemoryStore(), nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (a *App) openPublisher(ctx context.Context) (events.Publisher, error) {
	if a.Config.Kafka.Brokers == "" {
		return events.NewLogPublisher(a.Logger), nil
	}
	p, err := producer.New(producer.DefaultConfig(a.Config.Kafka.Brokers), a.Logger)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	a.closers = append(a.closers, p.Close)

	checker := kafka.NewHealthChecker(a.Config.Kafka.Brokers)
	a.Health.RegisterCheck(checker.Name(), checker.Check)
	a.Logger.InfoContext(ctx, "publishing lifecycle events to kafka", "topic", a.Config.Kafka.Topic)
	return events.NewBreakerPublisher(
		events.NewKafkaPublisher(p, a.Config.Kafka.Topic),
		events.NewLogPublisher(a.Logger),
		circuit.New("kafka"),
		a.Logger,
	), nil
}

// Router builds the public HTTP handler.
func (a *App) Router(clock func() time.Time) http.Handler {
	return httptransport.NewRouter(httptransport.Config{
		Credentials:    credentialhandler.New(a.Credentials, a.Logger),
		Health:         a.Health,
		RequestMetrics: request.NewMetrics(a.Registry),
		Gatherer:       a.Registry,
		Logger:         a.Logger,
		RequestTimeout: a.Config.RequestTimeout,
		TrustedProxies: a.Config.TrustedProxies,
		Clock:          clock,
	})
}

// RunBackground runs periodic maintenance until ctx is done.
func (a *App) RunBackground(ctx context.Context) {
	if a.redis == nil {
		<-ctx.Done()
		return
	}
	a.redis.RunPoolStatsLoop(ctx, poolStatsInterval, a.Logger)
}

// Close releases every backend connection in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
