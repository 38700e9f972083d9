package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"SalesCast/internal/dataset"
	"SalesCast/internal/domain/repository"
	domsvc "SalesCast/internal/domain/service"
	"SalesCast/internal/handler/api"
	internalrepo "SalesCast/internal/repository"
	"SalesCast/internal/service/ratelimit"
	"SalesCast/internal/services/analytics"
	"SalesCast/internal/services/cleaning"
	"SalesCast/internal/services/reporting"
	"SalesCast/internal/usecase"
	"SalesCast/pkg/cache"
	pkgch "SalesCast/pkg/clickhouse"
	"SalesCast/pkg/config"
	xhttp "SalesCast/pkg/http"
	pkgkafka "SalesCast/pkg/kafka"
	applogger "SalesCast/pkg/logger"
	"SalesCast/pkg/metrics"
	"SalesCast/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the registry for application metrics.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when disabled.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Noop{}
	}
	return metrics.New(reg)
}

// ProvideDatasetSource creates the dataset loader.
func ProvideDatasetSource(cfg *config.Config, l *applogger.Logger) repository.DatasetSource {
	delim := ','
	if cfg.Dataset.Delimiter != "" {
		delim = []rune(cfg.Dataset.Delimiter)[0]
	}
	return dataset.NewLoader(cfg.Dataset.Path,
		dataset.WithSheet(cfg.Dataset.Sheet),
		dataset.WithEncoding(cfg.Dataset.Encoding),
		dataset.WithDelimiter(delim),
		dataset.WithLoaderLogger(l),
	)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	ch := cfg.Storage.ClickHouse
	client, err := pkgch.NewClient(ctx, pkgch.ClientConfig{
		Password:    ch.Password,
		UseHTTP:     ch.UseHTTP,
		Host:        ch.Host,
		User:        ch.User,
		Port:        ch.Port,
		Database:    ch.Database,
		DialTimeout: ch.DialTimeout,
		ReadTimeout: ch.ReadTimeout,
		MaxExecTime: ch.MaxExecutionTime,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideRunStore opens the configured run store and initializes its schema.
func ProvideRunStore(cfg *config.Config, l *applogger.Logger) (repository.RunStore, func(), error) {
	var (
		store repository.RunStore
		err   error
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		store, err = internalrepo.NewSQLiteRunStore(cfg.Storage.SQLite.Path, l)
	case "clickhouse":
		var client *pkgch.Client
		if client, err = ProvideClickHouseClient(cfg); err == nil {
			store = internalrepo.NewClickHouseRunStore(client, l)
		}
	default:
		store = internalrepo.NoopRunStore{}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("run store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("run store schema: %w", err)
	}
	l.Info("run store ready", applogger.String("backend", cfg.Storage.Backend))

	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Warn("run store close error", applogger.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvidePublisher creates the Kafka run publisher, or a no-op one when Kafka is disabled.
func ProvidePublisher(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry) (repository.Publisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, func() {}, nil
	}
	k := cfg.Kafka
	pc := pkgkafka.ProducerConfig{
		// messages carry the run id as key
		HashByKey:    true,
		Brokers:      k.Brokers,
		RequiredAcks: k.RequiredAcks,
		Compression:  k.Compression,
		MaxAttempts:  k.Producer.MaxAttempts,
		BatchSize:    k.Producer.BatchSize,
		BatchBytes:   k.Producer.BatchBytes,
		BatchTimeout: k.Producer.Linger,
		WriteTimeout: k.Producer.WriteTimeout,
		ReadTimeout:  k.Producer.ReadTimeout,
	}
	if cfg.Metrics.Enabled {
		pc.Metrics = reg
	}
	producer, err := pkgkafka.NewProducer(pc)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.Info("kafka publisher ready", applogger.Strings("brokers", k.Brokers), applogger.String("topic", k.Topic))

	pub := internalrepo.NewKafkaPublisher(producer, k.Topic)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka publisher close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvideCache creates the response cache: in-memory, or memory in front of Redis.
// An unreachable Redis degrades to memory only.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	var svc cache.Service = cache.NewMemoryCache(cache.MemoryConfig{MaxSize: cfg.Cache.MemoryMaxSize})
	if r := cfg.Cache.Redis; r.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		remote, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Password:     r.Password,
			DB:           r.DB,
			Addr:         r.Addr,
			Prefix:       r.Prefix,
			PoolSize:     r.PoolSize,
			MinIdleConns: r.MinIdleConns,
			PoolTimeout:  r.PoolTimeout,
		})
		if err != nil {
			l.Warn("redis unavailable, using memory cache", applogger.String("addr", r.Addr), applogger.Error(err))
		} else {
			_ = svc.Close()
			svc = cache.NewLayeredCache(remote, cfg.Cache.MemoryMaxSize)
		}
	}
	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return svc, cleanup, nil
}

// ProvideEngine selects the forecasting engine.
func ProvideEngine(cfg *config.Config, l *applogger.Logger) domsvc.ForecastEngine {
	if cfg.Forecast.Engine.Type == "http" {
		return analytics.NewHTTPEngine(cfg.Forecast.Engine, l)
	}
	return analytics.NewSeasonalEngine()
}

func ProvideCleaner(cfg *config.Config, l *applogger.Logger) *cleaning.Cleaner {
	return cleaning.NewCleaner(cfg.Schema, cleaning.WithLogger(l))
}

func ProvideReporter(cfg *config.Config, l *applogger.Logger) *reporting.Reporter {
	return reporting.NewReporter(
		reporting.WithTopN(cfg.Report.TopCategories, cfg.Report.TopRegions, cfg.Report.TopProducts),
		reporting.WithLogger(l),
	)
}

func ProvideForecaster(engine domsvc.ForecastEngine, l *applogger.Logger) *usecase.Forecaster {
	return usecase.NewForecaster(engine, l)
}

// ProvidePipeline creates the cleaning and forecasting pipeline.
func ProvidePipeline(
	cfg *config.Config,
	source repository.DatasetSource,
	cleaner *cleaning.Cleaner,
	reporter *reporting.Reporter,
	forecaster *usecase.Forecaster,
	store repository.RunStore,
	pub repository.Publisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Cleaner:    cleaner,
		Reporter:   reporter,
		Forecaster: forecaster,
		Store:      store,
		Publisher:  pub,
		Metrics:    m,
	}, usecase.PipelineConfig{
		Cleaning: cfg.Cleaning,
		Target:   cfg.Forecast.TargetColumn,
		Forecast: usecase.ForecastOptions{
			Params:          cfg.Forecast.Model,
			Horizon:         cfg.Forecast.Horizon,
			CountryHolidays: cfg.Forecast.CountryHolidays,
			CustomHolidays:  cfg.Forecast.CustomHolidays,
			MinPoints:       cfg.Forecast.MinPoints,
			TailPoints:      cfg.Forecast.TailPoints,
		},
		ExportPath: cfg.Output.ForecastXLSX,
	}, l)
}

func ProvideRunsUseCase(store repository.RunStore) *usecase.RunsUseCase {
	return usecase.NewRunsUseCase(store)
}

// ProvideForecastHandler creates the HTTP handler with a per-client forecast rate limit.
func ProvideForecastHandler(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.Pipeline,
	runs *usecase.RunsUseCase,
	store repository.RunStore,
	c cache.Service,
	engine domsvc.ForecastEngine,
) *api.ForecastEchoHandler {
	limiter := ratelimit.New(cfg.Server.ForecastBurst, cfg.Server.ForecastRefill)
	return api.NewForecastEchoHandler(l, pipeline, runs, store, c, cfg.Cache.TTL, limiter, cfg.Forecast.Horizon, engine.Name())
}

// ProvideHTTPServer creates the Echo server serving the forecast API.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ForecastEchoHandler, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.Pipeline,
	runs *usecase.RunsUseCase,
	httpServer *xhttp.Server,
) *server.App {
	return server.New(cfg, l, pipeline, runs, httpServer)
}
