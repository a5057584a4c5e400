package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ballotbox/internal/census"
	"ballotbox/internal/officing/store/assignment"
	"ballotbox/internal/platform/config"
	"ballotbox/internal/platform/database"
	"ballotbox/internal/platform/httpserver"
	"ballotbox/internal/platform/logger"
	redisclient "ballotbox/internal/platform/redis"
	pollstore "ballotbox/internal/poll/store"
	"ballotbox/internal/ratelimit/store/bucket"
	httptransport "ballotbox/internal/transport/http"
	"ballotbox/pkg/platform/audit/kafka"
	auditmemory "ballotbox/pkg/platform/audit/store/memory"
)

const shutdownTimeout = 10 * time.Second

// main wires infrastructure and modules, serves HTTP and shuts down on
// SIGINT or SIGTERM.
func main() {
	if err := run(); err != nil {
		slog.Error("ballotbox stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func(context.Context) error
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](closeCtx); err != nil {
				log.Warn("failed to release resource", "error", err)
			}
		}
	}()

	a := &app{
		cfg:     cfg,
		logger:  log,
		metrics: newMetricSet(),
		health:  map[string]httptransport.HealthCheck{},
	}

	if cfg.Database.URL != "" {
		if cfg.Database.AutoMigrate {
			if err := database.MigrateUp(cfg.Database.URL); err != nil {
				return err
			}
			log.Info("database migrations applied")
		}
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		closers = append(closers, func(context.Context) error { return db.Close() })
		a.store = postgresStorage(db)
		a.health["database"] = func(ctx context.Context) error { return database.Ping(ctx, db) }
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		a.store = memoryStorage(pollstore.NewInMemory(), assignment.NewInMemory())
	}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		closers = append(closers, func(context.Context) error { return rdb.Close() })
		a.health["redis"] = rdb.Health
		a.buckets = bucket.NewRedisBucketStore(rdb.Client)
	} else {
		a.buckets = bucket.NewInMemoryBucketStore()
	}

	a.census = buildCensus(cfg.Census, a, rdb)

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := kafka.New(ctx, kafka.Config{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.AuditTopic,
			ClientID:    cfg.Kafka.ClientID,
			DialTimeout: cfg.Kafka.DialTimeout,
		}, kafka.WithLogger(log), kafka.WithMetrics(kafka.NewMetrics()))
		if err != nil {
			return err
		}
		closers = append(closers, publisher.Close)
		a.auditor = publisher
	} else {
		log.Warn("KAFKA_BROKERS not set, audit events kept in memory")
		a.auditor = auditmemory.NewInMemoryStore()
	}

	handler, err := a.handler()
	if err != nil {
		return err
	}
	srv := httpserver.New(cfg.Addr, handler, cfg.Census.Timeout+20*time.Second, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting ballotbox", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// buildCensus stacks cache -> breaker -> HTTP gateway. Without CENSUS_URL the
// in-process stub answers for the default residents.
func buildCensus(cfg config.CensusConfig, a *app, rdb *redisclient.Client) census.Gateway {
	if cfg.URL == "" {
		a.logger.Warn("CENSUS_URL not set, using the census stub")
		return census.NewStub(census.DefaultResidents()...)
	}

	var gw census.Gateway = census.NewHTTPGateway(cfg.URL, cfg.Timeout,
		census.WithMetrics(a.metrics.census),
		census.WithLogger(a.logger),
	)
	gw = census.NewBreaker(gw, cfg.BreakerThreshold, cfg.BreakerCooldown,
		census.WithBreakerMetrics(a.metrics.census),
	)
	if rdb != nil && cfg.CacheTTL > 0 {
		gw = census.NewRedisCache(gw, rdb.Client, cfg.CacheTTL,
			census.WithCacheMetrics(a.metrics.census),
			census.WithCacheLogger(a.logger),
		)
	}
	return gw
}
