package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/retrostore/retrostore-backend/pkg/config"
	"github.com/retrostore/retrostore-backend/pkg/db"
	"github.com/retrostore/retrostore-backend/pkg/logger"
	"github.com/retrostore/retrostore-backend/pkg/metrics"
	"github.com/retrostore/retrostore-backend/pkg/migrate"
	"github.com/retrostore/retrostore-backend/pkg/outbox"
	"github.com/retrostore/retrostore-backend/pkg/outbox/idempotency"
	"github.com/retrostore/retrostore-backend/pkg/outbox/registry"
	"github.com/retrostore/retrostore-backend/pkg/pubsub"
	"github.com/retrostore/retrostore-backend/pkg/redis"
)

func main() {
	var dlq dlqCommand
	flag.BoolVar(&dlq.List, "dlq-list", false, "print dead-lettered events and exit")
	flag.StringVar(&dlq.Reason, "dlq-reason", "", "filter -dlq-list by error reason")
	flag.IntVar(&dlq.Limit, "dlq-limit", 50, "maximum rows for -dlq-list")
	flag.StringVar(&dlq.Replay, "dlq-replay", "", "requeue the dead letter for this outbox event id and exit")
	flag.BoolVar(&dlq.Force, "dlq-force", false, "allow -dlq-replay for reasons other than max_attempts")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "outbox-publisher"

	logg = logger.New(logger.Options{
		ServiceName: "outbox-publisher",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	dlqRepo := outbox.NewDLQRepository(dbClient.DB())
	if dlq.active() {
		if err := dlq.run(context.Background(), dlqRepo, os.Stdout); err != nil {
			logg.Error(context.Background(), "dlq command failed", err)
			os.Exit(1)
		}
		return
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	eventRegistry, err := registry.NewEventRegistry(cfg.Outbox)
	if err != nil {
		logg.Error(context.Background(), "failed to build event registry", err)
		os.Exit(1)
	}

	var eventSink sink = newRedisSink(redisClient)
	if cfg.Outbox.UsesGCP() {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, eventRegistry.Topics(), logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		eventSink = newGCPSink(pubsubClient)
	}

	dedupe, err := idempotency.NewDeduper(redisClient, cfg.Service.Kind, cfg.Outbox.DedupeTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build dedupe manager", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Sink:          eventSink,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      eventRegistry,
		DLQRepository: dlqRepo,
		Dedupe:        dedupe,
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox publisher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"sink":        eventSink.Name(),
	})
	logg.Info(ctx, "starting outbox publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox publisher shutting down gracefully")
}
