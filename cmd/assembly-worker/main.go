package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/attestly/poa-backend/internal/assembler"
	"github.com/attestly/poa-backend/internal/documents"
	"github.com/attestly/poa-backend/internal/poas"
	"github.com/attestly/poa-backend/internal/powers"
	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/config"
	"github.com/attestly/poa-backend/pkg/db"
	"github.com/attestly/poa-backend/pkg/logger"
	"github.com/attestly/poa-backend/pkg/metrics"
	"github.com/attestly/poa-backend/pkg/migrate"
	"github.com/attestly/poa-backend/pkg/outbox"
	"github.com/attestly/poa-backend/pkg/pubsub"
	"github.com/attestly/poa-backend/pkg/storage/gcs"
)

// The assembly worker consumes poa_submitted events and renders the
// instrument PDF for each submitted draft.
func main() {
	logg := logger.New(logger.Options{ServiceName: "assembly-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "assembly-worker"

	logg = logger.New(logger.Options{
		ServiceName: "assembly-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	requireResource(ctx, logg, "gcs", err)
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(ctx, "error closing gcs client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}()

	engine := validation.NewEngine()
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	powersService, err := powers.NewService(powers.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "powers service", err)

	assemblyMetrics := metrics.NewAssemblyMetrics(prometheus.DefaultRegisterer)

	documentService, err := documents.NewService(
		documents.NewRepository(dbClient.DB()),
		poas.NewRepository(dbClient.DB()),
		engine,
		powersService,
		assembler.New(cfg.Assembly),
		gcsClient,
		dbClient,
		outboxService,
		assemblyMetrics,
		logg,
		cfg.Assembly,
	)
	requireResource(ctx, logg, "document service", err)

	consumer, err := documents.NewSubmittedConsumer(documentService, pubsubClient.DomainSubscription(), logg)
	requireResource(ctx, logg, "submitted consumer", err)

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting assembly worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "assembly worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "assembly worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
