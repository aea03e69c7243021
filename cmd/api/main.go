package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/attestly/poa-backend/api/routes"
	"github.com/attestly/poa-backend/internal/assembler"
	"github.com/attestly/poa-backend/internal/documents"
	"github.com/attestly/poa-backend/internal/lifecycle"
	"github.com/attestly/poa-backend/internal/notifications"
	"github.com/attestly/poa-backend/internal/poas"
	"github.com/attestly/poa-backend/internal/powers"
	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/internal/wizard"
	"github.com/attestly/poa-backend/pkg/config"
	"github.com/attestly/poa-backend/pkg/db"
	"github.com/attestly/poa-backend/pkg/logger"
	"github.com/attestly/poa-backend/pkg/metrics"
	"github.com/attestly/poa-backend/pkg/migrate"
	"github.com/attestly/poa-backend/pkg/outbox"
	"github.com/attestly/poa-backend/pkg/redis"
	"github.com/attestly/poa-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	registry := prometheus.NewRegistry()
	assemblyMetrics := metrics.NewAssemblyMetrics(registry)

	engine := validation.NewEngine()
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	powersService, err := powers.NewService(powers.NewRepository(dbClient.DB()))
	requireResource(logg, "powers service", err)

	poaRepo := poas.NewRepository(dbClient.DB())
	documentRepo := documents.NewRepository(dbClient.DB())

	poaService, err := poas.NewService(poaRepo, documentRepo, engine, powersService, dbClient, outboxService)
	requireResource(logg, "poa service", err)

	lifecycleService, err := lifecycle.NewService(poaRepo, poas.NewAgentRepository(dbClient.DB()), dbClient, outboxService)
	requireResource(logg, "lifecycle service", err)

	documentService, err := documents.NewService(
		documentRepo,
		poaRepo,
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
	requireResource(logg, "document service", err)

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	requireResource(logg, "notification service", err)

	machine, err := wizard.NewMachine(engine)
	requireResource(logg, "wizard machine", err)

	autosave, err := wizard.NewAutosaveStore(redisClient, cfg.Autosave, logg)
	requireResource(logg, "autosave store", err)

	handler := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		GCS:           gcsClient,
		Registry:      registry,
		Machine:       machine,
		Autosave:      autosave,
		POAs:          poaService,
		Lifecycle:     lifecycleService,
		Documents:     documentService,
		Powers:        powersService,
		Notifications: notificationService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+name, err)
		os.Exit(1)
	}
}
