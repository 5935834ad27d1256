package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"moments/internal/config"
	"moments/internal/database"
	"moments/internal/database/migration"
	storepg "moments/internal/docstore/postgres"
	handlers "moments/internal/http/handler"
	"moments/internal/http/middleware"
	"moments/internal/identity"
	"moments/internal/otel"
	"moments/internal/purge"
	"moments/internal/service"
	"moments/internal/storage"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize tracing")
	}
	defer shutdownTracing(context.Background())

	// PostgreSQL connection with pooling via database/sql
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}

	// S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize object storage")
	}

	docs := storepg.New(db)
	provider := identity.NewPostgres(db, cfg.Auth)

	authSvc := service.NewAuthService(provider, docs)
	postSvc := service.NewPostService(docs, objStore, cfg.Feed.PageSize)
	storySvc := service.NewStoryService(docs, objStore)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		logrus.WithError(err).Fatal("failed to register metrics")
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, authSvc, postSvc, storySvc)

	if cfg.Purge.Enabled {
		worker := purge.New(docs, objStore, cfg.Purge.Interval)
		go worker.Run(ctx)
	}

	go func() {
		<-ctx.Done()
		logrus.Info("shutting down")
		app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
