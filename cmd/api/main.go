package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"prdapi/internal/bootstrap"
	"prdapi/internal/config"
	handlers "prdapi/internal/http/handler"
	"prdapi/internal/http/middleware"
	"prdapi/internal/indexer"
	"prdapi/internal/logger"
	"prdapi/internal/metrics"
	"prdapi/internal/otel"
	"prdapi/internal/service"
)

const (
	bodyLimit       = 8 << 20
	shutdownTimeout = 15 * time.Second
)

// @title PRD Document Service
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Pretty:   cfg.LogPretty,
		Location: cfg.Location(),
		Service:  cfg.ServiceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. Errors are returned, never fatal, so every deferred close runs.
func run(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) error {
	shutdownTracing, err := otel.Init(ctx, cfg.ServiceName, cfg.Version, log)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error().Err(err).Msg("tracing shutdown")
		}
	}()

	objStore, err := bootstrap.OpenStorage(cfg.MinIO, log)
	if err != nil {
		return fmt.Errorf("initialize object storage: %w", err)
	}

	index, err := bootstrap.OpenIndex(ctx, cfg.Database, false, log)
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer index.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg, "/healthz")
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	// A configured public base URL wins over presigned links.
	shareTTL := cfg.MinIO.ShareURLTTL
	if cfg.MinIO.PublicBaseURL != "" {
		shareTTL = 0
	}
	docSvc := service.NewDocumentService(objStore, index.Repo, m, log, service.Options{
		Prefix:      cfg.MinIO.Prefix,
		MaxResults:  cfg.Search.MaxResults,
		ShareURLTTL: shareTTL,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())
	app.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, m.RateLimited).Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		Service: docSvc,
		Index:   index.Repo,
		Info: handlers.Info{
			Service: cfg.ServiceName,
			Version: cfg.Version,
			Bucket:  objStore.Bucket(),
			Index:   index.Name,
			Project: cfg.ProjectID,
		},
		Gatherer: reg,
		Log:      log,
	})

	app.Get("/swagger/*", handlers.Swagger(cfg.AppHost))

	if index.Name != "disabled" && cfg.Indexer.Interval > 0 {
		ix := indexer.New(objStore, index.Repo, cfg.MinIO.Prefix, cfg.Indexer.BatchSize, m, log)
		go ix.Run(ctx, cfg.Indexer.Interval)
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("index", index.Name).Msg("server listening")
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Info().Msg("server stopped")
	return nil
}
