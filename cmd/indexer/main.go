// Command indexer ingests stored HTML renditions into the PostgreSQL full-text index.
// With -once it runs a single pass and exits.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"prdapi/internal/bootstrap"
	"prdapi/internal/config"
	"prdapi/internal/indexer"
	"prdapi/internal/logger"
	"prdapi/internal/metrics"
)

func main() {
	once := flag.Bool("once", false, "run a single ingestion pass and exit")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Pretty:   cfg.LogPretty,
		Location: cfg.Location(),
		Service:  "prd-indexer",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	objStore, err := bootstrap.OpenStorage(cfg.MinIO, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}
	index, err := bootstrap.OpenIndex(ctx, cfg.Database, true, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open search index")
	}
	defer index.Close()
	if index.Name == "disabled" {
		log.Fatal().Msg("indexer requires DB_HOST")
	}

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	ix := indexer.New(objStore, index.Repo, cfg.MinIO.Prefix, cfg.Indexer.BatchSize, m, log)
	if *once {
		st, err := ix.SyncOnce(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("index sync failed")
		}
		log.Info().Int("indexed", st.Indexed).Int("failed", st.Failed).Msg("done")
		return
	}

	interval := cfg.Indexer.Interval
	if interval <= 0 {
		log.Fatal().Msg("INDEXER_INTERVAL must be positive without -once")
	}
	ix.Run(ctx, interval)
}
