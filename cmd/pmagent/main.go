// Command pmagent turns a product idea into a stored PRD. It checks the document service for
// similar PRDs, generates a draft through a three-stage LLM pipeline and saves it after approval.
//
//	pmagent "an app that tracks pantry items"
//	pmagent -resume <session-id>
//	pmagent -discard <session-id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"prdapi/internal/config"
	"prdapi/internal/console"
	"prdapi/internal/llm"
	"prdapi/internal/logger"
	"prdapi/internal/otel"
	"prdapi/internal/pipeline"
	"prdapi/internal/prdclient"
	"prdapi/internal/session"
	"prdapi/internal/workflow"
)

const serviceName = "pmagent"

func main() {
	resume := flag.String("resume", "", "resume a waiting session by id")
	discard := flag.String("discard", "", "drop a waiting session by id")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	cfg := config.LoadAgent()
	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Output:  os.Stderr,
		Service: serviceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := invocation{
		resumeID:    *resume,
		discardID:   *discard,
		description: strings.Join(flag.Args(), " "),
		noColor:     *noColor,
	}
	if err := run(ctx, cfg, args, log); err != nil {
		if errors.Is(err, workflow.ErrHumanTimeout) || errors.Is(err, context.Canceled) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type invocation struct {
	resumeID    string
	discardID   string
	description string
	noColor     bool
}

func run(ctx context.Context, cfg *config.AgentConfig, args invocation, log zerolog.Logger) error {
	shutdown, err := otel.Init(ctx, serviceName, cfg.Version, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("tracer shutdown failed")
		}
	}()

	store, closeStore, err := openSessions(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeStore()

	ui := console.New(os.Stdin, os.Stdout, args.noColor)

	docs := prdclient.New(cfg.MCPServerURL, prdclient.WithToken(cfg.MCPAuthToken))

	if args.discardID != "" {
		return workflow.New(docs, nil, store, ui, workflow.Options{}, log).Discard(ctx, args.discardID)
	}

	if err := docs.CheckTools(ctx); err != nil {
		return fmt.Errorf("document service at %s: %w", cfg.MCPServerURL, err)
	}

	client, err := llm.New(cfg.LLM, log)
	if err != nil {
		return err
	}
	gen := pipeline.New(client, pipeline.DefaultStages(cfg.LLM), log)

	ui.Banner(cfg.MCPServerURL)

	wf := workflow.New(docs, gen, store, ui, workflow.Options{
		Author:         cfg.Author,
		Version:        cfg.Version,
		MaxRefinements: cfg.Session.MaxRefinements,
		HumanTimeout:   cfg.Session.HumanTimeout,
		SessionTTL:     cfg.Session.TTL,
	}, log)

	var s *session.Session
	if args.resumeID != "" {
		s, err = wf.Resume(ctx, args.resumeID)
	} else {
		description := args.description
		if strings.TrimSpace(description) == "" {
			if description, err = ui.Ask(ctx, "Describe your product idea:"); err != nil {
				return err
			}
		}
		s, err = wf.Start(ctx, description)
	}
	if s != nil {
		log.Info().Str("session_id", s.ID).Str("state", string(s.State)).Str("outcome", string(s.Outcome)).Msg("session finished")
	}
	return err
}

// openSessions selects Redis when an address is configured and the in-process store otherwise.
func openSessions(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (session.Store, func(), error) {
	if cfg.Addr == "" {
		log.Debug().Msg("using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	log.Debug().Str("addr", cfg.Addr).Msg("using redis session store")
	return session.NewRedisStore(rdb, cfg.Prefix), func() { _ = rdb.Close() }, nil
}
