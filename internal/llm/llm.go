// Package llm is the text-generation runtime used by the authoring pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"prdapi/internal/config"
)

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is one single-turn generation.
type Request struct {
	Model  string
	System string
	Prompt string
	// WebSearch asks the provider to ground the answer in live web results where supported.
	WebSearch   bool
	Temperature float64
	MaxTokens   int
}

// Client generates text.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// New builds the client selected by cfg.Provider, throttled to cfg.RPS requests per second.
func New(cfg config.LLMConfig, log zerolog.Logger) (Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	log = log.With().Str("component", "llm").Str("provider", cfg.Provider).Logger()

	var c Client
	switch cfg.Provider {
	case "openrouter", "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: LLM_API_KEY is required for provider %q", cfg.Provider)
		}
		c = NewOpenRouter(cfg.BaseURL, cfg.APIKey, httpClient)
	case "ollama":
		oc, err := NewOllama(cfg.BaseURL, httpClient, log)
		if err != nil {
			return nil, err
		}
		c = oc
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}

	return WithRateLimit(c, cfg.RPS), nil
}

type rateLimited struct {
	next    Client
	limiter *rate.Limiter
}

// WithRateLimit throttles c to rps calls per second. rps <= 0 returns c unchanged.
func WithRateLimit(c Client, rps float64) Client {
	if rps <= 0 {
		return c
	}
	return &rateLimited{next: c, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (r *rateLimited) Generate(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limit wait: %w", err)
	}
	return r.next.Generate(ctx, req)
}
