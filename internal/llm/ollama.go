package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"
)

// Ollama runs generations on a local Ollama server. Web search is not available there.
type Ollama struct {
	client *api.Client
	log    zerolog.Logger
}

func NewOllama(baseURL string, httpClient *http.Client, log zerolog.Logger) (*Ollama, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("llm: invalid ollama url %q: %w", baseURL, err)
	}
	return &Ollama{client: api.NewClient(u, httpClient), log: log}, nil
}

func (o *Ollama) Generate(ctx context.Context, r Request) (string, error) {
	if r.WebSearch {
		o.log.Debug().Str("model", r.Model).Msg("web search not supported by ollama, ignoring")
	}

	var messages []api.Message
	if r.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: r.System})
	}
	messages = append(messages, api.Message{Role: "user", Content: r.Prompt})

	stream := false
	options := map[string]interface{}{"temperature": r.Temperature}
	if r.MaxTokens > 0 {
		options["num_predict"] = r.MaxTokens
	}
	req := &api.ChatRequest{
		Model:    r.Model,
		Messages: messages,
		Options:  options,
		Stream:   &stream,
	}

	var out strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm: ollama chat: %w", err)
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", ErrEmptyResponse
	}
	return out.String(), nil
}
