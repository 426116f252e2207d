package config

import (
	"strings"
	"time"
)

// LLMConfig selects and tunes the text-generation runtime used by the authoring pipeline.
type LLMConfig struct {
	Provider       string // "openrouter" or "ollama"
	BaseURL        string
	APIKey         string
	ResearchModel  string
	SynthesisModel string
	DraftModel     string
	RPS            float64
	Timeout        time.Duration
}

// RedisConfig holds the session store connection. An empty Addr selects the in-memory store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// SessionConfig bounds the interactive authoring session.
type SessionConfig struct {
	TTL            time.Duration
	HumanTimeout   time.Duration
	MaxRefinements int
}

// AgentConfig is the configuration of the pmagent orchestrating client.
type AgentConfig struct {
	MCPServerURL string
	MCPAuthToken string
	Author       string
	Version      string
	LogLevel     string
	LogPretty    bool
	LLM          LLMConfig
	Redis        RedisConfig
	Session      SessionConfig
}

// LoadAgent reads the orchestrating client configuration from environment variables.
func LoadAgent() *AgentConfig {
	v := newViper()

	v.SetDefault("MCP_SERVER_URL", "http://localhost:8080")
	v.SetDefault("PRD_AUTHOR", "PM Agent")
	v.SetDefault("PRD_VERSION", "1.0")
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LLM_PROVIDER", "openrouter")
	v.SetDefault("LLM_RPS", 1.0)
	v.SetDefault("LLM_TIMEOUT", 5*time.Minute)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "pmagent:session:")
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("HUMAN_TIMEOUT", 30*time.Minute)
	v.SetDefault("MAX_REFINEMENTS", 5)

	provider := strings.ToLower(v.GetString("LLM_PROVIDER"))
	baseURL := v.GetString("LLM_BASE_URL")
	if baseURL == "" {
		baseURL = defaultLLMBaseURL(provider)
	}
	models := defaultLLMModels(provider)
	model := func(key string, fallback string) string {
		if m := strings.TrimSpace(v.GetString(key)); m != "" {
			return m
		}
		return fallback
	}

	return &AgentConfig{
		MCPServerURL: strings.TrimRight(v.GetString("MCP_SERVER_URL"), "/"),
		MCPAuthToken: v.GetString("MCP_AUTH_TOKEN"),
		Author:       v.GetString("PRD_AUTHOR"),
		Version:      v.GetString("PRD_VERSION"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		LogPretty:    v.GetBool("LOG_PRETTY"),
		LLM: LLMConfig{
			Provider:       provider,
			BaseURL:        strings.TrimRight(baseURL, "/"),
			APIKey:         v.GetString("LLM_API_KEY"),
			ResearchModel:  model("RESEARCH_MODEL", models.research),
			SynthesisModel: model("SYNTHESIS_MODEL", models.synthesis),
			DraftModel:     model("DRAFT_MODEL", models.draft),
			RPS:            v.GetFloat64("LLM_RPS"),
			Timeout:        v.GetDuration("LLM_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Prefix:   v.GetString("REDIS_PREFIX"),
		},
		Session: SessionConfig{
			TTL:            v.GetDuration("SESSION_TTL"),
			HumanTimeout:   v.GetDuration("HUMAN_TIMEOUT"),
			MaxRefinements: v.GetInt("MAX_REFINEMENTS"),
		},
	}
}

func defaultLLMBaseURL(provider string) string {
	if provider == "ollama" {
		return "http://localhost:11434"
	}
	return "https://openrouter.ai/api/v1"
}

type stageModels struct {
	research, synthesis, draft string
}

// defaultLLMModels names models the provider actually serves: OpenRouter ids are vendor-qualified,
// Ollama expects a locally pulled tag.
func defaultLLMModels(provider string) stageModels {
	if provider == "ollama" {
		return stageModels{research: "llama3.1:8b", synthesis: "llama3.1:8b", draft: "llama3.1:8b"}
	}
	return stageModels{
		research:  "google/gemini-2.5-flash",
		synthesis: "google/gemini-2.5-pro",
		draft:     "google/gemini-2.5-pro",
	}
}
