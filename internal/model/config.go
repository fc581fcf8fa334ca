package model

import "time"

// Config is the complete veridex configuration
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Tools     ToolsConfig     `yaml:"tools"`
	Agent     AgentConfig     `yaml:"agent"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Database  DatabaseConfig  `yaml:"database"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// LLMConfig configures the generative-model endpoint. The endpoint is
// OpenAI-compatible; a single model serves both the fast/structured mode
// and the chain-of-thought mode, toggled per request.
type LLMConfig struct {
	BaseURL          string        `yaml:"base_url"`
	APIKey           string        `yaml:"api_key,omitempty"`
	Model            string        `yaml:"model"`
	MaxTokens        int           `yaml:"max_tokens"`
	Temperature      float32       `yaml:"temperature"`
	RetryTemperature float32       `yaml:"retry_temperature"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryPause       time.Duration `yaml:"retry_pause"`
	Timeout          time.Duration `yaml:"timeout"`
}

// ToolsConfig configures the research toolset. Empty credential fields
// leave the corresponding tool out of the agent's toolset.
type ToolsConfig struct {
	SearxURL         string        `yaml:"searx_url,omitempty"`
	SerperAPIKey     string        `yaml:"serper_api_key,omitempty"`
	BraveAPIKey      string        `yaml:"brave_api_key,omitempty"`
	NewsAPIKey       string        `yaml:"news_api_key,omitempty"`
	UserAgent        string        `yaml:"user_agent"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	MaxPageContent   int           `yaml:"max_page_content"`
	SearchMaxResults int           `yaml:"search_max_results"`
}

// AgentConfig bounds the evidence agent's reason/act/observe loop
type AgentConfig struct {
	// MaxSteps bounds the loop. A tool call costs two steps (one model
	// decision, one tool execution), so 25 allows roughly 10-12 calls.
	MaxSteps int `yaml:"max_steps"`
	// Timeout is the soft wall-clock budget. On expiry the loop is
	// abandoned and the deterministic fallback runs instead.
	Timeout time.Duration `yaml:"timeout"`
	// FallbackMaxEvidence caps how many records the fallback returns.
	FallbackMaxEvidence int `yaml:"fallback_max_evidence"`
}

// StagePolicy is the per-stage timeout and retry budget of the orchestrator
type StagePolicy struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// PipelineConfig fixes the orchestrator's stage parameters. These bound
// worst-case pipeline latency and are first-class configuration.
type PipelineConfig struct {
	MaxSubClaims  int         `yaml:"max_sub_claims"`
	MaxConcurrent int         `yaml:"max_concurrent"`
	Create        StagePolicy `yaml:"create"`
	Decompose     StagePolicy `yaml:"decompose"`
	Research      StagePolicy `yaml:"research"`
	Judge         StagePolicy `yaml:"judge"`
	Synthesize    StagePolicy `yaml:"synthesize"`
	Store         StagePolicy `yaml:"store"`
}

// DatabaseConfig configures the persistence collaborator. An empty URL
// selects the in-memory store.
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty"`
}

// RateLimitConfig configures per-domain rate limiting for tool HTTP calls
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// DefaultConfig returns the standard configuration
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:          "http://localhost:8080/v1",
			Model:            "",
			MaxTokens:        8192,
			Temperature:      0.1,
			RetryTemperature: 0.3,
			MaxRetries:       2,
			RetryPause:       time.Second,
			Timeout:          120 * time.Second,
		},
		Tools: ToolsConfig{
			UserAgent:        "Veridex/0.2 (+https://github.com/ppiankov/veridex)",
			FetchTimeout:     15 * time.Second,
			MaxPageContent:   8000,
			SearchMaxResults: 5,
		},
		Agent: AgentConfig{
			MaxSteps:            25,
			Timeout:             240 * time.Second,
			FallbackMaxEvidence: 6,
		},
		Pipeline: PipelineConfig{
			MaxSubClaims:  6,
			MaxConcurrent: 2,
			Create:        StagePolicy{Timeout: 15 * time.Second, MaxAttempts: 3},
			Decompose:     StagePolicy{Timeout: 60 * time.Second, MaxAttempts: 3},
			Research:      StagePolicy{Timeout: 300 * time.Second, MaxAttempts: 3},
			Judge:         StagePolicy{Timeout: 120 * time.Second, MaxAttempts: 3},
			Synthesize:    StagePolicy{Timeout: 60 * time.Second, MaxAttempts: 3},
			Store:         StagePolicy{Timeout: 30 * time.Second, MaxAttempts: 3},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1.0,
			Burst:             3,
		},
	}
}
