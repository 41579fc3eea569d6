package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string             `toml:"environment"` // "development" or "production"
	Storage     StorageConfig      `toml:"storage"`
	Logging     LoggingConfig      `toml:"logging"`
	Pipeline    PipelineConfig     `toml:"pipeline"`
	Geocoder    GeocoderConfig     `toml:"geocoder"`
	Search      SearchConfig       `toml:"search"`
	Fetch       FetchConfig        `toml:"fetch"`
	GIS         GISConfig          `toml:"gis"`
	Gemini      GeminiConfig       `toml:"gemini"`
	Claude      ClaudeConfig       `toml:"claude"`
	LLM         LLMConfig          `toml:"llm"`
	Scheduler   SchedulerConfig    `toml:"scheduler"`
	Refresh     []RefreshDefinition `toml:"refresh"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	GCInterval     string `toml:"gc_interval"`      // Value-log GC interval as duration string (default: "5m")
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// PipelineConfig contains research pipeline execution settings
type PipelineConfig struct {
	WorkerTimeout     string  `toml:"worker_timeout"`      // Per-agent timeout as duration string (default: "90s")
	MaxParallelAgents int     `toml:"max_parallel_agents"` // Agents run concurrently per batch (default: 3)
	MaxSteps          int     `toml:"max_steps"`           // Hard cap on agent executions per job (default: 24)
	MaxWebCalls       int     `toml:"max_web_calls"`       // Cumulative web call budget per job (default: 60)
	EnrichedMaxAge    float64 `toml:"enriched_max_age_hours"` // Freshness horizon for the enrichment gate (default: 168)
}

// GeocoderConfig contains address lookup provider configuration
type GeocoderConfig struct {
	APIKey         string        `toml:"api_key"`         // Provider API key
	RateLimit      time.Duration `toml:"rate_limit"`      // Minimum time between API requests
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	MaxCandidates  int           `toml:"max_candidates"`  // Autocomplete candidates per query (default: 5)
}

// SearchConfig contains grounded web search configuration
type SearchConfig struct {
	Mode           string `toml:"mode"`             // "grounded" (Gemini search grounding) or "disabled"
	MaxResults     int    `toml:"max_results"`      // Default result cap per query (default: 8)
	IncludeText    bool   `toml:"include_text"`     // Fetch page text for hits by default
	FetchConcurrency int  `toml:"fetch_concurrency"` // Concurrent page fetches per search (default: 3)
}

// FetchConfig contains page fetch/render settings for listing pages
type FetchConfig struct {
	UserAgent          string        `toml:"user_agent"`           // Default user agent string
	RequestTimeout     time.Duration `toml:"request_timeout"`      // HTTP request timeout
	MaxBodySize        int           `toml:"max_body_size"`        // Maximum response body size in bytes
	OnlyMainContent    bool          `toml:"only_main_content"`    // Strip nav/footer/ads before conversion
	EnableJavaScript   bool          `toml:"enable_javascript"`    // Render script-heavy listing pages with chromedp
	JavaScriptWaitTime time.Duration `toml:"javascript_wait_time"` // Time to wait for rendering (default: 3s)
}

// GISConfig contains public GIS endpoint client configuration
type GISConfig struct {
	RateLimit       string `toml:"rate_limit"`        // Minimum interval between requests as duration string (default: "500ms")
	RequestTimeout  string `toml:"request_timeout"`   // HTTP request timeout as duration string (default: "20s")
	BreakerMaxFails int    `toml:"breaker_max_fails"` // Consecutive failures before the circuit opens (default: 5)
	BreakerCooldown string `toml:"breaker_cooldown"`  // Open-state cooldown as duration string (default: "30s")
	WalkScoreAPIKey string `toml:"walkscore_api_key"` // Walk Score API key (optional)
	RapidAPIKey     string `toml:"rapidapi_key"`      // RapidAPI key for listing-data hosts (optional)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for narrative and search operations (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for narrative operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for narrative providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// SchedulerConfig controls the background refresh scheduler in serve mode
type SchedulerConfig struct {
	Enabled bool `toml:"enabled"` // Run scheduled refresh definitions (default: false)
}

// RefreshDefinition describes a property researched on a cron schedule
type RefreshDefinition struct {
	Name     string `toml:"name"`     // Definition label for logs
	Schedule string `toml:"schedule"` // Cron expression (standard 5-field)
	Address  string `toml:"address"`
	City     string `toml:"city"`
	State    string `toml:"state"`
	Zip      string `toml:"zip"`
	Strategy string `toml:"strategy"` // "wholesale", "flip", or "rental"
	Mode     string `toml:"mode"`     // "pipeline" or "orchestrated"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in praedium.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:       "./data",
				GCInterval: "5m",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Pipeline: PipelineConfig{
			WorkerTimeout:     "90s",
			MaxParallelAgents: 3,
			MaxSteps:          24,
			MaxWebCalls:       60,
			EnrichedMaxAge:    168, // 7 days
		},
		Geocoder: GeocoderConfig{
			APIKey:         "", // User must provide API key in config file
			RateLimit:      1 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxCandidates:  5,
		},
		Search: SearchConfig{
			Mode:             "disabled", // Grounded search is opt-in; the null provider is the default
			MaxResults:       8,
			IncludeText:      false,
			FetchConcurrency: 3,
		},
		Fetch: FetchConfig{
			UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout:     30 * time.Second,
			MaxBodySize:        10 * 1024 * 1024, // 10MB
			OnlyMainContent:    true,
			EnableJavaScript:   false, // Listing hosts mostly serve static HTML; rendering is opt-in
			JavaScriptWaitTime: 3 * time.Second,
		},
		GIS: GISConfig{
			RateLimit:       "500ms",
			RequestTimeout:  "20s",
			BreakerMaxFails: 5,
			BreakerCooldown: "30s",
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			RateLimit:   "4s", // 15 RPM free tier
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Scheduler: SchedulerConfig{
			Enabled: false,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: PRAEDIUM_ENV, fallback: GO_ENV)
	if env := os.Getenv("PRAEDIUM_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if badgerPath := os.Getenv("PRAEDIUM_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("PRAEDIUM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("PRAEDIUM_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("PRAEDIUM_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Pipeline configuration
	if workerTimeout := os.Getenv("PRAEDIUM_PIPELINE_WORKER_TIMEOUT"); workerTimeout != "" {
		if _, err := time.ParseDuration(workerTimeout); err == nil {
			config.Pipeline.WorkerTimeout = workerTimeout
		}
	}
	if maxParallel := os.Getenv("PRAEDIUM_PIPELINE_MAX_PARALLEL_AGENTS"); maxParallel != "" {
		if mp, err := strconv.Atoi(maxParallel); err == nil && mp > 0 {
			config.Pipeline.MaxParallelAgents = mp
		}
	}
	if maxSteps := os.Getenv("PRAEDIUM_PIPELINE_MAX_STEPS"); maxSteps != "" {
		if ms, err := strconv.Atoi(maxSteps); err == nil && ms > 0 {
			config.Pipeline.MaxSteps = ms
		}
	}
	if maxWebCalls := os.Getenv("PRAEDIUM_PIPELINE_MAX_WEB_CALLS"); maxWebCalls != "" {
		if mw, err := strconv.Atoi(maxWebCalls); err == nil && mw > 0 {
			config.Pipeline.MaxWebCalls = mw
		}
	}
	if maxAge := os.Getenv("PRAEDIUM_PIPELINE_ENRICHED_MAX_AGE_HOURS"); maxAge != "" {
		if ma, err := strconv.ParseFloat(maxAge, 64); err == nil && ma > 0 {
			config.Pipeline.EnrichedMaxAge = ma
		}
	}

	// Geocoder configuration
	if apiKey := os.Getenv("PRAEDIUM_GEOCODER_API_KEY"); apiKey != "" {
		config.Geocoder.APIKey = apiKey
	}

	// Search configuration
	if searchMode := os.Getenv("PRAEDIUM_SEARCH_MODE"); searchMode != "" {
		config.Search.Mode = searchMode
	}

	// GIS configuration
	if walkScoreKey := os.Getenv("PRAEDIUM_WALKSCORE_API_KEY"); walkScoreKey != "" {
		config.GIS.WalkScoreAPIKey = walkScoreKey
	}
	if rapidKey := os.Getenv("PRAEDIUM_RAPIDAPI_KEY"); rapidKey != "" {
		config.GIS.RapidAPIKey = rapidKey
	}

	// Gemini configuration
	if apiKey := os.Getenv("PRAEDIUM_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("PRAEDIUM_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("PRAEDIUM_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("PRAEDIUM_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("PRAEDIUM_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("PRAEDIUM_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // PRAEDIUM_ prefix takes priority
	}
	if model := os.Getenv("PRAEDIUM_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("PRAEDIUM_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("PRAEDIUM_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("PRAEDIUM_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("PRAEDIUM_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("PRAEDIUM_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Scheduler configuration
	if enabled := os.Getenv("PRAEDIUM_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
}

// ValidateRefreshSchedule validates a cron schedule expression and ensures
// a minimum 5-minute interval between runs.
func ValidateRefreshSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// WorkerTimeoutDuration returns the per-agent timeout, falling back to 90s
// when the configured string does not parse.
func (c *Config) WorkerTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.WorkerTimeout)
	if err != nil || d <= 0 {
		return 90 * time.Second
	}
	return d
}

// GCIntervalDuration returns the Badger value-log GC interval, falling back
// to 5m when the configured string does not parse.
func (c *Config) GCIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.Storage.Badger.GCInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
