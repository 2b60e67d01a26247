package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for jobpulse.
type Config struct {
	ScheduleInterval  time.Duration
	SourceConcurrency int // connectors run at once
	DataDir           string
	Warehouse         WarehouseConfig
	Checkpoints       CheckpointConfig
	HTTP              HTTPConfig
	Retry             RetryConfig
	RateLimit         RateLimitConfig
	Sources           []SourceConfig
	Filters           FilterConfig
	Normalizer        NormalizerConfig
	AI                AIConfig
	Loader            LoaderConfig
	Analytics         AnalyticsConfig
	Reporting         ReportingConfig
	Telemetry         TelemetryConfig
}

// WarehouseConfig selects the relational store.
type WarehouseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// CheckpointConfig selects where source checkpoints live.
type CheckpointConfig struct {
	Backend string `yaml:"backend"` // "file" or "warehouse"
	Dir     string `yaml:"dir"`
}

// HTTPConfig controls the shared scraping client.
type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// RetryConfig bounds transient fetch retries.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// RateLimitConfig controls per-source rate limiting.
type RateLimitConfig struct {
	MinDelay        time.Duration            // minimum gap between requests to the same source
	SourceOverrides map[string]time.Duration // keyed by source name
}

// MinDelayFor returns the configured delay for the given source, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(source string) time.Duration {
	if d, ok := r.SourceOverrides[source]; ok {
		return d
	}
	return r.MinDelay
}

// SourceConfig describes a single job board to scrape.
type SourceConfig struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"` // remoteok, weworkremotely, ycombinator, naukri
	Enabled    bool     `yaml:"enabled"`
	BaseURL    string   `yaml:"base_url"`
	MaxPages   int      `yaml:"max_pages"`
	MaxItems   int      `yaml:"max_items"`
	Role       string   `yaml:"role"`       // naukri search role
	Categories []string `yaml:"categories"` // weworkremotely feeds
}

// FilterConfig holds title keyword filters applied before staging.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
}

// NormalizerConfig tunes skill extraction.
type NormalizerConfig struct {
	ExtraSkills    []ExtraSkill `yaml:"extra_skills"`
	HeuristicTerms bool         `yaml:"heuristic_terms"`
}

// ExtraSkill extends the built-in skill vocabulary.
type ExtraSkill struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Aliases  []string `yaml:"aliases"`
}

// AIConfig controls the optional LLM skill tagger.
type AIConfig struct {
	Enabled bool
	BaseURL string
	Model   string
	APIKey  string // expanded from env var by Load
	Timeout time.Duration
}

// LoaderConfig controls warehouse batching.
type LoaderConfig struct {
	BatchSize int
}

// AnalyticsConfig controls the analytics engine.
type AnalyticsConfig struct {
	Forecaster     string // "seasonal" or "linear"
	SeasonLength   int
	TrendingWindow time.Duration
	TopN           int
	Cache          CacheConfig
}

// CacheConfig selects the analytics result cache.
type CacheConfig struct {
	Type          string // "none", "memory" or "redis"
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ReportingConfig selects where run reports are delivered.
type ReportingConfig struct {
	Type        string `yaml:"type"`        // "log", "slack" or "nats"
	WebhookURL  string `yaml:"webhook_url"` // required if type is "slack"
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

// TelemetryConfig controls tracing and metrics exposure.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	MetricsAddr  string `yaml:"metrics_addr"`
	ServiceName  string `yaml:"service_name"`
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultUserAgent     = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultNATSSubject   = "jobpulse.run.completed"
)

// SourceTypes lists the supported source implementations.
var SourceTypes = []string{"remoteok", "weworkremotely", "ycombinator", "naukri"}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	ScheduleInterval  string              `yaml:"schedule_interval"`
	SourceConcurrency int                 `yaml:"source_concurrency"`
	DataDir           string              `yaml:"data_dir"`
	Warehouse         WarehouseConfig     `yaml:"warehouse"`
	Checkpoints       CheckpointConfig    `yaml:"checkpoints"`
	HTTP              rawHTTPConfig       `yaml:"http"`
	Retry             rawRetryConfig      `yaml:"retry"`
	RateLimit         rawRateLimitConfig  `yaml:"rate_limit"`
	Sources           []SourceConfig      `yaml:"sources"`
	Filters           FilterConfig        `yaml:"filters"`
	Normalizer        rawNormalizerConfig `yaml:"normalizer"`
	AI                rawAIConfig         `yaml:"ai"`
	Loader            rawLoaderConfig     `yaml:"loader"`
	Analytics         rawAnalyticsConfig  `yaml:"analytics"`
	Reporting         ReportingConfig     `yaml:"reporting"`
	Telemetry         TelemetryConfig     `yaml:"telemetry"`
}

type rawHTTPConfig struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawRateLimitConfig struct {
	MinDelay        string            `yaml:"min_delay"`
	SourceOverrides map[string]string `yaml:"source_overrides"`
}

type rawNormalizerConfig struct {
	ExtraSkills    []ExtraSkill `yaml:"extra_skills"`
	HeuristicTerms *bool        `yaml:"heuristic_terms"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawLoaderConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type rawAnalyticsConfig struct {
	Forecaster     string         `yaml:"forecaster"`
	SeasonLength   int            `yaml:"season_length"`
	TrendingWindow string         `yaml:"trending_window"`
	TopN           int            `yaml:"top_n"`
	Cache          rawCacheConfig `yaml:"cache"`
}

type rawCacheConfig struct {
	Type          string `yaml:"type"`
	TTL           string `yaml:"ttl"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from raw YAML bytes. Environment variables are
// expanded before parsing.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var err error
	d := durations{}
	interval := d.parse("schedule_interval", raw.ScheduleInterval, 24*time.Hour)
	httpTimeout := d.parse("http.timeout", raw.HTTP.Timeout, 30*time.Second)
	retryDelay := d.parse("retry.base_delay", raw.Retry.BaseDelay, 2*time.Second)
	minDelay := d.parse("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second)
	aiTimeout := d.parse("ai.timeout", raw.AI.Timeout, 30*time.Second)
	trendingWindow := d.parse("analytics.trending_window", raw.Analytics.TrendingWindow, 30*24*time.Hour)
	cacheTTL := d.parse("analytics.cache.ttl", raw.Analytics.Cache.TTL, 15*time.Minute)

	overrides := make(map[string]time.Duration)
	for name, v := range raw.RateLimit.SourceOverrides {
		overrides[name] = d.parse(fmt.Sprintf("rate_limit.source_overrides[%q]", name), v, minDelay)
	}
	if d.err != nil {
		return nil, d.err
	}

	maxRetries := 3
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	heuristic := true
	if raw.Normalizer.HeuristicTerms != nil {
		heuristic = *raw.Normalizer.HeuristicTerms
	}

	concurrency := raw.SourceConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	dataDir := raw.DataDir
	if dataDir == "" {
		dataDir = "data"
	}

	wh := raw.Warehouse
	if wh.Driver == "" {
		wh.Driver = "sqlite"
	}
	if wh.DSN == "" && wh.Driver == "sqlite" {
		wh.DSN = filepath.Join(dataDir, "jobpulse.db")
	}

	cp := raw.Checkpoints
	if cp.Backend == "" {
		cp.Backend = "file"
	}
	if cp.Dir == "" {
		cp.Dir = filepath.Join(dataDir, "checkpoints")
	}

	sources := make([]SourceConfig, len(raw.Sources))
	for i, s := range raw.Sources {
		if s.Name == "" {
			s.Name = s.Type
		}
		if s.MaxPages <= 0 {
			s.MaxPages = 1
		}
		sources[i] = s
	}

	userAgent := raw.HTTP.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	batchSize := raw.Loader.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}

	forecaster := raw.Analytics.Forecaster
	if forecaster == "" {
		forecaster = "seasonal"
	}
	seasonLength := raw.Analytics.SeasonLength
	if seasonLength <= 0 {
		seasonLength = 7
	}
	topN := raw.Analytics.TopN
	if topN <= 0 {
		topN = 20
	}
	cacheType := raw.Analytics.Cache.Type
	if cacheType == "" {
		cacheType = "memory"
	}

	reporting := raw.Reporting
	if reporting.Type == "" {
		reporting.Type = "log"
	}
	if reporting.NATSSubject == "" {
		reporting.NATSSubject = defaultNATSSubject
	}

	telemetry := raw.Telemetry
	if telemetry.ServiceName == "" {
		telemetry.ServiceName = "jobpulse"
	}

	cfg := &Config{
		ScheduleInterval:  interval,
		SourceConcurrency: concurrency,
		DataDir:           dataDir,
		Warehouse:         wh,
		Checkpoints:       cp,
		HTTP:              HTTPConfig{Timeout: httpTimeout, UserAgent: userAgent},
		Retry:             RetryConfig{MaxRetries: maxRetries, BaseDelay: retryDelay},
		RateLimit:         RateLimitConfig{MinDelay: minDelay, SourceOverrides: overrides},
		Sources:           sources,
		Filters:           raw.Filters,
		Normalizer:        NormalizerConfig{ExtraSkills: raw.Normalizer.ExtraSkills, HeuristicTerms: heuristic},
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: aiBaseURL,
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		Loader: LoaderConfig{BatchSize: batchSize},
		Analytics: AnalyticsConfig{
			Forecaster:     forecaster,
			SeasonLength:   seasonLength,
			TrendingWindow: trendingWindow,
			TopN:           topN,
			Cache: CacheConfig{
				Type:          cacheType,
				TTL:           cacheTTL,
				RedisAddr:     raw.Analytics.Cache.RedisAddr,
				RedisPassword: raw.Analytics.Cache.RedisPassword,
				RedisDB:       raw.Analytics.Cache.RedisDB,
			},
		},
		Reporting: reporting,
		Telemetry: telemetry,
	}

	if err = validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnabledSources returns the enabled sources in config order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// StagingDir is where per-source staging files live.
func (c *Config) StagingDir() string {
	return filepath.Join(c.DataDir, "staging")
}

// durations collects the first parse error so Parse can report it once.
type durations struct {
	err error
}

func (d *durations) parse(field, value string, def time.Duration) time.Duration {
	if value == "" || d.err != nil {
		return def
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		d.err = fmt.Errorf("parse %s %q: %w", field, value, err)
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.ScheduleInterval <= 0 {
		return fmt.Errorf("schedule_interval must be positive, got %v", cfg.ScheduleInterval)
	}

	switch cfg.Warehouse.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("warehouse.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Warehouse.Driver)
	}
	if cfg.Warehouse.DSN == "" {
		return fmt.Errorf("warehouse.dsn is required for driver %q", cfg.Warehouse.Driver)
	}

	switch cfg.Checkpoints.Backend {
	case "file", "warehouse":
	default:
		return fmt.Errorf("checkpoints.backend must be \"file\" or \"warehouse\", got %q", cfg.Checkpoints.Backend)
	}

	if cfg.Retry.MaxRetries < 0 || cfg.Retry.MaxRetries > 10 {
		return fmt.Errorf("retry.max_retries must be between 0 and 10, got %d", cfg.Retry.MaxRetries)
	}

	enabled := 0
	seen := make(map[string]bool)
	for _, s := range cfg.Sources {
		if !knownSourceType(s.Type) {
			return fmt.Errorf("source %q: unsupported type %q (want one of %s)", s.Name, s.Type, strings.Join(SourceTypes, ", "))
		}
		if seen[s.Name] {
			return fmt.Errorf("source %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
		if s.Type == "naukri" && s.Role == "" {
			return fmt.Errorf("source %q: role is required for naukri", s.Name)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	switch cfg.Analytics.Forecaster {
	case "seasonal", "linear":
	default:
		return fmt.Errorf("analytics.forecaster must be \"seasonal\" or \"linear\", got %q", cfg.Analytics.Forecaster)
	}

	switch cfg.Analytics.Cache.Type {
	case "none", "memory":
	case "redis":
		if cfg.Analytics.Cache.RedisAddr == "" {
			return fmt.Errorf("analytics.cache.redis_addr is required when cache type is \"redis\"")
		}
	default:
		return fmt.Errorf("analytics.cache.type must be none, memory or redis, got %q", cfg.Analytics.Cache.Type)
	}

	switch cfg.Reporting.Type {
	case "log":
	case "slack":
		if !strings.HasPrefix(cfg.Reporting.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("reporting.webhook_url must start with https://hooks.slack.com/")
		}
	case "nats":
		if cfg.Reporting.NATSURL == "" {
			return fmt.Errorf("reporting.nats_url is required when type is \"nats\"")
		}
	default:
		return fmt.Errorf("reporting.type must be log, slack or nats, got %q", cfg.Reporting.Type)
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}

func knownSourceType(t string) bool {
	for _, s := range SourceTypes {
		if s == t {
			return true
		}
	}
	return false
}
