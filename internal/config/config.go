// Package config loads lexpure settings from a YAML file and LEXPURE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/lexpure/internal"
	"github.com/valpere/lexpure/internal/gate"
	"github.com/valpere/lexpure/internal/orchestrator"
	"github.com/valpere/lexpure/internal/sanitize"
	"github.com/valpere/lexpure/internal/script"
)

// EnvPrefix prefixes every environment override, e.g. LEXPURE_CACHE_BACKEND.
const EnvPrefix = "LEXPURE"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

type Config struct {
	Languages   []string        `mapstructure:"languages"`
	Providers   []Provider      `mapstructure:"providers"`
	Thresholds  Thresholds      `mapstructure:"thresholds"`
	Timeouts    Timeouts        `mapstructure:"timeouts"`
	MaxAttempts int             `mapstructure:"max_attempts"`
	RetryDelay  time.Duration   `mapstructure:"retry_delay"`
	ChunkChars  int             `mapstructure:"chunk_chars"`
	Sanitizer   SanitizerConfig `mapstructure:"sanitizer"`
	Fallback    FallbackConfig  `mapstructure:"fallback"`
	Intent      IntentConfig    `mapstructure:"intent"`
	Cache       CacheConfig     `mapstructure:"cache"`
	DB          DBConfig        `mapstructure:"db"`
	Audit       AuditConfig     `mapstructure:"audit"`
	Log         LogConfig       `mapstructure:"log"`
}

// Provider configures one translation service. Providers are tried in the
// order they are listed.
type Provider struct {
	Name          string   `mapstructure:"name"`
	APIKey        string   `mapstructure:"api_key"`
	BaseURL       string   `mapstructure:"base_url"`
	Models        []string `mapstructure:"models"`
	Email         string   `mapstructure:"email"`
	Credentials   string   `mapstructure:"credentials"`
	RatePerSecond float64  `mapstructure:"rate_per_second"`
}

type Thresholds struct {
	ChatMessage   float64 `mapstructure:"chat_message"`
	LegalDocument float64 `mapstructure:"legal_document"`
	UILabel       float64 `mapstructure:"ui_label"`
}

type Timeouts struct {
	InteractiveCall    time.Duration `mapstructure:"interactive_call"`
	InteractiveRequest time.Duration `mapstructure:"interactive_request"`
	BatchCall          time.Duration `mapstructure:"batch_call"`
	BatchRequest       time.Duration `mapstructure:"batch_request"`
}

type SanitizerConfig struct {
	RulesFile string `mapstructure:"rules_file"`
	MaxRun    int    `mapstructure:"max_run"`
}

type FallbackConfig struct {
	TemplatesFile string `mapstructure:"templates_file"`
}

type IntentConfig struct {
	RulesFile string `mapstructure:"rules_file"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
}

// DBConfig locates the SQLite store holding fragments, attempts, CSV
// checkpoints and, with the sqlite backend, the cache.
type DBConfig struct {
	Path           string `mapstructure:"path"`
	RecordAttempts bool   `mapstructure:"record_attempts"`
}

type AuditConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	oc := orchestrator.DefaultConfig()
	th := gate.DefaultThresholds()

	v.SetDefault("languages", []string{"fr", "ar", "en"})
	v.SetDefault("providers", []map[string]any{{"name": "mymemory"}})
	v.SetDefault("thresholds.chat_message", th[internal.ChatMessage])
	v.SetDefault("thresholds.legal_document", th[internal.LegalDocument])
	v.SetDefault("thresholds.ui_label", th[internal.UILabel])
	v.SetDefault("timeouts.interactive_call", oc.InteractiveCallTimeout)
	v.SetDefault("timeouts.interactive_request", oc.InteractiveRequestTimeout)
	v.SetDefault("timeouts.batch_call", oc.BatchCallTimeout)
	v.SetDefault("timeouts.batch_request", oc.BatchRequestTimeout)
	v.SetDefault("max_attempts", oc.MaxAttempts)
	v.SetDefault("retry_delay", oc.RetryDelay)
	v.SetDefault("chunk_chars", oc.ChunkChars)
	v.SetDefault("sanitizer.rules_file", "")
	v.SetDefault("sanitizer.max_run", sanitize.DefaultMaxRun)
	v.SetDefault("fallback.templates_file", "")
	v.SetDefault("intent.rules_file", "")
	v.SetDefault("cache.backend", CacheSQLite)
	v.SetDefault("cache.ttl", 30*24*time.Hour)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_prefix", "lexpure:")
	v.SetDefault("db.path", "./data/lexpure.db")
	v.SetDefault("db.record_attempts", true)
	v.SetDefault("audit.interval", 5*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads path, or ./lexpure.yaml when path is empty and the file
// exists, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lexpure")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every setting that has a constrained range.
func (c *Config) Validate() error {
	langs, err := c.LanguageList()
	if err != nil {
		return err
	}
	if len(langs) == 0 {
		return errors.New("languages: at least one language is required")
	}
	cl := script.NewClassifier()
	for _, l := range langs {
		if !cl.Supports(l) {
			return fmt.Errorf("languages: no script family for %q", l)
		}
	}

	seen := make(map[string]bool)
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d]: missing name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("providers[%d]: duplicate provider %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.RatePerSecond < 0 {
			return fmt.Errorf("providers[%d]: rate_per_second must not be negative", i)
		}
	}

	if err := c.GateThresholds().Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	for name, d := range map[string]time.Duration{
		"timeouts.interactive_call":    c.Timeouts.InteractiveCall,
		"timeouts.interactive_request": c.Timeouts.InteractiveRequest,
		"timeouts.batch_call":          c.Timeouts.BatchCall,
		"timeouts.batch_request":       c.Timeouts.BatchRequest,
		"audit.interval":               c.Audit.Interval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.Timeouts.InteractiveCall > c.Timeouts.InteractiveRequest {
		return errors.New("timeouts: interactive_call exceeds interactive_request")
	}
	if c.Timeouts.BatchCall > c.Timeouts.BatchRequest {
		return errors.New("timeouts: batch_call exceeds batch_request")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.ChunkChars < 0 {
		return fmt.Errorf("chunk_chars must not be negative, got %d", c.ChunkChars)
	}
	if c.Sanitizer.MaxRun <= 0 {
		return fmt.Errorf("sanitizer.max_run must be positive, got %d", c.Sanitizer.MaxRun)
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheSQLite, CacheRedis:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.New("cache.redis_addr is required for the redis backend")
	}
	return nil
}

// LanguageList parses the configured language codes.
func (c *Config) LanguageList() ([]script.Language, error) {
	out := make([]script.Language, 0, len(c.Languages))
	for _, s := range c.Languages {
		l, err := script.ParseLanguage(s)
		if err != nil {
			return nil, fmt.Errorf("languages: %w", err)
		}
		if l == script.Unknown {
			return nil, fmt.Errorf("languages: %q is not a language", s)
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *Config) GateThresholds() gate.Thresholds {
	return gate.Thresholds{
		internal.ChatMessage:   c.Thresholds.ChatMessage,
		internal.LegalDocument: c.Thresholds.LegalDocument,
		internal.UILabel:       c.Thresholds.UILabel,
	}
}

func (c *Config) OrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		InteractiveCallTimeout:    c.Timeouts.InteractiveCall,
		InteractiveRequestTimeout: c.Timeouts.InteractiveRequest,
		BatchCallTimeout:          c.Timeouts.BatchCall,
		BatchRequestTimeout:       c.Timeouts.BatchRequest,
		MaxAttempts:               c.MaxAttempts,
		RetryDelay:                c.RetryDelay,
		ChunkChars:                c.ChunkChars,
	}
}
