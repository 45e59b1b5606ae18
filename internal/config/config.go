// Package config loads service configuration from the environment, with an
// optional JSON file supplying values the environment leaves unset.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"dev" json:"app_env,omitempty"`
	LogLevel string `env:"LOG_LEVEL" json:"log_level,omitempty"`
	Port     int    `env:"PORT" envDefault:"8080" json:"port,omitempty"`

	// LLM
	LLMProvider    string        `env:"LLM_PROVIDER" envDefault:"openai" json:"llm_provider,omitempty"`
	GeminiAPIKey   string        `env:"GEMINI_API_KEY" json:"gemini_api_key,omitempty"`
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY" json:"openai_api_key,omitempty"`
	OpenAIBaseURL  string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1" json:"openai_base_url,omitempty"`
	OpenAIModel    string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini" json:"openai_model,omitempty"`
	LLMCallTimeout time.Duration `env:"LLM_CALL_TIMEOUT" envDefault:"15s" json:"llm_call_timeout,omitempty"`

	// HTTP
	RateLimitPerMin  int           `env:"RATE_LIMIT_PER_MIN" envDefault:"5" json:"rate_limit_per_min,omitempty"`
	CORSAllowOrigins string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*" json:"cors_allow_origins,omitempty"`
	ShutdownTimeout  time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s" json:"shutdown_timeout,omitempty"`

	// Sessions
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"file" json:"session_backend,omitempty"`
	SessionDir     string        `env:"SESSION_DIR" envDefault:"data/sessions" json:"session_dir,omitempty"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"720h" json:"session_ttl,omitempty"`
	RedisURL       string        `env:"REDIS_URL" json:"redis_url,omitempty"`
	DatabaseURL    string        `env:"DATABASE_URL" json:"database_url,omitempty"`

	// TaxonomyPath points at the sector/role taxonomy; empty disables it
	TaxonomyPath string `env:"TAXONOMY_PATH" json:"taxonomy_path,omitempty"`
}

// Session backends
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// LoadWithFile parses the environment and then fills every field that the
// environment did not set explicitly from the JSON file at path. An empty
// path behaves like Load.
func LoadWithFile(path string) (Config, error) {
	if path == "" {
		return Load()
	}
	file, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	defaulted := map[string]bool{}
	opts := env.Options{
		OnSet: func(tag string, _ interface{}, isDefault bool) {
			if isDefault {
				defaulted[tag] = true
			}
		},
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}

	overlay(&cfg, file, defaulted)
	return cfg, nil
}

// overlay copies non-zero file values into cfg where cfg holds a default or
// nothing at all
func overlay(cfg, file *Config, defaulted map[string]bool) {
	dst := reflect.ValueOf(cfg).Elem()
	src := reflect.ValueOf(file).Elem()
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		fv := src.Field(i)
		if fv.IsZero() {
			continue
		}
		tag := t.Field(i).Tag.Get("env")
		if defaulted[tag] || dst.Field(i).IsZero() {
			dst.Field(i).Set(fv)
		}
	}
}

// LoadFile loads configuration from a JSON file.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw struct {
		Config
		LLMCallTimeout  string `json:"llm_call_timeout,omitempty"`
		ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
		SessionTTL      string `json:"session_ttl,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg := raw.Config
	for _, d := range []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"llm_call_timeout", raw.LLMCallTimeout, &cfg.LLMCallTimeout},
		{"shutdown_timeout", raw.ShutdownTimeout, &cfg.ShutdownTimeout},
		{"session_ttl", raw.SessionTTL, &cfg.SessionTTL},
	} {
		if d.src == "" {
			continue
		}
		v, err := time.ParseDuration(d.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %s: %w", d.name, err)
		}
		*d.dst = v
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable by the server.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'PORT' must be between 1 and 65535")
	}

	switch strings.ToLower(c.LLMProvider) {
	case "openai", "gemini":
	default:
		return fmt.Errorf("config error: unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMAPIKey() == "" {
		return fmt.Errorf("config error: an API key is required for provider %q", c.LLMProvider)
	}
	if c.LLMCallTimeout <= 0 {
		return fmt.Errorf("config error: 'LLM_CALL_TIMEOUT' must be positive")
	}
	if c.RateLimitPerMin < 0 {
		return fmt.Errorf("config error: 'RATE_LIMIT_PER_MIN' must be non-negative")
	}

	switch c.SessionBackend {
	case BackendFile:
		if c.SessionDir == "" {
			return fmt.Errorf("config error: 'SESSION_DIR' is required for the file backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config error: 'REDIS_URL' is required for the redis backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'DATABASE_URL' is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config error: unknown SESSION_BACKEND %q", c.SessionBackend)
	}

	if c.TaxonomyPath != "" {
		if _, err := os.Stat(c.TaxonomyPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: taxonomy file not found: %s", c.TaxonomyPath)
		}
	}
	return nil
}

// LLMAPIKey returns the key for the configured provider
func (c Config) LLMAPIKey() string {
	if strings.ToLower(c.LLMProvider) == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// AllowedOrigins splits CORS_ALLOW_ORIGINS; empty means any origin.
func (c Config) AllowedOrigins() []string {
	s := strings.TrimSpace(c.CORSAllowOrigins)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
