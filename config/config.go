// Package config loads browserflow configuration from YAML files with
// environment variable overrides.
//
// Precedence: defaults, then the YAML file, then environment variables
// prefixed with BROWSERFLOW.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/browserflow/driver"
	"github.com/BaSui01/browserflow/engine"
	"github.com/BaSui01/browserflow/store"
)

// Config is the complete browserflow configuration.
type Config struct {
	// Log configures the zap logger.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Driver configures the browser driver.
	Driver DriverConfig `yaml:"driver" env:"DRIVER"`

	// Engine configures workflow execution.
	Engine EngineConfig `yaml:"engine" env:"ENGINE"`

	// Store configures persistence.
	Store StoreConfig `yaml:"store" env:"STORE"`

	// Redis configures the optional template cache.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Credentials configures the credential source.
	Credentials CredentialConfig `yaml:"credentials" env:"CREDENTIALS"`

	// Service configures the execution service.
	Service ServiceConfig `yaml:"service" env:"SERVICE"`

	// Metrics configures prometheus exposition.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths are zap sink URLs.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// EnableCaller annotates entries with the call site.
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// EnableStacktrace attaches stack traces at error level.
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// DriverConfig configures the chromedp driver.
type DriverConfig struct {
	Headless       bool          `yaml:"headless" env:"HEADLESS"`
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
	ViewportWidth  int           `yaml:"viewport_width" env:"VIEWPORT_WIDTH"`
	ViewportHeight int           `yaml:"viewport_height" env:"VIEWPORT_HEIGHT"`
	UserAgent      string        `yaml:"user_agent" env:"USER_AGENT"`
	ProxyURL       string        `yaml:"proxy_url" env:"PROXY_URL"`
}

// EngineConfig configures workflow execution.
type EngineConfig struct {
	// Strategy: stop_on_error, continue_on_error, retry_on_error.
	Strategy string `yaml:"strategy" env:"STRATEGY"`
	// RetryMaxAttempts bounds retry_on_error attempts per action.
	RetryMaxAttempts int `yaml:"retry_max_attempts" env:"RETRY_MAX_ATTEMPTS"`
	// RetryDelay is the pause between retry attempts.
	RetryDelay time.Duration `yaml:"retry_delay" env:"RETRY_DELAY"`
	// WhileIterationLimit caps while-style loops.
	WhileIterationLimit int `yaml:"while_iteration_limit" env:"WHILE_ITERATION_LIMIT"`
	// TemplateDepthLimit caps chained template expansion.
	TemplateDepthLimit int `yaml:"template_depth_limit" env:"TEMPLATE_DEPTH_LIMIT"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	// Type: memory, file, gorm.
	Type string `yaml:"type" env:"TYPE"`
	// Path: file store base directory or sqlite database path.
	Path string `yaml:"path" env:"PATH"`
}

// RedisConfig configures the template cache.
type RedisConfig struct {
	// Enabled turns the cache on.
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	// TTL is the cache entry lifetime; zero means no expiry.
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// CredentialConfig configures the credential source.
type CredentialConfig struct {
	// File is the path to a JSON credential file. Empty means an empty
	// in-memory source.
	File string `yaml:"file" env:"FILE"`
	// WatchInterval polls the credential file for changes when positive.
	WatchInterval time.Duration `yaml:"watch_interval" env:"WATCH_INTERVAL"`
}

// ServiceConfig configures the execution service.
type ServiceConfig struct {
	// MaxConcurrentRuns bounds simultaneous workflow runs.
	MaxConcurrentRuns int64 `yaml:"max_concurrent_runs" env:"MAX_CONCURRENT_RUNS"`
}

// MetricsConfig configures prometheus exposition.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:        "info",
			Format:       "json",
			OutputPaths:  []string{"stdout"},
			EnableCaller: true,
		},
		Driver: DriverConfig{
			Headless:       true,
			Timeout:        30 * time.Second,
			ViewportWidth:  1280,
			ViewportHeight: 800,
		},
		Engine: EngineConfig{
			Strategy:            string(engine.StopOnError),
			RetryMaxAttempts:    3,
			RetryDelay:          time.Second,
			WhileIterationLimit: 1000,
			TemplateDepthLimit:  25,
		},
		Store: StoreConfig{
			Type: string(store.TypeMemory),
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  5 * time.Minute,
		},
		Service: ServiceConfig{
			MaxConcurrentRuns: 1,
		},
		Metrics: MetricsConfig{
			Namespace: "browserflow",
		},
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	var errs []string

	if _, err := engine.ParseStrategy(c.Engine.Strategy); err != nil {
		errs = append(errs, err.Error())
	}
	switch store.Type(c.Store.Type) {
	case store.TypeMemory:
	case store.TypeFile, store.TypeGorm:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Sprintf("%s store requires a path", c.Store.Type))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown store type %q", c.Store.Type))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis cache enabled without an address")
	}
	if c.Engine.RetryMaxAttempts < 1 {
		errs = append(errs, "retry_max_attempts must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// EngineConfig converts to the engine's runtime configuration. Call
// Validate first; an unknown strategy falls back to stop_on_error here.
func (c *Config) EngineConfig() engine.Config {
	strat, err := engine.ParseStrategy(c.Engine.Strategy)
	if err != nil {
		strat = engine.StopOnError
	}
	return engine.Config{
		Strategy: strat,
		Retry: engine.RetryPolicy{
			MaxAttempts: c.Engine.RetryMaxAttempts,
			Delay:       c.Engine.RetryDelay,
		},
		WhileIterationLimit: c.Engine.WhileIterationLimit,
		TemplateDepthLimit:  c.Engine.TemplateDepthLimit,
	}
}

// DriverConfig converts to the driver's runtime configuration.
func (c *Config) DriverConfig() driver.Config {
	return driver.Config{
		Headless:       c.Driver.Headless,
		Timeout:        c.Driver.Timeout,
		ViewportWidth:  c.Driver.ViewportWidth,
		ViewportHeight: c.Driver.ViewportHeight,
		UserAgent:      c.Driver.UserAgent,
		ProxyURL:       c.Driver.ProxyURL,
	}
}

// StoreConfig converts to the store factory's configuration.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Type: store.Type(c.Store.Type),
		Path: c.Store.Path,
	}
}
