package common

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/flashbots/disco-relay/relay"
	"github.com/flashbots/disco-relay/store"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Config is the relay server configuration.
type Config struct {
	HTTPAddr    string        `yaml:"http_addr"`
	MetricsAddr string        `yaml:"metrics_addr"`
	AdminToken  string        `yaml:"admin_token"`
	RecordTTL   time.Duration `yaml:"record_ttl"`

	Log    LogConfig    `yaml:"log"`
	CORS   CORSConfig   `yaml:"cors"`
	Batch  BatchConfig  `yaml:"batch"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
}

// LogConfig selects the slog handler, level and service label.
type LogConfig struct {
	JSON    bool   `yaml:"json"`
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// CORSConfig lists the origins allowed on the public relay routes.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// BatchConfig bounds POST /batch lookups.
type BatchConfig struct {
	MaxIDs      int `yaml:"max_ids"`
	Concurrency int `yaml:"concurrency"`
}

// ServerConfig holds HTTP server timeouts and lifecycle settings.
type ServerConfig struct {
	ReadTimeout              time.Duration `yaml:"read_timeout"`
	WriteTimeout             time.Duration `yaml:"write_timeout"`
	DrainDuration            time.Duration `yaml:"drain_duration"`
	GracefulShutdownDuration time.Duration `yaml:"graceful_shutdown_duration"`
	EnablePprof              bool          `yaml:"enable_pprof"`
}

// StoreConfig selects and configures the storage backend. Only the section
// matching Backend is used.
type StoreConfig struct {
	Backend       string        `yaml:"backend"`
	SweepInterval time.Duration `yaml:"sweep_interval"`

	Redis    store.RedisConfig    `yaml:"redis"`
	Postgres store.PostgresConfig `yaml:"postgres"`
	S3       store.S3Config       `yaml:"s3"`
}

// DefaultConfig returns a configuration suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":8090",
		RecordTTL:   relay.DefaultTTL,
		Log: LogConfig{
			Level:   "info",
			Service: "disco-relay",
		},
		Batch: BatchConfig{
			MaxIDs:      relay.DefaultBatchMaxIDs,
			Concurrency: relay.DefaultBatchConcurrency,
		},
		Server: ServerConfig{
			ReadTimeout:              15 * time.Second,
			WriteTimeout:             15 * time.Second,
			DrainDuration:            5 * time.Second,
			GracefulShutdownDuration: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend:       BackendMemory,
			SweepInterval: time.Minute,
			Redis: store.RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "disco:",
			},
			Postgres: store.PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Database: "disco",
			},
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the relay cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.RecordTTL <= 0 {
		errs = append(errs, errors.New("record_ttl must be positive"))
	}
	if c.Batch.MaxIDs < 0 || c.Batch.Concurrency < 0 {
		errs = append(errs, errors.New("batch limits must not be negative"))
	}

	switch c.Store.Backend {
	case BackendMemory, BackendPostgres:
		if c.Store.SweepInterval <= 0 {
			errs = append(errs, errors.New("store.sweep_interval must be positive"))
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required"))
		}
	case BackendS3:
		if c.Store.S3.Bucket == "" {
			errs = append(errs, errors.New("store.s3.bucket is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	return errors.Join(errs...)
}

// RelayConfig returns the service policy part of the configuration.
func (c *Config) RelayConfig() relay.Config {
	return relay.Config{
		TTL:              c.RecordTTL,
		BatchMaxIDs:      c.Batch.MaxIDs,
		BatchConcurrency: c.Batch.Concurrency,
	}
}
