// Package config assembles the orchestration engine's configuration
// from defaults, an optional YAML file, and environment overrides —
// the same three-layer load order the platform's services use.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DatabaseConfig controls the relational store used for scheduled-task
// bookkeeping, report registry, and benchmark/metric time series (§6).
type DatabaseConfig struct {
	DSN             string `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds" env:"DATABASE_CONN_MAX_LIFETIME"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// CacheConfig controls the cache-mediation layer's defaults (§6).
type CacheConfig struct {
	Backend               string `yaml:"backend" env:"CACHE_BACKEND"` // "memory" or "redis"
	RedisAddr             string `yaml:"redis_addr" env:"CACHE_REDIS_ADDR"`
	ProviderResponseTTL    int    `yaml:"provider_response_ttl_seconds" env:"CACHE_PROVIDER_TTL"`
	EngineIntermediateTTL  int    `yaml:"engine_intermediate_ttl_seconds" env:"CACHE_ENGINE_TTL"`
	FusedAttributionTTL    int    `yaml:"fused_attribution_ttl_seconds" env:"CACHE_ATTRIBUTION_TTL"`
}

// ProviderConfig describes one Provider Adapter's connection and budget.
type ProviderConfig struct {
	ID              string `yaml:"id"`
	BaseURL         string `yaml:"base_url"`
	AuthHeader      string `yaml:"auth_header"`
	AuthToken       string `yaml:"-" env:"-"` // not read from YAML or the environment by Load; empty unless set by the caller
	RequestsPerHour int    `yaml:"requests_per_hour"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	Reliability     float64 `yaml:"reliability"`
}

// OrchestratorConfig controls the Investigation Orchestrator's
// concurrency and timeout defaults (§4.6, §5).
type OrchestratorConfig struct {
	MaxInFlight              int `yaml:"max_in_flight" env:"ORCHESTRATOR_MAX_IN_FLIGHT"`
	FindingsChannelCapacity  int `yaml:"findings_channel_capacity" env:"ORCHESTRATOR_CHANNEL_CAPACITY"`
	AddressDeepScanTimeoutMS int `yaml:"address_deep_scan_timeout_ms" env:"ORCHESTRATOR_DEEP_SCAN_TIMEOUT_MS"`
	FlowTraceTimeoutMS       int `yaml:"flow_trace_timeout_ms" env:"ORCHESTRATOR_FLOW_TRACE_TIMEOUT_MS"`
	MaxBatchSize             int `yaml:"max_batch_size" env:"ORCHESTRATOR_MAX_BATCH_SIZE"`
}

// SchedulerConfig controls cooldown and built-in task wiring (§4.7).
type SchedulerConfig struct {
	ManualRunCooldownSeconds int `yaml:"manual_run_cooldown_seconds" env:"SCHEDULER_MANUAL_COOLDOWN"`
}

// FusionConfig controls strategy selection and thresholds (§4.5).
type FusionConfig struct {
	Strategy             string  `yaml:"strategy" env:"FUSION_STRATEGY"` // weighted_average | highest_confidence | consensus
	ConsensusK           int     `yaml:"consensus_k" env:"FUSION_CONSENSUS_K"`
	MinConfidenceThreshold float64 `yaml:"min_confidence_threshold" env:"FUSION_MIN_CONFIDENCE"`
}

// Config is the top-level configuration structure.
type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	Logging      LoggingConfig      `yaml:"logging"`
	Cache        CacheConfig        `yaml:"cache"`
	Providers    []ProviderConfig   `yaml:"providers"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Fusion       FusionConfig       `yaml:"fusion"`
}

// New returns a Config populated with the defaults named throughout §4–§6.
func New() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Cache: CacheConfig{
			Backend:               "memory",
			ProviderResponseTTL:   300,
			EngineIntermediateTTL: 1800,
			FusedAttributionTTL:   3600,
		},
		Orchestrator: OrchestratorConfig{
			MaxInFlight:              16,
			FindingsChannelCapacity:  256,
			AddressDeepScanTimeoutMS: 60_000,
			FlowTraceTimeoutMS:       120_000,
			MaxBatchSize:             100,
		},
		Scheduler: SchedulerConfig{ManualRunCooldownSeconds: 60},
		Fusion: FusionConfig{
			Strategy:               "weighted_average",
			MinConfidenceThreshold: 0.3,
		},
	}
}

// Load reads configuration from an optional .env file, an optional YAML
// file (CONFIG_FILE env var or ./config.yaml), and then environment
// variable overrides, in that order.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		path = "config.yaml"
	}
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := envdecode.Decode(cfg); err != nil {
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	cfg.normalize()
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	if c.Orchestrator.MaxInFlight <= 0 {
		c.Orchestrator.MaxInFlight = 16
	}
	if c.Orchestrator.FindingsChannelCapacity <= 0 {
		c.Orchestrator.FindingsChannelCapacity = 256
	}
	if c.Orchestrator.MaxBatchSize <= 0 {
		c.Orchestrator.MaxBatchSize = 100
	}
	if c.Scheduler.ManualRunCooldownSeconds <= 0 {
		c.Scheduler.ManualRunCooldownSeconds = 60
	}
	if c.Fusion.Strategy == "" {
		c.Fusion.Strategy = "weighted_average"
	}
}

// AddressDeepScanTimeout returns the configured deadline as a Duration.
func (c OrchestratorConfig) AddressDeepScanTimeout() time.Duration {
	return time.Duration(c.AddressDeepScanTimeoutMS) * time.Millisecond
}

// FlowTraceTimeout returns the configured deadline as a Duration.
func (c OrchestratorConfig) FlowTraceTimeout() time.Duration {
	return time.Duration(c.FlowTraceTimeoutMS) * time.Millisecond
}

// ManualRunCooldown returns the configured cooldown as a Duration.
func (c SchedulerConfig) ManualRunCooldown() time.Duration {
	return time.Duration(c.ManualRunCooldownSeconds) * time.Second
}
