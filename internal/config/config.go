// Package config provides hierarchical configuration loading for Principal.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the Principal service.
type Config struct {
	Server       Server       `yaml:"server"`
	Postgres     Postgres     `yaml:"postgres"`
	NATS         NATS         `yaml:"nats"`
	Logging      Logging      `yaml:"logging"`
	Breaker      Breaker      `yaml:"breaker"`
	Rate         Rate         `yaml:"rate"`
	Cache        Cache        `yaml:"cache"`
	Queue        Queue        `yaml:"queue"`
	Orchestrator Orchestrator `yaml:"orchestrator"`
	Quality      Quality      `yaml:"quality"`
	OTel         OTel         `yaml:"otel"`
	MCP          MCP          `yaml:"mcp"`
	Admin        Admin        `yaml:"admin"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
	BaseURL    string `yaml:"base_url"` // advertised in the A2A agent card
}

// Postgres holds PostgreSQL connection configuration.
// An empty DSN disables the response store and falls back to memory.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// NATS holds NATS JetStream configuration. An empty URL disables NATS.
type NATS struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"` // prefix, e.g. "responses"
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
	File    string `yaml:"file"`         // optional rotating log file, in addition to stdout
	MaxSize int    `yaml:"max_size_mb"`  // rotate after this many megabytes
	MaxAge  int    `yaml:"max_age_days"` // delete rotated files older than this
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Cache holds the completed-result cache configuration.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	L2Bucket    string        `yaml:"l2_bucket"` // NATS KV bucket, used when NATS is enabled
	L2TTL       time.Duration `yaml:"l2_ttl"`
}

// Queue holds the async dispatch queue configuration.
type Queue struct {
	Capacity  int           `yaml:"capacity"`
	Workers   int           `yaml:"workers"`
	ResultTTL time.Duration `yaml:"result_ttl"`
}

// Orchestrator holds specialist fan-out configuration.
type Orchestrator struct {
	Name              string        `yaml:"name"`
	MaxParallel       int           `yaml:"max_parallel"`       // per request
	MaxConcurrent     int           `yaml:"max_concurrent"`     // process-wide specialist calls
	SpecialistTimeout time.Duration `yaml:"specialist_timeout"` // per call
	HistorySize       int           `yaml:"history_size"`
	Specialists       []string      `yaml:"specialists"`
}

// Quality holds rubric thresholds, weight overrides and the publication policy.
type Quality struct {
	DefaultThreshold float64                       `yaml:"default_threshold"`
	Thresholds       map[string]float64            `yaml:"thresholds"` // rubric name -> threshold
	Weights          map[string]map[string]float64 `yaml:"weights"`    // rubric name -> dimension -> weight
	Levels           Levels                        `yaml:"levels"`
	MaxIssues        int                           `yaml:"max_issues"`
	MetricFloor      float64                       `yaml:"metric_floor"`
}

// Levels holds the lower bounds of each quality level.
type Levels struct {
	Excellent        float64 `yaml:"excellent"`
	Good             float64 `yaml:"good"`
	Satisfactory     float64 `yaml:"satisfactory"`
	NeedsImprovement float64 `yaml:"needs_improvement"`
}

// OTel holds OpenTelemetry exporter configuration. An empty endpoint keeps
// the no-op providers.
type OTel struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// MCP holds the MCP server configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	APIKey  string `yaml:"api_key"` // empty disables auth
}

// Admin holds the admin API configuration.
type Admin struct {
	KeyHash string `yaml:"key_hash"` // bcrypt hash; empty disables admin routes
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
			BaseURL:    "http://localhost:8080",
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		NATS: NATS{
			Stream:  "PRINCIPAL",
			Subject: "responses",
		},
		Logging: Logging{
			Level:   "info",
			Service: "principal",
			MaxSize: 100,
			MaxAge:  7,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             50,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		Cache: Cache{
			L1MaxSizeMB: 64,
			L2Bucket:    "PRINCIPAL_RESULTS",
			L2TTL:       time.Hour,
		},
		Queue: Queue{
			Capacity:  100,
			Workers:   4,
			ResultTTL: time.Hour,
		},
		Orchestrator: Orchestrator{
			Name:              "principal",
			MaxParallel:       3,
			MaxConcurrent:     16,
			SpecialistTimeout: 30 * time.Second,
			HistorySize:       100,
			Specialists:       []string{"financial", "utility", "vehicle"},
		},
		Quality: Quality{
			DefaultThreshold: 0.6,
			Thresholds: map[string]float64{
				"financial": 0.75,
				"synthesis": 0.7,
			},
			Levels: Levels{
				Excellent:        0.9,
				Good:             0.8,
				Satisfactory:     0.7,
				NeedsImprovement: 0.6,
			},
			MaxIssues:   8,
			MetricFloor: 0.3,
		},
		OTel: OTel{
			ServiceName: "principal",
			Insecure:    true,
			SampleRate:  1.0,
		},
		MCP: MCP{
			Addr: ":8081",
		},
	}
}
