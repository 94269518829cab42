package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "principal.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("PRINCIPAL_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-supplied
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PRINCIPAL_PORT")
	setString(&cfg.Server.CORSOrigin, "PRINCIPAL_CORS_ORIGIN")
	setString(&cfg.Server.BaseURL, "PRINCIPAL_BASE_URL")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PRINCIPAL_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PRINCIPAL_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PRINCIPAL_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PRINCIPAL_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PRINCIPAL_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "PRINCIPAL_NATS_STREAM")
	setString(&cfg.NATS.Subject, "PRINCIPAL_NATS_SUBJECT")
	setString(&cfg.Logging.Level, "PRINCIPAL_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PRINCIPAL_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PRINCIPAL_LOG_ASYNC")
	setString(&cfg.Logging.File, "PRINCIPAL_LOG_FILE")
	setInt(&cfg.Breaker.MaxFailures, "PRINCIPAL_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PRINCIPAL_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "PRINCIPAL_RATE_RPS")
	setInt(&cfg.Rate.Burst, "PRINCIPAL_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "PRINCIPAL_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "PRINCIPAL_RATE_MAX_IDLE_TIME")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "PRINCIPAL_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "PRINCIPAL_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "PRINCIPAL_CACHE_L2_TTL")

	// Queue
	setInt(&cfg.Queue.Capacity, "PRINCIPAL_QUEUE_CAPACITY")
	setInt(&cfg.Queue.Workers, "PRINCIPAL_QUEUE_WORKERS")
	setDuration(&cfg.Queue.ResultTTL, "PRINCIPAL_QUEUE_RESULT_TTL")

	// Orchestrator
	setString(&cfg.Orchestrator.Name, "PRINCIPAL_ORCH_NAME")
	setInt(&cfg.Orchestrator.MaxParallel, "PRINCIPAL_ORCH_MAX_PARALLEL")
	setInt(&cfg.Orchestrator.MaxConcurrent, "PRINCIPAL_ORCH_MAX_CONCURRENT")
	setDuration(&cfg.Orchestrator.SpecialistTimeout, "PRINCIPAL_ORCH_SPECIALIST_TIMEOUT")
	setInt(&cfg.Orchestrator.HistorySize, "PRINCIPAL_ORCH_HISTORY_SIZE")
	setList(&cfg.Orchestrator.Specialists, "PRINCIPAL_SPECIALISTS")

	// Quality
	setFloat64(&cfg.Quality.DefaultThreshold, "PRINCIPAL_QUALITY_THRESHOLD")
	setInt(&cfg.Quality.MaxIssues, "PRINCIPAL_QUALITY_MAX_ISSUES")
	setFloat64(&cfg.Quality.MetricFloor, "PRINCIPAL_QUALITY_METRIC_FLOOR")

	// Observability
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTel.Insecure, "PRINCIPAL_OTEL_INSECURE")
	setString(&cfg.OTel.ServiceName, "OTEL_SERVICE_NAME")
	setFloat64(&cfg.OTel.SampleRate, "PRINCIPAL_OTEL_SAMPLE_RATE")

	setBool(&cfg.MCP.Enabled, "PRINCIPAL_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "PRINCIPAL_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "PRINCIPAL_MCP_API_KEY")
	setString(&cfg.Admin.KeyHash, "PRINCIPAL_ADMIN_KEY_HASH")
}

// validate checks that required fields are set and ranges are sane.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN != "" && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Queue.Capacity < 1 {
		return errors.New("queue.capacity must be >= 1")
	}
	if cfg.Queue.Workers < 1 {
		return errors.New("queue.workers must be >= 1")
	}
	if cfg.Orchestrator.MaxParallel < 1 {
		return errors.New("orchestrator.max_parallel must be >= 1")
	}
	if cfg.Orchestrator.SpecialistTimeout <= 0 {
		return errors.New("orchestrator.specialist_timeout must be > 0")
	}
	return validateQuality(&cfg.Quality)
}

func validateQuality(q *Quality) error {
	if !unit(q.DefaultThreshold) {
		return errors.New("quality.default_threshold must be within [0,1]")
	}
	for name, th := range q.Thresholds {
		if !unit(th) {
			return fmt.Errorf("quality.thresholds.%s must be within [0,1]", name)
		}
	}
	for rubric, dims := range q.Weights {
		for dim, w := range dims {
			if !unit(w) {
				return fmt.Errorf("quality.weights.%s.%s must be within [0,1]", rubric, dim)
			}
		}
	}
	l := q.Levels
	if !(l.Excellent >= l.Good && l.Good >= l.Satisfactory && l.Satisfactory >= l.NeedsImprovement) {
		return errors.New("quality.levels must be descending")
	}
	if q.MaxIssues < 0 {
		return errors.New("quality.max_issues must be >= 0")
	}
	if !unit(q.MetricFloor) {
		return errors.New("quality.metric_floor must be within [0,1]")
	}
	return nil
}

func unit(f float64) bool { return f >= 0 && f <= 1 }

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
