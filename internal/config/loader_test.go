package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Queue.Capacity != 100 {
		t.Errorf("expected queue capacity 100, got %d", cfg.Queue.Capacity)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Quality.Thresholds["financial"] != 0.75 {
		t.Errorf("expected financial threshold 0.75, got %v", cfg.Quality.Thresholds["financial"])
	}
	if cfg.Postgres.DSN != "" || cfg.NATS.URL != "" {
		t.Error("expected postgres and nats disabled by default")
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
queue:
  capacity: 7
logging:
  level: "debug"
quality:
  thresholds:
    utility: 0.65
  weights:
    financial:
      accuracy: 0.5
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Queue.Capacity != 7 {
		t.Errorf("expected capacity 7, got %d", cfg.Queue.Capacity)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Quality.Thresholds["utility"] != 0.65 {
		t.Errorf("expected utility threshold 0.65, got %v", cfg.Quality.Thresholds["utility"])
	}
	if cfg.Quality.Weights["financial"]["accuracy"] != 0.5 {
		t.Errorf("expected financial accuracy weight 0.5, got %v", cfg.Quality.Weights["financial"]["accuracy"])
	}
	// Unchanged fields keep defaults
	if cfg.Queue.Workers != 4 {
		t.Errorf("expected default workers, got %d", cfg.Queue.Workers)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadFromMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("PRINCIPAL_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("PRINCIPAL_QUEUE_WORKERS", "9")
	t.Setenv("PRINCIPAL_LOG_LEVEL", "warn")
	t.Setenv("PRINCIPAL_BREAKER_TIMEOUT", "1m")
	t.Setenv("PRINCIPAL_SPECIALISTS", "financial, vehicle")
	t.Setenv("PRINCIPAL_QUALITY_THRESHOLD", "0.5")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("expected test DSN, got %s", cfg.Postgres.DSN)
	}
	if cfg.Queue.Workers != 9 {
		t.Errorf("expected workers 9, got %d", cfg.Queue.Workers)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if len(cfg.Orchestrator.Specialists) != 2 || cfg.Orchestrator.Specialists[1] != "vehicle" {
		t.Errorf("unexpected specialists %v", cfg.Orchestrator.Specialists)
	}
	if cfg.Quality.DefaultThreshold != 0.5 {
		t.Errorf("expected threshold 0.5, got %v", cfg.Quality.DefaultThreshold)
	}
}

func TestEnvInvalidValuesIgnored(t *testing.T) {
	cfg := Defaults()
	t.Setenv("PRINCIPAL_QUEUE_CAPACITY", "lots")
	t.Setenv("PRINCIPAL_BREAKER_TIMEOUT", "soon")

	loadEnv(&cfg)

	if cfg.Queue.Capacity != 100 {
		t.Errorf("expected capacity unchanged, got %d", cfg.Queue.Capacity)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected timeout unchanged, got %v", cfg.Breaker.Timeout)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name: "zero max_conns with dsn",
			modify: func(c *Config) {
				c.Postgres.DSN = "postgres://x"
				c.Postgres.MaxConns = 0
			},
			errMsg: "postgres.max_conns must be >= 1",
		},
		{
			name:   "zero breaker failures",
			modify: func(c *Config) { c.Breaker.MaxFailures = 0 },
			errMsg: "breaker.max_failures must be >= 1",
		},
		{
			name:   "zero rate burst",
			modify: func(c *Config) { c.Rate.Burst = 0 },
			errMsg: "rate.burst must be >= 1",
		},
		{
			name:   "zero queue capacity",
			modify: func(c *Config) { c.Queue.Capacity = 0 },
			errMsg: "queue.capacity must be >= 1",
		},
		{
			name:   "threshold out of range",
			modify: func(c *Config) { c.Quality.DefaultThreshold = 1.5 },
			errMsg: "quality.default_threshold must be within [0,1]",
		},
		{
			name:   "rubric threshold out of range",
			modify: func(c *Config) { c.Quality.Thresholds["vehicle"] = -0.1 },
			errMsg: "quality.thresholds.vehicle must be within [0,1]",
		},
		{
			name: "weight out of range",
			modify: func(c *Config) {
				c.Quality.Weights = map[string]map[string]float64{"utility": {"clarity": 2}}
			},
			errMsg: "quality.weights.utility.clarity must be within [0,1]",
		},
		{
			name:   "levels not descending",
			modify: func(c *Config) { c.Quality.Levels.Good = 0.95 },
			errMsg: "quality.levels must be descending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadUsesConfigEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"6060\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRINCIPAL_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("expected port 6060, got %s", cfg.Server.Port)
	}
}
