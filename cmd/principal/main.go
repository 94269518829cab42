package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/Principal/internal/adapter/fanout"
	phttp "github.com/Strob0t/Principal/internal/adapter/http"
	"github.com/Strob0t/Principal/internal/adapter/mcp"
	"github.com/Strob0t/Principal/internal/adapter/memory"
	pnats "github.com/Strob0t/Principal/internal/adapter/nats"
	"github.com/Strob0t/Principal/internal/adapter/natskv"
	potel "github.com/Strob0t/Principal/internal/adapter/otel"
	"github.com/Strob0t/Principal/internal/adapter/postgres"
	"github.com/Strob0t/Principal/internal/adapter/ristretto"
	"github.com/Strob0t/Principal/internal/adapter/tiered"
	"github.com/Strob0t/Principal/internal/adapter/ws"
	"github.com/Strob0t/Principal/internal/config"
	"github.com/Strob0t/Principal/internal/logger"
	"github.com/Strob0t/Principal/internal/middleware"
	"github.com/Strob0t/Principal/internal/port/a2a"
	"github.com/Strob0t/Principal/internal/port/cache"
	"github.com/Strob0t/Principal/internal/port/recorder"
	"github.com/Strob0t/Principal/internal/port/specialist"
	"github.com/Strob0t/Principal/internal/service"
	"github.com/Strob0t/Principal/internal/workpool"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] != "serve" {
		if err := runAdmin(os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"specialists", cfg.Orchestrator.Specialists,
		"postgres", cfg.Postgres.DSN != "",
		"nats", cfg.NATS.URL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownOTel, err := potel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() { _ = shutdownOTel(context.Background()) }()

	metrics, err := potel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	var (
		store   recorder.Store
		targets []fanout.Named
		mq      *pnats.Queue
	)

	if cfg.Postgres.DSN != "" {
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		store = postgres.NewResponseStore(pool)
		slog.Info("postgres connected")
	} else {
		store = memory.NewStore(recorder.MaxLimit)
		slog.Info("postgres disabled, keeping responses in memory")
	}
	targets = append(targets, fanout.Named{Name: "store", Recorder: store})

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("ristretto: %w", err)
	}
	defer l1.Close()
	var results cache.Cache = l1

	if cfg.NATS.URL != "" {
		mq, err = pnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = mq.Drain() }()
		targets = append(targets, fanout.Named{Name: "nats", Recorder: pnats.NewRecorder(mq)})

		kv, err := mq.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("nats kv: %w", err)
		}
		results = tiered.New(l1, natskv.New(kv), cfg.Queue.ResultTTL)
		slog.Info("nats connected", "stream", cfg.NATS.Stream)
	}

	// --- Services ---
	registry, err := buildRegistry(cfg.Orchestrator.Specialists)
	if err != nil {
		return err
	}

	hub := ws.NewHub(originPatterns(cfg.Server.CORSOrigin))
	defer hub.Close()

	principal := service.NewPrincipalService(registry, cfg.Orchestrator, cfg.Quality, cfg.Breaker,
		workpool.New(cfg.Orchestrator.MaxConcurrent))
	principal.SetRecorder(fanout.New(targets...))
	principal.SetBroadcaster(hub)
	principal.SetMetrics(metrics)

	if err := principal.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize specialists: %w", err)
	}

	queue := service.NewDispatchQueue(principal, results, cfg.Queue)
	queue.SetBroadcaster(hub)
	queue.SetMetrics(metrics)
	queue.Start(ctx)

	if mq != nil {
		cancelIngress, err := service.NewIngress(mq, queue).Start(ctx)
		if err != nil {
			return fmt.Errorf("ingress: %w", err)
		}
		defer cancelIngress()
	}

	// --- MCP ---
	var mcpServer *mcp.Server
	if cfg.MCP.Enabled {
		mcpServer = mcp.NewServer(
			mcp.ServerConfig{Addr: cfg.MCP.Addr, Name: cfg.Orchestrator.Name, Version: version, APIKey: cfg.MCP.APIKey},
			mcp.ServerDeps{Orchestrator: principal, Queue: queue, Responses: store},
		)
		if err := mcpServer.Start(); err != nil {
			return err
		}
	}

	// --- HTTP ---
	limiter, stopLimiter := middleware.NewRateLimiterFromConfig(cfg.Rate)
	defer stopLimiter()

	handlers := &phttp.Handlers{
		Orchestrator: principal,
		Queue:        queue,
		Responses:    store,
		Version:      version,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(phttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(phttp.SecurityHeaders)
	r.Use(phttp.CORS(cfg.Server.CORSOrigin))
	r.Use(potel.HTTPMiddleware(cfg.Logging.Service))

	// WebSocket endpoint, outside the timeout group
	r.Get("/ws", hub.HandleWS)

	a2a.NewHandler(cfg.Orchestrator.Name, cfg.Server.BaseURL, queue, registry).MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Orchestrator.SpecialistTimeout + 30*time.Second))
		phttp.MountRoutes(r, handlers, phttp.RouteOptions{
			RateLimit:    limiter,
			AdminKeyHash: cfg.Admin.KeyHash,
		})
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Orchestrator.SpecialistTimeout + 60*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	if mcpServer != nil {
		if err := mcpServer.Stop(shutdownCtx); err != nil {
			slog.Error("mcp shutdown", "error", err)
		}
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		slog.Error("dispatch queue shutdown", "error", err)
	}
	return principal.Drain(shutdownCtx)
}

// buildRegistry creates each configured specialist from the catalog.
func buildRegistry(names []string) (*specialist.Registry, error) {
	registry := specialist.NewRegistry()
	for _, name := range names {
		sp, err := specialist.New(name, nil)
		if err != nil {
			return nil, fmt.Errorf("specialist %s: %w (available: %s)", name, err, strings.Join(specialist.Available(), ", "))
		}
		if err := registry.Add(sp); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// originPatterns turns the CORS origin into websocket origin patterns,
// which are host-only.
func originPatterns(origin string) []string {
	if origin == "" {
		return nil
	}
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	return []string{host}
}
