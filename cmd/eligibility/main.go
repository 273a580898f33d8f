// Eligibility - loan-limit eligibility determination engine.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/api"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/audit"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/cache"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/config"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/data"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/extract"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/orchestrator"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/payload"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/reason"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("ELIGIBILITY_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting eligibility engine",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := loadConfig()

	slog.Info("configuration loaded",
		"data_driver", cfg.Data.Driver,
		"cache", cfg.Cache.Type,
		"audit_sink", cfg.Audit.Sink,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize audit sink
	auditLogger, err := audit.New(cfg.Audit)
	if err != nil {
		slog.Error("failed to initialize audit sink", "error", err)
		os.Exit(1)
	}
	slog.Info("audit sink initialized", "sink", cfg.Audit.Sink)

	// Load rule configuration. Missing or malformed documents abort
	// startup; the engine must not run on unverified rule data.
	cfgStore, err := config.NewStore(cfg.ConfigStore.Dir, auditLogger)
	if err != nil {
		slog.Error("failed to load rule configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("rule configuration loaded", "dir", cfg.ConfigStore.Dir)

	// Load tabular data sources
	dataStore, err := data.NewStore(cfg.Data, auditLogger)
	if err != nil {
		slog.Error("failed to load data sources", "error", err)
		os.Exit(1)
	}
	slog.Info("data sources loaded", "driver", cfg.Data.Driver)

	// Initialize rate counter
	counter, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize rate counter", "error", err)
		os.Exit(1)
	}
	defer counter.Close()
	slog.Info("rate counter initialized", "type", cfg.Cache.Type)

	// Initialize reason engine
	engine, err := reason.NewEngine(cfgStore, dataStore, auditLogger)
	if err != nil {
		slog.Error("failed to initialize reason engine", "error", err)
		os.Exit(1)
	}
	slog.Info("reason engine initialized", "rules_count", engine.RulesCount())

	// Assemble the pipeline
	orch := orchestrator.New(
		extract.NewIntentClassifier(auditLogger),
		extract.NewAccountExtractor(auditLogger),
		extract.NewAccountValidator(auditLogger),
		engine,
		payload.NewBuilder(auditLogger),
		dataStore,
		auditLogger,
	)

	// Initialize Server
	srv := api.NewServer(cfg.Server, cfg.Cache, orch, counter, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("eligibility engine is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("eligibility engine shutdown complete")
}

// loadConfig builds the runtime configuration from defaults plus
// environment overrides.
func loadConfig() *domain.Config {
	cfg := domain.DefaultConfig()

	if v := os.Getenv("ELIGIBILITY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ELIGIBILITY_CONFIG_DIR"); v != "" {
		cfg.ConfigStore.Dir = v
	}
	if v := os.Getenv("ELIGIBILITY_DATA_DRIVER"); v != "" {
		cfg.Data.Driver = v
	}
	if v := os.Getenv("ELIGIBILITY_ELIGIBLE_PATH"); v != "" {
		cfg.Data.EligiblePath = v
	}
	if v := os.Getenv("ELIGIBILITY_REASONS_PATH"); v != "" {
		cfg.Data.ReasonsPath = v
	}
	if v := os.Getenv("ELIGIBILITY_SQLITE_PATH"); v != "" {
		cfg.Data.SQLitePath = v
	}
	if v := os.Getenv("ELIGIBILITY_POSTGRES_HOST"); v != "" {
		cfg.Data.PostgresHost = v
		cfg.Data.PostgresPort = 5432
		cfg.Data.PostgresUser = os.Getenv("ELIGIBILITY_POSTGRES_USER")
		cfg.Data.PostgresPassword = os.Getenv("ELIGIBILITY_POSTGRES_PASSWORD")
		cfg.Data.PostgresDB = os.Getenv("ELIGIBILITY_POSTGRES_DB")
		cfg.Data.PostgresSSLMode = "disable"
		if p := os.Getenv("ELIGIBILITY_POSTGRES_PORT"); p != "" {
			if port, err := strconv.Atoi(p); err == nil {
				cfg.Data.PostgresPort = port
			}
		}
	}
	if v := os.Getenv("ELIGIBILITY_REDIS_ADDR"); v != "" {
		cfg.Cache.Type = "redis"
		cfg.Cache.RedisAddr = v
		cfg.Cache.RedisPassword = os.Getenv("ELIGIBILITY_REDIS_PASSWORD")
	}
	if v := os.Getenv("ELIGIBILITY_RATE_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			cfg.Cache.RateLimit = limit
		}
	}
	if v := os.Getenv("ELIGIBILITY_NATS_URL"); v != "" {
		cfg.Audit.Sink = "nats"
		cfg.Audit.NATSUrl = v
		cfg.Audit.NATSToken = os.Getenv("ELIGIBILITY_NATS_TOKEN")
	}

	return cfg
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  Eligibility Determination Engine")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /eligibility - Check a chat message for eligibility inquiries")
	fmt.Println("    GET  /status      - Rule and data-source counts")
	fmt.Println("    GET  /health      - Health check")
	fmt.Println()
}
