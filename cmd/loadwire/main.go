package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loadwire/loadwire/api"
	"github.com/loadwire/loadwire/browser"
	"github.com/loadwire/loadwire/cache"
	"github.com/loadwire/loadwire/config"
	"github.com/loadwire/loadwire/extract"
	"github.com/loadwire/loadwire/fetch"
	"github.com/loadwire/loadwire/guard"
	"github.com/loadwire/loadwire/screenshot"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("loadwire starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"poolSize", cfg.Pool.Size,
	)

	// ── 3. Screenshot store ─────────────────────────────────────────
	shots, err := screenshot.New(cfg.Screenshot.Dir, cfg.Screenshot.Retention)
	if err != nil {
		slog.Error("failed to initialise screenshot store", "error", err)
		os.Exit(1)
	}
	defer shots.Close()

	// ── 4. Browser pool (launches one process per slot) ─────────────
	pool, err := browser.New(browser.Config{
		Size:            cfg.Pool.Size,
		CheckoutTimeout: cfg.Pool.CheckoutTimeout,
		ProbeTimeout:    cfg.Pool.ProbeTimeout,
	}, browser.Launcher(cfg.Browser), browser.OpenPage)
	if err != nil {
		slog.Error("failed to initialise browser pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// ── 5. Admission guard, cache, pipeline, orchestrator ───────────
	gd := guard.New(guard.Config{
		RatePerSecond:    cfg.Guard.RatePerSecond,
		Burst:            cfg.Guard.Burst,
		BreakerThreshold: cfg.Guard.BreakerThreshold,
		BreakerCooldown:  cfg.Guard.BreakerCooldown,
		MaxDomains:       cfg.Guard.MaxDomains,
		MaxBatchDomains:  cfg.Guard.MaxBatchDomains,
	})
	cc := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	defer cc.Close()

	pipeline := extract.NewPipeline(shots)
	fetcher := fetch.New(gd, cc, pool, pipeline, cfg.Fetch, cfg.Cache.TTL)

	// ── 6. Router and HTTP server ───────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(fetcher, pool, shots, cfg, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// pool.Close() runs via defer and kills every browser process.
	slog.Info("loadwire stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
