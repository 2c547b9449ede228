package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxrules/ruleflow/internal/alert"
	"github.com/fluxrules/ruleflow/internal/api"
	"github.com/fluxrules/ruleflow/internal/config"
	"github.com/fluxrules/ruleflow/internal/monitor"
	"github.com/fluxrules/ruleflow/internal/store"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	cfgPath := flag.String("config", "", "Path to server YAML config (optional)")
	dbPath := flag.String("db", "", "Path to SQLite database (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	var loader *config.Loader
	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		loader, err = config.NewLoader(*cfgPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loader.Config()
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	// ── Rule store ────────────────────────────────────────────────────────────
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open rule store", "err", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("rule store ready", "path", cfg.DBPath)

	// ── Alert sinks ───────────────────────────────────────────────────────────
	reg := alert.NewRegistry()
	reg.Register(alert.NewLogSink(logger))
	if cfg.Alerts.WebhookURL != "" {
		reg.Register(alert.NewWebhookSink(cfg.Alerts.WebhookURL))
	}
	dispatcher := alert.NewDispatcher(reg, logger)

	// ── Monitor manager ───────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := time.Duration(cfg.Monitor.IntervalMs) * time.Millisecond
	mgr := monitor.NewManager(ctx, dispatcher, monitor.SystemSampler{}, interval, logger)
	if err := mgr.SetDefaultSchedule(cfg.Monitor.Schedule); err != nil {
		slog.Error("invalid monitor schedule", "err", err)
		os.Exit(1)
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	if loader != nil {
		loader.OnChange(func(newCfg *config.ServerConfig) {
			mgr.SetDefaultInterval(time.Duration(newCfg.Monitor.IntervalMs) * time.Millisecond)
			if err := mgr.SetDefaultSchedule(newCfg.Monitor.Schedule); err != nil {
				slog.Warn("reloaded monitor schedule rejected", "err", err)
			}
			slog.Info("config reloaded", "monitor_interval_ms", newCfg.Monitor.IntervalMs,
				"monitor_schedule", newCfg.Monitor.Schedule)
		})
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(st, mgr)
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	mgr.StopAll()
	cancel()
	slog.Info("goodbye")
}
