// Command cantariserver is the main entry point for the synthesis engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/utavox/cantariserver/internal/app"
	"github.com/utavox/cantariserver/internal/config"
	"github.com/utavox/cantariserver/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────
	host := flag.String("host", "", "listen host (overrides server config)")
	port := flag.Int("port", 0, "listen port (overrides server config)")
	serverConfigPath := flag.String("server-config", "cantariserver.yaml", "path to the YAML server bootstrap file")
	settingsPath := flag.String("config", defaultSettingsPath(), "path to the JSON settings document")
	flag.Parse()

	// ── Load bootstrap config ────────────────────────────────────────────
	serverCfg, err := config.LoadServerConfig(*serverConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cantariserver: %v\n", err)
		return 1
	}
	if serverCfg.SettingsPath == "" {
		serverCfg.SettingsPath = *settingsPath
	}
	if *host != "" {
		serverCfg.Host = *host
	}
	if *port != 0 {
		serverCfg.Port = *port
	}

	// ── Logger ────────────────────────────────────────────────────────────
	logger := newLogger(serverCfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("cantariserver starting",
		"server_config", *serverConfigPath,
		"settings_path", serverCfg.SettingsPath,
		"host", serverCfg.Host,
		"port", serverCfg.Port,
		"log_level", serverCfg.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "cantariserver",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Settings registry ─────────────────────────────────────────────────
	settings, err := config.NewRegistry(serverCfg.SettingsPath)
	if err != nil {
		slog.Error("failed to load settings", "path", serverCfg.SettingsPath, "err", err)
		return 1
	}

	printStartupSummary(serverCfg, settings.Current())

	// ── Application wiring ────────────────────────────────────────────────
	application, err := app.New(ctx, serverCfg, settings)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// defaultSettingsPath resolves the settings document location a fresh
// install uses when neither --config nor the server bootstrap file
// names one: <user config dir>/cantari.json.
func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "cantari.json"
	}
	return filepath.Join(dir, "cantari.json")
}

// ── Startup summary ──────────────────────────────────────────────────────────

func printStartupSummary(cfg config.ServerConfig, settings config.Settings) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       cantariserver — startup          ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	fmt.Printf("║  Listen addr     : %-19s ║\n", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	fmt.Printf("║  Cache dir       : %-19s ║\n", valueOrDash(cfg.CacheDir))
	fmt.Printf("║  Native lib dir  : %-19s ║\n", valueOrDash(cfg.NativeLibDir))
	fmt.Printf("║  Text analyzer   : %-19s ║\n", valueOrDash(cfg.TextAnalyzerURL))
	fmt.Printf("║  Voicebank paths : %-19d ║\n", len(settings.Paths))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func valueOrDash(s string) string {
	if s == "" {
		return "(not configured)"
	}
	if len(s) > 19 {
		return s[:16] + "…"
	}
	return s
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
