// Package app wires all cantariserver subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run starts the HTTP server and blocks until the context is
// cancelled, and Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithVoicebankRegistry,
// WithTextAnalyzer, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/utavox/cantariserver/internal/config"
	"github.com/utavox/cantariserver/internal/health"
	"github.com/utavox/cantariserver/internal/httpapi"
	"github.com/utavox/cantariserver/internal/observe"
	"github.com/utavox/cantariserver/internal/resilience"
	"github.com/utavox/cantariserver/internal/textanalyzer"
	"github.com/utavox/cantariserver/pkg/engine/nativesynth"
	"github.com/utavox/cantariserver/pkg/engine/phrasecache"
	"github.com/utavox/cantariserver/pkg/engine/speaker"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// App owns all subsystem lifetimes and orchestrates the synthesis server.
type App struct {
	serverCfg config.ServerConfig
	settings  *config.Registry

	// Subsystems — initialised in New, torn down in Shutdown.
	voicebanks *voicebank.Registry
	speakers   *speaker.Registry
	cache      *phrasecache.Cache
	nativeLib  *nativesynth.Library
	pool       *nativesynth.Pool
	analyzer   *textanalyzer.Client
	metrics    *observe.Metrics
	health     *health.Handler
	watcher    *config.Watcher
	httpServer *http.Server

	// closers are called in reverse order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithVoicebankRegistry injects a voicebank registry instead of creating one
// from config.
func WithVoicebankRegistry(r *voicebank.Registry) Option {
	return func(a *App) { a.voicebanks = r }
}

// WithSpeakerRegistry injects a speaker registry instead of creating one
// around the voicebank registry.
func WithSpeakerRegistry(r *speaker.Registry) Option {
	return func(a *App) { a.speakers = r }
}

// WithTextAnalyzer injects a text analyzer client instead of creating one
// from config.
func WithTextAnalyzer(c *textanalyzer.Client) Option {
	return func(a *App) { a.analyzer = c }
}

// WithMetrics injects a metrics instance instead of creating one from
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. serverCfg is the
// process bootstrap document; settings is the already-loaded atomic
// registry for the runtime-mutable voicebank/style document. Use Option
// functions to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: voicebank discovery,
// native library loading, cache opening, analyzer client construction, and
// HTTP route registration. The only goroutine started here is the settings
// file watcher's poll loop (when a settings path is configured); the HTTP
// listener is not opened until Run is called.
func New(ctx context.Context, serverCfg config.ServerConfig, settings *config.Registry, opts ...Option) (*App, error) {
	a := &App{
		serverCfg: serverCfg,
		settings:  settings,
	}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initVoicebanks(); err != nil {
		return nil, fmt.Errorf("app: init voicebanks: %w", err)
	}

	if err := a.initNativeSynth(); err != nil {
		return nil, fmt.Errorf("app: init native synth: %w", err)
	}

	if err := a.initCache(); err != nil {
		return nil, fmt.Errorf("app: init phrase cache: %w", err)
	}

	if err := a.initAnalyzer(); err != nil {
		return nil, fmt.Errorf("app: init text analyzer: %w", err)
	}

	a.initWatcher()
	a.initHealth()
	a.initHTTPServer()

	return a, nil
}

// initVoicebanks creates the voicebank registry (unless injected), loads it
// from the current settings document, applies per-voicebank style
// overrides to the speaker registry, and subscribes to future settings
// changes so a PUT /settings with new paths triggers a reload.
func (a *App) initVoicebanks() error {
	current := a.settings.Current()

	if a.voicebanks == nil {
		a.voicebanks = voicebank.NewRegistry(current.OngenLimit)
	}
	if err := a.voicebanks.Reload(current.Paths); err != nil {
		return fmt.Errorf("reload voicebanks from %v: %w", current.Paths, err)
	}

	if a.speakers == nil {
		a.speakers = speaker.NewRegistry(a.voicebanks)
	}
	applyOngenSettings(a.speakers, current)

	a.settings.OnChange(func(old, next config.Settings) {
		if !pathsEqual(old.Paths, next.Paths) {
			if err := a.voicebanks.Reload(next.Paths); err != nil {
				slog.Error("reload voicebanks after settings change failed", "err", err)
				return
			}
		}
		applyOngenSettings(a.speakers, next)
	})

	return nil
}

// applyOngenSettings pushes every per-voicebank style override in s into
// the speaker registry.
func applyOngenSettings(speakers *speaker.Registry, s config.Settings) {
	for rawUUID, styles := range s.OngenSettings {
		id, err := uuid.Parse(rawUUID)
		if err != nil {
			slog.Warn("settings: skipping ongen_settings entry with invalid uuid", "uuid", rawUUID, "err", err)
			continue
		}
		speakers.SetStyles(id, styles)
	}
}

// pathsEqual reports whether a and b name the same voicebank roots in the
// same order.
func pathsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// initNativeSynth loads the native resampler/synthesis shared library. A
// load failure aborts startup: there is no synthesis without it.
func (a *App) initNativeSynth() error {
	lib, err := nativesynth.Load(slog.Default())
	if err != nil {
		return err
	}
	a.nativeLib = lib

	workers := a.serverCfg.SynthWorkers
	if workers <= 0 {
		workers = 4
	}
	a.pool = nativesynth.NewPool(workers)
	return nil
}

// initCache opens the on-disk phrase cache at the configured directory.
// An empty CacheDir disables caching entirely rather than failing startup.
func (a *App) initCache() error {
	if a.serverCfg.CacheDir == "" {
		slog.Warn("no cache_dir configured, phrase cache disabled")
		return nil
	}
	cache, err := phrasecache.Open(a.serverCfg.CacheDir, slog.Default())
	if err != nil {
		return err
	}
	a.cache = cache
	a.closers = append(a.closers, cache.Close)
	return nil
}

// initAnalyzer constructs the text analyzer client (unless injected),
// wrapped in a circuit breaker so a flaky analyzer degrades gracefully
// instead of hanging every request.
func (a *App) initAnalyzer() error {
	if a.analyzer != nil {
		return nil
	}
	if a.serverCfg.TextAnalyzerURL == "" {
		return fmt.Errorf("text_analyzer_url is required when no analyzer client is injected")
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name: "textanalyzer",
	})
	client, err := textanalyzer.New(a.serverCfg.TextAnalyzerURL, textanalyzer.WithCircuitBreaker(breaker))
	if err != nil {
		return err
	}
	a.analyzer = client
	return nil
}

// initWatcher starts polling the settings file for out-of-band edits.
func (a *App) initWatcher() {
	if path := a.serverCfg.SettingsPath; path != "" {
		a.watcher = config.NewWatcher(path, a.settings)
		a.closers = append(a.closers, func() error {
			a.watcher.Stop()
			return nil
		})
	}
}

// initHealth builds the liveness/readiness checker: ready once at least one
// voicebank is loaded and the native library handle is open.
func (a *App) initHealth() {
	a.health = health.New(
		health.Checker{
			Name: "native_synth",
			Check: func(context.Context) error {
				if a.nativeLib == nil {
					return errors.New("native synth library not loaded")
				}
				return nil
			},
		},
		health.Checker{
			Name: "voicebanks",
			Check: func(context.Context) error {
				if len(a.voicebanks.All()) == 0 {
					return errors.New("no voicebanks loaded")
				}
				return nil
			},
		},
	)
}

// initHTTPServer registers every route (VOICEVOX-compatible surface, plus
// health checks) onto a fresh mux and wraps it in the observability
// middleware.
func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	api := &httpapi.Server{
		Voicebanks: a.voicebanks,
		Speakers:   a.speakers,
		Cache:      a.cache,
		NativeLib:  a.nativeLib,
		Pool:       a.pool,
		Analyzer:   a.analyzer,
		Settings:   a.settings,
		Metrics:    a.metrics,
		Logger:     slog.Default(),
	}
	api.Register(mux)
	a.health.Register(mux)

	addr := fmt.Sprintf("%s:%d", a.serverCfg.Host, a.serverCfg.Port)
	a.httpServer = &http.Server{
		Addr:    addr,
		Handler: observe.Middleware(a.metrics)(mux),
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run starts the HTTP listener and blocks until ctx is cancelled or the
// server stops for another reason.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops the HTTP listener and tears down all subsystems in
// reverse-init order. It respects the context deadline: if ctx expires
// before all closers finish, remaining closers are skipped and the
// context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		if a.httpServer != nil {
			if err := a.httpServer.Shutdown(ctx); err != nil {
				slog.Warn("http server shutdown error", "err", err)
			}
		}

		slog.Info("shutting down", "closers", len(a.closers))
		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// VoicebankRegistry returns the voicebank registry.
func (a *App) VoicebankRegistry() *voicebank.Registry { return a.voicebanks }

// SpeakerRegistry returns the speaker registry.
func (a *App) SpeakerRegistry() *speaker.Registry { return a.speakers }
