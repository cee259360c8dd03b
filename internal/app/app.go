// Package app wires the Yesu Mitra subsystems into a running application.
//
// The App struct owns the full lifecycle: New loads the corpus and builds the
// retrieval pipeline, the artifact manager, the chat service and the HTTP
// server; Run serves until the context ends; Shutdown releases what New
// acquired.
//
// For testing, inject a corpus or metrics via functional options. Providers
// come from the caller (see [BuildProviders]).
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/teja-palleti/Yesu-Mitra/internal/artifact"
	"github.com/teja-palleti/Yesu-Mitra/internal/chat"
	"github.com/teja-palleti/Yesu-Mitra/internal/config"
	"github.com/teja-palleti/Yesu-Mitra/internal/health"
	"github.com/teja-palleti/Yesu-Mitra/internal/observe"
	"github.com/teja-palleti/Yesu-Mitra/internal/scripture"
	"github.com/teja-palleti/Yesu-Mitra/internal/server"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/llm"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts"
)

// Providers holds the model and speech backends. Nil means not configured.
type Providers struct {
	LLM llm.Provider
	TTS tts.Provider
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers
	metrics   *observe.Metrics
	level     *slog.LevelVar
	watcher   *config.Watcher

	// Subsystems, initialised in New.
	corpus    *scripture.Corpus
	corpusErr error
	retriever *scripture.Retriever
	artifacts *artifact.Manager
	chat      *chat.Service
	health    *health.Handler
	server    *server.Server

	// closers are called in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithCorpus injects a loaded corpus instead of reading cfg.Corpus.Path.
func WithCorpus(c *scripture.Corpus) Option {
	return func(a *App) { a.corpus = c }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogLevel hands the app the level variable of the process logger so
// configuration reloads can change verbosity.
func WithLogLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithWatcher enables hot reload. The watcher's callback must forward to
// [App.ApplyConfig]; Run starts it.
func WithWatcher(w *config.Watcher) Option {
	return func(a *App) { a.watcher = w }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App. A corpus that cannot be loaded is not an error: the app
// still starts, every question gets [chat.UnavailableMessage] and /readyz
// reports the failure.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Corpus + retrieval ────────────────────────────────────────────
	a.initCorpus(ctx)

	// ── 2. Audio artifacts ───────────────────────────────────────────────
	if err := a.initArtifacts(); err != nil {
		return nil, fmt.Errorf("app: init artifacts: %w", err)
	}

	// ── 3. Chat service ──────────────────────────────────────────────────
	chatOpts := []chat.Option{
		chat.WithMetrics(a.metrics),
		chat.WithSettings(chatSettings(cfg.Chat)),
	}
	if a.artifacts != nil {
		chatOpts = append(chatOpts, chat.WithProducer(a.artifacts))
	}
	var retriever chat.Retriever
	if a.retriever != nil {
		retriever = a.retriever
	}
	a.chat = chat.New(retriever, providers.LLM, chatOpts...)

	// ── 4. Health + HTTP ─────────────────────────────────────────────────
	a.health = health.New(a.checkers()...)
	var audio server.AudioStore
	if a.artifacts != nil {
		audio = a.artifacts
	}
	a.server = server.New(server.Config{
		Addr:            cfg.Server.ListenAddr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, a.chat, audio, server.WithHealth(a.health), server.WithMetrics(a.metrics))

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

func (a *App) initCorpus(ctx context.Context) {
	resolver := scripture.NewResolver()
	if a.corpus == nil {
		a.corpus, a.corpusErr = loadCorpus(ctx, a.cfg.Corpus)
	}
	if a.corpusErr == nil {
		if unknown := a.corpus.UnknownBooks(resolver); len(unknown) > 0 {
			if a.cfg.Corpus.Strict {
				a.corpusErr = fmt.Errorf("%w: %d book keys not in the book table: %s",
					scripture.ErrCorpusLoad, len(unknown), strings.Join(unknown, ", "))
			} else {
				slog.Warn("corpus contains books that no citation can reach", "books", unknown)
			}
		}
	}
	if a.corpusErr != nil {
		slog.Error("corpus unavailable, questions will get the unavailable message", "err", a.corpusErr)
		a.corpus = nil
		return
	}

	st := a.corpus.Stats()
	slog.Info("corpus loaded", "path", a.cfg.Corpus.Path, "books", st.Books, "chapters", st.Chapters, "verses", st.Verses)
	a.retriever = scripture.NewRetriever(a.corpus, resolver, scripture.WithMetrics(a.metrics))
}

func loadCorpus(ctx context.Context, cc config.CorpusConfig) (*scripture.Corpus, error) {
	if cc.Format == config.CorpusSQLite {
		return scripture.LoadCorpusSQLite(ctx, cc.Path)
	}
	return scripture.LoadCorpus(cc.Path)
}

func (a *App) initArtifacts() error {
	if a.cfg.Audio.Disabled || a.providers.TTS == nil {
		slog.Info("audio disabled", "configured", a.providers.TTS != nil)
		return nil
	}
	m, err := artifact.New(artifact.Config{
		Dir:           a.cfg.Audio.Dir,
		Retention:     a.cfg.Audio.Retention,
		SweepInterval: a.cfg.Audio.SweepInterval,
		Timeout:       a.cfg.Chat.TTSTimeout,
		Voice:         tts.VoiceProfile{ID: a.cfg.Audio.VoiceID, Language: a.cfg.Audio.Language},
	}, a.providers.TTS, artifact.WithMetrics(a.metrics))
	if err != nil {
		return err
	}
	a.artifacts = m
	a.closers = append(a.closers, m.Close)
	return nil
}

func (a *App) checkers() []health.Checker {
	checks := []health.Checker{health.Err("corpus", a.corpusErr)}

	switch p := a.providers.LLM.(type) {
	case nil:
		checks = append(checks, health.Err("llm", errors.New("not configured")))
	case health.StatusReporter:
		checks = append(checks, health.Breakers("llm", p))
	}

	if a.artifacts != nil {
		if r, ok := a.providers.TTS.(health.StatusReporter); ok {
			checks = append(checks, health.Breakers("tts", r))
		}
		checks = append(checks, health.WritableDir("audio_dir", a.cfg.Audio.Dir))
	}
	return checks
}

// chatSettings converts the config section. Defaults have already been
// applied by the loader; zero values fall back to chat's defaults.
func chatSettings(cc config.ChatConfig) chat.Settings {
	st := chat.DefaultSettings()
	if cc.LLMTimeout > 0 {
		st.LLMTimeout = cc.LLMTimeout
	}
	if cc.TTSTimeout > 0 {
		st.TTSTimeout = cc.TTSTimeout
	}
	if cc.ReferenceTemperature != nil {
		st.ReferenceTemperature = *cc.ReferenceTemperature
	}
	if cc.AnswerTemperature != nil {
		st.AnswerTemperature = *cc.AnswerTemperature
	}
	st.MaxTokens = cc.MaxTokens
	return st
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Chat returns the chat service.
func (a *App) Chat() *chat.Service { return a.chat }

// Artifacts returns the artifact manager, or nil when audio is disabled.
func (a *App) Artifacts() *artifact.Manager { return a.artifacts }

// Handler returns the HTTP handler with all routes and middleware.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP, sweeps audio artifacts and watches the config file until
// ctx is cancelled. It returns nil after a clean stop.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(ctx) })
	a.runBackground(ctx, g)

	slog.Info("app running", "addr", a.cfg.Server.ListenAddr, "audio", a.artifacts != nil)
	return g.Wait()
}

// runBackground starts the janitor and the config watcher in g.
func (a *App) runBackground(ctx context.Context, g *errgroup.Group) {
	if a.artifacts != nil {
		g.Go(func() error { return a.artifacts.Run(ctx) })
	}
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(ctx) })
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems. It respects the context deadline: if
// ctx expires before all closers finish, remaining closers are skipped and
// the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
