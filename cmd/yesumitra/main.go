// Command yesumitra serves Yesu Mitra over HTTP, or as an interactive
// terminal session with --cli.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/teja-palleti/Yesu-Mitra/internal/app"
	"github.com/teja-palleti/Yesu-Mitra/internal/config"
	"github.com/teja-palleti/Yesu-Mitra/internal/observe"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/llm"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/llm/anyllm"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/llm/gemini"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/llm/openai"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts/elevenlabs"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts/gtts"
)

const version = "0.1.0"

// CLI defines the command-line flags.
var CLI struct {
	Config  string           `short:"c" default:"config.yaml" type:"path" help:"Path to the YAML configuration file."`
	CLI     bool             `name:"cli" help:"Chat in the terminal instead of serving HTTP."`
	Watch   bool             `default:"true" negatable:"" help:"Reload the configuration file when it changes."`
	Version kong.VersionFlag `help:"Print version information and exit."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("yesumitra"),
		kong.Description("Yesu Mitra: scripture-grounded answers in Telugu, with speech."),
		kong.Vars{"version": version},
	)
	os.Exit(run())
}

func run() int {
	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "yesumitra: config file %q not found, copy configs/example.yaml to get started\n", CLI.Config)
		} else {
			fmt.Fprintf(os.Stderr, "yesumitra: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(app.SlogLevel(cfg.Server.LogLevel))
	slog.SetDefault(newLogger(level))

	slog.Info("yesumitra starting",
		"version", version,
		"config", CLI.Config,
		"mode", mode(),
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(ctx, reg)
	providers := app.BuildProviders(cfg, reg, metrics)

	// ── Config watcher ────────────────────────────────────────────────────────
	opts := []app.Option{app.WithMetrics(metrics), app.WithLogLevel(level)}
	var current atomic.Pointer[app.App]
	if CLI.Watch {
		w, err := config.NewWatcher(CLI.Config, func(old, updated *config.Config) {
			if a := current.Load(); a != nil {
				a.ApplyConfig(old, updated)
			}
		})
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			opts = append(opts, app.WithWatcher(w))
		}
	}

	if !CLI.CLI {
		printStartupSummary(cfg, providers)
	}

	application, err := app.New(ctx, cfg, providers, opts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	current.Store(application)

	if CLI.CLI {
		err = application.RunCLI(ctx, os.Stdin, os.Stdout)
	} else {
		slog.Info("server ready, press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr)
		err = application.Run(ctx)
	}
	code := 0
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		code = 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return code
}

func mode() string {
	if CLI.CLI {
		return "cli"
	}
	return "http"
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// anyllmBackends are served through any-llm-go. Each takes an optional API key
// and base URL.
var anyllmBackends = []string{"anthropic", "deepseek", "mistral", "groq", "llamacpp", "llamafile"}

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(ctx context.Context, reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────

	// openai speaks the Chat Completions API. Gemini models without an explicit
	// base_url go to Google's compatibility endpoint.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		baseURL := entry.BaseURL
		if baseURL == "" && strings.HasPrefix(entry.Model, "gemini") {
			baseURL = openai.GeminiBaseURL
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		if org := entry.OptionString("organization", ""); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterLLM("gemini", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []gemini.Option
		if entry.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(entry.BaseURL))
		}
		return gemini.New(ctx, entry.APIKey, entry.Model, opts...)
	})

	for _, backend := range anyllmBackends {
		reg.RegisterLLM(backend, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(backend, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("gtts", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []gtts.Option
		if lang := entry.OptionString("language", ""); lang != "" {
			opts = append(opts, gtts.WithLanguage(lang))
		}
		if entry.BaseURL != "" {
			opts = append(opts, gtts.WithBaseURL(entry.BaseURL))
		}
		return gtts.New(opts...)
	})

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if outputFmt := entry.OptionString("output_format", ""); outputFmt != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	for _, name := range reg.LLMNames() {
		slog.Debug("registered provider", "kind", "llm", "name", name)
	}
	for _, name := range reg.TTSNames() {
		slog.Debug("registered provider", "kind", "tts", "name", name)
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, ps *app.Providers) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       Yesu Mitra: startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model, ps.LLM != nil)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model, ps.TTS != nil)
	fmt.Printf("║  Fallbacks       : %-19s ║\n", fmt.Sprintf("%d llm / %d tts", len(cfg.Providers.LLMFallbacks), len(cfg.Providers.TTSFallbacks)))
	fmt.Printf("║  Corpus          : %-19s ║\n", clip(string(cfg.Corpus.Format)+" "+cfg.Corpus.Path))
	if cfg.Audio.Disabled {
		fmt.Printf("║  Audio           : %-19s ║\n", "(disabled)")
	} else {
		fmt.Printf("║  Audio           : %-19s ║\n", clip(cfg.Audio.Language+" "+cfg.Audio.Retention.String()))
	}
	fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string, ok bool) {
	value := name
	switch {
	case name == "":
		value = "(not configured)"
	case !ok:
		value = name + " (unavailable)"
	case model != "":
		value = name + " / " + model
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, clip(value))
}

func clip(s string) string {
	if r := []rune(s); len(r) > 19 {
		return string(r[:16]) + "..."
	}
	return s
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
