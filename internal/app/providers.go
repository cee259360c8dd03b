package app

import (
	"log/slog"

	"github.com/teja-palleti/Yesu-Mitra/internal/config"
	"github.com/teja-palleti/Yesu-Mitra/internal/observe"
	"github.com/teja-palleti/Yesu-Mitra/internal/resilience"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/llm"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts"
)

// BuildProviders instantiates the configured LLM and TTS chains through reg.
//
// Each chain is the primary entry followed by its fallbacks. Entries whose
// factory fails (unknown name, missing API key) are logged and skipped, so
// the first working entry becomes the primary. A chain with no working entry
// leaves the slot nil and the app degrades instead of refusing to start.
func BuildProviders(cfg *config.Config, reg *config.Registry, metrics *observe.Metrics) *Providers {
	ps := &Providers{}

	llmEntries := chain(cfg.Providers.LLM, cfg.Providers.LLMFallbacks)
	var llmChain *resilience.LLMFallback
	for _, e := range llmEntries {
		p, err := reg.CreateLLM(e)
		if err != nil {
			slog.Error("provider unavailable", "kind", "llm", "name", e.Name, "err", err)
			continue
		}
		slog.Info("provider created", "kind", "llm", "name", e.Name, "model", e.Model)
		if llmChain == nil {
			llmChain = resilience.NewLLMFallback(p, e.Name, resilience.FallbackConfig{Kind: "llm", Metrics: metrics})
		} else {
			llmChain.AddFallback(e.Name, p)
		}
	}
	if llmChain != nil {
		ps.LLM = llmChain
	}

	ttsEntries := chain(cfg.Providers.TTS, cfg.Providers.TTSFallbacks)
	var ttsChain *resilience.TTSFallback
	for _, e := range ttsEntries {
		p, err := reg.CreateTTS(e)
		if err != nil {
			slog.Error("provider unavailable", "kind", "tts", "name", e.Name, "err", err)
			continue
		}
		slog.Info("provider created", "kind", "tts", "name", e.Name)
		if ttsChain == nil {
			ttsChain = resilience.NewTTSFallback(p, e.Name, resilience.FallbackConfig{Kind: "tts", Metrics: metrics})
		} else {
			ttsChain.AddFallback(e.Name, p)
		}
	}
	if ttsChain != nil {
		ps.TTS = ttsChain
	}

	return ps
}

// chain returns primary followed by fallbacks, skipping unnamed entries.
func chain(primary config.ProviderEntry, fallbacks []config.ProviderEntry) []config.ProviderEntry {
	out := make([]config.ProviderEntry, 0, 1+len(fallbacks))
	if primary.Name != "" {
		out = append(out, primary)
	}
	for _, f := range fallbacks {
		if f.Name != "" {
			out = append(out, f)
		}
	}
	return out
}

var (
	_ llm.Provider = (*resilience.LLMFallback)(nil)
	_ tts.Provider = (*resilience.TTSFallback)(nil)
)
