package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"gemini", "openai", "anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts": {"gtts", "elevenlabs"},
}

// apiKeyEnv maps provider names to the environment variable consulted when
// api_key is empty. The first set variable wins.
var apiKeyEnv = map[string][]string{
	"gemini":     {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"openai":     {"OPENAI_API_KEY", "GOOGLE_API_KEY"},
	"anthropic":  {"ANTHROPIC_API_KEY"},
	"deepseek":   {"DEEPSEEK_API_KEY"},
	"mistral":    {"MISTRAL_API_KEY"},
	"groq":       {"GROQ_API_KEY"},
	"elevenlabs": {"ELEVENLABS_API_KEY"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults and environment keys applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment keys and
// defaults, and validates the result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyEnv(cfg, os.LookupEnv)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv fills empty provider API keys from the environment. lookup is
// normally os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	fill := func(e *ProviderEntry) {
		if e.APIKey != "" {
			return
		}
		for _, name := range apiKeyEnv[e.Name] {
			if v, ok := lookup(name); ok && v != "" {
				e.APIKey = v
				return
			}
		}
	}
	fill(&cfg.Providers.LLM)
	fill(&cfg.Providers.TTS)
	for i := range cfg.Providers.LLMFallbacks {
		fill(&cfg.Providers.LLMFallbacks[i])
	}
	for i := range cfg.Providers.TTSFallbacks {
		fill(&cfg.Providers.TTSFallbacks[i])
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Corpus.Path == "" {
		errs = append(errs, errors.New("corpus.path is required"))
	}
	if cfg.Corpus.Format != "" && !cfg.Corpus.Format.IsValid() {
		errs = append(errs, fmt.Errorf("corpus.format %q is invalid; valid values: json, sqlite", cfg.Corpus.Format))
	}

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("providers.llm is not configured; every question will get the unavailable message")
	}
	validateProviderName("llm", cfg.Providers.LLM.Name)
	for i, e := range cfg.Providers.LLMFallbacks {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("providers.llm_fallbacks[%d].name is required", i))
		}
		validateProviderName("llm", e.Name)
	}

	if cfg.Providers.TTS.Name == "" && !cfg.Audio.Disabled {
		slog.Warn("providers.tts is not configured; answers will have no audio")
	}
	validateProviderName("tts", cfg.Providers.TTS.Name)
	for i, e := range cfg.Providers.TTSFallbacks {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("providers.tts_fallbacks[%d].name is required", i))
		}
		validateProviderName("tts", e.Name)
	}

	if cfg.Audio.Retention < 0 {
		errs = append(errs, fmt.Errorf("audio.retention %v must not be negative", cfg.Audio.Retention))
	}
	if cfg.Audio.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("audio.sweep_interval %v must not be negative", cfg.Audio.SweepInterval))
	}

	for name, t := range map[string]*float64{
		"chat.reference_temperature": cfg.Chat.ReferenceTemperature,
		"chat.answer_temperature":    cfg.Chat.AnswerTemperature,
	} {
		if t != nil && (*t < 0 || *t > 2) {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range [0, 2]", name, *t))
		}
	}
	if cfg.Chat.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("chat.max_tokens %d must not be negative", cfg.Chat.MaxTokens))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok || slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or a custom registration",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
