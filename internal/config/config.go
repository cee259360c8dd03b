// Package config provides the configuration schema, loader, file watcher and
// provider registry for the Yesu Mitra service.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// CorpusFormat selects the corpus loader.
type CorpusFormat string

const (
	// CorpusJSON reads a JSON document (optionally xz-compressed).
	CorpusJSON CorpusFormat = "json"

	// CorpusSQLite reads a verses table from a SQLite database.
	CorpusSQLite CorpusFormat = "sqlite"
)

// IsValid reports whether f is a recognised corpus format.
func (f CorpusFormat) IsValid() bool {
	return f == CorpusJSON || f == CorpusSQLite
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Audio     AudioConfig     `yaml:"audio"`
	Chat      ChatConfig      `yaml:"chat"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on. Default ":5000".
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Default "info".
	LogLevel LogLevel `yaml:"log_level"`

	// ShutdownTimeout bounds graceful shutdown. Default 10s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProvidersConfig declares the LLM and TTS chains. Each Name selects a
// constructor registered in the [Registry]; fallbacks are tried in order when
// the primary fails.
type ProvidersConfig struct {
	LLM          ProviderEntry   `yaml:"llm"`
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`
	TTS          ProviderEntry   `yaml:"tts"`
	TTSFallbacks []ProviderEntry `yaml:"tts_fallbacks"`
}

// ProviderEntry is the configuration block shared by all provider types.
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g. "gemini",
	// "openai", "gtts").
	Name string `yaml:"name"`

	// APIKey authenticates against the provider's API. When empty the
	// provider's environment variable is used (see [ApplyEnv]).
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a model within the provider.
	Model string `yaml:"model"`

	// Options holds provider-specific values not covered above.
	Options map[string]any `yaml:"options"`
}

// CorpusConfig locates the scripture corpus.
type CorpusConfig struct {
	// Path is the corpus file. Required.
	Path string `yaml:"path"`

	// Format is "json" (default) or "sqlite".
	Format CorpusFormat `yaml:"format"`

	// Strict turns corpus book keys missing from the book table into a load
	// failure instead of a warning.
	Strict bool `yaml:"strict"`
}

// AudioConfig configures the artifact manager and the spoken voice.
type AudioConfig struct {
	// Dir holds the generated MP3 files. Default "static/audio".
	Dir string `yaml:"dir"`

	// Retention protects an unfetched artifact from eviction. Default 10m.
	Retention time.Duration `yaml:"retention"`

	// SweepInterval is the janitor period. Default 1m.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// Language is the spoken language code. Default "te".
	Language string `yaml:"language"`

	// VoiceID selects a provider voice where the provider has several.
	VoiceID string `yaml:"voice_id"`

	// Disabled turns off audio generation entirely.
	Disabled bool `yaml:"disabled"`
}

// ChatConfig tunes the two model calls. Every field can be changed while the
// service runs (see [Watcher]).
type ChatConfig struct {
	// LLMTimeout bounds each model call. Default 60s.
	LLMTimeout time.Duration `yaml:"llm_timeout"`

	// TTSTimeout bounds one synthesis. Default 30s.
	TTSTimeout time.Duration `yaml:"tts_timeout"`

	// ReferenceTemperature is used for the citation call. Default 0.3.
	ReferenceTemperature *float64 `yaml:"reference_temperature"`

	// AnswerTemperature is used for the answer call. Default 0.7.
	AnswerTemperature *float64 `yaml:"answer_temperature"`

	// MaxTokens caps the answer length. Zero uses the provider default.
	MaxTokens int `yaml:"max_tokens"`
}

// Defaults for zero-valued fields, applied by [ApplyDefaults].
const (
	DefaultListenAddr           = ":5000"
	DefaultShutdownTimeout      = 10 * time.Second
	DefaultAudioDir             = "static/audio"
	DefaultRetention            = 10 * time.Minute
	DefaultSweepInterval        = time.Minute
	DefaultLanguage             = "te"
	DefaultLLMTimeout           = 60 * time.Second
	DefaultTTSTimeout           = 30 * time.Second
	DefaultReferenceTemperature = 0.3
	DefaultAnswerTemperature    = 0.7
)

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Corpus.Format == "" {
		cfg.Corpus.Format = CorpusJSON
	}
	if cfg.Audio.Dir == "" {
		cfg.Audio.Dir = DefaultAudioDir
	}
	if cfg.Audio.Retention <= 0 {
		cfg.Audio.Retention = DefaultRetention
	}
	if cfg.Audio.SweepInterval <= 0 {
		cfg.Audio.SweepInterval = DefaultSweepInterval
	}
	if cfg.Audio.Language == "" {
		cfg.Audio.Language = DefaultLanguage
	}
	if cfg.Chat.LLMTimeout <= 0 {
		cfg.Chat.LLMTimeout = DefaultLLMTimeout
	}
	if cfg.Chat.TTSTimeout <= 0 {
		cfg.Chat.TTSTimeout = DefaultTTSTimeout
	}
	if cfg.Chat.ReferenceTemperature == nil {
		t := DefaultReferenceTemperature
		cfg.Chat.ReferenceTemperature = &t
	}
	if cfg.Chat.AnswerTemperature == nil {
		t := DefaultAnswerTemperature
		cfg.Chat.AnswerTemperature = &t
	}
}
