package config

import "time"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; everything else
// (listen address, providers, corpus) needs a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ChatChanged is true when any [ChatConfig] field differs.
	ChatChanged bool

	// RetentionChanged is true when audio.retention differs.
	RetentionChanged bool
	NewRetention     time.Duration

	// RestartRequired lists changed sections that are not applied live.
	RestartRequired []string
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	d.ChatChanged = !chatEqual(old.Chat, new.Chat)

	if old.Audio.Retention != new.Audio.Retention {
		d.RetentionChanged = true
		d.NewRetention = new.Audio.Retention
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if !providersEqual(old.Providers, new.Providers) {
		d.RestartRequired = append(d.RestartRequired, "providers")
	}
	if old.Corpus != new.Corpus {
		d.RestartRequired = append(d.RestartRequired, "corpus")
	}
	if old.Audio.Dir != new.Audio.Dir || old.Audio.Language != new.Audio.Language ||
		old.Audio.VoiceID != new.Audio.VoiceID || old.Audio.Disabled != new.Audio.Disabled {
		d.RestartRequired = append(d.RestartRequired, "audio")
	}

	return d
}

func chatEqual(a, b ChatConfig) bool {
	return a.LLMTimeout == b.LLMTimeout &&
		a.TTSTimeout == b.TTSTimeout &&
		a.MaxTokens == b.MaxTokens &&
		floatPtrEqual(a.ReferenceTemperature, b.ReferenceTemperature) &&
		floatPtrEqual(a.AnswerTemperature, b.AnswerTemperature)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func providersEqual(a, b ProvidersConfig) bool {
	if !entryEqual(a.LLM, b.LLM) || !entryEqual(a.TTS, b.TTS) {
		return false
	}
	if len(a.LLMFallbacks) != len(b.LLMFallbacks) || len(a.TTSFallbacks) != len(b.TTSFallbacks) {
		return false
	}
	for i := range a.LLMFallbacks {
		if !entryEqual(a.LLMFallbacks[i], b.LLMFallbacks[i]) {
			return false
		}
	}
	for i := range a.TTSFallbacks {
		if !entryEqual(a.TTSFallbacks[i], b.TTSFallbacks[i]) {
			return false
		}
	}
	return true
}

// entryEqual ignores Options, which may hold incomparable values.
func entryEqual(a, b ProviderEntry) bool {
	return a.Name == b.Name && a.APIKey == b.APIKey && a.BaseURL == b.BaseURL && a.Model == b.Model
}
