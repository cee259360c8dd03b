package config_test

import (
	"slices"
	"testing"
	"time"

	"github.com/teja-palleti/Yesu-Mitra/internal/config"
)

func baseConfig() *config.Config {
	cfg := &config.Config{
		Server:    config.ServerConfig{LogLevel: config.LogInfo},
		Providers: config.ProvidersConfig{LLM: config.ProviderEntry{Name: "gemini", Model: "gemini-2.0-flash"}},
		Corpus:    config.CorpusConfig{Path: "bible.json"},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestDiff_NoChanges(t *testing.T) {
	d := config.Diff(baseConfig(), baseConfig())
	if d.LogLevelChanged || d.ChatChanged || d.RetentionChanged || len(d.RestartRequired) != 0 {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		check   func(t *testing.T, d config.ConfigDiff)
		restart []string
	}{
		{
			name:   "log level",
			mutate: func(c *config.Config) { c.Server.LogLevel = config.LogDebug },
			check: func(t *testing.T, d config.ConfigDiff) {
				if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
					t.Errorf("log level: got %+v", d)
				}
			},
		},
		{
			name: "answer temperature",
			mutate: func(c *config.Config) {
				v := 0.9
				c.Chat.AnswerTemperature = &v
			},
			check: func(t *testing.T, d config.ConfigDiff) {
				if !d.ChatChanged {
					t.Error("ChatChanged: got false")
				}
			},
		},
		{
			name:   "llm timeout",
			mutate: func(c *config.Config) { c.Chat.LLMTimeout = 5 * time.Second },
			check: func(t *testing.T, d config.ConfigDiff) {
				if !d.ChatChanged {
					t.Error("ChatChanged: got false")
				}
			},
		},
		{
			name:   "retention",
			mutate: func(c *config.Config) { c.Audio.Retention = time.Hour },
			check: func(t *testing.T, d config.ConfigDiff) {
				if !d.RetentionChanged || d.NewRetention != time.Hour {
					t.Errorf("retention: got %+v", d)
				}
			},
		},
		{
			name:    "provider model",
			mutate:  func(c *config.Config) { c.Providers.LLM.Model = "gemini-2.5-pro" },
			restart: []string{"providers"},
		},
		{
			name: "fallback added",
			mutate: func(c *config.Config) {
				c.Providers.TTSFallbacks = append(c.Providers.TTSFallbacks, config.ProviderEntry{Name: "gtts"})
			},
			restart: []string{"providers"},
		},
		{
			name: "listen addr and corpus",
			mutate: func(c *config.Config) {
				c.Server.ListenAddr = ":9000"
				c.Corpus.Strict = true
			},
			restart: []string{"server.listen_addr", "corpus"},
		},
		{
			name:    "audio dir",
			mutate:  func(c *config.Config) { c.Audio.Dir = "/tmp/other" },
			restart: []string{"audio"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			old, updated := baseConfig(), baseConfig()
			tc.mutate(updated)
			d := config.Diff(old, updated)
			if tc.check != nil {
				tc.check(t, d)
			}
			if !slices.Equal(d.RestartRequired, tc.restart) {
				t.Errorf("RestartRequired: got %v, want %v", d.RestartRequired, tc.restart)
			}
		})
	}
}
