package app

import (
	"log/slog"

	"github.com/teja-palleti/Yesu-Mitra/internal/config"
)

// ApplyConfig applies the hot-reloadable parts of a new configuration: log
// level, chat tuning and audio retention. Other changes are logged as
// needing a restart. It is the callback to hand to [config.NewWatcher].
func (a *App) ApplyConfig(old, updated *config.Config) {
	d := config.Diff(old, updated)

	if d.LogLevelChanged && a.level != nil {
		a.level.Set(SlogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.ChatChanged {
		a.chat.SetSettings(chatSettings(updated.Chat))
		slog.Info("chat settings reloaded")
	}
	if d.RetentionChanged && a.artifacts != nil {
		a.artifacts.SetRetention(d.NewRetention)
		slog.Info("audio retention changed", "retention", d.NewRetention)
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("configuration changes need a restart to take effect", "sections", d.RestartRequired)
	}
}

// SlogLevel maps a config log level to its slog level. Unknown values map to
// info.
func SlogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
