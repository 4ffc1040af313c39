// Package config provides the settings schema, loader, and atomic registry
// cell for cantariserver.
//
// Two separate documents are involved: the YAML ServerConfig (listen
// address, log level, native library search path) bootstraps the process,
// while the JSON Settings document (voicebank paths, per-voicebank style
// overrides) is the one clients read and replace through GET/PUT /settings
// at runtime.
package config

import (
	"github.com/utavox/cantariserver/pkg/engine/style"
)

// CurrentFormatVersion is the Settings schema version this build writes and
// accepts without migration.
const CurrentFormatVersion = 1

// Settings is the root JSON document persisted at the path named by
// ServerConfig.SettingsPath (by default "~/.config/cantari.json") and
// exposed verbatim through GET/PUT /settings.
type Settings struct {
	FormatVersion int                          `json:"format_version"`
	Paths         []string                      `json:"paths"`
	OngenLimit    int                           `json:"ongen_limit"`
	OngenSettings map[string]style.VoicebankSettings `json:"ongen_settings"`
}

// Default returns an empty settings document at the current format
// version, the state a fresh install starts from before any voicebank path
// has been configured.
func Default() Settings {
	return Settings{
		FormatVersion: CurrentFormatVersion,
		OngenSettings: make(map[string]style.VoicebankSettings),
	}
}

// LogLevel controls slog verbosity, matching the teacher's string-enum
// config field style.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is one of the recognised log levels, or empty
// (which callers treat as "use the default").
func (l LogLevel) IsValid() bool {
	switch l {
	case "", LogDebug, LogInfo, LogWarn, LogError:
		return true
	default:
		return false
	}
}

// ServerConfig is the process bootstrap document (YAML), read once at
// startup — distinct from Settings, which is the runtime-mutable document.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	LogLevel       LogLevel `yaml:"log_level"`
	SettingsPath   string   `yaml:"settings_path"`
	NativeLibDir   string   `yaml:"native_lib_dir"`
	TextAnalyzerURL string  `yaml:"text_analyzer_url"`
	CacheDir       string   `yaml:"cache_dir"`
	SynthWorkers   int      `yaml:"synth_workers"`
}

// DefaultServerConfig returns the bootstrap defaults named in spec.md's CLI
// section: host 127.0.0.1, port 50202.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:     "127.0.0.1",
		Port:     50202,
		LogLevel: LogInfo,
	}
}
