package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/utavox/cantariserver/pkg/engine/style"
)

// Load reads the JSON settings document at path. A missing file is not an
// error: it returns [Default] so a fresh install can run with zero
// configured voicebanks until a client PUTs its first /settings document.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	s, err := LoadFromReader(f)
	if err != nil {
		return Settings{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return s, nil
}

// LoadFromReader decodes a JSON settings document from r and validates it.
func LoadFromReader(r io.Reader) (Settings, error) {
	s := Default()
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode json: %w", err)
	}
	if s.OngenSettings == nil {
		s.OngenSettings = make(map[string]style.VoicebankSettings)
	}
	return s, Validate(s)
}

// Validate checks that a Settings document is self-consistent.
func Validate(s Settings) error {
	if s.OngenLimit < 0 {
		return fmt.Errorf("config: ongen_limit must be non-negative, got %d", s.OngenLimit)
	}
	return nil
}

// Save atomically writes s as JSON to path: it writes to a sibling temp
// file and renames it into place, so a crash mid-write never leaves a
// truncated settings document on disk — the JSON-document analogue of
// [voicebank.Registry]'s atomic snapshot swap.
func Save(path string, s Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create settings dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".cantari-settings-*.json")
	if err != nil {
		return fmt.Errorf("config: create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		tmp.Close()
		return fmt.Errorf("config: encode settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close temp settings file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("config: rename settings into place: %w", err)
	}
	return nil
}

// LoadServerConfig reads the YAML bootstrap document at path. A missing
// file returns [DefaultServerConfig].
func LoadServerConfig(path string) (ServerConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultServerConfig(), nil
		}
		return ServerConfig{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg := DefaultServerConfig()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return ServerConfig{}, fmt.Errorf("config: decode yaml %q: %w", path, err)
	}
	return cfg, nil
}
