package config

import (
	"path/filepath"
	"testing"

	"github.com/utavox/cantariserver/pkg/engine/style"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.FormatVersion != CurrentFormatVersion {
		t.Errorf("FormatVersion = %d, want %d", s.FormatVersion, CurrentFormatVersion)
	}
	if len(s.Paths) != 0 {
		t.Errorf("Paths = %v, want empty", s.Paths)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cantari.json")
	s := Settings{
		FormatVersion: CurrentFormatVersion,
		Paths:         []string{"/voicebanks"},
		OngenLimit:    5,
		OngenSettings: map[string]style.VoicebankSettings{
			"11111111-1111-1111-1111-111111111111": {Styles: []style.Settings{style.Default()}},
		},
	}
	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Paths) != 1 || got.Paths[0] != "/voicebanks" {
		t.Errorf("Paths = %v, want [/voicebanks]", got.Paths)
	}
	if got.OngenLimit != 5 {
		t.Errorf("OngenLimit = %d, want 5", got.OngenLimit)
	}
	if _, ok := got.OngenSettings["11111111-1111-1111-1111-111111111111"]; !ok {
		t.Error("expected ongen_settings entry to survive round-trip")
	}
}

func TestValidateRejectsNegativeLimit(t *testing.T) {
	if err := Validate(Settings{OngenLimit: -1}); err == nil {
		t.Error("expected error for negative ongen_limit")
	}
}

func TestRegistryReplaceNotifiesListeners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cantari.json")
	reg, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	var gotNew Settings
	called := false
	reg.OnChange(func(old, new Settings) {
		called = true
		gotNew = new
	})

	next := Default()
	next.Paths = []string{"/a", "/b"}
	if err := reg.Replace(next); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if !called {
		t.Fatal("expected OnChange listener to fire")
	}
	if len(gotNew.Paths) != 2 {
		t.Errorf("listener saw Paths = %v, want 2 entries", gotNew.Paths)
	}
	if len(reg.Current().Paths) != 2 {
		t.Errorf("Current().Paths = %v, want 2 entries", reg.Current().Paths)
	}
}

func TestRegistryReplaceRejectsInvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cantari.json")
	reg, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := reg.Replace(Settings{OngenLimit: -1}); err == nil {
		t.Error("expected Replace to reject invalid settings")
	}
}
