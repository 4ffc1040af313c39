package phrasecache

import (
	"path/filepath"
	"testing"
)

func TestKeyIsDeterministic(t *testing.T) {
	src := Source{VoicebankUUID: "abc", SpeakerID: 1, VolumeScale: 1.0, AccentPhrase: "x", Style: "y"}
	k1, err := Key(src)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	k2, err := Key(src)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if k1 != k2 {
		t.Errorf("Key not deterministic: %d != %d", k1, k2)
	}
}

func TestKeyDiffersOnInputChange(t *testing.T) {
	a, _ := Key(Source{VoicebankUUID: "abc", SpeakerID: 1})
	b, _ := Key(Source{VoicebankUUID: "abc", SpeakerID: 2})
	if a == b {
		t.Error("different speaker ids produced the same key")
	}
}

func TestPutThenGetRoundTrip(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "cache"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	entry := &Entry{PCM: []float32{0.1, 0.2, 0.3}, TotalDurationMs: 123.4}
	cache.Put(42, entry)

	got, ok := cache.Get(42)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got.TotalDurationMs != entry.TotalDurationMs || len(got.PCM) != len(entry.PCM) {
		t.Errorf("got %+v, want %+v", got, entry)
	}
}

func TestGetMissWithoutPut(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "cache"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.Get(999); ok {
		t.Error("expected miss for key never Put")
	}
}
