// Package phrasecache content-addresses rendered phrase audio: a 64-bit
// hash of the canonical synthesis inputs maps to a serialized PhraseResult
// on disk, with an in-memory membership index so a miss never costs a
// stat call.
package phrasecache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Entry is the cached synthesis result for one phrase: mono PCM at 44100
// Hz and the phrase's total duration including padding.
type Entry struct {
	PCM             []float32 `msgpack:"pcm"`
	TotalDurationMs float64   `msgpack:"total_duration_ms"`
}

// Source is the canonical synthesis input a cache key is derived from.
// Two sources that marshal to identical JSON must always produce the
// same PhraseResult.
type Source struct {
	VoicebankUUID string      `json:"voicebank_uuid"`
	SpeakerID     uint32      `json:"speaker_id"`
	VolumeScale   float32     `json:"volume_scale"`
	AccentPhrase  interface{} `json:"accent_phrase"`
	NeighborMoras interface{} `json:"neighbor_moras,omitempty"`
	Style         interface{} `json:"style"`
}

// Key derives the 64-bit cache key for src.
func Key(src Source) (uint64, error) {
	canonical, err := json.Marshal(src)
	if err != nil {
		return 0, fmt.Errorf("phrasecache: canonicalizing source: %w", err)
	}
	return xxhash.Sum64(canonical), nil
}

// Cache is a content-addressed, disk-backed store of phrase synthesis
// results, rooted at a process-lifetime temp directory.
type Cache struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	present map[uint64]bool
}

// Open creates (or recreates) dir and returns a Cache backed by it.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("phrasecache: clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("phrasecache: creating %s: %w", dir, err)
	}
	return &Cache{dir: dir, logger: logger, present: make(map[uint64]bool)}, nil
}

// Close removes the cache's backing directory. Call this on graceful
// shutdown.
func (c *Cache) Close() error {
	return os.RemoveAll(c.dir)
}

func (c *Cache) path(key uint64) string {
	return filepath.Join(c.dir, fmt.Sprintf("cache-%016x.msgpack", key))
}

// Get returns the cached entry for key, or (nil, false) on any miss —
// including a corrupt file, which is treated identically to an absent one.
func (c *Cache) Get(key uint64) (*Entry, bool) {
	c.mu.RLock()
	known := c.present[key]
	c.mu.RUnlock()
	if !known {
		return nil, false
	}

	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("phrasecache: corrupt entry treated as miss", "key", key, "error", err)
		return nil, false
	}
	return &entry, true
}

// Put writes entry under key. Failures are logged, not propagated —
// caching is an optimization, never a synthesis requirement.
func (c *Cache) Put(key uint64, entry *Entry) {
	raw, err := msgpack.Marshal(entry)
	if err != nil {
		c.logger.Warn("phrasecache: failed to serialize entry", "key", key, "error", err)
		return
	}
	if err := os.WriteFile(c.path(key), raw, 0o644); err != nil {
		c.logger.Warn("phrasecache: failed to write entry", "key", key, "error", err)
		return
	}

	c.mu.Lock()
	c.present[key] = true
	c.mu.Unlock()
}
