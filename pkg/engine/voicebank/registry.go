package voicebank

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Registry holds every loaded voicebank and serves speaker lookups. Reload
// builds an entirely new snapshot and swaps it in atomically so in-flight
// requests never observe a half-built set.
type Registry struct {
	limit int

	snapshot atomic.Pointer[registrySnapshot]
	mu       sync.Mutex // serializes concurrent Reload calls
}

type registrySnapshot struct {
	byUUID map[uuid.UUID]*Ongen
	order  []*Ongen
}

// NewRegistry returns an empty Registry that will stop discovering
// voicebanks once limit have been loaded. A limit of 0 means unlimited.
func NewRegistry(limit int) *Registry {
	r := &Registry{limit: limit}
	r.snapshot.Store(&registrySnapshot{byUUID: map[uuid.UUID]*Ongen{}})
	return r
}

// Reload walks each of paths (to a depth of three directories) looking for
// character.txt files, loads each as an [Ongen], and replaces the
// registry's contents. Voicebanks that fail to load are skipped; the error
// for each is returned joined, but a partial success still replaces the
// snapshot.
func (r *Registry) Reload(paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	roots, err := discoverRoots(paths)
	if err != nil {
		return err
	}

	next := &registrySnapshot{byUUID: map[uuid.UUID]*Ongen{}}
	var loadErrs []string
	for _, root := range roots {
		if r.limit > 0 && len(next.order) >= r.limit {
			break
		}
		ongen, err := Load(root, next.byUUID)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Sprintf("%s: %v", root, err))
			continue
		}
		next.byUUID[ongen.UUID] = ongen
		next.order = append(next.order, ongen)
	}

	r.snapshot.Store(next)

	if len(loadErrs) > 0 {
		return fmt.Errorf("voicebank: %d voicebank(s) failed to load: %s", len(loadErrs), strings.Join(loadErrs, "; "))
	}
	return nil
}

// All returns every currently loaded voicebank, in discovery order.
func (r *Registry) All() []*Ongen {
	return r.snapshot.Load().order
}

// ByUUID looks up a voicebank by its derived identity UUID.
func (r *Registry) ByUUID(id uuid.UUID) (*Ongen, bool) {
	o, ok := r.snapshot.Load().byUUID[id]
	return o, ok
}

// StyleFromSpeakerID resolves a VOICEVOX speaker id into the voicebank and
// style index it was built from, the inverse of [Ongen.StyleID].
func (r *Registry) StyleFromSpeakerID(speakerID uint32) (*Ongen, uint8, bool) {
	want := speakerID &^ 0xff
	for _, o := range r.snapshot.Load().order {
		if o.ID() == want {
			return o, uint8(speakerID & 0xff), true
		}
	}
	return nil, 0, false
}

func discoverRoots(paths []string) ([]string, error) {
	var roots []string
	for _, base := range paths {
		err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() {
				rel, _ := filepath.Rel(base, path)
				if rel != "." && strings.Count(rel, string(filepath.Separator))+1 > maxWalkDepth {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() == "character.txt" {
				roots = append(roots, filepath.Dir(path))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("voicebank: walking %s: %w", base, err)
		}
	}
	return roots, nil
}
