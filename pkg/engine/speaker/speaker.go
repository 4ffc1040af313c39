// Package speaker maps the 32-bit VOICEVOX-style speaker id clients send
// on every synthesis-adjacent request to the voicebank and style settings
// it was derived from.
package speaker

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/utavox/cantariserver/pkg/engine/style"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// ErrSpeakerNotFound reports that no loaded voicebank matches a speaker id.
type ErrSpeakerNotFound struct {
	SpeakerID uint32
}

func (e *ErrSpeakerNotFound) Error() string {
	return fmt.Sprintf("speaker: no speaker found for id %d", e.SpeakerID)
}

// Registry composes the voicebank registry with the per-voicebank style
// settings a user has configured, resolving a speaker id to both.
type Registry struct {
	voicebanks *voicebank.Registry

	mu     sync.RWMutex
	styles map[uuid.UUID]style.VoicebankSettings
}

// NewRegistry wraps voicebanks with an initially-empty style settings map;
// every voicebank falls back to [style.DefaultVoicebankSettings] until
// SetStyles is called for it.
func NewRegistry(voicebanks *voicebank.Registry) *Registry {
	return &Registry{voicebanks: voicebanks, styles: make(map[uuid.UUID]style.VoicebankSettings)}
}

// SetStyles installs the style configuration for one voicebank, replacing
// whatever was previously set.
func (r *Registry) SetStyles(id uuid.UUID, settings style.VoicebankSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles[id] = settings
}

// StylesFor returns the currently configured styles for a voicebank, or
// the single-style default if none have been configured yet.
func (r *Registry) StylesFor(id uuid.UUID) style.VoicebankSettings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.styles[id]; ok {
		return s
	}
	return style.DefaultVoicebankSettings()
}

// Lookup resolves speakerID to its voicebank and the specific style it
// selects.
func (r *Registry) Lookup(speakerID uint32) (*voicebank.Ongen, style.Settings, error) {
	ongen, styleIndex, ok := r.voicebanks.StyleFromSpeakerID(speakerID)
	if !ok {
		return nil, style.Settings{}, &ErrSpeakerNotFound{SpeakerID: speakerID}
	}

	settings := r.StylesFor(ongen.UUID)
	if int(styleIndex) >= len(settings.Styles) {
		return nil, style.Settings{}, &ErrSpeakerNotFound{SpeakerID: speakerID}
	}
	return ongen, settings.Styles[styleIndex], nil
}
