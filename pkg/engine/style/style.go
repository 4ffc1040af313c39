// Package style holds the per-voicebank, per-style settings a user can
// customize from the /settings endpoint: key shift, whisper mode, formant
// shift, and the other VOICEVOX-style voice knobs, plus the portrait/icon
// bytes serving overrides.
package style

// Settings is one style (VOICEVOX calls this a "speaker style") belonging
// to a voicebank. A freshly discovered voicebank gets a single Default
// style, matching how an UTAU bank with no prior configuration behaves.
type Settings struct {
	Name            string `json:"name"`
	Portrait        []byte `json:"portrait,omitempty"` // json marshals []byte as base64
	Icon            []byte `json:"icon,omitempty"`
	KeyShift        int8   `json:"key_shift"`
	Whisper         bool   `json:"whisper"`
	FormantShift    int8   `json:"formant_shift"`
	Breathiness     uint8  `json:"breathiness"`
	Tension         int8   `json:"tension"`
	PeakCompression uint8  `json:"peak_compression"`
	Voicing         uint8  `json:"voicing"`
}

// Default returns the factory-default style: unmodified pitch/formant,
// voiced normally, and the 86% peak compression VOICEVOX's own engines use.
func Default() Settings {
	return Settings{
		Name:            "ノーマル",
		KeyShift:        0,
		Whisper:         false,
		FormantShift:    0,
		Breathiness:     0,
		Tension:         0,
		PeakCompression: 86,
		Voicing:         100,
	}
}

// VoicebankSettings is the set of styles configured for one voicebank.
// Name optionally overrides the voicebank's own character.txt name for
// display purposes.
type VoicebankSettings struct {
	Name   *string    `json:"name,omitempty"`
	Styles []Settings `json:"style_settings"`
}

// DefaultVoicebankSettings returns a single-style configuration, the state
// a newly discovered voicebank starts in before a user customizes it.
func DefaultVoicebankSettings() VoicebankSettings {
	return VoicebankSettings{Styles: []Settings{Default()}}
}
