package mora

// AudioQuery is the full VOICEVOX-compatible request body /synthesis
// consumes and /audio_query produces: the accent-phrase breakdown plus
// every scale knob a client can tune before rendering audio.
type AudioQuery struct {
	AccentPhrases     []AccentPhrase `json:"accent_phrases"`
	SpeedScale        float32        `json:"speedScale"`
	PitchScale        float32        `json:"pitchScale"`
	IntonationScale   float32        `json:"intonationScale"`
	VolumeScale       float32        `json:"volumeScale"`
	PrePhonemeLength  float32        `json:"prePhonemeLength"`
	PostPhonemeLength float32        `json:"postPhonemeLength"`
	OutputSamplingRate int           `json:"outputSamplingRate"`
	OutputStereo      bool           `json:"outputStereo"`
	Kana              string         `json:"kana,omitempty"`
}

// Default returns the flat-scale query VOICEVOX clients expect as a
// starting point: no speed/pitch/intonation adjustment, 24kHz mono output,
// and the engine's standard 0.1s lead-in/lead-out silence.
func Default(accentPhrases []AccentPhrase) AudioQuery {
	return AudioQuery{
		AccentPhrases:      accentPhrases,
		SpeedScale:         1.0,
		PitchScale:         0.0,
		IntonationScale:    1.0,
		VolumeScale:        1.0,
		PrePhonemeLength:   0.1,
		PostPhonemeLength:  0.1,
		OutputSamplingRate: 24000,
		OutputStereo:       false,
	}
}

// ApplyScales applies SpeedScale, PitchScale, and IntonationScale to the
// query's accent phrases in the same order the reference engine does,
// then resets each scale field to its identity value since the
// adjustment has already been baked into the mora durations/pitches.
func (q AudioQuery) ApplyScales() AudioQuery {
	phrases := ApplySpeedScale(q.AccentPhrases, q.SpeedScale)
	phrases = ApplyPitchScale(phrases, q.PitchScale)
	phrases = ApplyIntonationScale(phrases, q.IntonationScale)

	q.AccentPhrases = phrases
	q.PrePhonemeLength /= q.SpeedScale
	q.PostPhonemeLength /= q.SpeedScale
	q.SpeedScale = 1.0
	q.PitchScale = 0.0
	q.IntonationScale = 1.0
	return q
}
