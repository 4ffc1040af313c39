// Package mora defines the VOICEVOX-compatible audio query model —
// moras, accent phrases, and the query envelope — along with the scale
// transforms (speed, pitch, intonation) clients apply before synthesis.
package mora

import "math"

// Mora is one mora (phonetic syllable unit): its text, optional consonant,
// vowel, and the duration/pitch the engine assigned it. Consonant and
// ConsonantLength are nil for vowel-only moras (e.g. "ア").
type Mora struct {
	Text            string   `json:"text"`
	Consonant       *string  `json:"consonant"`
	ConsonantLength *float32 `json:"consonant_length"`
	Vowel           string   `json:"vowel"`
	VowelLength     float32  `json:"vowel_length"`
	Pitch           float32  `json:"pitch"`
}

// AccentPhrase groups the moras spoken under one pitch-accent, along with
// where the accent falls (1-indexed into Moras) and an optional pause
// inserted after it.
type AccentPhrase struct {
	Moras           []Mora `json:"moras"`
	Accent          int    `json:"accent"`
	PauseMora       *Mora  `json:"pause_mora"`
	IsInterrogative bool   `json:"is_interrogative"`
}

// ApplySpeedScale divides every mora's (and the pause mora's) duration by
// speedScale, returning a new slice. speedScale > 1 speaks faster.
func ApplySpeedScale(phrases []AccentPhrase, speedScale float32) []AccentPhrase {
	out := make([]AccentPhrase, len(phrases))
	for i, p := range phrases {
		out[i] = p.applySpeedScale(speedScale)
	}
	return out
}

func (p AccentPhrase) applySpeedScale(speedScale float32) AccentPhrase {
	moras := make([]Mora, len(p.Moras))
	for i, m := range p.Moras {
		moras[i] = m.scaleDuration(1 / speedScale)
	}
	p.Moras = moras
	if p.PauseMora != nil {
		scaled := p.PauseMora.scaleDuration(1 / speedScale)
		p.PauseMora = &scaled
	}
	return p
}

func (m Mora) scaleDuration(factor float32) Mora {
	m.VowelLength *= factor
	if m.ConsonantLength != nil {
		v := *m.ConsonantLength * factor
		m.ConsonantLength = &v
	}
	return m
}

// ApplyPitchScale multiplies every voiced mora's pitch by 2^pitchScale,
// leaving unvoiced moras (pitch == 0) untouched.
func ApplyPitchScale(phrases []AccentPhrase, pitchScale float32) []AccentPhrase {
	factor := pow2(pitchScale)
	out := make([]AccentPhrase, len(phrases))
	for i, p := range phrases {
		moras := make([]Mora, len(p.Moras))
		for j, m := range p.Moras {
			if m.Pitch != 0 {
				m.Pitch *= factor
			}
			moras[j] = m
		}
		p.Moras = moras
		out[i] = p
	}
	return out
}

// ApplyIntonationScale pulls every voiced mora's pitch toward (or away
// from) the phrase set's average pitch, scaled by intonationScale. A scale
// of 1.0 is a no-op; above 1.0 exaggerates the existing intonation curve.
func ApplyIntonationScale(phrases []AccentPhrase, intonationScale float32) []AccentPhrase {
	var sum float32
	var voiced int
	for _, p := range phrases {
		for _, m := range p.Moras {
			sum += m.Pitch
			if m.Pitch > 0 {
				voiced++
			}
		}
	}
	if voiced == 0 {
		return phrases
	}
	average := sum / float32(voiced)

	out := make([]AccentPhrase, len(phrases))
	for i, p := range phrases {
		moras := make([]Mora, len(p.Moras))
		for j, m := range p.Moras {
			if m.Pitch != 0 {
				m.Pitch += (m.Pitch - average) * (intonationScale - 1)
			}
			moras[j] = m
		}
		p.Moras = moras
		out[i] = p
	}
	return out
}

func pow2(x float32) float32 {
	return float32(math.Pow(2, float64(x)))
}
