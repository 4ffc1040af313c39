// Package phraseencoder resolves a mora's kana text and pitch into a
// concrete oto alias from a voicebank, trying the connected-speech, bare,
// and word-initial candidate forms before falling back to a small table of
// voicing-pair substitutes.
package phraseencoder

import (
	"fmt"

	"github.com/utavox/cantariserver/pkg/engine/midiscale"
	"github.com/utavox/cantariserver/pkg/engine/oto"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// restAlias is what the Japanese comma sentinel resolves to: a rest/pause.
const restAlias = "R"

// voicingFallback pairs kana that a voicebank commonly records under only
// one spelling of a voicing pair. Each entry is tried once, in the order
// listed, before giving up.
var voicingFallback = map[string]string{
	"お": "を", "を": "お",
	"ず": "づ", "づ": "ず",
	"じ": "ぢ", "ぢ": "じ",
}

// Result is a successfully resolved alias: the literal alias string (kept
// for logging and cache hashing), the backing timing entry, and its
// decoded audio.
type Result struct {
	Alias string
	Entry *oto.Entry
	Data  *oto.Data
}

// ErrNoOto reports that no candidate alias exists in the voicebank.
type ErrNoOto struct {
	Kana string
}

func (e *ErrNoOto) Error() string { return fmt.Sprintf("phraseencoder: no oto for %q", e.Kana) }

// Skippable reports whether kana is one of the sentinel tokens that never
// needs an oto lookup: the glottal-stop mora "っ" has no independent sample
// in any UTAU voicebank and is silently dropped.
func Skippable(kana string) bool {
	return kana == "っ"
}

// Resolve finds the best alias for one mora. prevVowel is the previous
// mora's vowel phoneme (empty at phrase start); kana is the mora's text
// (already normalized to hiragana); pitchHz is its frequency, or 0 for a
// devoiced mora, in which case the connected-speech/bare/initial forms are
// still tried, at the note of A4 (440 Hz) shifted by keyShift and clamped.
func Resolve(vb *voicebank.Ongen, prevVowel, kana string, pitchHz float64, keyShift int8) (*Result, error) {
	return resolve(vb, prevVowel, kana, pitchHz, keyShift, true)
}

func resolve(vb *voicebank.Ongen, prevVowel, kana string, pitchHz float64, keyShift int8, allowFallback bool) (*Result, error) {
	if kana == "、" {
		kana = restAlias
	}

	note := midiscale.FromFrequency(noteFrequency(pitchHz))
	shifted := int(note) + int(keyShift)
	if shifted < 0 {
		shifted = 0
	}
	if shifted > 127 {
		shifted = 127
	}
	note = midiscale.Note(shifted).Clamp(midiscale.MinNote, midiscale.MaxNote)

	prefix, suffix := "", ""
	if ps, ok := vb.PrefixMap[note.Name()]; ok {
		prefix, suffix = ps.Prefix, ps.Suffix
	}

	candidates := []string{
		fmt.Sprintf("%s%s %s%s", prefix, prevVowel, kana, suffix), // connected-speech
		fmt.Sprintf("%s%s%s", prefix, kana, suffix),               // bare
		fmt.Sprintf("%s- %s%s", prefix, kana, suffix),             // word-initial
	}

	for _, alias := range candidates {
		entry, ok := vb.Oto[alias]
		if !ok {
			continue
		}
		data, err := entry.Data()
		if err != nil {
			continue
		}
		return &Result{Alias: alias, Entry: entry, Data: data}, nil
	}

	if allowFallback {
		if alt, ok := voicingFallback[kana]; ok {
			return resolve(vb, prevVowel, alt, pitchHz, keyShift, false)
		}
	}

	return nil, &ErrNoOto{Kana: kana}
}

// noteFrequency guards FromFrequency against a devoiced mora's 0 Hz
// sentinel, which has no well-defined MIDI note.
func noteFrequency(hz float64) float64 {
	if hz <= 0 {
		return 440.0
	}
	return hz
}
