// Package phrasesynth drives one accent phrase end-to-end: alias
// resolution, timing negotiation, f0 curve assembly, and the native
// synthesis call, producing a single labeled PCM buffer.
package phrasesynth

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/utavox/cantariserver/pkg/engine/f0"
	"github.com/utavox/cantariserver/pkg/engine/mora"
	"github.com/utavox/cantariserver/pkg/engine/nativesynth"
	"github.com/utavox/cantariserver/pkg/engine/phraseencoder"
	"github.com/utavox/cantariserver/pkg/engine/style"
	"github.com/utavox/cantariserver/pkg/engine/timing"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// SampleRate is the fixed rate the native synthesizer emits PCM at.
const SampleRate = 44100

// Result is one phrase's rendered output: mono PCM at [SampleRate] and the
// total duration, including lead-in/lead-out padding, it occupies.
type Result struct {
	PCM             []float32
	TotalDurationMs float64
}

// Synthesize renders phrase for voicebank vb under sty, using lib to reach
// the native WORLD library and pool to bound how many native calls run at
// once. Mora text is normalized from katakana to hiragana before alias
// lookup. Morae that fail alias resolution are skipped with a
// logged warning and do not abort the phrase.
func Synthesize(ctx context.Context, logger *slog.Logger, vb *voicebank.Ongen, sty style.Settings, phrase mora.AccentPhrase, lib *nativesynth.Library, pool *nativesynth.Pool) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	moras := flatten(phrase)

	type survivor struct {
		mora  mora.Mora
		alias string
		entry *phraseencoder.Result
	}

	var survivors []survivor
	prevVowel := ""
	for _, m := range moras {
		kana := strings.Map(func(r rune) rune {
			if r >= 'ァ' && r <= 'ヶ' {
				return r - 0x60
			}
			return r
		}, m.Text)
		if phraseencoder.Skippable(kana) {
			continue
		}
		res, err := phraseencoder.Resolve(vb, prevVowel, kana, pitchHz(m.Pitch, sty.Whisper), sty.KeyShift)
		if err != nil {
			logger.Warn("phrasesynth: mora skipped, no oto", "text", m.Text, "error", err)
			continue
		}
		survivors = append(survivors, survivor{mora: m, alias: res.Alias, entry: res})
		prevVowel = m.Vowel
	}

	if len(survivors) == 0 {
		return Result{}, nil
	}

	inputs := make([]timing.Input, len(survivors))
	for i, s := range survivors {
		inputs[i] = timing.Input{
			Offset:          s.entry.Entry.Offset,
			Consonant:       s.entry.Entry.Consonant,
			CutOff:          s.entry.Entry.CutOff,
			Preutter:        s.entry.Entry.Preutter,
			Overlap:         s.entry.Entry.Overlap,
			VowelLength:     float64(s.mora.VowelLength),
			ConsonantLength: float64PtrOf(s.mora.ConsonantLength),
		}
	}
	negotiated := timing.Negotiate(inputs)

	f0Moras := make([]f0.Mora, len(survivors))
	for i, s := range survivors {
		f0Moras[i] = f0.Mora{
			Frequency: pitchForCurve(s.mora.Pitch, sty.Whisper),
			LengthMs:  negotiated[i].Length,
		}
	}
	curve := f0.Build(f0Moras, timing.PhrasePadding)
	placeholder := make([]float64, len(curve))
	for i := range placeholder {
		placeholder[i] = 0.5
	}

	handle := nativesynth.New(lib)
	defer handle.Close()

	for i, s := range survivors {
		skip := negotiated[i].Skip
		sign := 1.0
		if s.entry.Entry.CutOff < 0 {
			sign = -1.0
		}
		req := &nativesynth.Request{
			SampleFs:       int32(s.entry.Data.SampleRate),
			Sample:         s.entry.Data.Samples,
			Frq:            s.entry.Data.Frq,
			Tone:           int32(midiTone(s.mora.Pitch, sty.KeyShift)),
			ConVel:         negotiated[i].Vel,
			Offset:         s.entry.Entry.Offset,
			RequiredLength: negotiated[i].Length + skip + 100,
			Consonant:      s.entry.Entry.Consonant - skip,
			CutOff:         s.entry.Entry.CutOff - skip*sign,
			// sty.Voicing doubles as both the style_volume scalar here and
			// the resampler's FlagMv below: VOICEVOX's style_volume has no
			// UTAU analogue, and voicing is the closest existing knob a
			// style already exposes for "how present this voice sounds".
			Volume:         100 * float64(sty.Voicing) / 100 * negotiated[i].Volume,
			FlagG:          int32(sty.FormantShift),
			FlagP:          int32(sty.PeakCompression),
			FlagMt:         int32(sty.Tension),
			FlagMb:         int32(sty.Breathiness),
			FlagMv:         int32(sty.Voicing),
		}
		handle.AddRequest(req, negotiated[i].Start, skip, negotiated[i].Length, negotiated[i].FadeIn, negotiated[i].FadeOut)
	}

	handle.SetCurves(curve, placeholder, placeholder, placeholder, placeholder)

	pcm, err := pool.Run(ctx, handle.Synth)
	if err != nil {
		return Result{}, fmt.Errorf("phrasesynth: %w", err)
	}

	return Result{
		PCM:             pcm,
		TotalDurationMs: float64(len(curve)) * f0.MsPerFrame,
	}, nil
}

func flatten(phrase mora.AccentPhrase) []mora.Mora {
	out := make([]mora.Mora, 0, len(phrase.Moras)+1)
	out = append(out, phrase.Moras...)
	if phrase.PauseMora != nil {
		out = append(out, *phrase.PauseMora)
	}
	return out
}

// pitchHz converts a mora's log-Hz pitch field to a plain frequency for
// alias resolution's MIDI-note lookup. Devoicing (pitch == 0) is preserved
// as a 0 Hz sentinel rather than exp(0) == 1.
func pitchHz(pitch float32, whisper bool) float64 {
	if pitch == 0 {
		return 0
	}
	if whisper {
		return float64(pitch)
	}
	return math.Exp(float64(pitch))
}

// pitchForCurve returns the frequency f0.Build should use for this mora:
// in whisper mode the raw pitch value stands in for frequency, matching
// how a whisper voice carries no true f0.
func pitchForCurve(pitch float32, whisper bool) float64 {
	return pitchHz(pitch, whisper)
}

func midiTone(pitch float32, keyShift int8) int {
	hz := pitchHz(pitch, false)
	if hz <= 0 {
		hz = 440
	}
	note := int(math.Round(69 + 12*math.Log2(hz/440))) + int(keyShift)
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}
	return note
}

func float64PtrOf(v *float32) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
