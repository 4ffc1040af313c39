// Package timing negotiates per-mora placement on the synthesis timeline:
// how much of each oto entry's recorded preutterance and overlap survive
// when the previous mora doesn't leave enough room, and where on the
// phrase's global clock the resulting native-synth request should start.
package timing

import "math"

// PhrasePadding is the silence, in milliseconds, reserved before the first
// mora and after the last so the fade regions have somewhere to go.
const PhrasePadding = 500.0

// FadeOutDefault is the fade-out length applied to every mora's native
// request; unlike fade-in it isn't derived from the oto overlap, so a
// voicebank always gets a short, constant release.
const FadeOutDefault = 20.0

// Input is one mora's encoded timing material: the oto entry's recorded
// values (all milliseconds) and the mora's own requested durations
// (seconds, as VOICEVOX expresses them).
type Input struct {
	Offset          float64
	Consonant       float64
	CutOff          float64
	Preutter        float64
	Overlap         float64
	VowelLength     float64 // seconds
	ConsonantLength *float64 // seconds, nil if unset
}

// Result is the negotiated, millisecond-scale timing for one mora's
// native-synth request.
type Result struct {
	Preutter float64
	Overlap  float64
	Skip     float64
	FadeIn   float64
	FadeOut  float64
	Start    float64 // position on the phrase's global timeline, ms
	Length   float64 // request length handed to the native synth, ms
	Volume   float64 // 0..1 scale applied after fade clipping
	Vel      float64 // consonant velocity used to derive Preutter/Overlap
}

// consonantVelocityFactor maps a velocity (0..~275) to the stretch factor
// UTAU resamplers apply to the recorded consonant portion: vel=100 is
// unstretched, below 100 stretches it out, above compresses it.
func consonantVelocityFactor(vel float64) float64 {
	return math.Pow(2, (100-vel)/100)
}

func velocityFromFactor(factor float64) float64 {
	return (1 - math.Log2(factor)) * 100
}

// Negotiate computes the negotiated timing for every mora in a phrase,
// given each mora's encoded Input in order. The first mora always starts
// with overlap=0 and skip=0, since there's no preceding mora to crowd it.
func Negotiate(inputs []Input) []Result {
	results := make([]Result, len(inputs))
	sumLength := 0.0

	for i, in := range inputs {
		vel := 100.0
		if in.ConsonantLength != nil {
			targetConsonantMs := *in.ConsonantLength * 1000
			otoConsonantMs := (in.Preutter-in.Overlap)/2 + (in.Consonant-in.Preutter)/2
			if otoConsonantMs != 0 {
				vel = velocityFromFactor(targetConsonantMs / otoConsonantMs)
			}
			if math.IsNaN(vel) {
				vel = 100
			}
			vel = clamp(vel, 100, 275)
		}

		factor := consonantVelocityFactor(vel)
		rp := in.Preutter * factor
		ro := in.Overlap * factor

		var preutter, overlap, skip float64
		if i == 0 {
			preutter, overlap, skip = rp, 0, 0
		} else {
			prev := inputs[i-1]
			consonantMs := 0.0
			if in.ConsonantLength != nil {
				consonantMs = *in.ConsonantLength * 1000
			}
			prevLength := prev.VowelLength*1000 + consonantMs

			if prevLength/2 >= rp-ro {
				preutter, overlap, skip = rp, ro, 0
			} else if rp-ro != 0 {
				atPreutter := rp * prevLength / (rp - ro)
				atOverlap := ro * prevLength / (rp - ro)
				preutter, overlap = atPreutter, atOverlap
				skip = rp - atPreutter
			}
		}

		fadeIn := math.Max(overlap, 0)
		shift := math.Min(overlap, 0)

		start := sumLength + PhrasePadding + shift - preutter
		if start < 0 {
			skip += -start
			start = 0
		}

		nextConsonantMs, nextOverlap, nextPreutter := 0.0, 0.0, 0.0
		if i+1 < len(inputs) {
			next := inputs[i+1]
			if next.ConsonantLength != nil {
				nextConsonantMs = *next.ConsonantLength * 1000
			}
			nextOverlap, nextPreutter = next.Overlap, next.Preutter
		}

		length := in.VowelLength*1000 + nextConsonantMs + preutter + (nextOverlap - nextPreutter)

		fadeOut := FadeOutDefault
		volume := 1.0
		if fadeIn+fadeOut > length && length > 0 {
			scale := length / (fadeIn + fadeOut)
			volume = scale
			fadeIn *= scale
			fadeOut *= scale
		}

		results[i] = Result{
			Preutter: preutter,
			Overlap:  overlap,
			Skip:     skip,
			FadeIn:   fadeIn,
			FadeOut:  fadeOut,
			Start:    start,
			Length:   length,
			Volume:   volume,
			Vel:      vel,
		}

		sumLength += in.VowelLength*1000 + func() float64 {
			if in.ConsonantLength != nil {
				return *in.ConsonantLength * 1000
			}
			return 0
		}()
	}

	return results
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
