package timing

import "testing"

func approxEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestNegotiateCrowdedCaseB(t *testing.T) {
	prevVowel := 0.03
	inputs := []Input{
		{VowelLength: prevVowel},
		{Preutter: 60, Overlap: 10, VowelLength: 0.2},
	}

	results := Negotiate(inputs)
	second := results[1]

	if !approxEqual(second.Preutter, 36, 0.5) {
		t.Errorf("Preutter = %v, want ~36", second.Preutter)
	}
	if !approxEqual(second.Overlap, 6, 0.5) {
		t.Errorf("Overlap = %v, want ~6", second.Overlap)
	}
	if !approxEqual(second.Skip, 24, 0.5) {
		t.Errorf("Skip = %v, want ~24", second.Skip)
	}
}

func TestNegotiateFirstMoraHasNoOverlapOrSkip(t *testing.T) {
	results := Negotiate([]Input{{Preutter: 50, Overlap: 20, VowelLength: 0.2}})
	if results[0].Overlap != 0 {
		t.Errorf("first mora Overlap = %v, want 0", results[0].Overlap)
	}
	if results[0].Skip != 0 {
		t.Errorf("first mora Skip = %v, want 0", results[0].Skip)
	}
}

func TestNegotiateAmpleRoomKeepsRecordedValues(t *testing.T) {
	inputs := []Input{
		{VowelLength: 1.0},
		{Preutter: 60, Overlap: 10, VowelLength: 0.2},
	}
	results := Negotiate(inputs)
	if !approxEqual(results[1].Preutter, 60, 1e-6) {
		t.Errorf("Preutter = %v, want 60 (ample room keeps recorded value)", results[1].Preutter)
	}
	if !approxEqual(results[1].Overlap, 10, 1e-6) {
		t.Errorf("Overlap = %v, want 10", results[1].Overlap)
	}
}

func TestNegotiateFadeClippingScalesVolume(t *testing.T) {
	results := Negotiate([]Input{{Preutter: 5, Overlap: 5, VowelLength: 0.001}})
	r := results[0]
	if r.FadeIn+r.FadeOut > r.Length+1e-6 {
		t.Errorf("fade sum %v exceeds length %v after clipping", r.FadeIn+r.FadeOut, r.Length)
	}
	if r.Volume > 1.0 {
		t.Errorf("Volume = %v, want <= 1.0", r.Volume)
	}
}
