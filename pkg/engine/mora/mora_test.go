package mora

import "testing"

func TestApplySpeedScaleHalvesDurationAtDoubleSpeed(t *testing.T) {
	phrases := []AccentPhrase{{
		Moras: []Mora{{Text: "ア", Vowel: "a", VowelLength: 1.0, Pitch: 5.0}},
	}}
	got := ApplySpeedScale(phrases, 2.0)
	if got[0].Moras[0].VowelLength != 0.5 {
		t.Errorf("VowelLength = %v, want 0.5", got[0].Moras[0].VowelLength)
	}
}

func TestApplyPitchScaleSkipsUnvoicedMoras(t *testing.T) {
	phrases := []AccentPhrase{{
		Moras: []Mora{{Text: "ン", Vowel: "N", Pitch: 0}},
	}}
	got := ApplyPitchScale(phrases, 1.0)
	if got[0].Moras[0].Pitch != 0 {
		t.Errorf("Pitch = %v, want 0 (unvoiced stays unvoiced)", got[0].Moras[0].Pitch)
	}
}

func TestApplyPitchScaleDoublesAtOneOctaveUp(t *testing.T) {
	phrases := []AccentPhrase{{
		Moras: []Mora{{Text: "ア", Vowel: "a", Pitch: 3.0}},
	}}
	got := ApplyPitchScale(phrases, 1.0)
	want := float32(6.0)
	if diff := got[0].Moras[0].Pitch - want; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("Pitch = %v, want %v", got[0].Moras[0].Pitch, want)
	}
}

func TestApplyIntonationScaleIdentityAtOne(t *testing.T) {
	phrases := []AccentPhrase{{
		Moras: []Mora{{Text: "ア", Vowel: "a", Pitch: 4.0}, {Text: "イ", Vowel: "i", Pitch: 6.0}},
	}}
	got := ApplyIntonationScale(phrases, 1.0)
	if got[0].Moras[0].Pitch != 4.0 || got[0].Moras[1].Pitch != 6.0 {
		t.Errorf("identity intonation scale changed pitches: %+v", got[0].Moras)
	}
}

func TestDefaultAudioQueryScales(t *testing.T) {
	q := Default(nil)
	if q.SpeedScale != 1.0 || q.PitchScale != 0.0 || q.IntonationScale != 1.0 || q.VolumeScale != 1.0 {
		t.Errorf("Default scales not identity: %+v", q)
	}
	if q.OutputSamplingRate != 24000 {
		t.Errorf("OutputSamplingRate = %d, want 24000", q.OutputSamplingRate)
	}
}
