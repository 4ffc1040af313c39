package mixer

import (
	"encoding/binary"
	"testing"
)

func TestMixProducesNonEmptyWav(t *testing.T) {
	phrases := []Phrase{
		{PCM: constantPCM(0.5, NativeSampleRate/2), StartSeconds: PhrasePaddingSeconds},
	}
	out, err := Mix(phrases, Options{OutputSampleRate: 24000})
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("Mix returned empty output")
	}
	if string(out[:4]) != "RIFF" {
		t.Errorf("output missing RIFF header, got %q", out[:4])
	}

	audioFormat := binary.LittleEndian.Uint16(out[20:22])
	if audioFormat != wavFormatIEEEFloat {
		t.Errorf("fmt audio format = %d, want %d (IEEE float)", audioFormat, wavFormatIEEEFloat)
	}
	bitsPerSample := binary.LittleEndian.Uint16(out[34:36])
	if bitsPerSample != 32 {
		t.Errorf("bits per sample = %d, want 32", bitsPerSample)
	}
}

func TestInsertionIndexTrimsPhrasePadding(t *testing.T) {
	idx := insertionIndex(PhrasePaddingSeconds, 0)
	if idx != 0 {
		t.Errorf("insertionIndex at exactly one padding = %d, want 0", idx)
	}
}

func TestResampleLinearIdentityWhenRatesMatch(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := resampleLinear(in, 44100, 44100)
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
}

func TestResampleLinearDownsamplesLength(t *testing.T) {
	in := make([]float32, 44100)
	out := resampleLinear(in, 44100, 22050)
	if out == nil || len(out) != 22050 {
		t.Errorf("len(out) = %d, want 22050", len(out))
	}
}

func constantPCM(v float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}
