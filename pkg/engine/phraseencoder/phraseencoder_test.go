package phraseencoder

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/utavox/cantariserver/pkg/engine/oto"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// encodeSJIS re-encodes a UTF-8 Go string literal as Shift_JIS bytes, the
// encoding oto.ParseIni expects on disk.
func encodeSJIS(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, japanese.ShiftJIS.NewEncoder())
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeTestWav(t *testing.T, dir, name string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 44100, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 44100},
		Data:   []int{0, 100, -100, 200, -200},
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func buildVoicebank(t *testing.T, iniLines []string) *voicebank.Ongen {
	t.Helper()
	dir := t.TempDir()

	names := map[string]bool{}
	for _, line := range iniLines {
		eq := len(line)
		for i, c := range line {
			if c == '=' {
				eq = i
				break
			}
		}
		wavFile := line[:eq]
		names[wavFile] = true
	}
	for name := range names {
		writeTestWav(t, dir, name)
	}

	ini := ""
	for _, l := range iniLines {
		ini += l + "\n"
	}
	index, err := oto.ParseIni(encodeSJIS(t, ini), dir)
	if err != nil {
		t.Fatalf("ParseIni: %v", err)
	}

	return &voicebank.Ongen{
		Oto:       index,
		PrefixMap: map[string]voicebank.PrefixSuffix{},
	}
}

func TestSkippableGlottalStop(t *testing.T) {
	if !Skippable("っ") {
		t.Error("っ should be skippable")
	}
	if Skippable("あ") {
		t.Error("あ should not be skippable")
	}
}

func TestResolveNoOtoReturnsTypedError(t *testing.T) {
	vb := buildVoicebank(t, nil)
	_, err := Resolve(vb, "", "か", 440, 0)
	var noOto *ErrNoOto
	if !errors.As(err, &noOto) {
		t.Fatalf("expected ErrNoOto, got %v", err)
	}
}

func TestResolvePrefersConnectedSpeechForm(t *testing.T) {
	vb := buildVoicebank(t, []string{
		"bare.wav=あ,0,0,100,0,0",
		"initial.wav=- あ,0,0,100,0,0",
		"connected.wav=a あ,0,0,100,0,0",
	})

	result, err := Resolve(vb, "a", "あ", 440, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Alias != "a あ" {
		t.Errorf("Alias = %q, want connected-speech form %q", result.Alias, "a あ")
	}
}

func TestResolveFallsBackToBareThenInitial(t *testing.T) {
	vb := buildVoicebank(t, []string{
		"initial.wav=- あ,0,0,100,0,0",
		"bare.wav=あ,0,0,100,0,0",
	})

	result, err := Resolve(vb, "a", "あ", 440, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Alias != "あ" {
		t.Errorf("Alias = %q, want bare form %q", result.Alias, "あ")
	}
}

func TestResolveVoicingFallback(t *testing.T) {
	vb := buildVoicebank(t, []string{
		"wo.wav=を,0,0,100,0,0",
	})

	result, err := Resolve(vb, "", "お", 440, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Alias != "を" {
		t.Errorf("Alias = %q, want fallback %q", result.Alias, "を")
	}

	if _, err := Resolve(vb, "", "か", 440, 0); err == nil {
		t.Error("expected か with no oto and no fallback to miss")
	}
}
