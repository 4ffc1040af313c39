package speaker

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/utavox/cantariserver/pkg/engine/style"
	"github.com/utavox/cantariserver/pkg/engine/voicebank"
)

// encodeSJIS re-encodes a UTF-8 Go string literal as Shift_JIS bytes, the
// encoding every on-disk oto.ini/character.txt actually uses.
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

func newVoicebankFixture(t *testing.T, name string) string {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "character.txt"), []byte("name="+name+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "oto.ini"), encodeSJIS(t, "a.wav=あ,0,0,100,0,0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return base
}

func TestLookupReturnsConfiguredStyle(t *testing.T) {
	base := newVoicebankFixture(t, "Test Voice")

	vbRegistry := voicebank.NewRegistry(0)
	if err := vbRegistry.Reload([]string{base}); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	all := vbRegistry.All()
	if len(all) != 1 {
		t.Fatalf("len(All()) = %d, want 1", len(all))
	}
	ongen := all[0]

	reg := NewRegistry(vbRegistry)
	custom := style.Default()
	custom.Name = "Custom"
	reg.SetStyles(ongen.UUID, style.VoicebankSettings{Styles: []style.Settings{style.Default(), custom}})

	got, sty, err := reg.Lookup(ongen.StyleID(1))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.UUID != ongen.UUID {
		t.Errorf("Lookup returned wrong voicebank")
	}
	if sty.Name != "Custom" {
		t.Errorf("Style.Name = %q, want Custom", sty.Name)
	}
}

func TestLookupUnknownSpeakerFails(t *testing.T) {
	vbRegistry := voicebank.NewRegistry(0)
	reg := NewRegistry(vbRegistry)
	if _, _, err := reg.Lookup(12345); err == nil {
		t.Error("expected error for unknown speaker id")
	}
}

func TestLookupDefaultsToSingleStyle(t *testing.T) {
	base := newVoicebankFixture(t, "Another Voice")
	vbRegistry := voicebank.NewRegistry(0)
	if err := vbRegistry.Reload([]string{base}); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	ongen := vbRegistry.All()[0]

	reg := NewRegistry(vbRegistry)
	_, sty, err := reg.Lookup(ongen.StyleID(0))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if sty.Name != style.Default().Name {
		t.Errorf("Style.Name = %q, want default %q", sty.Name, style.Default().Name)
	}

	if _, _, err := reg.Lookup(ongen.StyleID(1)); err == nil {
		t.Error("expected error for style index beyond the default single style")
	}
}
