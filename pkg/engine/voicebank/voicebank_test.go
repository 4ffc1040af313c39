package voicebank

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// encodeSJIS re-encodes a UTF-8 Go string literal as Shift_JIS bytes, the
// encoding every on-disk character.txt actually uses.
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

func TestIDMasksStyleByte(t *testing.T) {
	o := &Ongen{UUID: uuid.NewSHA1(uuid.NameSpaceOID, []byte("ongen:Test Voice"))}
	id := o.ID()
	if id&0xff != 0 {
		t.Errorf("ID() = %#x, want low byte clear", id)
	}
}

func TestStyleIDRoundTrip(t *testing.T) {
	o := &Ongen{UUID: uuid.NewSHA1(uuid.NameSpaceOID, []byte("ongen:Another Voice"))}
	for _, style := range []uint8{0, 1, 42, 255} {
		speakerID := o.StyleID(style)
		if got := speakerID &^ 0xff; got != o.ID() {
			t.Errorf("StyleID(%d) base = %#x, want %#x", style, got, o.ID())
		}
		if got := uint8(speakerID & 0xff); got != style {
			t.Errorf("StyleID(%d) low byte = %d, want %d", style, got, style)
		}
	}
}

func TestNameFromInfo(t *testing.T) {
	o := &Ongen{Info: map[string]string{"name": "Rin"}}
	if o.Name() != "Rin" {
		t.Errorf("Name() = %q, want Rin", o.Name())
	}
}

func TestParseCharacterTxt(t *testing.T) {
	raw := "name=Test Voice\r\nimage=icon.png\r\n; comment line is ignored\r\n"
	info, err := parseCharacterTxt([]byte(raw))
	if err != nil {
		t.Fatalf("parseCharacterTxt: %v", err)
	}
	if info["name"] != "Test Voice" {
		t.Errorf("name = %q, want %q", info["name"], "Test Voice")
	}
	if info["image"] != "icon.png" {
		t.Errorf("image = %q, want %q", info["image"], "icon.png")
	}
}

func TestParseCharacterTxtFullWidthColon(t *testing.T) {
	info, err := parseCharacterTxt(encodeSJIS(t, "name：フルネーム\n"))
	if err != nil {
		t.Fatalf("parseCharacterTxt: %v", err)
	}
	if info["name"] != "フルネーム" {
		t.Errorf("name = %q, want フルネーム", info["name"])
	}
}
