package oto

import (
	"bytes"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// encodeSJIS re-encodes a UTF-8 Go string literal as Shift_JIS bytes, the
// encoding ParseIni expects on disk.
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

func TestParseLine(t *testing.T) {
	line := "_ああR.wav=- あ2_B3,149.905,171.608,-866.658,46.608,0.0"
	entry, err := ParseLine(line, "/voicebank")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}

	if entry.Offset != 149.905 {
		t.Errorf("Offset = %v, want 149.905", entry.Offset)
	}
	if entry.Consonant != 171.608 {
		t.Errorf("Consonant = %v, want 171.608", entry.Consonant)
	}
	if entry.CutOff != -866.658 {
		t.Errorf("CutOff = %v, want -866.658", entry.CutOff)
	}
	if entry.Preutter != 46.608 {
		t.Errorf("Preutter = %v, want 46.608", entry.Preutter)
	}
	if entry.Overlap != 0.0 {
		t.Errorf("Overlap = %v, want 0.0", entry.Overlap)
	}

	wantAliases := map[string]bool{"_ああR": true, "- あ2_B3": true}
	if len(entry.Aliases) != len(wantAliases) {
		t.Fatalf("Aliases = %v, want %v", entry.Aliases, wantAliases)
	}
	for _, a := range entry.Aliases {
		if !wantAliases[a] {
			t.Errorf("unexpected alias %q", a)
		}
	}
}

func TestParseLineEmptyAliasFallsBackToStem(t *testing.T) {
	entry, err := ParseLine("foo.wav=,0,0,0,0,0", "/vb")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if len(entry.Aliases) != 1 || entry.Aliases[0] != "foo" {
		t.Errorf("Aliases = %v, want [foo]", entry.Aliases)
	}
}

func TestParseLineRejectsMalformed(t *testing.T) {
	cases := []string{
		"no_equals_sign",
		"foo.wav=a,1,2,3",
		"foo.wav=a,x,2,3,4,5",
	}
	for _, c := range cases {
		if _, err := ParseLine(c, "/vb"); err == nil {
			t.Errorf("ParseLine(%q): expected error, got nil", c)
		}
	}
}

func TestParseIniRegistersBothStemAndAlias(t *testing.T) {
	ini := "_ああR.wav=- あ2_B3,149.905,171.608,-866.658,46.608,0.0\n"
	index, err := ParseIni(encodeSJIS(t, ini), "/voicebank")
	if err != nil {
		t.Fatalf("ParseIni: %v", err)
	}
	if _, ok := index["_ああR"]; !ok {
		t.Error("expected lookup by wav stem to succeed")
	}
	if _, ok := index["- あ2_B3"]; !ok {
		t.Error("expected lookup by alias to succeed")
	}
}

func TestParseIniSkipsBlankLines(t *testing.T) {
	ini := "\nfoo.wav=a,1,2,3,4,5\n\n\nbar.wav=b,1,2,3,4,5\n"
	index, err := ParseIni([]byte(ini), "/vb")
	if err != nil {
		t.Fatalf("ParseIni: %v", err)
	}
	if len(index) != 4 { // each entry under stem + alias
		t.Errorf("len(index) = %d, want 4", len(index))
	}
}
