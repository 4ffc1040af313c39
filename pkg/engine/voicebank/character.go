package voicebank

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// characterLine matches "key=value" or the full-width "key：value" form
// UTAU character.txt files use interchangeably.
var characterLine = regexp.MustCompile(`(?P<key>[^:：]+)[=：](?P<value>.+)`)

// parseCharacterTxt decodes a SHIFT_JIS character.txt file into its
// key/value pairs. Unrecognized lines (blank lines, comments) are skipped.
func parseCharacterTxt(raw []byte) (map[string]string, error) {
	decoded, err := decodeShiftJIS(raw)
	if err != nil {
		return nil, err
	}

	info := make(map[string]string)
	for _, line := range strings.Split(decoded, "\n") {
		line = strings.TrimRight(line, "\r")
		m := characterLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		info[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
	}
	return info, nil
}

func decodeShiftJIS(raw []byte) (string, error) {
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, japanese.ShiftJIS.NewDecoder())
	if _, err := w.Write(raw); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
