// Package oto parses UTAU oto.ini voicebank entries and lazily decodes the
// wav/frq pair each entry points at.
package oto

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Entry is a single parsed oto.ini line: the UTAU timing parameters for one
// alias of one source wav file, in milliseconds.
type Entry struct {
	WavPath   string
	Aliases   []string
	Offset    float64
	Consonant float64
	CutOff    float64
	Preutter  float64
	Overlap   float64

	mu     sync.Mutex
	data   *Data
	dataOK bool
	dataErr error
}

// ParseLine parses one oto.ini line of the form:
//
//	<wavfile>=<alias>,<offset>,<consonant>,<cut_off>,<preutter>,<overlap>
//
// root is joined with wavfile to produce the absolute WavPath. An empty
// alias falls back to the wav file's stem, matching UTAU convention.
func ParseLine(line, root string) (*Entry, error) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return nil, fmt.Errorf("oto: missing '=' in line %q", line)
	}
	wavFile := line[:eq]
	fields := strings.Split(line[eq+1:], ",")
	if len(fields) != 6 {
		return nil, fmt.Errorf("oto: expected alias + 5 numeric fields, got %d fields in %q", len(fields), line)
	}

	alias := fields[0]
	if alias == "" {
		alias = strings.TrimSuffix(wavFile, filepath.Ext(wavFile))
	}

	nums := make([]float64, 5)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("oto: invalid numeric field %q in %q: %w", f, line, err)
		}
		nums[i] = v
	}

	stem := strings.TrimSuffix(wavFile, filepath.Ext(wavFile))
	aliases := []string{stem}
	if alias != stem {
		aliases = append(aliases, alias)
	}

	return &Entry{
		WavPath:   filepath.Join(root, wavFile),
		Aliases:   aliases,
		Offset:    nums[0],
		Consonant: nums[1],
		CutOff:    nums[2],
		Preutter:  nums[3],
		Overlap:   nums[4],
	}, nil
}

// ParseIni parses a full oto.ini file (SHIFT_JIS encoded, per UTAU
// convention) and returns every entry keyed under both its wav-file stem
// and its explicit alias, mirroring the lookup behavior voicebanks expect
// when a caller asks for a phoneme either way.
func ParseIni(raw []byte, root string) (map[string]*Entry, error) {
	decoded, err := decodeShiftJIS(raw)
	if err != nil {
		return nil, fmt.Errorf("oto: decoding oto.ini: %w", err)
	}

	index := make(map[string]*Entry)
	sc := bufio.NewScanner(strings.NewReader(decoded))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		entry, err := ParseLine(line, root)
		if err != nil {
			return nil, fmt.Errorf("oto: line %d: %w", lineNo, err)
		}
		for _, name := range entry.Aliases {
			index[name] = entry
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("oto: scanning oto.ini: %w", err)
	}
	return index, nil
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

// Data reads the wav samples and, when present, the sibling frq table for
// this entry and caches the result. The read happens at most once; a
// failure is cached too, so repeated lookups of a broken entry don't retry
// the disk each time.
func (e *Entry) Data() (*Data, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dataOK {
		return e.data, e.dataErr
	}
	e.data, e.dataErr = readData(e.WavPath)
	e.dataOK = true
	return e.data, e.dataErr
}
