// Package midiscale converts between frequencies, MIDI note numbers, and
// note names (e.g. "A4", "C#5", "Bb3").
package midiscale

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinNote and MaxNote bound the range a [Note] may be clamped to when
// resolving a pitch against a key shift (C1 .. B7 in the spec's range).
const (
	MinNote Note = 24  // C1
	MaxNote Note = 107 // B7
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var noteLetterSemitone = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// Note is a MIDI note number (0-127), with A4 = 69 = 440 Hz.
type Note uint8

// FromFrequency rounds f (Hz) to the nearest MIDI note number.
func FromFrequency(f float64) Note {
	n := 69.0 + 12.0*math.Log2(f/440.0)
	return Note(math.Round(n))
}

// Frequency returns the frequency in Hz this note represents.
func (n Note) Frequency() float64 {
	return 440.0 * math.Pow(2.0, (float64(n)-69.0)/12.0)
}

// Clamp restricts n to [lo, hi], inclusive.
func (n Note) Clamp(lo, hi Note) Note {
	switch {
	case n < lo:
		return lo
	case n > hi:
		return hi
	default:
		return n
	}
}

// Name returns the note name in scientific pitch notation, e.g. "A4", "C#5".
func (n Note) Name() string {
	octave := int(n)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[int(n)%12], octave)
}

// String implements fmt.Stringer.
func (n Note) String() string { return n.Name() }

// ParseName parses a note name such as "A4", "A#4", "Bb4", "C5" into a [Note].
// Accidentals use either "#" (sharp) or "b" (flat); at most one may appear.
func ParseName(s string) (Note, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("midiscale: note name %q is too short", s)
	}
	letter := s[0]
	semitone, ok := noteLetterSemitone[letter]
	if !ok {
		return 0, fmt.Errorf("midiscale: unknown note letter %q", s[0:1])
	}

	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		semitone = (semitone + 1) % 12
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		semitone = (semitone + 11) % 12
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("midiscale: invalid octave in %q: %w", s, err)
	}

	num := (octave+1)*12 + semitone
	if num < 0 || num > 127 {
		return 0, fmt.Errorf("midiscale: note %q out of MIDI range", s)
	}
	return Note(num), nil
}
