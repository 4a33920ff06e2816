package synth

import (
	"fmt"
	"strconv"
	"strings"
)

// Note 0 is C4, so with the default reference index 9 is A4 at 440 Hz.
const baseOctave = 4

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterClasses = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// NoteName returns the scientific pitch name of note index i.
func NoteName(i int) string {
	octave := baseOctave + floorDiv(i, 12)
	return sharpNames[i-floorDiv(i, 12)*12] + strconv.Itoa(octave)
}

// ParseNote accepts a note index ("9") or a pitch name ("A4", "c#4", "Bb4").
// A name without an octave means octave 4.
func ParseNote(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty note")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	u := strings.ToUpper(s)
	class, ok := letterClasses[u[0]]
	if !ok {
		return 0, fmt.Errorf("unknown note name %q", s)
	}
	rest := u[1:]
	if len(rest) > 0 {
		switch rest[0] {
		case '#':
			class++
			rest = rest[1:]
		case 'B':
			class--
			rest = rest[1:]
		}
	}
	octave := baseOctave
	if rest != "" {
		o, err := strconv.Atoi(rest)
		if err != nil {
			return 0, fmt.Errorf("bad octave in note %q: %w", s, err)
		}
		octave = o
	}
	// Accidentals may cross an octave: B#4 is C5 and Cb4 is B3.
	return (octave-baseOctave)*12 + class, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
