package song

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// UnknownKey marks a key that could not be parsed.
	UnknownKey = -1

	// SemitonesPerOctave is the size of the pitch-class space.
	SemitonesPerOctave = 12

	// maxShift is the largest semitone shift ever produced, half an octave up.
	maxShift = SemitonesPerOctave / 2
)

// ErrUnknownKey is returned by ParseKey for key text it cannot interpret.
var ErrUnknownKey = errors.New("unrecognized key")

// keyNumbers maps uppercase note spellings, enharmonics included, to semitones.
//
//nolint:gochecknoglobals // Read-only lookup table.
var keyNumbers = map[string]int{
	"C": 0, "B#": 0,
	"C#": 1, "DB": 1,
	"D":  2,
	"D#": 3, "EB": 3,
	"E": 4, "FB": 4,
	"F": 5, "E#": 5,
	"F#": 6, "GB": 6,
	"G":  7,
	"G#": 8, "AB": 8,
	"A":  9,
	"A#": 10, "BB": 10,
	"B": 11, "CB": 11,
}

// keyNames is the canonical sharp spelling per semitone.
//
//nolint:gochecknoglobals // Read-only lookup table.
var keyNames = [SemitonesPerOctave]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// modeSuffixes are the trailing mode markers stripped before lookup,
// longest first so "M11" wins over "M".
//
//nolint:gochecknoglobals // Read-only lookup table.
var modeSuffixes = []string{"MAJOR", "M11", "MAJ", "MIN", "M7", "M9", "M"}

// ParseKey converts a songbook key cell into a semitone in [0, 11].
// It accepts note names with enharmonic spellings (case-insensitive,
// surrounding space ignored), optionally followed by a mode marker
// (m, min, maj, major, m7, m9, m11), and bare numbers, which are
// truncated and wrapped into the octave.
func ParseKey(raw string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return UnknownKey, fmt.Errorf("%w: empty value", ErrUnknownKey)
	}

	for _, suffix := range modeSuffixes {
		if trimmed, ok := strings.CutSuffix(s, suffix); ok {
			s = trimmed
			break
		}
	}

	if n, ok := keyNumbers[s]; ok {
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return UnknownKey, fmt.Errorf("%w: %q", ErrUnknownKey, raw)
	}

	return wrapSemitone(int(f)), nil
}

// KeyName returns the canonical sharp spelling of a semitone.
func KeyName(n int) string {
	return keyNames[wrapSemitone(n)]
}

// CircularDistance returns the distance between two semitones on the
// circle of pitch classes, always in [0, 6].
func CircularDistance(a, b int) int {
	d := wrapSemitone(a - b)
	if d > maxShift {
		d = SemitonesPerOctave - d
	}

	return d
}

// SemitoneShift returns the shift that moves pitch class from to pitch
// class to, choosing the shorter direction. The result is in [-5, 6].
func SemitoneShift(from, to int) int {
	d := wrapSemitone(to - from)
	if d > maxShift {
		d -= SemitonesPerOctave
	}

	return d
}

// wrapSemitone reduces any integer into [0, 11].
func wrapSemitone(n int) int {
	n %= SemitonesPerOctave
	if n < 0 {
		n += SemitonesPerOctave
	}

	return n
}
