// Package song holds the domain types and key arithmetic shared by the
// mashup pipeline steps.
package song

import (
	"errors"
	"strings"
)

// errNonPositiveTempo is returned when a tempo ratio is requested for a song without a usable BPM.
var errNonPositiveTempo = errors.New("BPM must be positive")

// Song is one row of the songbook.
type Song struct {
	// ID is the catalog identifier used to locate audio files.
	ID string
	// Name is the song title.
	Name string
	// Artist is the performer name.
	Artist string
	// Gender is the vocal gender label as written in the songbook.
	Gender string
	// ChordAI is the chord recognition note carried through to the groupbook.
	ChordAI string
	// ChorusStart is the chorus start timestamp text.
	ChorusStart string
	// ChorusEnd is the chorus end timestamp text.
	ChorusEnd string
	// SegmentCut is the segment cut timestamp text.
	SegmentCut string
	// Key is the key text exactly as written in the songbook.
	Key string
	// KeyNum is the parsed semitone in [0, 11], or UnknownKey when unparseable.
	KeyNum int
	// BPM is the parsed tempo, zero when unparseable.
	BPM float64
}

// Usable reports whether the song carries the parsed key and tempo
// the matching and alignment steps need.
func (s *Song) Usable() bool {
	return s.KeyNum != UnknownKey && s.BPM > 0
}

// Group is one classification result: an anchor song and the songs it can be mashed with.
type Group struct {
	// Anchor is the song the group was built around.
	Anchor Song
	// Matches are the songs compatible with the anchor, in songbook order.
	Matches []Song
}

// Size returns the number of songs in the group, anchor included.
func (g *Group) Size() int {
	return len(g.Matches) + 1
}

// Pair is one mashup product: two songs joined into a single track.
type Pair struct {
	// A is the ID of the first song.
	A string
	// B is the ID of the second song.
	B string
	// Product is the output track name.
	Product string
}

// NormalizeGender canonicalizes a gender label for comparison.
func NormalizeGender(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameGender reports whether two gender labels are equal after normalization.
// Two empty labels are considered equal.
func SameGender(a, b string) bool {
	return NormalizeGender(a) == NormalizeGender(b)
}

// TempoRatio returns the playback rate that brings a song at songBPM
// to the anchor's tempo.
func TempoRatio(anchorBPM, songBPM float64) (float64, error) {
	if songBPM <= 0 || anchorBPM <= 0 {
		return 0, errNonPositiveTempo
	}

	return anchorBPM / songBPM, nil
}
