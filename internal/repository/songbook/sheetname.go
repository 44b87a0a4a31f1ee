package songbook

import (
	"fmt"
	"strings"
)

const (
	// maxSheetNameLength is Excel's hard limit on sheet name length, in characters.
	maxSheetNameLength = 31

	// invalidSheetChars are the characters Excel forbids in sheet names.
	invalidSheetChars = `[]:*?/\`
)

// sheetNamer builds unique, Excel-safe sheet names from anchor song names.
type sheetNamer struct {
	// counts tracks how many sheets already claimed each base name.
	counts map[string]int
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{counts: make(map[string]int)}
}

// name returns a unique sheet name for the anchor song, falling back to
// "GroupN" when the sanitized name comes out empty. Duplicates receive a
// numeric suffix that still fits the length limit.
func (n *sheetNamer) name(anchorName string, ordinal int) string {
	base := strings.TrimSpace(anchorName)
	for _, ch := range invalidSheetChars {
		base = strings.ReplaceAll(base, string(ch), "-")
	}

	base = strings.TrimSpace(base)
	if base == "" {
		base = fmt.Sprintf("Group%d", ordinal)
	}

	base = truncateRunes(base, maxSheetNameLength)

	count := n.counts[base]
	n.counts[base] = count + 1

	if count == 0 {
		return base
	}

	suffix := fmt.Sprintf("_%d", count)

	return truncateRunes(base, maxSheetNameLength-len(suffix)) + suffix
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
