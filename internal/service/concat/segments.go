package concat

import (
	"os"
	"path/filepath"
)

// segmentExtensions are the formats accepted for staged segments, in lookup
// priority order.
var segmentExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".aac"}

// findSegment locates "<id>-<suffix>" for a song, checking the song's own
// subfolder before the sheet folder root.
func findSegment(dir, id, suffix string) (string, bool) {
	filename := id + "-" + suffix

	for _, folder := range []string{filepath.Join(dir, id), dir} {
		for _, ext := range segmentExtensions {
			path := filepath.Join(folder, filename+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}

	return "", false
}
