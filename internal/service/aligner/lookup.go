package aligner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// audioExtensions are the source formats the lookup accepts.
var audioExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".m4a":  {},
	".flac": {},
	".aac":  {},
	".ogg":  {},
	".wma":  {},
}

// findAudioFiles locates the source files for a song under dir, recursively.
// ID-prefixed stems win: the stem must end right after the ID or continue
// with a separator, so ID 1000 does not claim the files of 10001. When
// nothing matches the ID, a case-insensitive name substring is the fallback.
// Results are ordered by stem so multi-segment songs keep their numbering.
func findAudioFiles(dir, id, name string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		matches, err := collectAudioFiles(dir, func(stem string) bool {
			return stemMatchesID(stem, id)
		})
		if err != nil {
			return nil, err
		}

		if len(matches) > 0 {
			return matches, nil
		}
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}

	return collectAudioFiles(dir, func(stem string) bool {
		return strings.Contains(strings.ToLower(stem), name)
	})
}

// collectAudioFiles walks dir and returns every audio file whose stem
// satisfies the predicate, sorted by stem.
func collectAudioFiles(dir string, match func(stem string) bool) ([]string, error) {
	var matches []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		if match(fileStem(path)) {
			matches = append(matches, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return fileStem(matches[i]) < fileStem(matches[j])
	})

	return matches, nil
}

// stemMatchesID reports whether stem is the ID alone or the ID followed by
// a separator.
func stemMatchesID(stem, id string) bool {
	if !strings.HasPrefix(stem, id) {
		return false
	}

	if len(stem) == len(id) {
		return true
	}

	switch stem[len(id)] {
	case '-', '_', ' ':
		return true
	default:
		return false
	}
}

// fileStem returns the base name of path without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
