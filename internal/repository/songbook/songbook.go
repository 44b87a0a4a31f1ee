// Package songbook reads and writes the Excel workbooks the pipeline
// exchanges: the source songbook and the multi-sheet groupbook produced
// by classification.
package songbook

import (
	"context"
	"errors"

	"github.com/oshokin/mashup-tool/internal/domain/song"
)

// Repository defines the workbook operations the pipeline steps depend on.
type Repository interface {
	// ReadSongbook loads the songs from the first sheet of the workbook.
	ReadSongbook(ctx context.Context, path string) ([]song.Song, error)
	// WriteGroupbook renders one styled sheet per group with at least two songs.
	WriteGroupbook(ctx context.Context, path string, groups []song.Group) error
	// ReadGroupbook loads every sheet of a groupbook in workbook order.
	ReadGroupbook(ctx context.Context, path string) ([]Sheet, error)
}

var (
	// ErrNoSongs is returned when the songbook contains no data rows.
	ErrNoSongs = errors.New("songbook contains no songs")
	// ErrNoGroups is returned when no group has at least two songs to render.
	ErrNoGroups = errors.New("no group has at least two songs")
	// errMissingColumns is returned when the songbook lacks a required column.
	errMissingColumns = errors.New("songbook must contain the Name, Key and BPM columns or their aliases")
)

// Sheet is one groupbook sheet: the anchor song is the first row and every
// match repeats the anchor above it, the same layout the writer produces.
type Sheet struct {
	// Name is the sheet name, derived from the anchor song.
	Name string
	// Songs are the data rows in sheet order.
	Songs []song.Song
	// Products are the non-empty product names in sheet order, one per pair block.
	Products []string
	// Columns marks which canonical columns the sheet header carried.
	Columns map[Column]bool
}

// HasColumns reports whether every listed column is present on the sheet.
func (s *Sheet) HasColumns(cols ...Column) bool {
	for _, c := range cols {
		if !s.Columns[c] {
			return false
		}
	}

	return true
}
