package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/domain/song"
	"github.com/oshokin/mashup-tool/internal/progress"
	"github.com/oshokin/mashup-tool/internal/repository/songbook"
)

// groupbookSuffix is appended to the songbook stem to name the output workbook.
const groupbookSuffix = "-groups.xlsx"

// defaultDirPermissions is used when creating the output directory.
const defaultDirPermissions os.FileMode = 0o755

var (
	errUnparseableKey = errors.New("unparseable key")
	errInvalidBPM     = errors.New("invalid BPM")
)

// Service groups compatible songs around anchors and renders the groupbook.
// Classification is the step the later pipeline stages consume, so its input
// validation is strict: a songbook row it cannot use is an error, not a skip.
type Service struct {
	// cfg holds the matching thresholds and the songbook and output locations.
	cfg *config.Config
	// repo reads the songbook and writes the groupbook.
	repo songbook.Repository
	// reporter receives a progress event per processed anchor.
	reporter progress.Reporter
}

// Result summarizes a classification run.
type Result struct {
	// Songs is the number of songbook rows considered.
	Songs int
	// Groups is the number of groups with at least two songs.
	Groups int
	// GroupbookPath is the workbook the groups were written to.
	GroupbookPath string
}

// NewService creates the classification step backed by the provided repository.
func NewService(cfg *config.Config, repo songbook.Repository, reporter progress.Reporter) *Service {
	if reporter == nil {
		reporter = progress.Nop()
	}

	return &Service{
		cfg:      cfg,
		repo:     repo,
		reporter: reporter,
	}
}

// GroupbookPath returns where the groupbook for a songbook lands under the
// output directory: the songbook stem with the "-groups" suffix.
func GroupbookPath(songbookPath, outputDir string) string {
	base := filepath.Base(songbookPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(outputDir, stem+groupbookSuffix)
}

// Run reads the songbook, groups the songs and writes the groupbook.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	songs, err := s.repo.ReadSongbook(ctx, s.cfg.Songbook)
	if err != nil {
		return nil, fmt.Errorf("read songbook %s: %w", s.cfg.Songbook, err)
	}

	if err = validateSongs(songs); err != nil {
		return nil, err
	}

	groups, err := s.group(ctx, songs)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(s.cfg.OutputDir, defaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	path := GroupbookPath(s.cfg.Songbook, s.cfg.OutputDir)
	if err = s.repo.WriteGroupbook(ctx, path, groups); err != nil {
		return nil, fmt.Errorf("write groupbook %s: %w", path, err)
	}

	return &Result{
		Songs:         len(songs),
		Groups:        countRenderable(groups),
		GroupbookPath: path,
	}, nil
}

// validateSongs rejects any row the matching step cannot use.
// Row numbers are reported as they appear in the workbook, header included.
func validateSongs(songs []song.Song) error {
	for i := range songs {
		row := &songs[i]

		if row.KeyNum == song.UnknownKey {
			return fmt.Errorf("row %d (ID %s): key %q: %w", i+2, row.ID, row.Key, errUnparseableKey)
		}

		if row.BPM <= 0 {
			return fmt.Errorf("row %d (ID %s): %w", i+2, row.ID, errInvalidBPM)
		}
	}

	return nil
}

// group builds one group per song, in songbook order.
// Every earlier row has already anchored its own group, so only later rows
// are candidates; a song may therefore appear as a match in many groups.
func (s *Service) group(ctx context.Context, songs []song.Song) ([]song.Group, error) {
	groups := make([]song.Group, 0, len(songs))

	for anchorIdx := range songs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		anchor := songs[anchorIdx]

		s.reporter.Report(progress.Event{
			Step:    progress.StepClassify,
			Current: anchorIdx + 1,
			Total:   len(songs),
			Message: fmt.Sprintf("Matching songs for %s", anchor.Name),
		})

		g := song.Group{Anchor: anchor}

		for j := anchorIdx + 1; j < len(songs); j++ {
			candidate := songs[j]

			if !song.SameGender(anchor.Gender, candidate.Gender) {
				continue
			}

			if song.CircularDistance(anchor.KeyNum, candidate.KeyNum) > s.cfg.KeyRange {
				continue
			}

			if math.Abs(candidate.BPM-anchor.BPM) > s.cfg.BPMRange {
				continue
			}

			g.Matches = append(g.Matches, candidate)
		}

		groups = append(groups, g)
	}

	return groups, nil
}

// countRenderable counts the groups large enough to appear in the groupbook.
func countRenderable(groups []song.Group) int {
	count := 0

	for i := range groups {
		if groups[i].Size() >= 2 {
			count++
		}
	}

	return count
}
