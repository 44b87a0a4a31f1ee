package concat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/domain/song"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/media"
	"github.com/oshokin/mashup-tool/internal/progress"
	"github.com/oshokin/mashup-tool/internal/repository/songbook"
	"github.com/oshokin/mashup-tool/internal/service/common"
)

// defaultDirPermissions is used when creating the output directory.
const defaultDirPermissions os.FileMode = 0o755

// errSegmentNotFound is returned when a pair lacks one of its four segments.
var errSegmentNotFound = errors.New("segment not found")

// Service joins staged segment pairs into finished mashup tracks.
type Service struct {
	// cfg holds the gap, sample rate, worker count and output location.
	cfg *config.Config
	// repo reads the groupbook.
	repo songbook.Repository
	// tools builds and executes the ffmpeg invocations.
	tools *media.Toolset
	// reporter receives a progress event per joined pair.
	reporter progress.Reporter
	// stageDir is where the aligned segments were rendered.
	stageDir string
}

// Result summarizes a concatenation run.
type Result struct {
	// Succeeded is the number of tracks written.
	Succeeded int
	// Total is the number of pairs planned.
	Total int
	// OutputDir is where the tracks were written.
	OutputDir string
}

// sheetPairs collects the products planned from one groupbook sheet.
type sheetPairs struct {
	// sheet is the groupbook sheet name.
	sheet string
	// dir is the stage folder the segments are read from.
	dir string
	// pairs are the planned products in sheet order.
	pairs []song.Pair
}

// NewService creates the concatenation step around the provided toolset.
func NewService(cfg *config.Config, repo songbook.Repository, tools *media.Toolset, reporter progress.Reporter) *Service {
	if reporter == nil {
		reporter = progress.Nop()
	}

	return &Service{
		cfg:      cfg,
		repo:     repo,
		tools:    tools,
		reporter: reporter,
		stageDir: filepath.Join(cfg.OutputDir, config.StageDirName),
	}
}

// Run reads the groupbook, plans every pair and joins them with a bounded
// worker pool. Pair failures are counted, not fatal.
func (s *Service) Run(ctx context.Context, groupbookPath string) (*Result, error) {
	sheets, err := s.repo.ReadGroupbook(ctx, groupbookPath)
	if err != nil {
		return nil, fmt.Errorf("read groupbook %s: %w", groupbookPath, err)
	}

	plans, total, err := s.plan(ctx, sheets)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(s.cfg.OutputDir, defaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	succeeded, err := s.execute(ctx, plans, total)

	result := &Result{
		Succeeded: succeeded,
		Total:     total,
		OutputDir: s.cfg.OutputDir,
	}

	if err != nil {
		return result, err
	}

	return result, nil
}

// plan pairs the ID column of every usable sheet before any tool runs, so
// progress totals count only pairs that will actually be attempted.
func (s *Service) plan(ctx context.Context, sheets []songbook.Sheet) ([]sheetPairs, int, error) {
	var (
		plans = make([]sheetPairs, 0, len(sheets))
		total int
	)

	for i := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		p, ok := s.planSheet(ctx, &sheets[i])
		if !ok {
			continue
		}

		plans = append(plans, p)
		total += len(p.pairs)
	}

	return plans, total, nil
}

// planSheet pairs one sheet's IDs two by two, in row order. The groupbook
// layout repeats the anchor above every match, so consecutive rows are
// exactly the products classification chose.
func (s *Service) planSheet(ctx context.Context, sheet *songbook.Sheet) (sheetPairs, bool) {
	if !sheet.HasColumns(songbook.ColumnID) {
		logger.Warnf(ctx, "Sheet %q lacks the ID column, skipping", sheet.Name)

		return sheetPairs{}, false
	}

	if !sheet.HasColumns(songbook.ColumnProduct) {
		logger.Warnf(ctx, "Sheet %q lacks the Product column, skipping", sheet.Name)

		return sheetPairs{}, false
	}

	ids := make([]string, 0, len(sheet.Songs))

	for i := range sheet.Songs {
		if id := sheet.Songs[i].ID; id != "" {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		logger.Warnf(ctx, "Sheet %q has no usable IDs, skipping", sheet.Name)

		return sheetPairs{}, false
	}

	if len(ids)%2 != 0 {
		logger.Warnf(ctx, "Sheet %q has an odd ID count (%d), the last one is ignored", sheet.Name, len(ids))
	}

	dir := filepath.Join(s.stageDir, common.SafeName(sheet.Name))
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Errorf(ctx, "Stage folder does not exist: %s", dir)

		return sheetPairs{}, false
	}

	p := sheetPairs{
		sheet: sheet.Name,
		dir:   dir,
	}

	for i := 0; i+1 < len(ids); i += 2 {
		pair := song.Pair{
			A: ids[i],
			B: ids[i+1],
		}

		if k := i / 2; k < len(sheet.Products) {
			pair.Product = sheet.Products[k]
		} else {
			pair.Product = pair.A + "_" + pair.B
		}

		p.pairs = append(p.pairs, pair)
	}

	if len(p.pairs) == 0 {
		return sheetPairs{}, false
	}

	return p, true
}

// execute joins every planned pair through a worker pool.
func (s *Service) execute(ctx context.Context, plans []sheetPairs, total int) (int, error) {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		succeeded atomic.Int64
		processed atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range plans {
		p := &plans[i]

		if gctx.Err() != nil {
			break
		}

		for j := range p.pairs {
			pair := &p.pairs[j]

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				s.reporter.Report(progress.Event{
					Step:    progress.StepConcat,
					Current: int(processed.Add(1)),
					Total:   total,
					Message: fmt.Sprintf("Joining %s", pair.Product),
				})

				if err := s.renderPair(gctx, p.dir, pair); err != nil {
					logger.ErrorKV(ctx, "Concat failed",
						"product", pair.Product, "sheet", p.sheet, "error", err)

					return nil
				}

				succeeded.Add(1)

				return nil
			})
		}
	}

	err := g.Wait()

	return int(succeeded.Load()), err
}

// renderPair locates the four segments of a pair and joins them, silence
// first, front choruses before back choruses, alternating the two songs.
func (s *Service) renderPair(ctx context.Context, dir string, pair *song.Pair) error {
	parts, err := s.locateParts(dir, pair)
	if err != nil {
		return err
	}

	out := filepath.Join(s.cfg.OutputDir, common.SafeName(pair.Product)+".mp3")

	return s.tools.Run(ctx, s.tools.ConcatPair(parts, s.cfg.GapSeconds, s.cfg.SampleRate, out))
}

// locateParts resolves the four segment files of a pair. All four are
// required, a missing one fails the pair.
func (s *Service) locateParts(dir string, pair *song.Pair) ([]string, error) {
	segments := []struct {
		id     string
		suffix string
	}{
		{pair.A, s.cfg.Segments.Front},
		{pair.B, s.cfg.Segments.Front},
		{pair.A, s.cfg.Segments.Back},
		{pair.B, s.cfg.Segments.Back},
	}

	parts := make([]string, 0, len(segments))

	for _, seg := range segments {
		path, ok := findSegment(dir, seg.id, seg.suffix)
		if !ok {
			return nil, fmt.Errorf("%w: %s-%s", errSegmentNotFound, seg.id, seg.suffix)
		}

		parts = append(parts, path)
	}

	return parts, nil
}
