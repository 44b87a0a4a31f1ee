package aligner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
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

// defaultDirPermissions is used when creating stage folders.
const defaultDirPermissions os.FileMode = 0o755

// errAudioDirRequired is returned when no audio directory is configured.
var errAudioDirRequired = errors.New("audio directory is not configured")

// Service renders every group member at the anchor's key and tempo.
// Sheets and rows the groupbook step produced are trusted but re-checked
// leniently: anything unusable is skipped with a warning, the run goes on.
type Service struct {
	// cfg holds the audio locations, worker count and tool settings.
	cfg *config.Config
	// repo reads the groupbook.
	repo songbook.Repository
	// tools builds and executes the ffmpeg invocations.
	tools *media.Toolset
	// reporter receives a progress event per render task.
	reporter progress.Reporter
	// stageDir is where the per-sheet folders are created.
	stageDir string
}

// Result summarizes an alignment run.
type Result struct {
	// Succeeded is the number of renders that completed.
	Succeeded int
	// Total is the number of renders planned.
	Total int
	// StageDir is where the aligned segments were written.
	StageDir string
}

// task is one render: a source audio file with the shift and rate that bring
// it to the anchor.
type task struct {
	// source is the located audio file.
	source string
	// name is the song name, used in progress and error messages.
	name string
	// shift is the semitone adjustment toward the anchor key.
	shift int
	// rate is the tempo ratio toward the anchor BPM.
	rate float64
}

// sheetPlan collects the work for one groupbook sheet.
type sheetPlan struct {
	// sheet is the groupbook sheet name.
	sheet string
	// dir is the stage folder the sheet renders into.
	dir string
	// anchors are the anchor's source files, staged unmodified.
	anchors []string
	// tasks are the member renders.
	tasks []task
}

// NewService creates the alignment step around the provided toolset.
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

// Run reads the groupbook, plans the renders and executes them with a
// bounded worker pool. Render failures are counted, not fatal.
func (s *Service) Run(ctx context.Context, groupbookPath string) (*Result, error) {
	if s.cfg.AudioDir == "" {
		return nil, errAudioDirRequired
	}

	sheets, err := s.repo.ReadGroupbook(ctx, groupbookPath)
	if err != nil {
		return nil, fmt.Errorf("read groupbook %s: %w", groupbookPath, err)
	}

	plans, total, err := s.plan(ctx, sheets)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(s.stageDir, defaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create stage directory: %w", err)
	}

	succeeded, err := s.execute(ctx, plans, total)

	result := &Result{
		Succeeded: succeeded,
		Total:     total,
		StageDir:  s.stageDir,
	}

	if err != nil {
		return result, err
	}

	return result, nil
}

// plan walks every sheet and collects the renders before any tool runs, so
// progress totals are exact.
func (s *Service) plan(ctx context.Context, sheets []songbook.Sheet) ([]sheetPlan, int, error) {
	var (
		plans = make([]sheetPlan, 0, len(sheets))
		total int
	)

	for i := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		p, ok, err := s.planSheet(ctx, &sheets[i])
		if err != nil {
			return nil, 0, err
		}

		if !ok {
			continue
		}

		plans = append(plans, p)
		total += len(p.tasks)
	}

	return plans, total, nil
}

// planSheet builds the plan for one sheet. The boolean is false when the
// sheet cannot contribute any render.
func (s *Service) planSheet(ctx context.Context, sheet *songbook.Sheet) (sheetPlan, bool, error) {
	if len(sheet.Songs) < 2 {
		return sheetPlan{}, false, nil
	}

	if !sheet.HasColumns(songbook.ColumnID, songbook.ColumnName, songbook.ColumnKey, songbook.ColumnBPM) {
		logger.Warnf(ctx, "Sheet %q lacks the ID, Name, Key or BPM column, skipping", sheet.Name)

		return sheetPlan{}, false, nil
	}

	anchor := &sheet.Songs[0]
	if anchor.BPM <= 0 {
		logger.Warnf(ctx, "Sheet %q: anchor %q has no usable BPM, skipping", sheet.Name, anchor.Name)

		return sheetPlan{}, false, nil
	}

	if anchor.KeyNum == song.UnknownKey {
		logger.Warnf(ctx, "Sheet %q: anchor %q has an unparseable key %q, skipping", sheet.Name, anchor.Name, anchor.Key)

		return sheetPlan{}, false, nil
	}

	anchorFiles, err := findAudioFiles(s.cfg.AudioDir, anchor.ID, anchor.Name)
	if err != nil {
		return sheetPlan{}, false, err
	}

	if len(anchorFiles) == 0 {
		logger.Warnf(ctx, "Sheet %q: no audio found for anchor %s (%s)", sheet.Name, anchor.ID, anchor.Name)
	}

	p := sheetPlan{
		sheet:   sheet.Name,
		dir:     filepath.Join(s.stageDir, common.SafeName(sheet.Name)),
		anchors: anchorFiles,
	}

	for i := range sheet.Songs {
		row := &sheet.Songs[i]

		// The anchor repeats above every match, recognize it by ID or name.
		if row.Name == anchor.Name || (row.ID != "" && row.ID == anchor.ID) {
			continue
		}

		if row.KeyNum == song.UnknownKey {
			logger.Warnf(ctx, "Sheet %q: skipping %q, unparseable key %q", sheet.Name, row.Name, row.Key)
			continue
		}

		rate, rateErr := song.TempoRatio(anchor.BPM, row.BPM)
		if rateErr != nil {
			logger.Warnf(ctx, "Sheet %q: skipping %q, no usable BPM", sheet.Name, row.Name)
			continue
		}

		files, findErr := findAudioFiles(s.cfg.AudioDir, row.ID, row.Name)
		if findErr != nil {
			return sheetPlan{}, false, findErr
		}

		if len(files) == 0 {
			logger.Warnf(ctx, "Sheet %q: no audio found for %s (%s)", sheet.Name, row.ID, row.Name)
			continue
		}

		shift := song.SemitoneShift(row.KeyNum, anchor.KeyNum)

		for _, f := range files {
			p.tasks = append(p.tasks, task{
				source: f,
				name:   row.Name,
				shift:  shift,
				rate:   rate,
			})
		}
	}

	if len(p.tasks) == 0 {
		return sheetPlan{}, false, nil
	}

	return p, true, nil
}

// execute stages the anchors and renders every task through a worker pool.
func (s *Service) execute(ctx context.Context, plans []sheetPlan, total int) (int, error) {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	rubberband := s.hasRubberband(ctx)

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

		if err := os.MkdirAll(p.dir, defaultDirPermissions); err != nil {
			logger.Warnf(ctx, "Sheet %q: create stage folder: %v", p.sheet, err)
			processed.Add(int64(len(p.tasks)))

			continue
		}

		s.stageAnchors(gctx, p)

		for _, t := range p.tasks {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				s.reporter.Report(progress.Event{
					Step:    progress.StepAlign,
					Current: int(processed.Add(1)),
					Total:   total,
					Message: fmt.Sprintf("Aligning %s", t.name),
				})

				if err := s.renderTask(gctx, p.dir, &t, rubberband); err != nil {
					logger.ErrorKV(ctx, "Align failed",
						"song", t.name, "source", t.source, "error", err)

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

// stageAnchors copies the anchor's segments into the sheet folder, once.
// WAV sources are copied verbatim, everything else is converted. Failures
// only warn, the member renders do not depend on the staged anchors.
func (s *Service) stageAnchors(ctx context.Context, p *sheetPlan) {
	for _, src := range p.anchors {
		if ctx.Err() != nil {
			return
		}

		out := filepath.Join(p.dir, common.SafeName(fileStem(src))+".wav")
		if _, err := os.Stat(out); err == nil {
			continue
		}

		var err error
		if strings.EqualFold(filepath.Ext(src), ".wav") {
			err = copyFile(src, out)
		} else {
			err = s.tools.Run(ctx, s.tools.Convert(src, out))
		}

		if err != nil {
			logger.WarnKV(ctx, "Staging anchor failed", "source", src, "error", err)
		}
	}
}

// renderTask runs one alignment into the sheet folder.
func (s *Service) renderTask(ctx context.Context, dir string, t *task, rubberband bool) error {
	out := filepath.Join(dir, common.SafeName(fileStem(t.source))+".wav")

	return s.tools.Run(ctx, s.tools.Align(t.source, out, t.shift, t.rate, s.cfg.SampleRate, rubberband))
}

// hasRubberband probes the toolset once, degrading to the resample fallback
// with a warning when the filter is unavailable.
func (s *Service) hasRubberband(ctx context.Context) bool {
	ok, err := s.tools.HasRubberband(ctx)
	if err != nil {
		logger.Warnf(ctx, "Rubberband probe failed, falling back to resample alignment: %v", err)

		return false
	}

	if !ok {
		logger.Warn(ctx, "FFmpeg lacks the rubberband filter, using the lower quality resample fallback")
	}

	return ok
}

// copyFile copies src to dst, truncating any existing file.
func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}
