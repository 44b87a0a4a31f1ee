// Package pipeline chains the classification, alignment and concatenation
// steps into the single run behind mashup-run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/media"
	"github.com/oshokin/mashup-tool/internal/progress"
	"github.com/oshokin/mashup-tool/internal/repository/songbook"
	"github.com/oshokin/mashup-tool/internal/service/aligner"
	"github.com/oshokin/mashup-tool/internal/service/classifier"
	"github.com/oshokin/mashup-tool/internal/service/common"
	"github.com/oshokin/mashup-tool/internal/service/concat"
)

const (
	// runMarkerName guards an output directory against concurrent runs.
	runMarkerName = "mashup-run-marker.yaml"

	defaultDirPermissions os.FileMode = 0o755
)

// Service owns one full pipeline run.
type Service struct {
	cfg      *config.Config
	repo     songbook.Repository
	tools    *media.Toolset
	reporter progress.Reporter
}

// Result aggregates the step outcomes of one pipeline run.
type Result struct {
	// GroupbookPath is the classification workbook written by the first step.
	GroupbookPath string
	// Groups is the number of groups with at least one match.
	Groups int
	// Aligned counts finished alignment renders.
	Aligned int
	// AlignTotal is the number of planned alignment renders.
	AlignTotal int
	// Joined counts finished tracks.
	Joined int
	// JoinTotal is the number of planned pairs.
	JoinTotal int
}

// NewService wires the three step services around a shared configuration,
// songbook repository, toolset and progress reporter.
func NewService(cfg *config.Config, repo songbook.Repository, tools *media.Toolset, reporter progress.Reporter) *Service {
	if reporter == nil {
		reporter = progress.Nop()
	}

	return &Service{cfg: cfg, repo: repo, tools: tools, reporter: reporter}
}

// Run executes the three steps in order against one configuration. A marker
// file in the output directory serializes runs that share it. The align
// stage renders into a hidden working directory under the output directory,
// removed once the final step succeeds.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, defaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	marker, err := common.AcquireMarker(ctx, filepath.Join(s.cfg.OutputDir, runMarkerName))
	if err != nil {
		return nil, err
	}

	defer marker.Release()

	classified, err := classifier.NewService(s.cfg, s.repo, s.reporter).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	aligned, err := aligner.NewService(s.cfg, s.repo, s.tools, s.reporter).Run(ctx, classified.GroupbookPath)
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}

	joined, err := concat.NewService(s.cfg, s.repo, s.tools, s.reporter).Run(ctx, classified.GroupbookPath)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}

	s.removeStage(ctx, aligned.StageDir)

	return &Result{
		GroupbookPath: classified.GroupbookPath,
		Groups:        classified.Groups,
		Aligned:       aligned.Succeeded,
		AlignTotal:    aligned.Total,
		Joined:        joined.Succeeded,
		JoinTotal:     joined.Total,
	}, nil
}

// removeStage drops the intermediate renders. Failure leaves them behind
// for inspection and is only worth a warning.
func (s *Service) removeStage(ctx context.Context, stageDir string) {
	if stageDir == "" {
		return
	}

	if err := os.RemoveAll(stageDir); err != nil {
		logger.WarnKV(ctx, "Could not remove the stage directory", "path", stageDir, "error", err)
	}
}
