//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/media"
)

// ResolveTools locates ffmpeg and ffprobe according to the configuration.
func ResolveTools(cfg *config.Config) (*media.Toolset, error) {
	tools, err := media.Resolve(media.ResolveOptions{
		Dir:     cfg.Tools.Dir,
		FFmpeg:  cfg.Tools.FFmpeg,
		FFprobe: cfg.Tools.FFprobe,
		Timeout: cfg.ToolTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve media tools: %w", err)
	}

	return tools, nil
}
