package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ProbeResult describes a media file as reported by ffprobe.
type ProbeResult struct {
	// Duration is the container duration.
	Duration time.Duration
	// SampleRate is the first audio stream's sample rate.
	SampleRate int
	// Channels is the first audio stream's channel count.
	Channels int
	// Codec is the first audio stream's codec name.
	Codec string
}

// probePayload mirrors the ffprobe JSON fields the tool reads.
type probePayload struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Probe inspects a media file with ffprobe.
func (t *Toolset) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	out, err := t.runner.Output(ctx, Command{
		Path:    t.FFprobe,
		Args:    []string{"-v", "error", "-print_format", "json", "-show_format", "-show_streams", path},
		Timeout: t.timeout,
	})
	if err != nil {
		return nil, err
	}

	var payload probePayload
	if err = json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("decode probe output: %w", err)
	}

	result := new(ProbeResult)

	if seconds, parseErr := strconv.ParseFloat(payload.Format.Duration, 64); parseErr == nil {
		result.Duration = time.Duration(seconds * float64(time.Second))
	}

	for _, stream := range payload.Streams {
		if stream.CodecType != "audio" {
			continue
		}

		result.Codec = stream.CodecName
		result.Channels = stream.Channels

		if rate, parseErr := strconv.Atoi(stream.SampleRate); parseErr == nil {
			result.SampleRate = rate
		}

		break
	}

	return result, nil
}
