package media

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// mp3Bitrate is the export bitrate of finished mashups.
	mp3Bitrate = "320k"

	// wavCodec is the intermediate stem codec, 24-bit PCM.
	wavCodec = "pcm_s24le"

	// semitonesPerOctave sizes the equal-temperament pitch steps.
	semitonesPerOctave = 12.0

	// maxAtempoFactor and minAtempoFactor bound a single atempo stage.
	maxAtempoFactor = 2.0
	minAtempoFactor = 0.5
)

// Convert returns the invocation that rewrites in as a 24-bit PCM WAV,
// keeping the source sample rate.
func (t *Toolset) Convert(in, out string) Command {
	return Command{
		Path:    t.FFmpeg,
		Args:    []string{"-hide_banner", "-y", "-i", in, "-c:a", wavCodec, out},
		Timeout: t.timeout,
	}
}

// Align returns the invocation that shifts in by semitones and scales its
// tempo by rate, writing a 24-bit PCM WAV. With rubberband available both
// happen in one pass; otherwise a resample and atempo chain approximates it
// at the given working sample rate.
func (t *Toolset) Align(in, out string, semitones int, rate float64, sampleRate int, rubberband bool) Command {
	var filter string
	if rubberband {
		filter = fmt.Sprintf("rubberband=pitch=%s:tempo=%s",
			formatFactor(pitchFactor(semitones)), formatFactor(rate))
	} else {
		filter = fallbackAlignFilter(semitones, rate, sampleRate)
	}

	return Command{
		Path:    t.FFmpeg,
		Args:    []string{"-hide_banner", "-y", "-i", in, "-filter:a", filter, "-c:a", wavCodec, out},
		Timeout: t.timeout,
	}
}

// ConcatPair returns the invocation that joins the given parts into one MP3,
// with gapSeconds of silence before, between and after them. Every part is
// normalized to a common sample format first so the concat filter accepts
// any mix of sources.
func (t *Toolset) ConcatPair(parts []string, gapSeconds float64, sampleRate int, out string) Command {
	args := []string{"-hide_banner", "-y"}
	for _, part := range parts {
		args = append(args, "-i", part)
	}

	withGaps := gapSeconds > 0
	if withGaps {
		args = append(args,
			"-f", "lavfi",
			"-t", strconv.FormatFloat(gapSeconds, 'f', 3, 64),
			"-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo", sampleRate),
		)
	}

	args = append(args,
		"-filter_complex", concatFilter(len(parts), withGaps, sampleRate),
		"-map", "[mix]",
		"-c:a", "libmp3lame",
		"-b:a", mp3Bitrate,
		out,
	)

	return Command{
		Path:    t.FFmpeg,
		Args:    args,
		Timeout: t.timeout,
	}
}

// pitchFactor converts a semitone shift into a frequency ratio.
func pitchFactor(semitones int) float64 {
	return math.Pow(2, float64(semitones)/semitonesPerOctave)
}

// fallbackAlignFilter pitches via resampling and corrects the tempo with an
// atempo chain. The stream is pinned to the working rate first so the
// asetrate factor is exact for any source rate.
func fallbackAlignFilter(semitones int, rate float64, sampleRate int) string {
	pitch := pitchFactor(semitones)
	shifted := int(math.Round(float64(sampleRate) * pitch))

	parts := []string{
		fmt.Sprintf("aresample=%d", sampleRate),
		fmt.Sprintf("asetrate=%d", shifted),
		fmt.Sprintf("aresample=%d", sampleRate),
	}

	for _, factor := range atempoFactors(rate / pitch) {
		parts = append(parts, "atempo="+formatFactor(factor))
	}

	return strings.Join(parts, ",")
}

// atempoFactors decomposes a tempo ratio into factors atempo accepts.
// The product of the returned factors equals the ratio.
func atempoFactors(rate float64) []float64 {
	var factors []float64

	for rate > maxAtempoFactor {
		factors = append(factors, maxAtempoFactor)
		rate /= maxAtempoFactor
	}

	for rate < minAtempoFactor {
		factors = append(factors, minAtempoFactor)
		rate /= minAtempoFactor
	}

	return append(factors, rate)
}

// concatFilter builds the graph joining n parts, optionally with silence
// slots around them. The silence source is the last input.
func concatFilter(n int, withGaps bool, sampleRate int) string {
	format := fmt.Sprintf("aformat=sample_fmts=fltp:sample_rates=%d:channel_layouts=stereo", sampleRate)

	var b strings.Builder

	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[%d:a]%s[p%d];", i, format, i)
	}

	if !withGaps {
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "[p%d]", i)
		}

		fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[mix]", n)

		return b.String()
	}

	slots := n + 1

	fmt.Fprintf(&b, "[%d:a]%s,asplit=%d", n, format, slots)
	for i := 0; i < slots; i++ {
		fmt.Fprintf(&b, "[s%d]", i)
	}

	b.WriteString(";")

	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[s%d][p%d]", i, i)
	}

	fmt.Fprintf(&b, "[s%d]concat=n=%d:v=0:a=1[mix]", n, 2*n+1)

	return b.String()
}

// formatFactor renders a ratio with enough precision for the filter graph.
func formatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
