// Package media resolves the external audio toolchain (ffmpeg, ffprobe)
// and plans its invocations. All signal processing happens inside the
// external binaries; this package only builds argument lists, executes
// them with bounded lifetimes and interprets their output.
package media
