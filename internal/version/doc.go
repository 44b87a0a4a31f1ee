// Package version exposes the build metadata stamped into the mashup
// binaries.
//
// Version, Commit and BuildTime default to development values and are
// overridden through Go ldflags by the release build. Every binary prints
// them via the version subcommand and the packager publishes Version in
// the release description.
package version
