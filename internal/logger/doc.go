// Package logger provides the zap-based logging layer shared by the
// mashup binaries.
//
// A global sugared logger writes console lines to stderr, leaving stdout
// to the packaging banner and the interactive view.
// Commands scope the logger through the context (WithName, WithKV) and
// services log with the convenience functions (Infof, ErrorKV, etc.).
// Every binary exposes the level through the --log-level flag; the
// interactive pipeline view derives a quieter logger with WithLevel while
// it owns the terminal.
package logger
