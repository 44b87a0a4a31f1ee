// Package config defines the pipeline settings shared by the mashup
// binaries and provides helpers to load, validate and save them in YAML
// format.
//
// The Config type holds the songbook and directory paths, the grouping
// thresholds, the rendering parameters and the external tool locations
// every command reads.
package config
