// Package common holds helpers shared by several services.
//
// It provides filesystem-safe name rewriting for sheet folders and product
// files, resolution of the external media tools from the configured tools
// directory, the run marker that keeps concurrent pipeline runs off the same
// output directory, and detection of the current system actor
// (hostname/username) recorded in those markers.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
