// Package packager drives a release build of the mashup tool.
//
// It resolves the build runtime, installs the packaging dependency, invokes
// the packager described by the build spec and, on success, writes a release
// description with artifact checksums next to the produced artifact.
package packager
