//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"github.com/flytam/filenamify"
)

// SafeName rewrites a sheet or product name so it can serve as a file or
// folder name on any platform, replacing reserved characters with
// underscores. The aligner and the concat step must agree on this mapping,
// concat locates segments inside the folders the aligner created.
func SafeName(name string) string {
	safe, err := filenamify.Filenamify(name, filenamify.Options{Replacement: "_"})
	if err != nil {
		return name
	}

	return safe
}
