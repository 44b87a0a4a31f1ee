//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies who started a pipeline run.
type Actor struct {
	// Hostname is the machine the run started on.
	Hostname string `yaml:"hostname"`
	// Username is the account the run started under.
	Username string `yaml:"username"`
	// PID is the process that owns the run.
	PID int `yaml:"pid"`
}

// DetectActor gathers host, user and process information for run markers
// and audit logging.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
		PID:      os.Getpid(),
	}, nil
}
