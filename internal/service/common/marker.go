package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-ps"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/mashup-tool/internal/logger"
)

// ErrMarkerHeld reports that another live run owns the marker file.
var ErrMarkerHeld = errors.New("another run is already in progress")

const (
	// markerLifetime is how long a marker stays authoritative without a
	// heartbeat touch. Markers older than this are candidates for recovery.
	markerLifetime = 30 * time.Second

	// markerHeartbeat is the interval at which the owner refreshes the
	// marker's modification time.
	markerHeartbeat = 10 * time.Second

	// markerFileMode keeps the marker readable for stale-owner inspection.
	markerFileMode os.FileMode = 0o644
)

// RunMarker serializes runs that share a working directory. The holder's
// identity is written into the file so a crashed run can be recognized and
// its marker reclaimed.
type RunMarker struct {
	path string
	stop chan struct{}
	done chan struct{}
}

// AcquireMarker claims path for this process. A marker touched within the
// last 30 seconds belongs to a live run and aborts the acquisition with
// ErrMarkerHeld. An older marker is recovered when its recorded owner
// process is gone.
func AcquireMarker(ctx context.Context, path string) (*RunMarker, error) {
	if err := checkExistingMarker(ctx, path); err != nil {
		return nil, err
	}

	actor, err := DetectActor()
	if err != nil {
		return nil, fmt.Errorf("detect marker owner: %w", err)
	}

	contents, err := yaml.Marshal(actor)
	if err != nil {
		return nil, fmt.Errorf("encode marker owner: %w", err)
	}

	if err = os.WriteFile(path, contents, markerFileMode); err != nil {
		return nil, fmt.Errorf("write run marker: %w", err)
	}

	m := &RunMarker{
		path: path,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go m.heartbeat()

	return m, nil
}

// Release stops the heartbeat and removes the marker file.
func (m *RunMarker) Release() {
	close(m.stop)
	<-m.done

	_ = os.Remove(m.path)
}

// heartbeat refreshes the marker's modification time until Release.
func (m *RunMarker) heartbeat() {
	defer close(m.done)

	ticker := time.NewTicker(markerHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := time.Now()
			_ = os.Chtimes(m.path, now, now)
		}
	}
}

// checkExistingMarker inspects a marker left by a previous run. Fresh
// markers always win. Stale ones are removed when the owner process no
// longer exists; a live or unverifiable owner keeps the marker in force.
func checkExistingMarker(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		logger.Warnf(ctx, "Unable to read run marker %s: %v", path, err)
		return nil
	}

	if time.Since(info.ModTime()) <= markerLifetime {
		return fmt.Errorf("%s: %w", path, ErrMarkerHeld)
	}

	logger.InfoKV(ctx, "Found a stale run marker, checking its owner", "path", path)

	if ownerAlive(path) {
		return fmt.Errorf("%s: owner still running: %w", path, ErrMarkerHeld)
	}

	if err = os.Remove(path); err != nil {
		return fmt.Errorf("remove stale run marker: %w", err)
	}

	logger.InfoKV(ctx, "Recovered a stale run marker", "path", path)

	return nil
}

// ownerAlive reports whether the marker's recorded owner process still
// exists on this host. Unreadable owner records count as alive on another
// host only; locally they are reclaimed.
func ownerAlive(path string) bool {
	contents, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var owner Actor
	if err = yaml.Unmarshal(contents, &owner); err != nil || owner.PID <= 0 {
		return false
	}

	hostname, err := os.Hostname()
	if err == nil && owner.Hostname != "" && owner.Hostname != hostname {
		// A marker from another machine cannot be verified, leave it alone.
		return true
	}

	process, err := ps.FindProcess(owner.PID)
	if err != nil {
		return true
	}

	return process != nil
}
