package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func markerPath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "run-marker.bin")
}

func backdate(t *testing.T, path string, age time.Duration) {
	t.Helper()

	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestAcquireMarker_CreatesAndReleases(t *testing.T) {
	t.Parallel()

	path := markerPath(t)

	m, err := AcquireMarker(context.Background(), path)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	var owner Actor
	require.NoError(t, yaml.Unmarshal(contents, &owner))
	require.Equal(t, os.Getpid(), owner.PID)

	m.Release()
	require.NoFileExists(t, path)
}

func TestAcquireMarker_FreshMarkerHeld(t *testing.T) {
	t.Parallel()

	path := markerPath(t)

	m, err := AcquireMarker(context.Background(), path)
	require.NoError(t, err)

	defer m.Release()

	_, err = AcquireMarker(context.Background(), path)
	require.ErrorIs(t, err, ErrMarkerHeld)
}

func TestAcquireMarker_StaleDeadOwnerRecovered(t *testing.T) {
	t.Parallel()

	path := markerPath(t)

	// A marker whose owner process cannot exist anymore.
	owner := Actor{Hostname: localHostname(t), Username: "someone", PID: 1 << 30}
	contents, err := yaml.Marshal(owner)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, contents, 0o644))
	backdate(t, path, time.Minute)

	m, err := AcquireMarker(context.Background(), path)
	require.NoError(t, err)

	m.Release()
}

func TestAcquireMarker_StaleLiveOwnerHeld(t *testing.T) {
	t.Parallel()

	path := markerPath(t)

	// Our own process stands in for a hung but still-running owner.
	owner := Actor{Hostname: localHostname(t), Username: "someone", PID: os.Getpid()}
	contents, err := yaml.Marshal(owner)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, contents, 0o644))
	backdate(t, path, time.Minute)

	_, err = AcquireMarker(context.Background(), path)
	require.ErrorIs(t, err, ErrMarkerHeld)
}

func TestAcquireMarker_StaleForeignHostHeld(t *testing.T) {
	t.Parallel()

	path := markerPath(t)

	owner := Actor{Hostname: "some-other-machine", Username: "someone", PID: 1 << 30}
	contents, err := yaml.Marshal(owner)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, contents, 0o644))
	backdate(t, path, time.Minute)

	_, err = AcquireMarker(context.Background(), path)
	require.ErrorIs(t, err, ErrMarkerHeld)
}

func TestAcquireMarker_UnreadableStaleMarkerRecovered(t *testing.T) {
	t.Parallel()

	path := markerPath(t)

	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))
	backdate(t, path, time.Minute)

	m, err := AcquireMarker(context.Background(), path)
	require.NoError(t, err)

	m.Release()
}

func localHostname(t *testing.T) string {
	t.Helper()

	hostname, err := os.Hostname()
	require.NoError(t, err)

	return hostname
}
