package lockprobe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestProbeReportsUnlockedForFreshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOCK")
	locked, err := Probe(path)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestProbeLeavesNoLockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOCK")
	_, err := Probe(path)
	require.NoError(t, err)

	// Probe must release its own lock, so a second probe also sees free.
	locked, err := Probe(path)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestProbeDetectsHeldLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOCK")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB))
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	locked, err := Probe(path)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestSortedStoreLockPath(t *testing.T) {
	assert.Equal(t, filepath.Join("packdir", "LOCK"), SortedStoreLockPath("packdir"))
}

func TestLogStoreLockPath(t *testing.T) {
	assert.Equal(t, "actors.db.lock", LogStoreLockPath("actors.db"))
}
