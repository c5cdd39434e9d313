// Package lockprobe offers a non-blocking check for whether a pack is
// currently open elsewhere, so the CLI can refuse to compile or
// extract a pack the host application has open rather than racing it.
// It uses the same advisory-locking primitive the application's own
// process would use to claim the file, via golang.org/x/sys/unix.
package lockprobe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Probe reports whether path is currently flock'd by another process.
// It never blocks: if the lock is free, it is acquired and released
// immediately, leaving no lock held. A missing path is created as an
// empty file.
func Probe(path string) (locked bool, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false, fmt.Errorf("lockprobe: opening %s: %w", path, err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return true, nil
		}
		return false, fmt.Errorf("lockprobe: flock %s: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	return false, nil
}

// SortedStoreLockPath returns the path LevelDB itself locks while a
// sorted store directory is open.
func SortedStoreLockPath(dir string) string {
	return filepath.Join(dir, "LOCK")
}

// LogStoreLockPath returns the sentinel lock path this package uses to
// guard a log store's datafile. NeDB itself never locks its datafile,
// so this sentinel exists purely for the CLI's own safety check.
func LogStoreLockPath(datafile string) string {
	return datafile + ".lock"
}
