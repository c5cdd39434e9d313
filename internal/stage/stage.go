// Package stage implements the crash-safe write protocol extract uses
// to populate a destination source-file tree: every output is written
// to a staging directory under the platform temp root first, and only
// once every file has been written successfully is the staged tree
// published into the real destination. A crash or error partway
// through the write phase leaves dest in its pre-operation state; the
// staging directory is always removed on the way out, success or not.
package stage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Dir is an in-progress staging directory for one extract destination.
type Dir struct {
	dest    string
	staging string
}

// New creates a fresh, empty staging directory under the platform temp
// root, suffixed with a per-invocation unique id so concurrent
// invocations (even against different packs) never collide.
func New(dest string) (*Dir, error) {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("stage: resolving %s: %w", dest, err)
	}
	name := fmt.Sprintf("foundryvtt-cli-%d-%s", time.Now().UnixNano(), uuid.NewString())
	staging := filepath.Join(os.TempDir(), name)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("stage: creating staging directory: %w", err)
	}
	return &Dir{dest: abs, staging: staging}, nil
}

// Path returns the staging directory's root.
func (d *Dir) Path() string {
	return d.staging
}

// Join resolves parts against the staging directory, creating the
// parent directories of the resulting path.
func (d *Dir) Join(parts ...string) (string, error) {
	p := filepath.Join(append([]string{d.staging}, parts...)...)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("stage: creating %s: %w", filepath.Dir(p), err)
	}
	return p, nil
}

// Publish copies the fully-written staging tree into dest. When clean
// is true, dest is recursively removed first (retrying up to 10 times
// to tolerate platform-level file-handle release delays); when false,
// files already present in dest that the staged tree does not
// reproduce are left untouched.
func (d *Dir) Publish(clean bool) error {
	if err := os.MkdirAll(d.dest, 0o755); err != nil {
		return fmt.Errorf("stage: creating %s: %w", d.dest, err)
	}

	if clean {
		if err := removeAllWithRetry(d.dest, 10); err != nil {
			return fmt.Errorf("stage: cleaning %s: %w", d.dest, err)
		}
		if err := os.MkdirAll(d.dest, 0o755); err != nil {
			return fmt.Errorf("stage: recreating %s: %w", d.dest, err)
		}
	}

	return copyTree(d.staging, d.dest)
}

// Cleanup removes the staging directory unconditionally. Callers defer
// it immediately after New succeeds so it runs on every exit path.
func (d *Dir) Cleanup() error {
	if err := os.RemoveAll(d.staging); err != nil {
		return fmt.Errorf("stage: discarding staging directory: %w", err)
	}
	return nil
}

func removeAllWithRetry(path string, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = os.RemoveAll(path); err == nil {
			return nil
		}
		time.Sleep(time.Duration(i+1) * 10 * time.Millisecond)
	}
	return err
}

func copyTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("stage: reading %s: %w", src, err)
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := os.MkdirAll(dstPath, 0o755); err != nil {
				return fmt.Errorf("stage: creating %s: %w", dstPath, err)
			}
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("stage: opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("stage: creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("stage: copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
