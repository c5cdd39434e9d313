// Package scanner enumerates candidate source files under a root
// directory for the compile step.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/foundryvtt/foundryvtt-cli/internal/filenamepolicy"
)

// Options controls which files Scan collects.
type Options struct {
	// YAML selects .yml/.yaml files; otherwise .json files are collected.
	YAML bool
	// Recursive descends into subdirectories.
	Recursive bool
}

// Scan returns the paths of every file under root matching Options,
// in filesystem readdir order. Compile does not depend on any
// particular ordering among the results.
func Scan(root string, opts Options) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scanner: reading %s: %w", root, err)
	}

	wantKind := filenamepolicy.JSON
	if opts.YAML {
		wantKind = filenamepolicy.YAML
	}

	var out []string
	for _, entry := range entries {
		full := filepath.Join(root, entry.Name())
		if entry.IsDir() {
			if opts.Recursive {
				sub, err := Scan(full, opts)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
			}
			continue
		}
		if filenamepolicy.Classify(full) == wantKind {
			out = append(out, full)
		}
	}
	return out, nil
}
