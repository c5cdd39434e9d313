// Package codec reads and writes document payloads as JSON or YAML,
// the two source-file representations the engine round-trips against
// pack entries.
package codec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
	"github.com/foundryvtt/foundryvtt-cli/internal/filenamepolicy"
)

// WriteOptions configures Write.
type WriteOptions struct {
	// YAML selects the YAML representation; otherwise JSON is used.
	YAML bool
	// JSONIndent is the number of spaces per JSON nesting level. Zero
	// means the default of 2.
	JSONIndent int
	// YAMLIndent is the number of spaces per YAML nesting level. Zero
	// means yaml.v3's own default.
	YAMLIndent int
}

// Read loads path, classifying it by extension, and returns the parsed
// document. An unrecognized extension is an error — callers are
// expected to have already filtered candidates via the scanner or the
// filenamepolicy classifier.
func Read(path string) (docvalue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codec: reading %s: %w", path, err)
	}
	switch filenamepolicy.Classify(path) {
	case filenamepolicy.YAML:
		v, err := docvalue.DecodeYAML(data)
		if err != nil {
			return nil, fmt.Errorf("codec: parsing %s as yaml: %w", path, err)
		}
		return v, nil
	case filenamepolicy.JSON:
		v, err := docvalue.DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("codec: parsing %s as json: %w", path, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("codec: %s is neither json nor yaml", path)
	}
}

// Write serializes v to path according to opts, creating parent
// directories as needed. JSON output always ends with a single
// trailing newline; YAML output already ends with one courtesy of the
// yaml.v3 encoder.
func Write(path string, v docvalue.Value, opts WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("codec: creating parent directory for %s: %w", path, err)
	}

	var data []byte
	var err error
	if opts.YAML {
		data, err = docvalue.EncodeYAML(v, opts.YAMLIndent)
		if err != nil {
			return fmt.Errorf("codec: encoding %s as yaml: %w", path, err)
		}
	} else {
		indent := opts.JSONIndent
		if indent <= 0 {
			indent = 2
		}
		data, err = docvalue.EncodeJSON(v, indent)
		if err != nil {
			return fmt.Errorf("codec: encoding %s as json: %w", path, err)
		}
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("codec: writing %s: %w", path, err)
	}
	return nil
}
