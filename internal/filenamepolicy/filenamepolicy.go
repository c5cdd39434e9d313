// Package filenamepolicy derives safe, stable filenames from document
// names and ids, and classifies files by extension.
package filenamepolicy

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafeName replaces every rune outside ASCII letters, digits,
// underscore, and the Cyrillic range U+0410-U+044F with an underscore.
func SafeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z',
			r >= 'a' && r <= 'z',
			r >= '0' && r <= '9',
			r == '_',
			r >= 0x0410 && r <= 0x044F:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Named is the subset of a document's fields the naming policy needs.
type Named struct {
	Name string
	ID   string
}

// DeriveFilename returns SafeName(doc.Name) + "_" + doc.ID + "." + ext
// when doc.Name is non-empty, otherwise idHint + "." + ext.
func DeriveFilename(doc Named, idHint, ext string) string {
	if doc.Name != "" {
		return fmt.Sprintf("%s_%s.%s", SafeName(doc.Name), doc.ID, ext)
	}
	return fmt.Sprintf("%s.%s", idHint, ext)
}

// Kind is the result of classifying a file by extension.
type Kind int

const (
	// Skip means the file is neither JSON nor YAML.
	Skip Kind = iota
	// JSON means the file has a .json extension.
	JSON
	// YAML means the file has a .yml or .yaml extension.
	YAML
)

// Classify inspects path's extension and reports its Kind.
func Classify(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return YAML
	case ".json":
		return JSON
	default:
		return Skip
	}
}

// Ext returns the canonical extension (without the leading dot) used
// when writing a document in the given mode.
func Ext(yaml bool) string {
	if yaml {
		return "yml"
	}
	return "json"
}
