// Package pack is the public library surface: CompilePack, ExtractPack,
// and RepairPack, the pair (plus one) of operations every other
// internal package exists to support.
package pack

import "github.com/foundryvtt/foundryvtt-cli/internal/docvalue"

// TransformEntryFunc is called once per primary document before it is
// written. Returning keep=false drops the document entirely.
type TransformEntryFunc func(doc docvalue.Document) (transformed docvalue.Document, keep bool, err error)

// TransformNameFunc overrides the default filename policy for one
// extracted primary document. It receives the document's resolved
// collection and the id that would otherwise be used as the filename
// hint, and returns the bare filename (including extension) to use.
type TransformNameFunc func(doc docvalue.Document, collection, idHint string) (string, error)

// TransformFolderNameFunc overrides the default directory-name policy
// for one Folder document during a folders-mode extract.
type TransformFolderNameFunc func(folder docvalue.Document) (string, error)

// JSONOptions configures JSON source-file output.
type JSONOptions struct {
	// Indent is the number of spaces per nesting level. Zero means 2.
	Indent int
}

// YAMLOptions configures YAML source-file output.
type YAMLOptions struct {
	// Indent is the number of spaces per nesting level. Zero means the
	// yaml.v3 encoder's own default.
	Indent int
}

// CompileOptions configures CompilePack.
type CompileOptions struct {
	// NEDB selects the log-store backend; dest must then have a .db
	// extension or CompilePack fails with ErrBadTarget. When false the
	// sorted-store backend is used.
	NEDB bool
	// YAML selects .yml/.yaml source files; otherwise .json.
	YAML bool
	// Recursive descends into subdirectories of src while scanning.
	Recursive bool
	// Log switches logging from a no-op logger to a zap development
	// logger. Only source-file parse failures and duplicate-key aborts
	// are logged; there are no per-document progress messages.
	Log bool
	// TransformEntry, if set, is applied to every primary document
	// read from src before it is written to dest.
	TransformEntry TransformEntryFunc
}

// ExtractOptions configures ExtractPack.
type ExtractOptions struct {
	// NEDB selects the log-store backend; src must then have a .db
	// extension or ExtractPack fails with ErrBadTarget. When false the
	// sorted-store backend is used.
	NEDB bool
	// YAML writes .yml source files; otherwise .json.
	YAML bool
	YAMLOptions YAMLOptions
	JSONOptions JSONOptions
	// Log switches logging from a no-op logger to a zap development
	// logger. The extract paths emit no log messages of their own.
	Log bool
	// DocumentType, if Collection is empty, resolves the collection a
	// log-store pack's documents belong to.
	DocumentType string
	// Collection, when set, names the pack's collection directly. Log-
	// store extraction fails with ErrMissingType unless one of
	// Collection or DocumentType resolves to a known collection.
	Collection string
	// Clean removes every pre-existing file in dest not produced by
	// this extraction.
	Clean bool
	// Folders lays out extracted files under a directory tree mirroring
	// the pack's Folder documents.
	Folders bool
	// ExpandAdventures splits each Adventure document into a directory
	// (or sibling files) of its embedded subdocuments.
	ExpandAdventures bool
	// OmitVolatile keeps a prior source file unchanged when the only
	// difference from the freshly extracted entry is in volatile
	// _stats fields.
	OmitVolatile bool

	TransformEntry      TransformEntryFunc
	TransformName       TransformNameFunc
	TransformFolderName TransformFolderNameFunc
}

// RepairOptions configures RepairPack.
type RepairOptions struct {
	// Log selects the log-store backend; otherwise the sorted-store
	// backend's recovery routine is used.
	Log bool
}
