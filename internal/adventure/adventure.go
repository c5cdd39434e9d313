// Package adventure splits an Adventure document into its embedded
// subdocuments for extraction (expand-adventures mode) and recombines
// file-referenced subdocuments back into an inline array for compile.
package adventure

import (
	"fmt"
	"path/filepath"

	"github.com/foundryvtt/foundryvtt-cli/internal/catalog"
	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
	"github.com/foundryvtt/foundryvtt-cli/internal/filenamepolicy"
)

// File describes one embedded subdocument peeled off an Adventure
// during expansion.
type File struct {
	Collection string
	Doc        docvalue.Document
	// RelPath is relative to the adventure's own file: a bare filename
	// in plain mode, or "<collection>/<filename>" when folders mode
	// groups subdocuments by embedded-collection subfolder.
	RelPath string
}

// BaseDir returns the "<safeName>_<id>" directory name an Adventure is
// written under in folders mode (containing "_Adventure.<ext>" plus its
// embedded-type subfolders). It does not check the mode; in plain mode
// callers do not use it, and embedded files sit alongside the
// adventure's own file.
func BaseDir(adv docvalue.Document, id string) string {
	nameVal, _ := adv.Get("name")
	name, _ := nameVal.(string)
	return filenamepolicy.SafeName(name) + "_" + id
}

// Expand replaces every inline subdocument in an Adventure's
// adventure-embedded collections with a relative file-path string,
// returning the updated Adventure document and the list of files that
// must be written to realize those paths.
func Expand(adv docvalue.Document, ext string, folders bool) (docvalue.Document, []File, error) {
	updated := adv
	var files []File

	for _, coll := range catalog.AdventureEmbeddedCollections {
		val, ok := updated.Get(coll)
		if !ok {
			continue
		}
		arr, ok := val.(docvalue.Array)
		if !ok || len(arr) == 0 {
			continue
		}

		newArr := make(docvalue.Array, 0, len(arr))
		for _, el := range arr {
			doc, ok := el.(docvalue.Document)
			if !ok {
				// Already a path string (re-expanding previously expanded
				// source); leave untouched.
				newArr = append(newArr, el)
				continue
			}

			idVal, _ := doc.Get("_id")
			id, _ := idVal.(string)
			fname := deriveFilename(doc, id, ext)

			relPath := fname
			if folders {
				relPath = filepath.Join(coll, fname)
			}

			files = append(files, File{Collection: coll, Doc: doc, RelPath: relPath})
			newArr = append(newArr, relPath)
		}
		updated = updated.Set(coll, newArr)
	}

	return updated, files, nil
}

// ReadFunc loads the subdocument referenced by a relative path
// recorded in an adventure-embedded collection.
type ReadFunc func(relPath string) (docvalue.Document, error)

// Collapse replaces every string entry in adv's adventure-embedded
// collections with the document obtained from read, the reverse of
// Expand. Entries that are already inline documents (unexpanded
// Adventures) pass through unchanged.
func Collapse(adv docvalue.Document, read ReadFunc) (docvalue.Document, error) {
	updated := adv

	for _, coll := range catalog.AdventureEmbeddedCollections {
		val, ok := updated.Get(coll)
		if !ok {
			continue
		}
		arr, ok := val.(docvalue.Array)
		if !ok || len(arr) == 0 {
			continue
		}

		newArr := make(docvalue.Array, 0, len(arr))
		for _, el := range arr {
			pathStr, ok := el.(string)
			if !ok {
				newArr = append(newArr, el)
				continue
			}
			doc, err := read(pathStr)
			if err != nil {
				return nil, fmt.Errorf("adventure: reading %s referenced by %s: %w", pathStr, coll, err)
			}
			newArr = append(newArr, doc)
		}
		updated = updated.Set(coll, newArr)
	}

	return updated, nil
}

func deriveFilename(doc docvalue.Document, id, ext string) string {
	nameVal, _ := doc.Get("name")
	name, _ := nameVal.(string)
	return filenamepolicy.DeriveFilename(filenamepolicy.Named{Name: name, ID: id}, id, ext)
}
