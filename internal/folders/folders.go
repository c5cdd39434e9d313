// Package folders projects a pack's Folder documents into a directory
// tree: a map from folder _id to {name, parent, type, path} used by
// extract's folders mode to lay out nested directories.
package folders

import (
	"fmt"
	"path/filepath"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
	"github.com/foundryvtt/foundryvtt-cli/internal/filenamepolicy"
)

// NameFunc overrides the default folder-directory name for a Folder
// document. It corresponds to the caller-supplied transformFolderName
// option.
type NameFunc func(folder docvalue.Document) (string, error)

// Descriptor describes one folder's projected location.
type Descriptor struct {
	Name   string
	Parent string // parent folder _id, or "" for a root folder
	Type   string // the folder's own "type" field, e.g. "Actor"
	Path   string // path from the root ancestor down to this folder
}

// Build computes the folder map for every document in folderDocs.
// groupByType prepends a root folder's document-type to its path
// (adventure-expansion mode); nested folders inherit the prefix via
// their ancestor's already-typed path rather than re-prepending it.
func Build(folderDocs []docvalue.Document, groupByType bool, nameFn NameFunc) (map[string]Descriptor, error) {
	byID := make(map[string]docvalue.Document, len(folderDocs))
	for _, f := range folderDocs {
		idVal, _ := f.Get("_id")
		id, _ := idVal.(string)
		if id == "" {
			return nil, fmt.Errorf("folders: folder document missing _id")
		}
		byID[id] = f
	}

	result := make(map[string]Descriptor, len(byID))

	var resolve func(id string, seen map[string]bool) (Descriptor, error)
	resolve = func(id string, seen map[string]bool) (Descriptor, error) {
		if d, ok := result[id]; ok {
			return d, nil
		}
		if seen[id] {
			return Descriptor{}, fmt.Errorf("folders: cycle detected at folder %s", id)
		}
		seen[id] = true

		doc, ok := byID[id]
		if !ok {
			return Descriptor{}, fmt.Errorf("folders: unknown folder id %s", id)
		}

		name, err := folderName(doc, id, nameFn)
		if err != nil {
			return Descriptor{}, fmt.Errorf("folders: naming folder %s: %w", id, err)
		}

		parentVal, _ := doc.Get("folder")
		parentID, _ := parentVal.(string)

		typeVal, _ := doc.Get("type")
		typeStr, _ := typeVal.(string)

		var path string
		if parentID == "" {
			path = name
			if groupByType && typeStr != "" {
				path = filepath.Join(typeStr, name)
			}
		} else {
			parentDesc, err := resolve(parentID, seen)
			if err != nil {
				return Descriptor{}, err
			}
			path = filepath.Join(parentDesc.Path, name)
		}

		desc := Descriptor{Name: name, Parent: parentID, Type: typeStr, Path: path}
		result[id] = desc
		return desc, nil
	}

	for id := range byID {
		if _, err := resolve(id, make(map[string]bool)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func folderName(doc docvalue.Document, idHint string, nameFn NameFunc) (string, error) {
	if nameFn != nil {
		return nameFn(doc)
	}
	nameVal, _ := doc.Get("name")
	name, _ := nameVal.(string)
	if name == "" {
		return idHint, nil
	}
	return filenamepolicy.SafeName(name) + "_" + idHint, nil
}
