package pack

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/foundryvtt/foundryvtt-cli/internal/adventure"
	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
	"github.com/foundryvtt/foundryvtt-cli/internal/filenamepolicy"
	"github.com/foundryvtt/foundryvtt-cli/internal/folders"
	"github.com/foundryvtt/foundryvtt-cli/internal/keycodec"
	"github.com/foundryvtt/foundryvtt-cli/internal/sortedstore"
	"github.com/foundryvtt/foundryvtt-cli/internal/stage"
	"github.com/foundryvtt/foundryvtt-cli/internal/walker"
)

func extractSortedStore(src string, stageDir *stage.Dir, dest string, opts ExtractOptions, sugar *zap.SugaredLogger) error {
	store, err := sortedstore.Open(src, false)
	if err != nil {
		return err
	}
	defer store.Close()

	var folderMap map[string]folders.Descriptor
	if opts.Folders {
		folderMap, err = buildFolderMap(store, opts)
		if err != nil {
			return err
		}
	}

	return store.ForEach(func(e sortedstore.Entry) error {
		sublevel, id, ok := keycodec.Decode(e.Key)
		if !ok {
			return fmt.Errorf("pack: malformed key %q", e.Key)
		}
		if keycodec.IsEmbedded(sublevel) {
			// Embedded-document entry; stitched into its parent below.
			return nil
		}
		collection := sublevel

		doc, ok := e.Value.(docvalue.Document)
		if !ok {
			return fmt.Errorf("pack: entry %s is not an object", e.Key)
		}

		resolved, err := resolveEmbeds(store, doc, collection, []string{collection}, []string{id})
		if err != nil {
			return err
		}

		if opts.TransformEntry != nil {
			transformed, keep, err := opts.TransformEntry(resolved)
			if err != nil {
				return err
			}
			if !keep {
				return nil
			}
			resolved = transformed
		}

		if collection == "adventures" && opts.ExpandAdventures {
			return extractAdventure(stageDir, dest, resolved, id, opts, folderMap)
		}

		return writeSortedStoreEntry(stageDir, dest, resolved, collection, id, folderMap, opts)
	})
}

// buildFolderMap reads every "!folders!" entry and projects it through
// §4.8. groupByType is tied to expand-adventures mode, per §4.8's
// "group-by-type is requested (adventure-expansion mode)".
func buildFolderMap(store *sortedstore.Store, opts ExtractOptions) (map[string]folders.Descriptor, error) {
	var folderDocs []docvalue.Document
	err := store.ForEach(func(e sortedstore.Entry) error {
		sublevel, _, ok := keycodec.Decode(e.Key)
		if !ok || sublevel != "folders" {
			return nil
		}
		doc, ok := e.Value.(docvalue.Document)
		if !ok {
			return fmt.Errorf("pack: folder entry %s is not an object", e.Key)
		}
		folderDocs = append(folderDocs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var nameFn folders.NameFunc
	if opts.TransformFolderName != nil {
		nameFn = func(f docvalue.Document) (string, error) { return opts.TransformFolderName(f) }
	}
	return folders.Build(folderDocs, opts.ExpandAdventures, nameFn)
}

// resolveEmbeds rebuilds _key for doc and replaces every bare _id
// reference in its catalog-hierarchy embedded slots with the full
// subdocument fetched from store, recursing into each.
func resolveEmbeds(store *sortedstore.Store, doc docvalue.Document, collection string, sublevels, ids []string) (docvalue.Document, error) {
	key := keycodec.Encode(sublevels, ids)
	withKey := doc.Set("_key", key)

	return walker.MapEmbedded(withKey, collection, func(el docvalue.Value, embColl string, _ int) (docvalue.Value, error) {
		idStr, ok := el.(string)
		if !ok || idStr == "" {
			return el, nil
		}

		childSublevels := append(append([]string{}, sublevels...), embColl)
		childIDs := append(append([]string{}, ids...), idStr)
		childKey := keycodec.Encode(childSublevels, childIDs)

		val, found, err := store.Get(childKey)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("pack: embedded reference %s not found", childKey)
		}
		childDoc, ok := val.(docvalue.Document)
		if !ok {
			return nil, fmt.Errorf("pack: embedded reference %s is not an object", childKey)
		}
		return resolveEmbeds(store, childDoc, embColl, childSublevels, childIDs)
	})
}

func writeSortedStoreEntry(stageDir *stage.Dir, dest string, doc docvalue.Document, collection, id string, folderMap map[string]folders.Descriptor, opts ExtractOptions) error {
	ext := filenamepolicy.Ext(opts.YAML)

	var relDir, filename string
	var err error
	switch {
	case opts.TransformName != nil:
		filename, err = opts.TransformName(doc, collection, id)
		if err != nil {
			return err
		}
	case collection == "folders":
		filename = "_Folder." + ext
	default:
		filename = defaultFilename(doc, id, ext)
	}

	if opts.Folders {
		if collection == "folders" {
			if desc, ok := folderMap[id]; ok {
				relDir = desc.Path
			}
		} else {
			folderVal, _ := doc.Get("folder")
			if folderID, _ := folderVal.(string); folderID != "" {
				if desc, ok := folderMap[folderID]; ok {
					relDir = desc.Path
				}
			}
		}
	}

	return writeEntry(stageDir, dest, doc, collection, relDir, filename, opts)
}

func extractAdventure(stageDir *stage.Dir, dest string, adv docvalue.Document, id string, opts ExtractOptions, folderMap map[string]folders.Descriptor) error {
	ext := filenamepolicy.Ext(opts.YAML)

	expanded, files, err := adventure.Expand(adv, ext, opts.Folders)
	if err != nil {
		return err
	}

	var relDir string
	if opts.Folders {
		folderVal, _ := adv.Get("folder")
		if folderID, _ := folderVal.(string); folderID != "" {
			if desc, ok := folderMap[folderID]; ok {
				relDir = desc.Path
			}
		}
	}

	var advFilename string
	if opts.TransformName != nil {
		advFilename, err = opts.TransformName(expanded, "adventures", id)
		if err != nil {
			return err
		}
	}

	// Folders mode nests the adventure under its own "<safeName>_<id>"
	// directory, with the grouped folder path (if any) as its parent —
	// per §9's resolution of the simultaneous folders+expand-adventures
	// open question.
	var baseDir string
	if opts.Folders {
		baseDir = adventure.BaseDir(adv, id)
		if advFilename == "" {
			advFilename = "_Adventure." + ext
		}
	} else if advFilename == "" {
		advFilename = defaultFilename(adv, id, ext)
	}

	advRelDir := filepath.Join(relDir, baseDir)

	if err := writeEntry(stageDir, dest, expanded, "adventures", advRelDir, advFilename, opts); err != nil {
		return err
	}

	for _, f := range files {
		if err := writeEntry(stageDir, dest, f.Doc, f.Collection, advRelDir, f.RelPath, opts); err != nil {
			return err
		}
	}
	return nil
}
