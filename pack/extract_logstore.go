package pack

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/foundryvtt/foundryvtt-cli/internal/filenamepolicy"
	"github.com/foundryvtt/foundryvtt-cli/internal/logstore"
	"github.com/foundryvtt/foundryvtt-cli/internal/stage"
)

func extractLogStore(src string, stageDir *stage.Dir, dest, collection string, opts ExtractOptions, sugar *zap.SugaredLogger) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("pack: opening %s: %w", src, err)
	}

	store, err := logstore.Open(src)
	if err != nil {
		return err
	}
	defer store.CloseNoCompact()

	docs, err := store.FindAll()
	if err != nil {
		return err
	}

	ext := filenamepolicy.Ext(opts.YAML)

	for _, doc := range docs {
		withKey, err := assignKeys(doc, collection)
		if err != nil {
			return err
		}

		if opts.TransformEntry != nil {
			transformed, keep, err := opts.TransformEntry(withKey)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
			withKey = transformed
		}

		idVal, _ := withKey.Get("_id")
		id, _ := idVal.(string)

		var filename string
		if opts.TransformName != nil {
			filename, err = opts.TransformName(withKey, collection, id)
			if err != nil {
				return err
			}
		} else {
			filename = defaultFilename(withKey, id, ext)
		}

		if err := writeEntry(stageDir, dest, withKey, collection, "", filename, opts); err != nil {
			return err
		}
	}
	return nil
}
