package pack

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
	"github.com/foundryvtt/foundryvtt-cli/internal/logstore"
)

func compileLogStore(dest string, files []string, opts CompileOptions, sugar *zap.SugaredLogger) (err error) {
	tracker := newDupTracker()
	var entries []docvalue.Document

	for _, path := range files {
		doc, key, skip, loadErr := loadSourceEntry(path, true, opts.TransformEntry, sugar)
		if loadErr != nil {
			return loadErr
		}
		if skip {
			continue
		}

		collection := collectionOfKey(key)
		cleaned, stripErr := stripKeys(doc, collection, func(k string) error {
			tracker.mark(k)
			return nil
		})
		if stripErr != nil {
			return stripErr
		}
		entries = append(entries, cleaned)
	}

	if dupErr := tracker.err(); dupErr != nil {
		sugar.Errorw("compile aborted: duplicate keys found", "error", dupErr)
		return dupErr
	}

	if err = os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pack: removing existing %s: %w", dest, err)
	}

	store, err := logstore.Open(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	store.DisableAutoCompaction()
	for _, e := range entries {
		if err = store.Insert(e); err != nil {
			return err
		}
	}
	return nil
}
