package pack

import (
	"go.uber.org/zap"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
	"github.com/foundryvtt/foundryvtt-cli/internal/sortedstore"
	"github.com/foundryvtt/foundryvtt-cli/internal/walker"
)

func compileSortedStore(dest string, files []string, opts CompileOptions, sugar *zap.SugaredLogger) (err error) {
	store, err := sortedstore.Open(dest, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	batch := sortedstore.NewBatch()
	tracker := newDupTracker()

	for _, path := range files {
		doc, key, skip, loadErr := loadSourceEntry(path, false, opts.TransformEntry, sugar)
		if loadErr != nil {
			return loadErr
		}
		if skip {
			continue
		}

		collection := collectionOfKey(key)
		_, walkErr := walker.ApplySync(func(d docvalue.Document, coll string, _ *int, _ any) (docvalue.Document, any, error) {
			keyVal, _ := d.Get("_key")
			nodeKey, _ := keyVal.(string)
			tracker.mark(nodeKey)

			cleaned := d.Delete("_key")
			mapped, mapErr := walker.MapEmbedded(cleaned, coll, func(el docvalue.Value, _ string, _ int) (docvalue.Value, error) {
				child, ok := el.(docvalue.Document)
				if !ok {
					return el, nil
				}
				idVal, _ := child.Get("_id")
				id, _ := idVal.(string)
				return id, nil
			})
			if mapErr != nil {
				return nil, nil, mapErr
			}
			if putErr := batch.Put(nodeKey, mapped); putErr != nil {
				return nil, nil, putErr
			}
			return cleaned, nil, nil
		}, doc, collection, nil, nil)
		if walkErr != nil {
			return walkErr
		}
	}

	if dupErr := tracker.err(); dupErr != nil {
		sugar.Errorw("compile aborted: duplicate keys found", "error", dupErr)
		return dupErr
	}

	if err = store.ForEach(func(e sortedstore.Entry) error {
		if _, ok := tracker.seen[e.Key]; !ok {
			batch.Delete(e.Key)
		}
		return nil
	}); err != nil {
		return err
	}

	if err = store.Write(batch); err != nil {
		return err
	}
	return store.CompactAfterRewrite()
}
