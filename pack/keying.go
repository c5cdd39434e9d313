package pack

import (
	"go.uber.org/multierr"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
	"github.com/foundryvtt/foundryvtt-cli/internal/keycodec"
	"github.com/foundryvtt/foundryvtt-cli/internal/walker"
)

// dupTracker accumulates every duplicate key found across a compile
// pass instead of failing at the first one, so a single compile
// reports every source-file conflict in one pass.
type dupTracker struct {
	seen map[string]struct{}
	errs error
}

func newDupTracker() *dupTracker {
	return &dupTracker{seen: make(map[string]struct{})}
}

// mark records key as seen, appending a DuplicateKeyError to the
// accumulated error set if it was already present. It returns true
// when key is new.
func (t *dupTracker) mark(key string) bool {
	if key == "" {
		return true
	}
	if _, exists := t.seen[key]; exists {
		t.errs = multierr.Append(t.errs, &DuplicateKeyError{Key: key})
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// err returns the combined duplicate-key error, or nil if none were
// found.
func (t *dupTracker) err() error {
	return t.errs
}

// keyPath threads the ancestor sublevel/id parts down through a walk so
// each node's composite key can be built from its own root-to-here
// path rather than just its immediate parent.
type keyPath struct {
	sublevels []string
	ids       []string
}

// assignKeys sets "_key" on doc and every embedded document it owns,
// per §4.1's composite key for each node's position in the hierarchy.
func assignKeys(doc docvalue.Document, collection string) (docvalue.Document, error) {
	return walker.ApplySync(func(d docvalue.Document, coll string, _ *int, inherited any) (docvalue.Document, any, error) {
		var parent keyPath
		if inherited != nil {
			parent = inherited.(keyPath)
		}

		idVal, _ := d.Get("_id")
		id, _ := idVal.(string)

		path := keyPath{
			sublevels: append(append([]string{}, parent.sublevels...), coll),
			ids:       append(append([]string{}, parent.ids...), id),
		}
		key := keycodec.Encode(path.sublevels, path.ids)
		return d.Set("_key", key), path, nil
	}, doc, collection, nil, keyPath{})
}

// stripKeys deletes "_key" from doc and every embedded document it
// owns, reporting every key encountered via visit. visit returning an
// error aborts the walk.
func stripKeys(doc docvalue.Document, collection string, visit func(key string) error) (docvalue.Document, error) {
	return walker.ApplySync(func(d docvalue.Document, coll string, _ *int, inherited any) (docvalue.Document, any, error) {
		keyVal, _ := d.Get("_key")
		key, _ := keyVal.(string)
		if err := visit(key); err != nil {
			return nil, nil, err
		}
		return d.Delete("_key"), nil, nil
	}, doc, collection, nil, nil)
}
