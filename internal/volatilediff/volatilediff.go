// Package volatilediff decides whether a freshly extracted document is
// worth rewriting to its source file. Foundry documents carry a
// "_stats" subdocument with fields (createdTime, modifiedTime, ...)
// that change on every load-and-save cycle even when nothing the user
// edits actually changed; rewriting the source file for those alone
// would make every extract touch every file under version control.
package volatilediff

import (
	"github.com/foundryvtt/foundryvtt-cli/internal/catalog"
	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
)

const statsField = "_stats"

// Overlay returns a clone of candidate with every volatile field in
// its "_stats" subdocument replaced by the corresponding value from
// existing's "_stats", recursing into every embedded document the
// hierarchy catalog knows about collection owning so nested documents
// are overlaid the same way. Both candidate and existing must carry
// "_stats" documents for the overlay to apply at a given node;
// otherwise that node (and, for array slots, each mismatched element)
// is left as-is.
func Overlay(candidate, existing docvalue.Document, collection string) docvalue.Document {
	updated := overlayStats(candidate, existing)

	for _, embed := range catalog.Embeds(collection) {
		switch embed.Arity {
		case catalog.Array:
			candArr, _ := getArray(updated, embed.Name)
			existArr, _ := getArray(existing, embed.Name)
			if len(candArr) == 0 {
				continue
			}
			newArr := make(docvalue.Array, len(candArr))
			for i, el := range candArr {
				childCand, ok := el.(docvalue.Document)
				if !ok {
					newArr[i] = el
					continue
				}
				if i < len(existArr) {
					if childExist, ok := existArr[i].(docvalue.Document); ok {
						newArr[i] = Overlay(childCand, childExist, embed.Name)
						continue
					}
				}
				newArr[i] = childCand
			}
			updated = updated.Set(embed.Name, newArr)
		case catalog.Single:
			candVal, ok := updated.Get(embed.Name)
			if !ok || candVal == nil {
				continue
			}
			childCand, ok := candVal.(docvalue.Document)
			if !ok {
				continue
			}
			existVal, _ := existing.Get(embed.Name)
			childExist, ok := existVal.(docvalue.Document)
			if !ok {
				continue
			}
			updated = updated.Set(embed.Name, Overlay(childCand, childExist, embed.Name))
		}
	}

	return updated
}

func overlayStats(candidate, existing docvalue.Document) docvalue.Document {
	candStatsVal, ok := candidate.Get(statsField)
	if !ok {
		return candidate
	}
	candStats, ok := candStatsVal.(docvalue.Document)
	if !ok {
		return candidate
	}
	existStatsVal, ok := existing.Get(statsField)
	if !ok {
		return candidate
	}
	existStats, ok := existStatsVal.(docvalue.Document)
	if !ok {
		return candidate
	}

	overlaid := candStats
	for _, field := range catalog.VolatileStatsFields {
		if v, ok := existStats.Get(field); ok {
			overlaid = overlaid.Set(field, v)
		}
	}
	return candidate.Set(statsField, overlaid)
}

func getArray(doc docvalue.Document, key string) (docvalue.Array, bool) {
	val, ok := doc.Get(key)
	if !ok || val == nil {
		return nil, false
	}
	arr, ok := val.(docvalue.Array)
	return arr, ok
}

// ExistingFunc loads the document previously written to a candidate's
// destination source file, if one exists and parses successfully.
type ExistingFunc func() (doc docvalue.Document, ok bool, err error)

// Resolve implements the omitVolatile gate for one candidate document.
// It returns the document that should actually be written: existing
// unchanged when the only differences from candidate lie in volatile
// _stats fields (across the whole embedded hierarchy rooted at
// collection), or candidate itself otherwise — including whenever
// existing cannot be loaded or parsed, or either side lacks "_stats".
func Resolve(candidate docvalue.Document, collection string, existing ExistingFunc) (docvalue.Document, error) {
	prior, ok, err := existing()
	if err != nil {
		return nil, err
	}
	if !ok {
		return candidate, nil
	}

	if _, hasCand := candidate.Get(statsField); !hasCand {
		return candidate, nil
	}
	if _, hasExist := prior.Get(statsField); !hasExist {
		return candidate, nil
	}

	overlaid := Overlay(candidate, prior, collection)
	if docvalue.Equal(overlaid, prior) {
		return prior, nil
	}
	return candidate, nil
}
