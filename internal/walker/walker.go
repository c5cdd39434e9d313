// Package walker provides the generic, table-driven traversal over the
// embedded-collection hierarchy described by internal/catalog. It is
// the single point where the engine knows how to recurse into an
// actor's items, a scene's tokens, and so on, without any type-specific
// code.
package walker

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/foundryvtt/foundryvtt-cli/internal/catalog"
	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
)

// VisitFunc is invoked once per document in pre-order (parent before
// children). It returns a possibly-updated document (the walker splices
// any changes back into the parent's embedded slots), an options value
// threaded down to the children as their inherited context, and an
// error that aborts the walk.
//
// index is nil for the primary (root) document, -1 for a single-arity
// embedded slot, and the element's position for an array-arity slot.
type VisitFunc func(doc docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, any, error)

// intPtr returns a pointer to i, for the index argument of VisitFunc.
func intPtr(i int) *int { return &i }

// ApplySync performs a synchronous, depth-first pre-order traversal of
// doc and every embedded document it (transitively) owns, per the
// hierarchy catalog entry for collection.
func ApplySync(fn VisitFunc, doc docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, error) {
	updated, opts, err := fn(doc, collection, index, inherited)
	if err != nil {
		return nil, err
	}

	for _, embed := range catalog.Embeds(collection) {
		switch embed.Arity {
		case catalog.Array:
			arr, _ := getArray(updated, embed.Name)
			newArr := make(docvalue.Array, 0, len(arr))
			for i, el := range arr {
				child, ok := el.(docvalue.Document)
				if !ok {
					return nil, fmt.Errorf("walker: %s.%s[%d] is not a document", collection, embed.Name, i)
				}
				childResult, err := ApplySync(fn, child, embed.Name, intPtr(i), opts)
				if err != nil {
					return nil, err
				}
				newArr = append(newArr, childResult)
			}
			updated = updated.Set(embed.Name, newArr)
		case catalog.Single:
			val, ok := updated.Get(embed.Name)
			if !ok || val == nil {
				updated = updated.Set(embed.Name, nil)
				continue
			}
			child, ok := val.(docvalue.Document)
			if !ok {
				return nil, fmt.Errorf("walker: %s.%s is not a document", collection, embed.Name)
			}
			childResult, err := ApplySync(fn, child, embed.Name, intPtr(-1), opts)
			if err != nil {
				return nil, err
			}
			updated = updated.Set(embed.Name, childResult)
		}
	}

	return updated, nil
}

// Apply is the asynchronous counterpart of ApplySync: the children of
// one parent may be processed concurrently (bounded by GOMAXPROCS),
// while array order in the result is always preserved. Apply is safe
// to use even when fn performs no I/O; concurrency only helps when fn
// blocks (for example, resolving an embedded reference with a store
// lookup).
func Apply(ctx context.Context, fn VisitFunc, doc docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, error) {
	updated, opts, err := fn(doc, collection, index, inherited)
	if err != nil {
		return nil, err
	}

	for _, embed := range catalog.Embeds(collection) {
		switch embed.Arity {
		case catalog.Array:
			arr, _ := getArray(updated, embed.Name)
			results := make(docvalue.Array, len(arr))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(maxParallelism())
			for i, el := range arr {
				i, el := i, el
				g.Go(func() error {
					child, ok := el.(docvalue.Document)
					if !ok {
						return fmt.Errorf("walker: %s.%s[%d] is not a document", collection, embed.Name, i)
					}
					childResult, err := Apply(gctx, fn, child, embed.Name, intPtr(i), opts)
					if err != nil {
						return err
					}
					results[i] = childResult
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
			updated = updated.Set(embed.Name, results)
		case catalog.Single:
			val, ok := updated.Get(embed.Name)
			if !ok || val == nil {
				updated = updated.Set(embed.Name, nil)
				continue
			}
			child, ok := val.(docvalue.Document)
			if !ok {
				return nil, fmt.Errorf("walker: %s.%s is not a document", collection, embed.Name)
			}
			childResult, err := Apply(ctx, fn, child, embed.Name, intPtr(-1), opts)
			if err != nil {
				return nil, err
			}
			updated = updated.Set(embed.Name, childResult)
		}
	}

	return updated, nil
}

func maxParallelism() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

// MapFunc transforms one embedded element (or, for a single-arity slot,
// the sole value) into its replacement. element is the raw stored
// value — a docvalue.Document when embeds are still inline, or
// whatever placeholder (typically a bare _id string) replaced it —
// letting fn tell the two cases apart itself.
type MapFunc func(element docvalue.Value, embeddedCollection string, index int) (docvalue.Value, error)

// MapEmbedded replaces every embedded-collection slot of doc (per the
// catalog entry for collection) with the result of applying fn to each
// element. Unlike Apply/ApplySync this touches exactly one level: fn
// receives each slot's raw value and decides what to put in its place
// (a bare id string, a resolved subdocument, anything). Missing array
// slots become an empty array; missing single slots become null,
// matching the specification's map() contract.
func MapEmbedded(doc docvalue.Document, collection string, fn MapFunc) (docvalue.Document, error) {
	updated := doc
	for _, embed := range catalog.Embeds(collection) {
		switch embed.Arity {
		case catalog.Array:
			arr, _ := getArray(updated, embed.Name)
			newArr := make(docvalue.Array, 0, len(arr))
			for i, el := range arr {
				result, err := fn(el, embed.Name, i)
				if err != nil {
					return nil, err
				}
				newArr = append(newArr, result)
			}
			updated = updated.Set(embed.Name, newArr)
		case catalog.Single:
			val, ok := updated.Get(embed.Name)
			if !ok || val == nil {
				updated = updated.Set(embed.Name, nil)
				continue
			}
			result, err := fn(val, embed.Name, -1)
			if err != nil {
				return nil, err
			}
			updated = updated.Set(embed.Name, result)
		}
	}
	return updated, nil
}

func getArray(doc docvalue.Document, key string) (docvalue.Array, bool) {
	val, ok := doc.Get(key)
	if !ok || val == nil {
		return nil, false
	}
	arr, ok := val.(docvalue.Array)
	return arr, ok
}
