package walker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
)

func sampleActor() docvalue.Document {
	return docvalue.Document{
		{Key: "_id", Value: "aaa"},
		{Key: "name", Value: "Hero"},
		{Key: "items", Value: docvalue.Array{
			docvalue.Document{{Key: "_id", Value: "i1"}, {Key: "name", Value: "Sword"}},
			docvalue.Document{{Key: "_id", Value: "i2"}, {Key: "name", Value: "Shield"}},
		}},
		{Key: "effects", Value: docvalue.Array{}},
	}
}

func TestApplySyncVisitsEveryNodePreOrder(t *testing.T) {
	var visited []string
	_, err := ApplySync(func(d docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, any, error) {
		visited = append(visited, collection)
		return d, nil, nil
	}, sampleActor(), "actors", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"actors", "items", "items"}, visited)
}

func TestApplySyncSplicesChildResultsBack(t *testing.T) {
	result, err := ApplySync(func(d docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, any, error) {
		if collection == "items" {
			d = d.Set("name", "renamed")
		}
		return d, nil, nil
	}, sampleActor(), "actors", nil, nil)
	require.NoError(t, err)

	items, _ := result.Get("items")
	arr := items.(docvalue.Array)
	first := arr[0].(docvalue.Document)
	name, _ := first.Get("name")
	assert.Equal(t, "renamed", name)
}

func TestApplySyncThreadsInheritedContext(t *testing.T) {
	var seen []any
	_, err := ApplySync(func(d docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, any, error) {
		seen = append(seen, inherited)
		id, _ := d.Get("_id")
		return d, id, nil
	}, sampleActor(), "actors", nil, "root-context")

	require.NoError(t, err)
	assert.Equal(t, "root-context", seen[0])
	assert.Equal(t, "aaa", seen[1])
	assert.Equal(t, "aaa", seen[2])
}

func TestApplyMatchesApplySyncResult(t *testing.T) {
	sync, err := ApplySync(func(d docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, any, error) {
		return d, nil, nil
	}, sampleActor(), "actors", nil, nil)
	require.NoError(t, err)

	async, err := Apply(context.Background(), func(d docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, any, error) {
		return d, nil, nil
	}, sampleActor(), "actors", nil, nil)
	require.NoError(t, err)

	assert.True(t, docvalue.Equal(sync, async))
}

func TestApplyPreservesArrayOrder(t *testing.T) {
	result, err := Apply(context.Background(), func(d docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, any, error) {
		return d, nil, nil
	}, sampleActor(), "actors", nil, nil)
	require.NoError(t, err)

	items, _ := result.Get("items")
	arr := items.(docvalue.Array)
	firstID, _ := arr[0].(docvalue.Document).Get("_id")
	secondID, _ := arr[1].(docvalue.Document).Get("_id")
	assert.Equal(t, "i1", firstID)
	assert.Equal(t, "i2", secondID)
}

func TestApplyPropagatesChildError(t *testing.T) {
	boom := assert.AnError
	_, err := Apply(context.Background(), func(d docvalue.Document, collection string, index *int, inherited any) (docvalue.Document, any, error) {
		if collection == "items" {
			return nil, nil, boom
		}
		return d, nil, nil
	}, sampleActor(), "actors", nil, nil)

	assert.ErrorIs(t, err, boom)
}

func TestMapEmbeddedReplacesArraySlotWithBareIDs(t *testing.T) {
	result, err := MapEmbedded(sampleActor(), "actors", func(element docvalue.Value, embeddedCollection string, index int) (docvalue.Value, error) {
		doc, ok := element.(docvalue.Document)
		if !ok {
			return element, nil
		}
		id, _ := doc.Get("_id")
		return id, nil
	})
	require.NoError(t, err)

	items, _ := result.Get("items")
	assert.Equal(t, docvalue.Array{"i1", "i2"}, items)
}

func TestMapEmbeddedResolvesBareIDsBackToDocuments(t *testing.T) {
	flattened := docvalue.Document{
		{Key: "_id", Value: "aaa"},
		{Key: "items", Value: docvalue.Array{"i1", "i2"}},
		{Key: "effects", Value: docvalue.Array{}},
	}
	lookup := map[string]docvalue.Document{
		"i1": {{Key: "_id", Value: "i1"}, {Key: "name", Value: "Sword"}},
		"i2": {{Key: "_id", Value: "i2"}, {Key: "name", Value: "Shield"}},
	}

	result, err := MapEmbedded(flattened, "actors", func(element docvalue.Value, embeddedCollection string, index int) (docvalue.Value, error) {
		id, ok := element.(string)
		if !ok {
			return element, nil
		}
		return lookup[id], nil
	})
	require.NoError(t, err)

	items, _ := result.Get("items")
	arr := items.(docvalue.Array)
	name, _ := arr[0].(docvalue.Document).Get("name")
	assert.Equal(t, "Sword", name)
}

func TestMapEmbeddedMissingSingleSlotBecomesNull(t *testing.T) {
	token := docvalue.Document{{Key: "_id", Value: "t1"}}
	result, err := MapEmbedded(token, "tokens", func(element docvalue.Value, embeddedCollection string, index int) (docvalue.Value, error) {
		return element, nil
	})
	require.NoError(t, err)

	val, ok := result.Get("delta")
	assert.True(t, ok)
	assert.Nil(t, val)
}
