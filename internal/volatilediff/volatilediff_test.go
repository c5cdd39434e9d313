package volatilediff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
)

func actorWithStats(modifiedTime string, name string) docvalue.Document {
	return docvalue.Document{
		{Key: "_id", Value: "aaa"},
		{Key: "name", Value: name},
		{Key: "_stats", Value: docvalue.Document{{Key: "modifiedTime", Value: modifiedTime}}},
	}
}

func TestOverlayReplacesVolatileFieldOnly(t *testing.T) {
	candidate := actorWithStats("2000", "Hero")
	existing := actorWithStats("1000", "Hero")

	overlaid := Overlay(candidate, existing, "actors")
	stats, _ := overlaid.Get("_stats")
	modTime, _ := stats.(docvalue.Document).Get("modifiedTime")
	assert.Equal(t, "1000", modTime)

	name, _ := overlaid.Get("name")
	assert.Equal(t, "Hero", name)
}

func TestOverlayRecursesIntoEmbeddedItems(t *testing.T) {
	candidate := docvalue.Document{
		{Key: "_id", Value: "aaa"},
		{Key: "items", Value: docvalue.Array{actorWithStats("2000", "Sword")}},
	}
	existing := docvalue.Document{
		{Key: "_id", Value: "aaa"},
		{Key: "items", Value: docvalue.Array{actorWithStats("1000", "Sword")}},
	}

	overlaid := Overlay(candidate, existing, "actors")
	items, _ := overlaid.Get("items")
	child := items.(docvalue.Array)[0].(docvalue.Document)
	stats, _ := child.Get("_stats")
	modTime, _ := stats.(docvalue.Document).Get("modifiedTime")
	assert.Equal(t, "1000", modTime)
}

func TestOverlayToleratesUnknownCollection(t *testing.T) {
	candidate := actorWithStats("2000", "Thing")
	existing := actorWithStats("1000", "Thing")

	overlaid := Overlay(candidate, existing, "not-a-real-collection")
	stats, _ := overlaid.Get("_stats")
	modTime, _ := stats.(docvalue.Document).Get("modifiedTime")
	assert.Equal(t, "1000", modTime)
}

func TestResolveReturnsExistingWhenOnlyVolatileFieldsDiffer(t *testing.T) {
	candidate := actorWithStats("2000", "Hero")
	existing := actorWithStats("1000", "Hero")

	result, err := Resolve(candidate, "actors", func() (docvalue.Document, bool, error) {
		return existing, true, nil
	})
	require.NoError(t, err)
	assert.True(t, docvalue.Equal(existing, result))
}

func TestResolveReturnsCandidateWhenMeaningfulFieldDiffers(t *testing.T) {
	candidate := actorWithStats("2000", "Hero")
	existing := actorWithStats("1000", "Villain")

	result, err := Resolve(candidate, "actors", func() (docvalue.Document, bool, error) {
		return existing, true, nil
	})
	require.NoError(t, err)
	assert.True(t, docvalue.Equal(candidate, result))
}

func TestResolveReturnsCandidateWhenNoPriorExists(t *testing.T) {
	candidate := actorWithStats("2000", "Hero")
	result, err := Resolve(candidate, "actors", func() (docvalue.Document, bool, error) {
		return nil, false, nil
	})
	require.NoError(t, err)
	assert.True(t, docvalue.Equal(candidate, result))
}

func TestResolveReturnsCandidateWhenStatsMissingOnEitherSide(t *testing.T) {
	candidate := docvalue.Document{{Key: "_id", Value: "aaa"}, {Key: "name", Value: "Hero"}}
	existing := actorWithStats("1000", "Hero")

	result, err := Resolve(candidate, "actors", func() (docvalue.Document, bool, error) {
		return existing, true, nil
	})
	require.NoError(t, err)
	assert.True(t, docvalue.Equal(candidate, result))
}
