package adventure

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
)

func sampleAdventure() docvalue.Document {
	return docvalue.Document{
		{Key: "_id", Value: "adv1"},
		{Key: "name", Value: "Intro"},
		{Key: "actors", Value: docvalue.Array{
			docvalue.Document{{Key: "_id", Value: "a1"}, {Key: "name", Value: "Goblin"}},
		}},
		{Key: "items", Value: docvalue.Array{
			docvalue.Document{{Key: "_id", Value: "i1"}, {Key: "name", Value: "Sword"}},
		}},
	}
}

func TestExpandPlainModeProducesBareFilenames(t *testing.T) {
	updated, files, err := Expand(sampleAdventure(), "json", false)
	require.NoError(t, err)
	require.Len(t, files, 2)

	actors, _ := updated.Get("actors")
	assert.Equal(t, docvalue.Array{"Goblin_a1.json"}, actors)

	items, _ := updated.Get("items")
	assert.Equal(t, docvalue.Array{"Sword_i1.json"}, items)
}

func TestExpandFoldersModeNestsByCollection(t *testing.T) {
	updated, files, err := Expand(sampleAdventure(), "json", true)
	require.NoError(t, err)
	require.Len(t, files, 2)

	actors, _ := updated.Get("actors")
	assert.Equal(t, docvalue.Array{filepath.Join("actors", "Goblin_a1.json")}, actors)

	for _, f := range files {
		if f.Collection == "actors" {
			assert.Equal(t, filepath.Join("actors", "Goblin_a1.json"), f.RelPath)
		}
	}
}

func TestExpandLeavesAlreadyExpandedEntriesUntouched(t *testing.T) {
	adv := docvalue.Document{
		{Key: "_id", Value: "adv1"},
		{Key: "name", Value: "Intro"},
		{Key: "actors", Value: docvalue.Array{"Goblin_a1.json"}},
	}
	updated, files, err := Expand(adv, "json", false)
	require.NoError(t, err)
	assert.Empty(t, files)
	actors, _ := updated.Get("actors")
	assert.Equal(t, docvalue.Array{"Goblin_a1.json"}, actors)
}

func TestCollapseResolvesFilePathsBackToDocuments(t *testing.T) {
	expanded, files, err := Expand(sampleAdventure(), "json", false)
	require.NoError(t, err)

	byPath := make(map[string]docvalue.Document)
	for _, f := range files {
		byPath[f.RelPath] = f.Doc
	}

	collapsed, err := Collapse(expanded, func(relPath string) (docvalue.Document, error) {
		doc, ok := byPath[relPath]
		if !ok {
			return nil, fmt.Errorf("not found: %s", relPath)
		}
		return doc, nil
	})
	require.NoError(t, err)
	assert.True(t, docvalue.Equal(sampleAdventure(), collapsed))
}

func TestBaseDirCombinesSafeNameAndID(t *testing.T) {
	adv := docvalue.Document{{Key: "name", Value: "Intro Quest"}}
	assert.Equal(t, "Intro_Quest_adv1", BaseDir(adv, "adv1"))
}
