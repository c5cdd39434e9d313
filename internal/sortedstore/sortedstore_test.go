package sortedstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
)

func TestOpenMissingWithoutCreateIsError(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing"), false)
	assert.Error(t, err)
}

func TestPutGetForEachRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, true)
	require.NoError(t, err)
	defer store.Close()

	batch := NewBatch()
	require.NoError(t, batch.Put("!actors!aaa", docvalue.Document{{Key: "_id", Value: "aaa"}, {Key: "name", Value: "Hero"}}))
	require.NoError(t, batch.Put("!actors!bbb", docvalue.Document{{Key: "_id", Value: "bbb"}, {Key: "name", Value: "Villain"}}))
	require.NoError(t, store.Write(batch))

	v, found, err := store.Get("!actors!aaa")
	require.NoError(t, err)
	require.True(t, found)
	name, _ := v.(docvalue.Document).Get("name")
	assert.Equal(t, "Hero", name)

	_, found, err = store.Get("!actors!zzz")
	require.NoError(t, err)
	assert.False(t, found)

	var keys []string
	require.NoError(t, store.ForEach(func(e Entry) error {
		keys = append(keys, e.Key)
		return nil
	}))
	assert.Equal(t, []string{"!actors!aaa", "!actors!bbb"}, keys)
}

func TestGetManyOmitsMissing(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, true)
	require.NoError(t, err)
	defer store.Close()

	batch := NewBatch()
	require.NoError(t, batch.Put("!actors!aaa", docvalue.Document{{Key: "_id", Value: "aaa"}}))
	require.NoError(t, store.Write(batch))

	out, err := store.GetMany([]string{"!actors!aaa", "!actors!missing"})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	_, ok := out["!actors!aaa"]
	assert.True(t, ok)
}

func TestSmallestAndLargestKey(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, true)
	require.NoError(t, err)
	defer store.Close()

	batch := NewBatch()
	require.NoError(t, batch.Put("!actors!bbb", docvalue.Document{{Key: "_id", Value: "bbb"}}))
	require.NoError(t, batch.Put("!actors!aaa", docvalue.Document{{Key: "_id", Value: "aaa"}}))
	require.NoError(t, store.Write(batch))

	lo, ok, err := store.SmallestKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "!actors!aaa", lo)

	hi, ok, err := store.LargestKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "!actors!bbb", hi)
}

func TestSmallestKeyEmptyStore(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, true)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.SmallestKey()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRemovesEntry(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, true)
	require.NoError(t, err)
	defer store.Close()

	batch := NewBatch()
	require.NoError(t, batch.Put("!actors!aaa", docvalue.Document{{Key: "_id", Value: "aaa"}}))
	require.NoError(t, store.Write(batch))

	del := NewBatch()
	del.Delete("!actors!aaa")
	require.NoError(t, store.Write(del))

	_, found, err := store.Get("!actors!aaa")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCompactAfterRewriteOnEmptyStoreIsNoop(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, true)
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.CompactAfterRewrite())
}

func TestRepairRecoversAnOpenableStore(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, true)
	require.NoError(t, err)
	batch := NewBatch()
	require.NoError(t, batch.Put("!actors!aaa", docvalue.Document{{Key: "_id", Value: "aaa"}}))
	require.NoError(t, store.Write(batch))
	require.NoError(t, store.Close())

	require.NoError(t, Repair(dir))

	reopened, err := Open(dir, false)
	require.NoError(t, err)
	defer reopened.Close()

	_, found, err := reopened.Get("!actors!aaa")
	require.NoError(t, err)
	assert.True(t, found)
}
