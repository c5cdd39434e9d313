package docvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentGetSetDeletePreservesOrder(t *testing.T) {
	d := Document{{Key: "a", Value: 1}, {Key: "b", Value: 2}}
	d = d.Set("c", 3)
	assert.Equal(t, []string{"a", "b", "c"}, d.Keys())

	d = d.Set("a", 99)
	v, ok := d.Get("a")
	require.True(t, ok)
	assert.Equal(t, 99, v)
	assert.Equal(t, []string{"a", "b", "c"}, d.Keys())

	d = d.Delete("b")
	assert.Equal(t, []string{"a", "c"}, d.Keys())
}

func TestDecodeEncodeJSONRoundTrip(t *testing.T) {
	input := `{"_id":"aaa","name":"Hero","items":[{"_id":"i1","name":"Sword"}],"effects":[],"count":3}`
	v, err := DecodeJSON([]byte(input))
	require.NoError(t, err)

	doc, ok := v.(Document)
	require.True(t, ok)
	assert.Equal(t, []string{"_id", "name", "items", "effects", "count"}, doc.Keys())

	out, err := EncodeJSON(v, 0)
	require.NoError(t, err)

	roundTripped, err := DecodeJSON(out)
	require.NoError(t, err)
	assert.True(t, Equal(v, roundTripped))
}

func TestDecodeJSONPreservesNumberFormatting(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"modifiedTime":1700000000000}`))
	require.NoError(t, err)
	out, err := EncodeJSON(v, 0)
	require.NoError(t, err)
	assert.Contains(t, string(out), "1700000000000")
}

func TestYAMLRoundTrip(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"_id":"aaa","name":"Hero","items":["i1","i2"],"effects":[]}`))
	require.NoError(t, err)

	yamlBytes, err := EncodeYAML(v, 2)
	require.NoError(t, err)

	back, err := DecodeYAML(yamlBytes)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}

func TestEqualIgnoresKeyOrder(t *testing.T) {
	a := Document{{Key: "a", Value: 1}, {Key: "b", Value: 2}}
	b := Document{{Key: "b", Value: 2}, {Key: "a", Value: 1}}
	assert.True(t, Equal(a, b))
}

func TestEqualDetectsDifference(t *testing.T) {
	a := Document{{Key: "a", Value: 1}}
	b := Document{{Key: "a", Value: 2}}
	assert.False(t, Equal(a, b))
}

func TestCloneIsIndependent(t *testing.T) {
	original := Document{{Key: "items", Value: Array{"i1", "i2"}}}
	cloned := Clone(original).(Document)
	clonedArr := cloned[0].Value.(Array)
	clonedArr[0] = "changed"

	originalArr := original[0].Value.(Array)
	assert.Equal(t, "i1", originalArr[0])
}
