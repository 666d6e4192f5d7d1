package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeChangesetCanonical(t *testing.T) {
	cs := NewChangeset().WithRemove("b").WithInsert("a", "alpha", 0)

	data, err := EncodeChangeset(cs)
	require.NoError(t, err)
	assert.Equal(t, `{"insert":[{"id":"a","index":0,"model":"alpha"}],"remove":["b"]}`, string(data))
}

func TestDecodeChangeset(t *testing.T) {
	cs := NewChangeset().
		WithRemove("b").
		WithRemoveAt(3).
		WithInsert("a", "alpha", 0).
		WithUpdate("c", int64(42)).
		WithMove(1, 2).
		WithReloadAll().
		WithConfiguration(NewConfiguration(nil, SizeRange{Max: Size{Width: 40}}))

	data, err := EncodeChangeset(cs)
	require.NoError(t, err)

	var gotRange SizeRange
	decoded, err := DecodeChangeset(data, func(r SizeRange) *Configuration {
		gotRange = r
		return NewConfiguration(nil, r)
	})
	require.NoError(t, err)

	assert.Equal(t, []ItemID{"b"}, decoded.Removals)
	assert.Equal(t, []int{3}, decoded.RemovedIndexes)
	assert.Equal(t, []Insertion{{ID: "a", Model: "alpha", Index: 0}}, decoded.Insertions)
	assert.Equal(t, []Update{{ID: "c", Model: int64(42)}}, decoded.Updates)
	assert.Equal(t, []Move{{From: 1, To: 2}}, decoded.Moves)
	assert.True(t, decoded.ReloadAll)
	assert.Equal(t, 40, gotRange.Max.Width)
	require.NotNil(t, decoded.Configuration)

	// Re-encoding yields identical bytes.
	again, err := EncodeChangeset(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestDecodeChangesetReplaceAll(t *testing.T) {
	cs := NewChangeset().WithReplaceAll()
	data, err := EncodeChangeset(cs)
	require.NoError(t, err)
	assert.Equal(t, `{"replace_all":[]}`, string(data))

	decoded, err := DecodeChangeset(data, nil)
	require.NoError(t, err)
	assert.True(t, decoded.Replace, "an empty replace-all still clears the list")
	assert.Empty(t, decoded.ReplaceAll)
}

func TestDecodeChangesetRejectsUnknownFields(t *testing.T) {
	_, err := DecodeChangeset([]byte(`{"explode":true}`), nil)
	require.Error(t, err)
}
