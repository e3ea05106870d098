package tagdex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows(t *testing.T) {
	d := fixture(t)

	var (
		keys []HashKey
		six  Row[string]
	)
	for r := range d.Rows() {
		keys = append(keys, r.Key)
		if r.Entry == 6 {
			six = r
		}
	}
	assert.Equal(t, []HashKey{1, 2, 3, 4, 5, 6}, keys)
	assert.Equal(t, []string{"a", "b", "c"}, six.Tags)

	n := 0
	for range d.Rows() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)

	var seen []HashKey
	for r := range d.Rows() {
		seen = append(seen, r.Key)
		if r.Key == 1 {
			_, err := d.Remove(2, nil)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, []HashKey{1, 3, 4, 5, 6}, seen)
}

func TestGroups(t *testing.T) {
	d := fixture(t)
	_, err := d.Set("empty", EnsureTag())
	require.NoError(t, err)

	var groups []Group[string]
	for g := range d.Groups() {
		groups = append(groups, g)
	}
	require.Len(t, groups, 5)

	assert.Equal(t, "a", groups[0].Tag)
	assert.Equal(t, []any{1, 3, 6}, groups[0].Entries)
	assert.Equal(t, "empty", groups[3].Tag)
	assert.Empty(t, groups[3].Entries)

	last := groups[4]
	assert.True(t, last.Untagged)
	assert.Equal(t, []HashKey{5}, last.Keys)
	assert.Equal(t, []any{5}, last.Entries)

	_, err = d.Clean(CleanOptions{Entries: true})
	require.NoError(t, err)
	n := 0
	for g := range d.Groups() {
		assert.False(t, g.Untagged)
		n++
	}
	assert.Equal(t, 4, n)
}
