package tagdex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	d := New[string]()

	res, err := d.Add("x", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, AddResult{Key: "x", Created: true, TagCount: 2}, res)

	res, err = d.Add("x", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, AddResult{Key: "x", Created: false, TagCount: 2}, res)

	res, err = d.Add("x", "c")
	require.NoError(t, err)
	assert.Equal(t, 3, res.TagCount)

	checkInvariants(t, d)
}

func TestAddMany(t *testing.T) {
	d := New[string]()
	v := 1
	p := &v

	keys, err := d.AddMany([]any{"x", p, "x"}, "a")
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, "x", keys[0])
	assert.Equal(t, keys[0], keys[2])
	assert.Equal(t, 2, d.Len())

	_, err = d.AddMany([]any{"y", nil}, "b")
	require.ErrorIs(t, err, ErrInvalidEntry)
	assert.False(t, d.Contains("y"))
	assert.False(t, d.Has("b"))

	checkInvariants(t, d)
}

func TestSet(t *testing.T) {
	t.Run("Replace", func(t *testing.T) {
		d := New[string]()

		n, err := d.Set("t", Entries(1, 2, 3))
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		n, err = d.Set("t", Entries(2, 4))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := d.Values(Any("t"))
		require.NoError(t, err)
		assert.Equal(t, []any{2, 4}, got)
		assert.False(t, d.Contains(1))
		assert.False(t, d.Contains(3))
		checkInvariants(t, d)
	})

	t.Run("KeepTaglessEntries", func(t *testing.T) {
		d := New[string]()
		_, err := d.Set("t", Entries(1, 2))
		require.NoError(t, err)

		n, err := d.Set("t", Entries(2), KeepTaglessEntries())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.True(t, d.Contains(1))
		assert.Equal(t, []any{1}, d.Find())
		checkInvariants(t, d)
	})

	t.Run("EntriesKeepOtherTags", func(t *testing.T) {
		d := New[string]()
		_, err := d.Add(1, "t", "u")
		require.NoError(t, err)

		_, err = d.Set("t", NoEntries())
		require.NoError(t, err)
		assert.True(t, d.Contains(1))
		tags, _ := d.TagsOf(1)
		assert.Equal(t, []string{"u"}, tags)
		checkInvariants(t, d)
	})

	t.Run("NoEntries", func(t *testing.T) {
		d := New[string]()
		_, err := d.Set("t", Entries(1, 2))
		require.NoError(t, err)

		n, err := d.Set("t", NoEntries(), DropEmptyTags())
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.True(t, d.Has("t"))
		assert.Equal(t, 0, d.Len())
		checkInvariants(t, d)
	})

	t.Run("EnsureTag", func(t *testing.T) {
		d := New[string]()
		_, err := d.Set("t", Entries(1))
		require.NoError(t, err)

		n, err := d.Set("t", EnsureTag())
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = d.Set("fresh", EnsureTag())
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.True(t, d.Has("fresh"))
	})

	t.Run("SetManyUnionCount", func(t *testing.T) {
		d := New[string]()
		_, err := d.Add(9, "b")
		require.NoError(t, err)

		n, err := d.SetMany([]string{"a", "b"}, Entries(1, 2))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.False(t, d.Contains(9))

		got, err := d.Values(All("a", "b"))
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2}, got)
		checkInvariants(t, d)
	})

	t.Run("InvalidEntryAbortsBeforeMutation", func(t *testing.T) {
		d := New[string]()
		_, err := d.Set("t", Entries(1, nil))
		require.ErrorIs(t, err, ErrInvalidEntry)
		assert.False(t, d.Has("t"))
		assert.Equal(t, 0, d.Len())
	})
}

func TestTagUntag(t *testing.T) {
	d := New[string]()
	_, err := d.Add("x", "a")
	require.NoError(t, err)

	res, err := d.Tag("x", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, LinkResult{Found: true, TagCount: 3}, res)

	res, err = d.Tag("missing", "a")
	require.NoError(t, err)
	assert.Equal(t, LinkResult{}, res)
	assert.False(t, d.Contains("missing"))

	res, err = d.Untag("x", "a", "unknown")
	require.NoError(t, err)
	assert.Equal(t, LinkResult{Found: true, TagCount: 2}, res)

	res, err = d.Untag("x")
	require.NoError(t, err)
	assert.Equal(t, LinkResult{Found: true, TagCount: 0}, res)
	assert.True(t, d.Contains("x"))
	assert.Equal(t, []string{"a", "b", "c"}, d.EmptyTags())

	_, err = d.Untag(nil)
	require.ErrorIs(t, err, ErrInvalidEntry)

	checkInvariants(t, d)
}

func TestRemove(t *testing.T) {
	t.Run("Partial", func(t *testing.T) {
		d := New[string]()
		_, err := d.Add("x", "a", "b")
		require.NoError(t, err)

		res, err := d.Remove("x", []string{"a"})
		require.NoError(t, err)
		assert.Equal(t, RemoveResult{TagCount: 1}, res)
		assert.True(t, d.Has("a"))
		checkInvariants(t, d)
	})

	t.Run("AllTags", func(t *testing.T) {
		d := New[string]()
		_, err := d.Add("x", "a", "b")
		require.NoError(t, err)

		res, err := d.Remove("x", nil)
		require.NoError(t, err)
		assert.Equal(t, RemoveResult{Removed: true}, res)
		assert.Equal(t, []string{"a", "b"}, d.EmptyTags())
		checkInvariants(t, d)
	})

	t.Run("KeepTagless", func(t *testing.T) {
		d := New[string]()
		_, err := d.Add("x", "a")
		require.NoError(t, err)

		res, err := d.Remove("x", nil, KeepTaglessEntries(), DropEmptyTags())
		require.NoError(t, err)
		assert.Equal(t, RemoveResult{}, res)
		assert.True(t, d.Contains("x"))
		assert.False(t, d.Has("a"))
		checkInvariants(t, d)
	})

	t.Run("ByKey", func(t *testing.T) {
		d := New[string]()
		v := 1
		add, err := d.Add(&v, "a")
		require.NoError(t, err)

		res, err := d.RemoveKey(add.Key, nil)
		require.NoError(t, err)
		assert.True(t, res.Removed)
		assert.Equal(t, 0, d.ids.Len())

		res, err = d.RemoveKey(add.Key, nil)
		require.NoError(t, err)
		assert.False(t, res.Removed)
	})

	t.Run("Missing", func(t *testing.T) {
		d := New[string]()
		res, err := d.Remove("nope", nil)
		require.NoError(t, err)
		assert.Equal(t, RemoveResult{}, res)
	})
}

func TestDropReset(t *testing.T) {
	build := func(t *testing.T) *Dex[string] {
		d := New[string]()
		_, err := d.Add(1, "a")
		require.NoError(t, err)
		_, err = d.Add(2, "a", "b")
		require.NoError(t, err)
		return d
	}

	t.Run("Drop", func(t *testing.T) {
		d := build(t)
		dropped, err := d.Drop([]string{"a", "zzz"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, dropped)
		assert.False(t, d.Has("a"))
		assert.False(t, d.Contains(1))
		assert.True(t, d.Contains(2))
		checkInvariants(t, d)
	})

	t.Run("DropKeepTagless", func(t *testing.T) {
		d := build(t)
		_, err := d.Drop([]string{"a"}, KeepTaglessEntries())
		require.NoError(t, err)
		assert.True(t, d.Contains(1))
		assert.Equal(t, []any{1}, d.Find())
		checkInvariants(t, d)
	})

	t.Run("Reset", func(t *testing.T) {
		d := build(t)
		cleared, err := d.Reset([]string{"a", "zzz"}, DropEmptyTags())
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, cleared)
		assert.True(t, d.Has("a"))
		assert.Equal(t, []string{"a"}, d.EmptyTags())
		assert.False(t, d.Contains(1))
		assert.True(t, d.Contains(2))
		checkInvariants(t, d)
	})

	t.Run("Idempotent", func(t *testing.T) {
		d := build(t)
		_, err := d.Drop([]string{"a"})
		require.NoError(t, err)
		s := d.Stats()

		dropped, err := d.Drop([]string{"a"})
		require.NoError(t, err)
		assert.Empty(t, dropped)
		assert.Equal(t, s, d.Stats())
	})
}

func TestClean(t *testing.T) {
	d := New[string]()
	_, err := d.Add("lonely")
	require.NoError(t, err)
	_, err = d.Add("x", "a")
	require.NoError(t, err)
	_, err = d.Set("empty", EnsureTag())
	require.NoError(t, err)

	res, err := d.Clean(CleanOptions{Tags: true})
	require.NoError(t, err)
	assert.Equal(t, CleanResult{TagsRemoved: 1}, res)
	assert.True(t, d.Contains("lonely"))

	_, err = d.Set("empty", EnsureTag())
	require.NoError(t, err)
	res, err = d.Clean(CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, CleanResult{EntriesRemoved: 1, TagsRemoved: 1}, res)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, []string{"a"}, d.Tags())
	checkInvariants(t, d)
}

func TestClear(t *testing.T) {
	d := New[string]()
	v := 1
	p := &v
	k1, err := d.Add(p, "a")
	require.NoError(t, err)
	_, err = d.Add("x", "b")
	require.NoError(t, err)

	require.NoError(t, d.Clear())
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0, d.TagCount())
	assert.Equal(t, 0, d.ids.Len())

	k2, err := d.Add(p, "a")
	require.NoError(t, err)
	assert.NotEqual(t, k1.Key, k2.Key)
	checkInvariants(t, d)
}
