package tagdex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture:
//
//	1: a b
//	2: b c
//	3: a
//	4: c
//	5: (none)
//	6: a b c
func fixture(t *testing.T, optFns ...Option) *Dex[string] {
	t.Helper()
	d := New[string](optFns...)
	for _, tp := range []Tuple[string]{
		NewTuple(1, "a", "b"),
		NewTuple(2, "b", "c"),
		NewTuple(3, "a"),
		NewTuple(4, "c"),
		NewTuple[string](5),
		NewTuple(6, "a", "b", "c"),
	} {
		_, err := d.Add(tp.Entry, tp.Tags...)
		require.NoError(t, err)
	}
	return d
}

func TestValues(t *testing.T) {
	d := fixture(t)

	tests := []struct {
		name    string
		filters []Filter[string]
		want    []any
	}{
		{"Universe", nil, []any{1, 2, 3, 4, 5, 6}},
		{"All", []Filter[string]{All("a", "b")}, []any{1, 6}},
		{"Any", []Filter[string]{Any("a", "c")}, []any{1, 2, 3, 4, 6}},
		{"Not", []Filter[string]{Not(Any("a"))}, []any{2, 4, 5}},
		{"Untagged", []Filter[string]{Untagged[string]()}, []any{5}},
		{"Tagged", []Filter[string]{Not(Untagged[string]())}, []any{1, 2, 3, 4, 6}},
		{"EmptyAll", []Filter[string]{All[string]()}, []any{5}},
		{"TopLevelOr", []Filter[string]{All("a", "b"), Any("c")}, []any{1, 2, 4, 6}},
		{"AndWithSub", []Filter[string]{All("a").With(Not(Any("b")))}, []any{3}},
		{"OrWithSub", []Filter[string]{Any("c").With(All("a", "b"))}, []any{1, 2, 4, 6}},
		{"SubsOnly", []Filter[string]{All[string]().With(Any("a"), Any("c"))}, []any{6}},
		{"UnknownTagAnd", []Filter[string]{All("a", "zzz")}, []any{}},
		{"UnknownTagOr", []Filter[string]{Any("a", "zzz")}, []any{1, 3, 6}},
		{"AllowAnd", []Filter[string]{All("a").Allow(1, 3, 99)}, []any{1, 3}},
		{"AllowOr", []Filter[string]{Any("c").Allow(5)}, []any{2, 4, 5, 6}},
		{"AllowOnly", []Filter[string]{All[string]().Allow(2, 1)}, []any{1, 2}},
		{"AllowOnlyOr", []Filter[string]{Any[string]().Allow(3)}, []any{3}},
		{"NotAllow", []Filter[string]{Not(All[string]().Allow(1, 2, 3))}, []any{4, 5, 6}},
		{"DoubleNot", []Filter[string]{Not(Not(All("a", "b")))}, []any{1, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Values(tt.filters...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			n, err := d.Count(tt.filters...)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)

			first, found, err := d.First(tt.filters...)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want) > 0, found)
			if found {
				assert.Equal(t, tt.want[0], first)
			}

			ok, err := d.Exists(tt.filters...)
			require.NoError(t, err)
			assert.Equal(t, found, ok)
		})
	}
}

func TestInvalidQuery(t *testing.T) {
	d := fixture(t)

	bad := map[string][]Filter[string]{
		"ZeroFilter":      {{}},
		"UnknownMode":     {{Mode: Mode(7), Tags: []string{"a"}}},
		"UncomparableKey": {Any("a").Allow([]int{1})},
		"NestedInvalid":   {All("a").With(Filter[string]{})},
	}
	for name, filters := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := d.Values(filters...)
			require.ErrorIs(t, err, ErrInvalidQueryParameter)

			_, _, err = d.First(filters...)
			require.ErrorIs(t, err, ErrInvalidQueryParameter)

			_, err = d.Count(filters...)
			require.ErrorIs(t, err, ErrInvalidQueryParameter)

			var qe *QueryError
			require.ErrorAs(t, err, &qe)
		})
	}

	t.Run("UnknownShape", func(t *testing.T) {
		_, err := d.Query(Shape(0))
		require.ErrorIs(t, err, ErrInvalidQueryParameter)
	})

	t.Run("UncomparableTag", func(t *testing.T) {
		a := New[any]()
		_, err := a.Values(Any[any]([]int{1}))
		require.ErrorIs(t, err, ErrInvalidQueryParameter)
	})
}

func TestShapes(t *testing.T) {
	d := fixture(t)

	t.Run("Array", func(t *testing.T) {
		res, err := d.Query(ShapeArray, All("a"))
		require.NoError(t, err)
		assert.Equal(t, []any{1, 3, 6}, res.Values)
		assert.Equal(t, []HashKey{1, 3, 6}, res.Keys)
		assert.Equal(t, 3, res.Len())
	})

	t.Run("Set", func(t *testing.T) {
		set, err := d.Distinct(Any("b"), Any("c"))
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2, 4, 6}, set.Values())
		assert.True(t, set.Has(4))
		assert.False(t, set.Add(4, 4))

		var keys []HashKey
		for k := range set.All() {
			keys = append(keys, k)
		}
		assert.Equal(t, set.Keys(), keys)
	})

	t.Run("Dex", func(t *testing.T) {
		sub, err := d.Filter(All("a"))
		require.NoError(t, err)
		checkInvariants(t, sub)

		got, err := sub.Values()
		require.NoError(t, err)
		assert.Equal(t, []any{1, 3, 6}, got)
		assert.Equal(t, []string{"a", "b", "c"}, sub.Tags())

		tags, ok := sub.TagsOf(6)
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b", "c"}, tags)

		_, err = sub.Add(99, "z")
		require.NoError(t, err)
		assert.False(t, d.Contains(99))
	})

	t.Run("DexKeepsComplexKeys", func(t *testing.T) {
		c := New[string]()
		v := 1
		p := &v
		added, err := c.Add(p, "x")
		require.NoError(t, err)

		sub, err := c.Filter(Any("x"))
		require.NoError(t, err)
		key, err := sub.Hash(p)
		require.NoError(t, err)
		assert.Equal(t, added.Key, key)
		checkInvariants(t, sub)
	})

	t.Run("First", func(t *testing.T) {
		res, err := d.Query(ShapeFirst, Any("c"))
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, 2, res.First)
		assert.Equal(t, 2, res.FirstKey)

		res, err = d.Query(ShapeFirst, All("zzz"))
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Equal(t, 0, res.Len())
	})

	t.Run("Find", func(t *testing.T) {
		assert.Equal(t, []any{1, 2, 3, 6}, d.Find("a", "b"))
		assert.Equal(t, []any{5}, d.Find())
	})
}

func TestDiscoveryOrder(t *testing.T) {
	d := New[string]()
	_, err := d.Add("z", "t")
	require.NoError(t, err)
	_, err = d.Add("a", "t")
	require.NoError(t, err)
	_, err = d.Add("m", "u")
	require.NoError(t, err)
	_, err = d.Tag("m", "t")
	require.NoError(t, err)

	got, err := d.Values(Any("t"))
	require.NoError(t, err)
	assert.Equal(t, []any{"z", "a", "m"}, got)
}

func TestChain(t *testing.T) {
	d := fixture(t)

	got, err := d.Chain().Values("a", "c")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3, 4, 6}, got)

	got, err = d.Chain().And().Values("a", "b")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 6}, got)

	got, err = d.Chain().And().Or().Values("a", "b")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3, 6}, got)

	got, err = d.Chain().Not().Not().And().Values("a", "b")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 6}, got)

	got, err = d.Chain().Not().Values("a")
	require.NoError(t, err)
	assert.Equal(t, []any{2, 4, 5}, got)

	got, err = d.Chain().Values()
	require.NoError(t, err)
	assert.Equal(t, []any{5}, got)

	got, err = d.Chain().Not().Values()
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3, 4, 6}, got)

	got, err = d.Chain().And().Where(Not(Any("c"))).Values("a")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 3}, got)

	c := d.Chain().And()
	n, err := c.Count("a")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = c.Count("a", "c")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "toggles persist across terminals")

	first, found, err := d.Chain().First("c")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, first)

	ok, err := d.Chain().And().Exists("a", "zzz")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := d.Chain().Keys("b")
	require.NoError(t, err)
	assert.Equal(t, []HashKey{1, 2, 6}, keys)

	sub, err := d.Chain().Dex("c")
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Len())
}
