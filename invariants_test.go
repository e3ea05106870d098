package tagdex

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants asserts that the index containers of d agree with each
// other.
func checkInvariants[T comparable](t *testing.T, d *Dex[T]) {
	t.Helper()
	s := d.s

	require.Equal(t, s.tags.Len(), len(s.tagIDs), "tag ids")
	require.Equal(t, s.tags.Len(), len(s.tagVals), "tag values")
	require.Equal(t, s.tags.Len(), len(s.forward), "forward rows")
	require.Equal(t, s.rows.Len(), len(s.rowIDs), "row ids")
	require.Equal(t, s.rows.Len(), len(s.entries), "entries")
	require.Equal(t, s.rows.Len(), len(s.inverse), "inverse rows")

	for tag, tid := range s.tagIDs {
		require.Equal(t, tag, s.tagVals[tid])
		require.True(t, s.tags.Contains(tid))
	}
	for key, row := range s.rowIDs {
		require.Equal(t, key, s.entries[row].key)
		require.True(t, s.rows.Contains(row))
	}

	for tid, fw := range s.forward {
		fw.ForEach(func(row uint32) bool {
			require.True(t, s.rows.Contains(row), "forward row %d of tag %d is not registered", row, tid)
			require.True(t, s.inverse[row].Contains(tid), "forward link %d->%d has no inverse", tid, row)
			return true
		})
		assert.Equal(t, fw.IsEmpty(), s.emptyTags.Contains(tid), "empty tag %d", tid)
	}
	for row, inv := range s.inverse {
		inv.ForEach(func(tid uint32) bool {
			require.True(t, s.tags.Contains(tid), "inverse tag %d of row %d does not exist", tid, row)
			require.True(t, s.forward[tid].Contains(row), "inverse link %d->%d has no forward", row, tid)
			return true
		})
		assert.Equal(t, inv.IsEmpty(), s.tagless.Contains(row), "tagless row %d", row)
	}

	if d.opts.hasher == nil {
		for _, e := range s.entries {
			key, ok := d.ids.Lookup(e.value)
			require.True(t, ok, "registered entry %T has no key", e.value)
			require.Equal(t, e.key, key)
		}
	}
}

func TestInvariantsUnderRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	tags := []string{"a", "b", "c", "d", "e"}
	pick := func() []string {
		n := rng.IntN(3)
		out := make([]string, n)
		for i := range out {
			out[i] = tags[rng.IntN(len(tags))]
		}
		return out
	}
	ptrs := make([]*int, 8)
	for i := range ptrs {
		v := i
		ptrs[i] = &v
	}
	entry := func() any {
		if rng.IntN(2) == 0 {
			return rng.IntN(10)
		}
		return ptrs[rng.IntN(len(ptrs))]
	}
	opts := func() []MutationOption {
		var o []MutationOption
		if rng.IntN(2) == 0 {
			o = append(o, KeepTaglessEntries())
		}
		if rng.IntN(2) == 0 {
			o = append(o, DropEmptyTags())
		}
		return o
	}

	d := New[string]()
	for i := 0; i < 2000; i++ {
		var err error
		op := rng.IntN(10)
		switch op {
		case 0:
			_, err = d.Add(entry(), pick()...)
		case 1:
			_, err = d.Tag(entry(), pick()...)
		case 2:
			_, err = d.Untag(entry(), pick()...)
		case 3:
			_, err = d.Remove(entry(), pick(), opts()...)
		case 4:
			_, err = d.Set(tags[rng.IntN(len(tags))], Entries(entry(), entry()), opts()...)
		case 5:
			_, err = d.Drop(pick(), opts()...)
		case 6:
			_, err = d.Reset(pick(), opts()...)
		case 7:
			_, err = d.Clean(CleanOptions{Entries: rng.IntN(2) == 0, Tags: rng.IntN(2) == 0})
		case 8:
			_, err = d.AddMany([]any{entry(), entry()}, pick()...)
		case 9:
			if rng.IntN(50) == 0 {
				err = d.Clear()
			}
		}
		require.NoError(t, err, "step %d op %d", i, op)
		checkInvariants(t, d)
	}
}

func TestQueryAlgebra(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	tags := []string{"a", "b", "c", "d"}

	d := New[string]()
	for i := 0; i < 60; i++ {
		var tt []string
		for _, tag := range tags {
			if rng.IntN(3) == 0 {
				tt = append(tt, tag)
			}
		}
		_, err := d.Add(i, tt...)
		require.NoError(t, err)
	}
	checkInvariants(t, d)

	set := func(vals []any) map[any]bool {
		out := make(map[any]bool, len(vals))
		for _, v := range vals {
			out[v] = true
		}
		return out
	}
	values := func(f ...Filter[string]) []any {
		v, err := d.Values(f...)
		require.NoError(t, err)
		return v
	}

	for _, x := range tags {
		for _, y := range tags {
			t.Run(fmt.Sprintf("%s_%s", x, y), func(t *testing.T) {
				sx, sy := set(values(Any(x))), set(values(Any(y)))

				and := set(values(All(x, y)))
				for v := range sx {
					assert.Equal(t, sy[v], and[v], "and %v", v)
				}
				assert.LessOrEqual(t, len(and), len(sx))

				or := set(values(Any(x, y)))
				for v := range or {
					assert.True(t, sx[v] || sy[v], "or %v", v)
				}
				for v := range sx {
					assert.True(t, or[v])
				}
				for v := range sy {
					assert.True(t, or[v])
				}

				for _, f := range []Filter[string]{All(x, y), Any(x, y), Untagged[string](), All(x).With(Not(Any(y)))} {
					assert.Equal(t, values(f), values(Not(Not(f))))

					got := values(f)
					first, found, err := d.First(f)
					require.NoError(t, err)
					if len(got) == 0 {
						assert.False(t, found)
					} else {
						require.True(t, found)
						assert.Equal(t, got[0], first)
					}

					neg := values(Not(f))
					assert.Equal(t, d.Len(), len(got)+len(neg))

					first, found, err = d.First(Not(f))
					require.NoError(t, err)
					assert.Equal(t, len(neg) > 0, found)
					if found {
						assert.Equal(t, neg[0], first)
					}
				}
			})
		}
	}
}
