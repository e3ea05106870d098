package tagdex

import (
	"iter"
	"time"

	"github.com/hupe1980/tagdex/internal/bitmap"
)

// Shape selects how query matches are materialized.
type Shape uint8

const (
	// ShapeArray materializes matches as an ordered list.
	ShapeArray Shape = iota + 1
	// ShapeSet materializes matches as an EntrySet.
	ShapeSet
	// ShapeDex materializes matches as a new collection holding the matched
	// entries with all of their tags.
	ShapeDex
	// ShapeFirst returns only the first match in discovery order.
	ShapeFirst
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeSet:
		return "set"
	case ShapeDex:
		return "dex"
	case ShapeFirst:
		return "first"
	default:
		return "invalid"
	}
}

// Result holds the materialized matches of one query. Only the fields of
// the requested Shape are populated.
type Result[T comparable] struct {
	Shape Shape

	// ShapeArray
	Values []any
	Keys   []HashKey

	// ShapeSet
	Set *EntrySet

	// ShapeDex
	Dex *Dex[T]

	// ShapeFirst
	First    any
	FirstKey HashKey
	Found    bool
}

// Len returns the number of matches held by r.
func (r Result[T]) Len() int {
	switch r.Shape {
	case ShapeArray:
		return len(r.Values)
	case ShapeSet:
		return r.Set.Len()
	case ShapeDex:
		return r.Dex.Len()
	case ShapeFirst:
		if r.Found {
			return 1
		}
	}
	return 0
}

// Query evaluates filters and materializes the matches in shape. Top-level
// filters OR together; without filters every entry matches.
//
// Invalid filters and unknown shapes are rejected with
// ErrInvalidQueryParameter before the index is read.
func (d *Dex[T]) Query(shape Shape, filters ...Filter[T]) (Result[T], error) {
	start := time.Now()
	res, err := d.query(shape, filters)
	n := res.Len()
	d.opts.metrics.RecordQuery(shape, n, time.Since(start), err)
	d.opts.logger.LogQuery(shape, len(filters), n, err)
	return res, err
}

func (d *Dex[T]) query(shape Shape, filters []Filter[T]) (Result[T], error) {
	if shape < ShapeArray || shape > ShapeFirst {
		return Result[T]{}, invalidQuery("unknown shape %d", shape)
	}
	nodes, err := d.compileAll(filters)
	if err != nil {
		return Result[T]{}, err
	}

	res := Result[T]{Shape: shape}
	if shape == ShapeFirst {
		if row, ok := d.firstOf(nodes); ok {
			e := d.s.entries[row]
			res.First, res.FirstKey, res.Found = e.value, e.key, true
		}
		return res, nil
	}

	rows := d.match(nodes)
	switch shape {
	case ShapeArray:
		res.Values, res.Keys = d.materialize(rows)
	case ShapeSet:
		res.Set = newEntrySet(rows.Len())
		rows.ForEach(func(row uint32) bool {
			e := d.s.entries[row]
			res.Set.Add(e.key, e.value)
			return true
		})
	case ShapeDex:
		res.Dex = d.project(rows)
	}
	return res, nil
}

func (d *Dex[T]) materialize(rows *bitmap.Bitmap) ([]any, []HashKey) {
	values := make([]any, 0, rows.Len())
	keys := make([]HashKey, 0, rows.Len())
	rows.ForEach(func(row uint32) bool {
		e := d.s.entries[row]
		values = append(values, e.value)
		keys = append(keys, e.key)
		return true
	})
	return values, keys
}

// project copies rows, with their full tag sets and keys, into a new
// collection of the same configuration. Only tags linked to a copied row
// are created.
func (d *Dex[T]) project(rows *bitmap.Bitmap) *Dex[T] {
	out := d.empty()
	s := out.s
	tids := bitmap.New()
	rows.ForEach(func(row uint32) bool {
		tids.Or(d.s.inverse[row])
		return true
	})
	tids.ForEach(func(tid uint32) bool {
		s.insertTag(s.nextTag, d.s.tagVals[tid])
		s.nextTag++
		return true
	})
	rows.ForEach(func(row uint32) bool {
		e := d.s.entries[row]
		dst := s.nextRow
		s.insertEntry(dst, e.key, e.value)
		s.nextRow++
		out.ids.Adopt(e.value, e.key)
		d.s.inverse[row].ForEach(func(tid uint32) bool {
			s.link(s.tagIDs[d.s.tagVals[tid]], dst)
			return true
		})
		return true
	})
	return out
}

// Values returns the matched entries in discovery order.
func (d *Dex[T]) Values(filters ...Filter[T]) ([]any, error) {
	res, err := d.Query(ShapeArray, filters...)
	return res.Values, err
}

// Keys returns the keys of the matched entries in discovery order.
func (d *Dex[T]) Keys(filters ...Filter[T]) ([]HashKey, error) {
	res, err := d.Query(ShapeArray, filters...)
	return res.Keys, err
}

// Distinct returns the matched entries as an EntrySet.
func (d *Dex[T]) Distinct(filters ...Filter[T]) (*EntrySet, error) {
	res, err := d.Query(ShapeSet, filters...)
	return res.Set, err
}

// Filter returns a new collection holding the matched entries with all of
// their tags.
func (d *Dex[T]) Filter(filters ...Filter[T]) (*Dex[T], error) {
	res, err := d.Query(ShapeDex, filters...)
	return res.Dex, err
}

// First returns the first match in discovery order.
func (d *Dex[T]) First(filters ...Filter[T]) (entry any, found bool, err error) {
	res, err := d.Query(ShapeFirst, filters...)
	return res.First, res.Found, err
}

// Exists reports whether anything matches.
func (d *Dex[T]) Exists(filters ...Filter[T]) (bool, error) {
	_, found, err := d.First(filters...)
	return found, err
}

// Count returns the number of matches.
func (d *Dex[T]) Count(filters ...Filter[T]) (int, error) {
	start := time.Now()
	var n int
	nodes, err := d.compileAll(filters)
	if err == nil {
		n = d.match(nodes).Len()
	}
	d.opts.metrics.RecordQuery(ShapeSet, n, time.Since(start), err)
	d.opts.logger.LogQuery(ShapeSet, len(filters), n, err)
	return n, err
}

// compileAll validates filters and compiles each against the current index.
func (d *Dex[T]) compileAll(filters []Filter[T]) ([]*node, error) {
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	nodes := make([]*node, len(filters))
	for i, f := range filters {
		nodes[i] = d.compile(f)
	}
	return nodes, nil
}

// Find returns the entries linked to any of tags, in discovery order.
// Without tags it returns the tagless entries.
func (d *Dex[T]) Find(tags ...T) []any {
	values, _ := d.Values(Any(tags...))
	return values
}

// -----------------------------------------------------------------------------
// EntrySet
// -----------------------------------------------------------------------------

// EntrySet is a set of entries deduplicated by hash key. It preserves
// insertion order.
type EntrySet struct {
	keys []HashKey
	vals map[HashKey]any
}

// NewEntrySet creates an empty set.
func NewEntrySet() *EntrySet { return newEntrySet(0) }

func newEntrySet(n int) *EntrySet {
	return &EntrySet{
		keys: make([]HashKey, 0, n),
		vals: make(map[HashKey]any, n),
	}
}

// Add inserts entry under key. It reports whether key was new.
func (s *EntrySet) Add(key HashKey, entry any) bool {
	if _, ok := s.vals[key]; ok {
		return false
	}
	s.keys = append(s.keys, key)
	s.vals[key] = entry
	return true
}

// Has reports whether key is in the set.
func (s *EntrySet) Has(key HashKey) bool {
	_, ok := s.vals[key]
	return ok
}

// Get returns the entry stored under key.
func (s *EntrySet) Get(key HashKey) (any, bool) {
	v, ok := s.vals[key]
	return v, ok
}

// Len returns the number of entries.
func (s *EntrySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s *EntrySet) Keys() []HashKey {
	return append([]HashKey(nil), s.keys...)
}

// Values returns the entries in insertion order.
func (s *EntrySet) Values() []any {
	out := make([]any, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.vals[k]
	}
	return out
}

// All returns an iterator over key/entry pairs in insertion order.
func (s *EntrySet) All() iter.Seq2[HashKey, any] {
	return func(yield func(HashKey, any) bool) {
		for _, k := range s.keys {
			if !yield(k, s.vals[k]) {
				return
			}
		}
	}
}
