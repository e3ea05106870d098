package tagdex

import "iter"

// Row is one entry with its key and tags.
type Row[T comparable] struct {
	Key   HashKey
	Entry any
	Tags  []T
}

// Rows returns an iterator over every entry in discovery order. The set of
// rows is captured when iteration starts; rows deleted during iteration are
// skipped. The iterator can be ranged over repeatedly.
func (d *Dex[T]) Rows() iter.Seq[Row[T]] {
	return func(yield func(Row[T]) bool) {
		for _, row := range d.s.rows.ToSlice() {
			e, ok := d.s.entries[row]
			if !ok {
				continue
			}
			r := Row[T]{Key: e.key, Entry: e.value, Tags: d.s.tagsOf(d.s.inverse[row])}
			if !yield(r) {
				return
			}
		}
	}
}

// Group is one tag with its entries. The synthetic group of tagless
// entries has Untagged set and a zero Tag.
type Group[T comparable] struct {
	Tag      T
	Untagged bool
	Keys     []HashKey
	Entries  []any
}

// Groups returns an iterator over every tag in creation order, empty tags
// included, followed by one Untagged group if any entry is tagless.
func (d *Dex[T]) Groups() iter.Seq[Group[T]] {
	return func(yield func(Group[T]) bool) {
		for _, tid := range d.s.tags.ToSlice() {
			tag, ok := d.s.tagVals[tid]
			if !ok {
				continue
			}
			rows := d.s.forward[tid].ToSlice()
			g := Group[T]{Tag: tag, Keys: d.s.keysOf(rows), Entries: d.s.valuesOf(rows)}
			if !yield(g) {
				return
			}
		}
		if d.s.tagless.IsEmpty() {
			return
		}
		rows := d.s.tagless.ToSlice()
		yield(Group[T]{Untagged: true, Keys: d.s.keysOf(rows), Entries: d.s.valuesOf(rows)})
	}
}
