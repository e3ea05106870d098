package tagdex

import (
	"time"

	"github.com/hupe1980/tagdex/internal/identity"
)

// Dex is an in-memory tagged collection: a set of entries, each linked to
// zero or more tags of type T.
//
// Entries and tags exist independently of their links: an entry may be
// tagless and a tag may be empty, and both are distinguishable from never
// having existed.
//
// A Dex is not safe for concurrent use. Confine it to one goroutine or guard
// it with external mutual exclusion.
type Dex[T comparable] struct {
	s    *store[T]
	ids  *identity.Resolver
	opts options
}

// New creates an empty collection.
func New[T comparable](optFns ...Option) *Dex[T] {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dex[T]{
		s:    newStore[T](opts.interceptors),
		ids:  identity.NewResolver(),
		opts: opts,
	}
}

// FromTuples creates a collection seeded with entry+tags tuples.
func FromTuples[T comparable](tuples []Tuple[T], optFns ...Option) (*Dex[T], error) {
	d := New[T](optFns...)
	if _, err := d.ImportTuples(tuples...); err != nil {
		return nil, err
	}
	return d, nil
}

// FromTagMap creates a collection seeded from a tag -> entries map.
func FromTagMap[T comparable](m map[T][]any, optFns ...Option) (*Dex[T], error) {
	d := New[T](optFns...)
	if err := d.ImportTagMap(m); err != nil {
		return nil, err
	}
	return d, nil
}

// FromTags creates a collection holding the given empty tags.
func FromTags[T comparable](tags []T, optFns ...Option) (*Dex[T], error) {
	d := New[T](optFns...)
	if _, err := d.SetMany(tags, EnsureTag()); err != nil {
		return nil, err
	}
	return d, nil
}

// FromDex creates a deep snapshot of src. It is equivalent to src.Copy.
func FromDex[T comparable](src *Dex[T], optFns ...Option) *Dex[T] {
	return src.Copy(optFns...)
}

// Copy returns a deep snapshot of the collection. Index containers are
// copied while entry values are shared by reference.
//
// The copy inherits hasher, entry guard, logger and metrics, but no
// interceptors; optFns are applied on top. A copy of a read-only
// collection is therefore mutable.
func (d *Dex[T]) Copy(optFns ...Option) *Dex[T] {
	opts := d.opts.withoutInterceptors()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dex[T]{
		s:    d.s.clone(opts.interceptors),
		ids:  d.ids.Clone(),
		opts: opts,
	}
}

// empty returns a new collection with the same configuration and no
// interceptors.
func (d *Dex[T]) empty() *Dex[T] {
	opts := d.opts.withoutInterceptors()
	return &Dex[T]{
		s:    newStore[T](nil),
		ids:  identity.NewResolver(),
		opts: opts,
	}
}

// Len returns the number of entries.
func (d *Dex[T]) Len() int { return d.s.rows.Len() }

// TagCount returns the number of tags.
func (d *Dex[T]) TagCount() int { return d.s.tags.Len() }

// Has reports whether tag exists, even if empty.
func (d *Dex[T]) Has(tag T) bool {
	_, ok := d.s.tagID(tag)
	return ok
}

// Contains reports whether entryOrKey is a registered hash key or a
// registered entry. It never memoizes keys.
func (d *Dex[T]) Contains(entryOrKey any) bool {
	if identity.ValidKey(entryOrKey) {
		if _, ok := d.s.rowOf(entryOrKey); ok {
			return true
		}
	}
	_, ok := d.lookup(entryOrKey)
	return ok
}

// ContainsKey reports whether key is registered.
func (d *Dex[T]) ContainsKey(key HashKey) bool {
	if !identity.ValidKey(key) {
		return false
	}
	_, ok := d.s.rowOf(key)
	return ok
}

// Get returns the entry registered under key.
func (d *Dex[T]) Get(key HashKey) (any, bool) {
	if !identity.ValidKey(key) {
		return nil, false
	}
	row, ok := d.s.rowOf(key)
	if !ok {
		return nil, false
	}
	return d.s.entries[row].value, true
}

// Tags returns every tag in creation order.
func (d *Dex[T]) Tags() []T {
	return d.s.tagsOf(d.s.tags)
}

// EmptyTags returns the tags linked to no entries, in creation order.
func (d *Dex[T]) EmptyTags() []T {
	return d.s.tagsOf(d.s.emptyTags)
}

// TagsOf returns the tags of entry in creation order. ok is false if the
// entry is not registered.
func (d *Dex[T]) TagsOf(entry any) (tags []T, ok bool) {
	row, ok := d.lookup(entry)
	if !ok {
		return nil, false
	}
	return d.s.tagsOf(d.s.inverse[row]), true
}

// TagsOfKey returns the tags of the entry registered under key.
func (d *Dex[T]) TagsOfKey(key HashKey) (tags []T, ok bool) {
	if !identity.ValidKey(key) {
		return nil, false
	}
	row, ok := d.s.rowOf(key)
	if !ok {
		return nil, false
	}
	return d.s.tagsOf(d.s.inverse[row]), true
}

// EntryCount returns the number of entries linked to tag. ok is false if
// the tag does not exist.
func (d *Dex[T]) EntryCount(tag T) (n int, ok bool) {
	tid, ok := d.s.tagID(tag)
	if !ok {
		return 0, false
	}
	return d.s.forward[tid].Len(), true
}

// Stats summarizes the collection.
type Stats struct {
	Entries        int
	Tags           int
	TaglessEntries int
	EmptyTags      int
	Links          int
}

// Stats returns counts of entries, tags and links.
func (d *Dex[T]) Stats() Stats {
	links := 0
	for _, f := range d.s.forward {
		links += f.Len()
	}
	return Stats{
		Entries:        d.s.rows.Len(),
		Tags:           d.s.tags.Len(),
		TaglessEntries: d.s.tagless.Len(),
		EmptyTags:      d.s.emptyTags.Len(),
		Links:          links,
	}
}

// mutate runs fn as one atomic mutation and records it.
func (d *Dex[T]) mutate(op string, fn func() error) error {
	start := time.Now()
	evicted, undone, err := d.s.atomic(fn)
	if undone > 0 {
		d.opts.logger.LogRollback(op, undone, err)
		d.opts.metrics.RecordRollback(op)
	}
	for _, e := range evicted {
		if _, ok := d.s.rowOf(e.key); !ok {
			d.ids.Forget(e.value)
		}
	}
	d.opts.metrics.RecordMutation(op, time.Since(start), err)
	d.opts.logger.LogMutation(op, err)
	return err
}
