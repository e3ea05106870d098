package tagdex

import (
	"reflect"

	"github.com/hupe1980/tagdex/internal/bitmap"
	"github.com/hupe1980/tagdex/internal/identity"
)

// Mode combines the parts of a filter node.
type Mode uint8

const (
	// ModeAnd matches entries linked to every tag and matched by every
	// subfilter.
	ModeAnd Mode = iota + 1
	// ModeOr matches entries linked to any tag or matched by any subfilter.
	ModeOr
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAnd:
		return "and"
	case ModeOr:
		return "or"
	default:
		return "invalid"
	}
}

// Filter is one node of a boolean query tree.
//
// A node combines its tags, its subfilters and its allow-list with Mode.
// The allow-list is intersected under ModeAnd and unioned under ModeOr,
// restricted to registered keys. A node without tags, subfilters and
// allow-list matches tagless entries. Negated complements the node against
// every registered entry.
//
// The zero Filter has no mode and is rejected by queries.
type Filter[T comparable] struct {
	Mode    Mode
	Tags    []T
	Subs    []Filter[T]
	Keys    []HashKey
	Negated bool
}

// All returns a node matching entries linked to every tag.
func All[T comparable](tags ...T) Filter[T] {
	return Filter[T]{Mode: ModeAnd, Tags: tags}
}

// Any returns a node matching entries linked to at least one tag. Without
// tags it matches tagless entries.
func Any[T comparable](tags ...T) Filter[T] {
	return Filter[T]{Mode: ModeOr, Tags: tags}
}

// Untagged returns a node matching tagless entries.
func Untagged[T comparable]() Filter[T] {
	return Filter[T]{Mode: ModeOr}
}

// Not returns f negated.
func Not[T comparable](f Filter[T]) Filter[T] {
	return f.Negate()
}

// Negate returns a copy of f with negation toggled.
func (f Filter[T]) Negate() Filter[T] {
	f.Negated = !f.Negated
	return f
}

// With returns a copy of f with subfilters appended.
func (f Filter[T]) With(subs ...Filter[T]) Filter[T] {
	f.Subs = append(f.Subs[:len(f.Subs):len(f.Subs)], subs...)
	return f
}

// Allow returns a copy of f with keys appended to its allow-list.
func (f Filter[T]) Allow(keys ...HashKey) Filter[T] {
	f.Keys = append(f.Keys[:len(f.Keys):len(f.Keys)], keys...)
	return f
}

func (f Filter[T]) isTagless() bool {
	return len(f.Tags) == 0 && len(f.Subs) == 0 && f.Keys == nil
}

// validate checks f recursively without reading the index.
func (f Filter[T]) validate(ifaceTags bool) error {
	if f.Mode != ModeAnd && f.Mode != ModeOr {
		return invalidQuery("unknown filter mode %d", f.Mode)
	}
	for _, key := range f.Keys {
		if !identity.ValidKey(key) {
			return invalidQuery("allow-list key %T is not comparable", key)
		}
	}
	if ifaceTags {
		for _, tag := range f.Tags {
			if !identity.ValidKey(any(tag)) {
				return invalidQuery("tag %T is not comparable", any(tag))
			}
		}
	}
	for _, sub := range f.Subs {
		if err := sub.validate(ifaceTags); err != nil {
			return err
		}
	}
	return nil
}

func validateFilters[T comparable](filters []Filter[T]) error {
	ifaceTags := reflect.TypeFor[T]().Kind() == reflect.Interface
	for _, f := range filters {
		if err := f.validate(ifaceTags); err != nil {
			return err
		}
	}
	return nil
}

// node is a filter resolved against one collection.
type node struct {
	and     bool
	negated bool
	tagless bool
	// missing marks an AND node naming an unknown tag.
	missing bool
	tags    []*bitmap.Bitmap
	subs    []*node
	allow   *bitmap.Bitmap
}

func (d *Dex[T]) compile(f Filter[T]) *node {
	n := &node{
		and:     f.Mode == ModeAnd,
		negated: f.Negated,
		tagless: f.isTagless(),
	}
	for _, tag := range f.Tags {
		tid, ok := d.s.tagID(tag)
		if !ok {
			if n.and {
				n.missing = true
			}
			continue
		}
		n.tags = append(n.tags, d.s.forward[tid])
	}
	for _, sub := range f.Subs {
		n.subs = append(n.subs, d.compile(sub))
	}
	if f.Keys != nil {
		n.allow = bitmap.New()
		for _, key := range f.Keys {
			if row, ok := d.s.rowOf(key); ok {
				n.allow.Add(row)
			}
		}
	}
	return n
}
