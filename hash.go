package tagdex

import (
	"github.com/hupe1980/tagdex/internal/identity"
)

// HashKey identifies one entry within one collection. It is always a
// comparable value: the entry itself for simple entries, a Keyer's key, a
// hasher's key, or a generated EntryID.
type HashKey = identity.Key

// EntryID is the key generated for complex entries (pointers, maps, slices,
// funcs, chans) that carry no key of their own.
type EntryID = identity.ID

// Keyer is implemented by entries that carry their own stable key.
// It takes precedence over identity keys but not over a custom Hasher.
type Keyer = identity.Keyer

// Hasher derives hash keys for entries, replacing the built-in resolution.
type Hasher interface {
	Hash(entry any) (HashKey, error)
}

// HasherFunc adapts a function to a Hasher.
type HasherFunc func(entry any) (HashKey, error)

// Hash implements Hasher.
func (f HasherFunc) Hash(entry any) (HashKey, error) { return f(entry) }

// EntryGuard rejects candidate entries by returning a non-nil error.
type EntryGuard func(entry any) error

// tupleShaped is implemented by the import wrappers so they are never
// mistaken for entries.
type tupleShaped interface {
	tagdexTuple()
}

// DefaultEntryGuard rejects nil entries and the import wrapper Tuple.
func DefaultEntryGuard(entry any) error {
	if entry == nil {
		return identity.ErrNilEntry
	}
	if _, ok := entry.(tupleShaped); ok {
		return errTupleEntry
	}
	return nil
}

// Hash returns the key of entry, generating and memoizing one for complex
// entries seen for the first time. The key is stable for as long as the
// entry stays registered; for unregistered complex entries it is stable
// until Clear.
func (d *Dex[T]) Hash(entry any) (HashKey, error) {
	return d.resolve(entry)
}

// resolve applies the entry guard and derives the key of entry.
func (d *Dex[T]) resolve(entry any) (HashKey, error) {
	if err := d.opts.guard(entry); err != nil {
		return nil, invalidEntry(entry, "rejected by entry guard", err)
	}
	if d.opts.hasher != nil {
		key, err := d.opts.hasher.Hash(entry)
		if err != nil {
			return nil, invalidEntry(entry, "hasher failed", err)
		}
		if !identity.ValidKey(key) {
			return nil, invalidEntry(entry, "hasher returned an unusable key", identity.ErrInvalidKey)
		}
		return key, nil
	}
	key, err := d.ids.Resolve(entry)
	if err != nil {
		return nil, invalidEntry(entry, "cannot derive key", err)
	}
	return key, nil
}

// lookup finds the row of entry without memoizing anything.
func (d *Dex[T]) lookup(entry any) (uint32, bool) {
	if d.opts.guard(entry) != nil {
		return 0, false
	}
	var (
		key HashKey
		ok  bool
	)
	if d.opts.hasher != nil {
		k, err := d.opts.hasher.Hash(entry)
		key, ok = k, err == nil && identity.ValidKey(k)
	} else {
		key, ok = d.ids.Lookup(entry)
	}
	if !ok {
		return 0, false
	}
	return d.s.rowOf(key)
}
