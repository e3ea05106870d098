package tagdex

import (
	"errors"
	"fmt"

	"github.com/hupe1980/tagdex/codec"
	"github.com/hupe1980/tagdex/internal/bitmap"
	"github.com/hupe1980/tagdex/internal/identity"
)

// Tuple pairs an entry with its tags for bulk import.
//
// A Tuple is never an entry itself: DefaultEntryGuard rejects it.
type Tuple[T comparable] struct {
	Entry any `json:"entry" yaml:"entry"`
	Tags  []T `json:"tags" yaml:"tags"`
}

// NewTuple builds a Tuple.
func NewTuple[T comparable](entry any, tags ...T) Tuple[T] {
	return Tuple[T]{Entry: entry, Tags: tags}
}

func (Tuple[T]) tagdexTuple() {}

// ImportTuples adds every tuple as one atomic mutation and returns the keys
// parallel to tuples.
func (d *Dex[T]) ImportTuples(tuples ...Tuple[T]) ([]HashKey, error) {
	keys := make([]HashKey, len(tuples))
	for i, tp := range tuples {
		key, err := d.resolve(tp.Entry)
		if err != nil {
			return nil, fmt.Errorf("tuple %d: %w", i, err)
		}
		keys[i] = key
	}
	err := d.mutate("import_tuples", func() error {
		for i, tp := range tuples {
			row, _, err := d.s.addNewEntry(keys[i], tp.Entry)
			if err != nil {
				return err
			}
			if err := d.linkTags(row, tp.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// ImportTagMap links every listed entry to its tag as one atomic mutation.
// Tags mapped to an empty list are created empty. Map iteration order
// decides tag creation order.
func (d *Dex[T]) ImportTagMap(m map[T][]any) error {
	type pending struct {
		tag  T
		keys []HashKey
		vals []any
	}
	batch := make([]pending, 0, len(m))
	for tag, entries := range m {
		keys, err := d.resolveAll(entries)
		if err != nil {
			return fmt.Errorf("tag %v: %w", tag, err)
		}
		batch = append(batch, pending{tag: tag, keys: keys, vals: entries})
	}
	return d.mutate("import_tag_map", func() error {
		for _, p := range batch {
			tid, err := d.s.addNewTag(p.tag)
			if err != nil {
				return err
			}
			for i, v := range p.vals {
				row, _, err := d.s.addNewEntry(p.keys[i], v)
				if err != nil {
					return err
				}
				if err := d.s.addTagToEntry(tid, row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ImportDocument decodes data with c and imports it. A document is either
// a list of tuples ({entry, tags}) or a tag map ({tag: [entries...]}). It
// returns the number of entries in the document.
//
// Decoded entries are generic values: objects and lists become maps and
// slices, so each one is a distinct complex entry.
func (d *Dex[T]) ImportDocument(c codec.Codec, data []byte) (int, error) {
	if c == nil {
		c = codec.Default
	}
	var tuples []Tuple[T]
	errTuples := c.Unmarshal(data, &tuples)
	if errTuples == nil {
		_, err := d.ImportTuples(tuples...)
		return len(tuples), err
	}

	var m map[T][]any
	errMap := c.Unmarshal(data, &m)
	if errMap != nil {
		return 0, fmt.Errorf("decode %s document: %w", c.Name(), errors.Join(errTuples, errMap))
	}
	n := 0
	for _, entries := range m {
		n += len(entries)
	}
	return n, d.ImportTagMap(m)
}

// -----------------------------------------------------------------------------
// Copying between collections
// -----------------------------------------------------------------------------

// CopyFrom merges every entry, tag and link of src into d. Entries already
// present in d keep their key; new complex entries adopt the key they have
// in src unless d has a custom hasher.
func (d *Dex[T]) CopyFrom(src *Dex[T]) error {
	return d.copyFrom("copy_from", src, src.s.tags.ToSlice(), src.s.rows.ToSlice(), nil)
}

// CopyKeysFrom copies the entries of src registered under keys, with all of
// their tags. Unknown keys are ignored.
func (d *Dex[T]) CopyKeysFrom(src *Dex[T], keys ...HashKey) error {
	var rows []uint32
	for _, key := range keys {
		if !identity.ValidKey(key) {
			return invalidQuery("copy key %T is not comparable", key)
		}
		if row, ok := src.s.rowOf(key); ok {
			rows = append(rows, row)
		}
	}
	tids := make(map[uint32]struct{})
	var order []uint32
	for _, row := range rows {
		src.s.inverse[row].ForEach(func(tid uint32) bool {
			if _, ok := tids[tid]; !ok {
				tids[tid] = struct{}{}
				order = append(order, tid)
			}
			return true
		})
	}
	return d.copyFrom("copy_keys_from", src, order, rows, nil)
}

// CopyTagsFrom copies the given tags of src, even if empty, with the
// entries linked to them. Copied entries receive only the selected tags.
func (d *Dex[T]) CopyTagsFrom(src *Dex[T], tags ...T) error {
	var (
		tids     []uint32
		rows     = bitmap.New()
		selected = make(map[uint32]struct{})
	)
	for _, tag := range tags {
		tid, ok := src.s.tagID(tag)
		if !ok {
			continue
		}
		if _, dup := selected[tid]; dup {
			continue
		}
		selected[tid] = struct{}{}
		tids = append(tids, tid)
		rows.Or(src.s.forward[tid])
	}
	return d.copyFrom("copy_tags_from", src, tids, rows.ToSlice(), selected)
}

// CopyEmptyFrom copies every tagless entry and every empty tag of src.
func (d *Dex[T]) CopyEmptyFrom(src *Dex[T]) error {
	return d.copyFrom("copy_empty_from", src, src.s.emptyTags.ToSlice(), src.s.tagless.ToSlice(), nil)
}

// copyFrom ensures tids exist in d, then copies rows with their tags. When
// only is non-nil, links outside it are skipped.
func (d *Dex[T]) copyFrom(op string, src *Dex[T], tids, rows []uint32, only map[uint32]struct{}) error {
	keys := make([]HashKey, len(rows))
	for i, row := range rows {
		e := src.s.entries[row]
		key, err := d.copyKey(e.value, e.key)
		if err != nil {
			return err
		}
		keys[i] = key
	}
	tags := make([]T, len(tids))
	for i, tid := range tids {
		tags[i] = src.s.tagVals[tid]
	}
	links := make([][]T, len(rows))
	for i, row := range rows {
		src.s.inverse[row].ForEach(func(tid uint32) bool {
			if only != nil {
				if _, ok := only[tid]; !ok {
					return true
				}
			}
			links[i] = append(links[i], src.s.tagVals[tid])
			return true
		})
	}

	return d.mutate(op, func() error {
		for _, tag := range tags {
			if _, err := d.s.addNewTag(tag); err != nil {
				return err
			}
		}
		for i, row := range rows {
			dst, _, err := d.s.addNewEntry(keys[i], src.s.entries[row].value)
			if err != nil {
				return err
			}
			if err := d.linkTags(dst, links[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// copyKey picks the key of a copied entry in d.
func (d *Dex[T]) copyKey(value any, srcKey HashKey) (HashKey, error) {
	if err := d.opts.guard(value); err != nil {
		return nil, invalidEntry(value, "rejected by entry guard", err)
	}
	if row, ok := d.lookup(value); ok {
		return d.s.entries[row].key, nil
	}
	_, isKeyer := value.(Keyer)
	if d.opts.hasher != nil || isKeyer || identity.Classify(value) != identity.ClassComplex {
		return d.resolve(value)
	}
	if _, taken := d.s.rowOf(srcKey); taken {
		return d.resolve(value)
	}
	d.ids.Adopt(value, srcKey)
	return srcKey, nil
}
