package tagdex

import (
	"github.com/hupe1980/tagdex/internal/bitmap"
)

// MutationOption configures the cascade of a mutation that unlinks.
//
// Every unlinking path (Remove, Drop, Reset, Set, SetMany) applies the same
// two rules:
//
//   - entries left with no tags are deleted unless KeepTaglessEntries is set;
//   - tags left with no entries are kept unless DropEmptyTags is set.
//
// Tags a call explicitly targets with Set or Reset are never dropped, so
// DropEmptyTags only has an effect on the tags Remove unlinks.
type MutationOption func(*cascade)

type cascade struct {
	keepTagless bool
	dropEmpty   bool
}

// KeepTaglessEntries keeps entries that a mutation leaves without tags.
func KeepTaglessEntries() MutationOption {
	return func(c *cascade) { c.keepTagless = true }
}

// DropEmptyTags deletes tags that a mutation leaves without entries.
func DropEmptyTags() MutationOption {
	return func(c *cascade) { c.dropEmpty = true }
}

func newCascade(opts []MutationOption) cascade {
	var c cascade
	for _, fn := range opts {
		fn(&c)
	}
	return c
}

// AddResult is returned by Add.
type AddResult struct {
	// Key is the hash key of the entry.
	Key HashKey
	// Created reports whether the entry was registered by this call.
	Created bool
	// TagCount is the number of tags linked to the entry afterwards.
	TagCount int
}

// LinkResult is returned by Tag and Untag.
type LinkResult struct {
	// Found reports whether the entry is registered.
	Found bool
	// TagCount is the number of tags linked to the entry afterwards.
	TagCount int
}

// RemoveResult is returned by Remove.
type RemoveResult struct {
	// Removed reports whether the entry was deleted.
	Removed bool
	// TagCount is the number of tags still linked to the entry.
	TagCount int
}

// Add registers entry if needed and links it to every tag, creating tags on
// first reference.
func (d *Dex[T]) Add(entry any, tags ...T) (AddResult, error) {
	key, err := d.resolve(entry)
	if err != nil {
		return AddResult{}, err
	}
	var res AddResult
	err = d.mutate("add", func() error {
		row, created, err := d.s.addNewEntry(key, entry)
		if err != nil {
			return err
		}
		if err := d.linkTags(row, tags); err != nil {
			return err
		}
		res = AddResult{Key: key, Created: created, TagCount: d.s.inverse[row].Len()}
		return nil
	})
	if err != nil {
		return AddResult{}, err
	}
	return res, nil
}

// AddMany registers every entry and links each to every tag. All entries
// are keyed before anything is mutated; the returned keys are parallel to
// entries.
func (d *Dex[T]) AddMany(entries []any, tags ...T) ([]HashKey, error) {
	keys, err := d.resolveAll(entries)
	if err != nil {
		return nil, err
	}
	err = d.mutate("add_many", func() error {
		for i, entry := range entries {
			row, _, err := d.s.addNewEntry(keys[i], entry)
			if err != nil {
				return err
			}
			if err := d.linkTags(row, tags); err != nil {
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

// Tag links an already registered entry to tags. Found is false, and nothing
// changes, if the entry is not registered.
func (d *Dex[T]) Tag(entry any, tags ...T) (LinkResult, error) {
	if err := d.opts.guard(entry); err != nil {
		return LinkResult{}, invalidEntry(entry, "rejected by entry guard", err)
	}
	row, ok := d.lookup(entry)
	if !ok {
		return LinkResult{}, nil
	}
	err := d.mutate("tag", func() error {
		return d.linkTags(row, tags)
	})
	if err != nil {
		return LinkResult{}, err
	}
	return LinkResult{Found: true, TagCount: d.s.inverse[row].Len()}, nil
}

// Untag unlinks tags from an already registered entry; without tags it
// unlinks all of them. Untag never deletes the entry, see Remove.
func (d *Dex[T]) Untag(entry any, tags ...T) (LinkResult, error) {
	if err := d.opts.guard(entry); err != nil {
		return LinkResult{}, invalidEntry(entry, "rejected by entry guard", err)
	}
	row, ok := d.lookup(entry)
	if !ok {
		return LinkResult{}, nil
	}
	err := d.mutate("untag", func() error {
		_, err := d.unlinkTags(row, tags, len(tags) == 0)
		return err
	})
	if err != nil {
		return LinkResult{}, err
	}
	return LinkResult{Found: true, TagCount: d.s.inverse[row].Len()}, nil
}

// Remove unlinks tags from entry (all of them if tags is nil) and deletes
// the entry once it is tagless, unless KeepTaglessEntries is given.
// DropEmptyTags also deletes the tags this call left empty.
func (d *Dex[T]) Remove(entry any, tags []T, opts ...MutationOption) (RemoveResult, error) {
	if err := d.opts.guard(entry); err != nil {
		return RemoveResult{}, invalidEntry(entry, "rejected by entry guard", err)
	}
	row, ok := d.lookup(entry)
	if !ok {
		return RemoveResult{}, nil
	}
	c := newCascade(opts)
	var res RemoveResult
	err := d.mutate("remove", func() error {
		touched, err := d.unlinkTags(row, tags, tags == nil)
		if err != nil {
			return err
		}
		if err := d.cascadeRows([]uint32{row}, c); err != nil {
			return err
		}
		if err := d.cascadeTags(touched, c); err != nil {
			return err
		}
		if inv, ok := d.s.inverse[row]; ok {
			res = RemoveResult{TagCount: inv.Len()}
		} else {
			res = RemoveResult{Removed: true}
		}
		return nil
	})
	if err != nil {
		return RemoveResult{}, err
	}
	return res, nil
}

// RemoveKey is Remove addressed by hash key.
func (d *Dex[T]) RemoveKey(key HashKey, tags []T, opts ...MutationOption) (RemoveResult, error) {
	entry, ok := d.Get(key)
	if !ok {
		return RemoveResult{}, nil
	}
	return d.Remove(entry, tags, opts...)
}

// EntrySelection is the entries argument of Set: EnsureTag, NoEntries or
// Entries.
type EntrySelection struct {
	kind    selectionKind
	entries []any
}

type selectionKind uint8

const (
	selectEnsure selectionKind = iota
	selectNone
	selectEntries
)

// EnsureTag makes Set only ensure the tag exists; existing links stay.
func EnsureTag() EntrySelection { return EntrySelection{kind: selectEnsure} }

// NoEntries makes Set clear every link of the tag.
func NoEntries() EntrySelection { return EntrySelection{kind: selectNone} }

// Entries makes Set replace the linked entries of the tag wholesale,
// registering unseen entries first.
func Entries(entries ...any) EntrySelection {
	return EntrySelection{kind: selectEntries, entries: entries}
}

// Set defines the entries of tag and returns how many are linked
// afterwards. Entries unlinked by the replacement cascade per opts.
func (d *Dex[T]) Set(tag T, sel EntrySelection, opts ...MutationOption) (int, error) {
	return d.SetMany([]T{tag}, sel, opts...)
}

// SetMany applies Set to every tag and returns the number of distinct
// entries linked to any of them afterwards.
func (d *Dex[T]) SetMany(tags []T, sel EntrySelection, opts ...MutationOption) (int, error) {
	var keys []HashKey
	if sel.kind == selectEntries {
		var err error
		if keys, err = d.resolveAll(sel.entries); err != nil {
			return 0, err
		}
	}
	c := newCascade(opts)
	count := 0
	err := d.mutate("set", func() error {
		want := bitmap.New()
		for i, entry := range sel.entries {
			row, _, err := d.s.addNewEntry(keys[i], entry)
			if err != nil {
				return err
			}
			want.Add(row)
		}

		targets := bitmap.New()
		var removed []uint32
		for _, tag := range tags {
			tid, err := d.s.addNewTag(tag)
			if err != nil {
				return err
			}
			targets.Add(tid)
			if sel.kind == selectEnsure {
				continue
			}
			_, rem, err := d.s.setEntriesForExistingTag(tid, want)
			if err != nil {
				return err
			}
			removed = append(removed, rem...)
		}

		if err := d.cascadeRows(removed, c); err != nil {
			return err
		}

		linked := bitmap.New()
		targets.ForEach(func(tid uint32) bool {
			linked.Or(d.s.forward[tid])
			return true
		})
		count = linked.Len()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Drop deletes tags and returns the ones that existed. Entries left
// tagless are deleted unless KeepTaglessEntries is given.
func (d *Dex[T]) Drop(tags []T, opts ...MutationOption) ([]T, error) {
	c := newCascade(opts)
	var dropped []T
	err := d.mutate("drop", func() error {
		dropped = dropped[:0]
		var orphans []uint32
		for _, tag := range tags {
			tid, ok := d.s.tagID(tag)
			if !ok {
				continue
			}
			orphans = append(orphans, d.s.forward[tid].ToSlice()...)
			if err := d.s.removeTag(tid); err != nil {
				return err
			}
			dropped = append(dropped, tag)
		}
		return d.cascadeRows(orphans, c)
	})
	if err != nil {
		return nil, err
	}
	return dropped, nil
}

// Reset unlinks every entry from tags without deleting them and returns the
// ones that existed. Entries left tagless are deleted unless
// KeepTaglessEntries is given.
func (d *Dex[T]) Reset(tags []T, opts ...MutationOption) ([]T, error) {
	c := newCascade(opts)
	var cleared []T
	err := d.mutate("reset", func() error {
		cleared = cleared[:0]
		var removed []uint32
		for _, tag := range tags {
			tid, ok := d.s.tagID(tag)
			if !ok {
				continue
			}
			_, rem, err := d.s.setEntriesForExistingTag(tid, bitmap.New())
			if err != nil {
				return err
			}
			removed = append(removed, rem...)
			cleared = append(cleared, tag)
		}
		return d.cascadeRows(removed, c)
	})
	if err != nil {
		return nil, err
	}
	return cleared, nil
}

// CleanOptions selects what Clean sweeps. The zero value sweeps both.
type CleanOptions struct {
	// Entries sweeps tagless entries.
	Entries bool
	// Tags sweeps empty tags.
	Tags bool
}

// CleanResult is returned by Clean.
type CleanResult struct {
	EntriesRemoved int
	TagsRemoved    int
}

// Clean deletes tagless entries and/or empty tags.
func (d *Dex[T]) Clean(opts CleanOptions) (CleanResult, error) {
	if !opts.Entries && !opts.Tags {
		opts = CleanOptions{Entries: true, Tags: true}
	}
	var res CleanResult
	err := d.mutate("clean", func() error {
		res = CleanResult{}
		if opts.Entries {
			for _, row := range d.s.tagless.ToSlice() {
				if err := d.s.removeEntry(row); err != nil {
					return err
				}
				res.EntriesRemoved++
			}
		}
		if opts.Tags {
			for _, tid := range d.s.emptyTags.ToSlice() {
				if err := d.s.removeTag(tid); err != nil {
					return err
				}
				res.TagsRemoved++
			}
		}
		return nil
	})
	if err != nil {
		return CleanResult{}, err
	}
	return res, nil
}

// Clear deletes every entry and tag, and forgets every generated key.
func (d *Dex[T]) Clear() error {
	err := d.mutate("clear", func() error {
		for _, row := range d.s.rows.ToSlice() {
			if err := d.s.removeEntry(row); err != nil {
				return err
			}
		}
		for _, tid := range d.s.tags.ToSlice() {
			if err := d.s.removeTag(tid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.s.reset()
	d.ids.Reset()
	return nil
}

// -----------------------------------------------------------------------------
// Helpers (must run inside mutate)
// -----------------------------------------------------------------------------

func (d *Dex[T]) resolveAll(entries []any) ([]HashKey, error) {
	keys := make([]HashKey, len(entries))
	for i, entry := range entries {
		key, err := d.resolve(entry)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

func (d *Dex[T]) linkTags(row uint32, tags []T) error {
	for _, tag := range tags {
		tid, err := d.s.addNewTag(tag)
		if err != nil {
			return err
		}
		if err := d.s.addTagToEntry(tid, row); err != nil {
			return err
		}
	}
	return nil
}

// unlinkTags unlinks tags (or every tag when all is set) from row and
// returns the tag ids it touched.
func (d *Dex[T]) unlinkTags(row uint32, tags []T, all bool) ([]uint32, error) {
	var tids []uint32
	if all {
		tids = d.s.inverse[row].ToSlice()
	} else {
		for _, tag := range tags {
			if tid, ok := d.s.tagID(tag); ok {
				tids = append(tids, tid)
			}
		}
	}
	for _, tid := range tids {
		if err := d.s.removeTagFromEntry(tid, row); err != nil {
			return nil, err
		}
	}
	return tids, nil
}

// cascadeRows deletes the given rows that are tagless, unless kept.
func (d *Dex[T]) cascadeRows(rows []uint32, c cascade) error {
	if c.keepTagless {
		return nil
	}
	for _, row := range rows {
		if d.s.tagless.Contains(row) {
			if err := d.s.removeEntry(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// cascadeTags deletes the given tags that are empty when DropEmptyTags is
// set.
func (d *Dex[T]) cascadeTags(tids []uint32, c cascade) error {
	if !c.dropEmpty {
		return nil
	}
	for _, tid := range tids {
		if !d.s.emptyTags.Contains(tid) {
			continue
		}
		if err := d.s.removeTag(tid); err != nil {
			return err
		}
	}
	return nil
}
