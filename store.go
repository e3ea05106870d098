package tagdex

import (
	"github.com/hupe1980/tagdex/internal/bitmap"
)

type entryRow struct {
	key   HashKey
	value any
}

// store owns the five index containers of a collection:
//
//   - tag set:         tagIDs/tagVals/tags
//   - hash set:        rowIDs/rows
//   - entry by hash:   entries
//   - hashes by tag:   forward (tag id -> row ids)
//   - tags by hash:    inverse (row id -> tag ids)
//
// tagless and emptyTags are derived rows kept in sync by link/unlink.
//
// Only the primitives (addNewTag ... setEntriesForExistingTag) mutate the
// containers on behalf of callers. Each primitive runs the interceptor
// chain, preserves the index invariants on its own, and registers its
// inverse with the open transaction.
type store[T comparable] struct {
	tagIDs  map[T]uint32
	tagVals map[uint32]T
	tags    *bitmap.Bitmap

	rowIDs map[HashKey]uint32
	rows   *bitmap.Bitmap

	entries map[uint32]entryRow

	forward map[uint32]*bitmap.Bitmap
	inverse map[uint32]*bitmap.Bitmap

	tagless   *bitmap.Bitmap
	emptyTags *bitmap.Bitmap

	// Ids are handed out monotonically and never reused until reset, so
	// ascending ids follow discovery order.
	nextRow uint32
	nextTag uint32

	interceptors []Interceptor
	tx           *txn
}

type txn struct {
	undo    []func()
	evicted []entryRow
}

func newStore[T comparable](interceptors []Interceptor) *store[T] {
	s := &store[T]{interceptors: interceptors}
	s.reset()
	return s
}

func (s *store[T]) reset() {
	s.tagIDs = make(map[T]uint32)
	s.tagVals = make(map[uint32]T)
	s.tags = bitmap.New()
	s.rowIDs = make(map[HashKey]uint32)
	s.rows = bitmap.New()
	s.entries = make(map[uint32]entryRow)
	s.forward = make(map[uint32]*bitmap.Bitmap)
	s.inverse = make(map[uint32]*bitmap.Bitmap)
	s.tagless = bitmap.New()
	s.emptyTags = bitmap.New()
	s.nextRow = 0
	s.nextTag = 0
}

// clone returns a deep copy of the containers. Entry values are shared.
func (s *store[T]) clone(interceptors []Interceptor) *store[T] {
	c := &store[T]{
		tagIDs:       make(map[T]uint32, len(s.tagIDs)),
		tagVals:      make(map[uint32]T, len(s.tagVals)),
		tags:         s.tags.Clone(),
		rowIDs:       make(map[HashKey]uint32, len(s.rowIDs)),
		rows:         s.rows.Clone(),
		entries:      make(map[uint32]entryRow, len(s.entries)),
		forward:      make(map[uint32]*bitmap.Bitmap, len(s.forward)),
		inverse:      make(map[uint32]*bitmap.Bitmap, len(s.inverse)),
		tagless:      s.tagless.Clone(),
		emptyTags:    s.emptyTags.Clone(),
		nextRow:      s.nextRow,
		nextTag:      s.nextTag,
		interceptors: interceptors,
	}
	for k, v := range s.tagIDs {
		c.tagIDs[k] = v
	}
	for k, v := range s.tagVals {
		c.tagVals[k] = v
	}
	for k, v := range s.rowIDs {
		c.rowIDs[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.forward {
		c.forward[k] = v.Clone()
	}
	for k, v := range s.inverse {
		c.inverse[k] = v.Clone()
	}
	return c
}

// atomic runs fn as one transaction. If fn fails, every primitive applied
// so far is undone in reverse order and undone reports how many. Nested
// calls join the outer transaction.
func (s *store[T]) atomic(fn func() error) (evicted []entryRow, undone int, err error) {
	if s.tx != nil {
		return nil, 0, fn()
	}
	t := &txn{}
	s.tx = t
	defer func() { s.tx = nil }()

	if err := fn(); err != nil {
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		return nil, len(t.undo), err
	}
	return t.evicted, 0, nil
}

// invoke runs c through the interceptor chain around apply. apply performs
// the effect and returns its inverse.
func (s *store[T]) invoke(c *Call, apply func() (undo func())) error {
	for _, ic := range s.interceptors {
		if err := ic.Before(c); err != nil {
			return err
		}
	}
	undo := apply()
	for i := len(s.interceptors) - 1; i >= 0; i-- {
		if err := s.interceptors[i].After(c); err != nil {
			undo()
			return err
		}
	}
	if s.tx != nil {
		s.tx.undo = append(s.tx.undo, undo)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Raw container operations (no interceptors, no journal)
// -----------------------------------------------------------------------------

func (s *store[T]) link(tid, row uint32) bool {
	if !s.forward[tid].Add(row) {
		return false
	}
	s.inverse[row].Add(tid)
	s.tagless.Remove(row)
	s.emptyTags.Remove(tid)
	return true
}

func (s *store[T]) unlink(tid, row uint32) bool {
	if !s.forward[tid].Remove(row) {
		return false
	}
	inv := s.inverse[row]
	inv.Remove(tid)
	if inv.IsEmpty() {
		s.tagless.Add(row)
	}
	if s.forward[tid].IsEmpty() {
		s.emptyTags.Add(tid)
	}
	return true
}

func (s *store[T]) insertTag(tid uint32, tag T) {
	s.tagIDs[tag] = tid
	s.tagVals[tid] = tag
	s.tags.Add(tid)
	s.forward[tid] = bitmap.New()
	s.emptyTags.Add(tid)
}

// deleteTag expects the tag to be unlinked already.
func (s *store[T]) deleteTag(tid uint32) {
	delete(s.tagIDs, s.tagVals[tid])
	delete(s.tagVals, tid)
	delete(s.forward, tid)
	s.tags.Remove(tid)
	s.emptyTags.Remove(tid)
}

func (s *store[T]) insertEntry(row uint32, key HashKey, value any) {
	s.rowIDs[key] = row
	s.entries[row] = entryRow{key: key, value: value}
	s.rows.Add(row)
	s.inverse[row] = bitmap.New()
	s.tagless.Add(row)
}

// deleteEntry expects the entry to be unlinked already.
func (s *store[T]) deleteEntry(row uint32) {
	delete(s.rowIDs, s.entries[row].key)
	delete(s.entries, row)
	delete(s.inverse, row)
	s.rows.Remove(row)
	s.tagless.Remove(row)
}

// -----------------------------------------------------------------------------
// Primitives
// -----------------------------------------------------------------------------

// addNewTag inserts tag and links it to the given existing rows. It returns
// the id of an already present tag without side effects.
func (s *store[T]) addNewTag(tag T, rows ...uint32) (uint32, error) {
	if tid, ok := s.tagIDs[tag]; ok {
		return tid, nil
	}
	rows = s.existingRows(rows)
	tid := s.nextTag
	c := &Call{Op: OpAddNewTag, Tag: tag, Keys: s.keysOf(rows)}
	err := s.invoke(c, func() func() {
		s.insertTag(tid, tag)
		for _, row := range rows {
			s.link(tid, row)
		}
		return func() {
			for _, row := range rows {
				s.unlink(tid, row)
			}
			s.deleteTag(tid)
		}
	})
	if err != nil {
		return 0, err
	}
	s.nextTag++
	return tid, nil
}

// addNewEntry registers value under key with an empty inverse row. It
// returns the row of an already present key without side effects.
func (s *store[T]) addNewEntry(key HashKey, value any) (row uint32, created bool, err error) {
	if row, ok := s.rowIDs[key]; ok {
		return row, false, nil
	}
	row = s.nextRow
	c := &Call{Op: OpAddNewEntry, Key: key, Entry: value}
	err = s.invoke(c, func() func() {
		s.insertEntry(row, key, value)
		return func() { s.deleteEntry(row) }
	})
	if err != nil {
		return 0, false, err
	}
	s.nextRow++
	return row, true, nil
}

// addTagToEntry links both sides. Linking an already linked pair is a no-op.
func (s *store[T]) addTagToEntry(tid, row uint32) error {
	if s.forward[tid].Contains(row) {
		return nil
	}
	e := s.entries[row]
	c := &Call{Op: OpAddTagToEntry, Tag: s.tagVals[tid], Key: e.key, Entry: e.value}
	return s.invoke(c, func() func() {
		s.link(tid, row)
		return func() { s.unlink(tid, row) }
	})
}

// removeTagFromEntry unlinks both sides. Unlinking an unlinked pair is a no-op.
func (s *store[T]) removeTagFromEntry(tid, row uint32) error {
	if !s.forward[tid].Contains(row) {
		return nil
	}
	e := s.entries[row]
	c := &Call{Op: OpRemoveTagFromEntry, Tag: s.tagVals[tid], Key: e.key, Entry: e.value}
	return s.invoke(c, func() func() {
		s.unlink(tid, row)
		return func() { s.link(tid, row) }
	})
}

// removeTag deletes a tag. Remaining links are dropped first so the
// inverse index never points at a missing tag.
func (s *store[T]) removeTag(tid uint32) error {
	tag, ok := s.tagVals[tid]
	if !ok {
		return nil
	}
	rows := s.forward[tid].ToSlice()
	c := &Call{Op: OpRemoveTag, Tag: tag, Keys: s.keysOf(rows)}
	return s.invoke(c, func() func() {
		for _, row := range rows {
			s.unlink(tid, row)
		}
		s.deleteTag(tid)
		return func() {
			s.insertTag(tid, tag)
			for _, row := range rows {
				s.link(tid, row)
			}
		}
	})
}

// removeEntry deletes an entry. Remaining links are dropped first so the
// forward index never points at a missing entry.
func (s *store[T]) removeEntry(row uint32) error {
	e, ok := s.entries[row]
	if !ok {
		return nil
	}
	tids := s.inverse[row].ToSlice()
	c := &Call{Op: OpRemoveEntry, Key: e.key, Entry: e.value, Tags: s.tagValuesOf(tids)}
	err := s.invoke(c, func() func() {
		for _, tid := range tids {
			s.unlink(tid, row)
		}
		s.deleteEntry(row)
		return func() {
			s.insertEntry(row, e.key, e.value)
			for _, tid := range tids {
				s.link(tid, row)
			}
		}
	})
	if err == nil && s.tx != nil {
		s.tx.evicted = append(s.tx.evicted, e)
	}
	return err
}

// setEntriesForExistingTag replaces the rows linked to tid with want,
// restricted to registered rows. It reconciles the inverse index and
// returns the deltas.
func (s *store[T]) setEntriesForExistingTag(tid uint32, want *bitmap.Bitmap) (added, removed []uint32, err error) {
	cur, ok := s.forward[tid]
	if !ok {
		return nil, nil, nil
	}
	next := bitmap.And(want, s.rows)

	addBm := next.Clone()
	addBm.AndNot(cur)
	remBm := cur.Clone()
	remBm.AndNot(next)
	if addBm.IsEmpty() && remBm.IsEmpty() {
		return nil, nil, nil
	}
	added, removed = addBm.ToSlice(), remBm.ToSlice()

	c := &Call{
		Op:      OpSetEntriesForExistingTag,
		Tag:     s.tagVals[tid],
		Keys:    s.keysOf(next.ToSlice()),
		Added:   s.keysOf(added),
		Removed: s.keysOf(removed),
	}
	err = s.invoke(c, func() func() {
		for _, row := range added {
			s.link(tid, row)
		}
		for _, row := range removed {
			s.unlink(tid, row)
		}
		return func() {
			for _, row := range removed {
				s.link(tid, row)
			}
			for _, row := range added {
				s.unlink(tid, row)
			}
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return added, removed, nil
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func (s *store[T]) tagID(tag T) (uint32, bool) {
	tid, ok := s.tagIDs[tag]
	return tid, ok
}

func (s *store[T]) rowOf(key HashKey) (uint32, bool) {
	row, ok := s.rowIDs[key]
	return row, ok
}

func (s *store[T]) keysOf(rows []uint32) []HashKey {
	if len(rows) == 0 {
		return nil
	}
	keys := make([]HashKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, s.entries[row].key)
	}
	return keys
}

func (s *store[T]) valuesOf(rows []uint32) []any {
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, s.entries[row].value)
	}
	return values
}

func (s *store[T]) tagsOf(tids *bitmap.Bitmap) []T {
	tags := make([]T, 0, tids.Len())
	tids.ForEach(func(tid uint32) bool {
		tags = append(tags, s.tagVals[tid])
		return true
	})
	return tags
}

func (s *store[T]) tagValuesOf(tids []uint32) []any {
	if len(tids) == 0 {
		return nil
	}
	tags := make([]any, 0, len(tids))
	for _, tid := range tids {
		tags = append(tags, s.tagVals[tid])
	}
	return tags
}

func (s *store[T]) existingRows(rows []uint32) []uint32 {
	out := rows[:0:0]
	for _, row := range rows {
		if s.rows.Contains(row) {
			out = append(out, row)
		}
	}
	return out
}
