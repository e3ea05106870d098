package tagdex

// Op identifies an index primitive.
type Op uint8

const (
	// OpAddNewTag inserts a tag and its forward row.
	OpAddNewTag Op = iota + 1
	// OpAddNewEntry registers an entry under its hash key.
	OpAddNewEntry
	// OpAddTagToEntry links a tag and an entry.
	OpAddTagToEntry
	// OpRemoveTagFromEntry unlinks a tag and an entry.
	OpRemoveTagFromEntry
	// OpRemoveTag deletes a tag, unlinking it from every entry first.
	OpRemoveTag
	// OpRemoveEntry deletes an entry, unlinking it from every tag first.
	OpRemoveEntry
	// OpSetEntriesForExistingTag replaces the linked entries of a tag.
	OpSetEntriesForExistingTag
)

// String returns the primitive name.
func (o Op) String() string {
	switch o {
	case OpAddNewTag:
		return "add_new_tag"
	case OpAddNewEntry:
		return "add_new_entry"
	case OpAddTagToEntry:
		return "add_tag_to_entry"
	case OpRemoveTagFromEntry:
		return "remove_tag_from_entry"
	case OpRemoveTag:
		return "remove_tag"
	case OpRemoveEntry:
		return "remove_entry"
	case OpSetEntriesForExistingTag:
		return "set_entries_for_existing_tag"
	default:
		return "unknown"
	}
}

// Call describes one primitive invocation as seen by interceptors.
//
// Tag holds the tag value (of the collection's tag type) for tag
// primitives. Key and Entry describe the entry for entry primitives.
// For OpAddNewTag, Keys holds the initially linked entries; for OpRemoveTag
// it holds the entries that were unlinked. For OpRemoveEntry, Tags holds
// the tags that were unlinked. For OpSetEntriesForExistingTag, Keys is the
// resulting set and Added/Removed are the deltas.
type Call struct {
	Op      Op
	Tag     any
	Key     HashKey
	Entry   any
	Keys    []HashKey
	Tags    []any
	Added   []HashKey
	Removed []HashKey
}

// Interceptor observes and vetoes index primitives.
//
// Before runs ahead of the primitive; a non-nil error aborts it with no
// effect. After runs once the effect is applied; a non-nil error rolls the
// primitive back through its inverse and aborts the call. Either way the
// enclosing public mutation is rolled back as a whole.
//
// Before hooks run in registration order, After hooks in reverse order.
type Interceptor interface {
	Before(c *Call) error
	After(c *Call) error
}

// InterceptorFuncs adapts plain functions to an Interceptor. Nil fields are
// skipped.
type InterceptorFuncs struct {
	BeforeFunc func(c *Call) error
	AfterFunc  func(c *Call) error
}

// Before implements Interceptor.
func (f InterceptorFuncs) Before(c *Call) error {
	if f.BeforeFunc == nil {
		return nil
	}
	return f.BeforeFunc(c)
}

// After implements Interceptor.
func (f InterceptorFuncs) After(c *Call) error {
	if f.AfterFunc == nil {
		return nil
	}
	return f.AfterFunc(c)
}

type readOnly struct{}

// ReadOnly returns an interceptor that rejects every primitive with an
// *AccessViolationError. A collection built with it behaves as a frozen
// snapshot: reads work, every mutation fails and leaves it untouched.
func ReadOnly() Interceptor { return readOnly{} }

func (readOnly) Before(c *Call) error { return &AccessViolationError{Op: c.Op} }
func (readOnly) After(*Call) error    { return nil }
