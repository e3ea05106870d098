package tagdex

// Chain builds single-node queries fluently:
//
//	d.Chain().And().Not().Values("a", "b")
//
// A chain combines its tags with OR until And is called. And and Or are
// mutually exclusive, the last call wins; Not toggles, so two calls cancel.
// Toggles persist across terminals.
type Chain[T comparable] struct {
	d       *Dex[T]
	mode    Mode
	negated bool
	where   []Filter[T]
}

// Chain starts a chain on d.
func (d *Dex[T]) Chain() *Chain[T] {
	return &Chain[T]{d: d, mode: ModeOr}
}

// And combines the terminal tags with AND.
func (c *Chain[T]) And() *Chain[T] {
	c.mode = ModeAnd
	return c
}

// Or combines the terminal tags with OR.
func (c *Chain[T]) Or() *Chain[T] {
	c.mode = ModeOr
	return c
}

// Not toggles negation of the chain node.
func (c *Chain[T]) Not() *Chain[T] {
	c.negated = !c.negated
	return c
}

// Where adds subfilters to the chain node. They combine with the terminal
// tags in the chain's mode.
func (c *Chain[T]) Where(filters ...Filter[T]) *Chain[T] {
	c.where = append(c.where, filters...)
	return c
}

// Filter returns the node the chain would query for tags. Without tags and
// subfilters it is the tagless node.
func (c *Chain[T]) Filter(tags ...T) Filter[T] {
	return Filter[T]{
		Mode:    c.mode,
		Tags:    tags,
		Subs:    append([]Filter[T](nil), c.where...),
		Negated: c.negated,
	}
}

// Values returns the matched entries.
func (c *Chain[T]) Values(tags ...T) ([]any, error) {
	return c.d.Values(c.Filter(tags...))
}

// Keys returns the keys of the matched entries.
func (c *Chain[T]) Keys(tags ...T) ([]HashKey, error) {
	return c.d.Keys(c.Filter(tags...))
}

// First returns the first match in discovery order.
func (c *Chain[T]) First(tags ...T) (any, bool, error) {
	return c.d.First(c.Filter(tags...))
}

// Exists reports whether anything matches.
func (c *Chain[T]) Exists(tags ...T) (bool, error) {
	return c.d.Exists(c.Filter(tags...))
}

// Count returns the number of matches.
func (c *Chain[T]) Count(tags ...T) (int, error) {
	return c.d.Count(c.Filter(tags...))
}

// Dex returns the matches as a new collection.
func (c *Chain[T]) Dex(tags ...T) (*Dex[T], error) {
	return c.d.Filter(c.Filter(tags...))
}
