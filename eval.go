package tagdex

import (
	"github.com/hupe1980/tagdex/internal/bitmap"
)

// match returns the rows matched by the top-level nodes, which OR together.
// Without nodes every row matches.
func (d *Dex[T]) match(nodes []*node) *bitmap.Bitmap {
	if len(nodes) == 0 {
		return d.s.rows.Clone()
	}
	if len(nodes) == 1 {
		return d.eval(nodes[0])
	}
	sets := make([]*bitmap.Bitmap, len(nodes))
	for i, n := range nodes {
		sets[i] = d.eval(n)
	}
	return bitmap.Or(sets...)
}

func (d *Dex[T]) eval(n *node) *bitmap.Bitmap {
	p := d.positive(n)
	if !n.negated {
		return p
	}
	u := d.s.rows.Clone()
	u.AndNot(p)
	return u
}

func (d *Dex[T]) positive(n *node) *bitmap.Bitmap {
	if n.tagless {
		return d.s.tagless.Clone()
	}
	if n.missing {
		return bitmap.New()
	}
	parts := make([]*bitmap.Bitmap, 0, len(n.tags)+len(n.subs)+1)
	parts = append(parts, n.tags...)
	if n.allow != nil {
		parts = append(parts, n.allow)
	}
	if !n.and {
		for _, sub := range n.subs {
			parts = append(parts, d.eval(sub))
		}
		return bitmap.Or(parts...)
	}

	if len(parts) > 0 {
		acc := bitmap.And(parts...)
		for _, sub := range n.subs {
			if acc.IsEmpty() {
				return acc
			}
			acc.And(d.eval(sub))
		}
		return acc
	}
	acc := d.eval(n.subs[0])
	for _, sub := range n.subs[1:] {
		if acc.IsEmpty() {
			return acc
		}
		acc.And(d.eval(sub))
	}
	return acc
}

// matches reports whether row satisfies n.
func (d *Dex[T]) matches(n *node, row uint32) bool {
	return d.positiveHas(n, row) != n.negated
}

func (d *Dex[T]) positiveHas(n *node, row uint32) bool {
	if n.tagless {
		return d.s.tagless.Contains(row)
	}
	if n.and {
		if n.missing {
			return false
		}
		for _, t := range n.tags {
			if !t.Contains(row) {
				return false
			}
		}
		if n.allow != nil && !n.allow.Contains(row) {
			return false
		}
		for _, sub := range n.subs {
			if !d.matches(sub, row) {
				return false
			}
		}
		return true
	}
	for _, t := range n.tags {
		if t.Contains(row) {
			return true
		}
	}
	if n.allow.Contains(row) {
		return true
	}
	for _, sub := range n.subs {
		if d.matches(sub, row) {
			return true
		}
	}
	return false
}

// firstOf returns the lowest row matched by any of the top-level nodes
// without materializing match sets.
func (d *Dex[T]) firstOf(nodes []*node) (uint32, bool) {
	if len(nodes) == 0 {
		return d.s.rows.Min()
	}
	var (
		best  uint32
		found bool
	)
	for _, n := range nodes {
		if row, ok := d.first(n); ok && (!found || row < best) {
			best, found = row, true
		}
	}
	return best, found
}

func (d *Dex[T]) first(n *node) (uint32, bool) {
	if n.negated {
		return d.scan(d.s.rows, n)
	}
	if n.tagless {
		return d.s.tagless.Min()
	}
	if n.and {
		if n.missing {
			return 0, false
		}
		return d.scan(d.smallest(n), n)
	}

	var (
		best  uint32
		found bool
	)
	consider := func(row uint32, ok bool) {
		if ok && (!found || row < best) {
			best, found = row, true
		}
	}
	for _, t := range n.tags {
		consider(t.Min())
	}
	if n.allow != nil {
		consider(n.allow.Min())
	}
	for _, sub := range n.subs {
		consider(d.first(sub))
	}
	return best, found
}

// smallest picks the narrowest candidate set of an AND node.
func (d *Dex[T]) smallest(n *node) *bitmap.Bitmap {
	var c *bitmap.Bitmap
	pick := func(b *bitmap.Bitmap) {
		if c == nil || b.Len() < c.Len() {
			c = b
		}
	}
	for _, t := range n.tags {
		pick(t)
	}
	if n.allow != nil {
		pick(n.allow)
	}
	if c == nil {
		return d.s.rows
	}
	return c
}

// scan returns the first row of candidates, in ascending order, that
// matches n.
func (d *Dex[T]) scan(candidates *bitmap.Bitmap, n *node) (row uint32, found bool) {
	candidates.ForEach(func(r uint32) bool {
		if d.matches(n, r) {
			row, found = r, true
			return false
		}
		return true
	})
	return row, found
}
