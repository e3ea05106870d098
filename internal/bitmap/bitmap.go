package bitmap

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap is a 32-bit Roaring bitmap of dense row or tag ids.
// It wraps the official roaring implementation.
type Bitmap struct {
	rb *roaring.Bitmap
}

// New creates a new empty bitmap.
func New() *Bitmap {
	return &Bitmap{rb: roaring.New()}
}

// Of creates a bitmap holding the given ids.
func Of(ids ...uint32) *Bitmap {
	return &Bitmap{rb: roaring.BitmapOf(ids...)}
}

// Add adds an id. It reports whether the id was not already present.
func (b *Bitmap) Add(id uint32) bool {
	return b.rb.CheckedAdd(id)
}

// Remove removes an id. It reports whether the id was present.
func (b *Bitmap) Remove(id uint32) bool {
	return b.rb.CheckedRemove(id)
}

// Contains checks if an id is in the bitmap.
func (b *Bitmap) Contains(id uint32) bool {
	return b != nil && b.rb.Contains(id)
}

// IsEmpty returns true if the bitmap is empty.
func (b *Bitmap) IsEmpty() bool {
	return b == nil || b.rb.IsEmpty()
}

// Len returns the number of elements in the bitmap.
func (b *Bitmap) Len() int {
	if b == nil {
		return 0
	}
	return int(b.rb.GetCardinality())
}

// Min returns the smallest id. ok is false for an empty bitmap.
func (b *Bitmap) Min() (id uint32, ok bool) {
	if b.IsEmpty() {
		return 0, false
	}
	return b.rb.Minimum(), true
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	if b == nil {
		return New()
	}
	return &Bitmap{rb: b.rb.Clone()}
}

// And intersects b with other in place.
func (b *Bitmap) And(other *Bitmap) {
	if other == nil {
		b.rb.Clear()
		return
	}
	b.rb.And(other.rb)
}

// Or unions other into b in place.
func (b *Bitmap) Or(other *Bitmap) {
	if other == nil {
		return
	}
	b.rb.Or(other.rb)
}

// AndNot removes every id of other from b in place.
func (b *Bitmap) AndNot(other *Bitmap) {
	if other == nil {
		return
	}
	b.rb.AndNot(other.rb)
}

// Intersects reports whether b and other share at least one id.
func (b *Bitmap) Intersects(other *Bitmap) bool {
	if b == nil || other == nil {
		return false
	}
	return b.rb.Intersects(other.rb)
}

// Equals reports whether both bitmaps hold the same ids.
func (b *Bitmap) Equals(other *Bitmap) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return b.IsEmpty() && other.IsEmpty()
	}
	return b.rb.Equals(other.rb)
}

// Clear removes all elements from the bitmap.
func (b *Bitmap) Clear() {
	b.rb.Clear()
}

// ForEach calls fn for every id in ascending order until fn returns false.
func (b *Bitmap) ForEach(fn func(id uint32) bool) {
	if b == nil {
		return
	}
	it := b.rb.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			return
		}
	}
}

// All returns an iterator over the ids in ascending order.
func (b *Bitmap) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		b.ForEach(yield)
	}
}

// ToSlice returns the ids in ascending order.
func (b *Bitmap) ToSlice() []uint32 {
	if b == nil {
		return nil
	}
	return b.rb.ToArray()
}

// And returns the intersection of the given bitmaps as a new bitmap.
// It returns an empty bitmap when called without arguments.
func And(bitmaps ...*Bitmap) *Bitmap {
	if len(bitmaps) == 0 {
		return New()
	}
	out := bitmaps[0].Clone()
	for _, b := range bitmaps[1:] {
		if out.IsEmpty() {
			break
		}
		out.And(b)
	}
	return out
}

// Or returns the union of the given bitmaps as a new bitmap.
func Or(bitmaps ...*Bitmap) *Bitmap {
	rbs := make([]*roaring.Bitmap, 0, len(bitmaps))
	for _, b := range bitmaps {
		if b != nil {
			rbs = append(rbs, b.rb)
		}
	}
	switch len(rbs) {
	case 0:
		return New()
	case 1:
		return &Bitmap{rb: rbs[0].Clone()}
	}
	return &Bitmap{rb: roaring.FastOr(rbs...)}
}
