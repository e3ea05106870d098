// Package identity derives stable hash keys for collection entries.
//
// Simple entries (scalars and comparable value types) are their own key.
// Complex entries (pointers, maps, slices, funcs, chans) are keyed by
// reference identity: the first resolution generates a random ID and stores
// it in a side table owned by the Resolver, so caller values are never
// mutated. Zero-capacity slices have no identity of their own and need a
// Keyer or a hasher.
package identity

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/google/uuid"
)

// Key is a comparable value identifying one entry within one collection.
type Key = any

// ID is a generated key assigned to complex entries.
//
// ID is a distinct type, so a generated key never collides with a simple
// entry, not even a string that happens to spell the same UUID.
type ID uuid.UUID

// NewID returns a fresh random ID.
func NewID() ID { return ID(uuid.New()) }

// String returns the canonical UUID form.
func (id ID) String() string { return uuid.UUID(id).String() }

// MarshalText encodes id in canonical UUID form.
func (id ID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// Keyer is implemented by entries that carry their own stable key.
type Keyer interface {
	TagdexKey() Key
}

var (
	// ErrNilEntry is returned for nil entries, including typed nils.
	ErrNilEntry = errors.New("nil entry")

	// ErrUnhashable is returned for values that are neither comparable nor
	// reference types, e.g. a struct holding a slice.
	ErrUnhashable = errors.New("entry is not hashable")

	// ErrInvalidKey is returned when a Keyer or hasher produces a key that
	// cannot be used as a map key.
	ErrInvalidKey = errors.New("invalid hash key")
)

// Class identifies how an entry is keyed.
type Class uint8

const (
	// ClassInvalid marks values that cannot be keyed without help.
	ClassInvalid Class = iota
	// ClassSimple marks self-keying values.
	ClassSimple
	// ClassComplex marks reference values keyed by identity.
	ClassComplex
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassSimple:
		return "simple"
	case ClassComplex:
		return "complex"
	default:
		return "invalid"
	}
}

// Classify reports the class of v.
func Classify(v any) Class {
	if v == nil {
		return ClassInvalid
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return ClassSimple
	case reflect.Struct, reflect.Array:
		if rv.Comparable() {
			return ClassSimple
		}
		return ClassInvalid
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return ClassInvalid
		}
		return ClassComplex
	default:
		return ClassInvalid
	}
}

// ValidKey reports whether k can be used as a hash key.
func ValidKey(k Key) bool {
	if k == nil {
		return false
	}
	return reflect.ValueOf(k).Comparable()
}

// ref is the identity of a complex value.
type ref struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

// memo holds the generated key and a reference to the value so its address
// cannot be reused while the row exists.
type memo struct {
	key Key
	val any
}

// Resolver resolves entries to keys and memoizes generated keys.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	memo map[ref]memo
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{memo: make(map[ref]memo)}
}

// Resolve returns the key of v, generating and memoizing one for complex
// values seen for the first time.
func (r *Resolver) Resolve(v any) (Key, error) {
	if k, ok, err := keyOf(v); ok || err != nil {
		return k, err
	}
	id, err := identify(v)
	if err != nil {
		return nil, err
	}
	if m, ok := r.memo[id]; ok {
		return m.key, nil
	}
	key := NewID()
	r.memo[id] = memo{key: key, val: v}
	return key, nil
}

// Lookup returns the key of v without generating one.
// ok is false for complex values that were never resolved.
func (r *Resolver) Lookup(v any) (Key, bool) {
	if k, ok, err := keyOf(v); ok || err != nil {
		return k, ok
	}
	id, err := identify(v)
	if err != nil {
		return nil, false
	}
	m, ok := r.memo[id]
	return m.key, ok
}

// Adopt memoizes key for the complex value v, replacing any previous key.
// It is a no-op for simple values and Keyers.
func (r *Resolver) Adopt(v any, key Key) {
	if _, ok, err := keyOf(v); ok || err != nil {
		return
	}
	id, err := identify(v)
	if err != nil {
		return
	}
	r.memo[id] = memo{key: key, val: v}
}

// Forget drops the memoized key of v.
func (r *Resolver) Forget(v any) {
	if id, err := identify(v); err == nil {
		delete(r.memo, id)
	}
}

// Len returns the number of memoized keys.
func (r *Resolver) Len() int { return len(r.memo) }

// Reset drops every memoized key.
func (r *Resolver) Reset() { clear(r.memo) }

// Clone returns a resolver holding the same memoized keys.
func (r *Resolver) Clone() *Resolver {
	c := &Resolver{memo: make(map[ref]memo, len(r.memo))}
	for k, v := range r.memo {
		c.memo[k] = v
	}
	return c
}

// keyOf resolves Keyers and simple values. ok is false when v needs an
// identity key.
func keyOf(v any) (Key, bool, error) {
	if v == nil || isNilRef(v) {
		return nil, false, ErrNilEntry
	}
	if kr, ok := v.(Keyer); ok {
		k := kr.TagdexKey()
		if !ValidKey(k) {
			return nil, false, fmt.Errorf("%w: %T from %T", ErrInvalidKey, k, v)
		}
		return k, true, nil
	}
	switch Classify(v) {
	case ClassSimple:
		return v, true, nil
	case ClassComplex:
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("%w: %T", ErrUnhashable, v)
}

func identify(v any) (ref, error) {
	if Classify(v) != ClassComplex {
		return ref{}, ErrUnhashable
	}
	rv := reflect.ValueOf(v)
	id := ref{typ: rv.Type()}
	switch rv.Kind() {
	case reflect.Func:
		// Pointer() yields the code pointer, which closures share; the
		// interface data word is the closure itself.
		id.ptr = uintptr((*[2]unsafe.Pointer)(unsafe.Pointer(&v))[1])
	case reflect.Slice:
		// Zero-capacity slices share the runtime's zero-size allocation.
		if rv.Cap() == 0 {
			return ref{}, fmt.Errorf("%w: zero-capacity %T has no identity", ErrUnhashable, v)
		}
		id.ptr = rv.Pointer()
		id.n = rv.Len()
	default:
		id.ptr = rv.Pointer()
	}
	return id, nil
}

func isNilRef(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
