// Package guard provides entry guards for tagdex collections.
//
// Every guard here runs tagdex.DefaultEntryGuard first, so import wrappers
// and nil entries stay rejected.
//
//	d := tagdex.New[string](tagdex.WithEntryGuard(guard.Struct(nil)))
package guard

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/tagdex"
)

// ErrKind is returned by Kinds guards for entries of a kind not allowed.
var ErrKind = errors.New("guard: entry kind not allowed")

// Struct returns a guard that validates struct entries, and pointers to
// structs, against their `validate` tags. Other entries pass.
//
// If v is nil, a fresh validator.New() is used.
func Struct(v *validator.Validate) tagdex.EntryGuard {
	if v == nil {
		v = validator.New()
	}
	return func(entry any) error {
		if err := tagdex.DefaultEntryGuard(entry); err != nil {
			return err
		}
		rv := reflect.ValueOf(entry)
		for rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil
		}
		return v.Struct(entry)
	}
}

// Kinds returns a guard accepting only entries whose reflect.Kind is listed.
func Kinds(kinds ...reflect.Kind) tagdex.EntryGuard {
	allowed := slices.Clone(kinds)
	return func(entry any) error {
		if err := tagdex.DefaultEntryGuard(entry); err != nil {
			return err
		}
		kind := reflect.TypeOf(entry).Kind()
		if !slices.Contains(allowed, kind) {
			return fmt.Errorf("%w: %s", ErrKind, kind)
		}
		return nil
	}
}

// All returns a guard that runs guards in order and fails on the first
// rejection. Nil guards are skipped.
func All(guards ...tagdex.EntryGuard) tagdex.EntryGuard {
	gs := slices.DeleteFunc(slices.Clone(guards), func(g tagdex.EntryGuard) bool { return g == nil })
	return func(entry any) error {
		if err := tagdex.DefaultEntryGuard(entry); err != nil {
			return err
		}
		for _, g := range gs {
			if err := g(entry); err != nil {
				return err
			}
		}
		return nil
	}
}
