// Package tagdex provides an in-memory tagged collection for Go.
//
// A Dex holds entries of any type, each linked to zero or more tags, and
// answers boolean queries over those tags. Two mutually consistent indexes
// back every collection: tag -> entries and entry -> tags, both stored as
// Roaring bitmaps of dense ids.
//
// # Quick Start
//
//	d := tagdex.New[string]()
//	d.Add("alice", "admin", "staff")
//	d.Add("bob", "staff")
//
//	admins, _ := d.Values(tagdex.All("admin", "staff"))  // [alice]
//	others, _ := d.Values(tagdex.Not(tagdex.Any("admin"))) // [bob]
//
// # Entries and Keys
//
// Every entry is addressed by a HashKey:
//
//   - Simple entries (numbers, strings, bools, comparable structs) are their
//     own key.
//   - Entries implementing Keyer supply their own key.
//   - Complex entries (pointers, maps, slices, funcs, chans) are keyed by
//     reference identity and receive a generated EntryID.
//
// WithHasher replaces resolution entirely.
//
// # Queries
//
// Filters form a tree of AND/OR nodes over tags, subfilters and allow-lists:
//
//	f := tagdex.All("staff").With(tagdex.Not(tagdex.Any("intern")))
//	res, _ := d.Query(tagdex.ShapeSet, f)
//
// Top-level filters OR together and results come back in discovery order
// (the order entries were first registered). First-match queries stop at
// the first hit without materializing the match set.
//
// Package query parses the textual form ("staff & !intern").
//
// # Mutations
//
// Every public mutation is atomic. It is built from index primitives that
// run through the interceptor chain (WithInterceptor); if a primitive or an
// interceptor fails, everything the mutation applied is undone.
//
//	ro := tagdex.New[string](tagdex.WithInterceptor(tagdex.ReadOnly()))
//	_, err := ro.Add("x") // errors.Is(err, tagdex.ErrAccessViolation)
//
// # Concurrency
//
// A Dex is not safe for concurrent use.
//
// # Subpackages
//
// Package codec decodes import documents (JSON, YAML, optionally
// compressed), guard provides entry guards, and prom exports metrics to
// Prometheus.
package tagdex
