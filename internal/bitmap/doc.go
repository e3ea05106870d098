// Package bitmap wraps Roaring bitmaps for the tag and entry indices.
//
// Every index row of a collection is a Bitmap over dense uint32 ids. Row ids
// are handed out in registration order, so ascending iteration yields
// discovery order and Min is the first match.
package bitmap
