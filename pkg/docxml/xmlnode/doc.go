// Package xmlnode provides a generic, order-preserving XML tree used as both
// the parse target and the serialization source for package parts.
//
// The tree differs from a conventional DOM in one way that matters: every
// element parsed from source keeps the exact byte range it was read from.
// Serialization re-emits those bytes verbatim for any subtree that was never
// mutated, so untouched markup round-trips byte-for-byte, without re-escaping
// drift, attribute reordering, or whitespace changes. Only subtrees that were
// built or modified by higher layers are serialized from the structured form.
//
// Unrecognized markup is carried as a RawBlob child: an opaque slice of the
// original serialization that bypasses escaping entirely on output.
package xmlnode
