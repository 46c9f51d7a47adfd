// Package ir provides the constrained JSON value family shared by the
// query IR and the fragment builder.
//
// Literal query nodes and bound parameters both carry IRValue instances
// rather than raw interface{} values. The sealed interface keeps the set
// of representable values closed to what the wire protocol can bind, and
// MarshalCanonical gives every value exactly one serialized form so that
// compiled queries compare byte-for-byte in tests and golden files.
package ir
