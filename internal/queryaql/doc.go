// Package queryaql compiles query IR trees to the native query dialect.
//
// Compile walks a queryir tree and produces a CompoundQuery: an ordered
// list of pre-execution queries followed by a main query, each carrying
// its text, bindings, and the collections it reads or writes. Lowering is
// an exhaustive type switch over the sealed node family; the compilation
// context tracks variable scope and the shared pre-execution queue.
//
// Rewrites run inline: boolean constant folding on filters, hoisting of
// variable assignments into LET statements at query and projection roots,
// the LIKE prefix fast path, the quantifier array-expansion fast path,
// and the opt-in projection indirection.
//
// Compilation is synchronous, allocates no global state, and never
// touches the database; many queries may compile in parallel on
// independent contexts.
package queryaql
