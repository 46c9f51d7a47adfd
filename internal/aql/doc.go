// Package aql builds native query text safely.
//
// A Fragment is an immutable token list: raw code emitted by the compiler,
// bound values, validated identifiers, tracked collection references, and
// variables. Fragments compose by concatenation and never contain user
// data as source text; everything data-like is carried as a binding until
// Serialize assigns unique parameter names.
//
// The split between transient variables and query-result variables mirrors
// the two scopes of a compound query: transient variables live inside one
// query's text, query-result variables are bound by the executor from a
// previous query's result and may appear in any later query.
package aql
