package aql

import (
	"fmt"
	"regexp"

	"github.com/quilldb/quill/internal/ir"
)

// identifierPattern is the whitelist for identifiers emitted verbatim.
// Anything else must be carried as a bound value.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsSafeIdentifier reports whether s may be emitted unquoted.
func IsSafeIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// token is one element of a fragment. Sealed to this package.
type token interface {
	aqlToken()
}

// codeToken is raw query text. Only the compiler itself produces these,
// from known-safe tokens.
type codeToken struct {
	code string
}

// valueToken binds a value as a parameter.
type valueToken struct {
	value ir.IRValue
}

// collectionToken is a validated collection identifier, tracked as a read
// or write access.
type collectionToken struct {
	name  string
	write bool
}

// variableToken references a transient variable.
type variableToken struct {
	variable *Variable
}

// resultVarToken references a query-result variable bound by the executor.
type resultVarToken struct {
	variable *ResultVariable
}

// trackToken records a collection access without emitting text. Used when
// a query touches a collection through another name, e.g. a search view.
type trackToken struct {
	name  string
	write bool
}

// indentToken adjusts the indentation applied after newlines.
type indentToken struct {
	delta int
}

func (codeToken) aqlToken()       {}
func (valueToken) aqlToken()      {}
func (collectionToken) aqlToken() {}
func (variableToken) aqlToken()   {}
func (resultVarToken) aqlToken()  {}
func (trackToken) aqlToken()      {}
func (indentToken) aqlToken()     {}

// Fragment is an immutable piece of query text with bindings. The zero
// value is the empty fragment.
type Fragment struct {
	tokens []token
}

// Code creates a fragment of raw query text. Callers must only pass
// compiler-controlled tokens, never data.
func Code(s string) *Fragment {
	return &Fragment{tokens: []token{codeToken{code: s}}}
}

// Value creates a fragment that binds v as a parameter.
func Value(v ir.IRValue) *Fragment {
	return &Fragment{tokens: []token{valueToken{value: v}}}
}

// Identifier validates s against the identifier whitelist and emits it
// verbatim.
func Identifier(s string) (*Fragment, error) {
	if !IsSafeIdentifier(s) {
		return nil, fmt.Errorf("unsafe identifier %q", s)
	}
	return Code(s), nil
}

// ReadCollection emits a collection identifier and tracks it as read.
func ReadCollection(name string) (*Fragment, error) {
	if !IsSafeIdentifier(name) {
		return nil, fmt.Errorf("unsafe collection name %q", name)
	}
	return &Fragment{tokens: []token{collectionToken{name: name}}}, nil
}

// WriteCollection emits a collection identifier and tracks it as written.
func WriteCollection(name string) (*Fragment, error) {
	if !IsSafeIdentifier(name) {
		return nil, fmt.Errorf("unsafe collection name %q", name)
	}
	return &Fragment{tokens: []token{collectionToken{name: name, write: true}}}, nil
}

// TrackRead records a read access on a collection without emitting its
// name.
func TrackRead(name string) *Fragment {
	return &Fragment{tokens: []token{trackToken{name: name}}}
}

// Var creates a fragment referencing a transient variable.
func Var(v *Variable) *Fragment {
	return &Fragment{tokens: []token{variableToken{variable: v}}}
}

// ResultVar creates a fragment referencing a query-result variable.
func ResultVar(v *ResultVariable) *Fragment {
	return &Fragment{tokens: []token{resultVarToken{variable: v}}}
}

// Concat composes fragments by concatenation.
func Concat(frags ...*Fragment) *Fragment {
	var tokens []token
	for _, f := range frags {
		if f == nil {
			continue
		}
		tokens = append(tokens, f.tokens...)
	}
	return &Fragment{tokens: tokens}
}

// Join composes fragments with a raw separator between them.
func Join(frags []*Fragment, sep string) *Fragment {
	var tokens []token
	for i, f := range frags {
		if i > 0 {
			tokens = append(tokens, codeToken{code: sep})
		}
		tokens = append(tokens, f.tokens...)
	}
	return &Fragment{tokens: tokens}
}

// Lines composes fragments as separate lines.
func Lines(frags ...*Fragment) *Fragment {
	var present []*Fragment
	for _, f := range frags {
		if f != nil {
			present = append(present, f)
		}
	}
	return Join(present, "\n")
}

// Indent wraps a fragment so its lines render one level deeper. It is
// meant to be used at the start of a line, typically inside Lines; the
// leading pad is written immediately, later lines are padded at their
// newlines.
func Indent(f *Fragment) *Fragment {
	tokens := make([]token, 0, len(f.tokens)+3)
	tokens = append(tokens, indentToken{delta: 1}, codeToken{code: "  "})
	tokens = append(tokens, f.tokens...)
	tokens = append(tokens, indentToken{delta: -1})
	return &Fragment{tokens: tokens}
}
