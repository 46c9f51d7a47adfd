package aql

import (
	"strconv"
	"strings"
)

// Variable is a transient query variable. Identity is the pointer; the
// name is allocated once by a Namer and is collision-free within a
// compilation.
type Variable struct {
	name string
}

// Name returns the allocated variable name, a safe identifier.
func (v *Variable) Name() string {
	return v.name
}

// ResultVariable names the result of a pre-execution query. The executor
// binds it as a parameter in every later query of the same compound query.
type ResultVariable struct {
	name string
}

// Name returns the allocated binding name, a safe identifier.
func (v *ResultVariable) Name() string {
	return v.name
}

// Namer allocates variable names unique within one compilation. Names
// derive from the requested label so the emitted query stays readable.
type Namer struct {
	counts map[string]int
}

// NewNamer creates an empty Namer.
func NewNamer() *Namer {
	return &Namer{counts: make(map[string]int)}
}

// Variable allocates a fresh transient variable named after label.
func (n *Namer) Variable(label string) *Variable {
	return &Variable{name: n.next("v", label)}
}

// ResultVariable allocates a fresh query-result variable named after label.
func (n *Namer) ResultVariable(label string) *ResultVariable {
	return &ResultVariable{name: n.next("r", label)}
}

// next builds "<prefix>_<label>" for the first use of a label and
// "<prefix>_<label>_<seq>" (seq starting at 2) for later ones. The label is
// reduced to identifier characters first; the sequence number makes equal
// labels distinct.
func (n *Namer) next(prefix, label string) string {
	base := prefix + "_" + sanitizeLabel(label)
	n.counts[base]++
	if n.counts[base] == 1 {
		return base
	}
	return base + "_" + strconv.Itoa(n.counts[base])
}

func sanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "tmp"
	}
	return b.String()
}
