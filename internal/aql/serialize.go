package aql

import (
	"sort"
	"strconv"
	"strings"

	"github.com/quilldb/quill/internal/ir"
)

// Serialized is the executable form of one fragment: final text, value
// bindings keyed by their normalized names, the query-result bindings the
// text references, and the collections it touches.
type Serialized struct {
	Text               string
	Bindings           map[string]any
	UsedResultBindings []string
	ReadCollections    []string
	WriteCollections   []string
}

// Serialize renders a fragment. Value bindings are assigned unique names
// (p0, p1, ...) in first-occurrence order, so serialization of the same
// fragment is deterministic.
func Serialize(f *Fragment) *Serialized {
	s := &serializer{
		bindings:   make(map[string]any),
		resultSeen: make(map[string]bool),
		read:       make(map[string]bool),
		write:      make(map[string]bool),
	}
	s.walk(f.tokens)
	return &Serialized{
		Text:               s.text.String(),
		Bindings:           s.bindings,
		UsedResultBindings: sortedKeys(s.resultSeen),
		ReadCollections:    sortedKeys(s.read),
		WriteCollections:   sortedKeys(s.write),
	}
}

type serializer struct {
	text       strings.Builder
	bindings   map[string]any
	nextParam  int
	resultSeen map[string]bool
	read       map[string]bool
	write      map[string]bool
	indent     int
}

func (s *serializer) walk(tokens []token) {
	for _, tok := range tokens {
		switch t := tok.(type) {
		case codeToken:
			s.writeCode(t.code)
		case valueToken:
			name := "p" + strconv.Itoa(s.nextParam)
			s.nextParam++
			s.bindings[name] = ir.ToNative(t.value)
			s.text.WriteString("@" + name)
		case collectionToken:
			if t.write {
				s.write[t.name] = true
			} else {
				s.read[t.name] = true
			}
			s.text.WriteString(t.name)
		case variableToken:
			s.text.WriteString(t.variable.Name())
		case resultVarToken:
			s.resultSeen[t.variable.Name()] = true
			s.text.WriteString("@" + t.variable.Name())
		case trackToken:
			if t.write {
				s.write[t.name] = true
			} else {
				s.read[t.name] = true
			}
		case indentToken:
			s.indent += t.delta
		}
	}
}

// writeCode appends raw text, applying the current indentation after each
// newline.
func (s *serializer) writeCode(code string) {
	if s.indent == 0 || !strings.Contains(code, "\n") {
		s.text.WriteString(code)
		return
	}
	pad := strings.Repeat("  ", s.indent)
	s.text.WriteString(strings.ReplaceAll(code, "\n", "\n"+pad))
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
