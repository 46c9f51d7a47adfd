package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// IdentityAnalyzer is the analyzer used for exact-match search predicates.
const IdentityAnalyzer = "identity"

// flexViewPrefix prefixes the search view derived from a collection.
const flexViewPrefix = "flex_view_"

// Model is the compiler's view of the application schema.
type Model struct {
	RootEntityTypes []*RootEntityType
	Relations       []*Relation

	typesByName     map[string]*RootEntityType
	relationsByName map[string]*Relation
}

// RootEntityType describes one root entity kind. Only root entities own a
// collection; child entities, value objects, and entity extensions are
// embedded in their root's documents and never appear here.
type RootEntityType struct {
	Name       string
	Collection string

	// FlexSearchIndexed marks types that have a search view.
	FlexSearchIndexed bool

	// FlexSearchLanguage is the default analyzer language for fields that
	// do not declare their own.
	FlexSearchLanguage language.Tag

	// PrimarySort is the ordering stored inside the search view.
	PrimarySort []SortClause

	Fields []*Field

	fieldsByName map[string]*Field
}

// SortClause is one component of a view's primary sort.
type SortClause struct {
	Field      string
	Descending bool
}

// Field describes one field of a root entity type.
type Field struct {
	Name string

	// System marks fields maintained by the storage layer (_key and the
	// like) rather than the application.
	System bool

	// FlexSearchIndexed marks fields present in the type's search view.
	FlexSearchIndexed bool

	// Language overrides the type's default analyzer language.
	Language language.Tag
}

// Relation is a named bidirectional edge type between two root entity
// kinds, stored in its own edge collection.
type Relation struct {
	Name           string
	EdgeCollection string
	FromType       string
	ToType         string
}

// RelationSide identifies one direction of a relation. Edge traversal
// direction and the near/far types depend on which side is followed.
type RelationSide struct {
	Relation *Relation

	// FromSide is true when traversal starts at the relation's FromType,
	// i.e. follows edges outbound.
	FromSide bool
}

// Outbound reports whether following this side traverses edges in their
// stored direction.
func (s RelationSide) Outbound() bool {
	return s.FromSide
}

// TargetType returns the entity type name reached by following this side.
func (s RelationSide) TargetType() string {
	if s.FromSide {
		return s.Relation.ToType
	}
	return s.Relation.FromType
}

// New builds a Model from its parts and indexes it for lookup.
func New(types []*RootEntityType, relations []*Relation) (*Model, error) {
	m := &Model{
		RootEntityTypes: types,
		Relations:       relations,
		typesByName:     make(map[string]*RootEntityType, len(types)),
		relationsByName: make(map[string]*Relation, len(relations)),
	}
	for _, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("root entity type without a name")
		}
		if t.Collection == "" {
			return nil, fmt.Errorf("root entity type %q without a collection", t.Name)
		}
		if _, exists := m.typesByName[t.Name]; exists {
			return nil, fmt.Errorf("duplicate root entity type %q", t.Name)
		}
		t.fieldsByName = make(map[string]*Field, len(t.Fields))
		for _, f := range t.Fields {
			t.fieldsByName[f.Name] = f
		}
		m.typesByName[t.Name] = t
	}
	for _, r := range relations {
		if r.EdgeCollection == "" {
			return nil, fmt.Errorf("relation %q without an edge collection", r.Name)
		}
		if _, exists := m.relationsByName[r.Name]; exists {
			return nil, fmt.Errorf("duplicate relation %q", r.Name)
		}
		if _, ok := m.typesByName[r.FromType]; !ok {
			return nil, fmt.Errorf("relation %q: unknown from type %q", r.Name, r.FromType)
		}
		if _, ok := m.typesByName[r.ToType]; !ok {
			return nil, fmt.Errorf("relation %q: unknown to type %q", r.Name, r.ToType)
		}
		m.relationsByName[r.Name] = r
	}
	return m, nil
}

// RootEntityType looks up a root entity type by name.
func (m *Model) RootEntityType(name string) (*RootEntityType, bool) {
	t, ok := m.typesByName[name]
	return t, ok
}

// Relation looks up a relation by name.
func (m *Model) Relation(name string) (*Relation, bool) {
	r, ok := m.relationsByName[name]
	return r, ok
}

// Field looks up a field by name.
func (t *RootEntityType) Field(name string) (*Field, bool) {
	f, ok := t.fieldsByName[name]
	return f, ok
}

// FlexViewName returns the search view derived from a collection name.
func FlexViewName(collection string) string {
	return flexViewPrefix + collection
}

// FlexViewName returns the type's search view name.
func (t *RootEntityType) FlexViewName() string {
	return FlexViewName(t.Collection)
}

// DocumentID forms the full document id of a root entity from its
// collection and key.
func DocumentID(collection, key string) string {
	return collection + "/" + key
}

// AnalyzerForLanguage derives the full-text analyzer name for a language
// tag: "text_" plus the lowercased primary subtag. The zero tag falls back
// to the identity analyzer.
func AnalyzerForLanguage(tag language.Tag) string {
	if tag == language.Und {
		return IdentityAnalyzer
	}
	base, _ := tag.Base()
	return "text_" + strings.ToLower(base.String())
}

// AnalyzerForField resolves the analyzer for a field, falling back to the
// type's default language.
func (t *RootEntityType) AnalyzerForField(name string) string {
	if f, ok := t.Field(name); ok && f.Language != language.Und {
		return AnalyzerForLanguage(f.Language)
	}
	return AnalyzerForLanguage(t.FlexSearchLanguage)
}
