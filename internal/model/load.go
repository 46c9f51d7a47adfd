package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// modelDoc is the on-disk shape of a model file. Both the CUE and the YAML
// loaders decode into it before conversion.
type modelDoc struct {
	RootEntities []rootEntityDoc `json:"rootEntities" yaml:"rootEntities"`
	Relations    []relationDoc   `json:"relations" yaml:"relations"`
}

type rootEntityDoc struct {
	Name       string          `json:"name" yaml:"name"`
	Collection string          `json:"collection" yaml:"collection"`
	FlexSearch *flexSearchDoc  `json:"flexSearch,omitempty" yaml:"flexSearch,omitempty"`
	Fields     []fieldDoc      `json:"fields,omitempty" yaml:"fields,omitempty"`
	TimeToLive *timeToLiveDoc  `json:"timeToLive,omitempty" yaml:"timeToLive,omitempty"`
}

type flexSearchDoc struct {
	Indexed     bool            `json:"indexed" yaml:"indexed"`
	Language    string          `json:"language,omitempty" yaml:"language,omitempty"`
	PrimarySort []sortClauseDoc `json:"primarySort,omitempty" yaml:"primarySort,omitempty"`
}

type sortClauseDoc struct {
	Field      string `json:"field" yaml:"field"`
	Descending bool   `json:"descending,omitempty" yaml:"descending,omitempty"`
}

type fieldDoc struct {
	Name       string `json:"name" yaml:"name"`
	System     bool   `json:"system,omitempty" yaml:"system,omitempty"`
	FlexSearch bool   `json:"flexSearch,omitempty" yaml:"flexSearch,omitempty"`
	Language   string `json:"language,omitempty" yaml:"language,omitempty"`
}

// timeToLiveDoc is carried through for the migration collaborator; query
// compilation does not read it.
type timeToLiveDoc struct {
	DateField       string `json:"dateField" yaml:"dateField"`
	ExpireAfterDays int    `json:"expireAfterDays" yaml:"expireAfterDays"`
}

type relationDoc struct {
	Name           string `json:"name" yaml:"name"`
	EdgeCollection string `json:"edgeCollection" yaml:"edgeCollection"`
	From           string `json:"from" yaml:"from"`
	To             string `json:"to" yaml:"to"`
}

// LoadFile loads a model from a .cue or .yaml/.yml file.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return loadCUE(data)
	case ".yaml", ".yml":
		return loadYAML(data)
	default:
		return nil, fmt.Errorf("unsupported model file extension %q (want .cue, .yaml, or .yml)", filepath.Ext(path))
	}
}

// loadCUE compiles a CUE document and decodes the model from it.
func loadCUE(data []byte) (*Model, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE model: %w", err)
	}

	modelVal := value.LookupPath(cue.ParsePath("model"))
	if !modelVal.Exists() {
		// A bare document without the model wrapper is also accepted.
		modelVal = value
	}

	var doc modelDoc
	if err := modelVal.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding CUE model: %w", err)
	}
	return fromDoc(doc)
}

// loadYAML decodes a YAML model document.
func loadYAML(data []byte) (*Model, error) {
	var doc modelDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding YAML model: %w", err)
	}
	return fromDoc(doc)
}

func fromDoc(doc modelDoc) (*Model, error) {
	types := make([]*RootEntityType, 0, len(doc.RootEntities))
	for _, e := range doc.RootEntities {
		t := &RootEntityType{
			Name:       e.Name,
			Collection: e.Collection,
		}
		if e.FlexSearch != nil {
			t.FlexSearchIndexed = e.FlexSearch.Indexed
			if e.FlexSearch.Language != "" {
				tag, err := parseLanguage(e.FlexSearch.Language)
				if err != nil {
					return nil, fmt.Errorf("root entity %q: %w", e.Name, err)
				}
				t.FlexSearchLanguage = tag
			}
			for _, s := range e.FlexSearch.PrimarySort {
				t.PrimarySort = append(t.PrimarySort, SortClause{
					Field:      s.Field,
					Descending: s.Descending,
				})
			}
		}
		for _, f := range e.Fields {
			field := &Field{
				Name:              f.Name,
				System:            f.System,
				FlexSearchIndexed: f.FlexSearch,
			}
			if f.Language != "" {
				tag, err := parseLanguage(f.Language)
				if err != nil {
					return nil, fmt.Errorf("field %s.%s: %w", e.Name, f.Name, err)
				}
				field.Language = tag
			}
			t.Fields = append(t.Fields, field)
		}
		types = append(types, t)
	}

	relations := make([]*Relation, 0, len(doc.Relations))
	for _, r := range doc.Relations {
		relations = append(relations, &Relation{
			Name:           r.Name,
			EdgeCollection: r.EdgeCollection,
			FromType:       r.From,
			ToType:         r.To,
		})
	}

	return New(types, relations)
}

func parseLanguage(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language tag %q: %w", s, err)
	}
	return tag, nil
}
