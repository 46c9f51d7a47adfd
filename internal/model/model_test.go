package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func testModel(t *testing.T) *Model {
	t.Helper()

	m, err := New(
		[]*RootEntityType{
			{
				Name:               "Delivery",
				Collection:         "deliveries",
				FlexSearchIndexed:  true,
				FlexSearchLanguage: language.English,
				PrimarySort:        []SortClause{{Field: "createdAt", Descending: true}},
				Fields: []*Field{
					{Name: "deliveryNumber", FlexSearchIndexed: true},
					{Name: "description", FlexSearchIndexed: true, Language: language.German},
					{Name: "_key", System: true},
				},
			},
			{Name: "HandlingUnit", Collection: "handlingUnits"},
		},
		[]*Relation{
			{
				Name:           "delivery_handlingUnits",
				EdgeCollection: "deliveries_handlingUnits",
				FromType:       "Delivery",
				ToType:         "HandlingUnit",
			},
		},
	)
	require.NoError(t, err)
	return m
}

func TestNew_IndexesTypesAndRelations(t *testing.T) {
	m := testModel(t)

	delivery, ok := m.RootEntityType("Delivery")
	require.True(t, ok)
	assert.Equal(t, "deliveries", delivery.Collection)

	field, ok := delivery.Field("deliveryNumber")
	require.True(t, ok)
	assert.True(t, field.FlexSearchIndexed)

	rel, ok := m.Relation("delivery_handlingUnits")
	require.True(t, ok)
	assert.Equal(t, "deliveries_handlingUnits", rel.EdgeCollection)
}

func TestNew_RejectsUnknownRelationEndpoint(t *testing.T) {
	_, err := New(
		[]*RootEntityType{{Name: "A", Collection: "as"}},
		[]*Relation{{Name: "r", EdgeCollection: "rs", FromType: "A", ToType: "Missing"}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown to type")
}

func TestNew_RejectsDuplicateType(t *testing.T) {
	_, err := New(
		[]*RootEntityType{
			{Name: "A", Collection: "as"},
			{Name: "A", Collection: "as2"},
		},
		nil,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate root entity type")
}

func TestRelationSide_Direction(t *testing.T) {
	m := testModel(t)
	rel, _ := m.Relation("delivery_handlingUnits")

	from := RelationSide{Relation: rel, FromSide: true}
	assert.True(t, from.Outbound())
	assert.Equal(t, "HandlingUnit", from.TargetType())

	to := RelationSide{Relation: rel, FromSide: false}
	assert.False(t, to.Outbound())
	assert.Equal(t, "Delivery", to.TargetType())
}

func TestFlexViewName(t *testing.T) {
	assert.Equal(t, "flex_view_deliveries", FlexViewName("deliveries"))
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "deliveries/123", DocumentID("deliveries", "123"))
}

func TestAnalyzerForLanguage(t *testing.T) {
	assert.Equal(t, "text_de", AnalyzerForLanguage(language.German))
	assert.Equal(t, "text_en", AnalyzerForLanguage(language.AmericanEnglish))
	assert.Equal(t, IdentityAnalyzer, AnalyzerForLanguage(language.Und))
}

func TestAnalyzerForField_FallsBackToTypeLanguage(t *testing.T) {
	m := testModel(t)
	delivery, _ := m.RootEntityType("Delivery")

	assert.Equal(t, "text_de", delivery.AnalyzerForField("description"))
	assert.Equal(t, "text_en", delivery.AnalyzerForField("deliveryNumber"))
	assert.Equal(t, "text_en", delivery.AnalyzerForField("unknownField"))
}

const yamlModel = `
rootEntities:
  - name: Delivery
    collection: deliveries
    flexSearch:
      indexed: true
      language: en
      primarySort:
        - field: createdAt
          descending: true
    fields:
      - name: deliveryNumber
        flexSearch: true
      - name: description
        flexSearch: true
        language: de
  - name: HandlingUnit
    collection: handlingUnits
relations:
  - name: delivery_handlingUnits
    edgeCollection: deliveries_handlingUnits
    from: Delivery
    to: HandlingUnit
`

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlModel), 0o644))

	m, err := LoadFile(path)
	require.NoError(t, err)

	delivery, ok := m.RootEntityType("Delivery")
	require.True(t, ok)
	assert.True(t, delivery.FlexSearchIndexed)
	assert.Equal(t, []SortClause{{Field: "createdAt", Descending: true}}, delivery.PrimarySort)
	assert.Equal(t, "text_de", delivery.AnalyzerForField("description"))
}

const cueModel = `
model: {
	rootEntities: [
		{
			name:       "Delivery"
			collection: "deliveries"
			flexSearch: {indexed: true, language: "en"}
			fields: [
				{name: "deliveryNumber", flexSearch: true},
			]
		},
	]
	relations: []
}
`

func TestLoadFile_CUE(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.cue")
	require.NoError(t, os.WriteFile(path, []byte(cueModel), 0o644))

	m, err := LoadFile(path)
	require.NoError(t, err)

	delivery, ok := m.RootEntityType("Delivery")
	require.True(t, ok)
	assert.Equal(t, "deliveries", delivery.Collection)
	assert.Equal(t, "text_en", delivery.AnalyzerForField("deliveryNumber"))
}

func TestLoadFile_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model file extension")
}
