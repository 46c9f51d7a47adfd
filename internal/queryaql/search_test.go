package queryaql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/quilldb/quill/internal/ir"
	"github.com/quilldb/quill/internal/queryir"
)

func quickSearchScan(t *testing.T, op queryir.LanguageOperator, tag language.Tag) queryir.Node {
	t.Helper()
	m := testModel(t)
	searchVar := queryir.NewVariable("doc")
	itemVar := queryir.NewVariable("delivery")
	return &queryir.TransformList{
		List: &queryir.QuickSearch{
			Type:         entityType(t, m, "Delivery"),
			ItemVariable: searchVar,
			Filter: &queryir.OperatorWithLanguage{
				Op:       op,
				LHS:      &queryir.Field{Object: searchVar, Name: "description"},
				RHS:      &queryir.Literal{Value: ir.IRString("a phrase")},
				Language: tag,
			},
		},
		ItemVariable: itemVar,
		Inner:        itemVar,
	}
}

func TestQuickSearch_ContainsPhrase(t *testing.T) {
	q := compile(t, quickSearchScan(t, queryir.LanguageOperatorContainsPhrase, language.German))

	text := normWS(q.Main.Text)
	assert.Contains(t, text,
		`FOR v_doc IN flex_view_deliveries SEARCH ANALYZER(PHRASE(v_doc.description, @p0), "text_de") RETURN v_doc`)
	assert.Equal(t, map[string]any{"p0": "a phrase"}, q.Main.Bindings)
	// The view read locks the underlying collection.
	assert.Equal(t, []string{"deliveries"}, q.ReadCollections)
}

func TestQuickSearch_ContainsAnyWord(t *testing.T) {
	q := compile(t, quickSearchScan(t, queryir.LanguageOperatorContainsAnyWord, language.English))

	assert.Contains(t, normWS(q.Main.Text),
		`SEARCH ANALYZER(v_doc.description IN TOKENS(@p0, "text_en"), "text_en")`)
}

func TestQuickSearch_ContainsPrefix_BalancedParens(t *testing.T) {
	q := compile(t, quickSearchScan(t, queryir.LanguageOperatorContainsPrefix, language.German))

	text := q.Main.Text
	assert.Contains(t, normWS(text),
		`SEARCH ANALYZER(STARTS_WITH(v_doc.description, FIRST(TOKENS(@p0, "text_de"))), "text_de")`)

	opens := 0
	for _, r := range text {
		switch r {
		case '(':
			opens++
		case ')':
			opens--
		}
	}
	assert.Zero(t, opens, "parentheses must balance")
}

func TestQuickSearch_StartsWithUsesIdentityAnalyzer(t *testing.T) {
	q := compile(t, quickSearchScan(t, queryir.LanguageOperatorStartsWith, language.Und))

	assert.Contains(t, normWS(q.Main.Text),
		`SEARCH ANALYZER(STARTS_WITH(v_doc.description, @p0), "identity")`)
}

func TestLanguageOperator_RequiresLanguage(t *testing.T) {
	_, err := Compile(context.Background(), quickSearchScan(t, queryir.LanguageOperatorContainsPhrase, language.Und), Options{})

	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeMalformedIR))
}

func TestLanguageOperator_Unknown(t *testing.T) {
	v := queryir.NewVariable("d")
	_, err := Compile(context.Background(), &queryir.VariableAssignment{
		Variable: v,
		Value:    &queryir.Null{},
		Result: &queryir.OperatorWithLanguage{
			Op:       "QUICKSEARCH_FUZZY",
			LHS:      v,
			RHS:      &queryir.Null{},
			Language: language.German,
		},
	}, Options{})

	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeUnsupportedOperator))
}
