package queryaql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/quilldb/quill/internal/ir"
	"github.com/quilldb/quill/internal/queryir"
)

// renderCompound serializes a compound query to a stable textual form for
// golden comparison. Bindings render through canonical JSON so the files
// diff cleanly across runs.
func renderCompound(t *testing.T, q *CompoundQuery) []byte {
	t.Helper()

	var b strings.Builder
	for i, pre := range q.PreExec {
		fmt.Fprintf(&b, "-- pre-exec %d", i)
		if pre.ResultBinding != "" {
			fmt.Fprintf(&b, " -> %s", pre.ResultBinding)
		}
		b.WriteString(" --\n")
		b.WriteString(pre.Query.Text + "\n")
		b.WriteString("bindings: " + canonicalBindings(t, pre.Query.Bindings) + "\n\n")
	}
	b.WriteString("-- main --\n")
	b.WriteString(q.Main.Text + "\n")
	b.WriteString("bindings: " + canonicalBindings(t, q.Main.Bindings) + "\n")
	fmt.Fprintf(&b, "reads: %v\n", q.ReadCollections)
	fmt.Fprintf(&b, "writes: %v\n", q.WriteCollections)
	return []byte(b.String())
}

func canonicalBindings(t *testing.T, bindings map[string]any) string {
	t.Helper()
	native := make(map[string]any, len(bindings))
	for k, v := range bindings {
		native[k] = v
	}
	value, ok := ir.FromNative(native)
	require.True(t, ok)
	out, err := ir.MarshalCanonical(value)
	require.NoError(t, err)
	return string(out)
}

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
}

func TestGolden_CountEntities(t *testing.T) {
	m := testModel(t)
	q := compile(t, &queryir.Count{List: &queryir.Entities{Type: entityType(t, m, "Delivery")}})

	golden(t).Assert(t, "count_entities", renderCompound(t, q))
}

func TestGolden_FilteredPaginatedScan(t *testing.T) {
	m := testModel(t)
	v := queryir.NewVariable("delivery")
	q := compile(t, &queryir.TransformList{
		List:         &queryir.Entities{Type: entityType(t, m, "Delivery")},
		ItemVariable: v,
		Filter: &queryir.BinaryOp{
			Op:  queryir.BinaryOperatorEqual,
			LHS: &queryir.Field{Object: v, Name: "deliveryNumber"},
			RHS: &queryir.Literal{Value: ir.IRString("1000173")},
		},
		MaxCount: intp(10),
		Inner:    v,
	})

	golden(t).Assert(t, "filtered_paginated_scan", renderCompound(t, q))
}

func TestGolden_QuickSearchPhrase(t *testing.T) {
	q := compile(t, quickSearchScan(t, queryir.LanguageOperatorContainsPhrase, language.German))

	golden(t).Assert(t, "quicksearch_phrase", renderCompound(t, q))
}

func TestGolden_CreateEntityPreExec(t *testing.T) {
	m := testModel(t)
	keyVar := queryir.NewVariable("newKey")
	q := compile(t, &queryir.WithPreExecution{
		Steps: []queryir.PreExecStep{{
			Query: &queryir.CreateEntity{
				Type: entityType(t, m, "Delivery"),
				Object: &queryir.Object{Properties: []queryir.ObjectProperty{
					{Key: "deliveryNumber", Value: &queryir.Literal{Value: ir.IRString("1000173")}},
				}},
			},
			ResultVariable: keyVar,
		}},
		Result: keyVar,
	})

	golden(t).Assert(t, "create_entity_preexec", renderCompound(t, q))
}
