package queryaql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quilldb/quill/internal/ir"
	"github.com/quilldb/quill/internal/model"
	"github.com/quilldb/quill/internal/queryir"
)

func relation(t *testing.T, m *model.Model) *model.Relation {
	t.Helper()
	rel, ok := m.Relation("delivery_handlingUnits")
	require.True(t, ok)
	return rel
}

func docID(id string) queryir.Node {
	return &queryir.Literal{Value: ir.IRString(id)}
}

func TestCreateEntity(t *testing.T) {
	m := testModel(t)
	q := compile(t, &queryir.CreateEntity{
		Type: entityType(t, m, "Delivery"),
		Object: &queryir.Object{Properties: []queryir.ObjectProperty{
			{Key: "deliveryNumber", Value: &queryir.Literal{Value: ir.IRString("1000173")}},
			{Key: "totalWeight", Value: &queryir.Literal{Value: ir.IRFloat(12.5)}},
		}},
	})

	assert.Equal(t,
		"INSERT {deliveryNumber: @p0, totalWeight: @p1} IN deliveries RETURN NEW._key",
		normWS(q.Main.Text))
	assert.Equal(t, []string{"deliveries"}, q.WriteCollections)
	assert.Empty(t, q.ReadCollections)
}

func TestUpdateEntities(t *testing.T) {
	m := testModel(t)
	delivery := entityType(t, m, "Delivery")
	itemVar := queryir.NewVariable("delivery")
	current := queryir.NewVariable("current")

	q := compile(t, &queryir.UpdateEntities{
		Type: delivery,
		List: &queryir.TransformList{
			List:         &queryir.Entities{Type: delivery},
			ItemVariable: itemVar,
			Filter: &queryir.BinaryOp{
				Op:  queryir.BinaryOperatorEqual,
				LHS: &queryir.Field{Object: itemVar, Name: "deliveryNumber"},
				RHS: &queryir.Literal{Value: ir.IRString("1000173")},
			},
			Inner: itemVar,
		},
		CurrentVariable: current,
		Updates: []queryir.PropertyUpdate{
			{Key: "status", Value: &queryir.Literal{Value: ir.IRString("shipped")}},
			{Key: "revision", Value: &queryir.BinaryOp{
				Op:  queryir.BinaryOperatorAdd,
				LHS: &queryir.Field{Object: current, Name: "revision"},
				RHS: &queryir.ConstInt{Value: 1},
			}},
		},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "FOR v_current IN (")
	assert.Contains(t, text,
		"UPDATE v_current WITH {status: @p1, revision: (v_current.revision + 1)} IN deliveries OPTIONS { mergeObjects: false }")
	assert.Contains(t, text, "RETURN NEW._key")
	assert.Equal(t, []string{"deliveries"}, q.ReadCollections)
	assert.Equal(t, []string{"deliveries"}, q.WriteCollections)
}

func TestDeleteEntities(t *testing.T) {
	m := testModel(t)
	delivery := entityType(t, m, "Delivery")
	itemVar := queryir.NewVariable("delivery")

	q := compile(t, &queryir.DeleteEntities{
		Type: delivery,
		List: &queryir.TransformList{
			List:         &queryir.Entities{Type: delivery},
			ItemVariable: itemVar,
			Filter: &queryir.BinaryOp{
				Op:  queryir.BinaryOperatorEqual,
				LHS: &queryir.Field{Object: itemVar, Name: "status"},
				RHS: &queryir.Literal{Value: ir.IRString("cancelled")},
			},
			Inner: itemVar,
		},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "REMOVE v_entity IN deliveries")
	assert.Contains(t, text, "RETURN OLD._key")
	assert.Equal(t, []string{"deliveries"}, q.WriteCollections)
}

func TestAddEdges(t *testing.T) {
	m := testModel(t)
	q := compile(t, &queryir.AddEdges{
		Relation: relation(t, m),
		Edges: []queryir.Edge{
			{From: docID("deliveries/1"), To: docID("handlingUnits/7")},
			{From: docID("deliveries/1"), To: docID("handlingUnits/8")},
		},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "FOR v_edge IN [{_from: @p0, _to: @p1}, {_from: @p2, _to: @p3}]")
	assert.Contains(t, text, "UPSERT { _from: v_edge._from, _to: v_edge._to }")
	assert.Contains(t, text, "INSERT v_edge")
	assert.Contains(t, text, "UPDATE {} IN deliveries_handlingUnits")
	assert.Equal(t, []string{"deliveries_handlingUnits"}, q.WriteCollections)
}

func TestAddEdges_RequiresEdges(t *testing.T) {
	m := testModel(t)
	_, err := Compile(context.Background(), &queryir.AddEdges{Relation: relation(t, m)}, Options{})

	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeMalformedIR))
}

func TestRemoveEdges(t *testing.T) {
	m := testModel(t)
	q := compile(t, &queryir.RemoveEdges{
		Relation: relation(t, m),
		Filter: queryir.EdgeFilter{
			From: []queryir.Node{docID("deliveries/1")},
			To:   []queryir.Node{docID("handlingUnits/7"), docID("handlingUnits/8")},
		},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "FOR v_edge IN deliveries_handlingUnits")
	assert.Contains(t, text, "FILTER v_edge._from IN [@p0] && v_edge._to IN [@p1, @p2]")
	assert.Contains(t, text, "REMOVE v_edge IN deliveries_handlingUnits")
	assert.Equal(t, []string{"deliveries_handlingUnits"}, q.ReadCollections)
	assert.Equal(t, []string{"deliveries_handlingUnits"}, q.WriteCollections)
}

func TestRemoveEdges_RequiresFilter(t *testing.T) {
	m := testModel(t)
	_, err := Compile(context.Background(), &queryir.RemoveEdges{Relation: relation(t, m)}, Options{})

	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeMalformedIR))
}

func TestSetEdge(t *testing.T) {
	m := testModel(t)
	q := compile(t, &queryir.SetEdge{
		Relation: relation(t, m),
		Existing: queryir.EdgeFilter{From: []queryir.Node{docID("deliveries/1")}},
		New:      queryir.Edge{From: docID("deliveries/1"), To: docID("handlingUnits/9")},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "UPSERT {_from: @p0}")
	assert.Contains(t, text, "INSERT {_from: @p1, _to: @p2}")
	assert.Contains(t, text, "UPDATE {_from: @p3, _to: @p4} IN deliveries_handlingUnits")
	assert.Equal(t, []string{"deliveries_handlingUnits"}, q.WriteCollections)
}

func TestMutation_RejectedInExpressionPosition(t *testing.T) {
	m := testModel(t)
	_, err := Compile(context.Background(), &queryir.List{Items: []queryir.Node{
		&queryir.CreateEntity{Type: entityType(t, m, "Delivery"), Object: &queryir.Object{}},
	}}, Options{})

	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeMalformedIR))
	assert.Contains(t, err.Error(), "expression position")
}
