package queryaql

import (
	"context"

	"github.com/quilldb/quill/internal/aql"
	"github.com/quilldb/quill/internal/queryir"
)

// lowerMutation emits the statement form of a mutation node. Mutations
// are only valid in statement position: as the root of a compound query
// or as a pre-execution query.
func lowerMutation(ctx context.Context, node queryir.Node, c *compileContext) (*aql.Fragment, error) {
	switch n := node.(type) {
	case *queryir.CreateEntity:
		return lowerCreateEntity(ctx, n, c)
	case *queryir.UpdateEntities:
		return lowerUpdateEntities(ctx, n, c)
	case *queryir.DeleteEntities:
		return lowerDeleteEntities(ctx, n, c)
	case *queryir.AddEdges:
		return lowerAddEdges(ctx, n, c)
	case *queryir.RemoveEdges:
		return lowerRemoveEdges(ctx, n, c)
	case *queryir.SetEdge:
		return lowerSetEdge(ctx, n, c)
	default:
		return nil, compileErrorf(ErrCodeUnknownNode, node, "no statement handler for node variant %T", node)
	}
}

func lowerCreateEntity(ctx context.Context, n *queryir.CreateEntity, c *compileContext) (*aql.Fragment, error) {
	coll, err := writeCollection(n.Type.Collection, n)
	if err != nil {
		return nil, err
	}

	objectNode, assignments := queryir.ExtractVariableAssignments(n.Object)
	lets, c, err := lowerAssignments(ctx, assignments, c)
	if err != nil {
		return nil, err
	}
	object, err := lowerExpr(ctx, objectNode, c)
	if err != nil {
		return nil, err
	}

	lets = append(lets,
		aql.Concat(aql.Code("INSERT "), object, aql.Code(" IN "), coll),
		aql.Code("RETURN NEW._key"),
	)
	return aql.Lines(lets...), nil
}

func lowerUpdateEntities(ctx context.Context, n *queryir.UpdateEntities, c *compileContext) (*aql.Fragment, error) {
	coll, err := writeCollection(n.Type.Collection, n)
	if err != nil {
		return nil, err
	}
	list, dangling, err := lowerListSource(ctx, n.List, c)
	if err != nil {
		return nil, err
	}
	inner, currentVar, err := c.introduceVariable(n.CurrentVariable)
	if err != nil {
		return nil, err
	}

	// The update set is an object literal whose values may reference the
	// entity being updated.
	updates := &queryir.Object{Properties: make([]queryir.ObjectProperty, len(n.Updates))}
	for i, u := range n.Updates {
		updates.Properties[i] = queryir.ObjectProperty{Key: u.Key, Value: u.Value}
	}
	updatesFrag, err := lowerObject(ctx, updates, inner)
	if err != nil {
		return nil, err
	}

	lines := []*aql.Fragment{
		aql.Concat(aql.Code("FOR "), aql.Var(currentVar), aql.Code(" IN "), list),
	}
	if dangling {
		lines = append(lines, aql.Concat(aql.Code("FILTER "), aql.Var(currentVar), aql.Code(" != null")))
	}
	lines = append(lines,
		aql.Concat(
			aql.Code("UPDATE "), aql.Var(currentVar), aql.Code(" WITH "), updatesFrag,
			aql.Code(" IN "), coll, aql.Code(" OPTIONS { mergeObjects: false }"),
		),
		aql.Code("RETURN NEW._key"),
	)
	return aql.Lines(lines...), nil
}

func lowerDeleteEntities(ctx context.Context, n *queryir.DeleteEntities, c *compileContext) (*aql.Fragment, error) {
	coll, err := writeCollection(n.Type.Collection, n)
	if err != nil {
		return nil, err
	}
	list, dangling, err := lowerListSource(ctx, n.List, c)
	if err != nil {
		return nil, err
	}
	entityVar := c.namer.Variable("entity")

	lines := []*aql.Fragment{
		aql.Concat(aql.Code("FOR "), aql.Var(entityVar), aql.Code(" IN "), list),
	}
	if dangling {
		lines = append(lines, aql.Concat(aql.Code("FILTER "), aql.Var(entityVar), aql.Code(" != null")))
	}
	lines = append(lines,
		aql.Concat(aql.Code("REMOVE "), aql.Var(entityVar), aql.Code(" IN "), coll),
		aql.Code("RETURN OLD._key"),
	)
	return aql.Lines(lines...), nil
}

func lowerAddEdges(ctx context.Context, n *queryir.AddEdges, c *compileContext) (*aql.Fragment, error) {
	coll, err := writeCollection(n.Relation.EdgeCollection, n)
	if err != nil {
		return nil, err
	}
	if len(n.Edges) == 0 {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "add edges requires at least one edge")
	}

	edgeObjects := make([]queryir.Node, len(n.Edges))
	for i, e := range n.Edges {
		edgeObjects[i] = edgeObject(e)
	}
	edgeList, err := lowerExpr(ctx, &queryir.List{Items: edgeObjects}, c)
	if err != nil {
		return nil, err
	}
	edgeVar := c.namer.Variable("edge")

	// UPSERT keeps the operation idempotent: an existing edge with the
	// same endpoints is left untouched.
	return aql.Lines(
		aql.Concat(aql.Code("FOR "), aql.Var(edgeVar), aql.Code(" IN "), edgeList),
		aql.Concat(aql.Code("UPSERT { _from: "), aql.Var(edgeVar), aql.Code("._from, _to: "), aql.Var(edgeVar), aql.Code("._to }")),
		aql.Concat(aql.Code("INSERT "), aql.Var(edgeVar)),
		aql.Concat(aql.Code("UPDATE {} IN "), coll),
	), nil
}

func lowerRemoveEdges(ctx context.Context, n *queryir.RemoveEdges, c *compileContext) (*aql.Fragment, error) {
	readColl, err := readCollection(n.Relation.EdgeCollection, n)
	if err != nil {
		return nil, err
	}
	writeColl, err := writeCollection(n.Relation.EdgeCollection, n)
	if err != nil {
		return nil, err
	}
	if n.Filter.From == nil && n.Filter.To == nil {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "remove edges requires a from or to filter")
	}
	edgeVar := c.namer.Variable("edge")

	var conditions []*aql.Fragment
	if n.Filter.From != nil {
		ids, err := lowerExpr(ctx, &queryir.List{Items: n.Filter.From}, c)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, aql.Concat(aql.Var(edgeVar), aql.Code("._from IN "), ids))
	}
	if n.Filter.To != nil {
		ids, err := lowerExpr(ctx, &queryir.List{Items: n.Filter.To}, c)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, aql.Concat(aql.Var(edgeVar), aql.Code("._to IN "), ids))
	}

	return aql.Lines(
		aql.Concat(aql.Code("FOR "), aql.Var(edgeVar), aql.Code(" IN "), readColl),
		aql.Concat(aql.Code("FILTER "), aql.Join(conditions, " && ")),
		aql.Concat(aql.Code("REMOVE "), aql.Var(edgeVar), aql.Code(" IN "), writeColl),
	), nil
}

func lowerSetEdge(ctx context.Context, n *queryir.SetEdge, c *compileContext) (*aql.Fragment, error) {
	coll, err := writeCollection(n.Relation.EdgeCollection, n)
	if err != nil {
		return nil, err
	}
	if n.New.From == nil || n.New.To == nil {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "set edge requires both endpoints of the new edge")
	}

	match, err := setEdgeMatch(ctx, n, c)
	if err != nil {
		return nil, err
	}
	newEdge, err := lowerExpr(ctx, edgeObject(n.New), c)
	if err != nil {
		return nil, err
	}
	replacement, err := lowerExpr(ctx, edgeObject(n.New), c)
	if err != nil {
		return nil, err
	}

	return aql.Lines(
		aql.Concat(aql.Code("UPSERT "), match),
		aql.Concat(aql.Code("INSERT "), newEdge),
		aql.Concat(aql.Code("UPDATE "), replacement, aql.Code(" IN "), coll),
	), nil
}

// setEdgeMatch builds the UPSERT match object from the existing-edge
// filter. At least one endpoint must be pinned, and the match is by exact
// endpoint, so a filter side with more than one id is rejected.
func setEdgeMatch(ctx context.Context, n *queryir.SetEdge, c *compileContext) (*aql.Fragment, error) {
	if len(n.Existing.From) > 1 || len(n.Existing.To) > 1 {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "set edge requires an existing-edge filter with exactly one id per side")
	}
	var props []queryir.ObjectProperty
	if len(n.Existing.From) == 1 {
		props = append(props, queryir.ObjectProperty{Key: "_from", Value: n.Existing.From[0]})
	}
	if len(n.Existing.To) == 1 {
		props = append(props, queryir.ObjectProperty{Key: "_to", Value: n.Existing.To[0]})
	}
	if len(props) == 0 {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "set edge requires an existing-edge filter with exactly one id per side")
	}
	return lowerExpr(ctx, &queryir.Object{Properties: props}, c)
}

func edgeObject(e queryir.Edge) queryir.Node {
	return &queryir.Object{Properties: []queryir.ObjectProperty{
		{Key: "_from", Value: e.From},
		{Key: "_to", Value: e.To},
	}}
}
