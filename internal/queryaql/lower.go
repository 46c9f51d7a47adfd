package queryaql

import (
	"context"
	"strconv"

	"github.com/quilldb/quill/internal/aql"
	"github.com/quilldb/quill/internal/ir"
	"github.com/quilldb/quill/internal/model"
	"github.com/quilldb/quill/internal/queryir"
)

// lowerExpr lowers a node in expression position. The type switch is the
// dispatch table of the compiler; it is exhaustive over the sealed node
// family.
func lowerExpr(ctx context.Context, node queryir.Node, c *compileContext) (*aql.Fragment, error) {
	switch n := node.(type) {
	case *queryir.Literal:
		return aql.Value(n.Value), nil

	case *queryir.ConstBool:
		return aql.Code(strconv.FormatBool(n.Value)), nil

	case *queryir.ConstInt:
		return aql.Code(strconv.FormatInt(n.Value, 10)), nil

	case *queryir.Null:
		return aql.Code("null"), nil

	case *queryir.RuntimeError:
		return aql.Concat(
			aql.Code(`{"`+RuntimeErrorToken+`": `),
			aql.Value(ir.IRString(n.Message)),
			aql.Code("}"),
		), nil

	case *queryir.Object:
		return lowerObject(ctx, n, c)

	case *queryir.List:
		if len(n.Items) == 0 {
			return aql.Code("[]"), nil
		}
		items, err := lowerAll(ctx, n.Items, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("["), aql.Join(items, ", "), aql.Code("]")), nil

	case *queryir.MergeObjects:
		switch len(n.Objects) {
		case 0:
			return aql.Code("{}"), nil
		case 1:
			return lowerExpr(ctx, n.Objects[0], c)
		}
		objects, err := lowerAll(ctx, n.Objects, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("MERGE("), aql.Join(objects, ", "), aql.Code(")")), nil

	case *queryir.ConcatLists:
		switch len(n.Lists) {
		case 0:
			return aql.Code("[]"), nil
		case 1:
			return lowerExpr(ctx, n.Lists[0], c)
		}
		lists, err := lowerAll(ctx, n.Lists, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("UNION("), aql.Join(lists, ", "), aql.Code(")")), nil

	case *queryir.FirstOfList:
		list, err := lowerExpr(ctx, n.List, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("FIRST("), list, aql.Code(")")), nil

	case *queryir.SafeList:
		return lowerExpr(ctx, &queryir.Conditional{
			Condition: &queryir.TypeCheck{Value: n.List, Type: queryir.BasicTypeList},
			Then:      n.List,
			Else:      &queryir.List{},
		}, c)

	case *queryir.Variable:
		return c.resolveVariable(n)

	case *queryir.VariableAssignment:
		value, err := lowerExpr(ctx, n.Value, c)
		if err != nil {
			return nil, err
		}
		inner, fragVar, err := c.introduceVariable(n.Variable)
		if err != nil {
			return nil, err
		}
		result, err := lowerExpr(ctx, n.Result, inner)
		if err != nil {
			return nil, err
		}
		return aql.Concat(
			aql.Code("FIRST(LET "), aql.Var(fragVar), aql.Code(" = "), value,
			aql.Code(" RETURN "), result, aql.Code(")"),
		), nil

	case *queryir.WithPreExecution:
		cur := c
		for _, step := range n.Steps {
			next, err := cur.addPreExecuteQuery(ctx, step)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		return lowerExpr(ctx, n.Result, cur)

	case *queryir.Field:
		return lowerField(ctx, n, c)

	case *queryir.RootEntityID:
		object, err := lowerExpr(ctx, n.Object, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(object, aql.Code("._key")), nil

	case *queryir.EntityFromID:
		coll, err := readCollection(n.Type.Collection, n)
		if err != nil {
			return nil, err
		}
		id, err := lowerExpr(ctx, n.ID, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("DOCUMENT("), coll, aql.Code(", "), id, aql.Code(")")), nil

	case *queryir.Entities:
		return readCollection(n.Type.Collection, n)

	case *queryir.FollowEdge:
		// Outside a FOR source position, wrap the traversal so dangling
		// edges do not surface as null entities.
		traversal, err := lowerEdgeTraversal(ctx, n, c)
		if err != nil {
			return nil, err
		}
		itemVar := c.namer.Variable("node")
		return aql.Concat(
			aql.Code("(FOR "), aql.Var(itemVar), aql.Code(" IN "), traversal,
			aql.Code(" FILTER "), aql.Var(itemVar), aql.Code(" != null RETURN "), aql.Var(itemVar),
			aql.Code(")"),
		), nil

	case *queryir.TransformList:
		return lowerTransformList(ctx, n, c)

	case *queryir.Count:
		return lowerCount(ctx, n, c)

	case *queryir.BinaryOp:
		return lowerBinaryOp(ctx, n, c)

	case *queryir.UnaryOp:
		return lowerUnaryOp(ctx, n, c)

	case *queryir.Conditional:
		cond, err := lowerExpr(ctx, n.Condition, c)
		if err != nil {
			return nil, err
		}
		then, err := lowerExpr(ctx, n.Then, c)
		if err != nil {
			return nil, err
		}
		els, err := lowerExpr(ctx, n.Else, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("("), cond, aql.Code(" ? "), then, aql.Code(" : "), els, aql.Code(")")), nil

	case *queryir.TypeCheck:
		return lowerTypeCheck(ctx, n, c)

	case *queryir.OperatorWithLanguage:
		return lowerLanguageOperator(ctx, n, c)

	case *queryir.QuantifierFilter:
		return lowerQuantifier(ctx, n, c)

	case *queryir.QuickSearch:
		return lowerQuickSearch(ctx, n, c)

	case *queryir.CreateEntity, *queryir.UpdateEntities, *queryir.DeleteEntities,
		*queryir.AddEdges, *queryir.RemoveEdges, *queryir.SetEdge:
		return nil, compileErrorf(ErrCodeMalformedIR, node, "mutation node in expression position")

	case nil:
		return nil, compileErrorf(ErrCodeMalformedIR, nil, "missing sub-node")

	default:
		return nil, compileErrorf(ErrCodeUnknownNode, node, "no handler for node variant %T", node)
	}
}

func lowerAll(ctx context.Context, nodes []queryir.Node, c *compileContext) ([]*aql.Fragment, error) {
	frags := make([]*aql.Fragment, len(nodes))
	for i, n := range nodes {
		frag, err := lowerExpr(ctx, n, c)
		if err != nil {
			return nil, err
		}
		frags[i] = frag
	}
	return frags, nil
}

// lowerObject emits an object literal. Safe keys are emitted unquoted;
// anything else is carried as a bound dynamic key.
func lowerObject(ctx context.Context, n *queryir.Object, c *compileContext) (*aql.Fragment, error) {
	if len(n.Properties) == 0 {
		return aql.Code("{}"), nil
	}
	entries := make([]*aql.Fragment, len(n.Properties))
	for i, p := range n.Properties {
		value, err := lowerExpr(ctx, p.Value, c)
		if err != nil {
			return nil, err
		}
		var key *aql.Fragment
		if aql.IsSafeIdentifier(p.Key) {
			key = aql.Code(p.Key)
		} else {
			key = aql.Concat(aql.Code("["), aql.Value(ir.IRString(p.Key)), aql.Code("]"))
		}
		entries[i] = aql.Concat(key, aql.Code(": "), value)
	}
	return aql.Concat(aql.Code("{"), aql.Join(entries, ", "), aql.Code("}")), nil
}

// lowerField emits a dotted access. Unsafe segments fall back to bracketed
// bound string keys.
func lowerField(ctx context.Context, n *queryir.Field, c *compileContext) (*aql.Fragment, error) {
	object, err := lowerExpr(ctx, n.Object, c)
	if err != nil {
		return nil, err
	}
	frag := object
	for _, segment := range n.Path {
		frag = aql.Concat(frag, fieldAccess(segment))
	}
	return aql.Concat(frag, fieldAccess(n.Name)), nil
}

func fieldAccess(name string) *aql.Fragment {
	if aql.IsSafeIdentifier(name) {
		return aql.Code("." + name)
	}
	return aql.Concat(aql.Code("["), aql.Value(ir.IRString(name)), aql.Code("]"))
}

func lowerTypeCheck(ctx context.Context, n *queryir.TypeCheck, c *compileContext) (*aql.Fragment, error) {
	value, err := lowerExpr(ctx, n.Value, c)
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case queryir.BasicTypeScalar:
		return aql.Concat(
			aql.Code("(IS_BOOL("), value, aql.Code(") || IS_NUMBER("), value,
			aql.Code(") || IS_STRING("), value, aql.Code("))"),
		), nil
	case queryir.BasicTypeList:
		return aql.Concat(aql.Code("IS_LIST("), value, aql.Code(")")), nil
	case queryir.BasicTypeObject:
		return aql.Concat(aql.Code("IS_OBJECT("), value, aql.Code(")")), nil
	case queryir.BasicTypeNull:
		return aql.Concat(aql.Code("IS_NULL("), value, aql.Code(")")), nil
	default:
		return nil, compileErrorf(ErrCodeMalformedIR, n, "invalid basic type %q", n.Type)
	}
}

func lowerUnaryOp(ctx context.Context, n *queryir.UnaryOp, c *compileContext) (*aql.Fragment, error) {
	value, err := lowerExpr(ctx, n.Value, c)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case queryir.UnaryOperatorNot:
		return aql.Concat(aql.Code("!("), value, aql.Code(")")), nil
	case queryir.UnaryOperatorJSONStringify:
		return aql.Concat(aql.Code("JSON_STRINGIFY("), value, aql.Code(")")), nil
	default:
		return nil, compileErrorf(ErrCodeUnsupportedOperator, n, "unary operator %q has no lowering rule", n.Op)
	}
}

// lowerCount emits LENGTH for list nodes the engine can answer from an
// index, and a COLLECT WITH COUNT subquery otherwise.
func lowerCount(ctx context.Context, n *queryir.Count, c *compileContext) (*aql.Fragment, error) {
	switch n.List.(type) {
	case *queryir.Field, *queryir.Entities:
		list, err := lowerExpr(ctx, n.List, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("LENGTH("), list, aql.Code(")")), nil
	}

	list, dangling, err := lowerListSource(ctx, n.List, c)
	if err != nil {
		return nil, err
	}
	itemVar := c.namer.Variable("item")
	countVar := c.namer.Variable("count")
	frag := aql.Concat(aql.Code("FIRST(FOR "), aql.Var(itemVar), aql.Code(" IN "), list)
	if dangling {
		frag = aql.Concat(frag, aql.Code(" FILTER "), aql.Var(itemVar), aql.Code(" != null"))
	}
	return aql.Concat(frag,
		aql.Code(" COLLECT WITH COUNT INTO "), aql.Var(countVar),
		aql.Code(" RETURN "), aql.Var(countVar), aql.Code(")"),
	), nil
}

// lowerListSource lowers a node used as a FOR source. FollowEdge emits
// its simple traversal form; the caller must then filter null items to
// drop dangling edges.
func lowerListSource(ctx context.Context, node queryir.Node, c *compileContext) (*aql.Fragment, bool, error) {
	if edge, ok := node.(*queryir.FollowEdge); ok {
		frag, err := lowerEdgeTraversal(ctx, edge, c)
		return frag, true, err
	}
	frag, err := lowerExpr(ctx, node, c)
	return frag, false, err
}

// lowerEdgeTraversal emits "OUTBOUND|INBOUND <source> <edgeCollection>".
func lowerEdgeTraversal(ctx context.Context, n *queryir.FollowEdge, c *compileContext) (*aql.Fragment, error) {
	source, err := lowerExpr(ctx, n.Source, c)
	if err != nil {
		return nil, err
	}
	direction := "INBOUND"
	if n.Side.Outbound() {
		direction = "OUTBOUND"
	}
	edgeColl, err := readCollection(n.Side.Relation.EdgeCollection, n)
	if err != nil {
		return nil, err
	}
	return aql.Concat(aql.Code(direction+" "), source, aql.Code(" "), edgeColl), nil
}

// lowerQuickSearch emits a subquery over the type's search view.
func lowerQuickSearch(ctx context.Context, n *queryir.QuickSearch, c *compileContext) (*aql.Fragment, error) {
	view := model.FlexViewName(n.Type.Collection)
	if !aql.IsSafeIdentifier(view) {
		return nil, compileErrorf(ErrCodeInvalidIdentifier, n, "unsafe view name %q", view)
	}
	// The view reads the underlying collection; the transaction needs it
	// declared even though only the view name appears in the text.
	coll := aql.TrackRead(n.Type.Collection)

	inner, fragVar, err := c.introduceVariable(n.ItemVariable)
	if err != nil {
		return nil, err
	}
	filter, err := lowerExpr(ctx, n.Filter, inner)
	if err != nil {
		return nil, err
	}
	return aql.Concat(
		aql.Code("(FOR "), aql.Var(fragVar), aql.Code(" IN "+view+" SEARCH "), filter,
		aql.Code(" RETURN "), aql.Var(fragVar), aql.Code(")"), coll,
	), nil
}

// readCollection wraps the fragment builder's validation into the
// compiler's error taxonomy.
func readCollection(name string, node queryir.Node) (*aql.Fragment, error) {
	frag, err := aql.ReadCollection(name)
	if err != nil {
		return nil, compileErrorf(ErrCodeInvalidIdentifier, node, "%v", err)
	}
	return frag, nil
}

func writeCollection(name string, node queryir.Node) (*aql.Fragment, error) {
	frag, err := aql.WriteCollection(name)
	if err != nil {
		return nil, compileErrorf(ErrCodeInvalidIdentifier, node, "%v", err)
	}
	return frag, nil
}
