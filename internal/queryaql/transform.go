package queryaql

import (
	"context"
	"strconv"

	"github.com/quilldb/quill/internal/aql"
	"github.com/quilldb/quill/internal/queryir"
)

// maxSafeInteger is the largest integer the wire format represents
// exactly; it serves as the open upper bound of a skip-only LIMIT.
const maxSafeInteger = "9007199254740991"

// lowerTransformList emits a FOR/FILTER/SORT/LIMIT/LET/RETURN block.
func lowerTransformList(ctx context.Context, n *queryir.TransformList, c *compileContext) (*aql.Fragment, error) {
	if n.List == nil || n.ItemVariable == nil || n.Inner == nil {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "transform list requires list, item variable, and inner node")
	}
	if n.Skip < 0 {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "transform list skip must be non-negative, got %d", n.Skip)
	}
	if n.MaxCount != nil && *n.MaxCount < 0 {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "transform list maxCount must be non-negative, got %d", *n.MaxCount)
	}

	// The list itself is evaluated in the outer scope; only filter, sort,
	// and the projection see the item variable.
	list, dangling, err := lowerListSource(ctx, n.List, c)
	if err != nil {
		return nil, err
	}
	itemCtx, itemVar, err := c.introduceVariable(n.ItemVariable)
	if err != nil {
		return nil, err
	}

	inner := n.Inner
	innerCtx := itemCtx
	var projectionLet *aql.Fragment
	if indirectionApplies(n, c) {
		// Bind a second item variable to the re-fetched document and point
		// the projection at it, so the engine only materializes documents
		// that survive SORT and LIMIT.
		projVar := queryir.NewVariable(n.ItemVariable.Label())
		inner = queryir.SubstituteVariable(inner, n.ItemVariable, projVar)
		var projFragVar *aql.Variable
		innerCtx, projFragVar, err = itemCtx.introduceVariable(projVar)
		if err != nil {
			return nil, err
		}
		projectionLet = aql.Concat(
			aql.Code("LET "), aql.Var(projFragVar),
			aql.Code(" = DOCUMENT("), aql.Var(itemVar), aql.Code("._id)"),
		)
	}

	// Assignments sitting directly on the projection become LET lines of
	// this block instead of FIRST(LET ...) wrappers.
	innerRewritten, assignments := queryir.ExtractVariableAssignments(inner)
	letLines, innerCtx, err := lowerAssignments(ctx, assignments, innerCtx)
	if err != nil {
		return nil, err
	}

	var lines []*aql.Fragment
	lines = append(lines, aql.Concat(aql.Code("FOR "), aql.Var(itemVar), aql.Code(" IN "), list))
	if dangling {
		lines = append(lines, aql.Concat(aql.Code("FILTER "), aql.Var(itemVar), aql.Code(" != null")))
	}

	if n.Filter != nil {
		filter := queryir.SimplifyBooleans(n.Filter)
		if !queryir.IsConstBool(filter, true) {
			filterFrag, err := lowerExpr(ctx, filter, itemCtx)
			if err != nil {
				return nil, err
			}
			lines = append(lines, aql.Concat(aql.Code("FILTER "), filterFrag))
		}
	}

	if len(n.OrderBy) > 0 {
		clauses := make([]*aql.Fragment, len(n.OrderBy))
		for i, clause := range n.OrderBy {
			expr, err := lowerExpr(ctx, clause.Expression, itemCtx)
			if err != nil {
				return nil, err
			}
			clauses[i] = aql.Concat(aql.Code("("), expr, aql.Code(")"))
			if clause.Descending {
				clauses[i] = aql.Concat(clauses[i], aql.Code(" DESC"))
			}
		}
		lines = append(lines, aql.Concat(aql.Code("SORT "), aql.Join(clauses, ", ")))
	}

	if limit := limitClause(n.Skip, n.MaxCount); limit != "" {
		lines = append(lines, aql.Code(limit))
	}

	if projectionLet != nil {
		lines = append(lines, projectionLet)
	}
	lines = append(lines, letLines...)

	innerFrag, err := lowerExpr(ctx, innerRewritten, innerCtx)
	if err != nil {
		return nil, err
	}
	lines = append(lines, aql.Concat(aql.Code("RETURN "), innerFrag))

	return aql.Lines(aql.Code("("), aql.Indent(aql.Lines(lines...)), aql.Code(")")), nil
}

// limitClause implements the LIMIT matrix. An unset maxCount with a
// positive skip still needs a LIMIT, so the upper bound becomes the
// largest exactly-representable integer.
func limitClause(skip int64, maxCount *int64) string {
	switch {
	case maxCount != nil && skip == 0:
		return "LIMIT " + strconv.FormatInt(*maxCount, 10)
	case maxCount != nil:
		return "LIMIT " + strconv.FormatInt(skip, 10) + ", " + strconv.FormatInt(*maxCount, 10)
	case skip > 0:
		return "LIMIT " + strconv.FormatInt(skip, 10) + ", " + maxSafeInteger
	default:
		return ""
	}
}

// indirectionApplies gates the projection-indirection rewrite: an entity
// scan with a bound result size, a projection that is not the bare item,
// and the experimental switch enabled for the type.
func indirectionApplies(n *queryir.TransformList, c *compileContext) bool {
	entities, ok := n.List.(*queryir.Entities)
	if !ok {
		return false
	}
	if n.MaxCount == nil {
		return false
	}
	if queryir.Equals(n.Inner, n.ItemVariable) {
		return false
	}
	return c.opts.ProjectionIndirection[entities.Type.Name]
}
