package queryaql

import (
	"context"

	"github.com/quilldb/quill/internal/aql"
	"github.com/quilldb/quill/internal/ir"
	"github.com/quilldb/quill/internal/queryir"
)

// lowerQuantifier reduces quantifier predicates to counting filters after
// attempting the array-expansion fast path: "every" becomes "none" with a
// negated condition, "some" tests COUNT > 0, "none" tests COUNT == 0.
func lowerQuantifier(ctx context.Context, n *queryir.QuantifierFilter, c *compileContext) (*aql.Fragment, error) {
	if n.Quantifier == queryir.QuantifierSome {
		frag, ok, err := lowerQuantifierUsingArrayExpansion(ctx, n, c)
		if err != nil {
			return nil, err
		}
		if ok {
			return frag, nil
		}
	}

	quantifier := n.Quantifier
	condition := n.Condition
	switch quantifier {
	case queryir.QuantifierSome, queryir.QuantifierNone:
	case queryir.QuantifierEvery:
		// The array-expansion form cannot express "all", and neither can a
		// plain count; "every P" is "none (NOT P)".
		quantifier = queryir.QuantifierNone
		condition = &queryir.UnaryOp{Op: queryir.UnaryOperatorNot, Value: condition}
	default:
		return nil, compileErrorf(ErrCodeMalformedIR, n, "invalid quantifier %q", n.Quantifier)
	}
	condition = queryir.SimplifyBooleans(condition)

	list, dangling, err := lowerListSource(ctx, n.List, c)
	if err != nil {
		return nil, err
	}
	inner, itemVar, err := c.introduceVariable(n.ItemVariable)
	if err != nil {
		return nil, err
	}

	sub := aql.Concat(aql.Code("FOR "), aql.Var(itemVar), aql.Code(" IN "), list)
	if dangling {
		sub = aql.Concat(sub, aql.Code(" FILTER "), aql.Var(itemVar), aql.Code(" != null"))
	}
	if !queryir.IsConstBool(condition, true) {
		condFrag, err := lowerExpr(ctx, condition, inner)
		if err != nil {
			return nil, err
		}
		sub = aql.Concat(sub, aql.Code(" FILTER "), condFrag)
	}
	sub = aql.Concat(sub, aql.Code(" RETURN true"))

	comparison := " > 0)"
	if quantifier == queryir.QuantifierNone {
		comparison = " == 0)"
	}
	return aql.Concat(aql.Code("(COUNT("), sub, aql.Code(")"), aql.Code(comparison)), nil
}

// lowerQuantifierUsingArrayExpansion matches the shape a multi-value
// index can answer: the list is a field access (possibly wrapped in
// SafeList), the condition compares a field chain of the item variable
// against a value that does not depend on the item, and the comparison is
// EQUAL or a fully-literal case-insensitive LIKE. The emitted form is
// "value IN list[*].path.to.field".
//
// Only "some" lowers this way; the expansion form cannot express "all".
func lowerQuantifierUsingArrayExpansion(ctx context.Context, n *queryir.QuantifierFilter, c *compileContext) (*aql.Fragment, bool, error) {
	listNode := n.List
	if safe, ok := listNode.(*queryir.SafeList); ok {
		listNode = safe.List
	}
	field, ok := listNode.(*queryir.Field)
	if !ok {
		return nil, false, nil
	}

	cond, ok := n.Condition.(*queryir.BinaryOp)
	if !ok {
		return nil, false, nil
	}

	var value queryir.Node
	switch cond.Op {
	case queryir.BinaryOperatorEqual:
		value = cond.RHS
	case queryir.BinaryOperatorLike:
		pattern, isLiteral := literalString(cond.RHS)
		if !isLiteral {
			return nil, false, nil
		}
		analyzed := analyzeLikePattern(pattern)
		if !analyzed.fullyLiteral || !caseInsensitiveLiteral(analyzed.prefix) {
			return nil, false, nil
		}
		value = &queryir.Literal{Value: ir.IRString(analyzed.prefix)}
	default:
		return nil, false, nil
	}
	if queryir.ReferencesVariable(value, n.ItemVariable) {
		return nil, false, nil
	}

	segments, rooted := fieldChain(cond.LHS, n.ItemVariable)
	if !rooted || len(segments) == 0 {
		return nil, false, nil
	}
	for _, segment := range segments {
		if !aql.IsSafeIdentifier(segment) {
			return nil, false, nil
		}
	}

	// The [*] expansion of a non-list yields no elements, which matches
	// what the SafeList wrapper would produce, so the unwrapped field is
	// lowered directly.
	listFrag, err := lowerExpr(ctx, field, c)
	if err != nil {
		return nil, false, err
	}
	valueFrag, err := lowerExpr(ctx, value, c)
	if err != nil {
		return nil, false, err
	}

	path := "[*]"
	for _, segment := range segments {
		path += "." + segment
	}
	return aql.Concat(valueFrag, aql.Code(" IN "), listFrag, aql.Code(path)), true, nil
}

// fieldChain collects the access path of a chain of Field nodes down to a
// root variable. Returns the segments outermost-last and whether the
// chain actually ends at root.
func fieldChain(n queryir.Node, root *queryir.Variable) ([]string, bool) {
	switch t := n.(type) {
	case *queryir.Variable:
		return nil, t == root
	case *queryir.Field:
		inner, ok := fieldChain(t.Object, root)
		if !ok {
			return nil, false
		}
		segments := append(inner, t.Path...)
		return append(segments, t.Name), true
	default:
		return nil, false
	}
}
