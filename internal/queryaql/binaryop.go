package queryaql

import (
	"context"
	"strings"

	"github.com/quilldb/quill/internal/aql"
	"github.com/quilldb/quill/internal/ir"
	"github.com/quilldb/quill/internal/queryir"
)

// maxCodePoint is appended to a prefix to form the exclusive upper bound
// of the prefix range: every string starting with the prefix sorts below
// prefix + U+10FFFF.
const maxCodePoint = "\U0010FFFF"

// binaryOpTokens maps the operators that lower to a single native token.
var binaryOpTokens = map[queryir.BinaryOperator]string{
	queryir.BinaryOperatorAnd:                "&&",
	queryir.BinaryOperatorOr:                 "||",
	queryir.BinaryOperatorEqual:              "==",
	queryir.BinaryOperatorUnequal:            "!=",
	queryir.BinaryOperatorLessThan:           "<",
	queryir.BinaryOperatorLessThanOrEqual:    "<=",
	queryir.BinaryOperatorGreaterThan:        ">",
	queryir.BinaryOperatorGreaterThanOrEqual: ">=",
	queryir.BinaryOperatorIn:                 "IN",
	queryir.BinaryOperatorAdd:                "+",
	queryir.BinaryOperatorSubtract:           "-",
	queryir.BinaryOperatorMultiply:           "*",
	queryir.BinaryOperatorDivide:             "/",
	queryir.BinaryOperatorModulo:             "%",
}

func lowerBinaryOp(ctx context.Context, n *queryir.BinaryOp, c *compileContext) (*aql.Fragment, error) {
	if n.Op == "" {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "binary operator must not be empty")
	}
	if n.LHS == nil || n.RHS == nil {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "binary operator %s is missing an operand", n.Op)
	}

	if token, ok := binaryOpTokens[n.Op]; ok {
		lhs, err := lowerExpr(ctx, n.LHS, c)
		if err != nil {
			return nil, err
		}
		rhs, err := lowerExpr(ctx, n.RHS, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("("), lhs, aql.Code(" "+token+" "), rhs, aql.Code(")")), nil
	}

	switch n.Op {
	case queryir.BinaryOperatorContains:
		lhs, err := lowerExpr(ctx, n.LHS, c)
		if err != nil {
			return nil, err
		}
		rhs, err := lowerExpr(ctx, n.RHS, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(lhs, aql.Code(` LIKE CONCAT("%", `), rhs, aql.Code(`, "%")`)), nil

	case queryir.BinaryOperatorStartsWith:
		lhs, err := lowerExpr(ctx, n.LHS, c)
		if err != nil {
			return nil, err
		}
		rhs, err := lowerExpr(ctx, n.RHS, c)
		if err != nil {
			return nil, err
		}
		slow := aql.Concat(
			aql.Code("(LEFT("), lhs, aql.Code(", LENGTH("), rhs, aql.Code(")) == "), rhs, aql.Code(")"),
		)
		if prefix, ok := literalString(n.RHS); ok {
			// The range form lets a persistent index narrow the scan; the
			// exact check keeps strict case semantics.
			return aql.Concat(aql.Code("("), fastStartsWith(lhs, prefix), aql.Code(" && "), slow, aql.Code(")")), nil
		}
		return slow, nil

	case queryir.BinaryOperatorEndsWith:
		lhs, err := lowerExpr(ctx, n.LHS, c)
		if err != nil {
			return nil, err
		}
		rhs, err := lowerExpr(ctx, n.RHS, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(
			aql.Code("(RIGHT("), lhs, aql.Code(", LENGTH("), rhs, aql.Code(")) == "), rhs, aql.Code(")"),
		), nil

	case queryir.BinaryOperatorLike:
		return lowerLike(ctx, n, c)

	case queryir.BinaryOperatorAppend:
		lhs, err := lowerExpr(ctx, n.LHS, c)
		if err != nil {
			return nil, err
		}
		rhs, err := lowerExpr(ctx, n.RHS, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("CONCAT("), lhs, aql.Code(", "), rhs, aql.Code(")")), nil

	case queryir.BinaryOperatorPrepend:
		lhs, err := lowerExpr(ctx, n.LHS, c)
		if err != nil {
			return nil, err
		}
		rhs, err := lowerExpr(ctx, n.RHS, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("CONCAT("), rhs, aql.Code(", "), lhs, aql.Code(")")), nil

	default:
		return nil, compileErrorf(ErrCodeUnsupportedOperator, n, "binary operator %q has no lowering rule", n.Op)
	}
}

// lowerLike analyzes literal patterns to replace or narrow the LIKE scan:
// a wildcard-free pattern becomes an equals-ignore-case range, a pure
// prefix pattern becomes the prefix range alone, and a mixed pattern
// conjoins the prefix range with the full case-insensitive LIKE.
func lowerLike(ctx context.Context, n *queryir.BinaryOp, c *compileContext) (*aql.Fragment, error) {
	lhs, err := lowerExpr(ctx, n.LHS, c)
	if err != nil {
		return nil, err
	}

	pattern, ok := literalString(n.RHS)
	if !ok {
		rhs, err := lowerExpr(ctx, n.RHS, c)
		if err != nil {
			return nil, err
		}
		return aql.Concat(aql.Code("LIKE("), lhs, aql.Code(", "), rhs, aql.Code(", true)")), nil
	}

	analyzed := analyzeLikePattern(pattern)
	switch {
	case analyzed.fullyLiteral:
		return equalsIgnoreCase(lhs, analyzed.prefix), nil
	case analyzed.purePrefix:
		return fastStartsWith(lhs, analyzed.prefix), nil
	default:
		slow := aql.Concat(
			aql.Code("LIKE("), lhs, aql.Code(", "), aql.Value(ir.IRString(pattern)), aql.Code(", true)"),
		)
		return aql.Concat(aql.Code("("), fastStartsWith(lhs, analyzed.prefix), aql.Code(" && "), slow, aql.Code(")")), nil
	}
}

// likeAnalysis describes the shape of a literal LIKE pattern. prefix is
// the unescaped literal run before the first wildcard (the whole pattern
// when fullyLiteral).
type likeAnalysis struct {
	prefix       string
	fullyLiteral bool
	purePrefix   bool
}

func analyzeLikePattern(pattern string) likeAnalysis {
	var prefix strings.Builder
	runes := []rune(pattern)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) {
				prefix.WriteRune(runes[i+1])
				i += 2
				continue
			}
			prefix.WriteRune(r)
			i++
		case '%', '_':
			// Pure prefix means exactly one trailing %.
			purePrefix := r == '%' && i == len(runes)-1
			return likeAnalysis{prefix: prefix.String(), purePrefix: purePrefix}
		default:
			prefix.WriteRune(r)
			i++
		}
	}
	return likeAnalysis{prefix: prefix.String(), fullyLiteral: true}
}

// fastStartsWith emits an index-friendly range covering every case
// variant of the prefix: UPPER(prefix) is the smallest string that equals
// the prefix ignoring case, LOWER(prefix + U+10FFFF) the largest upper
// bound, regardless of how the collator orders equal-ignore-case strings.
func fastStartsWith(lhs *aql.Fragment, prefix string) *aql.Fragment {
	if prefix == "" {
		return aql.Concat(aql.Code("IS_STRING("), lhs, aql.Code(")"))
	}
	upper := aql.Value(ir.IRString(prefix))
	lower := aql.Value(ir.IRString(prefix + maxCodePoint))
	return aql.Concat(
		aql.Code("("), lhs, aql.Code(" >= UPPER("), upper,
		aql.Code(") && "), lhs, aql.Code(" < LOWER("), lower, aql.Code("))"),
	)
}

// equalsIgnoreCase compares against a literal value ignoring case. When
// the value has no case-sensitive characters the comparison collapses to
// plain equality.
func equalsIgnoreCase(lhs *aql.Fragment, value string) *aql.Fragment {
	if strings.ToLower(value) == strings.ToUpper(value) {
		return aql.Concat(aql.Code("("), lhs, aql.Code(" == "), aql.Value(ir.IRString(value)), aql.Code(")"))
	}
	return aql.Concat(
		aql.Code("("), lhs, aql.Code(" >= UPPER("), aql.Value(ir.IRString(value)),
		aql.Code(") && "), lhs, aql.Code(" <= LOWER("), aql.Value(ir.IRString(value)), aql.Code("))"),
	)
}

// literalString returns the string carried by a Literal node.
func literalString(n queryir.Node) (string, bool) {
	lit, ok := n.(*queryir.Literal)
	if !ok {
		return "", false
	}
	s, ok := lit.Value.(ir.IRString)
	return string(s), ok
}

// caseInsensitiveLiteral reports whether a string matches itself under
// any casing, i.e. it contains no case-sensitive characters.
func caseInsensitiveLiteral(s string) bool {
	return strings.ToLower(s) == strings.ToUpper(s)
}
