package queryaql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quilldb/quill/internal/ir"
	"github.com/quilldb/quill/internal/queryir"
)

// compileExpr wraps an expression that references v into a hoisted
// assignment so the variable is in scope, and returns the main text.
func compileExpr(t *testing.T, v *queryir.Variable, expr queryir.Node) *CompoundQuery {
	t.Helper()
	return compile(t, &queryir.VariableAssignment{
		Variable: v,
		Value:    &queryir.Literal{Value: ir.IRString("seed")},
		Result:   expr,
	})
}

func TestLowerBinaryOp_DirectTokens(t *testing.T) {
	testCases := []struct {
		op   queryir.BinaryOperator
		want string
	}{
		{queryir.BinaryOperatorAnd, "&&"},
		{queryir.BinaryOperatorOr, "||"},
		{queryir.BinaryOperatorEqual, "=="},
		{queryir.BinaryOperatorUnequal, "!="},
		{queryir.BinaryOperatorLessThan, "<"},
		{queryir.BinaryOperatorLessThanOrEqual, "<="},
		{queryir.BinaryOperatorGreaterThan, ">"},
		{queryir.BinaryOperatorGreaterThanOrEqual, ">="},
		{queryir.BinaryOperatorIn, "IN"},
		{queryir.BinaryOperatorAdd, "+"},
		{queryir.BinaryOperatorSubtract, "-"},
		{queryir.BinaryOperatorMultiply, "*"},
		{queryir.BinaryOperatorDivide, "/"},
		{queryir.BinaryOperatorModulo, "%"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.op), func(t *testing.T) {
			q := compile(t, &queryir.BinaryOp{
				Op:  tc.op,
				LHS: &queryir.ConstInt{Value: 1},
				RHS: &queryir.ConstInt{Value: 2},
			})
			assert.Equal(t, "RETURN (1 "+tc.want+" 2)", normWS(q.Main.Text))
		})
	}
}

func TestLowerBinaryOp_Contains(t *testing.T) {
	v := queryir.NewVariable("d")
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorContains,
		LHS: &queryir.Field{Object: v, Name: "description"},
		RHS: &queryir.Literal{Value: ir.IRString("box")},
	})

	assert.Contains(t, normWS(q.Main.Text), `v_d.description LIKE CONCAT("%", @p1, "%")`)
}

func TestLowerBinaryOp_StartsWithLiteral(t *testing.T) {
	v := queryir.NewVariable("d")
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorStartsWith,
		LHS: &queryir.Field{Object: v, Name: "description"},
		RHS: &queryir.Literal{Value: ir.IRString("abc")},
	})

	text := normWS(q.Main.Text)
	// Range fast path plus the strict check.
	assert.Contains(t, text, "v_d.description >= UPPER(")
	assert.Contains(t, text, "v_d.description < LOWER(")
	assert.Contains(t, text, "LEFT(v_d.description, LENGTH(")

	var sawMax bool
	for _, bound := range q.Main.Bindings {
		if bound == "abc"+maxCodePoint {
			sawMax = true
		}
	}
	assert.True(t, sawMax, "upper range bound must be prefix plus U+10FFFF")
}

func TestLowerBinaryOp_StartsWithDynamic(t *testing.T) {
	v := queryir.NewVariable("d")
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorStartsWith,
		LHS: &queryir.Field{Object: v, Name: "a"},
		RHS: &queryir.Field{Object: v, Name: "b"},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "(LEFT(v_d.a, LENGTH(v_d.b)) == v_d.b)")
	assert.NotContains(t, text, "UPPER")
}

func TestLowerBinaryOp_EndsWith(t *testing.T) {
	v := queryir.NewVariable("d")
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorEndsWith,
		LHS: &queryir.Field{Object: v, Name: "description"},
		RHS: &queryir.Literal{Value: ir.IRString("xyz")},
	})

	assert.Contains(t, normWS(q.Main.Text), "(RIGHT(v_d.description, LENGTH(@p1)) == @p2)")
}

func TestLowerBinaryOp_LikeFullyLiteral(t *testing.T) {
	v := queryir.NewVariable("d")
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorLike,
		LHS: &queryir.Field{Object: v, Name: "description"},
		RHS: &queryir.Literal{Value: ir.IRString("abc")},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "v_d.description >= UPPER(@p1)")
	assert.Contains(t, text, "v_d.description <= LOWER(@p2)")
	assert.NotContains(t, text, "LIKE(")
	assert.Equal(t, "abc", q.Main.Bindings["p1"])
	assert.Equal(t, "abc", q.Main.Bindings["p2"])
}

func TestLowerBinaryOp_LikePurePrefix(t *testing.T) {
	v := queryir.NewVariable("d")
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorLike,
		LHS: &queryir.Field{Object: v, Name: "description"},
		RHS: &queryir.Literal{Value: ir.IRString("prefix%")},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "(v_d.description >= UPPER(@p1) && v_d.description < LOWER(@p2))")
	assert.NotContains(t, text, "LIKE(")
	assert.Equal(t, "prefix", q.Main.Bindings["p1"])
	assert.Equal(t, "prefix"+maxCodePoint, q.Main.Bindings["p2"])
}

func TestLowerBinaryOp_LikeMixedPattern(t *testing.T) {
	v := queryir.NewVariable("d")
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorLike,
		LHS: &queryir.Field{Object: v, Name: "description"},
		RHS: &queryir.Literal{Value: ir.IRString("a%b")},
	})

	text := normWS(q.Main.Text)
	// Fast range over the literal prefix conjoined with the slow check.
	assert.Contains(t, text, "v_d.description >= UPPER(@p1)")
	assert.Contains(t, text, "LIKE(v_d.description, @p3, true)")
	assert.Equal(t, "a", q.Main.Bindings["p1"])
	assert.Equal(t, "a%b", q.Main.Bindings["p3"])
}

func TestLowerBinaryOp_LikeDynamicPattern(t *testing.T) {
	v := queryir.NewVariable("d")
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorLike,
		LHS: &queryir.Field{Object: v, Name: "a"},
		RHS: &queryir.Field{Object: v, Name: "pattern"},
	})

	assert.Contains(t, normWS(q.Main.Text), "LIKE(v_d.a, v_d.pattern, true)")
}

func TestLowerBinaryOp_AppendPrepend(t *testing.T) {
	v := queryir.NewVariable("d")

	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorAppend,
		LHS: v,
		RHS: &queryir.Literal{Value: ir.IRString("-suffix")},
	})
	assert.Contains(t, normWS(q.Main.Text), "CONCAT(v_d, @p1)")

	q = compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorPrepend,
		LHS: v,
		RHS: &queryir.Literal{Value: ir.IRString("prefix-")},
	})
	assert.Contains(t, normWS(q.Main.Text), "CONCAT(@p1, v_d)")
}

func TestAnalyzeLikePattern(t *testing.T) {
	testCases := []struct {
		pattern string
		want    likeAnalysis
	}{
		{"abc", likeAnalysis{prefix: "abc", fullyLiteral: true}},
		{"abc%", likeAnalysis{prefix: "abc", purePrefix: true}},
		{"a%b", likeAnalysis{prefix: "a"}},
		{"a_b", likeAnalysis{prefix: "a"}},
		{"%x", likeAnalysis{prefix: ""}},
		{`a\%b`, likeAnalysis{prefix: "a%b", fullyLiteral: true}},
		{`a\%b%`, likeAnalysis{prefix: "a%b", purePrefix: true}},
		{"", likeAnalysis{prefix: "", fullyLiteral: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.pattern, func(t *testing.T) {
			assert.Equal(t, tc.want, analyzeLikePattern(tc.pattern))
		})
	}
}

func TestFastStartsWith_EmptyPrefix(t *testing.T) {
	v := queryir.NewVariable("d")
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorLike,
		LHS: v,
		RHS: &queryir.Literal{Value: ir.IRString("%abc")},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "IS_STRING(v_d)")
	assert.Contains(t, text, "LIKE(v_d, @p1, true)")
}

func TestEqualsIgnoreCase_CaseInsensitiveLiteral(t *testing.T) {
	v := queryir.NewVariable("d")
	// Digits have no case variants, so the range collapses to equality.
	q := compileExpr(t, v, &queryir.BinaryOp{
		Op:  queryir.BinaryOperatorLike,
		LHS: v,
		RHS: &queryir.Literal{Value: ir.IRString("12345")},
	})

	text := normWS(q.Main.Text)
	assert.Contains(t, text, "(v_d == @p1)")
	assert.NotContains(t, text, "UPPER")
}

func TestLowerUnaryOp(t *testing.T) {
	q := compile(t, &queryir.UnaryOp{Op: queryir.UnaryOperatorNot, Value: &queryir.ConstBool{Value: false}})
	// The boolean rewrite does not run on bare roots; NOT lowers directly.
	assert.Equal(t, "RETURN !(false)", normWS(q.Main.Text))

	q = compile(t, &queryir.UnaryOp{Op: queryir.UnaryOperatorJSONStringify, Value: &queryir.Null{}})
	assert.Equal(t, "RETURN JSON_STRINGIFY(null)", normWS(q.Main.Text))

	_, err := Compile(t.Context(), &queryir.UnaryOp{Op: "NEGATE", Value: &queryir.Null{}}, Options{})
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeUnsupportedOperator))
}
