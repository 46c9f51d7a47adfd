package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quilldb/quill/internal/ir"
)

func TestNewVariable_IdentityNotLabel(t *testing.T) {
	a := NewVariable("item")
	b := NewVariable("item")

	assert.Equal(t, a.Label(), b.Label())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.False(t, Equals(a, b))
	assert.True(t, Equals(a, a))
}

func TestNewTransformList_Validation(t *testing.T) {
	v := NewVariable("item")
	list := &List{}
	maxCount := int64(10)
	negative := int64(-1)

	testCases := []struct {
		name    string
		in      TransformList
		wantErr string
	}{
		{
			name: "valid",
			in:   TransformList{List: list, ItemVariable: v, Inner: v, Skip: 0, MaxCount: &maxCount},
		},
		{
			name:    "negative skip",
			in:      TransformList{List: list, ItemVariable: v, Inner: v, Skip: -3},
			wantErr: "skip must be non-negative",
		},
		{
			name:    "negative maxCount",
			in:      TransformList{List: list, ItemVariable: v, Inner: v, MaxCount: &negative},
			wantErr: "maxCount must be non-negative",
		},
		{
			name:    "missing inner",
			in:      TransformList{List: list, ItemVariable: v},
			wantErr: "requires list, item variable, and inner node",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTransformList(tc.in)
			if tc.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestNewBinaryOp_Validation(t *testing.T) {
	lhs, rhs := &Null{}, &Null{}

	_, err := NewBinaryOp("", lhs, rhs)
	require.Error(t, err)

	_, err = NewBinaryOp(BinaryOperatorEqual, lhs, nil)
	require.Error(t, err)

	op, err := NewBinaryOp(BinaryOperatorEqual, lhs, rhs)
	require.NoError(t, err)
	assert.Equal(t, BinaryOperatorEqual, op.Op)
}

func TestEquals_ValueNodes(t *testing.T) {
	assert.True(t, Equals(&Literal{Value: ir.IRString("a")}, &Literal{Value: ir.IRString("a")}))
	assert.False(t, Equals(&Literal{Value: ir.IRString("a")}, &Literal{Value: ir.IRString("b")}))
	assert.True(t, Equals(&ConstBool{Value: true}, &ConstBool{Value: true}))
	assert.False(t, Equals(&ConstBool{Value: true}, &ConstBool{Value: false}))
	assert.True(t, Equals(&ConstInt{Value: 3}, &ConstInt{Value: 3}))
	assert.True(t, Equals(&Null{}, &Null{}))
	assert.False(t, Equals(&Null{}, &ConstInt{Value: 0}))
}

func TestEquals_NonValueNodesByIdentity(t *testing.T) {
	a := &List{Items: []Node{&Null{}}}
	b := &List{Items: []Node{&Null{}}}

	assert.True(t, Equals(a, a))
	assert.False(t, Equals(a, b))
}

func TestSubstituteVariable(t *testing.T) {
	v := NewVariable("item")
	replacement := NewVariable("projected")
	tree := &BinaryOp{
		Op:  BinaryOperatorEqual,
		LHS: &Field{Object: v, Name: "itemNumber"},
		RHS: &Literal{Value: ir.IRString("x")},
	}

	rewritten := SubstituteVariable(tree, v, replacement)

	op, ok := rewritten.(*BinaryOp)
	require.True(t, ok)
	field, ok := op.LHS.(*Field)
	require.True(t, ok)
	assert.Same(t, replacement, field.Object)

	// The original tree is untouched.
	assert.Same(t, Node(v), tree.LHS.(*Field).Object)
}

func TestReferencesVariable(t *testing.T) {
	v := NewVariable("item")
	other := NewVariable("other")
	tree := &Field{Object: v, Name: "x"}

	assert.True(t, ReferencesVariable(tree, v))
	assert.False(t, ReferencesVariable(tree, other))
}

func TestTransformChildren_PreservesUnchangedNodes(t *testing.T) {
	tree := &BinaryOp{Op: BinaryOperatorAnd, LHS: &ConstBool{Value: true}, RHS: &ConstBool{Value: false}}

	same := TransformChildren(tree, func(n Node) Node { return n })
	assert.Same(t, Node(tree), same)
}
