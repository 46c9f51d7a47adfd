package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNative_Scalars(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want IRValue
	}{
		{name: "nil", in: nil, want: IRNull{}},
		{name: "string", in: "abc", want: IRString("abc")},
		{name: "bool", in: true, want: IRBool(true)},
		{name: "int", in: 42, want: IRInt(42)},
		{name: "integral float", in: float64(7), want: IRInt(7)},
		{name: "fractional float", in: 1.5, want: IRFloat(1.5)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FromNative(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFromNative_Composite(t *testing.T) {
	got, ok := FromNative(map[string]any{
		"tags":  []any{"a", "b"},
		"count": float64(3),
	})
	require.True(t, ok)

	obj, isObj := got.(IRObject)
	require.True(t, isObj)
	assert.Equal(t, IRArray{IRString("a"), IRString("b")}, obj["tags"])
	assert.Equal(t, IRInt(3), obj["count"])
}

func TestFromNative_Unsupported(t *testing.T) {
	_, ok := FromNative(struct{}{})
	assert.False(t, ok)
}

func TestToNative_RoundTrip(t *testing.T) {
	val := IRObject{
		"name":   IRString("widget"),
		"price":  IRFloat(9.5),
		"stock":  IRInt(12),
		"active": IRBool(true),
		"extra":  IRNull{},
		"codes":  IRArray{IRInt(1), IRInt(2)},
	}

	native := ToNative(val)
	back, ok := FromNative(native)
	require.True(t, ok)
	assert.True(t, Equal(val, back))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(IRString("x"), IRString("x")))
	assert.False(t, Equal(IRString("x"), IRString("y")))
	assert.False(t, Equal(IRInt(1), IRFloat(1)))
	assert.True(t, Equal(IRArray{IRInt(1)}, IRArray{IRInt(1)}))
	assert.False(t, Equal(IRArray{IRInt(1)}, IRArray{IRInt(1), IRInt(2)}))
	assert.True(t, Equal(
		IRObject{"a": IRBool(false)},
		IRObject{"a": IRBool(false)},
	))
	assert.False(t, Equal(
		IRObject{"a": IRBool(false)},
		IRObject{"b": IRBool(false)},
	))
}

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	val := IRObject{
		"b": IRInt(2),
		"a": IRInt(1),
	}

	out, err := MarshalCanonical(val)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(out))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical(IRString("a<b>&c"))
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(out))
}

func TestMarshalCanonical_Numbers(t *testing.T) {
	out, err := MarshalCanonical(IRInt(-7))
	require.NoError(t, err)
	assert.Equal(t, "-7", string(out))

	out, err = MarshalCanonical(IRFloat(1.25))
	require.NoError(t, err)
	assert.Equal(t, "1.25", string(out))
}

func TestMarshalCanonical_Null(t *testing.T) {
	out, err := MarshalCanonical(IRNull{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	val := IRObject{
		"nested": IRObject{"z": IRString("ζ"), "y": IRArray{IRNull{}}},
		"plain":  IRInt(0),
	}

	first, err := MarshalCanonical(val)
	require.NoError(t, err)
	second, err := MarshalCanonical(val)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
