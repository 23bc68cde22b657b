package attr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsList(t *testing.T) {
	scalar := Scalar("value")
	items, err := AsList(scalar)
	require.NoError(t, err)
	assert.Equal(t, []*Node{scalar}, items)

	seq := Sequence(Scalar("a"), Scalar("b"))
	items, err = AsList(seq)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = AsList(Mapping(Pair("k", Scalar("v"))))
	var tErr *TypeMismatchError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "scalar-or-list", tErr.Expected)
	assert.Equal(t, "mapping", tErr.Got)
}

func TestAsStrings_ScalarEqualsSingleElementList(t *testing.T) {
	fromScalar, err := AsStrings(Scalar("value"))
	require.NoError(t, err)
	fromList, err := AsStrings(Sequence(Scalar("value")))
	require.NoError(t, err)
	assert.Equal(t, fromList, fromScalar)
}

func TestAsStrings_NestedCollection(t *testing.T) {
	_, err := AsStrings(Sequence(Scalar("a"), Sequence(Scalar("b"))))

	var tErr *TypeMismatchError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "scalar", tErr.Expected)
	assert.Equal(t, "sequence", tErr.Got)
}

func TestAsScalar(t *testing.T) {
	v, err := AsScalar(Scalar("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = AsScalar(Sequence(Scalar("y")))
	require.NoError(t, err)
	assert.Equal(t, "y", v)

	_, err = AsScalar(Sequence(Scalar("a"), Scalar("b")))
	assert.Error(t, err)

	_, err = AsScalar(Mapping())
	assert.Error(t, err)
}

func TestAsMapping(t *testing.T) {
	entries, err := AsMapping(Mapping(Pair("a", Scalar("1")), Pair("b", Scalar("2"))))
	require.NoError(t, err)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "b", entries[1].Key)

	// 旧式数组写法
	entries, err = AsMapping(Sequence(Scalar("old"), Scalar("new"), Scalar("x"), Scalar("y")))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "old", entries[0].Key)
	assert.Equal(t, "new", entries[0].Value.Value)
	assert.Equal(t, "x", entries[1].Key)

	_, err = AsMapping(Sequence(Scalar("odd")))
	var tErr *TypeMismatchError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "sequence of 1 values", tErr.Got)

	_, err = AsMapping(Sequence(Scalar("k"), Scalar("1"), Scalar("k"), Scalar("2")))
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "unique key", tErr.Expected)

	_, err = AsMapping(Scalar("x"))
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "scalar", tErr.Got)
}

func TestAsBool(t *testing.T) {
	b, err := AsBool(Scalar("true"))
	require.NoError(t, err)
	assert.True(t, b)

	b, err = AsBool(Scalar("false"))
	require.NoError(t, err)
	assert.False(t, b)

	_, err = AsBool(Scalar("yes"))
	assert.Error(t, err)
}

func TestMapping_DuplicateKeyPanics(t *testing.T) {
	assert.Panics(t, func() {
		Mapping(Pair("a", Scalar("1")), Pair("a", Scalar("2")))
	})
}

func TestNode_String(t *testing.T) {
	block, err := ParseBlock(`mutate { append => { "f" => ["a", "b"] } }`)
	require.NoError(t, err)
	assert.Equal(t, `{ "append" => { "f" => ["a", "b"] } }`, block.Body.String())
}
