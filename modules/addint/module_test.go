package addint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	out, err := Add(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, out)

	// Loaders may deliver whole numbers as ints.
	out, err = Add(context.Background(), map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, 5.0, out)

	_, err = Add(context.Background(), map[string]any{"a": 2.0, "b": "three"})
	assert.ErrorContains(t, err, `"b"`)
}

func TestSum(t *testing.T) {
	out, err := Sum(context.Background(), map[string]any{"values": []any{1.0, 2, 3.5}})
	require.NoError(t, err)
	assert.Equal(t, 6.5, out)

	_, err = Sum(context.Background(), map[string]any{"values": []any{1.0, "x"}})
	assert.ErrorContains(t, err, "element 1")

	_, err = Sum(context.Background(), map[string]any{})
	assert.ErrorContains(t, err, "values")
}
