package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opnet/internal/config"
)

func op(id string, deps ...string) *config.Operator {
	if deps == nil {
		deps = []string{}
	}
	return &config.Operator{
		ID:        id,
		Ref:       config.Ref{Module: "test", Name: "noop"},
		DependsOn: deps,
		Repeat:    1,
	}
}

func TestBuild_DiamondShape(t *testing.T) {
	g, err := Build([]*config.Operator{
		op("a"),
		op("b"),
		op("d", "a", "b"),
		op("f", "d"),
	})
	require.NoError(t, err)
	require.Equal(t, 4, g.Len())

	roots := g.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "a", roots[0].ID())
	assert.Equal(t, "b", roots[1].ID())

	deps := g.Node("d").Deps()
	require.Len(t, deps, 2)
	assert.Equal(t, "a", deps[0].ID())
	assert.Equal(t, "b", deps[1].ID())

	dependents := g.Dependents("d")
	require.Len(t, dependents, 1)
	assert.Equal(t, "f", dependents[0].ID())

	assert.Equal(t, 2, g.Node("d").DepCount())
	assert.Equal(t, 0, g.Node("a").DepCount())
}

func TestBuild_ErrorCases(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		_, err := Build([]*config.Operator{op("x"), op("x")})
		var verr *config.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "duplicate operator id")
	})

	t.Run("unknown dependency", func(t *testing.T) {
		_, err := Build([]*config.Operator{op("x", "ghost")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown id "ghost"`)
	})

	t.Run("self dependency", func(t *testing.T) {
		_, err := Build([]*config.Operator{op("x", "x")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "depends on itself")
	})
}

func TestBuild_CycleDetection(t *testing.T) {
	t.Run("direct cycle", func(t *testing.T) {
		_, err := Build([]*config.Operator{op("a", "b"), op("b", "a")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dependency cycle")
	})

	t.Run("longer cycle reports full path", func(t *testing.T) {
		_, err := Build([]*config.Operator{
			op("a", "c"),
			op("b", "a"),
			op("c", "b"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "a")
		assert.Contains(t, err.Error(), "b")
		assert.Contains(t, err.Error(), "c")
		assert.Contains(t, err.Error(), "->")
	})

	t.Run("cycle in disjoint component", func(t *testing.T) {
		_, err := Build([]*config.Operator{
			op("a"),
			op("b", "a"),
			op("x", "y"),
			op("y", "x"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dependency cycle")
	})

	t.Run("transitive edges are not cycles", func(t *testing.T) {
		_, err := Build([]*config.Operator{
			op("a"),
			op("b", "a"),
			op("c", "a", "b"),
			op("d", "c"),
		})
		assert.NoError(t, err)
	})
}

func TestNodes_PreserveDefinitionOrder(t *testing.T) {
	g, err := Build([]*config.Operator{op("z"), op("m", "z"), op("a", "z")})
	require.NoError(t, err)

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID())
	}
	assert.Equal(t, []string{"z", "m", "a"}, ids)
}
