package graphstore_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-retry/internal/graphstore"
)

func TestAddVertex(t *testing.T) {
	t.Parallel()

	store := graphstore.NewMemoryStore[string, string]()

	require.NoError(t, store.AddVertex("a", "a", graph.VertexProperties{}))
	assert.ErrorIs(t, store.AddVertex("a", "a", graph.VertexProperties{}), graph.ErrVertexAlreadyExists)

	_, _, err := store.Vertex("a")
	assert.NoError(t, err)

	_, _, err = store.Vertex("missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)

	count, err := store.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateVertex(t *testing.T) {
	t.Parallel()

	store := graphstore.NewMemoryStore[string, string]()

	props := graph.VertexProperties{Attributes: map[string]string{}}
	require.NoError(t, store.AddVertex("a", "a", props))

	store.UpdateVertex("a", func(p *graph.VertexProperties) {
		p.Attributes["xlabel"] = "retries: 2"
	})

	// unknown vertices are ignored
	store.UpdateVertex("missing", func(p *graph.VertexProperties) {
		p.Attributes["xlabel"] = "never"
	})

	_, got, err := store.Vertex("a")
	require.NoError(t, err)
	assert.Equal(t, "retries: 2", got.Attributes["xlabel"])
}

func TestEdges(t *testing.T) {
	t.Parallel()

	store := graphstore.NewMemoryStore[string, string]()

	require.NoError(t, store.AddVertex("a", "a", graph.VertexProperties{}))
	require.NoError(t, store.AddVertex("b", "b", graph.VertexProperties{}))

	_, err := store.Edge("a", "b")
	assert.ErrorIs(t, err, graph.ErrEdgeNotFound)

	require.NoError(t, store.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))

	edge, err := store.Edge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", edge.Target)

	edges, err := store.ListEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	assert.ErrorIs(t, store.RemoveVertex("a"), graph.ErrVertexHasEdges)
	require.NoError(t, store.RemoveEdge("a", "b"))
	require.NoError(t, store.RemoveVertex("a"))
}
