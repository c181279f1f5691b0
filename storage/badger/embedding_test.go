package badger

import (
	"context"
	"testing"

	"github.com/poiesic/spelite/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingRepository_PutGet(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, found, err := repos.Embeddings.GetEmbedding(ctx, "Fireball: boom")
	require.NoError(t, err)
	assert.False(t, found)

	written, err := repos.Embeddings.PutEmbeddings(ctx, []core.Embedding{
		{Text: "Fireball: boom", Vector: []float32{0.6, 0.8}},
		{Text: "Shield: block", Vector: []float32{1, 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	vector, found, err := repos.Embeddings.GetEmbedding(ctx, "Fireball: boom")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []float32{0.6, 0.8}, vector)

	count, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEmbeddingRepository_AppendOnly(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Embeddings.PutEmbeddings(ctx, []core.Embedding{{Text: "a", Vector: []float32{1}}})
	require.NoError(t, err)

	written, err := repos.Embeddings.PutEmbeddings(ctx, []core.Embedding{
		{Text: "a", Vector: []float32{0.5}},
		{Text: "b", Vector: []float32{1}},
		{Text: "b", Vector: []float32{1}},
		{Text: "empty"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	vector, _, err := repos.Embeddings.GetEmbedding(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vector, "existing entries are never rewritten")

	count, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEmbeddingRepository_GetEmbeddings(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Embeddings.PutEmbeddings(ctx, []core.Embedding{{Text: "a", Vector: []float32{1}}})
	require.NoError(t, err)

	found, err := repos.Embeddings.GetEmbeddings(ctx, []string{"a", "missing", "a"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, []float32{1}, found["a"])
}

func TestEmbeddingRepository_Clear(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Embeddings.PutEmbeddings(ctx, []core.Embedding{{Text: "a", Vector: []float32{1}}})
	require.NoError(t, err)
	_, err = repos.Triplets.BulkLoad(ctx, fixtureTriplets())
	require.NoError(t, err)

	require.NoError(t, repos.Embeddings.ClearEmbeddings(ctx))

	count, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// triplets are untouched
	triplets, err := repos.Triplets.CountTriplets(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(fixtureTriplets()), triplets)
}
