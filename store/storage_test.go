package store

import (
	"context"
	"testing"

	"f1gpt/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(metric types.SimilarityMetric) *PostgresStore {
	return &PostgresStore{
		namespace:  "f1gpt",
		collection: "f1_chunks",
		dimension:  1024,
		metric:     metric,
	}
}

func TestMetricOpsMapping(t *testing.T) {
	cases := []struct {
		metric  types.SimilarityMetric
		op      string
		opclass string
	}{
		{types.MetricDotProduct, "<#>", "vector_ip_ops"},
		{types.MetricCosine, "<=>", "vector_cosine_ops"},
		{types.MetricEuclidean, "<->", "vector_l2_ops"},
	}
	for _, c := range cases {
		op, _, ok := metricOps(c.metric)
		require.True(t, ok)
		assert.Equal(t, c.op, op)

		opclass, ok := indexOpclass(c.metric)
		require.True(t, ok)
		assert.Equal(t, c.opclass, opclass)
	}

	_, _, ok := metricOps("manhattan")
	assert.False(t, ok)
	_, ok = indexOpclass("manhattan")
	assert.False(t, ok)
}

func TestSearchQueryProjection(t *testing.T) {
	s := testStore(types.MetricCosine)

	minimal, err := s.searchQuery(Projection{})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT content, 1 - (embedding <=> $1) AS score FROM f1gpt.f1_chunks ORDER BY embedding <=> $1 LIMIT $2",
		minimal)

	full, err := s.searchQuery(Projection{SourceURL: true, Embedding: true})
	require.NoError(t, err)
	assert.Contains(t, full, "content, source_url, embedding,")
}

func TestSearchQueryDotProductScoreIsNegatedDistance(t *testing.T) {
	s := testStore(types.MetricDotProduct)
	q, err := s.searchQuery(Projection{})
	require.NoError(t, err)
	assert.Contains(t, q, "-(embedding <#> $1) AS score")
	assert.Contains(t, q, "ORDER BY embedding <#> $1")
}

func TestSearchQueryFailsWithoutMetric(t *testing.T) {
	s := &PostgresStore{namespace: "f1gpt", collection: "f1_chunks"}
	_, err := s.searchQuery(Projection{})
	assert.Error(t, err)
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	s := testStore(types.MetricDotProduct)

	err := s.Upsert(context.Background(), types.DocumentChunk{
		ID:        types.ChunkID("https://example.com", 0),
		Content:   "short vector",
		SourceURL: "https://example.com",
		Embedding: make([]float32, 8),
	})

	var storeErr *types.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "upsert", storeErr.Op)
}

func TestSearchRejectsEmptyVector(t *testing.T) {
	s := testStore(types.MetricCosine)
	_, err := s.Search(context.Background(), nil, 5, Projection{})
	assert.Error(t, err)
}

func TestSearchZeroKReturnsNothing(t *testing.T) {
	s := testStore(types.MetricCosine)
	hits, err := s.Search(context.Background(), []float32{1}, 0, Projection{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIdentifierValidation(t *testing.T) {
	assert.True(t, identRe.MatchString("f1gpt"))
	assert.True(t, identRe.MatchString("_chunks_2"))
	assert.False(t, identRe.MatchString("1bad"))
	assert.False(t, identRe.MatchString("bad-name"))
	assert.False(t, identRe.MatchString("drop table;"))
}
