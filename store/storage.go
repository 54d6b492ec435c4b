package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"f1gpt/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Projection restricts which optional columns Search returns. Content is
// always included.
type Projection struct {
	SourceURL bool
	Embedding bool
}

type VectorStorer interface {
	EnsureCollection(ctx context.Context, dimension int, metric types.SimilarityMetric) error
	Upsert(ctx context.Context, chunk types.DocumentChunk) error
	Search(ctx context.Context, vector []float32, k int, proj Projection) ([]types.ScoredChunk, error)
	Close()
}

// PostgresStore keeps one vector collection as a table inside a namespace
// schema, with pgvector doing the similarity ranking.
type PostgresStore struct {
	pool       *pgxpool.Pool
	namespace  string
	collection string
	dimension  int
	metric     types.SimilarityMetric
	logger     *slog.Logger
}

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func NewPostgresStore(ctx context.Context, connStr, namespace, collection string) (*PostgresStore, error) {
	if !identRe.MatchString(namespace) {
		return nil, &types.ConfigError{Key: "VECTOR_NAMESPACE", Reason: "not a valid identifier"}
	}
	if !identRe.MatchString(collection) {
		return nil, &types.ConfigError{Key: "VECTOR_COLLECTION", Reason: "not a valid identifier"}
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, &types.StoreError{Op: "connect", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &types.StoreError{Op: "ping", Err: err}
	}

	return &PostgresStore{
		pool:       pool,
		namespace:  namespace,
		collection: collection,
		logger:     slog.Default(),
	}, nil
}

func (s *PostgresStore) table() string {
	return fmt.Sprintf("%s.%s", s.namespace, s.collection)
}

func (s *PostgresStore) registry() string {
	return fmt.Sprintf("%s.collections", s.namespace)
}

// EnsureCollection creates the namespace, the collection table and its
// similarity index, and records the declared schema in a registry table.
// Calling it again with the same dimension and metric is a no-op; a different
// schema is an error, never a silent overwrite.
func (s *PostgresStore) EnsureCollection(ctx context.Context, dimension int, metric types.SimilarityMetric) error {
	if dimension <= 0 {
		return &types.StoreError{Op: "ensure collection", Err: fmt.Errorf("invalid dimension %d", dimension)}
	}
	opclass, ok := indexOpclass(metric)
	if !ok {
		return &types.StoreError{Op: "ensure collection", Err: fmt.Errorf("unknown metric %q", metric)}
	}

	setup := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;
	CREATE SCHEMA IF NOT EXISTS %s;
	CREATE TABLE IF NOT EXISTS %s (
		name      TEXT PRIMARY KEY,
		dimension INT  NOT NULL,
		metric    TEXT NOT NULL
	);`, s.namespace, s.registry())
	if _, err := s.pool.Exec(ctx, setup); err != nil {
		return &types.StoreError{Op: "ensure collection", Err: err}
	}

	var haveDim int
	var haveMetric string
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT dimension, metric FROM %s WHERE name = $1", s.registry()), s.collection)
	switch err := row.Scan(&haveDim, &haveMetric); {
	case err == nil:
		if haveDim != dimension || haveMetric != string(metric) {
			return &types.StoreError{
				Op: "ensure collection",
				Err: fmt.Errorf("collection %s exists with dimension=%d metric=%s, want dimension=%d metric=%s",
					s.collection, haveDim, haveMetric, dimension, metric),
			}
		}
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := s.pool.Exec(ctx,
			fmt.Sprintf("INSERT INTO %s (name, dimension, metric) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING",
				s.registry()),
			s.collection, dimension, string(metric)); err != nil {
			return &types.StoreError{Op: "ensure collection", Err: err}
		}
	default:
		return &types.StoreError{Op: "ensure collection", Err: err}
	}

	create := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id          UUID PRIMARY KEY,
		content     TEXT NOT NULL,
		source_url  TEXT NOT NULL,
		chunk_index INT  NOT NULL,
		embedding   vector(%d) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_%s_embedding ON %s
		USING ivfflat (embedding %s) WITH (lists = 100);`,
		s.table(), dimension, s.collection, s.table(), opclass)
	if _, err := s.pool.Exec(ctx, create); err != nil {
		return &types.StoreError{Op: "ensure collection", Err: err}
	}

	s.dimension = dimension
	s.metric = metric
	return nil
}

// Upsert writes one chunk, overwriting any previous row with the same ID.
func (s *PostgresStore) Upsert(ctx context.Context, chunk types.DocumentChunk) error {
	if s.dimension > 0 && len(chunk.Embedding) != s.dimension {
		return &types.StoreError{
			Op:  "upsert",
			Err: fmt.Errorf("vector length %d does not match collection dimension %d", len(chunk.Embedding), s.dimension),
		}
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (id, content, source_url, chunk_index, embedding)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		content     = EXCLUDED.content,
		source_url  = EXCLUDED.source_url,
		chunk_index = EXCLUDED.chunk_index,
		embedding   = EXCLUDED.embedding`, s.table())

	_, err := s.pool.Exec(ctx, query,
		chunk.ID, chunk.Content, chunk.SourceURL, chunk.Index, pgvector.NewVector(chunk.Embedding))
	if err != nil {
		return &types.StoreError{Op: "upsert", Err: err}
	}
	return nil
}

// Search returns up to k chunks ranked by similarity descending under the
// collection's metric. Fewer than k rows is not an error.
func (s *PostgresStore) Search(ctx context.Context, vector []float32, k int, proj Projection) ([]types.ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, &types.StoreError{Op: "search", Err: fmt.Errorf("empty query vector")}
	}
	if k <= 0 {
		return nil, nil
	}

	query, err := s.searchQuery(proj)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, &types.StoreError{Op: "search", Err: err}
	}
	defer rows.Close()

	var chunks []types.ScoredChunk
	for rows.Next() {
		var chunk types.ScoredChunk
		dest := []any{&chunk.Content}
		if proj.SourceURL {
			dest = append(dest, &chunk.SourceURL)
		}
		var embedding pgvector.Vector
		if proj.Embedding {
			dest = append(dest, &embedding)
		}
		dest = append(dest, &chunk.Score)
		if err := rows.Scan(dest...); err != nil {
			return nil, &types.StoreError{Op: "search", Err: err}
		}
		if proj.Embedding {
			chunk.Embedding = embedding.Slice()
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StoreError{Op: "search", Err: err}
	}
	return chunks, nil
}

// searchQuery builds the projection-aware SELECT. The score expression turns
// the pgvector distance into a similarity so higher is always better.
func (s *PostgresStore) searchQuery(proj Projection) (string, error) {
	op, score, ok := metricOps(s.metric)
	if !ok {
		return "", &types.StoreError{Op: "search", Err: fmt.Errorf("collection not initialized")}
	}

	cols := "content"
	if proj.SourceURL {
		cols += ", source_url"
	}
	if proj.Embedding {
		cols += ", embedding"
	}
	return fmt.Sprintf(
		"SELECT %s, %s AS score FROM %s ORDER BY embedding %s $1 LIMIT $2",
		cols, score, s.table(), op), nil
}

func indexOpclass(metric types.SimilarityMetric) (string, bool) {
	switch metric {
	case types.MetricDotProduct:
		return "vector_ip_ops", true
	case types.MetricCosine:
		return "vector_cosine_ops", true
	case types.MetricEuclidean:
		return "vector_l2_ops", true
	}
	return "", false
}

// metricOps maps a metric to its pgvector distance operator and a similarity
// expression over that operator. <#> is the negated inner product, so plain
// negation recovers the dot product.
func metricOps(metric types.SimilarityMetric) (op, score string, ok bool) {
	switch metric {
	case types.MetricDotProduct:
		return "<#>", "-(embedding <#> $1)", true
	case types.MetricCosine:
		return "<=>", "1 - (embedding <=> $1)", true
	case types.MetricEuclidean:
		return "<->", "-(embedding <-> $1)", true
	}
	return "", "", false
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("postgres connection pool closed")
	}
}
