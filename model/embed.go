package model

import "context"

// Embedder maps text to a fixed-length vector. Callers own retry and
// dedup decisions; implementations do one call per Embed.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
