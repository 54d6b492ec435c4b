package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"f1gpt/types"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIEmbedder talks to any OpenAI-compatible embeddings endpoint. Mistral's
// mistral-embed is the model in use; only the base URL and key make it so.
type OpenAIEmbedder struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

type EmbedderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewOpenAIEmbedder(cfg EmbedderConfig) *OpenAIEmbedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
		),
		model:   cfg.Model,
		timeout: timeout,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &types.ProviderError{Provider: "embeddings", Op: "embed", Err: fmt.Errorf("empty input")}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, &types.ProviderError{Provider: "embeddings", Op: "embed", Err: err}
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &types.ProviderError{Provider: "embeddings", Op: "embed", Err: fmt.Errorf("no embedding returned")}
	}

	vec := resp.Data[0].Embedding
	embedding := make([]float32, len(vec))
	for i, v := range vec {
		embedding[i] = float32(v)
	}
	return embedding, nil
}
