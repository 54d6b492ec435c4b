package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentPart is one element of a structured message content array.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MessageContent is either a plain string or a list of typed parts. Exactly
// one of Plain/Parts is set after decoding.
type MessageContent struct {
	Plain string
	Parts []ContentPart
}

func (m *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Plain = s
		m.Parts = nil
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err == nil {
		m.Plain = ""
		m.Parts = parts
		return nil
	}
	return fmt.Errorf("message content is neither a string nor a part array")
}

func (m MessageContent) MarshalJSON() ([]byte, error) {
	if m.Parts != nil {
		return json.Marshal(m.Parts)
	}
	return json.Marshal(m.Plain)
}

// Text extracts the plain text of the content. For structured content the
// first text-typed part wins.
func (m MessageContent) Text() string {
	if m.Parts == nil {
		return m.Plain
	}
	for _, p := range m.Parts {
		if p.Type == "text" {
			return p.Text
		}
	}
	return ""
}

// PlainContent builds a plain-string content value.
func PlainContent(text string) MessageContent {
	return MessageContent{Plain: text}
}

type ChatMessage struct {
	Role    Role           `json:"role"`
	Content MessageContent `json:"content"`
}

// SimilarityMetric selects how the vector collection ranks neighbours.
type SimilarityMetric string

const (
	MetricDotProduct SimilarityMetric = "dot_product"
	MetricCosine     SimilarityMetric = "cosine"
	MetricEuclidean  SimilarityMetric = "euclidean"
)

func ParseMetric(s string) (SimilarityMetric, error) {
	switch SimilarityMetric(s) {
	case MetricDotProduct, MetricCosine, MetricEuclidean:
		return SimilarityMetric(s), nil
	}
	return "", fmt.Errorf("unknown similarity metric %q", s)
}

// DocumentChunk is the unit of indexing: one window of a scraped page plus
// its embedding.
type DocumentChunk struct {
	ID        uuid.UUID
	Content   string
	SourceURL string
	Index     int
	Embedding []float32
}

// ChunkID derives a stable identity from the chunk's origin so re-ingesting
// a page overwrites its rows instead of duplicating them.
func ChunkID(sourceURL string, index int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", sourceURL, index)))
}

// ScoredChunk is a retrieval hit. Result sets are ordered by Score descending.
type ScoredChunk struct {
	Content   string
	SourceURL string
	Score     float64
	Embedding []float32
}
