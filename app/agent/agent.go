package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"f1gpt/types"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/ssestream"
	"github.com/pkoukk/tiktoken-go"
)

// TokenStream yields completion text fragments in order.
type TokenStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Generator opens a streamed completion for a conversation plus one
// synthesized system instruction.
type Generator interface {
	Stream(ctx context.Context, system string, conversation []types.ChatMessage) (TokenStream, error)
}

// Agent drives an OpenAI-compatible chat completion endpoint (Groq in
// production).
type Agent struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *slog.Logger
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

func New(cfg Config) *Agent {
	return &Agent{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
		),
		model:       cfg.Model,
		temperature: 0.7,
		logger:      slog.Default(),
	}
}

// Stream sends the conversation with the system instruction appended and
// returns a primed token stream. The first provider event is fetched before
// returning, so auth and connection failures surface here instead of halfway
// through the response body.
func (a *Agent) Stream(ctx context.Context, system string, conversation []types.ChatMessage) (TokenStream, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation)+1)
	for _, m := range conversation {
		text := m.Content.Text()
		switch m.Role {
		case types.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case types.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}
	messages = append(messages, openai.SystemMessage(system))

	a.logPromptSize(system, conversation)

	stream := a.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.model),
		Messages:    messages,
		Temperature: openai.Float(a.temperature),
	})

	cs := &completionStream{stream: stream}
	cs.prime()
	if err := cs.Err(); err != nil {
		_ = cs.Close()
		return nil, &types.ProviderError{Provider: "llm", Op: "chat completion", Err: err}
	}
	return cs, nil
}

func (a *Agent) logPromptSize(system string, conversation []types.ChatMessage) {
	size := len(system)
	for _, m := range conversation {
		size += len(m.Content.Text())
	}
	if tokens, err := countTokens(system, conversation); err == nil {
		a.logger.Info("prompt assembled", "chars", size, "tokens", tokens)
		return
	}
	a.logger.Info("prompt assembled", "chars", size)
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// countTokens is best-effort: tiktoken needs a BPE file it may have to fetch,
// so a failure only downgrades the log line.
func countTokens(system string, conversation []types.ChatMessage) (int, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.EncodingForModel("gpt-3.5-turbo")
	})
	if encErr != nil {
		return 0, encErr
	}
	total := len(enc.Encode(system, nil, nil))
	for _, m := range conversation {
		total += len(enc.Encode(m.Content.Text(), nil, nil))
	}
	return total, nil
}

// completionStream adapts the SSE stream to TokenStream, skipping events that
// carry no delta text and holding the primed first token until Next is called.
type completionStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	cur    string
	buf    string
	primed bool
	done   bool
}

func (c *completionStream) prime() {
	if c.advance() {
		c.buf = c.cur
		c.primed = true
		return
	}
	c.done = true
}

func (c *completionStream) advance() bool {
	for c.stream.Next() {
		chunk := c.stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			c.cur = chunk.Choices[0].Delta.Content
			return true
		}
	}
	return false
}

func (c *completionStream) Next() bool {
	if c.primed {
		c.cur = c.buf
		c.primed = false
		return true
	}
	if c.done {
		return false
	}
	if c.advance() {
		return true
	}
	c.done = true
	return false
}

func (c *completionStream) Current() string { return c.cur }

func (c *completionStream) Err() error {
	if err := c.stream.Err(); err != nil {
		return fmt.Errorf("completion stream: %w", err)
	}
	return nil
}

func (c *completionStream) Close() error { return c.stream.Close() }
