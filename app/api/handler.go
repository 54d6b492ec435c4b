package api

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"f1gpt/app/agent"
	"f1gpt/model"
	"f1gpt/store"
	"f1gpt/types"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// How many chunks retrieval feeds into the prompt.
const retrievalLimit = 5

const (
	contextStart = "START CONTEXT"
	contextEnd   = "END CONTEXT"
)

// ChatHandler answers POST /api/chat: embed the latest user message, pull the
// closest chunks out of the collection, fold them into a system instruction
// and stream the completion back. Stateless across requests.
type ChatHandler struct {
	embedder model.Embedder
	store    store.VectorStorer
	agent    agent.Generator
	logger   *slog.Logger
	timeout  time.Duration
}

func NewChatHandler(embedder model.Embedder, storer store.VectorStorer, generator agent.Generator, timeout time.Duration) *ChatHandler {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ChatHandler{
		embedder: embedder,
		store:    storer,
		agent:    generator,
		logger:   slog.Default(),
		timeout:  timeout,
	}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req types.ChatRequest
	if c.BodyParser(&req) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&req); len(errors) > 0 {
		return NewValidationError(errors)
	}

	latest := req.Messages[len(req.Messages)-1].Content.Text()

	retrieveCtx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	docContext, err := h.retrieve(retrieveCtx, latest)
	cancel()
	if err != nil {
		// Retrieval never blocks the answer: fall back to general knowledge.
		h.logger.Warn("retrieval failed, answering without context", "error", err)
		docContext = ""
	}

	system := ComposeSystemPrompt(docContext)

	// The body writer runs after this handler returns, so the generation
	// context cannot hang off the request context.
	genCtx, genCancel := context.WithTimeout(context.Background(), h.timeout)
	stream, err := h.agent.Stream(genCtx, system, req.Messages)
	if err != nil {
		genCancel()
		h.logger.Error("completion failed", "error", err)
		return ErrGeneration()
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer genCancel()
		defer stream.Close()
		for stream.Next() {
			if _, err := w.WriteString(stream.Current()); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
		if err := stream.Err(); err != nil {
			h.logger.Error("completion stream aborted", "error", err)
		}
	}))
	return nil
}

// retrieve embeds the question and joins the top matching chunk contents.
// The caller decides what to do with a failure; this just reports it.
func (h *ChatHandler) retrieve(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil
	}

	embedding, err := h.embedder.Embed(ctx, question)
	if err != nil {
		return "", err
	}

	hits, err := h.store.Search(ctx, embedding, retrievalLimit, store.Projection{})
	if err != nil {
		return "", err
	}

	contents := make([]string, len(hits))
	for i, hit := range hits {
		contents[i] = hit.Content
	}
	return strings.Join(contents, "\n\n"), nil
}

// ComposeSystemPrompt builds the per-request system instruction. The context
// delimiters are always present, even around an empty context.
func ComposeSystemPrompt(docContext string) string {
	return fmt.Sprintf(`You are F1GPT, a friendly and helpful AI who is an expert in Formula One.
Use the context below to augment what you know about Formula One racing.
If the context doesn't include the information you need, answer based on what
you already know, and don't mention the source of your information or what the
context does or doesn't include.
If you don't know the answer, just say that you don't know; don't make up an answer.

%s
%s
%s`, contextStart, docContext, contextEnd)
}
