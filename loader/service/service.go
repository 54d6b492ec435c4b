package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"f1gpt/config"
	"f1gpt/loader/internal"
	"f1gpt/model"
	"f1gpt/store"
	"f1gpt/types"

	"golang.org/x/sync/errgroup"
)

// Scraper fetches the rendered text of a page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// Service runs the ingestion batch: scrape each source URL, window the text,
// embed every window and upsert it into the collection. URLs are independent
// failure domains; chunks within a URL are too.
type Service struct {
	logger   *slog.Logger
	scraper  Scraper
	embedder model.Embedder
	store    store.VectorStorer
	sources  *config.Sources
}

// URLReport is the outcome for one source URL.
type URLReport struct {
	URL      string
	Inserted int
	Failed   int
	Skipped  bool
	Err      error
}

type Summary struct {
	Reports []URLReport
}

func (s Summary) TotalInserted() int {
	total := 0
	for _, r := range s.Reports {
		total += r.Inserted
	}
	return total
}

// AllFailed reports whether not a single URL produced chunks. Empty pages
// count as warnings, not failures.
func (s Summary) AllFailed() bool {
	if len(s.Reports) == 0 {
		return false
	}
	for _, r := range s.Reports {
		if r.Err == nil {
			return false
		}
	}
	return true
}

func New(scraper Scraper, embedder model.Embedder, storer store.VectorStorer, sources *config.Sources) *Service {
	return &Service{
		logger:   slog.Default(),
		scraper:  scraper,
		embedder: embedder,
		store:    storer,
		sources:  sources,
	}
}

// Run processes every configured URL and returns the batch summary.
func (s *Service) Run(ctx context.Context) Summary {
	var summary Summary
	for _, url := range s.sources.URLs {
		if ctx.Err() != nil {
			s.logger.Warn("ingestion cancelled", "remaining", len(s.sources.URLs)-len(summary.Reports))
			break
		}

		s.logger.Info("processing source", "url", url)
		report := s.processURL(ctx, url)
		summary.Reports = append(summary.Reports, report)

		switch {
		case report.Err != nil:
			s.logger.Error("source failed", "url", url, "error", report.Err)
		case report.Skipped:
			s.logger.Warn("no content found, skipping", "url", url)
		default:
			s.logger.Info("source ingested", "url", url, "inserted", report.Inserted, "failed", report.Failed)
		}
	}

	s.logger.Info("data loading complete",
		"urls", len(summary.Reports), "chunks_inserted", summary.TotalInserted())
	return summary
}

func (s *Service) processURL(ctx context.Context, url string) URLReport {
	report := URLReport{URL: url}

	content, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		report.Err = err
		return report
	}
	if content == "" {
		report.Skipped = true
		return report
	}

	chunks, err := internal.Chunk(content, s.sources.ChunkSize, s.sources.ChunkOverlap)
	if err != nil {
		report.Err = err
		return report
	}

	// Bounded worker pool; a failing chunk is recorded, never cancels its
	// siblings.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sources.Workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := s.ingestChunk(gctx, url, i, chunk); err != nil {
				s.logger.Warn("chunk failed", "url", url, "index", i, "error", err)
				mu.Lock()
				report.Failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			report.Inserted++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if report.Inserted == 0 {
		report.Err = fmt.Errorf("all %d chunks failed", len(chunks))
	}
	return report
}

func (s *Service) ingestChunk(ctx context.Context, url string, index int, content string) error {
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return err
	}
	return s.store.Upsert(ctx, types.DocumentChunk{
		ID:        types.ChunkID(url, index),
		Content:   content,
		SourceURL: url,
		Index:     index,
		Embedding: embedding,
	})
}
