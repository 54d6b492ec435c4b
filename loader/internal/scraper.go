package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "f1gpt-loader/1.0"

// PageScraper fetches a page and extracts its visible body text.
type PageScraper struct {
	client *http.Client
}

func NewPageScraper(timeout time.Duration) *PageScraper {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &PageScraper{
		client: &http.Client{Timeout: timeout},
	}
}

func (s *PageScraper) Scrape(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("scrape %s: unexpected status %s", url, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", url, err)
	}

	doc.Find("script, style, noscript, template").Remove()
	return NormalizeWhitespace(doc.Find("body").Text()), nil
}

// NormalizeWhitespace collapses whitespace runs to single spaces and trims
// the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
