package tool

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher downloads a web page and extracts its readable text so it can
// be ingested into the corpus like any other document.
type PageFetcher struct {
	Client *http.Client
}

// NewPageFetcher creates a fetcher with a default HTTP client.
func NewPageFetcher() *PageFetcher {
	return &PageFetcher{Client: &http.Client{}}
}

// Fetch downloads the page at rawURL and returns its visible text with
// scripts, styles and navigation chrome stripped.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "adaptiverag/1.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	root := doc.Find("article")
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var sb strings.Builder
	root.Find("h1, h2, h3, h4, p, li, pre").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	})

	text := strings.TrimSpace(sb.String())
	if text == "" {
		// Fall back to the whole body text for pages without
		// paragraph structure.
		text = strings.TrimSpace(root.Text())
	}
	return text, nil
}
