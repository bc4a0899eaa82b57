package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/smallnest/adaptiverag/rag"
)

const defaultTavilyURL = "https://api.tavily.com/search"

// TavilySearch queries the Tavily search API and returns result snippets
// as web passages.
type TavilySearch struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Client     *http.Client
}

type TavilyOption func(*TavilySearch)

// WithTavilyBaseURL overrides the API endpoint.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *TavilySearch) {
		t.BaseURL = baseURL
	}
}

// WithTavilyMaxResults sets the number of results to request (1-20).
func WithTavilyMaxResults(n int) TavilyOption {
	return func(t *TavilySearch) {
		if n < 1 {
			n = 1
		}
		if n > 20 {
			n = 20
		}
		t.MaxResults = n
	}
}

// WithTavilyHTTPClient sets a custom HTTP client.
func WithTavilyHTTPClient(c *http.Client) TavilyOption {
	return func(t *TavilySearch) {
		t.Client = c
	}
}

// NewTavilySearch creates a Tavily search client. If apiKey is empty it
// falls back to the TAVILY_API_KEY environment variable.
func NewTavilySearch(apiKey string, opts ...TavilyOption) (*TavilySearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}

	t := &TavilySearch{
		APIKey:     apiKey,
		BaseURL:    defaultTavilyURL,
		MaxResults: 3,
		Client:     &http.Client{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search implements rag.Searcher.
func (t *TavilySearch) Search(ctx context.Context, query string) ([]rag.Passage, error) {
	reqBody := map[string]any{
		"query":        query,
		"api_key":      t.APIKey,
		"search_depth": "basic",
		"max_results":  t.MaxResults,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.BaseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api status: %d", resp.StatusCode)
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	passages := make([]rag.Passage, 0, len(result.Results))
	for _, r := range result.Results {
		if r.Content == "" {
			continue
		}
		passages = append(passages, rag.Passage{Content: r.Content, Source: rag.SourceWeb})
	}
	return passages, nil
}
