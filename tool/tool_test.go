package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/adaptiverag/rag"
)

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-key", body["api_key"])
		assert.Equal(t, "agent memory", body["query"])

		fmt.Fprint(w, `{"results": [
			{"title": "A", "url": "https://a.example", "content": "first snippet", "score": 0.9},
			{"title": "B", "url": "https://b.example", "content": "second snippet", "score": 0.7},
			{"title": "C", "url": "https://c.example", "content": "", "score": 0.1}
		]}`)
	}))
	defer server.Close()

	ts, err := NewTavilySearch("test-key", WithTavilyBaseURL(server.URL))
	require.NoError(t, err)

	passages, err := ts.Search(context.Background(), "agent memory")
	require.NoError(t, err)
	require.Len(t, passages, 2, "empty-content results are dropped")
	assert.Equal(t, "first snippet", passages[0].Content)
	assert.Equal(t, rag.SourceWeb, passages[0].Source)
}

func TestTavilySearch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	ts, err := NewTavilySearch("test-key", WithTavilyBaseURL(server.URL))
	require.NoError(t, err)

	_, err = ts.Search(context.Background(), "q")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tavily api status")
}

func TestNewTavilySearch_NoKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	_, err := NewTavilySearch("")
	assert.Error(t, err)
}

func TestBraveSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "suite-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "go concurrency", r.URL.Query().Get("q"))

		fmt.Fprint(w, `{"web": {"results": [
			{"title": "Title only", "url": "https://a.example", "description": ""},
			{"title": "B", "url": "https://b.example", "description": "a description"}
		]}}`)
	}))
	defer server.Close()

	bs, err := NewBraveSearch("suite-key", WithBraveBaseURL(server.URL), WithBraveCount(2))
	require.NoError(t, err)

	passages, err := bs.Search(context.Background(), "go concurrency")
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "Title only", passages[0].Content, "title is the fallback content")
	assert.Equal(t, "a description", passages[1].Content)
	assert.Equal(t, rag.SourceWeb, passages[1].Source)
}

func TestBraveCountClamping(t *testing.T) {
	bs, err := NewBraveSearch("k", WithBraveCount(100))
	require.NoError(t, err)
	assert.Equal(t, 20, bs.Count)

	bs, err = NewBraveSearch("k", WithBraveCount(0))
	require.NoError(t, err)
	assert.Equal(t, 1, bs.Count)
}

func TestPageFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><style>p{color:red}</style></head><body>
			<nav>Menu</nav>
			<article>
				<h1>Prompt Engineering</h1>
				<p>Few-shot prompting conditions the model on examples.</p>
				<script>alert("hi")</script>
			</article>
			<footer>Copyright</footer>
		</body></html>`)
	}))
	defer server.Close()

	text, err := NewPageFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "Prompt Engineering")
	assert.Contains(t, text, "Few-shot prompting")
	assert.NotContains(t, text, "Menu")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "Copyright")
}

func TestPageFetcher_Status(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewPageFetcher().Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}
