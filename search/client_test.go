package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searxFixture(results ...map[string]string) string {
	payload := map[string]any{"query": "test", "results": results}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestHTTPClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "conference venues in Pune", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searxFixture(
			map[string]string{"title": "Hall A", "url": "https://example.com/a", "content": "big hall"},
			map[string]string{"title": "Hall B", "url": "https://example.com/b", "content": "small hall"},
			map[string]string{"title": "No URL", "url": "", "content": "skipped"},
		)))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	results, err := client.Search(context.Background(), "conference venues in Pune", 10)

	require.NoError(t, err)
	require.Len(t, results, 2, "results without a URL are dropped")
	assert.Equal(t, "Hall A", results[0].Title)
	assert.Equal(t, "https://example.com/b", results[1].URL)
}

func TestHTTPClient_MaxResultsRespected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searxFixture(
			map[string]string{"title": "A", "url": "https://example.com/a"},
			map[string]string{"title": "B", "url": "https://example.com/b"},
			map[string]string{"title": "C", "url": "https://example.com/c"},
		)))
	}))
	defer server.Close()

	results, err := NewHTTPClient(server.URL).Search(context.Background(), "venues", 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestHTTPClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL).Search(context.Background(), "venues", 5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestHTTPClient_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL).Search(context.Background(), "venues", 5)
	assert.Error(t, err)
}

func TestHTTPClient_EmptyEndpoint(t *testing.T) {
	_, err := NewHTTPClient("").Search(context.Background(), "venues", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPClient(server.URL).Search(ctx, "venues", 5)
	assert.Error(t, err)
}
