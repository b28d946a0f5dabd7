package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestClient_InstantAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "sodium", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Abstract":     "Sodium",
			"AbstractText": "Sodium is a chemical element with symbol Na.",
			"AbstractURL":  "https://en.wikipedia.org/wiki/Sodium",
		})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:   srv.URL,
		RateLimit: rate.Inf,
	})

	result, err := client.Search(context.Background(), "sodium")
	require.NoError(t, err)
	assert.True(t, result.Found)
	require.NotEmpty(t, result.Results)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Sodium", result.Results[0].URL)
	assert.Equal(t, 1.0, result.Results[0].Relevance)
}

func TestClient_HTMLFallback(t *testing.T) {
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Instant Answer без результатов
		json.NewEncoder(w).Encode(map[string]interface{}{})
	}))
	defer apiSrv.Close()

	htmlSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<div class="result">
				<a class="result__a" href="https://example.com/sodium">Sodium — Wikipedia</a>
				<a class="result__snippet" href="https://example.com/sodium">Chemical element Na</a>
			</div>
			<div class="result">
				<a class="result__a" href="https://example.com/salt">Sodium chloride</a>
				<a class="result__snippet" href="https://example.com/salt">Table salt</a>
			</div>
		</body></html>`))
	}))
	defer htmlSrv.Close()

	client := NewClient(ClientConfig{
		BaseURL:   apiSrv.URL,
		HTMLURL:   htmlSrv.URL,
		RateLimit: rate.Inf,
	})

	result, err := client.Search(context.Background(), "sodium")
	require.NoError(t, err)
	assert.True(t, result.Found)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "Sodium — Wikipedia", result.Results[0].Title)
	assert.Equal(t, "Chemical element Na", result.Results[0].Snippet)
	assert.Greater(t, result.Results[0].Relevance, result.Results[1].Relevance)
}

func TestClient_EmptyQuery(t *testing.T) {
	client := NewClient(ClientConfig{RateLimit: rate.Inf})

	_, err := client.Search(context.Background(), "   ")
	assert.Error(t, err)
}

func TestClient_CacheHit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Abstract":     "Sodium",
			"AbstractText": "Sodium is a chemical element.",
			"AbstractURL":  "https://en.wikipedia.org/wiki/Sodium",
		})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:   srv.URL,
		RateLimit: rate.Inf,
		Cache: NewCache(CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
			MaxSize: 10,
		}),
	})

	_, err := client.Search(context.Background(), "sodium")
	require.NoError(t, err)
	_, err = client.Search(context.Background(), "Sodium")
	require.NoError(t, err)

	// Ключ кэша нечувствителен к регистру запроса
	assert.Equal(t, 1, calls)
}

func TestCache_TTLExpiry(t *testing.T) {
	cache := NewCache(CacheConfig{Enabled: true, TTL: 10 * time.Millisecond, MaxSize: 10})

	cache.Set("key", &SearchResult{Query: "q"})
	_, found := cache.Get("key")
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)
	_, found = cache.Get("key")
	assert.False(t, found)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(CacheConfig{Enabled: false})

	cache.Set("key", &SearchResult{})
	_, found := cache.Get("key")
	assert.False(t, found)
}

func TestCache_MaxSizeEviction(t *testing.T) {
	cache := NewCache(CacheConfig{Enabled: true, TTL: time.Minute, MaxSize: 3})

	cache.Set("a", &SearchResult{})
	cache.Set("b", &SearchResult{})
	cache.Set("c", &SearchResult{})
	cache.Set("d", &SearchResult{})

	assert.LessOrEqual(t, cache.Size(), 3)
}
