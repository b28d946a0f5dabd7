package websearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// Client клиент веб-поиска через DuckDuckGo. Сначала пробует Instant
// Answer API, при отсутствии результатов разбирает HTML-страницу поиска.
type Client struct {
	baseURL    string
	htmlURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *Cache
}

// ClientConfig конфигурация клиента
type ClientConfig struct {
	BaseURL   string
	HTMLURL   string
	Timeout   time.Duration
	RateLimit rate.Limit
	Cache     *Cache
}

// NewClient создает новый клиент веб-поиска
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.duckduckgo.com"
	}
	if config.HTMLURL == "" {
		config.HTMLURL = "https://html.duckduckgo.com/html"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = rate.Every(time.Second)
	}

	return &Client{
		baseURL: config.BaseURL,
		htmlURL: config.HTMLURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(config.RateLimit, 1),
		cache:   config.Cache,
	}
}

// Search выполняет поиск по запросу
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = sanitizeQuery(query)
	if query == "" {
		return nil, fmt.Errorf("empty query after sanitization")
	}

	cacheKey := generateCacheKey(query)
	if c.cache != nil {
		if cached, found := c.cache.Get(cacheKey); found {
			return cached, nil
		}
	}

	result, err := c.searchInstantAnswer(ctx, query)
	if err == nil && result != nil && result.Found {
		if c.cache != nil {
			c.cache.Set(cacheKey, result)
		}
		return result, nil
	}

	return c.searchHTML(ctx, query)
}

// searchInstantAnswer выполняет поиск через Instant Answer API
func (c *Client) searchInstantAnswer(ctx context.Context, query string) (*SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("no_html", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/?%s", c.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "termnorm/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var ddgResponse duckDuckGoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ddgResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return c.convertResponse(&ddgResponse, query), nil
}

// searchHTML разбирает страницу результатов HTML-поиска
func (c *Client) searchHTML(ctx context.Context, query string) (*SearchResult, error) {
	cacheKey := generateCacheKey("html:" + query)
	if c.cache != nil {
		if cached, found := c.cache.Get(cacheKey); found {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	searchURL := fmt.Sprintf("%s/?q=%s", c.htmlURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Заголовки имитируют браузер: HTML-выдача отдается только им
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := c.parseHTMLResults(doc, query)

	if c.cache != nil {
		c.cache.Set(cacheKey, result)
	}
	return result, nil
}

// parseHTMLResults извлекает результаты из HTML-документа выдачи
func (c *Client) parseHTMLResults(doc *goquery.Document, query string) *SearchResult {
	result := &SearchResult{
		Query:     query,
		Source:    "duckduckgo-html",
		Timestamp: time.Now(),
		Results:   make([]SearchItem, 0),
	}

	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("a.result__a").Text())
		href, _ := s.Find("a.result__a").Attr("href")
		snippet := strings.TrimSpace(s.Find("a.result__snippet").Text())

		if title == "" || href == "" {
			return true
		}

		// Релевантность убывает с позицией в выдаче
		relevance := 0.8 - float64(i)*0.05
		if relevance < 0.3 {
			relevance = 0.3
		}

		result.Results = append(result.Results, SearchItem{
			Title:     title,
			URL:       href,
			Snippet:   snippet,
			Relevance: relevance,
		})

		return len(result.Results) < 10
	})

	if len(result.Results) > 0 {
		result.Found = true
		result.Confidence = result.Results[0].Relevance
	}

	return result
}

// convertResponse преобразует ответ Instant Answer API в SearchResult
func (c *Client) convertResponse(ddgResp *duckDuckGoResponse, query string) *SearchResult {
	result := &SearchResult{
		Query:     query,
		Source:    "duckduckgo",
		Timestamp: time.Now(),
		Results:   make([]SearchItem, 0),
	}

	if ddgResp.AbstractText != "" {
		result.Found = true
		result.Results = append(result.Results, SearchItem{
			Title:     ddgResp.Abstract,
			URL:       ddgResp.AbstractURL,
			Snippet:   ddgResp.AbstractText,
			Relevance: 1.0,
		})
		result.Confidence = 0.9
	}

	for _, topic := range ddgResp.RelatedTopics {
		if topic.Text != "" && topic.FirstURL != "" {
			result.Found = true
			result.Results = append(result.Results, SearchItem{
				Title:     extractTitle(topic.Text),
				URL:       topic.FirstURL,
				Snippet:   topic.Text,
				Relevance: 0.7,
			})
			if result.Confidence < 0.7 {
				result.Confidence = 0.7
			}
		}
	}

	for _, res := range ddgResp.Results {
		if res.Text != "" && res.FirstURL != "" {
			result.Found = true
			result.Results = append(result.Results, SearchItem{
				Title:     extractTitle(res.Text),
				URL:       res.FirstURL,
				Snippet:   res.Text,
				Relevance: 0.6,
			})
			if result.Confidence < 0.6 {
				result.Confidence = 0.6
			}
		}
	}

	return result
}

// sanitizeQuery очищает и ограничивает поисковый запрос
func sanitizeQuery(query string) string {
	query = strings.TrimSpace(query)

	const maxLength = 200
	if len(query) > maxLength {
		query = query[:maxLength]
	}

	return query
}

// extractTitle извлекает заголовок из текста результата
func extractTitle(text string) string {
	if len(text) > 100 {
		return text[:100] + "..."
	}
	return text
}

// generateCacheKey генерирует ключ кэша из запроса
func generateCacheKey(query string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(query)))
	return hex.EncodeToString(hash[:])
}
