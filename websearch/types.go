// Package websearch реализует клиент веб-поиска через DuckDuckGo.
// Используется бэкендом ранжирования для обогащения профиля сущности
// по лучшим кандидатам.
package websearch

import "time"

// SearchResult результат веб-поиска по одному запросу
type SearchResult struct {
	Query      string       `json:"query"`
	Found      bool         `json:"found"`
	Confidence float64      `json:"confidence"`
	Source     string       `json:"source"`
	Timestamp  time.Time    `json:"timestamp"`
	Results    []SearchItem `json:"results"`
}

// SearchItem один найденный источник
type SearchItem struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance"`
}

// duckDuckGoResponse ответ Instant Answer API
type duckDuckGoResponse struct {
	Abstract       string         `json:"Abstract"`
	AbstractText   string         `json:"AbstractText"`
	AbstractSource string         `json:"AbstractSource"`
	AbstractURL    string         `json:"AbstractURL"`
	RelatedTopics  []relatedTopic `json:"RelatedTopics"`
	Results        []ddgResult    `json:"Results"`
}

type relatedTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

type ddgResult struct {
	FirstURL string `json:"FirstURL"`
	Text     string `json:"Text"`
}
