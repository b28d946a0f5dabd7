package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"termnorm/ranking"
	"termnorm/websearch"
)

// handleInitTerms обрабатывает POST /api/session/init-terms:
// перестраивает индекс терминов сессии
func (s *Server) handleInitTerms(c *gin.Context) {
	var req ranking.InitTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	generation := s.index.Load(req.Terms)

	s.logger.Info("term index loaded",
		"term_count", len(req.Terms),
		"generation", generation,
	)

	c.JSON(http.StatusOK, ranking.InitTermsResponse{
		OK:         true,
		TermCount:  s.index.Size(),
		Generation: generation,
	})
}

// handleResearchAndMatch обрабатывает POST /api/research-and-match:
// ранжирует термины индекса относительно запроса, при включенном
// веб-поиске обогащает ответ профилем сущности и источниками
func (s *Server) handleResearchAndMatch(c *gin.Context) {
	var req ranking.RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty query"})
		return
	}

	// Индекс живет в памяти: после рестарта сессии нет, клиент
	// обязан повторить init-terms
	if !s.index.Initialized() {
		c.JSON(http.StatusConflict, gin.H{"error": "session not initialized"})
		return
	}

	start := time.Now()

	candidates := s.ranker.Rank(query, s.index.Snapshot(), s.topN, req.SkipLLMRanking)

	resp := ranking.RankResponse{
		Query:            query,
		RankedCandidates: candidates,
		WebSearchStatus:  "disabled",
		LLMProvider:      s.ranker.Provider(),
	}

	if s.search != nil && len(candidates) > 0 {
		s.enrichWithWebSearch(c.Request.Context(), &resp, query, candidates[0].Candidate)
	}

	resp.TotalTime = time.Since(start).Seconds()

	c.JSON(http.StatusOK, resp)
}

// enrichWithWebSearch выполняет веб-поиск по запросу и лучшему кандидату
// и заполняет профиль сущности. Ошибка поиска не ломает ранжирование:
// статус становится failed, кандидаты возвращаются как есть.
func (s *Server) enrichWithWebSearch(ctx context.Context, resp *ranking.RankResponse, query, topCandidate string) {
	result, err := s.search.Search(ctx, query+" "+topCandidate)
	if err != nil {
		s.logger.Warn("web search failed", "query", query, "error", err)
		resp.WebSearchStatus = "failed"
		resp.WebSearchError = err.Error()
		return
	}

	resp.WebSearchStatus = "completed"
	resp.WebSources = convertSources(result)
	resp.EntityProfile = buildEntityProfile(query, topCandidate, result)
}

// convertSources преобразует результаты поиска в источники ответа
func convertSources(result *websearch.SearchResult) []ranking.WebSource {
	sources := make([]ranking.WebSource, 0, len(result.Results))
	for _, item := range result.Results {
		sources = append(sources, ranking.WebSource{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Snippet,
		})
	}
	return sources
}

// buildEntityProfile собирает профиль сущности из результатов поиска
func buildEntityProfile(query, topCandidate string, result *websearch.SearchResult) map[string]interface{} {
	profile := map[string]interface{}{
		"query":          query,
		"best_candidate": topCandidate,
		"source":         result.Source,
		"confidence":     result.Confidence,
	}
	if len(result.Results) > 0 {
		profile["summary"] = result.Results[0].Snippet
	}
	return profile
}

// handleHealth обрабатывает GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"initialized": s.index.Initialized(),
		"term_count":  s.index.Size(),
		"generation":  s.index.Generation(),
	})
}
