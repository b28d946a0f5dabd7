// Package ranking содержит клиент удаленного сервиса ранжирования терминов
// и типы его JSON-контракта. Формы запросов и ответов версионируются
// вместе с бэкендом (см. пакет server).
package ranking

// InitTermsRequest запрос инициализации сессии: полный список
// канонических терминов для построения индекса на стороне сервера.
type InitTermsRequest struct {
	Terms []string `json:"terms"`
}

// InitTermsResponse ответ на инициализацию сессии
type InitTermsResponse struct {
	OK        bool  `json:"ok"`
	TermCount int   `json:"term_count"`
	Generation int64 `json:"generation,omitempty"`
}

// RankRequest запрос ранжирования для одного сырого значения
type RankRequest struct {
	Query          string `json:"query"`
	SkipLLMRanking bool   `json:"skip_llm_ranking"`
}

// RankedCandidate один кандидат из ранжированного списка
type RankedCandidate struct {
	Candidate      string   `json:"candidate"`
	RelevanceScore float64  `json:"relevance_score"`
	MatchedAliases []string `json:"matched_aliases,omitempty"`
	Summary        string   `json:"summary,omitempty"`
}

// WebSource источник, найденный веб-поиском при обогащении профиля
type WebSource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// RankResponse ответ сервиса ранжирования
type RankResponse struct {
	Query            string                 `json:"query"`
	RankedCandidates []RankedCandidate      `json:"ranked_candidates"`
	EntityProfile    map[string]interface{} `json:"entity_profile,omitempty"`
	WebSources       []WebSource            `json:"web_sources,omitempty"`
	WebSearchStatus  string                 `json:"web_search_status,omitempty"`
	WebSearchError   string                 `json:"web_search_error,omitempty"`
	TotalTime        float64                `json:"total_time,omitempty"`
	LLMProvider      string                 `json:"llm_provider,omitempty"`
}
