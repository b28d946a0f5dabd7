package normalization

import (
	"time"

	"termnorm/ranking"
)

// Методы разрешения. Множество открытое: удаленный сервис может
// возвращать новые методы (UserChoice, DirectEdit приходят из
// пользовательских сценариев поверх конвейера).
const (
	MethodCached      = "cached"
	MethodFuzzy       = "fuzzy"
	MethodProfileRank = "ProfileRank"
	MethodUserChoice  = "UserChoice"
	MethodDirectEdit  = "DirectEdit"
	MethodError       = "error"
	MethodNoMatch     = "no_match"
)

// Статусы веб-поиска, которые проставляет удаленный сервис
const (
	WebSearchIdle      = "idle"
	WebSearchCompleted = "completed"
	WebSearchFailed    = "failed"
	WebSearchDisabled  = "disabled"
)

// Направления нечеткого сопоставления
const (
	DirectionForward = "forward"
	DirectionReverse = "reverse"
)

// Тексты-сентинелы для результатов без совпадения
const (
	TargetEmptyValue        = "Empty value"
	TargetMappingsNotLoaded = "Mappings not loaded"
	TargetNoMatches         = "No matches found"
)

// MatchResult единый контракт результата для всех уровней конвейера.
// Создается заново на каждый вызов и не изменяется после Finalize.
type MatchResult struct {
	Target     string  `json:"target"`
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
	Source     string  `json:"source"`

	// Поля нечеткого уровня
	MatchedKey string `json:"matched_key,omitempty"`
	Direction  string `json:"direction,omitempty"`

	// Поля удаленного уровня
	Candidates      []ranking.RankedCandidate `json:"candidates"`
	EntityProfile   map[string]interface{}    `json:"entity_profile,omitempty"`
	WebSources      []ranking.WebSource       `json:"web_sources"`
	TotalTime       float64                   `json:"total_time"`
	LLMProvider     string                    `json:"llm_provider,omitempty"`
	WebSearchStatus string                    `json:"web_search_status"`
}

// newResult создает результат с меткой времени разрешения
func newResult(source, target, method string, confidence float64, now time.Time) *MatchResult {
	return &MatchResult{
		Target:     target,
		Method:     method,
		Confidence: confidence,
		Timestamp:  now.UTC().Format(time.RFC3339),
		Source:     source,
	}
}

// noMatchResult создает результат "нет совпадения" с нулевой уверенностью
func noMatchResult(source, target string, now time.Time) *MatchResult {
	return newResult(source, target, MethodNoMatch, 0, now)
}

// Finalize гарантирует присутствие всех необязательных полей, чтобы
// потребители не ветвились по их наличию. Возвращает тот же результат.
func (r *MatchResult) Finalize() *MatchResult {
	if r.Candidates == nil {
		r.Candidates = []ranking.RankedCandidate{}
	}
	if r.WebSources == nil {
		r.WebSources = []ranking.WebSource{}
	}
	if r.WebSearchStatus == "" {
		r.WebSearchStatus = WebSearchIdle
	}
	if r.Timestamp == "" {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return r
}
