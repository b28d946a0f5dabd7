package normalization

import (
	"context"

	"termnorm/ranking"
)

// Ключи состояния, которые конвейер читает и пишет через StateStore
const (
	StateMappingsLoaded     = "mappings.loaded"
	StateSessionInitialized = "session.initialized"
	StateSessionTermCount   = "session.termCount"
	StateSessionLastInit    = "session.lastInitialized"
	StateSessionFailure     = "session.failureReason"
	StateUseLLMRanking      = "settings.useLlmRanking"
	StateWebSearchStatus    = "webSearch.status"
)

// Transport канал связи с удаленным сервисом ранжирования
type Transport interface {
	// InitTerms инициализирует серверный индекс терминов
	InitTerms(ctx context.Context, terms []string) error

	// ResearchAndMatch запрашивает ранжирование кандидатов для значения
	ResearchAndMatch(ctx context.Context, req ranking.RankRequest) (*ranking.RankResponse, error)
}

// StateStore хранилище состояния вызывающей стороны с доступом по
// строковому пути ("session.initialized"). Реализация должна быть
// безопасной для конкурентного доступа.
type StateStore interface {
	Get(path string) (interface{}, bool)
	Set(path string, value interface{})
}

// Notifier доставляет пользователю текстовые сообщения о ходе работы.
// Вызовы fire-and-forget: конвейер не интересуется результатом доставки.
type Notifier interface {
	Notify(message, severity string)
}

// MatchLogEntry запись журнала производительности сопоставления
type MatchLogEntry struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
	LatencyMS  int64   `json:"latency_ms"`
	MatchedKey string  `json:"matched_key,omitempty"`
	Direction  string  `json:"direction,omitempty"`
}

// MatchLogger журнал сопоставлений. Ошибки записи реализация
// проглатывает: журналирование не должно влиять на результат.
type MatchLogger interface {
	LogMatch(entry MatchLogEntry)
}

// stateBool читает булево значение из хранилища состояния
func stateBool(store StateStore, path string) bool {
	if store == nil {
		return false
	}
	value, ok := store.Get(path)
	if !ok {
		return false
	}
	b, ok := value.(bool)
	return ok && b
}

// nopNotifier используется, когда уведомления не подключены
type nopNotifier struct{}

func (nopNotifier) Notify(message, severity string) {}

// nopMatchLogger используется, когда журнал не подключен
type nopMatchLogger struct{}

func (nopMatchLogger) LogMatch(entry MatchLogEntry) {}
