package normalization

import (
	"context"
	"log"
	"strings"
	"time"

	"termnorm/ranking"
)

// PipelineConfig параметры конвейера нормализации
type PipelineConfig struct {
	ForwardThreshold float64
	ReverseThreshold float64
	// DedupeWindow окно повторного использования результатов удаленного
	// уровня для одинаковых запросов. Ноль отключает дедупликацию.
	DedupeWindow time.Duration
	Retry        RetryConfig
}

// DefaultPipelineConfig возвращает параметры по умолчанию
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ForwardThreshold: DefaultForwardThreshold,
		ReverseThreshold: DefaultReverseThreshold,
		DedupeWindow:     2 * time.Second,
		Retry:            DefaultRetryConfig(),
	}
}

// Pipeline трехуровневый конвейер нормализации: точный поиск, нечеткое
// сопоставление, удаленное ранжирование. Все зависимости внедряются
// явно; глобального состояния у конвейера нет.
type Pipeline struct {
	transport Transport
	state     StateStore
	notifier  Notifier
	logger    MatchLogger
	guard     *SessionGuard
	cfg       PipelineConfig
	dedupe    *dedupeCache

	now func() time.Time
}

// NewPipeline создает конвейер. transport и state обязательны,
// notifier и logger могут быть nil.
func NewPipeline(transport Transport, state StateStore, notifier Notifier, logger MatchLogger, cfg PipelineConfig) *Pipeline {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = nopMatchLogger{}
	}
	if cfg.ForwardThreshold <= 0 {
		cfg.ForwardThreshold = DefaultForwardThreshold
	}
	if cfg.ReverseThreshold <= 0 {
		cfg.ReverseThreshold = DefaultReverseThreshold
	}

	return &Pipeline{
		transport: transport,
		state:     state,
		notifier:  notifier,
		logger:    logger,
		guard:     NewSessionGuard(transport, state, notifier, cfg.Retry),
		cfg:       cfg,
		dedupe:    newDedupeCache(cfg.DedupeWindow, nil),
		now:       time.Now,
	}
}

// Guard возвращает страж сессии для вызывающих, строящих собственные
// удаленные вызовы в обход политики Normalize
func (p *Pipeline) Guard() *SessionGuard {
	return p.guard
}

// Normalize разрешает сырое значение в канонический идентификатор.
// Всегда возвращает результат: операционные отказы любого уровня
// сворачиваются в no_match, а не в ошибку — пакетные обработчики ячеек
// не способны пережить ошибку посреди пакета.
func (p *Pipeline) Normalize(ctx context.Context, value string, table *MappingTable) *MatchResult {
	start := p.now()

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return noMatchResult(trimmed, TargetEmptyValue, p.now()).Finalize()
	}

	if !stateBool(p.state, StateMappingsLoaded) {
		p.notifier.Notify("Справочники не загружены", "error")
		return noMatchResult(trimmed, TargetMappingsNotLoaded, p.now()).Finalize()
	}

	if result := CachedMatch(trimmed, table); result != nil {
		p.logMatch(result, start)
		return result.Finalize()
	}

	if result := FuzzyMatch(trimmed, table, p.cfg.ForwardThreshold, p.cfg.ReverseThreshold); result != nil {
		p.logMatch(result, start)
		return result.Finalize()
	}

	return p.remoteTier(ctx, trimmed, table, start)
}

// remoteTier выполняет удаленное ранжирование через страж сессии
func (p *Pipeline) remoteTier(ctx context.Context, value string, table *MappingTable, start time.Time) *MatchResult {
	dedupeKey := NormalizeKey(value)
	if cached := p.dedupe.get(dedupeKey); cached != nil {
		return cached
	}

	terms := table.Terms()

	if !p.guard.EnsureInitialized(ctx, terms) {
		return noMatchResult(value, TargetNoMatches, p.now()).Finalize()
	}

	req := ranking.RankRequest{
		Query: value,
		// Повторное ранжирование LLM пропускается, когда настройка выключена
		SkipLLMRanking: !stateBool(p.state, StateUseLLMRanking),
	}

	resp := p.guard.ExecuteWithRecovery(ctx, terms, func() (*ranking.RankResponse, error) {
		return p.transport.ResearchAndMatch(ctx, req)
	})
	if resp == nil {
		result := noMatchResult(value, TargetNoMatches, p.now()).Finalize()
		p.dedupe.set(dedupeKey, result)
		return result
	}

	if resp.WebSearchStatus != "" {
		p.state.Set(StateWebSearchStatus, resp.WebSearchStatus)
	}

	if len(resp.RankedCandidates) == 0 {
		result := noMatchResult(value, TargetNoMatches, p.now()).Finalize()
		p.dedupe.set(dedupeKey, result)
		return result
	}

	top := resp.RankedCandidates[0]
	result := newResult(value, top.Candidate, MethodProfileRank, top.RelevanceScore, p.now())
	result.Candidates = resp.RankedCandidates
	result.EntityProfile = resp.EntityProfile
	result.WebSources = resp.WebSources
	result.TotalTime = resp.TotalTime
	result.LLMProvider = resp.LLMProvider
	result.WebSearchStatus = resp.WebSearchStatus

	p.logMatch(result, start)
	result.Finalize()
	p.dedupe.set(dedupeKey, result)
	return result
}

// logMatch отправляет запись в журнал сопоставлений. Отказ журнала не
// влияет на результат.
func (p *Pipeline) logMatch(result *MatchResult, start time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Pipeline] WARN: match logger panicked: %v", r)
		}
	}()

	p.logger.LogMatch(MatchLogEntry{
		Source:     result.Source,
		Target:     result.Target,
		Method:     result.Method,
		Confidence: result.Confidence,
		LatencyMS:  p.now().Sub(start).Milliseconds(),
		MatchedKey: result.MatchedKey,
		Direction:  result.Direction,
	})
}
