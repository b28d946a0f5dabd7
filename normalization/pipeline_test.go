package normalization

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termnorm/ranking"
	"termnorm/state"
)

// recordingLogger запоминает записи журнала сопоставлений
type recordingLogger struct {
	mu      sync.Mutex
	entries []MatchLogEntry
}

func (l *recordingLogger) LogMatch(entry MatchLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *recordingLogger) last() (MatchLogEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return MatchLogEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

type pipelineFixture struct {
	pipeline  *Pipeline
	transport *fakeTransport
	store     *state.Store
	notifier  *recordingNotifier
	logger    *recordingLogger
}

func newPipelineFixture(cfg PipelineConfig) *pipelineFixture {
	transport := &fakeTransport{}
	store := state.NewStore()
	store.Set(StateMappingsLoaded, true)
	notifier := &recordingNotifier{}
	logger := &recordingLogger{}

	pipeline := NewPipeline(transport, store, notifier, logger, cfg)
	// Повторы без реальных задержек
	pipeline.guard.sleep = func(time.Duration) {}

	return &pipelineFixture{
		pipeline:  pipeline,
		transport: transport,
		store:     store,
		notifier:  notifier,
		logger:    logger,
	}
}

func TestNormalize_EmptyValue(t *testing.T) {
	f := newPipelineFixture(DefaultPipelineConfig())

	result := f.pipeline.Normalize(context.Background(), "   ", testTable())

	require.NotNil(t, result)
	assert.Equal(t, TargetEmptyValue, result.Target)
	assert.Equal(t, MethodNoMatch, result.Method)
	assert.Equal(t, 0.0, result.Confidence)
	// Пустое значение разрешается без единого сетевого вызова
	assert.Equal(t, 0, f.transport.initCalls)
	assert.Equal(t, 0, f.transport.rankCalls)
}

func TestNormalize_MappingsNotLoaded(t *testing.T) {
	f := newPipelineFixture(DefaultPipelineConfig())
	f.store.Set(StateMappingsLoaded, false)

	result := f.pipeline.Normalize(context.Background(), "na", testTable())

	assert.Equal(t, TargetMappingsNotLoaded, result.Target)
	assert.Equal(t, MethodNoMatch, result.Method)
	assert.Equal(t, 1, f.notifier.count())
}

func TestNormalize_CachedTier(t *testing.T) {
	f := newPipelineFixture(DefaultPipelineConfig())

	result := f.pipeline.Normalize(context.Background(), "na", testTable())

	assert.Equal(t, "Sodium", result.Target)
	assert.Equal(t, MethodCached, result.Method)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, 0, f.transport.rankCalls)

	entry, ok := f.logger.last()
	require.True(t, ok)
	assert.Equal(t, "na", entry.Source)
	assert.Equal(t, MethodCached, entry.Method)
}

func TestNormalize_FuzzyTier(t *testing.T) {
	f := newPipelineFixture(DefaultPipelineConfig())

	result := f.pipeline.Normalize(context.Background(), "Sodum", testTable())

	assert.Equal(t, "Sodium", result.Target)
	assert.Equal(t, MethodFuzzy, result.Method)
	assert.Equal(t, DirectionReverse, result.Direction)
	assert.InDelta(t, 1.0-1.0/6.0, result.Confidence, 1e-9)
	assert.Equal(t, 0, f.transport.rankCalls)

	entry, ok := f.logger.last()
	require.True(t, ok)
	assert.Equal(t, "Sodium", entry.MatchedKey)
	assert.Equal(t, DirectionReverse, entry.Direction)
}

func TestNormalize_RemoteTier(t *testing.T) {
	f := newPipelineFixture(DefaultPipelineConfig())
	f.transport.rankFns = []func(req ranking.RankRequest) (*ranking.RankResponse, error){
		func(req ranking.RankRequest) (*ranking.RankResponse, error) {
			return &ranking.RankResponse{
				Query: req.Query,
				RankedCandidates: []ranking.RankedCandidate{
					{Candidate: "Sodium", RelevanceScore: 0.82},
					{Candidate: "Potassium", RelevanceScore: 0.31},
				},
				WebSearchStatus: WebSearchCompleted,
				TotalTime:       1.25,
				LLMProvider:     "heuristic",
			}, nil
		},
	}

	result := f.pipeline.Normalize(context.Background(), "unknown element", testTable())

	assert.Equal(t, "Sodium", result.Target)
	assert.Equal(t, MethodProfileRank, result.Method)
	assert.InDelta(t, 0.82, result.Confidence, 1e-9)
	assert.Len(t, result.Candidates, 2)
	assert.Equal(t, "heuristic", result.LLMProvider)
	assert.InDelta(t, 1.25, result.TotalTime, 1e-9)
	// Статус веб-поиска прокидывается в состояние
	assert.Equal(t, WebSearchCompleted, f.store.GetString(StateWebSearchStatus))
}

func TestNormalize_SkipLLMRankingFlag(t *testing.T) {
	f := newPipelineFixture(DefaultPipelineConfig())

	var captured ranking.RankRequest
	f.transport.rankFns = []func(req ranking.RankRequest) (*ranking.RankResponse, error){
		func(req ranking.RankRequest) (*ranking.RankResponse, error) {
			captured = req
			return &ranking.RankResponse{RankedCandidates: []ranking.RankedCandidate{}}, nil
		},
	}

	f.pipeline.Normalize(context.Background(), "unknown element", testTable())
	assert.True(t, captured.SkipLLMRanking)

	f2 := newPipelineFixture(DefaultPipelineConfig())
	f2.store.Set(StateUseLLMRanking, true)
	f2.transport.rankFns = []func(req ranking.RankRequest) (*ranking.RankResponse, error){
		func(req ranking.RankRequest) (*ranking.RankResponse, error) {
			captured = req
			return &ranking.RankResponse{RankedCandidates: []ranking.RankedCandidate{}}, nil
		},
	}

	f2.pipeline.Normalize(context.Background(), "unknown element", testTable())
	assert.False(t, captured.SkipLLMRanking)
}

func TestNormalize_EmptyCandidates(t *testing.T) {
	// Сценарий: пустые словари, бэкенд честно отвечает пустым списком
	f := newPipelineFixture(DefaultPipelineConfig())
	table := NewMappingTable(nil, nil)

	result := f.pipeline.Normalize(context.Background(), "anything", table)

	assert.Equal(t, TargetNoMatches, result.Target)
	assert.Equal(t, MethodNoMatch, result.Method)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestNormalize_RecoveryAfterSessionExpiry(t *testing.T) {
	// Первый удаленный вызов падает (бэкенд перезапущен), после
	// восстановления результат отражает успешный повтор
	f := newPipelineFixture(DefaultPipelineConfig())
	f.transport.rankFns = []func(req ranking.RankRequest) (*ranking.RankResponse, error){
		func(req ranking.RankRequest) (*ranking.RankResponse, error) {
			return nil, errors.New("connection refused")
		},
		func(req ranking.RankRequest) (*ranking.RankResponse, error) {
			return &ranking.RankResponse{
				RankedCandidates: []ranking.RankedCandidate{{Candidate: "Sodium", RelevanceScore: 0.77}},
			}, nil
		},
	}

	result := f.pipeline.Normalize(context.Background(), "unknown element", testTable())

	assert.Equal(t, "Sodium", result.Target)
	assert.Equal(t, MethodProfileRank, result.Method)
	assert.Equal(t, 2, f.transport.rankCalls)
	// Инициализация при входе в удаленный уровень плюс одна при восстановлении
	assert.Equal(t, 2, f.transport.initCalls)
}

func TestNormalize_NeverReturnsNil(t *testing.T) {
	f := newPipelineFixture(DefaultPipelineConfig())
	f.transport.initErrs = []error{
		errors.New("down"), errors.New("down"), errors.New("down"),
		errors.New("down"), errors.New("down"), errors.New("down"),
	}

	inputs := []string{"", "   ", "na", "unknown element"}
	for _, input := range inputs {
		result := f.pipeline.Normalize(context.Background(), input, testTable())
		require.NotNil(t, result, "Normalize(%q) returned nil", input)
		assert.NotEmpty(t, result.Method)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	f := newPipelineFixture(DefaultPipelineConfig())

	first := f.pipeline.Normalize(context.Background(), "Sodum", testTable())
	second := f.pipeline.Normalize(context.Background(), "Sodum", testTable())

	assert.Equal(t, first.Target, second.Target)
	assert.Equal(t, first.Method, second.Method)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestNormalize_FinalizedFields(t *testing.T) {
	f := newPipelineFixture(DefaultPipelineConfig())

	results := []*MatchResult{
		f.pipeline.Normalize(context.Background(), "", testTable()),
		f.pipeline.Normalize(context.Background(), "na", testTable()),
		f.pipeline.Normalize(context.Background(), "Sodum", testTable()),
	}

	for _, result := range results {
		assert.NotNil(t, result.Candidates)
		assert.NotNil(t, result.WebSources)
		assert.Equal(t, WebSearchIdle, result.WebSearchStatus)
		assert.NotEmpty(t, result.Timestamp)
	}
}

func TestNormalize_DedupeWindow(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.DedupeWindow = 2 * time.Second
	f := newPipelineFixture(cfg)

	f.pipeline.Normalize(context.Background(), "unknown element", testTable())
	f.pipeline.Normalize(context.Background(), "unknown element", testTable())

	// Второй запрос внутри окна переиспользует результат
	assert.Equal(t, 1, f.transport.rankCalls)
}

func TestNormalize_DedupeExpiry(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.DedupeWindow = 2 * time.Second
	f := newPipelineFixture(cfg)

	current := time.Now()
	f.pipeline.dedupe.now = func() time.Time { return current }

	f.pipeline.Normalize(context.Background(), "unknown element", testTable())
	current = current.Add(3 * time.Second)
	f.pipeline.Normalize(context.Background(), "unknown element", testTable())

	assert.Equal(t, 2, f.transport.rankCalls)
}

func TestNormalize_LoggerPanicAbsorbed(t *testing.T) {
	transport := &fakeTransport{}
	store := state.NewStore()
	store.Set(StateMappingsLoaded, true)

	pipeline := NewPipeline(transport, store, nil, panickingLogger{}, DefaultPipelineConfig())

	result := pipeline.Normalize(context.Background(), "na", testTable())
	assert.Equal(t, "Sodium", result.Target)
}

type panickingLogger struct{}

func (panickingLogger) LogMatch(entry MatchLogEntry) { panic("log store unavailable") }
