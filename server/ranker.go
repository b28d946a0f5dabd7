package server

import (
	"sort"

	"termnorm/normalization/algorithms"
	"termnorm/ranking"
)

// Ranker ранжирует термины индекса относительно запроса.
// Базовая оценка — токенная схожесть; необязательный проход
// переранжирования смешивает ее с пересечением основ токенов,
// что вытягивает наверх термины с совпадающими корнями слов.
type Ranker struct {
	scores   *algorithms.ScoreCache
	stemmer  *algorithms.Stemmer
	provider string
}

// RankerConfig конфигурация ранжировщика
type RankerConfig struct {
	// Provider имя, которое сервер сообщает в llm_provider
	Provider string
	// Language язык стеммера
	Language string
	// CacheSize размер кэша оценок
	CacheSize int
}

// NewRanker создает новый ранжировщик
func NewRanker(config RankerConfig) *Ranker {
	if config.Provider == "" {
		config.Provider = "heuristic"
	}

	return &Ranker{
		scores:   algorithms.NewScoreCache(algorithms.TokenSimilarity, config.CacheSize),
		stemmer:  algorithms.NewStemmer(config.Language),
		provider: config.Provider,
	}
}

// Provider возвращает имя провайдера ранжирования
func (r *Ranker) Provider() string {
	return r.provider
}

// Rank возвращает topN лучших кандидатов для запроса.
// При skipRerank используется только базовая токенная схожесть.
func (r *Ranker) Rank(query string, terms []string, topN int, skipRerank bool) []ranking.RankedCandidate {
	if topN <= 0 {
		topN = 10
	}

	candidates := make([]ranking.RankedCandidate, 0, len(terms))
	for _, term := range terms {
		score := r.scores.Similarity(query, term)
		if !skipRerank {
			score = 0.7*score + 0.3*r.stemOverlap(query, term)
		}
		if score <= 0 {
			continue
		}
		candidates = append(candidates, ranking.RankedCandidate{
			Candidate:      term,
			RelevanceScore: score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RelevanceScore != candidates[j].RelevanceScore {
			return candidates[i].RelevanceScore > candidates[j].RelevanceScore
		}
		return candidates[i].Candidate < candidates[j].Candidate
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// stemOverlap вычисляет индекс Жаккара по основам токенов
func (r *Ranker) stemOverlap(query, term string) float64 {
	stems1 := r.stemmer.StemText(query)
	stems2 := r.stemmer.StemText(term)

	if len(stems1) == 0 && len(stems2) == 0 {
		return 1.0
	}
	if len(stems1) == 0 || len(stems2) == 0 {
		return 0.0
	}

	set1 := make(map[string]bool, len(stems1))
	for _, stem := range stems1 {
		set1[stem] = true
	}

	intersection := 0
	set2 := make(map[string]bool, len(stems2))
	for _, stem := range stems2 {
		if set2[stem] {
			continue
		}
		set2[stem] = true
		if set1[stem] {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}
