package normalization

import (
	"strings"
	"time"

	"termnorm/normalization/algorithms"
)

// Пороги нечеткого сопоставления по умолчанию. Обратный проход мягче:
// обратный словарь меньше и обычно разрешает сокращения и алиасы.
const (
	DefaultForwardThreshold = 0.7
	DefaultReverseThreshold = 0.5
)

// FuzzyMatch ищет лучшее нечеткое совпадение в два прохода: сначала по
// ключам прямого словаря с порогом forwardThreshold, затем (только при
// промахе прямого прохода) по каноническим терминам обратного словаря
// с порогом reverseThreshold. Прямой проход всегда имеет приоритет,
// даже если обратный дал бы более высокую оценку.
//
// Ключи перебираются в лексикографическом порядке, поэтому при равных
// максимумах детерминированно побеждает меньший ключ.
func FuzzyMatch(value string, table *MappingTable, forwardThreshold, reverseThreshold float64) *MatchResult {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	if key, score, ok := bestMatch(trimmed, table.forwardKeys, forwardThreshold); ok {
		result := newResult(trimmed, table.Forward[key].Target(), MethodFuzzy, score, time.Now())
		result.MatchedKey = key
		result.Direction = DirectionForward
		return result
	}

	if key, score, ok := bestMatch(trimmed, table.reverseKeys, reverseThreshold); ok {
		// Ключи обратного словаря сами являются каноническими целями
		result := newResult(trimmed, key, MethodFuzzy, score, time.Now())
		result.MatchedKey = key
		result.Direction = DirectionReverse
		return result
	}

	return nil
}

// bestMatch возвращает ключ с максимальной оценкой схожести, если
// максимум не ниже порога
func bestMatch(value string, keys []string, threshold float64) (string, float64, bool) {
	bestKey := ""
	bestScore := -1.0

	for _, key := range keys {
		score := algorithms.TokenSimilarity(value, key)
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}

	if bestKey == "" || bestScore < threshold {
		return "", 0, false
	}
	return bestKey, bestScore, true
}
