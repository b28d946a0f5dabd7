package normalization

import (
	"strings"
	"time"
)

// CachedMatch выполняет точный поиск по словарям без учета регистра
// и краевых пробелов. Возвращает nil, если точного совпадения нет.
// Не имеет побочных эффектов, работает за O(1) по индексам таблицы.
func CachedMatch(value string, table *MappingTable) *MatchResult {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	key := NormalizeKey(trimmed)

	if entry, ok := table.forwardNorm[key]; ok {
		return newResult(trimmed, entry.Target(), MethodCached, 1.0, time.Now())
	}

	// Значение уже является каноническим термином
	if canonical, ok := table.reverseNorm[key]; ok {
		return newResult(trimmed, canonical, MethodCached, 1.0, time.Now())
	}

	return nil
}
