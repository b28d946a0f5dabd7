package algorithms

import (
	"sync"
)

// ScoreFunc функция вычисления схожести двух строк
type ScoreFunc func(s1, s2 string) float64

// ScoreCache кэширует результаты вычисления схожести.
// Ключ симметричный, поэтому пары (a,b) и (b,a) используют одну запись.
type ScoreCache struct {
	compute  ScoreFunc
	cache    map[string]float64
	cacheMu  sync.RWMutex
	maxCache int
}

// NewScoreCache создает новый кэш поверх функции схожести
func NewScoreCache(compute ScoreFunc, maxCache int) *ScoreCache {
	if compute == nil {
		compute = TokenSimilarity
	}
	if maxCache <= 0 {
		maxCache = 10000
	}

	return &ScoreCache{
		compute:  compute,
		cache:    make(map[string]float64),
		maxCache: maxCache,
	}
}

// Similarity вычисляет схожесть с кэшированием
func (sc *ScoreCache) Similarity(s1, s2 string) float64 {
	cacheKey := scoreCacheKey(s1, s2)

	sc.cacheMu.RLock()
	if cached, ok := sc.cache[cacheKey]; ok {
		sc.cacheMu.RUnlock()
		return cached
	}
	sc.cacheMu.RUnlock()

	similarity := sc.compute(s1, s2)

	sc.cacheMu.Lock()
	if len(sc.cache) >= sc.maxCache {
		// Удаляем 20% записей, чтобы не пересоздавать карту целиком
		sc.evict(sc.maxCache / 5)
	}
	sc.cache[cacheKey] = similarity
	sc.cacheMu.Unlock()

	return similarity
}

// Size возвращает текущий размер кэша
func (sc *ScoreCache) Size() int {
	sc.cacheMu.RLock()
	defer sc.cacheMu.RUnlock()
	return len(sc.cache)
}

// Clear очищает весь кэш
func (sc *ScoreCache) Clear() {
	sc.cacheMu.Lock()
	sc.cache = make(map[string]float64)
	sc.cacheMu.Unlock()
}

// scoreCacheKey создает симметричный ключ кэша
func scoreCacheKey(s1, s2 string) string {
	if s1 > s2 {
		s1, s2 = s2, s1
	}
	return s1 + "|" + s2
}

// evict удаляет часть записей из кэша
func (sc *ScoreCache) evict(count int) {
	removed := 0
	for key := range sc.cache {
		if removed >= count {
			break
		}
		delete(sc.cache, key)
		removed++
	}
}
