package normalization

import (
	"sync"
	"time"
)

// dedupeCache короткоживущий кэш результатов удаленного уровня.
// Повторный запрос с тем же нормализованным значением внутри окна
// получает сохраненный результат вместо нового сетевого вызова.
type dedupeCache struct {
	mu     sync.Mutex
	window time.Duration
	data   map[string]dedupeEntry
	now    func() time.Time
}

type dedupeEntry struct {
	result  *MatchResult
	expires time.Time
}

func newDedupeCache(window time.Duration, now func() time.Time) *dedupeCache {
	if now == nil {
		now = time.Now
	}
	return &dedupeCache{
		window: window,
		data:   make(map[string]dedupeEntry),
		now:    now,
	}
}

func (d *dedupeCache) get(key string) *MatchResult {
	if d == nil || d.window <= 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.data[key]
	if !ok {
		return nil
	}
	if d.now().After(entry.expires) {
		delete(d.data, key)
		return nil
	}
	return entry.result
}

func (d *dedupeCache) set(key string, result *MatchResult) {
	if d == nil || d.window <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Попутно убираем протухшие записи, отдельного уборщика окно в
	// пару секунд не оправдывает
	now := d.now()
	for k, e := range d.data {
		if now.After(e.expires) {
			delete(d.data, k)
		}
	}

	d.data[key] = dedupeEntry{result: result, expires: now.Add(d.window)}
}
