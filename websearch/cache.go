package websearch

import (
	"sync"
	"time"
)

// CacheConfig конфигурация кэша результатов поиска
type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	TTL             time.Duration `json:"ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	MaxSize         int           `json:"max_size"`
}

// cacheEntry запись в кэше
type cacheEntry struct {
	result      *SearchResult
	expiration  time.Time
	accessCount int64
}

// Cache кэш результатов веб-поиска с TTL и вытеснением редко
// используемых записей
type Cache struct {
	config CacheConfig
	data   map[string]*cacheEntry
	mutex  sync.RWMutex
}

// NewCache создает новый кэш
func NewCache(config CacheConfig) *Cache {
	cache := &Cache{
		config: config,
		data:   make(map[string]*cacheEntry),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go cache.startCleanup()
	}

	return cache
}

// Get возвращает результат из кэша
func (c *Cache) Get(key string) (*SearchResult, bool) {
	if !c.config.Enabled {
		return nil, false
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiration) {
		return nil, false
	}

	entry.accessCount++
	return entry.result, true
}

// Set сохраняет результат в кэш
func (c *Cache) Set(key string, result *SearchResult) {
	if !c.config.Enabled {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.config.MaxSize > 0 && len(c.data) >= c.config.MaxSize {
		c.evictLFU()
	}

	c.data[key] = &cacheEntry{
		result:      result,
		expiration:  time.Now().Add(c.config.TTL),
		accessCount: 1,
	}
}

// Size возвращает текущее число записей
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear очищает весь кэш
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]*cacheEntry)
}

// evictLFU удаляет наименее используемую запись
func (c *Cache) evictLFU() {
	if len(c.data) == 0 {
		return
	}

	var victimKey string
	var victimCount int64 = -1

	for key, entry := range c.data {
		if victimCount == -1 || entry.accessCount < victimCount {
			victimKey = key
			victimCount = entry.accessCount
		}
	}

	if victimKey != "" {
		delete(c.data, victimKey)
	}
}

// startCleanup запускает периодическую очистку устаревших записей
func (c *Cache) startCleanup() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

// cleanup удаляет устаревшие записи
func (c *Cache) cleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
		}
	}
}
