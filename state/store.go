// Package state предоставляет потокобезопасное хранилище состояния
// с доступом по строковому пути ("session.initialized").
package state

import "sync"

// Store хранилище ключ-значение с доступом по пути
type Store struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{data: make(map[string]interface{})}
}

// Get возвращает значение по пути
func (s *Store) Get(path string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[path]
	return value, ok
}

// Set записывает значение по пути
func (s *Store) Set(path string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = value
}

// Delete удаляет значение по пути
func (s *Store) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, path)
}

// GetBool возвращает булево значение по пути (false, если значения нет
// или оно другого типа)
func (s *Store) GetBool(path string) bool {
	value, ok := s.Get(path)
	if !ok {
		return false
	}
	b, ok := value.(bool)
	return ok && b
}

// GetInt возвращает целое значение по пути
func (s *Store) GetInt(path string) int {
	value, ok := s.Get(path)
	if !ok {
		return 0
	}
	n, _ := value.(int)
	return n
}

// GetString возвращает строковое значение по пути
func (s *Store) GetString(path string) string {
	value, ok := s.Get(path)
	if !ok {
		return ""
	}
	str, _ := value.(string)
	return str
}

// Snapshot возвращает копию всего состояния
func (s *Store) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make(map[string]interface{}, len(s.data))
	for k, v := range s.data {
		copied[k] = v
	}
	return copied
}
