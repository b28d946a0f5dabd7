// Package server реализует бэкенд ранжирования терминов: хранит в
// памяти индекс канонических терминов сессии и ранжирует кандидатов
// для сырых значений. Индекс живет только в памяти процесса, поэтому
// рестарт бэкенда обесценивает сессию — клиенты обязаны переживать
// это через повторную инициализацию.
package server

import (
	"sync"
	"time"
)

// TermIndex индекс терминов текущей сессии
type TermIndex struct {
	mu         sync.RWMutex
	terms      []string
	generation int64
	loadedAt   time.Time
}

// NewTermIndex создает пустой индекс
func NewTermIndex() *TermIndex {
	return &TermIndex{}
}

// Load заменяет индекс новым списком терминов и возвращает номер
// поколения
func (ti *TermIndex) Load(terms []string) int64 {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	ti.terms = make([]string, len(terms))
	copy(ti.terms, terms)
	ti.generation++
	ti.loadedAt = time.Now()

	return ti.generation
}

// Snapshot возвращает копию списка терминов
func (ti *TermIndex) Snapshot() []string {
	ti.mu.RLock()
	defer ti.mu.RUnlock()

	terms := make([]string, len(ti.terms))
	copy(terms, ti.terms)
	return terms
}

// Size возвращает число терминов в индексе
func (ti *TermIndex) Size() int {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return len(ti.terms)
}

// Initialized сообщает, была ли сессия инициализирована
func (ti *TermIndex) Initialized() bool {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return ti.generation > 0
}

// Generation возвращает номер текущего поколения индекса
func (ti *TermIndex) Generation() int64 {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return ti.generation
}
