// Package normalization реализует трехуровневый конвейер нормализации
// терминов: точный поиск по словарям, нечеткое сопоставление и удаленное
// ранжирование. Словари принадлежат вызывающей стороне и передаются
// в конвейер на каждый вызов.
package normalization

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MappingEntry элемент прямого словаря. Либо простая строка-цель
// (PlainTarget), либо запись с метаданными (RichTarget). Закрытое
// множество вариантов: runtime-проверки типов вызывающим не нужны.
type MappingEntry interface {
	// Target возвращает канонический идентификатор цели
	Target() string

	mappingEntry()
}

// PlainTarget простая цель: строка канонического идентификатора
type PlainTarget string

// Target возвращает канонический идентификатор
func (p PlainTarget) Target() string { return string(p) }

func (PlainTarget) mappingEntry() {}

// RichTarget цель с метаданными
type RichTarget struct {
	TargetValue string `json:"target"`
	Category    string `json:"category,omitempty"`
	Unit        string `json:"unit,omitempty"`
}

// Target возвращает канонический идентификатор
func (r RichTarget) Target() string { return r.TargetValue }

func (RichTarget) mappingEntry() {}

// DecodeEntry разбирает JSON-значение прямого словаря: либо строка,
// либо объект с полем target.
func DecodeEntry(raw json.RawMessage) (MappingEntry, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("empty mapping entry")
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode plain target: %w", err)
		}
		return PlainTarget(s), nil
	}

	var rich RichTarget
	if err := json.Unmarshal(raw, &rich); err != nil {
		return nil, fmt.Errorf("failed to decode rich target: %w", err)
	}
	if rich.TargetValue == "" {
		return nil, fmt.Errorf("mapping entry object has no target field")
	}
	return rich, nil
}

// ReverseEntry метаданные канонического термина в обратном словаре
type ReverseEntry struct {
	Aliases  []string `json:"alias"`
	Category string   `json:"category,omitempty"`
}

// MappingTable пара словарей: прямой (исходный термин -> цель) и
// обратный (канонический термин -> метаданные). Согласованность словарей
// не проверяется: прямая запись без соответствующего канонического
// термина допустима и обрабатывается как обычная.
//
// Таблица не должна изменяться после создания: индексы нормализованных
// ключей строятся один раз в NewMappingTable.
type MappingTable struct {
	Forward map[string]MappingEntry
	Reverse map[string]ReverseEntry

	forwardNorm map[string]MappingEntry
	reverseNorm map[string]string
	forwardKeys []string
	reverseKeys []string
}

// NewMappingTable создает таблицу и строит индексы для O(1) точного
// поиска без учета регистра и краевых пробелов. Ключи для нечеткого
// прохода сортируются лексикографически, чтобы выбор при равных
// максимумах был детерминированным.
func NewMappingTable(forward map[string]MappingEntry, reverse map[string]ReverseEntry) *MappingTable {
	if forward == nil {
		forward = make(map[string]MappingEntry)
	}
	if reverse == nil {
		reverse = make(map[string]ReverseEntry)
	}

	t := &MappingTable{
		Forward:     forward,
		Reverse:     reverse,
		forwardNorm: make(map[string]MappingEntry, len(forward)),
		reverseNorm: make(map[string]string, len(reverse)),
		forwardKeys: make([]string, 0, len(forward)),
		reverseKeys: make([]string, 0, len(reverse)),
	}

	for key, entry := range forward {
		t.forwardNorm[NormalizeKey(key)] = entry
		t.forwardKeys = append(t.forwardKeys, key)
	}
	for key := range reverse {
		t.reverseNorm[NormalizeKey(key)] = key
		t.reverseKeys = append(t.reverseKeys, key)
	}

	sort.Strings(t.forwardKeys)
	sort.Strings(t.reverseKeys)

	return t
}

// Terms возвращает отсортированный список канонических терминов.
// Именно этот список отправляется сервису ранжирования при
// инициализации сессии.
func (t *MappingTable) Terms() []string {
	terms := make([]string, len(t.reverseKeys))
	copy(terms, t.reverseKeys)
	return terms
}

// NormalizeKey приводит ключ словаря к форме для точного поиска:
// без краевых пробелов, в нижнем регистре.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
