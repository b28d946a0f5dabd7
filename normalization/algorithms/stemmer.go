package algorithms

import (
	"strings"
	"sync"

	"github.com/kljensen/snowball"
)

// Stemmer приводит токены к основам по алгоритму Snowball.
// Используется серверным ранжировщиком для канонизации терминов индекса;
// клиентская метрика TokenSimilarity стеммингом не пользуется.
type Stemmer struct {
	language string
	cache    map[string]string
	mu       sync.RWMutex
	useCache bool
}

// NewStemmer создает стеммер для указанного языка ("english", "russian").
// Неизвестный язык не является ошибкой: Stem вернет слово без изменений.
func NewStemmer(language string) *Stemmer {
	if language == "" {
		language = "english"
	}
	return &Stemmer{
		language: strings.ToLower(language),
		cache:    make(map[string]string),
		useCache: true,
	}
}

// Stem возвращает основу слова
func (s *Stemmer) Stem(word string) string {
	if word == "" {
		return ""
	}

	word = strings.ToLower(strings.TrimSpace(word))

	if s.useCache {
		s.mu.RLock()
		if stemmed, ok := s.cache[word]; ok {
			s.mu.RUnlock()
			return stemmed
		}
		s.mu.RUnlock()
	}

	stemmed, err := snowball.Stem(word, s.language, false)
	if err != nil {
		// Слова на неподдерживаемом языке оставляем как есть
		stemmed = word
	}

	if s.useCache {
		s.mu.Lock()
		s.cache[word] = stemmed
		s.mu.Unlock()
	}

	return stemmed
}

// StemTokens возвращает основы для набора токенов
func (s *Stemmer) StemTokens(tokens []string) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if stemmed := s.Stem(token); stemmed != "" {
			result = append(result, stemmed)
		}
	}
	return result
}

// StemText токенизирует строку и возвращает основы токенов
func (s *Stemmer) StemText(text string) []string {
	return s.StemTokens(Tokenize(text))
}
