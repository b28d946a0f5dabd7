package algorithms

import (
	"strings"
	"unicode"
)

// Tokenize разбивает строку на нормализованные токены.
// Строка приводится к нижнему регистру, все символы кроме букв, цифр,
// подчеркивания и '%' заменяются пробелами, повторяющиеся пробелы
// схлопываются, пустые токены отбрасываются.
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isWordRune(r) || r == '%' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Fields(b.String())
}

// NormalizeText возвращает каноническую форму строки: токены,
// соединенные одиночными пробелами.
func NormalizeText(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// isWordRune проверяет, является ли символ частью слова
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
