package algorithms

// TokenSimilarity вычисляет схожесть двух строк на основе жадного
// сопоставления токенов. Для каждого токена первой строки выбирается
// лучший еще не занятый токен второй строки по LevenshteinRatio,
// каждый токен второй строки может быть использован не более одного раза.
// Сумма лучших оценок делится на max(len(tokens1), len(tokens2)).
//
// Жадное назначение сохраняется намеренно: оптимальное паросочетание
// (венгерский алгоритм) дает другие результаты на спорных парах и
// ломает накопленные ожидания по порогам.
func TokenSimilarity(s1, s2 string) float64 {
	tokens1 := Tokenize(s1)
	tokens2 := Tokenize(s2)

	if len(tokens1) == 0 && len(tokens2) == 0 {
		return 1.0
	}
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	used := make([]bool, len(tokens2))
	total := 0.0

	for _, token := range tokens1 {
		best := 0.0
		bestIdx := -1
		for j, candidate := range tokens2 {
			if used[j] {
				continue
			}
			score := LevenshteinRatio(token, candidate)
			if score > best {
				best = score
				bestIdx = j
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			total += best
		}
	}

	maxLen := len(tokens1)
	if len(tokens2) > maxLen {
		maxLen = len(tokens2)
	}

	return total / float64(maxLen)
}
