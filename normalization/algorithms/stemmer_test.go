package algorithms

import "testing"

func TestStemmer_English(t *testing.T) {
	stemmer := NewStemmer("english")

	tests := []struct {
		input    string
		expected string
	}{
		{"running", "run"},
		{"wrenches", "wrench"},
		{"", ""},
	}

	for _, tt := range tests {
		if result := stemmer.Stem(tt.input); result != tt.expected {
			t.Errorf("Stem(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestStemmer_UnknownLanguage(t *testing.T) {
	stemmer := NewStemmer("klingon")

	// Неподдерживаемый язык не должен приводить к ошибке
	if result := stemmer.Stem("running"); result != "running" {
		t.Errorf("Stem with unknown language = %q, want unchanged input", result)
	}
}

func TestStemmer_StemText(t *testing.T) {
	stemmer := NewStemmer("english")

	result := stemmer.StemText("Adjustable Wrenches, Chrome-Plated")
	if len(result) != 3 {
		t.Fatalf("StemText returned %d tokens, want 3: %v", len(result), result)
	}
	if result[1] != "wrench" {
		t.Errorf("StemText token[1] = %q, want %q", result[1], "wrench")
	}
}

func TestStemmer_CacheConsistency(t *testing.T) {
	stemmer := NewStemmer("english")

	first := stemmer.Stem("normalization")
	second := stemmer.Stem("normalization")
	if first != second {
		t.Errorf("cached stem differs: %q vs %q", first, second)
	}
}
