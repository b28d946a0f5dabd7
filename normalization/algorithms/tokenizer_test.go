package algorithms

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"  Sodium   Chloride ", []string{"sodium", "chloride"}},
		{"50% раствор NaCl", []string{"50%", "раствор", "nacl"}},
		{"a_b-c.d", []string{"a_b", "c", "d"}},
		{"", nil},
		{"., !?", nil},
	}

	for _, tt := range tests {
		result := Tokenize(tt.input)
		if len(result) == 0 && len(tt.expected) == 0 {
			continue
		}
		if !reflect.DeepEqual(result, tt.expected) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Sodium   Chloride ", "sodium chloride"},
		{"NA", "na"},
		{"", ""},
	}

	for _, tt := range tests {
		if result := NormalizeText(tt.input); result != tt.expected {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1       string
		s2       string
		expected int
	}{
		{"kitten", "sitting", 3},
		{"sodum", "sodium", 1},
		{"", "abc", 3},
		{"abc", "", 3},
		{"", "", 0},
		{"молоток", "молотки", 1},
	}

	for _, tt := range tests {
		if result := LevenshteinDistance(tt.s1, tt.s2); result != tt.expected {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, result, tt.expected)
		}
	}
}

func TestLevenshteinRatio(t *testing.T) {
	if ratio := LevenshteinRatio("", ""); ratio != 1.0 {
		t.Errorf("LevenshteinRatio(\"\", \"\") = %f, want 1.0", ratio)
	}

	ratio := LevenshteinRatio("sodum", "sodium")
	expected := 1.0 - 1.0/6.0
	if diff := ratio - expected; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("LevenshteinRatio(sodum, sodium) = %f, want %f", ratio, expected)
	}
}
