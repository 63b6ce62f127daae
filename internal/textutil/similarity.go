package textutil

import (
	"strings"
	"unicode"
)

// TitleSimilarity scores two titles in [0, 1].
//
// Identical alphanumeric content scores at least 0.95. Single-word titles must
// match exactly. Multi-word titles blend token overlap with the sequence ratio,
// and titles whose first words differ are capped unless most tokens overlap.
func TitleSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	seq := SequenceRatio(a, b)
	if compactA, compactB := compact(a), compact(b); compactA != "" && compactA == compactB {
		return max(0.95, seq)
	}

	tokensA, tokensB := Tokens(a), Tokens(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return seq
	}
	if len(tokensA) == 1 && len(tokensB) == 1 {
		if tokensA[0] == tokensB[0] {
			return 1
		}
		return 0
	}

	overlap := tokenOverlap(tokensA, tokensB)
	if tokensA[0] != tokensB[0] && overlap < 0.8 {
		return min(overlap, seq*0.6)
	}
	return overlap*0.7 + seq*0.3
}

// Tokens splits lowercase text on every non-alphanumeric rune.
func Tokens(value string) []string {
	return strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func compact(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tokenOverlap is |A ∩ B| / max(|A|, |B|) over distinct tokens.
func tokenOverlap(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, token := range a {
		setA[token] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, token := range b {
		setB[token] = struct{}{}
	}
	shared := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(len(setA), len(setB)))
}
