package textutil

import (
	"math"
	"testing"
)

func TestSequenceRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abc", "", 0},
		{"abcd", "abcd", 1},
		{"abcd", "bcde", 0.75},
		{"baby girl", "sugar baby", 2.0 * 4 / 19},
		{"tide", "diet", 0.25},
	}
	for _, tt := range tests {
		got := SequenceRatio(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("SequenceRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTitleSimilarityIdenticalAndEmpty(t *testing.T) {
	if got := TitleSimilarity("The Raid", "  the raid "); got != 1 {
		t.Fatalf("expected identical titles to score 1, got %v", got)
	}
	if got := TitleSimilarity("", "The Raid"); got != 0 {
		t.Fatalf("expected empty title to score 0, got %v", got)
	}
}

func TestTitleSimilarityCompactForms(t *testing.T) {
	got := TitleSimilarity("Spider-Man", "Spider Man")
	if got < 0.95 {
		t.Fatalf("expected compact-equal titles to score >= 0.95, got %v", got)
	}
}

func TestTitleSimilaritySingleTokens(t *testing.T) {
	if got := TitleSimilarity("Drishyam", "Drishyam!"); got < 0.95 {
		t.Fatalf("expected punctuation-only difference to match, got %v", got)
	}
	if got := TitleSimilarity("Premam", "Preman"); got != 0 {
		t.Fatalf("expected differing single tokens to score 0, got %v", got)
	}
}

func TestTitleSimilarityDifferentLeadingWord(t *testing.T) {
	got := TitleSimilarity("Baby Girl", "Sugar Baby")
	if got >= 0.72 {
		t.Fatalf("expected low score for reordered shared word, got %v", got)
	}
	want := math.Min(0.5, SequenceRatio("baby girl", "sugar baby")*0.6)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected capped score: got %v want %v", got, want)
	}
}

func TestTitleSimilarityBlend(t *testing.T) {
	got := TitleSimilarity("The Dark Knight", "The Dark Knight Rises")
	want := 0.75*0.7 + SequenceRatio("the dark knight", "the dark knight rises")*0.3
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("unexpected blended score: got %v want %v", got, want)
	}
	if got < 0.72 {
		t.Fatalf("expected sequel title to clear acceptance threshold, got %v", got)
	}
}

func TestTitleSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"Kumbalangi Nights", "Kumbalangi Nights"},
		{"a b c", "c b a"},
		{"!!!", "???"},
		{"The Raid", "Raid"},
		{"Mission Impossible Fallout", "Mission: Impossible - Fallout"},
	}
	for _, pair := range pairs {
		got := TitleSimilarity(pair[0], pair[1])
		if got < 0 || got > 1 {
			t.Errorf("TitleSimilarity(%q, %q) = %v out of range", pair[0], pair[1], got)
		}
		if rev := TitleSimilarity(pair[1], pair[0]); math.Abs(rev-got) > 0.2 {
			t.Errorf("TitleSimilarity not roughly symmetric for %q/%q: %v vs %v", pair[0], pair[1], got, rev)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Mission: Impossible - Fallout")
	want := []string{"mission", "impossible", "fallout"}
	if len(got) != len(want) {
		t.Fatalf("Tokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokens() = %v, want %v", got, want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		`Mission: Impossible`: "Mission Impossible",
		`AC/DC <Live>`:        "ACDC Live",
		`  What? "Why" |  `:   "What Why",
		`***`:                 "",
	}
	for input, want := range tests {
		if got := SanitizeFileName(input); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAlphanumericSpace(t *testing.T) {
	if got := AlphanumericSpace("Ré-Run!"); got != "RRun" {
		t.Fatalf("unexpected cleaned value %q", got)
	}
}
