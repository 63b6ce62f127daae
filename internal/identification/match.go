package identification

import (
	"fmt"

	"filearr/internal/release"
)

// Match is the resolved identity of a movie file. TMDBID is 0 for a fallback
// built from the filename guess.
type Match struct {
	Title            string `json:"title"`
	Year             int    `json:"year,omitempty"`
	TMDBID           int64  `json:"tmdb_id,omitempty"`
	Overview         string `json:"overview,omitempty"`
	PosterPath       string `json:"poster_path,omitempty"`
	OriginalLanguage string `json:"original_language,omitempty"`
}

// Identified reports whether the match came from a confident catalogue hit.
func (m Match) Identified() bool {
	return m.TMDBID > 0
}

// String renders "Title (Year)" or the bare title.
func (m Match) String() string {
	if m.Year > 0 {
		return fmt.Sprintf("%s (%d)", m.Title, m.Year)
	}
	return m.Title
}

func fallbackMatch(guess release.Guess) Match {
	return Match{Title: guess.Title, Year: guess.Year, OriginalLanguage: "und"}
}
