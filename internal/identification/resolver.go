package identification

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"filearr/internal/identification/tmdb"
	"filearr/internal/logging"
	"filearr/internal/release"
	"filearr/internal/textutil"
)

const (
	// AcceptThreshold is the minimum title similarity for a catalogue hit.
	AcceptThreshold = 0.72
	// exactYearBoost favours yearless-search results released in the filename year.
	exactYearBoost = 0.1
	// maxYearDrift is the largest tolerated gap between filename and release year.
	maxYearDrift = 1
)

// Resolver turns filename guesses into matches.
type Resolver struct {
	searcher tmdb.Searcher
	timeout  time.Duration
	logger   *slog.Logger
}

// NewResolver constructs a Resolver. A nil searcher always yields fallback matches.
func NewResolver(searcher tmdb.Searcher, timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{searcher: searcher, timeout: timeout, logger: logging.NewComponentLogger(logger, "identification")}
}

// Resolve returns the best match for guess. The boolean is false only when the
// guess has no title; otherwise a match is always returned, with TMDBID 0 when
// no catalogue result was accepted.
func (r *Resolver) Resolve(ctx context.Context, filename string, guess release.Guess) (Match, bool) {
	title := strings.TrimSpace(guess.Title)
	if title == "" {
		return Match{}, false
	}
	guess.Title = title
	logger := r.logger.With(logging.String(logging.FieldPath, filename))

	if guess.HasYear() {
		results := r.search(ctx, logger, title, guess.Year)
		if len(results) > 0 {
			first := results[0]
			score := textutil.TitleSimilarity(title, first.Title)
			if score >= AcceptThreshold {
				if match, ok := reconcile(first, guess.Year); ok {
					logger.Info("tmdb match accepted",
						logging.Args(append(logging.DecisionAttrs("tmdb_match", "accepted", "year search"),
							logging.String("title", match.Title),
							logging.Int64("tmdb_id", match.TMDBID),
							logging.Float64("score", score),
						)...)...,
					)
					return match, true
				}
				logger.Debug("year search candidate rejected by year drift",
					logging.String("candidate", first.Title),
					logging.Int("candidate_year", first.Year()),
					logging.Int("filename_year", guess.Year),
				)
			}
		}
	}

	results := r.search(ctx, logger, title, 0)
	var (
		best      *tmdb.Result
		bestScore float64
	)
	for i := range results {
		score := textutil.TitleSimilarity(title, results[i].Title)
		if guess.HasYear() && results[i].Year() == guess.Year {
			score += exactYearBoost
		}
		if best == nil || score > bestScore {
			best, bestScore = &results[i], score
		}
	}
	if best != nil && bestScore >= AcceptThreshold {
		if match, ok := reconcile(*best, guess.Year); ok {
			logger.Info("tmdb match accepted",
				logging.Args(append(logging.DecisionAttrs("tmdb_match", "accepted", "title search"),
					logging.String("title", match.Title),
					logging.Int64("tmdb_id", match.TMDBID),
					logging.Float64("score", bestScore),
				)...)...,
			)
			return match, true
		}
	}

	logger.Info("tmdb match not found; using filename guess",
		logging.Args(append(logging.DecisionAttrs("tmdb_match", "fallback", "no candidate above threshold"),
			logging.String("title", title),
			logging.Int("year", guess.Year),
		)...)...,
	)
	return fallbackMatch(guess), true
}

func (r *Resolver) search(ctx context.Context, logger *slog.Logger, title string, year int) []tmdb.Result {
	if r.searcher == nil {
		return nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	resp, err := r.searcher.SearchMovieWithOptions(ctx, title, tmdb.SearchOptions{Year: year})
	if err != nil {
		logging.WarnWithContext(logger, "tmdb search failed", "tmdb_search_failed",
			logging.String("query", title),
			logging.Int("year", year),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check tmdb_api_key and network access"),
			logging.String(logging.FieldImpact, "file falls back to its filename title"),
		)
		return nil
	}
	if resp == nil {
		return nil
	}
	return resp.Results
}

// reconcile applies the year tolerance. A result with no release date keeps
// the filename year.
func reconcile(result tmdb.Result, filenameYear int) (Match, bool) {
	match := Match{
		Title:            strings.TrimSpace(result.Title),
		Year:             result.Year(),
		TMDBID:           result.ID,
		Overview:         result.Overview,
		PosterPath:       result.PosterPath,
		OriginalLanguage: strings.ToLower(strings.TrimSpace(result.OriginalLanguage)),
	}
	if match.Title == "" {
		return Match{}, false
	}
	if filenameYear <= 0 {
		return match, true
	}
	if match.Year == 0 {
		match.Year = filenameYear
		return match, true
	}
	drift := match.Year - filenameYear
	if drift < 0 {
		drift = -drift
	}
	switch {
	case drift > maxYearDrift:
		return Match{}, false
	case drift == maxYearDrift:
		match.Year = filenameYear
	}
	return match, true
}
