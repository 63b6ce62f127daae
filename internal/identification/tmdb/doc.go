// Package tmdb provides the minimal TMDB API client used to identify movies
// from release filenames.
//
// It authenticates requests, exposes movie search with an optional
// primary-release-year filter, and validates credentials against the
// configuration endpoint. Options allow tests to supply custom HTTP clients
// without modifying production code.
package tmdb
