// Package textutil provides title comparison and filename sanitization helpers.
//
// The primary use cases are:
//   - Scoring how closely a parsed release title matches a catalogue title
//   - Computing the matching-blocks sequence ratio between two strings
//   - Stripping filesystem-unsafe characters from names built for the library
//
// Titles are compared case-insensitively on alphanumeric tokens. Token overlap
// dominates the score; the character-level sequence ratio breaks ties and
// penalizes titles that only share incidental words.
package textutil
