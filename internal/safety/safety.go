// Package safety applies the cheap checks that keep samples, fragments and
// unidentifiable files away from metadata lookups.
package safety

import (
	"os"
	"path/filepath"
	"strings"

	"filearr/internal/release"
	"filearr/internal/textutil"
)

// DefaultMinSize is the smallest file accepted as a full-length movie.
const DefaultMinSize int64 = 300 * 1024 * 1024

// Rejection reasons.
const (
	ReasonSample       = "Sample file"
	ReasonTooSmall     = "Too small to be full movie"
	ReasonSizeUnknown  = "Unable to determine file size"
	ReasonNoYear       = "No year in filename"
	ReasonShortTitle   = "Suspicious short title"
	minCleanTitleRunes = 6
)

// Candidate describes the file under evaluation.
type Candidate struct {
	Path      string
	Name      string
	Size      int64
	Extension string
}

// Verdict is the outcome of Evaluate. Guess is populated whenever parsing ran,
// including rejections after the size check.
type Verdict struct {
	Allowed   bool
	Reason    string
	Guess     release.Guess
	Candidate Candidate
}

// Gate evaluates files against the safety rules.
type Gate struct {
	minSize func() int64
	stat    func(string) (os.FileInfo, error)
	parse   func(string) release.Guess
}

// Option customizes a Gate.
type Option func(*Gate)

// WithStat overrides the file stat function.
func WithStat(stat func(string) (os.FileInfo, error)) Option {
	return func(g *Gate) { g.stat = stat }
}

// WithParser overrides the filename parser.
func WithParser(parse func(string) release.Guess) Option {
	return func(g *Gate) { g.parse = parse }
}

// WithMinSize sets a dynamic minimum size, read on every evaluation.
func WithMinSize(minSize func() int64) Option {
	return func(g *Gate) { g.minSize = minSize }
}

// New constructs a Gate using os.Stat, release.Parse and DefaultMinSize.
func New(opts ...Option) *Gate {
	g := &Gate{
		minSize: func() int64 { return DefaultMinSize },
		stat:    os.Stat,
		parse:   release.Parse,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate runs the checks in order and stops at the first failure.
func (g *Gate) Evaluate(path string) Verdict {
	name := filepath.Base(path)
	verdict := Verdict{Candidate: Candidate{
		Path:      path,
		Name:      name,
		Extension: strings.ToLower(filepath.Ext(name)),
	}}

	if strings.Contains(strings.ToLower(name), "sample") {
		verdict.Reason = ReasonSample
		return verdict
	}

	info, err := g.stat(path)
	if err != nil {
		verdict.Reason = ReasonSizeUnknown
		return verdict
	}
	verdict.Candidate.Size = info.Size()
	if info.Size() < g.minSize() {
		verdict.Reason = ReasonTooSmall
		return verdict
	}

	verdict.Guess = g.parse(name)
	if !verdict.Guess.HasYear() {
		verdict.Reason = ReasonNoYear
		return verdict
	}
	cleaned := strings.TrimSpace(textutil.AlphanumericSpace(verdict.Guess.Title))
	if len([]rune(cleaned)) < minCleanTitleRunes {
		verdict.Reason = ReasonShortTitle
		return verdict
	}

	verdict.Allowed = true
	return verdict
}
