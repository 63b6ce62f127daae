// Package decision turns classification results into a final action and
// destination path.
package decision

import (
	"fmt"
	"path/filepath"
	"strings"

	"filearr/internal/config"
	"filearr/internal/identification"
	"filearr/internal/language"
	"filearr/internal/release"
	"filearr/internal/textutil"
)

// Action is the routing verdict for one file.
type Action string

const (
	ActionMove   Action = "move"
	ActionReject Action = "reject"
	ActionIgnore Action = "ignore"
)

// ReasonCAM is the rejection reason for camera and telesync copies.
const ReasonCAM = "CAM/TS file detected"

// Decision is the routing result. A move or reject always carries a
// destination that ends in the source extension.
type Decision struct {
	Action      Action `json:"action"`
	Destination string `json:"destination,omitempty"`
	Reason      string `json:"reason"`
}

// Overrides replaces destination roots for a single run, such as a cleanup
// job aimed at a different library. Blank fields use the configured roots.
type Overrides struct {
	MoviesDir   string `json:"movies_dir,omitempty"`
	RegionalDir string `json:"regional_dir,omitempty"`
}

// Engine computes decisions from the current settings.
type Engine struct {
	settings config.Provider
}

// NewEngine returns an engine that reads roots from settings on every call.
func NewEngine(settings config.Provider) *Engine {
	return &Engine{settings: settings}
}

// Decide routes path. lang is an ISO 639-2 code from the language resolver and
// score the advisory quality score.
func (e *Engine) Decide(path, lang string, score int, isCAM bool, match identification.Match, overrides Overrides) Decision {
	base := filepath.Base(path)
	if isCAM {
		return Decision{
			Action:      ActionReject,
			Destination: filepath.Join(e.settings.Get(config.KeyRejectedDir), base),
			Reason:      ReasonCAM,
		}
	}

	root := e.root(lang, overrides)
	folder := FolderName(match.Title, match.Year)
	file := folder
	if tags := release.QualityTags(base); len(tags) > 0 {
		file = strings.TrimSpace(folder + " " + strings.Join(tags, " "))
	}
	file += filepath.Ext(base)

	return Decision{
		Action:      ActionMove,
		Destination: filepath.Join(root, folder, file),
		Reason:      fmt.Sprintf("Language: %s, Quality Score: %d", lang, score),
	}
}

// Ignore builds a decision that leaves the file in place.
func Ignore(reason string) Decision {
	return Decision{Action: ActionIgnore, Reason: reason}
}

func (e *Engine) root(lang string, overrides Overrides) string {
	regional := language.Malayalam
	if configured := strings.TrimSpace(e.settings.Get(config.KeyRegionalLanguage)); configured != "" {
		regional = language.ToISO3(configured)
	}
	if lang != "" && language.ToISO3(lang) == regional {
		if dir := strings.TrimSpace(overrides.RegionalDir); dir != "" {
			return dir
		}
		return e.settings.Get(config.KeyRegionalDir)
	}
	if dir := strings.TrimSpace(overrides.MoviesDir); dir != "" {
		return dir
	}
	return e.settings.Get(config.KeyMoviesDir)
}

// FolderName renders "Title (Year)", or the bare title when the year is
// unknown. Unsafe characters are removed and an empty title becomes "Unknown".
func FolderName(title string, year int) string {
	clean := textutil.SanitizeFileName(title)
	if clean == "" {
		clean = "Unknown"
	}
	if year > 0 {
		return fmt.Sprintf("%s (%d)", clean, year)
	}
	return clean
}
