// Package release parses scene-style release filenames.
//
// Parse extracts the probable title and year, QualityTags lists the release
// tags (resolution, source, codecs, channel layout) in canonical display form,
// IsCAM flags theatre recordings, and LanguageHint reads explicit language
// keywords. All functions are pure and operate on the basename.
package release
