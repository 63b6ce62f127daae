package release

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Guess is the best-effort title and year read from a filename. Year is 0 when
// no year was found.
type Guess struct {
	Title string
	Year  int
}

// HasYear reports whether a year was parsed.
func (g Guess) HasYear() bool { return g.Year > 0 }

var (
	sitePrefixPattern  = regexp.MustCompile(`(?i)^www\.\S+\s*-\s*`)
	groupPrefixPattern = regexp.MustCompile(`^\s*[\[{][^\]}]*[\]}]\s*`)
	yearTokenPattern   = regexp.MustCompile(`^[(\[]?((?:19|20)\d{2})[)\]]?$`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	tokenPattern       = regexp.MustCompile(`\S+`)
	separatorReplacer  = strings.NewReplacer(".", " ", "_", " ")
	bracketStripper    = strings.NewReplacer("(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ")
	titleCaser         = cases.Title(language.English)
)

// boundaryTokens end the title when a filename carries no year.
var boundaryTokens = map[string]struct{}{
	"2160p": {}, "1080p": {}, "1080i": {}, "720p": {}, "576p": {}, "480p": {}, "4k": {}, "uhd": {},
	"bluray": {}, "blu-ray": {}, "bdrip": {}, "brrip": {}, "webrip": {}, "web-dl": {}, "webdl": {},
	"hdrip": {}, "dvdrip": {}, "hdtv": {}, "remux": {}, "x264": {}, "x265": {}, "h264": {},
	"h265": {}, "hevc": {}, "10bit": {}, "proper": {}, "repack": {}, "hdcam": {}, "hdts": {},
	"camrip": {}, "telesync": {}, "malayalam": {}, "tamil": {}, "hindi": {}, "telugu": {},
	"kannada": {}, "english": {},
}

// Stem returns the filename without directory or media extension.
func Stem(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext != "" && len(ext) <= 5 && strings.ContainsFunc(ext, isLetter) {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Parse extracts a title and year from a release filename. The year is the last
// standalone 19xx/20xx token that is not the first token, so titles that are
// themselves years survive ("1917.2019.1080p" parses as 1917 / 2019).
func Parse(filename string) Guess {
	l := split(filename)
	if len(l.tokens) == 0 {
		return Guess{}
	}
	end := l.limit
	if l.yearIdx > 0 {
		end = l.yearIdx
	}
	words := make([]string, 0, end)
	for _, tok := range l.tokens[:end] {
		words = append(words, tok.text)
	}
	return Guess{Title: cleanTitle(strings.Join(words, " ")), Year: l.year}
}

type token struct {
	text       string
	start, end int
}

// layout is a filename stem split into tokens. limit is the index of the
// first boundary token (len(tokens) when there is none) and yearIdx is -1
// when no year was found.
type layout struct {
	stem    string
	tokens  []token
	limit   int
	yearIdx int
	year    int
}

func split(filename string) layout {
	stem := Stem(filename)
	stem = sitePrefixPattern.ReplaceAllString(stem, "")
	for groupPrefixPattern.MatchString(stem) {
		stem = groupPrefixPattern.ReplaceAllString(stem, "")
	}
	l := layout{stem: stem, yearIdx: -1}
	// Separators are single bytes replaced by single bytes, so offsets into
	// spaced are offsets into stem.
	spaced := separatorReplacer.Replace(stem)
	for _, loc := range tokenPattern.FindAllStringIndex(spaced, -1) {
		l.tokens = append(l.tokens, token{text: spaced[loc[0]:loc[1]], start: loc[0], end: loc[1]})
	}

	l.limit = len(l.tokens)
	for i, tok := range l.tokens {
		if _, ok := boundaryTokens[strings.ToLower(strings.Trim(tok.text, "()[]{}"))]; ok && i > 0 {
			l.limit = i
			break
		}
	}
	for i := 1; i < l.limit; i++ {
		if m := yearTokenPattern.FindStringSubmatch(l.tokens[i].text); m != nil {
			l.yearIdx = i
			l.year, _ = strconv.Atoi(m[1])
		}
	}
	return l
}

// tagStart is the offset in stem where release tags may begin: after the
// year, or at the first boundary token. A name with neither is all title.
func (l layout) tagStart() int {
	switch {
	case l.yearIdx > 0:
		return l.tokens[l.yearIdx].end
	case l.limit < len(l.tokens):
		return l.tokens[l.limit].start
	default:
		return len(l.stem)
	}
}

func cleanTitle(value string) string {
	value = bracketStripper.Replace(value)
	value = whitespacePattern.ReplaceAllString(value, " ")
	value = strings.Trim(value, " -–")
	if value != "" && value == strings.ToLower(value) {
		value = titleCaser.String(value)
	}
	return value
}

func isLetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}
