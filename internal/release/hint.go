package release

import "strings"

// languageKeywords are checked in order; the first code with a keyword present wins.
var languageKeywords = []struct {
	code     string
	keywords []string
}{
	{"mal", []string{"malayalam", "mal"}},
	{"tam", []string{"tamil", "tam"}},
	{"hin", []string{"hindi", "hin"}},
	{"tel", []string{"telugu", "tel"}},
	{"kan", []string{"kannada", "kan"}},
	{"eng", []string{"english", "eng"}},
}

// LanguageHint returns the 3-letter code of a language named in the filename,
// or "" when none is present.
func LanguageHint(filename string) string {
	present := make(map[string]struct{})
	for _, token := range splitAlnum(Stem(filename)) {
		present[strings.ToLower(token)] = struct{}{}
	}
	for _, entry := range languageKeywords {
		for _, keyword := range entry.keywords {
			if _, ok := present[keyword]; ok {
				return entry.code
			}
		}
	}
	return ""
}
