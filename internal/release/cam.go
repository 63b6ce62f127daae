package release

import (
	"strings"
	"unicode"
)

var camTokens = map[string]struct{}{
	"CAM": {}, "HDCAM": {}, "TS": {}, "HDTS": {}, "TELESYNC": {}, "TC": {},
	"SCR": {}, "SCREENER": {}, "WORKPRINT": {}, "WP": {},
}

// IsCAM reports whether the filename names a theatre recording or screener.
// Tokens are split on any non-alphanumeric rune, so "Movie.TS.mp4" and
// "HD-TS" match while "Shorts" does not. A trailing "RIP" suffix is ignored
// ("CAMRip"). The extension is excluded so MPEG-TS containers pass.
func IsCAM(filename string) bool {
	for _, token := range splitAlnum(Stem(filename)) {
		upper := strings.ToUpper(token)
		if _, ok := camTokens[upper]; ok {
			return true
		}
		if trimmed, found := strings.CutSuffix(upper, "RIP"); found {
			if _, ok := camTokens[trimmed]; ok {
				return true
			}
		}
	}
	return false
}

func splitAlnum(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
