package language

import "strings"

// Codes with routing significance.
const (
	Malayalam    = "mal"
	English      = "eng"
	Hindi        = "hin"
	Tamil        = "tam"
	Telugu       = "tel"
	Kannada      = "kan"
	Undetermined = "und"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms and observed mistags
}

var languages = []entry{
	{"ml", "mal", "", "Malayalam", []string{"malayalam", "malam"}},
	{"en", "eng", "", "English", []string{"english"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"ta", "tam", "", "Tamil", []string{"tamil"}},
	{"te", "tel", "", "Telugu", []string{"telugu"}},
	{"kn", "kan", "", "Kannada", []string{"kannada"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO3 converts any recognized language code or word to ISO 639-2 (3-letter).
// Returns "und" for empty or unrecognized 2-letter codes; other 3-letter codes
// pass through.
func ToISO3(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return Undetermined
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	if len(code) == 3 {
		return code
	}
	return Undetermined
}

// Known reports whether code normalizes to an entry in the table.
func Known(code string) bool {
	return lookup(code) != nil
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// ExtractFromTags extracts the language from stream metadata tags.
// Checks common tag keys: language, LANGUAGE, Language, language_ietf, lang, LANG.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}

// regionalSources maps catalogue original-language codes to routing codes.
var regionalSources = map[string]string{
	"ml": Malayalam,
	"hi": Hindi,
	"ta": Tamil,
	"te": Telugu,
	"kn": Kannada,
}

// FromOriginalLanguage maps a catalogue original_language to a regional code,
// or "" when the source language has no regional routing.
func FromOriginalLanguage(code string) string {
	return regionalSources[strings.ToLower(strings.TrimSpace(code))]
}
