package textutil

import "strings"

// unsafeReplacer drops characters that are invalid in filenames on common filesystems.
var unsafeReplacer = strings.NewReplacer(
	"\\", "",
	"/", "",
	"*", "",
	"?", "",
	":", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName removes filesystem-unsafe characters and trims surrounding
// whitespace. Runs of spaces left behind by removed characters are collapsed.
func SanitizeFileName(name string) string {
	cleaned := unsafeReplacer.Replace(strings.TrimSpace(name))
	return strings.Join(strings.Fields(cleaned), " ")
}

// AlphanumericSpace keeps letters, digits and spaces, used to judge whether a
// parsed title carries enough signal to search for.
func AlphanumericSpace(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r == ' ' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
