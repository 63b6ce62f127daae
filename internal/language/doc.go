// Package language normalizes language codes and resolves the primary audio
// language of a media file.
//
// The code table maps ISO 639-1, ISO 639-2 and common spellings ("malam",
// "malayalam") onto one entry per language. Resolver combines the first audio
// stream's tag, a filename keyword hint and the catalogue's original language
// into a single 3-letter code, preferring the stream tag whenever it names a
// language other than English or undetermined.
package language
