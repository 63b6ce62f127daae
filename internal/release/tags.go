package release

import (
	"regexp"
	"sort"
)

// tagDef maps a raw pattern to its canonical display label.
type tagDef struct {
	label   string
	pattern string
}

// tagDefs is the release tag vocabulary. Longer forms are listed alongside
// their prefixes; overlap resolution keeps the longest match at a position.
var tagDefs = []tagDef{
	// Resolution
	{"2160p", `2160p`},
	{"4K", `4k|uhd`},
	{"1080p", `1080p`},
	{"1080i", `1080i`},
	{"720p", `720p`},
	{"576p", `576p`},
	{"480p", `480p`},

	// Source
	{"REMUX", `remux`},
	{"BluRay", `blu-?ray|bdrip|brrip`},
	{"WEB-DL", `web-?dl`},
	{"WEBRip", `web-?rip`},
	{"HDRip", `hdrip`},
	{"DVDRip", `dvdrip`},
	{"HDTV", `hdtv`},
	{"AMZN", `amzn`},
	{"NF", `nf`},
	{"ZEE5", `zee5`},

	// Video
	{"x265", `x\.?265`},
	{"x264", `x\.?264`},
	{"H.265", `h\.?265`},
	{"H.264", `h\.?264`},
	{"HEVC", `hevc`},
	{"AVC", `avc`},
	{"AV1", `av1`},
	{"10bit", `10[- ]?bit`},
	{"HDR10+", `hdr10\+|hdr10plus`},
	{"HDR10", `hdr10`},
	{"HDR", `hdr`},
	{"DV", `dv|dovi|dolby[. ]?vision`},

	// Audio
	{"DDP5.1", `ddp[. ]?5[. ]1|dd\+[. ]?5[. ]1|eac3[. ]?5[. ]1`},
	{"DDP7.1", `ddp[. ]?7[. ]1|dd\+[. ]?7[. ]1`},
	{"DDP2.0", `ddp[. ]?2[. ]0`},
	{"DDP", `ddp|dd\+`},
	{"DD5.1", `dd[. ]?5[. ]1|ac3[. ]?5[. ]1`},
	{"EAC3", `e-?ac-?3`},
	{"AC3", `ac-?3`},
	{"DTS-HD MA", `dts-?hd[. -]?ma`},
	{"DTS-X", `dts-?x`},
	{"DTS", `dts`},
	{"TrueHD", `true-?hd`},
	{"Atmos", `atmos`},
	{"AAC2.0", `aac[. ]?2[. ]0`},
	{"AAC", `aac`},
	{"FLAC", `flac`},
	{"Opus", `opus`},
	{"7.1", `7[. ]1`},
	{"5.1", `5[. ]1`},
}

type compiledTag struct {
	label   string
	pattern *regexp.Regexp
}

var compiledTags = func() []compiledTag {
	out := make([]compiledTag, 0, len(tagDefs))
	for _, def := range tagDefs {
		out = append(out, compiledTag{label: def.label, pattern: regexp.MustCompile(`(?i)(?:` + def.pattern + `)`)})
	}
	return out
}()

type tagHit struct {
	start, end int
	label      string
}

// QualityTags returns the canonical release tags present in filename in
// first-seen order without duplicates. Only the part of the name after the
// title is scanned.
func QualityTags(filename string) []string {
	l := split(filename)
	stem := l.stem[l.tagStart():]

	var hits []tagHit
	for _, tag := range compiledTags {
		for _, loc := range boundedMatches(tag.pattern, stem) {
			hits = append(hits, tagHit{start: loc[0], end: loc[1], label: tag.label})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].end-hits[i].start > hits[j].end-hits[j].start
	})

	var tags []string
	seen := make(map[string]struct{})
	covered := 0
	for _, hit := range hits {
		if hit.start < covered {
			continue
		}
		covered = hit.end
		if _, dup := seen[hit.label]; dup {
			continue
		}
		seen[hit.label] = struct{}{}
		tags = append(tags, hit.label)
	}
	return tags
}

// boundedMatches finds matches that are not embedded in a longer alphanumeric
// run. A rejected candidate restarts the search one byte later so a valid
// match overlapping it is still found.
func boundedMatches(pattern *regexp.Regexp, value string) [][2]int {
	var out [][2]int
	offset := 0
	for offset < len(value) {
		loc := pattern.FindStringIndex(value[offset:])
		if loc == nil {
			break
		}
		start, end := loc[0]+offset, loc[1]+offset
		if end > start && boundaryBefore(value, start) && boundaryAfter(value, end) {
			out = append(out, [2]int{start, end})
			offset = end
			continue
		}
		offset = start + 1
	}
	return out
}

func boundaryBefore(value string, idx int) bool {
	return idx == 0 || !isAlnumByte(value[idx-1])
}

func boundaryAfter(value string, idx int) bool {
	return idx >= len(value) || !isAlnumByte(value[idx])
}

func isAlnumByte(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
