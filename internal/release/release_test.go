package release_test

import (
	"reflect"
	"testing"

	"filearr/internal/release"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     release.Guess
	}{
		{"scene name", "The.Matrix.1999.1080p.BluRay.x265.mkv", release.Guess{Title: "The Matrix", Year: 1999}},
		{"plain", "Casablanca.1942.mkv", release.Guess{Title: "Casablanca", Year: 1942}},
		{"parenthesized", "Kumbalangi Nights (2019) [1080p].mkv", release.Guess{Title: "Kumbalangi Nights", Year: 2019}},
		{"year title", "1917.2019.2160p.WEB-DL.mkv", release.Guess{Title: "1917", Year: 2019}},
		{"year title only", "2012.2009.mkv", release.Guess{Title: "2012", Year: 2009}},
		{"number in title", "Blade.Runner.2049.2017.1080p.mkv", release.Guess{Title: "Blade Runner 2049", Year: 2017}},
		{"site prefix", "www.TamilBlasters.xyz - Premam (2015) Malayalam HDRip.mkv", release.Guess{Title: "Premam", Year: 2015}},
		{"group prefix", "[TGx] Drishyam.2013.720p.mkv", release.Guess{Title: "Drishyam", Year: 2013}},
		{"lowercase", "baby_girl_2026_malayalam.mkv", release.Guess{Title: "Baby Girl", Year: 2026}},
		{"no year", "Random.Stuff.1080p.mkv", release.Guess{Title: "Random Stuff"}},
		{"no year no tags", "Random Stuff.mkv", release.Guess{Title: "Random Stuff"}},
		{"empty", ".mkv", release.Guess{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := release.Parse(tt.filename); got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestQualityTags(t *testing.T) {
	tests := []struct {
		filename string
		want     []string
	}{
		{"The.Matrix.1999.1080p.BluRay.x265.mkv", []string{"1080p", "BluRay", "x265"}},
		{"Casablanca.1942.mkv", nil},
		{"Movie.2021.2160p.WEB-DL.DDP5.1.Atmos.DV.HDR.H.265.mkv", []string{"2160p", "WEB-DL", "DDP5.1", "Atmos", "DV", "HDR", "H.265"}},
		{"Movie.2020.1080p.bluray.DTS-HD.MA.5.1.x264.mkv", []string{"1080p", "BluRay", "DTS-HD MA", "5.1", "x264"}},
		{"Movie.2020.720p.HDRip.x264.AAC.x264.mkv", []string{"720p", "HDRip", "x264", "AAC"}},
		{"Movie.2020.HEVC.10bit.EAC3.mkv", []string{"HEVC", "10bit", "EAC3"}},
		{"Shadrach.2020.mkv", nil},
		{"Mr.Hollands.Opus.1995.1080p.BluRay.mkv", []string{"1080p", "BluRay"}},
		{"Atmos.2019.DV.Opus.mkv", []string{"DV", "Opus"}},
		{"Kumbalangi Nights (2019) [1080p].mkv", []string{"1080p"}},
		{"Random.Stuff.HEVC.1080p.mkv", []string{"HEVC", "1080p"}},
		{"Remux Story.mkv", nil},
	}
	for _, tt := range tests {
		got := release.QualityTags(tt.filename)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("QualityTags(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestIsCAM(t *testing.T) {
	positive := []string{
		"Movie.2024.CAM.x264.mkv",
		"Movie.2024.HDCAM.mkv",
		"movie 2024 hdts.mp4",
		"Movie.2024.TS.mp4",
		"Movie.2024.TELESYNC.avi",
		"Movie.2024.TC.mkv",
		"Movie.2024.SCR.mkv",
		"Movie.2024.SCREENER.mkv",
		"Movie.2024.WORKPRINT.mkv",
		"Movie.2024.WP.mkv",
		"Movie.2024.CAMRip.mkv",
	}
	for _, name := range positive {
		if !release.IsCAM(name) {
			t.Errorf("IsCAM(%q) = false, want true", name)
		}
	}
	negative := []string{
		"The.Matrix.1999.1080p.BluRay.x265.mkv",
		"Shorts.2009.1080p.mkv",
		"Scream.2022.mkv",
		"Movie.2024.1080p.WEB-DL.ts",
		"Tcheky.2020.mkv",
	}
	for _, name := range negative {
		if release.IsCAM(name) {
			t.Errorf("IsCAM(%q) = true, want false", name)
		}
	}
}

func TestLanguageHint(t *testing.T) {
	tests := map[string]string{
		"Premam.2015.Malayalam.1080p.mkv":    "mal",
		"Movie.2020.Tamil.mkv":               "tam",
		"Movie.2020.tel.mkv":                 "tel",
		"Movie.2020.Hindi.English.mkv":       "hin",
		"Movie.2020.Kannada.mkv":             "kan",
		"Movie.2020.ENG.mkv":                 "eng",
		"The.Matrix.1999.1080p.mkv":          "",
		"Malcolm.2020.mkv":                   "",
		"Baby.Girl.2026.Tamil.Malayalam.mkv": "mal",
	}
	for filename, want := range tests {
		if got := release.LanguageHint(filename); got != want {
			t.Errorf("LanguageHint(%q) = %q, want %q", filename, got, want)
		}
	}
}

func TestStem(t *testing.T) {
	if got := release.Stem("/in/Movie.2020.mkv"); got != "Movie.2020" {
		t.Fatalf("unexpected stem %q", got)
	}
	if got := release.Stem("Movie.2020"); got != "Movie.2020" {
		t.Fatalf("numeric suffix should not be stripped, got %q", got)
	}
}
