package identification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"filearr/internal/config"
	"filearr/internal/identification/tmdb"
	"filearr/internal/release"
)

type fakeSearcher struct {
	mu      sync.Mutex
	byYear  map[int][]tmdb.Result
	err     error
	calls   []tmdb.SearchOptions
	queries []string
}

func (f *fakeSearcher) SearchMovieWithOptions(_ context.Context, query string, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.Response{Results: f.byYear[opts.Year]}, nil
}

func newTestResolver(searcher tmdb.Searcher) *Resolver {
	return NewResolver(searcher, time.Second, nil)
}

func TestResolvePrefersTitleSearchWhenYearSearchMismatches(t *testing.T) {
	searcher := &fakeSearcher{byYear: map[int][]tmdb.Result{
		2026: {{ID: 1, Title: "Sugar Baby", ReleaseDate: "2026-01-01"}},
		0: {
			{ID: 456, Title: "Baby Girl", ReleaseDate: "2026-01-23", OriginalLanguage: "ml"},
			{ID: 1, Title: "Sugar Baby", ReleaseDate: "2026-01-01"},
		},
	}}
	match, ok := newTestResolver(searcher).Resolve(context.Background(), "Baby.Girl.2026.mkv", release.Guess{Title: "Baby Girl", Year: 2026})
	if !ok {
		t.Fatal("expected a match")
	}
	if match.Title != "Baby Girl" || match.TMDBID != 456 || match.OriginalLanguage != "ml" || match.Year != 2026 {
		t.Fatalf("unexpected match %+v", match)
	}
	if len(searcher.calls) != 2 || searcher.calls[0].Year != 2026 || searcher.calls[1].Year != 0 {
		t.Fatalf("unexpected search sequence %+v", searcher.calls)
	}
}

func TestResolveAcceptsYearSearchHit(t *testing.T) {
	searcher := &fakeSearcher{byYear: map[int][]tmdb.Result{
		1999: {{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", OriginalLanguage: "en", PosterPath: "/m.jpg"}},
	}}
	match, ok := newTestResolver(searcher).Resolve(context.Background(), "The.Matrix.1999.mkv", release.Guess{Title: "The Matrix", Year: 1999})
	if !ok || match.TMDBID != 603 || match.Year != 1999 || match.PosterPath != "/m.jpg" {
		t.Fatalf("unexpected match %+v ok=%v", match, ok)
	}
	if len(searcher.calls) != 1 {
		t.Fatalf("expected a single search, got %d", len(searcher.calls))
	}
}

func TestResolveYearTolerance(t *testing.T) {
	tests := []struct {
		name        string
		resultDate  string
		fileYear    int
		wantID      int64
		wantYear    int
		wantConfirm bool
	}{
		{name: "off by one keeps filename year", resultDate: "2012-03-23", fileYear: 2011, wantID: 94329, wantYear: 2011, wantConfirm: true},
		{name: "exact year", resultDate: "2011-09-08", fileYear: 2011, wantID: 94329, wantYear: 2011, wantConfirm: true},
		{name: "missing date keeps filename year", resultDate: "", fileYear: 2011, wantID: 94329, wantYear: 2011, wantConfirm: true},
		{name: "large drift falls back", resultDate: "2014-03-28", fileYear: 2011, wantID: 0, wantYear: 2011},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := tmdb.Result{ID: 94329, Title: "The Raid", ReleaseDate: tc.resultDate}
			searcher := &fakeSearcher{byYear: map[int][]tmdb.Result{
				tc.fileYear: {result},
				0:           {result},
			}}
			match, ok := newTestResolver(searcher).Resolve(context.Background(), "The.Raid.mkv", release.Guess{Title: "The Raid", Year: tc.fileYear})
			if !ok {
				t.Fatal("expected ok")
			}
			if match.TMDBID != tc.wantID || match.Year != tc.wantYear || match.Identified() != tc.wantConfirm {
				t.Fatalf("unexpected match %+v", match)
			}
		})
	}
}

func TestResolveFallsBackOnSearchError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("boom")}
	match, ok := newTestResolver(searcher).Resolve(context.Background(), "Obscure.Film.2020.mkv", release.Guess{Title: "Obscure Film", Year: 2020})
	if !ok {
		t.Fatal("expected fallback match")
	}
	if match.Identified() || match.Title != "Obscure Film" || match.Year != 2020 || match.OriginalLanguage != "und" {
		t.Fatalf("unexpected fallback %+v", match)
	}
}

func TestResolveRejectsDissimilarTitles(t *testing.T) {
	searcher := &fakeSearcher{byYear: map[int][]tmdb.Result{
		2020: {{ID: 9, Title: "Completely Different", ReleaseDate: "2020-01-01"}},
		0:    {{ID: 9, Title: "Completely Different", ReleaseDate: "2020-01-01"}},
	}}
	match, _ := newTestResolver(searcher).Resolve(context.Background(), "Night.Train.2020.mkv", release.Guess{Title: "Night Train", Year: 2020})
	if match.Identified() {
		t.Fatalf("expected fallback, got %+v", match)
	}
}

func TestResolveEmptyTitle(t *testing.T) {
	if _, ok := newTestResolver(&fakeSearcher{}).Resolve(context.Background(), "2020.mkv", release.Guess{Year: 2020}); ok {
		t.Fatal("expected false for empty title")
	}
}

func TestResolveWithoutSearcherFallsBack(t *testing.T) {
	match, ok := newTestResolver(nil).Resolve(context.Background(), "Some.Movie.2001.mkv", release.Guess{Title: "Some Movie", Year: 2001})
	if !ok || match.Identified() {
		t.Fatalf("unexpected match %+v ok=%v", match, ok)
	}
}

func TestSearchCachesResponses(t *testing.T) {
	inner := &fakeSearcher{byYear: map[int][]tmdb.Result{0: {{ID: 1, Title: "Heat"}}}}
	search := NewSearch(StaticSource{S: inner}, time.Minute, 0)
	for range 3 {
		resp, err := search.SearchMovieWithOptions(context.Background(), "Heat", tmdb.SearchOptions{})
		if err != nil || len(resp.Results) != 1 {
			t.Fatalf("unexpected response %+v err=%v", resp, err)
		}
	}
	if len(inner.calls) != 1 {
		t.Fatalf("expected one upstream call, got %d", len(inner.calls))
	}

	now := time.Now()
	search.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := search.SearchMovieWithOptions(context.Background(), "heat", tmdb.SearchOptions{}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(inner.calls) != 2 {
		t.Fatalf("expected expired entry to refetch, got %d calls", len(inner.calls))
	}
}

func TestSearchDoesNotCacheErrors(t *testing.T) {
	inner := &fakeSearcher{err: errors.New("down")}
	search := NewSearch(StaticSource{S: inner}, time.Minute, 0)
	for range 2 {
		if _, err := search.SearchMovieWithOptions(context.Background(), "Heat", tmdb.SearchOptions{}); err == nil {
			t.Fatal("expected error")
		}
	}
	if len(inner.calls) != 2 {
		t.Fatalf("expected errors to be retried, got %d calls", len(inner.calls))
	}
}

func TestProviderClientsRequiresKey(t *testing.T) {
	source := NewProviderClients(config.Static{}, "https://api.themoviedb.org/3", "en-US")
	if _, err := source.Searcher(); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}

	settings := config.Static{config.KeyTMDBAPIKey: "abc"}
	source = NewProviderClients(settings, "https://api.themoviedb.org/3", "en-US")
	first, err := source.Searcher()
	if err != nil {
		t.Fatalf("Searcher: %v", err)
	}
	second, _ := source.Searcher()
	if first != second {
		t.Fatal("expected client reuse for unchanged key")
	}
	settings[config.KeyTMDBAPIKey] = "def"
	third, _ := source.Searcher()
	if third == first {
		t.Fatal("expected a new client after key change")
	}
}

type gatedSearcher struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
	calls   int
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSearcher) SearchMovieWithOptions(ctx context.Context, _ string, _ tmdb.SearchOptions) (*tmdb.Response, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
		return &tmdb.Response{Results: []tmdb.Result{{ID: 1, Title: "Heat"}}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedSearcher) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestSearchSharedLookupSurvivesCallerCancel(t *testing.T) {
	inner := newGatedSearcher()
	search := NewSearch(StaticSource{S: inner}, time.Minute, 0)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := search.SearchMovieWithOptions(ctx, "Heat", tmdb.SearchOptions{})
		errs <- err
	}()
	<-inner.entered
	cancel()
	select {
	case err := <-errs:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancelled caller to see context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(inner.release)
	resp, err := search.SearchMovieWithOptions(context.Background(), "Heat", tmdb.SearchOptions{})
	if err != nil || resp == nil || len(resp.Results) != 1 {
		t.Fatalf("unexpected response %+v err=%v", resp, err)
	}
	if got := inner.callCount(); got != 1 {
		t.Fatalf("expected the shared lookup to finish for later callers, got %d upstream calls", got)
	}
}
