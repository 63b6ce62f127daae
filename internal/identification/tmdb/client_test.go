package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"filearr/internal/identification/tmdb"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestSearchMovieWithYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("api_key") != "key" {
			t.Errorf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if query.Get("primary_release_year") != "2011" {
			t.Errorf("expected year filter, got %q", r.URL.RawQuery)
		}
		if query.Get("query") != "The Raid" {
			t.Errorf("unexpected query %q", query.Get("query"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":94329,"title":"The Raid","release_date":"2011-09-08","original_language":"id","poster_path":"/raid.jpg"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchMovieWithOptions(context.Background(), "The Raid", tmdb.SearchOptions{Year: 2011})
	if err != nil {
		t.Fatalf("SearchMovieWithOptions returned error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	result := resp.Results[0]
	if result.Year() != 2011 || result.OriginalLanguage != "id" || result.PosterPath != "/raid.jpg" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestSearchMovieOmitsYearWhenZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("primary_release_year") {
			t.Errorf("expected no year filter, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "Baby Girl"); err != nil {
		t.Fatalf("SearchMovie returned error: %v", err)
	}
}

func TestSearchMovieHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status_code":500}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "fail"); err == nil {
		t.Fatal("expected error when TMDB returns non-200")
	}
}

func TestSearchMovieEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestValidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"images":{}}`))
	}))
	t.Cleanup(server.Close)

	good, _ := tmdb.New("good", server.URL, "")
	if err := good.Validate(context.Background()); err != nil {
		t.Fatalf("expected valid key, got %v", err)
	}
	bad, _ := tmdb.New("bad", server.URL, "")
	if err := bad.Validate(context.Background()); !errors.Is(err, tmdb.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestResultYear(t *testing.T) {
	if (tmdb.Result{ReleaseDate: ""}).Year() != 0 {
		t.Fatal("expected 0 for missing date")
	}
	if (tmdb.Result{ReleaseDate: "20x1-01-01"}).Year() != 0 {
		t.Fatal("expected 0 for malformed date")
	}
}

func TestValidateKeyMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	if ok, msg := tmdb.ValidateKey(context.Background(), "good", server.URL); !ok {
		t.Fatalf("expected valid key, got %q", msg)
	}
	if ok, msg := tmdb.ValidateKey(context.Background(), "bad", server.URL); ok || msg != "Invalid API key" {
		t.Fatalf("unexpected result ok=%v msg=%q", ok, msg)
	}
	if ok, _ := tmdb.ValidateKey(context.Background(), "", server.URL); ok {
		t.Fatal("expected empty key to fail")
	}
}
