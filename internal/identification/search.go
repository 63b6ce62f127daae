package identification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"filearr/internal/config"
	"filearr/internal/identification/tmdb"
)

// ErrNoAPIKey reports that no TMDB credential is configured.
var ErrNoAPIKey = errors.New("tmdb api key not configured")

// SearcherSource yields the searcher to use for the next request. Sources
// that read credentials from settings may return a different client after the
// key changes.
type SearcherSource interface {
	Searcher() (tmdb.Searcher, error)
}

// StaticSource always returns the same searcher.
type StaticSource struct {
	S tmdb.Searcher
}

// Searcher implements SearcherSource.
func (s StaticSource) Searcher() (tmdb.Searcher, error) {
	if s.S == nil {
		return nil, ErrNoAPIKey
	}
	return s.S, nil
}

// ProviderClients builds TMDB clients from the api key currently held by a
// settings provider. The client is rebuilt only when the key changes.
type ProviderClients struct {
	provider config.Provider
	baseURL  string
	language string
	opts     []tmdb.Option

	mu     sync.Mutex
	key    string
	client *tmdb.Client
}

// NewProviderClients constructs a ProviderClients source.
func NewProviderClients(provider config.Provider, baseURL, language string, opts ...tmdb.Option) *ProviderClients {
	return &ProviderClients{provider: provider, baseURL: baseURL, language: language, opts: opts}
}

// Searcher implements SearcherSource.
func (p *ProviderClients) Searcher() (tmdb.Searcher, error) {
	key := strings.TrimSpace(p.provider.Get(config.KeyTMDBAPIKey))
	if key == "" {
		return nil, ErrNoAPIKey
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil && p.key == key {
		return p.client, nil
	}
	client, err := tmdb.New(key, p.baseURL, p.language, p.opts...)
	if err != nil {
		return nil, fmt.Errorf("build tmdb client: %w", err)
	}
	p.key, p.client = key, client
	return client, nil
}

type cacheEntry struct {
	resp    *tmdb.Response
	expires time.Time
}

// Search is a tmdb.Searcher that caches responses, rate limits outbound
// requests, and collapses concurrent identical lookups.
type Search struct {
	source  SearcherSource
	ttl     time.Duration
	limiter *rate.Limiter
	group   singleflight.Group
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

var _ tmdb.Searcher = (*Search)(nil)

// NewSearch wraps source. A ttl of zero disables caching; a non-positive
// perSecond disables rate limiting.
func NewSearch(source SearcherSource, ttl time.Duration, perSecond float64) *Search {
	s := &Search{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return s
}

// SearchMovieWithOptions implements tmdb.Searcher.
func (s *Search) SearchMovieWithOptions(ctx context.Context, query string, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	key := strings.ToLower(strings.TrimSpace(query)) + "|" + opts.CacheKey()
	if resp, ok := s.cached(key); ok {
		return resp, nil
	}
	// The shared lookup keeps the caller's deadline but not its cancellation,
	// so one caller giving up does not fail the others waiting on the key.
	ch := s.group.DoChan(key, func() (any, error) {
		callCtx := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithDeadline(callCtx, deadline)
			defer cancel()
		}
		if resp, ok := s.cached(key); ok {
			return resp, nil
		}
		searcher, err := s.source.Searcher()
		if err != nil {
			return nil, err
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(callCtx); err != nil {
				return nil, fmt.Errorf("tmdb rate limit wait: %w", err)
			}
		}
		resp, err := searcher.SearchMovieWithOptions(callCtx, query, opts)
		if err != nil {
			return nil, err
		}
		s.store(key, resp)
		return resp, nil
	})
	var value any
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		value = res.Val
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	resp, _ := value.(*tmdb.Response)
	return resp, nil
}

// Purge drops every cached response.
func (s *Search) Purge() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

func (s *Search) cached(key string) (*tmdb.Response, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if s.now().After(entry.expires) {
		delete(s.cache, key)
		return nil, false
	}
	return entry.resp, true
}

func (s *Search) store(key string, resp *tmdb.Response) {
	if s.ttl <= 0 || resp == nil {
		return
	}
	s.mu.Lock()
	s.cache[key] = cacheEntry{resp: resp, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
}
