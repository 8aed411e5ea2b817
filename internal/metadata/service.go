package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/filmscout/filmscout/internal/config"
	"github.com/filmscout/filmscout/internal/merge"
	"github.com/filmscout/filmscout/internal/metadata/omdb"
	"github.com/filmscout/filmscout/internal/metadata/tmdb"
	"github.com/filmscout/filmscout/internal/metrics"
	"github.com/filmscout/filmscout/internal/movie"
	"github.com/filmscout/filmscout/internal/textutil"
)

var (
	ErrNoProvidersConfigured = errors.New("no metadata providers configured")
	ErrNotFound              = errors.New("metadata not found")
	ErrEmptyQuery            = errors.New("search query is empty")
	ErrUnknownSource         = errors.New("unknown metadata source")
)

// Service orchestrates movie lookups across TMDB and OMDb.
type Service struct {
	tmdb          Provider
	omdb          Provider
	store         ResultStore
	logger        zerolog.Logger
	healthService HealthService
}

// NewService creates a metadata service with real API clients sharing httpClient.
func NewService(cfg config.MetadataConfig, httpClient *http.Client, store ResultStore, logger zerolog.Logger) *Service {
	return NewServiceWithClients(
		tmdb.NewClient(cfg.TMDB, httpClient, logger),
		omdb.NewClient(cfg.OMDB, httpClient, logger),
		store,
		logger,
	)
}

// NewServiceWithClients creates a metadata service with custom clients (for testing/mocking).
// A nil store gets a default in-memory cache.
func NewServiceWithClients(tmdbClient, omdbClient Provider, store ResultStore, logger zerolog.Logger) *Service {
	if store == nil {
		store = NewMemoryStore(NewCache(DefaultCacheConfig()))
	}
	return &Service{
		tmdb:   tmdbClient,
		omdb:   omdbClient,
		store:  store,
		logger: logger.With().Str("component", "metadata").Logger(),
	}
}

// SetHealthService sets the central health service for registration tracking.
func (s *Service) SetHealthService(hs HealthService) {
	s.healthService = hs
}

// RegisterMetadataProviders registers configured providers with the health service.
func (s *Service) RegisterMetadataProviders() {
	if s.healthService == nil {
		return
	}
	for _, p := range s.providers() {
		if !configured(p) {
			continue
		}
		s.healthService.RegisterItemStr(healthCategory, p.Name(), displayName(p.Name()))
		s.logger.Debug().Str("provider", p.Name()).Msg("Registered provider with health service")
	}
}

// HasProvider reports whether at least one provider is configured.
func (s *Service) HasProvider() bool {
	return configured(s.tmdb) || configured(s.omdb)
}

// Status lists every provider with its configuration state.
func (s *Service) Status() []ProviderStatus {
	out := make([]ProviderStatus, 0, 2)
	for _, p := range s.providers() {
		if p == nil {
			continue
		}
		out = append(out, ProviderStatus{Name: p.Name(), Configured: p.IsConfigured()})
	}
	return out
}

// SearchMovies queries TMDB and OMDb concurrently and merges the results,
// TMDB first. One provider failing only drops its half of the answer.
// Complete answers are cached under the case-folded query.
func (s *Service) SearchMovies(ctx context.Context, query string) ([]movie.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if !s.HasProvider() {
		return nil, ErrNoProvidersConfigured
	}

	cacheKey := "movie:search:" + textutil.FoldKey(query)
	if results, ok := s.cacheGet(ctx, cacheKey); ok {
		s.logger.Debug().Str("query", query).Msg("Movie search cache hit")
		return results, nil
	}

	tmdbUsed, omdbUsed := configured(s.tmdb), configured(s.omdb)

	var (
		g                errgroup.Group
		tmdbRes, omdbRes []movie.Record
		tmdbErr, omdbErr error
	)
	if tmdbUsed {
		g.Go(func() error {
			tmdbRes, tmdbErr = s.tmdb.SearchMovies(ctx, query)
			return nil
		})
	}
	if omdbUsed {
		g.Go(func() error {
			omdbRes, omdbErr = s.omdb.SearchMovies(ctx, query)
			return nil
		})
	}
	_ = g.Wait()

	s.reportSearch(s.tmdb, tmdbErr, query)
	s.reportSearch(s.omdb, omdbErr, query)

	tmdbFailed := tmdbUsed && tmdbErr != nil
	omdbFailed := omdbUsed && omdbErr != nil
	if (tmdbFailed || !tmdbUsed) && (omdbFailed || !omdbUsed) {
		return nil, fmt.Errorf("movie search failed: %w", errors.Join(tmdbErr, omdbErr))
	}

	results := merge.MergeMovieRecords(tmdbRes, omdbRes)

	if !tmdbFailed && !omdbFailed {
		if err := s.store.Set(ctx, cacheKey, results); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to cache search results")
		}
	}

	s.logger.Info().
		Str("query", query).
		Int("tmdb", len(tmdbRes)).
		Int("omdb", len(omdbRes)).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// GetMovieDetails fetches one movie from the named source. TMDB takes its
// numeric id, OMDb an IMDb id.
func (s *Service) GetMovieDetails(ctx context.Context, source movie.Origin, id string) (*movie.Record, error) {
	var p Provider
	switch source {
	case movie.OriginTMDB:
		p = s.tmdb
	case movie.OriginOMDb:
		p = s.omdb
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	if !configured(p) {
		return nil, ErrNoProvidersConfigured
	}

	cacheKey := fmt.Sprintf("movie:details:%s:%s", source, id)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok && len(cached) == 1 {
		return &cached[0], nil
	}

	record, err := p.GetMovieDetails(ctx, id)
	if err != nil {
		if errors.Is(err, tmdb.ErrMovieNotFound) || errors.Is(err, omdb.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error().Err(err).Str("source", string(source)).Str("id", id).Msg("Movie details lookup failed")
		return nil, fmt.Errorf("movie details failed: %w", err)
	}

	if err := s.store.Set(ctx, cacheKey, []movie.Record{*record}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache movie details")
	}
	return record, nil
}

// ClearCache drops every cached lookup.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// PurgeCache removes expired entries and updates the cache size gauge.
func (s *Service) PurgeCache(ctx context.Context) (int, error) {
	removed, err := s.store.Purge(ctx)
	if err != nil {
		return 0, err
	}
	if n := s.store.Len(); n >= 0 {
		metrics.CacheEntries.Set(float64(n))
	}
	return removed, nil
}

// TestProviders runs Test on each configured provider and records the
// outcome with the health service. The returned map holds failures only.
func (s *Service) TestProviders(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, p := range s.providers() {
		if !configured(p) {
			continue
		}
		err := p.Test(ctx)
		if err != nil {
			failures[p.Name()] = err
		}
		s.reportHealth(p.Name(), err)
	}
	return failures
}

// TestProvider tests one provider by name and records the outcome.
func (s *Service) TestProvider(ctx context.Context, name string) error {
	for _, p := range s.providers() {
		if p == nil || p.Name() != name {
			continue
		}
		if !p.IsConfigured() {
			return fmt.Errorf("%s: %w", name, ErrNoProvidersConfigured)
		}
		err := p.Test(ctx)
		s.reportHealth(name, err)
		return err
	}
	return fmt.Errorf("%w: %s", ErrUnknownSource, name)
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]movie.Record, bool) {
	results, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache lookup failed")
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return results, true
}

func (s *Service) reportSearch(p Provider, err error, query string) {
	if !configured(p) {
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("provider", p.Name()).Str("query", query).Msg("Movie search failed")
	}
	s.reportHealth(p.Name(), err)
}

func (s *Service) reportHealth(name string, err error) {
	if s.healthService == nil {
		return
	}
	if err != nil {
		s.healthService.SetErrorStr(healthCategory, name, err.Error())
		return
	}
	s.healthService.ClearStatusStr(healthCategory, name)
}

func (s *Service) providers() []Provider {
	return []Provider{s.tmdb, s.omdb}
}

func configured(p Provider) bool {
	return p != nil && p.IsConfigured()
}

func displayName(name string) string {
	switch name {
	case "tmdb":
		return "TMDB"
	case "omdb":
		return "OMDb"
	default:
		return name
	}
}
