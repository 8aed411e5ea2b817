package youtube

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/movie"
	"github.com/filmscout/filmscout/internal/scoring"
)

// Searcher runs one video search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]movie.Video, error)
	IsConfigured() bool
}

// Result is the outcome of a trailer lookup. Callers treat a non-nil Err as
// "no trailer found" and show nothing.
type Result struct {
	Trailers []movie.TrailerCandidate
	Query    string
	Err      error
}

// OK reports whether the lookup succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Finder tries trailer query variants until one yields ranked trailers.
type Finder struct {
	searcher Searcher
	scorer   *scoring.Scorer
	logger   zerolog.Logger
}

// NewFinder creates a Finder.
func NewFinder(searcher Searcher, scorer *scoring.Scorer, logger zerolog.Logger) *Finder {
	if scorer == nil {
		scorer = scoring.NewDefaultScorer()
	}
	return &Finder{
		searcher: searcher,
		scorer:   scorer,
		logger:   logger.With().Str("component", "trailers").Logger(),
	}
}

// FindTrailers searches each variant from scoring.TrailerQueries in order and
// stops at the first one with a surviving candidate. A failed variant is
// skipped. Err is set when the searcher is not configured, the context ends,
// or every variant failed.
func (f *Finder) FindTrailers(ctx context.Context, movieTitle, year string) Result {
	if !f.searcher.IsConfigured() {
		return Result{Err: ErrAPIKeyMissing}
	}

	var lastErr error
	failures := 0
	queries := scoring.TrailerQueries(movieTitle, year)

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}
		}

		videos, err := f.searcher.Search(ctx, q)
		if err != nil {
			f.logger.Warn().Err(err).Str("query", q).Msg("Trailer search failed")
			lastErr = err
			failures++
			continue
		}

		ranked := f.scorer.ScoreAndRankTrailers(videos, movieTitle, year)
		if len(ranked) > 0 {
			top := ranked[0]
			f.logger.Debug().
				Str("query", q).
				Int("trailers", len(ranked)).
				Str("topVideo", top.ID).
				Float64("topScore", top.RelevanceScore).
				Interface("breakdown", f.scorer.TrailerBreakdown(top.Video, movieTitle, year)).
				Msg("Found trailers")
			return Result{Trailers: ranked, Query: q}
		}
	}

	if failures == len(queries) {
		return Result{Err: lastErr}
	}
	return Result{Trailers: []movie.TrailerCandidate{}}
}
