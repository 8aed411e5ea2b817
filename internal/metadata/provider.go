package metadata

import (
	"context"

	"github.com/filmscout/filmscout/internal/movie"
)

// Provider is a movie metadata source.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// IsConfigured returns true if the provider has required configuration.
	IsConfigured() bool

	// Test checks connectivity with a cheap request.
	Test(ctx context.Context) error

	// SearchMovies searches for movies by title.
	SearchMovies(ctx context.Context, query string) ([]movie.Record, error)

	// GetMovieDetails fetches one movie by the provider's own id.
	GetMovieDetails(ctx context.Context, id string) (*movie.Record, error)
}

// ProviderStatus reports whether a provider can be used.
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}
