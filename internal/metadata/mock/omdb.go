package mock

import (
	"context"

	"github.com/filmscout/filmscout/internal/metadata/omdb"
	"github.com/filmscout/filmscout/internal/movie"
)

// OMDBClient is a mock implementation of the OMDb client.
type OMDBClient struct{}

// NewOMDBClient creates a new mock OMDb client.
func NewOMDBClient() *OMDBClient {
	return &OMDBClient{}
}

func (c *OMDBClient) Name() string {
	return "omdb"
}

func (c *OMDBClient) IsConfigured() bool {
	return true
}

func (c *OMDBClient) Test(ctx context.Context) error {
	return nil
}

// SearchMovies returns IMDb-keyed records without posters, so merged
// results keep TMDB artwork.
func (c *OMDBClient) SearchMovies(ctx context.Context, query string) ([]movie.Record, error) {
	entries := search(query)
	results := make([]movie.Record, 0, len(entries))
	for _, e := range entries {
		results = append(results, e.record(movie.OriginOMDb))
	}
	return results, nil
}

func (c *OMDBClient) GetMovieDetails(ctx context.Context, imdbID string) (*movie.Record, error) {
	for _, e := range catalog {
		if e.imdbID == imdbID {
			r := e.record(movie.OriginOMDb)
			return &r, nil
		}
	}
	return nil, omdb.ErrNotFound
}
