package mock

import (
	"context"

	"github.com/filmscout/filmscout/internal/metadata/tmdb"
	"github.com/filmscout/filmscout/internal/movie"
)

// TMDBClient is a mock implementation of the TMDB client.
type TMDBClient struct{}

// NewTMDBClient creates a new mock TMDB client.
func NewTMDBClient() *TMDBClient {
	return &TMDBClient{}
}

func (c *TMDBClient) Name() string {
	return "tmdb"
}

func (c *TMDBClient) IsConfigured() bool {
	return true
}

func (c *TMDBClient) Test(ctx context.Context) error {
	return nil
}

func (c *TMDBClient) SearchMovies(ctx context.Context, query string) ([]movie.Record, error) {
	entries := search(query)
	results := make([]movie.Record, 0, len(entries))
	for _, e := range entries {
		results = append(results, e.record(movie.OriginTMDB))
	}
	return results, nil
}

func (c *TMDBClient) GetMovieDetails(ctx context.Context, id string) (*movie.Record, error) {
	for _, e := range catalog {
		if e.tmdbID == id {
			r := e.record(movie.OriginTMDB)
			r.IMDbID = e.imdbID
			return &r, nil
		}
	}
	return nil, tmdb.ErrMovieNotFound
}
