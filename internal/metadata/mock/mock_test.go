package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/filmscout/filmscout/internal/metadata/omdb"
	"github.com/filmscout/filmscout/internal/metadata/tmdb"
	"github.com/filmscout/filmscout/internal/movie"
)

func TestTMDBClient_SearchMovies(t *testing.T) {
	results, err := NewTMDBClient().SearchMovies(context.Background(), "inception")
	if err != nil {
		t.Fatalf("SearchMovies() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].TMDBID != "27205" || results[0].Origin != movie.OriginTMDB {
		t.Errorf("unexpected record %+v", results[0])
	}
	if results[0].IMDbID != "" {
		t.Errorf("search results should not carry IMDb ids, got %q", results[0].IMDbID)
	}
}

func TestTMDBClient_SearchMovies_FallsBackToCatalog(t *testing.T) {
	results, _ := NewTMDBClient().SearchMovies(context.Background(), "no such film")
	if len(results) != len(catalog) {
		t.Errorf("expected full catalog, got %d", len(results))
	}
}

func TestTMDBClient_GetMovieDetails(t *testing.T) {
	r, err := NewTMDBClient().GetMovieDetails(context.Background(), "603")
	if err != nil {
		t.Fatalf("GetMovieDetails() error = %v", err)
	}
	if r.Title != "The Matrix" || r.IMDbID != "tt0133093" {
		t.Errorf("unexpected record %+v", r)
	}

	_, err = NewTMDBClient().GetMovieDetails(context.Background(), "1")
	if !errors.Is(err, tmdb.ErrMovieNotFound) {
		t.Errorf("error = %v, want %v", err, tmdb.ErrMovieNotFound)
	}
}

func TestOMDBClient(t *testing.T) {
	results, err := NewOMDBClient().SearchMovies(context.Background(), "Matrix")
	if err != nil {
		t.Fatalf("SearchMovies() error = %v", err)
	}
	if len(results) != 1 || results[0].ReleaseDate != "1999" || results[0].PosterURL != "" {
		t.Errorf("unexpected results %+v", results)
	}

	_, err = NewOMDBClient().GetMovieDetails(context.Background(), "tt0000000")
	if !errors.Is(err, omdb.ErrNotFound) {
		t.Errorf("error = %v, want %v", err, omdb.ErrNotFound)
	}
}
