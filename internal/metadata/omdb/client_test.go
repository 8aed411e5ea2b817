package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscout/filmscout/internal/config"
	"github.com/filmscout/filmscout/internal/movie"
)

func newTestClient(server *httptest.Server) *Client {
	cfg := config.OMDBConfig{APIKey: "omdb-key", BaseURL: server.URL + "/", Timeout: 5}
	return NewClient(cfg, server.Client(), zerolog.Nop())
}

func TestClient_SearchMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Alien", q.Get("s"))
		assert.Equal(t, "movie", q.Get("type"))
		assert.Equal(t, "json", q.Get("r"))
		assert.Equal(t, "omdb-key", q.Get("apikey"))

		_, _ = w.Write([]byte(`{"Search":[
			{"Title":"Alien","Year":"1979","imdbID":"tt0078748","Type":"movie","Poster":"https://m.media-amazon.com/alien.jpg"},
			{"Title":"Aliens","Year":"1986","imdbID":"tt0090605","Type":"movie","Poster":"N/A"}
		],"totalResults":"2","Response":"True"}`))
	}))
	defer server.Close()

	results, err := newTestClient(server).SearchMovies(context.Background(), "Alien")
	require.NoError(t, err)
	require.Len(t, results, 2)

	alien := results[0]
	assert.Equal(t, "Alien", alien.Title)
	assert.Equal(t, "1979", alien.ReleaseDate)
	assert.Equal(t, "tt0078748", alien.IMDbID)
	assert.Empty(t, alien.TMDBID)
	assert.Equal(t, "No plot available", alien.Overview)
	assert.Nil(t, alien.Rating)
	assert.Equal(t, "movie", alien.Type)
	assert.Equal(t, movie.OriginOMDb, alien.Origin)

	assert.Empty(t, results[1].PosterURL)
}

func TestClient_SearchMovies_NotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}))
	defer server.Close()

	results, err := newTestClient(server).SearchMovies(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_SearchMovies_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Invalid API key!"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).SearchMovies(context.Background(), "x")
	assert.ErrorIs(t, err, ErrAPIError)
}

func TestClient_GetMovieDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt0113277", r.URL.Query().Get("i"))
		assert.Equal(t, "full", r.URL.Query().Get("plot"))

		_, _ = w.Write([]byte(`{"Title":"Heat","Year":"1995","Runtime":"170 min","Genre":"Action, Crime, Drama",
			"Director":"Michael Mann","Actors":"Al Pacino, Robert De Niro, Val Kilmer","Plot":"A group of high-end professional thieves.",
			"Poster":"N/A","imdbRating":"8.3","imdbVotes":"724,118","imdbID":"tt0113277","Type":"movie","Response":"True"}`))
	}))
	defer server.Close()

	r, err := newTestClient(server).GetMovieDetails(context.Background(), "tt0113277")
	require.NoError(t, err)

	assert.Equal(t, "Michael Mann", r.Director)
	assert.Equal(t, []string{"Al Pacino", "Robert De Niro", "Val Kilmer"}, r.Cast)
	assert.Equal(t, []string{"Action", "Crime", "Drama"}, r.Genres)
	assert.Equal(t, 170, r.Runtime)
	assert.Equal(t, 724118, r.VoteCount)
	require.NotNil(t, r.Rating)
	assert.Equal(t, 8.3, *r.Rating)
	assert.Empty(t, r.PosterURL)
}

func TestClient_GetMovieDetails_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).GetMovieDetails(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = newTestClient(server).GetMovieDetails(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)

	unconfigured := NewClient(config.OMDBConfig{}, nil, zerolog.Nop())
	_, err = unconfigured.GetMovieDetails(context.Background(), "tt1")
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
	_, err = unconfigured.SearchMovies(context.Background(), "x")
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestClient_HTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server).SearchMovies(context.Background(), "x")
	if !errors.Is(err, ErrAPIError) {
		t.Errorf("SearchMovies() error = %v, want %v", err, ErrAPIError)
	}
}

func TestParseRating(t *testing.T) {
	assert.Nil(t, parseRating(""))
	assert.Nil(t, parseRating("N/A"))
	assert.Nil(t, parseRating("eight"))
	require.NotNil(t, parseRating("7.5"))
	assert.Equal(t, 7.5, *parseRating("7.5"))
}
