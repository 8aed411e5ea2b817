package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/config"
	"github.com/filmscout/filmscout/internal/metrics"
	"github.com/filmscout/filmscout/internal/movie"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key not configured")
	ErrMovieNotFound = errors.New("movie not found")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

const (
	posterSize       = "w500"
	defaultTitle     = "Unknown Title"
	defaultOverview  = "No overview available"
	maxCastInDetails = 10
)

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a TMDB client. A nil httpClient gets a private client
// using the configured timeout.
func NewClient(cfg config.TMDBConfig, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		}
	}
	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}
	return c.doRequest(ctx, "/configuration", c.params(), &result)
}

// SearchMovies searches for movies by title. Results keep TMDB's order.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]movie.Record, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params()
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, "/search/movie", params, &response); err != nil {
		return nil, err
	}

	results := make([]movie.Record, 0, len(response.Results))
	for _, m := range response.Results {
		results = append(results, c.toRecord(m))
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Int("total", response.TotalResults).
		Msg("Movie search completed")

	return results, nil
}

// GetMovieDetails gets detailed movie info, including director and cast,
// by TMDB ID.
func (c *Client) GetMovieDetails(ctx context.Context, id string) (*movie.Record, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if _, err := strconv.Atoi(id); err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrMovieNotFound, id)
	}

	params := c.params()
	params.Set("append_to_response", "credits")

	var details MovieDetails
	if err := c.doRequest(ctx, "/movie/"+id, params, &details); err != nil {
		return nil, err
	}

	result := c.detailsToRecord(details)

	c.logger.Debug().
		Str("id", id).
		Str("title", result.Title).
		Msg("Got movie details")

	return &result, nil
}

// GetImageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w342", "w500", "w780", "original"
func (c *Client) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", strings.TrimRight(c.config.ImageBaseURL, "/"), size, path)
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	if c.config.Language != "" {
		params.Set("language", c.config.Language)
	}
	return params
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider(c.Name(), start, err) }()

	reqURL := fmt.Sprintf("%s%s?%s", strings.TrimRight(c.config.BaseURL, "/"), path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrMovieNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// toRecord converts a search hit. Only the TMDB id is set; the IMDb id comes
// from a merge or a details lookup.
func (c *Client) toRecord(m MovieResult) movie.Record {
	rating := m.VoteAverage
	r := movie.Record{
		Title:         orDefault(m.Title, defaultTitle),
		OriginalTitle: m.OriginalTitle,
		ReleaseDate:   m.ReleaseDate,
		Overview:      orDefault(m.Overview, defaultOverview),
		Rating:        &rating,
		VoteCount:     m.VoteCount,
		Popularity:    m.Popularity,
		TMDBID:        strconv.Itoa(m.ID),
		Origin:        movie.OriginTMDB,
	}
	if m.PosterPath != nil {
		r.PosterURL = c.GetImageURL(*m.PosterPath, posterSize)
	}
	return r
}

func (c *Client) detailsToRecord(d MovieDetails) movie.Record {
	rating := d.VoteAverage
	r := movie.Record{
		Title:         orDefault(d.Title, defaultTitle),
		OriginalTitle: d.OriginalTitle,
		ReleaseDate:   d.ReleaseDate,
		Overview:      orDefault(d.Overview, defaultOverview),
		Rating:        &rating,
		VoteCount:     d.VoteCount,
		Popularity:    d.Popularity,
		TMDBID:        strconv.Itoa(d.ID),
		IMDbID:        d.ImdbID,
		Runtime:       d.Runtime,
		Origin:        movie.OriginTMDB,
	}
	if d.PosterPath != nil {
		r.PosterURL = c.GetImageURL(*d.PosterPath, posterSize)
	}
	for _, g := range d.Genres {
		r.Genres = append(r.Genres, g.Name)
	}

	if d.Credits != nil {
		for _, crew := range d.Credits.Crew {
			if crew.Job == "Director" {
				r.Director = crew.Name
				break
			}
		}
		for _, cast := range d.Credits.Cast {
			if len(r.Cast) == maxCastInDetails {
				break
			}
			r.Cast = append(r.Cast, cast.Name)
		}
	}
	return r
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
