package omdb

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
	"github.com/filmscout/filmscout/internal/textutil"
)

var (
	ErrAPIKeyMissing = errors.New("OMDB API key not configured")
	ErrNotFound      = errors.New("not found on OMDb")
	ErrAPIError      = errors.New("OMDb API error")
)

const (
	defaultTitle = "Unknown Title"
	defaultPlot  = "No plot available"

	msgMovieNotFound = "Movie not found!"
	msgBadID         = "Incorrect IMDb ID."
)

// Client is an OMDb API client.
type Client struct {
	httpClient *http.Client
	config     config.OMDBConfig
	logger     zerolog.Logger
}

// NewClient creates an OMDb client. A nil httpClient gets a private client
// using the configured timeout.
func NewClient(cfg config.OMDBConfig, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		}
	}
	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger.With().Str("component", "omdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "omdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the OMDb API.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	// Try to fetch data for a known movie
	_, err := c.GetMovieDetails(ctx, "tt0133093") // The Matrix
	return err
}

// SearchMovies runs a title search restricted to movies. A "Movie not found!"
// reply is an empty result, not an error.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]movie.Record, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params()
	params.Set("s", query)
	params.Set("type", "movie")

	var resp SearchResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, err
	}

	if resp.Response == "False" {
		if resp.Error == msgMovieNotFound {
			return []movie.Record{}, nil
		}
		c.logger.Warn().Str("error", resp.Error).Str("query", query).Msg("OMDb API returned error")
		return nil, fmt.Errorf("%w: %s", ErrAPIError, resp.Error)
	}

	results := make([]movie.Record, 0, len(resp.Search))
	for _, item := range resp.Search {
		results = append(results, toRecord(item))
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// GetMovieDetails fetches the full record for an IMDb id.
func (c *Client) GetMovieDetails(ctx context.Context, imdbID string) (*movie.Record, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	if imdbID == "" {
		return nil, ErrNotFound
	}

	params := c.params()
	params.Set("i", imdbID)
	params.Set("plot", "full")

	var omdbResp Response
	if err := c.doRequest(ctx, params, &omdbResp); err != nil {
		return nil, err
	}

	if omdbResp.Response == "False" {
		if omdbResp.Error == msgMovieNotFound || omdbResp.Error == msgBadID {
			return nil, ErrNotFound
		}
		c.logger.Warn().Str("error", omdbResp.Error).Str("imdbId", imdbID).Msg("OMDb API returned error")
		return nil, fmt.Errorf("%w: %s", ErrAPIError, omdbResp.Error)
	}

	r := toRecord(omdbResp)
	return &r, nil
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("apikey", c.config.APIKey)
	params.Set("r", "json")
	return params
}

func (c *Client) doRequest(ctx context.Context, params url.Values, result any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider(c.Name(), start, err) }()

	reqURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// toRecord converts an OMDb title (search item or full record). Only the
// IMDb id is set; N/A values become empty.
func toRecord(resp Response) movie.Record {
	r := movie.Record{
		Title:         orDefault(resp.Title, defaultTitle),
		OriginalTitle: resp.Title,
		ReleaseDate:   resp.Year,
		Overview:      orDefault(available(resp.Plot), defaultPlot),
		Rating:        parseRating(resp.ImdbRating),
		IMDbID:        resp.ImdbID,
		PosterURL:     available(resp.Poster),
		Director:      available(resp.Director),
		Type:          resp.Type,
		Origin:        movie.OriginOMDb,
	}

	if actors := available(resp.Actors); actors != "" {
		r.Cast = splitList(actors)
	}
	if genres := available(resp.Genre); genres != "" {
		r.Genres = splitList(genres)
	}
	if runtime, ok := textutil.DurationMinutes(available(resp.Runtime)); ok {
		r.Runtime = runtime
	}
	if votes := available(resp.ImdbVotes); votes != "" {
		r.VoteCount, _ = strconv.Atoi(strings.ReplaceAll(votes, ",", ""))
	}
	return r
}

func parseRating(s string) *float64 {
	if s == "" || s == movie.NotAvailable {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func available(s string) string {
	if s == movie.NotAvailable {
		return ""
	}
	return s
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
