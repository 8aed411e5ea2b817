// Package youtube searches the YouTube Data API for movie trailers.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
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

const watchURL = "https://www.youtube.com/watch?v="

var (
	ErrAPIKeyMissing = errors.New("YouTube API key not configured")
	ErrVideoNotFound = errors.New("video not found")
	ErrAPIError      = errors.New("YouTube API error")
	ErrQuotaExceeded = errors.New("YouTube API quota exceeded")
)

// Client is a YouTube Data API v3 client.
type Client struct {
	httpClient *http.Client
	config     config.YouTubeConfig
	logger     zerolog.Logger
}

// NewClient creates a YouTube client sharing httpClient.
func NewClient(cfg config.YouTubeConfig, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger.With().Str("component", "youtube").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "youtube"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test runs a one-result search to verify the key.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}
	params := c.params()
	params.Set("part", "snippet")
	params.Set("q", "trailer")
	params.Set("type", "video")
	params.Set("maxResults", "1")

	var resp searchResponse
	return c.doRequest(ctx, "/search", params, &resp)
}

// Search returns the videos matching query in relevance order.
// Items without a video id are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]movie.Video, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	maxResults := c.config.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	params := c.params()
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("order", "relevance")
	params.Set("videoDuration", "any")
	params.Set("videoDefinition", "any")

	var resp searchResponse
	if err := c.doRequest(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]movie.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, movie.Video{
			ID:          item.ID.VideoID,
			Title:       html.UnescapeString(item.Snippet.Title),
			Description: html.UnescapeString(item.Snippet.Description),
			Channel:     html.UnescapeString(item.Snippet.ChannelTitle),
			PublishedAt: item.Snippet.PublishedAt,
			Thumbnail:   item.Snippet.Thumbnails["medium"].URL,
			URL:         WatchURL(item.ID.VideoID),
		})
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(videos)).
		Int("total", resp.PageInfo.TotalResults).
		Msg("Video search completed")

	return videos, nil
}

// GetVideoDetails returns snippet, statistics and duration for one video.
func (c *Client) GetVideoDetails(ctx context.Context, videoID string) (*VideoDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params()
	params.Set("part", "snippet,statistics,contentDetails")
	params.Set("id", videoID)

	var resp videosResponse
	if err := c.doRequest(ctx, "/videos", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := resp.Items[0]
	minutes, _ := textutil.DurationMinutes(item.ContentDetails.Duration)

	return &VideoDetails{
		ID:              item.ID,
		Title:           html.UnescapeString(item.Snippet.Title),
		Description:     html.UnescapeString(item.Snippet.Description),
		Channel:         html.UnescapeString(item.Snippet.ChannelTitle),
		PublishedAt:     item.Snippet.PublishedAt,
		Duration:        item.ContentDetails.Duration,
		DurationMinutes: minutes,
		ViewCount:       parseCount(item.Statistics.ViewCount),
		LikeCount:       parseCount(item.Statistics.LikeCount),
		CommentCount:    parseCount(item.Statistics.CommentCount),
		Thumbnail:       item.Snippet.Thumbnails["high"].URL,
	}, nil
}

// WatchURL returns the public URL of a video.
func WatchURL(videoID string) string {
	return watchURL + videoID
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("key", c.config.APIKey)
	return params
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result any) error {
	reqURL := fmt.Sprintf("%s%s?%s", strings.TrimRight(c.config.BaseURL, "/"), path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProvider(c.Name(), start, err)
		c.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.Error.Message).
				Msg("YouTube API error")
		}

		switch resp.StatusCode {
		case http.StatusForbidden:
			err = ErrQuotaExceeded
		case http.StatusNotFound:
			err = ErrVideoNotFound
		default:
			err = fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
		metrics.ObserveProvider(c.Name(), start, err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		metrics.ObserveProvider(c.Name(), start, err)
		return fmt.Errorf("failed to decode response: %w", err)
	}
	metrics.ObserveProvider(c.Name(), start, nil)
	return nil
}

func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
