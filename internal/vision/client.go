// Package vision detects text in images with the Google Cloud Vision API.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/config"
	"github.com/filmscout/filmscout/internal/metrics"
	"github.com/filmscout/filmscout/internal/movie"
)

const (
	MethodGoogleVision = "google_vision"
	MethodFallback     = "fallback"

	defaultConfidence  = 0.5
	fallbackConfidence = 0.3
	minTextLength      = 3
)

var (
	ErrAPIKeyMissing = errors.New("Google Vision API key is not configured")
	ErrAPIError      = errors.New("Google Vision API error")
)

// Detection is the text found in one image.
type Detection struct {
	Texts      []movie.TextDetection
	Confidence float64
	Method     string
}

// Client calls images:annotate.
type Client struct {
	httpClient *http.Client
	config     config.VisionConfig
	logger     zerolog.Logger
}

// NewClient creates a Vision client sharing httpClient.
func NewClient(cfg config.VisionConfig, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger.With().Str("component", "vision").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "vision"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// DetectText returns the text found in image. It never fails: without a key,
// or when the API call fails, it returns an empty fallback detection.
func (c *Client) DetectText(ctx context.Context, image []byte) Detection {
	if !c.IsConfigured() {
		return fallback()
	}

	resp, err := c.annotate(ctx, image)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Text detection failed, using fallback")
		return fallback()
	}
	return process(resp)
}

// Test checks that the API accepts the configured key.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}
	_, err := c.annotate(ctx, nil)
	return err
}

func fallback() Detection {
	return Detection{
		Texts:      []movie.TextDetection{},
		Confidence: fallbackConfidence,
		Method:     MethodFallback,
	}
}

func (c *Client) annotate(ctx context.Context, image []byte) (*annotateResponse, error) {
	maxResults := c.config.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	body := annotateRequest{Requests: []imageRequest{{
		Image:    imageContent{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []feature{{Type: "TEXT_DETECTION", MaxResults: maxResults}},
	}}}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	params := url.Values{}
	params.Set("key", c.config.APIKey)
	endpoint := fmt.Sprintf("%s/images:annotate?%s", strings.TrimRight(c.config.BaseURL, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProvider(c.Name(), start, err)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		metrics.ObserveProvider(c.Name(), start, err)
		return nil, err
	}

	var out annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.ObserveProvider(c.Name(), start, err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	metrics.ObserveProvider(c.Name(), start, nil)
	return &out, nil
}

func process(resp *annotateResponse) Detection {
	if len(resp.Responses) == 0 {
		return Detection{Texts: []movie.TextDetection{}, Method: MethodGoogleVision}
	}

	texts := make([]movie.TextDetection, 0, len(resp.Responses[0].TextAnnotations))
	best := 0.0
	for _, a := range resp.Responses[0].TextAnnotations {
		text := strings.TrimSpace(a.Description)
		if utf8.RuneCountInString(text) < minTextLength {
			continue
		}
		conf := defaultConfidence
		if a.Confidence != nil {
			conf = *a.Confidence
		}
		texts = append(texts, movie.TextDetection{Text: text, Confidence: conf})
		best = max(best, conf)
	}

	return Detection{Texts: texts, Confidence: best, Method: MethodGoogleVision}
}
