package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscout/filmscout/internal/testutil"
)

type dispatch struct {
	restored   bool
	source     string
	healthType string
	message    string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []dispatch
}

func (r *recordingNotifier) DispatchHealthIssue(_ context.Context, source, healthType, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, dispatch{source: source, healthType: healthType, message: message})
}

func (r *recordingNotifier) DispatchHealthRestored(_ context.Context, source, healthType, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, dispatch{restored: true, source: source, healthType: healthType, message: message})
}

func TestService_StatusTransitionsNotify(t *testing.T) {
	svc := NewService(testutil.NopLogger())
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)

	svc.RegisterItemStr("metadata", "tmdb", "TMDB")
	svc.SetErrorStr("metadata", "tmdb", "status 401")
	svc.SetErrorStr("metadata", "tmdb", "status 401")
	svc.ClearStatusStr("metadata", "tmdb")

	require.Len(t, notifier.events, 2)
	assert.Equal(t, dispatch{source: "metadata: TMDB", healthType: "error", message: "status 401"}, notifier.events[0])
	assert.Equal(t, dispatch{restored: true, source: "metadata: TMDB", healthType: "error", message: "Issue resolved"}, notifier.events[1])
	assert.True(t, svc.IsHealthy(CategoryMetadata, "tmdb"))
}

func TestService_BinaryCategoryWarningIsError(t *testing.T) {
	svc := NewService(testutil.NopLogger())
	svc.RegisterItem(CategoryCache, "redis", "Redis")

	svc.SetWarning(CategoryCache, "redis", "slow")
	item := svc.GetItem(CategoryCache, "redis")
	require.NotNil(t, item)
	assert.Equal(t, StatusError, item.Status)

	svc.RegisterItem(CategoryVision, "google_vision", "Google Vision")
	svc.SetWarning(CategoryVision, "google_vision", "quota low")
	assert.Equal(t, StatusWarning, svc.GetItem(CategoryVision, "google_vision").Status)
}

func TestService_UnknownItemsAreIgnored(t *testing.T) {
	svc := NewService(testutil.NopLogger())

	svc.SetError(CategoryMetadata, "missing", "boom")
	svc.RegisterItem("bogus", "x", "X")

	assert.Nil(t, svc.GetItem(CategoryMetadata, "missing"))
	assert.False(t, svc.GetSummary().HasIssues)
}

func TestService_CheckAll(t *testing.T) {
	svc := NewService(testutil.NopLogger())
	svc.RegisterCheck(CategoryTrailers, "youtube", "YouTube", func(context.Context) error {
		return errors.New("quota exceeded")
	})
	svc.RegisterCheck(CategoryVision, "google_vision", "Google Vision", func(context.Context) error {
		return nil
	})
	svc.RegisterItem(CategoryMetadata, "omdb", "OMDb")

	failures := svc.CheckAll(context.Background())

	assert.Len(t, failures, 1)
	assert.EqualError(t, failures["trailers/youtube"], "quota exceeded")
	assert.False(t, svc.IsHealthy(CategoryTrailers, "youtube"))
	assert.True(t, svc.IsHealthy(CategoryVision, "google_vision"))

	ran, err := svc.Check(context.Background(), CategoryMetadata, "omdb")
	assert.False(t, ran)
	assert.NoError(t, err)
}

func TestService_Summary(t *testing.T) {
	svc := NewService(testutil.NopLogger())
	svc.RegisterItem(CategoryMetadata, "tmdb", "TMDB")
	svc.RegisterItem(CategoryMetadata, "omdb", "OMDb")
	svc.SetError(CategoryMetadata, "omdb", "timeout")

	summary := svc.GetSummary()
	assert.True(t, summary.HasIssues)
	require.Len(t, summary.Categories, len(AllCategories()))
	for _, cat := range summary.Categories {
		if cat.Category == CategoryMetadata {
			assert.Equal(t, 1, cat.OK)
			assert.Equal(t, 1, cat.Error)
			assert.Equal(t, 2, cat.Total())
		}
	}
}

func TestHealthItem_MarshalJSONHidesMessageWhenOK(t *testing.T) {
	data, err := json.Marshal(HealthItem{ID: "tmdb", Category: CategoryMetadata, Name: "TMDB", Status: StatusOK, Message: "stale"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestHandlers(t *testing.T) {
	svc := NewService(testutil.NopLogger())
	svc.RegisterCheck(CategoryTrailers, "youtube", "YouTube", func(context.Context) error { return nil })

	e := echo.New()
	NewHandlers(svc).RegisterRoutes(e.Group("/api/v1/health"))

	tests := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{"all", http.MethodGet, "/api/v1/health", http.StatusOK, `"trailers":[{"id":"youtube"`},
		{"category", http.MethodGet, "/api/v1/health/trailers", http.StatusOK, `"name":"YouTube"`},
		{"bad category", http.MethodGet, "/api/v1/health/disks", http.StatusBadRequest, "invalid health category"},
		{"test item", http.MethodPost, "/api/v1/health/trailers/youtube/test", http.StatusOK, `"success":true`},
		{"missing item", http.MethodPost, "/api/v1/health/trailers/vimeo/test", http.StatusNotFound, "not found"},
		{"empty category", http.MethodPost, "/api/v1/health/vision/test", http.StatusOK, "no items to test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}
