package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscout/filmscout/internal/health"
	"github.com/filmscout/filmscout/internal/metadata"
	"github.com/filmscout/filmscout/internal/metadata/mock"
	"github.com/filmscout/filmscout/internal/metrics"
	"github.com/filmscout/filmscout/internal/movie"
	"github.com/filmscout/filmscout/internal/notification"
	"github.com/filmscout/filmscout/internal/scheduler"
	"github.com/filmscout/filmscout/internal/testutil"
	"github.com/filmscout/filmscout/internal/youtube"
)

type fakeTrailers struct{ result youtube.Result }

func (f fakeTrailers) FindTrailers(ctx context.Context, movieTitle, year string) youtube.Result {
	return f.result
}

type fakeVideos map[string]*youtube.VideoDetails

func (f fakeVideos) GetVideoDetails(ctx context.Context, videoID string) (*youtube.VideoDetails, error) {
	if d, ok := f[videoID]; ok {
		return d, nil
	}
	return nil, youtube.ErrVideoNotFound
}

type fakeNotifier struct{ err error }

func (f fakeNotifier) Name() string                   { return "admin" }
func (f fakeNotifier) Test(ctx context.Context) error { return f.err }
func (f fakeNotifier) OnStartup(context.Context, notification.StartupEvent) error {
	return nil
}
func (f fakeNotifier) OnHealthIssue(context.Context, notification.HealthEvent) error {
	return nil
}
func (f fakeNotifier) OnHealthRestored(context.Context, notification.HealthEvent) error {
	return nil
}

func setupTestServer(t *testing.T, modify func(*Deps)) *Server {
	t.Helper()
	logger := testutil.NopLogger()

	sched, err := scheduler.New(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })
	require.NoError(t, sched.RegisterTask(scheduler.TaskConfig{
		ID:   "cache-sweep",
		Name: "Metadata Cache Sweep",
		Cron: "* * * * *",
		Func: func(context.Context) error { return nil },
	}))

	healthSvc := health.NewService(logger)
	healthSvc.RegisterItem(health.CategoryMetadata, "tmdb", "TMDB")

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	deps := Deps{
		Metadata: metadata.NewServiceWithClients(mock.NewTMDBClient(), mock.NewOMDBClient(), nil, logger),
		Trailers: fakeTrailers{result: youtube.Result{
			Query: "Inception 2010 trailer",
			Trailers: []movie.TrailerCandidate{{
				Video:          movie.Video{ID: "YoHD9XEInc0", Title: "Inception Official Trailer"},
				RelevanceScore: 1.4,
			}},
		}},
		Videos:        fakeVideos{"YoHD9XEInc0": {ID: "YoHD9XEInc0", Title: "Inception Official Trailer", DurationMinutes: 2}},
		Health:        healthSvc,
		Scheduler:     sched,
		Notifications: notification.NewService(logger, fakeNotifier{}),
		Gatherer:      reg,
		APIStatus:     func() map[string]bool { return map[string]bool{"TMDB": true} },
		StatusOrder:   []string{"TMDB", "OMDB"},
		BotUsername:   func() string { return "filmscout_bot" },
	}
	if modify != nil {
		modify(&deps)
	}
	return NewServer(deps, logger)
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthCheck(t *testing.T) {
	s := setupTestServer(t, nil)

	rec := do(s, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t, nil)

	do(s, http.MethodGet, "/api/v1/status")
	rec := do(s, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `filmscout_http_requests_total{method="GET",path="/api/v1/status",status="200"}`)
}

func TestGetStatus(t *testing.T) {
	s := setupTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store, no-cache, must-revalidate, private", rec.Header().Get("Cache-Control"))

	var body struct {
		Version   string          `json:"version"`
		Bot       string          `json:"bot"`
		Healthy   bool            `json:"healthy"`
		Providers []providerState `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, Version, body.Version)
	assert.Equal(t, "filmscout_bot", body.Bot)
	assert.True(t, body.Healthy)
	assert.Equal(t, []providerState{{"TMDB", true}, {"OMDB", false}}, body.Providers)
}

func TestMovieRoutes(t *testing.T) {
	s := setupTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/v1/movies/search?query=inception")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []movie.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "Inception", results[0].Title)

	rec = do(s, http.MethodGet, "/api/v1/movies/omdb/tt0133093")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The Matrix")

	rec = do(s, http.MethodGet, "/api/v1/movies/letterboxd/1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrailerRoutes(t *testing.T) {
	s := setupTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/v1/trailers?title=Inception&year=2010")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"videoId":"YoHD9XEInc0"`)
	assert.Contains(t, rec.Body.String(), `"query":"Inception 2010 trailer"`)

	rec = do(s, http.MethodGet, "/api/v1/trailers")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/videos/YoHD9XEInc0")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/videos/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrailerRoutes_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{youtube.ErrAPIKeyMissing, http.StatusServiceUnavailable},
		{youtube.ErrQuotaExceeded, http.StatusTooManyRequests},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("status 500"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		s := setupTestServer(t, func(d *Deps) {
			d.Trailers = fakeTrailers{result: youtube.Result{Err: tt.err}}
		})
		rec := do(s, http.MethodGet, "/api/v1/trailers?title=Heat")
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}

func TestHealthAndSchedulerRoutes(t *testing.T) {
	s := setupTestServer(t, nil)

	rec := do(s, http.MethodGet, "/api/v1/health/metadata")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"tmdb"`)

	rec = do(s, http.MethodGet, "/api/v1/scheduler/tasks")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"cache-sweep"`)

	rec = do(s, http.MethodGet, "/api/v1/scheduler/tasks/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(s, http.MethodPost, "/api/v1/scheduler/tasks/nope/run")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(s, http.MethodPost, "/api/v1/scheduler/tasks/cache-sweep/run")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestNotificationTest(t *testing.T) {
	s := setupTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/v1/notifications/test")
	assert.Equal(t, http.StatusOK, rec.Code)

	s = setupTestServer(t, func(d *Deps) {
		d.Notifications = notification.NewService(testutil.NopLogger(), fakeNotifier{err: errors.New("chat not found")})
	})
	rec = do(s, http.MethodPost, "/api/v1/notifications/test")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "chat not found")

	s = setupTestServer(t, func(d *Deps) {
		d.Notifications = notification.NewService(testutil.NopLogger())
	})
	rec = do(s, http.MethodPost, "/api/v1/notifications/test")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOptionalRoutesAbsent(t *testing.T) {
	s := setupTestServer(t, func(d *Deps) {
		*d = Deps{}
	})

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/v1/trailers?title=Heat").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/v1/movies/search?query=Heat").Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/v1/status").Code)
}

func TestLogDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filmscout.log")
	require.NoError(t, os.WriteFile(path, []byte("started\n"), 0o600))

	s := setupTestServer(t, func(d *Deps) { d.LogPath = path })

	rec := do(s, http.MethodGet, "/api/v1/logs/download")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), "filmscout.log"))
	assert.Equal(t, "started\n", rec.Body.String())
}
