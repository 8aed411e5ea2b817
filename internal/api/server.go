// Package api serves the bot's operational HTTP surface: liveness, metrics,
// provider and health status, and read-only access to the lookup services.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/api/handlers"
	apimw "github.com/filmscout/filmscout/internal/api/middleware"
	"github.com/filmscout/filmscout/internal/health"
	"github.com/filmscout/filmscout/internal/metadata"
	"github.com/filmscout/filmscout/internal/notification"
	"github.com/filmscout/filmscout/internal/scheduler"
	"github.com/filmscout/filmscout/internal/youtube"
)

// Version is reported by /api/v1/status. Set at build time.
var Version = "dev"

// TrailerFinder looks up ranked trailers.
type TrailerFinder interface {
	FindTrailers(ctx context.Context, movieTitle, year string) youtube.Result
}

// VideoDetailer fetches one video's metadata.
type VideoDetailer interface {
	GetVideoDetails(ctx context.Context, videoID string) (*youtube.VideoDetails, error)
}

// Deps are the services exposed over HTTP. Nil services leave their routes
// unregistered.
type Deps struct {
	Metadata      *metadata.Service
	Trailers      TrailerFinder
	Videos        VideoDetailer
	Health        *health.Service
	Scheduler     *scheduler.Scheduler
	Notifications *notification.Service
	Gatherer      prometheus.Gatherer
	APIStatus     func() map[string]bool
	StatusOrder   []string
	BotUsername   func() string
	LogPath       string
}

// Server handles HTTP requests for the operational API.
type Server struct {
	echo      *echo.Echo
	deps      Deps
	logger    zerolog.Logger
	startTime time.Time
}

// NewServer creates a new API server instance.
func NewServer(deps Deps, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		echo:      e,
		deps:      deps,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())
	s.echo.Use(apimw.Metrics())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			// Probes and scrapes would drown out everything else.
			p := c.Path()
			return p == "/health" || p == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("requestId", v.RequestID).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("requestId", v.RequestID).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	if s.deps.Metadata != nil {
		metadata.NewHandlers(s.deps.Metadata).RegisterRoutes(api)
	}

	if s.deps.Trailers != nil {
		api.GET("/trailers", s.findTrailers)
	}
	if s.deps.Videos != nil {
		api.GET("/videos/:id", s.getVideo)
	}

	if s.deps.Health != nil {
		health.NewHandlers(s.deps.Health).RegisterRoutes(api.Group("/health"))
	}

	if s.deps.Scheduler != nil {
		schedulerHandler := handlers.NewSchedulerHandler(s.deps.Scheduler)
		schedulerGroup := api.Group("/scheduler")
		schedulerGroup.GET("/tasks", schedulerHandler.ListTasks)
		schedulerGroup.GET("/tasks/:id", schedulerHandler.GetTask)
		schedulerGroup.POST("/tasks/:id/run", schedulerHandler.RunTask)
	}

	if s.deps.Notifications != nil {
		api.POST("/notifications/test", s.testNotifications)
	}

	if s.deps.LogPath != "" {
		NewLogsHandlers(s.deps.LogPath).RegisterRoutes(api.Group("/logs"))
	}
}

// Start begins listening for HTTP requests. It returns nil after Shutdown.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")

	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// --- Handler implementations ---

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type providerState struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

func (s *Server) getStatus(c echo.Context) error {
	providers := make([]providerState, 0, len(s.deps.StatusOrder))
	if s.deps.APIStatus != nil {
		status := s.deps.APIStatus()
		for _, name := range s.deps.StatusOrder {
			providers = append(providers, providerState{Name: name, Configured: status[name]})
		}
	}

	resp := map[string]any{
		"version":   Version,
		"startTime": s.startTime.UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).Round(time.Second).String(),
		"providers": providers,
	}
	if s.deps.BotUsername != nil {
		resp["bot"] = s.deps.BotUsername()
	}
	if s.deps.Health != nil {
		resp["healthy"] = !s.deps.Health.GetSummary().HasIssues
	}

	return c.JSON(http.StatusOK, resp)
}

// findTrailers ranks trailers for a title.
// GET /api/v1/trailers?title=...&year=...
func (s *Server) findTrailers(c echo.Context) error {
	title := c.QueryParam("title")
	if title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title parameter is required")
	}

	res := s.deps.Trailers.FindTrailers(c.Request().Context(), title, c.QueryParam("year"))
	if !res.OK() {
		return youtubeHTTPError(res.Err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"query":    res.Query,
		"trailers": res.Trailers,
	})
}

// getVideo returns one video's details.
// GET /api/v1/videos/:id
func (s *Server) getVideo(c echo.Context) error {
	details, err := s.deps.Videos.GetVideoDetails(c.Request().Context(), c.Param("id"))
	if err != nil {
		return youtubeHTTPError(err)
	}
	return c.JSON(http.StatusOK, details)
}

// testNotifications sends a test message through every admin notifier.
// POST /api/v1/notifications/test
func (s *Server) testNotifications(c echo.Context) error {
	if s.deps.Notifications.Len() == 0 {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no notifiers configured")
	}

	failures := s.deps.Notifications.Test(c.Request().Context())
	if len(failures) > 0 {
		msgs := make(map[string]string, len(failures))
		for name, err := range failures {
			msgs[name] = err.Error()
		}
		return c.JSON(http.StatusBadGateway, map[string]any{"success": false, "errors": msgs})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func youtubeHTTPError(err error) error {
	switch {
	case errors.Is(err, youtube.ErrAPIKeyMissing):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, youtube.ErrVideoNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, youtube.ErrQuotaExceeded):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
