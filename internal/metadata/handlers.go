package metadata

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/filmscout/filmscout/internal/movie"
)

// Handlers provides HTTP handlers for metadata operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new metadata handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the metadata routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/movies/search", h.SearchMovies)
	g.GET("/movies/:source/:id", h.GetMovie)

	// Cache management
	g.DELETE("/cache", h.ClearCache)

	// Provider status
	g.GET("/metadata/status", h.GetStatus)
}

// SearchMovies searches both providers and returns the merged list.
// GET /api/v1/movies/search?query=...
func (h *Handlers) SearchMovies(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter is required")
	}

	results, err := h.service.SearchMovies(c.Request().Context(), query)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, results)
}

// GetMovie gets detailed movie info from one source.
// GET /api/v1/movies/:source/:id
func (h *Handlers) GetMovie(c echo.Context) error {
	source := movie.Origin(c.Param("source"))
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	result, err := h.service.GetMovieDetails(c.Request().Context(), source, id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// ClearCache clears the metadata cache.
// DELETE /api/v1/cache
func (h *Handlers) ClearCache(c echo.Context) error {
	if err := h.service.ClearCache(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetStatus returns the status of configured metadata providers.
// GET /api/v1/metadata/status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status())
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNoProvidersConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no metadata providers configured")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "movie not found")
	case errors.Is(err, ErrUnknownSource), errors.Is(err, ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
