package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health *Service
}

// NewHandlers creates new health handlers.
func NewHandlers(health *Service) *Handlers {
	return &Handlers{health: health}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.GET("/summary", h.GetSummary)
	g.GET("/:category", h.GetByCategory)
	g.POST("/:category/test", h.TestCategory)
	g.POST("/:category/:id/test", h.TestItem)
}

// TestResult is the outcome of one manual probe.
type TestResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GetAll returns all health items grouped by category.
// GET /api/v1/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// GetSummary returns summary counts.
// GET /api/v1/health/summary
func (h *Handlers) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetSummary())
}

// GetByCategory returns health items for a specific category.
// GET /api/v1/health/:category
func (h *Handlers) GetByCategory(c echo.Context) error {
	category := HealthCategory(c.Param("category"))
	if !ValidCategory(category) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid health category")
	}
	return c.JSON(http.StatusOK, h.health.GetByCategory(category))
}

// TestCategory probes every item in a category, one at a time.
// POST /api/v1/health/:category/test
func (h *Handlers) TestCategory(c echo.Context) error {
	category := HealthCategory(c.Param("category"))
	if !ValidCategory(category) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid health category")
	}

	items := h.health.GetByCategory(category)
	if len(items) == 0 {
		return c.JSON(http.StatusOK, map[string]string{"message": "no items to test"})
	}

	results := make([]TestResult, 0, len(items))
	for _, item := range items {
		results = append(results, h.testSingleItem(c, category, item.ID))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"category": category,
		"results":  results,
	})
}

// TestItem probes a specific health item.
// POST /api/v1/health/:category/:id/test
func (h *Handlers) TestItem(c echo.Context) error {
	category := HealthCategory(c.Param("category"))
	id := c.Param("id")

	if h.health.GetItem(category, id) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "health item not found")
	}
	return c.JSON(http.StatusOK, h.testSingleItem(c, category, id))
}

func (h *Handlers) testSingleItem(c echo.Context, category HealthCategory, id string) TestResult {
	result := TestResult{ID: id}

	ran, err := h.health.Check(c.Request().Context(), category, id)
	switch {
	case !ran:
		result.Message = "no check registered"
	case err != nil:
		result.Message = err.Error()
	default:
		result.Success = true
		result.Message = "Connection verified"
	}
	return result
}
