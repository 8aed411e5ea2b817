package health

import (
	"encoding/json"
	"time"
)

// HealthStatus represents the health state of an item.
type HealthStatus string

const (
	StatusOK      HealthStatus = "ok"
	StatusWarning HealthStatus = "warning"
	StatusError   HealthStatus = "error"
)

// HealthCategory groups the external dependencies the bot talks to.
type HealthCategory string

const (
	CategoryMetadata HealthCategory = "metadata"
	CategoryTrailers HealthCategory = "trailers"
	CategoryVision   HealthCategory = "vision"
	CategoryCache    HealthCategory = "cache"
	CategoryTelegram HealthCategory = "telegram"
)

// AllCategories returns all health categories in display order.
func AllCategories() []HealthCategory {
	return []HealthCategory{
		CategoryTelegram,
		CategoryMetadata,
		CategoryTrailers,
		CategoryVision,
		CategoryCache,
	}
}

// ValidCategory reports whether category is one of AllCategories.
func ValidCategory(category HealthCategory) bool {
	for _, c := range AllCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// HealthItem represents a single tracked dependency.
type HealthItem struct {
	ID        string         `json:"id"`
	Category  HealthCategory `json:"category"`
	Name      string         `json:"name"`
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
}

// MarshalJSON omits message and timestamp for OK items.
func (h HealthItem) MarshalJSON() ([]byte, error) {
	type Alias HealthItem
	alias := Alias(h)

	if h.Status == StatusOK {
		alias.Timestamp = nil
		alias.Message = ""
	}

	return json.Marshal(alias)
}

// CategorySummary provides counts for a health category.
type CategorySummary struct {
	Category HealthCategory `json:"category"`
	OK       int            `json:"ok"`
	Warning  int            `json:"warning"`
	Error    int            `json:"error"`
}

// Total returns the total number of items in the category.
func (c CategorySummary) Total() int {
	return c.OK + c.Warning + c.Error
}

// HasIssues returns true if there are any warning or error items.
func (c CategorySummary) HasIssues() bool {
	return c.Warning > 0 || c.Error > 0
}

// HealthResponse contains all health items grouped by category.
type HealthResponse struct {
	Telegram []HealthItem `json:"telegram"`
	Metadata []HealthItem `json:"metadata"`
	Trailers []HealthItem `json:"trailers"`
	Vision   []HealthItem `json:"vision"`
	Cache    []HealthItem `json:"cache"`
}

// HealthSummary provides an overview of system health.
type HealthSummary struct {
	Categories []CategorySummary `json:"categories"`
	HasIssues  bool              `json:"hasIssues"`
}

// IsBinaryCategory returns true if the category only supports OK/Error.
// The chat transport and the cache are either reachable or not.
func IsBinaryCategory(category HealthCategory) bool {
	return category == CategoryTelegram || category == CategoryCache
}
