package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NotificationDispatcher defines the interface for sending health notifications.
type NotificationDispatcher interface {
	DispatchHealthIssue(ctx context.Context, source, healthType, message string)
	DispatchHealthRestored(ctx context.Context, source, healthType, message string)
}

// CheckFunc actively probes one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Service manages the health state of all tracked items.
// All state is in-memory and resets on restart.
type Service struct {
	items    map[HealthCategory]map[string]*HealthItem
	checks   map[HealthCategory]map[string]CheckFunc
	mu       sync.RWMutex
	notifier NotificationDispatcher
	logger   zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[HealthCategory]map[string]*HealthItem),
		checks: make(map[HealthCategory]map[string]CheckFunc),
		logger: logger.With().Str("component", "health").Logger(),
	}

	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*HealthItem)
		s.checks[cat] = make(map[string]CheckFunc)
	}

	return s
}

// SetNotifier sets the dispatcher told about status transitions.
func (s *Service) SetNotifier(n NotificationDispatcher) {
	s.notifier = n
}

// RegisterItemStr is a string-based wrapper for RegisterItem, so services
// can report health without importing this package.
func (s *Service) RegisterItemStr(category, id, name string) {
	s.RegisterItem(HealthCategory(category), id, name)
}

// SetErrorStr is a string-based wrapper for SetError.
func (s *Service) SetErrorStr(category, id, message string) {
	s.SetError(HealthCategory(category), id, message)
}

// ClearStatusStr is a string-based wrapper for ClearStatus.
func (s *Service) ClearStatusStr(category, id string) {
	s.ClearStatus(HealthCategory(category), id)
}

// RegisterItem adds a new item to health tracking with OK status.
// Unknown categories are ignored.
func (s *Service) RegisterItem(category HealthCategory, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[category]; !ok {
		s.logger.Warn().Str("category", string(category)).Msg("Ignoring item in unknown health category")
		return
	}

	s.items[category][id] = &HealthItem{
		ID:       id,
		Category: category,
		Name:     name,
		Status:   StatusOK,
	}

	s.logger.Debug().
		Str("category", string(category)).
		Str("id", id).
		Str("name", name).
		Msg("Registered health item")
}

// RegisterCheck registers an item together with the probe that tests it.
func (s *Service) RegisterCheck(category HealthCategory, id, name string, check CheckFunc) {
	s.RegisterItem(category, id, name)
	s.SetCheck(category, id, check)
}

// SetCheck attaches a probe to an already registered item.
func (s *Service) SetCheck(category HealthCategory, id string, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[category][id]; !ok {
		return
	}
	s.checks[category][id] = check
}

// UnregisterItem removes an item and its probe.
func (s *Service) UnregisterItem(category HealthCategory, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[category][id]; exists {
		delete(s.items[category], id)
		delete(s.checks[category], id)

		s.logger.Debug().
			Str("category", string(category)).
			Str("id", id).
			Msg("Unregistered health item")
	}
}

// SetError sets an item to Error status with a message.
func (s *Service) SetError(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusError, message)
}

// SetWarning sets an item to Warning status with a message.
// Binary categories record it as an error instead.
func (s *Service) SetWarning(category HealthCategory, id, message string) {
	if IsBinaryCategory(category) {
		s.setStatus(category, id, StatusError, message)
		return
	}
	s.setStatus(category, id, StatusWarning, message)
}

// ClearStatus resets an item to OK status.
func (s *Service) ClearStatus(category HealthCategory, id string) {
	s.setStatus(category, id, StatusOK, "")
}

func (s *Service) setStatus(category HealthCategory, id string, status HealthStatus, message string) {
	s.mu.Lock()

	item, exists := s.items[category][id]
	if !exists {
		s.mu.Unlock()
		s.logger.Warn().
			Str("category", string(category)).
			Str("id", id).
			Msg("Attempted to update status for unregistered item")
		return
	}

	if item.Status == status && item.Message == message {
		s.mu.Unlock()
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message
	itemName := item.Name

	if status != StatusOK {
		now := time.Now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("category", string(category)).
		Str("id", id).
		Str("name", itemName).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	if s.notifier == nil {
		return
	}

	source := string(category) + ": " + itemName
	switch {
	case oldStatus == StatusOK && status != StatusOK:
		s.notifier.DispatchHealthIssue(context.Background(), source, string(status), message)
	case oldStatus != StatusOK && status == StatusOK:
		s.notifier.DispatchHealthRestored(context.Background(), source, string(oldStatus), "Issue resolved")
	}
}

// Check runs the probe registered for one item and records the outcome.
// ran is false when the item has no probe.
func (s *Service) Check(ctx context.Context, category HealthCategory, id string) (ran bool, err error) {
	s.mu.RLock()
	check, ok := s.checks[category][id]
	s.mu.RUnlock()
	if !ok || check == nil {
		return false, nil
	}

	if err = check(ctx); err != nil {
		s.SetError(category, id, err.Error())
	} else {
		s.ClearStatus(category, id)
	}
	return true, err
}

// CheckAll runs every registered probe in category order. The returned map
// holds failures only, keyed "category/id".
func (s *Service) CheckAll(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, cat := range AllCategories() {
		for _, id := range s.checkIDs(cat) {
			if ctx.Err() != nil {
				return failures
			}
			if ran, err := s.Check(ctx, cat, id); ran && err != nil {
				failures[string(cat)+"/"+id] = err
			}
		}
	}
	return failures
}

func (s *Service) checkIDs(category HealthCategory) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.checks[category]))
	for id := range s.checks[category] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetAll returns all health items grouped by category.
func (s *Service) GetAll() *HealthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &HealthResponse{
		Telegram: s.itemsToSlice(CategoryTelegram),
		Metadata: s.itemsToSlice(CategoryMetadata),
		Trailers: s.itemsToSlice(CategoryTrailers),
		Vision:   s.itemsToSlice(CategoryVision),
		Cache:    s.itemsToSlice(CategoryCache),
	}
}

// GetByCategory returns all items in a specific category.
func (s *Service) GetByCategory(category HealthCategory) []HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.itemsToSlice(category)
}

// GetItem returns a copy of a single item, or nil.
func (s *Service) GetItem(category HealthCategory, id string) *HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		c := *item
		return &c
	}
	return nil
}

// GetSummary returns counts per category.
func (s *Service) GetSummary() *HealthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &HealthSummary{
		Categories: make([]CategorySummary, 0, len(AllCategories())),
	}

	for _, cat := range AllCategories() {
		catSummary := CategorySummary{Category: cat}

		for _, item := range s.items[cat] {
			switch item.Status {
			case StatusOK:
				catSummary.OK++
			case StatusWarning:
				catSummary.Warning++
			case StatusError:
				catSummary.Error++
			}
		}

		if catSummary.HasIssues() {
			summary.HasIssues = true
		}
		summary.Categories = append(summary.Categories, catSummary)
	}

	return summary
}

// IsHealthy returns true if the specified item is OK.
func (s *Service) IsHealthy(category HealthCategory, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		return item.Status == StatusOK
	}
	return false
}

// itemsToSlice returns the category's items sorted by id.
func (s *Service) itemsToSlice(category HealthCategory) []HealthItem {
	items := make([]HealthItem, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}
