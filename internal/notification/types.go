// Package notification delivers operational events, such as a provider
// going unhealthy, to the bot's administrators.
package notification

import (
	"context"
	"time"
)

// Notifier is implemented by every delivery channel.
type Notifier interface {
	Name() string
	Test(ctx context.Context) error

	OnStartup(ctx context.Context, event StartupEvent) error
	OnHealthIssue(ctx context.Context, event HealthEvent) error
	OnHealthRestored(ctx context.Context, event HealthEvent) error
}

// EventType identifies the type of notification event
type EventType string

const (
	EventStartup        EventType = "startup"
	EventHealthIssue    EventType = "health_issue"
	EventHealthRestored EventType = "health_restored"
)

// HealthEvent is a dependency changing health state.
type HealthEvent struct {
	Source     string    `json:"source"`
	Type       string    `json:"type"` // "error" or "warning"
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

// StartupEvent announces that the bot is polling for updates.
type StartupEvent struct {
	Username  string          `json:"username"`
	Providers map[string]bool `json:"providers"`
	Order     []string        `json:"-"`
	StartedAt time.Time       `json:"startedAt"`
}
