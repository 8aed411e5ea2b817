package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const sendTimeout = 15 * time.Second

// Service fans events out to the configured notifiers. Sends run in the
// background; Wait blocks until they finish.
type Service struct {
	notifiers []Notifier
	wg        sync.WaitGroup
	logger    zerolog.Logger
}

// NewService creates a notification service. Nil notifiers are skipped.
func NewService(logger zerolog.Logger, notifiers ...Notifier) *Service {
	s := &Service{logger: logger.With().Str("component", "notification").Logger()}
	for _, n := range notifiers {
		s.Add(n)
	}
	return s
}

// Add registers another notifier.
func (s *Service) Add(n Notifier) {
	if n == nil {
		return
	}
	s.notifiers = append(s.notifiers, n)
}

// Len returns the number of registered notifiers.
func (s *Service) Len() int {
	return len(s.notifiers)
}

// Test sends a test message through every notifier. The returned map holds
// failures only.
func (s *Service) Test(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, n := range s.notifiers {
		if err := n.Test(ctx); err != nil {
			failures[n.Name()] = err
		}
	}
	return failures
}

// Dispatch sends an event to every notifier in the background. The send
// outlives ctx's cancellation but not its values.
func (s *Service) Dispatch(ctx context.Context, eventType EventType, event any) {
	if len(s.notifiers) == 0 {
		return
	}

	s.logger.Debug().
		Str("event", string(eventType)).
		Int("count", len(s.notifiers)).
		Msg("Dispatching notification event")

	for _, n := range s.notifiers {
		s.wg.Add(1)
		go func(n Notifier) {
			defer s.wg.Done()
			s.send(context.WithoutCancel(ctx), n, eventType, event)
		}(n)
	}
}

func (s *Service) send(ctx context.Context, n Notifier, eventType EventType, event any) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	var err error
	switch eventType {
	case EventStartup:
		if e, ok := event.(StartupEvent); ok {
			err = n.OnStartup(ctx, e)
		}
	case EventHealthIssue:
		if e, ok := event.(HealthEvent); ok {
			err = n.OnHealthIssue(ctx, e)
		}
	case EventHealthRestored:
		if e, ok := event.(HealthEvent); ok {
			err = n.OnHealthRestored(ctx, e)
		}
	}

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("name", n.Name()).
			Str("event", string(eventType)).
			Msg("Notification failed")
		return
	}
	s.logger.Debug().
		Str("name", n.Name()).
		Str("event", string(eventType)).
		Msg("Notification sent successfully")
}

// Wait blocks until in-flight sends finish or ctx is done.
func (s *Service) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// DispatchStartup announces a successful start.
func (s *Service) DispatchStartup(ctx context.Context, event StartupEvent) {
	if event.StartedAt.IsZero() {
		event.StartedAt = time.Now()
	}
	s.Dispatch(ctx, EventStartup, event)
}

// DispatchHealthIssue implements health.NotificationDispatcher.
func (s *Service) DispatchHealthIssue(ctx context.Context, source, healthType, message string) {
	s.Dispatch(ctx, EventHealthIssue, HealthEvent{
		Source:     source,
		Type:       healthType,
		Message:    message,
		OccurredAt: time.Now(),
	})
}

// DispatchHealthRestored implements health.NotificationDispatcher.
func (s *Service) DispatchHealthRestored(ctx context.Context, source, healthType, message string) {
	s.Dispatch(ctx, EventHealthRestored, HealthEvent{
		Source:     source,
		Type:       healthType,
		Message:    message,
		OccurredAt: time.Now(),
	})
}
