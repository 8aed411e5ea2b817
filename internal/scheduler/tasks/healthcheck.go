// Package tasks holds the maintenance jobs registered with the scheduler.
package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/scheduler"
)

// Prober actively tests every registered dependency. The returned map
// holds failures only.
type Prober interface {
	CheckAll(ctx context.Context) map[string]error
}

// HealthCheckTask probes the external APIs so an outage shows up in the
// health report before a user runs into it.
type HealthCheckTask struct {
	prober Prober
	logger zerolog.Logger
}

// NewHealthCheckTask creates a new dependency health check task.
func NewHealthCheckTask(prober Prober, logger zerolog.Logger) *HealthCheckTask {
	return &HealthCheckTask{
		prober: prober,
		logger: logger.With().Str("task", "health-check").Logger(),
	}
}

// Run executes the health check.
func (t *HealthCheckTask) Run(ctx context.Context) error {
	failures := t.prober.CheckAll(ctx)
	if len(failures) == 0 {
		t.logger.Debug().Msg("All dependencies healthy")
		return nil
	}

	names := make([]string, 0, len(failures))
	for name, err := range failures {
		names = append(names, name)
		t.logger.Warn().Err(err).Str("dependency", name).Msg("Dependency check failed")
	}
	sort.Strings(names)
	return fmt.Errorf("%d dependencies unhealthy: %s", len(names), strings.Join(names, ", "))
}

// RegisterHealthCheckTask registers the health check task with the scheduler.
func RegisterHealthCheckTask(sched *scheduler.Scheduler, prober Prober, cron string, logger zerolog.Logger) error {
	task := NewHealthCheckTask(prober, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "health-check",
		Name:        "Dependency Health Check",
		Description: "Tests the movie, trailer, vision and cache backends",
		Cron:        cron,
		RunOnStart:  true,
		Func:        task.Run,
	})
}
