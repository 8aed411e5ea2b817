package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/scheduler"
)

// Sweeper drops expired cache entries.
type Sweeper interface {
	PurgeCache(ctx context.Context) (int, error)
}

// CacheSweepTask removes expired metadata lookups.
type CacheSweepTask struct {
	sweeper Sweeper
	logger  zerolog.Logger
}

// NewCacheSweepTask creates a new cache sweep task.
func NewCacheSweepTask(sweeper Sweeper, logger zerolog.Logger) *CacheSweepTask {
	return &CacheSweepTask{
		sweeper: sweeper,
		logger:  logger.With().Str("task", "cache-sweep").Logger(),
	}
}

// Run executes the sweep.
func (t *CacheSweepTask) Run(ctx context.Context) error {
	removed, err := t.sweeper.PurgeCache(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		t.logger.Debug().Int("removed", removed).Msg("Expired cache entries removed")
	}
	return nil
}

// RegisterCacheSweepTask registers the cache sweep task with the scheduler.
func RegisterCacheSweepTask(sched *scheduler.Scheduler, sweeper Sweeper, cron string, logger zerolog.Logger) error {
	task := NewCacheSweepTask(sweeper, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "cache-sweep",
		Name:        "Metadata Cache Sweep",
		Description: "Removes expired movie lookups from the cache",
		Cron:        cron,
		Func:        task.Run,
	})
}
