package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscout/filmscout/internal/scheduler"
	"github.com/filmscout/filmscout/internal/testutil"
)

type fakeProber map[string]error

func (f fakeProber) CheckAll(context.Context) map[string]error { return f }

type fakeSweeper struct {
	removed int
	err     error
	calls   int
}

func (f *fakeSweeper) PurgeCache(context.Context) (int, error) {
	f.calls++
	return f.removed, f.err
}

func TestHealthCheckTask_Run(t *testing.T) {
	healthy := NewHealthCheckTask(fakeProber{}, testutil.NopLogger())
	assert.NoError(t, healthy.Run(context.Background()))

	failing := NewHealthCheckTask(fakeProber{
		"trailers/youtube": errors.New("quota exceeded"),
		"metadata/omdb":    errors.New("status 401"),
	}, testutil.NopLogger())
	err := failing.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "2 dependencies unhealthy: metadata/omdb, trailers/youtube", err.Error())
}

func TestCacheSweepTask_Run(t *testing.T) {
	sweeper := &fakeSweeper{removed: 3}
	task := NewCacheSweepTask(sweeper, testutil.NopLogger())
	assert.NoError(t, task.Run(context.Background()))
	assert.Equal(t, 1, sweeper.calls)

	sweeper.err = errors.New("redis: connection refused")
	assert.EqualError(t, task.Run(context.Background()), "redis: connection refused")
}

func TestRegisterTasks(t *testing.T) {
	sched, err := scheduler.New(testutil.NopLogger())
	require.NoError(t, err)
	defer sched.Stop()

	require.NoError(t, RegisterHealthCheckTask(sched, fakeProber{}, "*/15 * * * *", testutil.NopLogger()))
	require.NoError(t, RegisterCacheSweepTask(sched, &fakeSweeper{}, "* * * * *", testutil.NopLogger()))

	tasks := sched.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "cache-sweep", tasks[0].ID)
	assert.Equal(t, "health-check", tasks[1].ID)
}
