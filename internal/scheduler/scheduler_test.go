package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsentinel/orchestrator/internal/model"
)

func TestRunNowDispatchesDueTask(t *testing.T) {
	s := New(4)
	var calls int32
	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "t1", Schedule: "daily at 3", Enabled: true, Cooldown: time.Minute,
	}, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	require.NoError(t, s.RunNow(context.Background(), "t1"))
	s.wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, int64(1), status[0].RunCount)
	assert.Equal(t, int64(1), status[0].SuccessCount)
}

func TestRunNowRefusesWithinCooldown(t *testing.T) {
	s := New(4)
	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "t1", Schedule: "daily at 3", Enabled: true, Cooldown: 60 * time.Second,
		LastSuccess: time.Now().UTC().Add(-10 * time.Second),
	}, func(ctx context.Context) error { return nil }))

	err := s.RunNow(context.Background(), "t1")
	require.ErrorIs(t, err, ErrTooSoon)

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, int64(0), status[0].RunCount)
}

func TestFailedRunRecordsLastErrorAndPreservesEnabled(t *testing.T) {
	s := New(4)
	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "t1", Schedule: "daily at 3", Enabled: true, Cooldown: time.Minute,
	}, func(ctx context.Context) error {
		return errors.New("boom")
	}))

	require.NoError(t, s.RunNow(context.Background(), "t1"))
	s.wg.Wait()

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, int64(1), status[0].ErrorCount)
	assert.Equal(t, "boom", status[0].LastError)
	assert.True(t, status[0].Enabled, "a failing task is never auto-disabled")
}

func TestOneTaskFailureDoesNotAffectAnother(t *testing.T) {
	s := New(4)
	var okCalls int32
	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "failing", Schedule: "daily at 3", Enabled: true, Cooldown: time.Minute,
	}, func(ctx context.Context) error { panic("handler bug") }))
	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "healthy", Schedule: "daily at 3", Enabled: true, Cooldown: time.Minute,
	}, func(ctx context.Context) error {
		atomic.AddInt32(&okCalls, 1)
		return nil
	}))

	require.NoError(t, s.RunNow(context.Background(), "failing"))
	require.NoError(t, s.RunNow(context.Background(), "healthy"))
	s.wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&okCalls))
}

func TestDisableThenEnable(t *testing.T) {
	s := New(4)
	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "t1", Schedule: "daily at 3", Enabled: true, Cooldown: time.Minute,
	}, func(ctx context.Context) error { return nil }))

	require.NoError(t, s.Disable("t1"))
	status := s.Status()
	assert.False(t, status[0].Enabled)

	require.NoError(t, s.Enable("t1"))
	status = s.Status()
	assert.True(t, status[0].Enabled)
}

func TestScanSkipsDisabledAndNotYetDueTasks(t *testing.T) {
	s := New(4)
	var dueCalls, futureCalls, disabledCalls int32

	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "due", Enabled: true, Cooldown: time.Minute,
		NextRun: time.Now().UTC().Add(-time.Minute),
	}, func(ctx context.Context) error {
		atomic.AddInt32(&dueCalls, 1)
		return nil
	}))
	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "future", Enabled: true, Cooldown: time.Minute,
		NextRun: time.Now().UTC().Add(time.Hour),
	}, func(ctx context.Context) error {
		atomic.AddInt32(&futureCalls, 1)
		return nil
	}))
	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "disabled", Enabled: false, Cooldown: time.Minute,
		NextRun: time.Now().UTC().Add(-time.Minute),
	}, func(ctx context.Context) error {
		atomic.AddInt32(&disabledCalls, 1)
		return nil
	}))

	s.scan(context.Background())
	s.wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&dueCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&futureCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&disabledCalls))
}

func TestBuiltinSpecsAreAllEnabledWithCooldown(t *testing.T) {
	specs := BuiltinSpecs()
	assert.Len(t, specs, 7)
	for _, spec := range specs {
		assert.True(t, spec.Enabled)
		assert.Positive(t, spec.Cooldown)
		assert.NotEmpty(t, spec.Schedule)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	s := New(4)
	s.PollInterval = 10 * time.Millisecond
	var calls int32
	require.NoError(t, s.Register(model.ScheduledTask{
		ID: "t1", Enabled: true, Cooldown: time.Millisecond,
		NextRun: time.Now().UTC().Add(-time.Second),
	}, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	ctx := context.Background()
	s.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if atomic.LoadInt32(&calls) > 0 {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
	wg.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}
