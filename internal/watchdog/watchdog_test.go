package watchdog

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	name     string
	critical bool
	healthy  atomic.Bool
	ups      atomic.Int32
	downs    atomic.Int32
}

func (f *fakeTarget) Name() string    { return f.name }
func (f *fakeTarget) Address() string { return "127.0.0.1:8000" }
func (f *fakeTarget) Critical() bool  { return f.critical }
func (f *fakeTarget) OnUp()           { f.ups.Add(1) }
func (f *fakeTarget) OnDown()         { f.downs.Add(1) }

func (f *fakeTarget) Check(ctx context.Context) *HealthResult {
	if f.healthy.Load() {
		return NewHealthResult(true, nil, time.Millisecond)
	}
	return NewHealthResult(false, errors.New("connection refused"), time.Millisecond)
}

func testRunner(target Target) *targetRunner {
	return newTargetRunner(target, RunnerConfig{
		CheckInterval:    time.Hour,
		Timeout:          time.Second,
		FailureThreshold: 3,
	}, slog.New(slog.DiscardHandler))
}

func TestRunner_Transitions(t *testing.T) {
	target := &fakeTarget{name: "collector", critical: true}
	r := testRunner(target)
	ctx := context.Background()

	// Down straight away from init.
	r.doCheck(ctx)
	assert.Equal(t, StateDown, r.state.Load())
	assert.Equal(t, int32(1), target.downs.Load())

	target.healthy.Store(true)
	r.doCheck(ctx)
	assert.Equal(t, StateUp, r.state.Load())
	assert.Equal(t, int32(1), target.ups.Load())

	target.healthy.Store(false)
	r.doCheck(ctx)
	r.doCheck(ctx)
	assert.Equal(t, StateUp, r.state.Load(), "below threshold")

	r.doCheck(ctx)
	assert.Equal(t, StateDown, r.state.Load())
	assert.Equal(t, int32(2), target.downs.Load())

	r.doCheck(ctx)
	assert.Equal(t, int32(2), target.downs.Load(), "OnDown fires once per transition")

	st := r.status()
	assert.Equal(t, "collector", st.Name)
	assert.Equal(t, "down", st.State)
	assert.Equal(t, int64(4), st.ConsecFailures)
	assert.Equal(t, int64(5), st.TotalFailures)
	require.NotNil(t, st.LastCheck)
	assert.False(t, st.LastCheck.Healthy)
	assert.Equal(t, "connection refused", st.LastCheck.Error)
	assert.Empty(t, st.Uptime)
}

func TestWatchdog_Readiness(t *testing.T) {
	critical := &fakeTarget{name: "collector", critical: true}
	optional := &fakeTarget{name: "extra"}

	w := New()
	cfg := RunnerConfig{CheckInterval: 10 * time.Millisecond, Timeout: time.Second, FailureThreshold: 1}
	w.Register(critical, cfg)
	w.Register(optional, cfg)

	assert.False(t, w.IsReady(), "targets start in init")

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(context.Background())

	assert.Eventually(t, func() bool {
		st, ok := w.GetState("collector")
		return ok && st.State == "down"
	}, time.Second, 5*time.Millisecond)
	assert.False(t, w.IsReady())

	critical.healthy.Store(true)
	assert.Eventually(t, w.IsReady, time.Second, 5*time.Millisecond)

	states := w.GetAllStates()
	require.Len(t, states, 2)
	assert.Equal(t, "collector", states[0].Name)
	assert.Equal(t, "extra", states[1].Name)
	assert.Equal(t, "down", states[1].State, "non-critical target does not affect readiness")

	_, ok := w.GetState("missing")
	assert.False(t, ok)
}

func TestWatchdog_StopWaitsForRunners(t *testing.T) {
	target := &fakeTarget{name: "collector", critical: true}
	target.healthy.Store(true)

	w := New()
	w.Register(target, RunnerConfig{CheckInterval: time.Millisecond, Timeout: time.Second, FailureThreshold: 1})
	require.NoError(t, w.Start(context.Background()))

	assert.Eventually(t, w.IsReady, time.Second, time.Millisecond)
	require.NoError(t, w.Stop(context.Background()))

	ups := target.ups.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, ups, target.ups.Load())
}
