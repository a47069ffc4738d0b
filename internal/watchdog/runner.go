package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/winlab/netconflogger/pkg/models"
)

type RunnerConfig struct {
	CheckInterval    time.Duration
	Timeout          time.Duration
	FailureThreshold int
}

type targetRunner struct {
	target Target
	config RunnerConfig
	logger *slog.Logger

	state           atomicState
	lastCheck       atomic.Pointer[HealthResult]
	consecFailures  atomic.Int64
	totalFailures   atomic.Int64
	lastStateChange atomic.Pointer[time.Time]
	upSince         atomic.Pointer[time.Time]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTargetRunner(target Target, config RunnerConfig, logger *slog.Logger) *targetRunner {
	r := &targetRunner{
		target: target,
		config: config,
		logger: logger.With("target", target.Name()),
	}
	r.state.Store(StateInit)
	now := time.Now()
	r.lastStateChange.Store(&now)
	return r
}

func (r *targetRunner) start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

func (r *targetRunner) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *targetRunner) status() models.TargetStatus {
	info := models.TargetStatus{
		Name:           r.target.Name(),
		State:          r.state.Load().String(),
		Critical:       r.target.Critical(),
		Address:        r.target.Address(),
		ConsecFailures: r.consecFailures.Load(),
		TotalFailures:  r.totalFailures.Load(),
	}

	if lc := r.lastCheck.Load(); lc != nil {
		info.LastCheck = lc.model()
	}
	if t := r.lastStateChange.Load(); t != nil {
		info.LastStateChange = *t
	}
	if t := r.upSince.Load(); t != nil {
		info.Uptime = time.Since(*t).Truncate(time.Second).String()
	}

	return info
}

func (r *targetRunner) run(ctx context.Context) {
	ticker := time.NewTicker(r.config.CheckInterval)
	defer ticker.Stop()

	r.doCheck(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.doCheck(ctx)
		}
	}
}

func (r *targetRunner) doCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	result := r.target.Check(checkCtx)
	if ctx.Err() != nil {
		return
	}
	r.lastCheck.Store(result)

	if result.Healthy {
		r.handleSuccess()
	} else {
		r.handleFailure(result)
	}
}

func (r *targetRunner) handleSuccess() {
	prev := r.state.Load()
	if prev != StateUp {
		r.setState(StateUp)
		now := time.Now()
		r.upSince.Store(&now)
		r.logger.Info("Target is UP", "previous_state", prev.String(), "address", r.target.Address())
		r.target.OnUp()
	}
	r.consecFailures.Store(0)
}

// handleFailure marks the target down once FailureThreshold consecutive
// checks have failed. The first check of a target in init counts in full so
// readiness is known right after startup.
func (r *targetRunner) handleFailure(result *HealthResult) {
	failures := r.consecFailures.Add(1)
	r.totalFailures.Add(1)

	state := r.state.Load()
	if state != StateInit && int(failures) < r.config.FailureThreshold {
		r.logger.Warn("Health check failed", "failures", failures, "threshold", r.config.FailureThreshold, "error", result.Error)
		return
	}

	if state != StateDown {
		r.setState(StateDown)
		r.upSince.Store(nil)
		r.logger.Error("Target is DOWN", "failures", failures, "address", r.target.Address(), "error", result.Error)
		r.target.OnDown()
	}
}

func (r *targetRunner) setState(s TargetState) {
	r.state.Store(s)
	now := time.Now()
	r.lastStateChange.Store(&now)
}
