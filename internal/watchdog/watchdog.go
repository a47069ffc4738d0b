// Package watchdog probes the collector on an interval and reports readiness.
// Probing never gates forwarding; the relay still attempts every event.
package watchdog

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/winlab/netconflogger/pkg/component"
	"github.com/winlab/netconflogger/pkg/logger"
	"github.com/winlab/netconflogger/pkg/models"
)

const Namespace = "watchdog"

type Watchdog struct {
	*component.Base
	logger  *slog.Logger
	runners map[string]*targetRunner
	mu      sync.RWMutex
}

func New() *Watchdog {
	return &Watchdog{
		Base:    component.NewBase(Namespace),
		logger:  logger.Get(logger.Watchdog),
		runners: make(map[string]*targetRunner),
	}
}

func (w *Watchdog) Register(target Target, config RunnerConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := target.Name()
	if _, exists := w.runners[name]; exists {
		w.logger.Warn("Target already registered, replacing", "target", name)
	}

	w.runners[name] = newTargetRunner(target, config, w.logger)
	w.logger.Info("Registered target", "target", name, "critical", target.Critical(), "interval", config.CheckInterval)
}

func (w *Watchdog) Start(ctx context.Context) error {
	w.StartContext(ctx)
	w.logger.Info("Starting watchdog")

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, runner := range w.runners {
		runner.start(w.Ctx)
	}

	return nil
}

func (w *Watchdog) Stop(ctx context.Context) error {
	w.logger.Info("Stopping watchdog")

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, runner := range w.runners {
		runner.stop()
	}

	w.StopContext()
	return nil
}

func (w *Watchdog) GetState(name string) (models.TargetStatus, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	runner, ok := w.runners[name]
	if !ok {
		return models.TargetStatus{}, false
	}
	return runner.status(), true
}

func (w *Watchdog) GetAllStates() []models.TargetStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	states := make([]models.TargetStatus, 0, len(w.runners))
	for _, runner := range w.runners {
		states = append(states, runner.status())
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

// IsReady reports whether every critical target is up.
func (w *Watchdog) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, runner := range w.runners {
		if runner.target.Critical() && runner.state.Load() != StateUp {
			return false
		}
	}
	return true
}
