package watchdog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/winlab/netconflogger/pkg/models"
)

// Target is a dependency the watchdog probes on a fixed interval.
type Target interface {
	Name() string
	// Address is what the last check dialed, for status output.
	Address() string
	Check(ctx context.Context) *HealthResult
	OnDown()
	OnUp()
	Critical() bool
}

type HealthResult struct {
	Healthy   bool
	Error     error
	Latency   time.Duration
	Timestamp time.Time
}

func NewHealthResult(healthy bool, err error, latency time.Duration) *HealthResult {
	return &HealthResult{
		Healthy:   healthy,
		Error:     err,
		Latency:   latency,
		Timestamp: time.Now(),
	}
}

func (r *HealthResult) model() *models.HealthCheck {
	hc := &models.HealthCheck{
		Healthy:   r.Healthy,
		LatencyMs: float64(r.Latency.Microseconds()) / 1000.0,
		Timestamp: r.Timestamp,
	}
	if r.Error != nil {
		hc.Error = r.Error.Error()
	}
	return hc
}

type TargetState int32

const (
	StateInit TargetState = iota
	StateUp
	StateDown
)

func (s TargetState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateUp:
		return "up"
	case StateDown:
		return "down"
	default:
		return "unknown"
	}
}

type atomicState struct {
	val atomic.Int32
}

func (s *atomicState) Load() TargetState {
	return TargetState(s.val.Load())
}

func (s *atomicState) Store(state TargetState) {
	s.val.Store(int32(state))
}
