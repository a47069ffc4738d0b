package component

import (
	"github.com/winlab/netconflogger/pkg/config"
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/metrics"
	"github.com/winlab/netconflogger/pkg/models"
)

// StatusProvider exposes the relay's running counters to components that
// report them.
type StatusProvider interface {
	Status() models.RelayStatus
	Endpoint() string
}

// HealthProvider reports the watchdog's probe results.
type HealthProvider interface {
	GetAllStates() []models.TargetStatus
	IsReady() bool
}

type Dependencies struct {
	EventBus events.Bus
	Config   *config.Config
	Metrics  *metrics.Metrics
	Relay    StatusProvider
	Health   HealthProvider
}
