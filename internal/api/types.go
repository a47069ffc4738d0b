package api

import (
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/models"
)

type StatusResponse struct {
	Relay models.RelayStatus `json:"relay" description:"Relay counters and current collector endpoint"`
	Bus   events.Stats       `json:"bus" description:"Event bus queue and subscription state"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ReadyResponse struct {
	Status  string                `json:"status"`
	Targets []models.TargetStatus `json:"targets,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
