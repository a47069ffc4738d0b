package models

import "time"

type HealthCheck struct {
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	LatencyMs float64   `json:"latency-ms"`
	Timestamp time.Time `json:"timestamp"`
}

// TargetStatus is the watchdog's view of one probed dependency.
type TargetStatus struct {
	Name            string       `json:"name"`
	State           string       `json:"state"`
	Critical        bool         `json:"critical"`
	Address         string       `json:"address,omitempty"`
	LastCheck       *HealthCheck `json:"last-check,omitempty"`
	ConsecFailures  int64        `json:"consecutive-failures"`
	TotalFailures   int64        `json:"total-failures"`
	LastStateChange time.Time    `json:"last-state-change"`
	Uptime          string       `json:"uptime,omitempty"`
}
