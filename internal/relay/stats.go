package relay

import (
	"sync"

	"github.com/winlab/netconflogger/pkg/forwarder"
	"github.com/winlab/netconflogger/pkg/models"
)

type Stats struct {
	mu sync.Mutex

	received   uint64
	malformed  uint64
	skipped    uint64
	delivered  uint64
	failed     map[forwarder.FailureReason]uint64
	lastStatus int
}

func NewStats() *Stats {
	return &Stats{
		failed: make(map[forwarder.FailureReason]uint64),
	}
}

func (s *Stats) IncrReceived() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received++
}

func (s *Stats) IncrMalformed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformed++
}

func (s *Stats) IncrSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

func (s *Stats) RecordOutcome(out forwarder.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if out.Delivered {
		s.delivered++
		s.lastStatus = out.HTTPStatus
		return
	}
	s.failed[out.Reason]++
}

func (s *Stats) Snapshot() models.RelayStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	failed := make(map[string]uint64, len(s.failed))
	for reason, n := range s.failed {
		failed[string(reason)] = n
	}

	return models.RelayStatus{
		Received:   s.received,
		Malformed:  s.malformed,
		Skipped:    s.skipped,
		Delivered:  s.delivered,
		Failed:     failed,
		LastStatus: s.lastStatus,
	}
}
