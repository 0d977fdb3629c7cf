package state

import (
	"fmt"
	"sync"
	"time"
)

// offlineThreshold is the number of consecutive failed probes after which
// the API is shown as offline.
const offlineThreshold = 2

// Snapshot represents the latest backend reachability seen by the poller.
type Snapshot struct {
	Message             string // body of the last successful health probe
	Reachable           bool
	LastUpdated         time.Time
	LastSuccess         time.Time
	LastError           error
	ConsecutiveFailures int
	Latency             time.Duration
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= offlineThreshold
}

// Known reports whether at least one probe has completed.
func (s Snapshot) Known() bool {
	return !s.LastUpdated.IsZero()
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Update records the outcome of one health probe. On failure the last
// message is kept and the failure counter grows.
func (s *Store) Update(message string, latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.snapshot.LastUpdated = now
	s.snapshot.Latency = latency
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.Reachable = false
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Message = message
	s.snapshot.Reachable = true
	s.snapshot.LastSuccess = now
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
