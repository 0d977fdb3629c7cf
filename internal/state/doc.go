// Package state provides thread-safe state shared between the health poller
// and the dashboard.
//
// # Overview
//
// The poller probes the backend root endpoint on an interval and records
// each outcome in a Store. The UI reads a Snapshot on every clock tick to
// draw the API ON/OFF badge in the header.
//
//	Producer (poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ client.Ping()  │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │  render header  │
//	└────────────────┘            └─────────────────┘
//
// # Update Semantics
//
//	// Success: message replaced, failures reset
//	store.Update(msg, latency, nil)
//
//	// Failure: message kept, error recorded, failures incremented
//	store.Update("", latency, err)
//
// IsOffline reports true once two probes in a row have failed, so a single
// dropped request does not flip the header.
//
// # Concurrency Model
//
// Update takes the write lock, Snapshot the read lock. Errors are re-wrapped
// on read so callers never share the stored error value.
package state
