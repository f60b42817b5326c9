// Package performance provides performance monitoring data structures and
// utilities for tracking operation timings across the analytics engine.
package performance

import (
	"sync"
	"time"
)

// Marker represents a single performance measurement for an operation.
// Markers live in the tracker's map while the operation runs, so every
// mutation after StartOperation takes the lock to stay safe against a
// concurrent stats read.
type Marker struct {
	mu sync.Mutex

	Operation string         `json:"operation"`       // e.g., "session:resolve", "analytics:summary"
	StartTime time.Time      `json:"startTime"`       // When the operation started
	EndTime   time.Time      `json:"endTime"`         // When the operation completed
	Duration  time.Duration  `json:"duration"`        // Total operation duration
	Success   bool           `json:"success"`         // Whether the operation completed successfully
	Error     string         `json:"error,omitempty"` // Error message if operation failed
	Metadata  map[string]any `json:"metadata"`        // Additional operation-specific data
	Completed bool           `json:"completed"`       // Whether Complete() has been called
}

// Complete marks the operation as finished and calculates final metrics
func (m *Marker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Completed {
		return // Prevent double completion
	}

	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Success = success
}

// SetError sets an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Error = err.Error()
	m.Success = false
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// snapshot returns the fields stats aggregation reads, under the lock.
func (m *Marker) snapshot() (operation string, completed, success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Operation, m.Completed, m.Success, m.Duration
}
