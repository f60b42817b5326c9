package performance

import (
	"fmt"
	"sync"
	"time"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers map[string]*Marker // Active and completed markers by unique ID
	mu      sync.RWMutex       // Protects concurrent access
	started time.Time          // When tracking started
	config  *TrackerConfig     // Tracker configuration
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers      int           `json:"maxMarkers"`      // Maximum number of markers to retain
	CleanupInterval time.Duration `json:"cleanupInterval"` // How often to clean up old data
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:      10000,
		CleanupInterval: time.Minute * 10,
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}

	return &Tracker{
		markers: make(map[string]*Marker),
		started: time.Now(),
		config:  config,
	}
}

// StartOperation creates and tracks a new performance marker for an operation
func (t *Tracker) StartOperation(operation string) *Marker {
	marker := &Marker{
		Operation: operation,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true, // Assume success until proven otherwise
	}

	markerID := fmt.Sprintf("%s_%d", operation, time.Now().UnixNano())

	t.mu.Lock()
	t.markers[markerID] = marker
	if len(t.markers) > t.config.MaxMarkers {
		t.evictOldestLocked()
	}
	t.mu.Unlock()

	return marker
}

// evictOldestLocked drops the oldest completed markers when the map is full.
// Caller must hold t.mu.
func (t *Tracker) evictOldestLocked() {
	var oldestID string
	var oldestStart time.Time

	for id, marker := range t.markers {
		if _, completed, _, _ := marker.snapshot(); !completed {
			continue
		}
		if oldestID == "" || marker.StartTime.Before(oldestStart) {
			oldestID = id
			oldestStart = marker.StartTime
		}
	}

	if oldestID != "" {
		delete(t.markers, oldestID)
	}
}

// OperationStats summarizes completed markers for one operation name.
type OperationStats struct {
	Operation     string        `json:"operation"`
	Count         int           `json:"count"`
	Failures      int           `json:"failures"`
	TotalDuration time.Duration `json:"totalDuration"`
	MaxDuration   time.Duration `json:"maxDuration"`
}

// GetStats aggregates completed markers per operation name.
func (t *Tracker) GetStats() map[string]*OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := make(map[string]*OperationStats)
	for _, marker := range t.markers {
		operation, completed, success, duration := marker.snapshot()
		if !completed {
			continue
		}

		s, ok := stats[operation]
		if !ok {
			s = &OperationStats{Operation: operation}
			stats[operation] = s
		}

		s.Count++
		if !success {
			s.Failures++
		}
		s.TotalDuration += duration
		if duration > s.MaxDuration {
			s.MaxDuration = duration
		}
	}

	return stats
}

// Uptime returns how long the tracker has been running.
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
