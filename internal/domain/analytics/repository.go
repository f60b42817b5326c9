package analytics

import (
	"context"
	"time"
)

// SessionRepository defines the operations for persisting Session entities.
type SessionRepository interface {
	// FindBySessionID returns the session for the given id, or nil when absent.
	FindBySessionID(ctx context.Context, sessionID string) (*Session, error)

	// ExistsByClientIP reports whether any session row carries the given IP.
	ExistsByClientIP(ctx context.Context, clientIP string) (bool, error)

	// Create inserts a new session row. A UNIQUE violation on session_id is
	// surfaced to the caller unmodified so it can fall back to Touch.
	Create(ctx context.Context, session *Session) error

	// Touch sets last_seen and increments page_count atomically at the
	// storage layer.
	Touch(ctx context.Context, sessionID string, lastSeen time.Time) error

	// CountByFirstSeen counts sessions whose first_seen falls on or after
	// cutoff, partitioned by the is_returning flag.
	CountByFirstSeen(ctx context.Context, cutoff time.Time, returning bool) (int, error)

	// AvgPageCount returns the mean page_count over sessions whose first_seen
	// falls on or after cutoff, and 0 when no such sessions exist.
	AvgPageCount(ctx context.Context, cutoff time.Time) (float64, error)

	// DeleteBySessionID removes the session row, reporting how many rows went.
	DeleteBySessionID(ctx context.Context, sessionID string) (int64, error)
}

// PageViewRepository defines the operations for persisting PageView entities.
type PageViewRepository interface {
	Create(ctx context.Context, view *PageView) error
	FindBySessionID(ctx context.Context, sessionID string) ([]*PageView, error)

	CountSince(ctx context.Context, cutoff time.Time) (int, error)
	CountDistinctSessionsSince(ctx context.Context, cutoff time.Time) (int, error)
	TopPagesSince(ctx context.Context, cutoff time.Time, limit int) ([]PageStat, error)
	CountByDeviceSince(ctx context.Context, cutoff time.Time) ([]CountStat, error)
	CountByBrowserSince(ctx context.Context, cutoff time.Time, limit int) ([]CountStat, error)
	CountByReferrerSince(ctx context.Context, cutoff time.Time, limit int) ([]CountStat, error)
	DailyViewsSince(ctx context.Context, cutoff time.Time) ([]DailyTraffic, error)

	DeleteBySessionID(ctx context.Context, sessionID string) (int64, error)
}

// EventRepository defines the operations for persisting Event entities.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	FindBySessionID(ctx context.Context, sessionID string) ([]*Event, error)
	FindRecent(ctx context.Context, limit int) ([]*Event, error)
	DeleteBySessionID(ctx context.Context, sessionID string) (int64, error)
}

// ConsentRepository defines the operations for the append-only consent log.
// There is deliberately no delete: consent history outlives subject erasure.
type ConsentRepository interface {
	Create(ctx context.Context, entry *ConsentLog) error
	FindBySessionID(ctx context.Context, sessionID string) ([]*ConsentLog, error)
}
