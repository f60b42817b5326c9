package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/persistence/database"
)

// SQLEventRepository handles custom interaction event persistence.
type SQLEventRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLEventRepository {
	return &SQLEventRepository{db: db, logger: logger}
}

// Create saves a new Event to the database. Metadata is stored as a
// JSON text column.
func (r *SQLEventRepository) Create(ctx context.Context, event *analytics.Event) error {
	const query = `
		INSERT INTO events (id, session_id, event_type, event_name, page_path, element_id, event_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var eventData any
	if len(event.Metadata) > 0 {
		eventData = string(event.Metadata)
	}

	start := time.Now()
	_, err := r.db.ExecContext(
		ctx,
		query,
		event.ID,
		event.SessionID,
		event.EventType,
		event.EventName,
		event.PagePath,
		event.ElementID,
		eventData,
		formatTime(event.CreatedAt),
	)
	if err != nil {
		r.logger.Database().Error("Event insert failed",
			"error", err.Error(),
			"eventId", event.ID,
			"eventType", event.EventType)
		return fmt.Errorf("failed to store event: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// FindBySessionID retrieves every event recorded for a session, oldest
// first. Used by the privacy export.
func (r *SQLEventRepository) FindBySessionID(ctx context.Context, sessionID string) ([]*analytics.Event, error) {
	const query = `
		SELECT id, session_id, event_type, event_name, page_path, element_id, event_data, created_at
		FROM events
		WHERE session_id = ?
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return r.scanEvents(rows)
}

// FindRecent retrieves the most recently recorded events, newest first.
func (r *SQLEventRepository) FindRecent(ctx context.Context, limit int) ([]*analytics.Event, error) {
	const query = `
		SELECT id, session_id, event_type, event_name, page_path, element_id, event_data, created_at
		FROM events
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return r.scanEvents(rows)
}

// DeleteBySessionID removes all events for the given session id.
func (r *SQLEventRepository) DeleteBySessionID(ctx context.Context, sessionID string) (int64, error) {
	const query = `DELETE FROM events WHERE session_id = ?`

	result, err := r.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLEventRepository) scanEvents(rows *sql.Rows) ([]*analytics.Event, error) {
	var events []*analytics.Event
	for rows.Next() {
		var event analytics.Event
		var eventName, pagePath, elementID, eventData sql.NullString
		var createdAtStr string

		err := rows.Scan(
			&event.ID,
			&event.SessionID,
			&event.EventType,
			&eventName,
			&pagePath,
			&elementID,
			&eventData,
			&createdAtStr,
		)
		if err != nil {
			return nil, err
		}

		event.EventName = eventName.String
		event.PagePath = pagePath.String
		event.ElementID = elementID.String
		if eventData.Valid && eventData.String != "" {
			event.Metadata = json.RawMessage(eventData.String)
		}

		event.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			r.logger.Database().Error("Failed to parse event timestamp", "error", err.Error(), "timestamp", createdAtStr)
			continue
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
