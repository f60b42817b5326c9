package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/persistence/database"
)

// SQLSessionRepository is the SQL-based implementation of the SessionRepository.
type SQLSessionRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSessionRepository creates a new instance of the repository.
func NewSQLSessionRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLSessionRepository {
	return &SQLSessionRepository{db: db, logger: logger}
}

// FindBySessionID retrieves a Session by its client-held token.
func (r *SQLSessionRepository) FindBySessionID(ctx context.Context, sessionID string) (*analytics.Session, error) {
	const query = `
		SELECT session_id, first_seen, last_seen, client_ip, user_agent,
		       device_type, browser, os, is_returning, page_count
		FROM sessions
		WHERE session_id = ?`

	row := r.db.QueryRowContext(ctx, query, sessionID)
	return r.scanSession(row)
}

// ExistsByClientIP reports whether any session row carries the given IP.
func (r *SQLSessionRepository) ExistsByClientIP(ctx context.Context, clientIP string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM sessions WHERE client_ip = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, clientIP).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check sessions by client ip: %w", err)
	}
	return exists, nil
}

// Create inserts a new session row. UNIQUE violations on session_id are
// returned unmodified so the service layer can fall back to Touch.
func (r *SQLSessionRepository) Create(ctx context.Context, session *analytics.Session) error {
	const query = `
		INSERT INTO sessions (session_id, first_seen, last_seen, client_ip, user_agent,
		                      device_type, browser, os, is_returning, page_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := r.db.ExecContext(
		ctx,
		query,
		session.SessionID,
		formatTime(session.FirstSeen),
		formatTime(session.LastSeen),
		session.ClientIP,
		session.UserAgent,
		session.DeviceType,
		session.Browser,
		session.OS,
		session.IsReturning,
		session.PageCount,
	)
	if err != nil {
		return err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// Touch sets last_seen and increments page_count in a single statement so
// concurrent resolves against the same session do not lose updates.
func (r *SQLSessionRepository) Touch(ctx context.Context, sessionID string, lastSeen time.Time) error {
	const query = `
		UPDATE sessions
		SET last_seen = ?, page_count = page_count + 1
		WHERE session_id = ?`

	_, err := r.db.ExecContext(ctx, query, formatTime(lastSeen), sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// CountByFirstSeen counts sessions first seen on or after the cutoff,
// partitioned by the is_returning flag.
func (r *SQLSessionRepository) CountByFirstSeen(ctx context.Context, cutoff time.Time, returning bool) (int, error) {
	const query = `SELECT COUNT(*) FROM sessions WHERE first_seen >= ? AND is_returning = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, formatTime(cutoff), returning).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions by first_seen: %w", err)
	}
	return count, nil
}

// AvgPageCount returns the mean page_count over sessions first seen on or
// after cutoff. AVG over zero rows is NULL, which maps to 0 here.
func (r *SQLSessionRepository) AvgPageCount(ctx context.Context, cutoff time.Time) (float64, error) {
	const query = `SELECT AVG(page_count) FROM sessions WHERE first_seen >= ?`

	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, formatTime(cutoff)).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to compute avg page count: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// DeleteBySessionID removes the session row for the given id.
func (r *SQLSessionRepository) DeleteBySessionID(ctx context.Context, sessionID string) (int64, error) {
	const query = `DELETE FROM sessions WHERE session_id = ?`

	result, err := r.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}
	return result.RowsAffected()
}

// scanSession is a helper function to scan a sql.Row into a Session struct.
func (r *SQLSessionRepository) scanSession(row *sql.Row) (*analytics.Session, error) {
	var session analytics.Session
	var clientIP, userAgent, deviceType, browser, osName sql.NullString
	var firstSeenStr, lastSeenStr string

	err := row.Scan(
		&session.SessionID,
		&firstSeenStr,
		&lastSeenStr,
		&clientIP,
		&userAgent,
		&deviceType,
		&browser,
		&osName,
		&session.IsReturning,
		&session.PageCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}

	session.ClientIP = clientIP.String
	session.UserAgent = userAgent.String
	session.DeviceType = deviceType.String
	session.Browser = browser.String
	session.OS = osName.String

	session.FirstSeen, err = parseTimestamp(firstSeenStr)
	if err != nil {
		return nil, err
	}
	session.LastSeen, err = parseTimestamp(lastSeenStr)
	if err != nil {
		return nil, err
	}

	return &session, nil
}
