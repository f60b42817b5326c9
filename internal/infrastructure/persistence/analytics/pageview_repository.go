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

// SQLPageViewRepository handles page view persistence and the grouped
// rollup queries the dashboard consumes.
type SQLPageViewRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLPageViewRepository creates a new instance of the repository.
func NewSQLPageViewRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLPageViewRepository {
	return &SQLPageViewRepository{db: db, logger: logger}
}

// Create saves a new PageView to the database.
func (r *SQLPageViewRepository) Create(ctx context.Context, view *analytics.PageView) error {
	const query = `
		INSERT INTO page_views (id, path, title, referrer, user_agent, client_ip, session_id,
		                        time_spent, device_type, browser, os, country, city, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing page view insert",
		"pageViewId", view.ID,
		"path", view.Path,
		"sessionId", view.SessionID)

	_, err := r.db.ExecContext(
		ctx,
		query,
		view.ID,
		view.Path,
		view.Title,
		view.Referrer,
		view.UserAgent,
		view.ClientIP,
		view.SessionID,
		view.TimeSpent,
		view.DeviceType,
		view.Browser,
		view.OS,
		view.Country,
		view.City,
		formatTime(view.CreatedAt),
	)
	if err != nil {
		r.logger.Database().Error("Page view insert failed",
			"error", err.Error(),
			"pageViewId", view.ID,
			"path", view.Path)
		return fmt.Errorf("failed to store page view: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// FindBySessionID retrieves every page view recorded for a session,
// oldest first. Used by the privacy export.
func (r *SQLPageViewRepository) FindBySessionID(ctx context.Context, sessionID string) ([]*analytics.PageView, error) {
	const query = `
		SELECT id, path, title, referrer, user_agent, client_ip, session_id,
		       time_spent, device_type, browser, os, country, city, created_at
		FROM page_views
		WHERE session_id = ?
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query page views: %w", err)
	}
	defer rows.Close()

	var views []*analytics.PageView
	for rows.Next() {
		var view analytics.PageView
		var title, referrer, userAgent, clientIP, deviceType, browser, osName, country, city sql.NullString
		var timeSpent sql.NullInt64
		var createdAtStr string

		err := rows.Scan(
			&view.ID,
			&view.Path,
			&title,
			&referrer,
			&userAgent,
			&clientIP,
			&view.SessionID,
			&timeSpent,
			&deviceType,
			&browser,
			&osName,
			&country,
			&city,
			&createdAtStr,
		)
		if err != nil {
			return nil, err
		}

		view.Title = title.String
		view.Referrer = referrer.String
		view.UserAgent = userAgent.String
		view.ClientIP = clientIP.String
		view.TimeSpent = int(timeSpent.Int64)
		view.DeviceType = deviceType.String
		view.Browser = browser.String
		view.OS = osName.String
		view.Country = country.String
		view.City = city.String

		view.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			r.logger.Database().Error("Failed to parse page view timestamp", "error", err.Error(), "timestamp", createdAtStr)
			continue
		}

		views = append(views, &view)
	}

	return views, rows.Err()
}

// CountSince counts page views created on or after the cutoff.
func (r *SQLPageViewRepository) CountSince(ctx context.Context, cutoff time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM page_views WHERE created_at >= ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, formatTime(cutoff)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count page views: %w", err)
	}
	return count, nil
}

// CountDistinctSessionsSince counts distinct session ids among page views
// in the window. No join against sessions: orphaned references count too.
func (r *SQLPageViewRepository) CountDistinctSessionsSince(ctx context.Context, cutoff time.Time) (int, error) {
	const query = `SELECT COUNT(DISTINCT session_id) FROM page_views WHERE created_at >= ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, formatTime(cutoff)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct sessions: %w", err)
	}
	return count, nil
}

// TopPagesSince returns the most viewed paths in the window, ties broken
// by path ascending for deterministic output.
func (r *SQLPageViewRepository) TopPagesSince(ctx context.Context, cutoff time.Time, limit int) ([]analytics.PageStat, error) {
	const query = `
		SELECT path, COUNT(*) AS views
		FROM page_views
		WHERE created_at >= ?
		GROUP BY path
		ORDER BY views DESC, path ASC
		LIMIT ?`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, formatTime(cutoff), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top pages: %w", err)
	}
	defer rows.Close()

	var stats []analytics.PageStat
	for rows.Next() {
		var stat analytics.PageStat
		if err := rows.Scan(&stat.Path, &stat.Views); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return stats, rows.Err()
}

// CountByDeviceSince groups page views in the window by device_type,
// skipping rows with no classification.
func (r *SQLPageViewRepository) CountByDeviceSince(ctx context.Context, cutoff time.Time) ([]analytics.CountStat, error) {
	const query = `
		SELECT device_type, COUNT(*) AS count
		FROM page_views
		WHERE created_at >= ? AND device_type IS NOT NULL AND device_type != ''
		GROUP BY device_type
		ORDER BY count DESC, device_type ASC`

	return r.queryCountStats(ctx, query, formatTime(cutoff))
}

// CountByBrowserSince groups page views in the window by browser,
// limited to the top entries by count.
func (r *SQLPageViewRepository) CountByBrowserSince(ctx context.Context, cutoff time.Time, limit int) ([]analytics.CountStat, error) {
	const query = `
		SELECT browser, COUNT(*) AS count
		FROM page_views
		WHERE created_at >= ? AND browser IS NOT NULL AND browser != ''
		GROUP BY browser
		ORDER BY count DESC, browser ASC
		LIMIT ?`

	return r.queryCountStats(ctx, query, formatTime(cutoff), limit)
}

// CountByReferrerSince groups page views in the window by non-empty
// referrer, limited to the top entries by count.
func (r *SQLPageViewRepository) CountByReferrerSince(ctx context.Context, cutoff time.Time, limit int) ([]analytics.CountStat, error) {
	const query = `
		SELECT referrer, COUNT(*) AS count
		FROM page_views
		WHERE created_at >= ? AND referrer IS NOT NULL AND referrer != ''
		GROUP BY referrer
		ORDER BY count DESC, referrer ASC
		LIMIT ?`

	return r.queryCountStats(ctx, query, formatTime(cutoff), limit)
}

// DailyViewsSince groups page views in the window by UTC calendar date.
// Days without views produce no row; callers fill gaps if they need a
// continuous series.
func (r *SQLPageViewRepository) DailyViewsSince(ctx context.Context, cutoff time.Time) ([]analytics.DailyTraffic, error) {
	const query = `
		SELECT date(created_at) AS day, COUNT(*) AS views
		FROM page_views
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day ASC`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily views: %w", err)
	}
	defer rows.Close()

	var series []analytics.DailyTraffic
	for rows.Next() {
		var point analytics.DailyTraffic
		if err := rows.Scan(&point.Date, &point.Views); err != nil {
			return nil, err
		}
		series = append(series, point)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return series, rows.Err()
}

// DeleteBySessionID removes all page views for the given session id.
func (r *SQLPageViewRepository) DeleteBySessionID(ctx context.Context, sessionID string) (int64, error) {
	const query = `DELETE FROM page_views WHERE session_id = ?`

	result, err := r.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete page views: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLPageViewRepository) queryCountStats(ctx context.Context, query string, args ...any) ([]analytics.CountStat, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped counts: %w", err)
	}
	defer rows.Close()

	var stats []analytics.CountStat
	for rows.Next() {
		var stat analytics.CountStat
		if err := rows.Scan(&stat.Label, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return stats, rows.Err()
}
