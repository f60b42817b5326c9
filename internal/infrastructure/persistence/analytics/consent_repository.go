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

// SQLConsentRepository handles consent decision persistence. Consent
// records are append-only: there is deliberately no delete operation,
// the decision trail must survive erasure requests.
type SQLConsentRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLConsentRepository creates a new instance of the repository.
func NewSQLConsentRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLConsentRepository {
	return &SQLConsentRepository{db: db, logger: logger}
}

// Create saves a new ConsentLog entry. Categories are stored as a JSON
// array in a text column.
func (r *SQLConsentRepository) Create(ctx context.Context, entry *analytics.ConsentLog) error {
	const query = `
		INSERT INTO consent_log (id, session_id, client_ip, user_agent, consent_type, categories_accepted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	categoriesJSON, err := json.Marshal(entry.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal consent categories: %w", err)
	}

	start := time.Now()
	_, err = r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.SessionID,
		entry.ClientIP,
		entry.UserAgent,
		entry.ConsentType,
		string(categoriesJSON),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		r.logger.Database().Error("Consent insert failed",
			"error", err.Error(),
			"consentId", entry.ID,
			"consentType", entry.ConsentType)
		return fmt.Errorf("failed to store consent record: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// FindBySessionID retrieves every consent decision recorded for a
// session, oldest first.
func (r *SQLConsentRepository) FindBySessionID(ctx context.Context, sessionID string) ([]*analytics.ConsentLog, error) {
	const query = `
		SELECT id, session_id, client_ip, user_agent, consent_type, categories_accepted, created_at
		FROM consent_log
		WHERE session_id = ?
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query consent records: %w", err)
	}
	defer rows.Close()

	var entries []*analytics.ConsentLog
	for rows.Next() {
		var entry analytics.ConsentLog
		var clientIP, userAgent, categoriesJSON sql.NullString
		var createdAtStr string

		err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&clientIP,
			&userAgent,
			&entry.ConsentType,
			&categoriesJSON,
			&createdAtStr,
		)
		if err != nil {
			return nil, err
		}

		entry.ClientIP = clientIP.String
		entry.UserAgent = userAgent.String
		if categoriesJSON.Valid && categoriesJSON.String != "" {
			if err := json.Unmarshal([]byte(categoriesJSON.String), &entry.Categories); err != nil {
				r.logger.Database().Error("Failed to parse consent categories", "error", err.Error(), "consentId", entry.ID)
			}
		}

		entry.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			r.logger.Database().Error("Failed to parse consent timestamp", "error", err.Error(), "timestamp", createdAtStr)
			continue
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
