// Package database provides schema bootstrap for the analytics store
package database

import (
	"database/sql"
	"fmt"
)

// TableCreator handles the creation of the analytics database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the analytics tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// Sessions are keyed by the opaque client-held token. Page views, events,
// and consent entries reference sessions by value only; no foreign keys are
// declared so orphaned references remain queryable.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		first_seen TIMESTAMP NOT NULL,
		last_seen TIMESTAMP NOT NULL,
		client_ip TEXT,
		user_agent TEXT,
		device_type TEXT,
		browser TEXT,
		os TEXT,
		is_returning BOOLEAN NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS page_views (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		title TEXT,
		referrer TEXT,
		user_agent TEXT,
		client_ip TEXT,
		session_id TEXT,
		time_spent INTEGER DEFAULT 0,
		device_type TEXT,
		browser TEXT,
		os TEXT,
		country TEXT,
		city TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		event_name TEXT,
		page_path TEXT,
		element_id TEXT,
		event_data TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS consent_log (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		client_ip TEXT,
		user_agent TEXT,
		consent_type TEXT NOT NULL,
		categories_accepted TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_sessions_client_ip ON sessions(client_ip)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_first_seen ON sessions(first_seen)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen)`,
	`CREATE INDEX IF NOT EXISTS idx_page_views_path ON page_views(path)`,
	`CREATE INDEX IF NOT EXISTS idx_page_views_session_id ON page_views(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_page_views_created_at ON page_views(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_consent_log_session_id ON consent_log(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_consent_log_created_at ON consent_log(created_at)`,
}
