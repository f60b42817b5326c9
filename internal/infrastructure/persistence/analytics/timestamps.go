// Package analytics provides the concrete SQL-based implementations of the
// analytics repositories (Session, PageView, Event, ConsentLog).
package analytics

import (
	"fmt"
	"time"
)

// sqliteTimeFormat is the storage format for all timestamp columns. Values
// are written in UTC so that date() grouping yields UTC calendar dates.
const sqliteTimeFormat = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}

// parseTimestamp handles the timestamp formats that can appear in stored
// rows, including values written by sqlite's CURRENT_TIMESTAMP default.
func parseTimestamp(timestampStr string) (time.Time, error) {
	if t, err := time.Parse(sqliteTimeFormat, timestampStr); err == nil {
		return t.UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, timestampStr); err == nil {
		return t.UTC(), nil
	}

	if t, err := time.Parse("2006-01-02T15:04:05.000Z", timestampStr); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp format: %s", timestampStr)
}
