// Package analytics defines the entities and interfaces for the visitor
// analytics engine: sessions, page views, custom events, and consent records.
package analytics

import (
	"encoding/json"
	"time"
)

// Session represents one logical browsing session, keyed by the opaque
// token the web layer persists in the visitor's cookie.
type Session struct {
	SessionID  string    `json:"sessionId"`
	FirstSeen  time.Time `json:"firstSeen"`
	LastSeen   time.Time `json:"lastSeen"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	DeviceType string    `json:"deviceType"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	// IsReturning is computed once, when the session row is created, from
	// whether any other session shares the client IP. It is a heuristic and
	// is never retroactively corrected.
	IsReturning bool `json:"isReturning"`
	PageCount   int  `json:"pageCount"`
}

// PageView represents a single rendered page. Classification fields are
// copied from the classifier at ingestion time, not re-derived from the
// session, so historical rows stay stable if classification logic changes.
type PageView struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Title      string    `json:"title,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	ClientIP   string    `json:"clientIp,omitempty"`
	SessionID  string    `json:"sessionId"`
	TimeSpent  int       `json:"timeSpent,omitempty"`
	DeviceType string    `json:"deviceType,omitempty"`
	Browser    string    `json:"browser,omitempty"`
	OS         string    `json:"os,omitempty"`
	Country    string    `json:"country,omitempty"`
	City       string    `json:"city,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Event represents a custom interaction record (click, form submit, scroll)
// distinct from a raw page view.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	EventType string          `json:"eventType"`
	EventName string          `json:"eventName,omitempty"`
	PagePath  string          `json:"pagePath,omitempty"`
	ElementID string          `json:"elementId,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ConsentLog is one entry in the append-only audit trail of consent
// decisions. These rows are retained even after a subject erasure.
type ConsentLog struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	ClientIP    string    `json:"clientIp,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	ConsentType string    `json:"consentType"`
	Categories  []string  `json:"categories"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RequestMeta carries the per-request attributes the session store needs.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// CountStat is a generic (label, count) pair used by the grouped rollups.
type CountStat struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// PageStat is one entry in the popular-pages rollup.
type PageStat struct {
	Path  string `json:"path"`
	Views int    `json:"views"`
}

// DailyTraffic is one point in the traffic-by-day series. Date is a UTC
// calendar date in YYYY-MM-DD form; days with zero views are omitted.
type DailyTraffic struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// SummaryReport is the aggregate rollup consumed by the operator dashboard.
type SummaryReport struct {
	TotalViews         int         `json:"totalViews"`
	UniqueSessions     int         `json:"uniqueSessions"`
	PopularPages       []PageStat  `json:"popularPages"`
	DeviceStats        []CountStat `json:"deviceStats"`
	BrowserStats       []CountStat `json:"browserStats"`
	ReferrerStats      []CountStat `json:"referrerStats"`
	NewVisitors        int         `json:"newVisitors"`
	ReturningVisitors  int         `json:"returningVisitors"`
	AvgPagesPerSession float64     `json:"avgPagesPerSession"`
}

// SubjectData is the flat export document for a privacy data request.
type SubjectData struct {
	SessionID      string        `json:"sessionId"`
	ExportDate     time.Time     `json:"exportDate"`
	Session        *Session      `json:"session,omitempty"`
	PageViews      []*PageView   `json:"pageViews"`
	Events         []*Event      `json:"events"`
	ConsentHistory []*ConsentLog `json:"consentHistory"`
}
