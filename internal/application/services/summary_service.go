package services

import (
	"context"
	"time"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
	"github.com/FernworksMedia/sitepulse-go/pkg/config"
)

const (
	popularPagesLimit        = 10
	browserStatsLimit        = 10
	referrerLimit            = 10
	defaultRecentEventsLimit = 20
)

// SummaryService is the read path: it assembles the traffic rollups the
// dashboard renders from the grouped repository queries.
type SummaryService struct {
	sessions    analytics.SessionRepository
	pageViews   analytics.PageViewRepository
	events      analytics.EventRepository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSummaryService creates a new summary service
func NewSummaryService(
	sessions analytics.SessionRepository,
	pageViews analytics.PageViewRepository,
	events analytics.EventRepository,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *SummaryService {
	return &SummaryService{
		sessions:    sessions,
		pageViews:   pageViews,
		events:      events,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Summary assembles the full traffic report for the trailing window of
// the given number of days. A non-positive days value falls back to the
// configured default window.
func (s *SummaryService) Summary(ctx context.Context, days int) (*analytics.SummaryReport, error) {
	marker := s.perfTracker.StartOperation("analytics_summary")
	defer marker.Complete()

	if days <= 0 {
		days = config.DefaultSummaryDays
	}
	marker.AddMetadata("windowDays", days)
	cutoff := windowCutoff(days)

	acquireDB()
	defer releaseDB()

	opCtx, cancel := context.WithTimeout(ctx, config.DBOperationTimeout)
	defer cancel()

	report := &analytics.SummaryReport{}

	var err error
	if report.TotalViews, err = s.pageViews.CountSince(opCtx, cutoff); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if report.UniqueSessions, err = s.pageViews.CountDistinctSessionsSince(opCtx, cutoff); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if report.PopularPages, err = s.pageViews.TopPagesSince(opCtx, cutoff, popularPagesLimit); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if report.DeviceStats, err = s.pageViews.CountByDeviceSince(opCtx, cutoff); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if report.BrowserStats, err = s.pageViews.CountByBrowserSince(opCtx, cutoff, browserStatsLimit); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if report.ReferrerStats, err = s.pageViews.CountByReferrerSince(opCtx, cutoff, referrerLimit); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if report.NewVisitors, err = s.sessions.CountByFirstSeen(opCtx, cutoff, false); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if report.ReturningVisitors, err = s.sessions.CountByFirstSeen(opCtx, cutoff, true); err != nil {
		marker.SetError(err)
		return nil, err
	}
	if report.AvgPagesPerSession, err = s.sessions.AvgPageCount(opCtx, cutoff); err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	s.logger.WithOperation(logging.ChannelAnalytics, "summary").Info("Summary assembled",
		"days", days,
		"totalViews", report.TotalViews,
		"uniqueSessions", report.UniqueSessions)
	return report, nil
}

// DailyTraffic returns the per-day view counts for the trailing window.
// Days with no recorded views are absent from the series.
func (s *SummaryService) DailyTraffic(ctx context.Context, days int) ([]analytics.DailyTraffic, error) {
	marker := s.perfTracker.StartOperation("daily_traffic")
	defer marker.Complete()

	if days <= 0 {
		days = config.DefaultSummaryDays
	}

	acquireDB()
	defer releaseDB()

	opCtx, cancel := context.WithTimeout(ctx, config.DBOperationTimeout)
	defer cancel()

	series, err := s.pageViews.DailyViewsSince(opCtx, windowCutoff(days))
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	return series, nil
}

// RecentEvents returns the newest interaction events, up to the given
// limit. A non-positive limit falls back to the default of 20.
func (s *SummaryService) RecentEvents(ctx context.Context, limit int) ([]*analytics.Event, error) {
	if limit <= 0 {
		limit = defaultRecentEventsLimit
	}

	acquireDB()
	defer releaseDB()

	opCtx, cancel := context.WithTimeout(ctx, config.DBOperationTimeout)
	defer cancel()

	return s.events.FindRecent(opCtx, limit)
}

func windowCutoff(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}
