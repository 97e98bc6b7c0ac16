package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/domain/cycle"
	"github.com/wordcoach/wordcoach/domain/quota"
	"github.com/wordcoach/wordcoach/domain/usage"
	"github.com/wordcoach/wordcoach/ports"
)

// CycleAnalytics is the derived read model for the current usage cycle.
type CycleAnalytics struct {
	Subscription     billing.Subscription
	Report           usage.Report
	WordLimit        int64 // 0 means unlimited
	UsagePercentage  float64
	RemainingWords   int64 // -1 when unlimited
	HasExceededLimit bool
	Warning          quota.WarningLevel
	DaysRemaining    int
}

// HistoricalCycle is one past usage window with its aggregated report.
type HistoricalCycle struct {
	Window cycle.Window
	Report usage.Report
}

// UsageHistory is the read model for past cycles, most recent first.
type UsageHistory struct {
	Subscription billing.Subscription
	Cycles       []HistoricalCycle
	Trend        cycle.TrendSummary
}

// AnalyticsService derives usage windows and reports from the canonical
// subscription. Nothing here is persisted; every read derives from the
// provider's period fields and the usage event log.
type AnalyticsService struct {
	subscriptions *SubscriptionService
	usage         ports.UsageStore
	clock         ports.Clock
	idGen         ports.IDGenerator
	logger        zerolog.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(
	subscriptions *SubscriptionService,
	usageStore ports.UsageStore,
	clock ports.Clock,
	idGen ports.IDGenerator,
	logger zerolog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		subscriptions: subscriptions,
		usage:         usageStore,
		clock:         clock,
		idGen:         idGen,
		logger:        logger,
	}
}

// RecordUsage appends a word-usage event for a recording.
func (s *AnalyticsService) RecordUsage(ctx context.Context, userID string, wordCount int64) (usage.Event, error) {
	event := usage.NewEvent(s.idGen.New(), userID, wordCount, s.clock.Now())
	if err := s.usage.Record(ctx, event); err != nil {
		return usage.Event{}, err
	}
	return event, nil
}

// CurrentCycle returns the usage report and derived analytics for the
// user's current cycle.
func (s *AnalyticsService) CurrentCycle(ctx context.Context, userID string) (CycleAnalytics, error) {
	sub, err := s.subscriptions.Current(ctx, userID)
	if err != nil {
		return CycleAnalytics{}, err
	}

	now := s.clock.Now()
	window := cycle.UsageWindow(sub, now)

	events, err := s.usage.ListRange(ctx, userID, window.Start, window.End)
	if err != nil {
		return CycleAnalytics{}, err
	}
	report := usage.BuildReport(events, window.Start, window.End)
	report.UserID = userID

	result := quota.Evaluate(sub.WordLimit, report.TotalWordCount)
	return CycleAnalytics{
		Subscription:     sub,
		Report:           report,
		WordLimit:        result.Limit,
		UsagePercentage:  result.PercentUsed,
		RemainingWords:   result.Remaining,
		HasExceededLimit: result.Exceeded,
		Warning:          result.WarningLevel,
		DaysRemaining:    window.DaysRemaining(now),
	}, nil
}

// History returns aggregated reports for the most recent count cycles plus a
// trend summary. Count is clamped to [1, 24].
func (s *AnalyticsService) History(ctx context.Context, userID string, count int) (UsageHistory, error) {
	if count < 1 {
		count = 1
	}
	if count > 24 {
		count = 24
	}

	sub, err := s.subscriptions.Current(ctx, userID)
	if err != nil {
		return UsageHistory{}, err
	}

	windows := cycle.HistoricalWindows(sub, s.clock.Now(), count)

	history := UsageHistory{
		Subscription: sub,
		Cycles:       make([]HistoricalCycle, 0, len(windows)),
	}
	totals := make([]int64, 0, len(windows))
	for _, w := range windows {
		events, err := s.usage.ListRange(ctx, userID, w.Start, w.End)
		if err != nil {
			return UsageHistory{}, err
		}
		report := usage.BuildReport(events, w.Start, w.End)
		report.UserID = userID
		history.Cycles = append(history.Cycles, HistoricalCycle{Window: w, Report: report})
		totals = append(totals, report.TotalWordCount)
	}
	history.Trend = cycle.SummarizeTrend(totals)

	return history, nil
}
