package cycle

import (
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
)

// HistoricalWindows derives count usage windows ordered most-recent-first
// (index 0 is the current cycle). Each window is one anchor-month step before
// its successor; adjacent windows share a boundary, so the sequence is
// contiguous and non-overlapping by construction.
func HistoricalWindows(sub billing.Subscription, now time.Time, count int) []Window {
	if count <= 0 {
		return nil
	}

	current := UsageWindow(sub, now)
	anchor := sub.CurrentPeriodStart.Day()
	ref := sub.CurrentPeriodStart

	windows := make([]Window, 0, count)
	windows = append(windows, current)

	year, month := current.Start.Year(), current.Start.Month()
	prevStart := current.Start
	for i := 1; i < count; i++ {
		boundary := anchorBoundary(year, month-time.Month(i), anchor, ref)
		windows = append(windows, Window{Start: boundary, End: prevStart})
		prevStart = boundary
	}

	return windows
}

// TrendDirection is a qualitative usage trend between recent cycles.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendSummary aggregates word usage across historical cycles.
type TrendSummary struct {
	TotalWords   int64
	AverageWords float64
	Direction    TrendDirection
}

// SummarizeTrend classifies usage direction from per-cycle word totals
// ordered most-recent-first. The two most recent cycles are compared against
// a threshold of 10% of the all-cycle average; smaller movements are stable.
// This is a PURE function.
func SummarizeTrend(totals []int64) TrendSummary {
	summary := TrendSummary{Direction: TrendStable}
	if len(totals) == 0 {
		return summary
	}

	for _, t := range totals {
		summary.TotalWords += t
	}
	summary.AverageWords = float64(summary.TotalWords) / float64(len(totals))

	if len(totals) >= 2 {
		threshold := summary.AverageWords * 0.10
		delta := float64(totals[0] - totals[1])
		switch {
		case delta > threshold:
			summary.Direction = TrendIncreasing
		case -delta > threshold:
			summary.Direction = TrendDecreasing
		}
	}

	return summary
}
