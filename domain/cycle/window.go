// Package cycle provides pure billing-cycle and usage-window calculus.
// All functions are pure - no side effects, no caching; callers pass "now".
package cycle

import (
	"math"
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
)

// Window is a half-open time range [Start, End) over which word usage is
// measured. Windows are derived values and are never persisted.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the half-open window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DaysRemaining returns the number of whole-or-partial days until the window
// ends, never negative.
func (w Window) DaysRemaining(now time.Time) int {
	remaining := w.End.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// UsageWindow derives the word-usage window for a subscription at a given
// instant.
//
// Monthly subscriptions use the billing period directly. Annual subscriptions
// track usage monthly regardless of billing: the window runs between
// consecutive anchor-day boundaries, where the anchor day is the day-of-month
// the current billing period started on. An anchor day past the end of a
// short month clamps to that month's last day instead of rolling over.
func UsageWindow(sub billing.Subscription, now time.Time) Window {
	if sub.Interval != billing.IntervalYear {
		return Window{Start: sub.CurrentPeriodStart, End: sub.CurrentPeriodEnd}
	}

	anchor := sub.CurrentPeriodStart.Day()
	ref := sub.CurrentPeriodStart
	now = now.In(ref.Location())

	start := anchorBoundary(now.Year(), now.Month(), anchor, ref)
	if now.Before(start) {
		start = anchorBoundary(now.Year(), now.Month()-1, anchor, ref)
	}
	end := anchorBoundary(start.Year(), start.Month()+1, anchor, ref)

	return Window{Start: start, End: end}
}

// anchorBoundary returns the anchor-day instant in the given month, clamped
// to the month's last day, carrying the reference's time-of-day and location.
// Month values outside 1..12 are normalized.
func anchorBoundary(year int, month time.Month, anchorDay int, ref time.Time) time.Time {
	for month > 12 {
		month -= 12
		year++
	}
	for month < 1 {
		month += 12
		year--
	}

	day := anchorDay
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
}

// daysIn returns the number of days in a month. Day 0 of the following month
// normalizes to this month's last day.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
