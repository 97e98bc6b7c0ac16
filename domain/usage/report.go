package usage

import (
	"sort"
	"time"
)

// Entry is an event with its 1-based position in ascending-timestamp order.
type Entry struct {
	Event
	Order int
}

// Report aggregates usage over a half-open window [PeriodStart, PeriodEnd).
type Report struct {
	UserID                  string
	PeriodStart             time.Time
	PeriodEnd               time.Time
	TotalWordCount          int64
	RecordingCount          int64
	FirstRecordingCreatedAt *time.Time
	LastRecordingCreatedAt  *time.Time
	Entries                 []Entry
}

// BuildReport aggregates events inside [periodStart, periodEnd). Inactive and
// out-of-window events are dropped. Entries are ordered ascending by
// timestamp (ties broken by ID so the ordering is deterministic for identical
// input) and numbered from 1. An empty window yields a zero report, not an
// error.
// This is a PURE function.
func BuildReport(events []Event, periodStart, periodEnd time.Time) Report {
	report := Report{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}

	var inWindow []Event
	for _, e := range events {
		if !e.Active {
			continue
		}
		if e.CreatedAt.Before(periodStart) || !e.CreatedAt.Before(periodEnd) {
			continue
		}
		inWindow = append(inWindow, e)
	}

	if len(inWindow) == 0 {
		return report
	}

	sort.SliceStable(inWindow, func(i, j int) bool {
		if inWindow[i].CreatedAt.Equal(inWindow[j].CreatedAt) {
			return inWindow[i].ID < inWindow[j].ID
		}
		return inWindow[i].CreatedAt.Before(inWindow[j].CreatedAt)
	})

	report.UserID = inWindow[0].UserID
	report.Entries = make([]Entry, len(inWindow))
	for i, e := range inWindow {
		report.Entries[i] = Entry{Event: e, Order: i + 1}
		report.TotalWordCount += e.WordCount
	}
	report.RecordingCount = int64(len(inWindow))

	first := inWindow[0].CreatedAt
	last := inWindow[len(inWindow)-1].CreatedAt
	report.FirstRecordingCreatedAt = &first
	report.LastRecordingCreatedAt = &last

	return report
}
