package cycle_test

import (
	"testing"
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/domain/cycle"
)

func monthlySub(start, end time.Time) billing.Subscription {
	return billing.Subscription{
		Interval:           billing.IntervalMonth,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
	}
}

func annualSub(start time.Time) billing.Subscription {
	return billing.Subscription{
		Interval:           billing.IntervalYear,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(1, 0, 0),
	}
}

func TestUsageWindow_Monthly(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	sub := monthlySub(start, end)

	w := cycle.UsageWindow(sub, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	if !w.Start.Equal(start) || !w.End.Equal(end) {
		t.Errorf("window = [%v, %v), want billing period [%v, %v)", w.Start, w.End, start, end)
	}
}

func TestUsageWindow_Annual(t *testing.T) {
	// Annual plan anchored on the 26th.
	sub := annualSub(time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "after anchor day",
			now:       time.Date(2024, 7, 27, 10, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 7, 26, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 8, 26, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "before anchor day",
			now:       time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 6, 26, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 7, 26, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "on anchor day",
			now:       time.Date(2024, 7, 26, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 7, 26, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 8, 26, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "window spans the annual boundary month",
			now:       time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 1, 26, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := cycle.UsageWindow(sub, tt.now)
			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", w.Start, tt.wantStart)
			}
			if !w.End.Equal(tt.wantEnd) {
				t.Errorf("End = %v, want %v", w.End, tt.wantEnd)
			}
			if !w.Contains(tt.now) {
				t.Errorf("window [%v, %v) does not contain now %v", w.Start, w.End, tt.now)
			}
		})
	}
}

func TestUsageWindow_AnnualAnchorClamping(t *testing.T) {
	// Anchor day 31 must clamp to the last day of shorter months.
	sub := annualSub(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))

	// Mid-April: the April boundary clamps to the 30th, so we are still in
	// the window that opened on March 31.
	w := cycle.UsageWindow(sub, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC))
	if got, want := w.Start, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Start = %v, want %v", got, want)
	}
	if got, want := w.End, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("End = %v, want %v", got, want)
	}

	// On the clamped boundary itself a new window opens.
	w = cycle.UsageWindow(sub, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC))
	if got, want := w.Start, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Start = %v, want %v", got, want)
	}
	if got, want := w.End, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("End = %v, want %v", got, want)
	}
}

func TestWindow_Contains(t *testing.T) {
	w := cycle.Window{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	if !w.Contains(w.Start) {
		t.Error("half-open window must contain its start")
	}
	if w.Contains(w.End) {
		t.Error("half-open window must not contain its end")
	}
	if w.Contains(w.Start.Add(-time.Second)) {
		t.Error("window must not contain instants before start")
	}
}

func TestWindow_DaysRemaining(t *testing.T) {
	w := cycle.Window{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"ten days left", time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC), 10},
		{"partial day rounds up", time.Date(2024, 3, 30, 18, 0, 0, 0, time.UTC), 1},
		{"window over", time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.DaysRemaining(tt.now); got != tt.want {
				t.Errorf("DaysRemaining = %d, want %d", got, tt.want)
			}
		})
	}
}
