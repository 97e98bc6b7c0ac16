package cycle_test

import (
	"testing"
	"time"

	"github.com/wordcoach/wordcoach/domain/cycle"
)

func TestHistoricalWindows_AnnualYearCoverage(t *testing.T) {
	// Annual plan anchored on the 26th: 12 windows must tile the whole year
	// with no gaps and no overlaps.
	sub := annualSub(time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC))
	now := time.Date(2024, 12, 27, 0, 0, 0, 0, time.UTC)

	windows := cycle.HistoricalWindows(sub, now, 12)

	if len(windows) != 12 {
		t.Fatalf("len(windows) = %d, want 12", len(windows))
	}

	// Most-recent-first: index 0 is the current cycle.
	if got, want := windows[0].Start, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("windows[0].Start = %v, want %v", got, want)
	}
	if got, want := windows[0].End, time.Date(2025, 1, 26, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("windows[0].End = %v, want %v", got, want)
	}

	// Contiguity: each older window ends exactly where the newer one starts.
	for i := 1; i < len(windows); i++ {
		if !windows[i].End.Equal(windows[i-1].Start) {
			t.Errorf("windows[%d].End = %v, want %v (contiguous with windows[%d])",
				i, windows[i].End, windows[i-1].Start, i-1)
		}
		if !windows[i].Start.Before(windows[i].End) {
			t.Errorf("windows[%d] is empty or inverted: [%v, %v)", i, windows[i].Start, windows[i].End)
		}
	}

	// Union covers the full year back to the period start.
	if got, want := windows[11].Start, time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("oldest window starts at %v, want %v", got, want)
	}
}

func TestHistoricalWindows_Monthly(t *testing.T) {
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	sub := monthlySub(start, end)

	windows := cycle.HistoricalWindows(sub, start.AddDate(0, 0, 5), 3)

	if len(windows) != 3 {
		t.Fatalf("len(windows) = %d, want 3", len(windows))
	}
	if !windows[0].Start.Equal(start) || !windows[0].End.Equal(end) {
		t.Errorf("windows[0] = [%v, %v), want current billing period", windows[0].Start, windows[0].End)
	}
	if got, want := windows[1].Start, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("windows[1].Start = %v, want %v", got, want)
	}
	if got, want := windows[2].Start, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("windows[2].Start = %v, want %v", got, want)
	}
}

func TestHistoricalWindows_ClampedAnchor(t *testing.T) {
	// Anchor day 31 stepping back over February.
	sub := annualSub(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	windows := cycle.HistoricalWindows(sub, now, 4)

	wantStarts := []time.Time{
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), // clamped April boundary
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), // clamped leap February
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	for i, want := range wantStarts {
		if !windows[i].Start.Equal(want) {
			t.Errorf("windows[%d].Start = %v, want %v", i, windows[i].Start, want)
		}
	}
	for i := 1; i < len(windows); i++ {
		if !windows[i].End.Equal(windows[i-1].Start) {
			t.Errorf("windows[%d] not contiguous with windows[%d]", i, i-1)
		}
	}
}

func TestHistoricalWindows_ZeroCount(t *testing.T) {
	sub := monthlySub(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if got := cycle.HistoricalWindows(sub, time.Now(), 0); got != nil {
		t.Errorf("HistoricalWindows(0) = %v, want nil", got)
	}
}

func TestSummarizeTrend(t *testing.T) {
	tests := []struct {
		name      string
		totals    []int64
		wantTotal int64
		wantAvg   float64
		wantDir   cycle.TrendDirection
	}{
		{
			name:      "increasing",
			totals:    []int64{200, 100, 100}, // avg 133.3, threshold 13.3, delta +100
			wantTotal: 400,
			wantAvg:   400.0 / 3.0,
			wantDir:   cycle.TrendIncreasing,
		},
		{
			name:      "decreasing",
			totals:    []int64{100, 200, 100},
			wantTotal: 400,
			wantAvg:   400.0 / 3.0,
			wantDir:   cycle.TrendDecreasing,
		},
		{
			name:      "stable within threshold",
			totals:    []int64{105, 100, 95}, // avg 100, threshold 10, delta +5
			wantTotal: 300,
			wantAvg:   100,
			wantDir:   cycle.TrendStable,
		},
		{
			name:      "single cycle",
			totals:    []int64{500},
			wantTotal: 500,
			wantAvg:   500,
			wantDir:   cycle.TrendStable,
		},
		{
			name:    "empty",
			totals:  nil,
			wantDir: cycle.TrendStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cycle.SummarizeTrend(tt.totals)
			if got.TotalWords != tt.wantTotal {
				t.Errorf("TotalWords = %d, want %d", got.TotalWords, tt.wantTotal)
			}
			if got.AverageWords != tt.wantAvg {
				t.Errorf("AverageWords = %f, want %f", got.AverageWords, tt.wantAvg)
			}
			if got.Direction != tt.wantDir {
				t.Errorf("Direction = %s, want %s", got.Direction, tt.wantDir)
			}
		})
	}
}
