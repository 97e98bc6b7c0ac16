package billing_test

import (
	"testing"
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
)

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		target  int64
		want    billing.ChangeType
	}{
		{"upgrade", 1000, 3000, billing.ChangeTypeUpgrade},
		{"downgrade", 3000, 1000, billing.ChangeTypeDowngrade},
		{"same", 1000, 1000, billing.ChangeTypeSame},
		{"free to paid", 0, 500, billing.ChangeTypeUpgrade},
		{"paid to free", 500, 0, billing.ChangeTypeDowngrade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.ClassifyChange(tt.current, tt.target)
			if got != tt.want {
				t.Errorf("ClassifyChange(%d, %d) = %s, want %s", tt.current, tt.target, got, tt.want)
			}
		})
	}
}

func TestProrationCharge(t *testing.T) {
	// 30-day period with 10 days remaining, $10 -> $30 upgrade.
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)
	now := end.AddDate(0, 0, -10)

	charge := billing.ProrationCharge(1000, 3000, start, end, now)
	if charge != 667 { // round(2000 * 10/30)
		t.Errorf("ProrationCharge = %d, want 667", charge)
	}
}

func TestProrationCharge_NonPositiveDelta(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	now := start.AddDate(0, 0, 15)

	if got := billing.ProrationCharge(3000, 1000, start, end, now); got != 0 {
		t.Errorf("downgrade charge = %d, want 0", got)
	}
	if got := billing.ProrationCharge(1000, 1000, start, end, now); got != 0 {
		t.Errorf("same-price charge = %d, want 0", got)
	}
}

func TestProrationCharge_PeriodExpired(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	now := end.AddDate(0, 0, 1)

	if got := billing.ProrationCharge(1000, 3000, start, end, now); got != 0 {
		t.Errorf("charge after period end = %d, want 0", got)
	}
}

func TestProrationCharge_FullPeriodRemaining(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)

	// At the very start of the period the full delta is due.
	if got := billing.ProrationCharge(1000, 3000, start, end, start); got != 2000 {
		t.Errorf("charge at period start = %d, want 2000", got)
	}
}

func TestPreviewChange_Upgrade(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := billing.Subscription{
		PriceID:            "price_basic",
		Amount:             1000,
		Currency:           "usd",
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(0, 0, 30),
	}
	target := billing.Price{ID: "price_pro", Amount: 3000, Currency: "usd", Interval: billing.IntervalMonth}
	now := start.AddDate(0, 0, 20)

	change := billing.PreviewChange(sub, target, now)

	if change.ChangeType != billing.ChangeTypeUpgrade {
		t.Errorf("ChangeType = %s, want upgrade", change.ChangeType)
	}
	if change.Timing != billing.TimingImmediate {
		t.Errorf("Timing = %s, want immediate", change.Timing)
	}
	if change.ImmediateCharge != 667 {
		t.Errorf("ImmediateCharge = %d, want 667", change.ImmediateCharge)
	}
	if change.ScheduledDate != nil {
		t.Errorf("ScheduledDate = %v, want nil", change.ScheduledDate)
	}
	if change.Description == "" {
		t.Error("expected non-empty description")
	}
}

func TestPreviewChange_Downgrade(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	sub := billing.Subscription{
		PriceID:            "price_pro",
		Amount:             3000,
		Currency:           "usd",
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
	}
	target := billing.Price{ID: "price_basic", Amount: 1000, Currency: "usd", Interval: billing.IntervalMonth}

	change := billing.PreviewChange(sub, target, start.AddDate(0, 0, 10))

	if change.ChangeType != billing.ChangeTypeDowngrade {
		t.Errorf("ChangeType = %s, want downgrade", change.ChangeType)
	}
	if change.Timing != billing.TimingEndOfPeriod {
		t.Errorf("Timing = %s, want end_of_period", change.Timing)
	}
	if change.ImmediateCharge != 0 {
		t.Errorf("ImmediateCharge = %d, want 0", change.ImmediateCharge)
	}
	if change.ScheduledDate == nil || !change.ScheduledDate.Equal(end) {
		t.Errorf("ScheduledDate = %v, want %v", change.ScheduledDate, end)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0"},
		{667, "$6.67"},
		{1000, "$10"},
		{2999, "$29.99"},
		{123456789, "$1,234,567.89"},
	}

	for _, tt := range tests {
		if got := billing.FormatAmount(tt.cents); got != tt.want {
			t.Errorf("FormatAmount(%d) = %s, want %s", tt.cents, got, tt.want)
		}
	}
}
