package billing

import (
	"math"
	"time"
)

// ChangeType classifies a plan transition by price comparison.
type ChangeType string

const (
	ChangeTypeUpgrade   ChangeType = "upgrade"
	ChangeTypeDowngrade ChangeType = "downgrade"
	ChangeTypeSame      ChangeType = "same"
)

// ChangeTiming determines when a plan change takes effect.
type ChangeTiming string

const (
	TimingImmediate   ChangeTiming = "immediate"
	TimingEndOfPeriod ChangeTiming = "end_of_period"
)

// PlanChange is a previewed or pending transition from the canonical
// subscription to a new price (value type).
type PlanChange struct {
	CurrentPriceID  string
	NewPriceID      string
	CurrentAmount   int64
	NewAmount       int64
	Currency        string
	ChangeType      ChangeType
	Timing          ChangeTiming
	ImmediateCharge int64      // minor units, always >= 0
	ScheduledDate   *time.Time // set only for deferred changes
	Description     string
}

// ClassifyChange compares amounts in minor units.
// This is a PURE function.
func ClassifyChange(currentAmount, newAmount int64) ChangeType {
	switch {
	case newAmount > currentAmount:
		return ChangeTypeUpgrade
	case newAmount < currentAmount:
		return ChangeTypeDowngrade
	default:
		return ChangeTypeSame
	}
}

// ProrationCharge computes the immediate charge for an upgrade:
// round(priceDelta * remainingDays / totalPeriodDays) over the current
// period. Returns 0 for non-positive deltas or degenerate periods.
// This is a PURE function.
func ProrationCharge(currentAmount, newAmount int64, periodStart, periodEnd, now time.Time) int64 {
	delta := newAmount - currentAmount
	if delta <= 0 {
		return 0
	}

	totalDays := periodEnd.Sub(periodStart).Hours() / 24
	if totalDays <= 0 {
		return 0
	}

	remainingDays := periodEnd.Sub(now).Hours() / 24
	if remainingDays <= 0 {
		return 0
	}
	if remainingDays > totalDays {
		remainingDays = totalDays
	}

	charge := int64(math.Round(float64(delta) * remainingDays / totalDays))
	if charge < 0 {
		return 0
	}
	return charge
}

// PreviewChange builds the full plan-change preview from the canonical
// subscription, the target price, and the current time.
// This is a PURE function.
func PreviewChange(sub Subscription, target Price, now time.Time) PlanChange {
	change := PlanChange{
		CurrentPriceID: sub.PriceID,
		NewPriceID:     target.ID,
		CurrentAmount:  sub.Amount,
		NewAmount:      target.Amount,
		Currency:       target.Currency,
		ChangeType:     ClassifyChange(sub.Amount, target.Amount),
	}

	switch change.ChangeType {
	case ChangeTypeUpgrade:
		change.Timing = TimingImmediate
		change.ImmediateCharge = ProrationCharge(sub.Amount, target.Amount, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, now)
		change.Description = "Upgrade from " + FormatAmount(sub.Amount) + " to " + FormatAmount(target.Amount) +
			" per " + string(target.Interval) + ", " + FormatAmount(change.ImmediateCharge) + " charged now"
	case ChangeTypeDowngrade:
		change.Timing = TimingEndOfPeriod
		scheduled := sub.CurrentPeriodEnd
		change.ScheduledDate = &scheduled
		change.Description = "Downgrade from " + FormatAmount(sub.Amount) + " to " + FormatAmount(target.Amount) +
			" per " + string(target.Interval) + ", effective " + scheduled.UTC().Format("Jan 2, 2006")
	default:
		change.Timing = TimingImmediate
		change.Description = "No price change; switch to " + target.ID
	}

	return change
}

// FormatAmount formats minor units as a dollars string.
// This is a PURE function.
func FormatAmount(cents int64) string {
	dollars := cents / 100
	remainder := cents % 100
	if remainder < 0 {
		remainder = -remainder
	}
	if remainder == 0 {
		return "$" + formatNumber(dollars)
	}
	return "$" + formatNumber(dollars) + "." + padZero(remainder)
}

// formatNumber adds comma separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return itoa(n)
	}
	return formatNumber(n/1000) + "," + padThree(n%1000)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func padZero(n int64) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

func padThree(n int64) string {
	s := itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
