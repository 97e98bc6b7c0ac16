// Package billing provides typed payment-provider value objects and pure
// functions for proration and plan-change math.
package billing

import "time"

// SubscriptionStatus represents subscription state.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusUnpaid    SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
)

// Interval is the billing frequency of a subscription or price.
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Customer is the provider's customer record (value type). The local user
// holds only a weak reference to it; the provider owns the record.
type Customer struct {
	ID        string
	Email     string
	Name      string
	Deleted   bool
	CreatedAt time.Time
}

// Product is the provider's product record. WordLimit comes from the
// product's metadata and is the only word limit the system ever reads.
type Product struct {
	ID        string
	Name      string
	WordLimit int64
}

// Price is the provider's price record (value type).
type Price struct {
	ID        string
	ProductID string
	Amount    int64 // minor currency units
	Currency  string
	Interval  Interval
}

// Subscription is the provider's subscription record (value type).
// It is replaced, never mutated, on plan change.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             SubscriptionStatus
	PriceID            string
	ProductID          string
	Amount             int64 // minor currency units
	Currency           string
	Interval           Interval
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	TrialEnd           *time.Time
	WordLimit          int64
	CreatedAt          time.Time
}

// IsActive returns true if the subscription is in an active state.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}

// IsScheduled returns true if the subscription is a deferred plan change
// that has not started its paid period yet.
func (s Subscription) IsScheduled(now time.Time) bool {
	return s.Status == SubscriptionStatusTrialing && s.TrialEnd != nil && s.TrialEnd.After(now)
}

// IsFree returns true for zero-amount subscriptions.
func (s Subscription) IsFree() bool {
	return s.Amount == 0
}

// PaymentMethod is a usable payment instrument attached to a customer.
type PaymentMethod struct {
	ID        string
	Type      string // "card", "sepa_debit", ...
	Brand     string
	Last4     string
	IsDefault bool
}

// SetupIntent is a reusable handle the caller can use to attach a payment
// method out-of-band.
type SetupIntent struct {
	ID           string
	ClientSecret string
}
