// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/domain/usage"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// User represents a coaching user account. CustomerID and SubscriptionID are
// weak references into the payment provider; SubscriptionID is the canonical
// subscription pointer and the only long-lived local billing state.
type User struct {
	ID             string
	Email          string
	Name           string
	CustomerID     string // provider customer id, empty until resolved
	SubscriptionID string // canonical subscription id, empty until resolved
	Status         string // "active", "suspended"
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserStore persists user accounts.
type UserStore interface {
	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (User, error)

	// Create stores a new user.
	Create(ctx context.Context, u User) error

	// Update modifies an existing user.
	Update(ctx context.Context, u User) error
}

// UsageStore persists append-only word-usage events.
type UsageStore interface {
	// Record stores a usage event.
	Record(ctx context.Context, e usage.Event) error

	// ListRange returns active events for a user with
	// start <= CreatedAt < end, ordered ascending by CreatedAt.
	ListRange(ctx context.Context, userID string, start, end time.Time) ([]usage.Event, error)

	// Deactivate marks an event inactive. Events are never deleted.
	Deactivate(ctx context.Context, id string) error
}

// -----------------------------------------------------------------------------
// Payment Provider Port
// -----------------------------------------------------------------------------

// PaymentProvider interfaces with the external payment system of record
// (Stripe). Implementations map provider payloads onto the typed value
// objects in domain/billing and provider errors onto the billing error
// taxonomy: billing.ErrNotFound for missing objects,
// billing.ErrProviderUnavailable for network/5xx failures.
type PaymentProvider interface {
	// CreateCustomer creates a customer in the payment system.
	CreateCustomer(ctx context.Context, email, name, userID string) (billing.Customer, error)

	// GetCustomer retrieves a customer. A customer the provider reports as
	// deleted is returned with Deleted set, not as an error.
	GetCustomer(ctx context.Context, id string) (billing.Customer, error)

	// FindCustomerByEmail returns the newest customer with the given email,
	// or billing.ErrNotFound.
	FindCustomerByEmail(ctx context.Context, email string) (billing.Customer, error)

	// CreateSubscription creates an immediately-active subscription.
	CreateSubscription(ctx context.Context, customerID, priceID string) (billing.Subscription, error)

	// CreateScheduledSubscription creates a subscription whose paid period
	// starts at startAt (the deferred-downgrade mechanism).
	CreateScheduledSubscription(ctx context.Context, customerID, priceID string, startAt time.Time) (billing.Subscription, error)

	// GetSubscription retrieves a subscription by id.
	GetSubscription(ctx context.Context, id string) (billing.Subscription, error)

	// ListSubscriptions returns the customer's subscriptions with the given
	// status, in no particular creation order.
	ListSubscriptions(ctx context.Context, customerID string, status billing.SubscriptionStatus) ([]billing.Subscription, error)

	// ListScheduled returns deferred subscriptions (scheduled plan changes)
	// for the customer.
	ListScheduled(ctx context.Context, customerID string) ([]billing.Subscription, error)

	// UpdateSubscriptionPrice swaps the subscription's price item in place
	// with proration, effective immediately.
	UpdateSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (billing.Subscription, error)

	// SetCancelAtPeriodEnd sets or clears the cancel-at-period-end flag.
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (billing.Subscription, error)

	// CancelSubscription cancels a subscription immediately.
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// GetPrice retrieves a price.
	GetPrice(ctx context.Context, id string) (billing.Price, error)

	// GetProduct retrieves a product, including its word-limit metadata.
	GetProduct(ctx context.Context, id string) (billing.Product, error)

	// ListPaymentMethods returns the customer's usable payment methods,
	// flagging the customer's default one.
	ListPaymentMethods(ctx context.Context, customerID string) ([]billing.PaymentMethod, error)

	// SetDefaultPaymentMethod makes the payment method the customer's
	// default for future invoices.
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error

	// CreateSetupIntent creates a reusable payment-setup handle.
	CreateSetupIntent(ctx context.Context, customerID string) (billing.SetupIntent, error)
}
