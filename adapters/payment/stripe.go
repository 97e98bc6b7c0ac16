// Package payment provides payment provider adapters.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/ports"
)

// scheduledChangeKey marks deferred subscriptions created for downgrades.
const scheduledChangeKey = "scheduled_change"

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	SecretKey string
}

// Validate checks the configuration.
func (c StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return errors.New("stripe secret key is required")
	}
	return nil
}

// StripeProvider implements ports.PaymentProvider for Stripe. It holds its
// own API client instance rather than mutating the package-global key, so
// multiple providers with different credentials can coexist in one process.
type StripeProvider struct {
	client *client.API
}

// NewStripeProvider creates a new Stripe payment provider.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	api := &client.API{}
	api.Init(config.SecretKey, nil)
	return &StripeProvider{client: api}, nil
}

// NewStripeProviderWithClient wires an existing API client, used in tests
// to point the provider at a stub backend.
func NewStripeProviderWithClient(api *client.API) *StripeProvider {
	return &StripeProvider{client: api}
}

// CreateCustomer creates a customer in Stripe.
func (p *StripeProvider) CreateCustomer(ctx context.Context, email, name, userID string) (billing.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)

	c, err := p.client.Customers.New(params)
	if err != nil {
		return billing.Customer{}, mapStripeErr(err)
	}
	return mapCustomer(c), nil
}

// GetCustomer retrieves a customer. Deleted customers come back with the
// Deleted flag set rather than as an error.
func (p *StripeProvider) GetCustomer(ctx context.Context, id string) (billing.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := p.client.Customers.Get(id, params)
	if err != nil {
		return billing.Customer{}, mapStripeErr(err)
	}
	return mapCustomer(c), nil
}

// FindCustomerByEmail returns the newest non-deleted customer with the email.
func (p *StripeProvider) FindCustomerByEmail(ctx context.Context, email string) (billing.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx

	// The list is returned newest-first, so the first live hit wins.
	iter := p.client.Customers.List(params)
	for iter.Next() {
		c := iter.Customer()
		if c.Deleted {
			continue
		}
		return mapCustomer(c), nil
	}
	if err := iter.Err(); err != nil {
		return billing.Customer{}, mapStripeErr(err)
	}
	return billing.Customer{}, billing.ErrNotFound
}

// CreateSubscription creates an immediately-active subscription.
func (p *StripeProvider) CreateSubscription(ctx context.Context, customerID, priceID string) (billing.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	params.Context = ctx
	params.AddExpand("items.data.price.product")

	s, err := p.client.Subscriptions.New(params)
	if err != nil {
		return billing.Subscription{}, mapStripeErr(err)
	}
	return mapSubscription(s)
}

// CreateScheduledSubscription creates a subscription whose paid period starts
// at startAt. Stripe models this as a trial ending at the start instant; the
// metadata marker distinguishes it from organic trials.
func (p *StripeProvider) CreateScheduledSubscription(ctx context.Context, customerID, priceID string, startAt time.Time) (billing.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		TrialEnd: stripe.Int64(startAt.Unix()),
	}
	params.Context = ctx
	params.AddMetadata(scheduledChangeKey, "true")
	params.AddExpand("items.data.price.product")

	s, err := p.client.Subscriptions.New(params)
	if err != nil {
		return billing.Subscription{}, mapStripeErr(err)
	}
	return mapSubscription(s)
}

// GetSubscription retrieves a subscription by id.
func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (billing.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("items.data.price.product")

	s, err := p.client.Subscriptions.Get(id, params)
	if err != nil {
		return billing.Subscription{}, mapStripeErr(err)
	}
	return mapSubscription(s)
}

// ListSubscriptions returns the customer's subscriptions with the status.
func (p *StripeProvider) ListSubscriptions(ctx context.Context, customerID string, status billing.SubscriptionStatus) ([]billing.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(status)),
	}
	params.Context = ctx
	params.AddExpand("data.items.data.price.product")

	var subs []billing.Subscription
	iter := p.client.Subscriptions.List(params)
	for iter.Next() {
		sub, err := mapSubscription(iter.Subscription())
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := iter.Err(); err != nil {
		return nil, mapStripeErr(err)
	}
	return subs, nil
}

// ListScheduled returns deferred subscriptions created for plan downgrades.
func (p *StripeProvider) ListScheduled(ctx context.Context, customerID string) ([]billing.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(billing.SubscriptionStatusTrialing)),
	}
	params.Context = ctx
	params.AddExpand("data.items.data.price.product")

	var subs []billing.Subscription
	iter := p.client.Subscriptions.List(params)
	for iter.Next() {
		s := iter.Subscription()
		if s.Metadata[scheduledChangeKey] != "true" {
			continue
		}
		sub, err := mapSubscription(s)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := iter.Err(); err != nil {
		return nil, mapStripeErr(err)
	}
	return subs, nil
}

// UpdateSubscriptionPrice swaps the subscription's single price item in
// place. Stripe invoices the proration delta immediately.
func (p *StripeProvider) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (billing.Subscription, error) {
	current, err := p.client.Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return billing.Subscription{}, mapStripeErr(err)
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return billing.Subscription{}, fmt.Errorf("subscription %s has no items: %w", subscriptionID, billing.ErrProviderInconsistency)
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("always_invoice"),
	}
	params.Context = ctx
	params.AddExpand("items.data.price.product")

	s, err := p.client.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return billing.Subscription{}, mapStripeErr(err)
	}
	return mapSubscription(s)
}

// SetCancelAtPeriodEnd sets or clears the cancel-at-period-end flag.
func (p *StripeProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (billing.Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx
	params.AddExpand("items.data.price.product")

	s, err := p.client.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return billing.Subscription{}, mapStripeErr(err)
	}
	return mapSubscription(s)
}

// CancelSubscription cancels a subscription immediately.
func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	_, err := p.client.Subscriptions.Cancel(subscriptionID, params)
	if err != nil {
		return mapStripeErr(err)
	}
	return nil
}

// GetPrice retrieves a price.
func (p *StripeProvider) GetPrice(ctx context.Context, id string) (billing.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx

	pr, err := p.client.Prices.Get(id, params)
	if err != nil {
		return billing.Price{}, mapStripeErr(err)
	}
	return mapPrice(pr), nil
}

// GetProduct retrieves a product, parsing its word-limit metadata.
func (p *StripeProvider) GetProduct(ctx context.Context, id string) (billing.Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx

	product, err := p.client.Products.Get(id, params)
	if err != nil {
		return billing.Product{}, mapStripeErr(err)
	}
	return mapProduct(product), nil
}

// ListPaymentMethods returns the customer's attached card payment methods.
// The customer's invoice-settings default is flagged on the matching entry.
func (p *StripeProvider) ListPaymentMethods(ctx context.Context, customerID string) ([]billing.PaymentMethod, error) {
	custParams := &stripe.CustomerParams{}
	custParams.Context = ctx
	cust, err := p.client.Customers.Get(customerID, custParams)
	if err != nil {
		return nil, mapStripeErr(err)
	}
	var defaultID string
	if cust.InvoiceSettings != nil && cust.InvoiceSettings.DefaultPaymentMethod != nil {
		defaultID = cust.InvoiceSettings.DefaultPaymentMethod.ID
	}

	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	var methods []billing.PaymentMethod
	iter := p.client.PaymentMethods.List(params)
	for iter.Next() {
		pm := iter.PaymentMethod()
		m := billing.PaymentMethod{ID: pm.ID, Type: string(pm.Type), IsDefault: pm.ID == defaultID}
		if pm.Card != nil {
			m.Brand = string(pm.Card.Brand)
			m.Last4 = pm.Card.Last4
		}
		methods = append(methods, m)
	}
	if err := iter.Err(); err != nil {
		return nil, mapStripeErr(err)
	}
	return methods, nil
}

// SetDefaultPaymentMethod points the customer's invoice settings at the
// payment method so future invoices charge it.
func (p *StripeProvider) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	if _, err := p.client.Customers.Update(customerID, params); err != nil {
		return mapStripeErr(err)
	}
	return nil
}

// CreateSetupIntent creates a reusable payment-setup handle.
func (p *StripeProvider) CreateSetupIntent(ctx context.Context, customerID string) (billing.SetupIntent, error) {
	params := &stripe.SetupIntentParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	si, err := p.client.SetupIntents.New(params)
	if err != nil {
		return billing.SetupIntent{}, mapStripeErr(err)
	}
	return billing.SetupIntent{ID: si.ID, ClientSecret: si.ClientSecret}, nil
}

func mapCustomer(c *stripe.Customer) billing.Customer {
	return billing.Customer{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		Deleted:   c.Deleted,
		CreatedAt: time.Unix(c.Created, 0).UTC(),
	}
}

func mapSubscription(s *stripe.Subscription) (billing.Subscription, error) {
	if s.Items == nil || len(s.Items.Data) == 0 || s.Items.Data[0].Price == nil {
		return billing.Subscription{}, fmt.Errorf("subscription %s has no price item: %w", s.ID, billing.ErrProviderInconsistency)
	}
	price := s.Items.Data[0].Price

	sub := billing.Subscription{
		ID:                 s.ID,
		Status:             mapStripeStatus(s.Status),
		PriceID:            price.ID,
		Amount:             price.UnitAmount,
		Currency:           string(price.Currency),
		CurrentPeriodStart: time.Unix(s.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(s.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		CreatedAt:          time.Unix(s.Created, 0).UTC(),
	}
	if s.Customer != nil {
		sub.CustomerID = s.Customer.ID
	}
	if price.Recurring != nil {
		sub.Interval = billing.Interval(price.Recurring.Interval)
	}
	if s.TrialEnd > 0 {
		t := time.Unix(s.TrialEnd, 0).UTC()
		sub.TrialEnd = &t
	}
	if price.Product != nil {
		sub.ProductID = price.Product.ID
		sub.WordLimit = wordLimitFromMetadata(price.Product.Metadata)
	}
	return sub, nil
}

func mapPrice(p *stripe.Price) billing.Price {
	price := billing.Price{
		ID:       p.ID,
		Amount:   p.UnitAmount,
		Currency: string(p.Currency),
	}
	if p.Product != nil {
		price.ProductID = p.Product.ID
	}
	if p.Recurring != nil {
		price.Interval = billing.Interval(p.Recurring.Interval)
	}
	return price
}

func mapProduct(p *stripe.Product) billing.Product {
	return billing.Product{
		ID:        p.ID,
		Name:      p.Name,
		WordLimit: wordLimitFromMetadata(p.Metadata),
	}
}

func wordLimitFromMetadata(metadata map[string]string) int64 {
	v, ok := metadata["word_limit"]
	if !ok {
		return 0
	}
	limit, err := strconv.ParseInt(v, 10, 64)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func mapStripeStatus(status stripe.SubscriptionStatus) billing.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return billing.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return billing.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusPastDue:
		return billing.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return billing.SubscriptionStatusCancelled
	case stripe.SubscriptionStatusUnpaid:
		return billing.SubscriptionStatusUnpaid
	case stripe.SubscriptionStatusIncomplete, stripe.SubscriptionStatusIncompleteExpired:
		return billing.SubscriptionStatusIncomplete
	default:
		return billing.SubscriptionStatus(status)
	}
}

// mapStripeErr translates Stripe errors onto the billing taxonomy. Missing
// objects become ErrNotFound; network failures and 5xx responses become
// ErrProviderUnavailable so callers can retry.
func mapStripeErr(err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return fmt.Errorf("%s: %w", stripeErr.Msg, billing.ErrNotFound)
		}
		if stripeErr.Type == stripe.ErrorTypeAPI || stripeErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%s: %w", stripeErr.Msg, billing.ErrProviderUnavailable)
		}
		return err
	}

	// Errors that never reached Stripe (DNS, timeouts) are retryable.
	return fmt.Errorf("%v: %w", err, billing.ErrProviderUnavailable)
}

// Ensure interface compliance.
var _ ports.PaymentProvider = (*StripeProvider)(nil)
