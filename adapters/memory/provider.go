package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/ports"
)

// Provider is an in-memory payment provider. It models enough provider
// behavior (customers, subscriptions, prices, payment methods, deferred
// subscriptions) to exercise every reconciliation path without a network.
type Provider struct {
	mu    sync.Mutex
	clock ports.Clock

	customers      map[string]billing.Customer
	subscriptions  map[string]billing.Subscription
	prices         map[string]billing.Price
	products       map[string]billing.Product
	paymentMethods map[string][]billing.PaymentMethod
	defaultMethods map[string]string

	seq int

	// Err, when set, fails every call. Tests use it to simulate outages.
	Err error
}

// NewProvider creates an empty in-memory provider.
func NewProvider(clock ports.Clock) *Provider {
	return &Provider{
		clock:          clock,
		customers:      make(map[string]billing.Customer),
		subscriptions:  make(map[string]billing.Subscription),
		prices:         make(map[string]billing.Price),
		products:       make(map[string]billing.Product),
		paymentMethods: make(map[string][]billing.PaymentMethod),
		defaultMethods: make(map[string]string),
	}
}

// SeedPrice registers a price (and implicitly its product lookup key).
func (p *Provider) SeedPrice(price billing.Price) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[price.ID] = price
}

// SeedProduct registers a product.
func (p *Provider) SeedProduct(product billing.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.products[product.ID] = product
}

// AttachPaymentMethod attaches a payment method to a customer.
func (p *Provider) AttachPaymentMethod(customerID string, pm billing.PaymentMethod) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paymentMethods[customerID] = append(p.paymentMethods[customerID], pm)
}

// MarkCustomerDeleted flags a customer as deleted on the provider side.
func (p *Provider) MarkCustomerDeleted(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.customers[id]; ok {
		c.Deleted = true
		p.customers[id] = c
	}
}

// InjectSubscription places a subscription directly into provider state.
// Tests use it to simulate provider-side anomalies such as duplicates.
func (p *Provider) InjectSubscription(sub billing.Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions[sub.ID] = sub
}

// Subscription returns a copy of provider-side subscription state.
func (p *Provider) Subscription(id string) (billing.Subscription, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.subscriptions[id]
	return s, ok
}

func (p *Provider) nextID(prefix string) string {
	p.seq++
	return prefix + "_" + itoa(p.seq)
}

func itoa(n int) string {
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

// CreateCustomer creates a customer record.
func (p *Provider) CreateCustomer(ctx context.Context, email, name, userID string) (billing.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Customer{}, p.Err
	}

	c := billing.Customer{
		ID:        p.nextID("cus"),
		Email:     email,
		Name:      name,
		CreatedAt: p.clock.Now(),
	}
	p.customers[c.ID] = c
	return c, nil
}

// GetCustomer retrieves a customer, deleted ones included.
func (p *Provider) GetCustomer(ctx context.Context, id string) (billing.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Customer{}, p.Err
	}

	c, ok := p.customers[id]
	if !ok {
		return billing.Customer{}, billing.ErrNotFound
	}
	return c, nil
}

// FindCustomerByEmail returns the newest non-deleted customer with the email.
func (p *Provider) FindCustomerByEmail(ctx context.Context, email string) (billing.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Customer{}, p.Err
	}

	var found *billing.Customer
	for _, c := range p.customers {
		if c.Email != email || c.Deleted {
			continue
		}
		if found == nil || c.CreatedAt.After(found.CreatedAt) {
			cc := c
			found = &cc
		}
	}
	if found == nil {
		return billing.Customer{}, billing.ErrNotFound
	}
	return *found, nil
}

func (p *Provider) newSubscriptionLocked(customerID, priceID string, status billing.SubscriptionStatus, trialEnd *time.Time) (billing.Subscription, error) {
	price, ok := p.prices[priceID]
	if !ok {
		return billing.Subscription{}, billing.ErrNotFound
	}
	product := p.products[price.ProductID]

	now := p.clock.Now()
	end := now.AddDate(0, 1, 0)
	if price.Interval == billing.IntervalYear {
		end = now.AddDate(1, 0, 0)
	}
	if trialEnd != nil {
		end = *trialEnd
	}

	sub := billing.Subscription{
		ID:                 p.nextID("sub"),
		CustomerID:         customerID,
		Status:             status,
		PriceID:            price.ID,
		ProductID:          price.ProductID,
		Amount:             price.Amount,
		Currency:           price.Currency,
		Interval:           price.Interval,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   end,
		TrialEnd:           trialEnd,
		WordLimit:          product.WordLimit,
		CreatedAt:          now,
	}
	p.subscriptions[sub.ID] = sub
	return sub, nil
}

// CreateSubscription creates an immediately-active subscription.
func (p *Provider) CreateSubscription(ctx context.Context, customerID, priceID string) (billing.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Subscription{}, p.Err
	}
	if _, ok := p.customers[customerID]; !ok {
		return billing.Subscription{}, billing.ErrNotFound
	}
	return p.newSubscriptionLocked(customerID, priceID, billing.SubscriptionStatusActive, nil)
}

// CreateScheduledSubscription creates a deferred (trialing) subscription
// whose paid period starts at startAt.
func (p *Provider) CreateScheduledSubscription(ctx context.Context, customerID, priceID string, startAt time.Time) (billing.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Subscription{}, p.Err
	}
	if _, ok := p.customers[customerID]; !ok {
		return billing.Subscription{}, billing.ErrNotFound
	}
	return p.newSubscriptionLocked(customerID, priceID, billing.SubscriptionStatusTrialing, &startAt)
}

// GetSubscription retrieves a subscription.
func (p *Provider) GetSubscription(ctx context.Context, id string) (billing.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Subscription{}, p.Err
	}

	s, ok := p.subscriptions[id]
	if !ok {
		return billing.Subscription{}, billing.ErrNotFound
	}
	return s, nil
}

// ListSubscriptions returns the customer's subscriptions with the status.
func (p *Provider) ListSubscriptions(ctx context.Context, customerID string, status billing.SubscriptionStatus) ([]billing.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	if _, ok := p.customers[customerID]; !ok {
		return nil, billing.ErrNotFound
	}

	var out []billing.Subscription
	for _, s := range p.subscriptions {
		if s.CustomerID == customerID && s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListScheduled returns deferred subscriptions for the customer.
func (p *Provider) ListScheduled(ctx context.Context, customerID string) ([]billing.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}

	now := p.clock.Now()
	var out []billing.Subscription
	for _, s := range p.subscriptions {
		if s.CustomerID == customerID && s.IsScheduled(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

// UpdateSubscriptionPrice swaps the price item in place.
func (p *Provider) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (billing.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Subscription{}, p.Err
	}

	s, ok := p.subscriptions[subscriptionID]
	if !ok {
		return billing.Subscription{}, billing.ErrNotFound
	}
	price, ok := p.prices[priceID]
	if !ok {
		return billing.Subscription{}, billing.ErrNotFound
	}
	product := p.products[price.ProductID]

	s.PriceID = price.ID
	s.ProductID = price.ProductID
	s.Amount = price.Amount
	s.Currency = price.Currency
	s.Interval = price.Interval
	s.WordLimit = product.WordLimit
	p.subscriptions[s.ID] = s
	return s, nil
}

// SetCancelAtPeriodEnd sets or clears the cancel-at-period-end flag.
func (p *Provider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (billing.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Subscription{}, p.Err
	}

	s, ok := p.subscriptions[subscriptionID]
	if !ok {
		return billing.Subscription{}, billing.ErrNotFound
	}
	s.CancelAtPeriodEnd = cancel
	p.subscriptions[s.ID] = s
	return s, nil
}

// CancelSubscription cancels a subscription immediately.
func (p *Provider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}

	s, ok := p.subscriptions[subscriptionID]
	if !ok {
		return billing.ErrNotFound
	}
	s.Status = billing.SubscriptionStatusCancelled
	p.subscriptions[s.ID] = s
	return nil
}

// GetPrice retrieves a price.
func (p *Provider) GetPrice(ctx context.Context, id string) (billing.Price, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Price{}, p.Err
	}

	price, ok := p.prices[id]
	if !ok {
		return billing.Price{}, billing.ErrNotFound
	}
	return price, nil
}

// GetProduct retrieves a product.
func (p *Provider) GetProduct(ctx context.Context, id string) (billing.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.Product{}, p.Err
	}

	product, ok := p.products[id]
	if !ok {
		return billing.Product{}, billing.ErrNotFound
	}
	return product, nil
}

// ListPaymentMethods returns the customer's attached payment methods with
// the default one flagged.
func (p *Provider) ListPaymentMethods(ctx context.Context, customerID string) ([]billing.PaymentMethod, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	methods := append([]billing.PaymentMethod(nil), p.paymentMethods[customerID]...)
	for i := range methods {
		methods[i].IsDefault = methods[i].ID == p.defaultMethods[customerID]
	}
	return methods, nil
}

// SetDefaultPaymentMethod marks an attached payment method as the
// customer's default.
func (p *Provider) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	for _, m := range p.paymentMethods[customerID] {
		if m.ID == paymentMethodID {
			p.defaultMethods[customerID] = paymentMethodID
			return nil
		}
	}
	return billing.ErrNotFound
}

// CreateSetupIntent creates a payment-setup handle.
func (p *Provider) CreateSetupIntent(ctx context.Context, customerID string) (billing.SetupIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return billing.SetupIntent{}, p.Err
	}

	id := p.nextID("seti")
	return billing.SetupIntent{ID: id, ClientSecret: id + "_secret"}, nil
}

// Ensure interface compliance.
var _ ports.PaymentProvider = (*Provider)(nil)
