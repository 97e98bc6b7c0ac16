package metrics

import (
	"context"
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/ports"
)

// InstrumentedProvider wraps a PaymentProvider and counts every call in
// ProviderRequests by operation and outcome.
type InstrumentedProvider struct {
	next      ports.PaymentProvider
	collector *Collector
}

var _ ports.PaymentProvider = (*InstrumentedProvider)(nil)

// WrapProvider decorates a payment provider with call metrics.
func WrapProvider(next ports.PaymentProvider, c *Collector) *InstrumentedProvider {
	return &InstrumentedProvider{next: next, collector: c}
}

func (p *InstrumentedProvider) observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.collector.ProviderRequests.WithLabelValues(operation, outcome).Inc()
}

func (p *InstrumentedProvider) CreateCustomer(ctx context.Context, email, name, userID string) (billing.Customer, error) {
	c, err := p.next.CreateCustomer(ctx, email, name, userID)
	p.observe("create_customer", err)
	return c, err
}

func (p *InstrumentedProvider) GetCustomer(ctx context.Context, id string) (billing.Customer, error) {
	c, err := p.next.GetCustomer(ctx, id)
	p.observe("get_customer", err)
	return c, err
}

func (p *InstrumentedProvider) FindCustomerByEmail(ctx context.Context, email string) (billing.Customer, error) {
	c, err := p.next.FindCustomerByEmail(ctx, email)
	p.observe("find_customer_by_email", err)
	return c, err
}

func (p *InstrumentedProvider) CreateSubscription(ctx context.Context, customerID, priceID string) (billing.Subscription, error) {
	s, err := p.next.CreateSubscription(ctx, customerID, priceID)
	p.observe("create_subscription", err)
	return s, err
}

func (p *InstrumentedProvider) CreateScheduledSubscription(ctx context.Context, customerID, priceID string, startAt time.Time) (billing.Subscription, error) {
	s, err := p.next.CreateScheduledSubscription(ctx, customerID, priceID, startAt)
	p.observe("create_scheduled_subscription", err)
	return s, err
}

func (p *InstrumentedProvider) GetSubscription(ctx context.Context, id string) (billing.Subscription, error) {
	s, err := p.next.GetSubscription(ctx, id)
	p.observe("get_subscription", err)
	return s, err
}

func (p *InstrumentedProvider) ListSubscriptions(ctx context.Context, customerID string, status billing.SubscriptionStatus) ([]billing.Subscription, error) {
	subs, err := p.next.ListSubscriptions(ctx, customerID, status)
	p.observe("list_subscriptions", err)
	return subs, err
}

func (p *InstrumentedProvider) ListScheduled(ctx context.Context, customerID string) ([]billing.Subscription, error) {
	subs, err := p.next.ListScheduled(ctx, customerID)
	p.observe("list_scheduled", err)
	return subs, err
}

func (p *InstrumentedProvider) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (billing.Subscription, error) {
	s, err := p.next.UpdateSubscriptionPrice(ctx, subscriptionID, priceID)
	p.observe("update_subscription_price", err)
	return s, err
}

func (p *InstrumentedProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (billing.Subscription, error) {
	s, err := p.next.SetCancelAtPeriodEnd(ctx, subscriptionID, cancel)
	p.observe("set_cancel_at_period_end", err)
	return s, err
}

func (p *InstrumentedProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	err := p.next.CancelSubscription(ctx, subscriptionID)
	p.observe("cancel_subscription", err)
	return err
}

func (p *InstrumentedProvider) GetPrice(ctx context.Context, id string) (billing.Price, error) {
	price, err := p.next.GetPrice(ctx, id)
	p.observe("get_price", err)
	return price, err
}

func (p *InstrumentedProvider) GetProduct(ctx context.Context, id string) (billing.Product, error) {
	product, err := p.next.GetProduct(ctx, id)
	p.observe("get_product", err)
	return product, err
}

func (p *InstrumentedProvider) ListPaymentMethods(ctx context.Context, customerID string) ([]billing.PaymentMethod, error) {
	methods, err := p.next.ListPaymentMethods(ctx, customerID)
	p.observe("list_payment_methods", err)
	return methods, err
}

func (p *InstrumentedProvider) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	err := p.next.SetDefaultPaymentMethod(ctx, customerID, paymentMethodID)
	p.observe("set_default_payment_method", err)
	return err
}

func (p *InstrumentedProvider) CreateSetupIntent(ctx context.Context, customerID string) (billing.SetupIntent, error) {
	intent, err := p.next.CreateSetupIntent(ctx, customerID)
	p.observe("create_setup_intent", err)
	return intent, err
}
