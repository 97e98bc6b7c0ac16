package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/wordcoach/wordcoach/adapters/metrics"
	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/ports"
)

// SubscriptionService audits provider subscription state and maintains the
// canonical subscription pointer. The provider is the source of truth; the
// local pointer is derived state, re-resolved on every read.
type SubscriptionService struct {
	users     ports.UserStore
	provider  ports.PaymentProvider
	customers *CustomerService
	metrics   *metrics.Collector
	logger    zerolog.Logger

	// defaultPriceID is the free-tier price every user without a
	// subscription is placed on.
	defaultPriceID string
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(
	users ports.UserStore,
	provider ports.PaymentProvider,
	customers *CustomerService,
	collector *metrics.Collector,
	defaultPriceID string,
	logger zerolog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		users:          users,
		provider:       provider,
		customers:      customers,
		metrics:        collector,
		defaultPriceID: defaultPriceID,
		logger:         logger,
	}
}

// Current returns the canonical subscription for a user, resolving the
// customer and healing stale state along the way. A user with no active
// subscription gets a default free-tier subscription created for them.
func (s *SubscriptionService) Current(ctx context.Context, userID string) (billing.Subscription, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return billing.Subscription{}, err
	}

	user, err = s.customers.EnsureCustomer(ctx, user)
	if err != nil {
		return billing.Subscription{}, err
	}

	sub, err := s.ResolveCanonical(ctx, user)
	if errors.Is(err, billing.ErrNotFound) {
		// The customer reference went stale between resolution and the
		// subscription listing (deleted concurrently). Heal once and retry.
		s.logger.Warn().
			Str("user_id", user.ID).
			Str("customer_id", user.CustomerID).
			Msg("customer vanished during subscription audit, retrying once")
		user.CustomerID = ""
		user, err = s.customers.EnsureCustomer(ctx, user)
		if err != nil {
			return billing.Subscription{}, err
		}
		sub, err = s.ResolveCanonical(ctx, user)
	}
	return sub, err
}

// ResolveCanonical lists the customer's live subscriptions and selects the
// canonical one. Duplicates are logged and counted, never auto-cancelled.
func (s *SubscriptionService) ResolveCanonical(ctx context.Context, user ports.User) (billing.Subscription, error) {
	subs, err := s.liveSubscriptions(ctx, user.CustomerID)
	if err != nil {
		return billing.Subscription{}, err
	}

	canonical, duplicates, ok := billing.SelectCanonical(subs)
	if !ok {
		return s.createDefault(ctx, user)
	}

	if len(duplicates) > 0 {
		s.metrics.DuplicateSubscriptions.Inc()
		for _, d := range duplicates {
			s.logger.Warn().
				Str("user_id", user.ID).
				Str("customer_id", user.CustomerID).
				Str("canonical_id", canonical.ID).
				Str("duplicate_id", d.ID).
				Str("status", string(d.Status)).
				Int64("amount", d.Amount).
				Time("created_at", d.CreatedAt).
				Msg("duplicate active subscription found")
		}
	}

	if user.SubscriptionID != canonical.ID {
		user.SubscriptionID = canonical.ID
		if err := s.users.Update(ctx, user); err != nil {
			return billing.Subscription{}, err
		}
	}
	return canonical, nil
}

// CancelDuplicates cancels every non-canonical live subscription for the
// user. This is an explicit operator action; the audit path never does it.
func (s *SubscriptionService) CancelDuplicates(ctx context.Context, userID string) ([]string, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err = s.customers.EnsureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	subs, err := s.liveSubscriptions(ctx, user.CustomerID)
	if err != nil {
		return nil, err
	}
	canonical, duplicates, ok := billing.SelectCanonical(subs)
	if !ok || len(duplicates) == 0 {
		return nil, nil
	}

	var cancelled []string
	for _, d := range duplicates {
		if err := s.provider.CancelSubscription(ctx, d.ID); err != nil {
			return cancelled, err
		}
		s.logger.Info().
			Str("user_id", user.ID).
			Str("canonical_id", canonical.ID).
			Str("cancelled_id", d.ID).
			Msg("cancelled duplicate subscription")
		cancelled = append(cancelled, d.ID)
	}
	return cancelled, nil
}

// liveSubscriptions returns active and in-trial subscriptions, excluding
// deferred plan changes that have not started their paid period.
func (s *SubscriptionService) liveSubscriptions(ctx context.Context, customerID string) ([]billing.Subscription, error) {
	active, err := s.provider.ListSubscriptions(ctx, customerID, billing.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}
	trialing, err := s.provider.ListSubscriptions(ctx, customerID, billing.SubscriptionStatusTrialing)
	if err != nil {
		return nil, err
	}

	scheduled, err := s.provider.ListScheduled(ctx, customerID)
	if err != nil {
		return nil, err
	}
	deferred := make(map[string]bool, len(scheduled))
	for _, d := range scheduled {
		deferred[d.ID] = true
	}

	live := active
	for _, t := range trialing {
		if !deferred[t.ID] {
			live = append(live, t)
		}
	}
	return live, nil
}

// createDefault places the user on the free tier and persists the pointer.
func (s *SubscriptionService) createDefault(ctx context.Context, user ports.User) (billing.Subscription, error) {
	sub, err := s.provider.CreateSubscription(ctx, user.CustomerID, s.defaultPriceID)
	if err != nil {
		return billing.Subscription{}, err
	}
	s.metrics.DefaultSubscriptionsCreated.Inc()
	s.logger.Info().
		Str("user_id", user.ID).
		Str("customer_id", user.CustomerID).
		Str("subscription_id", sub.ID).
		Str("price_id", s.defaultPriceID).
		Msg("created default free-tier subscription")

	user.SubscriptionID = sub.ID
	if err := s.users.Update(ctx, user); err != nil {
		return billing.Subscription{}, err
	}
	return sub, nil
}
