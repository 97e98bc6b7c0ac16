// Package app contains the application services that orchestrate billing
// reconciliation. All business logic is pure - I/O happens at the edges via
// injected stores and the payment provider.
package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/wordcoach/wordcoach/adapters/metrics"
	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/ports"
)

// CustomerService resolves the provider customer for a user. The local
// CustomerID is a weak reference: the provider owns the record, and the
// reference is healed, not trusted, whenever it goes stale.
type CustomerService struct {
	users    ports.UserStore
	provider ports.PaymentProvider
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

// NewCustomerService creates a new customer service.
func NewCustomerService(
	users ports.UserStore,
	provider ports.PaymentProvider,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *CustomerService {
	return &CustomerService{
		users:    users,
		provider: provider,
		metrics:  collector,
		logger:   logger,
	}
}

// EnsureCustomer returns the user with a valid provider customer reference,
// creating or recovering the customer as needed. The updated reference is
// persisted before returning.
//
// Transient provider failures surface unchanged; no retry happens here.
func (s *CustomerService) EnsureCustomer(ctx context.Context, user ports.User) (ports.User, error) {
	if user.CustomerID == "" {
		return s.adoptOrCreate(ctx, user)
	}

	customer, err := s.provider.GetCustomer(ctx, user.CustomerID)
	switch {
	case errors.Is(err, billing.ErrNotFound):
		s.logger.Warn().
			Str("user_id", user.ID).
			Str("customer_id", user.CustomerID).
			Msg("customer reference points at a missing customer, recovering")
		return s.recover(ctx, user)
	case err != nil:
		return user, err
	}

	if customer.Deleted {
		s.logger.Warn().
			Str("user_id", user.ID).
			Str("customer_id", user.CustomerID).
			Msg("customer reference points at a deleted customer, recovering")
		return s.recover(ctx, user)
	}

	if customer.Email != user.Email {
		// The provider record wins; the mismatch is logged, never fatal.
		s.logger.Warn().
			Str("user_id", user.ID).
			Str("customer_id", customer.ID).
			Str("local_email", user.Email).
			Str("provider_email", customer.Email).
			Msg("customer email differs from local account email")
	}

	return user, nil
}

// recover heals a stale customer reference and counts the recovery.
func (s *CustomerService) recover(ctx context.Context, user ports.User) (ports.User, error) {
	user.CustomerID = ""
	healed, err := s.adoptOrCreate(ctx, user)
	if err != nil {
		return user, err
	}
	s.metrics.CustomerRecoveries.Inc()
	return healed, nil
}

// adoptOrCreate finds an existing provider customer by email or creates a new
// one, then persists the reference.
func (s *CustomerService) adoptOrCreate(ctx context.Context, user ports.User) (ports.User, error) {
	customer, err := s.provider.FindCustomerByEmail(ctx, user.Email)
	if errors.Is(err, billing.ErrNotFound) {
		customer, err = s.provider.CreateCustomer(ctx, user.Email, user.Name, user.ID)
		if err != nil {
			return user, err
		}
		s.logger.Info().
			Str("user_id", user.ID).
			Str("customer_id", customer.ID).
			Msg("created provider customer")
	} else if err != nil {
		return user, err
	} else {
		s.logger.Info().
			Str("user_id", user.ID).
			Str("customer_id", customer.ID).
			Msg("adopted existing provider customer by email")
	}

	user.CustomerID = customer.ID
	user.SubscriptionID = ""
	if err := s.users.Update(ctx, user); err != nil {
		return user, err
	}
	return user, nil
}
