package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wordcoach/wordcoach/adapters/metrics"
	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/ports"
)

// ExecutionStatus reports how a plan change landed.
type ExecutionStatus string

const (
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionScheduled ExecutionStatus = "scheduled"
	ExecutionNoChange  ExecutionStatus = "no_change"
)

// ExecutionResult is the outcome of an executed plan change.
type ExecutionResult struct {
	Status       ExecutionStatus
	Change       billing.PlanChange
	Subscription billing.Subscription // post-change canonical subscription
	Scheduled    *billing.Subscription
}

// PlanChangeService orchestrates plan transitions. Upgrades and
// equal-amount switches apply immediately with proration; downgrades
// defer to the end of the paid period. The canonical pointer moves only
// after the provider confirms.
type PlanChangeService struct {
	users         ports.UserStore
	provider      ports.PaymentProvider
	subscriptions *SubscriptionService
	metrics       *metrics.Collector
	clock         ports.Clock
	logger        zerolog.Logger

	maxAttempts int
	retryDelay  time.Duration
	sleep       func(context.Context, time.Duration) error
}

// NewPlanChangeService creates a new plan change service. maxAttempts and
// retryDelay bound the payment-method poll; the delay grows linearly with
// each attempt.
func NewPlanChangeService(
	users ports.UserStore,
	provider ports.PaymentProvider,
	subscriptions *SubscriptionService,
	collector *metrics.Collector,
	clock ports.Clock,
	maxAttempts int,
	retryDelay time.Duration,
	logger zerolog.Logger,
) *PlanChangeService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PlanChangeService{
		users:         users,
		provider:      provider,
		subscriptions: subscriptions,
		metrics:       collector,
		clock:         clock,
		logger:        logger,
		maxAttempts:   maxAttempts,
		retryDelay:    retryDelay,
		sleep:         sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Preview computes the plan change without side effects.
func (s *PlanChangeService) Preview(ctx context.Context, userID, newPriceID string) (billing.PlanChange, error) {
	sub, err := s.subscriptions.Current(ctx, userID)
	if err != nil {
		return billing.PlanChange{}, err
	}
	target, err := s.provider.GetPrice(ctx, newPriceID)
	if err != nil {
		return billing.PlanChange{}, err
	}
	return billing.PreviewChange(sub, target, s.clock.Now()), nil
}

// Execute applies a plan change. The caller states the change type it
// previewed; if prices moved since then the execution is rejected with
// billing.ErrChangeTypeMismatch rather than silently charging differently.
func (s *PlanChangeService) Execute(ctx context.Context, userID, newPriceID string, requested billing.ChangeType) (ExecutionResult, error) {
	sub, err := s.subscriptions.Current(ctx, userID)
	if err != nil {
		return ExecutionResult{}, err
	}
	// Read the user after Current(), which may have healed references.
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return ExecutionResult{}, err
	}

	target, err := s.provider.GetPrice(ctx, newPriceID)
	if err != nil {
		return ExecutionResult{}, err
	}

	change := billing.PreviewChange(sub, target, s.clock.Now())
	if change.ChangeType != requested {
		s.logger.Warn().
			Str("user_id", userID).
			Str("requested", string(requested)).
			Str("actual", string(change.ChangeType)).
			Msg("plan change type no longer matches price difference")
		return ExecutionResult{}, billing.ErrChangeTypeMismatch
	}

	result := ExecutionResult{Change: change, Subscription: sub}

	switch change.ChangeType {
	case billing.ChangeTypeSame, billing.ChangeTypeUpgrade:
		// Already on the target price: nothing to swap.
		if change.ChangeType == billing.ChangeTypeSame && target.ID == sub.PriceID {
			result.Status = ExecutionNoChange
			return result, nil
		}

		// Free targets charge nothing, so no payment method is needed.
		if target.Amount > 0 {
			if err := s.requirePaymentMethod(ctx, user.CustomerID); err != nil {
				s.metrics.PlanChanges.WithLabelValues(string(change.ChangeType), "payment_method_required").Inc()
				return ExecutionResult{}, err
			}
		}

		updated, err := s.provider.UpdateSubscriptionPrice(ctx, sub.ID, newPriceID)
		if err != nil {
			s.metrics.PlanChanges.WithLabelValues(string(change.ChangeType), "error").Inc()
			return ExecutionResult{}, err
		}
		s.metrics.PlanChanges.WithLabelValues(string(change.ChangeType), "ok").Inc()
		s.logger.Info().
			Str("user_id", userID).
			Str("subscription_id", updated.ID).
			Str("price_id", newPriceID).
			Str("change_type", string(change.ChangeType)).
			Int64("immediate_charge", change.ImmediateCharge).
			Msg("applied plan change")

		user.SubscriptionID = updated.ID
		if err := s.users.Update(ctx, user); err != nil {
			return ExecutionResult{}, err
		}
		result.Status = ExecutionCompleted
		result.Subscription = updated
		return result, nil

	default: // downgrade
		current, err := s.provider.SetCancelAtPeriodEnd(ctx, sub.ID, true)
		if err != nil {
			s.metrics.PlanChanges.WithLabelValues(string(change.ChangeType), "error").Inc()
			return ExecutionResult{}, err
		}

		scheduled, err := s.provider.CreateScheduledSubscription(ctx, user.CustomerID, newPriceID, sub.CurrentPeriodEnd)
		if err != nil {
			// Roll the cancel flag back so the user is not silently
			// left expiring with nothing scheduled.
			if _, rbErr := s.provider.SetCancelAtPeriodEnd(ctx, sub.ID, false); rbErr != nil {
				s.logger.Error().Err(rbErr).
					Str("subscription_id", sub.ID).
					Msg("failed to roll back cancel-at-period-end after scheduling failure")
			}
			s.metrics.PlanChanges.WithLabelValues(string(change.ChangeType), "error").Inc()
			return ExecutionResult{}, err
		}
		s.metrics.PlanChanges.WithLabelValues(string(change.ChangeType), "ok").Inc()
		s.logger.Info().
			Str("user_id", userID).
			Str("subscription_id", current.ID).
			Str("scheduled_id", scheduled.ID).
			Time("effective_at", sub.CurrentPeriodEnd).
			Msg("scheduled downgrade for end of period")

		result.Status = ExecutionScheduled
		result.Subscription = current
		result.Scheduled = &scheduled
		return result, nil
	}
}

// CancelScheduled reverses a pending downgrade: the deferred subscription is
// cancelled and the active one keeps renewing.
func (s *PlanChangeService) CancelScheduled(ctx context.Context, userID, scheduleID string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	scheduled, err := s.provider.ListScheduled(ctx, user.CustomerID)
	if err != nil {
		return err
	}

	var found *billing.Subscription
	for i := range scheduled {
		if scheduled[i].ID == scheduleID {
			found = &scheduled[i]
			break
		}
	}
	if found == nil {
		return billing.ErrNotFound
	}

	if err := s.provider.CancelSubscription(ctx, found.ID); err != nil {
		return err
	}

	if user.SubscriptionID != "" {
		if _, err := s.provider.SetCancelAtPeriodEnd(ctx, user.SubscriptionID, false); err != nil {
			return err
		}
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("schedule_id", scheduleID).
		Msg("cancelled scheduled plan change")
	return nil
}

// requirePaymentMethod polls for a usable payment method with a bounded
// number of attempts and a linearly increasing delay, in case the client
// attached one moments ago and the provider has not surfaced it yet. If none
// appears it returns an actionable PaymentMethodRequiredError carrying a
// fresh setup intent.
func (s *PlanChangeService) requirePaymentMethod(ctx context.Context, customerID string) error {
	for attempt := 1; ; attempt++ {
		methods, err := s.provider.ListPaymentMethods(ctx, customerID)
		if err != nil {
			return err
		}
		if len(methods) > 0 {
			return s.ensureDefaultMethod(ctx, customerID, methods)
		}
		if attempt >= s.maxAttempts {
			break
		}
		if err := s.sleep(ctx, time.Duration(attempt)*s.retryDelay); err != nil {
			return err
		}
	}

	intent, err := s.provider.CreateSetupIntent(ctx, customerID)
	if err != nil {
		return err
	}
	return &billing.PaymentMethodRequiredError{SetupIntent: intent}
}

// ensureDefaultMethod makes the first method the customer's default when
// none is, so the proration invoice has something to charge.
func (s *PlanChangeService) ensureDefaultMethod(ctx context.Context, customerID string, methods []billing.PaymentMethod) error {
	for _, m := range methods {
		if m.IsDefault {
			return nil
		}
	}
	if err := s.provider.SetDefaultPaymentMethod(ctx, customerID, methods[0].ID); err != nil {
		return err
	}
	s.logger.Info().
		Str("customer_id", customerID).
		Str("payment_method_id", methods[0].ID).
		Msg("set default payment method")
	return nil
}
