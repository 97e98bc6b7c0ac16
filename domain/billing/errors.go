package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a user, customer, price, or subscription is absent.
	ErrNotFound = errors.New("not found")

	// ErrProviderUnavailable indicates a transient provider failure
	// (network error or 5xx). Callers decide whether to retry.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrProviderInconsistency indicates local state disagrees with the
	// provider (deleted customer, duplicate active subscriptions, stale
	// pointer). Components heal it where a deterministic recovery exists.
	ErrProviderInconsistency = errors.New("payment provider inconsistency")

	// ErrChangeTypeMismatch indicates the requested change type does not
	// match the price comparison at execution time.
	ErrChangeTypeMismatch = errors.New("plan change type does not match price difference")
)

// PaymentMethodRequiredError is an actionable failure: the customer has no
// usable payment method. It carries a setup intent so callers can complete
// payment setup out-of-band, then retry.
type PaymentMethodRequiredError struct {
	SetupIntent SetupIntent
}

func (e *PaymentMethodRequiredError) Error() string {
	return fmt.Sprintf("payment method required (setup intent %s)", e.SetupIntent.ID)
}
