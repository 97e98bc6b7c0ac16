// Package plan provides pricing-tier value types and pure functions.
package plan

// Tier represents a coaching pricing tier (immutable value type).
type Tier struct {
	ID            string
	Name          string
	PriceID       string
	PriceMonthly  int64 // cents
	WordsPerMonth int64 // 0 = unlimited
}

// Builtin returns the built-in tier catalog. The free tier's price ID is
// configurable so development and production environments can differ.
func Builtin(freePriceID string) []Tier {
	return []Tier{
		{
			ID:            "free",
			Name:          "Free",
			PriceID:       freePriceID,
			PriceMonthly:  0,
			WordsPerMonth: 500,
		},
		{
			ID:            "pro",
			Name:          "Pro",
			PriceID:       "price_pro",
			PriceMonthly:  2900,
			WordsPerMonth: 10000,
		},
		{
			ID:            "max",
			Name:          "Max",
			PriceID:       "price_max",
			PriceMonthly:  9900,
			WordsPerMonth: 50000,
		},
	}
}

// FindByPriceID finds a tier by its provider price ID.
// This is a PURE function.
func FindByPriceID(tiers []Tier, priceID string) (Tier, bool) {
	for _, t := range tiers {
		if t.PriceID == priceID {
			return t, true
		}
	}
	return Tier{}, false
}

// IsFree checks if a tier costs nothing.
// This is a PURE function.
func IsFree(t Tier) bool {
	return t.PriceMonthly == 0
}

// IsUnlimited checks if a tier has no word limit.
// This is a PURE function.
func IsUnlimited(t Tier) bool {
	return t.WordsPerMonth <= 0
}
