package billing

// SelectCanonical picks the canonical subscription among possibly-duplicate
// active subscriptions: the one with the maximum creation timestamp wins.
// Returns the canonical subscription and the non-canonical duplicates.
// Returns ok=false for an empty input.
// This is a PURE function.
func SelectCanonical(subs []Subscription) (canonical Subscription, duplicates []Subscription, ok bool) {
	if len(subs) == 0 {
		return Subscription{}, nil, false
	}

	canonical = subs[0]
	for _, s := range subs[1:] {
		if s.CreatedAt.After(canonical.CreatedAt) {
			canonical = s
		}
	}

	for _, s := range subs {
		if s.ID != canonical.ID {
			duplicates = append(duplicates, s)
		}
	}
	return canonical, duplicates, true
}
