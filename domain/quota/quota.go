// Package quota provides pure functions for word-limit evaluation.
// All functions are deterministic with no side effects.
package quota

// WarningLevel indicates how close to or over the word limit the user is.
type WarningLevel int

const (
	WarningNone        WarningLevel = iota // < 80%
	WarningApproaching                     // >= 80%
	WarningCritical                        // >= 95%
	WarningExceeded                        // >= 100%
)

// Result represents the outcome of a word-quota evaluation (value type).
type Result struct {
	Limit        int64 // 0 = unlimited
	Used         int64
	Remaining    int64 // -1 when unlimited, never negative otherwise
	PercentUsed  float64
	Exceeded     bool
	WarningLevel WarningLevel
}

// Evaluate compares used words against a plan's word limit.
// A limit of zero (or negative) means unlimited.
// This is a PURE function.
func Evaluate(limit, used int64) Result {
	if limit <= 0 {
		return Result{
			Limit:     0,
			Used:      used,
			Remaining: -1,
		}
	}

	result := Result{
		Limit:       limit,
		Used:        used,
		PercentUsed: float64(used) / float64(limit) * 100,
		Exceeded:    used >= limit,
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	result.Remaining = remaining

	switch {
	case result.PercentUsed >= 100:
		result.WarningLevel = WarningExceeded
	case result.PercentUsed >= 95:
		result.WarningLevel = WarningCritical
	case result.PercentUsed >= 80:
		result.WarningLevel = WarningApproaching
	default:
		result.WarningLevel = WarningNone
	}

	return result
}

// String returns the string representation of a warning level.
func (w WarningLevel) String() string {
	switch w {
	case WarningNone:
		return "none"
	case WarningApproaching:
		return "approaching"
	case WarningCritical:
		return "critical"
	case WarningExceeded:
		return "exceeded"
	default:
		return "unknown"
	}
}
