// Package cooldown evaluates per-action waiting periods.
package cooldown

import "time"

// Result is the outcome of a cooldown check. Remaining is zero when Eligible.
type Result struct {
	Eligible  bool          `json:"eligible"`
	Remaining time.Duration `json:"remaining"`
}

// Check reports whether an action last performed at last may run again at now.
// A nil last is always eligible.
func Check(last *time.Time, period time.Duration, now time.Time) Result {
	if last == nil {
		return Result{Eligible: true}
	}
	elapsed := now.Sub(*last)
	if elapsed >= period {
		return Result{Eligible: true}
	}
	return Result{Remaining: period - elapsed}
}

// NextStreak returns the streak after a claim at now. A claim made before the
// end of the second period since last continues the streak; any later claim,
// or the first one, starts over at 1.
func NextStreak(last *time.Time, streak int, period time.Duration, now time.Time) int {
	if last == nil {
		return 1
	}
	if now.Sub(*last) < 2*period {
		return streak + 1
	}
	return 1
}

// Seconds rounds a remaining duration up to whole seconds for display.
func Seconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
