// Package scheduler holds the pure time-window rules shared by meetings and
// tasks: interval overlap, conflict scanning and reminder eligibility.
package scheduler

import "time"

// DefaultDurationMinutes applies whenever a meeting carries no usable duration.
const DefaultDurationMinutes = 60

// EffectiveDuration resolves an optional minute count into a duration. A nil,
// zero or negative count means DefaultDurationMinutes.
func EffectiveDuration(minutes *int) time.Duration {
	if minutes == nil || *minutes <= 0 {
		return DefaultDurationMinutes * time.Minute
	}
	return time.Duration(*minutes) * time.Minute
}

// Overlaps reports whether [startA, startA+durationA) and [startB, startB+durationB)
// intersect. Spans that merely touch do not overlap.
func Overlaps(startA time.Time, durationA *int, startB time.Time, durationB *int) bool {
	endA := startA.Add(EffectiveDuration(durationA))
	endB := startB.Add(EffectiveDuration(durationB))
	return startA.Before(endB) && startB.Before(endA)
}
