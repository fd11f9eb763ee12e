package scheduler

import "time"

// MeetingStatus is the lifecycle state of a meeting.
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// Meeting is the snapshot of a meeting the conflict scanner works on.
type Meeting struct {
	ID              string
	Title           string
	Start           time.Time
	DurationMinutes *int
	Status          MeetingStatus
}

// End returns the instant the meeting finishes, applying the default duration.
func (m Meeting) End() time.Time {
	return m.Start.Add(EffectiveDuration(m.DurationMinutes))
}

// FindConflicts returns the meetings that clash with a candidate slot. Cancelled
// meetings and the meeting identified by excludeMeetingID are never reported.
// The result keeps the relative order of the input.
func FindConflicts(candidateStart time.Time, candidateDurationMinutes *int, excludeMeetingID string, meetings []Meeting) []Meeting {
	conflicts := make([]Meeting, 0)
	for _, meeting := range meetings {
		if meeting.Status == MeetingStatusCancelled {
			continue
		}
		if excludeMeetingID != "" && meeting.ID == excludeMeetingID {
			continue
		}
		if Overlaps(candidateStart, candidateDurationMinutes, meeting.Start, meeting.DurationMinutes) {
			conflicts = append(conflicts, meeting)
		}
	}
	return conflicts
}
