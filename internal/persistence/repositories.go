package persistence

import (
	"context"
	"time"
)

// UserRepository stores accounts.
type UserRepository interface {
	// UpsertUser inserts the user or, when the email already exists, updates the
	// display name, password hash and admin flag of the existing row. The write
	// and the returned read-back happen in one statement and are atomic.
	UpsertUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// MeetingFilter narrows meeting queries. Zero values disable a condition.
type MeetingFilter struct {
	StartsAfter      *time.Time
	StartsBefore     *time.Time
	IncludeCancelled bool
}

// MeetingRepository stores meetings.
type MeetingRepository interface {
	// InsertMeeting stores a new meeting and returns the row as persisted. The
	// store returns the created row directly, so insert and read-back are atomic.
	InsertMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	// UpdateMeeting replaces every mutable column. Returns ErrNotFound when no
	// row matched.
	UpdateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
	// ListMeetings returns meetings ordered by start then id.
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
}

// TaskFilter narrows task queries.
type TaskFilter struct {
	Status  *string
	OwnerID *string
}

// TaskRepository stores tasks.
type TaskRepository interface {
	// InsertTask stores a new task and returns the created row atomically.
	InsertTask(ctx context.Context, task Task) (Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	UpdateTask(ctx context.Context, task Task) (Task, error)
	// MarkReminderSent only touches last_reminder_sent and updated_at so that
	// concurrent writers of other columns are not overwritten.
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
	// ClaimReminder stamps last_reminder_sent with at only when the task has
	// never been reminded or was last reminded at or before cutoff. It reports
	// whether this caller won the claim.
	ClaimReminder(ctx context.Context, id string, at, cutoff time.Time) (bool, error)
	// ReleaseReminder puts previous back into last_reminder_sent if the claim
	// made at claimedAt is still in place.
	ReleaseReminder(ctx context.Context, id string, claimedAt time.Time, previous *time.Time) error
	DeleteTask(ctx context.Context, id string) error
	// ListTasks returns tasks ordered by creation time then id.
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
}

// ReviewFilter narrows review queue queries.
type ReviewFilter struct {
	Statuses []string
}

// ReviewRepository stores review queue items.
type ReviewRepository interface {
	// InsertReviewItem stores a new item and returns the created row atomically.
	InsertReviewItem(ctx context.Context, item ReviewItem) (ReviewItem, error)
	GetReviewItem(ctx context.Context, id string) (ReviewItem, error)
	// ResolveReviewItem writes the review outcome of an item that is still
	// pending. It returns ErrStaleState when the item was already resolved.
	ResolveReviewItem(ctx context.Context, item ReviewItem) (ReviewItem, error)
	DeleteReviewItem(ctx context.Context, id string) error
	// ListReviewItems returns items newest first.
	ListReviewItems(ctx context.Context, filter ReviewFilter) ([]ReviewItem, error)
}
