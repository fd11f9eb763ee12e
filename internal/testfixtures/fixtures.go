package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/ai-secretary/internal/persistence"
)

var (
	userCounter    uint64
	meetingCounter uint64
	taskCounter    uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures the generated user fixture.
type UserOption func(*persistence.User)

// NewUser returns a deterministic account with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	user := persistence.User{
		ID:           id,
		Email:        id + "@example.com",
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithPasswordHash overrides the stored hash.
func WithPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// AsAdmin marks the account as an administrator.
func AsAdmin() UserOption {
	return func(u *persistence.User) { u.IsAdmin = true }
}

// ---------------------------- Meeting fixtures ---------------------------

// MeetingOption configures the generated meeting fixture.
type MeetingOption func(*persistence.Meeting)

// NewMeeting returns a scheduled meeting owned by createdBy. Meetings start an
// hour apart from ReferenceTime so that consecutive fixtures never overlap.
func NewMeeting(createdBy string, opts ...MeetingOption) persistence.Meeting {
	idx := atomic.AddUint64(&meetingCounter, 1)
	meeting := persistence.Meeting{
		ID:        fmt.Sprintf("meeting-%03d", idx),
		Title:     fmt.Sprintf("Meeting %03d", idx),
		Start:     referenceTime.Add(time.Duration(idx) * time.Hour),
		Status:    "scheduled",
		CreatedBy: createdBy,
	}
	for _, opt := range opts {
		opt(&meeting)
	}
	return meeting
}

// WithMeetingStart overrides the start time.
func WithMeetingStart(start time.Time) MeetingOption {
	return func(m *persistence.Meeting) { m.Start = start }
}

// WithDuration sets an explicit duration in minutes.
func WithDuration(minutes int) MeetingOption {
	return func(m *persistence.Meeting) { m.DurationMinutes = &minutes }
}

// WithMeetingStatus overrides the status.
func WithMeetingStatus(status string) MeetingOption {
	return func(m *persistence.Meeting) { m.Status = status }
}

// ----------------------------- Task fixtures -----------------------------

// TaskOption configures the generated task fixture.
type TaskOption func(*persistence.Task)

// NewTask returns an open, medium priority task created by createdBy.
func NewTask(createdBy string, opts ...TaskOption) persistence.Task {
	idx := atomic.AddUint64(&taskCounter, 1)
	task := persistence.Task{
		ID:        fmt.Sprintf("task-%03d", idx),
		Title:     fmt.Sprintf("Task %03d", idx),
		Priority:  "medium",
		Status:    "open",
		CreatedBy: createdBy,
	}
	for _, opt := range opts {
		opt(&task)
	}
	return task
}

// WithOwner assigns the task to an account.
func WithOwner(user persistence.User) TaskOption {
	return func(t *persistence.Task) {
		id, email := user.ID, user.Email
		t.OwnerID, t.OwnerEmail = &id, &email
	}
}

// WithDeadline sets the task deadline.
func WithDeadline(deadline time.Time) TaskOption {
	return func(t *persistence.Task) { t.Deadline = &deadline }
}

// WithTaskStatus overrides the status.
func WithTaskStatus(status string) TaskOption {
	return func(t *persistence.Task) { t.Status = status }
}

// WithLastReminder records a previous reminder.
func WithLastReminder(at time.Time) TaskOption {
	return func(t *persistence.Task) { t.LastReminderSent = &at }
}

// ------------------------------- Seeding ---------------------------------

// SeedUser stores user through the harness and returns the persisted row.
func (h *SQLiteHarness) SeedUser(tb testing.TB, user persistence.User) persistence.User {
	tb.Helper()
	stored, err := h.Storage.UpsertUser(context.Background(), user)
	if err != nil {
		tb.Fatalf("failed to seed user %s: %v", user.ID, err)
	}
	return stored
}

// SeedMeeting stores meeting through the harness and returns the persisted row.
func (h *SQLiteHarness) SeedMeeting(tb testing.TB, meeting persistence.Meeting) persistence.Meeting {
	tb.Helper()
	stored, err := h.Storage.InsertMeeting(context.Background(), meeting)
	if err != nil {
		tb.Fatalf("failed to seed meeting %s: %v", meeting.ID, err)
	}
	return stored
}

// SeedTask stores task through the harness and returns the persisted row.
func (h *SQLiteHarness) SeedTask(tb testing.TB, task persistence.Task) persistence.Task {
	tb.Helper()
	stored, err := h.Storage.InsertTask(context.Background(), task)
	if err != nil {
		tb.Fatalf("failed to seed task %s: %v", task.ID, err)
	}
	return stored
}
