package persistence

import "time"

// User represents an account that can sign in and own meetings or tasks.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Meeting represents a calendar entry stored in persistence.
type Meeting struct {
	ID              string
	Title           string
	Description     *string
	Start           time.Time
	DurationMinutes *int
	Location        *string
	MeetLink        *string
	Participants    []string
	Status          string
	SummaryText     *string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Task represents an action assigned to an owner, optionally tied to a meeting.
type Task struct {
	ID               string
	Title            string
	Description      *string
	OwnerID          *string
	OwnerEmail       *string
	Deadline         *time.Time
	Priority         string
	Status           string
	MeetingID        *string
	CreatedBy        string
	LastReminderSent *time.Time
	EscalatedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReviewItem represents AI generated content waiting for, or past, human review.
type ReviewItem struct {
	ID              string
	Type            string
	Status          string
	Title           string
	Content         string
	OriginalContent *string
	// Metadata is stored verbatim as JSON text.
	Metadata    string
	MeetingID   *string
	CreatedBy   string
	ReviewedBy  *string
	ReviewNotes *string
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
