package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// SystemPrincipal acts for background jobs such as the scheduled reminder run.
var SystemPrincipal = Principal{IsAdmin: true}

// Meeting statuses.
const (
	MeetingStatusScheduled = "scheduled"
	MeetingStatusCompleted = "completed"
	MeetingStatusCancelled = "cancelled"
)

// MeetingInput captures caller provided meeting fields.
type MeetingInput struct {
	Title           string
	Description     string
	Start           time.Time
	DurationMinutes *int
	Location        string
	MeetLink        string
	Participants    []string
	Status          string
	SummaryText     string
}

// Meeting represents a stored calendar entry.
type Meeting struct {
	ID              string
	Title           string
	Description     string
	Start           time.Time
	DurationMinutes *int
	Location        string
	MeetLink        string
	Participants    []string
	Status          string
	SummaryText     string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ConflictWarning describes an existing meeting that overlaps a candidate.
type ConflictWarning struct {
	MeetingID string
	Title     string
	Start     time.Time
	End       time.Time
}

// CreateMeetingParams wraps the data required to create a meeting.
type CreateMeetingParams struct {
	Principal Principal
	Input     MeetingInput
}

// UpdateMeetingParams wraps the data required to update an existing meeting.
type UpdateMeetingParams struct {
	Principal Principal
	MeetingID string
	Input     MeetingInput
}

// ListMeetingsParams narrows meeting listings. Nil bounds are open.
type ListMeetingsParams struct {
	Principal        Principal
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
}

// CheckConflictsParams describes a candidate slot for a dry-run conflict check.
type CheckConflictsParams struct {
	Principal        Principal
	Start            time.Time
	DurationMinutes  *int
	ExcludeMeetingID string
}

// ConferenceUser identifies the participant a conference token is issued for.
type ConferenceUser struct {
	ID        string
	Name      string
	Email     string
	Moderator bool
}

// ConferenceAccess is what a participant needs to join a meeting's video room.
type ConferenceAccess struct {
	MeetingID string
	RoomURL   string
	Token     string
	ExpiresAt time.Time
}

// Task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Task statuses.
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusBlocked    = "blocked"
	TaskStatusOverdue    = "overdue"
)

// TaskInput captures caller provided task fields.
type TaskInput struct {
	Title       string
	Description string
	OwnerID     string
	OwnerEmail  string
	Deadline    *time.Time
	Priority    string
	Status      string
	MeetingID   string
}

// Task represents an action item assigned to an owner.
type Task struct {
	ID               string
	Title            string
	Description      string
	OwnerID          string
	OwnerEmail       string
	Deadline         *time.Time
	Priority         string
	Status           string
	MeetingID        string
	CreatedBy        string
	LastReminderSent *time.Time
	EscalatedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateTaskParams wraps the data required to create a task.
type CreateTaskParams struct {
	Principal Principal
	Input     TaskInput
}

// UpdateTaskParams wraps the data required to update a task.
type UpdateTaskParams struct {
	Principal Principal
	TaskID    string
	Input     TaskInput
}

// ListTasksParams narrows task listings. Empty fields are ignored.
type ListTasksParams struct {
	Principal Principal
	Status    string
	OwnerID   string
}

// Review item types.
const (
	ReviewTypeMeetingSummary = "meeting_summary"
	ReviewTypeActionItems    = "action_items"
	ReviewTypeEmailDraft     = "email_draft"
	ReviewTypeTranslation    = "translation"
)

// Review item statuses.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
	ReviewStatusEdited   = "edited"
)

// ReviewMetadata is the structured payload attached to a review item.
type ReviewMetadata struct {
	TaskID         string `json:"task_id,omitempty"`
	RecipientEmail string `json:"recipient_email,omitempty"`
	IsReminder     bool   `json:"is_reminder,omitempty"`
	IsEscalation   bool   `json:"is_escalation,omitempty"`
	MeetingID      string `json:"meeting_id,omitempty"`
}

// ReviewItem is AI generated content that waits for a human decision.
type ReviewItem struct {
	ID              string
	Type            string
	Status          string
	Title           string
	Content         string
	OriginalContent *string
	Metadata        ReviewMetadata
	MeetingID       string
	CreatedBy       string
	ReviewedBy      string
	ReviewNotes     string
	ReviewedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ApproveReviewParams wraps a reviewer's approval, optionally with edits.
type ApproveReviewParams struct {
	Principal     Principal
	ReviewID      string
	EditedContent *string
	Notes         string
}

// ApproveReviewResult reports the updated item and any tasks it produced.
type ApproveReviewResult struct {
	Item           ReviewItem
	CreatedTaskIDs []string
}

// RejectReviewParams wraps a reviewer's rejection.
type RejectReviewParams struct {
	Principal Principal
	ReviewID  string
	Notes     string
}

// ActionItem is one entry of an action_items review payload.
type ActionItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	OwnerEmail  string `json:"owner_email,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// MinutesRequest is the meeting context handed to a MeetingAssistant.
type MinutesRequest struct {
	Meeting    Meeting
	Transcript string
}

// GenerateMinutesParams asks for content derived from a meeting transcript.
type GenerateMinutesParams struct {
	Principal  Principal
	MeetingID  string
	Transcript string
}

// TranslateParams asks for an English rendition of Text. MeetingID is optional.
type TranslateParams struct {
	Principal Principal
	Text      string
	Title     string
	MeetingID string
}

// EmailDraft is a drafted email awaiting review.
type EmailDraft struct {
	Subject string
	Body    string
}

// DraftRequest carries the task context handed to a drafter.
type DraftRequest struct {
	Task           Task
	RecipientEmail string
	Now            time.Time
}

// ReminderOutcome records one successfully drafted reminder.
type ReminderOutcome struct {
	TaskID   string
	ReviewID string
}

// ReminderFailure records why drafting a reminder for one task failed.
type ReminderFailure struct {
	TaskID string
	Err    error
}

// ReminderRun summarises a GenerateReminders pass.
type ReminderRun struct {
	StartedAt time.Time
	Eligible  int
	Created   []ReminderOutcome
	Failures  []ReminderFailure
	// Skipped lists eligible tasks another run reminded first.
	Skipped []string
}

// User represents an account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// RegisterUserParams wraps the data required to create or refresh an account.
type RegisterUserParams struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// Session is a signed session token issued to a user.
type Session struct {
	Token     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
