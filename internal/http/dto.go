package http

import (
	"strings"
	"time"

	"github.com/example/ai-secretary/internal/application"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// timeFields parses RFC3339 request values and collects the fields that
// fail into a single validation error.
type timeFields struct {
	vErr application.ValidationError
}

func (f *timeFields) parse(field, value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		if f.vErr.FieldErrors == nil {
			f.vErr.FieldErrors = make(map[string]string)
		}
		f.vErr.FieldErrors[field] = field + " must be an RFC3339 timestamp"
		return time.Time{}
	}
	return ts
}

func (f *timeFields) parsePtr(field string, value *string) *time.Time {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	ts := f.parse(field, *value)
	if ts.IsZero() {
		return nil
	}
	return &ts
}

func (f *timeFields) err() error {
	if !f.vErr.HasErrors() {
		return nil
	}
	return &f.vErr
}

type meetingRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Start           string   `json:"start"`
	DurationMinutes *int     `json:"duration_minutes"`
	Location        string   `json:"location"`
	MeetLink        string   `json:"meet_link"`
	Participants    []string `json:"participants"`
	Status          string   `json:"status"`
	SummaryText     string   `json:"summary_text"`
}

func (r meetingRequest) toInput() (application.MeetingInput, error) {
	var fields timeFields
	input := application.MeetingInput{
		Title:           r.Title,
		Description:     r.Description,
		Start:           fields.parse("start", r.Start),
		DurationMinutes: r.DurationMinutes,
		Location:        r.Location,
		MeetLink:        r.MeetLink,
		Participants:    r.Participants,
		Status:          r.Status,
		SummaryText:     r.SummaryText,
	}
	return input, fields.err()
}

type meetingDTO struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Location        string   `json:"location,omitempty"`
	MeetLink        string   `json:"meet_link,omitempty"`
	Participants    []string `json:"participants"`
	Status          string   `json:"status"`
	SummaryText     string   `json:"summary_text,omitempty"`
	CreatedBy       string   `json:"created_by"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type conflictWarningDTO struct {
	MeetingID string `json:"meeting_id"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

type meetingResponse struct {
	Meeting  meetingDTO           `json:"meeting"`
	Warnings []conflictWarningDTO `json:"warnings"`
}

type conflictsRequest struct {
	Start            string `json:"start"`
	DurationMinutes  *int   `json:"duration_minutes"`
	ExcludeMeetingID string `json:"exclude_meeting_id"`
}

type conferenceDTO struct {
	MeetingID string `json:"meeting_id"`
	RoomURL   string `json:"room_url"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func toMeetingDTO(meeting application.Meeting) meetingDTO {
	participants := meeting.Participants
	if participants == nil {
		participants = []string{}
	}
	return meetingDTO{
		ID:              meeting.ID,
		Title:           meeting.Title,
		Description:     meeting.Description,
		Start:           formatTime(meeting.Start),
		End:             formatTime(meeting.End()),
		DurationMinutes: meeting.DurationMinutes,
		Location:        meeting.Location,
		MeetLink:        meeting.MeetLink,
		Participants:    participants,
		Status:          meeting.Status,
		SummaryText:     meeting.SummaryText,
		CreatedBy:       meeting.CreatedBy,
		CreatedAt:       formatTime(meeting.CreatedAt),
		UpdatedAt:       formatTime(meeting.UpdatedAt),
	}
}

func toMeetingDTOs(meetings []application.Meeting) []meetingDTO {
	out := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		out = append(out, toMeetingDTO(meeting))
	}
	return out
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			MeetingID: warning.MeetingID,
			Title:     warning.Title,
			Start:     formatTime(warning.Start),
			End:       formatTime(warning.End),
		})
	}
	return out
}

type taskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	OwnerID     string  `json:"owner_id"`
	OwnerEmail  string  `json:"owner_email"`
	Deadline    *string `json:"deadline"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	MeetingID   string  `json:"meeting_id"`
}

func (r taskRequest) toInput() (application.TaskInput, error) {
	var fields timeFields
	input := application.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		OwnerEmail:  r.OwnerEmail,
		Deadline:    fields.parsePtr("deadline", r.Deadline),
		Priority:    r.Priority,
		Status:      r.Status,
		MeetingID:   r.MeetingID,
	}
	return input, fields.err()
}

type taskDTO struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description,omitempty"`
	OwnerID          string  `json:"owner_id,omitempty"`
	OwnerEmail       string  `json:"owner_email,omitempty"`
	Deadline         *string `json:"deadline"`
	Priority         string  `json:"priority"`
	Status           string  `json:"status"`
	MeetingID        string  `json:"meeting_id,omitempty"`
	CreatedBy        string  `json:"created_by"`
	LastReminderSent *string `json:"last_reminder_sent"`
	EscalatedAt      *string `json:"escalated_at"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func toTaskDTO(task application.Task) taskDTO {
	return taskDTO{
		ID:               task.ID,
		Title:            task.Title,
		Description:      task.Description,
		OwnerID:          task.OwnerID,
		OwnerEmail:       task.OwnerEmail,
		Deadline:         formatTimePtr(task.Deadline),
		Priority:         task.Priority,
		Status:           task.Status,
		MeetingID:        task.MeetingID,
		CreatedBy:        task.CreatedBy,
		LastReminderSent: formatTimePtr(task.LastReminderSent),
		EscalatedAt:      formatTimePtr(task.EscalatedAt),
		CreatedAt:        formatTime(task.CreatedAt),
		UpdatedAt:        formatTime(task.UpdatedAt),
	}
}

func toTaskDTOs(tasks []application.Task) []taskDTO {
	out := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskDTO(task))
	}
	return out
}

type reviewDTO struct {
	ID              string                     `json:"id"`
	Type            string                     `json:"type"`
	Status          string                     `json:"status"`
	Title           string                     `json:"title"`
	Content         string                     `json:"content"`
	OriginalContent *string                    `json:"original_content,omitempty"`
	Metadata        application.ReviewMetadata `json:"metadata"`
	MeetingID       string                     `json:"meeting_id,omitempty"`
	CreatedBy       string                     `json:"created_by,omitempty"`
	ReviewedBy      string                     `json:"reviewed_by,omitempty"`
	ReviewNotes     string                     `json:"review_notes,omitempty"`
	ReviewedAt      *string                    `json:"reviewed_at"`
	CreatedAt       string                     `json:"created_at"`
	UpdatedAt       string                     `json:"updated_at"`
}

func toReviewDTO(item application.ReviewItem) reviewDTO {
	return reviewDTO{
		ID:              item.ID,
		Type:            item.Type,
		Status:          item.Status,
		Title:           item.Title,
		Content:         item.Content,
		OriginalContent: item.OriginalContent,
		Metadata:        item.Metadata,
		MeetingID:       item.MeetingID,
		CreatedBy:       item.CreatedBy,
		ReviewedBy:      item.ReviewedBy,
		ReviewNotes:     item.ReviewNotes,
		ReviewedAt:      formatTimePtr(item.ReviewedAt),
		CreatedAt:       formatTime(item.CreatedAt),
		UpdatedAt:       formatTime(item.UpdatedAt),
	}
}

func toReviewDTOs(items []application.ReviewItem) []reviewDTO {
	out := make([]reviewDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toReviewDTO(item))
	}
	return out
}

type approveRequest struct {
	EditedContent *string `json:"edited_content"`
	Notes         string  `json:"notes"`
}

type rejectRequest struct {
	Notes string `json:"notes"`
}

type approveResponse struct {
	Item           reviewDTO `json:"item"`
	CreatedTaskIDs []string  `json:"created_task_ids"`
}

type reminderFailureDTO struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

type reminderOutcomeDTO struct {
	TaskID   string `json:"task_id"`
	ReviewID string `json:"review_id"`
}

type reminderRunDTO struct {
	StartedAt string               `json:"started_at"`
	Eligible  int                  `json:"eligible"`
	Created   []reminderOutcomeDTO `json:"created"`
	Failures  []reminderFailureDTO `json:"failures"`
	Skipped   []string             `json:"skipped"`
}

func toReminderRunDTO(run application.ReminderRun) reminderRunDTO {
	dto := reminderRunDTO{
		StartedAt: formatTime(run.StartedAt),
		Eligible:  run.Eligible,
		Created:   make([]reminderOutcomeDTO, 0, len(run.Created)),
		Failures:  make([]reminderFailureDTO, 0, len(run.Failures)),
		Skipped:   append([]string{}, run.Skipped...),
	}
	for _, created := range run.Created {
		dto.Created = append(dto.Created, reminderOutcomeDTO{TaskID: created.TaskID, ReviewID: created.ReviewID})
	}
	for _, failure := range run.Failures {
		msg := ""
		if failure.Err != nil {
			msg = failure.Err.Error()
		}
		dto.Failures = append(dto.Failures, reminderFailureDTO{TaskID: failure.TaskID, Error: msg})
	}
	return dto
}
