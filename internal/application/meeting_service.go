package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/ai-secretary/internal/scheduler"
)

const (
	maxTitleLength     = 200
	maxDurationMinutes = 24 * 60
)

// MeetingRepository captures the persistence interactions needed by the meeting service.
type MeetingRepository interface {
	InsertMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	UpdateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
	ListMeetings(ctx context.Context, filter MeetingRepositoryFilter) ([]Meeting, error)
}

// MeetingRepositoryFilter narrows queries issued to the meeting repository.
type MeetingRepositoryFilter struct {
	StartsAfter      *time.Time
	StartsBefore     *time.Time
	IncludeCancelled bool
}

// UserLookup resolves account details by ID.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// ConferenceIssuer creates video rooms and signs join tokens for them.
type ConferenceIssuer interface {
	NewRoomName() string
	RoomURL(room string) string
	IssueToken(user ConferenceUser, now time.Time) (token string, expiresAt time.Time, err error)
}

// MeetingService orchestrates validation, conflict detection and persistence for meetings.
type MeetingService struct {
	meetings    MeetingRepository
	users       UserLookup
	conference  ConferenceIssuer
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMeetingService wires dependencies for meeting operations. users and
// conference may be nil.
func NewMeetingService(meetings MeetingRepository, users UserLookup, conference ConferenceIssuer, idGenerator func() string, now func() time.Time) *MeetingService {
	return NewMeetingServiceWithLogger(meetings, users, conference, idGenerator, now, nil)
}

// NewMeetingServiceWithLogger wires dependencies for meeting operations with a specific logger.
func NewMeetingServiceWithLogger(meetings MeetingRepository, users UserLookup, conference ConferenceIssuer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:    meetings,
		users:       users,
		conference:  conference,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *MeetingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MeetingService", operation, attrs...)
}

// CreateMeeting validates and stores a meeting. Overlapping meetings are
// reported as warnings and never block the write.
func (s *MeetingService) CreateMeeting(ctx context.Context, params CreateMeetingParams) (meeting Meeting, warnings []ConflictWarning, err error) {
	if s == nil {
		return Meeting{}, nil, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return Meeting{}, nil, fmt.Errorf("meeting repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateMeeting", "user_id", params.Principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "create meeting", "meeting_id", meeting.ID, "conflicts", len(warnings))
	}()

	if params.Principal.UserID == "" {
		return Meeting{}, nil, ErrUnauthorized
	}

	input := normalizeMeetingInput(params.Input)
	if input.Status == "" {
		input.Status = MeetingStatusScheduled
	}
	if vErr := validateMeetingInput(input); vErr.HasErrors() {
		return Meeting{}, nil, vErr
	}

	now := s.now()
	candidate := Meeting{
		ID:              s.idGenerator(),
		Title:           input.Title,
		Description:     input.Description,
		Start:           input.Start,
		DurationMinutes: input.DurationMinutes,
		Location:        input.Location,
		MeetLink:        input.MeetLink,
		Participants:    input.Participants,
		Status:          input.Status,
		SummaryText:     input.SummaryText,
		CreatedBy:       params.Principal.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if candidate.MeetLink == "" && candidate.Location == "" && s.conference != nil {
		candidate.MeetLink = s.conference.RoomURL(s.conference.NewRoomName())
	}

	if candidate.Status != MeetingStatusCancelled {
		warnings, err = s.detectConflicts(ctx, candidate.Start, candidate.DurationMinutes, "")
		if err != nil {
			return Meeting{}, nil, err
		}
	}

	meeting, err = s.meetings.InsertMeeting(ctx, candidate)
	if err != nil {
		return Meeting{}, nil, mapRepoError(err, "created_by")
	}
	return meeting, warnings, nil
}

// UpdateMeeting applies new field values to a meeting owned by the principal.
// Conflicts are re-checked only when the time slot moved.
func (s *MeetingService) UpdateMeeting(ctx context.Context, params UpdateMeetingParams) (meeting Meeting, warnings []ConflictWarning, err error) {
	if s == nil {
		return Meeting{}, nil, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return Meeting{}, nil, fmt.Errorf("meeting repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateMeeting", "user_id", params.Principal.UserID, "meeting_id", params.MeetingID)
	defer func() {
		logOutcome(ctx, logger, err, "update meeting", "conflicts", len(warnings))
	}()

	existing, err := s.meetings.GetMeeting(ctx, params.MeetingID)
	if err != nil {
		return Meeting{}, nil, mapRepoError(err, "meeting_id")
	}
	if !canModifyMeeting(params.Principal, existing) {
		return Meeting{}, nil, ErrUnauthorized
	}

	input := normalizeMeetingInput(params.Input)
	if input.Status == "" {
		input.Status = existing.Status
	}
	if vErr := validateMeetingInput(input); vErr.HasErrors() {
		return Meeting{}, nil, vErr
	}

	updated := existing
	updated.Title = input.Title
	updated.Description = input.Description
	updated.Start = input.Start
	updated.DurationMinutes = input.DurationMinutes
	updated.Location = input.Location
	if input.MeetLink != "" {
		updated.MeetLink = input.MeetLink
	}
	updated.Participants = input.Participants
	updated.Status = input.Status
	updated.SummaryText = input.SummaryText
	updated.UpdatedAt = s.now()

	slotMoved := !existing.Start.Equal(updated.Start) ||
		scheduler.EffectiveDuration(existing.DurationMinutes) != scheduler.EffectiveDuration(updated.DurationMinutes)
	reinstated := existing.Status == MeetingStatusCancelled && updated.Status != MeetingStatusCancelled
	if (slotMoved || reinstated) && updated.Status != MeetingStatusCancelled {
		warnings, err = s.detectConflicts(ctx, updated.Start, updated.DurationMinutes, updated.ID)
		if err != nil {
			return Meeting{}, nil, err
		}
	}

	meeting, err = s.meetings.UpdateMeeting(ctx, updated)
	if err != nil {
		return Meeting{}, nil, mapRepoError(err, "meeting_id")
	}
	return meeting, warnings, nil
}

// CancelMeeting marks a meeting cancelled. Cancelled meetings never appear as conflicts.
func (s *MeetingService) CancelMeeting(ctx context.Context, principal Principal, meetingID string) (meeting Meeting, err error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return Meeting{}, fmt.Errorf("meeting repository not configured")
	}

	logger := s.loggerWith(ctx, "CancelMeeting", "user_id", principal.UserID, "meeting_id", meetingID)
	defer func() { logOutcome(ctx, logger, err, "cancel meeting") }()

	existing, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return Meeting{}, mapRepoError(err, "meeting_id")
	}
	if !canModifyMeeting(principal, existing) {
		return Meeting{}, ErrUnauthorized
	}
	if existing.Status == MeetingStatusCancelled {
		return existing, nil
	}

	existing.Status = MeetingStatusCancelled
	existing.UpdatedAt = s.now()
	meeting, err = s.meetings.UpdateMeeting(ctx, existing)
	if err != nil {
		return Meeting{}, mapRepoError(err, "meeting_id")
	}
	return meeting, nil
}

// DeleteMeeting removes a meeting owned by the principal.
func (s *MeetingService) DeleteMeeting(ctx context.Context, principal Principal, meetingID string) (err error) {
	if s == nil {
		return fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return fmt.Errorf("meeting repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteMeeting", "user_id", principal.UserID, "meeting_id", meetingID)
	defer func() { logOutcome(ctx, logger, err, "delete meeting") }()

	existing, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return mapRepoError(err, "meeting_id")
	}
	if !canModifyMeeting(principal, existing) {
		return ErrUnauthorized
	}
	if err = s.meetings.DeleteMeeting(ctx, meetingID); err != nil {
		return mapRepoError(err, "meeting_id")
	}
	return nil
}

// GetMeeting returns a single meeting.
func (s *MeetingService) GetMeeting(ctx context.Context, principal Principal, meetingID string) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return Meeting{}, fmt.Errorf("meeting repository not configured")
	}
	if principal.UserID == "" && !principal.IsAdmin {
		return Meeting{}, ErrUnauthorized
	}
	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return Meeting{}, mapRepoError(err, "meeting_id")
	}
	return meeting, nil
}

// ListMeetings returns meetings ordered by start then id.
func (s *MeetingService) ListMeetings(ctx context.Context, params ListMeetingsParams) ([]Meeting, error) {
	if s == nil {
		return nil, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return nil, nil
	}
	if params.Principal.UserID == "" && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if params.From != nil && params.To != nil && !params.From.Before(*params.To) {
		return nil, newValidationError("to", "must be after from")
	}

	meetings, err := s.meetings.ListMeetings(ctx, MeetingRepositoryFilter{
		StartsAfter:      params.From,
		StartsBefore:     params.To,
		IncludeCancelled: params.IncludeCancelled,
	})
	if err != nil {
		return nil, mapRepoError(err, "meeting_id")
	}
	return meetings, nil
}

// CheckConflicts reports which stored meetings would overlap the candidate
// slot without writing anything.
func (s *MeetingService) CheckConflicts(ctx context.Context, params CheckConflictsParams) ([]ConflictWarning, error) {
	if s == nil {
		return nil, fmt.Errorf("MeetingService is nil")
	}
	if params.Principal.UserID == "" && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if params.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	validateDuration(params.DurationMinutes, vErr)
	if vErr.HasErrors() {
		return nil, vErr
	}

	return s.detectConflicts(ctx, params.Start, params.DurationMinutes, strings.TrimSpace(params.ExcludeMeetingID))
}

// JoinMeeting returns the video room for a meeting along with a signed token
// for the principal. A room is allocated on first use when the meeting has none.
func (s *MeetingService) JoinMeeting(ctx context.Context, principal Principal, meetingID string) (access ConferenceAccess, err error) {
	if s == nil {
		return ConferenceAccess{}, fmt.Errorf("MeetingService is nil")
	}

	logger := s.loggerWith(ctx, "JoinMeeting", "user_id", principal.UserID, "meeting_id", meetingID)
	defer func() { logOutcome(ctx, logger, err, "join meeting", "room_url", access.RoomURL) }()

	if s.conference == nil {
		return ConferenceAccess{}, ErrUnavailable
	}
	if s.meetings == nil {
		return ConferenceAccess{}, fmt.Errorf("meeting repository not configured")
	}
	if principal.UserID == "" {
		return ConferenceAccess{}, ErrUnauthorized
	}

	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return ConferenceAccess{}, mapRepoError(err, "meeting_id")
	}
	if meeting.Status == MeetingStatusCancelled {
		return ConferenceAccess{}, newValidationError("status", "meeting is cancelled")
	}

	prefix := s.conference.RoomURL("")
	if !strings.HasPrefix(meeting.MeetLink, prefix) || len(meeting.MeetLink) == len(prefix) {
		meeting.MeetLink = s.conference.RoomURL(s.conference.NewRoomName())
		meeting.UpdatedAt = s.now()
		if meeting, err = s.meetings.UpdateMeeting(ctx, meeting); err != nil {
			return ConferenceAccess{}, mapRepoError(err, "meeting_id")
		}
	}

	user := ConferenceUser{
		ID:        principal.UserID,
		Moderator: canModifyMeeting(principal, meeting),
	}
	if s.users != nil {
		account, lookupErr := s.users.GetUser(ctx, principal.UserID)
		switch {
		case lookupErr == nil:
			user.Name = account.DisplayName
			user.Email = account.Email
		case !errors.Is(mapRepoError(lookupErr, "user_id"), ErrNotFound):
			return ConferenceAccess{}, lookupErr
		}
	}

	token, expiresAt, err := s.conference.IssueToken(user, s.now())
	if err != nil {
		return ConferenceAccess{}, fmt.Errorf("issue conference token: %w", err)
	}

	return ConferenceAccess{
		MeetingID: meeting.ID,
		RoomURL:   meeting.MeetLink,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *MeetingService) detectConflicts(ctx context.Context, start time.Time, durationMinutes *int, excludeID string) ([]ConflictWarning, error) {
	if s.meetings == nil {
		return nil, nil
	}
	stored, err := s.meetings.ListMeetings(ctx, MeetingRepositoryFilter{})
	if err != nil {
		return nil, mapRepoError(err, "meeting_id")
	}

	candidates := make([]scheduler.Meeting, len(stored))
	for i, m := range stored {
		candidates[i] = scheduler.Meeting{
			ID:              m.ID,
			Title:           m.Title,
			Start:           m.Start,
			DurationMinutes: m.DurationMinutes,
			Status:          scheduler.MeetingStatus(m.Status),
		}
	}

	conflicts := scheduler.FindConflicts(start, durationMinutes, excludeID, candidates)
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, c := range conflicts {
		warnings = append(warnings, ConflictWarning{
			MeetingID: c.ID,
			Title:     c.Title,
			Start:     c.Start,
			End:       c.End(),
		})
	}
	return warnings, nil
}

// End returns the meeting end, applying the default duration when none is set.
func (m Meeting) End() time.Time {
	return m.Start.Add(scheduler.EffectiveDuration(m.DurationMinutes))
}

func canModifyMeeting(principal Principal, meeting Meeting) bool {
	return principal.IsAdmin || (principal.UserID != "" && principal.UserID == meeting.CreatedBy)
}

func normalizeMeetingInput(input MeetingInput) MeetingInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)
	input.MeetLink = strings.TrimSpace(input.MeetLink)
	input.Status = strings.TrimSpace(strings.ToLower(input.Status))
	input.Participants = normalizeEmails(input.Participants)
	return input
}

func validateMeetingInput(input MeetingInput) *ValidationError {
	vErr := &ValidationError{}

	switch {
	case input.Title == "":
		vErr.add("title", "title is required")
	case len(input.Title) > maxTitleLength:
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	validateDuration(input.DurationMinutes, vErr)

	for _, participant := range input.Participants {
		if _, err := mail.ParseAddress(participant); err != nil {
			vErr.add("participants", fmt.Sprintf("%q is not a valid email address", participant))
			break
		}
	}

	switch input.Status {
	case MeetingStatusScheduled, MeetingStatusCompleted, MeetingStatusCancelled:
	default:
		vErr.add("status", "status must be scheduled, completed or cancelled")
	}

	return vErr
}

func validateDuration(durationMinutes *int, vErr *ValidationError) {
	if durationMinutes == nil {
		return
	}
	if *durationMinutes <= 0 || *durationMinutes > maxDurationMinutes {
		vErr.add("duration_minutes", fmt.Sprintf("duration must be between 1 and %d minutes", maxDurationMinutes))
	}
}

// normalizeEmails trims, lower-cases and de-duplicates addresses, keeping the
// first occurrence order.
func normalizeEmails(emails []string) []string {
	if len(emails) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
