package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const maxTranscriptLength = 200_000

// MeetingAssistant turns meeting transcripts and free text into reviewable content.
type MeetingAssistant interface {
	SummarizeMeeting(ctx context.Context, req MinutesRequest) (string, error)
	ExtractActionItems(ctx context.Context, req MinutesRequest) ([]ActionItem, error)
	Translate(ctx context.Context, text string) (string, error)
}

// MinutesService queues meeting summaries, action items and translations for review.
type MinutesService struct {
	meetings    MeetingRepository
	reviews     ReviewRepository
	assistant   MeetingAssistant
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMinutesService wires dependencies for minutes operations. A nil assistant
// makes every operation report ErrUnavailable.
func NewMinutesService(meetings MeetingRepository, reviews ReviewRepository, assistant MeetingAssistant, idGenerator func() string, now func() time.Time) *MinutesService {
	return NewMinutesServiceWithLogger(meetings, reviews, assistant, idGenerator, now, nil)
}

// NewMinutesServiceWithLogger wires dependencies for minutes operations with a specific logger.
func NewMinutesServiceWithLogger(meetings MeetingRepository, reviews ReviewRepository, assistant MeetingAssistant, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MinutesService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MinutesService{
		meetings:    meetings,
		reviews:     reviews,
		assistant:   assistant,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *MinutesService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MinutesService", operation, attrs...)
}

func (s *MinutesService) ready() error {
	if s == nil {
		return fmt.Errorf("MinutesService is nil")
	}
	if s.meetings == nil || s.reviews == nil {
		return fmt.Errorf("minutes repositories not configured")
	}
	if s.assistant == nil {
		return ErrUnavailable
	}
	return nil
}

// GenerateSummary summarizes a meeting transcript into a pending meeting_summary item.
func (s *MinutesService) GenerateSummary(ctx context.Context, params GenerateMinutesParams) (item ReviewItem, err error) {
	if err = s.ready(); err != nil {
		return ReviewItem{}, err
	}

	logger := s.loggerWith(ctx, "GenerateSummary", "user_id", params.Principal.UserID, "meeting_id", params.MeetingID)
	defer func() { logOutcome(ctx, logger, err, "generate meeting summary", "review_id", item.ID) }()

	req, err := s.minutesRequest(ctx, params)
	if err != nil {
		return ReviewItem{}, err
	}

	summary, err := s.assistant.SummarizeMeeting(ctx, req)
	if err != nil {
		return ReviewItem{}, fmt.Errorf("summarize meeting: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return ReviewItem{}, fmt.Errorf("summarize meeting: assistant returned no text")
	}

	return s.enqueue(ctx, params.Principal, ReviewItem{
		Type:      ReviewTypeMeetingSummary,
		Title:     "Meeting Summary: " + req.Meeting.Title,
		Content:   summary,
		MeetingID: req.Meeting.ID,
	})
}

// ExtractActionItems pulls action items out of a meeting transcript into a
// pending action_items item. Owners that are not email addresses and deadlines
// that cannot be parsed are dropped so that the item approves cleanly.
func (s *MinutesService) ExtractActionItems(ctx context.Context, params GenerateMinutesParams) (item ReviewItem, err error) {
	if err = s.ready(); err != nil {
		return ReviewItem{}, err
	}

	logger := s.loggerWith(ctx, "ExtractActionItems", "user_id", params.Principal.UserID, "meeting_id", params.MeetingID)
	var extracted int
	defer func() {
		logOutcome(ctx, logger, err, "extract action items", "review_id", item.ID, "items", extracted)
	}()

	req, err := s.minutesRequest(ctx, params)
	if err != nil {
		return ReviewItem{}, err
	}

	actions, err := s.assistant.ExtractActionItems(ctx, req)
	if err != nil {
		return ReviewItem{}, fmt.Errorf("extract action items: %w", err)
	}
	actions = cleanActionItems(actions)
	extracted = len(actions)

	content, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return ReviewItem{}, fmt.Errorf("encode action items: %w", err)
	}

	return s.enqueue(ctx, params.Principal, ReviewItem{
		Type:      ReviewTypeActionItems,
		Title:     "Action Items: " + req.Meeting.Title,
		Content:   string(content),
		MeetingID: req.Meeting.ID,
	})
}

// Translate renders text in English as a pending translation item. The source
// text is kept in OriginalContent.
func (s *MinutesService) Translate(ctx context.Context, params TranslateParams) (item ReviewItem, err error) {
	if err = s.ready(); err != nil {
		return ReviewItem{}, err
	}

	logger := s.loggerWith(ctx, "Translate", "user_id", params.Principal.UserID, "meeting_id", params.MeetingID)
	defer func() { logOutcome(ctx, logger, err, "translate text", "review_id", item.ID) }()

	if params.Principal.UserID == "" {
		return ReviewItem{}, ErrUnauthorized
	}
	text := strings.TrimSpace(params.Text)
	if vErr := validateLongText("text", text); vErr != nil {
		return ReviewItem{}, vErr
	}

	meetingID := strings.TrimSpace(params.MeetingID)
	if meetingID != "" {
		if _, err := s.meetings.GetMeeting(ctx, meetingID); err != nil {
			return ReviewItem{}, mapRepoError(err, "meeting_id")
		}
	}

	translated, err := s.assistant.Translate(ctx, text)
	if err != nil {
		return ReviewItem{}, fmt.Errorf("translate: %w", err)
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return ReviewItem{}, fmt.Errorf("translate: assistant returned no text")
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = "Translation"
	}
	return s.enqueue(ctx, params.Principal, ReviewItem{
		Type:            ReviewTypeTranslation,
		Title:           title,
		Content:         translated,
		OriginalContent: &text,
		MeetingID:       meetingID,
	})
}

func (s *MinutesService) minutesRequest(ctx context.Context, params GenerateMinutesParams) (MinutesRequest, error) {
	if params.Principal.UserID == "" {
		return MinutesRequest{}, ErrUnauthorized
	}
	transcript := strings.TrimSpace(params.Transcript)
	if vErr := validateLongText("transcript", transcript); vErr != nil {
		return MinutesRequest{}, vErr
	}
	meeting, err := s.meetings.GetMeeting(ctx, params.MeetingID)
	if err != nil {
		return MinutesRequest{}, mapRepoError(err, "meeting_id")
	}
	return MinutesRequest{Meeting: meeting, Transcript: transcript}, nil
}

func (s *MinutesService) enqueue(ctx context.Context, principal Principal, item ReviewItem) (ReviewItem, error) {
	now := s.now()
	item.ID = s.idGenerator()
	item.Status = ReviewStatusPending
	item.Metadata.MeetingID = item.MeetingID
	item.CreatedBy = principal.UserID
	item.CreatedAt = now
	item.UpdatedAt = now

	stored, err := s.reviews.InsertReviewItem(ctx, item)
	if err != nil {
		return ReviewItem{}, mapRepoError(err, "meeting_id")
	}
	return stored, nil
}

func validateLongText(field, text string) *ValidationError {
	switch {
	case text == "":
		return newValidationError(field, field+" is required")
	case utf8.RuneCountInString(text) > maxTranscriptLength:
		return newValidationError(field, fmt.Sprintf("%s must be at most %d characters", field, maxTranscriptLength))
	}
	return nil
}

func cleanActionItems(actions []ActionItem) []ActionItem {
	out := make([]ActionItem, 0, len(actions))
	for _, action := range actions {
		action.Title = strings.TrimSpace(action.Title)
		action.Description = strings.TrimSpace(action.Description)
		if action.Title == "" {
			action.Title, action.Description = action.Description, ""
		}
		if action.Title == "" {
			continue
		}
		action.OwnerEmail = strings.ToLower(strings.TrimSpace(action.OwnerEmail))
		if addr, err := mail.ParseAddress(action.OwnerEmail); err != nil || addr.Address != action.OwnerEmail {
			action.OwnerEmail = ""
		}
		if _, ok := parseDeadline(action.Deadline); !ok {
			action.Deadline = ""
		}
		switch action.Priority = strings.ToLower(strings.TrimSpace(action.Priority)); action.Priority {
		case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		default:
			action.Priority = ""
		}
		out = append(out, action)
	}
	return out
}
