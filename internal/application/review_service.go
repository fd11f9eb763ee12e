package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// ReviewRepository captures the persistence interactions needed by the review queue.
type ReviewRepository interface {
	InsertReviewItem(ctx context.Context, item ReviewItem) (ReviewItem, error)
	GetReviewItem(ctx context.Context, id string) (ReviewItem, error)
	ResolveReviewItem(ctx context.Context, item ReviewItem) (ReviewItem, error)
	DeleteReviewItem(ctx context.Context, id string) error
	ListReviewItems(ctx context.Context, statuses []string) ([]ReviewItem, error)
}

// TaskCreator creates tasks on behalf of a principal.
type TaskCreator interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (Task, error)
}

// ReviewService lets humans approve, edit or reject AI generated content.
type ReviewService struct {
	reviews ReviewRepository
	tasks   TaskCreator
	now     func() time.Time
	logger  *slog.Logger
}

// NewReviewService wires dependencies for review operations. tasks may be nil,
// in which case approved action items create no tasks.
func NewReviewService(reviews ReviewRepository, tasks TaskCreator, now func() time.Time) *ReviewService {
	return NewReviewServiceWithLogger(reviews, tasks, now, nil)
}

// NewReviewServiceWithLogger wires dependencies for review operations with a specific logger.
func NewReviewServiceWithLogger(reviews ReviewRepository, tasks TaskCreator, now func() time.Time, logger *slog.Logger) *ReviewService {
	if now == nil {
		now = time.Now
	}
	return &ReviewService{reviews: reviews, tasks: tasks, now: now, logger: defaultLogger(logger)}
}

func (s *ReviewService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReviewService", operation, attrs...)
}

// ListPending returns items awaiting review, newest first.
func (s *ReviewService) ListPending(ctx context.Context, principal Principal) ([]ReviewItem, error) {
	return s.list(ctx, principal, []string{ReviewStatusPending})
}

// ListCompleted returns reviewed items, most recently reviewed first.
func (s *ReviewService) ListCompleted(ctx context.Context, principal Principal) ([]ReviewItem, error) {
	items, err := s.list(ctx, principal, []string{ReviewStatusApproved, ReviewStatusRejected, ReviewStatusEdited})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return reviewedAt(items[i]).After(reviewedAt(items[j]))
	})
	return items, nil
}

func (s *ReviewService) list(ctx context.Context, principal Principal, statuses []string) ([]ReviewItem, error) {
	if s == nil {
		return nil, fmt.Errorf("ReviewService is nil")
	}
	if s.reviews == nil {
		return nil, nil
	}
	if principal.UserID == "" && !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	items, err := s.reviews.ListReviewItems(ctx, statuses)
	if err != nil {
		return nil, mapRepoError(err, "review_id")
	}
	return items, nil
}

// GetReviewItem returns a single review item.
func (s *ReviewService) GetReviewItem(ctx context.Context, principal Principal, id string) (ReviewItem, error) {
	if s == nil {
		return ReviewItem{}, fmt.Errorf("ReviewService is nil")
	}
	if s.reviews == nil {
		return ReviewItem{}, fmt.Errorf("review repository not configured")
	}
	if principal.UserID == "" && !principal.IsAdmin {
		return ReviewItem{}, ErrUnauthorized
	}
	item, err := s.reviews.GetReviewItem(ctx, id)
	if err != nil {
		return ReviewItem{}, mapRepoError(err, "review_id")
	}
	return item, nil
}

// DeleteReviewItem removes an item. Only its creator or an admin may do so.
func (s *ReviewService) DeleteReviewItem(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("ReviewService is nil")
	}
	if s.reviews == nil {
		return fmt.Errorf("review repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteReviewItem", "user_id", principal.UserID, "review_id", id)
	defer func() { logOutcome(ctx, logger, err, "delete review item") }()

	item, err := s.reviews.GetReviewItem(ctx, id)
	if err != nil {
		return mapRepoError(err, "review_id")
	}
	if !principal.IsAdmin && (principal.UserID == "" || principal.UserID != item.CreatedBy) {
		return ErrUnauthorized
	}
	if err = s.reviews.DeleteReviewItem(ctx, id); err != nil {
		return mapRepoError(err, "review_id")
	}
	return nil
}

// Approve accepts a pending item. Supplying edited content marks the item as
// edited and keeps the draft in OriginalContent unless it already holds the
// source text of a translation. Approving an action_items
// item creates a task for every entry that names an owner email.
func (s *ReviewService) Approve(ctx context.Context, params ApproveReviewParams) (result ApproveReviewResult, err error) {
	if s == nil {
		return ApproveReviewResult{}, fmt.Errorf("ReviewService is nil")
	}
	if s.reviews == nil {
		return ApproveReviewResult{}, fmt.Errorf("review repository not configured")
	}

	logger := s.loggerWith(ctx, "Approve", "user_id", params.Principal.UserID, "review_id", params.ReviewID)
	defer func() {
		logOutcome(ctx, logger, err, "approve review item",
			"status", result.Item.Status,
			"created_tasks", len(result.CreatedTaskIDs),
		)
	}()

	if params.Principal.UserID == "" {
		return ApproveReviewResult{}, ErrUnauthorized
	}

	item, err := s.reviews.GetReviewItem(ctx, params.ReviewID)
	if err != nil {
		return ApproveReviewResult{}, mapRepoError(err, "review_id")
	}
	if item.Status != ReviewStatusPending {
		return ApproveReviewResult{}, ErrInvalidState
	}

	if params.EditedContent != nil {
		edited := strings.TrimSpace(*params.EditedContent)
		if edited == "" {
			return ApproveReviewResult{}, newValidationError("edited_content", "edited content must not be empty")
		}
		if item.OriginalContent == nil {
			original := item.Content
			item.OriginalContent = &original
		}
		item.Content = edited
		item.Status = ReviewStatusEdited
	} else {
		item.Status = ReviewStatusApproved
	}

	var actions []ActionItem
	if item.Type == ReviewTypeActionItems {
		if actions, err = parseActionItems(item.Content); err != nil {
			return ApproveReviewResult{}, err
		}
	}

	now := s.now()
	item.ReviewedBy = params.Principal.UserID
	item.ReviewNotes = strings.TrimSpace(params.Notes)
	item.ReviewedAt = &now
	item.UpdatedAt = now

	updated, err := s.reviews.ResolveReviewItem(ctx, item)
	if err != nil {
		return ApproveReviewResult{}, mapRepoError(err, "review_id")
	}
	result.Item = updated

	if len(actions) == 0 || s.tasks == nil {
		return result, nil
	}

	meetingID := updated.Metadata.MeetingID
	if meetingID == "" {
		meetingID = updated.MeetingID
	}
	for _, action := range actions {
		if action.OwnerEmail == "" {
			continue
		}
		task, createErr := s.tasks.CreateTask(ctx, CreateTaskParams{
			Principal: params.Principal,
			Input:     action.taskInput(meetingID),
		})
		if createErr != nil {
			logger.WarnContext(ctx, "failed to create task from action item",
				"title", action.Title,
				"error", createErr,
				"error_kind", ErrorKind(createErr),
			)
			continue
		}
		result.CreatedTaskIDs = append(result.CreatedTaskIDs, task.ID)
	}
	return result, nil
}

// Reject declines a pending item.
func (s *ReviewService) Reject(ctx context.Context, params RejectReviewParams) (item ReviewItem, err error) {
	if s == nil {
		return ReviewItem{}, fmt.Errorf("ReviewService is nil")
	}
	if s.reviews == nil {
		return ReviewItem{}, fmt.Errorf("review repository not configured")
	}

	logger := s.loggerWith(ctx, "Reject", "user_id", params.Principal.UserID, "review_id", params.ReviewID)
	defer func() { logOutcome(ctx, logger, err, "reject review item") }()

	if params.Principal.UserID == "" {
		return ReviewItem{}, ErrUnauthorized
	}

	current, err := s.reviews.GetReviewItem(ctx, params.ReviewID)
	if err != nil {
		return ReviewItem{}, mapRepoError(err, "review_id")
	}
	if current.Status != ReviewStatusPending {
		return ReviewItem{}, ErrInvalidState
	}

	now := s.now()
	current.Status = ReviewStatusRejected
	current.ReviewedBy = params.Principal.UserID
	current.ReviewNotes = strings.TrimSpace(params.Notes)
	current.ReviewedAt = &now
	current.UpdatedAt = now

	item, err = s.reviews.ResolveReviewItem(ctx, current)
	if err != nil {
		return ReviewItem{}, mapRepoError(err, "review_id")
	}
	return item, nil
}

// parseActionItems decodes and validates an action_items payload.
func parseActionItems(content string) ([]ActionItem, error) {
	var actions []ActionItem
	if err := json.Unmarshal([]byte(content), &actions); err != nil {
		return nil, newValidationError("content", "action items must be a JSON array")
	}
	vErr := &ValidationError{}
	for i := range actions {
		action := &actions[i]
		action.Title = strings.TrimSpace(action.Title)
		action.Description = strings.TrimSpace(action.Description)
		action.OwnerEmail = strings.ToLower(strings.TrimSpace(action.OwnerEmail))
		if action.Title == "" {
			action.Title = action.Description
		}
		if action.Title == "" {
			vErr.add(fmt.Sprintf("content[%d].title", i), "title or description is required")
		}
		if action.Deadline != "" {
			if _, ok := parseDeadline(action.Deadline); !ok {
				vErr.add(fmt.Sprintf("content[%d].deadline", i), "deadline must be RFC3339 or YYYY-MM-DD")
			}
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return actions, nil
}

func (a ActionItem) taskInput(meetingID string) TaskInput {
	input := TaskInput{
		Title:       a.Title,
		Description: a.Description,
		OwnerEmail:  a.OwnerEmail,
		Priority:    a.Priority,
		MeetingID:   meetingID,
	}
	if deadline, ok := parseDeadline(a.Deadline); ok {
		input.Deadline = &deadline
	}
	return input
}

func parseDeadline(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func reviewedAt(item ReviewItem) time.Time {
	if item.ReviewedAt != nil {
		return *item.ReviewedAt
	}
	return item.UpdatedAt
}
