// Package adapters exposes the persistence repositories through the
// interfaces the application services depend on.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/ai-secretary/internal/application"
	"github.com/example/ai-secretary/internal/persistence"
)

// Users serves UserService, AuthService, MeetingService and TaskService lookups.
type Users struct {
	repo persistence.UserRepository
}

func NewUsers(repo persistence.UserRepository) *Users {
	return &Users{repo: repo}
}

func (a *Users) UpsertUser(ctx context.Context, creds application.UserCredentials) (application.User, error) {
	stored, err := a.repo.UpsertUser(ctx, persistence.User{
		ID:           creds.User.ID,
		Email:        creds.User.Email,
		DisplayName:  creds.User.DisplayName,
		PasswordHash: creds.PasswordHash,
		IsAdmin:      creds.User.IsAdmin,
		CreatedAt:    creds.User.CreatedAt,
		UpdatedAt:    creds.User.UpdatedAt,
	})
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *Users) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *Users) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *Users) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{User: toApplicationUser(stored), PasswordHash: stored.PasswordHash}, nil
}

// Meetings serves MeetingService.
type Meetings struct {
	repo persistence.MeetingRepository
}

func NewMeetings(repo persistence.MeetingRepository) *Meetings {
	return &Meetings{repo: repo}
}

func (a *Meetings) InsertMeeting(ctx context.Context, meeting application.Meeting) (application.Meeting, error) {
	stored, err := a.repo.InsertMeeting(ctx, toPersistenceMeeting(meeting))
	if err != nil {
		return application.Meeting{}, err
	}
	return toApplicationMeeting(stored), nil
}

func (a *Meetings) GetMeeting(ctx context.Context, id string) (application.Meeting, error) {
	stored, err := a.repo.GetMeeting(ctx, id)
	if err != nil {
		return application.Meeting{}, err
	}
	return toApplicationMeeting(stored), nil
}

func (a *Meetings) UpdateMeeting(ctx context.Context, meeting application.Meeting) (application.Meeting, error) {
	stored, err := a.repo.UpdateMeeting(ctx, toPersistenceMeeting(meeting))
	if err != nil {
		return application.Meeting{}, err
	}
	return toApplicationMeeting(stored), nil
}

func (a *Meetings) DeleteMeeting(ctx context.Context, id string) error {
	return a.repo.DeleteMeeting(ctx, id)
}

func (a *Meetings) ListMeetings(ctx context.Context, filter application.MeetingRepositoryFilter) ([]application.Meeting, error) {
	models, err := a.repo.ListMeetings(ctx, persistence.MeetingFilter{
		StartsAfter:      filter.StartsAfter,
		StartsBefore:     filter.StartsBefore,
		IncludeCancelled: filter.IncludeCancelled,
	})
	if err != nil {
		return nil, err
	}
	meetings := make([]application.Meeting, 0, len(models))
	for _, model := range models {
		meetings = append(meetings, toApplicationMeeting(model))
	}
	return meetings, nil
}

// Tasks serves TaskService and ReminderService.
type Tasks struct {
	repo persistence.TaskRepository
}

func NewTasks(repo persistence.TaskRepository) *Tasks {
	return &Tasks{repo: repo}
}

func (a *Tasks) InsertTask(ctx context.Context, task application.Task) (application.Task, error) {
	stored, err := a.repo.InsertTask(ctx, toPersistenceTask(task))
	if err != nil {
		return application.Task{}, err
	}
	return toApplicationTask(stored), nil
}

func (a *Tasks) GetTask(ctx context.Context, id string) (application.Task, error) {
	stored, err := a.repo.GetTask(ctx, id)
	if err != nil {
		return application.Task{}, err
	}
	return toApplicationTask(stored), nil
}

func (a *Tasks) UpdateTask(ctx context.Context, task application.Task) (application.Task, error) {
	stored, err := a.repo.UpdateTask(ctx, toPersistenceTask(task))
	if err != nil {
		return application.Task{}, err
	}
	return toApplicationTask(stored), nil
}

func (a *Tasks) DeleteTask(ctx context.Context, id string) error {
	return a.repo.DeleteTask(ctx, id)
}

func (a *Tasks) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	return a.repo.MarkReminderSent(ctx, id, at)
}

func (a *Tasks) ClaimReminder(ctx context.Context, id string, at, cutoff time.Time) (bool, error) {
	return a.repo.ClaimReminder(ctx, id, at, cutoff)
}

func (a *Tasks) ReleaseReminder(ctx context.Context, id string, claimedAt time.Time, previous *time.Time) error {
	return a.repo.ReleaseReminder(ctx, id, claimedAt, cloneTime(previous))
}

func (a *Tasks) ListTasks(ctx context.Context, filter application.TaskRepositoryFilter) ([]application.Task, error) {
	models, err := a.repo.ListTasks(ctx, persistence.TaskFilter{
		Status:  optional(filter.Status),
		OwnerID: optional(filter.OwnerID),
	})
	if err != nil {
		return nil, err
	}
	tasks := make([]application.Task, 0, len(models))
	for _, model := range models {
		tasks = append(tasks, toApplicationTask(model))
	}
	return tasks, nil
}

// Reviews serves ReviewService and ReminderService. Metadata is stored as JSON.
type Reviews struct {
	repo persistence.ReviewRepository
}

func NewReviews(repo persistence.ReviewRepository) *Reviews {
	return &Reviews{repo: repo}
}

func (a *Reviews) InsertReviewItem(ctx context.Context, item application.ReviewItem) (application.ReviewItem, error) {
	model, err := toPersistenceReview(item)
	if err != nil {
		return application.ReviewItem{}, err
	}
	stored, err := a.repo.InsertReviewItem(ctx, model)
	if err != nil {
		return application.ReviewItem{}, err
	}
	return toApplicationReview(stored)
}

func (a *Reviews) GetReviewItem(ctx context.Context, id string) (application.ReviewItem, error) {
	stored, err := a.repo.GetReviewItem(ctx, id)
	if err != nil {
		return application.ReviewItem{}, err
	}
	return toApplicationReview(stored)
}

func (a *Reviews) ResolveReviewItem(ctx context.Context, item application.ReviewItem) (application.ReviewItem, error) {
	model, err := toPersistenceReview(item)
	if err != nil {
		return application.ReviewItem{}, err
	}
	stored, err := a.repo.ResolveReviewItem(ctx, model)
	if err != nil {
		return application.ReviewItem{}, err
	}
	return toApplicationReview(stored)
}

func (a *Reviews) DeleteReviewItem(ctx context.Context, id string) error {
	return a.repo.DeleteReviewItem(ctx, id)
}

func (a *Reviews) ListReviewItems(ctx context.Context, statuses []string) ([]application.ReviewItem, error) {
	models, err := a.repo.ListReviewItems(ctx, persistence.ReviewFilter{Statuses: statuses})
	if err != nil {
		return nil, err
	}
	items := make([]application.ReviewItem, 0, len(models))
	for _, model := range models {
		item, err := toApplicationReview(model)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		IsAdmin:     model.IsAdmin,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toApplicationMeeting(model persistence.Meeting) application.Meeting {
	return application.Meeting{
		ID:              model.ID,
		Title:           model.Title,
		Description:     value(model.Description),
		Start:           model.Start,
		DurationMinutes: cloneInt(model.DurationMinutes),
		Location:        value(model.Location),
		MeetLink:        value(model.MeetLink),
		Participants:    append([]string(nil), model.Participants...),
		Status:          model.Status,
		SummaryText:     value(model.SummaryText),
		CreatedBy:       model.CreatedBy,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toPersistenceMeeting(meeting application.Meeting) persistence.Meeting {
	return persistence.Meeting{
		ID:              meeting.ID,
		Title:           meeting.Title,
		Description:     optional(meeting.Description),
		Start:           meeting.Start,
		DurationMinutes: cloneInt(meeting.DurationMinutes),
		Location:        optional(meeting.Location),
		MeetLink:        optional(meeting.MeetLink),
		Participants:    append([]string(nil), meeting.Participants...),
		Status:          meeting.Status,
		SummaryText:     optional(meeting.SummaryText),
		CreatedBy:       meeting.CreatedBy,
		CreatedAt:       meeting.CreatedAt,
		UpdatedAt:       meeting.UpdatedAt,
	}
}

func toApplicationTask(model persistence.Task) application.Task {
	return application.Task{
		ID:               model.ID,
		Title:            model.Title,
		Description:      value(model.Description),
		OwnerID:          value(model.OwnerID),
		OwnerEmail:       value(model.OwnerEmail),
		Deadline:         cloneTime(model.Deadline),
		Priority:         model.Priority,
		Status:           model.Status,
		MeetingID:        value(model.MeetingID),
		CreatedBy:        model.CreatedBy,
		LastReminderSent: cloneTime(model.LastReminderSent),
		EscalatedAt:      cloneTime(model.EscalatedAt),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceTask(task application.Task) persistence.Task {
	return persistence.Task{
		ID:               task.ID,
		Title:            task.Title,
		Description:      optional(task.Description),
		OwnerID:          optional(task.OwnerID),
		OwnerEmail:       optional(task.OwnerEmail),
		Deadline:         cloneTime(task.Deadline),
		Priority:         task.Priority,
		Status:           task.Status,
		MeetingID:        optional(task.MeetingID),
		CreatedBy:        task.CreatedBy,
		LastReminderSent: cloneTime(task.LastReminderSent),
		EscalatedAt:      cloneTime(task.EscalatedAt),
		CreatedAt:        task.CreatedAt,
		UpdatedAt:        task.UpdatedAt,
	}
}

func toApplicationReview(model persistence.ReviewItem) (application.ReviewItem, error) {
	var metadata application.ReviewMetadata
	if strings.TrimSpace(model.Metadata) != "" {
		if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
			return application.ReviewItem{}, fmt.Errorf("decode metadata of review item %s: %w", model.ID, err)
		}
	}
	return application.ReviewItem{
		ID:              model.ID,
		Type:            model.Type,
		Status:          model.Status,
		Title:           model.Title,
		Content:         model.Content,
		OriginalContent: cloneString(model.OriginalContent),
		Metadata:        metadata,
		MeetingID:       value(model.MeetingID),
		CreatedBy:       model.CreatedBy,
		ReviewedBy:      value(model.ReviewedBy),
		ReviewNotes:     value(model.ReviewNotes),
		ReviewedAt:      cloneTime(model.ReviewedAt),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}, nil
}

func toPersistenceReview(item application.ReviewItem) (persistence.ReviewItem, error) {
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return persistence.ReviewItem{}, fmt.Errorf("encode metadata of review item %s: %w", item.ID, err)
	}
	return persistence.ReviewItem{
		ID:              item.ID,
		Type:            item.Type,
		Status:          item.Status,
		Title:           item.Title,
		Content:         item.Content,
		OriginalContent: cloneString(item.OriginalContent),
		Metadata:        string(metadata),
		MeetingID:       optional(item.MeetingID),
		CreatedBy:       item.CreatedBy,
		ReviewedBy:      optional(item.ReviewedBy),
		ReviewNotes:     optional(item.ReviewNotes),
		ReviewedAt:      cloneTime(item.ReviewedAt),
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}, nil
}

// optional maps "" to nil so empty application strings become SQL NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
