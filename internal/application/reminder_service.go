package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/ai-secretary/internal/scheduler"
)

// ReminderDrafter writes the text of reminder and escalation emails.
type ReminderDrafter interface {
	DraftReminder(ctx context.Context, req DraftRequest) (EmailDraft, error)
	DraftEscalation(ctx context.Context, req DraftRequest) (EmailDraft, error)
}

// ReminderOptions bounds the work done by one reminder run.
type ReminderOptions struct {
	// Concurrency caps the number of tasks drafted at once.
	Concurrency int
	// TaskTimeout limits the time spent on a single task.
	TaskTimeout time.Duration
}

// DefaultReminderOptions mirrors the configuration defaults.
func DefaultReminderOptions() ReminderOptions {
	return ReminderOptions{Concurrency: 4, TaskTimeout: 30 * time.Second}
}

var errNoRecipient = newValidationError("owner_email", "task has no owner email to send to")

// ReminderService drafts reminder and escalation emails into the review queue.
type ReminderService struct {
	tasks       TaskRepository
	reviews     ReviewRepository
	drafter     ReminderDrafter
	options     ReminderOptions
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewReminderService wires dependencies for reminder operations.
func NewReminderService(tasks TaskRepository, reviews ReviewRepository, drafter ReminderDrafter, options ReminderOptions, idGenerator func() string, now func() time.Time) *ReminderService {
	return NewReminderServiceWithLogger(tasks, reviews, drafter, options, idGenerator, now, nil)
}

// NewReminderServiceWithLogger wires dependencies for reminder operations with a specific logger.
func NewReminderServiceWithLogger(tasks TaskRepository, reviews ReviewRepository, drafter ReminderDrafter, options ReminderOptions, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReminderService {
	defaults := DefaultReminderOptions()
	if options.Concurrency <= 0 {
		options.Concurrency = defaults.Concurrency
	}
	if options.TaskTimeout <= 0 {
		options.TaskTimeout = defaults.TaskTimeout
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReminderService{
		tasks:       tasks,
		reviews:     reviews,
		drafter:     drafter,
		options:     options,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ReminderService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReminderService", operation, attrs...)
}

func (s *ReminderService) ready() error {
	if s == nil {
		return fmt.Errorf("ReminderService is nil")
	}
	if s.tasks == nil || s.reviews == nil {
		return fmt.Errorf("reminder repositories not configured")
	}
	if s.drafter == nil {
		return ErrUnavailable
	}
	return nil
}

// GenerateReminders drafts a reminder for every task that is due one. Tasks
// are processed concurrently and independently: a failure for one task is
// recorded in the run and never stops the others. Each task is claimed in
// storage before drafting, so a task another run claimed first is skipped.
// An error is returned only when the task list itself cannot be read.
func (s *ReminderService) GenerateReminders(ctx context.Context, principal Principal) (run ReminderRun, err error) {
	if err = s.ready(); err != nil {
		return ReminderRun{}, err
	}

	logger := s.loggerWith(ctx, "GenerateReminders", "user_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "reminder run",
			"eligible", run.Eligible,
			"created", len(run.Created),
			"failed", len(run.Failures),
		)
	}()

	if principal.UserID == "" && !principal.IsAdmin {
		return ReminderRun{}, ErrUnauthorized
	}

	now := s.now()
	tasks, err := s.tasks.ListTasks(ctx, TaskRepositoryFilter{})
	if err != nil {
		return ReminderRun{}, mapRepoError(err, "task_id")
	}
	eligible := pickTasks(tasks, scheduler.SelectReminderEligibleTasks(now, toSchedulerTasks(tasks)))

	type result struct {
		reviewID string
		skipped  bool
		err      error
	}
	results := make([]result, len(eligible))

	// Workers always return nil; per-task errors live in results.
	var g errgroup.Group
	g.SetLimit(s.options.Concurrency)
	for i, task := range eligible {
		g.Go(func() error {
			item, claimed, taskErr := s.remindOnce(ctx, principal, task, now)
			if taskErr != nil {
				logger.WarnContext(ctx, "reminder for task failed",
					"task_id", task.ID,
					"error", taskErr,
					"error_kind", ErrorKind(taskErr),
				)
			}
			results[i] = result{reviewID: item.ID, skipped: !claimed && taskErr == nil, err: taskErr}
			return nil
		})
	}
	_ = g.Wait()

	run = ReminderRun{StartedAt: now, Eligible: len(eligible)}
	for i, task := range eligible {
		switch {
		case results[i].err != nil:
			run.Failures = append(run.Failures, ReminderFailure{TaskID: task.ID, Err: results[i].err})
		case results[i].skipped:
			run.Skipped = append(run.Skipped, task.ID)
		default:
			run.Created = append(run.Created, ReminderOutcome{TaskID: task.ID, ReviewID: results[i].reviewID})
		}
	}
	return run, nil
}

// remindOnce claims task for this run and drafts its reminder. A task whose
// claim was taken by a concurrent run is reported as not claimed. When
// drafting fails the claim is released so the next run retries the task.
func (s *ReminderService) remindOnce(ctx context.Context, principal Principal, task Task, now time.Time) (ReviewItem, bool, error) {
	if task.OwnerEmail == "" {
		return ReviewItem{}, false, errNoRecipient
	}
	claimed, err := s.tasks.ClaimReminder(ctx, task.ID, now, now.Add(-scheduler.ReminderCooldown))
	if err != nil {
		return ReviewItem{}, false, mapRepoError(err, "task_id")
	}
	if !claimed {
		return ReviewItem{}, false, nil
	}

	item, err := s.draftIntoQueue(ctx, principal, task, now, false)
	if err != nil {
		if relErr := s.tasks.ReleaseReminder(context.WithoutCancel(ctx), task.ID, now, task.LastReminderSent); relErr != nil {
			s.loggerWith(ctx, "GenerateReminders", "task_id", task.ID).WarnContext(ctx, "failed to release reminder claim", "error", relErr)
		}
		return ReviewItem{}, true, err
	}
	return item, true, nil
}

// DraftReminder drafts a reminder for one task on request, regardless of the
// eligibility window. The task's last reminder time is updated.
func (s *ReminderService) DraftReminder(ctx context.Context, principal Principal, taskID string) (item ReviewItem, err error) {
	if err = s.ready(); err != nil {
		return ReviewItem{}, err
	}

	logger := s.loggerWith(ctx, "DraftReminder", "user_id", principal.UserID, "task_id", taskID)
	defer func() { logOutcome(ctx, logger, err, "draft reminder", "review_id", item.ID) }()

	if principal.UserID == "" && !principal.IsAdmin {
		return ReviewItem{}, ErrUnauthorized
	}
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return ReviewItem{}, mapRepoError(err, "task_id")
	}
	now := s.now()
	if item, err = s.draftIntoQueue(ctx, principal, task, now, false); err != nil {
		return ReviewItem{}, err
	}
	if err = s.tasks.MarkReminderSent(ctx, task.ID, now); err != nil {
		s.discardDraft(ctx, item.ID)
		return ReviewItem{}, mapRepoError(err, "task_id")
	}
	return item, nil
}

// DraftEscalation drafts an escalation email for one task and stamps the
// task's escalation time.
func (s *ReminderService) DraftEscalation(ctx context.Context, principal Principal, taskID string) (item ReviewItem, err error) {
	if err = s.ready(); err != nil {
		return ReviewItem{}, err
	}

	logger := s.loggerWith(ctx, "DraftEscalation", "user_id", principal.UserID, "task_id", taskID)
	defer func() { logOutcome(ctx, logger, err, "draft escalation", "review_id", item.ID) }()

	if principal.UserID == "" && !principal.IsAdmin {
		return ReviewItem{}, ErrUnauthorized
	}
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return ReviewItem{}, mapRepoError(err, "task_id")
	}
	now := s.now()
	if item, err = s.draftIntoQueue(ctx, principal, task, now, true); err != nil {
		return ReviewItem{}, err
	}
	if err = s.stampEscalation(ctx, task.ID, now); err != nil {
		s.discardDraft(ctx, item.ID)
		return ReviewItem{}, err
	}
	return item, nil
}

// RunScheduled calls GenerateReminders every interval until ctx is done. A
// non-positive interval disables the loop.
func (s *ReminderService) RunScheduled(ctx context.Context, interval time.Duration) {
	if s == nil || interval <= 0 {
		return
	}
	logger := s.loggerWith(ctx, "RunScheduled", "interval", interval.String())
	logger.InfoContext(ctx, "reminder schedule started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "reminder schedule stopped")
			return
		case <-ticker.C:
			// Failures are logged by GenerateReminders itself.
			_, _ = s.GenerateReminders(ctx, SystemPrincipal)
		}
	}
}

func (s *ReminderService) draftIntoQueue(ctx context.Context, principal Principal, task Task, now time.Time, escalation bool) (ReviewItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.options.TaskTimeout)
	defer cancel()

	if task.OwnerEmail == "" {
		return ReviewItem{}, errNoRecipient
	}

	req := DraftRequest{Task: task, RecipientEmail: task.OwnerEmail, Now: now}
	var (
		draft EmailDraft
		err   error
	)
	if escalation {
		draft, err = s.drafter.DraftEscalation(ctx, req)
	} else {
		draft, err = s.drafter.DraftReminder(ctx, req)
	}
	if err != nil {
		return ReviewItem{}, fmt.Errorf("draft email: %w", err)
	}

	item, err := s.reviews.InsertReviewItem(ctx, ReviewItem{
		ID:      s.idGenerator(),
		Type:    ReviewTypeEmailDraft,
		Status:  ReviewStatusPending,
		Title:   draft.Subject,
		Content: draft.Body,
		Metadata: ReviewMetadata{
			TaskID:         task.ID,
			RecipientEmail: task.OwnerEmail,
			IsReminder:     !escalation,
			IsEscalation:   escalation,
			MeetingID:      task.MeetingID,
		},
		MeetingID: task.MeetingID,
		CreatedBy: principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return ReviewItem{}, mapRepoError(err, "meeting_id")
	}

	return item, nil
}

func (s *ReminderService) stampEscalation(ctx context.Context, taskID string, now time.Time) error {
	current, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return mapRepoError(err, "task_id")
	}
	current.EscalatedAt = &now
	current.UpdatedAt = now
	if _, err := s.tasks.UpdateTask(ctx, current); err != nil {
		return mapRepoError(err, "task_id")
	}
	return nil
}

// discardDraft removes a queued draft whose task could not be stamped, so the
// draft is not left behind to be produced again on the next run.
func (s *ReminderService) discardDraft(ctx context.Context, reviewID string) {
	if err := s.reviews.DeleteReviewItem(context.WithoutCancel(ctx), reviewID); err != nil {
		s.loggerWith(ctx, "discardDraft", "review_id", reviewID).WarnContext(ctx, "failed to discard draft", "error", err)
	}
}
