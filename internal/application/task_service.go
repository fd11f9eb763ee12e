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

// TaskRepository captures the persistence interactions needed by the task and reminder services.
type TaskRepository interface {
	InsertTask(ctx context.Context, task Task) (Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	UpdateTask(ctx context.Context, task Task) (Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskRepositoryFilter) ([]Task, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
	ClaimReminder(ctx context.Context, id string, at, cutoff time.Time) (bool, error)
	ReleaseReminder(ctx context.Context, id string, claimedAt time.Time, previous *time.Time) error
}

// TaskRepositoryFilter narrows queries issued to the task repository.
type TaskRepositoryFilter struct {
	Status  string
	OwnerID string
}

// UserDirectory resolves accounts by email address.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// TaskService orchestrates validation, authorization and persistence for tasks.
type TaskService struct {
	tasks       TaskRepository
	directory   UserDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskService wires dependencies for task operations. directory may be nil.
func NewTaskService(tasks TaskRepository, directory UserDirectory, idGenerator func() string, now func() time.Time) *TaskService {
	return NewTaskServiceWithLogger(tasks, directory, idGenerator, now, nil)
}

// NewTaskServiceWithLogger wires dependencies for task operations with a specific logger.
func NewTaskServiceWithLogger(tasks TaskRepository, directory UserDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TaskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		tasks:       tasks,
		directory:   directory,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TaskService", operation, attrs...)
}

// CreateTask validates and stores a task. When only an owner email is given
// and it matches an account, the task is assigned to that account.
func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (task Task, err error) {
	if s == nil {
		return Task{}, fmt.Errorf("TaskService is nil")
	}
	if s.tasks == nil {
		return Task{}, fmt.Errorf("task repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateTask", "user_id", params.Principal.UserID)
	defer func() { logOutcome(ctx, logger, err, "create task", "task_id", task.ID) }()

	if params.Principal.UserID == "" {
		return Task{}, ErrUnauthorized
	}

	input := normalizeTaskInput(params.Input)
	if input.Priority == "" {
		input.Priority = TaskPriorityMedium
	}
	if input.Status == "" {
		input.Status = TaskStatusOpen
	}
	if vErr := validateTaskInput(input); vErr.HasErrors() {
		return Task{}, vErr
	}
	if err = s.resolveOwner(ctx, &input); err != nil {
		return Task{}, err
	}

	now := s.now()
	task, err = s.tasks.InsertTask(ctx, Task{
		ID:          s.idGenerator(),
		Title:       input.Title,
		Description: input.Description,
		OwnerID:     input.OwnerID,
		OwnerEmail:  input.OwnerEmail,
		Deadline:    input.Deadline,
		Priority:    input.Priority,
		Status:      input.Status,
		MeetingID:   input.MeetingID,
		CreatedBy:   params.Principal.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Task{}, mapRepoError(err, "owner_id")
	}
	return task, nil
}

// UpdateTask replaces the editable fields of a task.
func (s *TaskService) UpdateTask(ctx context.Context, params UpdateTaskParams) (task Task, err error) {
	if s == nil {
		return Task{}, fmt.Errorf("TaskService is nil")
	}
	if s.tasks == nil {
		return Task{}, fmt.Errorf("task repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateTask", "user_id", params.Principal.UserID, "task_id", params.TaskID)
	defer func() { logOutcome(ctx, logger, err, "update task") }()

	existing, err := s.tasks.GetTask(ctx, params.TaskID)
	if err != nil {
		return Task{}, mapRepoError(err, "task_id")
	}
	if !canModifyTask(params.Principal, existing) {
		return Task{}, ErrUnauthorized
	}

	input := normalizeTaskInput(params.Input)
	if input.Priority == "" {
		input.Priority = existing.Priority
	}
	if input.Status == "" {
		input.Status = existing.Status
	}
	if vErr := validateTaskInput(input); vErr.HasErrors() {
		return Task{}, vErr
	}
	if err = s.resolveOwner(ctx, &input); err != nil {
		return Task{}, err
	}

	updated := existing
	updated.Title = input.Title
	updated.Description = input.Description
	updated.OwnerID = input.OwnerID
	updated.OwnerEmail = input.OwnerEmail
	updated.Deadline = input.Deadline
	updated.Priority = input.Priority
	updated.Status = input.Status
	updated.MeetingID = input.MeetingID
	updated.UpdatedAt = s.now()

	task, err = s.tasks.UpdateTask(ctx, updated)
	if err != nil {
		return Task{}, mapRepoError(err, "owner_id")
	}
	return task, nil
}

// MarkComplete sets a task's status to completed.
func (s *TaskService) MarkComplete(ctx context.Context, principal Principal, taskID string) (task Task, err error) {
	if s == nil {
		return Task{}, fmt.Errorf("TaskService is nil")
	}
	if s.tasks == nil {
		return Task{}, fmt.Errorf("task repository not configured")
	}

	logger := s.loggerWith(ctx, "MarkComplete", "user_id", principal.UserID, "task_id", taskID)
	defer func() { logOutcome(ctx, logger, err, "complete task") }()

	existing, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, mapRepoError(err, "task_id")
	}
	if !canModifyTask(principal, existing) {
		return Task{}, ErrUnauthorized
	}
	if existing.Status == TaskStatusCompleted {
		return existing, nil
	}

	existing.Status = TaskStatusCompleted
	existing.UpdatedAt = s.now()
	task, err = s.tasks.UpdateTask(ctx, existing)
	if err != nil {
		return Task{}, mapRepoError(err, "task_id")
	}
	return task, nil
}

// DeleteTask removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, principal Principal, taskID string) (err error) {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	if s.tasks == nil {
		return fmt.Errorf("task repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteTask", "user_id", principal.UserID, "task_id", taskID)
	defer func() { logOutcome(ctx, logger, err, "delete task") }()

	existing, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return mapRepoError(err, "task_id")
	}
	if !canModifyTask(principal, existing) {
		return ErrUnauthorized
	}
	if err = s.tasks.DeleteTask(ctx, taskID); err != nil {
		return mapRepoError(err, "task_id")
	}
	return nil
}

// GetTask returns a single task.
func (s *TaskService) GetTask(ctx context.Context, principal Principal, taskID string) (Task, error) {
	if s == nil {
		return Task{}, fmt.Errorf("TaskService is nil")
	}
	if s.tasks == nil {
		return Task{}, fmt.Errorf("task repository not configured")
	}
	if principal.UserID == "" && !principal.IsAdmin {
		return Task{}, ErrUnauthorized
	}
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, mapRepoError(err, "task_id")
	}
	return task, nil
}

// ListTasks returns tasks in creation order.
func (s *TaskService) ListTasks(ctx context.Context, params ListTasksParams) ([]Task, error) {
	if s == nil {
		return nil, fmt.Errorf("TaskService is nil")
	}
	if s.tasks == nil {
		return nil, nil
	}
	if params.Principal.UserID == "" && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	status := strings.TrimSpace(strings.ToLower(params.Status))
	if status != "" && !isTaskStatus(status) {
		return nil, newValidationError("status", "unknown task status")
	}

	tasks, err := s.tasks.ListTasks(ctx, TaskRepositoryFilter{
		Status:  status,
		OwnerID: strings.TrimSpace(params.OwnerID),
	})
	if err != nil {
		return nil, mapRepoError(err, "task_id")
	}
	return tasks, nil
}

// ListOverdue returns open or in-progress tasks past their deadline, earliest
// deadline first.
func (s *TaskService) ListOverdue(ctx context.Context, principal Principal) ([]Task, error) {
	tasks, err := s.ListTasks(ctx, ListTasksParams{Principal: principal})
	if err != nil {
		return nil, err
	}
	return pickTasks(tasks, scheduler.SelectOverdueTasks(s.now(), toSchedulerTasks(tasks))), nil
}

// ListReminderCandidates previews which tasks the next reminder run would
// pick up. Nothing is written.
func (s *TaskService) ListReminderCandidates(ctx context.Context, principal Principal) ([]Task, error) {
	tasks, err := s.ListTasks(ctx, ListTasksParams{Principal: principal})
	if err != nil {
		return nil, err
	}
	return pickTasks(tasks, scheduler.SelectReminderEligibleTasks(s.now(), toSchedulerTasks(tasks))), nil
}

func (s *TaskService) resolveOwner(ctx context.Context, input *TaskInput) error {
	if input.OwnerID != "" || input.OwnerEmail == "" || s.directory == nil {
		return nil
	}
	owner, err := s.directory.GetUserByEmail(ctx, input.OwnerEmail)
	if err != nil {
		if errors.Is(mapRepoError(err, "owner_email"), ErrNotFound) {
			return nil
		}
		return err
	}
	input.OwnerID = owner.ID
	return nil
}

func canModifyTask(principal Principal, task Task) bool {
	if principal.IsAdmin {
		return true
	}
	if principal.UserID == "" {
		return false
	}
	return principal.UserID == task.CreatedBy || principal.UserID == task.OwnerID
}

func normalizeTaskInput(input TaskInput) TaskInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	input.OwnerEmail = strings.ToLower(strings.TrimSpace(input.OwnerEmail))
	input.Priority = strings.ToLower(strings.TrimSpace(input.Priority))
	input.Status = strings.ToLower(strings.TrimSpace(input.Status))
	input.MeetingID = strings.TrimSpace(input.MeetingID)
	return input
}

func validateTaskInput(input TaskInput) *ValidationError {
	vErr := &ValidationError{}

	switch {
	case input.Title == "":
		vErr.add("title", "title is required")
	case len(input.Title) > maxTitleLength:
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if input.OwnerEmail != "" {
		if _, err := mail.ParseAddress(input.OwnerEmail); err != nil {
			vErr.add("owner_email", "owner email is invalid")
		}
	}
	switch input.Priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
	default:
		vErr.add("priority", "priority must be low, medium, high or urgent")
	}
	if !isTaskStatus(input.Status) {
		vErr.add("status", "status must be open, in_progress, completed, blocked or overdue")
	}

	return vErr
}

func isTaskStatus(status string) bool {
	switch status {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked, TaskStatusOverdue:
		return true
	}
	return false
}

func toSchedulerTasks(tasks []Task) []scheduler.Task {
	out := make([]scheduler.Task, len(tasks))
	for i, task := range tasks {
		out[i] = scheduler.Task{
			ID:               task.ID,
			Deadline:         task.Deadline,
			Status:           scheduler.TaskStatus(task.Status),
			LastReminderSent: task.LastReminderSent,
		}
	}
	return out
}

// pickTasks returns the full tasks for a selection, in selection order.
func pickTasks(tasks []Task, selected []scheduler.Task) []Task {
	byID := make(map[string]Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}
	out := make([]Task, 0, len(selected))
	for _, sel := range selected {
		if task, ok := byID[sel.ID]; ok {
			out = append(out, task)
		}
	}
	return out
}
