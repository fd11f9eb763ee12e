package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/ai-secretary/internal/persistence"
)

const taskColumns = `id, title, description, owner_id, owner_email, deadline, priority, status,
	meeting_id, created_by, last_reminder_sent, escalated_at, created_at, updated_at`

// TaskRepository implements persistence.TaskRepository using SQLite.
type TaskRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(pool *ConnectionPool) *TaskRepository {
	return &TaskRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
	}
}

// InsertTask stores a new task and returns the created row.
func (r *TaskRepository) InsertTask(ctx context.Context, task persistence.Task) (persistence.Task, error) {
	if task.ID == "" || task.CreatedBy == "" {
		return persistence.Task{}, persistence.ErrConstraintViolation
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}
	if task.Status == "" {
		task.Status = "open"
	}
	now := formatTime(r.now())

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + taskColumns

	var stored persistence.Task
	err := r.retry.WithRetry(ctx, func() error {
		row := r.pool.DB().QueryRowContext(ctx, query,
			task.ID,
			task.Title,
			nullString(task.Description),
			nullString(task.OwnerID),
			nullString(task.OwnerEmail),
			nullTime(task.Deadline),
			task.Priority,
			task.Status,
			nullString(task.MeetingID),
			task.CreatedBy,
			nullTime(task.LastReminderSent),
			nullTime(task.EscalatedAt),
			now,
			now,
		)
		var scanErr error
		stored, scanErr = scanTask(row)
		return scanErr
	})
	if err != nil {
		return persistence.Task{}, r.mapper.MapError(err)
	}
	return stored, nil
}

// GetTask retrieves a task by ID.
func (r *TaskRepository) GetTask(ctx context.Context, id string) (persistence.Task, error) {
	if id == "" {
		return persistence.Task{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		return persistence.Task{}, r.mapper.MapError(err)
	}
	return task, nil
}

// UpdateTask overwrites the mutable columns of an existing task.
func (r *TaskRepository) UpdateTask(ctx context.Context, task persistence.Task) (persistence.Task, error) {
	if task.ID == "" {
		return persistence.Task{}, persistence.ErrNotFound
	}

	query := `
		UPDATE tasks
		SET title = ?, description = ?, owner_id = ?, owner_email = ?, deadline = ?, priority = ?,
			status = ?, meeting_id = ?, last_reminder_sent = ?, escalated_at = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + taskColumns

	var stored persistence.Task
	err := r.retry.WithRetry(ctx, func() error {
		row := r.pool.DB().QueryRowContext(ctx, query,
			task.Title,
			nullString(task.Description),
			nullString(task.OwnerID),
			nullString(task.OwnerEmail),
			nullTime(task.Deadline),
			task.Priority,
			task.Status,
			nullString(task.MeetingID),
			nullTime(task.LastReminderSent),
			nullTime(task.EscalatedAt),
			formatTime(r.now()),
			task.ID,
		)
		var scanErr error
		stored, scanErr = scanTask(row)
		return scanErr
	})
	if err != nil {
		return persistence.Task{}, r.mapper.MapError(err)
	}
	return stored, nil
}

// MarkReminderSent records when the last reminder for a task went out.
func (r *TaskRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx,
			`UPDATE tasks SET last_reminder_sent = ?, updated_at = ? WHERE id = ?`,
			formatTime(at), formatTime(r.now()), id,
		)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

// ClaimReminder stamps the reminder time only if the cooldown has elapsed, so
// that concurrent runs cannot both remind the same task.
func (r *TaskRepository) ClaimReminder(ctx context.Context, id string, at, cutoff time.Time) (bool, error) {
	var claimed bool
	err := r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `
			UPDATE tasks SET last_reminder_sent = ?, updated_at = ?
			WHERE id = ? AND (last_reminder_sent IS NULL OR last_reminder_sent <= ?)`,
			formatTime(at), formatTime(r.now()), id, formatTime(cutoff),
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		claimed = affected > 0
		return nil
	})
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	if claimed {
		return true, nil
	}
	if _, err := r.GetTask(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// ReleaseReminder undoes a claim that produced no reminder. A newer stamp
// written by someone else is left alone.
func (r *TaskRepository) ReleaseReminder(ctx context.Context, id string, claimedAt time.Time, previous *time.Time) error {
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx, `
			UPDATE tasks SET last_reminder_sent = ?, updated_at = ?
			WHERE id = ? AND last_reminder_sent = ?`,
			nullTime(previous), formatTime(r.now()), id, formatTime(claimedAt),
		)
		return err
	})
}

// DeleteTask removes a task.
func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

// ListTasks returns tasks matching filter ordered by creation time then id.
func (r *TaskRepository) ListTasks(ctx context.Context, filter persistence.TaskFilter) ([]persistence.Task, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var tasks []persistence.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(row rowScanner) (persistence.Task, error) {
	var (
		task                                      persistence.Task
		description, ownerID, ownerEmail, meeting sql.NullString
		deadline, lastReminder, escalated         sql.NullString
		createdAt, updatedAt                      string
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&ownerID,
		&ownerEmail,
		&deadline,
		&task.Priority,
		&task.Status,
		&meeting,
		&task.CreatedBy,
		&lastReminder,
		&escalated,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Task{}, err
	}

	task.Description = stringPtr(description)
	task.OwnerID = stringPtr(ownerID)
	task.OwnerEmail = stringPtr(ownerEmail)
	task.MeetingID = stringPtr(meeting)

	var err error
	if task.Deadline, err = parseNullTime("deadline", deadline); err != nil {
		return persistence.Task{}, err
	}
	if task.LastReminderSent, err = parseNullTime("last_reminder_sent", lastReminder); err != nil {
		return persistence.Task{}, err
	}
	if task.EscalatedAt, err = parseNullTime("escalated_at", escalated); err != nil {
		return persistence.Task{}, err
	}
	if task.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Task{}, err
	}
	if task.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Task{}, err
	}
	return task, nil
}

// requireAffected turns an update or delete that matched nothing into
// sql.ErrNoRows, which the mapper reports as persistence.ErrNotFound.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
