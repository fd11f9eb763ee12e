package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/ai-secretary/internal/persistence"
)

const reviewColumns = `id, type, status, title, content, original_content, metadata, meeting_id,
	created_by, reviewed_by, review_notes, reviewed_at, created_at, updated_at`

// ReviewRepository implements persistence.ReviewRepository using SQLite.
type ReviewRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

// NewReviewRepository creates a new SQLite review queue repository.
func NewReviewRepository(pool *ConnectionPool) *ReviewRepository {
	return &ReviewRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
	}
}

// InsertReviewItem stores a new review item and returns the created row. An
// empty CreatedBy is stored as NULL for items produced by background jobs.
func (r *ReviewRepository) InsertReviewItem(ctx context.Context, item persistence.ReviewItem) (persistence.ReviewItem, error) {
	if item.ID == "" {
		return persistence.ReviewItem{}, persistence.ErrConstraintViolation
	}
	if item.Status == "" {
		item.Status = "pending"
	}
	if item.Metadata == "" {
		item.Metadata = "{}"
	}
	now := formatTime(r.now())

	query := `
		INSERT INTO review_queue (` + reviewColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + reviewColumns

	var stored persistence.ReviewItem
	err := r.retry.WithRetry(ctx, func() error {
		row := r.pool.DB().QueryRowContext(ctx, query,
			item.ID,
			item.Type,
			item.Status,
			item.Title,
			item.Content,
			nullString(item.OriginalContent),
			item.Metadata,
			nullString(item.MeetingID),
			nullIfEmpty(item.CreatedBy),
			nullString(item.ReviewedBy),
			nullString(item.ReviewNotes),
			nullTime(item.ReviewedAt),
			now,
			now,
		)
		var scanErr error
		stored, scanErr = scanReviewItem(row)
		return scanErr
	})
	if err != nil {
		return persistence.ReviewItem{}, r.mapper.MapError(err)
	}
	return stored, nil
}

// GetReviewItem retrieves a review item by ID.
func (r *ReviewRepository) GetReviewItem(ctx context.Context, id string) (persistence.ReviewItem, error) {
	if id == "" {
		return persistence.ReviewItem{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM review_queue WHERE id = ?`, id)
	item, err := scanReviewItem(row)
	if err != nil {
		return persistence.ReviewItem{}, r.mapper.MapError(err)
	}
	return item, nil
}

// ResolveReviewItem writes the review outcome columns of an item that is still
// pending. Losing a race against another reviewer yields persistence.ErrStaleState.
func (r *ReviewRepository) ResolveReviewItem(ctx context.Context, item persistence.ReviewItem) (persistence.ReviewItem, error) {
	if item.ID == "" {
		return persistence.ReviewItem{}, persistence.ErrNotFound
	}
	if item.Metadata == "" {
		item.Metadata = "{}"
	}

	query := `
		UPDATE review_queue
		SET status = ?, title = ?, content = ?, original_content = ?, metadata = ?, meeting_id = ?,
			reviewed_by = ?, review_notes = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
		RETURNING ` + reviewColumns

	var stored persistence.ReviewItem
	err := r.retry.WithRetry(ctx, func() error {
		row := r.pool.DB().QueryRowContext(ctx, query,
			item.Status,
			item.Title,
			item.Content,
			nullString(item.OriginalContent),
			item.Metadata,
			nullString(item.MeetingID),
			nullString(item.ReviewedBy),
			nullString(item.ReviewNotes),
			nullTime(item.ReviewedAt),
			formatTime(r.now()),
			item.ID,
		)
		var scanErr error
		stored, scanErr = scanReviewItem(row)
		return scanErr
	})
	if errors.Is(err, persistence.ErrNotFound) {
		if _, getErr := r.GetReviewItem(ctx, item.ID); getErr == nil {
			return persistence.ReviewItem{}, persistence.ErrStaleState
		}
	}
	if err != nil {
		return persistence.ReviewItem{}, r.mapper.MapError(err)
	}
	return stored, nil
}

// DeleteReviewItem removes a review item.
func (r *ReviewRepository) DeleteReviewItem(ctx context.Context, id string) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM review_queue WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

// ListReviewItems returns review items newest first, optionally restricted to
// a set of statuses.
func (r *ReviewRepository) ListReviewItems(ctx context.Context, filter persistence.ReviewFilter) ([]persistence.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_queue`
	args := make([]any, 0, len(filter.Statuses))
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var items []persistence.ReviewItem
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review items: %w", err)
	}
	return items, nil
}

func scanReviewItem(row rowScanner) (persistence.ReviewItem, error) {
	var (
		item                          persistence.ReviewItem
		original, meeting, createdBy  sql.NullString
		reviewedBy, notes, reviewedAt sql.NullString
		createdAt, updatedAt          string
	)
	if err := row.Scan(
		&item.ID,
		&item.Type,
		&item.Status,
		&item.Title,
		&item.Content,
		&original,
		&item.Metadata,
		&meeting,
		&createdBy,
		&reviewedBy,
		&notes,
		&reviewedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.ReviewItem{}, err
	}

	item.OriginalContent = stringPtr(original)
	item.MeetingID = stringPtr(meeting)
	item.CreatedBy = createdBy.String
	item.ReviewedBy = stringPtr(reviewedBy)
	item.ReviewNotes = stringPtr(notes)

	var err error
	if item.ReviewedAt, err = parseNullTime("reviewed_at", reviewedAt); err != nil {
		return persistence.ReviewItem{}, err
	}
	if item.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.ReviewItem{}, err
	}
	if item.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.ReviewItem{}, err
	}
	return item, nil
}
