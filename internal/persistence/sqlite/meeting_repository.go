package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/ai-secretary/internal/persistence"
)

const meetingColumns = `id, title, description, start_time, duration_minutes, location, meet_link,
	participants, status, summary_text, created_by, created_at, updated_at`

// MeetingRepository implements persistence.MeetingRepository using SQLite.
type MeetingRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

// NewMeetingRepository creates a new SQLite meeting repository.
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
	}
}

// InsertMeeting stores a new meeting and returns the created row.
func (r *MeetingRepository) InsertMeeting(ctx context.Context, meeting persistence.Meeting) (persistence.Meeting, error) {
	if meeting.ID == "" || meeting.CreatedBy == "" {
		return persistence.Meeting{}, persistence.ErrConstraintViolation
	}
	if meeting.Status == "" {
		meeting.Status = "scheduled"
	}
	participants, err := encodeStrings(meeting.Participants)
	if err != nil {
		return persistence.Meeting{}, err
	}
	now := formatTime(r.now())

	query := `
		INSERT INTO meetings (` + meetingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + meetingColumns

	var stored persistence.Meeting
	err = r.retry.WithRetry(ctx, func() error {
		row := r.pool.DB().QueryRowContext(ctx, query,
			meeting.ID,
			meeting.Title,
			nullString(meeting.Description),
			formatTime(meeting.Start),
			nullInt(meeting.DurationMinutes),
			nullString(meeting.Location),
			nullString(meeting.MeetLink),
			participants,
			meeting.Status,
			nullString(meeting.SummaryText),
			meeting.CreatedBy,
			now,
			now,
		)
		var scanErr error
		stored, scanErr = scanMeeting(row)
		return scanErr
	})
	if err != nil {
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	return stored, nil
}

// GetMeeting retrieves a meeting by ID.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	meeting, err := scanMeeting(row)
	if err != nil {
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	return meeting, nil
}

// UpdateMeeting overwrites the mutable columns of an existing meeting. The
// creator and creation time never change.
func (r *MeetingRepository) UpdateMeeting(ctx context.Context, meeting persistence.Meeting) (persistence.Meeting, error) {
	if meeting.ID == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	participants, err := encodeStrings(meeting.Participants)
	if err != nil {
		return persistence.Meeting{}, err
	}

	query := `
		UPDATE meetings
		SET title = ?, description = ?, start_time = ?, duration_minutes = ?, location = ?,
			meet_link = ?, participants = ?, status = ?, summary_text = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + meetingColumns

	var stored persistence.Meeting
	err = r.retry.WithRetry(ctx, func() error {
		row := r.pool.DB().QueryRowContext(ctx, query,
			meeting.Title,
			nullString(meeting.Description),
			formatTime(meeting.Start),
			nullInt(meeting.DurationMinutes),
			nullString(meeting.Location),
			nullString(meeting.MeetLink),
			participants,
			meeting.Status,
			nullString(meeting.SummaryText),
			formatTime(r.now()),
			meeting.ID,
		)
		var scanErr error
		stored, scanErr = scanMeeting(row)
		return scanErr
	})
	if err != nil {
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	return stored, nil
}

// DeleteMeeting removes a meeting. Tasks and review items referencing it keep
// existing with the reference cleared.
func (r *MeetingRepository) DeleteMeeting(ctx context.Context, id string) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(result)
	})
}

// ListMeetings returns meetings matching filter ordered by start then id.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.StartsAfter != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}
	if !filter.IncludeCancelled {
		conditions = append(conditions, "status <> 'cancelled'")
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time, id"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var meetings []persistence.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meetings: %w", err)
	}
	return meetings, nil
}

func scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var (
		meeting                                   persistence.Meeting
		description, location, meetLink, summary  sql.NullString
		duration                                  sql.NullInt64
		start, participants, createdAt, updatedAt string
	)
	if err := row.Scan(
		&meeting.ID,
		&meeting.Title,
		&description,
		&start,
		&duration,
		&location,
		&meetLink,
		&participants,
		&meeting.Status,
		&summary,
		&meeting.CreatedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Meeting{}, err
	}

	meeting.Description = stringPtr(description)
	meeting.DurationMinutes = intPtr(duration)
	meeting.Location = stringPtr(location)
	meeting.MeetLink = stringPtr(meetLink)
	meeting.SummaryText = stringPtr(summary)

	var err error
	if meeting.Participants, err = decodeStrings("participants", participants); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.Start, err = parseTime("start_time", start); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Meeting{}, err
	}
	return meeting, nil
}
