package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexlearn/campus-api/internal/models"
)

// MeetingRepository manages persistence for meetings.
type MeetingRepository struct {
	db *sqlx.DB
}

// NewMeetingRepository constructs a MeetingRepository.
func NewMeetingRepository(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// List returns meetings matching the provided filters, soonest first.
func (r *MeetingRepository) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error) {
	base := "FROM meetings"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT * %s ORDER BY scheduled_at LIMIT %d OFFSET %d", base, size, offset)

	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list meetings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count meetings: %w", err)
	}
	return meetings, total, nil
}

// FindByID fetches a meeting by ID.
func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := r.db.GetContext(ctx, &meeting, "SELECT * FROM meetings WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Create inserts a new meeting.
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	meeting.UpdatedAt = now
	const query = `INSERT INTO meetings (id, title, agenda, scheduled_at, location, organizer, participants, created_at, updated_at)
        VALUES (:id, :title, :agenda, :scheduled_at, :location, :organizer, :participants, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, meeting); err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

// Update modifies an existing meeting.
func (r *MeetingRepository) Update(ctx context.Context, meeting *models.Meeting) error {
	meeting.UpdatedAt = time.Now().UTC()
	const query = `UPDATE meetings SET title = :title, agenda = :agenda, scheduled_at = :scheduled_at, location = :location, participants = :participants, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, meeting); err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}
	return nil
}

// Delete removes a meeting.
func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM meetings WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	return nil
}
