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

// ImportHistoryRepository persists the audit record of each import run.
type ImportHistoryRepository struct {
	db *sqlx.DB
}

// NewImportHistoryRepository constructs an ImportHistoryRepository.
func NewImportHistoryRepository(db *sqlx.DB) *ImportHistoryRepository {
	return &ImportHistoryRepository{db: db}
}

// Create inserts an import history record. Records are never mutated.
func (r *ImportHistoryRepository) Create(ctx context.Context, history *models.ImportHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO import_history (id, user_type, filename, original_filename, uploaded_by, status, total_records, success_count, error_count, errors, created_at)
        VALUES (:id, :user_type, :filename, :original_filename, :uploaded_by, :status, :total_records, :success_count, :error_count, :errors, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, history); err != nil {
		return fmt.Errorf("create import history: %w", err)
	}
	return nil
}

// List returns import runs, newest first.
func (r *ImportHistoryRepository) List(ctx context.Context, filter models.ImportHistoryFilter) ([]models.ImportHistory, int, error) {
	base := "FROM import_history"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.UserType != "" {
		conditions = append(conditions, fmt.Sprintf("user_type = $%d", len(args)+1))
		args = append(args, filter.UserType)
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

	query := fmt.Sprintf("SELECT * %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)

	var records []models.ImportHistory
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list import history: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count import history: %w", err)
	}
	return records, total, nil
}
