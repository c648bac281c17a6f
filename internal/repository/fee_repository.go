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

// FeeRepository manages persistence for fee records.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// List returns fee records matching the provided filters.
func (r *FeeRepository) List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error) {
	base := "FROM fees"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.FeeType != "" {
		conditions = append(conditions, fmt.Sprintf("fee_type = $%d", len(args)+1))
		args = append(args, filter.FeeType)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DueMonth != "" {
		conditions = append(conditions, fmt.Sprintf("due_month = $%d", len(args)+1))
		args = append(args, filter.DueMonth)
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

	query := fmt.Sprintf("SELECT * %s ORDER BY due_date DESC LIMIT %d OFFSET %d", base, size, offset)

	var fees []models.Fee
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fees: %w", err)
	}
	return fees, total, nil
}

// FindByID fetches a fee record by ID.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.Fee, error) {
	var fee models.Fee
	if err := r.db.GetContext(ctx, &fee, "SELECT * FROM fees WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// FindForPeriod fetches the fee record keyed on student, type and due month.
func (r *FeeRepository) FindForPeriod(ctx context.Context, studentID, feeType, dueMonth string) (*models.Fee, error) {
	const query = `SELECT * FROM fees WHERE student_id = $1 AND fee_type = $2 AND due_month = $3 LIMIT 1`
	var fee models.Fee
	if err := r.db.GetContext(ctx, &fee, query, studentID, feeType, dueMonth); err != nil {
		return nil, err
	}
	return &fee, nil
}

// ListOutstandingBefore returns a student's fee records that are not settled
// and fall due strictly before the cutoff.
func (r *FeeRepository) ListOutstandingBefore(ctx context.Context, studentID string, cutoff time.Time) ([]models.Fee, error) {
	const query = `SELECT * FROM fees
        WHERE student_id = $1 AND due_date < $2 AND status IN ($3, $4, $5)
        ORDER BY due_date`
	var fees []models.Fee
	err := r.db.SelectContext(ctx, &fees, query, studentID, cutoff,
		models.FeeStatusUnpaid, models.FeeStatusPartial, models.FeeStatusOverdue)
	if err != nil {
		return nil, fmt.Errorf("list outstanding fees: %w", err)
	}
	return fees, nil
}

// Create inserts a new fee record.
func (r *FeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if fee.CreatedAt.IsZero() {
		fee.CreatedAt = now
	}
	fee.UpdatedAt = now
	const query = `INSERT INTO fees (id, student_id, fee_type, due_month, amount, paid_amount, remaining_amount, arrears, due_date, status, payment_date, recorded_by, created_at, updated_at)
        VALUES (:id, :student_id, :fee_type, :due_month, :amount, :paid_amount, :remaining_amount, :arrears, :due_date, :status, :payment_date, :recorded_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee: %w", err)
	}
	return nil
}

// Update modifies an existing fee record.
func (r *FeeRepository) Update(ctx context.Context, fee *models.Fee) error {
	fee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fees SET amount = :amount, paid_amount = :paid_amount, remaining_amount = :remaining_amount, arrears = :arrears, due_date = :due_date, status = :status, payment_date = :payment_date, recorded_by = :recorded_by, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update fee: %w", err)
	}
	return nil
}

// Delete removes a fee record.
func (r *FeeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM fees WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete fee: %w", err)
	}
	return nil
}

// DeleteOrphans removes fee records whose student no longer exists or is
// inactive, returning the number of rows removed.
func (r *FeeRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	const query = `DELETE FROM fees WHERE student_id NOT IN (SELECT id FROM students WHERE active = true)`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete orphan fees: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count orphan fees: %w", err)
	}
	return removed, nil
}
