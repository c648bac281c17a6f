package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexlearn/campus-api/internal/models"
)

// StaffRepository manages persistence for administrative and support staff
// profiles, discriminated by the type column.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// List returns staff matching the provided filters.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.StaffDetail, int, error) {
	base := "FROM staff st JOIN users u ON u.id = st.user_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("st.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("st.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.first_name || ' ' || u.last_name) LIKE $%d OR LOWER(st.employee_id) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT st.*, u.email, u.first_name, u.last_name
        %s ORDER BY st.created_at %s LIMIT %d OFFSET %d`, base, order, size, offset)

	var staff []models.StaffDetail
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}
	return staff, total, nil
}

// FindByID fetches a staff detail by ID.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.StaffDetail, error) {
	const query = `SELECT st.*, u.email, u.first_name, u.last_name
        FROM staff st JOIN users u ON u.id = st.user_id WHERE st.id = $1`
	var detail models.StaffDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByEmployeeID checks if a staff member of the given type already uses
// the employee ID, optionally excluding an ID.
func (r *StaffRepository) ExistsByEmployeeID(ctx context.Context, staffType models.StaffType, employeeID string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM staff WHERE type = $1 AND employee_id = $2"
	args := []interface{}{staffType, employeeID}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check employee id: %w", err)
	}
	return true, nil
}

// CreateWithUser inserts the account and the staff profile in a single
// transaction.
func (r *StaffRepository) CreateWithUser(ctx context.Context, user *models.User, staff *models.Staff) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	staff.UserID = user.ID
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staff onboarding: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}
	const query = `INSERT INTO staff (id, user_id, type, employee_id, department, designation, responsibilities, days_of_week, salary, contact_number, active, created_at, updated_at)
        VALUES (:id, :user_id, :type, :employee_id, :department, :designation, :responsibilities, :days_of_week, :salary, :contact_number, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return tx.Commit()
}

// Update modifies an existing staff profile.
func (r *StaffRepository) Update(ctx context.Context, staff *models.Staff) error {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff SET employee_id = :employee_id, department = :department, designation = :designation, responsibilities = :responsibilities, days_of_week = :days_of_week, salary = :salary, contact_number = :contact_number, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	return nil
}

// Deactivate marks a staff member as inactive.
func (r *StaffRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE staff SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate staff: %w", err)
	}
	return nil
}
