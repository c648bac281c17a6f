package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nexlearn/campus-api/internal/models"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
)

type staffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.StaffDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StaffDetail, error)
	ExistsByEmployeeID(ctx context.Context, staffType models.StaffType, employeeID string, excludeID string) (bool, error)
	CreateWithUser(ctx context.Context, user *models.User, staff *models.Staff) error
	Update(ctx context.Context, staff *models.Staff) error
	Deactivate(ctx context.Context, id string) error
}

// CreateStaffRequest holds payload for registering a staff member. Staff
// accounts always carry a caller-supplied email and employee ID.
type CreateStaffRequest struct {
	Email            string   `json:"email" validate:"required,email"`
	FirstName        string   `json:"first_name" validate:"required"`
	LastName         string   `json:"last_name" validate:"required"`
	EmployeeID       string   `json:"employee_id" validate:"required"`
	Department       string   `json:"department"`
	Designation      string   `json:"designation"`
	Responsibilities []string `json:"responsibilities"`
	DaysOfWeek       []string `json:"days_of_week"`
	Salary           float64  `json:"salary" validate:"gte=0"`
	ContactNumber    string   `json:"contact_number" validate:"required"`
}

// UpdateStaffRequest holds the mutable profile fields.
type UpdateStaffRequest struct {
	Department       *string  `json:"department"`
	Designation      *string  `json:"designation"`
	Responsibilities []string `json:"responsibilities"`
	DaysOfWeek       []string `json:"days_of_week"`
	Salary           *float64 `json:"salary" validate:"omitempty,gte=0"`
	ContactNumber    *string  `json:"contact_number"`
}

// StaffService manages administrative and support staff profiles.
type StaffService struct {
	repo      staffRepository
	users     importUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService constructs the staff service.
func NewStaffService(repo staffRepository, users importUserRepository, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{repo: repo, users: users, validator: validate, logger: logger}
}

// Create registers one staff member of the given type.
func (s *StaffService) Create(ctx context.Context, staffType models.StaffType, req CreateStaffRequest, createdBy string) (*models.StaffDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	} else if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}

	employeeID := strings.TrimSpace(req.EmployeeID)
	if taken, err := s.repo.ExistsByEmployeeID(ctx, staffType, employeeID, ""); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check employee id")
	} else if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "employee id already exists")
	}

	role := models.RoleAdminStaff
	if staffType == models.StaffTypeSupport {
		role = models.RoleSupportStaff
	}
	user, err := newAccount(email, req.FirstName, req.LastName, role, createdBy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare account")
	}

	staff := &models.Staff{
		Type:             staffType,
		EmployeeID:       employeeID,
		Department:       req.Department,
		Designation:      req.Designation,
		Responsibilities: req.Responsibilities,
		DaysOfWeek:       req.DaysOfWeek,
		Salary:           req.Salary,
		ContactNumber:    req.ContactNumber,
		Active:           true,
	}
	if err := s.repo.CreateWithUser(ctx, user, staff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff")
	}

	detail := &models.StaffDetail{Staff: *staff, Email: user.Email, FirstName: user.FirstName, LastName: user.LastName}
	return detail, nil
}

// List returns staff with pagination metadata.
func (s *StaffService) List(ctx context.Context, filter models.StaffFilter) ([]models.StaffDetail, *models.Pagination, error) {
	staff, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return staff, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single staff profile.
func (s *StaffService) Get(ctx context.Context, id string) (*models.StaffDetail, error) {
	staff, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff member")
	}
	return staff, nil
}

// Update applies partial changes to a staff profile.
func (s *StaffService) Update(ctx context.Context, id string, req UpdateStaffRequest) (*models.StaffDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	staff := detail.Staff
	if req.Department != nil {
		staff.Department = *req.Department
	}
	if req.Designation != nil {
		staff.Designation = *req.Designation
	}
	if req.Responsibilities != nil {
		staff.Responsibilities = req.Responsibilities
	}
	if req.DaysOfWeek != nil {
		staff.DaysOfWeek = req.DaysOfWeek
	}
	if req.Salary != nil {
		staff.Salary = *req.Salary
	}
	if req.ContactNumber != nil {
		staff.ContactNumber = *req.ContactNumber
	}

	if err := s.repo.Update(ctx, &staff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update staff member")
	}
	detail.Staff = staff
	return detail, nil
}

// Deactivate soft-deletes a staff profile and its account.
func (s *StaffService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate staff member")
	}
	return nil
}
