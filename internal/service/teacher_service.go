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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	ExistsByEmployeeID(ctx context.Context, employeeID string, excludeID string) (bool, error)
	Count(ctx context.Context) (int, error)
	CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id string) error
}

// CreateTeacherRequest holds payload for registering a single teacher.
type CreateTeacherRequest struct {
	FirstName       string   `json:"first_name" validate:"required"`
	LastName        string   `json:"last_name" validate:"required"`
	Subjects        []string `json:"subjects" validate:"required,min=1"`
	Classes         []string `json:"classes"`
	Qualification   string   `json:"qualification" validate:"required"`
	ExperienceYears int      `json:"experience_years" validate:"gte=0"`
	Salary          float64  `json:"salary" validate:"gte=0"`
	ContactNumber   string   `json:"contact_number" validate:"required"`
}

// UpdateTeacherRequest holds the mutable profile fields.
type UpdateTeacherRequest struct {
	Subjects        []string `json:"subjects"`
	Classes         []string `json:"classes"`
	Qualification   *string  `json:"qualification"`
	ExperienceYears *int     `json:"experience_years" validate:"omitempty,gte=0"`
	Salary          *float64 `json:"salary" validate:"omitempty,gte=0"`
	ContactNumber   *string  `json:"contact_number"`
}

// TeacherService handles single-teacher registration and profile management.
type TeacherService struct {
	repo      teacherRepository
	users     importUserRepository
	validator *validator.Validate
	logger    *zap.Logger

	emailDomain string
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, users importUserRepository, validate *validator.Validate, logger *zap.Logger, emailDomain string) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if emailDomain == "" {
		emailDomain = "campus.edu"
	}
	return &TeacherService{repo: repo, users: users, validator: validate, logger: logger, emailDomain: emailDomain}
}

// Create registers one teacher with a generated email and employee ID.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest, createdBy string) (*models.TeacherDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	email, err := generateUniqueEmail(ctx, s.users, s.emailDomain, "tch", req.FirstName, req.LastName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate email")
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed employee id sequence")
	}
	employeeID, err := nextEmployeeID(ctx, s.repo, &count)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate employee id")
	}

	user, err := newAccount(email, req.FirstName, req.LastName, models.RoleTeacher, createdBy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare account")
	}

	teacher := &models.Teacher{
		EmployeeID:      employeeID,
		Subjects:        req.Subjects,
		Classes:         req.Classes,
		Qualification:   req.Qualification,
		ExperienceYears: req.ExperienceYears,
		Salary:          req.Salary,
		ContactNumber:   req.ContactNumber,
		Active:          true,
	}
	if err := s.repo.CreateWithUser(ctx, user, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	detail := &models.TeacherDetail{Teacher: *teacher, Email: user.Email, FirstName: user.FirstName, LastName: user.LastName}
	return detail, nil
}

// OwnerUserID reports which account owns a teacher profile, backing the
// self-access grant on profile routes.
func (s *TeacherService) OwnerUserID(ctx context.Context, id string) (string, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return detail.UserID, nil
}

// List returns teachers with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single teacher profile.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Update applies partial changes to a teacher profile.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.TeacherDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	teacher := detail.Teacher
	if req.Subjects != nil {
		teacher.Subjects = req.Subjects
	}
	if req.Classes != nil {
		teacher.Classes = req.Classes
	}
	if req.Qualification != nil {
		teacher.Qualification = strings.TrimSpace(*req.Qualification)
	}
	if req.ExperienceYears != nil {
		teacher.ExperienceYears = *req.ExperienceYears
	}
	if req.Salary != nil {
		teacher.Salary = *req.Salary
	}
	if req.ContactNumber != nil {
		teacher.ContactNumber = *req.ContactNumber
	}

	if err := s.repo.Update(ctx, &teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	detail.Teacher = teacher
	return detail, nil
}

// Deactivate soft-deletes a teacher profile and its account.
func (s *TeacherService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	return nil
}
