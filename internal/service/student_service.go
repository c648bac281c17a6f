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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByRoll(ctx context.Context, rollNumber string, excludeID string) (bool, error)
	CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for registering a single student.
type CreateStudentRequest struct {
	Email         string  `json:"email" validate:"omitempty,email"`
	FirstName     string  `json:"first_name" validate:"required"`
	LastName      string  `json:"last_name" validate:"required"`
	RollNumber    string  `json:"roll_number" validate:"required"`
	Class         string  `json:"class" validate:"required"`
	Section       string  `json:"section" validate:"required"`
	Gender        string  `json:"gender" validate:"required"`
	MonthlyFee    float64 `json:"monthly_fee" validate:"gte=0"`
	FatherName    string  `json:"father_name" validate:"required"`
	MotherName    string  `json:"mother_name" validate:"required"`
	ContactNumber string  `json:"contact_number" validate:"required"`
	Address       string  `json:"address"`
}

// UpdateStudentRequest holds the mutable profile fields.
type UpdateStudentRequest struct {
	Class         *string  `json:"class"`
	Section       *string  `json:"section"`
	MonthlyFee    *float64 `json:"monthly_fee" validate:"omitempty,gte=0"`
	FatherName    *string  `json:"father_name"`
	MotherName    *string  `json:"mother_name"`
	ContactNumber *string  `json:"contact_number"`
	Address       *string  `json:"address"`
}

// StudentService handles single-student registration and profile management.
type StudentService struct {
	repo         studentRepository
	users        importUserRepository
	fees         feeSeeder
	summaryCache summaryInvalidator
	validator    *validator.Validate
	logger       *zap.Logger

	emailDomain string
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, users importUserRepository, fees feeSeeder, validate *validator.Validate, logger *zap.Logger, emailDomain string) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if emailDomain == "" {
		emailDomain = "campus.edu"
	}
	return &StudentService{repo: repo, users: users, fees: fees, validator: validate, logger: logger, emailDomain: emailDomain}
}

// SetSummaryCache attaches the dashboard summary cache, invalidated when the
// roster changes.
func (s *StudentService) SetSummaryCache(cache summaryInvalidator) {
	s.summaryCache = cache
}

func (s *StudentService) invalidateSummary(ctx context.Context) {
	if s.summaryCache != nil {
		s.summaryCache.Invalidate(ctx)
	}
}

// Create registers one student: account plus profile in a single transaction,
// then seeds the current month's fee record when a monthly fee is set.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest, createdBy string) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.repo.ExistsByRoll(ctx, req.RollNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roll number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "roll number already exists")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = "std" + cleanNamePart(req.FirstName) + cleanNamePart(req.LastName) + "@" + s.emailDomain
	}
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	} else if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}

	user, err := newAccount(email, req.FirstName, req.LastName, models.RoleStudent, createdBy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare account")
	}

	student := &models.Student{
		RollNumber:    strings.TrimSpace(req.RollNumber),
		Class:         req.Class,
		Section:       req.Section,
		Gender:        req.Gender,
		MonthlyFee:    req.MonthlyFee,
		FatherName:    req.FatherName,
		MotherName:    req.MotherName,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
		Active:        true,
	}
	if err := s.repo.CreateWithUser(ctx, user, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	if student.MonthlyFee > 0 && s.fees != nil {
		if _, err := s.fees.CreateInitialFeeRecord(ctx, student.ID, createdBy, student.MonthlyFee); err != nil {
			s.logger.Warn("failed to seed initial fee record",
				zap.String("student_id", student.ID),
				zap.Error(err))
		}
	}

	s.invalidateSummary(ctx)
	detail := &models.StudentDetail{Student: *student, Email: user.Email, FirstName: user.FirstName, LastName: user.LastName}
	return detail, nil
}

// OwnerUserID reports which account owns a student profile, backing the
// self-access grant on profile routes.
func (s *StudentService) OwnerUserID(ctx context.Context, id string) (string, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return detail.UserID, nil
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single student profile.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Update applies partial changes to a student profile.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	student := detail.Student
	if req.Class != nil {
		student.Class = *req.Class
	}
	if req.Section != nil {
		student.Section = *req.Section
	}
	if req.MonthlyFee != nil {
		student.MonthlyFee = *req.MonthlyFee
	}
	if req.FatherName != nil {
		student.FatherName = *req.FatherName
	}
	if req.MotherName != nil {
		student.MotherName = *req.MotherName
	}
	if req.ContactNumber != nil {
		student.ContactNumber = *req.ContactNumber
	}
	if req.Address != nil {
		student.Address = *req.Address
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	detail.Student = student
	return detail, nil
}

// Deactivate soft-deletes a student profile and its account.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	s.invalidateSummary(ctx)
	return nil
}
