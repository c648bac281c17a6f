package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nexlearn/campus-api/internal/models"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
	Upsert(ctx context.Context, record *models.Attendance) error
}

// MarkAttendanceRequest records the status of one student on one day.
type MarkAttendanceRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=present absent late excused"`
}

// AttendanceService records and lists daily attendance.
type AttendanceService struct {
	repo      attendanceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, validator: validate, logger: logger}
}

// Mark upserts attendance records; re-marking the same student and day
// replaces the earlier status.
func (s *AttendanceService) Mark(ctx context.Context, requests []MarkAttendanceRequest, markedBy string) ([]models.Attendance, error) {
	if len(requests) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no attendance records provided")
	}

	records := make([]models.Attendance, 0, len(requests))
	for _, req := range requests {
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
		}
		day := req.Date.UTC().Truncate(24 * time.Hour)
		record := models.Attendance{
			StudentID: req.StudentID,
			Date:      day,
			Status:    models.AttendanceStatus(req.Status),
			MarkedBy:  markedBy,
		}
		if err := s.repo.Upsert(ctx, &record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
		}
		records = append(records, record)
	}
	return records, nil
}

// List returns attendance records with pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
