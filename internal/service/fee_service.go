package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexlearn/campus-api/internal/models"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
	"github.com/nexlearn/campus-api/pkg/jobs"
)

type feeRepository interface {
	List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error)
	FindByID(ctx context.Context, id string) (*models.Fee, error)
	FindForPeriod(ctx context.Context, studentID, feeType, dueMonth string) (*models.Fee, error)
	ListOutstandingBefore(ctx context.Context, studentID string, cutoff time.Time) ([]models.Fee, error)
	Create(ctx context.Context, fee *models.Fee) error
	Update(ctx context.Context, fee *models.Fee) error
	Delete(ctx context.Context, id string) error
	DeleteOrphans(ctx context.Context) (int64, error)
}

type feeStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ListActiveWithFee(ctx context.Context) ([]models.Student, error)
}

type feeGenerationObserver interface {
	ObserveFeeGenerated()
}

// CreateFeeRequest holds payload for manually recording a fee.
type CreateFeeRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	FeeType   string    `json:"fee_type" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}

// UpdateFeeRequest holds payload for recording a payment or overriding the
// status of a fee record. Status accepts only the explicit paid override;
// every other status is derived.
type UpdateFeeRequest struct {
	PaidAmount  *float64   `json:"paid_amount" validate:"omitempty,gte=0"`
	Status      *string    `json:"status" validate:"omitempty,oneof=paid"`
	PaymentDate *time.Time `json:"payment_date"`
}

// FeeServiceConfig tunes the fee lifecycle engine.
type FeeServiceConfig struct {
	// TrackingStart, when non-zero, is the first month the arrears
	// computation looks at; anything due before it is ignored.
	TrackingStart  time.Time
	DefaultFeeType string
}

// FeeService maintains the derived payment status of fee records, computes
// carried-forward arrears and generates period fee records.
type FeeService struct {
	repo         feeRepository
	students     feeStudentRepository
	queue        *jobs.Queue
	summaryCache summaryInvalidator
	metrics      feeGenerationObserver
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          FeeServiceConfig
	now          func() time.Time
}

// NewFeeService constructs the fee service.
func NewFeeService(repo feeRepository, students feeStudentRepository, validate *validator.Validate, logger *zap.Logger, cfg FeeServiceConfig) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultFeeType == "" {
		cfg.DefaultFeeType = "tuition"
	}
	return &FeeService{repo: repo, students: students, validator: validate, logger: logger, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// SetQueue attaches the background queue used by the monthly generation
// batch.
func (s *FeeService) SetQueue(q *jobs.Queue) {
	s.queue = q
}

// SetSummaryCache attaches the dashboard summary cache, invalidated after
// every fee write.
func (s *FeeService) SetSummaryCache(cache summaryInvalidator) {
	s.summaryCache = cache
}

// SetMetrics attaches the counter observed per generated fee record.
func (s *FeeService) SetMetrics(m feeGenerationObserver) {
	s.metrics = m
}

func (s *FeeService) invalidateSummary(ctx context.Context) {
	if s.summaryCache != nil {
		s.summaryCache.Invalidate(ctx)
	}
}

// applyLifecycle recomputes the derived payment state before a persist.
// The explicit paid override wins over everything, including the overdue
// check; an amount change re-derives the status from the amounts and the
// overdue rule is then re-applied to any record still short of paid.
func (s *FeeService) applyLifecycle(fee *models.Fee, paidChanged, explicitPaid bool, now time.Time) {
	switch {
	case explicitPaid:
		fee.PaidAmount = fee.Amount
		fee.RemainingAmount = 0
		fee.Status = models.FeeStatusPaid
		if fee.PaymentDate == nil {
			fee.PaymentDate = &now
		}
	case paidChanged:
		fee.RemainingAmount = fee.Amount - fee.PaidAmount
		switch {
		case fee.PaidAmount == 0:
			fee.Status = models.FeeStatusUnpaid
		case fee.PaidAmount < fee.Amount:
			fee.Status = models.FeeStatusPartial
		default:
			fee.Status = models.FeeStatusPaid
			fee.RemainingAmount = 0
			if fee.PaymentDate == nil {
				fee.PaymentDate = &now
			}
		}
	}

	if fee.Status != models.FeeStatusPaid && fee.DueDate.Before(now) && fee.Status != models.FeeStatusOverdue {
		fee.Status = models.FeeStatusOverdue
	}
}

// CalculateArrears sums a student's unsettled balance across every fee
// record due strictly before the first day of the current month: the full
// amount for unpaid and overdue records, the remaining amount for partial
// ones.
func (s *FeeService) CalculateArrears(ctx context.Context, studentID string) (float64, error) {
	if studentID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "student id required")
	}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	fees, err := s.repo.ListOutstandingBefore(ctx, studentID, monthStart)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee history")
	}

	var arrears float64
	for _, fee := range fees {
		if !s.cfg.TrackingStart.IsZero() && fee.DueDate.Before(s.cfg.TrackingStart) {
			continue
		}
		switch fee.Status {
		case models.FeeStatusPartial:
			arrears += fee.RemainingAmount
		case models.FeeStatusUnpaid, models.FeeStatusOverdue:
			arrears += fee.Amount
		}
	}
	return arrears, nil
}

// CreateInitialFeeRecord seeds (or refreshes) the current month's fee record
// for a student. The upsert is keyed on student, fee type and due month, so
// a second call within the same month updates the existing record instead of
// creating a duplicate.
func (s *FeeService) CreateInitialFeeRecord(ctx context.Context, studentID, recordedBy string, amount float64) (*models.Fee, error) {
	if studentID == "" || recordedBy == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id and recorder required")
	}

	now := s.now()
	dueMonth := now.Format(models.DueMonthLayout)
	// Last day of the current month.
	dueDate := time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, 0, time.UTC)

	arrears, err := s.CalculateArrears(ctx, studentID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindForPeriod(ctx, studentID, s.cfg.DefaultFeeType, dueMonth)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee record")
	}

	if existing != nil {
		existing.Amount = amount
		existing.Arrears = arrears
		existing.DueDate = dueDate
		existing.RecordedBy = recordedBy
		s.applyLifecycle(existing, true, false, now)
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee record")
		}
		s.invalidateSummary(ctx)
		return existing, nil
	}

	fee := &models.Fee{
		StudentID:  studentID,
		FeeType:    s.cfg.DefaultFeeType,
		DueMonth:   dueMonth,
		Amount:     amount,
		Arrears:    arrears,
		DueDate:    dueDate,
		RecordedBy: recordedBy,
	}
	s.applyLifecycle(fee, true, false, now)
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee record")
	}
	s.invalidateSummary(ctx)
	return fee, nil
}

// Create manually records a fee for a student.
func (s *FeeService) Create(ctx context.Context, req CreateFeeRequest, recordedBy string) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	arrears, err := s.CalculateArrears(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	fee := &models.Fee{
		StudentID:  req.StudentID,
		FeeType:    req.FeeType,
		DueMonth:   req.DueDate.Format(models.DueMonthLayout),
		Amount:     req.Amount,
		Arrears:    arrears,
		DueDate:    req.DueDate,
		RecordedBy: recordedBy,
	}
	s.applyLifecycle(fee, true, false, s.now())
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee record")
	}
	s.invalidateSummary(ctx)
	return fee, nil
}

// Update records a payment or applies the explicit paid override, running
// the lifecycle derivation before persisting.
func (s *FeeService) Update(ctx context.Context, id string, req UpdateFeeRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee record")
	}

	explicitPaid := req.Status != nil && *req.Status == string(models.FeeStatusPaid)
	paidChanged := false
	if req.PaidAmount != nil && *req.PaidAmount != fee.PaidAmount {
		fee.PaidAmount = *req.PaidAmount
		paidChanged = true
	}
	if req.PaymentDate != nil {
		fee.PaymentDate = req.PaymentDate
	}

	s.applyLifecycle(fee, paidChanged, explicitPaid, s.now())

	if err := s.repo.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee record")
	}
	s.invalidateSummary(ctx)
	return fee, nil
}

// List returns fee records with pagination metadata.
func (s *FeeService) List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, *models.Pagination, error) {
	fees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return fees, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single fee record.
func (s *FeeService) Get(ctx context.Context, id string) (*models.Fee, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee record")
	}
	return fee, nil
}

// Delete removes a fee record.
func (s *FeeService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "fee record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee record")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee record")
	}
	s.invalidateSummary(ctx)
	return nil
}

// CleanupOrphans removes fee records whose student is gone or inactive.
func (s *FeeService) CleanupOrphans(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteOrphans(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clean up orphaned fees")
	}
	if removed > 0 {
		s.invalidateSummary(ctx)
	}
	return removed, nil
}

// EnqueueMonthlyGeneration queues one generation job per active student with
// a positive monthly fee and returns the number queued.
func (s *FeeService) EnqueueMonthlyGeneration(ctx context.Context, recordedBy string) (int, error) {
	if s.queue == nil {
		return 0, appErrors.Clone(appErrors.ErrInternal, "fee generation queue not configured")
	}
	students, err := s.students.ListActiveWithFee(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	queued := 0
	for _, student := range students {
		job := jobs.Job{
			ID:   uuid.NewString(),
			Type: "fee.generate",
			Payload: FeeGenerationPayload{
				StudentID:  student.ID,
				RecordedBy: recordedBy,
				Amount:     student.MonthlyFee,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue fee generation", zap.String("student_id", student.ID), zap.Error(err))
			continue
		}
		queued++
	}
	return queued, nil
}

// FeeGenerationPayload carries one student's monthly generation job.
type FeeGenerationPayload struct {
	StudentID  string
	RecordedBy string
	Amount     float64
}

// HandleGenerationJob is the queue handler for monthly fee generation.
func (s *FeeService) HandleGenerationJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(FeeGenerationPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	if _, err := s.CreateInitialFeeRecord(ctx, payload.StudentID, payload.RecordedBy, payload.Amount); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveFeeGenerated()
	}
	return nil
}
