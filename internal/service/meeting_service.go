package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nexlearn/campus-api/internal/models"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
)

type meetingRepository interface {
	List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error)
	FindByID(ctx context.Context, id string) (*models.Meeting, error)
	Create(ctx context.Context, meeting *models.Meeting) error
	Update(ctx context.Context, meeting *models.Meeting) error
	Delete(ctx context.Context, id string) error
}

// CreateMeetingRequest holds payload for scheduling a meeting.
type CreateMeetingRequest struct {
	Title        string    `json:"title" validate:"required"`
	Agenda       string    `json:"agenda"`
	ScheduledAt  time.Time `json:"scheduled_at" validate:"required"`
	Location     string    `json:"location"`
	Participants []string  `json:"participants"`
}

// UpdateMeetingRequest holds the mutable meeting fields.
type UpdateMeetingRequest struct {
	Title        *string    `json:"title"`
	Agenda       *string    `json:"agenda"`
	ScheduledAt  *time.Time `json:"scheduled_at"`
	Location     *string    `json:"location"`
	Participants []string   `json:"participants"`
}

// MeetingService manages scheduled meetings.
type MeetingService struct {
	repo      meetingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMeetingService constructs the meeting service.
func NewMeetingService(repo meetingRepository, validate *validator.Validate, logger *zap.Logger) *MeetingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{repo: repo, validator: validate, logger: logger}
}

// Create schedules a meeting.
func (s *MeetingService) Create(ctx context.Context, req CreateMeetingRequest, organizer string) (*models.Meeting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid meeting payload")
	}
	meeting := &models.Meeting{
		Title:        req.Title,
		Agenda:       req.Agenda,
		ScheduledAt:  req.ScheduledAt.UTC(),
		Location:     req.Location,
		Organizer:    organizer,
		Participants: req.Participants,
	}
	if err := s.repo.Create(ctx, meeting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create meeting")
	}
	return meeting, nil
}

// List returns meetings with pagination metadata.
func (s *MeetingService) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, *models.Pagination, error) {
	meetings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return meetings, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single meeting.
func (s *MeetingService) Get(ctx context.Context, id string) (*models.Meeting, error) {
	meeting, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	return meeting, nil
}

// Update edits a scheduled meeting.
func (s *MeetingService) Update(ctx context.Context, id string, req UpdateMeetingRequest) (*models.Meeting, error) {
	meeting, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		meeting.Title = *req.Title
	}
	if req.Agenda != nil {
		meeting.Agenda = *req.Agenda
	}
	if req.ScheduledAt != nil {
		meeting.ScheduledAt = req.ScheduledAt.UTC()
	}
	if req.Location != nil {
		meeting.Location = *req.Location
	}
	if req.Participants != nil {
		meeting.Participants = req.Participants
	}

	if err := s.repo.Update(ctx, meeting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update meeting")
	}
	return meeting, nil
}

// Delete cancels a meeting.
func (s *MeetingService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete meeting")
	}
	return nil
}
