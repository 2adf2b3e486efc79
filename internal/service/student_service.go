package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentProfile, error)
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
	UpdateAvailability(ctx context.Context, id string, available bool, at time.Time) error
}

// StudentService exposes the placement view of student profiles.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: ensureValidator(validate), logger: logger, now: time.Now}
}

// Get returns a student profile.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentProfile, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// UpdateAvailability toggles the placement availability flag. Opting in
// requires a complete profile; opting out is always accepted.
func (s *StudentService) UpdateAvailability(ctx context.Context, id string, req dto.UpdateAvailabilityRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	available := *req.Available
	if available && !student.ProfileComplete {
		return nil, appErrors.Clone(appErrors.ErrValidation, "complete the profile before opting in to placements")
	}

	now := s.now().UTC()
	if err := s.repo.UpdateAvailability(ctx, id, available, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability")
	}
	student.AvailableForPlacement = available
	student.AvailabilityUpdatedAt = &now
	s.logger.Info("placement availability updated", zap.String("student_id", id), zap.Bool("available", available))
	return student, nil
}
