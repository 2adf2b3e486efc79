package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

type placementRepository interface {
	Upsert(ctx context.Context, placement *models.FinalPlacement) error
	FindByStudent(ctx context.Context, studentID string) (*models.FinalPlacement, error)
	Delete(ctx context.Context, studentID string) error
}

type internshipRepository interface {
	Create(ctx context.Context, internship *models.CompletedInternship) error
	Update(ctx context.Context, internship *models.CompletedInternship) error
	FindByID(ctx context.Context, studentID, id string) (*models.CompletedInternship, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CompletedInternship, error)
	Delete(ctx context.Context, studentID, id string) error
}

// PlacementService records placement outcomes. Promotion is always an
// explicit operator command; application status never triggers it.
type PlacementService struct {
	placements  placementRepository
	internships internshipRepository
	students    studentReader
	validator   *validator.Validate
	events      *EventService
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
}

// NewPlacementService constructs the service.
func NewPlacementService(placements placementRepository, internships internshipRepository, students studentReader, validate *validator.Validate, events *EventService, cache *CacheService, logger *zap.Logger) *PlacementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{
		placements:  placements,
		internships: internships,
		students:    students,
		validator:   ensureValidator(validate),
		events:      events,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// GetRecord returns the final placement and internships of a student.
func (s *PlacementService) GetRecord(ctx context.Context, studentID string) (*dto.StudentPlacementRecord, error) {
	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	record := &dto.StudentPlacementRecord{StudentID: studentID}
	placement, err := s.placements.FindByStudent(ctx, studentID)
	switch {
	case err == nil:
		record.FinalPlacement = placement
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final placement")
	}
	internships, err := s.internships.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internships")
	}
	if internships == nil {
		internships = []models.CompletedInternship{}
	}
	record.Internships = internships
	return record, nil
}

// RecordFinalPlacement creates or replaces the student's final placement.
func (s *PlacementService) RecordFinalPlacement(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.RecordFinalPlacementRequest) (*models.FinalPlacement, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	placement := &models.FinalPlacement{
		StudentID:    studentID,
		Company:      strings.TrimSpace(req.Company),
		Position:     strings.TrimSpace(req.Position),
		CTC:          strings.TrimSpace(req.CTC),
		JoiningDate:  req.JoiningDate,
		Location:     strings.TrimSpace(req.Location),
		OfferType:    req.OfferType,
		PlacedAt:     now,
		IsCurrentJob: req.IsCurrentJob,
		RecordedBy:   actor.UserID,
		UpdatedAt:    now,
	}
	if req.PlacedAt != nil {
		placement.PlacedAt = req.PlacedAt.UTC()
	}
	if err := s.placements.Upsert(ctx, placement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record final placement")
	}

	s.events.PlacementRecorded(ctx, placement, actor.Actor())
	s.cache.Invalidate(ctx, cohortCachePattern)
	s.logger.Info("final placement recorded", zap.String("student_id", studentID), zap.String("company", placement.Company), zap.String("recorded_by", actor.UserID))
	return placement, nil
}

// RemoveFinalPlacement deletes the student's final placement.
func (s *PlacementService) RemoveFinalPlacement(ctx context.Context, actor *models.JWTClaims, studentID string) error {
	if err := requireOperator(actor); err != nil {
		return err
	}
	if err := s.placements.Delete(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "final placement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove final placement")
	}
	s.events.PlacementRemoved(ctx, studentID, actor.Actor(), s.now().UTC())
	s.cache.Invalidate(ctx, cohortCachePattern)
	s.logger.Info("final placement removed", zap.String("student_id", studentID), zap.String("removed_by", actor.UserID))
	return nil
}

// RecordCompletedInternship appends an internship outcome.
func (s *PlacementService) RecordCompletedInternship(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.CompletedInternshipRequest) (*models.CompletedInternship, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if err := s.validateInternship(req); err != nil {
		return nil, err
	}
	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	internship := &models.CompletedInternship{StudentID: studentID}
	applyInternship(internship, req)
	if err := s.internships.Create(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record internship")
	}
	s.logger.Info("internship recorded", zap.String("student_id", studentID), zap.String("internship_id", internship.ID))
	return internship, nil
}

// UpdateCompletedInternship replaces the fields of an internship.
func (s *PlacementService) UpdateCompletedInternship(ctx context.Context, actor *models.JWTClaims, studentID, id string, req dto.CompletedInternshipRequest) (*models.CompletedInternship, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if err := s.validateInternship(req); err != nil {
		return nil, err
	}
	internship, err := s.internships.FindByID(ctx, studentID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship")
	}
	applyInternship(internship, req)
	if err := s.internships.Update(ctx, internship); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update internship")
	}
	return internship, nil
}

// RemoveCompletedInternship deletes an internship record.
func (s *PlacementService) RemoveCompletedInternship(ctx context.Context, actor *models.JWTClaims, studentID, id string) error {
	if err := requireOperator(actor); err != nil {
		return err
	}
	if err := s.internships.Delete(ctx, studentID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove internship")
	}
	return nil
}

func (s *PlacementService) validateInternship(req dto.CompletedInternshipRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}
	if !req.PPOReceived && (req.PPOAccepted || strings.TrimSpace(req.PPOCTC) != "") {
		return appErrors.Clone(appErrors.ErrValidation, "ppo details require ppoReceived")
	}
	return nil
}

func applyInternship(internship *models.CompletedInternship, req dto.CompletedInternshipRequest) {
	internship.Company = strings.TrimSpace(req.Company)
	internship.Position = strings.TrimSpace(req.Position)
	internship.StartDate = req.StartDate
	internship.EndDate = req.EndDate
	internship.Duration = strings.TrimSpace(req.Duration)
	internship.Stipend = strings.TrimSpace(req.Stipend)
	internship.CompletionStatus = req.CompletionStatus
	internship.PPOReceived = req.PPOReceived
	internship.PPOCTC = strings.TrimSpace(req.PPOCTC)
	internship.PPOAccepted = req.PPOAccepted
	internship.CertificateReceived = req.CertificateReceived
	internship.PerformanceRating = req.PerformanceRating
	internship.Feedback = strings.TrimSpace(req.Feedback)
}
