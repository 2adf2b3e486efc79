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

type redFlagRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.RedFlag, error)
	Create(ctx context.Context, flag *models.RedFlag) error
	UpdateReason(ctx context.Context, studentID, id, reason string, at time.Time) error
	Delete(ctx context.Context, studentID, id string) error
	CountMissingIDs(ctx context.Context) (int, error)
	BackfillIDs(ctx context.Context) (int, error)
}

// RedFlagService manages administrative notes on students.
type RedFlagService struct {
	repo      redFlagRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRedFlagService constructs the service.
func NewRedFlagService(repo redFlagRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *RedFlagService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedFlagService{repo: repo, students: students, validator: ensureValidator(validate), logger: logger, now: time.Now}
}

// List returns the red flags of a student.
func (s *RedFlagService) List(ctx context.Context, studentID string) ([]models.RedFlag, error) {
	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	flags, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list red flags")
	}
	if flags == nil {
		flags = []models.RedFlag{}
	}
	return flags, nil
}

// Create adds a red flag attributed to the acting operator.
func (s *RedFlagService) Create(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.RedFlagRequest) (*models.RedFlag, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	info := actor.Actor()
	flag := &models.RedFlag{
		StudentID:    studentID,
		Reason:       req.Reason,
		AssignedBy:   info.Name,
		AssignedByID: info.ID,
	}
	if err := s.repo.Create(ctx, flag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create red flag")
	}
	s.logger.Info("red flag assigned", zap.String("student_id", studentID), zap.String("flag_id", flag.ID), zap.String("assigned_by", info.ID))
	return flag, nil
}

// Update changes the reason of a red flag.
func (s *RedFlagService) Update(ctx context.Context, actor *models.JWTClaims, studentID, id string, req dto.RedFlagRequest) error {
	if err := requireOperator(actor); err != nil {
		return err
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	if err := s.repo.UpdateReason(ctx, studentID, id, req.Reason, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "red flag not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update red flag")
	}
	return nil
}

// Delete removes a red flag.
func (s *RedFlagService) Delete(ctx context.Context, actor *models.JWTClaims, studentID, id string) error {
	if err := requireOperator(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, studentID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "red flag not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete red flag")
	}
	s.logger.Info("red flag removed", zap.String("student_id", studentID), zap.String("flag_id", id), zap.String("removed_by", actor.UserID))
	return nil
}

// Backfill assigns ids to legacy red flags stored without one. A dry run
// only counts them.
func (s *RedFlagService) Backfill(ctx context.Context, dryRun bool) (*dto.RedFlagBackfillResult, error) {
	if dryRun {
		missing, err := s.repo.CountMissingIDs(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count red flags without id")
		}
		return &dto.RedFlagBackfillResult{Assigned: missing, DryRun: true}, nil
	}
	assigned, err := s.repo.BackfillIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to backfill red flag ids")
	}
	s.logger.Info("red flag ids backfilled", zap.Int("assigned", assigned))
	return &dto.RedFlagBackfillResult{Assigned: assigned}, nil
}
