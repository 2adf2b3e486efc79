package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/eligibility"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/internal/repository"
	"github.com/noah-isme/placement-api/pkg/database"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/telemetry"
)

type applicationRepository interface {
	CreateWithHistory(ctx context.Context, app *models.Application, entry *models.StatusHistoryEntry) error
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) (int, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	History(ctx context.Context, applicationID string) ([]models.StatusHistoryEntry, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
}

// ApplicationService runs the application lifecycle: submission, status
// transitions and withdrawal, each recorded in the status history.
type ApplicationService struct {
	repo      applicationRepository
	postings  postingReader
	students  studentReader
	evaluator *eligibility.Evaluator
	validator *validator.Validate
	metrics   *MetricsService
	events    *EventService
	cache     *CacheService
	logger    *zap.Logger
	now       func() time.Time
}

// ApplicationServiceDeps groups the collaborators of ApplicationService.
type ApplicationServiceDeps struct {
	Repo      applicationRepository
	Postings  postingReader
	Students  studentReader
	Evaluator *eligibility.Evaluator
	Validator *validator.Validate
	Metrics   *MetricsService
	Events    *EventService
	Cache     *CacheService
	Logger    *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(deps ApplicationServiceDeps) *ApplicationService {
	if deps.Evaluator == nil {
		deps.Evaluator = eligibility.NewEvaluator(nil)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ApplicationService{
		repo:      deps.Repo,
		postings:  deps.Postings,
		students:  deps.Students,
		evaluator: deps.Evaluator,
		validator: ensureValidator(deps.Validator),
		metrics:   deps.Metrics,
		events:    deps.Events,
		cache:     deps.Cache,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Create submits the calling student's application to a posting. The
// eligibility verdict is returned alongside but never blocks submission.
func (s *ApplicationService) Create(ctx context.Context, actor *models.JWTClaims, postingID string, req dto.CreateApplicationRequest, meta dto.SubmissionMeta) (*dto.ApplicationCreatedResponse, error) {
	ctx, span := tracer.Start(ctx, "ApplicationService.Create")
	defer span.End()
	span.SetAttributes(telemetry.String("posting.id", postingID))

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can apply")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if !req.EligibilityAcknowledged {
		return nil, appErrors.Clone(appErrors.ErrValidation, "eligibility must be acknowledged before applying")
	}

	posting, err := loadPosting(ctx, s.postings, postingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	now := s.now().UTC()
	if posting.Deadline != nil && now.After(*posting.Deadline) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "posting is closed for applications")
	}
	student, err := loadStudent(ctx, s.students, actor.UserID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	verdict := s.evaluator.Evaluate(*student, *posting)
	s.metrics.RecordEvaluation(string(posting.Kind), verdict.Eligible)

	attachments := make(models.Attachments, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		if a.UploadedAt.IsZero() {
			a.UploadedAt = now
		}
		attachments = append(attachments, a)
	}
	app := &models.Application{
		PostingID:               posting.ID,
		StudentID:               student.ID,
		AppliedAt:               now,
		CurrentStatus:           models.ApplicationStatusApplied,
		CoverLetter:             strings.TrimSpace(req.CoverLetter),
		AdditionalInfo:          strings.TrimSpace(req.AdditionalInfo),
		EligibilityAcknowledged: true,
		Attachments:             attachments,
		SubmissionIP:            meta.IP,
		SubmissionUserAgent:     meta.UserAgent,
		UpdatedAt:               now,
	}
	entry := &models.StatusHistoryEntry{
		Status:    models.ApplicationStatusApplied,
		ChangedAt: now,
		ActorID:   actor.UserID,
		ActorRole: models.ActorRoleStudent,
	}
	if err := s.repo.CreateWithHistory(ctx, app, entry); err != nil {
		telemetry.RecordError(span, err)
		if database.IsUniqueViolation(err, repository.ApplicationStudentPostingKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already applied to this posting")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	app.StatusHistory = []models.StatusHistoryEntry{*entry}

	s.metrics.RecordApplicationCreated(string(posting.Kind))
	s.events.ApplicationCreated(ctx, app, actor.Actor())
	s.invalidateSummaries(ctx, app.StudentID)
	s.logger.Info("application created",
		zap.String("application_id", app.ID),
		zap.String("posting_id", app.PostingID),
		zap.String("student_id", app.StudentID),
		zap.Bool("eligible", verdict.Eligible),
	)
	span.SetAttributes(telemetry.String("application.id", app.ID), telemetry.Bool("eligible", verdict.Eligible))

	return &dto.ApplicationCreatedResponse{Application: app, Eligibility: verdict}, nil
}

// Get returns an application with its history. Students only see their own.
func (s *ApplicationService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Application, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent && app.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	if err := s.attachHistory(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListByPosting lists the applications submitted to a posting.
func (s *ApplicationService) ListByPosting(ctx context.Context, postingID string, query dto.ApplicationQuery) ([]models.Application, *models.Pagination, error) {
	if _, err := loadPosting(ctx, s.postings, postingID); err != nil {
		return nil, nil, err
	}
	return s.list(ctx, models.ApplicationFilter{PostingID: postingID}, query)
}

// ListByStudent lists the applications of one student.
func (s *ApplicationService) ListByStudent(ctx context.Context, studentID string, query dto.ApplicationQuery) ([]models.Application, *models.Pagination, error) {
	return s.list(ctx, models.ApplicationFilter{StudentID: studentID}, query)
}

func (s *ApplicationService) list(ctx context.Context, filter models.ApplicationFilter, query dto.ApplicationQuery) ([]models.Application, *models.Pagination, error) {
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
		}
	}
	page, size := normalizePage(query.Page, query.PageSize, 50, 200)
	filter.Status = query.Status
	filter.Limit = size
	filter.Offset = (page - 1) * size
	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Transition moves an application to another status. Terminal applications
// only accept a same-status entry, which records a note without changing state.
func (s *ApplicationService) Transition(ctx context.Context, actor *models.JWTClaims, id string, req dto.TransitionStatusRequest) (*models.Application, error) {
	ctx, span := tracer.Start(ctx, "ApplicationService.Transition")
	defer span.End()
	span.SetAttributes(telemetry.String("application.id", id), telemetry.String("status.to", string(req.Status)))

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if !actor.Role.IsOperator() && actor.Role != models.RoleRecruiter {
		return nil, appErrors.ErrForbidden
	}
	if req.Status == models.ApplicationStatusWithdrawn && !actor.Role.IsOperator() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only coordinators can withdraw applications")
	}

	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.apply(ctx, actor, app, req.Status, req.Note, req.ExpectedVersion)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return updated, nil
}

// Withdraw moves a non-terminal application to Withdrawn.
func (s *ApplicationService) Withdraw(ctx context.Context, actor *models.JWTClaims, id string, req dto.WithdrawApplicationRequest) (*models.Application, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CurrentStatus.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("application is already %s", app.CurrentStatus))
	}
	return s.apply(ctx, actor, app, models.ApplicationStatusWithdrawn, req.Note, req.ExpectedVersion)
}

func (s *ApplicationService) apply(ctx context.Context, actor *models.JWTClaims, app *models.Application, status models.ApplicationStatus, note string, expectedVersion *int) (*models.Application, error) {
	if expectedVersion != nil && *expectedVersion != app.Version {
		return nil, appErrors.Clone(appErrors.ErrConflict, "application was modified concurrently; reload and retry")
	}
	previous := app.CurrentStatus
	if previous.Terminal() && status != previous {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("application is %s and cannot move to %s", previous, status))
	}

	now := s.now().UTC()
	actorInfo := actor.Actor()
	entry := &models.StatusHistoryEntry{
		Status:    status,
		ChangedAt: now,
		ActorID:   actorInfo.ID,
		ActorRole: actorInfo.Role,
		Note:      optionalString(note),
	}
	version, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		ID:              app.ID,
		Status:          status,
		ExpectedVersion: app.Version,
		ChangedAt:       now,
		Entry:           entry,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "application was modified concurrently; reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application status")
	}

	app.CurrentStatus = status
	app.Version = version
	app.UpdatedAt = now
	if err := s.attachHistory(ctx, app); err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(status))
	s.events.StatusChanged(ctx, app, previous, actorInfo)
	s.invalidateSummaries(ctx, app.StudentID)
	s.logger.Info("application status changed",
		zap.String("application_id", app.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("actor_id", actorInfo.ID),
		zap.Int("version", version),
	)
	return app, nil
}

func (s *ApplicationService) load(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) attachHistory(ctx context.Context, app *models.Application) error {
	history, err := s.repo.History(ctx, app.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application history")
	}
	app.StatusHistory = history
	return nil
}

func (s *ApplicationService) invalidateSummaries(ctx context.Context, studentID string) {
	s.cache.Invalidate(ctx, cohortCachePattern)
	s.cache.Invalidate(ctx, applicationSummaryKey(studentID))
}
