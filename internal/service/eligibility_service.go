package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/eligibility"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/telemetry"
)

var tracer = telemetry.GetTracer("placement-api/service")

type postingReader interface {
	FindByID(ctx context.Context, id string) (*models.Posting, error)
}

type studentReader interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentProfile, error)
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
}

// EligibilityService loads profiles and postings and runs the evaluator.
type EligibilityService struct {
	evaluator *eligibility.Evaluator
	postings  postingReader
	students  studentReader
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEligibilityService constructs the service.
func NewEligibilityService(evaluator *eligibility.Evaluator, postings postingReader, students studentReader, metrics *MetricsService, logger *zap.Logger) *EligibilityService {
	if evaluator == nil {
		evaluator = eligibility.NewEvaluator(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{evaluator: evaluator, postings: postings, students: students, metrics: metrics, logger: logger}
}

// Evaluate returns the verdict of one student against one posting.
func (s *EligibilityService) Evaluate(ctx context.Context, postingID, studentID string) (*eligibility.Verdict, error) {
	ctx, span := tracer.Start(ctx, "EligibilityService.Evaluate")
	defer span.End()
	span.SetAttributes(telemetry.String("posting.id", postingID), telemetry.String("student.id", studentID))

	posting, err := loadPosting(ctx, s.postings, postingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	verdict := s.evaluate(*student, *posting)
	span.SetAttributes(telemetry.Bool("eligible", verdict.Eligible), telemetry.Bool("warnings", verdict.HasWarnings))
	return &verdict, nil
}

// ListEligibleStudents evaluates every complete profile against the posting
// and returns the eligible ones. Students with warnings are included only
// when includeWarnings is set.
func (s *EligibilityService) ListEligibleStudents(ctx context.Context, postingID string, includeWarnings bool) ([]dto.EligibleStudent, error) {
	ctx, span := tracer.Start(ctx, "EligibilityService.ListEligibleStudents")
	defer span.End()

	posting, err := loadPosting(ctx, s.postings, postingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	complete := true
	filter := models.StudentFilter{ProfileComplete: &complete}
	if posting.Kind == models.PostingKindJob {
		available := true
		filter.Available = &available
	}
	students, err := s.students.List(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	out := make([]dto.EligibleStudent, 0, len(students))
	for _, student := range students {
		verdict := s.evaluate(student, *posting)
		if !verdict.Eligible || (verdict.HasWarnings && !includeWarnings) {
			continue
		}
		out = append(out, dto.EligibleStudent{Student: student, HasWarnings: verdict.HasWarnings})
	}
	span.SetAttributes(telemetry.Int("students.evaluated", len(students)), telemetry.Int("students.eligible", len(out)))
	return out, nil
}

func (s *EligibilityService) evaluate(student models.StudentProfile, posting models.Posting) eligibility.Verdict {
	verdict := s.evaluator.Evaluate(student, posting)
	s.metrics.RecordEvaluation(string(posting.Kind), verdict.Eligible)
	return verdict
}

func loadPosting(ctx context.Context, repo postingReader, id string) (*models.Posting, error) {
	posting, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "posting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load posting")
	}
	return posting, nil
}

func loadStudent(ctx context.Context, repo studentReader, id string) (*models.StudentProfile, error) {
	student, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
