package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/telemetry"
)

const (
	cohortCachePrefix  = "cohort:"
	cohortCachePattern = cohortCachePrefix + "*"
	recentApplications = 5
)

func applicationSummaryKey(studentID string) string {
	return "applications:summary:" + studentID
}

type cohortApplicationReader interface {
	ListWithPostingByStudents(ctx context.Context, studentIDs []string) ([]models.ApplicationWithPosting, error)
}

type placementLister interface {
	ListByStudents(ctx context.Context, studentIDs []string) ([]models.FinalPlacement, error)
}

// SummaryService builds the read-only placement rollups.
type SummaryService struct {
	students     studentReader
	applications cohortApplicationReader
	placements   placementLister
	cache        *CacheService
	cacheTTL     time.Duration
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewSummaryService constructs the service. cacheTTL <= 0 uses the cache default.
func NewSummaryService(students studentReader, applications cohortApplicationReader, placements placementLister, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		students:     students,
		applications: applications,
		placements:   placements,
		cache:        cache,
		cacheTTL:     cacheTTL,
		validator:    ensureValidator(validate),
		logger:       logger,
	}
}

// SummarizeApplications returns the application rollup of one student.
func (s *SummaryService) SummarizeApplications(ctx context.Context, studentID string) (*dto.ApplicationSummary, error) {
	key := applicationSummaryKey(studentID)
	var cached dto.ApplicationSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	apps, err := s.applications.ListWithPostingByStudents(ctx, []string{studentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applications")
	}
	summary := summarizeApplications(studentID, apps, recentApplications)
	s.cache.Set(ctx, key, summary, s.cacheTTL)
	return summary, nil
}

func summarizeApplications(studentID string, apps []models.ApplicationWithPosting, limit int) *dto.ApplicationSummary {
	summary := &dto.ApplicationSummary{
		StudentID: studentID,
		Total:     len(apps),
		ByStatus:  make(map[models.ApplicationStatus]int, len(models.ApplicationStatuses)),
	}
	for _, status := range models.ApplicationStatuses {
		summary.ByStatus[status] = 0
	}
	for _, app := range apps {
		summary.ByStatus[app.CurrentStatus]++
	}

	recent := make([]models.ApplicationWithPosting, len(apps))
	copy(recent, apps)
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].AppliedAt.Equal(recent[j].AppliedAt) {
			return recent[i].AppliedAt.After(recent[j].AppliedAt)
		}
		return recent[i].ID < recent[j].ID
	})
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	summary.Recent = recent
	return summary
}

// SummarizeCohort returns the placement-tracking rows and their stats.
func (s *SummaryService) SummarizeCohort(ctx context.Context, filter dto.CohortFilter) (*dto.CohortSummary, error) {
	ctx, span := tracer.Start(ctx, "SummaryService.SummarizeCohort")
	defer span.End()

	filter = normalizeCohortFilter(filter)
	if err := s.validator.Struct(filter); err != nil {
		return nil, validationError(err)
	}
	key := cohortCacheKey(filter)
	var cached dto.CohortSummary
	if s.cache.Get(ctx, key, &cached) {
		span.SetAttributes(telemetry.Bool("cache.hit", true))
		return &cached, nil
	}

	students, err := s.students.List(ctx, models.StudentFilter{Program: filter.Program, Branch: filter.Branch})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	apps, err := s.applications.ListWithPostingByStudents(ctx, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applications")
	}
	placements, err := s.placements.ListByStudents(ctx, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placements")
	}

	summary := summarizeCohort(students, apps, placements, filter)
	span.SetAttributes(telemetry.Int("cohort.rows", len(summary.Rows)))
	s.cache.Set(ctx, key, summary, s.cacheTTL)
	return summary, nil
}

func normalizeCohortFilter(filter dto.CohortFilter) dto.CohortFilter {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.Company = strings.TrimSpace(filter.Company)
	filter.Position = strings.TrimSpace(filter.Position)
	filter.Program = strings.TrimSpace(filter.Program)
	filter.Branch = strings.TrimSpace(filter.Branch)
	return filter
}

func cohortCacheKey(filter dto.CohortFilter) string {
	raw := strings.Join([]string{
		filter.Status,
		strings.ToLower(filter.Company),
		strings.ToLower(filter.Position),
		strings.ToLower(filter.Program),
		strings.ToLower(filter.Branch),
	}, "\x1f")
	sum := sha1.Sum([]byte(raw))
	return cohortCachePrefix + hex.EncodeToString(sum[:])
}

// summarizeCohort filters students and computes stats over the kept rows.
// Company, position and status predicates must all hold on one application.
func summarizeCohort(students []models.StudentProfile, apps []models.ApplicationWithPosting, placements []models.FinalPlacement, filter dto.CohortFilter) *dto.CohortSummary {
	byStudent := make(map[string][]models.ApplicationWithPosting, len(students))
	for _, app := range apps {
		byStudent[app.StudentID] = append(byStudent[app.StudentID], app)
	}
	placed := make(map[string]models.FinalPlacement, len(placements))
	for _, p := range placements {
		placed[p.StudentID] = p
	}

	appLevel := filter.Status != dto.CohortStatusAll || filter.Company != "" || filter.Position != ""
	summary := &dto.CohortSummary{Rows: make([]dto.CohortRow, 0, len(students))}
	for _, student := range students {
		if !containsFold(student.Program, filter.Program) || !containsFold(student.Branch, filter.Branch) {
			continue
		}
		studentApps := byStudent[student.ID]
		if appLevel && !anyApplicationMatches(studentApps, filter) {
			continue
		}

		row := dto.CohortRow{
			StudentID:         student.ID,
			FullName:          student.FullName,
			RollNumber:        student.RollNumber,
			Program:           student.Program,
			Branch:            student.Branch,
			TotalApplications: len(studentApps),
		}
		for _, app := range studentApps {
			if app.CurrentStatus == models.ApplicationStatusSelected {
				row.Selections++
			}
		}
		if p, ok := placed[student.ID]; ok {
			placement := p
			row.FinalPlacement = &placement
		}
		summary.Rows = append(summary.Rows, row)
	}
	summary.Stats = cohortStats(summary.Rows)
	return summary
}

func anyApplicationMatches(apps []models.ApplicationWithPosting, filter dto.CohortFilter) bool {
	for _, app := range apps {
		if filter.Status == dto.CohortStatusSelected && app.CurrentStatus != models.ApplicationStatusSelected {
			continue
		}
		if !containsFold(app.Company, filter.Company) || !containsFold(app.Position, filter.Position) {
			continue
		}
		return true
	}
	return false
}

func cohortStats(rows []dto.CohortRow) dto.CohortStats {
	stats := dto.CohortStats{TotalStudents: len(rows)}
	placed := 0
	for _, row := range rows {
		stats.TotalApplications += row.TotalApplications
		stats.TotalSelections += row.Selections
		if row.TotalApplications > 0 {
			stats.StudentsWithApplications++
		}
		if row.Selections > 0 {
			stats.StudentsWithSelections++
		}
		if row.FinalPlacement != nil {
			placed++
		}
	}
	if stats.TotalStudents > 0 {
		rate := int(math.Round(float64(placed) / float64(stats.TotalStudents) * 100))
		if rate < 0 {
			rate = 0
		}
		if rate > 100 {
			rate = 100
		}
		stats.PlacementRate = rate
	}
	return stats
}

// containsFold reports whether needle occurs in value ignoring case. An
// empty needle always matches.
func containsFold(value, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}
