package service

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

//go:embed schema/posting_requirement.json
var postingRequirementSchema string

type postingRepository interface {
	Create(ctx context.Context, posting *models.Posting) error
	FindByID(ctx context.Context, id string) (*models.Posting, error)
	List(ctx context.Context, filter models.PostingFilter) ([]models.Posting, int, error)
}

// PostingService manages job and internship postings.
type PostingService struct {
	repo      postingRepository
	schema    *gojsonschema.Schema
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPostingService constructs the service and compiles the requirement schema.
func NewPostingService(repo postingRepository, validate *validator.Validate, logger *zap.Logger) (*PostingService, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(postingRequirementSchema))
	if err != nil {
		return nil, fmt.Errorf("compile posting requirement schema: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostingService{repo: repo, schema: schema, validator: ensureValidator(validate), logger: logger, now: time.Now}, nil
}

// Create stores a posting on behalf of a recruiter or coordinator.
func (s *PostingService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreatePostingRequest) (*models.Posting, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.Role.IsOperator() && actor.Role != models.RoleRecruiter {
		return nil, appErrors.ErrForbidden
	}
	req.Company = strings.TrimSpace(req.Company)
	req.Position = strings.TrimSpace(req.Position)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := s.validateRequirement(req.Requirement); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if req.Deadline != nil && req.Deadline.Before(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be in the future")
	}

	posting := &models.Posting{
		Kind:         req.Kind,
		Company:      req.Company,
		Position:     req.Position,
		Description:  req.Description,
		Location:     strings.TrimSpace(req.Location),
		Compensation: strings.TrimSpace(req.Compensation),
		Requirement:  req.Requirement,
		Deadline:     req.Deadline,
		CreatedBy:    actor.UserID,
	}
	if err := s.repo.Create(ctx, posting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create posting")
	}
	s.logger.Info("posting created", zap.String("posting_id", posting.ID), zap.String("kind", string(posting.Kind)), zap.String("created_by", actor.UserID))
	return posting, nil
}

func (s *PostingService) validateRequirement(req models.PostingRequirement) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(req))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requirement")
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return appErrors.Clone(appErrors.ErrValidation, "invalid requirement: "+strings.Join(msgs, "; "))
}

// Get returns one posting.
func (s *PostingService) Get(ctx context.Context, id string) (*models.Posting, error) {
	return loadPosting(ctx, s.repo, id)
}

// List returns postings and pagination metadata.
func (s *PostingService) List(ctx context.Context, query dto.PostingQuery) ([]models.Posting, *models.Pagination, error) {
	if query.Kind != "" && query.Kind != models.PostingKindJob && query.Kind != models.PostingKindInternship {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "kind must be job or internship")
	}
	page, size := normalizePage(query.Page, query.PageSize, 20, 100)
	postings, total, err := s.repo.List(ctx, models.PostingFilter{
		Kind:    query.Kind,
		Company: strings.TrimSpace(query.Company),
		Limit:   size,
		Offset:  (page - 1) * size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list postings")
	}
	return postings, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func normalizePage(page, size, defaultSize, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}
