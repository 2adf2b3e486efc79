package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

func newPostingFixture(t *testing.T) (*PostingService, *mockPostingRepo) {
	t.Helper()
	repo := newMockPostingRepo()
	svc, err := NewPostingService(repo, nil, zap.NewNop())
	require.NoError(t, err)
	svc.now = fixedClock
	return svc, repo
}

func validPostingRequest() dto.CreatePostingRequest {
	return dto.CreatePostingRequest{
		Kind:     models.PostingKindInternship,
		Company:  "  Initech ",
		Position: "Summer Intern",
		Requirement: models.PostingRequirement{
			Branches:      models.BranchRequirement{BTech: []string{"CSE", "ECE"}},
			CGPA:          "7.5/10",
			EligibleYears: []string{"3rd year"},
		},
		Deadline: timePtr(fixedNow.Add(72 * time.Hour)),
	}
}

func TestPostingServiceCreate(t *testing.T) {
	svc, repo := newPostingFixture(t)

	posting, err := svc.Create(context.Background(), recruiterClaims(), validPostingRequest())
	require.NoError(t, err)
	assert.Equal(t, "Initech", posting.Company)
	assert.Equal(t, "rec-1", posting.CreatedBy)
	require.Len(t, repo.created, 1)
	assert.Equal(t, []string{"3rd year"}, repo.created[0].Requirement.EligibleYears)

	_, err = svc.Create(context.Background(), operatorClaims(), validPostingRequest())
	require.NoError(t, err)
}

func TestPostingServiceCreateRejects(t *testing.T) {
	svc, repo := newPostingFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, studentClaims("stu-1"), validPostingRequest())
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = svc.Create(ctx, nil, validPostingRequest())
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))

	badKind := validPostingRequest()
	badKind.Kind = "contract"
	_, err = svc.Create(ctx, recruiterClaims(), badKind)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	blankCompany := validPostingRequest()
	blankCompany.Company = "   "
	_, err = svc.Create(ctx, recruiterClaims(), blankCompany)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	emptyYear := validPostingRequest()
	emptyYear.Requirement.EligibleYears = []string{""}
	_, err = svc.Create(ctx, recruiterClaims(), emptyYear)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
	assert.Contains(t, err.Error(), "invalid requirement")

	longCGPA := validPostingRequest()
	longCGPA.Requirement.CGPA = strings.Repeat("9", 201)
	_, err = svc.Create(ctx, recruiterClaims(), longCGPA)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	past := validPostingRequest()
	past.Deadline = timePtr(fixedNow.Add(-time.Minute))
	_, err = svc.Create(ctx, recruiterClaims(), past)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	assert.Empty(t, repo.created)
}

func TestPostingServiceGetAndList(t *testing.T) {
	svc, repo := newPostingFixture(t)
	ctx := context.Background()
	repo.postings["job-1"] = models.Posting{ID: "job-1", Kind: models.PostingKindJob}

	posting, err := svc.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.PostingKindJob, posting.Kind)

	_, err = svc.Get(ctx, "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))

	postings, pagination, err := svc.List(ctx, dto.PostingQuery{Kind: models.PostingKindJob, Page: 3, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, postings, 1)
	assert.Equal(t, 100, pagination.PageSize)
	assert.Equal(t, 200, repo.filter.Offset)

	_, pagination, err = svc.List(ctx, dto.PostingQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)

	_, _, err = svc.List(ctx, dto.PostingQuery{Kind: "contract"})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}
