package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/export"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

type stubCohortSummarizer struct {
	summary *dto.CohortSummary
	err     error
	filter  dto.CohortFilter
}

func (s *stubCohortSummarizer) SummarizeCohort(ctx context.Context, filter dto.CohortFilter) (*dto.CohortSummary, error) {
	s.filter = filter
	return s.summary, s.err
}

func sampleCohort() *dto.CohortSummary {
	return &dto.CohortSummary{
		Rows: []dto.CohortRow{
			{StudentID: "stu-1", FullName: "Asha", Program: "B.Tech", Branch: "CSE", TotalApplications: 3, Selections: 1,
				FinalPlacement: &models.FinalPlacement{Company: "Acme", Position: "SDE", OfferType: models.OfferTypeRegular, CTC: "18 LPA"}},
			{StudentID: "stu-2", FullName: "Ravi", Program: "B.Tech", Branch: "Civil", TotalApplications: 1},
		},
		Stats: dto.CohortStats{TotalStudents: 2, StudentsWithApplications: 2, StudentsWithSelections: 1, TotalApplications: 4, TotalSelections: 1, PlacementRate: 50},
	}
}

func TestExportServiceCSV(t *testing.T) {
	summaries := &stubCohortSummarizer{summary: sampleCohort()}
	svc := NewExportService(summaries, nil, nil, zap.NewNop())
	svc.now = fixedClock

	file, err := svc.ExportCohort(context.Background(), dto.CohortFilter{Branch: "CSE"}, "")
	require.NoError(t, err)
	assert.Equal(t, "placement-cohort-20260302-100000.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "CSE", summaries.filter.Branch)

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Student ID,Name"))
	assert.Contains(t, lines[1], "Acme")
	assert.Contains(t, lines[2], "stu-2,Ravi")
}

func TestExportServicePDF(t *testing.T) {
	svc := NewExportService(&stubCohortSummarizer{summary: sampleCohort()}, nil, nil, zap.NewNop())

	file, err := svc.ExportCohort(context.Background(), dto.CohortFilter{}, export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportServiceRejects(t *testing.T) {
	svc := NewExportService(&stubCohortSummarizer{summary: sampleCohort()}, nil, nil, zap.NewNop())
	_, err := svc.ExportCohort(context.Background(), dto.CohortFilter{}, "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	failing := NewExportService(&stubCohortSummarizer{err: appErrors.Clone(appErrors.ErrValidation, "bad filter")}, nil, nil, zap.NewNop())
	_, err = failing.ExportCohort(context.Background(), dto.CohortFilter{}, export.FormatCSV)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	broken := NewExportService(&stubCohortSummarizer{summary: sampleCohort()}, failingRenderer{}, nil, zap.NewNop())
	_, err = broken.ExportCohort(context.Background(), dto.CohortFilter{}, export.FormatCSV)
	assert.Equal(t, appErrors.ErrInternal.Code, errorCode(err))
}

func TestCohortDatasetTitle(t *testing.T) {
	data := cohortDataset(sampleCohort())
	assert.Equal(t, "Placement Cohort: 2 students, 1 placed (50%)", data.Title)
	assert.Equal(t, "", data.Rows[1]["Placed At"])
}

type failingRenderer struct{}

func (failingRenderer) Render(export.Dataset) ([]byte, error) { return nil, errors.New("boom") }
