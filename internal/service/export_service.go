package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/pkg/export"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

type cohortSummarizer interface {
	SummarizeCohort(ctx context.Context, filter dto.CohortFilter) (*dto.CohortSummary, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered report ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

var cohortHeaders = []string{
	"Student ID", "Name", "Roll Number", "Program", "Branch",
	"Applications", "Selections", "Placed At", "Position", "Offer Type", "CTC",
}

// ExportService renders the placement cohort as CSV or PDF.
type ExportService struct {
	summaries cohortSummarizer
	csv       datasetRenderer
	pdf       datasetRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the package defaults.
func NewExportService(summaries cohortSummarizer, csv, pdf datasetRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{summaries: summaries, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportCohort renders the filtered cohort in the requested format.
func (s *ExportService) ExportCohort(ctx context.Context, filter dto.CohortFilter, format export.Format) (*ExportFile, error) {
	var renderer datasetRenderer
	switch export.Format(strings.ToLower(string(format))) {
	case "", export.FormatCSV:
		format, renderer = export.FormatCSV, s.csv
	case export.FormatPDF:
		format, renderer = export.FormatPDF, s.pdf
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	summary, err := s.summaries.SummarizeCohort(ctx, filter)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(cohortDataset(summary))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render cohort export")
	}
	filename := fmt.Sprintf("placement-cohort-%s.%s", s.now().UTC().Format("20060102-150405"), format)
	s.logger.Info("cohort exported", zap.String("format", string(format)), zap.Int("rows", len(summary.Rows)))
	return &ExportFile{Filename: filename, ContentType: format.ContentType(), Content: content}, nil
}

func cohortDataset(summary *dto.CohortSummary) export.Dataset {
	rows := make([]map[string]string, 0, len(summary.Rows))
	for _, r := range summary.Rows {
		row := map[string]string{
			"Student ID":   r.StudentID,
			"Name":         r.FullName,
			"Roll Number":  r.RollNumber,
			"Program":      r.Program,
			"Branch":       r.Branch,
			"Applications": strconv.Itoa(r.TotalApplications),
			"Selections":   strconv.Itoa(r.Selections),
		}
		if p := r.FinalPlacement; p != nil {
			row["Placed At"] = p.Company
			row["Position"] = p.Position
			row["Offer Type"] = string(p.OfferType)
			row["CTC"] = p.CTC
		}
		rows = append(rows, row)
	}
	st := summary.Stats
	title := fmt.Sprintf("Placement Cohort: %d students, %d placed (%d%%)", st.TotalStudents, countPlaced(summary.Rows), st.PlacementRate)
	return export.Dataset{Title: title, Headers: cohortHeaders, Rows: rows}
}

func countPlaced(rows []dto.CohortRow) int {
	n := 0
	for _, r := range rows {
		if r.FinalPlacement != nil {
			n++
		}
	}
	return n
}
