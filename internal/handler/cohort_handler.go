package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/service"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/export"
	"github.com/noah-isme/placement-api/pkg/response"
)

type cohortService interface {
	SummarizeCohort(ctx context.Context, filter dto.CohortFilter) (*dto.CohortSummary, error)
}

type cohortExporter interface {
	ExportCohort(ctx context.Context, filter dto.CohortFilter, format export.Format) (*service.ExportFile, error)
}

// CohortHandler serves the placement-tracking dashboard.
type CohortHandler struct {
	summaries cohortService
	exports   cohortExporter
}

// NewCohortHandler constructs the handler.
func NewCohortHandler(summaries cohortService, exports cohortExporter) *CohortHandler {
	return &CohortHandler{summaries: summaries, exports: exports}
}

// Summary godoc
// @Summary Cohort placement summary
// @Tags Placements
// @Produce json
// @Param status query string false "applied or selected"
// @Param company query string false "Company substring"
// @Param position query string false "Position substring"
// @Param program query string false "Program substring"
// @Param branch query string false "Branch substring"
// @Success 200 {object} response.Envelope
// @Router /placements/cohort [get]
func (h *CohortHandler) Summary(c *gin.Context) {
	filter, ok := bindCohortFilter(c)
	if !ok {
		return
	}
	summary, err := h.summaries.SummarizeCohort(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export the cohort placement summary
// @Tags Placements
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /placements/cohort/export [get]
func (h *CohortHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	filter, ok := bindCohortFilter(c)
	if !ok {
		return
	}
	file, err := h.exports.ExportCohort(c.Request.Context(), filter, export.Format(c.DefaultQuery("format", string(export.FormatCSV))))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

func bindCohortFilter(c *gin.Context) (dto.CohortFilter, bool) {
	var filter dto.CohortFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter"))
		return filter, false
	}
	return filter, true
}
