package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/response"
)

type applicationService interface {
	Create(ctx context.Context, actor *models.JWTClaims, postingID string, req dto.CreateApplicationRequest, meta dto.SubmissionMeta) (*dto.ApplicationCreatedResponse, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Application, error)
	ListByPosting(ctx context.Context, postingID string, query dto.ApplicationQuery) ([]models.Application, *models.Pagination, error)
	ListByStudent(ctx context.Context, studentID string, query dto.ApplicationQuery) ([]models.Application, *models.Pagination, error)
	Transition(ctx context.Context, actor *models.JWTClaims, id string, req dto.TransitionStatusRequest) (*models.Application, error)
	Withdraw(ctx context.Context, actor *models.JWTClaims, id string, req dto.WithdrawApplicationRequest) (*models.Application, error)
}

type applicationSummarizer interface {
	SummarizeApplications(ctx context.Context, studentID string) (*dto.ApplicationSummary, error)
}

// ApplicationHandler exposes the application lifecycle.
type ApplicationHandler struct {
	applications applicationService
	summaries    applicationSummarizer
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(applications applicationService, summaries applicationSummarizer) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, summaries: summaries}
}

// Create godoc
// @Summary Apply to a posting
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Posting ID"
// @Param payload body dto.CreateApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /postings/{id}/applications [post]
func (h *ApplicationHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateApplicationRequest
	if !bindJSON(c, &req) {
		return
	}
	meta := dto.SubmissionMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	created, err := h.applications.Create(c.Request.Context(), claims, c.Param("id"), req, meta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// ListByPosting godoc
// @Summary List applications of a posting
// @Tags Applications
// @Produce json
// @Param id path string true "Posting ID"
// @Param status query []string false "Status filter" collectionFormat(multi)
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /postings/{id}/applications [get]
func (h *ApplicationHandler) ListByPosting(c *gin.Context) {
	apps, pagination, err := h.applications.ListByPosting(c.Request.Context(), c.Param("id"), applicationQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// ListByStudent godoc
// @Summary List applications of a student
// @Tags Applications
// @Produce json
// @Param id path string true "Student ID"
// @Param status query []string false "Status filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /students/{id}/applications [get]
func (h *ApplicationHandler) ListByStudent(c *gin.Context) {
	apps, pagination, err := h.applications.ListByStudent(c.Request.Context(), c.Param("id"), applicationQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// Summary godoc
// @Summary Application rollup of a student
// @Tags Applications
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/applications/summary [get]
func (h *ApplicationHandler) Summary(c *gin.Context) {
	summary, err := h.summaries.SummarizeApplications(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Get godoc
// @Summary Get application with status history
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	app, err := h.applications.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Transition godoc
// @Summary Change application status
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.TransitionStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/status [patch]
func (h *ApplicationHandler) Transition(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.TransitionStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.applications.Transition(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Withdraw godoc
// @Summary Withdraw an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.WithdrawApplicationRequest false "Withdrawal note"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/withdraw [post]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.WithdrawApplicationRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	app, err := h.applications.Withdraw(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

func applicationQuery(c *gin.Context) dto.ApplicationQuery {
	return dto.ApplicationQuery{
		Status:   queryStatuses(c),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
}
