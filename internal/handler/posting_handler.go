package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/response"
)

type postingService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreatePostingRequest) (*models.Posting, error)
	Get(ctx context.Context, id string) (*models.Posting, error)
	List(ctx context.Context, query dto.PostingQuery) ([]models.Posting, *models.Pagination, error)
}

// PostingHandler exposes job and internship postings.
type PostingHandler struct {
	postings postingService
}

// NewPostingHandler constructs the handler.
func NewPostingHandler(postings postingService) *PostingHandler {
	return &PostingHandler{postings: postings}
}

// List godoc
// @Summary List postings
// @Tags Postings
// @Produce json
// @Param kind query string false "job or internship"
// @Param company query string false "Company name"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /postings [get]
func (h *PostingHandler) List(c *gin.Context) {
	query := dto.PostingQuery{
		Kind:     models.PostingKind(strings.ToLower(strings.TrimSpace(c.Query("kind")))),
		Company:  c.Query("company"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
	postings, pagination, err := h.postings.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, postings, pagination)
}

// Create godoc
// @Summary Create posting
// @Tags Postings
// @Accept json
// @Produce json
// @Param payload body dto.CreatePostingRequest true "Posting payload"
// @Success 201 {object} response.Envelope
// @Router /postings [post]
func (h *PostingHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreatePostingRequest
	if !bindJSON(c, &req) {
		return
	}
	posting, err := h.postings.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, posting)
}

// Get godoc
// @Summary Get posting
// @Tags Postings
// @Produce json
// @Param id path string true "Posting ID"
// @Success 200 {object} response.Envelope
// @Router /postings/{id} [get]
func (h *PostingHandler) Get(c *gin.Context) {
	posting, err := h.postings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posting, nil)
}
