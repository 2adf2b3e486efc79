package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/response"
)

type redFlagService interface {
	List(ctx context.Context, studentID string) ([]models.RedFlag, error)
	Create(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.RedFlagRequest) (*models.RedFlag, error)
	Update(ctx context.Context, actor *models.JWTClaims, studentID, id string, req dto.RedFlagRequest) error
	Delete(ctx context.Context, actor *models.JWTClaims, studentID, id string) error
}

// RedFlagHandler manages administrative red flags.
type RedFlagHandler struct {
	flags redFlagService
}

// NewRedFlagHandler constructs the handler.
func NewRedFlagHandler(flags redFlagService) *RedFlagHandler {
	return &RedFlagHandler{flags: flags}
}

// List godoc
// @Summary List red flags of a student
// @Tags RedFlags
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/red-flags [get]
func (h *RedFlagHandler) List(c *gin.Context) {
	flags, err := h.flags.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, flags, nil)
}

// Create godoc
// @Summary Add a red flag
// @Tags RedFlags
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.RedFlagRequest true "Reason"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/red-flags [post]
func (h *RedFlagHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.RedFlagRequest
	if !bindJSON(c, &req) {
		return
	}
	flag, err := h.flags.Create(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, flag)
}

// Update godoc
// @Summary Change the reason of a red flag
// @Tags RedFlags
// @Accept json
// @Param id path string true "Student ID"
// @Param flagId path string true "Red flag ID"
// @Param payload body dto.RedFlagRequest true "Reason"
// @Success 204
// @Router /students/{id}/red-flags/{flagId} [put]
func (h *RedFlagHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.RedFlagRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.flags.Update(c.Request.Context(), claims, c.Param("id"), c.Param("flagId"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Remove a red flag
// @Tags RedFlags
// @Param id path string true "Student ID"
// @Param flagId path string true "Red flag ID"
// @Success 204
// @Router /students/{id}/red-flags/{flagId} [delete]
func (h *RedFlagHandler) Delete(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.flags.Delete(c.Request.Context(), claims, c.Param("id"), c.Param("flagId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
