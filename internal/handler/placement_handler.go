package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/response"
)

type placementService interface {
	GetRecord(ctx context.Context, studentID string) (*dto.StudentPlacementRecord, error)
	RecordFinalPlacement(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.RecordFinalPlacementRequest) (*models.FinalPlacement, error)
	RemoveFinalPlacement(ctx context.Context, actor *models.JWTClaims, studentID string) error
	RecordCompletedInternship(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.CompletedInternshipRequest) (*models.CompletedInternship, error)
	UpdateCompletedInternship(ctx context.Context, actor *models.JWTClaims, studentID, id string, req dto.CompletedInternshipRequest) (*models.CompletedInternship, error)
	RemoveCompletedInternship(ctx context.Context, actor *models.JWTClaims, studentID, id string) error
}

// PlacementHandler records final placements and completed internships.
type PlacementHandler struct {
	placements placementService
}

// NewPlacementHandler constructs the handler.
func NewPlacementHandler(placements placementService) *PlacementHandler {
	return &PlacementHandler{placements: placements}
}

// Get godoc
// @Summary Placement record of a student
// @Tags Placements
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/placement [get]
func (h *PlacementHandler) Get(c *gin.Context) {
	record, err := h.placements.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// RecordFinal godoc
// @Summary Record or replace the final placement
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.RecordFinalPlacementRequest true "Placement"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/placement [put]
func (h *PlacementHandler) RecordFinal(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.RecordFinalPlacementRequest
	if !bindJSON(c, &req) {
		return
	}
	placement, err := h.placements.RecordFinalPlacement(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placement, nil)
}

// RemoveFinal godoc
// @Summary Remove the final placement
// @Tags Placements
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id}/placement [delete]
func (h *PlacementHandler) RemoveFinal(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.placements.RemoveFinalPlacement(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordInternship godoc
// @Summary Record a completed internship
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.CompletedInternshipRequest true "Internship"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/internships [post]
func (h *PlacementHandler) RecordInternship(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CompletedInternshipRequest
	if !bindJSON(c, &req) {
		return
	}
	internship, err := h.placements.RecordCompletedInternship(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, internship)
}

// UpdateInternship godoc
// @Summary Update a completed internship
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param internshipId path string true "Internship ID"
// @Param payload body dto.CompletedInternshipRequest true "Internship"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/internships/{internshipId} [put]
func (h *PlacementHandler) UpdateInternship(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CompletedInternshipRequest
	if !bindJSON(c, &req) {
		return
	}
	internship, err := h.placements.UpdateCompletedInternship(c.Request.Context(), claims, c.Param("id"), c.Param("internshipId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// RemoveInternship godoc
// @Summary Remove a completed internship
// @Tags Placements
// @Param id path string true "Student ID"
// @Param internshipId path string true "Internship ID"
// @Success 204
// @Router /students/{id}/internships/{internshipId} [delete]
func (h *PlacementHandler) RemoveInternship(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.placements.RemoveCompletedInternship(c.Request.Context(), claims, c.Param("id"), c.Param("internshipId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
