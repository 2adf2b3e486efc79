package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/eligibility"
	"github.com/noah-isme/placement-api/pkg/response"
)

type eligibilityService interface {
	Evaluate(ctx context.Context, postingID, studentID string) (*eligibility.Verdict, error)
	ListEligibleStudents(ctx context.Context, postingID string, includeWarnings bool) ([]dto.EligibleStudent, error)
}

// EligibilityHandler serves eligibility verdicts.
type EligibilityHandler struct {
	eligibility eligibilityService
}

// NewEligibilityHandler constructs the handler.
func NewEligibilityHandler(svc eligibilityService) *EligibilityHandler {
	return &EligibilityHandler{eligibility: svc}
}

// Mine godoc
// @Summary Evaluate the calling student against a posting
// @Tags Eligibility
// @Produce json
// @Param id path string true "Posting ID"
// @Success 200 {object} response.Envelope
// @Router /postings/{id}/eligibility [get]
func (h *EligibilityHandler) Mine(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	h.evaluate(c, claims.UserID)
}

// Student godoc
// @Summary Evaluate a student against a posting
// @Tags Eligibility
// @Produce json
// @Param id path string true "Posting ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /postings/{id}/eligibility/{studentId} [get]
func (h *EligibilityHandler) Student(c *gin.Context) {
	h.evaluate(c, c.Param("studentId"))
}

func (h *EligibilityHandler) evaluate(c *gin.Context, studentID string) {
	verdict, err := h.eligibility.Evaluate(c.Request.Context(), c.Param("id"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict, nil)
}

// EligibleStudents godoc
// @Summary List students eligible for a posting
// @Tags Eligibility
// @Produce json
// @Param id path string true "Posting ID"
// @Param includeWarnings query bool false "Include students with warnings"
// @Success 200 {object} response.Envelope
// @Router /postings/{id}/eligible-students [get]
func (h *EligibilityHandler) EligibleStudents(c *gin.Context) {
	students, err := h.eligibility.ListEligibleStudents(c.Request.Context(), c.Param("id"), queryBool(c, "includeWarnings"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil, map[string]interface{}{"count": len(students)})
}
