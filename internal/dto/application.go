package dto

import (
	"github.com/noah-isme/placement-api/internal/eligibility"
	"github.com/noah-isme/placement-api/internal/models"
)

// CreateApplicationRequest is submitted by a student applying to a posting.
type CreateApplicationRequest struct {
	CoverLetter             string              `json:"coverLetter" validate:"max=10000"`
	AdditionalInfo          string              `json:"additionalInfo" validate:"max=5000"`
	EligibilityAcknowledged bool                `json:"eligibilityAcknowledged"`
	Attachments             []models.Attachment `json:"attachments" validate:"max=5,dive"`
}

// SubmissionMeta carries request origin details recorded on the application.
type SubmissionMeta struct {
	IP        string
	UserAgent string
}

// TransitionStatusRequest moves an application to another status.
type TransitionStatusRequest struct {
	Status          models.ApplicationStatus `json:"status" validate:"required,app_status"`
	Note            string                   `json:"note" validate:"max=2000"`
	ExpectedVersion *int                     `json:"expectedVersion" validate:"omitempty,min=1"`
}

// WithdrawApplicationRequest withdraws a non-terminal application.
type WithdrawApplicationRequest struct {
	Note            string `json:"note" validate:"max=2000"`
	ExpectedVersion *int   `json:"expectedVersion" validate:"omitempty,min=1"`
}

// ApplicationCreatedResponse returns the stored application with the verdict
// computed at submission time.
type ApplicationCreatedResponse struct {
	Application *models.Application `json:"application"`
	Eligibility eligibility.Verdict `json:"eligibility"`
}

// ApplicationQuery mirrors listing filters accepted over HTTP.
type ApplicationQuery struct {
	Status   []models.ApplicationStatus
	Page     int
	PageSize int
}

// ApplicationSummary is the per-student rollup of applications.
type ApplicationSummary struct {
	StudentID string                           `json:"studentId"`
	Total     int                              `json:"total"`
	ByStatus  map[models.ApplicationStatus]int `json:"byStatus"`
	Recent    []models.ApplicationWithPosting  `json:"recent"`
}
