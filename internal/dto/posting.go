package dto

import (
	"time"

	"github.com/noah-isme/placement-api/internal/models"
)

// CreatePostingRequest is submitted by recruiters and coordinators. The
// requirement document is additionally checked against the posting schema.
type CreatePostingRequest struct {
	Kind         models.PostingKind        `json:"kind" validate:"required,posting_kind"`
	Company      string                    `json:"company" validate:"required,max=200"`
	Position     string                    `json:"position" validate:"required,max=200"`
	Description  string                    `json:"description" validate:"max=20000"`
	Location     string                    `json:"location" validate:"max=200"`
	Compensation string                    `json:"compensation" validate:"max=200"`
	Requirement  models.PostingRequirement `json:"requirement"`
	Deadline     *time.Time                `json:"deadline"`
}

// PostingQuery mirrors listing filters accepted over HTTP.
type PostingQuery struct {
	Kind     models.PostingKind
	Company  string
	Page     int
	PageSize int
}

// EligibleStudent pairs a student with their verdict for a posting.
type EligibleStudent struct {
	Student     models.StudentProfile `json:"student"`
	HasWarnings bool                  `json:"hasWarnings"`
}
