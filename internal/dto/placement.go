package dto

import (
	"time"

	"github.com/noah-isme/placement-api/internal/models"
)

// RecordFinalPlacementRequest upserts a student's final placement.
type RecordFinalPlacementRequest struct {
	Company      string           `json:"company" validate:"required,max=200"`
	Position     string           `json:"position" validate:"required,max=200"`
	CTC          string           `json:"ctc" validate:"max=100"`
	JoiningDate  *time.Time       `json:"joiningDate"`
	Location     string           `json:"location" validate:"max=200"`
	OfferType    models.OfferType `json:"offerType" validate:"required,offer_type"`
	PlacedAt     *time.Time       `json:"placedAt"`
	IsCurrentJob bool             `json:"isCurrentJob"`
}

// CompletedInternshipRequest records or updates one internship outcome.
type CompletedInternshipRequest struct {
	Company             string                  `json:"company" validate:"required,max=200"`
	Position            string                  `json:"position" validate:"required,max=200"`
	StartDate           *time.Time              `json:"startDate"`
	EndDate             *time.Time              `json:"endDate"`
	Duration            string                  `json:"duration" validate:"max=100"`
	Stipend             string                  `json:"stipend" validate:"max=100"`
	CompletionStatus    models.CompletionStatus `json:"completionStatus" validate:"required,completion_status"`
	PPOReceived         bool                    `json:"ppoReceived"`
	PPOCTC              string                  `json:"ppoCtc" validate:"max=100"`
	PPOAccepted         bool                    `json:"ppoAccepted"`
	CertificateReceived bool                    `json:"certificateReceived"`
	PerformanceRating   *int                    `json:"performanceRating" validate:"omitempty,min=1,max=5"`
	Feedback            string                  `json:"feedback" validate:"max=5000"`
}

// StudentPlacementRecord is the placement view of one student.
type StudentPlacementRecord struct {
	StudentID      string                       `json:"studentId"`
	FinalPlacement *models.FinalPlacement       `json:"finalPlacement"`
	Internships    []models.CompletedInternship `json:"internships"`
}
