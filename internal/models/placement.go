package models

import "time"

// OfferType classifies a final placement.
type OfferType string

const (
	OfferTypeRegular OfferType = "Regular"
	OfferTypePPO     OfferType = "PPO"
	OfferTypeLateral OfferType = "Lateral"
)

// CompletionStatus tracks an internship's outcome.
type CompletionStatus string

const (
	CompletionCompleted    CompletionStatus = "Completed"
	CompletionOngoing      CompletionStatus = "Ongoing"
	CompletionDiscontinued CompletionStatus = "Discontinued"
)

// FinalPlacement is the confirmed job of a student, recorded by an operator.
// At most one exists per student.
type FinalPlacement struct {
	StudentID    string     `db:"student_id" json:"studentId"`
	Company      string     `db:"company" json:"company"`
	Position     string     `db:"position" json:"position"`
	CTC          string     `db:"ctc" json:"ctc,omitempty"`
	JoiningDate  *time.Time `db:"joining_date" json:"joiningDate,omitempty"`
	Location     string     `db:"location" json:"location,omitempty"`
	OfferType    OfferType  `db:"offer_type" json:"offerType"`
	PlacedAt     time.Time  `db:"placed_at" json:"placedAt"`
	IsCurrentJob bool       `db:"is_current_job" json:"isCurrentJob"`
	RecordedBy   string     `db:"recorded_by" json:"recordedBy"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// CompletedInternship is one internship outcome recorded for a student.
type CompletedInternship struct {
	ID                  string           `db:"id" json:"id"`
	StudentID           string           `db:"student_id" json:"studentId"`
	Company             string           `db:"company" json:"company"`
	Position            string           `db:"position" json:"position"`
	StartDate           *time.Time       `db:"start_date" json:"startDate,omitempty"`
	EndDate             *time.Time       `db:"end_date" json:"endDate,omitempty"`
	Duration            string           `db:"duration" json:"duration,omitempty"`
	Stipend             string           `db:"stipend" json:"stipend,omitempty"`
	CompletionStatus    CompletionStatus `db:"completion_status" json:"completionStatus"`
	PPOReceived         bool             `db:"ppo_received" json:"ppoReceived"`
	PPOCTC              string           `db:"ppo_ctc" json:"ppoCtc,omitempty"`
	PPOAccepted         bool             `db:"ppo_accepted" json:"ppoAccepted"`
	CertificateReceived bool             `db:"certificate_received" json:"certificateReceived"`
	PerformanceRating   *int             `db:"performance_rating" json:"performanceRating,omitempty"`
	Feedback            string           `db:"feedback" json:"feedback,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updatedAt"`
}
