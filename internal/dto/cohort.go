package dto

import "github.com/noah-isme/placement-api/internal/models"

// Cohort status filters.
const (
	CohortStatusAll      = ""
	CohortStatusApplied  = "applied"
	CohortStatusSelected = "selected"
)

// CohortFilter narrows the placement-tracking cohort.
type CohortFilter struct {
	Status   string `form:"status" json:"status" validate:"omitempty,oneof=applied selected"`
	Company  string `form:"company" json:"company" validate:"max=200"`
	Position string `form:"position" json:"position" validate:"max=200"`
	Program  string `form:"program" json:"program" validate:"max=100"`
	Branch   string `form:"branch" json:"branch" validate:"max=200"`
}

// CohortRow is one student in the placement-tracking view.
type CohortRow struct {
	StudentID         string                 `json:"studentId"`
	FullName          string                 `json:"fullName"`
	RollNumber        string                 `json:"rollNumber"`
	Program           string                 `json:"program"`
	Branch            string                 `json:"branch"`
	TotalApplications int                    `json:"totalApplications"`
	Selections        int                    `json:"selections"`
	FinalPlacement    *models.FinalPlacement `json:"finalPlacement,omitempty"`
}

// CohortStats aggregates the returned rows.
type CohortStats struct {
	TotalStudents            int `json:"totalStudents"`
	StudentsWithApplications int `json:"studentsWithApplications"`
	StudentsWithSelections   int `json:"studentsWithSelections"`
	TotalApplications        int `json:"totalApplications"`
	TotalSelections          int `json:"totalSelections"`
	PlacementRate            int `json:"placementRate"`
}

// CohortSummary is the placement-tracking dashboard payload.
type CohortSummary struct {
	Rows  []CohortRow `json:"rows"`
	Stats CohortStats `json:"stats"`
}
