package models

import "time"

// YearAlumni marks students who already graduated.
const YearAlumni = "Alumni"

// ValidYears enumerates accepted year-of-study values.
var ValidYears = []string{"1", "2", "3", "4", "5", YearAlumni}

// StudentProfile is the academic standing read by the eligibility evaluator.
type StudentProfile struct {
	ID                    string     `db:"id" json:"id"`
	FullName              string     `db:"full_name" json:"fullName"`
	Email                 string     `db:"email" json:"email"`
	RollNumber            string     `db:"roll_number" json:"rollNumber"`
	Program               string     `db:"program" json:"program"`
	Branch                string     `db:"branch" json:"branch"`
	Year                  string     `db:"year" json:"year"`
	PassingYear           *int       `db:"passing_year" json:"passingYear,omitempty"`
	CGPA                  float64    `db:"cgpa" json:"cgpa"`
	ActiveBacklogs        int        `db:"active_backlogs" json:"activeBacklogs"`
	AvailableForPlacement bool       `db:"available_for_placement" json:"availableForPlacement"`
	AvailabilityUpdatedAt *time.Time `db:"availability_updated_at" json:"availabilityUpdatedAt,omitempty"`
	ProfileComplete       bool       `db:"profile_complete" json:"profileComplete"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updatedAt"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Program         string
	Branch          string
	ProfileComplete *bool
	Available       *bool
}
