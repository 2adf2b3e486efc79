package models

import "time"

// RedFlag is an administrative note on a student's standing. It does not
// affect eligibility.
type RedFlag struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"studentId"`
	Reason       string    `db:"reason" json:"reason"`
	AssignedBy   string    `db:"assigned_by" json:"assignedBy"`
	AssignedByID string    `db:"assigned_by_id" json:"assignedById"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
