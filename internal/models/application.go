package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ApplicationStatus values are part of the reporting contract and must stay verbatim.
type ApplicationStatus string

const (
	ApplicationStatusApplied            ApplicationStatus = "Applied"
	ApplicationStatusReviewed           ApplicationStatus = "Reviewed"
	ApplicationStatusInterviewScheduled ApplicationStatus = "Interview Scheduled"
	ApplicationStatusSelected           ApplicationStatus = "Selected"
	ApplicationStatusRejected           ApplicationStatus = "Rejected"
	ApplicationStatusWithdrawn          ApplicationStatus = "Withdrawn"
)

// ApplicationStatuses lists every accepted status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusApplied,
	ApplicationStatusReviewed,
	ApplicationStatusInterviewScheduled,
	ApplicationStatusSelected,
	ApplicationStatusRejected,
	ApplicationStatusWithdrawn,
}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is accepted.
func (s ApplicationStatus) Terminal() bool {
	switch s {
	case ApplicationStatusSelected, ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	default:
		return false
	}
}

// ActorRoleStudent is recorded on the history entry written at submission.
const ActorRoleStudent = "Student"

// Attachment references an uploaded file; the bytes live in file storage.
type Attachment struct {
	FileName   string    `json:"fileName" validate:"required,max=255"`
	FileURL    string    `json:"fileUrl" validate:"required,max=2048"`
	FileType   string    `json:"fileType" validate:"required,max=127"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Attachments is stored as a JSONB array.
type Attachments []Attachment

// Value implements driver.Valuer.
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Attachments) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported attachments type %T", src)
	}
}

// StatusHistoryEntry is one append-only record of a status change.
type StatusHistoryEntry struct {
	ID            string            `db:"id" json:"id"`
	ApplicationID string            `db:"application_id" json:"-"`
	Seq           int               `db:"seq" json:"seq"`
	Status        ApplicationStatus `db:"status" json:"status"`
	ChangedAt     time.Time         `db:"changed_at" json:"changedAt"`
	ActorID       string            `db:"actor_id" json:"actorId"`
	ActorRole     string            `db:"actor_role" json:"actorRole"`
	Note          *string           `db:"note" json:"note,omitempty"`
}

// Application is one student's submission against one posting.
type Application struct {
	ID                      string            `db:"id" json:"id"`
	PostingID               string            `db:"posting_id" json:"postingId"`
	StudentID               string            `db:"student_id" json:"studentId"`
	AppliedAt               time.Time         `db:"applied_at" json:"appliedAt"`
	CurrentStatus           ApplicationStatus `db:"current_status" json:"currentStatus"`
	CoverLetter             string            `db:"cover_letter" json:"coverLetter,omitempty"`
	AdditionalInfo          string            `db:"additional_info" json:"additionalInfo,omitempty"`
	EligibilityAcknowledged bool              `db:"eligibility_acknowledged" json:"eligibilityAcknowledged"`
	Attachments             Attachments       `db:"attachments" json:"attachments"`
	SubmissionIP            string            `db:"submission_ip" json:"submissionIp,omitempty"`
	SubmissionUserAgent     string            `db:"submission_user_agent" json:"submissionUserAgent,omitempty"`
	Version                 int               `db:"version" json:"version"`
	UpdatedAt               time.Time         `db:"updated_at" json:"updatedAt"`

	StatusHistory []StatusHistoryEntry `db:"-" json:"statusHistory,omitempty"`
}

// ApplicationWithPosting joins an application with posting display fields.
type ApplicationWithPosting struct {
	Application
	Company  string      `db:"company" json:"company"`
	Position string      `db:"position" json:"position"`
	Kind     PostingKind `db:"kind" json:"kind"`
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	PostingID string
	StudentID string
	Status    []ApplicationStatus
	Limit     int
	Offset    int
}
