package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/database"
)

// ApplicationStudentPostingKey is the unique constraint guarding one
// application per (student, posting).
const ApplicationStudentPostingKey = "applications_student_posting_key"

const applicationColumns = `a.id, a.posting_id, a.student_id, a.applied_at, a.current_status, a.cover_letter, a.additional_info,
       a.eligibility_acknowledged, a.attachments, a.submission_ip, a.submission_user_agent, a.version, a.updated_at`

const historyColumns = `id, application_id, seq, status, changed_at, actor_id, actor_role, note`

// ApplicationRepository persists applications and their append-only status history.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// CreateWithHistory inserts the application and its first history entry in
// one transaction. A duplicate (student, posting) surfaces as the driver's
// unique violation on ApplicationStudentPostingKey.
func (r *ApplicationRepository) CreateWithHistory(ctx context.Context, app *models.Application, entry *models.StatusHistoryEntry) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Version == 0 {
		app.Version = 1
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.ApplicationID = app.ID
	entry.Seq = 1

	const insertApplication = `INSERT INTO applications
	(id, posting_id, student_id, applied_at, current_status, cover_letter, additional_info, eligibility_acknowledged,
	 attachments, submission_ip, submission_user_agent, version, updated_at)
	VALUES (:id, :posting_id, :student_id, :applied_at, :current_status, :cover_letter, :additional_info, :eligibility_acknowledged,
	 :attachments, :submission_ip, :submission_user_agent, :version, :updated_at)`
	const insertHistory = `INSERT INTO application_status_history
	(id, application_id, seq, status, changed_at, actor_id, actor_role, note)
	VALUES (:id, :application_id, :seq, :status, :changed_at, :actor_id, :actor_role, :note)`

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertApplication, app); err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		if _, err := tx.NamedExecContext(ctx, insertHistory, entry); err != nil {
			return fmt.Errorf("create application history: %w", err)
		}
		return nil
	})
}

// UpdateStatusParams groups the columns changed by a status transition.
type UpdateStatusParams struct {
	ID              string
	Status          models.ApplicationStatus
	ExpectedVersion int
	ChangedAt       time.Time
	Entry           *models.StatusHistoryEntry
}

// UpdateStatus moves the application to a new status when its version still
// matches and appends the history entry in the same transaction. It returns
// sql.ErrNoRows when the version guard rejects the update.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams) (int, error) {
	if params.Entry == nil {
		return 0, fmt.Errorf("update application status: history entry required")
	}
	entry := params.Entry
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.ApplicationID = params.ID

	const updateQuery = `UPDATE applications SET current_status = $1, version = version + 1, updated_at = $2
	WHERE id = $3 AND version = $4 RETURNING version`
	const historyQuery = `INSERT INTO application_status_history
	(id, application_id, seq, status, changed_at, actor_id, actor_role, note)
	SELECT $1::text, $2::text, COALESCE(MAX(seq), 0) + 1, $3::text, $4::timestamptz, $5::text, $6::text, $7::text
	FROM application_status_history WHERE application_id = $2::text
	RETURNING seq`

	var version int
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, updateQuery, params.Status, params.ChangedAt, params.ID, params.ExpectedVersion).Scan(&version); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("update application status: %w", err)
		}
		if err := tx.QueryRowxContext(ctx, historyQuery,
			entry.ID, entry.ApplicationID, entry.Status, entry.ChangedAt, entry.ActorID, entry.ActorRole, entry.Note,
		).Scan(&entry.Seq); err != nil {
			return fmt.Errorf("append application history: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// FindByID fetches an application without its history.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf("SELECT %s FROM applications a WHERE a.id = $1", applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// History returns the status history of an application in append order.
func (r *ApplicationRepository) History(ctx context.Context, applicationID string) ([]models.StatusHistoryEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM application_status_history WHERE application_id = $1 ORDER BY seq ASC", historyColumns)
	var entries []models.StatusHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, applicationID); err != nil {
		return nil, fmt.Errorf("list application history: %w", err)
	}
	return entries, nil
}

// List returns applications matching the filter with the total count.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	args := make([]interface{}, 0, 3)
	conditions := []string{"1=1"}
	if filter.PostingID != "" {
		args = append(args, filter.PostingID)
		conditions = append(conditions, fmt.Sprintf("a.posting_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			statuses[i] = string(status)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("a.current_status = ANY($%d)", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM applications a WHERE %s ORDER BY a.applied_at DESC LIMIT %d OFFSET %d", applicationColumns, where, limit, offset)
	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM applications a WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return apps, total, nil
}

// ListWithPostingByStudents returns every application of the given students
// joined with posting display fields, most recent first.
func (r *ApplicationRepository) ListWithPostingByStudents(ctx context.Context, studentIDs []string) ([]models.ApplicationWithPosting, error) {
	if len(studentIDs) == 0 {
		return []models.ApplicationWithPosting{}, nil
	}
	query := fmt.Sprintf(`SELECT %s, p.company, p.position, p.kind
	FROM applications a JOIN postings p ON p.id = a.posting_id
	WHERE a.student_id = ANY($1)
	ORDER BY a.applied_at DESC, a.id ASC`, applicationColumns)
	var apps []models.ApplicationWithPosting
	if err := r.db.SelectContext(ctx, &apps, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list applications with posting: %w", err)
	}
	return apps, nil
}
