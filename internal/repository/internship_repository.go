package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-api/internal/models"
)

const internshipColumns = `id, student_id, company, position, start_date, end_date, duration, stipend, completion_status,
       ppo_received, ppo_ctc, ppo_accepted, certificate_received, performance_rating, feedback, created_at, updated_at`

// InternshipRepository persists completed internships.
type InternshipRepository struct {
	db *sqlx.DB
}

// NewInternshipRepository constructs the repository.
func NewInternshipRepository(db *sqlx.DB) *InternshipRepository {
	return &InternshipRepository{db: db}
}

// Create appends an internship outcome to a student's record.
func (r *InternshipRepository) Create(ctx context.Context, internship *models.CompletedInternship) error {
	if internship.ID == "" {
		internship.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if internship.CreatedAt.IsZero() {
		internship.CreatedAt = now
	}
	internship.UpdatedAt = now
	const query = `INSERT INTO completed_internships
        (id, student_id, company, position, start_date, end_date, duration, stipend, completion_status, ppo_received, ppo_ctc,
         ppo_accepted, certificate_received, performance_rating, feedback, created_at, updated_at)
        VALUES (:id, :student_id, :company, :position, :start_date, :end_date, :duration, :stipend, :completion_status, :ppo_received, :ppo_ctc,
         :ppo_accepted, :certificate_received, :performance_rating, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, internship); err != nil {
		return fmt.Errorf("create completed internship: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an internship owned by the student.
func (r *InternshipRepository) Update(ctx context.Context, internship *models.CompletedInternship) error {
	internship.UpdatedAt = time.Now().UTC()
	const query = `UPDATE completed_internships SET company = :company, position = :position, start_date = :start_date,
        end_date = :end_date, duration = :duration, stipend = :stipend, completion_status = :completion_status,
        ppo_received = :ppo_received, ppo_ctc = :ppo_ctc, ppo_accepted = :ppo_accepted,
        certificate_received = :certificate_received, performance_rating = :performance_rating, feedback = :feedback,
        updated_at = :updated_at
        WHERE id = :id AND student_id = :student_id`
	result, err := r.db.NamedExecContext(ctx, query, internship)
	if err != nil {
		return fmt.Errorf("update completed internship: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check internship update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID fetches an internship owned by the student.
func (r *InternshipRepository) FindByID(ctx context.Context, studentID, id string) (*models.CompletedInternship, error) {
	query := fmt.Sprintf("SELECT %s FROM completed_internships WHERE id = $1 AND student_id = $2", internshipColumns)
	var internship models.CompletedInternship
	if err := r.db.GetContext(ctx, &internship, query, id, studentID); err != nil {
		return nil, err
	}
	return &internship, nil
}

// ListByStudent returns a student's internships, oldest first.
func (r *InternshipRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CompletedInternship, error) {
	query := fmt.Sprintf("SELECT %s FROM completed_internships WHERE student_id = $1 ORDER BY created_at ASC, id ASC", internshipColumns)
	var internships []models.CompletedInternship
	if err := r.db.SelectContext(ctx, &internships, query, studentID); err != nil {
		return nil, fmt.Errorf("list completed internships: %w", err)
	}
	return internships, nil
}

// Delete removes an internship owned by the student.
func (r *InternshipRepository) Delete(ctx context.Context, studentID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM completed_internships WHERE id = $1 AND student_id = $2", id, studentID)
	if err != nil {
		return fmt.Errorf("delete completed internship: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check internship delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
