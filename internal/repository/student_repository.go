package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-api/internal/models"
)

const studentColumns = `id, full_name, email, roll_number, program, branch, year, passing_year, cgpa, active_backlogs,
       available_for_placement, availability_updated_at, profile_complete, created_at, updated_at`

// StudentRepository reads student standing and updates availability.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters ordered by name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentProfile, error) {
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}

	if filter.Program != "" {
		args = append(args, "%"+strings.ToLower(filter.Program)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(program) LIKE $%d", len(args)))
	}
	if filter.Branch != "" {
		args = append(args, "%"+strings.ToLower(filter.Branch)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(branch) LIKE $%d", len(args)))
	}
	if filter.ProfileComplete != nil {
		args = append(args, *filter.ProfileComplete)
		conditions = append(conditions, fmt.Sprintf("profile_complete = $%d", len(args)))
	}
	if filter.Available != nil {
		args = append(args, *filter.Available)
		conditions = append(conditions, fmt.Sprintf("available_for_placement = $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY full_name ASC, id ASC", studentColumns, strings.Join(conditions, " AND "))
	var students []models.StudentProfile
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.StudentProfile
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateAvailability sets the placement availability flag and its timestamp.
func (r *StudentRepository) UpdateAvailability(ctx context.Context, id string, available bool, at time.Time) error {
	const query = `UPDATE students SET available_for_placement = $2, availability_updated_at = $3, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, available, at)
	if err != nil {
		return fmt.Errorf("update student availability: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check availability update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
