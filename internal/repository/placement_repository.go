package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/placement-api/internal/models"
)

const finalPlacementColumns = `student_id, company, position, ctc, joining_date, location, offer_type, placed_at,
       is_current_job, recorded_by, updated_at`

// PlacementRepository persists final placements, at most one per student.
type PlacementRepository struct {
	db *sqlx.DB
}

// NewPlacementRepository constructs the repository.
func NewPlacementRepository(db *sqlx.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

// Upsert records or replaces the student's final placement.
func (r *PlacementRepository) Upsert(ctx context.Context, placement *models.FinalPlacement) error {
	const query = `INSERT INTO final_placements (student_id, company, position, ctc, joining_date, location, offer_type, placed_at, is_current_job, recorded_by, updated_at)
        VALUES (:student_id, :company, :position, :ctc, :joining_date, :location, :offer_type, :placed_at, :is_current_job, :recorded_by, :updated_at)
        ON CONFLICT (student_id) DO UPDATE SET
            company = EXCLUDED.company,
            position = EXCLUDED.position,
            ctc = EXCLUDED.ctc,
            joining_date = EXCLUDED.joining_date,
            location = EXCLUDED.location,
            offer_type = EXCLUDED.offer_type,
            placed_at = EXCLUDED.placed_at,
            is_current_job = EXCLUDED.is_current_job,
            recorded_by = EXCLUDED.recorded_by,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, placement); err != nil {
		return fmt.Errorf("upsert final placement: %w", err)
	}
	return nil
}

// FindByStudent returns the student's final placement.
func (r *PlacementRepository) FindByStudent(ctx context.Context, studentID string) (*models.FinalPlacement, error) {
	query := fmt.Sprintf("SELECT %s FROM final_placements WHERE student_id = $1", finalPlacementColumns)
	var placement models.FinalPlacement
	if err := r.db.GetContext(ctx, &placement, query, studentID); err != nil {
		return nil, err
	}
	return &placement, nil
}

// ListByStudents returns the final placements of the given students.
func (r *PlacementRepository) ListByStudents(ctx context.Context, studentIDs []string) ([]models.FinalPlacement, error) {
	if len(studentIDs) == 0 {
		return []models.FinalPlacement{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM final_placements WHERE student_id = ANY($1)", finalPlacementColumns)
	var placements []models.FinalPlacement
	if err := r.db.SelectContext(ctx, &placements, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list final placements: %w", err)
	}
	return placements, nil
}

// Delete removes the student's final placement.
func (r *PlacementRepository) Delete(ctx context.Context, studentID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM final_placements WHERE student_id = $1", studentID)
	if err != nil {
		return fmt.Errorf("delete final placement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check final placement delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
