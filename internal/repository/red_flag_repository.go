package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/database"
)

const redFlagColumns = `id, student_id, reason, assigned_by, assigned_by_id, created_at, updated_at`

// RedFlagRepository persists administrative red flags.
type RedFlagRepository struct {
	db *sqlx.DB
}

// NewRedFlagRepository constructs the repository.
func NewRedFlagRepository(db *sqlx.DB) *RedFlagRepository {
	return &RedFlagRepository{db: db}
}

// ListByStudent returns the student's red flags, newest first. Rows that
// still lack an id are skipped until the backfill has run.
func (r *RedFlagRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RedFlag, error) {
	query := fmt.Sprintf("SELECT %s FROM red_flags WHERE student_id = $1 AND id IS NOT NULL ORDER BY created_at DESC", redFlagColumns)
	var flags []models.RedFlag
	if err := r.db.SelectContext(ctx, &flags, query, studentID); err != nil {
		return nil, fmt.Errorf("list red flags: %w", err)
	}
	return flags, nil
}

// Create inserts a red flag with a generated id.
func (r *RedFlagRepository) Create(ctx context.Context, flag *models.RedFlag) error {
	if flag.ID == "" {
		flag.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = now
	}
	flag.UpdatedAt = now
	const query = `INSERT INTO red_flags (id, student_id, reason, assigned_by, assigned_by_id, created_at, updated_at)
        VALUES (:id, :student_id, :reason, :assigned_by, :assigned_by_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, flag); err != nil {
		return fmt.Errorf("create red flag: %w", err)
	}
	return nil
}

// UpdateReason changes the reason of a red flag owned by the student.
func (r *RedFlagRepository) UpdateReason(ctx context.Context, studentID, id, reason string, at time.Time) error {
	const query = `UPDATE red_flags SET reason = $3, updated_at = $4 WHERE id = $1 AND student_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, studentID, reason, at)
	if err != nil {
		return fmt.Errorf("update red flag: %w", err)
	}
	return expectAffected(result, "red flag update")
}

// Delete removes a red flag owned by the student.
func (r *RedFlagRepository) Delete(ctx context.Context, studentID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM red_flags WHERE id = $1 AND student_id = $2", id, studentID)
	if err != nil {
		return fmt.Errorf("delete red flag: %w", err)
	}
	return expectAffected(result, "red flag delete")
}

// CountMissingIDs reports how many imported rows still lack an id.
func (r *RedFlagRepository) CountMissingIDs(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM red_flags WHERE id IS NULL"); err != nil {
		return 0, fmt.Errorf("count red flags without id: %w", err)
	}
	return count, nil
}

// BackfillIDs assigns a generated id to every row that lacks one, in a single
// transaction, and returns the number of rows updated.
func (r *RedFlagRepository) BackfillIDs(ctx context.Context) (int, error) {
	assigned := 0
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var refs []string
		if err := tx.SelectContext(ctx, &refs, "SELECT ctid::text FROM red_flags WHERE id IS NULL FOR UPDATE"); err != nil {
			return fmt.Errorf("select red flags without id: %w", err)
		}
		for _, ref := range refs {
			result, err := tx.ExecContext(ctx, "UPDATE red_flags SET id = $1 WHERE ctid = $2::tid AND id IS NULL", uuid.NewString(), ref)
			if err != nil {
				return fmt.Errorf("assign red flag id: %w", err)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("check red flag backfill rows: %w", err)
			}
			assigned += int(rows)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return assigned, nil
}

func expectAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
