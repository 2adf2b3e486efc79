package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-api/internal/models"
)

const postingColumns = `id, kind, company, position, description, location, compensation, requirement, deadline,
       created_by, created_at, updated_at`

// PostingRepository persists job and internship postings.
type PostingRepository struct {
	db *sqlx.DB
}

// NewPostingRepository constructs the repository.
func NewPostingRepository(db *sqlx.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

// Create inserts a posting.
func (r *PostingRepository) Create(ctx context.Context, posting *models.Posting) error {
	if posting.ID == "" {
		posting.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if posting.CreatedAt.IsZero() {
		posting.CreatedAt = now
	}
	posting.UpdatedAt = now
	const query = `INSERT INTO postings (id, kind, company, position, description, location, compensation, requirement, deadline, created_by, created_at, updated_at)
        VALUES (:id, :kind, :company, :position, :description, :location, :compensation, :requirement, :deadline, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, posting); err != nil {
		return fmt.Errorf("create posting: %w", err)
	}
	return nil
}

// FindByID fetches a posting by ID.
func (r *PostingRepository) FindByID(ctx context.Context, id string) (*models.Posting, error) {
	query := fmt.Sprintf("SELECT %s FROM postings WHERE id = $1", postingColumns)
	var posting models.Posting
	if err := r.db.GetContext(ctx, &posting, query, id); err != nil {
		return nil, err
	}
	return &posting, nil
}

// List returns postings matching the filter, newest first, with the total count.
func (r *PostingRepository) List(ctx context.Context, filter models.PostingFilter) ([]models.Posting, int, error) {
	args := make([]interface{}, 0, 2)
	conditions := []string{"1=1"}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Company != "" {
		args = append(args, "%"+strings.ToLower(filter.Company)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(company) LIKE $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM postings WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d", postingColumns, where, limit, offset)
	var postings []models.Posting
	if err := r.db.SelectContext(ctx, &postings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list postings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM postings WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count postings: %w", err)
	}
	return postings, total, nil
}
