package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-api/internal/models"
)

func TestPlacementRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO final_placements")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.FinalPlacement{
		StudentID: "stu-1",
		Company:   "Acme",
		Position:  "SDE",
		OfferType: models.OfferTypeRegular,
		PlacedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryListByStudents(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"student_id", "company", "position", "ctc", "joining_date", "location", "offer_type", "placed_at", "is_current_job", "recorded_by", "updated_at"}).
		AddRow("stu-1", "Acme", "SDE", "12 LPA", nil, "Pune", "PPO", now, true, "spc-1", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM final_placements WHERE student_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	placements, err := repo.ListByStudents(context.Background(), []string{"stu-1", "stu-2"})
	require.NoError(t, err)
	require.Len(t, placements, 1)
	assert.Equal(t, models.OfferTypePPO, placements[0].OfferType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM final_placements WHERE student_id = $1")).
		WithArgs("stu-9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "stu-9"), sql.ErrNoRows)
}
