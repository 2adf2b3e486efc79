package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/database"
)

func newApplication(now time.Time) *models.Application {
	return &models.Application{
		PostingID:               "post-1",
		StudentID:               "stu-1",
		AppliedAt:               now,
		CurrentStatus:           models.ApplicationStatusApplied,
		EligibilityAcknowledged: true,
		UpdatedAt:               now,
	}
}

func TestApplicationRepositoryCreateWithHistory(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	app := newApplication(now)
	entry := &models.StatusHistoryEntry{Status: models.ApplicationStatusApplied, ChangedAt: now, ActorID: "stu-1", ActorRole: models.ActorRoleStudent}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO applications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO application_status_history").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithHistory(context.Background(), app, entry))
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, 1, app.Version)
	assert.Equal(t, app.ID, entry.ApplicationID)
	assert.Equal(t, 1, entry.Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCreateDuplicateRollsBack(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(&pq.Error{Code: "23505", Constraint: ApplicationStudentPostingKey})
	mock.ExpectRollback()

	err := repo.CreateWithHistory(context.Background(), newApplication(now), &models.StatusHistoryEntry{Status: models.ApplicationStatusApplied, ChangedAt: now})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err, ApplicationStudentPostingKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	note := "panel on Monday"
	entry := &models.StatusHistoryEntry{Status: models.ApplicationStatusInterviewScheduled, ChangedAt: now, ActorID: "spc-1", ActorRole: "SPC", Note: &note}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE applications SET current_status = $1, version = version + 1")).
		WithArgs(models.ApplicationStatusInterviewScheduled, now, "app-1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO application_status_history")).
		WithArgs(sqlmock.AnyArg(), "app-1", models.ApplicationStatusInterviewScheduled, now, "spc-1", "SPC", &note).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(2))
	mock.ExpectCommit()

	version, err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:              "app-1",
		Status:          models.ApplicationStatusInterviewScheduled,
		ExpectedVersion: 2,
		ChangedAt:       now,
		Entry:           entry,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, version)
	assert.Equal(t, 2, entry.Seq)
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatusVersionMismatch(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE applications SET current_status")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:              "app-1",
		Status:          models.ApplicationStatusReviewed,
		ExpectedVersion: 1,
		ChangedAt:       now,
		Entry:           &models.StatusHistoryEntry{Status: models.ApplicationStatusReviewed, ChangedAt: now},
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryHistoryOrdered(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "application_id", "seq", "status", "changed_at", "actor_id", "actor_role", "note"}).
		AddRow("h-1", "app-1", 1, "Applied", now, "stu-1", "Student", nil).
		AddRow("h-2", "app-1", 2, "Selected", now, "hr-1", "RECRUITER", "offer sent")
	mock.ExpectQuery(regexp.QuoteMeta("FROM application_status_history WHERE application_id = $1 ORDER BY seq ASC")).
		WithArgs("app-1").
		WillReturnRows(rows)

	history, err := repo.History(context.Background(), "app-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ApplicationStatusApplied, history[0].Status)
	assert.Nil(t, history[0].Note)
	require.NotNil(t, history[1].Note)
	assert.Equal(t, "offer sent", *history[1].Note)
}

func TestApplicationRepositoryListWithPostingByStudents(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	empty, err := repo.ListWithPostingByStudents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "posting_id", "student_id", "applied_at", "current_status", "cover_letter", "additional_info",
		"eligibility_acknowledged", "attachments", "submission_ip", "submission_user_agent", "version", "updated_at", "company", "position", "kind"}).
		AddRow("app-1", "post-1", "stu-1", now, "Selected", "", "", true, []byte(`[{"fileName":"cv.pdf","fileUrl":"/a/t","fileType":"application/pdf","uploadedAt":"2026-01-02T00:00:00Z"}]`), "10.0.0.1", "curl", 2, now, "Acme", "SDE", "job")
	mock.ExpectQuery(regexp.QuoteMeta("FROM applications a JOIN postings p ON p.id = a.posting_id")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	apps, err := repo.ListWithPostingByStudents(context.Background(), []string{"stu-1"})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Acme", apps[0].Company)
	assert.Equal(t, models.ApplicationStatusSelected, apps[0].CurrentStatus)
	require.Len(t, apps[0].Attachments, 1)
	assert.Equal(t, "cv.pdf", apps[0].Attachments[0].FileName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListStatusFilter(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM applications a WHERE 1=1 AND a.posting_id = $1 AND a.current_status = ANY($2) ORDER BY a.applied_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("post-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM applications a WHERE 1=1 AND a.posting_id = $1 AND a.current_status = ANY($2)")).
		WithArgs("post-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	apps, total, err := repo.List(context.Background(), models.ApplicationFilter{
		PostingID: "post-1",
		Status:    []models.ApplicationStatus{models.ApplicationStatusSelected},
	})
	require.NoError(t, err)
	assert.Empty(t, apps)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
