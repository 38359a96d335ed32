package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/clearhub-ng/clearance-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func submissionRows(sub models.ClearanceSubmission) *sqlmock.Rows {
	docs, _ := sub.Documents.Value()
	return sqlmock.NewRows([]string{
		"id", "student_id", "student_name", "student_matric", "department_id", "faculty_id",
		"office_id", "officer_id", "documents", "status", "comment", "created_at", "actioned_at", "is_deleted",
	}).AddRow(sub.ID, sub.StudentID, sub.StudentName, sub.StudentMatric, sub.DepartmentID, sub.FacultyID,
		sub.OfficeID, sub.OfficerID, docs, sub.Status, sub.Comment, sub.CreatedAt, sub.ActionedAt, sub.IsDeleted)
}

func TestSubmissionRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO clearance_submissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	submission := &models.ClearanceSubmission{
		StudentID:     "student-1",
		StudentName:   "Ada Obi",
		StudentMatric: "ENG/2019/104",
		DepartmentID:  "mech-eng",
		FacultyID:     "engineering",
		OfficeID:      "library",
		Documents:     models.DocumentList{{FileName: "library-card.pdf", FileURL: "https://files/doc-1", FileType: "application/pdf"}},
	}
	require.NoError(t, repo.Create(context.Background(), submission))
	require.NotEmpty(t, submission.ID)
	require.Equal(t, models.SubmissionPending, submission.Status)

	mock.ExpectQuery("SELECT (.+) FROM clearance_submissions WHERE id = \\$1 AND is_deleted = FALSE").
		WithArgs(submission.ID).
		WillReturnRows(submissionRows(*submission))

	found, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, submission.ID, found.ID)
	require.Equal(t, "library", found.OfficeID)
	require.Len(t, found.Documents, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryApplyDecisionConditional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	now := time.Now().UTC()
	comment := "all books returned"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE clearance_submissions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ApplyDecision(context.Background(), DecisionParams{
		ID:         "sub-1",
		Status:     models.SubmissionApproved,
		OfficerID:  "officer-1",
		ActionedAt: now,
		Comment:    &comment,
	}))

	// A second decision hits the status guard and updates zero rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE clearance_submissions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.ApplyDecision(context.Background(), DecisionParams{
		ID:         "sub-1",
		Status:     models.SubmissionRejected,
		OfficerID:  "officer-2",
		ActionedAt: now,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	sub := models.ClearanceSubmission{
		ID: "sub-1", StudentID: "student-1", OfficeID: "library",
		Status: models.SubmissionPending, CreatedAt: time.Now().UTC(),
	}
	mock.ExpectQuery("SELECT DISTINCT ON \\(student_id, office_id\\) (.+) FROM clearance_submissions").
		WithArgs("library", "PENDING", "mech-eng").
		WillReturnRows(submissionRows(sub))

	list, err := repo.List(context.Background(), models.SubmissionFilter{
		OfficeID:     "library",
		Status:       []models.SubmissionStatus{models.SubmissionPending},
		DepartmentID: "mech-eng",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "sub-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryLatestPerOffice(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	rows := submissionRows(models.ClearanceSubmission{
		ID: "sub-2", StudentID: "student-1", OfficeID: "hod",
		Status: models.SubmissionApproved, CreatedAt: time.Now().UTC(),
	})
	mock.ExpectQuery("SELECT DISTINCT ON \\(office_id\\) (.+) FROM clearance_submissions").
		WithArgs("student-1").
		WillReturnRows(rows)

	latest, err := repo.LatestPerOffice(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, latest, 1)
	require.Equal(t, models.SubmissionApproved, latest["hod"].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("PENDING", 4).
		AddRow("APPROVED", 10).
		AddRow("REJECTED", 2)
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count").
		WithArgs("library").
		WillReturnRows(rows)

	stats, err := repo.CountByStatus(context.Background(), "library", "")
	require.NoError(t, err)
	require.Equal(t, 16, stats.Total)
	require.Equal(t, 4, stats.Pending)
	require.Equal(t, 10, stats.Approved)
	require.Equal(t, 2, stats.Rejected)
	require.NoError(t, mock.ExpectationsWereMet())
}
