package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clearhub-ng/clearance-api/internal/models"
)

const submissionColumns = `id, student_id, student_name, student_matric, department_id, faculty_id,
       office_id, officer_id, documents, status, comment, created_at, actioned_at, is_deleted`

// SubmissionRepository persists clearance submissions. Rows are append-only:
// rejection and resubmission keep prior records for audit, and deletes are
// soft (is_deleted flag) so history stays queryable.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission row in PENDING state.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.ClearanceSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.Status == "" {
		submission.Status = models.SubmissionPending
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO clearance_submissions
	(id, student_id, student_name, student_matric, department_id, faculty_id, office_id, officer_id, documents, status, comment, created_at, actioned_at, is_deleted)
	VALUES (:id, :student_id, :student_name, :student_matric, :department_id, :faculty_id, :office_id, :officer_id, :documents, :status, :comment, :created_at, :actioned_at, :is_deleted)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// GetByID fetches a submission by identifier, excluding soft-deleted rows.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.ClearanceSubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM clearance_submissions WHERE id = $1 AND is_deleted = FALSE`, submissionColumns)
	var submission models.ClearanceSubmission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// LatestByStudentOffice returns the most recent non-deleted submission for
// a student+office pair, or sql.ErrNoRows when none exists.
func (r *SubmissionRepository) LatestByStudentOffice(ctx context.Context, studentID, officeID string) (*models.ClearanceSubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM clearance_submissions
	WHERE student_id = $1 AND office_id = $2 AND is_deleted = FALSE
	ORDER BY created_at DESC LIMIT 1`, submissionColumns)
	var submission models.ClearanceSubmission
	if err := r.db.GetContext(ctx, &submission, query, studentID, officeID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// LatestPerOffice returns each office's latest non-deleted submission for a
// student, keyed by office id.
func (r *SubmissionRepository) LatestPerOffice(ctx context.Context, studentID string) (map[string]models.ClearanceSubmission, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ON (office_id) %s FROM clearance_submissions
	WHERE student_id = $1 AND is_deleted = FALSE
	ORDER BY office_id, created_at DESC`, submissionColumns)
	var rows []models.ClearanceSubmission
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("latest submissions for student: %w", err)
	}
	latest := make(map[string]models.ClearanceSubmission, len(rows))
	for _, row := range rows {
		latest[row.OfficeID] = row
	}
	return latest, nil
}

// List returns submissions matching the filter, newest first. History rows
// (superseded by a newer submission for the same student+office) are
// included only when the filter asks for them.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.ClearanceSubmission, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 8)
	if filter.IncludeHistory {
		builder.WriteString(fmt.Sprintf(`SELECT %s FROM clearance_submissions`, submissionColumns))
	} else {
		builder.WriteString(fmt.Sprintf(`SELECT DISTINCT ON (student_id, office_id) %s FROM clearance_submissions`, submissionColumns))
	}

	conditions := []string{"is_deleted = FALSE"}
	if filter.OfficeID != "" {
		args = append(args, filter.OfficeID)
		conditions = append(conditions, fmt.Sprintf("office_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.OfficerID != "" {
		args = append(args, filter.OfficerID)
		conditions = append(conditions, fmt.Sprintf("officer_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		conditions = append(conditions, fmt.Sprintf("faculty_id = $%d", len(args)))
	}
	builder.WriteString(" WHERE ")
	builder.WriteString(strings.Join(conditions, " AND "))

	if filter.IncludeHistory {
		builder.WriteString(" ORDER BY created_at DESC")
	} else {
		builder.WriteString(" ORDER BY student_id, office_id, created_at DESC")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var submissions []models.ClearanceSubmission
	if err := r.db.SelectContext(ctx, &submissions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// DecisionParams groups the columns written by an approve/reject action.
type DecisionParams struct {
	ID         string
	Status     models.SubmissionStatus
	OfficerID  string
	ActionedAt time.Time
	Comment    *string
}

// ApplyDecision transitions a PENDING submission to APPROVED or REJECTED.
// The update is conditional on the current status so two concurrent
// decisions resolve first-committer-wins: the loser gets sql.ErrNoRows.
func (r *SubmissionRepository) ApplyDecision(ctx context.Context, params DecisionParams) error {
	const query = `UPDATE clearance_submissions
	SET status = :status, officer_id = :officer_id, actioned_at = :actioned_at, comment = :comment
	WHERE id = :id AND status = 'PENDING' AND is_deleted = FALSE`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"officer_id":  params.OfficerID,
		"actioned_at": params.ActionedAt,
		"comment":     params.Comment,
	})
	if err != nil {
		return fmt.Errorf("apply decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus aggregates submission counts for one office, optionally
// narrowed to a department. Counts cover latest submissions only so a
// rejected-then-resubmitted pair is not double counted as active work.
func (r *SubmissionRepository) CountByStatus(ctx context.Context, officeID, departmentID string) (*models.OfficeStatistics, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT status, COUNT(*) AS count FROM (
	SELECT DISTINCT ON (student_id) status FROM clearance_submissions
	WHERE office_id = $1 AND is_deleted = FALSE`)
	args := []interface{}{officeID}
	if departmentID != "" {
		args = append(args, departmentID)
		builder.WriteString(fmt.Sprintf(" AND department_id = $%d", len(args)))
	}
	builder.WriteString(` ORDER BY student_id, created_at DESC
	) latest GROUP BY status`)

	rows, err := r.db.QueryxContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	defer rows.Close()

	stats := &models.OfficeStatistics{OfficeID: officeID}
	for rows.Next() {
		var status models.SubmissionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan submission count: %w", err)
		}
		switch status {
		case models.SubmissionPending:
			stats.Pending = count
		case models.SubmissionApproved:
			stats.Approved = count
		case models.SubmissionRejected:
			stats.Rejected = count
		}
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission counts: %w", err)
	}
	return stats, nil
}

// SoftDelete flags a submission as deleted while retaining it for audit.
func (r *SubmissionRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE clearance_submissions SET is_deleted = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("soft delete submission: %w", err)
	}
	return nil
}
