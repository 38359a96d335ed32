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

const requestColumns = `id, student_id, status, current_step_number, completed_at, nysc_accessed, is_deleted, created_at, updated_at`

// RequestRepository persists the per-student clearance umbrella records.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new clearance request.
func (r *RequestRepository) Create(ctx context.Context, request *models.ClearanceRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestPending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	const query = `INSERT INTO clearance_requests
	(id, student_id, status, current_step_number, completed_at, nysc_accessed, is_deleted, created_at, updated_at)
	VALUES (:id, :student_id, :status, :current_step_number, :completed_at, :nysc_accessed, :is_deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create clearance request: %w", err)
	}
	return nil
}

// GetActiveByStudent returns the single active (non-deleted) request for a
// student, or sql.ErrNoRows.
func (r *RequestRepository) GetActiveByStudent(ctx context.Context, studentID string) (*models.ClearanceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM clearance_requests
	WHERE student_id = $1 AND is_deleted = FALSE
	ORDER BY created_at DESC LIMIT 1`, requestColumns)
	var request models.ClearanceRequest
	if err := r.db.GetContext(ctx, &request, query, studentID); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.ClearanceRequest, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM clearance_requests`, requestColumns))
	args := make([]interface{}, 0, 4)
	conditions := []string{"is_deleted = FALSE"}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	builder.WriteString(" WHERE ")
	builder.WriteString(strings.Join(conditions, " AND "))
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.ClearanceRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list clearance requests: %w", err)
	}
	return requests, nil
}

// CountByStatus aggregates active request counts, recomputed on read.
func (r *RequestRepository) CountByStatus(ctx context.Context) (map[models.RequestStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM clearance_requests WHERE is_deleted = FALSE GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count clearance requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.RequestStatus]int, 3)
	for rows.Next() {
		var status models.RequestStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan request count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request counts: %w", err)
	}
	return counts, nil
}

// UpdateProgress moves the request forward (status and current step).
// Completed requests are never regressed: the update is conditional on the
// row not being COMPLETED, which keeps completion monotonic.
func (r *RequestRepository) UpdateProgress(ctx context.Context, id string, status models.RequestStatus, currentStep int) error {
	const query = `UPDATE clearance_requests
	SET status = $2, current_step_number = $3, updated_at = $4
	WHERE id = $1 AND status <> 'COMPLETED' AND is_deleted = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, status, currentStep, time.Now().UTC()); err != nil {
		return fmt.Errorf("update request progress: %w", err)
	}
	return nil
}

// MarkCompleted stamps the request COMPLETED. Conditional on not already
// being COMPLETED so a racing duplicate recompute is a no-op rather than a
// second completion; sql.ErrNoRows signals the benign duplicate.
func (r *RequestRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	const query = `UPDATE clearance_requests
	SET status = 'COMPLETED', completed_at = $2, updated_at = $2
	WHERE id = $1 AND status <> 'COMPLETED' AND is_deleted = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, completedAt)
	if err != nil {
		return fmt.Errorf("mark request completed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check completion rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkNYSCAccessed records that the student has opened the NYSC form.
func (r *RequestRepository) MarkNYSCAccessed(ctx context.Context, id string) error {
	const query = `UPDATE clearance_requests SET nysc_accessed = TRUE, updated_at = $2 WHERE id = $1 AND is_deleted = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark nysc accessed: %w", err)
	}
	return nil
}

// SoftDelete flags a request as deleted while retaining it for audit.
func (r *RequestRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE clearance_requests SET is_deleted = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete request: %w", err)
	}
	return nil
}
