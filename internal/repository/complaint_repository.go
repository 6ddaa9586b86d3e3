package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ErrVersionConflict reports that a conditional update matched no row because
// a concurrent writer changed the complaint first.
var ErrVersionConflict = errors.New("complaint was modified concurrently")

// ComplaintFilter captures staff search parameters.
type ComplaintFilter struct {
	StudentID   *string
	HostelID    *string
	Statuses    []domain.ComplaintStatus
	Levels      []domain.EscalationLevel
	Categories  []domain.IssueCategory
	Severities  []domain.Severity
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ComplaintStats aggregates complaint counts for reporting.
type ComplaintStats struct {
	Total      int64
	ByStatus   map[domain.ComplaintStatus]int64
	ByLevel    map[domain.EscalationLevel]int64
	ByCategory map[domain.IssueCategory]int64
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Complaint, error)
	ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]domain.Complaint, error)
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	UpdateEscalation(ctx context.Context, complaint *domain.Complaint, prevLevel domain.EscalationLevel) error
	MarkResolved(ctx context.Context, complaint *domain.Complaint) error
	SetFeedback(ctx context.Context, complaint *domain.Complaint, rating int, comment *string) error
	DeleteResolved(ctx context.Context, id string) error
	Stats(ctx context.Context, hostelID *string) (*ComplaintStats, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (external_key, student_id, hostel_id, room_number, category, category_detail,
            description, severity, level, status, assigned_worker_name, assigned_worker_phone)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		complaint.ExternalKey,
		complaint.StudentID,
		complaint.HostelID,
		complaint.RoomNumber,
		complaint.Category,
		complaint.CategoryDetail,
		complaint.Description,
		complaint.Severity,
		complaint.Level,
		complaint.Status,
		complaint.AssignedWorkerName,
		complaint.AssignedWorkerPhone,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

const complaintColumns = `id, external_key, student_id, hostel_id, room_number, category, category_detail,
               description, severity, level, status, assigned_worker_name, assigned_worker_phone,
               feedback_rating, feedback_comment, feedback_at, created_at, updated_at`

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *complaintRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE external_key=$1`
	return r.fetchSingle(ctx, query, key)
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&complaint.ID,
		&complaint.ExternalKey,
		&complaint.StudentID,
		&complaint.HostelID,
		&complaint.RoomNumber,
		&complaint.Category,
		&complaint.CategoryDetail,
		&complaint.Description,
		&complaint.Severity,
		&complaint.Level,
		&complaint.Status,
		&complaint.AssignedWorkerName,
		&complaint.AssignedWorkerPhone,
		&complaint.FeedbackRating,
		&complaint.FeedbackComment,
		&complaint.FeedbackAt,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]domain.Complaint, error) {
	filter := ComplaintFilter{
		StudentID: &studentID,
		Limit:     limit,
		Offset:    offset,
	}
	return r.ListWithFilter(ctx, filter)
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	base := `SELECT ` + complaintColumns + ` FROM complaints`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		clauses = append(clauses, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if filter.HostelID != nil {
		args = append(args, *filter.HostelID)
		clauses = append(clauses, fmt.Sprintf("hostel_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Levels) > 0 {
		placeholders := make([]string, len(filter.Levels))
		for i, level := range filter.Levels {
			args = append(args, level)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("level IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Severities) > 0 {
		placeholders := make([]string, len(filter.Severities))
		for i, severity := range filter.Severities {
			args = append(args, severity)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("severity IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(description) LIKE %s OR LOWER(room_number) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

// UpdateEscalation persists an escalation delta guarded by the level the
// caller read. A concurrent escalation or resolve makes the update match
// nothing, reported as ErrVersionConflict.
func (r *complaintRepository) UpdateEscalation(ctx context.Context, complaint *domain.Complaint, prevLevel domain.EscalationLevel) error {
	const query = `
        UPDATE complaints SET level=$1, status=$2, assigned_worker_name=$3, assigned_worker_phone=$4, updated_at=NOW()
        WHERE id=$5 AND level=$6 AND status <> 'RESOLVED'
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		complaint.Level,
		complaint.Status,
		complaint.AssignedWorkerName,
		complaint.AssignedWorkerPhone,
		complaint.ID,
		prevLevel,
	).Scan(&complaint.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVersionConflict
	}
	return err
}

// MarkResolved sets the terminal status. Already-resolved rows match nothing
// and return pgx.ErrNoRows; the caller treats that as idempotent success.
func (r *complaintRepository) MarkResolved(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET status='RESOLVED', updated_at=NOW()
        WHERE id=$1 AND status <> 'RESOLVED'
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, complaint.ID).Scan(&complaint.UpdatedAt)
	if err != nil {
		return err
	}
	complaint.Status = domain.ComplaintStatusResolved
	return nil
}

// SetFeedback stores the one-time rating. The guard makes a second submission
// or feedback on an open complaint match nothing.
func (r *complaintRepository) SetFeedback(ctx context.Context, complaint *domain.Complaint, rating int, comment *string) error {
	const query = `
        UPDATE complaints SET feedback_rating=$1, feedback_comment=$2, feedback_at=NOW(), updated_at=NOW()
        WHERE id=$3 AND status='RESOLVED' AND feedback_rating IS NULL
        RETURNING feedback_at, updated_at`
	err := r.pool.QueryRow(ctx, query, rating, comment, complaint.ID).Scan(&complaint.FeedbackAt, &complaint.UpdatedAt)
	if err != nil {
		return err
	}
	complaint.FeedbackRating = &rating
	complaint.FeedbackComment = comment
	return nil
}

// DeleteResolved removes a complaint only once it reached the terminal state.
func (r *complaintRepository) DeleteResolved(ctx context.Context, id string) error {
	const query = `DELETE FROM complaints WHERE id=$1 AND status='RESOLVED'`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) Stats(ctx context.Context, hostelID *string) (*ComplaintStats, error) {
	query := `SELECT status, level, category, COUNT(*) FROM complaints`
	args := []any{}
	if hostelID != nil {
		args = append(args, *hostelID)
		query += ` WHERE hostel_id=$1`
	}
	query += ` GROUP BY status, level, category`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &ComplaintStats{
		ByStatus:   make(map[domain.ComplaintStatus]int64),
		ByLevel:    make(map[domain.EscalationLevel]int64),
		ByCategory: make(map[domain.IssueCategory]int64),
	}
	for rows.Next() {
		var (
			status   domain.ComplaintStatus
			level    domain.EscalationLevel
			category domain.IssueCategory
			count    int64
		)
		if err := rows.Scan(&status, &level, &category, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByLevel[level] += count
		stats.ByCategory[category] += count
	}
	return stats, rows.Err()
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := rows.Scan(
			&complaint.ID,
			&complaint.ExternalKey,
			&complaint.StudentID,
			&complaint.HostelID,
			&complaint.RoomNumber,
			&complaint.Category,
			&complaint.CategoryDetail,
			&complaint.Description,
			&complaint.Severity,
			&complaint.Level,
			&complaint.Status,
			&complaint.AssignedWorkerName,
			&complaint.AssignedWorkerPhone,
			&complaint.FeedbackRating,
			&complaint.FeedbackComment,
			&complaint.FeedbackAt,
			&complaint.CreatedAt,
			&complaint.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
