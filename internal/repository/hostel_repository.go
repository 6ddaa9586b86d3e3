package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// HostelRepository manages hostel reference data.
type HostelRepository interface {
	Create(ctx context.Context, hostel *domain.Hostel) error
	Update(ctx context.Context, hostel *domain.Hostel) error
	GetByID(ctx context.Context, id string) (*domain.Hostel, error)
	GetByCode(ctx context.Context, code string) (*domain.Hostel, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Hostel, error)
}

type hostelRepository struct {
	pool *pgxpool.Pool
}

// NewHostelRepository builds the repository.
func NewHostelRepository(pool *pgxpool.Pool) HostelRepository {
	return &hostelRepository{pool: pool}
}

func (r *hostelRepository) Create(ctx context.Context, hostel *domain.Hostel) error {
	const query = `
        INSERT INTO hostels (name, code, warden_name, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		hostel.Name,
		hostel.Code,
		hostel.WardenName,
		hostel.IsActive,
	).Scan(&hostel.ID, &hostel.CreatedAt, &hostel.UpdatedAt)
}

func (r *hostelRepository) Update(ctx context.Context, hostel *domain.Hostel) error {
	const query = `
        UPDATE hostels SET name=$1, code=$2, warden_name=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		hostel.Name,
		hostel.Code,
		hostel.WardenName,
		hostel.IsActive,
		hostel.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *hostelRepository) GetByID(ctx context.Context, id string) (*domain.Hostel, error) {
	const query = `
        SELECT id, name, code, warden_name, is_active, created_at, updated_at
        FROM hostels WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *hostelRepository) GetByCode(ctx context.Context, code string) (*domain.Hostel, error) {
	const query = `
        SELECT id, name, code, warden_name, is_active, created_at, updated_at
        FROM hostels WHERE code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *hostelRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Hostel, error) {
	var hostel domain.Hostel
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&hostel.ID,
		&hostel.Name,
		&hostel.Code,
		&hostel.WardenName,
		&hostel.IsActive,
		&hostel.CreatedAt,
		&hostel.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &hostel, nil
}

func (r *hostelRepository) List(ctx context.Context, includeInactive bool) ([]domain.Hostel, error) {
	query := `
        SELECT id, name, code, warden_name, is_active, created_at, updated_at
        FROM hostels`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Hostel
	for rows.Next() {
		var hostel domain.Hostel
		if err := rows.Scan(
			&hostel.ID,
			&hostel.Name,
			&hostel.Code,
			&hostel.WardenName,
			&hostel.IsActive,
			&hostel.CreatedAt,
			&hostel.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, hostel)
	}
	return result, rows.Err()
}
