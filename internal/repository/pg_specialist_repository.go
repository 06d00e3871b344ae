package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type pgSpecialistRepository struct {
	pool *pgxpool.Pool
}

// NewPgSpecialistRepository instantiates the postgres specialist repository.
func NewPgSpecialistRepository(pool *pgxpool.Pool) SpecialistRepository {
	return &pgSpecialistRepository{pool: pool}
}

func (r *pgSpecialistRepository) Create(ctx context.Context, specialist *domain.Specialist) error {
	const query = `INSERT INTO specialists (id, name, role, active) VALUES ($1,$2,$3,$4)`
	_, err := r.pool.Exec(ctx, query,
		specialist.ID,
		specialist.Name,
		specialist.Role,
		specialist.Active,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *pgSpecialistRepository) GetByID(ctx context.Context, id string) (*domain.Specialist, error) {
	return r.fetchSingle(ctx, `SELECT id, name, role, active FROM specialists WHERE id=$1`, id)
}

func (r *pgSpecialistRepository) GetByName(ctx context.Context, name string) (*domain.Specialist, error) {
	return r.fetchSingle(ctx, `SELECT id, name, role, active FROM specialists WHERE name=$1`, name)
}

func (r *pgSpecialistRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Specialist, error) {
	var specialist domain.Specialist
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&specialist.ID,
		&specialist.Name,
		&specialist.Role,
		&specialist.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &specialist, nil
}

func (r *pgSpecialistRepository) ListActive(ctx context.Context, limit int) ([]domain.Specialist, error) {
	query := `SELECT id, name, role, active FROM specialists WHERE active=TRUE ORDER BY created_at`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Specialist{}
	for rows.Next() {
		var specialist domain.Specialist
		if err := rows.Scan(
			&specialist.ID,
			&specialist.Name,
			&specialist.Role,
			&specialist.Active,
		); err != nil {
			return nil, err
		}
		result = append(result, specialist)
	}
	return result, rows.Err()
}
