package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobhub/internal/domain"
)

// JobRepository define el contrato de persistencia para ofertas.
type JobRepository interface {
	Create(ctx context.Context, job domain.Job) error
	List(ctx context.Context, limit, offset int) ([]domain.Job, error)
}

// PgJobRepository implementa JobRepository usando pgxpool.
type PgJobRepository struct {
	pool *pgxpool.Pool
}

func NewPgJobRepository(pool *pgxpool.Pool) *PgJobRepository {
	return &PgJobRepository{pool: pool}
}

func (r *PgJobRepository) Create(ctx context.Context, job domain.Job) error {
	const query = `
		INSERT INTO jobs (id, posted_by, title, description, location, salary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.PostedBy,
		job.Title,
		job.Description,
		job.Location,
		job.Salary,
		job.CreatedAt,
	)
	return err
}

func (r *PgJobRepository) List(ctx context.Context, limit, offset int) ([]domain.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
		SELECT id, posted_by, title, description, location, salary, created_at
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(&j.ID, &j.PostedBy, &j.Title, &j.Description, &j.Location, &j.Salary, &j.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
