package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobhub/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `
	id, email, password_hash, role, sub_role,
	is_email_verified, is_profile_completed, is_deleted,
	company_name, cin, company_mail, company_contact,
	industry, company_size, company_address, created_at
`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, role, sub_role,
			is_email_verified, is_profile_completed, is_deleted,
			company_name, cin, company_mail, company_contact,
			industry, company_size, company_address, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.SubRole,
		user.IsEmailVerified,
		user.IsProfileCompleted,
		user.IsDeleted,
		user.CompanyName,
		user.CIN,
		user.CompanyMail,
		user.CompanyContact,
		user.Industry,
		user.CompanySize,
		user.CompanyAddress,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND NOT is_deleted`
	return r.scanUser(ctx, query, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND NOT is_deleted`
	return r.scanUser(ctx, query, email)
}

func (r *PgUserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	const query = `UPDATE users SET is_email_verified = true WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, passwordHash)
	return err
}

// Delete elimina la fila. Se usa como compensación cuando el correo de
// verificación no pudo enviarse durante el registro.
func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PgUserRepository) scanUser(ctx context.Context, query string, arg any) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.SubRole,
		&u.IsEmailVerified,
		&u.IsProfileCompleted,
		&u.IsDeleted,
		&u.CompanyName,
		&u.CIN,
		&u.CompanyMail,
		&u.CompanyContact,
		&u.Industry,
		&u.CompanySize,
		&u.CompanyAddress,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
