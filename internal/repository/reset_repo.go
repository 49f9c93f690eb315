package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobhub/internal/domain"
)

// ResetRepository persiste tokens de restablecimiento de contraseña.
type ResetRepository interface {
	// Replace invalida los tokens sin usar del usuario e inserta el nuevo en
	// una sola transacción: a lo sumo un token usable por identidad.
	Replace(ctx context.Context, token domain.PasswordResetToken) error
	// Consume marca el token como usado solo si sigue vigente y sin usar, y
	// devuelve el user_id dueño. ok=false cubre token desconocido, usado y
	// expirado por igual.
	Consume(ctx context.Context, token string) (userID string, ok bool, err error)
	DeleteExpired(ctx context.Context) error
}

// PgResetRepository implementa ResetRepository usando pgxpool.
type PgResetRepository struct {
	pool *pgxpool.Pool
}

func NewPgResetRepository(pool *pgxpool.Pool) *PgResetRepository {
	return &PgResetRepository{pool: pool}
}

func (r *PgResetRepository) Replace(ctx context.Context, token domain.PasswordResetToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const invalidate = `UPDATE password_resets SET is_used = true WHERE user_id = $1 AND NOT is_used`
	if _, err := tx.Exec(ctx, invalidate, token.UserID); err != nil {
		return err
	}

	const ins = `
		INSERT INTO password_resets (id, user_id, token, expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, ins,
		token.ID,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.IsUsed,
		token.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgResetRepository) Consume(ctx context.Context, token string) (string, bool, error) {
	const query = `
		UPDATE password_resets
		SET is_used = true
		WHERE token = $1 AND NOT is_used AND expires_at > now()
		RETURNING user_id
	`
	var userID string
	err := r.pool.QueryRow(ctx, query, token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (r *PgResetRepository) DeleteExpired(ctx context.Context) error {
	const query = `DELETE FROM password_resets WHERE expires_at < now()`
	_, err := r.pool.Exec(ctx, query)
	return err
}
