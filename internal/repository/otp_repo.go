package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobhub/internal/domain"
)

// OTPRepository persiste códigos de verificación de email.
type OTPRepository interface {
	// Replace descarta los códigos sin usar del usuario e inserta el nuevo,
	// en una sola transacción: nunca hay más de un código accionable.
	Replace(ctx context.Context, code domain.VerificationCode) error
	// Consume marca el código como usado solo si sigue vigente y sin usar.
	// Devuelve false si otro request lo consumió antes, si no coincide o si
	// expiró; el caller no puede distinguir el motivo.
	Consume(ctx context.Context, userID, code string) (bool, error)
	DeleteForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) error
}

// PgOTPRepository implementa OTPRepository usando pgxpool.
type PgOTPRepository struct {
	pool *pgxpool.Pool
}

func NewPgOTPRepository(pool *pgxpool.Pool) *PgOTPRepository {
	return &PgOTPRepository{pool: pool}
}

func (r *PgOTPRepository) Replace(ctx context.Context, code domain.VerificationCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const del = `DELETE FROM verification_codes WHERE user_id = $1 AND NOT is_used`
	if _, err := tx.Exec(ctx, del, code.UserID); err != nil {
		return err
	}

	const ins = `
		INSERT INTO verification_codes (id, user_id, code, expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, ins,
		code.ID,
		code.UserID,
		code.Code,
		code.ExpiresAt,
		code.IsUsed,
		code.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgOTPRepository) Consume(ctx context.Context, userID, code string) (bool, error) {
	// Update condicional: dos requests concurrentes con el mismo código no
	// pueden consumirlo los dos.
	const query = `
		UPDATE verification_codes
		SET is_used = true
		WHERE user_id = $1 AND code = $2 AND NOT is_used AND expires_at > now()
	`
	tag, err := r.pool.Exec(ctx, query, userID, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgOTPRepository) DeleteForUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM verification_codes WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *PgOTPRepository) DeleteExpired(ctx context.Context) error {
	const query = `DELETE FROM verification_codes WHERE expires_at < now()`
	_, err := r.pool.Exec(ctx, query)
	return err
}
