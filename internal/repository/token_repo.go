package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobhub/internal/domain"
)

// TokenRepository persiste los registros de access y refresh tokens.
// Un token firmado sin registro persistido no autoriza nada: así la
// revocación server-side funciona aunque los tokens sean autofirmados.
type TokenRepository interface {
	// InsertPair poda el estado viejo del usuario y persiste el par nuevo en
	// una sola transacción: se conservan a lo sumo maxRefresh registros de
	// refresh (los más recientes) y se eliminan los access ya expirados.
	InsertPair(ctx context.Context, access domain.AccessTokenRecord, refresh domain.RefreshTokenRecord, maxRefresh int) error
	AccessTokenActive(ctx context.Context, token string) (bool, error)
	RefreshTokenActive(ctx context.Context, token string) (bool, error)
	// ConsumeRefresh revoca el refresh token solo si sigue activo. En una
	// rotación concurrente exactamente un caller obtiene true.
	ConsumeRefresh(ctx context.Context, token string) (bool, error)
	// RevokeRefresh es idempotente: revocar un token desconocido o ya
	// revocado no es un error.
	RevokeRefresh(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) error
}

// PgTokenRepository implementa TokenRepository usando pgxpool.
type PgTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgTokenRepository(pool *pgxpool.Pool) *PgTokenRepository {
	return &PgTokenRepository{pool: pool}
}

func (r *PgTokenRepository) InsertPair(ctx context.Context, access domain.AccessTokenRecord, refresh domain.RefreshTokenRecord, maxRefresh int) error {
	if maxRefresh < 1 {
		maxRefresh = 1
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Conserva los maxRefresh-1 refresh más recientes para que tras el
	// insert el usuario nunca supere el tope de sesiones.
	const pruneRefresh = `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM refresh_tokens
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)
	`
	if _, err := tx.Exec(ctx, pruneRefresh, refresh.UserID, maxRefresh-1); err != nil {
		return err
	}

	const pruneAccess = `DELETE FROM access_tokens WHERE user_id = $1 AND expires_at < now()`
	if _, err := tx.Exec(ctx, pruneAccess, access.UserID); err != nil {
		return err
	}

	const insAccess = `
		INSERT INTO access_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, insAccess,
		access.ID, access.UserID, access.Token, access.ExpiresAt, access.CreatedAt,
	); err != nil {
		return err
	}

	const insRefresh = `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, is_revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, insRefresh,
		refresh.ID, refresh.UserID, refresh.Token, refresh.ExpiresAt, refresh.IsRevoked, refresh.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgTokenRepository) AccessTokenActive(ctx context.Context, token string) (bool, error) {
	const query = `SELECT count(1) FROM access_tokens WHERE token = $1 AND expires_at > now()`
	var n int
	if err := r.pool.QueryRow(ctx, query, token).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PgTokenRepository) RefreshTokenActive(ctx context.Context, token string) (bool, error) {
	const query = `SELECT count(1) FROM refresh_tokens WHERE token = $1 AND NOT is_revoked AND expires_at > now()`
	var n int
	if err := r.pool.QueryRow(ctx, query, token).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PgTokenRepository) ConsumeRefresh(ctx context.Context, token string) (bool, error) {
	const query = `
		UPDATE refresh_tokens
		SET is_revoked = true
		WHERE token = $1 AND NOT is_revoked AND expires_at > now()
	`
	tag, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgTokenRepository) RevokeRefresh(ctx context.Context, token string) error {
	const query = `UPDATE refresh_tokens SET is_revoked = true WHERE token = $1`
	_, err := r.pool.Exec(ctx, query, token)
	return err
}

func (r *PgTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const delAccess = `DELETE FROM access_tokens WHERE user_id = $1`
	if _, err := tx.Exec(ctx, delAccess, userID); err != nil {
		return err
	}
	const revokeRefresh = `UPDATE refresh_tokens SET is_revoked = true WHERE user_id = $1`
	if _, err := tx.Exec(ctx, revokeRefresh, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgTokenRepository) DeleteExpired(ctx context.Context) error {
	const delAccess = `DELETE FROM access_tokens WHERE expires_at < now()`
	if _, err := r.pool.Exec(ctx, delAccess); err != nil {
		return err
	}
	const delRefresh = `DELETE FROM refresh_tokens WHERE expires_at < now()`
	_, err := r.pool.Exec(ctx, delRefresh)
	return err
}
