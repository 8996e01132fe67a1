package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RefreshTokensRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RefreshTokensRepo {
	return &RefreshTokensRepo{pool: pool, prom: prom}
}

func (r *RefreshTokensRepo) Create(ctx context.Context, row auth.RefreshToken) error {
	return r.prom.ObserveDB("refresh_tokens.create", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		`, row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.CreatedAt)
		return err
	})
}

// Rotate revokes the presented token and stores its replacement in one
// transaction. The row lock stops two concurrent refreshes from both winning.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, oldID, oldHash string, next auth.RefreshToken) error {
	return r.prom.ObserveDB("refresh_tokens.rotate", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		var cur auth.RefreshToken
		err = tx.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked_at
		FROM refresh_tokens
		WHERE id = $1
		FOR UPDATE
		`, oldID).Scan(&cur.ID, &cur.UserID, &cur.TokenHash, &cur.ExpiresAt, &cur.RevokedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return auth.ErrRefreshTokenNotFound
			}
			return err
		}

		if cur.TokenHash != oldHash || cur.UserID != next.UserID {
			return auth.ErrRefreshTokenMismatch
		}
		if cur.RevokedAt != nil || time.Now().After(cur.ExpiresAt) {
			return auth.ErrRefreshTokenRevoked
		}

		if _, err := tx.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		`, next.ID, next.UserID, next.TokenHash, next.ExpiresAt, next.CreatedAt); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), replaced_by = $2
		WHERE id = $1
		`, oldID, next.ID); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

func (r *RefreshTokensRepo) Revoke(ctx context.Context, id string) error {
	return r.prom.ObserveDB("refresh_tokens.revoke", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
		`, id)
		return err
	})
}

func (r *RefreshTokensRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.prom.ObserveDB("refresh_tokens.revoke_all", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
		`, userID)
		return err
	})
}
