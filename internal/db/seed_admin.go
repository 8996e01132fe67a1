package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/learnhub/internal/config"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser promotes the configured social account to ADMIN. The
// account has to have signed in once; until then this is a no-op.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminSocialProvider == "" || cfg.AdminSocialID == "" {
		return nil
	}

	var id string
	var current string

	err := pool.QueryRow(ctx,
		`SELECT id, role FROM users WHERE social_provider = $1 AND social_id = $2`,
		cfg.AdminSocialProvider, cfg.AdminSocialID,
	).Scan(&id, &current)

	if errors.Is(err, pgx.ErrNoRows) {
		log.InfoContext(ctx, "admin account not signed in yet", "provider", cfg.AdminSocialProvider)
		return nil
	}
	if err != nil {
		return err
	}

	if current == string(role.Admin) {
		return nil
	}

	_, err = pool.Exec(ctx,
		`UPDATE users SET role = $2, active = TRUE, updated_at = NOW() WHERE id = $1`,
		id, string(role.Admin),
	)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "admin account promoted", "user_id", id)
	return nil
}
