package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, social_provider, social_id, nickname, email, role, active, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.SocialProvider,
		&u.SocialID,
		&u.Nickname,
		&u.Email,
		&u.Role,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	return u, err
}

// UpsertSocial finds the account for a social identity or creates it as
// LOGIN_NOT_AUTH. created reports which happened. An existing nickname is
// never overwritten since users can edit it.
func (r *UsersRepo) UpsertSocial(ctx context.Context, p user.SocialProfile) (user.User, bool, error) {
	var (
		u       user.User
		created bool
	)

	err := r.prom.ObserveDB("users.upsert_social", func() error {
		row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, social_provider, social_id, nickname, email, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
		ON CONFLICT (social_provider, social_id) DO UPDATE
		SET email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END,
		    updated_at = NOW()
		RETURNING `+userColumns+`, (xmax = 0) AS inserted
		`, uuid.NewString(), string(p.Provider), p.SocialID, p.Nickname, p.Email, string(role.LoginNotAuth))

		return row.Scan(
			&u.ID,
			&u.SocialProvider,
			&u.SocialID,
			&u.Nickname,
			&u.Email,
			&u.Role,
			&u.Active,
			&u.CreatedAt,
			&u.UpdatedAt,
			&created,
		)
	})
	if err != nil {
		return user.User{}, false, fmt.Errorf("upsert social user: %w", err)
	}

	return u, created, nil
}

func (r *UsersRepo) List(ctx context.Context, f user.ListFilter) ([]user.User, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var roleFilter *string
	if f.Role != nil {
		s := string(*f.Role)
		roleFilter = &s
	}

	out := make([]user.User, 0, limit)

	err := r.prom.ObserveDB("users.list", func() error {
		rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1::text IS NULL OR role = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
		`, roleFilter, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *UsersRepo) updateOne(ctx context.Context, op, set string, id string, arg any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET `+set+` = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, arg))
		return err
	})

	return u, err
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id string, newRole role.Role) (user.User, error) {
	if !newRole.Valid() {
		return user.User{}, user.ErrInvalidRole
	}
	return r.updateOne(ctx, "users.update_role", "role", id, string(newRole))
}

func (r *UsersRepo) SetActive(ctx context.Context, id string, active bool) (user.User, error) {
	return r.updateOne(ctx, "users.set_active", "active", id, active)
}

func (r *UsersRepo) UpdateNickname(ctx context.Context, id, nickname string) (user.User, error) {
	return r.updateOne(ctx, "users.update_nickname", "nickname", id, nickname)
}
