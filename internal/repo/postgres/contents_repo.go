package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/learnhub/internal/domain/content"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contentColumns = `id, kind, author_id, status, title, body, course_name, rating,
	summary, reject_reason, moderated_by, moderated_at, created_at, updated_at`

type ContentsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewContentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ContentsRepo {
	return &ContentsRepo{pool: pool, prom: prom}
}

func scanContent(row pgx.Row) (content.Item, error) {
	var (
		it     content.Item
		rating *int16
	)

	err := row.Scan(
		&it.ID, &it.Kind, &it.AuthorID, &it.Status,
		&it.Title, &it.Body, &it.CourseName, &rating,
		&it.Summary, &it.RejectReason, &it.ModeratedBy, &it.ModeratedAt,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return content.Item{}, content.ErrNotFound
		}
		return content.Item{}, err
	}

	if rating != nil {
		v := int(*rating)
		it.Rating = &v
	}
	return it, nil
}

func (r *ContentsRepo) Create(ctx context.Context, it content.Item) (content.Item, error) {
	err := r.prom.ObserveDB("contents.create", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO contents (id, kind, author_id, status, title, body, course_name, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, it.ID, string(it.Kind), it.AuthorID, string(it.Status), it.Title, it.Body, it.CourseName, it.Rating,
			it.CreatedAt, it.UpdatedAt)
		return err
	})
	if err != nil {
		return content.Item{}, err
	}
	return it, nil
}

func (r *ContentsRepo) GetByID(ctx context.Context, id string) (content.Item, error) {
	var it content.Item

	err := r.prom.ObserveDB("contents.get_by_id", func() error {
		var err error
		it, err = scanContent(r.pool.QueryRow(ctx,
			`SELECT `+contentColumns+` FROM contents WHERE id = $1`, id))
		return err
	})

	return it, err
}

// List builds its WHERE clause from the non-nil filter fields and always
// applies the DESC keyset position.
func (r *ContentsRepo) List(ctx context.Context, f content.ListFilter) ([]content.Item, error) {
	var (
		conds   []string
		args    []any
		argsPos = 1
	)

	if f.Kind != nil {
		conds = append(conds, fmt.Sprintf("kind = $%d", argsPos))
		args = append(args, string(*f.Kind))
		argsPos++
	}
	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPos))
		args = append(args, string(*f.Status))
		argsPos++
	}
	if f.AuthorID != nil {
		conds = append(conds, fmt.Sprintf("author_id = $%d", argsPos))
		args = append(args, *f.AuthorID)
		argsPos++
	}
	if !f.AfterCreatedAt.IsZero() {
		conds = append(conds, fmt.Sprintf("(created_at, id) < ($%d, $%d)", argsPos, argsPos+1))
		args = append(args, f.AfterCreatedAt, f.AfterID)
		argsPos += 2
	}

	q := `SELECT ` + contentColumns + ` FROM contents`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argsPos)
	args = append(args, f.Limit)

	out := make([]content.Item, 0, f.Limit)

	err := r.prom.ObserveDB("contents.list", func() error {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			it, err := scanContent(rows)
			if err != nil {
				return err
			}
			out = append(out, it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Moderate is a conditional single-row update: it only matches a pending item,
// so two concurrent moderators cannot both succeed.
func (r *ContentsRepo) Moderate(ctx context.Context, cmd content.ModerateCommand, to content.Status) (content.Item, error) {
	var reason *string
	if to == content.StatusRejected && cmd.Reason != "" {
		reason = &cmd.Reason
	}

	var it content.Item

	err := r.prom.ObserveDB("contents.moderate", func() error {
		var err error
		it, err = scanContent(r.pool.QueryRow(ctx, `
		UPDATE contents
		SET status = $2,
		    reject_reason = $3,
		    moderated_by = $4,
		    moderated_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+contentColumns,
			cmd.ID, string(to), reason, cmd.ModeratorID))
		return err
	})

	return it, err
}

func (r *ContentsRepo) SetSummary(ctx context.Context, id, summary string) error {
	return r.prom.ObserveDB("contents.set_summary", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE contents SET summary = $2, updated_at = NOW() WHERE id = $1`, id, summary)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return content.ErrNotFound
		}
		return nil
	})
}
