package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
)

const (
	uniqueViolation = "23505"

	constraintShortCode   = "links_short_code_key"
	constraintCustomAlias = "links_custom_alias_key"

	linkColumns = `short_code, original_url, custom_alias, owner_id, created_at, expires_at, last_accessed_at, access_count`
)

type LinksRepository struct {
	pool *pgxpool.Pool
}

func NewLinksRepository(p *db.Postgres) (*LinksRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &LinksRepository{pool: p.Pool}, nil
}

func (r *LinksRepository) Save(ctx context.Context, link *links.Link) error {
	if link == nil {
		return errors.New("link is nil")
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO links (`+linkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		link.ShortCode,
		link.OriginalURL,
		toNullableText(link.CustomAlias),
		toNullableText(link.OwnerID),
		toTimestamptz(link.CreatedAt),
		toNullableTimestamptz(link.ExpiresAt),
		toNullableTimestamptz(link.LastAccessedAt),
		link.AccessCount,
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == constraintCustomAlias {
			return &links.ConflictError{Field: links.FieldCustomAlias, Value: link.Alias()}
		}
		return &links.ConflictError{Field: links.FieldShortCode, Value: link.ShortCode}
	}
	return links.WrapStorage("save", err)
}

func (r *LinksRepository) FindByCode(ctx context.Context, code string) (*links.Link, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE short_code = $1`, code)
	return scanLink(row, "find by code")
}

func (r *LinksRepository) FindByAlias(ctx context.Context, alias string) (*links.Link, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE custom_alias = $1`, alias)
	return scanLink(row, "find by alias")
}

func (r *LinksRepository) FindByOriginalURL(ctx context.Context, url string) (*links.Link, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+linkColumns+` FROM links
		WHERE original_url = $1
		ORDER BY created_at, id
		LIMIT 1`, url)
	return scanLink(row, "find by original url")
}

func (r *LinksRepository) IncrementVisit(ctx context.Context, code string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE links
		SET access_count = access_count + 1, last_accessed_at = $2
		WHERE short_code = $1`,
		code, toTimestamptz(at),
	)
	if err != nil {
		return links.WrapStorage("increment visit", err)
	}
	if tag.RowsAffected() == 0 {
		return links.ErrNotFound
	}
	return nil
}

func (r *LinksRepository) UpdateURL(ctx context.Context, code, newURL string) (*links.Link, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE links SET original_url = $2
		WHERE short_code = $1
		RETURNING `+linkColumns,
		code, newURL,
	)
	return scanLink(row, "update url")
}

func (r *LinksRepository) DeleteByCode(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM links WHERE short_code = $1`, code)
	if err != nil {
		return false, links.WrapStorage("delete by code", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LinksRepository) DeleteByAlias(ctx context.Context, alias string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM links WHERE custom_alias = $1`, alias)
	if err != nil {
		return false, links.WrapStorage("delete by alias", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LinksRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, links.WrapStorage("delete expired", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		DELETE FROM links
		WHERE expires_at IS NOT NULL AND expires_at < $1`,
		toTimestamptz(now),
	)
	if err != nil {
		return 0, links.WrapStorage("delete expired", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, links.WrapStorage("delete expired", err)
	}
	tx = nil

	return tag.RowsAffected(), nil
}

func scanLink(row pgx.Row, op string) (*links.Link, error) {
	var (
		out            links.Link
		alias, owner   pgtype.Text
		createdAt      pgtype.Timestamptz
		expiresAt      pgtype.Timestamptz
		lastAccessedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&out.ShortCode,
		&out.OriginalURL,
		&alias,
		&owner,
		&createdAt,
		&expiresAt,
		&lastAccessedAt,
		&out.AccessCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, links.ErrNotFound
		}
		return nil, links.WrapStorage(op, err)
	}

	out.CustomAlias = nullableTextValue(alias)
	out.OwnerID = nullableTextValue(owner)
	out.CreatedAt = createdAt.Time.UTC()
	out.ExpiresAt = nullableTimeValue(expiresAt)
	out.LastAccessedAt = nullableTimeValue(lastAccessedAt)

	return &out, nil
}

func toNullableText(v *string) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *v, Valid: true}
}

func nullableTextValue(v pgtype.Text) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func toTimestamptz(v time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  v.UTC(),
		Valid: true,
	}
}

func toNullableTimestamptz(v *time.Time) pgtype.Timestamptz {
	if v == nil {
		return pgtype.Timestamptz{}
	}
	return toTimestamptz(*v)
}

func nullableTimeValue(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
