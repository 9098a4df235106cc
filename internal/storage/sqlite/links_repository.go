package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
)

// Timestamps are stored as unix microseconds so range comparisons stay numeric.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	short_code       TEXT NOT NULL,
	original_url     TEXT NOT NULL,
	custom_alias     TEXT,
	owner_id         TEXT,
	created_at       INTEGER NOT NULL,
	expires_at       INTEGER,
	last_accessed_at INTEGER,
	access_count     INTEGER NOT NULL DEFAULT 0,
	CONSTRAINT links_short_code_key UNIQUE (short_code),
	CONSTRAINT links_custom_alias_key UNIQUE (custom_alias)
);
CREATE INDEX IF NOT EXISTS idx_links_original_url ON links(original_url);
CREATE INDEX IF NOT EXISTS idx_links_expires_at ON links(expires_at);

CREATE TABLE IF NOT EXISTS link_visits (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	link_id     INTEGER NOT NULL REFERENCES links(id) ON DELETE CASCADE,
	accessed_at INTEGER NOT NULL,
	ip_address  TEXT,
	user_agent  TEXT
);
CREATE INDEX IF NOT EXISTS idx_link_visits_link_id ON link_visits(link_id);
`

const linkColumns = `short_code, original_url, custom_alias, owner_id, created_at, expires_at, last_accessed_at, access_count`

type LinksRepository struct {
	db *sql.DB
}

func NewLinksRepository(ctx context.Context, s *db.SQLite) (*LinksRepository, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("sqlite database is nil")
	}
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return nil, err
	}
	return &LinksRepository{db: s.DB}, nil
}

func (r *LinksRepository) Save(ctx context.Context, link *links.Link) error {
	if link == nil {
		return errors.New("link is nil")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO links (`+linkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ShortCode,
		link.OriginalURL,
		nullString(link.CustomAlias),
		nullString(link.OwnerID),
		toMicros(link.CreatedAt),
		nullMicros(link.ExpiresAt),
		nullMicros(link.LastAccessedAt),
		link.AccessCount,
	)
	if err == nil {
		return nil
	}

	// Both drivers surface the constraint as text: "UNIQUE constraint failed: links.custom_alias".
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		if strings.Contains(msg, "custom_alias") {
			return &links.ConflictError{Field: links.FieldCustomAlias, Value: link.Alias()}
		}
		return &links.ConflictError{Field: links.FieldShortCode, Value: link.ShortCode}
	}
	return links.WrapStorage("save", err)
}

func (r *LinksRepository) FindByCode(ctx context.Context, code string) (*links.Link, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE short_code = ?`, code)
	return scanLink(row, "find by code")
}

func (r *LinksRepository) FindByAlias(ctx context.Context, alias string) (*links.Link, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE custom_alias = ?`, alias)
	return scanLink(row, "find by alias")
}

func (r *LinksRepository) FindByOriginalURL(ctx context.Context, url string) (*links.Link, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+linkColumns+` FROM links
		WHERE original_url = ?
		ORDER BY created_at, id
		LIMIT 1`, url)
	return scanLink(row, "find by original url")
}

func (r *LinksRepository) IncrementVisit(ctx context.Context, code string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE links
		SET access_count = access_count + 1, last_accessed_at = ?
		WHERE short_code = ?`,
		toMicros(at), code,
	)
	if err != nil {
		return links.WrapStorage("increment visit", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return links.WrapStorage("increment visit", err)
	}
	if n == 0 {
		return links.ErrNotFound
	}
	return nil
}

func (r *LinksRepository) UpdateURL(ctx context.Context, code, newURL string) (*links.Link, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE links SET original_url = ?
		WHERE short_code = ?
		RETURNING `+linkColumns,
		newURL, code,
	)
	return scanLink(row, "update url")
}

func (r *LinksRepository) DeleteByCode(ctx context.Context, code string) (bool, error) {
	return r.deleteOne(ctx, "delete by code", `DELETE FROM links WHERE short_code = ?`, code)
}

func (r *LinksRepository) DeleteByAlias(ctx context.Context, alias string) (bool, error) {
	return r.deleteOne(ctx, "delete by alias", `DELETE FROM links WHERE custom_alias = ?`, alias)
}

func (r *LinksRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, links.WrapStorage("delete expired", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM links WHERE expires_at IS NOT NULL AND expires_at < ?`,
		toMicros(now),
	)
	if err != nil {
		return 0, links.WrapStorage("delete expired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, links.WrapStorage("delete expired", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, links.WrapStorage("delete expired", err)
	}
	tx = nil

	return n, nil
}

func (r *LinksRepository) deleteOne(ctx context.Context, op, query, arg string) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return false, links.WrapStorage(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, links.WrapStorage(op, err)
	}
	return n > 0, nil
}

func scanLink(row *sql.Row, op string) (*links.Link, error) {
	var (
		out                       links.Link
		alias, owner              sql.NullString
		createdAt                 int64
		expiresAt, lastAccessedAt sql.NullInt64
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, links.ErrNotFound
		}
		return nil, links.WrapStorage(op, err)
	}

	if alias.Valid {
		out.CustomAlias = &alias.String
	}
	if owner.Valid {
		out.OwnerID = &owner.String
	}
	out.CreatedAt = fromMicros(createdAt)
	out.ExpiresAt = nullTime(expiresAt)
	out.LastAccessedAt = nullTime(lastAccessedAt)

	return &out, nil
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

func nullMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMicros(*t), Valid: true}
}

func nullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMicros(v.Int64)
	return &t
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
