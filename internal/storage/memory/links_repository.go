// Package memory is a process-local link store used for development and tests.
package memory

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
)

type LinkRepository struct {
	byCode  *xsync.MapOf[string, *links.Link]
	byAlias *xsync.MapOf[string, string]
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{
		byCode:  xsync.NewMapOf[string, *links.Link](),
		byAlias: xsync.NewMapOf[string, string](),
	}
}

func (r *LinkRepository) Save(ctx context.Context, link *links.Link) error {
	if err := ctx.Err(); err != nil {
		return links.WrapStorage("save", err)
	}

	stored := clone(link)
	alias := link.Alias()

	if alias != "" {
		if _, loaded := r.byAlias.LoadOrStore(alias, link.ShortCode); loaded {
			return &links.ConflictError{Field: links.FieldCustomAlias, Value: alias}
		}
	}

	if _, loaded := r.byCode.LoadOrStore(link.ShortCode, stored); loaded {
		if alias != "" {
			r.releaseAlias(alias, link.ShortCode)
		}
		return &links.ConflictError{Field: links.FieldShortCode, Value: link.ShortCode}
	}

	return nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*links.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, links.WrapStorage("find by code", err)
	}

	link, ok := r.byCode.Load(code)
	if !ok {
		return nil, links.ErrNotFound
	}
	return clone(link), nil
}

func (r *LinkRepository) FindByAlias(ctx context.Context, alias string) (*links.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, links.WrapStorage("find by alias", err)
	}

	code, ok := r.byAlias.Load(alias)
	if !ok {
		return nil, links.ErrNotFound
	}
	return r.FindByCode(ctx, code)
}

// FindByOriginalURL scans the store and returns the oldest link for url.
func (r *LinkRepository) FindByOriginalURL(ctx context.Context, url string) (*links.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, links.WrapStorage("find by original url", err)
	}

	var found *links.Link
	r.byCode.Range(func(_ string, l *links.Link) bool {
		if l.OriginalURL != url {
			return true
		}
		if found == nil || l.CreatedAt.Before(found.CreatedAt) ||
			(l.CreatedAt.Equal(found.CreatedAt) && l.ShortCode < found.ShortCode) {
			found = l
		}
		return true
	})

	if found == nil {
		return nil, links.ErrNotFound
	}
	return clone(found), nil
}

func (r *LinkRepository) IncrementVisit(ctx context.Context, code string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return links.WrapStorage("increment visit", err)
	}

	at = at.UTC()
	_, ok := r.byCode.Compute(code, func(old *links.Link, loaded bool) (*links.Link, bool) {
		if !loaded {
			return nil, true
		}
		next := clone(old)
		next.AccessCount++
		next.LastAccessedAt = &at
		return next, false
	})
	if !ok {
		return links.ErrNotFound
	}
	return nil
}

func (r *LinkRepository) UpdateURL(ctx context.Context, code, newURL string) (*links.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, links.WrapStorage("update url", err)
	}

	updated, ok := r.byCode.Compute(code, func(old *links.Link, loaded bool) (*links.Link, bool) {
		if !loaded {
			return nil, true
		}
		next := clone(old)
		next.OriginalURL = newURL
		return next, false
	})
	if !ok {
		return nil, links.ErrNotFound
	}
	return clone(updated), nil
}

func (r *LinkRepository) DeleteByCode(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, links.WrapStorage("delete by code", err)
	}

	link, ok := r.byCode.LoadAndDelete(code)
	if !ok {
		return false, nil
	}
	if alias := link.Alias(); alias != "" {
		r.releaseAlias(alias, code)
	}
	return true, nil
}

func (r *LinkRepository) DeleteByAlias(ctx context.Context, alias string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, links.WrapStorage("delete by alias", err)
	}

	code, ok := r.byAlias.LoadAndDelete(alias)
	if !ok {
		return false, nil
	}
	_, ok = r.byCode.LoadAndDelete(code)
	return ok, nil
}

func (r *LinkRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, links.WrapStorage("delete expired", err)
	}

	var candidates []string
	r.byCode.Range(func(code string, l *links.Link) bool {
		if l.ExpiredAt(now) {
			candidates = append(candidates, code)
		}
		return true
	})

	var deleted int64
	for _, code := range candidates {
		var alias string
		removed := false
		r.byCode.Compute(code, func(old *links.Link, loaded bool) (*links.Link, bool) {
			if !loaded || !old.ExpiredAt(now) {
				return old, !loaded
			}
			alias = old.Alias()
			removed = true
			return nil, true
		})
		if !removed {
			continue
		}
		if alias != "" {
			r.releaseAlias(alias, code)
		}
		deleted++
	}

	return deleted, nil
}

// Len reports the number of stored links.
func (r *LinkRepository) Len() int {
	return r.byCode.Size()
}

// releaseAlias drops the alias mapping only while it still points at code.
func (r *LinkRepository) releaseAlias(alias, code string) {
	r.byAlias.Compute(alias, func(old string, loaded bool) (string, bool) {
		if !loaded {
			return old, true
		}
		return old, old == code
	})
}

func clone(l *links.Link) *links.Link {
	if l == nil {
		return nil
	}
	cp := *l
	return &cp
}
