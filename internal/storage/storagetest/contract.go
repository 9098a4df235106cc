// Package storagetest holds the behaviour every links.LinkRepository must share.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
)

// Factory returns an empty repository for a single subtest.
type Factory func(t *testing.T) links.LinkRepository

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newLink(code, url string) *links.Link {
	return &links.Link{ShortCode: code, OriginalURL: url, CreatedAt: base}
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func RunLinkRepository(t *testing.T, factory Factory) {
	t.Run("SaveAndFind", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		l := newLink("code000001", "https://example.com/a")
		l.CustomAlias = strPtr("alias-a")
		l.OwnerID = strPtr("owner-1")
		l.ExpiresAt = timePtr(base.Add(time.Hour))
		require.NoError(t, repo.Save(ctx, l))

		got, err := repo.FindByCode(ctx, "code000001")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a", got.OriginalURL)
		assert.Equal(t, "alias-a", got.Alias())
		require.NotNil(t, got.OwnerID)
		assert.Equal(t, "owner-1", *got.OwnerID)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, got.ExpiresAt.Equal(base.Add(time.Hour)))
		assert.True(t, got.CreatedAt.Equal(base))
		assert.Nil(t, got.LastAccessedAt)
		assert.Zero(t, got.AccessCount)

		byAlias, err := repo.FindByAlias(ctx, "alias-a")
		require.NoError(t, err)
		assert.Equal(t, "code000001", byAlias.ShortCode)

		byURL, err := repo.FindByOriginalURL(ctx, "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "code000001", byURL.ShortCode)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		_, err := repo.FindByCode(ctx, "missing")
		assert.ErrorIs(t, err, links.ErrNotFound)
		_, err = repo.FindByAlias(ctx, "missing")
		assert.ErrorIs(t, err, links.ErrNotFound)
		_, err = repo.FindByOriginalURL(ctx, "https://nowhere.example.com")
		assert.ErrorIs(t, err, links.ErrNotFound)
		assert.ErrorIs(t, repo.IncrementVisit(ctx, "missing", base), links.ErrNotFound)
		_, err = repo.UpdateURL(ctx, "missing", "https://example.com")
		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("SaveConflicts", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		first := newLink("code000002", "https://example.com/b")
		first.CustomAlias = strPtr("taken")
		require.NoError(t, repo.Save(ctx, first))

		var conflict *links.ConflictError

		err := repo.Save(ctx, newLink("code000002", "https://example.com/other"))
		require.True(t, errors.As(err, &conflict), "got %v", err)
		assert.Equal(t, links.FieldShortCode, conflict.Field)

		second := newLink("code000003", "https://example.com/c")
		second.CustomAlias = strPtr("taken")
		err = repo.Save(ctx, second)
		require.True(t, errors.As(err, &conflict), "got %v", err)
		assert.Equal(t, links.FieldCustomAlias, conflict.Field)

		_, err = repo.FindByCode(ctx, "code000003")
		assert.ErrorIs(t, err, links.ErrNotFound, "rejected link must not be stored")
	})

	t.Run("NullAliasesDoNotConflict", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		require.NoError(t, repo.Save(ctx, newLink("code000004", "https://example.com/d")))
		require.NoError(t, repo.Save(ctx, newLink("code000005", "https://example.com/e")))
	})

	t.Run("OldestWinsOnSharedURL", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		newer := newLink("code000006", "https://shared.example.com")
		newer.CreatedAt = base.Add(time.Minute)
		older := newLink("code000007", "https://shared.example.com")
		require.NoError(t, repo.Save(ctx, newer))
		require.NoError(t, repo.Save(ctx, older))

		got, err := repo.FindByOriginalURL(ctx, "https://shared.example.com")
		require.NoError(t, err)
		assert.Equal(t, "code000007", got.ShortCode)
	})

	t.Run("IncrementVisit", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		require.NoError(t, repo.Save(ctx, newLink("code000008", "https://example.com/f")))

		at := base.Add(5 * time.Minute)
		require.NoError(t, repo.IncrementVisit(ctx, "code000008", at))
		require.NoError(t, repo.IncrementVisit(ctx, "code000008", at.Add(time.Second)))

		got, err := repo.FindByCode(ctx, "code000008")
		require.NoError(t, err)
		assert.EqualValues(t, 2, got.AccessCount)
		require.NotNil(t, got.LastAccessedAt)
		assert.True(t, got.LastAccessedAt.Equal(at.Add(time.Second)))
	})

	t.Run("ConcurrentIncrements", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		require.NoError(t, repo.Save(ctx, newLink("code000009", "https://example.com/g")))

		const workers, perWorker = 8, 25
		var wg sync.WaitGroup
		var failures atomic.Int32
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perWorker {
					if err := repo.IncrementVisit(ctx, "code000009", base); err != nil {
						failures.Add(1)
					}
				}
			}()
		}
		wg.Wait()

		require.Zero(t, failures.Load())
		got, err := repo.FindByCode(ctx, "code000009")
		require.NoError(t, err)
		assert.EqualValues(t, workers*perWorker, got.AccessCount)
	})

	t.Run("ConcurrentSaveOneWins", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		const workers = 8
		var wg sync.WaitGroup
		var wins, conflicts atomic.Int32
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Save(ctx, newLink("code000010", "https://example.com/h"))
				var conflict *links.ConflictError
				switch {
				case err == nil:
					wins.Add(1)
				case errors.As(err, &conflict):
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, wins.Load())
		assert.EqualValues(t, workers-1, conflicts.Load())
	})

	t.Run("UpdateURL", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		l := newLink("code000011", "https://example.com/old")
		l.CustomAlias = strPtr("keep-me")
		require.NoError(t, repo.Save(ctx, l))
		require.NoError(t, repo.IncrementVisit(ctx, "code000011", base))

		got, err := repo.UpdateURL(ctx, "code000011", "https://example.com/new")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/new", got.OriginalURL)
		assert.Equal(t, "code000011", got.ShortCode)
		assert.Equal(t, "keep-me", got.Alias())
		assert.EqualValues(t, 1, got.AccessCount)

		reread, err := repo.FindByCode(ctx, "code000011")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/new", reread.OriginalURL)
	})

	t.Run("DeleteByCode", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		l := newLink("code000012", "https://example.com/i")
		l.CustomAlias = strPtr("del-code")
		require.NoError(t, repo.Save(ctx, l))

		deleted, err := repo.DeleteByCode(ctx, "code000012")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.DeleteByCode(ctx, "code000012")
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = repo.FindByAlias(ctx, "del-code")
		assert.ErrorIs(t, err, links.ErrNotFound)

		reuse := newLink("code000013", "https://example.com/j")
		reuse.CustomAlias = strPtr("del-code")
		assert.NoError(t, repo.Save(ctx, reuse), "alias must be free after delete")
	})

	t.Run("DeleteByAlias", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		l := newLink("code000014", "https://example.com/k")
		l.CustomAlias = strPtr("del-alias")
		require.NoError(t, repo.Save(ctx, l))

		deleted, err := repo.DeleteByAlias(ctx, "del-alias")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.FindByCode(ctx, "code000014")
		assert.ErrorIs(t, err, links.ErrNotFound)

		deleted, err = repo.DeleteByAlias(ctx, "del-alias")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		now := base.Add(24 * time.Hour)

		expired := newLink("code000015", "https://example.com/l")
		expired.ExpiresAt = timePtr(now.Add(-time.Second))
		expired.CustomAlias = strPtr("gone-soon")
		boundary := newLink("code000016", "https://example.com/m")
		boundary.ExpiresAt = timePtr(now)
		future := newLink("code000017", "https://example.com/n")
		future.ExpiresAt = timePtr(now.Add(time.Hour))
		forever := newLink("code000018", "https://example.com/o")

		for _, l := range []*links.Link{expired, boundary, future, forever} {
			require.NoError(t, repo.Save(ctx, l))
		}

		n, err := repo.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		_, err = repo.FindByCode(ctx, "code000015")
		assert.ErrorIs(t, err, links.ErrNotFound)
		_, err = repo.FindByAlias(ctx, "gone-soon")
		assert.ErrorIs(t, err, links.ErrNotFound)

		for _, code := range []string{"code000016", "code000017", "code000018"} {
			_, err := repo.FindByCode(ctx, code)
			assert.NoError(t, err, code)
		}

		n, err = repo.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
