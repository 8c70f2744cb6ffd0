// Package storetest is a conformance suite every store backend must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/store"
)

// Factory opens an empty store that lives for the duration of t.
type Factory func(t *testing.T) store.Store

// Run executes the whole suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("ImportInsertAndUpdate", func(t *testing.T) { testImportInsertAndUpdate(t, newStore(t)) })
	t.Run("ImportRollback", func(t *testing.T) { testImportRollback(t, newStore(t)) })
	t.Run("ImportCategoryScope", func(t *testing.T) { testImportCategoryScope(t, newStore(t)) })
	t.Run("ListVideos", func(t *testing.T) { testListVideos(t, newStore(t)) })
	t.Run("ListVideosPagination", func(t *testing.T) { testListVideosPagination(t, newStore(t)) })
	t.Run("Aggregates", func(t *testing.T) { testAggregates(t, newStore(t)) })
	t.Run("Receipts", func(t *testing.T) { testReceipts(t, newStore(t)) })
}

var base = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// NewUser returns a user with the given id and email.
func NewUser(id, email string) *domain.User {
	return &domain.User{
		ID:          id,
		Email:       email,
		DisplayName: "Test User",
		CreatedAt:   base,
		UpdatedAt:   base,
		LastLoginAt: base,
	}
}

// NewVideo returns a live record with sensible defaults.
func NewVideo(userID, url, title, channel string, ct domain.ContentType, parsedDate string) *domain.Video {
	return &domain.Video{
		ID:          "vid-" + userID + "-" + string(ct) + "-" + url,
		UserID:      userID,
		Title:       title,
		URL:         url,
		Channel:     channel,
		Thumbnail:   "https://img.example/" + url + ".jpg",
		ScrapedAt:   "2025-06-15T10:00:00.000Z",
		ParsedDate:  parsedDate,
		ContentType: ct,
		LastSeen:    "import_seed",
		CreatedAt:   base,
		UpdatedAt:   base,
	}
}

// Seed inserts videos in order through a single import.
func Seed(t *testing.T, s store.Store, userID string, ct domain.ContentType, videos ...*domain.Video) {
	t.Helper()
	err := s.RunImport(context.Background(), userID, ct, func(tx store.ImportTx) error {
		for _, v := range videos {
			if err := tx.InsertVideo(context.Background(), v); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func urls(videos []*domain.Video) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.URL
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	alice := NewUser("user-1", "Alice@Example.com")
	alice.PasswordHash = "$argon2id$fake"
	require.NoError(t, s.CreateUser(ctx, alice))

	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice@Example.com", got.Email)
	assert.Equal(t, "$argon2id$fake", got.PasswordHash)
	assert.True(t, got.CreatedAt.Equal(base))

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byEmail.ID)

	err = s.CreateUser(ctx, NewUser("user-2", "alice@example.com"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	// Anonymous users have no email and never collide.
	anon1 := NewUser("anon-1", "")
	anon1.IsAnonymous = true
	anon2 := NewUser("anon-2", "")
	anon2.IsAnonymous = true
	require.NoError(t, s.CreateUser(ctx, anon1))
	require.NoError(t, s.CreateUser(ctx, anon2))

	gotAnon, err := s.GetUser(ctx, "anon-1")
	require.NoError(t, err)
	assert.True(t, gotAnon.IsAnonymous)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Upgrading an anonymous account attaches an email.
	anon1.Email = "bob@example.com"
	anon1.IsAnonymous = false
	require.NoError(t, s.UpdateUser(ctx, anon1))
	upgraded, err := s.GetUserByEmail(ctx, "BOB@example.com")
	require.NoError(t, err)
	assert.Equal(t, "anon-1", upgraded.ID)
	assert.False(t, upgraded.IsAnonymous)

	anon2.Email = "ALICE@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, anon2), store.ErrAlreadyExists)

	assert.ErrorIs(t, s.UpdateUser(ctx, NewUser("ghost", "")), store.ErrNotFound)
}

func testSessions(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("user-1", "a@example.com")))

	live := &domain.Session{
		ID:               "sess-1",
		UserID:           "user-1",
		RefreshTokenHash: "hash-1",
		ExpiresAt:        base.Add(time.Hour),
		CreatedAt:        base,
		LastSeenAt:       base,
		IPAddress:        "127.0.0.1",
		UserAgent:        "test",
	}
	expired := &domain.Session{
		ID:               "sess-2",
		UserID:           "user-1",
		RefreshTokenHash: "hash-2",
		ExpiresAt:        base.Add(-time.Hour),
		CreatedAt:        base.Add(-2 * time.Hour),
		LastSeenAt:       base.Add(-2 * time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, live))
	require.NoError(t, s.CreateSession(ctx, expired))
	assert.ErrorIs(t, s.CreateSession(ctx, live), store.ErrAlreadyExists)

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", got.RefreshTokenHash)
	assert.Equal(t, "test", got.UserAgent)
	assert.True(t, got.ExpiresAt.Equal(live.ExpiresAt))

	byHash, err := s.GetSessionByRefreshHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", byHash.ID)

	// Rotation replaces the old hash.
	live.RefreshTokenHash = "hash-1b"
	require.NoError(t, s.UpdateSession(ctx, live))
	_, err = s.GetSessionByRefreshHash(ctx, "hash-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	rotated, err := s.GetSessionByRefreshHash(ctx, "hash-1b")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", rotated.ID)

	n, err := s.DeleteExpiredSessions(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.GetSession(ctx, "sess-2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeleteSession(ctx, "sess-1"))
	assert.ErrorIs(t, s.DeleteSession(ctx, "sess-1"), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateSession(ctx, live), store.ErrNotFound)
}

func testImportInsertAndUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := NewVideo("u1", "a", "First", "Chan", domain.ContentTypeHistory, "2025-06-01")
	b := NewVideo("u1", "b", "Second", "Chan", domain.ContentTypeHistory, "2025-06-02")
	Seed(t, s, "u1", domain.ContentTypeHistory, a, b)

	assert.Positive(t, a.Seq)
	assert.Greater(t, b.Seq, a.Seq)

	err := s.RunImport(ctx, "u1", domain.ContentTypeHistory, func(tx store.ImportTx) error {
		videos, err := tx.CategoryVideos(ctx)
		if err != nil {
			return err
		}
		if len(videos) != 2 {
			return fmt.Errorf("expected 2 category videos, got %d", len(videos))
		}
		for _, v := range videos {
			if v.URL == "a" {
				v.Title = "First (edited)"
				v.MarkRemoved(base.Add(time.Minute))
				if err := tx.UpdateVideo(ctx, v); err != nil {
					return err
				}
			}
		}

		// A record inserted earlier in the same import is visible.
		c := NewVideo("u1", "c", "Third", "Other", domain.ContentTypeHistory, "2025-06-03")
		if err := tx.InsertVideo(ctx, c); err != nil {
			return err
		}
		videos, err = tx.CategoryVideos(ctx)
		if err != nil {
			return err
		}
		if len(videos) != 3 {
			return fmt.Errorf("expected 3 category videos after insert, got %d", len(videos))
		}
		return nil
	})
	require.NoError(t, err)

	got, err := s.GetVideosByIDs(ctx, "u1", []string{a.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "First (edited)", got[0].Title)
	assert.True(t, got[0].IsRemoved)
	assert.Equal(t, a.Seq, got[0].Seq)

	// Updating a record that does not exist fails the import.
	err = s.RunImport(ctx, "u1", domain.ContentTypeHistory, func(tx store.ImportTx) error {
		return tx.UpdateVideo(ctx, NewVideo("u1", "zzz", "Nope", "Chan", domain.ContentTypeHistory, "2025-06-01"))
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testImportRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunImport(ctx, "u1", domain.ContentTypeLikes, func(tx store.ImportTx) error {
		v := NewVideo("u1", "a", "Kept?", "Chan", domain.ContentTypeLikes, "2025-06-01")
		if err := tx.InsertVideo(ctx, v); err != nil {
			return err
		}
		if err := tx.InsertReceipt(ctx, &domain.ImportReceipt{
			ID: "imp-1", UserID: "u1", ImportID: "import_x", ImportedAt: base,
			VideoCount: 1, ContentType: domain.ContentTypeLikes,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.CountVideos(ctx, "u1", false)
	require.NoError(t, err)
	assert.Zero(t, n)

	receipts, err := s.ListImports(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func testImportCategoryScope(t *testing.T, s store.Store) {
	ctx := context.Background()

	Seed(t, s, "u1", domain.ContentTypeHistory,
		NewVideo("u1", "shared", "Shared", "Chan", domain.ContentTypeHistory, "2025-06-01"),
		NewVideo("u1", "hist-only", "History only", "Chan", domain.ContentTypeHistory, "2025-06-01"),
	)
	Seed(t, s, "u2", domain.ContentTypeLikes,
		NewVideo("u2", "other-user", "Other user", "Chan", domain.ContentTypeLikes, "2025-06-01"),
	)

	err := s.RunImport(ctx, "u1", domain.ContentTypeLikes, func(tx store.ImportTx) error {
		videos, err := tx.CategoryVideos(ctx)
		if err != nil {
			return err
		}
		assert.Empty(t, videos, "likes category of u1 must start empty")

		inOther, err := tx.URLInOtherCategory(ctx, "shared")
		if err != nil {
			return err
		}
		assert.True(t, inOther)

		inOther, err = tx.URLInOtherCategory(ctx, "other-user")
		if err != nil {
			return err
		}
		assert.False(t, inOther, "other users' records are invisible")

		liked := NewVideo("u1", "shared", "Shared", "Chan", domain.ContentTypeLikes, "2025-06-01")
		return tx.InsertVideo(ctx, liked)
	})
	require.NoError(t, err)

	err = s.RunImport(ctx, "u1", domain.ContentTypeLikes, func(tx store.ImportTx) error {
		inOther, err := tx.URLInOtherCategory(ctx, "shared")
		if err != nil {
			return err
		}
		assert.True(t, inOther)

		// The same url in its own category does not count as "other".
		inOther, err = tx.URLInOtherCategory(ctx, "nowhere")
		if err != nil {
			return err
		}
		assert.False(t, inOther)

		videos, err := tx.CategoryVideos(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, []string{"shared"}, urls(videos))
		return nil
	})
	require.NoError(t, err)
}

func testListVideos(t *testing.T, s store.Store) {
	ctx := context.Background()

	removed := NewVideo("u1", "r", "Old removed clip", "Beta", domain.ContentTypeHistory, "2024-12-31")
	removed.IsRemoved = true
	Seed(t, s, "u1", domain.ContentTypeHistory,
		removed,
		NewVideo("u1", "1", "Café au lait recipe", "Alpha", domain.ContentTypeHistory, "2025-05-20"),
		NewVideo("u1", "2", "Go concurrency patterns", "Beta", domain.ContentTypeHistory, "2025-06-01"),
		NewVideo("u1", "3", "Rust vs Go", "alpha", domain.ContentTypeHistory, "Yesterday"),
	)
	Seed(t, s, "u1", domain.ContentTypeLikes,
		NewVideo("u1", "4", "Liked GO talk", "Alpha", domain.ContentTypeLikes, "2025-06-01"),
	)
	Seed(t, s, "u2", domain.ContentTypeHistory,
		NewVideo("u2", "x", "Go for other user", "Alpha", domain.ContentTypeHistory, "2025-06-01"),
	)

	list := func(f store.VideoFilter) []string {
		t.Helper()
		res, err := s.ListVideos(ctx, "u1", f, store.PaginationParams{})
		require.NoError(t, err)
		assert.Equal(t, len(res.Items), res.Total)
		return urls(res.Items)
	}

	tests := []struct {
		name   string
		filter store.VideoFilter
		want   []string
	}{
		{"no filter lists everything newest first", store.VideoFilter{}, []string{"4", "3", "2", "1", "r"}},
		{"live only", store.VideoFilter{Removed: boolPtr(false)}, []string{"4", "3", "2", "1"}},
		{"removed only", store.VideoFilter{Removed: boolPtr(true)}, []string{"r"}},
		{"channel is case-sensitive", store.VideoFilter{Channel: "Alpha"}, []string{"4", "1"}},
		{"exact date", store.VideoFilter{Date: "2025-06-01"}, []string{"4", "2"}},
		{"relative date text", store.VideoFilter{Date: "Yesterday"}, []string{"3"}},
		{"content type", store.VideoFilter{ContentType: domain.ContentTypeLikes}, []string{"4"}},
		{"year prefix", store.VideoFilter{Year: "2024"}, []string{"r"}},
		{"month prefix", store.VideoFilter{Month: "2025-05"}, []string{"1"}},
		{"search is case-insensitive", store.VideoFilter{Search: "go"}, []string{"4", "3", "2"}},
		{"search folds accents", store.VideoFilter{Search: "cafe"}, []string{"1"}},
		{"search needs every term", store.VideoFilter{Search: "go rust"}, []string{"3"}},
		{"search treats wildcards literally", store.VideoFilter{Search: "%"}, []string{}},
		{"filters combine", store.VideoFilter{Search: "go", Channel: "Beta", Removed: boolPtr(false)}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, list(tt.filter))
		})
	}
}

func testListVideosPagination(t *testing.T, s store.Store) {
	ctx := context.Background()

	videos := make([]*domain.Video, 0, 5)
	for i := range 5 {
		videos = append(videos, NewVideo("u1", fmt.Sprintf("v%d", i), fmt.Sprintf("Video %d", i), "Chan", domain.ContentTypeHistory, "2025-06-01"))
	}
	Seed(t, s, "u1", domain.ContentTypeHistory, videos...)

	var got []string
	page := store.PaginationParams{Limit: 2}
	for range 10 {
		res, err := s.ListVideos(ctx, "u1", store.VideoFilter{}, page)
		require.NoError(t, err)
		assert.Equal(t, 5, res.Total)
		got = append(got, urls(res.Items)...)
		if !res.HasMore {
			assert.Empty(t, res.NextCursor)
			break
		}
		require.NotEmpty(t, res.NextCursor)
		page.Cursor = res.NextCursor
	}
	assert.Equal(t, []string{"v4", "v3", "v2", "v1", "v0"}, got)

	_, err := s.ListVideos(ctx, "u1", store.VideoFilter{}, store.PaginationParams{Cursor: "!!not-a-cursor"})
	assert.ErrorIs(t, err, store.ErrInvalidCursor)

	res, err := s.ListVideos(ctx, "nobody", store.VideoFilter{}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.False(t, res.HasMore)
}

func testAggregates(t *testing.T, s store.Store) {
	ctx := context.Background()

	gone := NewVideo("u1", "gone", "Gone", "Zeta", domain.ContentTypeHistory, "2023-01-01")
	gone.IsRemoved = true
	a := NewVideo("u1", "a", "A", "beta", domain.ContentTypeHistory, "2025-06-01")
	b := NewVideo("u1", "b", "B", "Beta", domain.ContentTypeHistory, "2025-05-01")
	c := NewVideo("u1", "c", "C", "Beta", domain.ContentTypeLikes, "2025-06-02")
	Seed(t, s, "u1", domain.ContentTypeHistory, gone, a, b)
	Seed(t, s, "u1", domain.ContentTypeLikes, c)

	channels, err := s.ListChannels(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta", "beta"}, channels)

	live, err := s.CountVideos(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 3, live)

	removedCount, err := s.CountVideos(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, removedCount)

	dates, err := s.ListLiveParsedDates(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2025-06-01", "2025-05-01", "2025-06-02"}, dates)

	got, err := s.GetVideosByIDs(ctx, "u1", []string{c.ID, "missing", a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, urls(got))

	foreign, err := s.GetVideosByIDs(ctx, "u2", []string{a.ID})
	require.NoError(t, err)
	assert.Empty(t, foreign)

	var seen []string
	require.NoError(t, s.EachVideo(ctx, func(v *domain.Video) error {
		seen = append(seen, v.URL)
		return nil
	}))
	assert.Equal(t, []string{"gone", "a", "b", "c"}, seen)

	empty, err := s.ListChannels(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testReceipts(t *testing.T, s store.Store) {
	ctx := context.Background()

	for i, ct := range []domain.ContentType{domain.ContentTypeHistory, domain.ContentTypeLikes} {
		r := &domain.ImportReceipt{
			ID:          fmt.Sprintf("imp-%d", i),
			UserID:      "u1",
			ImportID:    fmt.Sprintf("import_%d", i),
			ImportedAt:  base.Add(time.Duration(i) * time.Hour),
			VideoCount:  10 + i,
			ContentType: ct,
		}
		err := s.RunImport(ctx, "u1", ct, func(tx store.ImportTx) error {
			return tx.InsertReceipt(ctx, r)
		})
		require.NoError(t, err)
	}

	receipts, err := s.ListImports(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, "import_1", receipts[0].ImportID)
	assert.Equal(t, domain.ContentTypeLikes, receipts[0].ContentType)
	assert.Equal(t, 11, receipts[0].VideoCount)
	assert.True(t, receipts[0].ImportedAt.Equal(base.Add(time.Hour)))
	assert.Equal(t, "import_0", receipts[1].ImportID)

	other, err := s.ListImports(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
