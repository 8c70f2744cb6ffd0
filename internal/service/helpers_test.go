package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tubearchive/tubearchive-server/internal/auth"
	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/search"
	"github.com/tubearchive/tubearchive-server/internal/store"
	"github.com/tubearchive/tubearchive-server/internal/store/sqlite"
)

// testHasherParams keep argon2 cheap in tests.
var testHasherParams = auth.Argon2Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestIndex(t *testing.T) *search.SearchIndex {
	t.Helper()

	idx, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

type authFixture struct {
	store    store.Store
	tokens   *auth.TokenService
	sessions *SessionService
	auth     *AuthService
}

func setupAuthTest(t *testing.T, opts AuthOptions) *authFixture {
	t.Helper()

	s := newTestStore(t)

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)

	tokens := auth.NewTokenService(key, 15*time.Minute, 30*24*time.Hour)
	sessions := NewSessionService(s, tokens, nil)
	authService := NewAuthService(s, tokens, sessions, auth.NewPasswordHasher(testHasherParams), nil, opts, nil)

	return &authFixture{
		store:    s,
		tokens:   tokens,
		sessions: sessions,
		auth:     authService,
	}
}

// observation builds an incoming record dated by its scrape timestamp.
func observation(url, title, channel string) domain.Observation {
	return domain.Observation{
		Title:     title,
		URL:       url,
		Channel:   channel,
		Thumbnail: "https://img.example/" + url + ".jpg",
		ScrapedAt: "2024-03-01T10:00:00Z",
	}
}

// batch builds n observations with urls u0..u(n-1).
func batch(n int) []domain.Observation {
	out := make([]domain.Observation, n)
	for i := range out {
		out[i] = observation(fmt.Sprintf("https://videos.example/watch?v=u%d", i), fmt.Sprintf("Video %d", i), "Channel")
		out[i].Idx = i
	}
	return out
}

func countVideos(t *testing.T, s store.Store, userID string) (live, removed int) {
	t.Helper()

	ctx := context.Background()
	live, err := s.CountVideos(ctx, userID, false)
	require.NoError(t, err)
	removed, err = s.CountVideos(ctx, userID, true)
	require.NoError(t, err)
	return live, removed
}

func allVideos(t *testing.T, s store.Store, userID string, ct domain.ContentType) []*domain.Video {
	t.Helper()

	res, err := s.ListVideos(context.Background(), userID, store.VideoFilter{ContentType: ct}, store.PaginationParams{Limit: store.MaxPageSize})
	require.NoError(t, err)
	return res.Items
}

func boolPtr(b bool) *bool { return &b }
