package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	domainerrors "github.com/tubearchive/tubearchive-server/internal/errors"
	"github.com/tubearchive/tubearchive-server/internal/search"
	"github.com/tubearchive/tubearchive-server/internal/store"
	"github.com/tubearchive/tubearchive-server/internal/store/storetest"
)

func seedArchive(t *testing.T, s store.Store) {
	t.Helper()

	storetest.Seed(t, s, testUser, domain.ContentTypeHistory,
		storetest.NewVideo(testUser, "h1", "Learning Go concurrency", "Gophers", domain.ContentTypeHistory, "2023-01-05"),
		storetest.NewVideo(testUser, "h2", "Café tour of Paris", "Travel", domain.ContentTypeHistory, "2023-01-20"),
		storetest.NewVideo(testUser, "h3", "Go generics deep dive", "Gophers", domain.ContentTypeHistory, "2023-02-11"),
		storetest.NewVideo(testUser, "h4", "Winter hiking", "Travel", domain.ContentTypeHistory, "2022-12-30"),
	)
	storetest.Seed(t, s, testUser, domain.ContentTypeLikes,
		storetest.NewVideo(testUser, "l1", "Bread baking basics", "Kitchen", domain.ContentTypeLikes, "2024-05-01"),
	)
}

func markRemoved(t *testing.T, s store.Store, ct domain.ContentType, url string) {
	t.Helper()
	ctx := context.Background()
	err := s.RunImport(ctx, testUser, ct, func(tx store.ImportTx) error {
		videos, err := tx.CategoryVideos(ctx)
		if err != nil {
			return err
		}
		for _, v := range videos {
			if v.URL == url {
				v.IsRemoved = true
				return tx.UpdateVideo(ctx, v)
			}
		}
		return errors.New("not found")
	})
	require.NoError(t, err)
}

func titles(page *VideoPage) []string {
	out := make([]string, len(page.Page))
	for i, v := range page.Page {
		out[i] = v.Title
	}
	return out
}

func TestVideoService_ListVideos(t *testing.T) {
	s := newTestStore(t)
	seedArchive(t, s)
	markRemoved(t, s, domain.ContentTypeHistory, "h4")
	svc := NewVideoService(s, nil, nil)

	tests := []struct {
		name  string
		query VideoQuery
		want  []string
	}{
		{
			name: "newest first",
			want: []string{"Bread baking basics", "Winter hiking", "Go generics deep dive", "Café tour of Paris", "Learning Go concurrency"},
		},
		{
			name:  "channel",
			query: VideoQuery{Channel: "Gophers"},
			want:  []string{"Go generics deep dive", "Learning Go concurrency"},
		},
		{
			name:  "year",
			query: VideoQuery{Year: "2023"},
			want:  []string{"Go generics deep dive", "Café tour of Paris", "Learning Go concurrency"},
		},
		{
			name:  "month",
			query: VideoQuery{Month: "2023-01"},
			want:  []string{"Café tour of Paris", "Learning Go concurrency"},
		},
		{
			name:  "exact date",
			query: VideoQuery{Date: "2023-02-11"},
			want:  []string{"Go generics deep dive"},
		},
		{
			name:  "live only",
			query: VideoQuery{ShowRemoved: boolPtr(false), ContentType: "History"},
			want:  []string{"Go generics deep dive", "Café tour of Paris", "Learning Go concurrency"},
		},
		{
			name:  "removed only",
			query: VideoQuery{ShowRemoved: boolPtr(true)},
			want:  []string{"Winter hiking"},
		},
		{
			name:  "content type",
			query: VideoQuery{ContentType: "likes"},
			want:  []string{"Bread baking basics"},
		},
		{
			name:  "folded search",
			query: VideoQuery{SearchQuery: "CAFE"},
			want:  []string{"Café tour of Paris"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListVideos(context.Background(), testUser, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(page))
			assert.True(t, page.IsDone)
			assert.Empty(t, page.ContinueCursor)
		})
	}
}

func TestVideoService_ListVideos_Pagination(t *testing.T) {
	s := newTestStore(t)
	seedArchive(t, s)
	svc := NewVideoService(s, nil, nil)
	ctx := context.Background()

	var seen []string
	cursor := ""
	for {
		page, err := svc.ListVideos(ctx, testUser, VideoQuery{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		seen = append(seen, titles(page)...)
		if page.IsDone {
			break
		}
		require.NotEmpty(t, page.ContinueCursor)
		cursor = page.ContinueCursor
	}
	assert.Len(t, seen, 5)
}

func TestVideoService_ListVideos_Errors(t *testing.T) {
	s := newTestStore(t)
	svc := NewVideoService(s, nil, nil)
	ctx := context.Background()

	_, err := svc.ListVideos(ctx, "", VideoQuery{})
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthenticated))

	_, err = svc.ListVideos(ctx, testUser, VideoQuery{Cursor: "!!not-a-cursor"})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	_, err = svc.ListVideos(ctx, testUser, VideoQuery{ContentType: "Favorites"})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestVideoService_ListVideos_IndexedSearch(t *testing.T) {
	s := newTestStore(t)
	seedArchive(t, s)
	idx := newTestIndex(t)
	_, err := idx.Reindex(context.Background(), s)
	require.NoError(t, err)

	svc := NewVideoService(s, idx, nil)
	ctx := context.Background()

	page, err := svc.ListVideos(ctx, testUser, VideoQuery{SearchQuery: "gener"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go generics deep dive"}, titles(page))

	page, err = svc.ListVideos(ctx, testUser, VideoQuery{SearchQuery: "go", Month: "2023-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Learning Go concurrency"}, titles(page))

	page, err = svc.ListVideos(ctx, "someone-else", VideoQuery{SearchQuery: "go"})
	require.NoError(t, err)
	assert.Empty(t, page.Page)
}

func TestVideoService_ListVideos_IndexFailureFallsBack(t *testing.T) {
	s := newTestStore(t)
	seedArchive(t, s)
	svc := NewVideoService(s, failingIndex{}, nil)

	page, err := svc.ListVideos(context.Background(), testUser, VideoQuery{SearchQuery: "winter"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Winter hiking"}, titles(page))
}

var _ TitleIndex = (*search.SearchIndex)(nil)

func TestVideoService_Aggregates(t *testing.T) {
	s := newTestStore(t)
	seedArchive(t, s)
	markRemoved(t, s, domain.ContentTypeHistory, "h4")
	svc := NewVideoService(s, nil, nil)
	ctx := context.Background()

	channels, err := svc.Channels(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gophers", "Kitchen", "Travel"}, channels)

	count, err := svc.VideoCount(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	removed, err := svc.RemovedVideoCount(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	timeline, err := svc.Timeline(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, []domain.TimelineYear{
		{Year: "2024", Count: 1, Months: []domain.TimelineMonth{{Month: "2024-05", Count: 1}}},
		{Year: "2023", Count: 3, Months: []domain.TimelineMonth{
			{Month: "2023-02", Count: 1},
			{Month: "2023-01", Count: 2},
		}},
	}, timeline)
}

func TestVideoService_AggregatesUnauthenticated(t *testing.T) {
	s := newTestStore(t)
	seedArchive(t, s)
	svc := NewVideoService(s, nil, nil)
	ctx := context.Background()

	channels, err := svc.Channels(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, channels)

	count, err := svc.VideoCount(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, count)

	removed, err := svc.RemovedVideoCount(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, removed)

	timeline, err := svc.Timeline(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, timeline)
}
