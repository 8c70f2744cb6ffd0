package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubearchive/tubearchive-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func video(id, userID, title, channel string, ct domain.ContentType, seq int64) *domain.Video {
	return &domain.Video{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Channel:     channel,
		ContentType: ct,
		Seq:         seq,
	}
}

func fixtures() []*domain.Video {
	removed := video("v4", "u1", "Go generics deep dive", "Gophers", domain.ContentTypeHistory, 4)
	removed.IsRemoved = true
	return []*domain.Video{
		video("v1", "u1", "Go concurrency patterns", "Gophers", domain.ContentTypeHistory, 1),
		video("v2", "u1", "Café culture in Paris", "Travel", domain.ContentTypeLikes, 2),
		video("v3", "u1", "Gopher meetup recap", "Gophers", domain.ContentTypeHistory, 3),
		removed,
		video("v5", "u2", "Go concurrency patterns", "Gophers", domain.ContentTypeHistory, 5),
	}
}

func search(t *testing.T, index *SearchIndex, q TitleQuery) []string {
	t.Helper()
	res, err := index.SearchTitles(context.Background(), q)
	require.NoError(t, err)
	return res.IDs
}

func TestNewSearchIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewSearchIndex_RebuildsOnVersionChange(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexVideos(fixtures()))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, versionFileName), []byte("0"), 0o644))

	index, err = NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	version, err := os.ReadFile(filepath.Join(dir, versionFileName))
	require.NoError(t, err)
	assert.Equal(t, mappingVersion, string(version))
}

func TestSearchTitles_ScopedToUser(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexVideos(fixtures()))

	ids := search(t, index, TitleQuery{UserID: "u1", Query: "concurrency"})
	assert.Equal(t, []string{"v1"}, ids)

	ids = search(t, index, TitleQuery{UserID: "u2", Query: "concurrency"})
	assert.Equal(t, []string{"v5"}, ids)

	ids = search(t, index, TitleQuery{UserID: "u3", Query: "concurrency"})
	assert.Empty(t, ids)
}

func TestSearchTitles_Filters(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexVideos(fixtures()))

	live := false
	removed := true

	ids := search(t, index, TitleQuery{UserID: "u1", Query: "go", Removed: &live})
	assert.NotContains(t, ids, "v4")
	assert.Contains(t, ids, "v1")

	ids = search(t, index, TitleQuery{UserID: "u1", Query: "go", Removed: &removed})
	assert.Equal(t, []string{"v4"}, ids)

	ids = search(t, index, TitleQuery{UserID: "u1", Query: "cafe", ContentType: domain.ContentTypeLikes})
	assert.Equal(t, []string{"v2"}, ids)

	ids = search(t, index, TitleQuery{UserID: "u1", Query: "cafe", Channel: "Gophers"})
	assert.Empty(t, ids)
}

func TestSearchTitles_FoldsAccents(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexVideos(fixtures()))

	assert.Equal(t, []string{"v2"}, search(t, index, TitleQuery{UserID: "u1", Query: "CAFÉ"}))
	assert.Equal(t, []string{"v2"}, search(t, index, TitleQuery{UserID: "u1", Query: "cafe"}))
}

func TestSearchTitles_PrefixAndFuzzy(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexVideos(fixtures()))

	assert.Equal(t, []string{"v1"}, search(t, index, TitleQuery{UserID: "u1", Query: "concurr"}))
	assert.Contains(t, search(t, index, TitleQuery{UserID: "u1", Query: "meetp"}), "v3")
	assert.Equal(t, []string{"v1"}, search(t, index, TitleQuery{UserID: "u1", Query: "go concur"}))
}

func TestSearchTitles_RequiresUser(t *testing.T) {
	index := setupTestIndex(t)
	_, err := index.SearchTitles(context.Background(), TitleQuery{Query: "go"})
	assert.Error(t, err)
}

func TestIndexVideos_ReplacesDocument(t *testing.T) {
	index := setupTestIndex(t)
	videos := fixtures()
	require.NoError(t, index.IndexVideos(videos))

	videos[0].Title = "Rust ownership explained"
	require.NoError(t, index.IndexVideos(videos[:1]))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(videos)), count)

	assert.Empty(t, search(t, index, TitleQuery{UserID: "u1", Query: "concurrency"}))
	assert.Equal(t, []string{"v1"}, search(t, index, TitleQuery{UserID: "u1", Query: "ownership"}))
}

func TestSearchTitles_CollectsEveryPage(t *testing.T) {
	old := hitsPerRequest
	hitsPerRequest = 3
	t.Cleanup(func() { hitsPerRequest = old })

	index := setupTestIndex(t)
	var videos []*domain.Video
	for i := range 7 {
		videos = append(videos, video(fmt.Sprintf("g%d", i), "u1", fmt.Sprintf("Gopher talk %d", i), "Gophers", domain.ContentTypeHistory, int64(i)))
	}
	require.NoError(t, index.IndexVideos(videos))

	res, err := index.SearchTitles(context.Background(), TitleQuery{UserID: "u1", Query: "gopher"})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), res.Total)
	assert.Len(t, res.IDs, 7)
	assert.ElementsMatch(t, []string{"g0", "g1", "g2", "g3", "g4", "g5", "g6"}, res.IDs)

	res, err = index.SearchTitles(context.Background(), TitleQuery{UserID: "u1", Query: "gopher", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), res.Total)
	assert.Len(t, res.IDs, 2)
}

type sliceSource []*domain.Video

func (s sliceSource) EachVideo(_ context.Context, fn func(*domain.Video) error) error {
	for _, v := range s {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

func TestEnsurePopulated(t *testing.T) {
	index := setupTestIndex(t)
	src := sliceSource(fixtures())

	require.NoError(t, index.EnsurePopulated(context.Background(), src))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)

	// A populated index is left alone.
	require.NoError(t, index.EnsurePopulated(context.Background(), sliceSource{
		video("v9", "u1", "Extra", "X", domain.ContentTypeHistory, 9),
	}))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
}

func TestRebuild(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexVideos(fixtures()))
	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	n, err := index.Reindex(context.Background(), sliceSource(fixtures()))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
