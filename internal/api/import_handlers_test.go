package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubearchive/tubearchive-server/internal/domain"
)

func record(url, title, channel string) map[string]any {
	return map[string]any{
		"idx":       0,
		"title":     title,
		"url":       url,
		"channel":   channel,
		"thumbnail": "",
		"scrapedAt": "2024-03-01T10:00:00Z",
	}
}

func datedRecord(url, title, viewDate string) map[string]any {
	r := record(url, title, "Channel")
	r["viewDate"] = viewDate
	return r
}

// importBatch posts records and returns the decoded result.
func importBatch(t *testing.T, ts *testServer, authHeader, contentType string, videos ...map[string]any) domain.ImportResult {
	t.Helper()

	if videos == nil {
		videos = []map[string]any{}
	}
	body := map[string]any{"videos": videos}
	if contentType != "" {
		body["contentType"] = contentType
	}
	resp := ts.api.Post("/api/v1/videos/import", authHeader, body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var env testEnvelope[domain.ImportResult]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env.Data
}

func TestImportVideos_AddThenUpdate(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := signIn(t, ts)

	a := record("https://videos.example/watch?v=a", "A", "C1")
	b := record("https://videos.example/watch?v=b", "B", "C1")
	c := record("https://videos.example/watch?v=c", "C", "C2")

	result := importBatch(t, ts, authHeader, "", a, b, c)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 3, result.Added)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, domain.ContentTypeHistory, result.ContentType)
	assert.True(t, result.ContentTypeDefaulted)

	result = importBatch(t, ts, authHeader, "History", a, b)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Removed)

	assert.Equal(t, 2, getCount(t, ts, authHeader, "/api/v1/videos/count"))
	assert.Equal(t, 1, getCount(t, ts, authHeader, "/api/v1/videos/removed-count"))
}

func TestImportVideos_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/videos/import", map[string]any{
		"videos": []any{record("https://videos.example/watch?v=a", "A", "C")},
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHENTICATED", decodeError(t, resp.Body.Bytes()).Code)
}

func TestImportVideos_Malformed(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := signIn(t, ts)

	tests := []struct {
		name string
		body string
	}{
		{name: "videos is an object", body: `{"videos": {"url": "x"}}`},
		{name: "videos missing", body: `{"contentType": "Likes"}`},
		{name: "body is not an object", body: `[1, 2, 3]`},
		{name: "not JSON", body: `videos=1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/videos/import", authHeader, strings.NewReader(tt.body))

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, "MALFORMED_INPUT", decodeError(t, resp.Body.Bytes()).Code)
		})
	}

	assert.Zero(t, getCount(t, ts, authHeader, "/api/v1/videos/count"))
}

func TestImportVideos_InvalidRecord(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := signIn(t, ts)

	bad := record("https://videos.example/watch?v=a", "A", "C")
	delete(bad, "scrapedAt")

	resp := ts.api.Post("/api/v1/videos/import", authHeader, map[string]any{"videos": []any{bad}})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	env := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", env.Code)
	assert.NotEmpty(t, env.Details)
}

func TestImportVideos_InvalidContentType(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := signIn(t, ts)

	resp := ts.api.Post("/api/v1/videos/import", authHeader, map[string]any{
		"videos":      []any{record("https://videos.example/watch?v=a", "A", "C")},
		"contentType": "Favorites",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	env := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Contains(t, env.Details, "contentType")
}

func TestImportFile_InfersCategory(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := signIn(t, ts)

	raw, err := json.Marshal([]any{
		record("https://videos.example/watch?v=l1", "Liked", "C"),
	})
	require.NoError(t, err)

	resp := ts.api.Post("/api/v1/videos/import/file?filename=watch-later-2024.json", authHeader, strings.NewReader(string(raw)))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var env testEnvelope[domain.ImportResult]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Equal(t, domain.ContentTypeWatchLater, env.Data.ContentType)
	assert.Equal(t, 1, env.Data.Added)
}

func TestImportFile_NonArray(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := signIn(t, ts)

	resp := ts.api.Post("/api/v1/videos/import/file?filename=history.json", authHeader, strings.NewReader(`{"videos": []}`))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "MALFORMED_INPUT", decodeError(t, resp.Body.Bytes()).Code)
}

func TestImportVideos_BodyTooLarge(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{MaxBodyBytes: 64})
	authHeader := signIn(t, ts)

	videos := make([]any, 0, 10)
	for i := range 10 {
		videos = append(videos, record(fmt.Sprintf("https://videos.example/watch?v=%d", i), "T", "C"))
	}

	resp := ts.api.Post("/api/v1/videos/import", authHeader, map[string]any{"videos": videos})

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestListImports(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := signIn(t, ts)

	first := importBatch(t, ts, authHeader, "Likes", record("https://videos.example/watch?v=a", "A", "C"))
	second := importBatch(t, ts, authHeader, "History")

	resp := ts.api.Get("/api/v1/imports", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)

	var env testEnvelope[[]domain.ImportReceipt]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.Len(t, env.Data, 2)
	assert.Equal(t, second.ImportID, env.Data[0].ImportID)
	assert.Equal(t, first.ImportID, env.Data[1].ImportID)
	assert.Equal(t, 1, env.Data[1].VideoCount)
	assert.Equal(t, 0, env.Data[0].VideoCount)
}

func TestListImports_Anonymous(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/imports")

	require.Equal(t, http.StatusOK, resp.Code)
	var env testEnvelope[[]domain.ImportReceipt]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Empty(t, env.Data)
}
