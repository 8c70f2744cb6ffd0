package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/normalize"
	"github.com/tubearchive/tubearchive-server/internal/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// videoColumns is the ordered list of columns selected in video queries.
// Must match the scan order in scanVideo.
const videoColumns = `seq, id, user_id, idx, title, url, channel, thumbnail,
	time_text, duration, view_date, original_view_date, section_date,
	scraped_at, video_id, is_watched, parsed_date, content_type, is_removed,
	last_seen, created_at, updated_at`

// scanVideo scans a sql.Row (or sql.Rows via its Scan method) into a domain.Video.
func scanVideo(scanner interface{ Scan(dest ...any) error }) (*domain.Video, error) {
	var v domain.Video

	var (
		timeText         sql.NullString
		duration         sql.NullString
		viewDate         sql.NullString
		originalViewDate sql.NullString
		sectionDate      sql.NullString
		videoID          sql.NullString
		isWatched        sql.NullInt64
		contentType      string
		isRemoved        int
		createdAt        string
		updatedAt        string
	)

	err := scanner.Scan(
		&v.Seq,
		&v.ID,
		&v.UserID,
		&v.Idx,
		&v.Title,
		&v.URL,
		&v.Channel,
		&v.Thumbnail,
		&timeText,
		&duration,
		&viewDate,
		&originalViewDate,
		&sectionDate,
		&v.ScrapedAt,
		&videoID,
		&isWatched,
		&v.ParsedDate,
		&contentType,
		&isRemoved,
		&v.LastSeen,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.TimeText = timeText.String
	v.Duration = duration.String
	v.ViewDate = viewDate.String
	v.OriginalViewDate = originalViewDate.String
	if sectionDate.Valid {
		v.SectionDate = &sectionDate.String
	}
	v.VideoID = videoID.String
	if isWatched.Valid {
		watched := isWatched.Int64 != 0
		v.IsWatched = &watched
	}
	v.ContentType = domain.ContentType(contentType)
	v.IsRemoved = isRemoved != 0

	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &v, nil
}

// queryVideos runs a SELECT over videoColumns and scans every row.
func queryVideos(ctx context.Context, q querier, query string, args ...any) ([]*domain.Video, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*domain.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return videos, nil
}

// insertVideo inserts v and stores the assigned sequence number on it.
func insertVideo(ctx context.Context, q querier, v *domain.Video) error {
	result, err := q.ExecContext(ctx, `
		INSERT INTO videos (
			id, user_id, idx, title, title_folded, url, channel, thumbnail,
			time_text, duration, view_date, original_view_date, section_date,
			scraped_at, video_id, is_watched, parsed_date, content_type, is_removed,
			last_seen, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID,
		v.UserID,
		v.Idx,
		v.Title,
		normalize.Fold(v.Title),
		v.URL,
		v.Channel,
		v.Thumbnail,
		nullString(v.TimeText),
		nullString(v.Duration),
		nullString(v.ViewDate),
		nullString(v.OriginalViewDate),
		nullableString(v.SectionDate),
		v.ScrapedAt,
		nullString(v.VideoID),
		nullBool(v.IsWatched),
		v.ParsedDate,
		string(v.ContentType),
		boolToInt(v.IsRemoved),
		v.LastSeen,
		formatTime(v.CreatedAt),
		formatTime(v.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return err
	}
	v.Seq = seq
	return nil
}

// updateVideo overwrites every mutable column of an existing record.
func updateVideo(ctx context.Context, q querier, v *domain.Video) error {
	result, err := q.ExecContext(ctx, `
		UPDATE videos SET
			idx = ?, title = ?, title_folded = ?, url = ?, channel = ?, thumbnail = ?,
			time_text = ?, duration = ?, view_date = ?, original_view_date = ?,
			section_date = ?, scraped_at = ?, video_id = ?, is_watched = ?,
			parsed_date = ?, content_type = ?, is_removed = ?, last_seen = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?`,
		v.Idx,
		v.Title,
		normalize.Fold(v.Title),
		v.URL,
		v.Channel,
		v.Thumbnail,
		nullString(v.TimeText),
		nullString(v.Duration),
		nullString(v.ViewDate),
		nullString(v.OriginalViewDate),
		nullableString(v.SectionDate),
		v.ScrapedAt,
		nullString(v.VideoID),
		nullBool(v.IsWatched),
		v.ParsedDate,
		string(v.ContentType),
		boolToInt(v.IsRemoved),
		v.LastSeen,
		formatTime(v.UpdatedAt),
		v.ID,
		v.UserID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// escapeLike escapes LIKE wildcards using '\' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// videoWhere translates a filter into a WHERE clause and its arguments.
func videoWhere(userID string, f store.VideoFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}

	if f.Channel != "" {
		clauses = append(clauses, "channel = ?")
		args = append(args, f.Channel)
	}
	if f.Date != "" {
		clauses = append(clauses, "parsed_date = ?")
		args = append(args, f.Date)
	}
	if f.Removed != nil {
		clauses = append(clauses, "is_removed = ?")
		args = append(args, boolToInt(*f.Removed))
	}
	if f.ContentType != "" {
		clauses = append(clauses, "content_type = ?")
		args = append(args, string(f.ContentType))
	}
	for _, prefix := range []string{f.Year, f.Month} {
		if prefix == "" {
			continue
		}
		clauses = append(clauses, "substr(parsed_date, 1, ?) = ?")
		args = append(args, utf8.RuneCountInString(prefix), prefix)
	}
	for _, term := range normalize.Terms(f.Search) {
		clauses = append(clauses, `title_folded LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(term)+"%")
	}

	return strings.Join(clauses, " AND "), args
}

// ListVideos returns one page of the user's records, newest first.
func (s *Store) ListVideos(ctx context.Context, userID string, filter store.VideoFilter, page store.PaginationParams) (*store.PaginatedResult[*domain.Video], error) {
	page.Validate()
	offset, err := page.Offset()
	if err != nil {
		return nil, err
	}

	where, args := videoWhere(userID, filter)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM videos WHERE `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	videos, err := queryVideos(ctx, s.db,
		`SELECT `+videoColumns+` FROM videos WHERE `+where+` ORDER BY seq DESC LIMIT ? OFFSET ?`,
		append(args, page.Limit, offset)...)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []*domain.Video{}
	}

	result := &store.PaginatedResult[*domain.Video]{
		Items: videos,
		Total: total,
	}
	if end := offset + len(videos); end < total {
		result.HasMore = true
		result.NextCursor = store.EncodeOffsetCursor(end)
	}
	return result, nil
}

// idChunk keeps IN lists well below SQLite's variable limit.
const idChunk = 500

// GetVideosByIDs returns the user's records for ids, in the order given.
func (s *Store) GetVideosByIDs(ctx context.Context, userID string, ids []string) ([]*domain.Video, error) {
	byID := make(map[string]*domain.Video, len(ids))

	for start := 0; start < len(ids); start += idChunk {
		chunk := ids[start:min(start+idChunk, len(ids))]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, userID)
		for _, id := range chunk {
			args = append(args, id)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		videos, err := queryVideos(ctx, s.db,
			`SELECT `+videoColumns+` FROM videos WHERE user_id = ? AND id IN (`+placeholders+`)`,
			args...)
		if err != nil {
			return nil, err
		}
		for _, v := range videos {
			byID[v.ID] = v
		}
	}

	result := make([]*domain.Video, 0, len(byID))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			result = append(result, v)
		}
	}
	return result, nil
}

// ListChannels returns the distinct channels of the user's live records.
func (s *Store) ListChannels(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT channel FROM videos
		WHERE user_id = ? AND is_removed = 0
		ORDER BY channel COLLATE BINARY`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := []string{}
	for rows.Next() {
		var channel string
		if err := rows.Scan(&channel); err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// CountVideos counts the user's live or removed records.
func (s *Store) CountVideos(ctx context.Context, userID string, removed bool) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM videos WHERE user_id = ? AND is_removed = ?`,
		userID, boolToInt(removed)).Scan(&n)
	return n, err
}

// ListLiveParsedDates returns the grouping date of every live record.
func (s *Store) ListLiveParsedDates(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT parsed_date FROM videos WHERE user_id = ? AND is_removed = 0`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// EachVideo calls fn for every stored record in creation order.
// Iteration stops at the first error.
func (s *Store) EachVideo(ctx context.Context, fn func(*domain.Video) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos ORDER BY seq ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return rows.Err()
}
