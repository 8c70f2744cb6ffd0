package store

import (
	"encoding/base64"
	"strconv"
)

const (
	// DefaultPageSize applies when a caller asks for zero or fewer items.
	DefaultPageSize = 100
	// MaxPageSize caps a single page.
	MaxPageSize = 1000
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // items per page
	Cursor string // opaque cursor from a previous page, empty for the first
}

// PaginatedResult is one page of a listing.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // empty when the listing is exhausted
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total"`
}

// Validate clamps Limit into [1, MaxPageSize].
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
}

// Offset decodes the cursor into a row offset.
func (p PaginationParams) Offset() (int, error) {
	return DecodeOffsetCursor(p.Cursor)
}

// EncodeOffsetCursor turns an offset into an opaque cursor.
func EncodeOffsetCursor(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeOffsetCursor reverses EncodeOffsetCursor. An empty cursor is offset 0.
func DecodeOffsetCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrInvalidCursor.WithCause(err)
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		return 0, ErrInvalidCursor.WithCause(err)
	}
	return n, nil
}

// Page slices items that are already filtered and ordered.
func Page[T any](items []T, page PaginationParams) (*PaginatedResult[T], error) {
	page.Validate()
	offset, err := page.Offset()
	if err != nil {
		return nil, err
	}

	total := len(items)
	start := min(offset, total)
	end := min(start+page.Limit, total)

	result := &PaginatedResult[T]{
		Items: items[start:end],
		Total: total,
	}
	if end < total {
		result.HasMore = true
		result.NextCursor = EncodeOffsetCursor(end)
	}
	return result, nil
}
