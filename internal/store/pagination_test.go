package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		name          string
		input         PaginationParams
		expectedLimit int
	}{
		{"valid parameters", PaginationParams{Limit: 50}, 50},
		{"zero limit should default to 100", PaginationParams{Limit: 0}, 100},
		{"negative limit should default to 100", PaginationParams{Limit: -10}, 100},
		{"limit over 1000 should cap at 1000", PaginationParams{Limit: 5000}, 1000},
		{"limit exactly 1000 should stay at 1000", PaginationParams{Limit: 1000}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := tt.input
			params.Validate()
			assert.Equal(t, tt.expectedLimit, params.Limit)
		})
	}
}

func TestOffsetCursor_RoundTrip(t *testing.T) {
	assert.Empty(t, EncodeOffsetCursor(0))

	cursor := EncodeOffsetCursor(250)
	require.NotEmpty(t, cursor)

	offset, err := DecodeOffsetCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, 250, offset)

	offset, err = DecodeOffsetCursor("")
	require.NoError(t, err)
	assert.Zero(t, offset)
}

func TestDecodeOffsetCursor_Invalid(t *testing.T) {
	for _, cursor := range []string{"!!!", "bm90LWEtbnVtYmVy", "LTU"} {
		_, err := DecodeOffsetCursor(cursor)
		assert.ErrorIs(t, err, ErrInvalidCursor, cursor)
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	first, err := Page(items, PaginationParams{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, first.Items)
	assert.True(t, first.HasMore)
	assert.Equal(t, 5, first.Total)

	second, err := Page(items, PaginationParams{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, second.Items)

	last, err := Page(items, PaginationParams{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []int{5}, last.Items)
	assert.False(t, last.HasMore)
	assert.Empty(t, last.NextCursor)

	past, err := Page(items, PaginationParams{Cursor: EncodeOffsetCursor(99)})
	require.NoError(t, err)
	assert.Empty(t, past.Items)
	assert.False(t, past.HasMore)
}
