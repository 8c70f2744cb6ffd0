package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/store"
)

func TestVideoFilter_Matches(t *testing.T) {
	removed := true
	live := false

	v := &domain.Video{
		Title:       "Ça Va? Le Café",
		Channel:     "Chan",
		ParsedDate:  "2025-06-01",
		ContentType: domain.ContentTypeLikes,
	}

	tests := []struct {
		name   string
		filter store.VideoFilter
		want   bool
	}{
		{"empty filter", store.VideoFilter{}, true},
		{"channel match", store.VideoFilter{Channel: "Chan"}, true},
		{"channel is case-sensitive", store.VideoFilter{Channel: "chan"}, false},
		{"date match", store.VideoFilter{Date: "2025-06-01"}, true},
		{"date mismatch", store.VideoFilter{Date: "2025-06-02"}, false},
		{"live only", store.VideoFilter{Removed: &live}, true},
		{"removed only", store.VideoFilter{Removed: &removed}, false},
		{"content type", store.VideoFilter{ContentType: domain.ContentTypeLikes}, true},
		{"other content type", store.VideoFilter{ContentType: domain.ContentTypeHistory}, false},
		{"year", store.VideoFilter{Year: "2025"}, true},
		{"month", store.VideoFilter{Month: "2025-07"}, false},
		{"folded search", store.VideoFilter{Search: "ca va cafe"}, true},
		{"missing term", store.VideoFilter{Search: "cafe noir"}, false},
		{"blank search", store.VideoFilter{Search: "   "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(v))
		})
	}
}
