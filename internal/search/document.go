// Package search maintains a Bleve full-text index over video titles.
// Every document is scoped to one user; queries always filter by user.
package search

import (
	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/normalize"
)

// VideoDocument is the indexed form of a stored video record.
type VideoDocument struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Channel     string `json:"channel"`
	ContentType string `json:"content_type"`
	Title       string `json:"title"` // folded
	IsRemoved   bool   `json:"is_removed"`
	Seq         int64  `json:"seq"`
}

// NewVideoDocument builds the document for v.
func NewVideoDocument(v *domain.Video) *VideoDocument {
	return &VideoDocument{
		ID:          v.ID,
		UserID:      v.UserID,
		Channel:     v.Channel,
		ContentType: string(v.ContentType),
		Title:       normalize.Fold(v.Title),
		IsRemoved:   v.IsRemoved,
		Seq:         v.Seq,
	}
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *VideoDocument) ToMap() map[string]any {
	return map[string]any{
		"id":           d.ID,
		"user_id":      d.UserID,
		"channel":      d.Channel,
		"content_type": d.ContentType,
		"title":        d.Title,
		"is_removed":   d.IsRemoved,
		"seq":          float64(d.Seq),
	}
}
