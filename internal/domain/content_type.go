package domain

import "strings"

// ContentType partitions a user's records into the lists the platform exposes.
type ContentType string

const (
	// ContentTypeHistory is the watch history list.
	ContentTypeHistory ContentType = "History"
	// ContentTypeLikes is the liked videos playlist.
	ContentTypeLikes ContentType = "Likes"
	// ContentTypeWatchLater is the watch later playlist.
	ContentTypeWatchLater ContentType = "Watch Later"
)

// ContentTypes lists every known category in display order.
var ContentTypes = []ContentType{
	ContentTypeHistory,
	ContentTypeLikes,
	ContentTypeWatchLater,
}

// Valid reports whether c is one of the known categories.
func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeHistory, ContentTypeLikes, ContentTypeWatchLater:
		return true
	default:
		return false
	}
}

func (c ContentType) String() string {
	return string(c)
}

// ParseContentType resolves a user-supplied category name.
// Matching is case-insensitive and accepts the common spellings of Watch Later.
func ParseContentType(s string) (ContentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "history":
		return ContentTypeHistory, true
	case "likes", "liked":
		return ContentTypeLikes, true
	case "watch later", "watch-later", "watch_later", "watchlater":
		return ContentTypeWatchLater, true
	default:
		return "", false
	}
}

// ContentTypeFromFilename infers the category of an export file from its name.
// The second return value is false when nothing in the name matched.
func ContentTypeFromFilename(name string) (ContentType, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "history"):
		return ContentTypeHistory, true
	case strings.Contains(lower, "likes"), strings.Contains(lower, "liked"):
		return ContentTypeLikes, true
	case strings.Contains(lower, "watch-later"), strings.Contains(lower, "watchlater"):
		return ContentTypeWatchLater, true
	default:
		return "", false
	}
}
