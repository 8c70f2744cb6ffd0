package domain

import (
	"strings"
	"time"
)

// Video is one observed entry in a user's history, likes or watch later list.
// URL is the natural key within a (UserID, ContentType) pair.
type Video struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	// Seq orders records by creation; listings return newest first.
	Seq int64 `json:"seq"`

	Idx              int     `json:"idx"`
	Title            string  `json:"title"`
	URL              string  `json:"url"`
	Channel          string  `json:"channel"`
	Thumbnail        string  `json:"thumbnail"`
	TimeText         string  `json:"timeText,omitempty"`
	Duration         string  `json:"duration,omitempty"`
	ViewDate         string  `json:"viewDate,omitempty"`
	OriginalViewDate string  `json:"originalViewDate,omitempty"`
	SectionDate      *string `json:"sectionDate,omitempty"`
	ScrapedAt        string  `json:"scrapedAt"`
	VideoID          string  `json:"videoId,omitempty"`
	IsWatched        *bool   `json:"isWatched,omitempty"`

	ParsedDate  string      `json:"parsedDate"`
	ContentType ContentType `json:"contentType"`
	IsRemoved   bool        `json:"isRemoved"`
	LastSeen    string      `json:"lastSeen"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Observation is a single record as submitted by an export.
// Fields are trusted as supplied; only the date hints are classified.
type Observation struct {
	Idx              int
	Title            string
	URL              string
	Channel          string
	Thumbnail        string
	TimeText         string
	Duration         string
	ViewDate         DateHint
	OriginalViewDate DateHint
	SectionDate      *DateHint
	ScrapedAt        string
	VideoID          string
	IsWatched        *bool
}

// NewVideo creates a record for a first observation of a URL in a category.
func NewVideo(id, userID string, obs Observation, parsedDate, importID string, ct ContentType, now time.Time) *Video {
	v := &Video{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
	}
	v.ApplyObservation(obs, parsedDate, importID, ct, now)
	return v
}

// ApplyObservation overwrites the scraped fields with a newer observation
// and marks the record live again.
func (v *Video) ApplyObservation(obs Observation, parsedDate, importID string, ct ContentType, now time.Time) {
	v.Idx = obs.Idx
	v.Title = obs.Title
	v.URL = obs.URL
	v.Channel = obs.Channel
	v.Thumbnail = obs.Thumbnail
	v.TimeText = obs.TimeText
	v.Duration = obs.Duration
	v.ViewDate = obs.ViewDate.Raw()
	v.OriginalViewDate = obs.OriginalViewDate.Raw()
	v.SectionDate = nil
	if obs.SectionDate != nil {
		raw := obs.SectionDate.Raw()
		v.SectionDate = &raw
	}
	v.ScrapedAt = obs.ScrapedAt
	v.VideoID = obs.VideoID
	v.IsWatched = obs.IsWatched

	v.ParsedDate = parsedDate
	v.ContentType = ct
	v.IsRemoved = false
	v.LastSeen = importID
	v.UpdatedAt = now
}

// MarkRemoved flags the record as no longer present in its list.
func (v *Video) MarkRemoved(now time.Time) {
	v.IsRemoved = true
	v.UpdatedAt = now
}

// DateYear returns everything before the first '-' of a grouping date.
func DateYear(parsedDate string) string {
	if i := strings.IndexByte(parsedDate, '-'); i >= 0 {
		return parsedDate[:i]
	}
	return parsedDate
}

// DateMonth returns the first seven characters of a grouping date.
// Relative text may be non-ASCII, so it is cut on rune boundaries.
func DateMonth(parsedDate string) string {
	n := 0
	for i := range parsedDate {
		if n == 7 {
			return parsedDate[:i]
		}
		n++
	}
	return parsedDate
}
