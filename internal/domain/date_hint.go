package domain

import (
	"strings"
	"time"
)

// DateLayout is the canonical grouping key format.
const DateLayout = "2006-01-02"

// UnknownDate is the literal scrapers write when a list entry has no date.
const UnknownDate = "Unknown"

// DateHintKind tags the meaning of a scraped date string.
type DateHintKind int

const (
	// DateHintUnknown means the scraper had nothing to offer.
	DateHintUnknown DateHintKind = iota
	// DateHintRelative is free text such as "Yesterday" or "3 days ago".
	DateHintRelative
	// DateHintAbsolute is a calendar date.
	DateHintAbsolute
)

// DateHint is a scraped date field classified at the ingestion boundary.
type DateHint struct {
	Kind DateHintKind
	Text string    // original text, kept for every kind
	Date time.Time // set only for DateHintAbsolute
}

var absoluteLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
}

// ParseDateHint classifies a raw scraped date string.
func ParseDateHint(raw string) DateHint {
	text := strings.TrimSpace(raw)
	if text == "" || strings.EqualFold(text, UnknownDate) {
		return DateHint{Kind: DateHintUnknown, Text: raw}
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return DateHint{Kind: DateHintAbsolute, Text: raw, Date: t.UTC()}
		}
	}
	return DateHint{Kind: DateHintRelative, Text: raw}
}

// Raw returns the text the hint was parsed from.
func (h DateHint) Raw() string {
	return h.Text
}
