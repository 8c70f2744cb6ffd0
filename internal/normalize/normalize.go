// Package normalize derives the canonical YYYY-MM-DD grouping date of a record
// and folds free text for matching.
package normalize

import (
	"strings"
	"time"

	"github.com/tubearchive/tubearchive-server/internal/domain"
)

// timestampLayouts are the absolute timestamp shapes scrapers are known to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	domain.DateLayout,
}

// ParsedDate returns the grouping date for a record.
// A non-empty viewDate is returned verbatim. Otherwise the date portion of
// scrapedAt is used, and if that cannot be parsed the date of now is returned.
func ParsedDate(now time.Time, scrapedAt, viewDate string) string {
	if viewDate != "" {
		return viewDate
	}
	if d, ok := ScrapedDate(scrapedAt); ok {
		return d
	}
	return now.UTC().Format(domain.DateLayout)
}

// GroupingDate resolves a classified view date into a grouping date.
// An absolute view date is formatted as YYYY-MM-DD and relative text is kept
// as-is. An unknown view date falls back to the scrape timestamp; the section
// header is stored but never consulted.
func GroupingDate(now time.Time, scrapedAt string, view domain.DateHint) string {
	switch view.Kind {
	case domain.DateHintAbsolute:
		return ParsedDate(now, scrapedAt, view.Date.Format(domain.DateLayout))
	case domain.DateHintRelative:
		return ParsedDate(now, scrapedAt, view.Raw())
	}
	return ParsedDate(now, scrapedAt, "")
}

// ScrapedDate parses an absolute timestamp and returns its UTC date portion.
func ScrapedDate(scrapedAt string) (string, bool) {
	s := strings.TrimSpace(scrapedAt)
	if s == "" {
		return "", false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(domain.DateLayout), true
		}
	}
	return "", false
}
