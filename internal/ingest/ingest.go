// Package ingest decodes export files produced by the browser scrapers into
// observations the reconciler can apply.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	domainerrors "github.com/tubearchive/tubearchive-server/internal/errors"
	"github.com/tubearchive/tubearchive-server/internal/validation"
)

// Record is one element of an export array.
// Pointer fields must be present but may hold empty values.
type Record struct {
	Idx              *int    `json:"idx" validate:"required" doc:"Position in the scraped list"`
	Title            *string `json:"title" validate:"required" doc:"Video title"`
	URL              string  `json:"url" validate:"required" doc:"Video URL, the natural key"`
	Channel          *string `json:"channel" validate:"required" doc:"Channel name"`
	Thumbnail        *string `json:"thumbnail" validate:"required" doc:"Thumbnail URL, may be empty"`
	TimeText         string  `json:"timeText,omitempty" doc:"Relative time label"`
	Duration         string  `json:"duration,omitempty" doc:"Duration label"`
	ViewDate         string  `json:"viewDate,omitempty" doc:"View date, relative text, or Unknown"`
	OriginalViewDate string  `json:"originalViewDate,omitempty" doc:"View date before scraper normalization"`
	SectionDate      *string `json:"sectionDate,omitempty" doc:"Raw section header"`
	ScrapedAt        string  `json:"scrapedAt" validate:"required" doc:"ISO-8601 scrape timestamp"`
	VideoID          string  `json:"videoId,omitempty" doc:"Platform video ID"`
	IsWatched        *bool   `json:"isWatched,omitempty" doc:"Watched marker"`
}

// Decoder turns raw export payloads into validated records.
type Decoder struct {
	validator *validation.Validator
}

// NewDecoder creates a decoder.
func NewDecoder(v *validation.Validator) *Decoder {
	if v == nil {
		v = validation.New()
	}
	return &Decoder{validator: v}
}

// Decode parses a JSON array of records.
// Anything other than an array is rejected as malformed before any element is inspected.
func (d *Decoder) Decode(raw []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domainerrors.MalformedInput("invalid JSON format: expected an array")
	}

	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, domainerrors.MalformedInput("invalid JSON format").WithCause(err)
	}

	if err := d.Validate(records); err != nil {
		return nil, err
	}
	return records, nil
}

// Validate checks every record and reports failures keyed by "<index>.<field>".
func (d *Decoder) Validate(records []Record) error {
	details := make(map[string]string)
	for i := range records {
		fields, err := d.validator.FieldErrors(&records[i])
		if err != nil {
			return fmt.Errorf("validate record %d: %w", i, err)
		}
		for field, msg := range fields {
			details[fmt.Sprintf("%d.%s", i, field)] = msg
		}
	}
	if len(details) > 0 {
		return domainerrors.ValidationWithDetails("invalid records in import", details)
	}
	return nil
}

// Observations converts records into domain observations, classifying date hints.
func Observations(records []Record) []domain.Observation {
	out := make([]domain.Observation, len(records))
	for i, r := range records {
		obs := domain.Observation{
			URL:              r.URL,
			TimeText:         r.TimeText,
			Duration:         r.Duration,
			ViewDate:         domain.ParseDateHint(r.ViewDate),
			OriginalViewDate: domain.ParseDateHint(r.OriginalViewDate),
			ScrapedAt:        r.ScrapedAt,
			VideoID:          r.VideoID,
			IsWatched:        r.IsWatched,
		}
		if r.Idx != nil {
			obs.Idx = *r.Idx
		}
		if r.Title != nil {
			obs.Title = *r.Title
		}
		if r.Channel != nil {
			obs.Channel = *r.Channel
		}
		if r.Thumbnail != nil {
			obs.Thumbnail = *r.Thumbnail
		}
		if r.SectionDate != nil {
			hint := domain.ParseDateHint(*r.SectionDate)
			obs.SectionDate = &hint
		}
		out[i] = obs
	}
	return out
}
