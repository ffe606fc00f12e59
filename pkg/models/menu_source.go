package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceType identifies what kind of raw input a menu source was registered with.
type SourceType string

const (
	SourceTypeURL   SourceType = "url"
	SourceTypeImage SourceType = "image"
)

// SourceStatus is the processing status of a menu source.
type SourceStatus string

const (
	SourceStatusPending    SourceStatus = "pending"
	SourceStatusProcessing SourceStatus = "processing"
	SourceStatusCompleted  SourceStatus = "completed"
	SourceStatusFailed     SourceStatus = "failed"
)

// IsTerminal reports whether the status is one the pipeline does not
// self-transition out of. Only an explicit reprocess trigger leaves a
// terminal state.
func (s SourceStatus) IsTerminal() bool {
	return s == SourceStatusCompleted || s == SourceStatusFailed
}

// MenuSource is one registered ingestion attempt for a restaurant.
// A restaurant may accumulate several over time; the most recent is
// authoritative. Rows are retained as history and never deleted by the
// pipeline.
//
// Exactly one of SourceURL/FilePath is set, matching SourceType.
type MenuSource struct {
	ID           uuid.UUID    `json:"id"`
	RestaurantID uuid.UUID    `json:"restaurant_id"`
	SourceType   SourceType   `json:"source_type"`
	SourceURL    *string      `json:"source_url,omitempty"`
	FilePath     *string      `json:"file_path,omitempty"`
	Status       SourceStatus `json:"status"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	ScrapedAt    *time.Time   `json:"scraped_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
