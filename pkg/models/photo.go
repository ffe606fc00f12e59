package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo is a diner-uploaded photo. Rows are created by the submission
// subsystem; the classification pipeline only ever writes MenuItemID.
type Photo struct {
	ID           uuid.UUID  `json:"id"`
	RestaurantID uuid.UUID  `json:"restaurant_id"`
	FilePath     string     `json:"file_path"`
	MenuItemID   *uuid.UUID `json:"menu_item_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
