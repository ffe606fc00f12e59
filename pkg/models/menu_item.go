package models

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is one distinct dish known to a restaurant.
// (restaurant_id, name) is unique and serves as the dedup key for all
// writes coming out of extraction.
type MenuItem struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Category     *string   `json:"category,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Price        *string   `json:"price,omitempty"` // Opaque string; formatting is preserved as extracted
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MenuItemDraft is a candidate item produced by extraction, before it has
// been persisted. Name is required and trimmed; empty optional fields are nil.
type MenuItemDraft struct {
	Name        string  `json:"name"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
}
