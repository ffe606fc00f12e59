package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant anchors ownership for menu sources, menu items and photos.
// Account management lives outside this service; only the ownership check
// reads this table.
type Restaurant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}
