package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dishlens/dishlens-engine/pkg/database"
	"github.com/dishlens/dishlens-engine/pkg/models"
)

// MenuItemRepository provides data access for the menu item catalog.
type MenuItemRepository interface {
	// Upsert inserts a draft item or, when the restaurant already has an
	// item of the same name, overwrites its category, description and price.
	Upsert(ctx context.Context, restaurantID uuid.UUID, draft models.MenuItemDraft) error
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuItem, error)
}

type menuItemRepository struct {
	db *database.DB
}

// NewMenuItemRepository creates a new MenuItemRepository.
func NewMenuItemRepository(db *database.DB) MenuItemRepository {
	return &menuItemRepository{db: db}
}

var _ MenuItemRepository = (*menuItemRepository)(nil)

func (r *menuItemRepository) Upsert(ctx context.Context, restaurantID uuid.UUID, draft models.MenuItemDraft) error {
	query := `
		INSERT INTO menu_items (restaurant_id, name, category, description, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (restaurant_id, name) DO UPDATE
		SET category = EXCLUDED.category,
		    description = EXCLUDED.description,
		    price = EXCLUDED.price,
		    updated_at = NOW()`

	_, err := r.db.Exec(ctx, query,
		restaurantID,
		draft.Name,
		draft.Category,
		draft.Description,
		draft.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert menu item: %w", err)
	}

	return nil
}

func (r *menuItemRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuItem, error) {
	query := `
		SELECT id, restaurant_id, name, category, description, price, created_at, updated_at
		FROM menu_items
		WHERE restaurant_id = $1
		ORDER BY category, name`

	rows, err := r.db.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	var items []*models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu items: %w", err)
	}

	return items, nil
}

func scanMenuItem(row pgx.Row) (*models.MenuItem, error) {
	var item models.MenuItem
	err := row.Scan(
		&item.ID,
		&item.RestaurantID,
		&item.Name,
		&item.Category,
		&item.Description,
		&item.Price,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
