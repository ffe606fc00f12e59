package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dishlens/dishlens-engine/pkg/database"
	"github.com/dishlens/dishlens-engine/pkg/models"
)

// RestaurantRepository provides data access for restaurants.
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *models.Restaurant) error
	GetByID(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error)
	// IsOwner reports whether actorID owns restaurantID. Unknown restaurants
	// are simply not owned.
	IsOwner(ctx context.Context, restaurantID, actorID uuid.UUID) (bool, error)
}

type restaurantRepository struct {
	db *database.DB
}

// NewRestaurantRepository creates a new RestaurantRepository.
func NewRestaurantRepository(db *database.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

var _ RestaurantRepository = (*restaurantRepository)(nil)

func (r *restaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	query := `
		INSERT INTO restaurants (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, restaurant.Name, restaurant.OwnerID).
		Scan(&restaurant.ID, &restaurant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create restaurant: %w", err)
	}

	return nil
}

func (r *restaurantRepository) GetByID(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM restaurants
		WHERE id = $1`

	var rest models.Restaurant
	err := r.db.QueryRow(ctx, query, restaurantID).
		Scan(&rest.ID, &rest.Name, &rest.OwnerID, &rest.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Restaurant not found
		}
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}

	return &rest, nil
}

func (r *restaurantRepository) IsOwner(ctx context.Context, restaurantID, actorID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM restaurants WHERE id = $1 AND owner_id = $2
		)`

	var owned bool
	if err := r.db.QueryRow(ctx, query, restaurantID, actorID).Scan(&owned); err != nil {
		return false, fmt.Errorf("failed to check restaurant ownership: %w", err)
	}

	return owned, nil
}
