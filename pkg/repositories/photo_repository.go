package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dishlens/dishlens-engine/pkg/apperrors"
	"github.com/dishlens/dishlens-engine/pkg/database"
	"github.com/dishlens/dishlens-engine/pkg/models"
)

// PhotoRepository provides data access for customer photos.
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, photoID uuid.UUID) (*models.Photo, error)
	// SetMenuItem links a photo to the catalog item it depicts.
	SetMenuItem(ctx context.Context, photoID, menuItemID uuid.UUID) error
}

type photoRepository struct {
	db *database.DB
}

// NewPhotoRepository creates a new PhotoRepository.
func NewPhotoRepository(db *database.DB) PhotoRepository {
	return &photoRepository{db: db}
}

var _ PhotoRepository = (*photoRepository)(nil)

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (restaurant_id, file_path, menu_item_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, photo.RestaurantID, photo.FilePath, photo.MenuItemID).
		Scan(&photo.ID, &photo.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}

	return nil
}

func (r *photoRepository) GetByID(ctx context.Context, photoID uuid.UUID) (*models.Photo, error) {
	query := `
		SELECT id, restaurant_id, file_path, menu_item_id, created_at
		FROM photos
		WHERE id = $1`

	var photo models.Photo
	err := r.db.QueryRow(ctx, query, photoID).Scan(
		&photo.ID,
		&photo.RestaurantID,
		&photo.FilePath,
		&photo.MenuItemID,
		&photo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Photo not found
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}

	return &photo, nil
}

func (r *photoRepository) SetMenuItem(ctx context.Context, photoID, menuItemID uuid.UUID) error {
	query := `
		UPDATE photos
		SET menu_item_id = $2
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, photoID, menuItemID)
	if err != nil {
		return fmt.Errorf("failed to link photo to menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
