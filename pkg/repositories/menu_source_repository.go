package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dishlens/dishlens-engine/pkg/apperrors"
	"github.com/dishlens/dishlens-engine/pkg/database"
	"github.com/dishlens/dishlens-engine/pkg/models"
)

// MenuSourceRepository provides data access for menu sources and their
// processing status.
type MenuSourceRepository interface {
	Create(ctx context.Context, source *models.MenuSource) error
	GetByID(ctx context.Context, sourceID uuid.UUID) (*models.MenuSource, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuSource, error)
	// SetStatus records a status transition. The error message is cleared
	// when nil is passed.
	SetStatus(ctx context.Context, sourceID uuid.UUID, status models.SourceStatus, errorMessage *string) error
	// MarkCompleted records a successful ingestion along with the time the
	// source content was read.
	MarkCompleted(ctx context.Context, sourceID uuid.UUID, scrapedAt time.Time) error
}

type menuSourceRepository struct {
	db *database.DB
}

// NewMenuSourceRepository creates a new MenuSourceRepository.
func NewMenuSourceRepository(db *database.DB) MenuSourceRepository {
	return &menuSourceRepository{db: db}
}

var _ MenuSourceRepository = (*menuSourceRepository)(nil)

func (r *menuSourceRepository) Create(ctx context.Context, source *models.MenuSource) error {
	query := `
		INSERT INTO menu_sources (restaurant_id, source_type, source_url, file_path, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		source.RestaurantID,
		source.SourceType,
		source.SourceURL,
		source.FilePath,
		source.Status,
	).Scan(&source.ID, &source.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create menu source: %w", err)
	}

	return nil
}

func (r *menuSourceRepository) GetByID(ctx context.Context, sourceID uuid.UUID) (*models.MenuSource, error) {
	query := `
		SELECT id, restaurant_id, source_type, source_url, file_path,
		       status, error_message, scraped_at, created_at
		FROM menu_sources
		WHERE id = $1`

	source, err := scanMenuSource(r.db.QueryRow(ctx, query, sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Menu source not found
		}
		return nil, fmt.Errorf("failed to get menu source: %w", err)
	}

	return source, nil
}

func (r *menuSourceRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuSource, error) {
	query := `
		SELECT id, restaurant_id, source_type, source_url, file_path,
		       status, error_message, scraped_at, created_at
		FROM menu_sources
		WHERE restaurant_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.MenuSource
	for rows.Next() {
		source, err := scanMenuSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu source: %w", err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu sources: %w", err)
	}

	return sources, nil
}

func (r *menuSourceRepository) SetStatus(ctx context.Context, sourceID uuid.UUID, status models.SourceStatus, errorMessage *string) error {
	query := `
		UPDATE menu_sources
		SET status = $2, error_message = $3
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, sourceID, status, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to update menu source status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *menuSourceRepository) MarkCompleted(ctx context.Context, sourceID uuid.UUID, scrapedAt time.Time) error {
	query := `
		UPDATE menu_sources
		SET status = $2, error_message = NULL, scraped_at = $3
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, sourceID, models.SourceStatusCompleted, scrapedAt)
	if err != nil {
		return fmt.Errorf("failed to mark menu source completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanMenuSource(row pgx.Row) (*models.MenuSource, error) {
	var source models.MenuSource
	err := row.Scan(
		&source.ID,
		&source.RestaurantID,
		&source.SourceType,
		&source.SourceURL,
		&source.FilePath,
		&source.Status,
		&source.ErrorMessage,
		&source.ScrapedAt,
		&source.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &source, nil
}
