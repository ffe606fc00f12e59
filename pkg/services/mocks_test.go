package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dishlens/dishlens-engine/pkg/extract"
	"github.com/dishlens/dishlens-engine/pkg/models"
)

// Hand-rolled test doubles. Set the function fields to control behavior;
// unset fields return zero values.

type mockRestaurantRepo struct {
	createFunc  func(ctx context.Context, restaurant *models.Restaurant) error
	getByIDFunc func(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error)
	isOwnerFunc func(ctx context.Context, restaurantID, actorID uuid.UUID) (bool, error)
}

func (m *mockRestaurantRepo) Create(ctx context.Context, restaurant *models.Restaurant) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, restaurant)
	}
	return nil
}

func (m *mockRestaurantRepo) GetByID(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, restaurantID)
	}
	return nil, nil
}

func (m *mockRestaurantRepo) IsOwner(ctx context.Context, restaurantID, actorID uuid.UUID) (bool, error) {
	if m.isOwnerFunc != nil {
		return m.isOwnerFunc(ctx, restaurantID, actorID)
	}
	return false, nil
}

type mockMenuSourceRepo struct {
	createFunc        func(ctx context.Context, source *models.MenuSource) error
	getByIDFunc       func(ctx context.Context, sourceID uuid.UUID) (*models.MenuSource, error)
	listFunc          func(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuSource, error)
	setStatusFunc     func(ctx context.Context, sourceID uuid.UUID, status models.SourceStatus, errorMessage *string) error
	markCompletedFunc func(ctx context.Context, sourceID uuid.UUID, scrapedAt time.Time) error

	statusHistory []models.SourceStatus
	lastError     *string
}

func (m *mockMenuSourceRepo) Create(ctx context.Context, source *models.MenuSource) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, source)
	}
	source.ID = uuid.New()
	return nil
}

func (m *mockMenuSourceRepo) GetByID(ctx context.Context, sourceID uuid.UUID) (*models.MenuSource, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, sourceID)
	}
	return nil, nil
}

func (m *mockMenuSourceRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuSource, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, restaurantID)
	}
	return nil, nil
}

func (m *mockMenuSourceRepo) SetStatus(ctx context.Context, sourceID uuid.UUID, status models.SourceStatus, errorMessage *string) error {
	m.statusHistory = append(m.statusHistory, status)
	m.lastError = errorMessage
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, sourceID, status, errorMessage)
	}
	return nil
}

func (m *mockMenuSourceRepo) MarkCompleted(ctx context.Context, sourceID uuid.UUID, scrapedAt time.Time) error {
	if m.markCompletedFunc != nil {
		if err := m.markCompletedFunc(ctx, sourceID, scrapedAt); err != nil {
			return err
		}
	}
	m.statusHistory = append(m.statusHistory, models.SourceStatusCompleted)
	return nil
}

type mockMenuItemRepo struct {
	upsertFunc func(ctx context.Context, restaurantID uuid.UUID, draft models.MenuItemDraft) error
	listFunc   func(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuItem, error)

	upserted []models.MenuItemDraft
}

func (m *mockMenuItemRepo) Upsert(ctx context.Context, restaurantID uuid.UUID, draft models.MenuItemDraft) error {
	if m.upsertFunc != nil {
		if err := m.upsertFunc(ctx, restaurantID, draft); err != nil {
			return err
		}
	}
	m.upserted = append(m.upserted, draft)
	return nil
}

func (m *mockMenuItemRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuItem, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, restaurantID)
	}
	return nil, nil
}

type mockPhotoRepo struct {
	getByIDFunc     func(ctx context.Context, photoID uuid.UUID) (*models.Photo, error)
	setMenuItemFunc func(ctx context.Context, photoID, menuItemID uuid.UUID) error

	linkedItemID *uuid.UUID
}

func (m *mockPhotoRepo) Create(ctx context.Context, photo *models.Photo) error {
	photo.ID = uuid.New()
	return nil
}

func (m *mockPhotoRepo) GetByID(ctx context.Context, photoID uuid.UUID) (*models.Photo, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, photoID)
	}
	return nil, nil
}

func (m *mockPhotoRepo) SetMenuItem(ctx context.Context, photoID, menuItemID uuid.UUID) error {
	if m.setMenuItemFunc != nil {
		if err := m.setMenuItemFunc(ctx, photoID, menuItemID); err != nil {
			return err
		}
	}
	m.linkedItemID = &menuItemID
	return nil
}

type mockScraper struct {
	menuTextFunc func(ctx context.Context, url string) (string, error)
}

func (m *mockScraper) MenuText(ctx context.Context, url string) (string, error) {
	if m.menuTextFunc != nil {
		return m.menuTextFunc(ctx, url)
	}
	return "", nil
}

type mockExtractor struct {
	fromTextFunc  func(ctx context.Context, menuText string) ([]models.MenuItemDraft, error)
	fromImageFunc func(ctx context.Context, img extract.ImageInput) ([]models.MenuItemDraft, error)
}

func (m *mockExtractor) FromText(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
	if m.fromTextFunc != nil {
		return m.fromTextFunc(ctx, menuText)
	}
	return nil, nil
}

func (m *mockExtractor) FromImage(ctx context.Context, img extract.ImageInput) ([]models.MenuItemDraft, error) {
	if m.fromImageFunc != nil {
		return m.fromImageFunc(ctx, img)
	}
	return nil, nil
}

type mockObjectStore struct {
	signedURLFunc func(path string) (string, error)
}

func (m *mockObjectStore) SignedURL(path string) (string, error) {
	if m.signedURLFunc != nil {
		return m.signedURLFunc(path)
	}
	return "https://storage.example.com/" + path + "?sig=test", nil
}

// syncDispatcher runs dispatched tasks inline so tests observe pipeline
// side effects deterministically.
type syncDispatcher struct {
	dispatched []string
}

func (d *syncDispatcher) Dispatch(name string, fn func(ctx context.Context) error) string {
	d.dispatched = append(d.dispatched, name)
	_ = fn(context.Background())
	return uuid.NewString()
}
