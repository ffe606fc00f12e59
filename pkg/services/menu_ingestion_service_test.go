package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/apperrors"
	"github.com/dishlens/dishlens-engine/pkg/extract"
	"github.com/dishlens/dishlens-engine/pkg/models"
)

type ingestionFixture struct {
	restaurants *mockRestaurantRepo
	sources     *mockMenuSourceRepo
	items       *mockMenuItemRepo
	scraper     *mockScraper
	extractor   *mockExtractor
	store       *mockObjectStore
	runner      *syncDispatcher
	service     MenuIngestionService

	restaurantID uuid.UUID
	ownerID      uuid.UUID
}

func newIngestionFixture(t *testing.T) *ingestionFixture {
	t.Helper()

	f := &ingestionFixture{
		restaurants:  &mockRestaurantRepo{},
		sources:      &mockMenuSourceRepo{},
		items:        &mockMenuItemRepo{},
		scraper:      &mockScraper{},
		extractor:    &mockExtractor{},
		store:        &mockObjectStore{},
		runner:       &syncDispatcher{},
		restaurantID: uuid.New(),
		ownerID:      uuid.New(),
	}

	f.restaurants.getByIDFunc = func(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error) {
		if restaurantID != f.restaurantID {
			return nil, nil
		}
		return &models.Restaurant{ID: f.restaurantID, Name: "Testaurant", OwnerID: f.ownerID}, nil
	}
	f.restaurants.isOwnerFunc = func(ctx context.Context, restaurantID, actorID uuid.UUID) (bool, error) {
		return restaurantID == f.restaurantID && actorID == f.ownerID, nil
	}

	// Creating a source makes it retrievable, so the dispatched pipeline
	// run sees what the request wrote.
	f.sources.createFunc = func(ctx context.Context, source *models.MenuSource) error {
		source.ID = uuid.New()
		stored := *source
		f.sources.getByIDFunc = func(ctx context.Context, sourceID uuid.UUID) (*models.MenuSource, error) {
			if sourceID != stored.ID {
				return nil, nil
			}
			copy := stored
			return &copy, nil
		}
		return nil
	}

	f.service = NewMenuIngestionService(
		f.restaurants, f.sources, f.items,
		f.scraper, f.extractor, f.store, f.runner,
		zap.NewNop(),
	)
	return f
}

func drafts(names ...string) []models.MenuItemDraft {
	out := make([]models.MenuItemDraft, 0, len(names))
	for _, name := range names {
		out = append(out, models.MenuItemDraft{Name: name})
	}
	return out
}

func TestCreateFromURLProcessesSource(t *testing.T) {
	f := newIngestionFixture(t)

	var scrapedURL string
	f.scraper.menuTextFunc = func(ctx context.Context, url string) (string, error) {
		scrapedURL = url
		return "Pizza $10\nSalad $8", nil
	}
	f.extractor.fromTextFunc = func(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
		assert.Equal(t, "Pizza $10\nSalad $8", menuText)
		return drafts("Pizza", "Salad"), nil
	}

	source, err := f.service.CreateFromURL(context.Background(), f.restaurantID, f.ownerID, "https://testaurant.example/menu")
	require.NoError(t, err)

	assert.Equal(t, models.SourceTypeURL, source.SourceType)
	require.NotNil(t, source.SourceURL)
	assert.Equal(t, "https://testaurant.example/menu", *source.SourceURL)

	assert.Equal(t, []string{"process-menu-source"}, f.runner.dispatched)
	assert.Equal(t, "https://testaurant.example/menu", scrapedURL)
	assert.Len(t, f.items.upserted, 2)
	assert.Equal(t,
		[]models.SourceStatus{models.SourceStatusProcessing, models.SourceStatusCompleted},
		f.sources.statusHistory)
}

func TestCreateFromImageUsesSignedURL(t *testing.T) {
	f := newIngestionFixture(t)

	f.store.signedURLFunc = func(path string) (string, error) {
		assert.Equal(t, "menus/upload-1.jpg", path)
		return "https://storage.example.com/menus/upload-1.jpg?sig=abc", nil
	}
	f.extractor.fromImageFunc = func(ctx context.Context, img extract.ImageInput) ([]models.MenuItemDraft, error) {
		assert.Equal(t, "https://storage.example.com/menus/upload-1.jpg?sig=abc", img.URL)
		return drafts("Ramen"), nil
	}

	source, err := f.service.CreateFromImage(context.Background(), f.restaurantID, f.ownerID, "menus/upload-1.jpg")
	require.NoError(t, err)

	assert.Equal(t, models.SourceTypeImage, source.SourceType)
	assert.Len(t, f.items.upserted, 1)
	assert.Equal(t,
		[]models.SourceStatus{models.SourceStatusProcessing, models.SourceStatusCompleted},
		f.sources.statusHistory)
}

func TestCreateFromURLRejectsNonOwner(t *testing.T) {
	f := newIngestionFixture(t)

	_, err := f.service.CreateFromURL(context.Background(), f.restaurantID, uuid.New(), "https://testaurant.example/menu")

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Empty(t, f.runner.dispatched)
}

func TestCreateFromURLOwnerSkipsRestaurantFetch(t *testing.T) {
	f := newIngestionFixture(t)
	f.restaurants.getByIDFunc = func(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error) {
		t.Fatal("owned restaurants should be authorized by the ownership check alone")
		return nil, nil
	}

	_, err := f.service.CreateFromURL(context.Background(), f.restaurantID, f.ownerID, "https://testaurant.example/menu")

	require.NoError(t, err)
}

func TestCreateFromURLUnknownRestaurant(t *testing.T) {
	f := newIngestionFixture(t)

	_, err := f.service.CreateFromURL(context.Background(), uuid.New(), f.ownerID, "https://testaurant.example/menu")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, f.runner.dispatched)
}

func TestProcessScrapeFailureMarksFailed(t *testing.T) {
	f := newIngestionFixture(t)

	f.scraper.menuTextFunc = func(ctx context.Context, url string) (string, error) {
		return "", errors.New("connection refused")
	}

	_, err := f.service.CreateFromURL(context.Background(), f.restaurantID, f.ownerID, "https://down.example/menu")
	require.NoError(t, err)

	assert.Equal(t,
		[]models.SourceStatus{models.SourceStatusProcessing, models.SourceStatusFailed},
		f.sources.statusHistory)
	require.NotNil(t, f.sources.lastError)
	assert.Contains(t, *f.sources.lastError, "connection refused")
	assert.Empty(t, f.items.upserted)
}

func TestProcessTruncatesLongFailureReason(t *testing.T) {
	f := newIngestionFixture(t)

	f.scraper.menuTextFunc = func(ctx context.Context, url string) (string, error) {
		return "", errors.New(strings.Repeat("x", 2000))
	}

	_, err := f.service.CreateFromURL(context.Background(), f.restaurantID, f.ownerID, "https://down.example/menu")
	require.NoError(t, err)

	require.NotNil(t, f.sources.lastError)
	assert.Len(t, *f.sources.lastError, maxErrorMessageLen)
}

func TestProcessFailsWhenNoItemsPersist(t *testing.T) {
	f := newIngestionFixture(t)

	f.scraper.menuTextFunc = func(ctx context.Context, url string) (string, error) {
		return "menu text", nil
	}
	f.extractor.fromTextFunc = func(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
		return drafts("Pizza", "Salad"), nil
	}
	f.items.upsertFunc = func(ctx context.Context, restaurantID uuid.UUID, draft models.MenuItemDraft) error {
		return errors.New("constraint violation")
	}

	_, err := f.service.CreateFromURL(context.Background(), f.restaurantID, f.ownerID, "https://testaurant.example/menu")
	require.NoError(t, err)

	assert.Equal(t,
		[]models.SourceStatus{models.SourceStatusProcessing, models.SourceStatusFailed},
		f.sources.statusHistory)
}

func TestProcessToleratesPartialUpsertFailure(t *testing.T) {
	f := newIngestionFixture(t)

	f.scraper.menuTextFunc = func(ctx context.Context, url string) (string, error) {
		return "menu text", nil
	}
	f.extractor.fromTextFunc = func(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
		return drafts("Pizza", "Salad", "Soup"), nil
	}
	f.items.upsertFunc = func(ctx context.Context, restaurantID uuid.UUID, draft models.MenuItemDraft) error {
		if draft.Name == "Salad" {
			return errors.New("constraint violation")
		}
		return nil
	}

	_, err := f.service.CreateFromURL(context.Background(), f.restaurantID, f.ownerID, "https://testaurant.example/menu")
	require.NoError(t, err)

	// One bad row does not sink the batch.
	assert.Len(t, f.items.upserted, 2)
	assert.Equal(t,
		[]models.SourceStatus{models.SourceStatusProcessing, models.SourceStatusCompleted},
		f.sources.statusHistory)
}

func TestProcessCompletionWriteFailureMarksFailed(t *testing.T) {
	f := newIngestionFixture(t)

	f.scraper.menuTextFunc = func(ctx context.Context, url string) (string, error) {
		return "menu text", nil
	}
	f.extractor.fromTextFunc = func(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
		return drafts("Pizza"), nil
	}
	f.sources.markCompletedFunc = func(ctx context.Context, sourceID uuid.UUID, scrapedAt time.Time) error {
		return errors.New("connection lost")
	}

	_, err := f.service.CreateFromURL(context.Background(), f.restaurantID, f.ownerID, "https://testaurant.example/menu")
	require.NoError(t, err)

	// The catalog write landed but the completion status did not; the
	// pipeline falls back to recording the failure.
	assert.Len(t, f.items.upserted, 1)
	assert.Equal(t,
		[]models.SourceStatus{models.SourceStatusProcessing, models.SourceStatusFailed},
		f.sources.statusHistory)
	require.NotNil(t, f.sources.lastError)
	assert.Contains(t, *f.sources.lastError, "connection lost")
}

func TestReprocessResetsAndRuns(t *testing.T) {
	f := newIngestionFixture(t)

	f.scraper.menuTextFunc = func(ctx context.Context, url string) (string, error) {
		return "menu text", nil
	}
	f.extractor.fromTextFunc = func(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
		return drafts("Pizza"), nil
	}

	// First run fails at extraction.
	extractErr := errors.New("model unavailable")
	f.extractor.fromTextFunc = func(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
		return nil, extractErr
	}
	source, err := f.service.CreateFromURL(context.Background(), f.restaurantID, f.ownerID, "https://testaurant.example/menu")
	require.NoError(t, err)
	require.Equal(t, models.SourceStatusFailed, f.sources.statusHistory[len(f.sources.statusHistory)-1])

	// Reprocess succeeds.
	f.extractor.fromTextFunc = func(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
		return drafts("Pizza"), nil
	}
	f.sources.statusHistory = nil

	reprocessed, err := f.service.Reprocess(context.Background(), f.restaurantID, source.ID, f.ownerID)
	require.NoError(t, err)

	assert.Equal(t, models.SourceStatusPending, reprocessed.Status)
	assert.Nil(t, reprocessed.ErrorMessage)
	assert.Equal(t,
		[]models.SourceStatus{
			models.SourceStatusPending,
			models.SourceStatusProcessing,
			models.SourceStatusCompleted,
		},
		f.sources.statusHistory)
}

func TestReprocessUnknownSource(t *testing.T) {
	f := newIngestionFixture(t)

	_, err := f.service.Reprocess(context.Background(), f.restaurantID, uuid.New(), f.ownerID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetSourceScopedToRestaurant(t *testing.T) {
	f := newIngestionFixture(t)

	f.scraper.menuTextFunc = func(ctx context.Context, url string) (string, error) {
		return "menu text", nil
	}
	f.extractor.fromTextFunc = func(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
		return drafts("Pizza"), nil
	}
	source, err := f.service.CreateFromURL(context.Background(), f.restaurantID, f.ownerID, "https://testaurant.example/menu")
	require.NoError(t, err)

	_, err = f.service.GetSource(context.Background(), uuid.New(), source.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := f.service.GetSource(context.Background(), f.restaurantID, source.ID)
	require.NoError(t, err)
	assert.Equal(t, source.ID, got.ID)
}

func TestExtractImageForReviewDoesNotPersist(t *testing.T) {
	f := newIngestionFixture(t)

	f.extractor.fromImageFunc = func(ctx context.Context, img extract.ImageInput) ([]models.MenuItemDraft, error) {
		assert.Equal(t, "https://upload.example/menu.jpg", img.URL)
		return drafts("Pizza", "Salad"), nil
	}

	got, err := f.service.ExtractImageForReview(context.Background(), f.restaurantID, f.ownerID,
		extract.ImageInput{URL: "https://upload.example/menu.jpg"})
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Empty(t, f.items.upserted)
	assert.Empty(t, f.runner.dispatched)
	assert.Empty(t, f.sources.statusHistory)
}

func TestExtractImageForReviewRejectsNonOwner(t *testing.T) {
	f := newIngestionFixture(t)

	_, err := f.service.ExtractImageForReview(context.Background(), f.restaurantID, uuid.New(),
		extract.ImageInput{URL: "https://upload.example/menu.jpg"})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
