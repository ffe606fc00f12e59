package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/apperrors"
	"github.com/dishlens/dishlens-engine/pkg/extract"
	"github.com/dishlens/dishlens-engine/pkg/logging"
	"github.com/dishlens/dishlens-engine/pkg/models"
	"github.com/dishlens/dishlens-engine/pkg/repositories"
	"github.com/dishlens/dishlens-engine/pkg/storage"
)

// Keeps failure reasons readable in the API without persisting entire
// model responses.
const maxErrorMessageLen = 500

// MenuScraper fetches readable menu text from a public website.
type MenuScraper interface {
	MenuText(ctx context.Context, url string) (string, error)
}

// MenuExtractor turns raw menu content into structured item drafts.
type MenuExtractor interface {
	FromText(ctx context.Context, menuText string) ([]models.MenuItemDraft, error)
	FromImage(ctx context.Context, img extract.ImageInput) ([]models.MenuItemDraft, error)
}

// TaskDispatcher runs pipeline work detached from the request that
// triggered it.
type TaskDispatcher interface {
	Dispatch(name string, fn func(ctx context.Context) error) string
}

// MenuIngestionService drives menu sources through the ingestion pipeline:
// register, process in the background, and surface status and the resulting
// catalog.
type MenuIngestionService interface {
	// CreateFromURL registers a website menu source and starts processing it.
	CreateFromURL(ctx context.Context, restaurantID, actorID uuid.UUID, sourceURL string) (*models.MenuSource, error)
	// CreateFromImage registers an uploaded menu image and starts processing it.
	CreateFromImage(ctx context.Context, restaurantID, actorID uuid.UUID, filePath string) (*models.MenuSource, error)
	// Reprocess re-runs the pipeline for an existing source, regardless of
	// its current status.
	Reprocess(ctx context.Context, restaurantID, sourceID, actorID uuid.UUID) (*models.MenuSource, error)
	GetSource(ctx context.Context, restaurantID, sourceID uuid.UUID) (*models.MenuSource, error)
	ListSources(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuSource, error)
	ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuItem, error)
	// ExtractImageForReview runs extraction on a menu image without touching
	// the catalog, so an owner can inspect the drafts first.
	ExtractImageForReview(ctx context.Context, restaurantID, actorID uuid.UUID, img extract.ImageInput) ([]models.MenuItemDraft, error)
}

type menuIngestionService struct {
	restaurants repositories.RestaurantRepository
	sources     repositories.MenuSourceRepository
	items       repositories.MenuItemRepository
	scraper     MenuScraper
	extractor   MenuExtractor
	store       storage.ObjectStore
	runner      TaskDispatcher
	logger      *zap.Logger
}

// NewMenuIngestionService creates a new MenuIngestionService.
func NewMenuIngestionService(
	restaurants repositories.RestaurantRepository,
	sources repositories.MenuSourceRepository,
	items repositories.MenuItemRepository,
	scraper MenuScraper,
	extractor MenuExtractor,
	store storage.ObjectStore,
	runner TaskDispatcher,
	logger *zap.Logger,
) MenuIngestionService {
	return &menuIngestionService{
		restaurants: restaurants,
		sources:     sources,
		items:       items,
		scraper:     scraper,
		extractor:   extractor,
		store:       store,
		runner:      runner,
		logger:      logger.Named("menu-ingestion"),
	}
}

var _ MenuIngestionService = (*menuIngestionService)(nil)

func (s *menuIngestionService) CreateFromURL(ctx context.Context, restaurantID, actorID uuid.UUID, sourceURL string) (*models.MenuSource, error) {
	if err := s.authorize(ctx, restaurantID, actorID); err != nil {
		return nil, err
	}

	source := &models.MenuSource{
		RestaurantID: restaurantID,
		SourceType:   models.SourceTypeURL,
		SourceURL:    &sourceURL,
		Status:       models.SourceStatusPending,
	}
	if err := s.sources.Create(ctx, source); err != nil {
		return nil, err
	}

	s.dispatchProcessing(source.ID)
	return source, nil
}

func (s *menuIngestionService) CreateFromImage(ctx context.Context, restaurantID, actorID uuid.UUID, filePath string) (*models.MenuSource, error) {
	if err := s.authorize(ctx, restaurantID, actorID); err != nil {
		return nil, err
	}

	source := &models.MenuSource{
		RestaurantID: restaurantID,
		SourceType:   models.SourceTypeImage,
		FilePath:     &filePath,
		Status:       models.SourceStatusPending,
	}
	if err := s.sources.Create(ctx, source); err != nil {
		return nil, err
	}

	s.dispatchProcessing(source.ID)
	return source, nil
}

func (s *menuIngestionService) Reprocess(ctx context.Context, restaurantID, sourceID, actorID uuid.UUID) (*models.MenuSource, error) {
	if err := s.authorize(ctx, restaurantID, actorID); err != nil {
		return nil, err
	}

	source, err := s.GetSource(ctx, restaurantID, sourceID)
	if err != nil {
		return nil, err
	}

	if err := s.sources.SetStatus(ctx, source.ID, models.SourceStatusPending, nil); err != nil {
		return nil, err
	}
	source.Status = models.SourceStatusPending
	source.ErrorMessage = nil

	s.dispatchProcessing(source.ID)
	return source, nil
}

func (s *menuIngestionService) GetSource(ctx context.Context, restaurantID, sourceID uuid.UUID) (*models.MenuSource, error) {
	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil || source.RestaurantID != restaurantID {
		return nil, apperrors.ErrNotFound
	}
	return source, nil
}

func (s *menuIngestionService) ListSources(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuSource, error) {
	return s.sources.ListByRestaurant(ctx, restaurantID)
}

func (s *menuIngestionService) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]*models.MenuItem, error) {
	return s.items.ListByRestaurant(ctx, restaurantID)
}

func (s *menuIngestionService) ExtractImageForReview(ctx context.Context, restaurantID, actorID uuid.UUID, img extract.ImageInput) ([]models.MenuItemDraft, error) {
	if err := s.authorize(ctx, restaurantID, actorID); err != nil {
		return nil, err
	}
	return s.extractor.FromImage(ctx, img)
}

// authorize verifies the restaurant exists and is owned by actorID. A
// missing restaurant is distinguished from someone else's only after the
// ownership check fails.
func (s *menuIngestionService) authorize(ctx context.Context, restaurantID, actorID uuid.UUID) error {
	owned, err := s.restaurants.IsOwner(ctx, restaurantID, actorID)
	if err != nil {
		return err
	}
	if owned {
		return nil
	}

	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return err
	}
	if restaurant == nil {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrForbidden
}

func (s *menuIngestionService) dispatchProcessing(sourceID uuid.UUID) {
	s.runner.Dispatch("process-menu-source", func(ctx context.Context) error {
		return s.process(ctx, sourceID)
	})
}

// process runs one ingestion attempt end to end. It owns the status
// lifecycle: processing while running, then completed or failed. Concurrent
// attempts for the same source are not serialized; the last writer wins.
func (s *menuIngestionService) process(ctx context.Context, sourceID uuid.UUID) error {
	logger := s.logger.With(zap.String("source_id", sourceID.String()))

	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return err
	}
	if source == nil {
		return apperrors.ErrNotFound
	}

	if err := s.sources.SetStatus(ctx, sourceID, models.SourceStatusProcessing, nil); err != nil {
		return err
	}

	drafts, scrapedAt, err := s.extractDrafts(ctx, source)
	if err != nil {
		logger.Warn("Menu source processing failed", zap.Error(err))
		s.markFailed(ctx, sourceID, err)
		return err
	}

	written := s.persistDrafts(ctx, logger, source.RestaurantID, drafts)
	if written == 0 {
		err := fmt.Errorf("none of %d extracted items could be written", len(drafts))
		logger.Warn("Menu source processing failed", zap.Error(err))
		s.markFailed(ctx, sourceID, err)
		return err
	}

	if err := s.sources.MarkCompleted(ctx, sourceID, scrapedAt); err != nil {
		s.markFailed(ctx, sourceID, err)
		return &PersistenceError{Op: "completion status", Err: err}
	}

	logger.Info("Menu source processed",
		zap.Int("items_extracted", len(drafts)),
		zap.Int("items_written", written))
	return nil
}

// extractDrafts runs the source-type-specific half of the pipeline and
// returns the drafts plus the moment the source content was read.
func (s *menuIngestionService) extractDrafts(ctx context.Context, source *models.MenuSource) ([]models.MenuItemDraft, time.Time, error) {
	switch source.SourceType {
	case models.SourceTypeURL:
		menuText, err := s.scraper.MenuText(ctx, *source.SourceURL)
		if err != nil {
			return nil, time.Time{}, err
		}
		scrapedAt := time.Now().UTC()

		drafts, err := s.extractor.FromText(ctx, menuText)
		if err != nil {
			return nil, time.Time{}, err
		}
		return drafts, scrapedAt, nil

	case models.SourceTypeImage:
		signedURL, err := s.store.SignedURL(*source.FilePath)
		if err != nil {
			return nil, time.Time{}, err
		}
		scrapedAt := time.Now().UTC()

		drafts, err := s.extractor.FromImage(ctx, extract.ImageInput{URL: signedURL})
		if err != nil {
			return nil, time.Time{}, err
		}
		return drafts, scrapedAt, nil

	default:
		return nil, time.Time{}, fmt.Errorf("unknown source type %q", source.SourceType)
	}
}

// persistDrafts upserts each draft independently so one bad row cannot sink
// the batch, and returns how many were written.
func (s *menuIngestionService) persistDrafts(ctx context.Context, logger *zap.Logger, restaurantID uuid.UUID, drafts []models.MenuItemDraft) int {
	written := 0
	for _, draft := range drafts {
		if err := s.items.Upsert(ctx, restaurantID, draft); err != nil {
			logger.Warn("Failed to upsert menu item",
				zap.String("item_name", draft.Name),
				zap.Error(err))
			continue
		}
		written++
	}
	return written
}

// markFailed records the failure reason. This is best effort: if the write
// itself fails the source stays in its previous status. The reason is
// surfaced through the API, so signed URLs and keys are redacted first.
func (s *menuIngestionService) markFailed(ctx context.Context, sourceID uuid.UUID, cause error) {
	msg := logging.SanitizeError(cause)
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	if err := s.sources.SetStatus(ctx, sourceID, models.SourceStatusFailed, &msg); err != nil {
		s.logger.Error("Failed to record menu source failure",
			zap.String("source_id", sourceID.String()),
			zap.Error(err))
	}
}
