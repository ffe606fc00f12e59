package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/apperrors"
	"github.com/dishlens/dishlens-engine/pkg/llm"
	"github.com/dishlens/dishlens-engine/pkg/models"
	"github.com/dishlens/dishlens-engine/pkg/repositories"
	"github.com/dishlens/dishlens-engine/pkg/storage"
)

// ClassificationOutcome is the terminal state of one classification run.
type ClassificationOutcome string

const (
	// OutcomeMatched means the photo was linked to a catalog item.
	OutcomeMatched ClassificationOutcome = "matched"
	// OutcomeNoMatch means a dish was identified but no catalog item fit.
	OutcomeNoMatch ClassificationOutcome = "no_match"
	// OutcomeNotFood means the photo does not show food.
	OutcomeNotFood ClassificationOutcome = "not_food"
	// OutcomeNoMenuItems means the restaurant has no catalog to match against.
	OutcomeNoMenuItems ClassificationOutcome = "no_menu_items"
)

// ClassificationResult describes what classification concluded about a photo.
type ClassificationResult struct {
	PhotoID    uuid.UUID             `json:"photo_id"`
	Outcome    ClassificationOutcome `json:"outcome"`
	DishName   string                `json:"dish_name,omitempty"`
	MenuItemID *uuid.UUID            `json:"menu_item_id,omitempty"`
}

// PhotoClassifierService identifies the dish in a customer photo and links
// the photo to the menu item it depicts.
type PhotoClassifierService interface {
	Classify(ctx context.Context, restaurantID, photoID uuid.UUID) (*ClassificationResult, error)
	// ClassifyAsync runs Classify detached from the caller.
	ClassifyAsync(restaurantID, photoID uuid.UUID)
}

type photoClassifierService struct {
	photos repositories.PhotoRepository
	items  repositories.MenuItemRepository
	client llm.Client
	store  storage.ObjectStore
	runner TaskDispatcher
	logger *zap.Logger
}

// NewPhotoClassifierService creates a new PhotoClassifierService.
func NewPhotoClassifierService(
	photos repositories.PhotoRepository,
	items repositories.MenuItemRepository,
	client llm.Client,
	store storage.ObjectStore,
	runner TaskDispatcher,
	logger *zap.Logger,
) PhotoClassifierService {
	return &photoClassifierService{
		photos: photos,
		items:  items,
		client: client,
		store:  store,
		runner: runner,
		logger: logger.Named("photo-classifier"),
	}
}

var _ PhotoClassifierService = (*photoClassifierService)(nil)

func (s *photoClassifierService) ClassifyAsync(restaurantID, photoID uuid.UUID) {
	s.runner.Dispatch("classify-photo", func(ctx context.Context) error {
		_, err := s.Classify(ctx, restaurantID, photoID)
		return err
	})
}

func (s *photoClassifierService) Classify(ctx context.Context, restaurantID, photoID uuid.UUID) (*ClassificationResult, error) {
	logger := s.logger.With(zap.String("photo_id", photoID.String()))

	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo == nil || photo.RestaurantID != restaurantID {
		return nil, apperrors.ErrNotFound
	}

	items, err := s.items.ListByRestaurant(ctx, photo.RestaurantID)
	if err != nil {
		return nil, err
	}
	// An empty catalog can never produce a match, so skip the model entirely.
	if len(items) == 0 {
		logger.Info("Skipping classification, restaurant has no menu items")
		return &ClassificationResult{PhotoID: photoID, Outcome: OutcomeNoMenuItems}, nil
	}

	imageURL, err := s.store.SignedURL(photo.FilePath)
	if err != nil {
		return nil, err
	}

	isFood, err := s.checkIsFood(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	if !isFood {
		logger.Info("Photo rejected by food gate")
		return &ClassificationResult{PhotoID: photoID, Outcome: OutcomeNotFood}, nil
	}

	dishName, err := s.identifyDish(ctx, imageURL, items)
	if err != nil {
		return nil, err
	}
	// A null or empty answer means the model declined to name a dish.
	if dishName == "" {
		logger.Info("Dish identification returned no name")
		return &ClassificationResult{PhotoID: photoID, Outcome: OutcomeNoMatch}, nil
	}

	match := MatchMenuItem(items, dishName)
	if match == nil {
		logger.Info("No catalog item matched identified dish",
			zap.String("dish_name", dishName))
		return &ClassificationResult{PhotoID: photoID, Outcome: OutcomeNoMatch, DishName: dishName}, nil
	}

	if err := s.photos.SetMenuItem(ctx, photoID, match.ID); err != nil {
		return nil, &PersistenceError{Op: "photo match", Err: err}
	}

	logger.Info("Photo linked to menu item",
		zap.String("dish_name", dishName),
		zap.String("menu_item_id", match.ID.String()))
	return &ClassificationResult{
		PhotoID:    photoID,
		Outcome:    OutcomeMatched,
		DishName:   dishName,
		MenuItemID: &match.ID,
	}, nil
}

// checkIsFood is the cheap first stage: a yes/no gate before the more
// expensive identification call.
func (s *photoClassifierService) checkIsFood(ctx context.Context, imageURL string) (bool, error) {
	response, err := s.client.GenerateVisionResponse(ctx, llm.VisionRequest{
		Prompt: "Does this photo primarily show food or drink that a restaurant might serve? " +
			`Respond with JSON only: {"is_food": true} or {"is_food": false}.`,
		SystemMessage: classifierSystemMessage,
		ImageURL:      imageURL,
		Temperature:   0,
	})
	if err != nil {
		return false, fmt.Errorf("food gate failed: %w", err)
	}

	jsonStr, err := llm.ExtractJSON(response)
	if err != nil {
		return false, fmt.Errorf("food gate returned unparseable response: %w", err)
	}

	var gate struct {
		IsFood bool `json:"is_food"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &gate); err != nil {
		return false, fmt.Errorf("food gate returned unparseable response: %w", err)
	}

	return gate.IsFood, nil
}

func (s *photoClassifierService) identifyDish(ctx context.Context, imageURL string, items []*models.MenuItem) (string, error) {
	response, err := s.client.GenerateVisionResponse(ctx, llm.VisionRequest{
		Prompt:        buildIdentificationPrompt(items),
		SystemMessage: classifierSystemMessage,
		ImageURL:      imageURL,
		Temperature:   0,
	})
	if err != nil {
		return "", fmt.Errorf("dish identification failed: %w", err)
	}

	jsonStr, err := llm.ExtractJSON(response)
	if err != nil {
		return "", fmt.Errorf("dish identification returned unparseable response: %w", err)
	}

	var identified struct {
		DishName *string `json:"dish_name"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &identified); err != nil {
		return "", fmt.Errorf("dish identification returned unparseable response: %w", err)
	}
	if identified.DishName == nil {
		return "", nil
	}

	return strings.TrimSpace(*identified.DishName), nil
}

const classifierSystemMessage = "You are a restaurant dish identification assistant. " +
	"Respond with valid JSON only, no explanations or markdown."

func buildIdentificationPrompt(items []*models.MenuItem) string {
	var b strings.Builder
	b.WriteString("Identify the dish shown in this photo.\n\n")
	b.WriteString("The restaurant's menu contains the following items:\n")
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item.Name)
		if item.Category != nil {
			b.WriteString(" (")
			b.WriteString(*item.Category)
			b.WriteString(")")
		}
		if item.Description != nil {
			b.WriteString(": ")
			b.WriteString(*item.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nIf the photo shows one of these items, answer with that exact name. ")
	b.WriteString("Otherwise answer with the most specific common name for the dish, ")
	b.WriteString("or null if you cannot name it.\n\n")
	b.WriteString(`Respond with JSON only: {"dish_name": "<name>"} or {"dish_name": null}`)
	return b.String()
}
