// Package extract turns unstructured menu content (scraped page text or a
// photo) into a normalized list of candidate menu items via a structured
// LLM call.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/llm"
	"github.com/dishlens/dishlens-engine/pkg/models"
)

const extractionTemperature = 0.2

// ImageInput is an image handed to the vision variant, either by URL or as
// raw bytes with a media type.
type ImageInput struct {
	URL       string
	Data      []byte
	MediaType string
}

// Extractor extracts structured menu items with a language model.
type Extractor struct {
	client llm.Client
	logger *zap.Logger
}

// New creates an Extractor.
func New(client llm.Client, logger *zap.Logger) *Extractor {
	return &Extractor{
		client: client,
		logger: logger.Named("extract"),
	}
}

// FromText extracts menu items from scraped page text.
func (e *Extractor) FromText(ctx context.Context, menuText string) ([]models.MenuItemDraft, error) {
	response, err := e.client.GenerateResponse(ctx, buildTextPrompt(menuText), systemMessage(), extractionTemperature)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	return e.parseItems(response)
}

// FromImage extracts menu items directly from a photo of a menu. Unlike the
// text path this is not tied to a source lifecycle; callers get the items
// back for review.
func (e *Extractor) FromImage(ctx context.Context, img ImageInput) ([]models.MenuItemDraft, error) {
	response, err := e.client.GenerateVisionResponse(ctx, llm.VisionRequest{
		Prompt:        buildImagePrompt(),
		SystemMessage: systemMessage(),
		ImageURL:      img.URL,
		ImageData:     img.Data,
		MediaType:     img.MediaType,
		Temperature:   extractionTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("image extraction call: %w", err)
	}

	return e.parseItems(response)
}

// parseItems takes a raw model response through JSON extraction, shape
// sniffing and normalization.
func (e *Extractor) parseItems(response string) ([]models.MenuItemDraft, error) {
	jsonStr, err := llm.ExtractJSON(response)
	if err != nil {
		e.logger.Error("extraction response contained no JSON",
			zap.String("response", response))
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	raws, err := sniffItemList(jsonStr)
	if err != nil {
		e.logger.Error("extraction response had unrecognized shape",
			zap.String("response", jsonStr))
		return nil, err
	}

	drafts := normalizeItems(raws)
	if len(drafts) == 0 {
		return nil, ErrNoItems
	}

	e.logger.Info("extracted menu items",
		zap.Int("raw_entries", len(raws)),
		zap.Int("items", len(drafts)))

	return drafts, nil
}

func systemMessage() string {
	return "You are a menu extraction assistant. You read restaurant menu content and " +
		"return structured data describing the food and drink items on it. " +
		"Return valid JSON only, with no additional text or explanation."
}

func buildTextPrompt(menuText string) string {
	var b strings.Builder

	b.WriteString("# Menu Item Extraction\n\n")
	b.WriteString("Below is text scraped from a restaurant's menu page. Extract every genuine ")
	b.WriteString("food or drink item on it.\n\n")

	b.WriteString("**Guidelines:**\n")
	b.WriteString("- Include only actual menu items; skip headings, hours, addresses, and marketing copy\n")
	b.WriteString("- Preserve price formatting exactly as written (e.g. \"$8.50\", \"8,50 EUR\")\n")
	b.WriteString("- Infer the category (e.g. \"Appetizers\", \"Mains\", \"Drinks\") when the page makes it visible\n")
	b.WriteString("- Leave category, description, and price empty when they are not stated\n\n")

	b.WriteString("**Output Format:**\n")
	b.WriteString("Return a JSON object with an `items` array:\n")
	b.WriteString("```json\n")
	b.WriteString("{\n")
	b.WriteString("  \"items\": [\n")
	b.WriteString("    {\"name\": \"Carne Asada Tacos\", \"category\": \"Tacos\", \"description\": \"Grilled steak, onion, cilantro\", \"price\": \"$3.50\"}\n")
	b.WriteString("  ]\n")
	b.WriteString("}\n")
	b.WriteString("```\n\n")

	b.WriteString("## Menu Text\n\n")
	b.WriteString(menuText)
	b.WriteString("\n")

	return b.String()
}

func buildImagePrompt() string {
	var b strings.Builder

	b.WriteString("This is a photo of a restaurant menu. Extract every genuine food or drink ")
	b.WriteString("item you can read on it.\n\n")

	b.WriteString("**Guidelines:**\n")
	b.WriteString("- List item variations as separate entries (e.g. \"Chicken Burrito\" and \"Steak Burrito\", not \"Burrito\")\n")
	b.WriteString("- Preserve price formatting exactly as printed\n")
	b.WriteString("- Infer the category from section headings when visible\n")
	b.WriteString("- Leave category, description, and price empty when they are not legible\n\n")

	b.WriteString("Return a JSON object with an `items` array, where each item has ")
	b.WriteString("`name` (required), `category`, `description`, and `price`.\n")

	return b.String()
}
