package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/llm"
	"github.com/dishlens/dishlens-engine/pkg/models"
)

func newTestExtractor(response string, err error) (*Extractor, *llm.MockClient) {
	mock := llm.NewMockClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float32) (string, error) {
		return response, err
	}
	mock.GenerateVisionResponseFunc = func(ctx context.Context, req llm.VisionRequest) (string, error) {
		return response, err
	}
	return New(mock, zap.NewNop()), mock
}

// The same logical items in each of the four tolerated response shapes must
// normalize identically.
func TestFromTextShapeSniffing(t *testing.T) {
	shapes := map[string]string{
		"bare array":        `[{"name": "Tacos", "price": "$3"}, {"name": "Burritos", "price": "$8"}]`,
		"items field":       `{"items": [{"name": "Tacos", "price": "$3"}, {"name": "Burritos", "price": "$8"}]}`,
		"menuItems field":   `{"menuItems": [{"name": "Tacos", "price": "$3"}, {"name": "Burritos", "price": "$8"}]}`,
		"first array field": `{"restaurant": "El Toro", "dishes": [{"name": "Tacos", "price": "$3"}, {"name": "Burritos", "price": "$8"}]}`,
	}

	for label, response := range shapes {
		t.Run(label, func(t *testing.T) {
			e, _ := newTestExtractor(response, nil)

			items, err := e.FromText(context.Background(), "menu text")
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, "Tacos", items[0].Name)
			require.NotNil(t, items[0].Price)
			assert.Equal(t, "$3", *items[0].Price)
			assert.Equal(t, "Burritos", items[1].Name)
		})
	}
}

func TestFromTextNormalization(t *testing.T) {
	e, _ := newTestExtractor(`{"items": [
		{"name": "  Tacos  ", "category": " Mains ", "description": "", "price": "  $3 "},
		{"name": "", "price": "$1"},
		{"description": "nameless entry"},
		{"name": "Horchata", "price": 2.5}
	]}`, nil)

	items, err := e.FromText(context.Background(), "menu text")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Tacos", items[0].Name)
	require.NotNil(t, items[0].Category)
	assert.Equal(t, "Mains", *items[0].Category)
	assert.Nil(t, items[0].Description)
	require.NotNil(t, items[0].Price)
	assert.Equal(t, "$3", *items[0].Price)

	assert.Equal(t, "Horchata", items[1].Name)
	require.NotNil(t, items[1].Price)
	assert.Equal(t, "2.5", *items[1].Price)
}

func TestFromTextMarkdownWrappedResponse(t *testing.T) {
	e, _ := newTestExtractor("```json\n{\"items\": [{\"name\": \"Tacos\"}]}\n```", nil)

	items, err := e.FromText(context.Background(), "menu text")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tacos", items[0].Name)
}

func TestFromTextUnrecognizedShape(t *testing.T) {
	e, _ := newTestExtractor(`{"restaurant": "El Toro", "open": true}`, nil)

	_, err := e.FromText(context.Background(), "menu text")
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
}

func TestFromTextNonJSONResponse(t *testing.T) {
	e, _ := newTestExtractor("I could not find any menu on this page.", nil)

	_, err := e.FromText(context.Background(), "menu text")
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
}

func TestFromTextNoItems(t *testing.T) {
	e, _ := newTestExtractor(`{"items": []}`, nil)

	_, err := e.FromText(context.Background(), "menu text")
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestFromTextAllItemsFiltered(t *testing.T) {
	e, _ := newTestExtractor(`{"items": [{"name": "  "}, {"price": "$9"}]}`, nil)

	_, err := e.FromText(context.Background(), "menu text")
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestFromTextModelError(t *testing.T) {
	e, _ := newTestExtractor("", errors.New("rate limited"))

	_, err := e.FromText(context.Background(), "menu text")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnrecognizedShape)
}

func TestFromTextSendsMenuTextInPrompt(t *testing.T) {
	mock := llm.NewMockClient()
	var gotPrompt string
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float32) (string, error) {
		gotPrompt = prompt
		return `{"items": [{"name": "Tacos"}]}`, nil
	}
	e := New(mock, zap.NewNop())

	_, err := e.FromText(context.Background(), "Tacos $3, Burritos $8")
	require.NoError(t, err)
	assert.Contains(t, gotPrompt, "Tacos $3, Burritos $8")
}

func TestFromImage(t *testing.T) {
	mock := llm.NewMockClient()
	var gotReq llm.VisionRequest
	mock.GenerateVisionResponseFunc = func(ctx context.Context, req llm.VisionRequest) (string, error) {
		gotReq = req
		return `[{"name": "Chicken Burrito"}, {"name": "Steak Burrito"}]`, nil
	}
	e := New(mock, zap.NewNop())

	items, err := e.FromImage(context.Background(), ImageInput{Data: []byte{0xFF, 0xD8}, MediaType: "image/jpeg"})
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, []models.MenuItemDraft{
		{Name: "Chicken Burrito"},
		{Name: "Steak Burrito"},
	}, items)
	assert.Equal(t, "image/jpeg", gotReq.MediaType)
	assert.Contains(t, gotReq.Prompt, "separate entries")
}
