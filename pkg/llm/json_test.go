package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlainObject(t *testing.T) {
	got, err := ExtractJSON(`{"items": [{"name": "Tacos"}]}`)
	require.NoError(t, err)
	assert.Equal(t, `{"items": [{"name": "Tacos"}]}`, got)
}

func TestExtractJSONBareArray(t *testing.T) {
	got, err := ExtractJSON(`[{"name": "Tacos"}, {"name": "Burritos"}]`)
	require.NoError(t, err)
	assert.Equal(t, `[{"name": "Tacos"}, {"name": "Burritos"}]`, got)
}

func TestExtractJSONMarkdownFence(t *testing.T) {
	response := "```json\n{\"name\": \"Tacos\"}\n```"
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Tacos"}`, got)
}

func TestExtractJSONThinkTags(t *testing.T) {
	response := "<think>\nThe menu lists two dishes.\n</think>\n{\"name\": \"Tacos\"}"
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Tacos"}`, got)
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	response := `Here is the extraction result: {"name": "Tacos", "price": "$3"} Hope that helps!`
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Tacos", "price": "$3"}`, got)
}

func TestExtractJSONBracketsInsideStrings(t *testing.T) {
	response := `{"description": "comes with {spicy} [mild] salsa"}`
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, response, got)
}

func TestExtractJSONArrayBeforeObject(t *testing.T) {
	response := `[{"name": "Tacos"}] trailing {"ignored": true}`
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `[{"name": "Tacos"}]`, got)
}

func TestExtractJSONNoJSON(t *testing.T) {
	_, err := ExtractJSON("Sorry, I could not read the menu.")
	require.Error(t, err)
}

func TestExtractJSONUnbalanced(t *testing.T) {
	_, err := ExtractJSON(`{"name": "Tacos"`)
	require.Error(t, err)
}
