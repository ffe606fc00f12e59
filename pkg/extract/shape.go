package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dishlens/dishlens-engine/pkg/models"
)

// namedItemFields are the object keys checked before falling back to the
// first array-valued field.
var namedItemFields = []string{"items", "menuItems"}

// sniffItemList locates the item array inside a model response whose exact
// shape is not under our control. Shapes are tried in order: a bare array,
// an object's "items" field, its "menuItems" field, then the first
// array-valued field in document order.
func sniffItemList(doc string) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(doc)

	if strings.HasPrefix(trimmed, "[") {
		return decodeItemArray(json.RawMessage(trimmed))
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	for _, key := range namedItemFields {
		if raw, ok := obj[key]; ok && isJSONArray(raw) {
			return decodeItemArray(raw)
		}
	}

	// Fall back to the first array-valued field. A map loses key order, so
	// walk the document with a token decoder instead.
	if raw, ok := firstArrayField(trimmed); ok {
		return decodeItemArray(raw)
	}

	return nil, ErrUnrecognizedShape
}

// firstArrayField scans a top-level JSON object in document order and
// returns the value of the first field holding an array.
func firstArrayField(doc string) (json.RawMessage, bool) {
	dec := json.NewDecoder(strings.NewReader(doc))

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, false
	}

	for dec.More() {
		if _, err := dec.Token(); err != nil { // field name
			return nil, false
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, false
		}
		if isJSONArray(raw) {
			return raw, true
		}
	}

	return nil, false
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}

func decodeItemArray(raw json.RawMessage) ([]map[string]any, error) {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	return items, nil
}

// normalizeItems filters raw extracted entries into drafts: entries without a
// non-empty name are dropped, every string field is trimmed, and empty
// optional fields become nil.
func normalizeItems(raws []map[string]any) []models.MenuItemDraft {
	drafts := make([]models.MenuItemDraft, 0, len(raws))
	for _, raw := range raws {
		name := strings.TrimSpace(stringField(raw, "name"))
		if name == "" {
			continue
		}
		drafts = append(drafts, models.MenuItemDraft{
			Name:        name,
			Category:    optionalField(raw, "category"),
			Description: optionalField(raw, "description"),
			Price:       optionalField(raw, "price"),
		})
	}
	return drafts
}

func optionalField(raw map[string]any, key string) *string {
	v := strings.TrimSpace(stringField(raw, key))
	if v == "" {
		return nil
	}
	return &v
}

// stringField reads a field that should be a string but occasionally arrives
// as a number (models sometimes emit bare prices).
func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
