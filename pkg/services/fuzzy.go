package services

import (
	"strings"

	"github.com/dishlens/dishlens-engine/pkg/models"
)

// MatchMenuItem finds the catalog item a free-form dish name refers to.
// Matching is case-insensitive: an item matches when its name equals the
// candidate or when either name contains the other. The first match in
// catalog order wins; nil means no item matched.
func MatchMenuItem(items []*models.MenuItem, name string) *models.MenuItem {
	candidate := strings.ToLower(strings.TrimSpace(name))
	if candidate == "" {
		return nil
	}

	for _, item := range items {
		itemName := strings.ToLower(strings.TrimSpace(item.Name))
		if itemName == "" {
			continue
		}
		if itemName == candidate ||
			strings.Contains(itemName, candidate) ||
			strings.Contains(candidate, itemName) {
			return item
		}
	}

	return nil
}
