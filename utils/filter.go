package utils

import (
	"strings"

	"pantrytrack/models"
)

// FilterItems does the in-memory substring search used when full-text search
// is unavailable. An empty query matches everything.
func FilterItems(items []models.FoodItem, query string) []models.FoodItem {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.FoodItem, 0, len(items))
	for _, it := range items {
		if q == "" ||
			strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.Category), q) ||
			strings.Contains(strings.ToLower(it.Notes), q) {
			out = append(out, it)
		}
	}
	return out
}
