package utils

import "strings"

// FallbackMealName names a meal from its recipes when no better name is
// available: "Meal", "A", "A & B", "A, B & C".
func FallbackMealName(recipeNames []string) string {
	var names []string
	for _, n := range recipeNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	switch len(names) {
	case 0:
		return "Meal"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " & " + names[len(names)-1]
	}
}
