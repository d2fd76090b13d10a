// Package mappers translates database rows into the view models served by the
// API and back.
package mappers

import (
	"strings"

	"pantrytrack/models"
	"pantrytrack/utils"
)

const (
	DefaultCategory    = "Other"
	DefaultServingUnit = "serving"
)

// NormalizeName lowercases, trims and collapses inner whitespace. The
// database enforces uniqueness on this form.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// DBItemToFoodItem maps an items row to the client view model. Missing
// columns fall back to defaults: category "Other", in stock, zero nutrition,
// one "serving".
func DBItemToFoodItem(row models.Item) models.FoodItem {
	fi := models.FoodItem{
		ID:          row.ID,
		Name:        row.Name,
		Category:    DefaultCategory,
		InStock:     true,
		ServingSize: 1,
		ServingUnit: DefaultServingUnit,
		Nutrition: models.Nutrition{
			Calories: deref(row.Calories),
			Protein:  deref(row.Protein),
			Carbs:    deref(row.Carbs),
			Fat:      deref(row.Fat),
			Fiber:    deref(row.Fiber),
			Sugar:    deref(row.Sugar),
			Sodium:   deref(row.Sodium),
			SatFat:   deref(row.SatFat),
		},
		Price:         deref(row.Price),
		PriceQuantity: deref(row.PriceQuantity),
		PriceUnit:     derefStr(row.PriceUnit),
		Barcode:       derefStr(row.Barcode),
		ImageURL:      derefStr(row.ImageURL),
		Notes:         derefStr(row.Notes),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.Category != nil && strings.TrimSpace(*row.Category) != "" {
		fi.Category = *row.Category
	}
	if row.InStock != nil {
		fi.InStock = *row.InStock
	}
	if row.ServingSize != nil && *row.ServingSize > 0 {
		fi.ServingSize = *row.ServingSize
	}
	if row.ServingUnit != nil && *row.ServingUnit != "" {
		fi.ServingUnit = *row.ServingUnit
	}
	if row.ServingSizeGrams != nil && *row.ServingSizeGrams > 0 {
		g := *row.ServingSizeGrams
		fi.ServingSizeGrams = &g
	}
	fi.CostPerUnit = utils.CalculateCostPerUnit(fi.Price, fi.PriceQuantity)
	return fi
}

// FoodItemToDBInsert builds a new items row from a view model. Ownership
// (UserID) is set by the caller.
func FoodItemToDBInsert(fi models.FoodItem) models.Item {
	name := strings.TrimSpace(fi.Name)
	category := strings.TrimSpace(fi.Category)
	if category == "" {
		category = DefaultCategory
	}
	unit := strings.TrimSpace(fi.ServingUnit)
	if unit == "" {
		unit = DefaultServingUnit
	}
	size := fi.ServingSize
	if size <= 0 {
		size = 1
	}
	inStock := fi.InStock
	n := fi.Nutrition

	row := models.Item{
		Name:           name,
		NormalizedName: NormalizeName(name),
		Category:       &category,
		InStock:        &inStock,
		ServingSize:    &size,
		ServingUnit:    &unit,
		Calories:       ptr(n.Calories),
		Protein:        ptr(n.Protein),
		Carbs:          ptr(n.Carbs),
		Fat:            ptr(n.Fat),
		Fiber:          ptr(n.Fiber),
		Sugar:          ptr(n.Sugar),
		Sodium:         ptr(n.Sodium),
		SatFat:         ptr(n.SatFat),
		Price:          optional(fi.Price),
		PriceQuantity:  optional(fi.PriceQuantity),
		PriceUnit:      optionalStr(fi.PriceUnit),
		Barcode:        optionalStr(fi.Barcode),
		ImageURL:       optionalStr(fi.ImageURL),
		Notes:          optionalStr(fi.Notes),
	}
	if fi.ServingSizeGrams != nil && *fi.ServingSizeGrams > 0 {
		row.ServingSizeGrams = ptr(*fi.ServingSizeGrams)
	}
	return row
}

// FoodItemToDBUpdate returns the column set for a full update of an item.
func FoodItemToDBUpdate(fi models.FoodItem) map[string]any {
	row := FoodItemToDBInsert(fi)
	cols := map[string]any{
		"name":               row.Name,
		"normalized_name":    row.NormalizedName,
		"category":           row.Category,
		"in_stock":           row.InStock,
		"serving_size":       row.ServingSize,
		"serving_unit":       row.ServingUnit,
		"serving_size_grams": row.ServingSizeGrams,
		"calories":           row.Calories,
		"protein":            row.Protein,
		"carbs":              row.Carbs,
		"fat":                row.Fat,
		"fiber":              row.Fiber,
		"sugar":              row.Sugar,
		"sodium":             row.Sodium,
		"sat_fat":            row.SatFat,
		"price":              row.Price,
		"price_quantity":     row.PriceQuantity,
		"price_unit":         row.PriceUnit,
		"notes":              row.Notes,
	}
	// image_url belongs to the upload endpoint; an omitted barcode keeps the old one
	if row.Barcode != nil {
		cols["barcode"] = row.Barcode
	}
	return cols
}

// DBItemsToFoodItems maps a slice of rows.
func DBItemsToFoodItems(rows []models.Item) []models.FoodItem {
	out := make([]models.FoodItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, DBItemToFoodItem(r))
	}
	return out
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptr[T any](v T) *T { return &v }

func optional(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optionalStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
