package utils

import (
	"math"

	"pantrytrack/models"
)

// Ingredient is an amount of a pantry item used by a recipe.
type Ingredient struct {
	ItemID   uint    `json:"item_id"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// ItemIndex looks up food items by id.
type ItemIndex map[uint]models.FoodItem

func IndexItems(items []models.FoodItem) ItemIndex {
	idx := make(ItemIndex, len(items))
	for _, it := range items {
		idx[it.ID] = it
	}
	return idx
}

// CalculateCostPerUnit returns price / quantity, or 0 when either is zero or
// negative.
func CalculateCostPerUnit(price, quantity float64) float64 {
	if price <= 0 || quantity <= 0 {
		return 0
	}
	return price / quantity
}

// CalculateIngredientCost prices an ingredient amount against the item's
// purchase price. Items without a price cost nothing.
func CalculateIngredientCost(ing Ingredient, item models.FoodItem) float64 {
	perUnit := CalculateCostPerUnit(item.Price, item.PriceQuantity)
	if perUnit == 0 {
		return 0
	}
	priceUnit := item.PriceUnit
	if priceUnit == "" {
		priceUnit = item.ServingUnit
	}
	return perUnit * QuantityIn(ing.Quantity, ing.Unit, item, priceUnit)
}

// QuantityIn expresses an ingredient amount in target units, using the
// item's serving definition to bridge serving-based amounts. Unknown pairs
// are taken 1:1.
func QuantityIn(qty float64, unit string, item models.FoodItem, target string) float64 {
	if NormalizeUnit(unit) == NormalizeUnit(target) {
		return qty
	}
	size := item.ServingSize
	if size <= 0 {
		size = 1
	}
	switch {
	case IsServingUnit(unit) || unit == "":
		if IsServingUnit(target) {
			return qty
		}
		return ConvertUnit(qty*size, item.ServingUnit, target)
	case IsServingUnit(target):
		return ServingsFor(qty, unit, item)
	default:
		return ConvertUnit(qty, unit, target)
	}
}

// CalculateRecipeTotalCost sums ingredient costs. Ingredients whose item is
// not in items are ignored.
func CalculateRecipeTotalCost(ingredients []Ingredient, items ItemIndex) float64 {
	var total float64
	for _, ing := range ingredients {
		item, ok := items[ing.ItemID]
		if !ok {
			continue
		}
		total += CalculateIngredientCost(ing, item)
	}
	return total
}

func CalculateCostPerServing(total float64, servings int) float64 {
	if servings <= 0 {
		servings = 1
	}
	return Round2(total / float64(servings))
}

func Round2(v float64) float64 { return math.Round(v*100) / 100 }
