package utils

import (
	"strings"

	"pantrytrack/models"
)

type dimension int

const (
	dimMass dimension = iota + 1
	dimVolume
	dimCount
)

type unitDef struct {
	dim    dimension
	factor float64 // to g, ml or count
}

var unitTable = map[string]unitDef{
	"g":     {dimMass, 1},
	"kg":    {dimMass, 1000},
	"mg":    {dimMass, 0.001},
	"oz":    {dimMass, 28.3495},
	"lb":    {dimMass, 453.592},
	"ml":    {dimVolume, 1},
	"l":     {dimVolume, 1000},
	"tsp":   {dimVolume, 4.92892},
	"tbsp":  {dimVolume, 14.7868},
	"cup":   {dimVolume, 236.588},
	"fl oz": {dimVolume, 29.5735},
	"piece": {dimCount, 1},
}

var unitAliases = map[string]string{
	"gram": "g", "grams": "g", "gr": "g",
	"kilogram": "kg", "kilograms": "kg", "kgs": "kg",
	"milligram": "mg", "milligrams": "mg",
	"ounce": "oz", "ounces": "oz",
	"pound": "lb", "pounds": "lb", "lbs": "lb",
	"milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"teaspoon": "tsp", "teaspoons": "tsp",
	"tablespoon": "tbsp", "tablespoons": "tbsp",
	"cups": "cup",
	"floz": "fl oz", "fl. oz": "fl oz", "fluid ounce": "fl oz", "fluid ounces": "fl oz",
	"pieces": "piece", "pc": "piece", "pcs": "piece", "each": "piece", "unit": "piece", "units": "piece",
	"item": "piece", "items": "piece",
}

// servingUnits are unit names meaning "one serving of the item".
var servingUnits = map[string]bool{"serving": true, "servings": true, "portion": true, "portions": true}

// NormalizeUnit resolves aliases ("Tablespoons" -> "tbsp"). Unknown units are
// returned lowercased and trimmed.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if a, ok := unitAliases[u]; ok {
		return a
	}
	return u
}

// IsServingUnit reports whether unit means a whole serving of an item.
func IsServingUnit(unit string) bool {
	return servingUnits[NormalizeUnit(unit)]
}

// ConvertUnit converts qty between two units of the same dimension. Unknown
// units, and pairs across dimensions, convert 1:1.
func ConvertUnit(qty float64, from, to string) float64 {
	f, okF := unitTable[NormalizeUnit(from)]
	t, okT := unitTable[NormalizeUnit(to)]
	if !okF || !okT || f.dim != t.dim {
		return qty
	}
	return qty * f.factor / t.factor
}

// CanConvert reports whether from and to are both known and share a dimension.
func CanConvert(from, to string) bool {
	f, okF := unitTable[NormalizeUnit(from)]
	t, okT := unitTable[NormalizeUnit(to)]
	return okF && okT && f.dim == t.dim
}

func isMass(unit string) bool {
	d, ok := unitTable[NormalizeUnit(unit)]
	return ok && d.dim == dimMass
}

// ServingsFor returns how many servings of item an ingredient amount is.
//
// Order of resolution: explicit serving units; the item's own serving unit
// (after conversion); mass via the item's serving weight in grams; otherwise
// the quantity is taken 1:1 in the item's serving unit.
func ServingsFor(qty float64, unit string, item models.FoodItem) float64 {
	if qty <= 0 {
		return 0
	}
	size := item.ServingSize
	if size <= 0 {
		size = 1
	}
	switch {
	case IsServingUnit(unit) || unit == "":
		return qty
	case CanConvert(unit, item.ServingUnit):
		return ConvertUnit(qty, unit, item.ServingUnit) / size
	case isMass(unit) && item.ServingSizeGrams != nil && *item.ServingSizeGrams > 0:
		return ConvertUnit(qty, unit, "g") / *item.ServingSizeGrams
	default:
		return qty / size
	}
}
