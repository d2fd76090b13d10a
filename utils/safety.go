package utils

import (
	"fmt"
	"strings"

	"pantrytrack/models"
)

// WarningSeverity categorizes how serious the flag is.
type WarningSeverity string

const (
	Info    WarningSeverity = "info"
	Caution WarningSeverity = "caution"
	High    WarningSeverity = "high"
)

// Warning is a structured nutrition finding for an item or recipe serving.
type Warning struct {
	Code           string          `json:"code"`
	Severity       WarningSeverity `json:"severity"`
	Message        string          `json:"message"`
	Metric         string          `json:"metric,omitempty"`
	Value          float64         `json:"value,omitempty"`
	Limit          float64         `json:"limit,omitempty"`
	PercentOfLimit float64         `json:"percent_of_limit,omitempty"`
	Reference      string          `json:"reference,omitempty"`
}

const (
	defaultCalorieTarget = 2000
	sodiumDailyLimitMg   = 2300
)

// AssessNutrition runs rule checks over one serving. servingGrams may be 0
// when the weight is unknown; calorieTarget 0 means 2000 kcal.
// Only emits findings when the inputs are present.
func AssessNutrition(name string, n models.Nutrition, servingGrams, calorieTarget float64) []Warning {
	warnings := []Warning{}

	kcal := n.Calories
	if kcal <= 0 {
		kcal = 4*n.Carbs + 4*n.Protein + 9*n.Fat
	}
	if calorieTarget <= 0 {
		calorieTarget = defaultCalorieTarget
	}
	sugarDailyLimitG := (0.10 * calorieTarget) / 4.0
	satFatDailyLimitG := (0.10 * calorieTarget) / 9.0

	// sugars
	if kcal > 0 && n.Sugar > 0 {
		pct := (n.Sugar * 4.0) / kcal
		if pct >= 0.10 {
			warnings = append(warnings, Warning{
				Code:      "sugars_high_item",
				Severity:  Caution,
				Message:   fmt.Sprintf("High sugars for this item (%.0f%% of its calories).", pct*100),
				Metric:    "sugar_%_of_item_kcal",
				Value:     Round2(pct * 100),
				Limit:     10,
				Reference: dgaRef("Added sugars ≤10% kcal"),
			})
		}
	}
	if n.Sugar > 0 {
		if w, ok := dailyShare("sugars", "sugar", n.Sugar, sugarDailyLimitG, "<10% kcal/day from added sugars"); ok {
			warnings = append(warnings, w)
		}
	}

	// saturated fat
	if kcal > 0 && n.SatFat > 0 {
		pct := (n.SatFat * 9.0) / kcal
		if pct >= 0.10 {
			warnings = append(warnings, Warning{
				Code:      "sat_fat_high_item",
				Severity:  High,
				Message:   fmt.Sprintf("High saturated fat for this item (%.0f%% of its calories).", pct*100),
				Metric:    "saturated_fat_%_of_item_kcal",
				Value:     Round2(pct * 100),
				Limit:     10,
				Reference: dgaRef("Saturated fat ≤10% kcal"),
			})
		}
		if w, ok := dailyShare("sat_fat", "saturated-fat", n.SatFat, satFatDailyLimitG, "<10% kcal/day from saturated fat"); ok {
			warnings = append(warnings, w)
		}
	}
	if n.SatFat <= 0 && looksHighSatSource(strings.ToLower(name)) {
		warnings = append(warnings, Warning{
			Code:      "satfat_source_heuristic",
			Severity:  Info,
			Message:   "Likely high in saturated fat (e.g., butter/cream/fatty meats).",
			Reference: dgaRef("Shift from saturated to unsaturated fats"),
		})
	}

	// sodium
	if n.Sodium > 0 {
		if w, ok := dailyShare("sodium", "sodium", n.Sodium, sodiumDailyLimitMg, "Limit sodium (CDRR)"); ok {
			warnings = append(warnings, w)
		}
		if kcal > 0 {
			per100 := (n.Sodium / kcal) * 100.0
			if per100 >= 400 {
				warnings = append(warnings, Warning{
					Code:      "sodium_dense",
					Severity:  Info,
					Message:   "High sodium density relative to calories.",
					Metric:    "sodium_mg_per_100kcal",
					Value:     Round2(per100),
					Reference: dgaRef("Reduce sodium; choose lower-sodium options"),
				})
			}
		}
	}

	// fiber density for carbohydrate foods
	if kcal > 0 && n.Carbs >= 15 && n.Fiber > 0 {
		per100 := (n.Fiber / kcal) * 100.0
		switch {
		case per100 < 1.0:
			warnings = append(warnings, Warning{
				Code:      "fiber_low_nudge",
				Severity:  Info,
				Message:   "Low dietary fiber for a carbohydrate food.",
				Metric:    "fiber_g_per_100kcal",
				Value:     Round2(per100),
				Reference: dgaRef("Fiber is underconsumed; emphasize fiber-rich foods"),
			})
		case per100 >= 2.5:
			warnings = append(warnings, Warning{
				Code:      "fiber_high_positive",
				Severity:  Info,
				Message:   "Good fiber density.",
				Metric:    "fiber_g_per_100kcal",
				Value:     Round2(per100),
				Reference: dgaRef("Emphasize fiber-rich foods"),
			})
		}
	}

	lower := strings.ToLower(name)
	if isLikelyWholeGrain(lower) {
		warnings = append(warnings, Warning{
			Code:      "whole_grain_positive",
			Severity:  Info,
			Message:   "Whole-grain choice supports fiber and nutrient density.",
			Reference: dgaRef("Make at least half of grains whole"),
		})
	} else if isLikelyRefinedGrain(lower) {
		warnings = append(warnings, Warning{
			Code:      "refined_grain_nudge",
			Severity:  Info,
			Message:   "Refined-grain item; consider a whole-grain swap.",
			Reference: dgaRef("Make at least half of grains whole"),
		})
	}

	if servingGrams > 0 && kcal > 0 {
		per100g := (kcal / servingGrams) * 100.0
		switch {
		case per100g >= 275:
			warnings = append(warnings, Warning{
				Code:      "energy_density_very_high",
				Severity:  Info,
				Message:   "Very energy-dense food; watch portions.",
				Metric:    "kcal_per_100g",
				Value:     Round2(per100g),
				Reference: dgaRef("Moderate high-energy-density foods"),
			})
		case per100g >= 150:
			warnings = append(warnings, Warning{
				Code:      "energy_density_high",
				Severity:  Info,
				Message:   "High energy density.",
				Metric:    "kcal_per_100g",
				Value:     Round2(per100g),
				Reference: dgaRef("Emphasize nutrient-dense foods"),
			})
		}
	}

	return warnings
}

// HasHighSeverity reports whether any warning is High.
func HasHighSeverity(ws []Warning) bool {
	for _, w := range ws {
		if w.Severity == High {
			return true
		}
	}
	return false
}

// dailyShare flags a serving that uses >=20% (caution) or >=40% (high) of a
// daily limit.
func dailyShare(code, label string, value, limit float64, ref string) (Warning, bool) {
	if limit <= 0 {
		return Warning{}, false
	}
	share := value / limit
	w := Warning{
		Metric:         code + "_%_of_daily_limit",
		Value:          Round2(share * 100),
		Limit:          100,
		PercentOfLimit: Round2(share * 100),
		Reference:      dgaRef(ref),
	}
	switch {
	case share >= 0.40:
		w.Code = code + "_very_high_daily_share"
		w.Severity = High
		w.Message = fmt.Sprintf("This serving provides ~%.0f%% of the daily %s limit.", share*100, label)
	case share >= 0.20:
		w.Code = code + "_high_daily_share"
		w.Severity = Caution
		w.Message = fmt.Sprintf("High share of the daily %s limit from one serving (~%.0f%%).", label, share*100)
	default:
		return Warning{}, false
	}
	return w, true
}

func dgaRef(where string) string {
	return "Dietary Guidelines for Americans 2020-2025: " + where
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isLikelyWholeGrain(name string) bool {
	return containsAny(name, "whole wheat", "whole-grain", "whole grain", "brown rice", "oat", "quinoa", "bulgur", "rye", "wholemeal")
}

func isLikelyRefinedGrain(name string) bool {
	return containsAny(name, "white bread", "white rice", "refined flour", "all-purpose flour", "cake", "pastry", "cracker", "biscuit")
}

func looksHighSatSource(name string) bool {
	return containsAny(name,
		"butter", "ghee", "cream", "cheese", "bacon", "sausage", "shortening",
		"palm oil", "palm kernel", "coconut oil", "lard")
}
