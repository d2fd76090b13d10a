// Package data holds the demo fixtures served when the hosted database is
// unreachable.
package data

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"pantrytrack/mappers"
	"pantrytrack/models"
	"pantrytrack/utils"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed demo.yaml
var demoYAML []byte

type nutritionFixture struct {
	Calories float64 `yaml:"calories"`
	Protein  float64 `yaml:"protein"`
	Carbs    float64 `yaml:"carbs"`
	Fat      float64 `yaml:"fat"`
	Fiber    float64 `yaml:"fiber"`
	Sugar    float64 `yaml:"sugar"`
	Sodium   float64 `yaml:"sodium"`
	SatFat   float64 `yaml:"sat_fat"`
}

type itemFixture struct {
	Name             string           `yaml:"name"`
	Category         string           `yaml:"category"`
	InStock          bool             `yaml:"in_stock"`
	ServingSize      float64          `yaml:"serving_size"`
	ServingUnit      string           `yaml:"serving_unit"`
	ServingSizeGrams float64          `yaml:"serving_size_grams"`
	Nutrition        nutritionFixture `yaml:"nutrition"`
	Price            float64          `yaml:"price"`
	PriceQuantity    float64          `yaml:"price_quantity"`
	PriceUnit        string           `yaml:"price_unit"`
	Notes            string           `yaml:"notes"`
}

type recipeFixture struct {
	Name         string   `yaml:"name"`
	Servings     int      `yaml:"servings"`
	Instructions string   `yaml:"instructions"`
	Tags         []string `yaml:"tags"`
	Ingredients  []struct {
		Item     string  `yaml:"item"`
		Quantity float64 `yaml:"quantity"`
		Unit     string  `yaml:"unit"`
	} `yaml:"ingredients"`
}

type mealLogFixture struct {
	DaysAgo  int    `yaml:"days_ago"`
	MealType string `yaml:"meal_type"`
	Name     string `yaml:"name"`
	Recipes  []struct {
		Recipe   string  `yaml:"recipe"`
		Servings float64 `yaml:"servings"`
	} `yaml:"recipes"`
}

// Fixtures is the parsed demo data set.
type Fixtures struct {
	User struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		FullName string `yaml:"full_name"`
	} `yaml:"user"`
	Goal struct {
		Calories    float64 `yaml:"calories"`
		Protein     float64 `yaml:"protein"`
		Carbs       float64 `yaml:"carbs"`
		Fat         float64 `yaml:"fat"`
		DailyBudget float64 `yaml:"daily_budget"`
	} `yaml:"goal"`
	Items    []itemFixture    `yaml:"items"`
	Tags     []models.TagView `yaml:"tags"`
	Recipes  []recipeFixture  `yaml:"recipes"`
	MealLogs []mealLogFixture `yaml:"meal_logs"`
}

// Load parses the embedded demo data.
func Load() (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(demoYAML, &f); err != nil {
		return nil, fmt.Errorf("parse demo fixtures: %w", err)
	}
	return &f, nil
}

// FoodItems returns the fixture items as view models.
func (f *Fixtures) FoodItems() []models.FoodItem {
	out := make([]models.FoodItem, 0, len(f.Items))
	for _, it := range f.Items {
		fi := models.FoodItem{
			Name:          it.Name,
			Category:      it.Category,
			InStock:       it.InStock,
			ServingSize:   it.ServingSize,
			ServingUnit:   it.ServingUnit,
			Nutrition:     models.Nutrition(it.Nutrition),
			Price:         it.Price,
			PriceQuantity: it.PriceQuantity,
			PriceUnit:     it.PriceUnit,
			Notes:         it.Notes,
		}
		if it.ServingSizeGrams > 0 {
			g := it.ServingSizeGrams
			fi.ServingSizeGrams = &g
		}
		out = append(out, fi)
	}
	return out
}

// SeedDemo writes the fixtures for the demo user. It does nothing when the
// demo user already exists.
func SeedDemo(db *gorm.DB) error {
	f, err := Load()
	if err != nil {
		return err
	}

	var existing models.User
	err = db.Where("email = ?", f.User.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		hash, err := utils.HashPassword(f.User.Password)
		if err != nil {
			return err
		}
		user := models.User{Email: f.User.Email, Password: hash, FullName: f.User.FullName}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		goal := models.NutritionGoal{
			UserID:      user.ID,
			Calories:    f.Goal.Calories,
			Protein:     f.Goal.Protein,
			Carbs:       f.Goal.Carbs,
			Fat:         f.Goal.Fat,
			DailyBudget: f.Goal.DailyBudget,
		}
		if err := tx.Create(&goal).Error; err != nil {
			return err
		}

		itemIDs := map[string]uint{}
		for _, fi := range f.FoodItems() {
			row := mappers.FoodItemToDBInsert(fi)
			row.UserID = user.ID
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed item %s: %w", fi.Name, err)
			}
			itemIDs[fi.Name] = row.ID
		}

		tags := map[string]models.Tag{}
		for _, t := range f.Tags {
			row := models.Tag{
				UserID:         user.ID,
				Name:           t.Name,
				NormalizedName: mappers.NormalizeName(t.Name),
				Color:          t.Color,
				Description:    t.Description,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed tag %s: %w", t.Name, err)
			}
			tags[t.Name] = row
		}

		recipes := map[string]models.RecipeView{}
		for _, r := range f.Recipes {
			row := models.Recipe{
				UserID:          user.ID,
				Name:            r.Name,
				Servings:        r.Servings,
				Instructions:    r.Instructions,
				NutritionSource: models.NutritionSourceLinked,
			}
			for _, ing := range r.Ingredients {
				id, ok := itemIDs[ing.Item]
				if !ok {
					return fmt.Errorf("recipe %s: unknown item %s", r.Name, ing.Item)
				}
				row.Items = append(row.Items, models.RecipeItem{ItemID: id, Quantity: ing.Quantity, Unit: ing.Unit})
			}
			for _, name := range r.Tags {
				row.Tags = append(row.Tags, tags[name])
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed recipe %s: %w", r.Name, err)
			}
			var full models.Recipe
			if err := tx.Preload("Items.Item").Preload("Tags").First(&full, row.ID).Error; err != nil {
				return err
			}
			recipes[r.Name] = mappers.DBRecipeToRecipe(full)
		}

		today := time.Now()
		today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		for _, ml := range f.MealLogs {
			row := models.MealLog{
				UserID:   user.ID,
				Date:     today.AddDate(0, 0, -ml.DaysAgo),
				MealType: ml.MealType,
				Name:     ml.Name,
			}
			var parts []utils.MealPart
			var names []string
			for _, ref := range ml.Recipes {
				rv, ok := recipes[ref.Recipe]
				if !ok {
					return fmt.Errorf("meal log: unknown recipe %s", ref.Recipe)
				}
				row.Recipes = append(row.Recipes, models.MealLogRecipe{RecipeID: rv.ID, Servings: ref.Servings})
				parts = append(parts, utils.MealPart{PerServing: rv.Nutrition, CostPerServing: rv.CostPerServing, Servings: ref.Servings})
				names = append(names, rv.Name)
			}
			if row.Name == "" {
				row.Name = utils.FallbackMealName(names)
			}
			n, cost := utils.DeriveMealTotals(parts)
			row.Calories, row.Protein, row.Carbs, row.Fat, row.Cost = n.Calories, n.Protein, n.Carbs, n.Fat, cost
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed meal log: %w", err)
			}
		}
		return nil
	})
}
