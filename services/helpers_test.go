package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"pantrytrack/config"
	"pantrytrack/models"
	"pantrytrack/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a migrated in-memory database private to the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))
	return db
}

func newUser(t *testing.T, db *gorm.DB, email string) uint {
	t.Helper()
	u := models.User{Email: email, Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

type fixture struct {
	db       *gorm.DB
	settings *SettingsService
	alerts   *AlertBus
	items    *ItemService
	recipes  *RecipeService
	ai       *AIService
	logs     *MealLogService
	plans    *MealPlanService
	pusher   *fakePusher
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	f := &fixture{db: db, pusher: &fakePusher{}}
	f.settings = NewSettingsService(db)
	f.alerts = NewAlertBus(db, NewRealtimeHub(), f.pusher, nil)
	f.items = NewItemService(db, f.settings, f.alerts, nil, nil)
	f.recipes = NewRecipeService(db, f.settings)
	f.ai = NewAIService(nil, f.items, nil)
	f.logs = NewMealLogService(db, f.recipes, f.ai)
	f.plans = NewMealPlanService(db, f.recipes)
	return f
}

func (f *fixture) item(t *testing.T, userID uint, fi models.FoodItem) models.FoodItem {
	t.Helper()
	out, err := f.items.Create(context.Background(), userID, fi)
	require.NoError(t, err)
	return out
}

func (f *fixture) recipe(t *testing.T, userID uint, in RecipeInput) models.RecipeView {
	t.Helper()
	out, err := f.recipes.Create(context.Background(), userID, in)
	require.NoError(t, err)
	return out
}

func gramsPtr(v float64) *float64 { return &v }

func oatsItem() models.FoodItem {
	return models.FoodItem{
		Name: "Rolled Oats", Category: "Grains", InStock: true,
		ServingSize: 40, ServingUnit: "g", ServingSizeGrams: gramsPtr(40),
		Nutrition: models.Nutrition{Calories: 150, Protein: 5, Carbs: 27, Fat: 2.5, Fiber: 4},
		Price:     4.5, PriceQuantity: 1000, PriceUnit: "g",
	}
}

func milkItem() models.FoodItem {
	return models.FoodItem{
		Name: "Whole Milk", Category: "Dairy", InStock: true,
		ServingSize: 1, ServingUnit: "cup",
		Nutrition: models.Nutrition{Calories: 149, Protein: 8, Carbs: 12, Fat: 8},
		Price:     3.2, PriceQuantity: 1, PriceUnit: "l",
	}
}

type fakePusher struct {
	mu    sync.Mutex
	calls []string
}

func (p *fakePusher) PushToUser(_ context.Context, userID uint, _, body string, _ map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf("%d:%s", userID, body))
}

func (p *fakePusher) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

type fakeImageStore struct {
	url string
	err error
}

func (s fakeImageStore) UploadDataURI(_ context.Context, dataURI, prefix string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if _, _, _, err := utils.DecodeDataURI(dataURI); err != nil {
		return "", err
	}
	return s.url + "/" + prefix, nil
}
