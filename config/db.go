package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pantrytrack/data"
	"pantrytrack/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DataSource tells clients whether they see real or bundled demo data.
type DataSource string

const (
	SourceDatabase DataSource = "database"
	SourceDemo     DataSource = "demo"
)

// DemoBanner is shown by clients while serving demo data.
const DemoBanner = "Database unavailable: showing demo data. Changes will not be saved."

var (
	DB     *gorm.DB
	Source = SourceDatabase
)

var errNoDSN = errors.New("no database configured")

// ConnectDB opens the hosted Postgres database and migrates it. When that
// fails and demo fallback is enabled, an in-memory SQLite database seeded
// with the bundled fixtures is used instead.
func ConnectDB(ctx context.Context, cfg *Config, log *zap.Logger) (*gorm.DB, DataSource, error) {
	gcfg := gormConfig(cfg)

	db, err := openPostgres(ctx, cfg.DatabaseURL, gcfg)
	if err == nil {
		if err = Migrate(db); err == nil {
			DB, Source = db, SourceDatabase
			return db, SourceDatabase, nil
		}
	}
	if !cfg.DemoFallback {
		return nil, "", fmt.Errorf("connect database: %w", err)
	}

	log.Warn("database unavailable, serving demo data", zap.Error(err))
	db, err = OpenDemoDB(gcfg)
	if err != nil {
		return nil, "", err
	}
	if err := data.SeedDemo(db); err != nil {
		return nil, "", fmt.Errorf("seed demo data: %w", err)
	}
	DB, Source = db, SourceDemo
	return db, SourceDemo, nil
}

func openPostgres(ctx context.Context, dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errNoDSN
	}
	db, err := gorm.Open(postgres.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenDemoDB opens and migrates an empty in-memory SQLite database.
func OpenDemoDB(gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{TranslateError: true, Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	}
	db, err := gorm.Open(sqlite.Open("file:pantrytrack_demo?mode=memory&cache=shared"), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open demo database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table. On Postgres it also maintains the
// generated search_vector column used for full-text item search.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeItem{},
		&models.MealLog{},
		&models.MealLogRecipe{},
		&models.WeeklyMealPlan{},
		&models.MealPlanBlock{},
		&models.RecipeRotation{},
		&models.RotationRecipe{},
		&models.NutritionGoal{},
		&models.UserPreference{},
		&models.UserDevice{},
		&models.Alert{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		return ensureSearchVector(db)
	}
	return nil
}

func ensureSearchVector(db *gorm.DB) error {
	stmts := []string{
		`ALTER TABLE items ADD COLUMN IF NOT EXISTS search_vector tsvector
			GENERATED ALWAYS AS (to_tsvector('english',
				coalesce(name, '') || ' ' || coalesce(category, '') || ' ' || coalesce(notes, ''))) STORED`,
		`CREATE INDEX IF NOT EXISTS idx_items_search_vector ON items USING GIN (search_vector)`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("search_vector migration: %w", err)
		}
	}
	return nil
}

func gormConfig(cfg *Config) *gorm.Config {
	level := gormlogger.Warn
	if cfg.Env == "development" {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	}
}
