package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"pantrytrack/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxRecentSearches caps the stored search history.
const MaxRecentSearches = 10

// SettingsService persists per-user preferences as JSON blobs under fixed
// keys.
type SettingsService struct{ db *gorm.DB }

func NewSettingsService(db *gorm.DB) *SettingsService { return &SettingsService{db: db} }

func (s *SettingsService) Get(ctx context.Context, userID uint) (models.Settings, error) {
	out := models.DefaultSettings()
	raw, err := s.load(ctx, userID, models.PrefSettings)
	if err != nil || raw == "" {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// corrupt blob falls back to defaults
		return models.DefaultSettings(), nil
	}
	return out, nil
}

func (s *SettingsService) Update(ctx context.Context, userID uint, in models.Settings) (models.Settings, error) {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.WeekStartsOn = strings.ToLower(strings.TrimSpace(in.WeekStartsOn))
	in.Theme = strings.ToLower(strings.TrimSpace(in.Theme))
	if len(in.Currency) != 3 {
		return in, invalid("currency must be a 3-letter code")
	}
	if in.DefaultServings < 1 {
		return in, invalid("default_servings must be at least 1")
	}
	if in.WeekStartsOn != "monday" && in.WeekStartsOn != "sunday" {
		return in, invalid("week_starts_on must be monday or sunday")
	}
	switch in.Theme {
	case "light", "dark", "system":
	default:
		return in, invalid("theme must be light, dark or system")
	}
	if err := s.store(ctx, userID, models.PrefSettings, in); err != nil {
		return in, err
	}
	return in, nil
}

func (s *SettingsService) RecentSearches(ctx context.Context, userID uint) ([]string, error) {
	raw, err := s.load(ctx, userID, models.PrefRecentSearches)
	if err != nil || raw == "" {
		return []string{}, err
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []string{}, nil
	}
	return list, nil
}

// AddRecentSearch records query at the head of the history.
func (s *SettingsService) AddRecentSearch(ctx context.Context, userID uint, query string) ([]string, error) {
	list, err := s.RecentSearches(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := pushRecent(list, query, MaxRecentSearches)
	if err := s.store(ctx, userID, models.PrefRecentSearches, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *SettingsService) ClearRecentSearches(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND pref_key = ?", userID, models.PrefRecentSearches).
		Delete(&models.UserPreference{}).Error
}

// pushRecent puts q first, drops case-insensitive duplicates and trims the
// list to max. Blank queries leave the list unchanged.
func pushRecent(list []string, q string, max int) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return list
	}
	out := make([]string, 0, max)
	out = append(out, q)
	for _, s := range list {
		if len(out) >= max {
			break
		}
		if !strings.EqualFold(s, q) {
			out = append(out, s)
		}
	}
	return out
}

func (s *SettingsService) load(ctx context.Context, userID uint, key string) (string, error) {
	var pref models.UserPreference
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND pref_key = ?", userID, key).
		First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return pref.Value, nil
}

func (s *SettingsService) store(ctx context.Context, userID uint, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	pref := models.UserPreference{UserID: userID, Key: key, Value: string(b), UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "pref_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
}
