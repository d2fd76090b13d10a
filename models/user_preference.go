package models

import "time"

// Fixed preference keys.
const (
	PrefSettings       = "settings"
	PrefRecentSearches = "recent_searches"
)

// UserPreference stores a JSON blob per (user, key).
type UserPreference struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_pref_user_key"`
	Key       string `gorm:"column:pref_key;size:64;not null;uniqueIndex:idx_pref_user_key"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

type Settings struct {
	Currency        string `json:"currency"`
	DefaultServings int    `json:"default_servings"`
	WeekStartsOn    string `json:"week_starts_on"` // monday|sunday
	Theme           string `json:"theme"`
	ShowCost        bool   `json:"show_cost"`
	LowStockAlerts  bool   `json:"low_stock_alerts"`
}

func DefaultSettings() Settings {
	return Settings{
		Currency:        "USD",
		DefaultServings: 2,
		WeekStartsOn:    "monday",
		Theme:           "system",
		ShowCost:        true,
		LowStockAlerts:  true,
	}
}
