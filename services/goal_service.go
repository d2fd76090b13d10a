package services

import (
	"context"
	"errors"

	"pantrytrack/models"

	"gorm.io/gorm"
)

// GoalView is a user's daily targets.
type GoalView struct {
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	DailyBudget float64 `json:"daily_budget"`
	IsDefault   bool    `json:"is_default,omitempty"`
}

// DefaultGoal applies until the user saves their own.
var DefaultGoal = GoalView{Calories: 2000, Protein: 50, Carbs: 275, Fat: 78, IsDefault: true}

type GoalService struct{ db *gorm.DB }

func NewGoalService(db *gorm.DB) *GoalService { return &GoalService{db: db} }

func (s *GoalService) Get(ctx context.Context, userID uint) (GoalView, error) {
	var g models.NutritionGoal
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultGoal, nil
	}
	if err != nil {
		return GoalView{}, err
	}
	return GoalView{Calories: g.Calories, Protein: g.Protein, Carbs: g.Carbs, Fat: g.Fat, DailyBudget: g.DailyBudget}, nil
}

// Upsert stores the user's targets.
func (s *GoalService) Upsert(ctx context.Context, userID uint, in GoalView) (GoalView, error) {
	for _, v := range []float64{in.Calories, in.Protein, in.Carbs, in.Fat, in.DailyBudget} {
		if v < 0 {
			return GoalView{}, invalid("goals must not be negative")
		}
	}
	var g models.NutritionGoal
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&g).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return GoalView{}, err
	}
	g.UserID = userID
	g.Calories, g.Protein, g.Carbs, g.Fat, g.DailyBudget = in.Calories, in.Protein, in.Carbs, in.Fat, in.DailyBudget
	if err := s.db.WithContext(ctx).Save(&g).Error; err != nil {
		return GoalView{}, err
	}
	in.IsDefault = false
	return in, nil
}
