package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pantrytrack/mappers"
	"pantrytrack/models"
	"pantrytrack/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const maxMealNameLen = 80

// TextGenerator produces a model completion for a prompt. Implementations
// are asked for JSON output.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

type RecipeRequest struct {
	Prompt      string `json:"prompt"`
	Servings    int    `json:"servings"`
	MaxMinutes  int    `json:"max_minutes"`
	OnlyInStock bool   `json:"only_in_stock"`
	Save        bool   `json:"save"`
}

// GeneratedRecipe is a draft ready to be saved with RecipeService.Create.
// Unmatched lists ingredient names with no pantry item.
type GeneratedRecipe struct {
	Recipe    RecipeInput `json:"recipe"`
	Unmatched []string    `json:"unmatched"`
}

type aiRecipe struct {
	Name         string `json:"name"`
	Servings     int    `json:"servings"`
	Instructions any    `json:"instructions"` // string or list of steps
	Ingredients  []struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit"`
	} `json:"ingredients"`
	Nutrition models.Nutrition `json:"nutrition_per_serving"`
}

type AIService struct {
	gen   TextGenerator
	items *ItemService
	log   *zap.Logger
}

// NewAIService accepts a nil generator; recipe generation then reports
// ErrUnavailable and meal names use the fallback.
func NewAIService(gen TextGenerator, items *ItemService, log *zap.Logger) *AIService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AIService{gen: gen, items: items, log: log}
}

func (s *AIService) Enabled() bool { return s != nil && s.gen != nil }

// GenerateRecipe asks the model for a recipe using the user's pantry and
// links the returned ingredients to pantry items by name.
func (s *AIService) GenerateRecipe(ctx context.Context, userID uint, req RecipeRequest) (GeneratedRecipe, error) {
	if !s.Enabled() {
		return GeneratedRecipe{}, fmt.Errorf("recipe generation: %w", ErrUnavailable)
	}
	if req.Servings <= 0 {
		req.Servings = 2
	}
	f := ItemFilter{}
	if req.OnlyInStock {
		inStock := true
		f.InStock = &inStock
	}
	pantry, err := s.items.List(ctx, userID, f)
	if err != nil {
		return GeneratedRecipe{}, err
	}

	raw, err := s.gen.Generate(ctx, recipePrompt(req, pantry))
	if err != nil {
		return GeneratedRecipe{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var ai aiRecipe
	if err := utils.DecodeJSON(raw, &ai); err != nil {
		s.log.Warn("unparseable recipe reply", zap.Error(err), zap.Int("len", len(raw)))
		return GeneratedRecipe{}, fmt.Errorf("%w: model returned no usable recipe", ErrUnavailable)
	}
	if strings.TrimSpace(ai.Name) == "" {
		return GeneratedRecipe{}, fmt.Errorf("%w: model returned a recipe without a name", ErrUnavailable)
	}
	return linkRecipe(ai, req.Servings, pantry), nil
}

func recipePrompt(req RecipeRequest, pantry []models.FoodItem) string {
	var b strings.Builder
	b.WriteString("You are a cooking assistant. Create one recipe using mostly these pantry items:\n")
	for _, it := range pantry {
		fmt.Fprintf(&b, "- %s (%s)\n", it.Name, it.Category)
	}
	fmt.Fprintf(&b, "Servings: %d\n", req.Servings)
	if req.MaxMinutes > 0 {
		fmt.Fprintf(&b, "Total time must be under %d minutes.\n", req.MaxMinutes)
	}
	if p := strings.TrimSpace(req.Prompt); p != "" {
		fmt.Fprintf(&b, "Request: %s\n", p)
	}
	b.WriteString(`Reply with JSON only: {"name": string, "servings": number, "instructions": string, ` +
		`"ingredients": [{"name": string, "quantity": number, "unit": string}], ` +
		`"nutrition_per_serving": {"calories": number, "protein": number, "carbs": number, "fat": number}}`)
	return b.String()
}

func linkRecipe(ai aiRecipe, servings int, pantry []models.FoodItem) GeneratedRecipe {
	if ai.Servings > 0 {
		servings = ai.Servings
	}
	byName := make(map[string]models.FoodItem, len(pantry))
	for _, it := range pantry {
		byName[mappers.NormalizeName(it.Name)] = it
	}

	out := GeneratedRecipe{
		Recipe: RecipeInput{
			Name:            strings.TrimSpace(ai.Name),
			Instructions:    instructionsText(ai.Instructions),
			Servings:        servings,
			NutritionSource: models.NutritionSourceAI,
		},
		Unmatched: []string{},
	}
	for _, ing := range ai.Ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		out.Recipe.IngredientLines = append(out.Recipe.IngredientLines, ingredientLine(ing.Quantity, ing.Unit, name))
		item, ok := matchItem(name, byName)
		if !ok {
			out.Unmatched = append(out.Unmatched, name)
			continue
		}
		qty := ing.Quantity
		if qty <= 0 {
			qty = 1
		}
		out.Recipe.Ingredients = append(out.Recipe.Ingredients, IngredientInput{
			ItemID:   item.ID,
			Quantity: qty,
			Unit:     ing.Unit,
		})
	}
	if len(out.Unmatched) == 0 && len(out.Recipe.Ingredients) > 0 {
		out.Recipe.NutritionSource = models.NutritionSourceLinked
	} else {
		n := ai.Nutrition
		out.Recipe.Nutrition = &n
	}
	return out
}

// matchItem finds a pantry item by exact normalized name, then by the
// longest pantry name contained in the ingredient name.
func matchItem(name string, byName map[string]models.FoodItem) (models.FoodItem, bool) {
	key := mappers.NormalizeName(name)
	if it, ok := byName[key]; ok {
		return it, true
	}
	var best models.FoodItem
	bestLen := 0
	for n, it := range byName {
		if len(n) > bestLen && strings.Contains(key, n) {
			best, bestLen = it, len(n)
		}
	}
	return best, bestLen > 0
}

func instructionsText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var lines []string
		for i, step := range t {
			if s, ok := step.(string); ok && strings.TrimSpace(s) != "" {
				lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(s)))
			}
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func ingredientLine(qty float64, unit, name string) string {
	parts := make([]string, 0, 3)
	if qty > 0 {
		parts = append(parts, strconv.FormatFloat(utils.Round2(qty), 'f', -1, 64))
	}
	if u := strings.TrimSpace(unit); u != "" {
		parts = append(parts, u)
	}
	return strings.Join(append(parts, name), " ")
}

// InferMealName names a meal from its recipes. Without a generator, or when
// the model fails, it falls back to joining the recipe names.
func (s *AIService) InferMealName(ctx context.Context, recipeNames []string) string {
	fallback := utils.FallbackMealName(recipeNames)
	if !s.Enabled() || len(recipeNames) == 0 {
		return fallback
	}
	prompt := "Give a short, natural name (at most 6 words) for a meal made of: " +
		strings.Join(recipeNames, ", ") + `. Reply with JSON only: {"name": string}`
	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.log.Warn("infer meal name", zap.Error(err))
		return fallback
	}
	var out struct {
		Name string `json:"name"`
	}
	if err := utils.DecodeJSON(raw, &out); err != nil {
		return fallback
	}
	name := strings.TrimSpace(out.Name)
	if name == "" || len(name) > maxMealNameLen {
		return fallback
	}
	return name
}
