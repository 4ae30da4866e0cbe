package recipe

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"recipe-discovery/internal/core/provider"
	"recipe-discovery/internal/pkg/common"
)

const (
	SourceSearch = "search-provider"
	SourceAI     = "ai"

	defaultCuisine = "International"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// stripHTML 移除 HTML 標籤與多餘空白
func stripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// difficultyFor 依總時間判斷難度
func difficultyFor(totalMinutes int) string {
	switch {
	case totalMinutes <= 30:
		return "Easy"
	case totalMinutes <= 60:
		return "Medium"
	default:
		return "Hard"
	}
}

// normalizeRating 將 0-100 的分數轉為 0-5，取到小數第一位
func normalizeRating(score float64) float64 {
	rating := score / 20
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return math.Round(rating*10) / 10
}

// fromSearchResult 將搜尋 API 的原始食譜轉為內部格式
func fromSearchResult(raw provider.RawRecipe) Recipe {
	prep := raw.ReadyInMinutes
	if raw.PreparationMinutes != nil && *raw.PreparationMinutes > 0 {
		prep = *raw.PreparationMinutes
	}
	cook := raw.ReadyInMinutes
	if raw.CookingMinutes != nil && *raw.CookingMinutes > 0 {
		cook = *raw.CookingMinutes
	}

	cuisine := defaultCuisine
	if len(raw.Cuisines) > 0 && raw.Cuisines[0] != "" {
		cuisine = raw.Cuisines[0]
	}

	var steps []string
	for _, block := range raw.AnalyzedInstructions {
		for _, step := range block.Steps {
			if text := strings.TrimSpace(step.Step); text != "" {
				steps = append(steps, text)
			}
		}
	}

	source := raw.ExtendedIngredients
	if len(source) == 0 {
		source = append(append([]provider.RawIngredient{}, raw.UsedIngredients...), raw.MissedIngredients...)
	}
	ingredients := make([]RecipeIngredient, 0, len(source))
	for _, ing := range source {
		name := ing.Name
		if name == "" {
			name = ing.Original
		}
		ingredients = append(ingredients, RecipeIngredient{
			Name:   name,
			Amount: ing.Amount,
			Unit:   ing.Unit,
		})
	}

	return Recipe{
		ID:           strconv.Itoa(raw.ID),
		Title:        raw.Title,
		Description:  stripHTML(raw.Summary),
		PrepTime:     prep,
		CookTime:     cook,
		Servings:     raw.Servings,
		Cuisine:      cuisine,
		Difficulty:   difficultyFor(raw.ReadyInMinutes),
		Source:       SourceSearch,
		Provider:     provider.SpoonacularName,
		Instructions: strings.Join(steps, "\n"),
		Ingredients:  ingredients,
		Rating:       normalizeRating(raw.SpoonacularScore),
	}
}

// generatedRecipe LLM 生成的食譜
type generatedRecipe struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	PrepTime     int                `json:"prep_time"`
	CookTime     int                `json:"cook_time"`
	Servings     int                `json:"servings"`
	Cuisine      string             `json:"cuisine"`
	Difficulty   string             `json:"difficulty"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
}

// parseGeneratedRecipes 從 LLM 文字中取出食譜，接受 {"recipes":[...]} 或陣列
func parseGeneratedRecipes(text string) ([]Recipe, bool) {
	content, ok := common.ExtractJSON(text)
	if !ok {
		return nil, false
	}

	var generated []generatedRecipe
	if strings.HasPrefix(content, "[") {
		if err := common.ParseJSON(content, &generated); err != nil {
			return nil, false
		}
	} else {
		var wrapper struct {
			Recipes []generatedRecipe `json:"recipes"`
		}
		if err := common.ParseJSON(content, &wrapper); err != nil {
			return nil, false
		}
		generated = wrapper.Recipes
	}

	recipes := make([]Recipe, 0, len(generated))
	for _, g := range generated {
		if strings.TrimSpace(g.Title) == "" {
			continue
		}
		recipes = append(recipes, fromGenerated(g))
	}
	if len(recipes) == 0 {
		return nil, false
	}
	return recipes, true
}

func fromGenerated(g generatedRecipe) Recipe {
	cuisine := strings.TrimSpace(g.Cuisine)
	if cuisine == "" {
		cuisine = defaultCuisine
	}

	difficulty := g.Difficulty
	switch strings.ToLower(difficulty) {
	case "easy", "medium", "hard":
		difficulty = strings.ToUpper(difficulty[:1]) + strings.ToLower(difficulty[1:])
	default:
		difficulty = difficultyFor(g.PrepTime + g.CookTime)
	}

	ingredients := g.Ingredients
	if ingredients == nil {
		ingredients = []RecipeIngredient{}
	}

	steps := make([]string, 0, len(g.Instructions))
	for _, s := range g.Instructions {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}

	return Recipe{
		ID:           "ai-" + common.GenerateUUID(),
		Title:        strings.TrimSpace(g.Title),
		Description:  strings.TrimSpace(g.Description),
		PrepTime:     g.PrepTime,
		CookTime:     g.CookTime,
		Servings:     g.Servings,
		Cuisine:      cuisine,
		Difficulty:   difficulty,
		Source:       SourceAI,
		Instructions: strings.Join(steps, "\n"),
		Ingredients:  ingredients,
		Rating:       0,
	}
}
