package recipe

import (
	"strings"

	"recipe-discovery/internal/core/ratelimit"
	"recipe-discovery/internal/pkg/common"
)

// Category 食材分類
type Category string

const (
	CategoryProtein   Category = "protein"
	CategoryVegetable Category = "vegetable"
	CategoryFruit     Category = "fruit"
	CategoryGrain     Category = "grain"
	CategoryDairy     Category = "dairy"
	CategorySpice     Category = "spice"
	CategoryOil       Category = "oil"
	CategoryOther     Category = "other"
)

// Categories 可由分類器返回的七個具名分類（不含 other），順序即規則表順序
var Categories = []Category{
	CategoryProtein,
	CategoryVegetable,
	CategoryFruit,
	CategoryGrain,
	CategoryDairy,
	CategorySpice,
	CategoryOil,
}

// ParseCategory 將文字對應到七個具名分類之一，other 與無法識別的文字返回 false
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".,;:!\"'`*")
	for _, c := range Categories {
		if s == string(c) {
			return c, true
		}
	}
	return "", false
}

// ClassifiedIngredient 已分類的食材
type ClassifiedIngredient struct {
	Raw      string   `json:"raw"`
	Category Category `json:"category"`
}

// Level 相容性等級
type Level string

const (
	LevelInsufficient Level = "insufficient"
	LevelIncompatible Level = "incompatible"
	LevelLimited      Level = "limited"
	LevelGood         Level = "good"
	LevelExcellent    Level = "excellent"
)

// Proceed 是否可以繼續呼叫外部食譜服務
func (l Level) Proceed() bool {
	return l != LevelInsufficient && l != LevelIncompatible
}

// CompatibilityAnalysis 食材相容性分析結果
type CompatibilityAnalysis struct {
	Level           Level                 `json:"level"`
	Message         string                `json:"message"`
	Suggestions     []string              `json:"suggestions"`
	Score           int                   `json:"score"`
	CategoryBuckets map[Category][]string `json:"category_buckets"`
}

// Mode 請求模式
type Mode string

const (
	ModeIngredients Mode = "ingredients"
	ModeQuery       Mode = "query"
	ModeGenerate    Mode = "generate"
)

// Filters 搜尋條件
type Filters struct {
	Cuisine      string `json:"cuisine,omitempty"`
	Diet         string `json:"diet,omitempty"`
	MaxReadyTime int    `json:"max_ready_time,omitempty"`
	Servings     int    `json:"servings,omitempty"`
	Type         string `json:"type,omitempty"`
}

// SearchRequest 食譜搜尋請求
type SearchRequest struct {
	Mode        Mode     `json:"mode"`
	Ingredients []string `json:"ingredients,omitempty"`
	Query       string   `json:"query,omitempty"`
	Filters     Filters  `json:"filters"`
}

// Normalize 清理輸入：去除空白、空項目
func (r *SearchRequest) Normalize() {
	r.Mode = Mode(strings.ToLower(strings.TrimSpace(string(r.Mode))))
	if r.Mode == "" {
		if r.Query != "" && len(r.Ingredients) == 0 {
			r.Mode = ModeQuery
		} else {
			r.Mode = ModeIngredients
		}
	}

	var cleaned []string
	for _, ing := range r.Ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			cleaned = append(cleaned, ing)
		}
	}
	r.Ingredients = cleaned
	r.Query = strings.TrimSpace(r.Query)
	r.Filters.Cuisine = strings.TrimSpace(r.Filters.Cuisine)
	r.Filters.Diet = strings.TrimSpace(r.Filters.Diet)
	r.Filters.Type = strings.TrimSpace(r.Filters.Type)
}

// Validate 驗證請求
func (r *SearchRequest) Validate() error {
	switch r.Mode {
	case ModeIngredients, ModeGenerate:
		if len(r.Ingredients) == 0 {
			return common.ErrInvalidRequest.WithMessage("at least one ingredient is required")
		}
	case ModeQuery:
		if r.Query == "" {
			return common.ErrInvalidRequest.WithMessage("query is required")
		}
	default:
		return common.ErrInvalidRequest.WithMessage("mode must be one of ingredients, query, generate")
	}

	if len(r.Ingredients) > maxIngredients {
		return common.ErrInvalidRequest.WithMessage("too many ingredients")
	}
	for _, ing := range r.Ingredients {
		if len(ing) > maxIngredientLength {
			return common.ErrInvalidRequest.WithMessage("ingredient name is too long")
		}
	}
	if r.Filters.MaxReadyTime < 0 {
		return common.ErrInvalidRequest.WithMessage("max_ready_time must not be negative")
	}
	if r.Filters.Servings < 0 {
		return common.ErrInvalidRequest.WithMessage("servings must not be negative")
	}
	return nil
}

const (
	maxIngredients      = 30
	maxIngredientLength = 100
)

// RecipeIngredient 食譜中的食材
type RecipeIngredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Recipe 內部統一的食譜格式
type Recipe struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	PrepTime     int                `json:"prep_time"`
	CookTime     int                `json:"cook_time"`
	Servings     int                `json:"servings"`
	Cuisine      string             `json:"cuisine"`
	Difficulty   string             `json:"difficulty"`
	Source       string             `json:"source"`
	Provider     string             `json:"provider,omitempty"`
	Instructions string             `json:"instructions"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Rating       float64            `json:"rating"`
}

// SearchResult 搜尋結果
type SearchResult struct {
	Recipes   []Recipe               `json:"recipes"`
	Analysis  *CompatibilityAnalysis `json:"analysis,omitempty"`
	Cached    bool                   `json:"cached"`
	RateLimit *ratelimit.Status      `json:"rate_limit,omitempty"`
}
