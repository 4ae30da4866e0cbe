package provider

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"recipe-discovery/internal/infrastructure/config"
	"recipe-discovery/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// SpoonacularName 食譜搜尋提供者名稱
const SpoonacularName = "spoonacular"

// SearchParams 食譜搜尋參數
type SearchParams struct {
	IncludeIngredients []string
	Query              string
	Cuisine            string
	Diet               string
	Type               string
	MaxReadyTime       int
	Servings           int
}

// RawIngredient 食譜 API 回傳的食材
type RawIngredient struct {
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
}

// RawStep 食譜 API 回傳的步驟
type RawStep struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

// RawInstructions 食譜 API 回傳的一組步驟
type RawInstructions struct {
	Steps []RawStep `json:"steps"`
}

// RawRecipe 食譜 API 回傳的原始食譜
type RawRecipe struct {
	ID                   int               `json:"id"`
	Title                string            `json:"title"`
	Summary              string            `json:"summary"`
	ReadyInMinutes       int               `json:"readyInMinutes"`
	PreparationMinutes   *int              `json:"preparationMinutes"`
	CookingMinutes       *int              `json:"cookingMinutes"`
	Servings             int               `json:"servings"`
	SpoonacularScore     float64           `json:"spoonacularScore"`
	Cuisines             []string          `json:"cuisines"`
	DishTypes            []string          `json:"dishTypes"`
	AnalyzedInstructions []RawInstructions `json:"analyzedInstructions"`
	ExtendedIngredients  []RawIngredient   `json:"extendedIngredients"`
	UsedIngredients      []RawIngredient   `json:"usedIngredients"`
	MissedIngredients    []RawIngredient   `json:"missedIngredients"`
}

type complexSearchResponse struct {
	Results      *[]RawRecipe `json:"results"`
	TotalResults int          `json:"totalResults"`
}

// RecipeSearch 定義食譜搜尋提供者介面
type RecipeSearch interface {
	Search(ctx context.Context, params SearchParams) ([]RawRecipe, error)
	Name() string
}

// SpoonacularClient Spoonacular complexSearch 客戶端
type SpoonacularClient struct {
	client  *resty.Client
	apiKey  string
	results int
}

// NewSpoonacularClient 創建食譜搜尋客戶端
func NewSpoonacularClient(cfg config.SearchConfig) *SpoonacularClient {
	results := cfg.Results
	if results <= 0 {
		results = 10
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &SpoonacularClient{
		client:  client,
		apiKey:  cfg.APIKey,
		results: results,
	}
}

// Name 提供者名稱
func (c *SpoonacularClient) Name() string {
	return SpoonacularName
}

// Search 搜尋食譜；憑證放在標頭，不會出現在 URL 或錯誤訊息中
func (c *SpoonacularClient) Search(ctx context.Context, params SearchParams) ([]RawRecipe, error) {
	if c.apiKey == "" {
		return nil, unconfigured(SpoonacularName, "SPOONACULAR_API_KEY")
	}

	query := map[string]string{
		"number":               strconv.Itoa(c.results),
		"addRecipeInformation": "true",
		"fillIngredients":      "true",
		"instructionsRequired": "true",
	}
	if len(params.IncludeIngredients) > 0 {
		query["includeIngredients"] = strings.Join(params.IncludeIngredients, ",")
		query["sort"] = "max-used-ingredients"
	}
	if params.Query != "" {
		query["query"] = params.Query
	}
	if params.Cuisine != "" {
		query["cuisine"] = params.Cuisine
	}
	if params.Diet != "" {
		query["diet"] = params.Diet
	}
	if params.Type != "" {
		query["type"] = params.Type
	}
	if params.MaxReadyTime > 0 {
		query["maxReadyTime"] = strconv.Itoa(params.MaxReadyTime)
	}
	if params.Servings > 0 {
		query["minServings"] = strconv.Itoa(params.Servings)
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.apiKey).
		SetQueryParams(query).
		Get("/recipes/complexSearch")
	if err != nil {
		err = transport(SpoonacularName, err)
		common.LogUpstreamCall(SpoonacularName, time.Since(start), err)
		return nil, err
	}

	if !resp.IsSuccess() {
		err := fromStatus(SpoonacularName, resp.StatusCode(), resp.Body())
		common.LogUpstreamCall(SpoonacularName, time.Since(start), err)
		return nil, err
	}

	var parsed complexSearchResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, malformed(SpoonacularName, "failed to parse response: %v", err)
	}
	if parsed.Results == nil {
		return nil, malformed(SpoonacularName, "no results array in response")
	}

	common.LogUpstreamCall(SpoonacularName, time.Since(start), nil)
	common.LogDebug("Recipe search completed",
		zap.Int("results", len(*parsed.Results)),
		zap.Int("total_results", parsed.TotalResults),
	)

	return *parsed.Results, nil
}
