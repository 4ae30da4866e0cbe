package recipe

import (
	"context"
	"strings"

	"recipe-discovery/internal/core/auth"
	"recipe-discovery/internal/core/cache"
	"recipe-discovery/internal/core/provider"
	"recipe-discovery/internal/core/ratelimit"
	"recipe-discovery/internal/pkg/common"

	"go.uber.org/zap"
)

// ServiceDeps 食譜服務依賴，啟動時建立一次
type ServiceDeps struct {
	Verifier      auth.Verifier
	Limiter       *ratelimit.Limiter
	Analyzer      *Analyzer
	Search        provider.RecipeSearch
	LLM           provider.LLM
	Usage         *provider.UsageTracker
	SearchCache   *cache.ResponseCache[[]Recipe]
	GenerateCache *cache.ResponseCache[[]Recipe]
}

// Service 食譜搜尋流程：驗證 → 配額 → 相容性分析 → 緩存 → 外部 API → 計數
type Service struct {
	verifier      auth.Verifier
	limiter       *ratelimit.Limiter
	analyzer      *Analyzer
	search        provider.RecipeSearch
	llm           provider.LLM
	usage         *provider.UsageTracker
	searchCache   *cache.ResponseCache[[]Recipe]
	generateCache *cache.ResponseCache[[]Recipe]
}

// NewService 創建食譜服務
func NewService(deps ServiceDeps) *Service {
	return &Service{
		verifier:      deps.Verifier,
		limiter:       deps.Limiter,
		analyzer:      deps.Analyzer,
		search:        deps.Search,
		llm:           deps.LLM,
		usage:         deps.Usage,
		searchCache:   deps.SearchCache,
		generateCache: deps.GenerateCache,
	}
}

// cacheParams 參與緩存鍵計算的請求欄位
type cacheParams struct {
	Ingredients []string `json:"ingredients"`
	Query       string   `json:"query"`
	Filters     Filters  `json:"filters"`
}

// Search 執行完整的食譜搜尋流程
//
// 相容性不足時直接返回分析結果，不呼叫外部 API。
// 緩存命中不計入配額；外部呼叫完成後才計數，計數不受客戶端取消影響。
func (s *Service) Search(ctx context.Context, token string, req SearchRequest) (*SearchResult, error) {
	userID, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	status := s.limiter.Status(ctx, userID)
	if status.Remaining == 0 {
		common.LogInfo("Daily quota reached",
			zap.String("user_id", userID),
			zap.Int("count", status.CurrentCount),
		)
		return nil, ratelimit.ExceededError(status)
	}

	var analysis *CompatibilityAnalysis
	if req.Mode == ModeIngredients || req.Mode == ModeGenerate {
		analysis = s.analyzer.Analyze(ctx, req.Ingredients)
		if !analysis.Level.Proceed() {
			common.LogInfo("Ingredient combination rejected",
				zap.String("user_id", userID),
				zap.String("level", string(analysis.Level)),
				zap.Int("score", analysis.Score),
			)
			return &SearchResult{
				Recipes:   []Recipe{},
				Analysis:  analysis,
				RateLimit: &status,
			}, nil
		}
	}

	key, err := s.cacheKey(req)
	if err != nil {
		return nil, common.ErrInternal.Wrap(err)
	}

	responseCache := s.searchCache
	if req.Mode == ModeGenerate {
		responseCache = s.generateCache
	}
	if recipes, ok := responseCache.Get(key); ok {
		return &SearchResult{
			Recipes:   recipes,
			Analysis:  analysis,
			Cached:    true,
			RateLimit: &status,
		}, nil
	}

	var recipes []Recipe
	if req.Mode == ModeGenerate {
		recipes, err = s.generate(ctx, userID, req)
	} else {
		recipes, err = s.searchRecipes(ctx, userID, req)
	}
	if err != nil {
		return nil, err
	}

	responseCache.Put(key, recipes)

	// 外部呼叫已完成，計數不隨請求取消
	status, err = s.limiter.Increment(context.WithoutCancel(ctx), userID)
	if err != nil {
		return nil, err
	}

	common.LogInfo("Recipe search completed",
		zap.String("user_id", userID),
		zap.String("mode", string(req.Mode)),
		zap.Int("recipes", len(recipes)),
		zap.Int("remaining", status.Remaining),
	)

	return &SearchResult{
		Recipes:   recipes,
		Analysis:  analysis,
		RateLimit: &status,
	}, nil
}

func (s *Service) cacheKey(req SearchRequest) (string, error) {
	ingredients := make([]string, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		ingredients[i] = normalize(ing)
	}
	return cache.ComputeKey(string(req.Mode), cacheParams{
		Ingredients: ingredients,
		Query:       strings.ToLower(req.Query),
		Filters:     req.Filters,
	})
}

func (s *Service) searchRecipes(ctx context.Context, userID string, req SearchRequest) ([]Recipe, error) {
	api := s.search.Name()
	if err := s.usage.Allow(api, userID); err != nil {
		return nil, upstreamError(err)
	}

	raw, err := s.search.Search(ctx, provider.SearchParams{
		IncludeIngredients: req.Ingredients,
		Query:              req.Query,
		Cuisine:            req.Filters.Cuisine,
		Diet:               req.Filters.Diet,
		Type:               req.Filters.Type,
		MaxReadyTime:       req.Filters.MaxReadyTime,
		Servings:           req.Filters.Servings,
	})
	if err != nil {
		return nil, upstreamError(err)
	}
	s.usage.Record(api, userID)

	recipes := make([]Recipe, 0, len(raw))
	for _, r := range raw {
		recipes = append(recipes, fromSearchResult(r))
	}
	return recipes, nil
}

func (s *Service) generate(ctx context.Context, userID string, req SearchRequest) ([]Recipe, error) {
	api := s.llm.Name()
	if err := s.usage.Allow(api, userID); err != nil {
		return nil, upstreamError(err)
	}

	resp, err := s.llm.Generate(ctx, provider.LLMRequest{
		Prompt:          generationPrompt(req.Ingredients, req.Filters),
		Temperature:     0.8,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	})
	if err != nil {
		return nil, upstreamError(err)
	}
	s.usage.Record(api, userID)

	recipes, ok := parseGeneratedRecipes(resp.Text)
	if !ok {
		common.LogWarn("Failed to parse generated recipes",
			zap.String("provider", api),
			zap.Int("content_length", len(resp.Text)),
		)
		return nil, common.ErrMalformedUpstream.WithDetail("provider", api)
	}
	return recipes, nil
}

// Analyze 只進行相容性分析，不計入配額
func (s *Service) Analyze(ctx context.Context, token string, ingredients []string) (*CompatibilityAnalysis, error) {
	if _, err := s.verifier.Verify(ctx, token); err != nil {
		return nil, err
	}

	cleaned := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			cleaned = append(cleaned, ing)
		}
	}
	if len(cleaned) > maxIngredients {
		return nil, common.ErrInvalidRequest.WithMessage("too many ingredients")
	}

	return s.analyzer.Analyze(ctx, cleaned), nil
}

// RateLimitStatus 查詢呼叫者的配額狀態
func (s *Service) RateLimitStatus(ctx context.Context, token string) (ratelimit.Status, error) {
	userID, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return ratelimit.Status{}, err
	}
	return s.limiter.Status(ctx, userID), nil
}
