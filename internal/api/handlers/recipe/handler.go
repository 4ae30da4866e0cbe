package recipe

import (
	"context"
	"errors"
	"net/http"

	"recipe-discovery/internal/api/middleware"
	"recipe-discovery/internal/core/ratelimit"
	recipeService "recipe-discovery/internal/core/recipe"
	"recipe-discovery/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service 處理器需要的食譜服務操作
type Service interface {
	Search(ctx context.Context, token string, req recipeService.SearchRequest) (*recipeService.SearchResult, error)
	Analyze(ctx context.Context, token string, ingredients []string) (*recipeService.CompatibilityAnalysis, error)
	RateLimitStatus(ctx context.Context, token string) (ratelimit.Status, error)
}

// AnalyzeRequest 食材相容性分析請求
type AnalyzeRequest struct {
	Ingredients []string `json:"ingredients"`
}

// Handler 食譜 API 處理器
type Handler struct {
	svc Service
}

// NewHandler 創建食譜處理器
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// HandleSearch POST /api/v1/recipes/search
func (h *Handler) HandleSearch(c *gin.Context) {
	var req recipeService.SearchRequest
	if err := bindJSON(c, &req); err != nil {
		common.WriteError(c, err)
		return
	}

	common.LogDebug("Recipe search request",
		zap.String("request_id", requestid.Get(c)),
		zap.String("mode", string(req.Mode)),
		zap.Int("ingredients", len(req.Ingredients)),
	)

	result, err := h.svc.Search(c.Request.Context(), c.GetHeader("Authorization"), req)
	if err != nil {
		middleware.SetRateLimitHeadersFromError(c, err)
		common.WriteError(c, err)
		return
	}

	if result.RateLimit != nil {
		middleware.SetRateLimitHeaders(c, *result.RateLimit)
	}

	c.JSON(http.StatusOK, result)
}

// HandleAnalyze POST /api/v1/ingredients/analyze
func (h *Handler) HandleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := bindJSON(c, &req); err != nil {
		common.WriteError(c, err)
		return
	}

	analysis, err := h.svc.Analyze(c.Request.Context(), c.GetHeader("Authorization"), req.Ingredients)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// HandleRateLimitStatus GET /api/v1/rate-limit
func (h *Handler) HandleRateLimitStatus(c *gin.Context) {
	st, err := h.svc.RateLimitStatus(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		common.WriteError(c, err)
		return
	}

	middleware.SetRateLimitHeaders(c, st)
	c.JSON(http.StatusOK, st)
}

// bindJSON 嚴格解析請求體
func bindJSON(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil {
		return common.ErrInvalidRequest.WithMessage("request body is required")
	}
	if err := common.DecodeJSONStrict(c.Request.Body, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.ErrPayloadTooLarge.WithDetail("max_size", tooLarge.Limit)
		}
		return common.ErrInvalidRequest.WithMessage("invalid JSON body").Wrap(err)
	}
	return nil
}
