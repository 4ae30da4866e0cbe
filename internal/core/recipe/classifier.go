package recipe

import (
	"context"
	"strings"

	"recipe-discovery/internal/core/cache"
	"recipe-discovery/internal/core/provider"
	"recipe-discovery/internal/pkg/common"

	"go.uber.org/zap"
)

// IngredientClassifier 將食材字串對應到分類，永遠返回一個分類
type IngredientClassifier interface {
	Classify(ctx context.Context, ingredient string) Category
}

// Classifier 先詢問 LLM，失敗或無法解析時改用規則表
type Classifier struct {
	llm   provider.LLM
	cache *cache.ResponseCache[Category]
}

// NewClassifier 創建食材分類器；llm 為 nil 時只使用規則表
func NewClassifier(llm provider.LLM, llmCache *cache.ResponseCache[Category]) *Classifier {
	return &Classifier{
		llm:   llm,
		cache: llmCache,
	}
}

// Classify 分類單一食材
func (c *Classifier) Classify(ctx context.Context, ingredient string) Category {
	normalized := normalize(ingredient)
	if normalized == "" {
		return CategoryOther
	}

	if category, ok := c.classifyWithLLM(ctx, normalized); ok {
		return category
	}

	return classifyByRules(normalized)
}

func (c *Classifier) classifyWithLLM(ctx context.Context, normalized string) (Category, bool) {
	if c.llm == nil {
		return "", false
	}

	var key string
	if c.cache != nil {
		k, err := cache.ComputeKey("classify", normalized)
		if err == nil {
			key = k
			if category, ok := c.cache.Get(key); ok {
				return category, true
			}
		}
	}

	resp, err := c.llm.Generate(ctx, provider.LLMRequest{
		Prompt:          classificationPrompt(normalized),
		Temperature:     0.3,
		MaxOutputTokens: 50,
	})
	if err != nil {
		common.LogWarn("LLM classification unavailable, using rules",
			zap.String("ingredient", normalized),
			zap.String("kind", string(provider.KindOf(err))),
		)
		return "", false
	}

	category, ok := parseClassification(resp.Text)
	if !ok {
		common.LogWarn("Unrecognized LLM classification, using rules",
			zap.String("ingredient", normalized),
			zap.String("response", truncateText(resp.Text, 50)),
		)
		return "", false
	}

	if key != "" {
		c.cache.Put(key, category)
	}
	return category, true
}

// parseClassification 取回應的第一個詞作為分類
func parseClassification(text string) (Category, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	return ParseCategory(fields[0])
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
