package provider

import (
	"context"
	"fmt"

	"recipe-discovery/internal/infrastructure/config"
)

// LLMRequest 發送到 LLM 的請求
type LLMRequest struct {
	Prompt          string  `json:"prompt"`
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"top_k"`
	TopP            float64 `json:"top_p"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// LLMResponse LLM 回應
type LLMResponse struct {
	Text string `json:"text"`
}

// LLM 定義文字生成提供者介面
type LLM interface {
	// Generate 生成回應；失敗時返回 *Error
	Generate(ctx context.Context, req LLMRequest) (*LLMResponse, error)

	// Name 提供者名稱
	Name() string
}

// NewLLM 依設定建立 LLM 客戶端
func NewLLM(cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg), nil
	case config.ProviderOpenRouter:
		return NewOpenRouterClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
