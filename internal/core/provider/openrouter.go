package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"recipe-discovery/internal/infrastructure/config"
	"recipe-discovery/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	openRouterName    = "openrouter"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterClient OpenRouter chat completions 客戶端
type OpenRouterClient struct {
	client *resty.Client
	apiKey string
	model  string
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
	TopP        float64             `json:"top_p,omitempty"`
	TopK        int                 `json:"top_k,omitempty"`
}

type openRouterResponse struct {
	Choices []struct {
		Message openRouterMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenRouterClient 創建 OpenRouter 客戶端
func NewOpenRouterClient(cfg config.LLMConfig) *OpenRouterClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://recipe-discovery.app").
		SetHeader("X-Title", "Recipe Discovery")

	return &OpenRouterClient{
		client: client,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

// Name 提供者名稱
func (c *OpenRouterClient) Name() string {
	return openRouterName
}

// Generate 生成回應
func (c *OpenRouterClient) Generate(ctx context.Context, req LLMRequest) (*LLMResponse, error) {
	if c.apiKey == "" {
		return nil, unconfigured(openRouterName, "OPENROUTER_API_KEY")
	}

	body := openRouterRequest{
		Model: c.model,
		Messages: []openRouterMessage{
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
	}

	common.LogDebug("Sending request to OpenRouter", zap.String("model", c.model))

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		err = transport(openRouterName, err)
		common.LogUpstreamCall(openRouterName, time.Since(start), err)
		return nil, err
	}

	if !resp.IsSuccess() {
		err := fromStatus(openRouterName, resp.StatusCode(), resp.Body())
		common.LogUpstreamCall(openRouterName, time.Since(start), err)
		return nil, err
	}

	var parsed openRouterResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, malformed(openRouterName, "failed to parse response: %v", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, malformed(openRouterName, "no choices in response")
	}

	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, malformed(openRouterName, "empty content in response")
	}

	common.LogUpstreamCall(openRouterName, time.Since(start), nil)
	return &LLMResponse{Text: content}, nil
}
