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
	geminiName    = "gemini"
	geminiBaseURL = "https://generativelanguage.googleapis.com"
)

// GeminiClient Google Gemini generateContent 客戶端
type GeminiClient struct {
	client *resty.Client
	apiKey string
	model  string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// NewGeminiClient 創建 Gemini 客戶端
func NewGeminiClient(cfg config.LLMConfig) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &GeminiClient{
		client: client,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

// Name 提供者名稱
func (c *GeminiClient) Name() string {
	return geminiName
}

// Generate 生成回應
func (c *GeminiClient) Generate(ctx context.Context, req LLMRequest) (*LLMResponse, error) {
	if c.apiKey == "" {
		return nil, unconfigured(geminiName, "GEMINI_API_KEY")
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			TopK:            req.TopK,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(body).
		Post("/v1beta/models/" + c.model + ":generateContent")
	if err != nil {
		err = transport(geminiName, err)
		common.LogUpstreamCall(geminiName, time.Since(start), err)
		return nil, err
	}

	if !resp.IsSuccess() {
		err := fromStatus(geminiName, resp.StatusCode(), resp.Body())
		common.LogUpstreamCall(geminiName, time.Since(start), err)
		return nil, err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, malformed(geminiName, "failed to parse response: %v", err)
	}
	if len(parsed.Candidates) == 0 {
		return nil, malformed(geminiName, "no candidates in response")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, malformed(geminiName, "empty candidate text (finish reason %q)", parsed.Candidates[0].FinishReason)
	}

	common.LogUpstreamCall(geminiName, time.Since(start), nil)
	common.LogDebug("Gemini response received",
		zap.String("model", c.model),
		zap.Int("content_length", text.Len()),
	)

	return &LLMResponse{Text: text.String()}, nil
}
