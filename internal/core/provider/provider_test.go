package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"recipe-discovery/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "sk-test-secret-value-1234"

func geminiConfig(url, key string) config.LLMConfig {
	return config.LLMConfig{
		Provider: config.ProviderGemini,
		APIKey:   key,
		Model:    "gemini-1.5-flash",
		BaseURL:  url,
		Timeout:  5 * time.Second,
	}
}

func TestGeminiGenerate(t *testing.T) {
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, testSecret, r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"protein"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiConfig(server.URL, testSecret))
	resp, err := client.Generate(context.Background(), LLMRequest{
		Prompt:          "classify chicken",
		Temperature:     0.3,
		MaxOutputTokens: 50,
	})

	require.NoError(t, err)
	assert.Equal(t, "protein", resp.Text)
	assert.Equal(t, 0.3, got.GenerationConfig.Temperature)
	assert.Equal(t, 50, got.GenerationConfig.MaxOutputTokens)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "classify chicken", got.Contents[0].Parts[0].Text)
}

func TestGeminiStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusPaymentRequired, KindQuotaExceeded},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusBadRequest, KindInvalidRequest},
		{http.StatusInternalServerError, KindTransport},
		{http.StatusNotFound, KindTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer server.Close()

			client := NewGeminiClient(geminiConfig(server.URL, testSecret))
			_, err := client.Generate(context.Background(), LLMRequest{Prompt: "x"})

			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.True(t, errors.Is(err, &Error{Kind: tt.kind}))
			assert.NotContains(t, err.Error(), testSecret)

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.status, perr.StatusCode)
			assert.Equal(t, "gemini", perr.Provider)
		})
	}
}

func TestGeminiMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"no candidates", `{"candidates":[]}`},
		{"empty text", `{"candidates":[{"content":{"parts":[{"text":"  "}]},"finishReason":"SAFETY"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewGeminiClient(geminiConfig(server.URL, testSecret))
			_, err := client.Generate(context.Background(), LLMRequest{Prompt: "x"})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestUnconfiguredClientsMakeNoNetworkCall(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	gemini := NewGeminiClient(geminiConfig(server.URL, ""))
	_, err := gemini.Generate(context.Background(), LLMRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnconfigured)

	openRouter := NewOpenRouterClient(config.LLMConfig{BaseURL: server.URL, Model: "m", Timeout: time.Second})
	_, err = openRouter.Generate(context.Background(), LLMRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnconfigured)

	search := NewSpoonacularClient(config.SearchConfig{BaseURL: server.URL, Timeout: time.Second})
	_, err = search.Search(context.Background(), SearchParams{Query: "pasta"})
	assert.ErrorIs(t, err, ErrUnconfigured)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewGeminiClient(geminiConfig(url, testSecret))
	_, err := client.Generate(context.Background(), LLMRequest{Prompt: "x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotContains(t, err.Error(), testSecret)
}

func TestOpenRouterGenerate(t *testing.T) {
	var got openRouterRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer "+testSecret, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"vegetable"}}]}`))
	}))
	defer server.Close()

	client := NewOpenRouterClient(config.LLMConfig{
		APIKey:  testSecret,
		Model:   "google/gemini-flash-1.5",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
	resp, err := client.Generate(context.Background(), LLMRequest{
		Prompt:          "classify onion",
		Temperature:     0.8,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	})

	require.NoError(t, err)
	assert.Equal(t, "vegetable", resp.Text)
	assert.Equal(t, "google/gemini-flash-1.5", got.Model)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.Equal(t, 40, got.TopK)
	assert.Equal(t, 0.95, got.TopP)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestOpenRouterNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenRouterClient(config.LLMConfig{APIKey: testSecret, BaseURL: server.URL, Timeout: time.Second})
	_, err := client.Generate(context.Background(), LLMRequest{Prompt: "x"})

	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNewLLM(t *testing.T) {
	llm, err := NewLLM(config.LLMConfig{Provider: config.ProviderGemini})
	require.NoError(t, err)
	assert.Equal(t, "gemini", llm.Name())

	llm, err = NewLLM(config.LLMConfig{Provider: config.ProviderOpenRouter})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", llm.Name())

	_, err = NewLLM(config.LLMConfig{Provider: "other"})
	assert.Error(t, err)
}

func TestSpoonacularSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recipes/complexSearch", r.URL.Path)
		assert.Equal(t, testSecret, r.Header.Get("x-api-key"))

		q := r.URL.Query()
		assert.Empty(t, q.Get("apiKey"))
		assert.Equal(t, "chicken,rice,onion", q.Get("includeIngredients"))
		assert.Equal(t, "italian", q.Get("cuisine"))
		assert.Equal(t, "30", q.Get("maxReadyTime"))
		assert.Equal(t, "4", q.Get("minServings"))
		assert.Equal(t, "true", q.Get("addRecipeInformation"))
		assert.Equal(t, "5", q.Get("number"))

		_, _ = w.Write([]byte(`{"results":[{"id":7,"title":"Chicken Rice","readyInMinutes":25,"servings":4}],"totalResults":1}`))
	}))
	defer server.Close()

	client := NewSpoonacularClient(config.SearchConfig{
		APIKey:  testSecret,
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Results: 5,
	})
	recipes, err := client.Search(context.Background(), SearchParams{
		IncludeIngredients: []string{"chicken", "rice", "onion"},
		Cuisine:            "italian",
		MaxReadyTime:       30,
		Servings:           4,
	})

	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, 7, recipes[0].ID)
	assert.Equal(t, "Chicken Rice", recipes[0].Title)
}

func TestSpoonacularErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"missing results", http.StatusOK, `{"totalResults":0}`, ErrMalformed},
		{"quota", http.StatusPaymentRequired, `{"message":"daily points limit"}`, ErrQuotaExceeded},
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrRateLimited},
		{"forbidden", http.StatusForbidden, `{}`, ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewSpoonacularClient(config.SearchConfig{APIKey: testSecret, BaseURL: server.URL, Timeout: time.Second})
			_, err := client.Search(context.Background(), SearchParams{Query: "soup"})

			assert.ErrorIs(t, err, tt.want)
			assert.NotContains(t, err.Error(), testSecret)
		})
	}
}

func TestFromStatusTruncatesBody(t *testing.T) {
	err := fromStatus("gemini", http.StatusInternalServerError, []byte(strings.Repeat("a", 500)))
	assert.Less(t, len(err.Error()), 300)
}

func TestUsageTracker(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	tracker := NewUsageTracker(2, WithUsageClock(func() time.Time { return now }))

	require.NoError(t, tracker.Allow("spoonacular", "u1"))
	tracker.Record("spoonacular", "u1")
	require.NoError(t, tracker.Allow("spoonacular", "u1"))
	tracker.Record("spoonacular", "u1")

	err := tracker.Allow("spoonacular", "u1")
	assert.ErrorIs(t, err, ErrRateLimited)

	t.Run("independent per api and user", func(t *testing.T) {
		assert.NoError(t, tracker.Allow("gemini", "u1"))
		assert.NoError(t, tracker.Allow("spoonacular", "u2"))
	})

	t.Run("resets on a new day", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		assert.Equal(t, 0, tracker.Snapshot("spoonacular", "u1").RequestCount)
		assert.NoError(t, tracker.Allow("spoonacular", "u1"))
		tracker.Record("spoonacular", "u1")
		assert.Equal(t, 1, tracker.Snapshot("spoonacular", "u1").RequestCount)
	})
}

func TestUsageTrackerUnlimited(t *testing.T) {
	tracker := NewUsageTracker(0)
	for i := 0; i < 50; i++ {
		require.NoError(t, tracker.Allow("gemini", "u1"))
		tracker.Record("gemini", "u1")
	}
	assert.Equal(t, 50, tracker.Snapshot("gemini", "u1").RequestCount)
}
