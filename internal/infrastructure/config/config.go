package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Search      SearchConfig    `mapstructure:"search"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Usage       UsageConfig     `mapstructure:"usage"`
	Log         LogConfig       `mapstructure:"log"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	AllowOrigins   []string      `mapstructure:"allow_origins"`
}

// LLMConfig 大型語言模型配置
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SearchConfig 食譜搜尋 API 配置
type SearchConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Results int           `mapstructure:"results"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	MaxSize   int           `mapstructure:"max_size"`
	SearchTTL time.Duration `mapstructure:"search_ttl"`
	LLMTTL    time.Duration `mapstructure:"llm_ttl"`
}

// RateLimitConfig 每日配額配置
type RateLimitConfig struct {
	MaxRequests  int           `mapstructure:"max_requests"`
	Store        string        `mapstructure:"store"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
}

// DatabaseConfig 資料庫配置
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 身分驗證配置
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// UsageConfig 第三方 API 用量配置
type UsageConfig struct {
	DailySoftLimit int `mapstructure:"daily_soft_limit"`
}

// LogConfig 日誌配置
type LogConfig struct {
	Level string `mapstructure:"level"`
	Mode  string `mapstructure:"mode"`
	File  string `mapstructure:"file"`
}

// 速率限制儲存後端
const (
	StoreMemory   = "memory"
	StoreDatabase = "database"
	StoreRedis    = "redis"
)

// LLM 供應商
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 為可選
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// OpenRouter 的金鑰沿用舊的環境變數
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == ProviderOpenRouter {
		cfg.LLM.APIKey = v.GetString("openrouter_api_key")
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.provider", "LLM_PROVIDER")
	_ = v.BindEnv("llm.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("llm.model", "LLM_MODEL")
	_ = v.BindEnv("openrouter_api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("search.api_key", "SPOONACULAR_API_KEY")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("database.dsn", "DATABASE_URL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("rate_limit.max_requests", "RATE_LIMIT_MAX_REQUESTS")
	_ = v.BindEnv("rate_limit.store", "RATE_LIMIT_STORE")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.mode", "LOG_MODE")
	_ = v.BindEnv("server.port", "PORT")
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-discovery")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.allow_origins", []string{"*"})

	// LLM 設定
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "15s")

	// 食譜搜尋設定
	v.SetDefault("search.base_url", "https://api.spoonacular.com")
	v.SetDefault("search.timeout", "15s")
	v.SetDefault("search.results", 10)

	// 快取設定
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.search_ttl", "5m")
	v.SetDefault("cache.llm_ttl", "10m")

	// 配額設定
	v.SetDefault("rate_limit.max_requests", 20)
	v.SetDefault("rate_limit.store", StoreMemory)
	v.SetDefault("rate_limit.store_timeout", "3s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.issuer", "")

	v.SetDefault("usage.daily_soft_limit", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.mode", "")
	v.SetDefault("log.file", "")

	v.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	switch cfg.LLM.Provider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	if cfg.Cache.SearchTTL <= 0 || cfg.Cache.LLMTTL <= 0 {
		return fmt.Errorf("invalid cache ttl")
	}
	if cfg.Cache.MaxSize < 0 {
		return fmt.Errorf("invalid cache max size")
	}

	if cfg.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("invalid rate limit max requests")
	}

	switch cfg.RateLimit.Store {
	case StoreMemory:
	case StoreDatabase:
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database dsn is required for the database rate limit store")
		}
		if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
			return fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
		}
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis rate limit store")
		}
	default:
		return fmt.Errorf("unknown rate limit store %q", cfg.RateLimit.Store)
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt secret is required")
	}

	if cfg.Usage.DailySoftLimit < 0 {
		return fmt.Errorf("invalid usage daily soft limit")
	}

	return nil
}
