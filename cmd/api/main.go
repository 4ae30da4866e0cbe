package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-discovery/internal/api"
	"recipe-discovery/internal/api/handlers/health"
	"recipe-discovery/internal/core/auth"
	"recipe-discovery/internal/core/cache"
	"recipe-discovery/internal/core/provider"
	"recipe-discovery/internal/core/ratelimit"
	"recipe-discovery/internal/core/recipe"
	"recipe-discovery/internal/infrastructure/config"
	"recipe-discovery/internal/infrastructure/database"
	"recipe-discovery/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.Log.Level, cfg.Log.Mode, cfg.Log.File); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	// 金鑰只以遮罩形式記錄
	common.LogInfo("載入設定",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("llm_key", config.MaskAPIKey(cfg.LLM.APIKey)),
		zap.String("search_key", config.MaskAPIKey(cfg.Search.APIKey)),
		zap.String("rate_limit_store", cfg.RateLimit.Store),
		zap.Int("rate_limit_max_requests", cfg.RateLimit.MaxRequests),
	)

	store, closeStore, err := newStore(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize rate limit store", zap.Error(err))
	}
	defer closeStore()

	llm, err := provider.NewLLM(cfg.LLM)
	if err != nil {
		common.LogFatal("Failed to initialize LLM client", zap.Error(err))
	}

	// 初始化快取
	searchCache := cache.New[[]recipe.Recipe]("search", cfg.Cache.SearchTTL, cache.WithMaxSize(cfg.Cache.MaxSize))
	generateCache := cache.New[[]recipe.Recipe]("generate", cfg.Cache.LLMTTL, cache.WithMaxSize(cfg.Cache.MaxSize))
	classifyCache := cache.New[recipe.Category]("classify", cfg.Cache.LLMTTL, cache.WithMaxSize(cfg.Cache.MaxSize))

	limiter := ratelimit.NewLimiter(store, cfg.RateLimit.MaxRequests,
		ratelimit.WithStoreTimeout(cfg.RateLimit.StoreTimeout),
	)

	svc := recipe.NewService(recipe.ServiceDeps{
		Verifier:      auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Limiter:       limiter,
		Analyzer:      recipe.NewAnalyzer(recipe.NewClassifier(llm, classifyCache)),
		Search:        provider.NewSpoonacularClient(cfg.Search),
		LLM:           llm,
		Usage:         provider.NewUsageTracker(cfg.Usage.DailySoftLimit),
		SearchCache:   searchCache,
		GenerateCache: generateCache,
	})

	// 設置路由
	router := api.SetupRouter(cfg, api.Deps{
		Recipes: svc,
		Store:   limiter,
		Caches:  []health.StatsSource{searchCache, generateCache, classifyCache},
	})

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

// newStore 依設定建立配額儲存後端
func newStore(cfg *config.Config) (ratelimit.Store, func(), error) {
	switch cfg.RateLimit.Store {
	case config.StoreDatabase:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return newSQLStore(db, database.Migrate)

	case config.StoreRedis:
		client, err := database.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return ratelimit.NewRedisStore(client, ""), func() { _ = client.Close() }, nil

	default:
		return ratelimit.NewMemoryStore(), func() {}, nil
	}
}

// newSQLStore 建表後建立 SQL 配額儲存；建表失敗時關閉連線
func newSQLStore(db *gorm.DB, migrate func(*gorm.DB) error) (ratelimit.Store, func(), error) {
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := migrate(db); err != nil {
		closeDB()
		return nil, nil, err
	}
	return ratelimit.NewSQLStore(db), closeDB, nil
}
