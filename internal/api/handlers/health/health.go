package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-discovery/internal/core/cache"
	"recipe-discovery/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StoreChecker 配額儲存後端健康檢查
type StoreChecker interface {
	Ping(ctx context.Context) error
	StoreName() string
}

// StatsSource 可回報統計的緩存
type StatsSource interface {
	Stats() cache.Stats
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Store     StoreStatus            `json:"store"`
	Caches    []cache.Stats          `json:"caches"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// StoreStatus 配額儲存後端狀態
type StoreStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	store   StoreChecker
	caches  []StatsSource
}

// NewHandler 創建健康檢查處理器
func NewHandler(version string, store StoreChecker, caches ...StatsSource) *Handler {
	return &Handler{version: version, store: store, caches: caches}
}

func (h *Handler) checkStore(ctx context.Context) StoreStatus {
	st := StoreStatus{Name: h.store.StoreName(), Status: "ok"}
	if err := h.store.Ping(ctx); err != nil {
		st.Status = "unreachable"
		st.Error = err.Error()
	}
	return st
}

// HealthCheck 健康檢查；配額儲存後端不可用時回報 degraded
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	store := h.checkStore(c.Request.Context())

	stats := make([]cache.Stats, 0, len(h.caches))
	for _, src := range h.caches {
		stats = append(stats, src.Stats())
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Store:     store,
		Caches:    stats,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	status := http.StatusOK
	if store.Status != "ok" {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
		common.LogWarn("Health check degraded",
			zap.String("store", store.Name),
			zap.String("error", store.Error),
		)
	}

	c.JSON(status, response)
}

// ReadinessCheck 就緒檢查
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if st := h.checkStore(c.Request.Context()); st.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"store":  st,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
