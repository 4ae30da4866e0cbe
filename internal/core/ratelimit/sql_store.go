package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-discovery/internal/infrastructure/database"

	"gorm.io/gorm"
)

// 條件式 upsert：只有在計數小於配額時才會更新並返回一列
const incrementSQL = `INSERT INTO rate_limits (user_id, day, request_count, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT (user_id, day) DO UPDATE
SET request_count = rate_limits.request_count + 1, updated_at = excluded.updated_at
WHERE rate_limits.request_count < ?
RETURNING request_count`

// SQLStore 以資料庫保存每日計數，支援 postgres 與 sqlite
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore 創建資料庫計數儲存
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Name 儲存名稱
func (s *SQLStore) Name() string {
	return "database"
}

// GetStatus 取得當日計數，沒有紀錄視為 0
func (s *SQLStore) GetStatus(ctx context.Context, userID, day string) (int, error) {
	var rec database.RateLimitRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rate limit record: %w", err)
	}
	return rec.RequestCount, nil
}

// IncrementIfUnderQuota 以單一 SQL 語句完成檢查與遞增
func (s *SQLStore) IncrementIfUnderQuota(ctx context.Context, userID, day string, quota int) (int, error) {
	if quota <= 0 {
		return 0, ErrQuotaExceeded
	}

	var rows []struct {
		RequestCount int
	}
	err := s.db.WithContext(ctx).
		Raw(incrementSQL, userID, day, time.Now().UTC(), quota).
		Scan(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if len(rows) == 0 {
		return quota, ErrQuotaExceeded
	}
	return rows[0].RequestCount, nil
}

// Ping 檢查資料庫連線
func (s *SQLStore) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.db)
}
