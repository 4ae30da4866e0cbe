package ratelimit

import (
	"context"
	"errors"
	"time"

	"recipe-discovery/internal/pkg/common"

	"go.uber.org/zap"
)

// Status 使用者當日配額狀態
type Status struct {
	CurrentCount int       `json:"current_count"`
	MaxRequests  int       `json:"max_requests"`
	Remaining    int       `json:"remaining"`
	ResetTime    time.Time `json:"reset_time"`
	Degraded     bool      `json:"degraded,omitempty"`
}

// Limiter 每位使用者每日請求配額
type Limiter struct {
	store        Store
	maxRequests  int
	storeTimeout time.Duration
	now          func() time.Time
}

// Option 配額限制器選項
type Option func(*Limiter)

// WithClock 指定時鐘
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithStoreTimeout 指定每次存取儲存後端的逾時
func WithStoreTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		l.storeTimeout = d
	}
}

// NewLimiter 創建配額限制器
func NewLimiter(store Store, maxRequests int, opts ...Option) *Limiter {
	l := &Limiter{
		store:        store,
		maxRequests:  maxRequests,
		storeTimeout: 3 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxRequests 每日配額
func (l *Limiter) MaxRequests() int {
	return l.maxRequests
}

// StoreTimeout 儲存後端逾時
func (l *Limiter) StoreTimeout() time.Duration {
	return l.storeTimeout
}

// StoreName 儲存後端名稱
func (l *Limiter) StoreName() string {
	return l.store.Name()
}

func (l *Limiter) status(count int, now time.Time) Status {
	remaining := l.maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		CurrentCount: count,
		MaxRequests:  l.maxRequests,
		Remaining:    remaining,
		ResetTime:    NextUTCMidnight(now),
	}
}

// Status 查詢當日狀態；儲存後端不可用時以計數 0 放行並記錄警告
func (l *Limiter) Status(ctx context.Context, userID string) Status {
	now := l.now()

	ctx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()

	count, err := l.store.GetStatus(ctx, userID, DayOf(now))
	if err != nil {
		common.LogWarn("Rate limit store unavailable, failing open",
			zap.String("store", l.store.Name()),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		st := l.status(0, now)
		st.Degraded = true
		return st
	}
	return l.status(count, now)
}

// Increment 原子地消耗一次配額
//
// 配額已滿時返回帶 reset_time 的 common.ErrRateLimitExceeded；
// 儲存後端錯誤時放行並將狀態標記為 Degraded。
func (l *Limiter) Increment(ctx context.Context, userID string) (Status, error) {
	now := l.now()

	ctx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()

	count, err := l.store.IncrementIfUnderQuota(ctx, userID, DayOf(now), l.maxRequests)
	if errors.Is(err, ErrQuotaExceeded) {
		st := l.status(l.maxRequests, now)
		return st, ExceededError(st)
	}
	if err != nil {
		common.LogWarn("Rate limit increment failed, failing open",
			zap.String("store", l.store.Name()),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		st := l.status(0, now)
		st.Degraded = true
		return st, nil
	}
	return l.status(count, now), nil
}

// Ping 檢查儲存後端
func (l *Limiter) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()
	return l.store.Ping(ctx)
}

// ExceededError 建立配額用完的錯誤
func ExceededError(st Status) error {
	return common.ErrRateLimitExceeded.
		WithDetail("reset_time", st.ResetTime).
		WithDetail("max_requests", st.MaxRequests).
		WithDetail("remaining", 0)
}
