package provider

import (
	"fmt"
	"sync"
	"time"

	"recipe-discovery/internal/pkg/common"

	"go.uber.org/zap"
)

// UsageRecord 單一使用者對單一外部 API 的當日用量
type UsageRecord struct {
	API          string    `json:"api"`
	RequestCount int       `json:"request_count"`
	LastRequest  time.Time `json:"last_request"`
}

// UsageTracker 追蹤每位使用者對外部 API 的呼叫次數，用於對第三方速率限制做軟性節流
type UsageTracker struct {
	mu         sync.Mutex
	records    map[string]*UsageRecord
	dailyLimit int
	now        func() time.Time
}

// UsageOption 用量追蹤器選項
type UsageOption func(*UsageTracker)

// WithUsageClock 指定時鐘
func WithUsageClock(now func() time.Time) UsageOption {
	return func(t *UsageTracker) {
		t.now = now
	}
}

// NewUsageTracker 創建用量追蹤器，dailyLimit 為 0 表示不限制
func NewUsageTracker(dailyLimit int, opts ...UsageOption) *UsageTracker {
	t := &UsageTracker{
		records:    make(map[string]*UsageRecord),
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func usageKey(api, userID string) string {
	return api + ":" + userID
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// current 取得當日紀錄，跨日時歸零；呼叫前須持有鎖
func (t *UsageTracker) current(api, userID string, now time.Time) *UsageRecord {
	rec, ok := t.records[usageKey(api, userID)]
	if !ok {
		rec = &UsageRecord{API: api}
		t.records[usageKey(api, userID)] = rec
	}
	if !rec.LastRequest.IsZero() && !sameUTCDay(rec.LastRequest, now) {
		rec.RequestCount = 0
	}
	return rec
}

// Allow 檢查是否仍在軟性上限內，超過時返回 KindRateLimited 錯誤且不發出網路請求
func (t *UsageTracker) Allow(api, userID string) error {
	if t.dailyLimit <= 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.current(api, userID, t.now())
	if rec.RequestCount >= t.dailyLimit {
		common.LogWarn("API usage soft limit reached",
			zap.String("api", api),
			zap.String("user_id", userID),
			zap.Int("count", rec.RequestCount),
		)
		return &Error{
			Provider: api,
			Kind:     KindRateLimited,
			Err:      fmt.Errorf("daily usage limit of %d reached", t.dailyLimit),
		}
	}
	return nil
}

// Record 記錄一次成功的外部呼叫
func (t *UsageTracker) Record(api, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec := t.current(api, userID, now)
	rec.RequestCount++
	rec.LastRequest = now
}

// Snapshot 取得用量快照
func (t *UsageTracker) Snapshot(api, userID string) UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[usageKey(api, userID)]
	if !ok {
		return UsageRecord{API: api}
	}
	out := *rec
	if !out.LastRequest.IsZero() && !sameUTCDay(out.LastRequest, t.now()) {
		out.RequestCount = 0
	}
	return out
}
