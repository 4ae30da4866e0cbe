package ratelimit

import (
	"context"
	"sync"
)

type dayCount struct {
	day   string
	count int
}

// MemoryStore 單一進程內的計數儲存，適合開發與測試
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]dayCount
}

// NewMemoryStore 創建記憶體計數儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[string]dayCount)}
}

// Name 儲存名稱
func (s *MemoryStore) Name() string {
	return "memory"
}

// GetStatus 取得當日計數
func (s *MemoryStore) GetStatus(ctx context.Context, userID, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.counts[userID]
	if !ok || rec.day != day {
		return 0, nil
	}
	return rec.count, nil
}

// IncrementIfUnderQuota 在鎖內檢查並增加計數
func (s *MemoryStore) IncrementIfUnderQuota(ctx context.Context, userID, day string, quota int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.counts[userID]
	if rec.day != day {
		rec = dayCount{day: day}
	}
	if rec.count >= quota {
		return rec.count, ErrQuotaExceeded
	}
	rec.count++
	s.counts[userID] = rec
	return rec.count, nil
}

// Ping 記憶體儲存永遠可用
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
