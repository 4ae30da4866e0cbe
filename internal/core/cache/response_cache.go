package cache

import (
	"sync"
	"time"

	"recipe-discovery/internal/pkg/common"

	"go.uber.org/zap"
)

// Entry 緩存條目
type Entry[V any] struct {
	Key        string
	Payload    V
	CreatedAt  time.Time
	lastAccess time.Time
	hits       int
}

// Stats 緩存統計
type Stats struct {
	Name        string  `json:"name"`
	Size        int     `json:"size"`
	MaxSize     int     `json:"max_size"`
	TTL         string  `json:"ttl"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Expirations int64   `json:"expirations"`
	Evictions   int64   `json:"evictions"`
	HitRatio    float64 `json:"hit_ratio"`
}

// ResponseCache 依請求指紋記憶外部 API 回應的行程內緩存。
//
// 條目在 TTL 後視為不存在，並在下一次讀取時移除；不會背景清理。
// 同一個 key 的併發寫入以最後一次為準。
type ResponseCache[V any] struct {
	name    string
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	mu    sync.Mutex
	store map[string]*Entry[V]

	hits        int64
	misses      int64
	expirations int64
	evictions   int64
}

// Option 緩存選項
type Option func(*options)

type options struct {
	maxSize int
	now     func() time.Time
}

// WithMaxSize 設定最大條目數，0 表示不限
func WithMaxSize(n int) Option {
	return func(o *options) { o.maxSize = n }
}

// WithClock 注入時鐘（測試用）
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New 創建新的緩存
func New[V any](name string, ttl time.Duration, opts ...Option) *ResponseCache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	common.LogInfo("快取已初始化",
		zap.String("名稱", name),
		zap.Int("最大容量", o.maxSize),
		zap.Duration("存活時間", ttl),
	)

	return &ResponseCache[V]{
		name:    name,
		ttl:     ttl,
		maxSize: o.maxSize,
		now:     o.now,
		store:   make(map[string]*Entry[V]),
	}
}

// Name 緩存名稱
func (c *ResponseCache[V]) Name() string {
	return c.name
}

// Get 獲取緩存值；過期的條目會被移除並視為未命中
func (c *ResponseCache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.store[key]
	if !exists {
		c.misses++
		common.LogCacheMiss(c.name)
		return zero, false
	}

	now := c.now()
	if now.Sub(entry.CreatedAt) >= c.ttl {
		delete(c.store, key)
		c.expirations++
		c.misses++
		common.LogDebug("快取已過期", zap.String("類型", c.name))
		return zero, false
	}

	entry.lastAccess = now
	entry.hits++
	c.hits++
	common.LogCacheHit(c.name)
	return entry.Payload, true
}

// Put 設置緩存值
func (c *ResponseCache[V]) Put(key string, payload V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && c.maxSize > 0 && len(c.store) >= c.maxSize {
		c.evictLRU()
	}

	now := c.now()
	c.store[key] = &Entry[V]{
		Key:        key,
		Payload:    payload,
		CreatedAt:  now,
		lastAccess: now,
	}
}

// evictLRU 淘汰最少使用的條目，呼叫者需持有鎖
func (c *ResponseCache[V]) evictLRU() {
	var oldestKey string
	var oldest *Entry[V]

	for key, entry := range c.store {
		if oldest == nil ||
			entry.hits < oldest.hits ||
			(entry.hits == oldest.hits && entry.lastAccess.Before(oldest.lastAccess)) {
			oldestKey = key
			oldest = entry
		}
	}

	if oldest != nil {
		delete(c.store, oldestKey)
		c.evictions++
		common.LogDebug("快取已淘汰(LRU)", zap.String("類型", c.name))
	}
}

// Len 目前條目數（包含尚未被讀取移除的過期條目）
func (c *ResponseCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// Stats 獲取緩存統計信息
func (c *ResponseCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ratio float64
	if total := c.hits + c.misses; total > 0 {
		ratio = float64(c.hits) / float64(total)
	}

	return Stats{
		Name:        c.name,
		Size:        len(c.store),
		MaxSize:     c.maxSize,
		TTL:         c.ttl.String(),
		Hits:        c.hits,
		Misses:      c.misses,
		Expirations: c.expirations,
		Evictions:   c.evictions,
		HitRatio:    ratio,
	}
}
