package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// KEYS[1] 計數鍵；ARGV[1] 配額；ARGV[2] 存活時間（毫秒）
var incrementScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return -1
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return current
`)

// RedisStore 以 Redis 保存每日計數，鍵在當日結束後過期
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore 創建 Redis 計數儲存
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "rate_limit:daily"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Name 儲存名稱
func (s *RedisStore) Name() string {
	return "redis"
}

func (s *RedisStore) key(userID, day string) string {
	return fmt.Sprintf("%s:%s:%s", s.keyPrefix, userID, day)
}

// GetStatus 取得當日計數
func (s *RedisStore) GetStatus(ctx context.Context, userID, day string) (int, error) {
	count, err := s.client.Get(ctx, s.key(userID, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rate limit count: %w", err)
	}
	return count, nil
}

// IncrementIfUnderQuota 以 Lua 腳本原子地檢查並遞增
func (s *RedisStore) IncrementIfUnderQuota(ctx context.Context, userID, day string, quota int) (int, error) {
	if quota <= 0 {
		return 0, ErrQuotaExceeded
	}

	end, err := dayEnd(day)
	if err != nil {
		return 0, fmt.Errorf("invalid day %q: %w", day, err)
	}

	count, err := incrementScript.Run(ctx, s.client,
		[]string{s.key(userID, day)},
		quota, keyTTL(end).Milliseconds(),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count < 0 {
		return quota, ErrQuotaExceeded
	}
	return count, nil
}

// Ping 檢查 Redis 連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// keyTTL 計數鍵保留到當日結束後再多一天，最少一小時
func keyTTL(end time.Time) time.Duration {
	ttl := time.Until(end) + 24*time.Hour
	if ttl < time.Hour {
		ttl = time.Hour
	}
	return ttl
}
