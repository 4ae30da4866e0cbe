package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"recipe-discovery/internal/infrastructure/config"
	"recipe-discovery/internal/infrastructure/database"
	"recipe-discovery/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetStatus(ctx context.Context, userID, day string) (int, error) {
	args := m.Called(ctx, userID, day)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) IncrementIfUnderQuota(ctx context.Context, userID, day string, quota int) (int, error) {
	args := m.Called(ctx, userID, day, quota)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Name() string {
	return "mock"
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewSQLStore(db)
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewRedisStore(client, "rate_limit:test:"+uuid.NewString())
}

func stores(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return newSQLiteStore(t) },
		"redis":  func(t *testing.T) Store { return newRedisStore(t) },
	}
}

func TestNextUTCMidnight(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2024, 5, 1, 13, 45, 0, 0, time.UTC), time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 1, 22, 0, 0, 0, time.FixedZone("UTC-5", -5*3600)), time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextUTCMidnight(tt.now), tt.now.String())
	}
}

func TestStoresConcurrentIncrement(t *testing.T) {
	for name, build := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := build(t)
			limiter := NewLimiter(store, 20, WithStoreTimeout(30*time.Second))
			userID := uuid.NewString()

			var accepted, rejected int32
			var wg sync.WaitGroup
			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := limiter.Increment(context.Background(), userID)
					if err != nil {
						assert.ErrorIs(t, err, common.ErrRateLimitExceeded)
						atomic.AddInt32(&rejected, 1)
						return
					}
					atomic.AddInt32(&accepted, 1)
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(20), accepted)
			assert.Equal(t, int32(80), rejected)

			st := limiter.Status(context.Background(), userID)
			assert.Equal(t, 20, st.CurrentCount)
			assert.Equal(t, 0, st.Remaining)
			assert.False(t, st.Degraded)
		})
	}
}

func TestStoresAtQuota(t *testing.T) {
	now := time.Date(2024, 7, 4, 18, 30, 0, 0, time.UTC)

	for name, build := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := build(t)
			limiter := NewLimiter(store, 20, WithClock(fixedClock(now)))
			userID := uuid.NewString()

			for i := 0; i < 20; i++ {
				st, err := limiter.Increment(context.Background(), userID)
				require.NoError(t, err)
				assert.Equal(t, i+1, st.CurrentCount)
			}

			st, err := limiter.Increment(context.Background(), userID)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrRateLimitExceeded)
			assert.Equal(t, time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC), st.ResetTime)

			ce := common.AsCustomError(err)
			assert.Equal(t, time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC), ce.Details["reset_time"])

			count, err := store.GetStatus(context.Background(), userID, DayOf(now))
			require.NoError(t, err)
			assert.Equal(t, 20, count)
		})
	}
}

func TestStoresDayRollover(t *testing.T) {
	for name, build := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := build(t)
			now := time.Date(2024, 7, 4, 23, 59, 0, 0, time.UTC)
			limiter := NewLimiter(store, 2, WithClock(func() time.Time { return now }))
			userID := uuid.NewString()

			for i := 0; i < 2; i++ {
				_, err := limiter.Increment(context.Background(), userID)
				require.NoError(t, err)
			}
			_, err := limiter.Increment(context.Background(), userID)
			require.Error(t, err)

			now = now.Add(2 * time.Minute)
			st := limiter.Status(context.Background(), userID)
			assert.Equal(t, 0, st.CurrentCount)
			assert.Equal(t, 2, st.Remaining)

			st, err = limiter.Increment(context.Background(), userID)
			require.NoError(t, err)
			assert.Equal(t, 1, st.CurrentCount)
		})
	}
}

func TestStatusFailsOpen(t *testing.T) {
	now := time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)
	store := new(mockStore)
	store.On("GetStatus", mock.Anything, "u1", "2024-07-04").Return(0, errors.New("connection refused"))

	limiter := NewLimiter(store, 20, WithClock(fixedClock(now)))
	st := limiter.Status(context.Background(), "u1")

	assert.True(t, st.Degraded)
	assert.Equal(t, 0, st.CurrentCount)
	assert.Equal(t, 20, st.Remaining)
	assert.Equal(t, time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC), st.ResetTime)
	store.AssertExpectations(t)
}

func TestIncrementFailsOpen(t *testing.T) {
	store := new(mockStore)
	store.On("IncrementIfUnderQuota", mock.Anything, "u1", mock.Anything, 20).Return(0, errors.New("timeout"))

	limiter := NewLimiter(store, 20)
	st, err := limiter.Increment(context.Background(), "u1")

	require.NoError(t, err)
	assert.True(t, st.Degraded)
	store.AssertExpectations(t)
}

func TestStatusCountsRemaining(t *testing.T) {
	store := new(mockStore)
	store.On("GetStatus", mock.Anything, "u1", mock.Anything).Return(7, nil)

	st := NewLimiter(store, 20).Status(context.Background(), "u1")

	assert.Equal(t, 7, st.CurrentCount)
	assert.Equal(t, 13, st.Remaining)
	assert.Equal(t, 20, st.MaxRequests)
}

func TestZeroQuotaRejected(t *testing.T) {
	store := newSQLiteStore(t)
	_, err := store.IncrementIfUnderQuota(context.Background(), "u1", "2024-07-04", 0)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}
